// api/dashboard/assembler.go
package dashboard

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"checkoutlens/api/aggregate"
	"checkoutlens/api/catalog"
	"checkoutlens/api/metrics"
	"checkoutlens/api/models"
)

// DefaultCacheTTL bounds aggregation load under the dashboard's auto-refresh
// polling.
const DefaultCacheTTL = 5 * time.Minute

var checkoutCompletionTypes = []string{models.EventOrderCreated, models.EventOrderCompleted}

// Assembler orchestrates the aggregation calls for one dashboard render and
// shapes the result into a single payload. The assembled payload is cached
// for a short TTL with last-writer-wins semantics; aggregation errors degrade
// individual widgets to their defaults so the dashboard always renders.
type Assembler struct {
	engine   *aggregate.Engine
	products catalog.Resolver
	log      *zap.Logger
	ttl      time.Duration
	now      func() time.Time

	mu       sync.Mutex
	cached   *models.DashboardPayload
	cachedAt time.Time
}

func NewAssembler(engine *aggregate.Engine, products catalog.Resolver, ttl time.Duration, log *zap.Logger) *Assembler {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Assembler{
		engine:   engine,
		products: products,
		log:      log,
		ttl:      ttl,
		now:      time.Now,
	}
}

// WithClock overrides the cache clock. Tests only.
func (a *Assembler) WithClock(now func() time.Time) *Assembler {
	a.now = now
	return a
}

// Payload returns the cached dashboard payload, rebuilding it when the cache
// is empty or stale.
func (a *Assembler) Payload(ctx context.Context) *models.DashboardPayload {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cached != nil && a.now().Sub(a.cachedAt) < a.ttl {
		metrics.IncDashboardCache("hit")
		return a.cached
	}
	metrics.IncDashboardCache("miss")

	payload := a.build(ctx)
	a.cached = payload
	a.cachedAt = a.now()
	return payload
}

// Invalidate drops the cached payload so the next read rebuilds. Called on
// manual refresh.
func (a *Assembler) Invalidate() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cached = nil
}

func (a *Assembler) build(ctx context.Context) *models.DashboardPayload {
	metrics.IncDashboardBuild()
	now := a.now().UTC()

	total, err := a.engine.SessionCount(ctx, nil, aggregate.AllTime)
	if err != nil {
		a.log.Error("Dashboard build: session count failed, serving sample data", zap.Error(err))
		return samplePayload(now)
	}
	if total == 0 {
		return samplePayload(now)
	}

	payload := &models.DashboardPayload{GeneratedAt: now}

	payload.Cart = a.cartStats(ctx)
	payload.Checkout = a.checkoutStats(ctx)
	payload.Form = models.FormStats{
		AvgTimeSpentSec: aggregate.Round1(a.averageField(ctx, models.EventFormAbandonment, "time_spent")),
		AvgFieldsFilled: aggregate.Round1(a.averageField(ctx, models.EventFormAbandonment, "fields_filled")),
	}

	payload.TopValidationErrors = a.topCounts(ctx, models.EventValidationError, "errors", false)
	payload.TopAbandonedFields = a.topCounts(ctx, models.EventFormAbandonment, "abandoned_fields", true)
	payload.TopAbandonmentErrors = a.topCounts(ctx, models.EventFormAbandonment, "last_errors", false)
	payload.TopRemovedProducts = a.topRemovedProducts(ctx)

	payload.AbandonmentSeries = a.abandonmentSeries(ctx)
	payload.CheckoutTimeSeries = a.checkoutTimeSeries(ctx)
	payload.ChartLabels = seriesLabels(payload.AbandonmentSeries)

	counts, err := a.engine.FrictionTypeCounts(ctx, aggregate.AllTime, 10)
	if err != nil {
		a.log.Error("Dashboard build: friction type counts failed", zap.Error(err))
	}
	payload.FrictionCounts = counts

	return payload
}

func (a *Assembler) cartStats(ctx context.Context) models.CartStats {
	added, err := a.engine.EventCount(ctx, models.EventAddToCart, aggregate.AllTime)
	if err != nil {
		a.log.Error("Dashboard build: cart add count failed", zap.Error(err))
	}
	removed, err := a.engine.EventCount(ctx, models.EventRemoveFromCart, aggregate.AllTime)
	if err != nil {
		a.log.Error("Dashboard build: cart remove count failed", zap.Error(err))
	}

	// Removals are the friction signal here: a session counts as retained
	// when nothing was taken back out of the cart.
	rate, err := a.engine.FunnelRate(ctx, models.EventAddToCart, []string{models.EventRemoveFromCart}, aggregate.AllTime)
	if err != nil {
		a.log.Error("Dashboard build: cart abandonment rate failed", zap.Error(err))
	}

	return models.CartStats{
		TotalActions:    added + removed,
		Added:           added,
		Removed:         removed,
		AbandonmentRate: rate,
	}
}

func (a *Assembler) checkoutStats(ctx context.Context) models.CheckoutStats {
	started, err := a.engine.SessionCount(ctx, []string{models.EventCheckoutStart}, aggregate.AllTime)
	if err != nil {
		a.log.Error("Dashboard build: checkout start count failed", zap.Error(err))
	}
	completed, err := a.engine.SessionCount(ctx, checkoutCompletionTypes, aggregate.AllTime)
	if err != nil {
		a.log.Error("Dashboard build: checkout completion count failed", zap.Error(err))
	}

	return models.CheckoutStats{
		Started:         started,
		Completed:       completed,
		ConversionRate:  aggregate.Conversion(started, completed),
		AbandonmentRate: aggregate.Rate(started, completed),
	}
}

func (a *Assembler) averageField(ctx context.Context, eventType, path string) float64 {
	v, err := a.engine.AveragePayloadField(ctx, eventType, path)
	if err != nil {
		a.log.Error("Dashboard build: average failed",
			zap.String("type", eventType), zap.String("path", path), zap.Error(err))
		return 0
	}
	return v
}

func (a *Assembler) topCounts(ctx context.Context, eventType, path string, humanize bool) []models.RankedCount {
	counts, err := a.engine.TopPayloadCounts(ctx, eventType, path, aggregate.DefaultTopK, humanize)
	if err != nil {
		a.log.Error("Dashboard build: top counts failed",
			zap.String("type", eventType), zap.String("path", path), zap.Error(err))
		return nil
	}
	return counts
}

// topRemovedProducts ranks removed product ids and resolves each to a display
// name through the catalog, degrading to a placeholder per product on lookup
// failure.
func (a *Assembler) topRemovedProducts(ctx context.Context) []models.RankedCount {
	counts := a.topCounts(ctx, models.EventRemoveFromCart, "product_id", false)

	resolved := make([]models.RankedCount, 0, len(counts))
	for _, c := range counts {
		name, err := a.products.DisplayName(ctx, c.Key)
		if err != nil {
			a.log.Debug("Product lookup failed", zap.String("product_id", c.Key), zap.Error(err))
			name = catalog.UnknownProduct
		}
		resolved = append(resolved, models.RankedCount{Key: name, Count: c.Count})
	}
	return resolved
}

func (a *Assembler) abandonmentSeries(ctx context.Context) []models.SeriesPoint {
	points, err := a.engine.FunnelRateSeries(ctx, models.EventCheckoutStart, checkoutCompletionTypes, aggregate.DefaultSeriesDays)
	if err != nil {
		a.log.Error("Dashboard build: abandonment series failed", zap.Error(err))
		return emptySeries(a.now().UTC())
	}
	return points
}

func (a *Assembler) checkoutTimeSeries(ctx context.Context) []models.SeriesPoint {
	points, err := a.engine.PairDurationSeries(ctx, models.EventCheckoutStart, models.EventOrderCompleted, aggregate.DefaultSeriesDays)
	if err != nil {
		a.log.Error("Dashboard build: checkout time series failed", zap.Error(err))
		return emptySeries(a.now().UTC())
	}
	return points
}

func seriesLabels(points []models.SeriesPoint) []string {
	labels := make([]string, 0, len(points))
	for _, p := range points {
		labels = append(labels, p.Label)
	}
	return labels
}

func emptySeries(now time.Time) []models.SeriesPoint {
	points := make([]models.SeriesPoint, 0, aggregate.DefaultSeriesDays)
	for i := aggregate.DefaultSeriesDays - 1; i >= 0; i-- {
		points = append(points, models.SeriesPoint{
			Label: now.AddDate(0, 0, -i).Format("2006-01-02"),
		})
	}
	return points
}
