// api/aggregate/engine.go
package aggregate

import (
	"context"
	"time"

	"go.uber.org/zap"

	"checkoutlens/api/models"
	"checkoutlens/api/store"
)

// DefaultSeriesDays is the chart window the dashboard requests.
const DefaultSeriesDays = 7

// Window bounds a query to [From, To). A zero bound is open.
type Window struct {
	From time.Time
	To   time.Time
}

// AllTime is the unbounded window.
var AllTime = Window{}

// Day is the calendar-day window containing t, in UTC.
func Day(t time.Time) Window {
	from := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return Window{From: from, To: from.AddDate(0, 0, 1)}
}

// Engine derives funnel rates, rankings and time series from the event store.
// Every method recomputes from the live table; nothing is kept between calls,
// and reads against a continuously appended table tolerate minor skew.
type Engine struct {
	store store.EventStore
	log   *zap.Logger
	now   func() time.Time
}

func NewEngine(s store.EventStore, log *zap.Logger) *Engine {
	return &Engine{
		store: s,
		log:   log,
		now:   time.Now,
	}
}

// WithClock overrides the engine clock. Tests only.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// FunnelRate counts distinct sessions with at least one startType event in
// the window against distinct sessions with at least one event of any
// endType, and returns the abandonment percentage.
func (e *Engine) FunnelRate(ctx context.Context, startType string, endTypes []string, w Window) (float64, error) {
	entering, err := e.store.DistinctSessions(ctx, []string{startType}, w.From, w.To)
	if err != nil {
		return 0, err
	}
	if entering == 0 {
		return 0, nil
	}

	completing, err := e.store.DistinctSessions(ctx, endTypes, w.From, w.To)
	if err != nil {
		return 0, err
	}

	return Rate(entering, completing), nil
}

// FunnelRateSeries computes the funnel rate independently for each of the
// last daysBack calendar days, oldest first. Always exactly daysBack points;
// days without events contribute 0.
func (e *Engine) FunnelRateSeries(ctx context.Context, startType string, endTypes []string, daysBack int) ([]models.SeriesPoint, error) {
	if daysBack <= 0 {
		daysBack = DefaultSeriesDays
	}

	today := e.now().UTC()
	points := make([]models.SeriesPoint, 0, daysBack)

	for i := daysBack - 1; i >= 0; i-- {
		day := today.AddDate(0, 0, -i)
		rate, err := e.FunnelRate(ctx, startType, endTypes, Day(day))
		if err != nil {
			return nil, err
		}
		points = append(points, models.SeriesPoint{
			Label: day.Format("2006-01-02"),
			Value: rate,
		})
	}

	return points, nil
}

// TopPayloadCounts ranks the k most frequent values at path across all events
// of eventType.
func (e *Engine) TopPayloadCounts(ctx context.Context, eventType, path string, k int, humanize bool) ([]models.RankedCount, error) {
	events, err := e.store.EventsByTypes(ctx, []string{eventType}, time.Time{}, time.Time{})
	if err != nil {
		return nil, err
	}
	return TopGroupedCounts(events, path, k, humanize), nil
}

// AveragePayloadField is the mean numeric value at path across all events of
// eventType. 0 when nothing matches.
func (e *Engine) AveragePayloadField(ctx context.Context, eventType, path string) (float64, error) {
	events, err := e.store.EventsByTypes(ctx, []string{eventType}, time.Time{}, time.Time{})
	if err != nil {
		return 0, err
	}
	return AverageField(events, path), nil
}

// PairDurationSeries reports, per calendar day, the average elapsed time
// between the earliest startType and the latest endType event of each session
// completing both on that day. Days without completed pairs yield 0.
func (e *Engine) PairDurationSeries(ctx context.Context, startType, endType string, daysBack int) ([]models.SeriesPoint, error) {
	if daysBack <= 0 {
		daysBack = DefaultSeriesDays
	}

	today := e.now().UTC()
	points := make([]models.SeriesPoint, 0, daysBack)

	for i := daysBack - 1; i >= 0; i-- {
		day := today.AddDate(0, 0, -i)
		w := Day(day)
		events, err := e.store.EventsByTypes(ctx, []string{startType, endType}, w.From, w.To)
		if err != nil {
			return nil, err
		}
		points = append(points, models.SeriesPoint{
			Label: day.Format("2006-01-02"),
			Value: AverageSeconds(SessionPairDurations(events, startType, endType)),
		})
	}

	return points, nil
}

// SessionCount exposes distinct-session counting for the assembler's
// top-line stats.
func (e *Engine) SessionCount(ctx context.Context, types []string, w Window) (uint64, error) {
	return e.store.DistinctSessions(ctx, types, w.From, w.To)
}

// EventCount counts raw events of a type, duplicates included.
func (e *Engine) EventCount(ctx context.Context, eventType string, w Window) (uint64, error) {
	events, err := e.store.EventsByTypes(ctx, []string{eventType}, w.From, w.To)
	if err != nil {
		return 0, err
	}
	return uint64(len(events)), nil
}

// FrictionTypeCounts ranks friction event types by occurrence inside the
// window. Completions are progress, not friction, so order events are
// excluded.
func (e *Engine) FrictionTypeCounts(ctx context.Context, w Window, k int) ([]models.RankedCount, error) {
	if k <= 0 {
		k = 10
	}

	events, err := e.store.EventsByTypes(ctx, nil, w.From, w.To)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]uint64)
	order := make([]string, 0)
	for _, ev := range events {
		if ev.Type == models.EventOrderCreated || ev.Type == models.EventOrderCompleted {
			continue
		}
		if _, ok := counts[ev.Type]; !ok {
			order = append(order, ev.Type)
		}
		counts[ev.Type]++
	}

	ranked := make([]models.RankedCount, 0, len(order))
	for _, t := range order {
		ranked = append(ranked, models.RankedCount{Key: t, Count: counts[t]})
	}
	for i := 1; i < len(ranked); i++ {
		for j := i; j > 0 && ranked[j].Count > ranked[j-1].Count; j-- {
			ranked[j-1], ranked[j] = ranked[j], ranked[j-1]
		}
	}
	if len(ranked) > k {
		ranked = ranked[:k]
	}

	return ranked, nil
}
