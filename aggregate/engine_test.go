package aggregate

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"checkoutlens/api/models"
	"checkoutlens/api/store"
)

var testNow = time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T) (*Engine, *store.MemoryEventStore) {
	t.Helper()
	mem := store.NewMemoryEventStore()
	engine := NewEngine(mem, zap.NewNop()).WithClock(func() time.Time { return testNow })
	return engine, mem
}

func insert(t *testing.T, s *store.MemoryEventStore, sessionID, eventType string, at time.Time) {
	t.Helper()
	_, err := s.Insert(context.Background(), &models.FrictionEvent{
		SessionID: sessionID,
		Type:      eventType,
		Data:      "{}",
		CreatedAt: at,
	})
	require.NoError(t, err)
}

func TestEngine_CartAbandonmentScenario(t *testing.T) {
	engine, mem := newTestEngine(t)

	// 10 distinct sessions add to cart, 3 of them remove again.
	for i := 0; i < 10; i++ {
		insert(t, mem, fmt.Sprintf("s%d", i), models.EventAddToCart, testNow)
	}
	for i := 0; i < 3; i++ {
		insert(t, mem, fmt.Sprintf("s%d", i), models.EventRemoveFromCart, testNow)
	}

	rate, err := engine.FunnelRate(context.Background(), models.EventAddToCart,
		[]string{models.EventRemoveFromCart}, AllTime)
	require.NoError(t, err)
	assert.Equal(t, 70.0, rate)
}

func TestEngine_CheckoutAbandonmentScenario(t *testing.T) {
	engine, mem := newTestEngine(t)

	for i := 0; i < 5; i++ {
		insert(t, mem, fmt.Sprintf("s%d", i), models.EventCheckoutStart, testNow)
	}
	for i := 0; i < 2; i++ {
		insert(t, mem, fmt.Sprintf("s%d", i), models.EventOrderCreated, testNow)
	}

	rate, err := engine.FunnelRate(context.Background(), models.EventCheckoutStart,
		[]string{models.EventOrderCreated, models.EventOrderCompleted}, AllTime)
	require.NoError(t, err)
	assert.Equal(t, 60.0, rate)
}

func TestEngine_FunnelRate_DuplicatesDoNotSkewSessions(t *testing.T) {
	engine, mem := newTestEngine(t)

	// One session fires checkout_start three times (unreliable beacons).
	for i := 0; i < 3; i++ {
		insert(t, mem, "s1", models.EventCheckoutStart, testNow)
	}
	insert(t, mem, "s2", models.EventCheckoutStart, testNow)
	insert(t, mem, "s1", models.EventOrderCompleted, testNow)

	rate, err := engine.FunnelRate(context.Background(), models.EventCheckoutStart,
		[]string{models.EventOrderCreated, models.EventOrderCompleted}, AllTime)
	require.NoError(t, err)
	assert.Equal(t, 50.0, rate)
}

func TestEngine_FunnelRate_EmptyStore(t *testing.T) {
	engine, _ := newTestEngine(t)

	rate, err := engine.FunnelRate(context.Background(), models.EventCheckoutStart,
		[]string{models.EventOrderCompleted}, AllTime)
	require.NoError(t, err)
	assert.Equal(t, 0.0, rate)
}

func TestEngine_Aggregation_Idempotent(t *testing.T) {
	engine, mem := newTestEngine(t)

	for i := 0; i < 6; i++ {
		insert(t, mem, fmt.Sprintf("s%d", i), models.EventCheckoutStart, testNow.AddDate(0, 0, -i%3))
	}
	insert(t, mem, "s0", models.EventOrderCompleted, testNow)

	first, err := engine.FunnelRateSeries(context.Background(), models.EventCheckoutStart,
		[]string{models.EventOrderCompleted}, 7)
	require.NoError(t, err)
	second, err := engine.FunnelRateSeries(context.Background(), models.EventCheckoutStart,
		[]string{models.EventOrderCompleted}, 7)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestEngine_FunnelRateSeries_AlwaysSevenPoints(t *testing.T) {
	engine, mem := newTestEngine(t)

	// Single event two days ago; every other day must still be present.
	insert(t, mem, "s1", models.EventCheckoutStart, testNow.AddDate(0, 0, -2))

	points, err := engine.FunnelRateSeries(context.Background(), models.EventCheckoutStart,
		[]string{models.EventOrderCompleted}, 7)
	require.NoError(t, err)
	require.Len(t, points, 7)

	// Oldest first.
	assert.Equal(t, testNow.AddDate(0, 0, -6).Format("2006-01-02"), points[0].Label)
	assert.Equal(t, testNow.Format("2006-01-02"), points[6].Label)

	// The day with an uncompleted checkout reads 100% abandonment, the rest 0.
	for i, p := range points {
		if i == 4 {
			assert.Equal(t, 100.0, p.Value)
		} else {
			assert.Equal(t, 0.0, p.Value)
		}
	}
}

func TestEngine_FunnelRateSeries_DaysAreIndependent(t *testing.T) {
	engine, mem := newTestEngine(t)

	// Start yesterday, complete today: neither day holds a completed funnel.
	insert(t, mem, "s1", models.EventCheckoutStart, testNow.AddDate(0, 0, -1))
	insert(t, mem, "s1", models.EventOrderCompleted, testNow)

	points, err := engine.FunnelRateSeries(context.Background(), models.EventCheckoutStart,
		[]string{models.EventOrderCompleted}, 7)
	require.NoError(t, err)
	require.Len(t, points, 7)

	assert.Equal(t, 100.0, points[5].Value)
	assert.Equal(t, 0.0, points[6].Value)
}

func TestEngine_PairDurationSeries(t *testing.T) {
	engine, mem := newTestEngine(t)

	day := time.Date(2026, 8, 23, 9, 0, 0, 0, time.UTC)
	insert(t, mem, "s1", models.EventCheckoutStart, day)
	insert(t, mem, "s1", models.EventOrderCompleted, day.Add(2*time.Minute))
	insert(t, mem, "s2", models.EventCheckoutStart, day)
	insert(t, mem, "s2", models.EventOrderCompleted, day.Add(4*time.Minute))

	points, err := engine.PairDurationSeries(context.Background(),
		models.EventCheckoutStart, models.EventOrderCompleted, 7)
	require.NoError(t, err)
	require.Len(t, points, 7)

	assert.Equal(t, "2026-08-23", points[4].Label)
	assert.Equal(t, 180.0, points[4].Value)
	assert.Equal(t, 0.0, points[6].Value)
}

func TestEngine_EventCount_CountsDuplicates(t *testing.T) {
	engine, mem := newTestEngine(t)

	insert(t, mem, "s1", models.EventAddToCart, testNow)
	insert(t, mem, "s1", models.EventAddToCart, testNow)

	count, err := engine.EventCount(context.Background(), models.EventAddToCart, AllTime)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)
}

func TestEngine_FrictionTypeCounts_ExcludesOrderEvents(t *testing.T) {
	engine, mem := newTestEngine(t)

	insert(t, mem, "s1", models.EventValidationError, testNow)
	insert(t, mem, "s1", models.EventValidationError, testNow)
	insert(t, mem, "s1", models.EventRemoveFromCart, testNow)
	insert(t, mem, "s1", models.EventOrderCreated, testNow)
	insert(t, mem, "s1", models.EventOrderCompleted, testNow)

	counts, err := engine.FrictionTypeCounts(context.Background(), AllTime, 10)
	require.NoError(t, err)

	require.Len(t, counts, 2)
	assert.Equal(t, models.RankedCount{Key: models.EventValidationError, Count: 2}, counts[0])
	assert.Equal(t, models.RankedCount{Key: models.EventRemoveFromCart, Count: 1}, counts[1])
}
