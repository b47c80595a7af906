package aggregate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"checkoutlens/api/models"
)

func TestAverageField_NoData(t *testing.T) {
	assert.Equal(t, 0.0, AverageField(nil, "time_spent"))
	assert.Equal(t, 0.0, AverageField([]models.FrictionEvent{
		{Type: models.EventFormAbandonment, Data: `{}`},
	}, "time_spent"))
}

func TestAverageField_Mean(t *testing.T) {
	events := []models.FrictionEvent{
		{Data: `{"time_spent": 10.0}`},
		{Data: `{"time_spent": 20.0}`},
		{Data: `{"time_spent": 60.0}`},
	}
	assert.Equal(t, 30.0, AverageField(events, "time_spent"))
}

func TestAverageField_ToleratesStringNumbers(t *testing.T) {
	events := []models.FrictionEvent{
		{Data: `{"fields_filled": "4"}`},
		{Data: `{"fields_filled": 6}`},
		{Data: `{"fields_filled": "not a number"}`},
	}
	assert.Equal(t, 5.0, AverageField(events, "fields_filled"))
}

func TestSessionPairDurations(t *testing.T) {
	base := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)

	events := []models.FrictionEvent{
		// s1 completes checkout in 90s, with a duplicate start beacon that
		// must not shift the earliest-start anchor.
		{SessionID: "s1", Type: models.EventCheckoutStart, CreatedAt: base},
		{SessionID: "s1", Type: models.EventCheckoutStart, CreatedAt: base.Add(20 * time.Second)},
		{SessionID: "s1", Type: models.EventOrderCompleted, CreatedAt: base.Add(90 * time.Second)},
		// s2 never completes.
		{SessionID: "s2", Type: models.EventCheckoutStart, CreatedAt: base},
		// s3 has a completion with no start (dropped beacon).
		{SessionID: "s3", Type: models.EventOrderCompleted, CreatedAt: base},
	}

	durations := SessionPairDurations(events, models.EventCheckoutStart, models.EventOrderCompleted)

	require.Len(t, durations, 1)
	assert.Equal(t, 90*time.Second, durations[0])
}

func TestAverageSeconds(t *testing.T) {
	assert.Equal(t, 0.0, AverageSeconds(nil))
	assert.Equal(t, 45.0, AverageSeconds([]time.Duration{30 * time.Second, 60 * time.Second}))
	assert.Equal(t, 0.5, AverageSeconds([]time.Duration{500 * time.Millisecond}))
}
