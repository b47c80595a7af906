package recorder

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"checkoutlens/api/models"
	"checkoutlens/api/store"
)

var writeTime = time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)

func newTestRecorder(settings models.Settings) (*Recorder, *store.MemoryEventStore) {
	mem := store.NewMemoryEventStore()
	rec := New(mem, func() models.Settings { return settings }, nil, zap.NewNop()).
		WithClock(func() time.Time { return writeTime })
	return rec, mem
}

func storedEvents(t *testing.T, mem *store.MemoryEventStore) []models.FrictionEvent {
	t.Helper()
	events, err := mem.EventsByTypes(context.Background(), nil, time.Time{}, time.Time{})
	require.NoError(t, err)
	return events
}

func TestRecord_Success(t *testing.T) {
	rec, mem := newTestRecorder(models.DefaultSettings())

	id, err := rec.Record(context.Background(), models.EventAddToCart, "sess-1",
		json.RawMessage(`{"product_id": 42, "quantity": 1}`))
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	events := storedEvents(t, mem)
	require.Len(t, events, 1)
	assert.Equal(t, "sess-1", events[0].SessionID)
	assert.Equal(t, models.EventAddToCart, events[0].Type)
	assert.JSONEq(t, `{"product_id": 42, "quantity": 1}`, events[0].Data)
}

func TestRecord_RejectsEmptySessionID(t *testing.T) {
	rec, mem := newTestRecorder(models.DefaultSettings())

	_, err := rec.Record(context.Background(), models.EventAddToCart, "", nil)
	assert.ErrorIs(t, err, ErrMissingSessionID)
	assert.Equal(t, 0, mem.Len())
}

func TestRecord_RejectsEmptyType(t *testing.T) {
	rec, mem := newTestRecorder(models.DefaultSettings())

	_, err := rec.Record(context.Background(), "", "sess-1", nil)
	assert.ErrorIs(t, err, ErrMissingType)
	assert.Equal(t, 0, mem.Len())
}

func TestRecord_ScrollAcknowledgedButNotPersisted(t *testing.T) {
	rec, mem := newTestRecorder(models.DefaultSettings())

	id, err := rec.Record(context.Background(), models.EventScroll, "sess-1",
		json.RawMessage(`{"direction": "down"}`))
	require.NoError(t, err)
	assert.Equal(t, int64(0), id)
	assert.Equal(t, 0, mem.Len())
}

func TestRecord_ServerAssignsCreatedAt(t *testing.T) {
	rec, mem := newTestRecorder(models.DefaultSettings())

	// Client-supplied timestamps in the payload are irrelevant; ordering
	// comes from the server clock.
	_, err := rec.Record(context.Background(), models.EventPageView, "sess-1",
		json.RawMessage(`{"timestamp": "1999-01-01T00:00:00Z"}`))
	require.NoError(t, err)

	events := storedEvents(t, mem)
	require.Len(t, events, 1)
	assert.Equal(t, writeTime, events[0].CreatedAt)
}

func TestRecord_DuplicateBeaconsBecomeRows(t *testing.T) {
	rec, mem := newTestRecorder(models.DefaultSettings())

	payload := json.RawMessage(`{"time_spent": 42.5, "fields_filled": 3}`)
	_, err := rec.Record(context.Background(), models.EventFormAbandonment, "sess-1", payload)
	require.NoError(t, err)
	_, err = rec.Record(context.Background(), models.EventFormAbandonment, "sess-1", payload)
	require.NoError(t, err)

	assert.Equal(t, 2, mem.Len())
}

func TestRecord_StringEncodedPayloadUnwrapped(t *testing.T) {
	rec, mem := newTestRecorder(models.DefaultSettings())

	_, err := rec.Record(context.Background(), models.EventValidationError, "sess-1",
		json.RawMessage(`"{\"errors\": [\"Invalid email\"]}"`))
	require.NoError(t, err)

	events := storedEvents(t, mem)
	require.Len(t, events, 1)
	assert.JSONEq(t, `{"errors": ["Invalid email"]}`, events[0].Data)
}

func TestRecord_NilPayloadStoresEmptyObject(t *testing.T) {
	rec, mem := newTestRecorder(models.DefaultSettings())

	_, err := rec.Record(context.Background(), models.EventSessionStart, "sess-1", nil)
	require.NoError(t, err)

	events := storedEvents(t, mem)
	require.Len(t, events, 1)
	assert.Equal(t, "{}", events[0].Data)
}

func TestRecord_MalformedPayloadRejectedWithoutWrite(t *testing.T) {
	rec, mem := newTestRecorder(models.DefaultSettings())

	_, err := rec.Record(context.Background(), models.EventValidationError, "sess-1",
		json.RawMessage(`{"errors": [`))
	assert.ErrorIs(t, err, ErrBadPayload)
	assert.Equal(t, 0, mem.Len())
}

func TestRecord_TrackingDisabledDropsEverything(t *testing.T) {
	settings := models.DefaultSettings()
	settings.EnableTracking = false
	rec, mem := newTestRecorder(settings)

	id, err := rec.Record(context.Background(), models.EventAddToCart, "sess-1", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), id)
	assert.Equal(t, 0, mem.Len())
}

func TestRecord_ToggleGatesOnlyItsType(t *testing.T) {
	settings := models.DefaultSettings()
	settings.TrackPageLoad = false
	rec, mem := newTestRecorder(settings)

	id, err := rec.Record(context.Background(), models.EventPageLoad, "sess-1", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), id)

	id, err = rec.Record(context.Background(), models.EventAddToCart, "sess-1", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	assert.Equal(t, 1, mem.Len())
}

func TestRecord_CustomIgnoreList(t *testing.T) {
	mem := store.NewMemoryEventStore()
	rec := New(mem, nil, []string{"mousemove", models.EventScroll}, zap.NewNop())

	id, err := rec.Record(context.Background(), "mousemove", "sess-1", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), id)
	assert.Equal(t, 0, mem.Len())

	// Unknown but non-ignored types persist; the vocabulary is open at the
	// recorder and closed only at aggregation.
	id, err = rec.Record(context.Background(), "custom_event", "sess-1", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
}
