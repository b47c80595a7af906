// api/recorder/recorder.go
package recorder

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"checkoutlens/api/metrics"
	"checkoutlens/api/models"
	"checkoutlens/api/store"
)

// Validation failures the recorder reports without touching the store.
var (
	ErrMissingSessionID = fmt.Errorf("session_id must not be empty")
	ErrMissingType      = fmt.Errorf("event type must not be empty")
	ErrBadPayload       = fmt.Errorf("payload is not serializable")
)

// Recorder validates and writes one friction event per call. It assigns
// created_at from the server clock at write time so aggregation ordering
// stays trustworthy even when client clocks are skewed. Duplicate beacons are
// simply additional rows; there is no dedup and no retry loop here.
type Recorder struct {
	store    store.EventStore
	log      *zap.Logger
	ignored  map[string]struct{}
	settings func() models.Settings
	now      func() time.Time
}

// New builds a Recorder. settings supplies the current tracking toggles on
// each call so a settings update takes effect without restart; ignoreTypes
// lists pseudo-types that are acknowledged but never persisted.
func New(s store.EventStore, settings func() models.Settings, ignoreTypes []string, log *zap.Logger) *Recorder {
	if ignoreTypes == nil {
		ignoreTypes = []string{models.EventScroll}
	}
	ignored := make(map[string]struct{}, len(ignoreTypes))
	for _, t := range ignoreTypes {
		ignored[t] = struct{}{}
	}

	if settings == nil {
		settings = func() models.Settings { return models.DefaultSettings() }
	}

	return &Recorder{
		store:    s,
		log:      log,
		ignored:  ignored,
		settings: settings,
		now:      time.Now,
	}
}

// WithClock overrides the write clock. Tests only.
func (r *Recorder) WithClock(now func() time.Time) *Recorder {
	r.now = now
	return r
}

// Record appends one event. The returned id is 0 when the event was
// acknowledged but intentionally not persisted (ignore list or a disabled
// tracking toggle).
func (r *Recorder) Record(ctx context.Context, eventType, sessionID string, payload json.RawMessage) (int64, error) {
	if sessionID == "" {
		metrics.IncRejected("missing_session")
		return 0, ErrMissingSessionID
	}
	if eventType == "" {
		metrics.IncRejected("missing_type")
		return 0, ErrMissingType
	}

	if _, ok := r.ignored[eventType]; ok {
		metrics.IncIgnored()
		return 0, nil
	}

	if !r.enabled(eventType) {
		metrics.IncRejected("disabled")
		return 0, nil
	}

	data, err := normalizePayload(payload)
	if err != nil {
		metrics.IncRejected("payload")
		return 0, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}

	ev := &models.FrictionEvent{
		SessionID: sessionID,
		Type:      eventType,
		Data:      data,
		CreatedAt: r.now().UTC(),
	}

	id, err := r.store.Insert(ctx, ev)
	if err != nil {
		metrics.IncRejected("storage")
		r.log.Error("Failed to store friction event",
			zap.String("type", eventType),
			zap.String("session_id", sessionID),
			zap.Error(err))
		return 0, fmt.Errorf("failed to store event: %w", err)
	}

	metrics.IncRecorded(eventType)
	return id, nil
}

// enabled applies the tracking toggles to the event type.
func (r *Recorder) enabled(eventType string) bool {
	s := r.settings()
	if !s.EnableTracking {
		return false
	}
	switch eventType {
	case models.EventPageLoad:
		return s.TrackPageLoad
	case models.EventValidationError:
		return s.TrackFormErrors
	case models.EventFormAbandonment:
		return s.TrackAbandonment
	}
	return true
}

// normalizePayload stores the payload as serialized JSON text. Producers send
// data either as a native structure or as a JSON-encoded string; both end up
// as the same stored text.
func normalizePayload(payload json.RawMessage) (string, error) {
	if len(payload) == 0 {
		return "{}", nil
	}

	if !json.Valid(payload) {
		return "", fmt.Errorf("invalid JSON payload")
	}

	// A string-typed payload carries the serialized object one level deep.
	if payload[0] == '"' {
		var inner string
		if err := json.Unmarshal(payload, &inner); err != nil {
			return "", fmt.Errorf("malformed string payload: %v", err)
		}
		if inner == "" {
			return "{}", nil
		}
		if !json.Valid([]byte(inner)) {
			return "", fmt.Errorf("string payload is not JSON")
		}
		return inner, nil
	}

	return string(payload), nil
}
