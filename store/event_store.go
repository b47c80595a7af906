// api/store/event_store.go
package store

import (
	"context"
	"time"

	"checkoutlens/api/models"
)

// EventStore is the append-only friction event log. Events are immutable once
// written; the only destructive path is Drop, reserved for the opt-in
// teardown.
type EventStore interface {
	// Insert appends one event and returns its store-assigned id.
	Insert(ctx context.Context, ev *models.FrictionEvent) (int64, error)

	// EventsByTypes returns events of the given types whose created_at falls
	// in [from, to), ordered by created_at ascending, id ascending. An empty
	// type list matches every type. Zero from/to leave that bound open.
	EventsByTypes(ctx context.Context, types []string, from, to time.Time) ([]models.FrictionEvent, error)

	// DistinctSessions counts distinct session_ids having at least one event
	// of any of the given types within [from, to).
	DistinctSessions(ctx context.Context, types []string, from, to time.Time) (uint64, error)

	// Drop destroys the event table. Opt-in teardown only.
	Drop(ctx context.Context) error

	Ping(ctx context.Context) error
	Close() error
}
