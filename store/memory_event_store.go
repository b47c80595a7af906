// api/store/memory_event_store.go
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"checkoutlens/api/models"
)

// MemoryEventStore holds events in process memory. It backs unit tests and
// the ephemeral dev mode; nothing survives a restart.
type MemoryEventStore struct {
	mu     sync.RWMutex
	events []models.FrictionEvent
	lastID int64
}

func NewMemoryEventStore() *MemoryEventStore {
	return &MemoryEventStore{}
}

func (s *MemoryEventStore) Insert(ctx context.Context, ev *models.FrictionEvent) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastID++
	ev.ID = s.lastID
	s.events = append(s.events, *ev)
	return ev.ID, nil
}

func (s *MemoryEventStore) EventsByTypes(ctx context.Context, types []string, from, to time.Time) ([]models.FrictionEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := typeSet(types)
	var results []models.FrictionEvent
	for _, ev := range s.events {
		if !matches(ev, wanted, from, to) {
			continue
		}
		results = append(results, ev)
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].CreatedAt.Equal(results[j].CreatedAt) {
			return results[i].ID < results[j].ID
		}
		return results[i].CreatedAt.Before(results[j].CreatedAt)
	})

	return results, nil
}

func (s *MemoryEventStore) DistinctSessions(ctx context.Context, types []string, from, to time.Time) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := typeSet(types)
	seen := make(map[string]struct{})
	for _, ev := range s.events {
		if matches(ev, wanted, from, to) {
			seen[ev.SessionID] = struct{}{}
		}
	}

	return uint64(len(seen)), nil
}

func (s *MemoryEventStore) Drop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = nil
	s.lastID = 0
	return nil
}

func (s *MemoryEventStore) Ping(ctx context.Context) error { return nil }

func (s *MemoryEventStore) Close() error { return nil }

// Len reports the number of stored events.
func (s *MemoryEventStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

func typeSet(types []string) map[string]struct{} {
	if len(types) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(types))
	for _, t := range types {
		set[t] = struct{}{}
	}
	return set
}

func matches(ev models.FrictionEvent, wanted map[string]struct{}, from, to time.Time) bool {
	if wanted != nil {
		if _, ok := wanted[ev.Type]; !ok {
			return false
		}
	}
	if !from.IsZero() && ev.CreatedAt.Before(from) {
		return false
	}
	if !to.IsZero() && !ev.CreatedAt.Before(to) {
		return false
	}
	return true
}
