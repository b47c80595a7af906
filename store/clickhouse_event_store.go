// api/store/clickhouse_event_store.go
package store

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"checkoutlens/api/database"
	"checkoutlens/api/models"
)

// ClickHouseEventStore keeps friction events in ClickHouse. MergeTree has no
// auto-increment, so ids come from an in-process atomic counter seeded with
// max(id) at startup; inserts are single-writer per process.
type ClickHouseEventStore struct {
	DB     *database.ClickHouseClient
	log    *zap.Logger
	lastID atomic.Int64
}

func NewClickHouseEventStore(ctx context.Context, chClient *database.ClickHouseClient, log *zap.Logger) (*ClickHouseEventStore, error) {
	s := &ClickHouseEventStore{
		DB:  chClient,
		log: log,
	}

	var maxID uint64
	row := chClient.Conn.QueryRow(ctx, `SELECT max(id) FROM friction_events`)
	if err := row.Scan(&maxID); err != nil {
		return nil, fmt.Errorf("failed to seed event id counter: %w", err)
	}
	s.lastID.Store(int64(maxID))

	return s, nil
}

func (s *ClickHouseEventStore) Insert(ctx context.Context, ev *models.FrictionEvent) (int64, error) {
	id := s.lastID.Add(1)

	err := s.DB.Conn.Exec(ctx, `
		INSERT INTO friction_events (id, session_id, type, data, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, uint64(id), ev.SessionID, ev.Type, ev.Data, ev.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to insert friction event: %w", err)
	}

	ev.ID = id
	return id, nil
}

func (s *ClickHouseEventStore) EventsByTypes(ctx context.Context, types []string, from, to time.Time) ([]models.FrictionEvent, error) {
	query := `SELECT id, session_id, type, data, created_at FROM friction_events`
	where, args := eventFilter(types, from, to, "?")
	if where != "" {
		query += " WHERE " + where
	}
	query += " ORDER BY created_at ASC, id ASC"

	rows, err := s.DB.Conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query friction events: %w", err)
	}
	defer rows.Close()

	var results []models.FrictionEvent
	for rows.Next() {
		var (
			id uint64
			ev models.FrictionEvent
		)
		if err := rows.Scan(&id, &ev.SessionID, &ev.Type, &ev.Data, &ev.CreatedAt); err != nil {
			s.log.Error("Error scanning friction event row", zap.Error(err))
			continue
		}
		ev.ID = int64(id)
		results = append(results, ev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row error during friction event query: %w", err)
	}

	return results, nil
}

func (s *ClickHouseEventStore) DistinctSessions(ctx context.Context, types []string, from, to time.Time) (uint64, error) {
	query := `SELECT uniqExact(session_id) FROM friction_events`
	where, args := eventFilter(types, from, to, "?")
	if where != "" {
		query += " WHERE " + where
	}

	var count uint64
	if err := s.DB.Conn.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count distinct sessions: %w", err)
	}

	return count, nil
}

func (s *ClickHouseEventStore) Drop(ctx context.Context) error {
	if err := s.DB.Conn.Exec(ctx, `DROP TABLE IF EXISTS friction_events`); err != nil {
		return fmt.Errorf("failed to drop friction_events table: %w", err)
	}
	s.log.Warn("friction_events table dropped")
	return nil
}

func (s *ClickHouseEventStore) Ping(ctx context.Context) error {
	return s.DB.Conn.Ping(ctx)
}

func (s *ClickHouseEventStore) Close() error {
	s.DB.Close()
	return nil
}

// eventFilter builds the shared WHERE clause for type and window filters.
// placeholder is the driver's parameter marker.
func eventFilter(types []string, from, to time.Time, placeholder string) (string, []interface{}) {
	var (
		clauses []string
		args    []interface{}
	)

	if len(types) > 0 {
		marks := make([]string, len(types))
		for i, t := range types {
			marks[i] = placeholder
			args = append(args, t)
		}
		clauses = append(clauses, fmt.Sprintf("type IN (%s)", strings.Join(marks, ", ")))
	}
	if !from.IsZero() {
		clauses = append(clauses, "created_at >= "+placeholder)
		args = append(args, from)
	}
	if !to.IsZero() {
		clauses = append(clauses, "created_at < "+placeholder)
		args = append(args, to)
	}

	return strings.Join(clauses, " AND "), args
}
