// api/store/sqlite_event_store.go
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"checkoutlens/api/database"
	"checkoutlens/api/models"
)

// SQLiteEventStore is the embedded event store for single-box installs.
type SQLiteEventStore struct {
	DB  *database.SQLiteClient
	log *zap.Logger
}

func NewSQLiteEventStore(sqliteClient *database.SQLiteClient, log *zap.Logger) *SQLiteEventStore {
	return &SQLiteEventStore{DB: sqliteClient, log: log}
}

func (s *SQLiteEventStore) Insert(ctx context.Context, ev *models.FrictionEvent) (int64, error) {
	res, err := s.DB.DB.ExecContext(ctx, `
		INSERT INTO friction_events (session_id, type, data, created_at)
		VALUES (?, ?, ?, ?)
	`, ev.SessionID, ev.Type, ev.Data, ev.CreatedAt.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to insert friction event: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read inserted event id: %w", err)
	}

	ev.ID = id
	return id, nil
}

func (s *SQLiteEventStore) EventsByTypes(ctx context.Context, types []string, from, to time.Time) ([]models.FrictionEvent, error) {
	query := `SELECT id, session_id, type, data, created_at FROM friction_events`
	where, args := eventFilter(types, from, to, "?")
	if where != "" {
		query += " WHERE " + where
	}
	query += " ORDER BY created_at ASC, id ASC"

	rows, err := s.DB.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query friction events: %w", err)
	}
	defer rows.Close()

	var results []models.FrictionEvent
	for rows.Next() {
		var ev models.FrictionEvent
		if err := rows.Scan(&ev.ID, &ev.SessionID, &ev.Type, &ev.Data, &ev.CreatedAt); err != nil {
			s.log.Error("Error scanning friction event row", zap.Error(err))
			continue
		}
		results = append(results, ev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row error during friction event query: %w", err)
	}

	return results, nil
}

func (s *SQLiteEventStore) DistinctSessions(ctx context.Context, types []string, from, to time.Time) (uint64, error) {
	query := `SELECT COUNT(DISTINCT session_id) FROM friction_events`
	where, args := eventFilter(types, from, to, "?")
	if where != "" {
		query += " WHERE " + where
	}

	var count uint64
	err := s.DB.DB.QueryRowContext(ctx, query, args...).Scan(&count)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to count distinct sessions: %w", err)
	}

	return count, nil
}

func (s *SQLiteEventStore) Drop(ctx context.Context) error {
	if _, err := s.DB.DB.ExecContext(ctx, `DROP TABLE IF EXISTS friction_events`); err != nil {
		return fmt.Errorf("failed to drop friction_events table: %w", err)
	}
	s.log.Warn("friction_events table dropped")
	return nil
}

func (s *SQLiteEventStore) Ping(ctx context.Context) error {
	return s.DB.DB.PingContext(ctx)
}

func (s *SQLiteEventStore) Close() error {
	s.DB.Close()
	return nil
}
