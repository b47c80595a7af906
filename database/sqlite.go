package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// SQLiteClient backs the embedded event store used for single-box installs
// and local development, where running ClickHouse would be overkill.
type SQLiteClient struct {
	DB  *sql.DB
	log *zap.Logger
}

func NewSQLiteDB(path string, log *zap.Logger) (*SQLiteClient, error) {
	if path == "" {
		path = "friction_events.db"
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("error opening sqlite database: %w", err)
	}

	// SQLite allows a single writer; more connections just contend.
	db.SetMaxOpenConns(1)

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to sqlite database: %w", err)
	}

	log.Info("Opened SQLite event store", zap.String("path", path))
	return &SQLiteClient{DB: db, log: log}, nil
}

// EnsureSchema creates the friction_events table and its indexes when missing.
func (c *SQLiteClient) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS friction_events (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			type       TEXT NOT NULL,
			data       TEXT NOT NULL,
			created_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_friction_events_session_id ON friction_events (session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_friction_events_type ON friction_events (type)`,
		`CREATE INDEX IF NOT EXISTS idx_friction_events_created_at ON friction_events (created_at)`,
	}
	for _, stmt := range stmts {
		if _, err := c.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure sqlite schema: %w", err)
		}
	}
	return nil
}

func (c *SQLiteClient) Close() {
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			c.log.Error("Error closing sqlite database", zap.Error(err))
		} else {
			c.log.Info("SQLite event store closed")
		}
	}
}
