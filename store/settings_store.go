// api/store/settings_store.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"checkoutlens/api/models"
)

// SettingsStore persists the tracking toggles as a single JSONB row.
type SettingsStore struct {
	db  *sql.DB
	log *zap.Logger
}

func NewSettingsStore(db *sql.DB, log *zap.Logger) *SettingsStore {
	return &SettingsStore{db: db, log: log}
}

// EnsureDefaults seeds the settings row on first install. An existing row is
// left untouched.
func (s *SettingsStore) EnsureDefaults(ctx context.Context) error {
	raw, err := json.Marshal(models.DefaultSettings())
	if err != nil {
		return fmt.Errorf("failed to marshal default settings: %w", err)
	}

	query := `
		INSERT INTO tracking_settings (id, settings)
		VALUES (1, $1)
		ON CONFLICT (id) DO NOTHING;
	`
	if _, err := s.db.ExecContext(ctx, query, raw); err != nil {
		return fmt.Errorf("failed to seed default settings: %w", err)
	}

	return nil
}

func (s *SettingsStore) Get(ctx context.Context) (models.Settings, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx, `SELECT settings FROM tracking_settings WHERE id = 1`).Scan(&raw)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.DefaultSettings(), nil
		}
		return models.Settings{}, fmt.Errorf("failed to load settings: %w", err)
	}

	var settings models.Settings
	if err := json.Unmarshal(raw, &settings); err != nil {
		return models.Settings{}, fmt.Errorf("failed to decode settings: %w", err)
	}

	return settings, nil
}

func (s *SettingsStore) Update(ctx context.Context, settings models.Settings) error {
	raw, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	query := `
		INSERT INTO tracking_settings (id, settings, updated_at)
		VALUES (1, $1, now())
		ON CONFLICT (id) DO UPDATE SET settings = EXCLUDED.settings, updated_at = now();
	`
	if _, err := s.db.ExecContext(ctx, query, raw); err != nil {
		return fmt.Errorf("failed to update settings: %w", err)
	}

	s.log.Info("Tracking settings updated")
	return nil
}

// Reset restores install defaults. Used by the teardown path.
func (s *SettingsStore) Reset(ctx context.Context) error {
	return s.Update(ctx, models.DefaultSettings())
}

// Provider returns a settings supplier that refreshes from Postgres at most
// once per ttl, so the recorder does not pay a settings query per event.
// Load failures fall back to the last good value.
func (s *SettingsStore) Provider(ttl time.Duration) func() models.Settings {
	var (
		mu       sync.Mutex
		cached   = models.DefaultSettings()
		loadedAt time.Time
	)

	return func() models.Settings {
		mu.Lock()
		defer mu.Unlock()

		if time.Since(loadedAt) < ttl {
			return cached
		}

		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()

		settings, err := s.Get(ctx)
		if err != nil {
			s.log.Warn("Settings refresh failed, keeping last known value", zap.Error(err))
		} else {
			cached = settings
		}
		loadedAt = time.Now()
		return cached
	}
}
