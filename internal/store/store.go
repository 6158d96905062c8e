package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/t77yq/uni-helper/internal/model"
)

// Store keys. Each key maps to one JSON document in the kv table.
const (
	keySettings         = "settings"
	keyAlerts           = "alerts"
	keyPersonalRequests = "personalRequests"
	keyLastChecked      = "lastChecked"
	keySchedules        = "schedules"
	keyMonitoringPref   = "userMonitoringPref"
)

// ErrNotFound is returned when a key has never been written.
var ErrNotFound = errors.New("key not found")

// Store is the process-wide persisted key-value store backed by SQLite. It
// survives restarts and is shared by the monitoring, schedule, and settings
// surfaces, which touch disjoint keys.
type Store struct {
	logger *zap.Logger
	db     *sql.DB
}

// Open opens (or creates) the store at the given path.
func Open(logger *zap.Logger, path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	s := &Store{
		logger: logger,
		db:     db,
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) initialize() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS kv (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS cycle_history (
			id TEXT PRIMARY KEY,
			started_at DATETIME NOT NULL,
			duration INTEGER NOT NULL,
			total INTEGER NOT NULL,
			new_alerts INTEGER NOT NULL,
			status_changed INTEGER NOT NULL,
			error TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_cycle_history_started_at ON cycle_history(started_at);
	`)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) get(key string, out interface{}) error {
	var value string
	err := s.db.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to read key %q: %w", key, err)
	}
	if err := json.Unmarshal([]byte(value), out); err != nil {
		return fmt.Errorf("failed to decode key %q: %w", key, err)
	}
	return nil
}

func (s *Store) set(key string, v interface{}) error {
	value, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode key %q: %w", key, err)
	}
	_, err = s.db.Exec(`
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = CURRENT_TIMESTAMP`,
		key, string(value),
	)
	if err != nil {
		return fmt.Errorf("failed to write key %q: %w", key, err)
	}
	return nil
}

// Settings returns the persisted user settings, or zero-value settings when
// none were saved yet.
func (s *Store) Settings() (model.Settings, error) {
	var settings model.Settings
	if err := s.get(keySettings, &settings); err != nil {
		if errors.Is(err, ErrNotFound) {
			return model.Settings{}, nil
		}
		return model.Settings{}, err
	}
	return settings, nil
}

// SetSettings replaces the persisted user settings.
func (s *Store) SetSettings(settings model.Settings) error {
	return s.set(keySettings, settings)
}

// UpdateSettingField sets a single settings field by its JSON key, leaving
// the rest untouched.
func (s *Store) UpdateSettingField(key string, value json.RawMessage) error {
	fields := map[string]json.RawMessage{}
	if err := s.get(keySettings, &fields); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	fields[key] = value

	merged, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("failed to merge settings: %w", err)
	}
	var settings model.Settings
	if err := json.Unmarshal(merged, &settings); err != nil {
		return fmt.Errorf("invalid settings field %q: %w", key, err)
	}
	return s.set(keySettings, settings)
}

// Alerts returns the last persisted "all requests" snapshot.
func (s *Store) Alerts() ([]model.AlertWithFlags, error) {
	var alerts []model.AlertWithFlags
	if err := s.get(keyAlerts, &alerts); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return alerts, nil
}

// SetAlerts replaces the "all requests" snapshot.
func (s *Store) SetAlerts(alerts []model.AlertWithFlags) error {
	return s.set(keyAlerts, alerts)
}

// PersonalRequests returns the last persisted "my requests" snapshot.
func (s *Store) PersonalRequests() ([]model.AlertWithFlags, error) {
	var alerts []model.AlertWithFlags
	if err := s.get(keyPersonalRequests, &alerts); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return alerts, nil
}

// SetPersonalRequests replaces the "my requests" snapshot.
func (s *Store) SetPersonalRequests(alerts []model.AlertWithFlags) error {
	return s.set(keyPersonalRequests, alerts)
}

// LastChecked returns the timestamp of the last successful scrape cycle, or
// an empty string when no cycle has completed yet.
func (s *Store) LastChecked() (string, error) {
	var ts string
	if err := s.get(keyLastChecked, &ts); err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	return ts, nil
}

// SetLastChecked records the timestamp of a successful scrape cycle.
func (s *Store) SetLastChecked(ts string) error {
	return s.set(keyLastChecked, ts)
}

// Schedules returns all persisted schedule entries.
func (s *Store) Schedules() ([]model.Schedule, error) {
	var schedules []model.Schedule
	if err := s.get(keySchedules, &schedules); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return schedules, nil
}

// SetSchedules replaces all persisted schedule entries.
func (s *Store) SetSchedules(schedules []model.Schedule) error {
	return s.set(keySchedules, schedules)
}

// MonitoringPref returns the persisted desired monitoring state. Off when
// never set.
func (s *Store) MonitoringPref() (model.MonitoringPref, error) {
	var pref model.MonitoringPref
	if err := s.get(keyMonitoringPref, &pref); err != nil {
		if errors.Is(err, ErrNotFound) {
			return model.MonitoringPrefOff, nil
		}
		return model.MonitoringPrefOff, err
	}
	return pref, nil
}

// SetMonitoringPref persists the desired monitoring state.
func (s *Store) SetMonitoringPref(pref model.MonitoringPref) error {
	return s.set(keyMonitoringPref, pref)
}
