package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// CycleRecord is one completed scrape cycle. Failed cycles carry the error
// message; counts are zero in that case.
type CycleRecord struct {
	ID            string        `json:"id"`
	StartedAt     time.Time     `json:"started_at"`
	Duration      time.Duration `json:"duration"`
	Total         int           `json:"total"`
	NewAlerts     int           `json:"new_alerts"`
	StatusChanged int           `json:"status_changed"`
	Error         string        `json:"error,omitempty"`
}

// AppendCycle stores a scrape cycle record.
func (s *Store) AppendCycle(ctx context.Context, rec CycleRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cycle_history (
			id, started_at, duration, total, new_alerts, status_changed, error
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.StartedAt,
		int64(rec.Duration),
		rec.Total,
		rec.NewAlerts,
		rec.StatusChanged,
		sql.NullString{String: rec.Error, Valid: rec.Error != ""},
	)
	if err != nil {
		return fmt.Errorf("failed to store cycle record: %w", err)
	}
	return nil
}

// RecentCycles returns up to limit cycle records, newest first.
func (s *Store) RecentCycles(ctx context.Context, limit int) ([]CycleRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, duration, total, new_alerts, status_changed, error
		FROM cycle_history
		ORDER BY started_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list cycle history: %w", err)
	}
	defer rows.Close()

	var records []CycleRecord
	for rows.Next() {
		var rec CycleRecord
		var durationNanos int64
		var errStr sql.NullString

		if err := rows.Scan(
			&rec.ID,
			&rec.StartedAt,
			&durationNanos,
			&rec.Total,
			&rec.NewAlerts,
			&rec.StatusChanged,
			&errStr,
		); err != nil {
			return nil, fmt.Errorf("failed to scan cycle record: %w", err)
		}

		rec.Duration = time.Duration(durationNanos)
		if errStr.Valid {
			rec.Error = errStr.String
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}

	return records, nil
}

// DeleteCyclesBefore removes cycle records older than the given time.
func (s *Store) DeleteCyclesBefore(ctx context.Context, before time.Time) error {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM cycle_history WHERE started_at < ?", before)
	if err != nil {
		return fmt.Errorf("failed to delete cycle history: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}

	if affected > 0 {
		s.logger.Info("Deleted old cycle records",
			zap.Time("before", before),
			zap.Int64("deleted", affected))
	}

	return nil
}
