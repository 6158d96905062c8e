// Package schedule manages user-created follow-up reminders and the mail
// loop that announces them an hour before they are due.
package schedule

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/t77yq/uni-helper/internal/model"
	"github.com/t77yq/uni-helper/internal/store"
)

var (
	ErrScheduleNotFound = errors.New("schedule not found")
	ErrInvalidStatus    = errors.New("invalid schedule status")
)

// Manager owns the persisted schedule list. Every read-modify-write of the
// list goes through its mutex; the CRUD handlers and the reminder loop run
// on different goroutines and would otherwise drop each other's writes.
type Manager struct {
	logger *zap.Logger
	store  *store.Store
	now    func() time.Time

	mu sync.Mutex
}

func NewManager(logger *zap.Logger, st *store.Store) *Manager {
	return &Manager{
		logger: logger.Named("schedule"),
		store:  st,
		now:    time.Now,
	}
}

// newScheduleID builds an id unique enough for a single-user list.
func newScheduleID(now time.Time) string {
	return fmt.Sprintf("%d-%06d", now.UnixMilli(), rand.Intn(1_000_000))
}

// List returns all schedules.
func (m *Manager) List() ([]model.Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store.Schedules()
}

// Add appends a new schedule. The server owns id, status, creation time,
// and the notification flag; whatever the client sent for those is
// overwritten.
func (m *Manager) Add(s model.Schedule) (model.Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	schedules, err := m.store.Schedules()
	if err != nil {
		return model.Schedule{}, err
	}

	now := m.now()
	s.ID = newScheduleID(now)
	s.Status = model.ScheduleStatusPending
	s.CreatedAt = now
	s.NotificationSent = false

	schedules = append(schedules, s)
	if err := m.store.SetSchedules(schedules); err != nil {
		return model.Schedule{}, err
	}

	m.logger.Info("Schedule added",
		zap.String("id", s.ID),
		zap.String("title", s.Title),
		zap.String("due", s.Date+" "+s.Time))

	return s, nil
}

// UpdateStatus moves a schedule to the given status.
func (m *Manager) UpdateStatus(id string, status model.ScheduleStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	schedules, err := m.store.Schedules()
	if err != nil {
		return err
	}

	for i := range schedules {
		if schedules[i].ID == id {
			schedules[i].Status = status
			if err := m.store.SetSchedules(schedules); err != nil {
				return err
			}
			m.logger.Info("Schedule status updated",
				zap.String("id", id),
				zap.String("status", string(status)))
			return nil
		}
	}
	return ErrScheduleNotFound
}

// Delete removes a schedule.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	schedules, err := m.store.Schedules()
	if err != nil {
		return err
	}

	kept := schedules[:0]
	for _, s := range schedules {
		if s.ID != id {
			kept = append(kept, s)
		}
	}
	if len(kept) == len(schedules) {
		return ErrScheduleNotFound
	}

	if err := m.store.SetSchedules(kept); err != nil {
		return err
	}
	m.logger.Info("Schedule deleted", zap.String("id", id))
	return nil
}

// MarkNotified flips a schedule's notificationSent flag to true. The flag
// only ever moves false to true; marking an already-notified schedule is a
// no-op. The list is re-read under the lock so a concurrent add or status
// change is never overwritten by a stale copy.
func (m *Manager) MarkNotified(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	schedules, err := m.store.Schedules()
	if err != nil {
		return err
	}

	for i := range schedules {
		if schedules[i].ID == id {
			if schedules[i].NotificationSent {
				return nil
			}
			schedules[i].NotificationSent = true
			return m.store.SetSchedules(schedules)
		}
	}
	return ErrScheduleNotFound
}
