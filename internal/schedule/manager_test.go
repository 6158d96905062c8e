package schedule

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/t77yq/uni-helper/internal/model"
	"github.com/t77yq/uni-helper/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(zap.NewNop(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestManagerAdd(t *testing.T) {
	st := newTestStore(t)
	m := NewManager(zap.NewNop(), st)

	added, err := m.Add(model.Schedule{
		Title: "정기 점검 회의",
		Date:  "2025-06-10",
		Time:  "14:00",
		// Client-sent values the server must overwrite.
		ID:               "spoofed",
		Status:           model.ScheduleStatusCompleted,
		NotificationSent: true,
	})
	require.NoError(t, err)
	require.NotEmpty(t, added.ID)
	require.NotEqual(t, "spoofed", added.ID)
	require.Equal(t, model.ScheduleStatusPending, added.Status)
	require.False(t, added.NotificationSent)
	require.False(t, added.CreatedAt.IsZero())

	list, err := m.List()
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, added.ID, list[0].ID)
}

func TestManagerAddGeneratesDistinctIDs(t *testing.T) {
	st := newTestStore(t)
	m := NewManager(zap.NewNop(), st)

	a, err := m.Add(model.Schedule{Title: "a", Date: "2025-06-10", Time: "09:00"})
	require.NoError(t, err)
	b, err := m.Add(model.Schedule{Title: "b", Date: "2025-06-10", Time: "09:00"})
	require.NoError(t, err)
	require.NotEqual(t, a.ID, b.ID)
}

func TestManagerUpdateStatus(t *testing.T) {
	st := newTestStore(t)
	m := NewManager(zap.NewNop(), st)

	added, err := m.Add(model.Schedule{Title: "회의", Date: "2025-06-10", Time: "14:00"})
	require.NoError(t, err)

	require.NoError(t, m.UpdateStatus(added.ID, model.ScheduleStatusCompleted))

	list, err := m.List()
	require.NoError(t, err)
	require.Equal(t, model.ScheduleStatusCompleted, list[0].Status)

	err = m.UpdateStatus(added.ID, model.ScheduleStatus("bogus"))
	require.ErrorIs(t, err, ErrInvalidStatus)

	err = m.UpdateStatus("missing", model.ScheduleStatusCancelled)
	require.ErrorIs(t, err, ErrScheduleNotFound)
}

func TestManagerDelete(t *testing.T) {
	st := newTestStore(t)
	m := NewManager(zap.NewNop(), st)

	a, err := m.Add(model.Schedule{Title: "a", Date: "2025-06-10", Time: "09:00"})
	require.NoError(t, err)
	b, err := m.Add(model.Schedule{Title: "b", Date: "2025-06-11", Time: "09:00"})
	require.NoError(t, err)

	require.NoError(t, m.Delete(a.ID))

	list, err := m.List()
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, b.ID, list[0].ID)

	require.ErrorIs(t, m.Delete(a.ID), ErrScheduleNotFound)
}

func TestScheduleDueTime(t *testing.T) {
	s := model.Schedule{Date: "2025-06-10", Time: "14:30"}
	due, err := s.DueTime(time.Local)
	require.NoError(t, err)
	require.Equal(t, time.Date(2025, 6, 10, 14, 30, 0, 0, time.Local), due)

	s = model.Schedule{Date: "2025-06-10", Time: "bogus"}
	_, err = s.DueTime(time.Local)
	require.Error(t, err)
}
