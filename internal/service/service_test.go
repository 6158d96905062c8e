package service

import (
	"context"
	"encoding/json"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/t77yq/uni-helper/internal/model"
	"github.com/t77yq/uni-helper/internal/schedule"
	"github.com/t77yq/uni-helper/internal/store"
	"github.com/t77yq/uni-helper/internal/testutil"
)

type fakeMonitor struct {
	mu          sync.Mutex
	running     bool
	manualMarks int
	starts      int
	stops       int
	lastAuto    bool
}

func (f *fakeMonitor) Start(context.Context) model.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts++
	f.running = true
	return model.OK("모니터링을 시작합니다.")
}

func (f *fakeMonitor) Stop(isAutomatic bool) model.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
	f.lastAuto = isAutomatic
	f.running = false
	return model.OK("모니터링이 중지되었습니다.")
}

func (f *fakeMonitor) IsRunning() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

func (f *fakeMonitor) MarkManualStart() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.manualMarks++
}

func newTestService(t *testing.T) (*Service, *nats.Conn, *store.Store, *fakeMonitor) {
	t.Helper()

	nc := testutil.StartNATS(t)

	st, err := store.Open(zap.NewNop(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	logger := zap.NewNop()
	monitor := &fakeMonitor{}
	events := NewEvents(logger, nc)
	schedules := schedule.NewManager(logger, st)

	svc := New(logger, nc, st, monitor, schedules, events,
		NewNoopUpdater("1.2.0"), "https://114.unipost.co.kr/home.uni", "1.2.0")
	require.NoError(t, svc.Start(context.Background()))
	t.Cleanup(svc.Stop)

	return svc, nc, st, monitor
}

func request(t *testing.T, nc *nats.Conn, subject string, payload, out interface{}) {
	t.Helper()

	var data []byte
	if payload != nil {
		var err error
		data, err = json.Marshal(payload)
		require.NoError(t, err)
	}

	msg, err := nc.Request(subject, data, 5*time.Second)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(msg.Data, out))
}

func TestServiceSettingsRoundTrip(t *testing.T) {
	_, nc, _, _ := newTestService(t)

	var res model.Result
	request(t, nc, subjectSaveSettings, model.Settings{
		Username:      "kim",
		Password:      "pw",
		CheckInterval: 10,
	}, &res)
	require.True(t, res.Success)

	var settings model.Settings
	request(t, nc, subjectGetSettings, nil, &settings)
	require.Equal(t, "kim", settings.Username)
	require.Equal(t, 10, settings.CheckInterval)
}

func TestServiceUpdateSetting(t *testing.T) {
	_, nc, st, _ := newTestService(t)
	require.NoError(t, st.SetSettings(model.Settings{Username: "kim", CheckInterval: 5}))

	var res model.Result
	request(t, nc, subjectUpdateSetting, map[string]interface{}{
		"key":   "enableNotifications",
		"value": true,
	}, &res)
	require.True(t, res.Success)

	settings, err := st.Settings()
	require.NoError(t, err)
	require.True(t, settings.EnableNotifications)
	require.Equal(t, "kim", settings.Username)
}

func TestServiceToggleMonitoring(t *testing.T) {
	_, nc, st, monitor := newTestService(t)

	var res model.Result
	request(t, nc, subjectToggleMonitoring, map[string]bool{"start": true}, &res)
	require.True(t, res.Success)
	monitor.mu.Lock()
	require.Equal(t, 1, monitor.manualMarks)
	require.Equal(t, 1, monitor.starts)
	monitor.mu.Unlock()

	pref, err := st.MonitoringPref()
	require.NoError(t, err)
	require.Equal(t, model.MonitoringPrefOn, pref)

	request(t, nc, subjectToggleMonitoring, map[string]bool{"start": false}, &res)
	require.True(t, res.Success)
	monitor.mu.Lock()
	require.Equal(t, 1, monitor.stops)
	require.False(t, monitor.lastAuto)
	monitor.mu.Unlock()
}

func TestServiceGetAlerts(t *testing.T) {
	_, nc, st, _ := newTestService(t)

	require.NoError(t, st.SetAlerts([]model.AlertWithFlags{
		{Alert: model.Alert{TicketID: "100", Status: "접수"}},
	}))
	require.NoError(t, st.SetLastChecked("2025-06-02 10:30:00"))

	var res struct {
		Alerts           []model.AlertWithFlags `json:"alerts"`
		PersonalRequests []model.AlertWithFlags `json:"personalRequests"`
		LastChecked      string                 `json:"lastChecked"`
	}
	request(t, nc, subjectGetAlerts, nil, &res)
	require.Len(t, res.Alerts, 1)
	require.Equal(t, "100", res.Alerts[0].TicketID)
	require.Equal(t, "2025-06-02 10:30:00", res.LastChecked)
}

func TestServiceOpenRequest(t *testing.T) {
	svc, nc, _, _ := newTestService(t)

	var opened []string
	svc.openURL = func(url string) error {
		opened = append(opened, url)
		return nil
	}

	attention := testutil.CollectMessages(t, nc, subjectAttention)

	var res model.Result
	request(t, nc, subjectOpenRequest, map[string]string{"srIdx": "12345"}, &res)
	require.True(t, res.Success)
	require.Equal(t, []string{"https://114.unipost.co.kr/home.uni?access=list&srIdx=12345"}, opened)

	select {
	case <-attention:
	case <-time.After(5 * time.Second):
		t.Fatal("expected an attention event")
	}

	request(t, nc, subjectOpenRequest, map[string]string{"srIdx": ""}, &res)
	require.False(t, res.Success)
}

func TestServiceScheduleLifecycle(t *testing.T) {
	_, nc, _, _ := newTestService(t)

	var added model.Schedule
	request(t, nc, subjectAddSchedule, model.Schedule{
		Title: "고객 미팅",
		Date:  "2025-06-10",
		Time:  "14:00",
	}, &added)
	require.NotEmpty(t, added.ID)
	require.Equal(t, model.ScheduleStatusPending, added.Status)

	var list []model.Schedule
	request(t, nc, subjectGetSchedules, nil, &list)
	require.Len(t, list, 1)

	var res model.Result
	request(t, nc, subjectUpdateScheduleStatus, map[string]string{
		"id":     added.ID,
		"status": "completed",
	}, &res)
	require.True(t, res.Success)

	request(t, nc, subjectDeleteSchedule, map[string]string{"id": added.ID}, &res)
	require.True(t, res.Success)

	request(t, nc, subjectGetSchedules, nil, &list)
	require.Empty(t, list)

	request(t, nc, subjectDeleteSchedule, map[string]string{"id": added.ID}, &res)
	require.False(t, res.Success)
}

func TestServiceAppInfo(t *testing.T) {
	_, nc, _, monitor := newTestService(t)
	monitor.mu.Lock()
	monitor.running = true
	monitor.mu.Unlock()

	var info AppInfo
	request(t, nc, subjectGetAppInfo, nil, &info)
	require.Equal(t, "1.2.0", info.Version)
	require.NotZero(t, info.PID)
	require.NotEmpty(t, info.GoVersion)
	require.True(t, info.MonitoringActive)
}

func TestServiceCheckForUpdates(t *testing.T) {
	_, nc, _, _ := newTestService(t)

	statuses := testutil.CollectMessages(t, nc, subjectUpdateStatus)

	var status UpdateStatus
	request(t, nc, subjectCheckForUpdates, nil, &status)
	require.Equal(t, UpdateStateNotAvailable, status.State)
	require.Equal(t, "1.2.0", status.Version)

	// Both the checking and the final state were broadcast.
	var seen []string
	for i := 0; i < 2; i++ {
		select {
		case msg := <-statuses:
			var s UpdateStatus
			require.NoError(t, json.Unmarshal(msg.Data, &s))
			seen = append(seen, s.State)
		case <-time.After(5 * time.Second):
			t.Fatal("expected two update-status events")
		}
	}
	require.Equal(t, []string{UpdateStateChecking, UpdateStateNotAvailable}, seen)
}

func TestServiceCycleHistory(t *testing.T) {
	_, nc, st, _ := newTestService(t)

	require.NoError(t, st.AppendCycle(context.Background(), store.CycleRecord{
		ID:        "cycle-1",
		StartedAt: time.Now(),
		Total:     3,
	}))

	var records []store.CycleRecord
	request(t, nc, subjectCycleHistory, map[string]int{"limit": 10}, &records)
	require.Len(t, records, 1)
	require.Equal(t, "cycle-1", records[0].ID)
	require.Equal(t, 3, records[0].Total)
}
