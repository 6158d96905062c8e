package monitor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/t77yq/uni-helper/internal/config"
	"github.com/t77yq/uni-helper/internal/model"
)

type fakeControl struct {
	running       bool
	manualStarted bool
	starts        int
	stops         int
	lastAutomatic bool
}

func (f *fakeControl) IsRunning() bool                { return f.running }
func (f *fakeControl) ManualStartedThisSession() bool { return f.manualStarted }

func (f *fakeControl) Start(context.Context) model.Result {
	f.starts++
	f.running = true
	return model.OK("started")
}

func (f *fakeControl) Stop(isAutomatic bool) model.Result {
	f.stops++
	f.lastAutomatic = isAutomatic
	f.running = false
	return model.OK("stopped")
}

type fakePrefs struct {
	pref model.MonitoringPref
	err  error
}

func (f *fakePrefs) MonitoringPref() (model.MonitoringPref, error) {
	return f.pref, f.err
}

func newTestGate(control *fakeControl, prefs *fakePrefs, now time.Time) *Gate {
	g := NewGate(context.Background(), zap.NewNop(), prefs, control,
		config.BusinessHoursConfig{StartHour: 7, EndHour: 20})
	g.now = func() time.Time { return now }
	return g
}

// Monday 10:00, inside business hours.
var businessMorning = time.Date(2025, 6, 2, 10, 0, 0, 0, time.Local)

// Monday 21:00, after hours.
var businessEvening = time.Date(2025, 6, 2, 21, 0, 0, 0, time.Local)

// Saturday 10:00.
var saturdayMorning = time.Date(2025, 6, 7, 10, 0, 0, 0, time.Local)

func TestGateNeverStartsBeforeManualStart(t *testing.T) {
	control := &fakeControl{}
	prefs := &fakePrefs{pref: model.MonitoringPrefOn}

	g := newTestGate(control, prefs, businessMorning)
	g.Run()

	require.Equal(t, 0, control.starts)
}

func TestGateResumesDuringBusinessHours(t *testing.T) {
	control := &fakeControl{manualStarted: true}
	prefs := &fakePrefs{pref: model.MonitoringPrefOn}

	g := newTestGate(control, prefs, businessMorning)
	g.Run()

	require.Equal(t, 1, control.starts)
	require.True(t, control.running)

	// Already running; the next pass leaves it alone.
	g.Run()
	require.Equal(t, 1, control.starts)
}

func TestGateRespectsOffPreference(t *testing.T) {
	control := &fakeControl{manualStarted: true}
	prefs := &fakePrefs{pref: model.MonitoringPrefOff}

	g := newTestGate(control, prefs, businessMorning)
	g.Run()

	require.Equal(t, 0, control.starts)
}

func TestGateStopsAfterHours(t *testing.T) {
	control := &fakeControl{manualStarted: true, running: true}
	prefs := &fakePrefs{pref: model.MonitoringPrefOn}

	g := newTestGate(control, prefs, businessEvening)
	g.Run()

	require.Equal(t, 1, control.stops)
	require.True(t, control.lastAutomatic)
	require.False(t, control.running)
}

func TestGateStopsAfterHoursEvenWithoutManualStart(t *testing.T) {
	control := &fakeControl{running: true}
	prefs := &fakePrefs{pref: model.MonitoringPrefOn}

	g := newTestGate(control, prefs, businessEvening)
	g.Run()

	require.Equal(t, 1, control.stops)
	require.True(t, control.lastAutomatic)
}

func TestGateWeekendIsOutsideBusinessHours(t *testing.T) {
	control := &fakeControl{manualStarted: true}
	prefs := &fakePrefs{pref: model.MonitoringPrefOn}

	g := newTestGate(control, prefs, saturdayMorning)
	g.Run()

	require.Equal(t, 0, control.starts)
}

func TestGateBoundaryHours(t *testing.T) {
	g := newTestGate(&fakeControl{}, &fakePrefs{}, businessMorning)

	require.True(t, g.WithinBusinessHours(
		time.Date(2025, 6, 2, 7, 0, 0, 0, time.Local)))
	require.False(t, g.WithinBusinessHours(
		time.Date(2025, 6, 2, 6, 59, 0, 0, time.Local)))
	require.False(t, g.WithinBusinessHours(
		time.Date(2025, 6, 2, 20, 0, 0, 0, time.Local)))
	require.True(t, g.WithinBusinessHours(
		time.Date(2025, 6, 2, 19, 59, 0, 0, time.Local)))
}
