package monitor

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/t77yq/uni-helper/internal/config"
	"github.com/t77yq/uni-helper/internal/model"
)

// Control is the slice of the controller the business-hours gate drives.
type Control interface {
	IsRunning() bool
	ManualStartedThisSession() bool
	Start(ctx context.Context) model.Result
	Stop(isAutomatic bool) model.Result
}

// PrefSource yields the persisted monitoring preference.
type PrefSource interface {
	MonitoringPref() (model.MonitoringPref, error)
}

// Gate reconciles the monitoring state with business hours on a schedule.
// It resumes monitoring when the workday begins, for users whose
// preference is on and who have already started monitoring once this
// session, and pauses it when the workday ends.
type Gate struct {
	logger  *zap.Logger
	prefs   PrefSource
	control Control
	start   int
	end     int
	now     func() time.Time
	ctx     context.Context
}

func NewGate(ctx context.Context, logger *zap.Logger, prefs PrefSource, control Control, hours config.BusinessHoursConfig) *Gate {
	return &Gate{
		logger:  logger.Named("gate"),
		prefs:   prefs,
		control: control,
		start:   hours.StartHour,
		end:     hours.EndHour,
		now:     time.Now,
		ctx:     ctx,
	}
}

// WithinBusinessHours reports whether t falls on a weekday inside the
// configured hour window. The end hour is exclusive.
func (g *Gate) WithinBusinessHours(t time.Time) bool {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	h := t.Hour()
	return h >= g.start && h < g.end
}

// Run performs one reconciliation pass. Scheduled by cron.
func (g *Gate) Run() {
	within := g.WithinBusinessHours(g.now())

	if !g.control.ManualStartedThisSession() {
		// Never auto-start before the user opted in this session, but
		// still enforce the closing bell.
		if g.control.IsRunning() && !within {
			g.logger.Warn("Outside business hours, pausing monitoring")
			g.control.Stop(true)
		}
		return
	}

	pref, err := g.prefs.MonitoringPref()
	if err != nil {
		g.logger.Error("Failed to read monitoring preference", zap.Error(err))
		return
	}

	switch {
	case pref == model.MonitoringPrefOn && within && !g.control.IsRunning():
		g.logger.Info("Business hours began, resuming monitoring")
		g.control.Start(g.ctx)
	case g.control.IsRunning() && !within:
		g.logger.Warn("Outside business hours, pausing monitoring")
		g.control.Stop(true)
	}
}
