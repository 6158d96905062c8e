package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/t77yq/uni-helper/internal/model"
	"github.com/t77yq/uni-helper/internal/portal"
	"github.com/t77yq/uni-helper/internal/store"
)

// State is the controller lifecycle state.
type State string

const (
	StateStopped  State = "stopped"
	StateStarting State = "starting"
	StateRunning  State = "running"
)

// Events receives controller lifecycle and data notifications. Implemented
// by the service layer, which fans them out to connected clients.
type Events interface {
	MonitoringStatusChanged(isMonitoring bool)
	NewAlertsAvailable()
}

// AlertNotifier surfaces a batch of alerts to the user.
type AlertNotifier interface {
	Publish(alerts []model.AlertWithFlags)
}

// Controller runs the scrape loop: it establishes the portal session,
// executes one cycle immediately on start, then keeps scraping at the
// configured interval until stopped.
type Controller struct {
	logger   *zap.Logger
	store    *store.Store
	portal   portal.Driver
	events   Events
	notifier AlertNotifier
	now      func() time.Time

	mu            sync.Mutex
	state         State
	cancel        context.CancelFunc
	inFlight      bool
	manualStarted bool
}

func NewController(logger *zap.Logger, st *store.Store, driver portal.Driver, events Events, notifier AlertNotifier) *Controller {
	return &Controller{
		logger:   logger.Named("monitor"),
		store:    st,
		portal:   driver,
		events:   events,
		notifier: notifier,
		now:      time.Now,
		state:    StateStopped,
	}
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// IsRunning reports whether the scrape loop is active.
func (c *Controller) IsRunning() bool {
	return c.State() == StateRunning
}

// MarkManualStart records that the user started monitoring at least once in
// this process. The business-hours gate never auto-starts before that.
func (c *Controller) MarkManualStart() {
	c.mu.Lock()
	c.manualStarted = true
	c.mu.Unlock()
}

// ManualStartedThisSession reports whether MarkManualStart was called.
func (c *Controller) ManualStartedThisSession() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.manualStarted
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// Start brings the controller to running: verifies credentials, establishes
// the portal session, runs one cycle synchronously, then launches the
// periodic loop. Calling Start while already running is a no-op success.
// The passed context bounds the whole monitoring run, not just the call.
func (c *Controller) Start(ctx context.Context) model.Result {
	c.mu.Lock()
	switch c.state {
	case StateRunning:
		c.mu.Unlock()
		c.logger.Warn("Start requested while already monitoring")
		return model.OK("이미 모니터링 중입니다.")
	case StateStarting:
		c.mu.Unlock()
		return model.Fail("모니터링을 시작하는 중입니다.")
	}
	c.state = StateStarting
	c.mu.Unlock()

	settings, err := c.store.Settings()
	if err != nil {
		c.setState(StateStopped)
		c.logger.Error("Failed to load settings", zap.Error(err))
		return model.Fail("설정을 읽지 못했습니다: " + err.Error())
	}
	if !settings.HasCredentials() {
		c.setState(StateStopped)
		c.logger.Error("Monitoring start rejected, no credentials configured")
		return model.Fail("계정 정보가 설정되지 않았습니다. 설정에서 계정을 입력해 주세요.")
	}

	if login := c.ensureLoggedIn(ctx, settings); !login.Success {
		c.setState(StateStopped)
		c.logger.Error("Portal login failed", zap.String("message", login.Message))
		return login
	}

	runCtx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.state = StateRunning
	c.cancel = cancel
	c.mu.Unlock()

	interval := settings.Interval()
	c.logger.Info("Monitoring started", zap.Duration("interval", interval))
	c.events.MonitoringStatusChanged(true)

	c.RunCycle(runCtx)

	go c.loop(runCtx, interval)

	return model.OK("모니터링을 시작합니다.")
}

func (c *Controller) ensureLoggedIn(ctx context.Context, settings model.Settings) model.Result {
	if res := c.portal.CheckSession(ctx); res.Success {
		return res
	}
	c.logger.Info("No active portal session, logging in",
		zap.String("username", settings.Username))
	return c.portal.Login(ctx, settings.Username, settings.Password)
}

func (c *Controller) loop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.RunCycle(ctx)
		}
	}
}

// Stop halts the scrape loop. A user-initiated stop also persists the
// monitoring preference as off so the gate will not resume it; an automatic
// stop leaves the preference untouched. Stopping while already stopped is a
// no-op success.
func (c *Controller) Stop(isAutomatic bool) model.Result {
	c.mu.Lock()
	if c.state != StateRunning {
		c.mu.Unlock()
		return model.OK("이미 모니터링이 중지되어 있습니다.")
	}
	cancel := c.cancel
	c.cancel = nil
	c.state = StateStopped
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	if isAutomatic {
		c.logger.Warn("Monitoring stopped automatically")
	} else {
		c.logger.Info("Monitoring stopped by user")
		if err := c.store.SetMonitoringPref(model.MonitoringPrefOff); err != nil {
			c.logger.Error("Failed to persist monitoring preference", zap.Error(err))
		}
	}

	c.events.MonitoringStatusChanged(false)
	return model.OK("모니터링이 중지되었습니다.")
}

// RunCycle executes one scrape cycle. If the previous cycle is still in
// flight the tick is skipped so cycles never overlap. A failed cycle is
// recorded and skipped; it never stops the loop.
func (c *Controller) RunCycle(ctx context.Context) model.Result {
	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		c.logger.Warn("Previous cycle still in flight, skipping tick")
		return model.Fail("이전 점검이 아직 진행 중입니다.")
	}
	c.inFlight = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.inFlight = false
		c.mu.Unlock()
	}()

	started := c.now()
	rec := store.CycleRecord{
		ID:        uuid.NewString(),
		StartedAt: started,
	}

	result := c.guardedCycle(ctx, rec.ID, &rec)

	rec.Duration = c.now().Sub(started)
	if !result.Success {
		rec.Error = result.Message
	}
	if err := c.store.AppendCycle(ctx, rec); err != nil {
		c.logger.Error("Failed to record cycle history", zap.Error(err))
	}

	return result
}

func (c *Controller) guardedCycle(ctx context.Context, cycleID string, rec *store.CycleRecord) (result model.Result) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Cycle panicked",
				zap.String("cycle_id", cycleID),
				zap.Any("panic", r))
			result = model.Fail(fmt.Sprintf("cycle panic: %v", r))
		}
	}()
	return c.cycle(ctx, cycleID, rec)
}

func (c *Controller) cycle(ctx context.Context, cycleID string, rec *store.CycleRecord) model.Result {
	scraped := c.portal.Scrape(ctx)
	if !scraped.Success {
		c.logger.Error("Scrape failed",
			zap.String("cycle_id", cycleID),
			zap.String("message", scraped.Message))
		return model.Fail(scraped.Message)
	}

	now := c.now()

	prev, err := c.store.Alerts()
	if err != nil {
		c.logger.Error("Failed to read previous snapshot", zap.Error(err))
		return model.Fail("이전 데이터를 읽지 못했습니다: " + err.Error())
	}

	fresh := NewAlerts(prev, scraped.AllRequests)
	changed := StatusChanged(prev, scraped.AllRequests)

	flaggedAll := withFlagsAll(scraped.AllRequests, now)
	flaggedPersonal := withFlagsAll(scraped.PersonalRequests, now)

	if err := c.store.SetAlerts(flaggedAll); err != nil {
		return model.Fail("데이터 저장에 실패했습니다: " + err.Error())
	}
	if err := c.store.SetPersonalRequests(flaggedPersonal); err != nil {
		return model.Fail("데이터 저장에 실패했습니다: " + err.Error())
	}
	if err := c.store.SetLastChecked(now.Format("2006-01-02 15:04:05")); err != nil {
		return model.Fail("데이터 저장에 실패했습니다: " + err.Error())
	}

	rec.Total = len(flaggedAll)
	rec.NewAlerts = len(fresh)
	rec.StatusChanged = len(changed)

	c.events.NewAlertsAvailable()

	// The very first cycle has no baseline; everything would look new.
	// Status changes need a matching prior row, so by construction they
	// are empty then too.
	if len(prev) > 0 && len(fresh) > 0 {
		c.notifier.Publish(withFlagsAll(fresh, now))
	}
	if len(changed) > 0 {
		c.notifier.Publish(withFlagsAll(changed, now))
	}

	c.logger.Info("Cycle complete",
		zap.String("cycle_id", cycleID),
		zap.Int("total", len(flaggedAll)),
		zap.Int("new", len(fresh)),
		zap.Int("status_changed", len(changed)),
		zap.Duration("took", c.now().Sub(rec.StartedAt)))

	return model.OK(fmt.Sprintf("총 %d건, 신규 %d건, 상태 변경 %d건", len(flaggedAll), len(fresh), len(changed)))
}
