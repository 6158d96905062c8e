package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/pkg/browser"
	"go.uber.org/zap"

	"github.com/t77yq/uni-helper/internal/model"
	"github.com/t77yq/uni-helper/internal/portal"
	"github.com/t77yq/uni-helper/internal/schedule"
	"github.com/t77yq/uni-helper/internal/store"
)

const defaultHistoryLimit = 50

// Monitor is the slice of the monitoring controller the control surface
// drives.
type Monitor interface {
	Start(ctx context.Context) model.Result
	Stop(isAutomatic bool) model.Result
	IsRunning() bool
	MarkManualStart()
}

// Service wires the command subjects to their handlers. One instance per
// daemon.
type Service struct {
	logger    *zap.Logger
	nc        *nats.Conn
	store     *store.Store
	monitor   Monitor
	schedules *schedule.Manager
	events    *Events
	updater   Updater

	portalURL string
	version   string
	startedAt time.Time

	// openURL is swapped out in tests; production uses the default browser.
	openURL func(url string) error

	ctx  context.Context
	subs []*nats.Subscription
}

func New(logger *zap.Logger, nc *nats.Conn, st *store.Store, monitor Monitor,
	schedules *schedule.Manager, events *Events, updater Updater,
	portalURL, version string) *Service {
	return &Service{
		logger:    logger.Named("service"),
		nc:        nc,
		store:     st,
		monitor:   monitor,
		schedules: schedules,
		events:    events,
		updater:   updater,
		portalURL: portalURL,
		version:   version,
		startedAt: time.Now(),
		openURL:   browser.OpenURL,
	}
}

// Start subscribes every command subject. ctx bounds monitoring runs
// started through the control surface.
func (s *Service) Start(ctx context.Context) error {
	s.ctx = ctx

	handlers := map[string]nats.MsgHandler{
		subjectGetSettings:          s.handleGetSettings,
		subjectSaveSettings:         s.handleSaveSettings,
		subjectUpdateSetting:        s.handleUpdateSetting,
		subjectToggleMonitoring:     s.handleToggleMonitoring,
		subjectGetAlerts:            s.handleGetAlerts,
		subjectOpenRequest:          s.handleOpenRequest,
		subjectGetAppInfo:           s.handleGetAppInfo,
		subjectGetSchedules:         s.handleGetSchedules,
		subjectAddSchedule:          s.handleAddSchedule,
		subjectUpdateScheduleStatus: s.handleUpdateScheduleStatus,
		subjectDeleteSchedule:       s.handleDeleteSchedule,
		subjectCheckForUpdates:      s.handleCheckForUpdates,
		subjectDownloadUpdate:       s.handleDownloadUpdate,
		subjectInstallUpdate:        s.handleInstallUpdate,
		subjectCycleHistory:         s.handleCycleHistory,
	}

	for subject, handler := range handlers {
		sub, err := s.nc.Subscribe(subject, handler)
		if err != nil {
			s.Stop()
			return err
		}
		s.subs = append(s.subs, sub)
	}

	s.logger.Info("Control surface ready", zap.Int("subjects", len(s.subs)))
	return nil
}

// Stop unsubscribes all command subjects.
func (s *Service) Stop() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	s.subs = nil
}

func (s *Service) respond(msg *nats.Msg, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("Failed to encode reply",
			zap.String("subject", msg.Subject),
			zap.Error(err))
		return
	}
	if err := msg.Respond(data); err != nil {
		s.logger.Error("Failed to send reply",
			zap.String("subject", msg.Subject),
			zap.Error(err))
	}
}

func (s *Service) respondErr(msg *nats.Msg, err error) {
	s.respond(msg, model.Fail(err.Error()))
}

func (s *Service) handleGetSettings(msg *nats.Msg) {
	settings, err := s.store.Settings()
	if err != nil {
		s.respondErr(msg, err)
		return
	}
	s.respond(msg, settings)
}

func (s *Service) handleSaveSettings(msg *nats.Msg) {
	var settings model.Settings
	if err := json.Unmarshal(msg.Data, &settings); err != nil {
		s.respondErr(msg, err)
		return
	}
	if err := s.store.SetSettings(settings); err != nil {
		s.respondErr(msg, err)
		return
	}
	s.logger.Info("Settings saved", zap.String("username", settings.Username))
	s.respond(msg, model.OK("설정이 저장되었습니다."))
}

func (s *Service) handleUpdateSetting(msg *nats.Msg) {
	var req struct {
		Key   string          `json:"key"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		s.respondErr(msg, err)
		return
	}
	if err := s.store.UpdateSettingField(req.Key, req.Value); err != nil {
		s.respondErr(msg, err)
		return
	}
	s.respond(msg, model.OK("설정이 변경되었습니다."))
}

func (s *Service) handleToggleMonitoring(msg *nats.Msg) {
	var req struct {
		Start bool `json:"start"`
	}
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		s.respondErr(msg, err)
		return
	}

	if !req.Start {
		s.respond(msg, s.monitor.Stop(false))
		return
	}

	s.monitor.MarkManualStart()
	if err := s.store.SetMonitoringPref(model.MonitoringPrefOn); err != nil {
		s.logger.Error("Failed to persist monitoring preference", zap.Error(err))
	}
	s.respond(msg, s.monitor.Start(s.ctx))
}

func (s *Service) handleGetAlerts(msg *nats.Msg) {
	alerts, err := s.store.Alerts()
	if err != nil {
		s.respondErr(msg, err)
		return
	}
	personal, err := s.store.PersonalRequests()
	if err != nil {
		s.respondErr(msg, err)
		return
	}
	lastChecked, err := s.store.LastChecked()
	if err != nil {
		s.respondErr(msg, err)
		return
	}
	s.respond(msg, struct {
		Alerts           []model.AlertWithFlags `json:"alerts"`
		PersonalRequests []model.AlertWithFlags `json:"personalRequests"`
		LastChecked      string                 `json:"lastChecked,omitempty"`
	}{alerts, personal, lastChecked})
}

func (s *Service) handleOpenRequest(msg *nats.Msg) {
	var req struct {
		TicketID string `json:"srIdx"`
	}
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		s.respondErr(msg, err)
		return
	}
	if req.TicketID == "" {
		s.respond(msg, model.Fail("srIdx가 비어 있습니다."))
		return
	}

	url := portal.TicketURL(s.portalURL, req.TicketID)
	if err := s.openURL(url); err != nil {
		s.logger.Error("Failed to open ticket in browser",
			zap.String("ticket_id", req.TicketID),
			zap.Error(err))
		s.respondErr(msg, err)
		return
	}

	s.events.Attention(false)
	s.respond(msg, model.OK("요청 상세를 열었습니다."))
}

func (s *Service) handleGetAppInfo(msg *nats.Msg) {
	lastChecked, err := s.store.LastChecked()
	if err != nil {
		s.logger.Error("Failed to read last-checked timestamp", zap.Error(err))
	}
	s.respond(msg, collectAppInfo(s.version, s.startedAt, s.monitor.IsRunning(), lastChecked))
}

func (s *Service) handleGetSchedules(msg *nats.Msg) {
	schedules, err := s.schedules.List()
	if err != nil {
		s.respondErr(msg, err)
		return
	}
	if schedules == nil {
		schedules = []model.Schedule{}
	}
	s.respond(msg, schedules)
}

func (s *Service) handleAddSchedule(msg *nats.Msg) {
	var sched model.Schedule
	if err := json.Unmarshal(msg.Data, &sched); err != nil {
		s.respondErr(msg, err)
		return
	}
	added, err := s.schedules.Add(sched)
	if err != nil {
		s.respondErr(msg, err)
		return
	}
	s.respond(msg, added)
}

func (s *Service) handleUpdateScheduleStatus(msg *nats.Msg) {
	var req struct {
		ID     string               `json:"id"`
		Status model.ScheduleStatus `json:"status"`
	}
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		s.respondErr(msg, err)
		return
	}
	if err := s.schedules.UpdateStatus(req.ID, req.Status); err != nil {
		s.respondErr(msg, err)
		return
	}
	s.respond(msg, model.OK("일정 상태가 변경되었습니다."))
}

func (s *Service) handleDeleteSchedule(msg *nats.Msg) {
	var req struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		s.respondErr(msg, err)
		return
	}
	if err := s.schedules.Delete(req.ID); err != nil {
		s.respondErr(msg, err)
		return
	}
	s.respond(msg, model.OK("일정이 삭제되었습니다."))
}

func (s *Service) handleCheckForUpdates(msg *nats.Msg) {
	s.events.UpdateStatus(UpdateStatus{State: UpdateStateChecking})
	status := s.updater.CheckForUpdates(s.ctx)
	s.events.UpdateStatus(status)
	s.respond(msg, status)
}

func (s *Service) handleDownloadUpdate(msg *nats.Msg) {
	status := s.updater.DownloadUpdate(s.ctx)
	s.events.UpdateStatus(status)
	s.respond(msg, status)
}

func (s *Service) handleInstallUpdate(msg *nats.Msg) {
	status := s.updater.InstallUpdate()
	s.events.UpdateStatus(status)
	s.respond(msg, status)
}

func (s *Service) handleCycleHistory(msg *nats.Msg) {
	limit := defaultHistoryLimit
	if len(msg.Data) > 0 {
		var req struct {
			Limit int `json:"limit"`
		}
		if err := json.Unmarshal(msg.Data, &req); err == nil && req.Limit > 0 {
			limit = req.Limit
		}
	}

	records, err := s.store.RecentCycles(s.ctx, limit)
	if err != nil {
		s.respondErr(msg, err)
		return
	}
	if records == nil {
		records = []store.CycleRecord{}
	}
	s.respond(msg, records)
}
