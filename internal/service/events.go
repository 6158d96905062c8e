package service

import (
	"encoding/json"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Events publishes one-way notifications to connected clients. It is the
// sink for monitoring lifecycle changes, fresh-data signals, attention
// requests, and updater progress.
type Events struct {
	logger *zap.Logger
	nc     *nats.Conn
}

func NewEvents(logger *zap.Logger, nc *nats.Conn) *Events {
	return &Events{
		logger: logger.Named("events"),
		nc:     nc,
	}
}

func (e *Events) publish(subject string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		e.logger.Error("Failed to encode event",
			zap.String("subject", subject),
			zap.Error(err))
		return
	}
	if err := e.nc.Publish(subject, data); err != nil {
		e.logger.Error("Failed to publish event",
			zap.String("subject", subject),
			zap.Error(err))
	}
}

// MonitoringStatusChanged announces a monitoring lifecycle transition.
func (e *Events) MonitoringStatusChanged(isMonitoring bool) {
	e.publish(subjectMonitoringStatus, map[string]bool{"isMonitoring": isMonitoring})
}

// NewAlertsAvailable signals that the persisted snapshot was refreshed.
func (e *Events) NewAlertsAvailable() {
	e.publish(subjectNewAlerts, struct{}{})
}

// Attention toggles the UI shell's attention cue (taskbar flash or
// equivalent). True starts it, false clears it.
func (e *Events) Attention(active bool) {
	e.publish(subjectAttention, map[string]bool{"active": active})
}

// UpdateStatus reports updater progress.
func (e *Events) UpdateStatus(status UpdateStatus) {
	e.publish(subjectUpdateStatus, status)
}
