package service

import (
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap/zapcore"
)

// natsLogCore tees log entries to connected clients so the UI shell can
// render a live log pane. Structured fields are dropped; the pane shows
// level, message, and time.
type natsLogCore struct {
	zapcore.LevelEnabler
	nc *nats.Conn
}

// NewLogCore returns a zapcore.Core that publishes matching entries on the
// log event subject. Publish failures are swallowed; logging must never
// depend on a client listening.
func NewLogCore(nc *nats.Conn, enab zapcore.LevelEnabler) zapcore.Core {
	return &natsLogCore{LevelEnabler: enab, nc: nc}
}

func (c *natsLogCore) With([]zapcore.Field) zapcore.Core { return c }

func (c *natsLogCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *natsLogCore) Write(ent zapcore.Entry, _ []zapcore.Field) error {
	payload, err := json.Marshal(map[string]string{
		"level":     ent.Level.String(),
		"logger":    ent.LoggerName,
		"message":   ent.Message,
		"timestamp": ent.Time.Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	_ = c.nc.Publish(subjectLog, payload)
	return nil
}

func (c *natsLogCore) Sync() error { return nil }
