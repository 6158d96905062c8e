package notify

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/t77yq/uni-helper/internal/model"
)

const (
	// frontEvictAfter bounds how long an entry can linger at the front of
	// the shown list before a new batch pushes it out.
	frontEvictAfter = 2 * time.Minute

	// cleanupDelay is how long after a batch the housekeeping pass runs.
	cleanupDelay = 30 * time.Second

	// expireAfter is the age at which the housekeeping pass drops an entry.
	expireAfter = 30 * time.Second
)

// SettingsSource yields the current user settings.
type SettingsSource interface {
	Settings() (model.Settings, error)
}

// AttentionSink toggles the shell's attention cue: true when a batch was
// shown, false once the user reacts (the open-request path clears it).
type AttentionSink interface {
	Attention(active bool)
}

type shownEntry struct {
	handle   Handle
	ticketID string
	at       time.Time
}

// Notifier turns alert batches into desktop notifications. Shown handles
// are kept in insertion order; the ticket index gives the still-on-screen
// membership check so one ticket never stacks duplicate toasts. Entries
// age out within seconds, so the index never suppresses a later cycle's
// notification for the same ticket.
type Notifier struct {
	logger   *zap.Logger
	desktop  Desktop
	settings SettingsSource
	sink     AttentionSink

	now       func() time.Time
	afterFunc func(time.Duration, func())

	mu      sync.Mutex
	shown   []shownEntry
	tickets map[string]struct{}
}

func NewNotifier(logger *zap.Logger, desktop Desktop, settings SettingsSource, sink AttentionSink) *Notifier {
	return &Notifier{
		logger:   logger.Named("notify"),
		desktop:  desktop,
		settings: settings,
		sink:     sink,
		now:      time.Now,
		afterFunc: func(d time.Duration, f func()) {
			time.AfterFunc(d, f)
		},
		tickets: make(map[string]struct{}),
	}
}

// Publish shows one desktop notification per alert. Disabled notifications
// and empty batches are no-ops.
func (n *Notifier) Publish(alerts []model.AlertWithFlags) {
	if len(alerts) == 0 {
		return
	}

	settings, err := n.settings.Settings()
	if err != nil {
		n.logger.Error("Failed to load settings", zap.Error(err))
		return
	}
	if !settings.EnableNotifications {
		n.logger.Debug("Notifications disabled, dropping batch",
			zap.Int("alerts", len(alerts)))
		return
	}

	now := n.now()

	n.mu.Lock()
	for len(n.shown) > 0 && now.Sub(n.shown[0].at) > frontEvictAfter {
		n.removeAt(0)
	}
	n.mu.Unlock()

	for _, alert := range alerts {
		n.mu.Lock()
		_, onScreen := n.tickets[alert.TicketID]
		n.mu.Unlock()
		if onScreen {
			n.logger.Debug("Ticket notification still on screen, not stacking",
				zap.String("ticket_id", alert.TicketID))
			continue
		}

		handle, err := n.desktop.Show(alert.CustomerName, alert.RequestTitle+"\n상태: "+alert.Status)
		if err != nil {
			n.logger.Error("Failed to show notification",
				zap.String("ticket_id", alert.TicketID),
				zap.Error(err))
			continue
		}

		n.mu.Lock()
		n.tickets[alert.TicketID] = struct{}{}
		n.shown = append(n.shown, shownEntry{
			handle:   handle,
			ticketID: alert.TicketID,
			at:       now,
		})
		n.mu.Unlock()
	}

	n.sink.Attention(true)
	n.afterFunc(cleanupDelay, n.cleanup)
}

// cleanup drops entries that expired or were dismissed. Reverse scan so
// removals do not shift unvisited indexes.
func (n *Notifier) cleanup() {
	now := n.now()

	n.mu.Lock()
	defer n.mu.Unlock()

	for i := len(n.shown) - 1; i >= 0; i-- {
		entry := n.shown[i]
		if now.Sub(entry.at) >= expireAfter || entry.handle.Dismissed() {
			n.removeAt(i)
		}
	}
}

// removeAt must be called with the mutex held.
func (n *Notifier) removeAt(i int) {
	delete(n.tickets, n.shown[i].ticketID)
	n.shown = append(n.shown[:i], n.shown[i+1:]...)
}

// ShownCount reports how many notification handles are currently tracked.
func (n *Notifier) ShownCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.shown)
}
