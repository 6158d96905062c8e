package monitor

import (
	"strings"
	"time"

	"github.com/t77yq/uni-helper/internal/model"
)

const (
	// delayedAfter marks tickets whose last processing activity is older
	// than a week.
	delayedAfter = 7 * 24 * time.Hour

	// pendingAfter marks received tickets that nobody picked up within an
	// hour of the request.
	pendingAfter = time.Hour
)

// portalTimeLayouts are the timestamp formats the grid is known to emit.
var portalTimeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

func parsePortalTime(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range portalTimeLayouts {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// WithFlags computes the derived status flags for an alert at the given
// time. Pure; called fresh on every cycle.
func WithFlags(alert model.Alert, now time.Time) model.AlertWithFlags {
	flagged := model.AlertWithFlags{Alert: alert}

	flagged.IsUrgent = strings.Contains(alert.RequestTitle, model.MarkerUrgent)

	if t, ok := parsePortalTime(alert.ProcessDate); ok {
		flagged.IsDelayed = now.Sub(t) > delayedAfter
	}

	if strings.Contains(alert.Status, model.MarkerReceived) {
		if t, ok := parsePortalTime(alert.RequestDateAll); ok {
			flagged.IsPending = now.Sub(t) > pendingAfter
		}
	}

	return flagged
}

func withFlagsAll(alerts []model.Alert, now time.Time) []model.AlertWithFlags {
	flagged := make([]model.AlertWithFlags, 0, len(alerts))
	for _, alert := range alerts {
		flagged = append(flagged, WithFlags(alert, now))
	}
	return flagged
}
