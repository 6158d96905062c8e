package model

import "time"

const (
	// DefaultCheckIntervalMinutes is used when the user has not set an
	// interval or set one outside the allowed range.
	DefaultCheckIntervalMinutes = 5

	minCheckIntervalMinutes = 1
	maxCheckIntervalMinutes = 40
)

// MonitoringPref is the persisted desired steady state of monitoring. It
// survives restarts; the in-session manual-start flag does not.
type MonitoringPref string

const (
	MonitoringPrefOn  MonitoringPref = "on"
	MonitoringPrefOff MonitoringPref = "off"
)

// Settings holds the user-owned configuration managed through the settings
// UI and persisted in the local store.
type Settings struct {
	Username            string `json:"username"`
	Password            string `json:"password"`
	CheckInterval       int    `json:"checkInterval"`
	EnableNotifications bool   `json:"enableNotifications"`
	NotificationEmail   string `json:"notificationEmail,omitempty"`
}

// HasCredentials reports whether both portal credentials are configured.
func (s Settings) HasCredentials() bool {
	return s.Username != "" && s.Password != ""
}

// Interval returns the scrape interval, clamping the configured minutes to
// the supported 1-40 range and falling back to the default when unset.
func (s Settings) Interval() time.Duration {
	minutes := s.CheckInterval
	if minutes < minCheckIntervalMinutes || minutes > maxCheckIntervalMinutes {
		minutes = DefaultCheckIntervalMinutes
	}
	return time.Duration(minutes) * time.Minute
}
