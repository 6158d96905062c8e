package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the daemon-level configuration read from config.yaml. User
// preferences (credentials, interval, notification email) are not here;
// they live in the store and are managed over the control surface.
type Config struct {
	Portal        PortalConfig
	NATS          NATSConfig
	SMTP          SMTPConfig
	Store         StoreConfig
	BusinessHours BusinessHoursConfig
}

// PortalConfig configures the hidden browser session against the support
// portal.
type PortalConfig struct {
	URL              string
	Headless         bool
	ScriptTimeout    time.Duration
	LoginSettleDelay time.Duration
}

// NATSConfig configures the embedded NATS server the UI shell connects to.
type NATSConfig struct {
	Host string
	Port int
}

// SMTPConfig configures the reminder mail relay.
type SMTPConfig struct {
	Host string
	Port int
	From string
}

// StoreConfig configures the local SQLite store.
type StoreConfig struct {
	Path          string
	RetentionDays int
}

// BusinessHoursConfig is the window during which monitoring is allowed to
// run automatically. Weekends are always outside business hours.
type BusinessHoursConfig struct {
	StartHour int
	EndHour   int
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("portal.url", "https://114.unipost.co.kr/home.uni")
	v.SetDefault("portal.headless", true)
	v.SetDefault("portal.script_timeout", time.Minute)
	v.SetDefault("portal.login_settle_delay", 3*time.Second)
	v.SetDefault("nats.host", "127.0.0.1")
	v.SetDefault("nats.port", 4333)
	v.SetDefault("smtp.host", "192.168.11.17")
	v.SetDefault("smtp.port", 25)
	v.SetDefault("smtp.from", `"일정 알리미" <uni-helper@unidocu.unipost.co.kr>`)
	v.SetDefault("store.path", "uni-helper.db")
	v.SetDefault("store.retention_days", 30)
	v.SetDefault("business_hours.start_hour", 7)
	v.SetDefault("business_hours.end_hour", 20)
}

// Load reads config.yaml from the given directory. A missing file is not an
// error; the defaults describe a working local setup.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(path)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{
		Portal: PortalConfig{
			URL:              v.GetString("portal.url"),
			Headless:         v.GetBool("portal.headless"),
			ScriptTimeout:    v.GetDuration("portal.script_timeout"),
			LoginSettleDelay: v.GetDuration("portal.login_settle_delay"),
		},
		NATS: NATSConfig{
			Host: v.GetString("nats.host"),
			Port: v.GetInt("nats.port"),
		},
		SMTP: SMTPConfig{
			Host: v.GetString("smtp.host"),
			Port: v.GetInt("smtp.port"),
			From: v.GetString("smtp.from"),
		},
		Store: StoreConfig{
			Path:          v.GetString("store.path"),
			RetentionDays: v.GetInt("store.retention_days"),
		},
		BusinessHours: BusinessHoursConfig{
			StartHour: v.GetInt("business_hours.start_hour"),
			EndHour:   v.GetInt("business_hours.end_hour"),
		},
	}

	if cfg.BusinessHours.StartHour < 0 || cfg.BusinessHours.EndHour > 24 ||
		cfg.BusinessHours.StartHour >= cfg.BusinessHours.EndHour {
		return nil, fmt.Errorf("invalid business hours window: %d-%d",
			cfg.BusinessHours.StartHour, cfg.BusinessHours.EndHour)
	}

	return cfg, nil
}
