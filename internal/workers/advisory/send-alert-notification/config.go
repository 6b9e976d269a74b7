// internal/workers/advisory/send-alert-notification/config.go
package sendalertnotification

import (
	"time"

	appconfig "agrimarket-workers/internal/common/config"
)

type Config struct {
	EmailEnabled bool
	SMSEnabled   bool
	FromEmail    string
	AWSRegion    string
	Timeout      time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 30 * time.Second,
	}
}

// FromAppConfig maps the application notification section onto the worker config.
func FromAppConfig(cfg *appconfig.Config) *Config {
	wc := appconfig.GetWorkerConfig(cfg, TaskType)
	return &Config{
		EmailEnabled: cfg.Notifications.Email.Enabled,
		SMSEnabled:   cfg.Notifications.SMS.Enabled,
		FromEmail:    cfg.Notifications.Email.FromEmail,
		AWSRegion:    cfg.Notifications.AWS.Region,
		Timeout:      appconfig.GetDuration(wc.Timeout),
	}
}
