// internal/workers/credit/score-farmer-credit/config.go
package scorefarmercredit

import (
	"time"

	appconfig "agrimarket-workers/internal/common/config"
	"agrimarket-workers/internal/engine/creditscore"
	"agrimarket-workers/internal/models"
)

type Config struct {
	Timeout  time.Duration
	CacheTTL time.Duration
	Policy   creditscore.Policy
}

func LoadConfig() *Config {
	return &Config{
		Timeout:  30 * time.Second,
		CacheTTL: 15 * time.Minute,
		Policy:   creditscore.DefaultPolicy(),
	}
}

// FromAppConfig maps the application scoring section onto the worker config.
func FromAppConfig(cfg *appconfig.Config) *Config {
	wc := appconfig.GetWorkerConfig(cfg, TaskType)
	return &Config{
		Timeout:  appconfig.GetDuration(wc.Timeout),
		CacheTTL: time.Duration(cfg.Scoring.CacheTTLSeconds) * time.Second,
		Policy: creditscore.Policy{
			ReliabilityWeight: cfg.Scoring.ReliabilityWeight,
			HistoryWeight:     cfg.Scoring.HistoryWeight,
			RevenueWeight:     cfg.Scoring.RevenueWeight,
			RevenueScale:      models.Money(cfg.Scoring.RevenueSaturation),
			HistoryCapMonths:  cfg.Scoring.HistorySaturation,
		},
	}
}
