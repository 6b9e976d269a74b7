// internal/workers/credit/match-loan-offers/config.go
package matchloanoffers

import (
	"time"

	appconfig "agrimarket-workers/internal/common/config"
)

type Config struct {
	Timeout         time.Duration
	ProfileCacheTTL time.Duration
	CatalogCacheTTL time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout:         30 * time.Second,
		ProfileCacheTTL: 15 * time.Minute,
		CatalogCacheTTL: time.Hour,
	}
}

// FromAppConfig maps the application config onto the worker config.
func FromAppConfig(cfg *appconfig.Config) *Config {
	wc := appconfig.GetWorkerConfig(cfg, TaskType)
	return &Config{
		Timeout:         appconfig.GetDuration(wc.Timeout),
		ProfileCacheTTL: time.Duration(cfg.Scoring.CacheTTLSeconds) * time.Second,
		CatalogCacheTTL: time.Hour,
	}
}
