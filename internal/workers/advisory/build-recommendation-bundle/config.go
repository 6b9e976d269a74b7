// internal/workers/advisory/build-recommendation-bundle/config.go
package buildrecommendationbundle

import (
	"time"

	appconfig "agrimarket-workers/internal/common/config"
	"agrimarket-workers/internal/engine/creditscore"
	"agrimarket-workers/internal/engine/weatherrule"
	"agrimarket-workers/internal/models"
)

type Config struct {
	Timeout         time.Duration
	ProfileCacheTTL time.Duration
	CatalogCacheTTL time.Duration
	WeatherCacheTTL time.Duration
	BundleIndex     string
	Policy          creditscore.Policy
	Rules           []weatherrule.Rule
	Feed            appconfig.WeatherConfig
}

func LoadConfig() *Config {
	return &Config{
		Timeout:         30 * time.Second,
		ProfileCacheTTL: 15 * time.Minute,
		CatalogCacheTTL: time.Hour,
		WeatherCacheTTL: 5 * time.Minute,
		BundleIndex:     "recommendation-bundles",
		Policy:          creditscore.DefaultPolicy(),
		Rules:           weatherrule.DefaultRuleTable(),
	}
}

// FromAppConfig maps the application config onto the worker config.
func FromAppConfig(cfg *appconfig.Config) *Config {
	wc := appconfig.GetWorkerConfig(cfg, TaskType)
	return &Config{
		Timeout:         appconfig.GetDuration(wc.Timeout),
		ProfileCacheTTL: time.Duration(cfg.Scoring.CacheTTLSeconds) * time.Second,
		CatalogCacheTTL: time.Hour,
		WeatherCacheTTL: time.Duration(cfg.Weather.CacheTTLSeconds) * time.Second,
		BundleIndex:     "recommendation-bundles",
		Policy: creditscore.Policy{
			ReliabilityWeight: cfg.Scoring.ReliabilityWeight,
			HistoryWeight:     cfg.Scoring.HistoryWeight,
			RevenueWeight:     cfg.Scoring.RevenueWeight,
			RevenueScale:      models.Money(cfg.Scoring.RevenueSaturation),
			HistoryCapMonths:  cfg.Scoring.HistorySaturation,
		},
		Rules: weatherrule.DefaultRuleTable(),
		Feed:  cfg.Weather,
	}
}
