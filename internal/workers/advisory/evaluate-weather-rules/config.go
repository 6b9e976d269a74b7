// internal/workers/advisory/evaluate-weather-rules/config.go
package evaluateweatherrules

import (
	"time"

	appconfig "agrimarket-workers/internal/common/config"
	"agrimarket-workers/internal/engine/weatherrule"
)

type Config struct {
	Timeout          time.Duration
	CacheTTL         time.Duration
	RuleTableVersion string
	Rules            []weatherrule.Rule
	Feed             appconfig.WeatherConfig
}

func LoadConfig() *Config {
	return &Config{
		Timeout:          30 * time.Second,
		CacheTTL:         5 * time.Minute,
		RuleTableVersion: weatherrule.DefaultRuleTableVersion,
		Rules:            weatherrule.DefaultRuleTable(),
	}
}

// FromAppConfig maps the application weather section onto the worker config.
func FromAppConfig(cfg *appconfig.Config) *Config {
	wc := appconfig.GetWorkerConfig(cfg, TaskType)
	version := cfg.Weather.RuleTableVersion
	if version == "" {
		version = weatherrule.DefaultRuleTableVersion
	}
	return &Config{
		Timeout:          appconfig.GetDuration(wc.Timeout),
		CacheTTL:         time.Duration(cfg.Weather.CacheTTLSeconds) * time.Second,
		RuleTableVersion: version,
		Rules:            weatherrule.DefaultRuleTable(),
		Feed:             cfg.Weather,
	}
}
