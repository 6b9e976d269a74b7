// internal/models/weather.go
package models

import "time"

// WeatherSnapshot is one reading from the external weather feed. The optional
// forecast is generated once per request and carried as plain data.
type WeatherSnapshot struct {
	Region      string            `json:"region"`
	Timestamp   time.Time         `json:"timestamp"`
	Temperature float64           `json:"temperature"` // degrees Celsius
	Humidity    float64           `json:"humidity"`    // percent
	WindSpeed   float64           `json:"windSpeed"`   // m/s
	Rainfall    float64           `json:"rainfall"`    // mm over the last interval
	Forecast    []WeatherSnapshot `json:"forecast,omitempty"`
}

// Priority orders alerts and advisories for display.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// WeatherEntry is a single alert or advisory produced by the rule engine.
// A fallback entry carries the reserved rule IDs "no-alert" / "no-advisory":
// the contract distinguishes "nothing to report" from "failed to compute",
// so callers never receive an empty list.
type WeatherEntry struct {
	RuleID        string   `json:"ruleId"`
	Category      string   `json:"category"`
	Priority      Priority `json:"priority"`
	Message       string   `json:"message"`
	ObservedValue float64  `json:"observedValue,omitempty"`
}

// WeatherFindings is the rule engine's output: alerts are safety-critical
// and immediate, advisories are actionable guidance.
type WeatherFindings struct {
	Alerts     []WeatherEntry `json:"alerts"`
	Advisories []WeatherEntry `json:"advisories"`
}
