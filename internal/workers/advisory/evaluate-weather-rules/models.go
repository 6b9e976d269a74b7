// internal/workers/advisory/evaluate-weather-rules/models.go
package evaluateweatherrules

import (
	"time"

	"agrimarket-workers/internal/models"
)

type Input struct {
	FarmerID string `json:"farmerId,omitempty"`
	Region   string `json:"region"`
}

// Output always carries at least one alert entry and one advisory entry;
// a quiet region gets the explicit fallback entries.
type Output struct {
	Region           string                `json:"region"`
	ObservedAt       time.Time             `json:"observedAt"`
	Alerts           []models.WeatherEntry `json:"weatherAlerts"`
	Advisories       []models.WeatherEntry `json:"weatherAdvisories"`
	RuleTableVersion string                `json:"ruleTableVersion"`
}
