// internal/engine/weatherrule/ruletable.go
package weatherrule

import "agrimarket-workers/internal/models"

// DefaultRuleTableVersion identifies the stock threshold table. Bump it when
// thresholds change so indexed bundles stay attributable to a rule set.
const DefaultRuleTableVersion = "2024-06"

// DefaultRuleTable returns the platform's stock threshold table. It is data,
// not logic: callers pass it (or a replacement) into Evaluate, and rule
// changes never touch the evaluation code.
func DefaultRuleTable() []Rule {
	return []Rule{
		{
			ID:        "heat-stress",
			Field:     FieldTemperature,
			Op:        OpGreaterThan,
			Threshold: 35,
			Kind:      KindAlert,
			Priority:  models.PriorityHigh,
			Category:  "heat",
			Message:   "Extreme heat expected. Shade livestock and avoid midday field work.",
		},
		{
			ID:        "flood-risk",
			Field:     FieldRainfall,
			Op:        OpGreaterThan,
			Threshold: 10,
			Kind:      KindAlert,
			Priority:  models.PriorityHigh,
			Category:  "flood",
			Message:   "Heavy rainfall recorded. Check drainage and move stored produce off the ground.",
		},
		{
			ID:        "strong-wind",
			Field:     FieldWindSpeed,
			Op:        OpGreaterThan,
			Threshold: 10,
			Kind:      KindAlert,
			Priority:  models.PriorityMedium,
			Category:  "wind",
			Message:   "Strong winds expected. Secure greenhouse covers and young trees.",
		},
		{
			ID:        "irrigation-needed",
			Field:     FieldHumidity,
			Op:        OpLessThan,
			Threshold: 40,
			Kind:      KindAdvisory,
			Priority:  models.PriorityMedium,
			Category:  "irrigation",
			Message:   "Low humidity. Irrigate in the early morning to reduce evaporation loss.",
		},
		{
			ID:        "fungal-watch",
			Field:     FieldHumidity,
			Op:        OpGreaterThan,
			Threshold: 85,
			Kind:      KindAdvisory,
			Priority:  models.PriorityMedium,
			Category:  "pest",
			Message:   "High humidity favors fungal disease. Scout crops and ventilate storage.",
		},
		{
			ID:        "cold-snap",
			Field:     FieldTemperature,
			Op:        OpLessThan,
			Threshold: 5,
			Kind:      KindAdvisory,
			Priority:  models.PriorityHigh,
			Category:  "frost",
			Message:   "Near-frost temperatures. Cover seedlings overnight and delay transplanting.",
		},
		{
			ID:        "spraying-window",
			Field:     FieldWindSpeed,
			Op:        OpLessThan,
			Threshold: 3,
			Kind:      KindAdvisory,
			Priority:  models.PriorityLow,
			Category:  "spraying",
			Message:   "Calm winds. Good window for pesticide or foliar application.",
		},
	}
}
