// internal/engine/weatherrule/weatherrule.go

// Package weatherrule evaluates weather readings against a threshold rule
// table, producing safety alerts and farming advisories.
package weatherrule

import (
	"fmt"

	"agrimarket-workers/internal/engine"
	"agrimarket-workers/internal/models"
)

// Field names a WeatherSnapshot reading a rule predicates over.
type Field string

const (
	FieldTemperature Field = "temperature"
	FieldHumidity    Field = "humidity"
	FieldWindSpeed   Field = "windSpeed"
	FieldRainfall    Field = "rainfall"
)

// Op is the comparison a rule applies between a reading and its threshold.
type Op string

const (
	OpGreaterThan Op = "gt"
	OpLessThan    Op = "lt"
	OpAtLeast     Op = "gte"
	OpAtMost      Op = "lte"
)

// Kind separates safety-critical alerts from actionable advisories.
type Kind string

const (
	KindAlert    Kind = "alert"
	KindAdvisory Kind = "advisory"
)

// Rule is one row of the threshold table: a pure predicate over a single
// snapshot field, plus the entry it emits when it fires. Tables are
// immutable and ordered; table order is the tie-break between matches.
type Rule struct {
	ID        string          `json:"id"`
	Field     Field           `json:"field"`
	Op        Op              `json:"op"`
	Threshold float64         `json:"threshold"`
	Kind      Kind            `json:"kind"`
	Priority  models.Priority `json:"priority"`
	Category  string          `json:"category"`
	Message   string          `json:"message"`
}

// Reserved IDs for the synthetic "nothing to report" entries.
const (
	NoAlertRuleID    = "no-alert"
	NoAdvisoryRuleID = "no-advisory"
)

// Evaluate runs every rule against the snapshot in table order and returns
// the fired entries, alerts and advisories separately. If no rule of a kind
// fires, a single synthetic fallback entry is emitted for that kind, so the
// caller never receives an empty list. Pure: identical inputs always yield
// identical output, there is no clock access beyond the snapshot timestamp.
func Evaluate(snapshot models.WeatherSnapshot, table []Rule) (models.WeatherFindings, error) {
	var alerts, advisories []models.WeatherEntry

	for _, rule := range table {
		value, err := fieldValue(snapshot, rule.Field)
		if err != nil {
			return models.WeatherFindings{}, err
		}

		fired, err := compare(value, rule.Op, rule.Threshold)
		if err != nil {
			return models.WeatherFindings{}, err
		}
		if !fired {
			continue
		}

		entry := models.WeatherEntry{
			RuleID:        rule.ID,
			Category:      rule.Category,
			Priority:      rule.Priority,
			Message:       rule.Message,
			ObservedValue: value,
		}

		switch rule.Kind {
		case KindAlert:
			alerts = append(alerts, entry)
		case KindAdvisory:
			advisories = append(advisories, entry)
		default:
			return models.WeatherFindings{}, fmt.Errorf("%w: unknown rule kind %q in rule %s",
				engine.ErrInvalidInput, rule.Kind, rule.ID)
		}
	}

	if len(alerts) == 0 {
		alerts = append(alerts, models.WeatherEntry{
			RuleID:   NoAlertRuleID,
			Category: "general",
			Priority: models.PriorityLow,
			Message:  "No weather alerts for your region right now.",
		})
	}
	if len(advisories) == 0 {
		advisories = append(advisories, models.WeatherEntry{
			RuleID:   NoAdvisoryRuleID,
			Category: "general",
			Priority: models.PriorityLow,
			Message:  "No farming advisories at this time. Conditions look normal.",
		})
	}

	return models.WeatherFindings{
		Alerts:     hoistHighPriority(alerts),
		Advisories: hoistHighPriority(advisories),
	}, nil
}

// hoistHighPriority moves priority-high entries to the front while keeping
// the table-order sequence inside each tier. Entries are otherwise NOT
// re-sorted by severity; golden outputs rely on this exact two-tier order.
func hoistHighPriority(entries []models.WeatherEntry) []models.WeatherEntry {
	out := make([]models.WeatherEntry, 0, len(entries))
	for _, e := range entries {
		if e.Priority == models.PriorityHigh {
			out = append(out, e)
		}
	}
	for _, e := range entries {
		if e.Priority != models.PriorityHigh {
			out = append(out, e)
		}
	}
	return out
}

func fieldValue(snapshot models.WeatherSnapshot, field Field) (float64, error) {
	switch field {
	case FieldTemperature:
		return snapshot.Temperature, nil
	case FieldHumidity:
		return snapshot.Humidity, nil
	case FieldWindSpeed:
		return snapshot.WindSpeed, nil
	case FieldRainfall:
		return snapshot.Rainfall, nil
	default:
		return 0, fmt.Errorf("%w: unknown rule field %q", engine.ErrInvalidInput, field)
	}
}

func compare(value float64, op Op, threshold float64) (bool, error) {
	switch op {
	case OpGreaterThan:
		return value > threshold, nil
	case OpLessThan:
		return value < threshold, nil
	case OpAtLeast:
		return value >= threshold, nil
	case OpAtMost:
		return value <= threshold, nil
	default:
		return false, fmt.Errorf("%w: unknown rule op %q", engine.ErrInvalidInput, op)
	}
}
