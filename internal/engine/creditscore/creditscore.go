// internal/engine/creditscore/creditscore.go

// Package creditscore turns a farmer's transaction history into a single
// creditworthiness score with a band label.
package creditscore

import (
	"fmt"
	"math"

	"agrimarket-workers/internal/engine"
	"agrimarket-workers/internal/models"
)

// Score bounds and band thresholds. Named so they are independently testable.
const (
	ScoreFloor   = 300
	ScoreCeiling = 850

	BandExcellentMin = 750
	BandGoodMin      = 650
)

// Policy holds the weighting constants behind the score. The defaults are
// platform policy, not a derived business rule; deployments may override
// them through configuration.
type Policy struct {
	ReliabilityWeight float64
	HistoryWeight     float64
	RevenueWeight     float64

	// RevenueScale is the revenue at which the revenue component saturates,
	// chosen as the loan catalog's top bracket.
	RevenueScale models.Money

	// HistoryCapMonths is the sales history length at which the history
	// component saturates.
	HistoryCapMonths int
}

// DefaultPolicy returns the stock weighting: reliability 50%, history 20%,
// revenue 30%, saturating at 150,000 units of revenue and 24 months.
func DefaultPolicy() Policy {
	return Policy{
		ReliabilityWeight: 0.5,
		HistoryWeight:     0.2,
		RevenueWeight:     0.3,
		RevenueScale:      models.FromUnits(150000),
		HistoryCapMonths:  24,
	}
}

// Compute derives a credit score from a farmer profile. Deterministic: the
// same profile and policy always produce the same score.
func Compute(profile models.FarmerProfile, policy Policy) (models.CreditScore, error) {
	if err := validateProfile(profile); err != nil {
		return models.CreditScore{}, err
	}

	reliability := profile.PaymentReliability

	history := float64(profile.SalesHistoryMonths) / float64(policy.HistoryCapMonths)
	if history > 1 {
		history = 1
	}

	revenue := float64(profile.TotalRevenue) / float64(policy.RevenueScale)
	if revenue > 1 {
		revenue = 1
	}

	raw := policy.ReliabilityWeight*reliability +
		policy.HistoryWeight*history +
		policy.RevenueWeight*revenue

	value := ScoreFloor + int(math.Floor(raw*float64(ScoreCeiling-ScoreFloor)+0.5))
	if value < ScoreFloor {
		value = ScoreFloor
	}
	if value > ScoreCeiling {
		value = ScoreCeiling
	}

	return models.CreditScore{
		Value: value,
		Band:  bandFor(value),
		Breakdown: models.ScoreBreakdown{
			Reliability: reliability,
			History:     history,
			Revenue:     revenue,
		},
	}, nil
}

func bandFor(value int) models.CreditBand {
	switch {
	case value >= BandExcellentMin:
		return models.BandExcellent
	case value >= BandGoodMin:
		return models.BandGood
	default:
		return models.BandFair
	}
}

func validateProfile(profile models.FarmerProfile) error {
	if profile.PaymentReliability < 0 || profile.PaymentReliability > 1 {
		return fmt.Errorf("%w: payment reliability must be in [0,1], got %g",
			engine.ErrInvalidInput, profile.PaymentReliability)
	}
	if profile.TotalRevenue < 0 {
		return fmt.Errorf("%w: total revenue must not be negative, got %d",
			engine.ErrInvalidInput, profile.TotalRevenue)
	}
	if profile.SalesHistoryMonths < 0 {
		return fmt.Errorf("%w: sales history months must not be negative, got %d",
			engine.ErrInvalidInput, profile.SalesHistoryMonths)
	}
	if profile.SalesCount < 0 {
		return fmt.Errorf("%w: sales count must not be negative, got %d",
			engine.ErrInvalidInput, profile.SalesCount)
	}
	return nil
}
