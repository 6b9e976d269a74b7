// internal/engine/creditscore/creditscore_test.go
package creditscore

import (
	"testing"

	"agrimarket-workers/internal/engine"
	"agrimarket-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func profileWith(reliability float64, months int, revenueUnits int64) models.FarmerProfile {
	return models.FarmerProfile{
		FarmerID:           "farmer-123",
		Region:             "oromia",
		TotalRevenue:       models.FromUnits(revenueUnits),
		SalesCount:         40,
		SalesHistoryMonths: months,
		PaymentReliability: reliability,
	}
}

func TestCompute_ReferenceScenario(t *testing.T) {
	// reliability 0.85, 12 months history, 125,000 revenue against the
	// 150,000 scale: raw = 0.5*0.85 + 0.2*0.5 + 0.3*0.8333 = 0.775,
	// score = 300 + round(0.775*550) = 726, band Good.
	score, err := Compute(profileWith(0.85, 12, 125000), DefaultPolicy())
	require.NoError(t, err)

	assert.Equal(t, 726, score.Value)
	assert.Equal(t, models.BandGood, score.Band)
	assert.InDelta(t, 0.85, score.Breakdown.Reliability, 1e-9)
	assert.InDelta(t, 0.5, score.Breakdown.History, 1e-9)
	assert.InDelta(t, 125000.0/150000.0, score.Breakdown.Revenue, 1e-9)
}

func TestCompute_Bands(t *testing.T) {
	tests := []struct {
		name     string
		profile  models.FarmerProfile
		wantBand models.CreditBand
	}{
		{
			name:     "perfect profile is excellent",
			profile:  profileWith(1.0, 24, 200000),
			wantBand: models.BandExcellent,
		},
		{
			name:     "empty history is fair",
			profile:  profileWith(0.0, 0, 0),
			wantBand: models.BandFair,
		},
		{
			name:     "middling profile is good",
			profile:  profileWith(0.85, 12, 125000),
			wantBand: models.BandGood,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, err := Compute(tt.profile, DefaultPolicy())
			require.NoError(t, err)
			assert.Equal(t, tt.wantBand, score.Band)
		})
	}
}

func TestCompute_ClampedToRange(t *testing.T) {
	low, err := Compute(profileWith(0, 0, 0), DefaultPolicy())
	require.NoError(t, err)
	assert.Equal(t, ScoreFloor, low.Value)

	high, err := Compute(profileWith(1.0, 48, 1000000), DefaultPolicy())
	require.NoError(t, err)
	assert.Equal(t, ScoreCeiling, high.Value)
}

func TestCompute_ZeroHistoryMonthsIsNotAnError(t *testing.T) {
	score, err := Compute(profileWith(0.9, 0, 50000), DefaultPolicy())
	require.NoError(t, err)
	assert.Equal(t, 0.0, score.Breakdown.History)
}

func TestCompute_MonotonicInEachComponent(t *testing.T) {
	policy := DefaultPolicy()

	base, err := Compute(profileWith(0.5, 10, 60000), policy)
	require.NoError(t, err)

	moreReliable, err := Compute(profileWith(0.8, 10, 60000), policy)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, moreReliable.Value, base.Value)

	moreHistory, err := Compute(profileWith(0.5, 20, 60000), policy)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, moreHistory.Value, base.Value)

	moreRevenue, err := Compute(profileWith(0.5, 10, 120000), policy)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, moreRevenue.Value, base.Value)
}

func TestCompute_SaturationCaps(t *testing.T) {
	policy := DefaultPolicy()

	capped, err := Compute(profileWith(0.5, 24, 150000), policy)
	require.NoError(t, err)

	beyond, err := Compute(profileWith(0.5, 60, 700000), policy)
	require.NoError(t, err)

	assert.Equal(t, capped.Value, beyond.Value,
		"history and revenue components must saturate at their caps")
}

func TestCompute_InvalidProfile(t *testing.T) {
	tests := []struct {
		name    string
		profile models.FarmerProfile
	}{
		{name: "reliability above one", profile: profileWith(1.2, 12, 50000)},
		{name: "negative reliability", profile: profileWith(-0.1, 12, 50000)},
		{name: "negative revenue", profile: profileWith(0.5, 12, -1)},
		{name: "negative history", profile: profileWith(0.5, -3, 50000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compute(tt.profile, DefaultPolicy())
			require.Error(t, err)
			assert.ErrorIs(t, err, engine.ErrInvalidInput)
		})
	}
}
