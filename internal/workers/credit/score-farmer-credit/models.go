// internal/workers/credit/score-farmer-credit/models.go
package scorefarmercredit

import "agrimarket-workers/internal/models"

type Input struct {
	FarmerID string `json:"farmerId"`
}

// Output is the computed score plus the normalized components behind it,
// so downstream gateway conditions can branch on band or value.
type Output struct {
	FarmerID  string                `json:"farmerId"`
	Score     int                   `json:"creditScore"`
	Band      models.CreditBand     `json:"creditBand"`
	Breakdown models.ScoreBreakdown `json:"scoreBreakdown"`
}
