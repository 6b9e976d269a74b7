// internal/models/farmer.go
package models

// FarmerProfile is the farmer's financial history as supplied by the profile
// store. It is read-only to the decision engine: onboarding creates it and
// settled marketplace transactions mutate it upstream.
type FarmerProfile struct {
	FarmerID           string  `json:"farmerId"`
	Region             string  `json:"region"`
	TotalRevenue       Money   `json:"totalRevenue"`
	SalesCount         int     `json:"salesCount"`
	SalesHistoryMonths int     `json:"salesHistoryMonths"`
	PaymentReliability float64 `json:"paymentReliability"` // ratio in [0,1]
	RevenueTrend       []Money `json:"revenueTrend"`       // last 12 months, chronological
}

// CreditBand is the label derived from a credit score value.
type CreditBand string

const (
	BandExcellent CreditBand = "Excellent"
	BandGood      CreditBand = "Good"
	BandFair      CreditBand = "Fair"
)

// ScoreBreakdown exposes the normalized sub-scores behind a credit score.
type ScoreBreakdown struct {
	Reliability float64 `json:"reliability"`
	History     float64 `json:"history"`
	Revenue     float64 `json:"revenue"`
}

// CreditScore is recomputed on demand from a FarmerProfile and never
// persisted by the engine.
type CreditScore struct {
	Value     int            `json:"value"` // always in [300, 850]
	Band      CreditBand     `json:"band"`
	Breakdown ScoreBreakdown `json:"breakdown"`
}
