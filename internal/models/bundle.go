// internal/models/bundle.go
package models

// RecommendationBundle is the orchestrator's single output: everything the
// presentation layer needs for one farmer in one response. It is ephemeral,
// recomputed per request and never mutated in place.
//
// Offers arrive pre-approved first, then eligible, then ineligible, each
// group sorted by ascending interest rate. Alerts and advisories carry
// high-priority entries first, stable otherwise.
type RecommendationBundle struct {
	FarmerID    string         `json:"farmerId"`
	CreditScore CreditScore    `json:"creditScore"`
	Offers      []LoanOffer    `json:"loanOffers"`
	Alerts      []WeatherEntry `json:"alerts"`
	Advisories  []WeatherEntry `json:"advisories"`
}
