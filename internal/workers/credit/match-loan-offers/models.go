// internal/workers/credit/match-loan-offers/models.go
package matchloanoffers

import "agrimarket-workers/internal/models"

// Input carries the upstream score plus the optional requested loan terms.
// Principal is in minor units, matching the catalog.
type Input struct {
	FarmerID                string            `json:"farmerId"`
	Score                   int               `json:"creditScore"`
	Band                    models.CreditBand `json:"creditBand"`
	RequestedPrincipalMinor int64             `json:"requestedPrincipalMinor,omitempty"`
	RequestedTermMonths     int               `json:"requestedTermMonths,omitempty"`
}

type Output struct {
	FarmerID         string             `json:"farmerId"`
	Offers           []models.LoanOffer `json:"loanOffers"`
	EligibleCount    int                `json:"eligibleCount"`
	PreApprovedCount int                `json:"preApprovedCount"`
}
