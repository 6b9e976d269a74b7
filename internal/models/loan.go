// internal/models/loan.go
package models

// LoanProduct is an immutable catalog entry, externally managed. Catalog
// order is meaningful: it is the stable tie-break for offer ordering.
type LoanProduct struct {
	ProductID             string  `json:"productId"`
	Issuer                string  `json:"issuer"`
	MinPrincipal          Money   `json:"minPrincipal"`
	MaxPrincipal          Money   `json:"maxPrincipal"`
	AnnualRatePercent     float64 `json:"annualRatePercent"`
	TermMonths            int     `json:"termMonths"`
	MinCreditScore        int     `json:"minCreditScore"`
	MinRevenue            Money   `json:"minRevenue"`
	MinSalesHistoryMonths int     `json:"minSalesHistoryMonths"`
}

// Installment is one period of an amortization schedule.
type Installment struct {
	Period           int   `json:"period"` // 1-based
	Payment          Money `json:"payment"`
	Principal        Money `json:"principal"`
	Interest         Money `json:"interest"`
	RemainingBalance Money `json:"remainingBalance"`
}

// AmortizationSchedule is the full repayment plan for a principal/term pair.
// Invariant: the principal components sum to the financed principal exactly;
// rounding residue is absorbed into the final installment.
type AmortizationSchedule struct {
	Principal         Money         `json:"principal"`
	AnnualRatePercent float64       `json:"annualRatePercent"`
	TermMonths        int           `json:"termMonths"`
	EMI               Money         `json:"emi"`
	Installments      []Installment `json:"installments"`
}

// LoanOffer pairs a catalog product with a farmer's qualification outcome.
type LoanOffer struct {
	Product     LoanProduct           `json:"product"`
	Eligible    bool                  `json:"eligible"`
	PreApproved bool                  `json:"preApproved"`
	Clamped     bool                  `json:"clamped,omitempty"`
	Schedule    *AmortizationSchedule `json:"schedule,omitempty"`
}
