// internal/engine/eligibility/eligibility.go

// Package eligibility matches a farmer's financial profile against the loan
// catalog and ranks the resulting offers.
package eligibility

import (
	"fmt"
	"sort"

	"agrimarket-workers/internal/engine"
	"agrimarket-workers/internal/engine/finance"
	"agrimarket-workers/internal/models"
)

// PreapprovalMargin is the score headroom above a product's minimum that
// earns the conservative "pre-approved" badge, distinct from bare
// eligibility.
const PreapprovalMargin = 50

// Options carries the optional requested loan terms. Zero values mean the
// caller did not ask for a schedule.
type Options struct {
	RequestedPrincipal  models.Money
	RequestedTermMonths int
}

func (o Options) scheduleRequested() bool {
	return o.RequestedPrincipal > 0 && o.RequestedTermMonths > 0
}

// Ordering partitions, strongest first.
const (
	rankPreApproved = 0
	rankEligible    = 1
	rankIneligible  = 2
)

// MatchOffers evaluates every catalog product against the profile and score.
// The result is partitioned pre-approved / eligible / ineligible, each
// partition sorted by ascending interest rate, ties broken by catalog order.
// The ordering is deterministic for any permutation of the input catalog.
func MatchOffers(profile models.FarmerProfile, score models.CreditScore, catalog []models.LoanProduct, opts Options) ([]models.LoanOffer, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	offers := make([]models.LoanOffer, 0, len(catalog))

	for _, product := range catalog {
		eligible := score.Value >= product.MinCreditScore &&
			profile.TotalRevenue >= product.MinRevenue &&
			profile.SalesHistoryMonths >= product.MinSalesHistoryMonths

		offer := models.LoanOffer{
			Product:     product,
			Eligible:    eligible,
			PreApproved: eligible && score.Value >= product.MinCreditScore+PreapprovalMargin,
		}

		if opts.scheduleRequested() {
			principal, clamped := clampPrincipal(opts.RequestedPrincipal, product)
			schedule, err := finance.BuildAmortizationSchedule(principal, product.AnnualRatePercent, opts.RequestedTermMonths)
			if err != nil {
				return nil, fmt.Errorf("schedule for product %s: %w", product.ProductID, err)
			}
			// An out-of-range request is answered, not rejected: the
			// schedule is built against the clamped principal and the
			// clamping is surfaced on the offer.
			offer.Schedule = &schedule
			offer.Clamped = clamped
		}

		offers = append(offers, offer)
	}

	sort.SliceStable(offers, func(i, j int) bool {
		ri, rj := rank(offers[i]), rank(offers[j])
		if ri != rj {
			return ri < rj
		}
		return offers[i].Product.AnnualRatePercent < offers[j].Product.AnnualRatePercent
	})

	return offers, nil
}

// Validate rejects a malformed requested-terms pair up front, before any
// catalog work. A half-supplied request is a caller contract violation.
func (o Options) Validate() error {
	if o.RequestedPrincipal < 0 {
		return fmt.Errorf("%w: requested principal must not be negative", engine.ErrInvalidInput)
	}
	if o.RequestedTermMonths < 0 {
		return fmt.Errorf("%w: requested term must not be negative", engine.ErrInvalidInput)
	}
	if (o.RequestedPrincipal > 0) != (o.RequestedTermMonths > 0) {
		return fmt.Errorf("%w: requested principal and term must be supplied together", engine.ErrInvalidInput)
	}
	return nil
}

func rank(offer models.LoanOffer) int {
	switch {
	case offer.PreApproved:
		return rankPreApproved
	case offer.Eligible:
		return rankEligible
	default:
		return rankIneligible
	}
}

func clampPrincipal(requested models.Money, product models.LoanProduct) (models.Money, bool) {
	if requested < product.MinPrincipal {
		return product.MinPrincipal, true
	}
	if requested > product.MaxPrincipal {
		return product.MaxPrincipal, true
	}
	return requested, false
}
