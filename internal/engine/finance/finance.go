// internal/engine/finance/finance.go

// Package finance is the numeric kernel behind loan offers: EMI computation
// and amortization schedules on minor-unit integer money.
package finance

import (
	"fmt"
	"math"

	"agrimarket-workers/internal/engine"
	"agrimarket-workers/internal/models"
)

// Rounding policy: round half up, fixed so golden values are reproducible
// across platforms. Not banker's rounding.
func roundHalfUp(x float64) models.Money {
	return models.Money(math.Floor(x + 0.5))
}

// monthlyRate converts an annual percentage rate to a monthly fraction.
func monthlyRate(annualRatePercent float64) float64 {
	return annualRatePercent / 100 / 12
}

func validate(principal models.Money, annualRatePercent float64, termMonths int) error {
	if principal <= 0 {
		return fmt.Errorf("%w: principal must be positive, got %d", engine.ErrInvalidInput, principal)
	}
	if annualRatePercent < 0 {
		return fmt.Errorf("%w: annual rate must not be negative, got %g", engine.ErrInvalidInput, annualRatePercent)
	}
	if termMonths <= 0 {
		return fmt.Errorf("%w: term must be at least one month, got %d", engine.ErrInvalidInput, termMonths)
	}
	return nil
}

// ComputeEMI returns the equal monthly installment for the given principal,
// annual rate (percent) and term. A zero rate falls back to straight-line
// division, which keeps the compound formula free of division by zero.
func ComputeEMI(principal models.Money, annualRatePercent float64, termMonths int) (models.Money, error) {
	if err := validate(principal, annualRatePercent, termMonths); err != nil {
		return 0, err
	}

	r := monthlyRate(annualRatePercent)
	if r == 0 {
		return roundHalfUp(float64(principal) / float64(termMonths)), nil
	}

	factor := math.Pow(1+r, float64(termMonths))
	emi := float64(principal) * r * factor / (factor - 1)
	return roundHalfUp(emi), nil
}

// BuildAmortizationSchedule walks the full term period by period. Each
// period accrues interest on the remaining balance; the rest of the EMI
// retires principal. The final period absorbs all rounding residue so that
// the summed principal components equal the financed principal exactly.
func BuildAmortizationSchedule(principal models.Money, annualRatePercent float64, termMonths int) (models.AmortizationSchedule, error) {
	emi, err := ComputeEMI(principal, annualRatePercent, termMonths)
	if err != nil {
		return models.AmortizationSchedule{}, err
	}

	r := monthlyRate(annualRatePercent)
	schedule := models.AmortizationSchedule{
		Principal:         principal,
		AnnualRatePercent: annualRatePercent,
		TermMonths:        termMonths,
		EMI:               emi,
		Installments:      make([]models.Installment, 0, termMonths),
	}

	balance := principal
	for period := 1; period <= termMonths; period++ {
		interest := roundHalfUp(float64(balance) * r)
		principalComponent := emi - interest
		payment := emi

		if period == termMonths {
			// Residue correction: close the balance exactly.
			principalComponent = balance
			payment = principalComponent + interest
		}

		balance -= principalComponent
		schedule.Installments = append(schedule.Installments, models.Installment{
			Period:           period,
			Payment:          payment,
			Principal:        principalComponent,
			Interest:         interest,
			RemainingBalance: balance,
		})
	}

	return schedule, nil
}
