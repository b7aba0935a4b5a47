// Package income turns declared income sources into the annual usable income
// lenders will assess.
package income

import (
	"fmt"
	"slices"

	"github.com/liamcoop/loanassess/finance"
)

const (
	startingStability        = 100.0
	skippedSourcePenalty     = 15.0
	youngBusinessPenalty     = 10.0
	casualEmploymentPenalty  = 5.0
	establishedBusinessMonth = 36
)

var acceptedCurrencies = []string{"USD", "GBP", "EUR", "NZD", "SGD", "CAD", "HKD", "JPY"}

// Calculator applies lending-policy shading to declared income.
type Calculator struct{}

// NewCalculator returns a Calculator.
func NewCalculator() *Calculator {
	return &Calculator{}
}

// multiplier is the share of annualized gross income a lender will count.
func multiplier(s Source) (float64, error) {
	switch s.Type {
	case PAYGPermanent, PAYGCasual, PAYGContract, SelfEmployed, Pension, GovernmentBenefits:
		return 1.00, nil
	case Rental:
		return 0.75, nil
	case Bonus, Commission:
		return 0.80, nil
	case Foreign:
		return 0.70, nil
	case Overtime:
		if s.EssentialWorker {
			return 1.00, nil
		}
		return 0.80, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidIncomeType, s.Type)
	}
}

// MinimumTenureMonths is how long a source must have been received before it
// counts toward usable income.
func MinimumTenureMonths(t Type) int {
	switch t {
	case PAYGPermanent:
		return 3
	case PAYGCasual, PAYGContract, Overtime, Commission:
		return 6
	case SelfEmployed, Bonus:
		return 24
	default:
		return 0
	}
}

// CalculateUsableIncome annualizes each source, drops those that fail tenure
// or currency policy, and shades the rest by type. An unknown frequency or
// income type is the only error.
func (c *Calculator) CalculateUsableIncome(sources []Source) (Result, error) {
	result := Result{
		Breakdown: make(map[string]float64),
		Warnings:  []string{},
	}
	stability := startingStability

	for _, src := range sources {
		periods, err := src.Frequency.PeriodsPerYear()
		if err != nil {
			return Result{}, fmt.Errorf("income source %s: %w", src.Type, err)
		}
		mult, err := multiplier(src)
		if err != nil {
			return Result{}, err
		}
		annual := src.GrossAmount * periods

		if minMonths := MinimumTenureMonths(src.Type); src.EmploymentMonths < minMonths {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("%s: %d months below minimum %d months", src.Type, src.EmploymentMonths, minMonths))
			stability -= skippedSourcePenalty
			continue
		}

		if src.Type == Foreign {
			if !slices.Contains(acceptedCurrencies, src.Currency) {
				result.Warnings = append(result.Warnings,
					fmt.Sprintf("Foreign currency %s may not be acceptable", src.Currency))
				continue
			}
			result.Warnings = append(result.Warnings, "Foreign income converted at 70% to account for currency risk")
		}

		switch src.Type {
		case SelfEmployed:
			if src.EmploymentMonths < establishedBusinessMonth {
				stability -= youngBusinessPenalty
				result.Warnings = append(result.Warnings,
					"Self-employed less than 3 years - may require additional documentation")
			}
		case PAYGCasual:
			stability -= casualEmploymentPenalty
			result.Warnings = append(result.Warnings, "Casual employment may be viewed as less stable by lenders")
		}

		usable := annual * mult
		result.TotalUsableIncome += usable
		result.Breakdown[fmt.Sprintf("%s_%s", src.Type, src.Frequency)] += usable
	}

	result.EmploymentStabilityScore = max(0, stability)
	return result, nil
}

// NetDisposableIncome is what remains of gross annual income after estimated
// tax, annual expenses, existing debt servicing and the proposed repayment.
func (c *Calculator) NetDisposableIncome(gross, expenses, debts, proposedRepayment float64) NDI {
	tax := finance.IncomeTax(gross)
	net := gross - tax
	total := expenses + debts + proposedRepayment
	ndi := net - total

	ratio := 0.0
	if proposedRepayment > 0 {
		ratio = ndi / proposedRepayment
	}

	assessment := "Negative"
	if ndi > 0 {
		assessment = "Positive"
	}

	return NDI{
		GrossIncome:         gross,
		EstimatedTax:        tax,
		NetIncome:           net,
		TotalExpenses:       total,
		NetDisposableIncome: ndi,
		NDIRatio:            ratio,
		Assessment:          assessment,
	}
}
