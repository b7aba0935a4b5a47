// Package serviceability answers whether a borrower can afford a proposed
// loan once buffers, living-expense benchmarks and existing debts are taken
// into account.
package serviceability

import (
	"fmt"

	"github.com/liamcoop/loanassess/finance"
)

const (
	DefaultBuffer = 2.5
	defaultMaxLVR = 95.0

	minNDIRatio        = 0.10
	capacityRetention  = 0.90
	assumedDebtYield   = 0.05
	lmiThresholdLVR    = 80.0
	minDepositPercent  = 5.0
	highDTI            = 6.0
	elevatedDTI        = 5.0
	lowBufferRatio     = 0.2
	moderateRiskRatio  = 0.5
	maxDependentsTable = 3
)

// Monthly household expenditure benchmarks indexed by dependents (0..3+).
var (
	hemSingle = [maxDependentsTable + 1]float64{2500, 3200, 3800, 4400}
	hemCouple = [maxDependentsTable + 1]float64{3500, 4200, 4800, 5400}
)

// Calculator runs serviceability, LVR and borrowing-capacity calculations.
type Calculator struct {
	policy        LenderPolicy
	defaultBuffer float64
}

// NewCalculator builds a Calculator. policy may be nil, in which case every
// lender is assessed at defaultBuffer.
func NewCalculator(policy LenderPolicy, defaultBuffer float64) *Calculator {
	if defaultBuffer <= 0 {
		defaultBuffer = DefaultBuffer
	}
	return &Calculator{policy: policy, defaultBuffer: defaultBuffer}
}

// Buffer returns the serviceability buffer applied for lender.
func (c *Calculator) Buffer(lender string) float64 {
	if c.policy != nil && lender != "" {
		if b, ok := c.policy.ServiceabilityBuffer(lender); ok {
			return b
		}
	}
	return c.defaultBuffer
}

func (c *Calculator) maxLVR(lender string) float64 {
	if c.policy != nil && lender != "" {
		if v, ok := c.policy.MaxLVR(lender); ok {
			return v
		}
	}
	return defaultMaxLVR
}

// HEMBenchmark is the minimum monthly living expense assumed for a household.
func HEMBenchmark(isCouple bool, dependents int) float64 {
	idx := min(max(dependents, 0), maxDependentsTable)
	if isCouple {
		return hemCouple[idx]
	}
	return hemSingle[idx]
}

// Calculate reports whether req's loan can be serviced at the buffered rate.
func (c *Calculator) Calculate(req Request) (Result, error) {
	if req.TermYears <= 0 {
		return Result{}, fmt.Errorf("%w: %d", ErrInvalidTerm, req.TermYears)
	}

	buffer := c.Buffer(req.Lender)
	payment := finance.MonthlyRepayment(req.LoanAmount, req.InterestRate+buffer, req.TermYears)
	netMonthly := finance.NetMonthlyIncome(req.GrossAnnualIncome)

	warnings := []string{}
	recommendations := []string{}

	expenses := req.MonthlyExpenses
	if hem := HEMBenchmark(req.IsCouple, req.Dependents); expenses < hem {
		warnings = append(warnings,
			fmt.Sprintf("Declared expenses $%s below HEM benchmark $%s", finance.Dollars(expenses), finance.Dollars(hem)))
		expenses = hem
	}

	ndi := netMonthly - (expenses + req.ExistingMonthlyDebt + payment)
	ndiRatio := 0.0
	if payment > 0 {
		ndiRatio = ndi / payment
	}

	dti := DebtToIncome(req.LoanAmount, req.ExistingMonthlyDebt, req.GrossAnnualIncome)
	canService := ndi >= 0 && ndiRatio >= minNDIRatio

	switch {
	case ndi < 0:
		warnings = append(warnings, "Negative Net Disposable Income - cannot service loan")
	case ndiRatio < lowBufferRatio:
		warnings = append(warnings, "Low serviceability buffer - may be declined by lenders")
	case ndiRatio < moderateRiskRatio:
		warnings = append(warnings, "Moderate serviceability risk")
	}

	switch {
	case dti > highDTI:
		warnings = append(warnings, fmt.Sprintf("High DTI ratio %.1fx - may exceed lender limits", dti))
	case dti > elevatedDTI:
		warnings = append(warnings, fmt.Sprintf("Elevated DTI ratio %.1fx - some lender restrictions may apply", dti))
	}

	if !canService {
		recommendations = append(recommendations,
			"Consider reducing loan amount or extending loan term",
			"Review and reduce monthly expenses where possible",
			"Consider paying down existing debts before applying",
		)
	}
	if dti > highDTI {
		recommendations = append(recommendations, "Consider reducing loan amount to improve DTI ratio")
	}

	return Result{
		CanService:      canService,
		MonthlyCapacity: ndi,
		MonthlyPayment:  payment,
		NDIRatio:        ndiRatio,
		DTIRatio:        dti,
		BufferUsed:      buffer,
		Warnings:        warnings,
		Recommendations: recommendations,
	}, nil
}

// DebtToIncome estimates total debt over gross annual income. Existing
// monthly repayments are capitalized at a 5% yield to approximate their
// outstanding balance.
func DebtToIncome(loanAmount, monthlyDebts, grossAnnual float64) float64 {
	if grossAnnual <= 0 {
		return 0
	}
	return (loanAmount + monthlyDebts*12/assumedDebtYield) / grossAnnual
}

// LVRAndLMI works out the loan-to-value ratio and the mortgage insurance it
// attracts.
func (c *Calculator) LVRAndLMI(loanAmount, propertyValue float64, lender string) (LVRResult, error) {
	if propertyValue <= 0 {
		return LVRResult{}, fmt.Errorf("%w: %.2f", ErrInvalidPropertyValue, propertyValue)
	}

	lvr := loanAmount / propertyValue * 100
	deposit := propertyValue - loanAmount
	depositPct := deposit / propertyValue * 100
	warnings := []string{}

	lmiRequired := lvr > lmiThresholdLVR
	premium := 0.0
	if lmiRequired {
		if lvr > 95 {
			warnings = append(warnings, "LVR exceeds 95% - may not be acceptable to most lenders")
		}
		premium = finance.PercentOf(loanAmount, lmiRate(lvr))
	}

	switch {
	case lvr > 95:
		warnings = append(warnings, "LVR exceeds 95% - very limited lender options")
	case lvr > 90:
		warnings = append(warnings, "LVR exceeds 90% - may require genuine savings verification")
	case lvr > 80:
		warnings = append(warnings, "LVR exceeds 80% - Lenders Mortgage Insurance required")
	}

	if depositPct < minDepositPercent {
		warnings = append(warnings, "Deposit less than 5% - genuine savings may be required")
	}

	return LVRResult{
		LVR:             lvr,
		DepositRequired: deposit,
		LMIRequired:     lmiRequired,
		LMIPremium:      premium,
		MaxLoanAmount:   finance.RoundCents(propertyValue * c.maxLVR(lender) / 100),
		Warnings:        warnings,
	}, nil
}

// lmiRate is the premium as a percentage of the loan for an LVR above 80.
// Anything above 95 is priced at the top band.
func lmiRate(lvr float64) float64 {
	switch {
	case lvr <= 85:
		return 0.89
	case lvr <= 90:
		return 1.86
	default:
		return 3.94
	}
}

// MaximumBorrowingCapacity is the largest loan whose buffered repayment uses
// at most 90% of the income left after declared expenses and debts.
func (c *Calculator) MaximumBorrowingCapacity(grossAnnual, monthlyExpenses, monthlyDebts, rate float64, termYears int, lender string) float64 {
	available := (finance.NetMonthlyIncome(grossAnnual) - monthlyExpenses - monthlyDebts) * capacityRetention
	if available <= 0 || termYears <= 0 {
		return 0
	}
	return finance.RoundCents(finance.PrincipalForRepayment(available, rate+c.Buffer(lender), termYears))
}
