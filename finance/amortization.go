// Package finance holds the repayment and tax arithmetic shared by every
// calculator in the assessment pipeline.
package finance

import (
	"math"

	"github.com/shopspring/decimal"
)

// MonthlyRepayment returns the level principal-and-interest repayment for a
// loan of principal at annualRatePct (percent, e.g. 6.5) over termYears.
// A zero rate splits the principal evenly across the term.
func MonthlyRepayment(principal, annualRatePct float64, termYears int) float64 {
	if principal <= 0 || termYears <= 0 {
		return 0
	}

	months := float64(termYears * 12)
	if annualRatePct == 0 {
		return principal / months
	}

	r := annualRatePct / 100 / 12
	growth := math.Pow(1+r, months)
	return principal * r * growth / (growth - 1)
}

// PrincipalForRepayment inverts MonthlyRepayment: the largest principal whose
// repayment at annualRatePct over termYears equals payment.
func PrincipalForRepayment(payment, annualRatePct float64, termYears int) float64 {
	if payment <= 0 || termYears <= 0 {
		return 0
	}

	months := float64(termYears * 12)
	if annualRatePct == 0 {
		return payment * months
	}

	r := annualRatePct / 100 / 12
	growth := math.Pow(1+r, months)
	return payment * (growth - 1) / (r * growth)
}

// RoundCents rounds a currency amount half away from zero to two places.
func RoundCents(amount float64) float64 {
	rounded, _ := decimal.NewFromFloat(amount).Round(2).Float64()
	return rounded
}

// PercentOf returns pct percent of amount, rounded to cents.
func PercentOf(amount, pct float64) float64 {
	v, _ := decimal.NewFromFloat(amount).
		Mul(decimal.NewFromFloat(pct)).
		Div(decimal.NewFromInt(100)).
		Round(2).
		Float64()
	return v
}
