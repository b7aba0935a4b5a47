package finance

import "github.com/shopspring/decimal"

// taxBracket applies rate to every dollar above threshold, on top of base.
type taxBracket struct {
	threshold decimal.Decimal
	base      decimal.Decimal
	rate      decimal.Decimal
}

// Resident marginal rates, highest bracket first. Each base equals the tax
// owed at its threshold so the schedule is continuous.
var taxBrackets = []taxBracket{
	{threshold: decimal.NewFromInt(180000), base: decimal.NewFromInt(51667), rate: decimal.RequireFromString("0.45")},
	{threshold: decimal.NewFromInt(120000), base: decimal.NewFromInt(29467), rate: decimal.RequireFromString("0.37")},
	{threshold: decimal.NewFromInt(45000), base: decimal.NewFromInt(5092), rate: decimal.RequireFromString("0.325")},
	{threshold: decimal.NewFromInt(18200), base: decimal.Zero, rate: decimal.RequireFromString("0.19")},
}

// IncomeTax estimates annual income tax on gross annual income.
func IncomeTax(grossAnnual float64) float64 {
	gross := decimal.NewFromFloat(grossAnnual)
	for _, b := range taxBrackets {
		if gross.GreaterThan(b.threshold) {
			tax, _ := b.base.Add(gross.Sub(b.threshold).Mul(b.rate)).Float64()
			return tax
		}
	}
	return 0
}

// NetAnnualIncome is gross annual income less IncomeTax.
func NetAnnualIncome(grossAnnual float64) float64 {
	return grossAnnual - IncomeTax(grossAnnual)
}

// NetMonthlyIncome is NetAnnualIncome spread over twelve months.
func NetMonthlyIncome(grossAnnual float64) float64 {
	return NetAnnualIncome(grossAnnual) / 12
}
