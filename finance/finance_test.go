package finance

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMonthlyRepayment(t *testing.T) {
	tests := []struct {
		name      string
		principal float64
		rate      float64
		years     int
		want      float64
	}{
		{"standard 30 year", 500000, 6.0, 30, 2997.75},
		{"buffered rate", 520000, 8.5, 30, 3998.35},
		{"zero rate splits evenly", 120000, 0, 10, 1000},
		{"zero term", 500000, 6.0, 0, 0},
		{"zero principal", 0, 6.0, 30, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MonthlyRepayment(tt.principal, tt.rate, tt.years)
			assert.InDelta(t, tt.want, got, 0.01)
		})
	}
}

func TestPrincipalForRepaymentInvertsMonthlyRepayment(t *testing.T) {
	for _, rate := range []float64{0, 3.5, 6.0, 8.5} {
		payment := MonthlyRepayment(650000, rate, 25)
		assert.InDelta(t, 650000, PrincipalForRepayment(payment, rate, 25), 0.01, "rate %v", rate)
	}

	assert.Zero(t, PrincipalForRepayment(-10, 6, 30))
	assert.Zero(t, PrincipalForRepayment(1000, 6, 0))
}

func TestIncomeTaxBrackets(t *testing.T) {
	tests := []struct {
		gross float64
		want  float64
	}{
		{0, 0},
		{18200, 0},
		{30000, 2242},
		{45000, 5092},
		{95000, 21342},
		{120000, 29467},
		{150000, 40567},
		{180000, 51667},
		{200000, 60667},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.want, IncomeTax(tt.gross), 0.001, "gross %v", tt.gross)
	}
}

func TestIncomeTaxContinuousAtBoundaries(t *testing.T) {
	for _, boundary := range []float64{18200, 45000, 120000, 180000} {
		below := IncomeTax(boundary - 0.01)
		at := IncomeTax(boundary)
		above := IncomeTax(boundary + 0.01)

		assert.InDelta(t, at, below, 0.01, "jump below %v", boundary)
		assert.InDelta(t, at, above, 0.01, "jump above %v", boundary)
		assert.LessOrEqual(t, below, above)
	}
}

func TestNetIncome(t *testing.T) {
	assert.InDelta(t, 109433, NetAnnualIncome(150000), 0.001)
	assert.InDelta(t, 109433.0/12, NetMonthlyIncome(150000), 0.001)
}

func TestRounding(t *testing.T) {
	assert.Equal(t, 1234.57, RoundCents(1234.5678))
	assert.Equal(t, 4628.0, PercentOf(520000, 0.89))
	assert.Equal(t, 10042.14, PercentOf(539900, 1.86))
}

func TestDollars(t *testing.T) {
	assert.Equal(t, "0", Dollars(0))
	assert.Equal(t, "999", Dollars(999))
	assert.Equal(t, "3,200", Dollars(3200))
	assert.Equal(t, "30,000", Dollars(30000))
	assert.Equal(t, "1,234,567", Dollars(1234567.4))
	assert.Equal(t, "-2,500", Dollars(-2500))
	assert.Equal(t, "1,000", Dollars(999.5))
	assert.Equal(t, "-1,560", Dollars(-1559.73))
}
