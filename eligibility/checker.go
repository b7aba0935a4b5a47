package eligibility

import (
	"fmt"

	"github.com/liamcoop/loanassess/finance"
	"github.com/liamcoop/loanassess/income"
	"github.com/liamcoop/loanassess/internal/logger"
	"github.com/liamcoop/loanassess/lenders"
	"github.com/liamcoop/loanassess/property"
	"github.com/liamcoop/loanassess/risk"
	"github.com/liamcoop/loanassess/serviceability"
)

const (
	minCreditScore  = 500
	minAnnualIncome = 30000
	maxAnyLenderLVR = 95

	// Monthly usable income must exceed commitments by this factor.
	incomeCoverage = 1.1

	assumedIncomeConsistency = 0.85

	DefaultReferenceRate = 6.0
)

// Gate names, reported on declined results.
const (
	GateBasic          = "basic"
	GateProperty       = "property"
	GateIncome         = "income"
	GateServiceability = "serviceability"
)

// Config tunes the assessment. Zero values take the defaults.
type Config struct {
	// ReferenceRate is the annual rate, in percent, used for the income and
	// serviceability gates and the capacity estimate.
	ReferenceRate float64
	// DefaultBuffer is the serviceability buffer in percentage points.
	DefaultBuffer float64
}

// Checker runs applications through the gates and the lender match.
// It is stateless after construction and safe for concurrent use.
type Checker struct {
	income         *income.Calculator
	property       *property.Classifier
	serviceability *serviceability.Calculator
	risk           *risk.Scorer
	matcher        *lenders.Engine
	referenceRate  float64
	gates          []gate
}

// NewChecker builds a Checker over matcher's lender table.
func NewChecker(matcher *lenders.Engine, cfg Config) *Checker {
	if cfg.ReferenceRate <= 0 {
		cfg.ReferenceRate = DefaultReferenceRate
	}

	c := &Checker{
		income:         income.NewCalculator(),
		property:       property.NewClassifier(),
		serviceability: serviceability.NewCalculator(matcher.Table(), cfg.DefaultBuffer),
		risk:           risk.NewScorer(),
		matcher:        matcher,
		referenceRate:  cfg.ReferenceRate,
	}
	c.gates = []gate{
		{name: GateBasic, run: c.basicGate},
		{name: GateProperty, run: c.propertyGate},
		{name: GateIncome, run: c.incomeGate},
		{name: GateServiceability, run: c.serviceabilityGate},
	}
	return c
}

// assessment carries the stage outputs through the gates.
type assessment struct {
	app            Application
	property       property.Classification
	usableIncome   float64
	serviceability serviceability.Result
}

// gate returns the decline reasons for a, or none to let it through.
type gate struct {
	name string
	run  func(*assessment) ([]string, error)
}

// Check assesses app. Only malformed input is an error; every lending
// outcome, including a decline, is a Result.
func (c *Checker) Check(app Application) (Result, error) {
	app, err := app.Normalize()
	if err != nil {
		return Result{}, err
	}

	a := &assessment{app: app}
	for _, g := range c.gates {
		reasons, err := g.run(a)
		if err != nil {
			return Result{}, fmt.Errorf("%s gate: %w", g.name, err)
		}
		if len(reasons) > 0 {
			logger.Debug("application declined at gate", "gate", g.name, "reasons", len(reasons))
			return declineResult(g.name, reasons), nil
		}
	}

	riskAssessment := c.risk.Assess(app.riskFactors(a.serviceability.DTIRatio))
	matches := c.matcher.EvaluateAll(app.client())
	capacity := c.serviceability.MaximumBorrowingCapacity(
		a.usableIncome, app.MonthlyExpenses, app.ExistingMonthlyDebts, c.referenceRate, app.LoanTermYears, "")

	return decide(decisionInputs{
		app:            app,
		property:       a.property,
		serviceability: a.serviceability,
		risk:           riskAssessment,
		matches:        matches,
		capacity:       capacity,
	}), nil
}

func (c *Checker) basicGate(a *assessment) ([]string, error) {
	app := a.app
	var reasons []string

	if app.CreditScore < minCreditScore {
		reasons = append(reasons, fmt.Sprintf("Credit score %d below minimum %d", app.CreditScore, minCreditScore))
	}
	if app.AnnualIncome < minAnnualIncome {
		reasons = append(reasons, fmt.Sprintf("Annual income $%s below minimum $%s",
			finance.Dollars(app.AnnualIncome), finance.Dollars(minAnnualIncome)))
	}
	if app.PropertyValue > 0 {
		if lvr := app.LVR(); lvr > maxAnyLenderLVR {
			reasons = append(reasons, fmt.Sprintf("LVR %.1f%% exceeds maximum acceptable %d%%", lvr, maxAnyLenderLVR))
		}
	}
	if app.BankruptcyHistory {
		reasons = append(reasons, "Undischarged bankruptcy - no lenders will accept")
	}
	if app.RequestedLoanAmount <= 0 || app.PropertyValue <= 0 {
		reasons = append(reasons, "Invalid loan amount or property value")
	}

	return reasons, nil
}

func (c *Checker) propertyGate(a *assessment) ([]string, error) {
	a.property = c.property.Classify(a.app.propertyDetails())
	if a.property.Category != property.Unacceptable {
		return nil, nil
	}
	return append([]string{"Property type/characteristics unacceptable to lenders"}, a.property.Reasons...), nil
}

func (c *Checker) incomeGate(a *assessment) ([]string, error) {
	app := a.app

	incomeType, err := income.TypeForEmployment(app.EmploymentType)
	if err != nil {
		return nil, err
	}
	res, err := c.income.CalculateUsableIncome([]income.Source{{
		Type:             incomeType,
		GrossAmount:      app.AnnualIncome,
		Frequency:        income.Annual,
		EmploymentMonths: app.EmploymentMonths,
	}})
	if err != nil {
		return nil, err
	}
	a.usableIncome = res.TotalUsableIncome

	monthly := res.TotalUsableIncome / 12
	payment := finance.MonthlyRepayment(app.RequestedLoanAmount, c.referenceRate, app.LoanTermYears)
	required := app.MonthlyExpenses + app.ExistingMonthlyDebts + payment
	if monthly > required*incomeCoverage {
		return nil, nil
	}

	reasons := []string{fmt.Sprintf("Income insufficient: $%s/month available vs $%s/month required",
		finance.Dollars(monthly), finance.Dollars(required))}
	return append(reasons, res.Warnings...), nil
}

func (c *Checker) serviceabilityGate(a *assessment) ([]string, error) {
	app := a.app

	res, err := c.serviceability.Calculate(serviceability.Request{
		GrossAnnualIncome:   a.usableIncome,
		MonthlyExpenses:     app.MonthlyExpenses,
		ExistingMonthlyDebt: app.ExistingMonthlyDebts,
		LoanAmount:          app.RequestedLoanAmount,
		InterestRate:        c.referenceRate,
		TermYears:           app.LoanTermYears,
		Dependents:          app.Dependents,
		IsCouple:            app.IsCouple,
	})
	if err != nil {
		return nil, err
	}
	a.serviceability = res

	if res.CanService {
		return nil, nil
	}
	return append([]string{"Cannot service requested loan amount"}, res.Warnings...), nil
}
