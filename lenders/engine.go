package lenders

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/liamcoop/loanassess/borrower"
	"github.com/liamcoop/loanassess/finance"
	"github.com/liamcoop/loanassess/internal/logger"
	"github.com/liamcoop/loanassess/rules"
)

var ErrInvalidClient = errors.New("invalid client profile")

// minMatchScore is the score a match must exceed to be offered.
const minMatchScore = 50

// Client is the borrower and loan profile matched against each lender.
type Client struct {
	CreditScore          int                     `json:"credit_score"`
	AnnualIncome         float64                 `json:"annual_income"`
	EmploymentType       borrower.EmploymentType `json:"employment_type"`
	EmploymentMonths     int                     `json:"employment_months"`
	ExistingMonthlyDebts float64                 `json:"existing_monthly_debts"`
	LoanAmount           float64                 `json:"loan_amount"`
	PropertyValue        float64                 `json:"property_value"`
	DepositAmount        float64                 `json:"deposit_amount"`
	DepositSource        borrower.DepositSource  `json:"deposit_source"`
	FirstHomeBuyer       bool                    `json:"first_home_buyer"`
	LoanPurpose          borrower.LoanPurpose    `json:"loan_purpose"`
	RepaymentType        borrower.RepaymentType  `json:"repayment_type"`
	PropertyType         string                  `json:"property_type"`
	Postcode             string                  `json:"postcode"`
	Dependents           int                     `json:"dependents"`
	TermYears            int                     `json:"loan_term_years"`
}

// Normalize rejects profiles the engine cannot score and returns a copy with
// every enum in canonical form. Empty optional enums take their defaults.
func (c Client) Normalize() (Client, error) {
	switch {
	case c.LoanAmount <= 0:
		return Client{}, fmt.Errorf("%w: loan amount must be positive", ErrInvalidClient)
	case c.PropertyValue <= 0:
		return Client{}, fmt.Errorf("%w: property value must be positive", ErrInvalidClient)
	case c.AnnualIncome <= 0:
		return Client{}, fmt.Errorf("%w: annual income must be positive", ErrInvalidClient)
	case c.ExistingMonthlyDebts < 0, c.DepositAmount < 0:
		return Client{}, fmt.Errorf("%w: debts and deposit cannot be negative", ErrInvalidClient)
	case c.EmploymentMonths < 0:
		return Client{}, fmt.Errorf("%w: employment months cannot be negative", ErrInvalidClient)
	}

	var err error
	if c.EmploymentType, err = borrower.ParseEmploymentType(string(c.EmploymentType)); err != nil {
		return Client{}, fmt.Errorf("%w: %v", ErrInvalidClient, err)
	}
	if c.DepositSource, err = borrower.ParseDepositSource(string(c.DepositSource)); err != nil {
		return Client{}, fmt.Errorf("%w: %v", ErrInvalidClient, err)
	}
	if c.LoanPurpose, err = borrower.ParseLoanPurpose(string(c.LoanPurpose)); err != nil {
		return Client{}, fmt.Errorf("%w: %v", ErrInvalidClient, err)
	}
	if c.RepaymentType, err = borrower.ParseRepaymentType(string(c.RepaymentType)); err != nil {
		return Client{}, fmt.Errorf("%w: %v", ErrInvalidClient, err)
	}
	return c, nil
}

// LVR is the loan-to-value ratio as a percentage.
func (c Client) LVR() float64 {
	if c.PropertyValue <= 0 {
		return 0
	}
	return c.LoanAmount / c.PropertyValue * 100
}

// DTI is total debt over gross income: the loan plus a year of existing
// repayments.
func (c Client) DTI() float64 {
	if c.AnnualIncome <= 0 {
		return 0
	}
	return (c.LoanAmount + c.ExistingMonthlyDebts*12) / c.AnnualIncome
}

// DepositPercent is the deposit as a share of the property value.
func (c Client) DepositPercent() float64 {
	if c.PropertyValue <= 0 {
		return 0
	}
	return c.DepositAmount / c.PropertyValue * 100
}

// facts exposes the client to policy expressions.
func (c Client) facts() map[string]any {
	return map[string]any{
		rules.VarClient: map[string]any{
			"CreditScore":          c.CreditScore,
			"AnnualIncome":         c.AnnualIncome,
			"EmploymentType":       string(c.EmploymentType),
			"EmploymentMonths":     c.EmploymentMonths,
			"FirstHomeBuyer":       c.FirstHomeBuyer,
			"Dependents":           c.Dependents,
			"DepositSource":        string(c.DepositSource),
			"ExistingMonthlyDebts": c.ExistingMonthlyDebts,
		},
		rules.VarLoan: map[string]any{
			"Amount":        c.LoanAmount,
			"LVR":           c.LVR(),
			"DTI":           c.DTI(),
			"Purpose":       string(c.LoanPurpose),
			"RepaymentType": string(c.RepaymentType),
			"TermYears":     c.TermYears,
			"Deposit":       c.DepositAmount,
		},
		rules.VarProperty: map[string]any{
			"Value":    c.PropertyValue,
			"Type":     c.PropertyType,
			"Postcode": c.Postcode,
		},
	}
}

// Match is one lender's verdict on a client.
type Match struct {
	LenderID     string   `json:"lender_id"`
	LenderName   string   `json:"lender_name"`
	Eligible     bool     `json:"eligible"`
	Score        float64  `json:"match_score"`
	Reasons      []string `json:"reasons"`
	Warnings     []string `json:"warnings"`
	InterestRate float64  `json:"interest_rate"`
}

func (m *Match) pass(format string, args ...any) {
	m.Reasons = append(m.Reasons, fmt.Sprintf(format, args...))
}

func (m *Match) fail(penalty float64, format string, args ...any) {
	m.Eligible = false
	m.Score -= penalty
	m.Warnings = append(m.Warnings, fmt.Sprintf(format, args...))
}

// Engine scores clients against every lender in a table.
// It holds no mutable state and is safe for concurrent use.
type Engine struct {
	table    *Table
	policies *rules.Engine
}

// NewEngine creates a matching engine. policies may be nil when the table
// carries no policy rules.
func NewEngine(table *Table, policies *rules.Engine) *Engine {
	return &Engine{table: table, policies: policies}
}

func (e *Engine) Table() *Table {
	return e.table
}

// EvaluateAll matches c against every lender, best score first.
func (e *Engine) EvaluateAll(c Client) []Match {
	matches := make([]Match, 0, e.table.Len())
	for _, crit := range e.table.lenders {
		matches = append(matches, e.evaluate(crit, c))
	}

	slices.SortStableFunc(matches, func(a, b Match) int {
		return cmp.Or(cmp.Compare(b.Score, a.Score), cmp.Compare(a.LenderName, b.LenderName))
	})
	return matches
}

// MatchAll returns the eligible matches scoring above the offer threshold.
func (e *Engine) MatchAll(c Client) []Match {
	out := []Match{}
	for _, m := range e.EvaluateAll(c) {
		if m.Eligible && m.Score > minMatchScore {
			out = append(out, m)
		}
	}
	return out
}

func (e *Engine) evaluate(crit Criteria, c Client) Match {
	m := Match{
		LenderID:   crit.ID,
		LenderName: crit.Name,
		Eligible:   true,
		Score:      100,
		Reasons:    []string{},
		Warnings:   []string{},
	}
	pen := crit.Penalties.withDefaults()
	lvr := c.LVR()

	if la := crit.LoanAmount; la != nil {
		switch {
		case c.LoanAmount < la.Min:
			m.fail(pen.LoanAmount, "Loan amount $%s below minimum $%s", finance.Dollars(c.LoanAmount), finance.Dollars(la.Min))
		case c.LoanAmount > la.Max:
			m.fail(pen.LoanAmount, "Loan amount $%s exceeds maximum $%s", finance.Dollars(c.LoanAmount), finance.Dollars(la.Max))
		default:
			m.pass("Loan amount within acceptable range")
		}
	}

	if len(crit.LVRLimits) > 0 {
		lim, ok := crit.LVRLimits[string(c.LoanPurpose)]
		switch {
		case !ok:
			m.fail(pen.LVR, "Loan purpose %s not offered", c.LoanPurpose)
		case lvr <= lim.WithoutLMI:
			m.pass("LVR %.1f%% within standard limits", lvr)
		case lvr <= lim.WithLMI:
			m.pass("LVR %.1f%% acceptable with LMI", lvr)
		default:
			m.fail(pen.LVR, "LVR %.1f%% exceeds maximum %g%%", lvr, lim.WithLMI)
		}
	}

	if band, ok := crit.bandFor(c.LoanAmount); ok {
		if lvr <= band.MaxLVR {
			m.pass("LVR %.1f%% within %g%% limit for loan size", lvr, band.MaxLVR)
		} else {
			m.fail(pen.LoanSize, "LVR %.1f%% exceeds %g%% limit for loan amount $%s", lvr, band.MaxLVR, finance.Dollars(c.LoanAmount))
		}
	}

	if limit, ok := crit.DTILimits[dtiKey(c.LoanPurpose, lvr)]; ok {
		dti := c.DTI()
		if dti <= limit {
			m.pass("DTI %.1f within limit of %g", dti, limit)
		} else {
			m.fail(pen.DTI, "DTI %.1f exceeds maximum %g", dti, limit)
		}
	}

	if minimum, ok := crit.MinIncome[string(c.EmploymentType.Category())]; ok {
		if c.AnnualIncome >= minimum {
			m.pass("Income $%s meets minimum $%s", finance.Dollars(c.AnnualIncome), finance.Dollars(minimum))
		} else {
			m.fail(pen.Income, "Income $%s below minimum $%s", finance.Dollars(c.AnnualIncome), finance.Dollars(minimum))
		}
	}

	if required, ok := crit.MinTenureMonths[string(c.EmploymentType)]; ok {
		if c.EmploymentMonths >= required {
			m.pass("Employment history %d months sufficient", c.EmploymentMonths)
		} else {
			penalty := pen.Tenure
			if p, ok := crit.TenurePenalties[string(c.EmploymentType)]; ok && p > 0 {
				penalty = p
			}
			m.fail(penalty, "Employment history %d months below required %d", c.EmploymentMonths, required)
		}
	}

	if gs := crit.GenuineSavings; gs != nil && lvr > gs.AboveLVR {
		deposit := c.DepositPercent()
		if deposit >= gs.MinPercent {
			m.pass("Genuine savings %.1f%% meets %g%% requirement", deposit, gs.MinPercent)
		} else {
			m.fail(pen.GenuineSavings, "Genuine savings %.1f%% below %g%% requirement for LVR >%g%%", deposit, gs.MinPercent, gs.AboveLVR)
		}
	}

	outcome := e.policies.EvaluateLender(crit.ID, c.facts())
	for _, r := range outcome.Failed() {
		logger.Warn("lender policy evaluation failed", "lender_id", crit.ID, "policy", r.RuleName, "error", r.Error)
		m.Warnings = append(m.Warnings, fmt.Sprintf("Policy %s could not be evaluated", r.RuleName))
	}
	m.Score += outcome.ScoreDelta
	m.Reasons = append(m.Reasons, outcome.Reasons...)
	if outcome.Declined {
		m.Eligible = false
	}

	m.Score = min(max(m.Score, 0), 100)

	if rate, ok := crit.Rate(c.LoanPurpose, c.RepaymentType); ok {
		m.InterestRate = finance.RoundCents(rate + outcome.RateDelta)
	} else {
		m.Warnings = append(m.Warnings, fmt.Sprintf("No advertised rate for %s lending", c.LoanPurpose))
	}

	return m
}
