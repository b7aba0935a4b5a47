package income

import (
	"errors"
	"fmt"
	"strings"

	"github.com/liamcoop/loanassess/borrower"
)

var (
	ErrInvalidFrequency  = errors.New("unsupported income frequency")
	ErrInvalidIncomeType = errors.New("unsupported income type")
)

// Type identifies the nature of an income source.
type Type string

const (
	PAYGPermanent      Type = "payg_permanent"
	PAYGCasual         Type = "payg_casual"
	PAYGContract       Type = "payg_contract"
	SelfEmployed       Type = "self_employed"
	Rental             Type = "rental_income"
	Overtime           Type = "overtime"
	Bonus              Type = "bonus"
	Commission         Type = "commission"
	Pension            Type = "pension"
	GovernmentBenefits Type = "government_benefits"
	Foreign            Type = "foreign_income"
)

// ParseType validates a declared income type.
func ParseType(s string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	switch t {
	case PAYGPermanent, PAYGCasual, PAYGContract, SelfEmployed, Rental, Overtime,
		Bonus, Commission, Pension, GovernmentBenefits, Foreign:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidIncomeType, s)
	}
}

// TypeForEmployment maps an applicant's employment arrangement to the income
// type of their primary salary.
func TypeForEmployment(e borrower.EmploymentType) (Type, error) {
	switch e {
	case borrower.Permanent:
		return PAYGPermanent, nil
	case borrower.Casual:
		return PAYGCasual, nil
	case borrower.Contract:
		return PAYGContract, nil
	case borrower.SelfEmployed:
		return SelfEmployed, nil
	default:
		return "", fmt.Errorf("%w: employment %q", ErrInvalidIncomeType, e)
	}
}

// Frequency is how often a gross amount is received.
type Frequency string

const (
	Weekly      Frequency = "weekly"
	Fortnightly Frequency = "fortnightly"
	Monthly     Frequency = "monthly"
	Annual      Frequency = "annual"
)

// ParseFrequency accepts "annually" as an alias of Annual.
func ParseFrequency(s string) (Frequency, error) {
	switch f := Frequency(strings.ToLower(strings.TrimSpace(s))); f {
	case Weekly, Fortnightly, Monthly, Annual:
		return f, nil
	case "annually", "yearly":
		return Annual, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidFrequency, s)
	}
}

// PeriodsPerYear returns how many payments of this frequency fall in a year.
func (f Frequency) PeriodsPerYear() (float64, error) {
	switch f {
	case Weekly:
		return 52, nil
	case Fortnightly:
		return 26, nil
	case Monthly:
		return 12, nil
	case Annual:
		return 1, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidFrequency, f)
	}
}

// Source is a single declared income stream.
type Source struct {
	Type             Type      `json:"income_type"`
	GrossAmount      float64   `json:"gross_amount"`
	Frequency        Frequency `json:"frequency"`
	EmploymentMonths int       `json:"employment_months"`
	EssentialWorker  bool      `json:"is_essential_worker"`
	Currency         string    `json:"currency,omitempty"`
}

// Result is the usable-income assessment over every declared source.
type Result struct {
	TotalUsableIncome        float64            `json:"total_usable_income"`
	Breakdown                map[string]float64 `json:"breakdown"`
	Warnings                 []string           `json:"warnings"`
	EmploymentStabilityScore float64            `json:"employment_stability_score"`
}

// NDI is the net-disposable-income breakdown for one proposed repayment.
type NDI struct {
	GrossIncome         float64 `json:"gross_income"`
	EstimatedTax        float64 `json:"estimated_tax"`
	NetIncome           float64 `json:"net_income"`
	TotalExpenses       float64 `json:"total_expenses"`
	NetDisposableIncome float64 `json:"net_disposable_income"`
	NDIRatio            float64 `json:"ndi_ratio"`
	Assessment          string  `json:"assessment"`
}
