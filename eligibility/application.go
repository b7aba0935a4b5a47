// Package eligibility runs a home-loan application through the assessment
// gates and aggregates the lender matches into a single decision.
package eligibility

import (
	"errors"
	"fmt"

	"github.com/liamcoop/loanassess/borrower"
	"github.com/liamcoop/loanassess/lenders"
	"github.com/liamcoop/loanassess/property"
	"github.com/liamcoop/loanassess/risk"
)

var ErrInvalidApplication = errors.New("invalid application")

// Decision is the overall verdict on an application.
type Decision string

const (
	Approved        Decision = "approved"
	Conditional     Decision = "conditional"
	Declined        Decision = "declined"
	ReferSpecialist Decision = "refer_specialist"
)

// Application is the complete assessment input.
type Application struct {
	AnnualIncome         float64                 `json:"annual_income"`
	EmploymentType       borrower.EmploymentType `json:"employment_type"`
	EmploymentMonths     int                     `json:"employment_months"`
	CreditScore          int                     `json:"credit_score"`
	ExistingMonthlyDebts float64                 `json:"existing_monthly_debts"`
	MonthlyExpenses      float64                 `json:"monthly_expenses"`
	Dependents           int                     `json:"dependents"`
	IsCouple             bool                    `json:"is_couple"`
	FirstHomeBuyer       bool                    `json:"first_home_buyer"`

	RequestedLoanAmount float64 `json:"requested_loan_amount"`
	PropertyValue       float64 `json:"property_value"`
	DepositAmount       float64 `json:"deposit_amount"`
	LoanTermYears       int     `json:"loan_term_years"`

	PropertyType     property.Type `json:"property_type"`
	LivingAreaSqm    int           `json:"living_area_sqm"`
	Postcode         string        `json:"postcode"`
	LandSizeHectares float64       `json:"land_size_hectares"`
	FloorsInBuilding *int          `json:"floors_in_building,omitempty"`
	UnitsInBuilding  *int          `json:"units_in_building,omitempty"`
	HeritageListed   bool          `json:"heritage_listed"`
	FloodProne       bool          `json:"flood_prone"`
	BushfireZone     bool          `json:"bushfire_zone"`

	PreviousDefaults  int                       `json:"previous_defaults"`
	BankruptcyHistory bool                      `json:"bankruptcy_history"`
	DepositSource     borrower.DepositSource    `json:"deposit_source"`
	BorrowingHistory  borrower.BorrowingHistory `json:"borrowing_history"`
	LoanPurpose       borrower.LoanPurpose      `json:"loan_purpose"`
	RepaymentType     borrower.RepaymentType    `json:"repayment_type"`
}

// Normalize validates a and returns a copy with canonical enum values and
// defaults filled in. Every error wraps ErrInvalidApplication.
func (a Application) Normalize() (Application, error) {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalidApplication, fmt.Sprintf(format, args...))
	}

	switch {
	case a.AnnualIncome < 0:
		return Application{}, invalid("annual income cannot be negative")
	case a.MonthlyExpenses < 0:
		return Application{}, invalid("monthly expenses cannot be negative")
	case a.ExistingMonthlyDebts < 0:
		return Application{}, invalid("existing monthly debts cannot be negative")
	case a.DepositAmount < 0:
		return Application{}, invalid("deposit amount cannot be negative")
	case a.PreviousDefaults < 0:
		return Application{}, invalid("previous defaults cannot be negative")
	case a.Dependents < 0:
		return Application{}, invalid("dependents cannot be negative")
	case a.EmploymentMonths < 0:
		return Application{}, invalid("employment months cannot be negative")
	case a.LoanTermYears <= 0:
		return Application{}, invalid("loan term must be positive, got %d years", a.LoanTermYears)
	}

	var err error
	if a.EmploymentType, err = borrower.ParseEmploymentType(string(a.EmploymentType)); err != nil {
		return Application{}, invalid("%v", err)
	}
	if a.PropertyType, err = property.ParseType(string(a.PropertyType)); err != nil {
		return Application{}, invalid("%v", err)
	}
	if a.DepositSource, err = borrower.ParseDepositSource(string(a.DepositSource)); err != nil {
		return Application{}, invalid("%v", err)
	}
	if a.BorrowingHistory, err = borrower.ParseBorrowingHistory(string(a.BorrowingHistory)); err != nil {
		return Application{}, invalid("%v", err)
	}
	if a.LoanPurpose, err = borrower.ParseLoanPurpose(string(a.LoanPurpose)); err != nil {
		return Application{}, invalid("%v", err)
	}
	if a.RepaymentType, err = borrower.ParseRepaymentType(string(a.RepaymentType)); err != nil {
		return Application{}, invalid("%v", err)
	}

	return a, nil
}

// LVR is the requested loan over the property value, as a percentage.
func (a Application) LVR() float64 {
	if a.PropertyValue <= 0 {
		return 0
	}
	return a.RequestedLoanAmount / a.PropertyValue * 100
}

func (a Application) propertyDetails() property.Details {
	return property.Details{
		Type:             a.PropertyType,
		LivingAreaSqm:    a.LivingAreaSqm,
		LandSizeHectares: a.LandSizeHectares,
		Value:            a.PropertyValue,
		Postcode:         a.Postcode,
		FloorsInBuilding: a.FloorsInBuilding,
		UnitsInBuilding:  a.UnitsInBuilding,
		HeritageListed:   a.HeritageListed,
		FloodProne:       a.FloodProne,
		BushfireZone:     a.BushfireZone,
	}
}

func (a Application) riskFactors(dti float64) risk.Factors {
	return risk.Factors{
		CreditScore:       a.CreditScore,
		EmploymentType:    a.EmploymentType,
		EmploymentMonths:  a.EmploymentMonths,
		IncomeConsistency: assumedIncomeConsistency,
		DebtToIncome:      dti,
		LoanToValue:       a.LVR(),
		DepositSource:     a.DepositSource,
		PreviousDefaults:  a.PreviousDefaults,
		BankruptcyHistory: a.BankruptcyHistory,
		PropertyType:      string(a.PropertyType),
		LocationRisk:      borrower.LocationMedium,
		BorrowingHistory:  a.BorrowingHistory,
	}
}

func (a Application) client() lenders.Client {
	return lenders.Client{
		CreditScore:          a.CreditScore,
		AnnualIncome:         a.AnnualIncome,
		EmploymentType:       a.EmploymentType,
		EmploymentMonths:     a.EmploymentMonths,
		ExistingMonthlyDebts: a.ExistingMonthlyDebts,
		LoanAmount:           a.RequestedLoanAmount,
		PropertyValue:        a.PropertyValue,
		DepositAmount:        a.DepositAmount,
		DepositSource:        a.DepositSource,
		FirstHomeBuyer:       a.FirstHomeBuyer,
		LoanPurpose:          a.LoanPurpose,
		RepaymentType:        a.RepaymentType,
		PropertyType:         string(a.PropertyType),
		Postcode:             a.Postcode,
		Dependents:           a.Dependents,
		TermYears:            a.LoanTermYears,
	}
}

// Result is the assessment outcome. Every list is non-nil.
type Result struct {
	Decision              Decision   `json:"decision"`
	ApprovedLenders       []string   `json:"approved_lenders"`
	DeclinedLenders       []string   `json:"declined_lenders"`
	ConditionalLenders    []string   `json:"conditional_lenders"`
	OverallConfidence     float64    `json:"overall_confidence"`
	KeyDecisionFactors    []string   `json:"key_decision_factors"`
	RequiredConditions    []string   `json:"required_conditions"`
	Recommendations       []string   `json:"recommendations"`
	RiskGrade             risk.Grade `json:"risk_grade"`
	MaxLoanAmount         float64    `json:"max_loan_amount"`
	EstimatedInterestRate float64    `json:"estimated_interest_rate"`

	// DeclinedAt names the gate that short-circuited the assessment.
	DeclinedAt string `json:"-"`
}
