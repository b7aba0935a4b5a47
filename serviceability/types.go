package serviceability

import "errors"

var (
	ErrInvalidPropertyValue = errors.New("property value must be positive")
	ErrInvalidTerm          = errors.New("loan term must be positive")
)

// LenderPolicy supplies the lender-specific inputs to affordability checks.
// The lender-criteria table satisfies it.
type LenderPolicy interface {
	ServiceabilityBuffer(lenderID string) (float64, bool)
	MaxLVR(lenderID string) (float64, bool)
}

// Request is one affordability question.
type Request struct {
	GrossAnnualIncome   float64 `json:"gross_annual_income"`
	MonthlyExpenses     float64 `json:"monthly_expenses"`
	ExistingMonthlyDebt float64 `json:"existing_monthly_debts"`
	LoanAmount          float64 `json:"loan_amount"`
	InterestRate        float64 `json:"interest_rate"`
	TermYears           int     `json:"loan_term_years"`
	Lender              string  `json:"lender,omitempty"`
	Dependents          int     `json:"dependents"`
	IsCouple            bool    `json:"is_couple"`
}

// Result is the affordability verdict. MonthlyCapacity is the monthly net
// disposable income left after every commitment, and may be negative.
type Result struct {
	CanService      bool     `json:"can_service"`
	MonthlyCapacity float64  `json:"monthly_capacity"`
	MonthlyPayment  float64  `json:"monthly_payment"`
	NDIRatio        float64  `json:"ndi_ratio"`
	DTIRatio        float64  `json:"dti_ratio"`
	BufferUsed      float64  `json:"buffer_used"`
	Warnings        []string `json:"warnings"`
	Recommendations []string `json:"recommendations"`
}

// LVRResult is the loan-to-value and mortgage-insurance exposure of a loan.
type LVRResult struct {
	LVR             float64  `json:"lvr"`
	DepositRequired float64  `json:"deposit_required"`
	LMIRequired     bool     `json:"lmi_required"`
	LMIPremium      float64  `json:"lmi_premium"`
	MaxLoanAmount   float64  `json:"max_loan_amount"`
	Warnings        []string `json:"warnings"`
}
