package main

import (
	"github.com/liamcoop/loanassess/income"
	"github.com/liamcoop/loanassess/lenders"
	"github.com/liamcoop/loanassess/property"
	"github.com/liamcoop/loanassess/serviceability"
)

// API Request and Response Models with Swagger annotations

// HealthResponse represents the health check response
type HealthResponse struct {
	Status        string `json:"status" example:"healthy"`
	LendersLoaded int    `json:"lenders_loaded" example:"3"`
	Database      string `json:"database,omitempty" example:"ok"`
} // @name HealthResponse

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error" example:"invalid application"`
	Details string `json:"details,omitempty" example:"loan term must be positive, got 0 years"`
} // @name ErrorResponse

// LenderSummary describes one lender's headline criteria
type LenderSummary struct {
	ID                   string             `json:"id" example:"great_southern_bank"`
	Name                 string             `json:"name" example:"Great Southern Bank"`
	ServiceabilityBuffer float64            `json:"serviceability_buffer" example:"3.0"`
	MaxLVR               float64            `json:"max_lvr" example:"95"`
	Rates                map[string]float64 `json:"rates"`
	Policies             []string           `json:"policies"`
} // @name LenderSummary

// LendersResponse represents the response for listing lenders
type LendersResponse struct {
	Lenders []LenderSummary `json:"lenders"`
} // @name LendersResponse

// IncomeSourceRequest is one declared income stream
type IncomeSourceRequest struct {
	IncomeType       string  `json:"income_type" example:"payg_permanent" binding:"required"`
	GrossAmount      float64 `json:"gross_amount" example:"95000" binding:"required"`
	Frequency        string  `json:"frequency" example:"annual" binding:"required"`
	EmploymentMonths int     `json:"employment_months" example:"36"`
	EssentialWorker  bool    `json:"is_essential_worker" example:"false"`
	Currency         string  `json:"currency,omitempty" example:"GBP"`
} // @name IncomeSourceRequest

// IncomeRequest represents the request body for the usable income calculation
type IncomeRequest struct {
	Sources []IncomeSourceRequest `json:"income_sources" binding:"required"`
} // @name IncomeRequest

// IncomeResponse represents the usable income with its documentation checklist
type IncomeResponse struct {
	income.Result
	RequiredDocumentation map[income.Type][]string `json:"required_documentation"`
} // @name IncomeResponse

// PropertyResponse represents a property classification with each lender's view
type PropertyResponse struct {
	property.Classification
	LenderViews []property.LenderView `json:"lender_views"`
} // @name PropertyResponse

// LVRRequest represents the request body for the LVR and LMI calculation
type LVRRequest struct {
	LoanAmount    float64 `json:"loan_amount" example:"520000" binding:"required"`
	PropertyValue float64 `json:"property_value" example:"650000" binding:"required"`
	Lender        string  `json:"lender,omitempty" example:"suncorp_bank"`
} // @name LVRRequest

// ServiceabilityRequest represents the request body for the serviceability
// calculation. An omitted interest_rate uses the reference rate.
type ServiceabilityRequest struct {
	serviceability.Request
	InterestRate *float64 `json:"interest_rate,omitempty" example:"6.0"`
} // @name ServiceabilityRequest

// BorrowingCapacityRequest represents the request body for the maximum borrowing calculation
type BorrowingCapacityRequest struct {
	GrossAnnualIncome    float64 `json:"gross_annual_income" example:"150000" binding:"required"`
	MonthlyExpenses      float64 `json:"monthly_expenses" example:"3200"`
	ExistingMonthlyDebts float64 `json:"existing_monthly_debts" example:"500"`
	InterestRate         *float64 `json:"interest_rate,omitempty" example:"6.0"`
	TermYears            int      `json:"loan_term_years" example:"30"`
	Lender               string  `json:"lender,omitempty" example:"great_southern_bank"`
} // @name BorrowingCapacityRequest

// BorrowingCapacityResponse represents the maximum borrowing capacity
type BorrowingCapacityResponse struct {
	MaxLoanAmount float64 `json:"max_loan_amount" example:"634333.39"`
	InterestRate  float64 `json:"interest_rate" example:"6.0"`
	BufferUsed    float64 `json:"buffer_used" example:"2.5"`
} // @name BorrowingCapacityResponse

// MatchResponse represents the lenders a client qualifies with
type MatchResponse struct {
	Matches []lenders.Match `json:"matches"`
} // @name MatchResponse
