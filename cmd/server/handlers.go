package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/liamcoop/loanassess/borrower"
	"github.com/liamcoop/loanassess/eligibility"
	"github.com/liamcoop/loanassess/income"
	"github.com/liamcoop/loanassess/internal/logger"
	"github.com/liamcoop/loanassess/internal/metrics"
	"github.com/liamcoop/loanassess/lenders"
	"github.com/liamcoop/loanassess/property"
	"github.com/liamcoop/loanassess/risk"
	"github.com/liamcoop/loanassess/serviceability"
)

// Health check handler
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "healthy", LendersLoaded: s.table.Len()}

	if s.db != nil {
		if err := s.db.PingContext(r.Context()); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unhealthy",
				"error":  err.Error(),
			})
			return
		}
		resp.Database = "ok"
	}

	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListLenders(w http.ResponseWriter, r *http.Request) {
	summaries := []LenderSummary{}
	for _, c := range s.table.Lenders() {
		maxLVR, _ := c.MaxLVR()
		policies := []string{}
		for _, p := range c.Policies {
			if p.Active {
				policies = append(policies, p.Name)
			}
		}
		summaries = append(summaries, LenderSummary{
			ID:                   c.ID,
			Name:                 c.Name,
			ServiceabilityBuffer: s.serviceability.Buffer(c.ID),
			MaxLVR:               maxLVR,
			Rates:                c.Rates,
			Policies:             policies,
		})
	}

	respondJSON(w, http.StatusOK, LendersResponse{Lenders: summaries})
}

// Eligibility handler runs the full pipeline
func (s *Server) handleEligibility(w http.ResponseWriter, r *http.Request) {
	defer observe("eligibility", time.Now())

	var app eligibility.Application
	if !decodeJSON(w, r, &app) {
		return
	}

	result, err := s.checker.Check(app)
	if err != nil {
		respondError(w, statusFor(err), "assessment failed", err)
		return
	}

	metrics.RecordDecision(string(result.Decision), result.DeclinedAt,
		result.ApprovedLenders, result.ConditionalLenders, result.DeclinedLenders)
	logger.Info("assessment completed",
		"assessment_id", w.Header().Get(AssessmentIDHeader),
		"decision", result.Decision,
		"risk_grade", result.RiskGrade,
		"declined_at", result.DeclinedAt,
	)

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleIncome(w http.ResponseWriter, r *http.Request) {
	defer observe("income", time.Now())

	var req IncomeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Sources) == 0 {
		respondError(w, http.StatusBadRequest, "income_sources are required", nil)
		return
	}

	sources := make([]income.Source, 0, len(req.Sources))
	for _, src := range req.Sources {
		incomeType, err := income.ParseType(src.IncomeType)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid income source", err)
			return
		}
		frequency, err := income.ParseFrequency(src.Frequency)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid income source", err)
			return
		}
		sources = append(sources, income.Source{
			Type:             incomeType,
			GrossAmount:      src.GrossAmount,
			Frequency:        frequency,
			EmploymentMonths: src.EmploymentMonths,
			EssentialWorker:  src.EssentialWorker,
			Currency:         src.Currency,
		})
	}

	result, err := s.income.CalculateUsableIncome(sources)
	if err != nil {
		respondError(w, statusFor(err), "income calculation failed", err)
		return
	}

	respondJSON(w, http.StatusOK, IncomeResponse{
		Result:                result,
		RequiredDocumentation: income.RequiredDocumentation(sources),
	})
}

func (s *Server) handleClassifyProperty(w http.ResponseWriter, r *http.Request) {
	defer observe("property", time.Now())

	var details property.Details
	if !decodeJSON(w, r, &details) {
		return
	}

	var err error
	if details.Type, err = property.ParseType(string(details.Type)); err != nil {
		respondError(w, http.StatusBadRequest, "invalid property", err)
		return
	}

	views := []property.LenderView{}
	for _, c := range s.table.Lenders() {
		views = append(views, s.property.LenderClassification(details, c.Name))
	}

	respondJSON(w, http.StatusOK, PropertyResponse{
		Classification: s.property.Classify(details),
		LenderViews:    views,
	})
}

func (s *Server) handleServiceability(w http.ResponseWriter, r *http.Request) {
	defer observe("serviceability", time.Now())

	var req ServiceabilityRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !s.knownLender(w, req.Lender) {
		return
	}
	rate, err := s.interestRate(req.InterestRate)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid request", err)
		return
	}
	req.Request.InterestRate = rate

	result, err := s.serviceability.Calculate(req.Request)
	if err != nil {
		respondError(w, statusFor(err), "serviceability calculation failed", err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleLVR(w http.ResponseWriter, r *http.Request) {
	defer observe("lvr", time.Now())

	var req LVRRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !s.knownLender(w, req.Lender) {
		return
	}

	result, err := s.serviceability.LVRAndLMI(req.LoanAmount, req.PropertyValue, req.Lender)
	if err != nil {
		respondError(w, statusFor(err), "lvr calculation failed", err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleBorrowingCapacity(w http.ResponseWriter, r *http.Request) {
	defer observe("borrowing_capacity", time.Now())

	var req BorrowingCapacityRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !s.knownLender(w, req.Lender) {
		return
	}
	if req.TermYears <= 0 {
		respondError(w, http.StatusBadRequest, "invalid request", serviceability.ErrInvalidTerm)
		return
	}
	rate, err := s.interestRate(req.InterestRate)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid request", err)
		return
	}

	respondJSON(w, http.StatusOK, BorrowingCapacityResponse{
		MaxLoanAmount: s.serviceability.MaximumBorrowingCapacity(req.GrossAnnualIncome, req.MonthlyExpenses,
			req.ExistingMonthlyDebts, rate, req.TermYears, req.Lender),
		InterestRate: rate,
		BufferUsed:   s.serviceability.Buffer(req.Lender),
	})
}

func (s *Server) handleRisk(w http.ResponseWriter, r *http.Request) {
	defer observe("risk", time.Now())

	var factors risk.Factors
	if !decodeJSON(w, r, &factors) {
		return
	}

	if err := normalizeFactors(&factors); err != nil {
		respondError(w, http.StatusBadRequest, "invalid risk factors", err)
		return
	}

	respondJSON(w, http.StatusOK, s.risk.Assess(factors))
}

func (s *Server) handleMatchLenders(w http.ResponseWriter, r *http.Request) {
	defer observe("lender_match", time.Now())

	var client lenders.Client
	if !decodeJSON(w, r, &client) {
		return
	}

	client, err := client.Normalize()
	if err != nil {
		respondError(w, statusFor(err), "invalid client profile", err)
		return
	}

	respondJSON(w, http.StatusOK, MatchResponse{Matches: s.matcher.MatchAll(client)})
}

func normalizeFactors(f *risk.Factors) error {
	var err error
	if f.EmploymentType, err = borrower.ParseEmploymentType(string(f.EmploymentType)); err != nil {
		return err
	}
	if f.DepositSource, err = borrower.ParseDepositSource(string(f.DepositSource)); err != nil {
		return err
	}
	if f.BorrowingHistory, err = borrower.ParseBorrowingHistory(string(f.BorrowingHistory)); err != nil {
		return err
	}
	if f.LocationRisk, err = borrower.ParseLocationRisk(string(f.LocationRisk)); err != nil {
		return err
	}
	return nil
}

var errNegativeRate = errors.New("interest_rate must not be negative")

// interestRate returns the requested annual rate, or the reference rate when
// the field was omitted. An explicit 0 is a valid nominal rate.
func (s *Server) interestRate(requested *float64) (float64, error) {
	if requested == nil {
		return s.referenceRate, nil
	}
	if *requested < 0 {
		return 0, errNegativeRate
	}
	return *requested, nil
}

// knownLender rejects a lender ID that is not in the table. An empty ID
// selects the default policy.
func (s *Server) knownLender(w http.ResponseWriter, id string) bool {
	if id == "" {
		return true
	}
	if _, ok := s.table.Get(id); !ok {
		respondError(w, http.StatusNotFound, "lender not found", nil)
		return false
	}
	return true
}

// statusFor maps hard input errors to 400 and anything else to 500.
func statusFor(err error) int {
	for _, target := range []error{
		eligibility.ErrInvalidApplication,
		lenders.ErrInvalidClient,
		serviceability.ErrInvalidTerm,
		serviceability.ErrInvalidPropertyValue,
		income.ErrInvalidFrequency,
		income.ErrInvalidIncomeType,
		property.ErrUnknownPropertyType,
	} {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}
	return http.StatusInternalServerError
}

func observe(endpoint string, start time.Time) {
	metrics.AssessmentDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}

// Helper functions
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return false
	}
	return true
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string, err error) {
	response := ErrorResponse{Error: message}
	if err != nil {
		response.Details = err.Error()
	}

	if status >= http.StatusInternalServerError {
		logger.ErrorHttp5xx()
		logger.Error(message, "error", err, "assessment_id", w.Header().Get(AssessmentIDHeader))
	} else {
		logger.WarnHttp4xx(status)
	}
	respondJSON(w, status, response)
}
