package rules

import (
	"errors"
	"time"
)

var ErrRuleExists = errors.New("rule already exists")

// Names of the top-level CEL variables a policy expression can reference.
const (
	VarClient   = "Client"
	VarLoan     = "Loan"
	VarProperty = "Property"
)

// Rule is a lender policy overlay. When Expression evaluates to true the
// deltas and reason are applied to that lender's match.
type Rule struct {
	ID         string    `json:"id" yaml:"id,omitempty"`
	LenderID   string    `json:"lender_id" yaml:"-"`
	Name       string    `json:"name" yaml:"name"`
	Expression string    `json:"expression" yaml:"expression"`
	ScoreDelta float64   `json:"score_delta" yaml:"score_delta"`
	RateDelta  float64   `json:"rate_delta" yaml:"rate_delta"`
	Reason     string    `json:"reason" yaml:"reason"`
	Decline    bool      `json:"decline" yaml:"decline"`
	Active     bool      `json:"active" yaml:"active"`
	CreatedAt  time.Time `json:"created_at" yaml:"-"`
	UpdatedAt  time.Time `json:"updated_at" yaml:"-"`
}

// EvaluationResult contains the outcome of evaluating a rule
type EvaluationResult struct {
	RuleID   string
	RuleName string
	LenderID string
	Matched  bool
	Error    error
}

// Outcome folds every policy result for one lender into the adjustments the
// matching engine applies.
type Outcome struct {
	ScoreDelta float64
	RateDelta  float64
	Reasons    []string
	Declined   bool
	Results    []*EvaluationResult
}

// Failed returns the results whose expression could not be evaluated.
func (o Outcome) Failed() []*EvaluationResult {
	var failed []*EvaluationResult
	for _, r := range o.Results {
		if r.Error != nil {
			failed = append(failed, r)
		}
	}
	return failed
}
