package rules

import (
	"fmt"

	"github.com/google/cel-go/cel"
	"github.com/google/uuid"
)

// costLimit bounds a single evaluation so a pathological expression cannot
// stall a request.
const costLimit = 1000000

// Engine holds the compiled policy rules. It is built once from a RuleStore
// and is read-only afterwards, so it is safe for concurrent use without locks.
type Engine struct {
	env      *cel.Env
	rules    []*Rule
	byLender map[string][]*Rule
	programs map[string]cel.Program // ruleID -> compiled program
}

// NewEnv creates the CEL environment policy expressions are compiled in.
// Facts are map-based, so the top-level objects are declared dynamic.
func NewEnv() (*cel.Env, error) {
	env, err := cel.NewEnv(
		cel.Variable(VarClient, cel.DynType),
		cel.Variable(VarLoan, cel.DynType),
		cel.Variable(VarProperty, cel.DynType),
		cel.CrossTypeNumericComparisons(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	return env, nil
}

// NewEngine compiles every active rule in store.
func NewEngine(store RuleStore) (*Engine, error) {
	env, err := NewEnv()
	if err != nil {
		return nil, err
	}
	return NewEngineWithEnv(env, store)
}

// NewEngineWithEnv compiles every active rule in store against env.
func NewEngineWithEnv(env *cel.Env, store RuleStore) (*Engine, error) {
	active, err := store.ListActive()
	if err != nil {
		return nil, fmt.Errorf("failed to list active rules: %w", err)
	}
	SortRules(active)

	en := &Engine{
		env:      env,
		rules:    active,
		byLender: make(map[string][]*Rule),
		programs: make(map[string]cel.Program, len(active)),
	}

	for _, rule := range active {
		prog, err := en.compile(rule.Expression)
		if err != nil {
			return nil, fmt.Errorf("failed to compile rule %s: %w", rule.ID, err)
		}
		en.programs[rule.ID] = prog
		en.byLender[rule.LenderID] = append(en.byLender[rule.LenderID], rule)
	}

	return en, nil
}

func (en *Engine) compile(expression string) (cel.Program, error) {
	ast, issues := en.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %w", issues.Err())
	}

	prog, err := en.env.Program(ast, cel.CostLimit(costLimit))
	if err != nil {
		return nil, fmt.Errorf("program creation error: %w", err)
	}

	return prog, nil
}

// Validate reports whether expression compiles in the engine's environment.
func (en *Engine) Validate(expression string) error {
	_, err := en.compile(expression)
	return err
}

// ValidateExpression compiles expression in a fresh policy environment.
func ValidateExpression(expression string) error {
	env, err := NewEnv()
	if err != nil {
		return err
	}
	en := &Engine{env: env}
	return en.Validate(expression)
}

// Rules returns the active rules in evaluation order.
func (en *Engine) Rules() []*Rule {
	return append([]*Rule(nil), en.rules...)
}

// eval runs one compiled rule. Non-boolean results count as not matched.
func (en *Engine) eval(rule *Rule, facts map[string]any) *EvaluationResult {
	res := &EvaluationResult{RuleID: rule.ID, RuleName: rule.Name, LenderID: rule.LenderID}

	prog, exists := en.programs[rule.ID]
	if !exists {
		res.Error = fmt.Errorf("rule %s is not compiled", rule.ID)
		return res
	}

	out, _, err := prog.Eval(facts)
	if err != nil {
		res.Error = err
		return res
	}

	if boolVal, ok := out.Value().(bool); ok {
		res.Matched = boolVal
	}
	return res
}

// EvaluateLender runs lenderID's rules and folds the matches into an Outcome.
// A nil Engine has no rules.
func (en *Engine) EvaluateLender(lenderID string, facts map[string]any) Outcome {
	out := Outcome{Reasons: []string{}}
	if en == nil {
		return out
	}

	for _, rule := range en.byLender[lenderID] {
		res := en.eval(rule, facts)
		out.Results = append(out.Results, res)
		if !res.Matched {
			continue
		}

		out.ScoreDelta += rule.ScoreDelta
		out.RateDelta += rule.RateDelta
		if rule.Reason != "" {
			out.Reasons = append(out.Reasons, rule.Reason)
		}
		if rule.Decline {
			out.Declined = true
		}
	}

	return out
}

// PolicyID derives a stable rule ID from the owning lender and rule name so
// reseeding the same criteria updates rules in place.
func PolicyID(lenderID, name string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(lenderID+"/"+name)).String()
}
