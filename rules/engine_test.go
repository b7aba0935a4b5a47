package rules

import (
	"sync"
	"testing"
)

func policyFacts(credit int, firstHome bool, lvr float64) map[string]any {
	return map[string]any{
		VarClient: map[string]any{
			"CreditScore":    credit,
			"FirstHomeBuyer": firstHome,
			"AnnualIncome":   95000.0,
		},
		VarLoan: map[string]any{
			"Amount": 520000.0,
			"LVR":    lvr,
		},
		VarProperty: map[string]any{
			"Value": 650000.0,
			"Type":  "house",
		},
	}
}

func newTestEngine(t *testing.T, rules ...*Rule) *Engine {
	t.Helper()

	store := NewInMemoryRuleStore()
	for _, r := range rules {
		if err := store.Add(r); err != nil {
			t.Fatalf("Add(%s) failed: %v", r.ID, err)
		}
	}

	engine, err := NewEngine(store)
	if err != nil {
		t.Fatalf("NewEngine() failed: %v", err)
	}
	return engine
}

func TestNewEngine(t *testing.T) {
	engine := newTestEngine(t)
	if engine == nil {
		t.Fatal("NewEngine() should return non-nil engine")
	}
	if len(engine.Rules()) != 0 {
		t.Errorf("empty store should give no rules, got %d", len(engine.Rules()))
	}
}

func TestNewEngineCompilesActiveRulesOnly(t *testing.T) {
	engine := newTestEngine(t,
		&Rule{ID: "r1", LenderID: "suncorp_bank", Name: "fhb", Expression: `Client.FirstHomeBuyer`, Active: true},
		&Rule{ID: "r2", LenderID: "latrobe_financial", Name: "impaired", Expression: `Client.CreditScore < 650`, Active: true},
		&Rule{ID: "r3", LenderID: "latrobe_financial", Name: "off", Expression: `false`, Active: false},
	)

	got := engine.Rules()
	if len(got) != 2 {
		t.Fatalf("Rules() returned %d rules, want 2", len(got))
	}
	if got[0].LenderID != "latrobe_financial" || got[1].LenderID != "suncorp_bank" {
		t.Errorf("rules not ordered by lender: %s, %s", got[0].LenderID, got[1].LenderID)
	}
}

func TestNewEngineRejectsInvalidExpression(t *testing.T) {
	store := NewInMemoryRuleStore()
	if err := store.Add(&Rule{ID: "bad", LenderID: "x", Name: "bad", Expression: `Client.CreditScore >=`, Active: true}); err != nil {
		t.Fatalf("Add() failed: %v", err)
	}

	if _, err := NewEngine(store); err == nil {
		t.Fatal("NewEngine() should fail when an active rule does not compile")
	}
}

func TestValidateExpression(t *testing.T) {
	valid := []string{
		`true`,
		`Client.CreditScore < 650`,
		`Client.FirstHomeBuyer && Loan.LVR > 90.0`,
		`Loan.Amount * 0.1 > 40000.0`,
		`Property.Type == "house"`,
		`Client.CreditScore < 650.5`,
	}
	for _, expr := range valid {
		if err := ValidateExpression(expr); err != nil {
			t.Errorf("ValidateExpression(%q) failed: %v", expr, err)
		}
	}

	invalid := []string{
		`Client.CreditScore >=`,
		`Client.CreditScore === 600`,
		`Borrower.Income > 0`,
		`(Loan.LVR > 80`,
	}
	for _, expr := range invalid {
		if err := ValidateExpression(expr); err == nil {
			t.Errorf("ValidateExpression(%q) should fail", expr)
		}
	}
}

// onlyResult evaluates lenderID's rules and returns its single result.
func onlyResult(t *testing.T, engine *Engine, lenderID string, facts map[string]any) *EvaluationResult {
	t.Helper()
	out := engine.EvaluateLender(lenderID, facts)
	if len(out.Results) != 1 {
		t.Fatalf("EvaluateLender(%s) returned %d results, want 1", lenderID, len(out.Results))
	}
	return out.Results[0]
}

func TestEvaluateLenderMatchesExpression(t *testing.T) {
	engine := newTestEngine(t,
		&Rule{ID: "impaired", LenderID: "latrobe_financial", Name: "impaired", Expression: `Client.CreditScore < 650`, Active: true},
	)

	result := onlyResult(t, engine, "latrobe_financial", policyFacts(600, false, 80))
	if result.Error != nil {
		t.Fatalf("evaluation failed: %v", result.Error)
	}
	if !result.Matched {
		t.Error("credit 600 should match")
	}
	if result.RuleID != "impaired" || result.LenderID != "latrobe_financial" {
		t.Errorf("result identifies %s/%s", result.LenderID, result.RuleID)
	}

	if onlyResult(t, engine, "latrobe_financial", policyFacts(720, false, 80)).Matched {
		t.Error("credit 720 should not match")
	}
}

func TestEvaluateLenderCrossTypeComparison(t *testing.T) {
	engine := newTestEngine(t,
		&Rule{ID: "lvr", LenderID: "l", Name: "lvr", Expression: `Loan.LVR > 90`, Active: true},
	)

	result := onlyResult(t, engine, "l", policyFacts(700, false, 92.5))
	if result.Error != nil {
		t.Fatalf("evaluation failed: %v", result.Error)
	}
	if !result.Matched {
		t.Error("double LVR should compare against an int literal")
	}
}

func TestEvaluateLenderNonBooleanIsNotMatched(t *testing.T) {
	engine := newTestEngine(t,
		&Rule{ID: "num", LenderID: "l", Name: "num", Expression: `Client.CreditScore + 1`, ScoreDelta: 5, Active: true},
	)

	out := engine.EvaluateLender("l", policyFacts(700, false, 80))
	if out.Results[0].Error != nil {
		t.Fatalf("evaluation failed: %v", out.Results[0].Error)
	}
	if out.Results[0].Matched || out.ScoreDelta != 0 {
		t.Error("non-boolean result should not match")
	}
}

func TestEvaluateLenderContinuesPastErrors(t *testing.T) {
	engine := newTestEngine(t,
		&Rule{ID: "a", LenderID: "l", Name: "a", Expression: `Client.Missing > 1`, ScoreDelta: 3, Active: true},
		&Rule{ID: "b", LenderID: "l", Name: "b", Expression: `Client.CreditScore > 500`, ScoreDelta: 7, Active: true},
	)

	out := engine.EvaluateLender("l", policyFacts(700, false, 80))
	if len(out.Results) != 2 {
		t.Fatalf("EvaluateLender() returned %d results, want 2", len(out.Results))
	}
	if out.Results[0].Error == nil {
		t.Error("missing attribute should report an error")
	}
	if !out.Results[1].Matched {
		t.Error("second rule should still be evaluated and match")
	}
	if out.ScoreDelta != 7 {
		t.Errorf("ScoreDelta = %v, want 7 from the matching rule only", out.ScoreDelta)
	}
}

func TestEvaluateLender(t *testing.T) {
	engine := newTestEngine(t,
		&Rule{ID: "fhb", LenderID: "suncorp_bank", Name: "first home buyer discount",
			Expression: `Client.FirstHomeBuyer`, RateDelta: -0.30, Reason: "First home buyer discount", Active: true},
		&Rule{ID: "impaired", LenderID: "latrobe_financial", Name: "credit impaired",
			Expression: `Client.CreditScore < 650`, ScoreDelta: 10, RateDelta: 0.5,
			Reason: "Specialist in life event lending - suitable for credit-impaired borrowers", Active: true},
		&Rule{ID: "stop", LenderID: "latrobe_financial", Name: "very high lvr",
			Expression: `Loan.LVR > 95.0`, Decline: true, Reason: "LVR above policy", Active: true},
	)

	out := engine.EvaluateLender("latrobe_financial", policyFacts(600, false, 80))
	if out.ScoreDelta != 10 || out.RateDelta != 0.5 {
		t.Errorf("deltas = %v/%v, want 10/0.5", out.ScoreDelta, out.RateDelta)
	}
	if len(out.Reasons) != 1 || out.Reasons[0] != "Specialist in life event lending - suitable for credit-impaired borrowers" {
		t.Errorf("Reasons = %v", out.Reasons)
	}
	if out.Declined {
		t.Error("LVR 80 should not trip the decline rule")
	}
	if len(out.Results) != 2 {
		t.Errorf("Results = %d, want 2", len(out.Results))
	}

	out = engine.EvaluateLender("latrobe_financial", policyFacts(720, false, 97))
	if !out.Declined {
		t.Error("LVR 97 should trip the decline rule")
	}

	out = engine.EvaluateLender("suncorp_bank", policyFacts(720, true, 80))
	if out.RateDelta != -0.30 {
		t.Errorf("RateDelta = %v, want -0.30", out.RateDelta)
	}

	out = engine.EvaluateLender("great_southern_bank", policyFacts(720, true, 80))
	if out.ScoreDelta != 0 || out.RateDelta != 0 || len(out.Reasons) != 0 || out.Reasons == nil {
		t.Errorf("lender without rules should get an empty outcome, got %+v", out)
	}
}

func TestEvaluateLenderNilEngine(t *testing.T) {
	var engine *Engine
	out := engine.EvaluateLender("any", nil)
	if out.Declined || out.ScoreDelta != 0 {
		t.Errorf("nil engine should give empty outcome, got %+v", out)
	}
}

func TestOutcomeFailed(t *testing.T) {
	engine := newTestEngine(t,
		&Rule{ID: "a", LenderID: "l", Name: "a", Expression: `Client.Missing > 1`, Active: true},
		&Rule{ID: "b", LenderID: "l", Name: "b", Expression: `true`, Active: true},
	)

	out := engine.EvaluateLender("l", policyFacts(700, false, 80))
	if len(out.Failed()) != 1 || out.Failed()[0].RuleID != "a" {
		t.Errorf("Failed() = %v, want rule a", out.Failed())
	}
}

func TestConcurrentEvaluation(t *testing.T) {
	engine := newTestEngine(t,
		&Rule{ID: "impaired", LenderID: "latrobe_financial", Name: "impaired",
			Expression: `Client.CreditScore < 650`, ScoreDelta: 10, Active: true},
	)

	var wg sync.WaitGroup
	errs := make(chan string, 50)
	for i := range 50 {
		wg.Add(1)
		go func(credit int) {
			defer wg.Done()
			out := engine.EvaluateLender("latrobe_financial", policyFacts(credit, false, 80))
			if want := credit < 650; out.ScoreDelta == 10 != want {
				errs <- "unexpected outcome"
			}
		}(600 + i*2)
	}
	wg.Wait()
	close(errs)

	for msg := range errs {
		t.Error(msg)
	}
}

func TestPolicyIDIsStable(t *testing.T) {
	a := PolicyID("suncorp_bank", "first home buyer discount")
	b := PolicyID("suncorp_bank", "first home buyer discount")
	c := PolicyID("latrobe_financial", "first home buyer discount")

	if a != b {
		t.Errorf("PolicyID not deterministic: %s != %s", a, b)
	}
	if a == c {
		t.Error("PolicyID should differ across lenders")
	}
}
