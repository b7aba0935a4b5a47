package rules

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

var ruleRowColumns = []string{"id", "lender_id", "name", "expression", "score_delta", "rate_delta",
	"reason", "decline", "active", "created_at", "updated_at"}

func newMockStore(t *testing.T) (*PostgresRuleStore, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return NewPostgresRuleStore(db), mock
}

func TestPostgresRuleStoreListActive(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	rows := sqlmock.NewRows(ruleRowColumns).
		AddRow("id-1", "latrobe_financial", "credit impaired", `Client.CreditScore < 650`, 10.0, 0.5,
			"Specialist lending", false, true, now, now).
		AddRow("id-2", "suncorp_bank", "first home buyer", `Client.FirstHomeBuyer`, 0.0, -0.3,
			"", false, true, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM lender_policies")).WillReturnRows(rows)

	got, err := store.ListActive()
	if err != nil {
		t.Fatalf("ListActive() failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ListActive() returned %d rules, want 2", len(got))
	}
	if got[0].LenderID != "latrobe_financial" || got[0].ScoreDelta != 10 || got[0].RateDelta != 0.5 {
		t.Errorf("first rule = %+v", got[0])
	}
	if got[1].RateDelta != -0.3 {
		t.Errorf("second rule RateDelta = %v, want -0.3", got[1].RateDelta)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresRuleStoreUpsert(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (id) DO UPDATE")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := store.Upsert(context.Background(), &Rule{ID: "u", LenderID: "l", Name: "n", Expression: `true`, Active: true}); err != nil {
		t.Fatalf("Upsert() failed: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresRuleStoreRetireMissing(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("SET active = false")).
		WithArgs("latrobe_financial", `{"keep-1","keep-2"}`).
		WillReturnResult(sqlmock.NewResult(0, 2))

	retired, err := store.RetireMissing(context.Background(), "latrobe_financial", []string{"keep-1", "keep-2"})
	if err != nil {
		t.Fatalf("RetireMissing() failed: %v", err)
	}
	if retired != 2 {
		t.Errorf("RetireMissing() = %d, want 2", retired)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresRuleStoreRetireMissingNilKeepsNothing(t *testing.T) {
	store, mock := newMockStore(t)

	// a nil keep list must bind as an empty array, not NULL
	mock.ExpectExec(regexp.QuoteMeta("SET active = false")).
		WithArgs("suncorp_bank", "{}").
		WillReturnResult(sqlmock.NewResult(0, 1))

	retired, err := store.RetireMissing(context.Background(), "suncorp_bank", nil)
	if err != nil {
		t.Fatalf("RetireMissing() failed: %v", err)
	}
	if retired != 1 {
		t.Errorf("RetireMissing() = %d, want 1", retired)
	}
}

func TestPostgresRuleStoreWithTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() failed: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO lender_policies")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("Begin() failed: %v", err)
	}
	store := NewPostgresRuleStore(db).WithTx(tx)
	if err := store.Upsert(context.Background(), &Rule{ID: "t", LenderID: "l", Name: "n", Expression: `true`, Active: true}); err != nil {
		t.Fatalf("Upsert() in tx failed: %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("Rollback() failed: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestEngineFromPostgresStore(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("FROM lender_policies")).
		WillReturnRows(sqlmock.NewRows(ruleRowColumns).
			AddRow("id-1", "latrobe_financial", "credit impaired", `Client.CreditScore < 650`, 10.0, 0.5,
				"Specialist lending", false, true, now, now))

	engine, err := NewEngine(store)
	if err != nil {
		t.Fatalf("NewEngine() failed: %v", err)
	}

	out := engine.EvaluateLender("latrobe_financial", policyFacts(600, false, 80))
	if out.ScoreDelta != 10 {
		t.Errorf("ScoreDelta = %v, want 10", out.ScoreDelta)
	}
}
