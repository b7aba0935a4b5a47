package lenders

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/liamcoop/loanassess/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var policyColumns = []string{"id", "lender_id", "name", "expression", "score_delta", "rate_delta",
	"reason", "decline", "active", "created_at", "updated_at"}

func newMockSource(t *testing.T) (*PostgresSource, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresSource(db), mock
}

func TestPostgresSourceLoad(t *testing.T) {
	src, mock := newMockSource(t)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, criteria")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "criteria"}).
			AddRow("latrobe_financial", "LaTrobe Financial",
				[]byte(`{"serviceability_buffer":2,"rates":{"default":6.5},"loan_amount":{"min":50000,"max":25000000}}`)).
			AddRow("suncorp_bank", "Suncorp Bank",
				[]byte(`{"serviceability_buffer":2.5,"rates":{"owner_occupied":6.25}}`)))

	mock.ExpectQuery(regexp.QuoteMeta("FROM lender_policies")).
		WillReturnRows(sqlmock.NewRows(policyColumns).
			AddRow("p-1", "latrobe_financial", "credit_impaired", "Client.CreditScore < 650", 10.0, 0.5,
				"Specialist lending", false, true, now, now).
			AddRow("p-2", "retired_bank", "legacy", "true", 0.0, 0.0, "", false, true, now, now))

	got, err := src.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)

	latrobe := got[0]
	assert.Equal(t, "latrobe_financial", latrobe.ID)
	assert.Equal(t, "LaTrobe Financial", latrobe.Name)
	assert.Equal(t, 2.0, latrobe.ServiceabilityBuffer)
	require.NotNil(t, latrobe.LoanAmount)
	assert.Equal(t, 50000.0, latrobe.LoanAmount.Min)
	require.Len(t, latrobe.Policies, 1)
	assert.Equal(t, "p-1", latrobe.Policies[0].ID)

	assert.Empty(t, got[1].Policies)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSourceLoadInvalidJSON(t *testing.T) {
	src, mock := newMockSource(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, criteria")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "criteria"}).
			AddRow("broken_bank", "Broken Bank", []byte(`{"rates":`)))

	_, err := src.Load(context.Background())
	assert.ErrorContains(t, err, "invalid criteria for lender broken_bank")
}

func TestPostgresSourceLoadQueryError(t *testing.T) {
	src, mock := newMockSource(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, criteria")).
		WillReturnError(errors.New("connection refused"))

	_, err := src.Load(context.Background())
	assert.ErrorContains(t, err, "failed to fetch lenders")
}

func TestPostgresSourceUpsert(t *testing.T) {
	src, mock := newMockSource(t)

	c := minimalCriteria("suncorp_bank", "Suncorp Bank")
	c.Policies = []rules.Rule{{
		Name:       "first_home_buyer_discount",
		Expression: "Client.FirstHomeBuyer",
		RateDelta:  -0.3,
		Active:     true,
	}}

	policyID := rules.PolicyID("suncorp_bank", "first_home_buyer_discount")

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO lenders")).
		WithArgs("suncorp_bank", "Suncorp Bank", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO lender_policies")).
		WithArgs(policyID, "suncorp_bank",
			"first_home_buyer_discount", "Client.FirstHomeBuyer", 0.0, -0.3, "", false, true,
			sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE lender_policies")).
		WithArgs("suncorp_bank", `{"`+policyID+`"}`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	require.NoError(t, src.Upsert(context.Background(), c))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSourceReseedRetiresDroppedPolicies(t *testing.T) {
	src, mock := newMockSource(t)

	// the stored copy had a policy; the new criteria lists none
	c := minimalCriteria("suncorp_bank", "Suncorp Bank")

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO lenders")).
		WithArgs("suncorp_bank", "Suncorp Bank", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE lender_policies")).
		WithArgs("suncorp_bank", "{}").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, src.Upsert(context.Background(), c))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSourceUpsertRollsBackOnPolicyFailure(t *testing.T) {
	src, mock := newMockSource(t)

	c := minimalCriteria("suncorp_bank", "Suncorp Bank")
	c.Policies = []rules.Rule{{Name: "first_home_buyer_discount", Expression: "Client.FirstHomeBuyer", Active: true}}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO lenders")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO lender_policies")).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := src.Upsert(context.Background(), c)
	assert.ErrorContains(t, err, "failed to upsert rule")
	assert.NoError(t, mock.ExpectationsWereMet(), "the lender write must not be committed alone")
}

func TestPostgresSourceUpsertValidates(t *testing.T) {
	src, mock := newMockSource(t)

	err := src.Upsert(context.Background(), Criteria{ID: "no_rates", Name: "No Rates"})
	assert.ErrorIs(t, err, ErrInvalidCriteria)
	assert.NoError(t, mock.ExpectationsWereMet())
}
