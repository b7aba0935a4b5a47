package rules

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
)

const ruleColumns = `id, lender_id, name, expression, score_delta, rate_delta, reason, decline, active, created_at, updated_at`

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// PostgresRuleStore implements RuleStore backed by the lender_policies table
type PostgresRuleStore struct {
	db querier
}

// NewPostgresRuleStore creates a new PostgreSQL-backed RuleStore
func NewPostgresRuleStore(db *sql.DB) *PostgresRuleStore {
	return &PostgresRuleStore{db: db}
}

// WithTx returns a store whose writes run inside tx.
func (s *PostgresRuleStore) WithTx(tx *sql.Tx) *PostgresRuleStore {
	return &PostgresRuleStore{db: tx}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRule(row rowScanner) (*Rule, error) {
	var r Rule
	err := row.Scan(&r.ID, &r.LenderID, &r.Name, &r.Expression, &r.ScoreDelta, &r.RateDelta,
		&r.Reason, &r.Decline, &r.Active, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// Upsert inserts rule or overwrites the stored copy with the same ID. It is
// used when seeding criteria, where rule IDs are derived from the lender and
// rule name.
func (s *PostgresRuleStore) Upsert(ctx context.Context, rule *Rule) error {
	rule.UpdatedAt = time.Now().UTC()
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = rule.UpdatedAt
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO lender_policies (`+ruleColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			lender_id = EXCLUDED.lender_id,
			name = EXCLUDED.name,
			expression = EXCLUDED.expression,
			score_delta = EXCLUDED.score_delta,
			rate_delta = EXCLUDED.rate_delta,
			reason = EXCLUDED.reason,
			decline = EXCLUDED.decline,
			active = EXCLUDED.active,
			updated_at = EXCLUDED.updated_at
	`, rule.ID, rule.LenderID, rule.Name, rule.Expression, rule.ScoreDelta, rule.RateDelta,
		rule.Reason, rule.Decline, rule.Active, rule.CreatedAt, rule.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert rule %s: %w", rule.ID, err)
	}

	return nil
}

// RetireMissing deactivates lenderID's active rules whose IDs are not in
// keep and returns how many were retired. An empty keep retires them all.
func (s *PostgresRuleStore) RetireMissing(ctx context.Context, lenderID string, keep []string) (int64, error) {
	if keep == nil {
		// a nil array binds as NULL, and NOT (id = ANY(NULL)) matches nothing
		keep = []string{}
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE lender_policies
		SET active = false, updated_at = NOW()
		WHERE lender_id = $1 AND active = true AND NOT (id = ANY($2))
	`, lenderID, pq.Array(keep))
	if err != nil {
		return 0, fmt.Errorf("failed to retire rules for lender %s: %w", lenderID, err)
	}

	retired, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return retired, nil
}

// ListActive returns all active rules across lenders
func (s *PostgresRuleStore) ListActive() ([]*Rule, error) {
	return s.ListActiveContext(context.Background())
}

// ListActiveContext is ListActive bounded by ctx.
func (s *PostgresRuleStore) ListActiveContext(ctx context.Context) ([]*Rule, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+ruleColumns+`
		FROM lender_policies
		WHERE active = true
		ORDER BY lender_id ASC, name ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list active rules: %w", err)
	}
	defer rows.Close()

	var rulesList []*Rule
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		rulesList = append(rulesList, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rules: %w", err)
	}

	return rulesList, nil
}
