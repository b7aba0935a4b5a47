package lenders

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/liamcoop/loanassess/internal/logger"
	"github.com/liamcoop/loanassess/rules"
	_ "github.com/lib/pq"
)

// PostgresSource loads criteria from the lenders table. Each row keeps the
// criteria document as JSONB; policy rules live in lender_policies.
type PostgresSource struct {
	db *sql.DB
}

func NewPostgresSource(db *sql.DB) *PostgresSource {
	return &PostgresSource{db: db}
}

// Load reads every active lender and attaches its active policy rules.
func (s *PostgresSource) Load(ctx context.Context) ([]Criteria, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, criteria
		FROM lenders
		WHERE active = true
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch lenders: %w", err)
	}
	defer rows.Close()

	var out []Criteria
	index := make(map[string]int)
	for rows.Next() {
		var id, name string
		var criteriaJSON []byte
		if err := rows.Scan(&id, &name, &criteriaJSON); err != nil {
			return nil, fmt.Errorf("failed to scan lender row: %w", err)
		}

		var c Criteria
		if err := json.Unmarshal(criteriaJSON, &c); err != nil {
			return nil, fmt.Errorf("invalid criteria for lender %s: %w", id, err)
		}
		c.ID = id
		c.Name = name

		index[id] = len(out)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating lender rows: %w", err)
	}

	policies, err := rules.NewPostgresRuleStore(s.db).ListActiveContext(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range policies {
		i, ok := index[p.LenderID]
		if !ok {
			logger.Debug("skipping policy for inactive lender", "lender_id", p.LenderID, "policy", p.Name)
			continue
		}
		out[i].Policies = append(out[i].Policies, *p)
	}

	return out, nil
}

// Upsert writes c and its policy rules in one transaction, replacing any
// stored copy. Policy IDs are derived from lender and name, so reseeding
// updates rows in place; stored policies c no longer lists are deactivated.
func (s *PostgresSource) Upsert(ctx context.Context, c Criteria) error {
	if err := ValidateCriteria(c); err != nil {
		return err
	}

	criteriaJSON, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode criteria for lender %s: %w", c.ID, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for lender %s: %w", c.ID, err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO lenders (id, name, criteria, active, created_at, updated_at)
		VALUES ($1, $2, $3, true, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			criteria = EXCLUDED.criteria,
			active = true,
			updated_at = NOW()
	`, c.ID, c.Name, criteriaJSON)
	if err != nil {
		return fmt.Errorf("failed to upsert lender %s: %w", c.ID, err)
	}

	store := rules.NewPostgresRuleStore(s.db).WithTx(tx)
	policies := c.policyRules()
	keep := make([]string, 0, len(policies))
	for _, r := range policies {
		if err := store.Upsert(ctx, r); err != nil {
			return err
		}
		keep = append(keep, r.ID)
	}

	retired, err := store.RetireMissing(ctx, c.ID, keep)
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit lender %s: %w", c.ID, err)
	}

	logger.Info("lender criteria stored", "lender_id", c.ID, "policies", len(policies), "retired", retired)
	return nil
}
