package lenders

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/liamcoop/loanassess/rules"
)

// Table is the immutable lender-criteria set. It is built once at startup and
// shared by pointer; nothing mutates it afterwards.
type Table struct {
	lenders []Criteria
	byID    map[string]int
}

// NewTable validates criteria and indexes them by lender ID. Lenders are kept
// in name order.
func NewTable(criteria []Criteria) (*Table, error) {
	if err := ValidateTable(criteria); err != nil {
		return nil, err
	}

	sorted := slices.Clone(criteria)
	slices.SortFunc(sorted, func(a, b Criteria) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})

	t := &Table{
		lenders: sorted,
		byID:    make(map[string]int, len(sorted)),
	}
	for i, c := range sorted {
		t.byID[c.ID] = i
	}
	return t, nil
}

// Len is the number of lenders in the table.
func (t *Table) Len() int {
	return len(t.lenders)
}

// Lenders returns the criteria in name order.
func (t *Table) Lenders() []Criteria {
	return slices.Clone(t.lenders)
}

// Get looks up a lender by ID.
func (t *Table) Get(id string) (Criteria, bool) {
	i, ok := t.byID[id]
	if !ok {
		return Criteria{}, false
	}
	return t.lenders[i], true
}

// ServiceabilityBuffer returns the lender's assessment buffer in percentage
// points.
func (t *Table) ServiceabilityBuffer(id string) (float64, bool) {
	c, ok := t.Get(id)
	if !ok || c.ServiceabilityBuffer <= 0 {
		return 0, false
	}
	return c.ServiceabilityBuffer, true
}

// MaxLVR returns the lender's highest acceptable LVR.
func (t *Table) MaxLVR(id string) (float64, bool) {
	c, ok := t.Get(id)
	if !ok {
		return 0, false
	}
	return c.MaxLVR()
}

// Policies returns every lender's policy rules with owner and ID set.
func (t *Table) Policies() []*rules.Rule {
	var out []*rules.Rule
	for _, c := range t.lenders {
		out = append(out, c.policyRules()...)
	}
	return out
}

// RuleStore loads the table's policy rules into an in-memory store.
func (t *Table) RuleStore() (*rules.InMemoryRuleStore, error) {
	store := rules.NewInMemoryRuleStore()
	for _, r := range t.Policies() {
		if err := store.Add(r); err != nil {
			return nil, fmt.Errorf("failed to add policy %s for lender %s: %w", r.Name, r.LenderID, err)
		}
	}
	return store, nil
}

// PolicyEngine compiles the table's policy rules.
func (t *Table) PolicyEngine() (*rules.Engine, error) {
	store, err := t.RuleStore()
	if err != nil {
		return nil, err
	}
	engine, err := rules.NewEngine(store)
	if err != nil {
		return nil, fmt.Errorf("failed to compile lender policies: %w", err)
	}
	return engine, nil
}
