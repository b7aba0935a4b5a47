package rules

import (
	"cmp"
	"fmt"
	"slices"
	"sync"
	"time"
)

// RuleStore supplies the rules an Engine compiles.
type RuleStore interface {
	// List all active rules ordered by lender, name and ID
	ListActive() ([]*Rule, error)
}

// InMemoryRuleStore implements RuleStore using an in-memory map. It backs
// criteria loaded from YAML files and the embedded defaults.
type InMemoryRuleStore struct {
	rules map[string]*Rule
	mu    sync.RWMutex
}

// NewInMemoryRuleStore creates a new in-memory rule store
func NewInMemoryRuleStore() *InMemoryRuleStore {
	return &InMemoryRuleStore{
		rules: make(map[string]*Rule),
	}
}

// Add adds a new rule to the store and stamps its timestamps
func (s *InMemoryRuleStore) Add(rule *Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.rules[rule.ID]; exists {
		return fmt.Errorf("%w: %s", ErrRuleExists, rule.ID)
	}

	now := time.Now()
	rule.CreatedAt = now
	rule.UpdatedAt = now
	s.rules[rule.ID] = rule
	return nil
}

// ListActive returns all active rules in a stable order
func (s *InMemoryRuleStore) ListActive() ([]*Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var active []*Rule
	for _, rule := range s.rules {
		if rule.Active {
			active = append(active, rule)
		}
	}
	SortRules(active)
	return active, nil
}

// SortRules orders rules by lender, then name, then ID.
func SortRules(rs []*Rule) {
	slices.SortFunc(rs, func(a, b *Rule) int {
		return cmp.Or(
			cmp.Compare(a.LenderID, b.LenderID),
			cmp.Compare(a.Name, b.Name),
			cmp.Compare(a.ID, b.ID),
		)
	})
}
