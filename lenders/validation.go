package lenders

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/liamcoop/loanassess/borrower"
	"github.com/liamcoop/loanassess/rules"
)

var ErrInvalidCriteria = errors.New("invalid lender criteria")

const (
	maxLenders           = 100
	maxPoliciesPerLender = 50
	maxIdentifierLength  = 100
	maxBufferPoints      = 10
)

var identifierPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// ValidateTable checks every lender and rejects empty or duplicate sets.
func ValidateTable(criteria []Criteria) error {
	if len(criteria) == 0 {
		return fmt.Errorf("%w: table must contain at least one lender", ErrInvalidCriteria)
	}
	if len(criteria) > maxLenders {
		return fmt.Errorf("%w: table contains %d lenders, maximum allowed is %d", ErrInvalidCriteria, len(criteria), maxLenders)
	}

	seen := make(map[string]bool, len(criteria))
	for _, c := range criteria {
		if err := ValidateCriteria(c); err != nil {
			return err
		}
		if seen[c.ID] {
			return fmt.Errorf("%w: duplicate lender id %q", ErrInvalidCriteria, c.ID)
		}
		seen[c.ID] = true
	}
	return nil
}

// ValidateCriteria checks one lender's criteria for structural and range
// errors and compiles its policy expressions.
func ValidateCriteria(c Criteria) error {
	fail := func(format string, args ...any) error {
		return fmt.Errorf("%w: lender %q: %s", ErrInvalidCriteria, c.ID, fmt.Sprintf(format, args...))
	}

	if err := validateIdentifier(c.ID); err != nil {
		return fail("invalid id: %v", err)
	}
	if strings.TrimSpace(c.Name) == "" {
		return fail("name cannot be empty")
	}
	if c.ServiceabilityBuffer < 0 || c.ServiceabilityBuffer > maxBufferPoints {
		return fail("serviceability buffer %.2f outside 0-%d", c.ServiceabilityBuffer, maxBufferPoints)
	}

	for purpose, lim := range c.LVRLimits {
		if p, err := borrower.ParseLoanPurpose(purpose); err != nil || string(p) != purpose {
			return fail("unknown loan purpose %q in lvr_limits", purpose)
		}
		if !validPercent(lim.WithoutLMI) || !validPercent(lim.WithLMI) || lim.WithoutLMI > lim.WithLMI {
			return fail("lvr limits for %s must satisfy 0 < without_lmi <= with_lmi <= 100", purpose)
		}
	}

	prev := 0.0
	for i, b := range c.LoanSizeBands {
		if b.UpTo <= prev {
			return fail("loan size band %d must be above %.0f", i, prev)
		}
		if !validPercent(b.MaxLVR) {
			return fail("loan size band %d max_lvr %.1f outside 0-100", i, b.MaxLVR)
		}
		prev = b.UpTo
	}

	for key, limit := range c.DTILimits {
		if err := validateIdentifier(key); err != nil {
			return fail("invalid dti key %q: %v", key, err)
		}
		if limit <= 0 {
			return fail("dti limit %s must be positive", key)
		}
	}

	for category, amount := range c.MinIncome {
		switch borrower.IncomeCategory(category) {
		case borrower.CategoryPAYG, borrower.CategorySelfEmployed:
		default:
			return fail("unknown income category %q", category)
		}
		if amount < 0 {
			return fail("minimum income for %s cannot be negative", category)
		}
	}

	for kind, months := range c.MinTenureMonths {
		if !canonicalEmployment(kind) {
			return fail("unknown employment type %q in min_tenure_months", kind)
		}
		if months < 0 {
			return fail("minimum tenure for %s cannot be negative", kind)
		}
	}
	for kind, penalty := range c.TenurePenalties {
		if !canonicalEmployment(kind) {
			return fail("unknown employment type %q in tenure_penalties", kind)
		}
		if penalty < 0 {
			return fail("tenure penalty for %s cannot be negative", kind)
		}
	}

	if gs := c.GenuineSavings; gs != nil {
		if !validPercent(gs.AboveLVR) || gs.MinPercent <= 0 || gs.MinPercent > 100 {
			return fail("genuine savings thresholds outside 0-100")
		}
	}

	if la := c.LoanAmount; la != nil {
		if la.Min < 0 || la.Max <= la.Min {
			return fail("loan amount range must satisfy 0 <= min < max")
		}
	}

	if len(c.Rates) == 0 {
		return fail("at least one rate is required")
	}
	for key, rate := range c.Rates {
		if err := validateIdentifier(key); err != nil {
			return fail("invalid rate key %q: %v", key, err)
		}
		if rate <= 0 || rate > 30 {
			return fail("rate %s of %.2f%% is outside 0-30", key, rate)
		}
	}

	if len(c.Policies) > maxPoliciesPerLender {
		return fail("%d policies, maximum allowed is %d", len(c.Policies), maxPoliciesPerLender)
	}
	names := make(map[string]bool, len(c.Policies))
	for _, p := range c.Policies {
		if strings.TrimSpace(p.Name) == "" {
			return fail("policy name cannot be empty")
		}
		if names[p.Name] {
			return fail("duplicate policy %q", p.Name)
		}
		names[p.Name] = true
		if err := rules.ValidateExpression(p.Expression); err != nil {
			return fail("policy %q: %v", p.Name, err)
		}
	}

	return nil
}

// validateIdentifier checks a lender ID or table key.
func validateIdentifier(name string) error {
	if len(name) == 0 {
		return fmt.Errorf("identifier cannot be empty")
	}
	if len(name) > maxIdentifierLength {
		return fmt.Errorf("identifier length %d exceeds maximum of %d characters", len(name), maxIdentifierLength)
	}
	if !identifierPattern.MatchString(name) {
		return fmt.Errorf("must match pattern %s", identifierPattern.String())
	}
	return nil
}

func validPercent(v float64) bool {
	return v > 0 && v <= 100
}

func canonicalEmployment(kind string) bool {
	t, err := borrower.ParseEmploymentType(kind)
	return err == nil && string(t) == kind
}
