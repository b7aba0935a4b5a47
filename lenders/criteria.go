// Package lenders holds the lender-criteria table, the sources it is loaded
// from, and the engine that matches a client against every lender.
package lenders

import (
	"github.com/liamcoop/loanassess/borrower"
	"github.com/liamcoop/loanassess/rules"
)

// LVRLimit is a lender's maximum LVR for one loan purpose.
type LVRLimit struct {
	WithoutLMI float64 `yaml:"without_lmi" json:"without_lmi"`
	WithLMI    float64 `yaml:"with_lmi" json:"with_lmi"`
}

// LoanSizeBand caps LVR for loans up to UpTo dollars.
type LoanSizeBand struct {
	UpTo   float64 `yaml:"up_to" json:"up_to"`
	MaxLVR float64 `yaml:"max_lvr" json:"max_lvr"`
}

// LoanAmountRange bounds the loan size a lender will write.
type LoanAmountRange struct {
	Min float64 `yaml:"min" json:"min"`
	Max float64 `yaml:"max" json:"max"`
}

// GenuineSavings requires a minimum deposit share once LVR exceeds AboveLVR.
type GenuineSavings struct {
	AboveLVR   float64 `yaml:"above_lvr" json:"above_lvr"`
	MinPercent float64 `yaml:"min_percent" json:"min_percent"`
}

// Penalties are the score deductions for each failed check. Zero values
// fall back to the defaults.
type Penalties struct {
	LoanAmount     float64 `yaml:"loan_amount,omitempty" json:"loan_amount,omitempty"`
	LVR            float64 `yaml:"lvr,omitempty" json:"lvr,omitempty"`
	LoanSize       float64 `yaml:"loan_size,omitempty" json:"loan_size,omitempty"`
	DTI            float64 `yaml:"dti,omitempty" json:"dti,omitempty"`
	Income         float64 `yaml:"income,omitempty" json:"income,omitempty"`
	Tenure         float64 `yaml:"tenure,omitempty" json:"tenure,omitempty"`
	GenuineSavings float64 `yaml:"genuine_savings,omitempty" json:"genuine_savings,omitempty"`
}

var defaultPenalties = Penalties{
	LoanAmount:     50,
	LVR:            50,
	LoanSize:       40,
	DTI:            30,
	Income:         40,
	Tenure:         20,
	GenuineSavings: 30,
}

func (p Penalties) withDefaults() Penalties {
	pick := func(v, def float64) float64 {
		if v > 0 {
			return v
		}
		return def
	}
	return Penalties{
		LoanAmount:     pick(p.LoanAmount, defaultPenalties.LoanAmount),
		LVR:            pick(p.LVR, defaultPenalties.LVR),
		LoanSize:       pick(p.LoanSize, defaultPenalties.LoanSize),
		DTI:            pick(p.DTI, defaultPenalties.DTI),
		Income:         pick(p.Income, defaultPenalties.Income),
		Tenure:         pick(p.Tenure, defaultPenalties.Tenure),
		GenuineSavings: pick(p.GenuineSavings, defaultPenalties.GenuineSavings),
	}
}

// Criteria is one lender's lending policy. A check only applies when its
// section is present.
type Criteria struct {
	ID                   string              `yaml:"id" json:"id"`
	Name                 string              `yaml:"name" json:"name"`
	ServiceabilityBuffer float64             `yaml:"serviceability_buffer" json:"serviceability_buffer"`
	LVRLimits            map[string]LVRLimit `yaml:"lvr_limits,omitempty" json:"lvr_limits,omitempty"`
	LoanSizeBands        []LoanSizeBand      `yaml:"loan_size_bands,omitempty" json:"loan_size_bands,omitempty"`
	DTILimits            map[string]float64  `yaml:"dti_limits,omitempty" json:"dti_limits,omitempty"`
	MinIncome            map[string]float64  `yaml:"min_income,omitempty" json:"min_income,omitempty"`
	MinTenureMonths      map[string]int      `yaml:"min_tenure_months,omitempty" json:"min_tenure_months,omitempty"`
	TenurePenalties      map[string]float64  `yaml:"tenure_penalties,omitempty" json:"tenure_penalties,omitempty"`
	GenuineSavings       *GenuineSavings     `yaml:"genuine_savings,omitempty" json:"genuine_savings,omitempty"`
	LoanAmount           *LoanAmountRange    `yaml:"loan_amount,omitempty" json:"loan_amount,omitempty"`
	Rates                map[string]float64  `yaml:"rates" json:"rates"`
	Penalties            Penalties           `yaml:"penalties,omitempty" json:"penalties,omitempty"`
	Policies             []rules.Rule        `yaml:"policies,omitempty" json:"-"`
}

// MaxLVR is the highest LVR the lender accepts for any purpose, with LMI.
// Lenders without purpose limits fall back to their smallest loan-size band.
func (c Criteria) MaxLVR() (float64, bool) {
	best, found := 0.0, false
	for _, lim := range c.LVRLimits {
		if lim.WithLMI > best {
			best, found = lim.WithLMI, true
		}
	}
	if found {
		return best, true
	}
	if len(c.LoanSizeBands) > 0 {
		return c.LoanSizeBands[0].MaxLVR, true
	}
	return 0, false
}

// Rate picks the advertised rate for purpose and repayment type, falling
// back to the purpose rate and then the lender default.
func (c Criteria) Rate(purpose borrower.LoanPurpose, repayment borrower.RepaymentType) (float64, bool) {
	for _, key := range []string{
		string(purpose) + "_" + repayment.RateKey(),
		string(purpose),
		"default",
	} {
		if r, ok := c.Rates[key]; ok {
			return r, true
		}
	}
	return 0, false
}

// bandFor returns the LVR cap for a loan amount. Loans above the largest band
// use its cap.
func (c Criteria) bandFor(loanAmount float64) (LoanSizeBand, bool) {
	if len(c.LoanSizeBands) == 0 {
		return LoanSizeBand{}, false
	}
	for _, b := range c.LoanSizeBands {
		if loanAmount <= b.UpTo {
			return b, true
		}
	}
	return c.LoanSizeBands[len(c.LoanSizeBands)-1], true
}

// dtiKey selects the DTI limit that applies at lvr.
func dtiKey(purpose borrower.LoanPurpose, lvr float64) string {
	switch {
	case lvr <= 80:
		return string(purpose) + "_under_80"
	case lvr <= 90:
		return "lvr_80_to_90"
	default:
		return "above_90_lvr"
	}
}

// policyRules returns the lender's policies with owner and stable IDs filled.
func (c Criteria) policyRules() []*rules.Rule {
	out := make([]*rules.Rule, 0, len(c.Policies))
	for _, p := range c.Policies {
		r := p
		r.LenderID = c.ID
		if r.ID == "" {
			r.ID = rules.PolicyID(c.ID, r.Name)
		}
		out = append(out, &r)
	}
	return out
}
