package eligibility

import (
	"fmt"

	"github.com/liamcoop/loanassess/finance"
	"github.com/liamcoop/loanassess/lenders"
	"github.com/liamcoop/loanassess/property"
	"github.com/liamcoop/loanassess/risk"
	"github.com/liamcoop/loanassess/serviceability"
)

const (
	approvedScore    = 70
	conditionalScore = 50

	// Lender count that represents full confidence in the match.
	confidentLenderCount = 3.0

	// Capacity must exceed the request by this factor to be worth mentioning.
	headroomFactor = 1.2

	specialistRate = 7.5
	fallbackRate   = 6.5
)

// AllLenders stands in for the lender list on a gate decline.
const AllLenders = "All Lenders"

type decisionInputs struct {
	app            Application
	property       property.Classification
	serviceability serviceability.Result
	risk           risk.Assessment
	matches        []lenders.Match
	capacity       float64
}

func declineResult(gate string, reasons []string) Result {
	return Result{
		Decision:           Declined,
		ApprovedLenders:    []string{},
		DeclinedLenders:    []string{AllLenders},
		ConditionalLenders: []string{},
		KeyDecisionFactors: reasons,
		RequiredConditions: []string{},
		Recommendations:    []string{"Address fundamental eligibility issues before reapplying"},
		RiskGrade:          risk.GradeDecline,
		DeclinedAt:         gate,
	}
}

func decide(in decisionInputs) Result {
	res := Result{
		ApprovedLenders:    []string{},
		DeclinedLenders:    []string{},
		ConditionalLenders: []string{},
		KeyDecisionFactors: []string{},
		RequiredConditions: []string{},
		Recommendations:    []string{},
		RiskGrade:          in.risk.Grade,
		MaxLoanAmount:      in.capacity,
	}

	for _, m := range in.matches {
		switch {
		case m.Eligible && m.Score >= approvedScore:
			res.ApprovedLenders = append(res.ApprovedLenders, m.LenderName)
		case m.Eligible && m.Score >= conditionalScore:
			res.ConditionalLenders = append(res.ConditionalLenders, m.LenderName)
		default:
			res.DeclinedLenders = append(res.DeclinedLenders, m.LenderName)
		}
	}

	switch {
	case len(res.ApprovedLenders) > 0:
		res.Decision = Approved
		res.KeyDecisionFactors = append(res.KeyDecisionFactors,
			fmt.Sprintf("Approved by %d lender(s)", len(res.ApprovedLenders)))
	case len(res.ConditionalLenders) > 0:
		res.Decision = Conditional
		res.KeyDecisionFactors = append(res.KeyDecisionFactors,
			fmt.Sprintf("Conditional approval from %d lender(s)", len(res.ConditionalLenders)))
	case in.risk.Grade == risk.GradeC:
		res.Decision = ReferSpecialist
		res.KeyDecisionFactors = append(res.KeyDecisionFactors, "Refer to specialist lenders for manual assessment")
	default:
		res.Decision = Declined
		res.KeyDecisionFactors = append(res.KeyDecisionFactors, "No suitable lenders found")
	}

	res.KeyDecisionFactors = append(res.KeyDecisionFactors,
		fmt.Sprintf("Risk Grade: %s", in.risk.Grade),
		fmt.Sprintf("LVR: %.1f%%", in.app.LVR()),
		fmt.Sprintf("DTI: %.1f", in.serviceability.DTIRatio),
		fmt.Sprintf("Property: %s", in.property.Category),
	)

	if res.Decision == Conditional {
		res.RequiredConditions = append(res.RequiredConditions, in.serviceability.Recommendations...)
		res.RequiredConditions = append(res.RequiredConditions, head(in.risk.Recommendations, 2)...)
		if len(in.property.Warnings) > 0 {
			res.RequiredConditions = append(res.RequiredConditions, "Property: "+in.property.Warnings[0])
		}
	}
	// The property candidate set is advisory: a lender outside it still
	// matches, but has to sign off on the security.
	for _, name := range append(append([]string{}, res.ApprovedLenders...), res.ConditionalLenders...) {
		if !in.property.Accepts(name) {
			res.RequiredConditions = append(res.RequiredConditions, "Property acceptance to be confirmed by "+name)
		}
	}

	switch res.Decision {
	case Approved:
		res.Recommendations = append(res.Recommendations, "Strong application - negotiate for better interest rates")
		if in.capacity > in.app.RequestedLoanAmount*headroomFactor {
			res.Recommendations = append(res.Recommendations,
				fmt.Sprintf("Could potentially borrow up to $%s", finance.Dollars(in.capacity)))
		}
	case Conditional:
		res.Recommendations = append(res.Recommendations, "Address conditions to improve approval chances")
		res.Recommendations = append(res.Recommendations, head(in.risk.Recommendations, 2)...)
	case ReferSpecialist:
		res.Recommendations = append(res.Recommendations,
			"Consider specialist or non-bank lenders",
			"May require higher interest rates or fees",
		)
		res.Recommendations = append(res.Recommendations, head(in.risk.Recommendations, 1)...)
	default:
		res.Recommendations = append(res.Recommendations, "Improve risk profile before reapplying")
		res.Recommendations = append(res.Recommendations, head(in.risk.Recommendations, 3)...)
	}

	propertyIndicator := 1.0
	if in.property.Category == property.Unacceptable {
		propertyIndicator = 0
	}
	offered := float64(len(res.ApprovedLenders) + len(res.ConditionalLenders))
	res.OverallConfidence = (unit(in.serviceability.NDIRatio) +
		unit(in.risk.Confidence) +
		propertyIndicator +
		unit(offered/confidentLenderCount)) / 4

	res.EstimatedInterestRate = estimatedRate(res.Decision, in.risk.Grade, in.matches)
	return res
}

func estimatedRate(decision Decision, grade risk.Grade, matches []lenders.Match) float64 {
	if decision == Approved {
		best := 0.0
		for _, m := range matches {
			if !m.Eligible || m.InterestRate <= 0 {
				continue
			}
			if best == 0 || m.InterestRate < best {
				best = m.InterestRate
			}
		}
		if best > 0 {
			return best
		}
	}
	if grade == risk.GradeC {
		return specialistRate
	}
	return fallbackRate
}

// unit clamps v to [0,1].
func unit(v float64) float64 {
	return min(max(v, 0), 1)
}

func head(list []string, n int) []string {
	if len(list) > n {
		return list[:n]
	}
	return list
}
