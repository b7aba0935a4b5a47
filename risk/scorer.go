// Package risk grades a borrower A, B, C or DECLINE from a weighted set of
// credit, employment, leverage and history factors.
package risk

import (
	"fmt"
	"strings"

	"github.com/liamcoop/loanassess/borrower"
)

// Grade is the borrower risk band.
type Grade string

const (
	GradeA       Grade = "A"
	GradeB       Grade = "B"
	GradeC       Grade = "C"
	GradeDecline Grade = "DECLINE"
)

// Factors are the inputs to a risk assessment.
type Factors struct {
	CreditScore       int                       `json:"credit_score"`
	EmploymentType    borrower.EmploymentType   `json:"employment_type"`
	EmploymentMonths  int                       `json:"employment_months"`
	IncomeConsistency float64                   `json:"income_consistency"`
	DebtToIncome      float64                   `json:"debt_to_income"`
	LoanToValue       float64                   `json:"loan_to_value"`
	DepositSource     borrower.DepositSource    `json:"deposit_source"`
	PreviousDefaults  int                       `json:"previous_defaults"`
	BankruptcyHistory bool                      `json:"bankruptcy_history"`
	PropertyType      string                    `json:"property_type"`
	LocationRisk      borrower.LocationRisk     `json:"location_risk"`
	BorrowingHistory  borrower.BorrowingHistory `json:"borrowing_history"`
}

// Assessment is the graded outcome. Score runs 1-100, lower is better.
type Assessment struct {
	Grade           Grade    `json:"risk_grade"`
	Score           int      `json:"risk_score"`
	Confidence      float64  `json:"grade_confidence"`
	Strengths       []string `json:"key_strengths"`
	Weaknesses      []string `json:"key_weaknesses"`
	Recommendations []string `json:"recommendations"`
	SuitableLenders []string `json:"suitable_lenders"`
}

// factor is one weighted contributor to the score. ceiling is the largest
// number of points the factor can award and maps to 100 after normalization.
type factor struct {
	weight  float64
	ceiling float64
}

var (
	creditFactor     = factor{weight: 0.25, ceiling: 50}
	employmentFactor = factor{weight: 0.20, ceiling: 35}
	dtiFactor        = factor{weight: 0.15, ceiling: 40}
	lvrFactor        = factor{weight: 0.15, ceiling: 40}
	depositFactor    = factor{weight: 0.10, ceiling: 20}
	historyFactor    = factor{weight: 0.10, ceiling: 30}
	adverseFactor    = factor{weight: 0.05, ceiling: 55}
)

func (f factor) contribution(points int) float64 {
	return float64(points) / f.ceiling * 100 * f.weight
}

const maxListed = 3

// Scorer produces risk assessments. It holds no state.
type Scorer struct{}

// NewScorer returns a Scorer.
func NewScorer() *Scorer {
	return &Scorer{}
}

// Assess grades f. Unrecognized enum values score at their factor's ceiling.
func (s *Scorer) Assess(f Factors) Assessment {
	var (
		total      float64
		strengths  []string
		weaknesses []string
	)

	credit := CreditPoints(f.CreditScore)
	total += creditFactor.contribution(credit)
	switch {
	case credit <= 5:
		strengths = append(strengths, fmt.Sprintf("Strong credit score (%d)", f.CreditScore))
	case credit >= 30:
		weaknesses = append(weaknesses, fmt.Sprintf("Poor credit score (%d)", f.CreditScore))
	}

	employment := EmploymentPoints(f.EmploymentType, f.EmploymentMonths)
	total += employmentFactor.contribution(employment)
	switch {
	case employment <= 5:
		strengths = append(strengths, "Stable employment history")
	case employment >= 20:
		weaknesses = append(weaknesses, "Employment instability concerns")
	}

	dti := DTIPoints(f.DebtToIncome)
	total += dtiFactor.contribution(dti)
	switch {
	case dti <= 10:
		strengths = append(strengths, fmt.Sprintf("Manageable debt levels (DTI: %.1f)", f.DebtToIncome))
	case dti >= 25:
		weaknesses = append(weaknesses, fmt.Sprintf("High debt burden (DTI: %.1f)", f.DebtToIncome))
	}

	lvr := LVRPoints(f.LoanToValue)
	total += lvrFactor.contribution(lvr)
	switch {
	case lvr <= 8:
		strengths = append(strengths, fmt.Sprintf("Conservative borrowing (LVR: %.1f%%)", f.LoanToValue))
	case lvr >= 20:
		weaknesses = append(weaknesses, fmt.Sprintf("High borrowing ratio (LVR: %.1f%%)", f.LoanToValue))
	}

	deposit := DepositPoints(f.DepositSource)
	total += depositFactor.contribution(deposit)
	switch {
	case deposit <= 5:
		strengths = append(strengths, "Strong deposit source")
	case deposit >= 15:
		weaknesses = append(weaknesses, "Deposit source concerns")
	}

	history := HistoryPoints(f.BorrowingHistory)
	total += historyFactor.contribution(history)
	switch {
	case history <= 5:
		strengths = append(strengths, "Reliable borrowing history")
	case history >= 15:
		weaknesses = append(weaknesses, "Weak borrowing history")
	}

	adverse := AdversePoints(f.PreviousDefaults, f.BankruptcyHistory)
	total += adverseFactor.contribution(adverse)
	switch {
	case adverse == 0:
		strengths = append(strengths, "Clean credit history")
	case adverse >= 20:
		weaknesses = append(weaknesses, "Significant adverse credit history")
	}

	if f.LocationRisk == borrower.LocationHigh {
		weaknesses = append(weaknesses, "Higher-risk property location")
	}

	score := min(100, max(1, int(total)))
	grade := GradeForScore(score)

	return Assessment{
		Grade:           grade,
		Score:           score,
		Confidence:      confidence(f),
		Strengths:       firstN(strengths, maxListed),
		Weaknesses:      firstN(weaknesses, maxListed),
		Recommendations: recommendations(grade, weaknesses),
		SuitableLenders: suitableLenders(grade, f.CreditScore),
	}
}

// GradeForScore maps a 1-100 score onto its band.
func GradeForScore(score int) Grade {
	switch {
	case score <= 25:
		return GradeA
	case score <= 50:
		return GradeB
	case score <= 75:
		return GradeC
	default:
		return GradeDecline
	}
}

// CreditPoints bands a bureau score; 800 and above is the lowest risk.
func CreditPoints(score int) int {
	switch {
	case score >= 800:
		return 1
	case score >= 740:
		return 5
	case score >= 670:
		return 15
	case score >= 580:
		return 30
	default:
		return 50
	}
}

// EmploymentPoints starts from the employment type's base and adjusts it for
// tenure. Long tenure can only lower points as far as the type's floor.
func EmploymentPoints(t borrower.EmploymentType, months int) int {
	switch t {
	case borrower.Permanent:
		points := 1
		switch {
		case months < 3:
			points += 10
		case months >= 24:
			points = max(1, points-2)
		}
		return points
	case borrower.Contract:
		return 10
	case borrower.Casual:
		points := 15
		switch {
		case months < 6:
			points += 10
		case months >= 12:
			points = max(10, points-3)
		}
		return points
	case borrower.SelfEmployed:
		points := 20
		switch {
		case months < 24:
			points += 15
		case months >= 36:
			points = max(10, points-5)
		}
		return points
	default:
		return int(employmentFactor.ceiling)
	}
}

func DTIPoints(dti float64) int {
	switch {
	case dti <= 3:
		return 1
	case dti <= 4:
		return 5
	case dti <= 5:
		return 10
	case dti <= 6:
		return 20
	case dti <= 7:
		return 30
	default:
		return 40
	}
}

func LVRPoints(lvr float64) int {
	switch {
	case lvr <= 60:
		return 1
	case lvr <= 80:
		return 3
	case lvr <= 85:
		return 8
	case lvr <= 90:
		return 15
	case lvr <= 95:
		return 25
	default:
		return 40
	}
}

func DepositPoints(src borrower.DepositSource) int {
	switch src {
	case borrower.GenuineSavings:
		return 1
	case borrower.Inheritance:
		return 3
	case borrower.Equity:
		return 5
	case borrower.Gift:
		return 8
	default:
		return int(depositFactor.ceiling)
	}
}

func HistoryPoints(h borrower.BorrowingHistory) int {
	switch h {
	case borrower.HistoryExcellent:
		return 1
	case borrower.HistoryGood:
		return 5
	case borrower.HistoryAverage:
		return 15
	case borrower.HistoryPoor:
		return 30
	default:
		return int(historyFactor.ceiling)
	}
}

func AdversePoints(defaults int, bankruptcy bool) int {
	points := 0
	if bankruptcy {
		points += 30
	}
	if defaults > 0 {
		points += min(defaults*8, 25)
	}
	return points
}

func confidence(f Factors) float64 {
	credit := 0.5
	if f.CreditScore > 0 {
		credit = 0.9
	}
	employment := 0.6
	if f.EmploymentMonths > 0 {
		employment = 0.85
	}
	return (credit + employment + max(0.7, f.IncomeConsistency)) / 3
}

func recommendations(grade Grade, weaknesses []string) []string {
	mentions := strings.ToLower(strings.Join(weaknesses, " "))

	switch grade {
	case GradeA:
		return []string{
			"Excellent risk profile - approach premium lenders for best rates",
			"Consider negotiating rate discounts due to strong profile",
		}
	case GradeB:
		recs := []string{"Good risk profile - suitable for most major lenders"}
		if strings.Contains(mentions, "credit score") {
			recs = append(recs, "Consider improving credit score before applying")
		}
		if strings.Contains(mentions, "employment") {
			recs = append(recs, "Wait for longer employment history if possible")
		}
		return recs
	case GradeC:
		recs := []string{
			"Higher risk profile - consider specialist lenders",
			"Focus on improving weakest risk factors before applying",
		}
		if strings.Contains(mentions, "debt") {
			recs = append(recs, "Pay down existing debts to improve DTI ratio")
		}
		return recs
	default:
		return []string{
			"Current profile unlikely to be approved by mainstream lenders",
			"Address major risk factors before reapplying",
			"Consider seeking financial counseling",
		}
	}
}

func suitableLenders(grade Grade, creditScore int) []string {
	switch grade {
	case GradeA:
		return []string{"Great Southern Bank", "Suncorp Bank", "Commonwealth Bank", "Westpac", "ANZ", "NAB"}
	case GradeB:
		lenders := []string{"Great Southern Bank", "Suncorp Bank", "LaTrobe Financial"}
		if creditScore >= 650 {
			lenders = append(lenders, "Commonwealth Bank", "Westpac")
		}
		return lenders
	case GradeC:
		return []string{"LaTrobe Financial", "Firstmac", "Liberty Financial"}
	default:
		return []string{}
	}
}

func firstN(list []string, n int) []string {
	if len(list) > n {
		list = list[:n]
	}
	return append([]string{}, list...)
}
