// Package borrower defines the closed vocabularies that describe a loan
// applicant and are shared by every stage of the assessment.
package borrower

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownEmploymentType   = errors.New("unknown employment type")
	ErrUnknownDepositSource    = errors.New("unknown deposit source")
	ErrUnknownBorrowingHistory = errors.New("unknown borrowing history")
	ErrUnknownLoanPurpose      = errors.New("unknown loan purpose")
	ErrUnknownRepaymentType    = errors.New("unknown repayment type")
	ErrUnknownLocationRisk     = errors.New("unknown location risk")
)

// EmploymentType is the applicant's primary employment arrangement.
type EmploymentType string

const (
	Permanent    EmploymentType = "permanent"
	Casual       EmploymentType = "casual"
	SelfEmployed EmploymentType = "self_employed"
	Contract     EmploymentType = "contract"
)

// ParseEmploymentType accepts the canonical names plus "self-employed" and
// "payg_*" spellings.
func ParseEmploymentType(s string) (EmploymentType, error) {
	switch normalize(s) {
	case "permanent", "payg_permanent", "full_time":
		return Permanent, nil
	case "casual", "payg_casual":
		return Casual, nil
	case "self_employed", "selfemployed":
		return SelfEmployed, nil
	case "contract", "payg_contract", "contractor":
		return Contract, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownEmploymentType, s)
	}
}

// IncomeCategory groups employment types for minimum-income tables.
type IncomeCategory string

const (
	CategoryPAYG         IncomeCategory = "payg"
	CategorySelfEmployed IncomeCategory = "self_employed"
)

// Category maps the employment type onto its income category.
func (e EmploymentType) Category() IncomeCategory {
	switch e {
	case SelfEmployed:
		return CategorySelfEmployed
	default:
		return CategoryPAYG
	}
}

// DepositSource is where the applicant's deposit came from.
type DepositSource string

const (
	GenuineSavings DepositSource = "genuine_savings"
	Gift           DepositSource = "gift"
	Equity         DepositSource = "equity"
	Inheritance    DepositSource = "inheritance"
)

// ParseDepositSource defaults an empty value to GenuineSavings.
func ParseDepositSource(s string) (DepositSource, error) {
	switch normalize(s) {
	case "", "genuine_savings", "savings":
		return GenuineSavings, nil
	case "gift":
		return Gift, nil
	case "equity":
		return Equity, nil
	case "inheritance":
		return Inheritance, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownDepositSource, s)
	}
}

// BorrowingHistory is the applicant's self-declared repayment track record.
type BorrowingHistory string

const (
	HistoryExcellent BorrowingHistory = "excellent"
	HistoryGood      BorrowingHistory = "good"
	HistoryAverage   BorrowingHistory = "average"
	HistoryPoor      BorrowingHistory = "poor"
)

// ParseBorrowingHistory defaults an empty value to HistoryGood.
func ParseBorrowingHistory(s string) (BorrowingHistory, error) {
	switch normalize(s) {
	case "", "good":
		return HistoryGood, nil
	case "excellent":
		return HistoryExcellent, nil
	case "average", "fair":
		return HistoryAverage, nil
	case "poor":
		return HistoryPoor, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownBorrowingHistory, s)
	}
}

// LoanPurpose selects the LVR and rate tables a lender applies.
type LoanPurpose string

const (
	OwnerOccupied LoanPurpose = "owner_occupied"
	Investment    LoanPurpose = "investment"
)

// ParseLoanPurpose defaults an empty value to OwnerOccupied.
func ParseLoanPurpose(s string) (LoanPurpose, error) {
	switch normalize(s) {
	case "", "owner_occupied", "owner_occupier":
		return OwnerOccupied, nil
	case "investment", "investor":
		return Investment, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownLoanPurpose, s)
	}
}

// RepaymentType is principal-and-interest or interest-only.
type RepaymentType string

const (
	PrincipalAndInterest RepaymentType = "principal_and_interest"
	InterestOnly         RepaymentType = "interest_only"
)

// ParseRepaymentType defaults an empty value to PrincipalAndInterest.
func ParseRepaymentType(s string) (RepaymentType, error) {
	switch normalize(s) {
	case "", "principal_and_interest", "pi", "p&i":
		return PrincipalAndInterest, nil
	case "interest_only", "io":
		return InterestOnly, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownRepaymentType, s)
	}
}

// RateKey is the short suffix lenders use in their rate tables.
func (r RepaymentType) RateKey() string {
	if r == InterestOnly {
		return "io"
	}
	return "pi"
}

// LocationRisk is the assessed market risk of the security's location.
type LocationRisk string

const (
	LocationLow    LocationRisk = "low"
	LocationMedium LocationRisk = "medium"
	LocationHigh   LocationRisk = "high"
)

// ParseLocationRisk defaults an empty value to LocationMedium.
func ParseLocationRisk(s string) (LocationRisk, error) {
	switch normalize(s) {
	case "", "medium":
		return LocationMedium, nil
	case "low":
		return LocationLow, nil
	case "high":
		return LocationHigh, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownLocationRisk, s)
	}
}

func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "-", "_")
	return strings.ReplaceAll(s, " ", "_")
}
