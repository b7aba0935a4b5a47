package income

// RequiredDocumentation lists the verification documents a lender will ask for
// against each declared income type. Types with no fixed checklist map to an
// empty list.
func RequiredDocumentation(sources []Source) map[Type][]string {
	docs := make(map[Type][]string, len(sources))
	for _, src := range sources {
		docs[src.Type] = documentsFor(src.Type)
	}
	return docs
}

func documentsFor(t Type) []string {
	switch t {
	case PAYGPermanent:
		return []string{"Recent payslip (3 months YTD)", "Employment letter or contract"}
	case PAYGCasual:
		return []string{"Recent payslip (6 months YTD)", "Employment letter confirming regular hours"}
	case SelfEmployed:
		return []string{"2 years tax returns", "2 years financial statements", "Accountant's letter", "BAS statements"}
	case Rental:
		return []string{"Lease agreement", "Property manager statement", "Tax return (rental schedule)"}
	case Bonus:
		return []string{"Payslips showing bonus (2 years)", "Employment letter confirming bonus structure"}
	case Pension:
		return []string{"Centrelink statement", "Bank statements showing payments"}
	case Foreign:
		return []string{"Employment contract", "Bank statements (6 months)", "Certified English translation"}
	default:
		return []string{}
	}
}
