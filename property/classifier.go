// Package property decides whether a security property is acceptable to
// lenders, and at what maximum LVR.
package property

import (
	"fmt"
	"strings"
)

// Lender display names used in candidate sets.
const (
	GreatSouthernBank = "Great Southern Bank"
	SuncorpBank       = "Suncorp Bank"
	LaTrobeFinancial  = "LaTrobe Financial"
)

const (
	minAttachedAreaSqm  = 40
	minHouseAreaSqm     = 50
	highDensityFloors   = 6
	highDensityUnits    = 50
	specialistValue     = 1800000
	standardValue       = 1000000
	largeBlockHectares  = 2.2
	smallLandHectares   = 0.025
	standardMaxLVR      = 95
	restrictedMaxLVR    = 70
	nonStandardMaxLVR   = 80
	smallRuralHectares  = 10
	mediumRuralHectares = 40
)

// studioPostcodes are the inner-Sydney postcodes where studios are accepted.
var studioPostcodes = map[string][]string{
	"2010": {"Darlinghurst", "Surry Hills"},
	"2011": {"Elizabeth Bay", "Potts Point", "Rushcutters Bay", "Woolloomooloo"},
	"2021": {"Centennial Park", "Moore Park", "Paddington"},
}

// Classifier sorts properties into Standard, NonStandard or Unacceptable.
type Classifier struct{}

// NewClassifier returns a Classifier.
func NewClassifier() *Classifier {
	return &Classifier{}
}

// Classify checks unacceptable conditions first, then non-standard ones, and
// falls back to standard residential. The first matching rule wins.
func (c *Classifier) Classify(d Details) Classification {
	if cl, ok := checkUnacceptable(d); ok {
		return cl
	}
	if cl, ok := checkNonStandard(d); ok {
		return cl
	}
	return classifyStandard(d)
}

func unacceptable(reason string, warnings ...string) Classification {
	return Classification{
		Category:        Unacceptable,
		MaxLVR:          0,
		LMIAvailable:    false,
		Reasons:         []string{reason},
		Warnings:        append([]string{}, warnings...),
		SuitableLenders: []string{},
	}
}

func nonStandard(maxLVR float64, lmi bool, reason, warning string, lenders ...string) Classification {
	warnings := []string{}
	if warning != "" {
		warnings = append(warnings, warning)
	}
	return Classification{
		Category:        NonStandard,
		MaxLVR:          maxLVR,
		LMIAvailable:    lmi,
		Reasons:         []string{reason},
		Warnings:        warnings,
		SuitableLenders: lenders,
	}
}

func isAttached(t Type) bool {
	switch t {
	case Unit, Townhouse, Apartment, Villa:
		return true
	default:
		return false
	}
}

func studioAllowed(postcode string) bool {
	_, ok := studioPostcodes[strings.TrimSpace(postcode)]
	return ok
}

func checkUnacceptable(d Details) (Classification, bool) {
	switch {
	case isAttached(d.Type) && d.LivingAreaSqm < minAttachedAreaSqm:
		return unacceptable("Property size below minimum requirements",
			fmt.Sprintf("Living area %dm² below minimum %dm²", d.LivingAreaSqm, minAttachedAreaSqm)), true
	case d.Type == House && d.LivingAreaSqm < minHouseAreaSqm:
		return unacceptable("House size below minimum requirements",
			fmt.Sprintf("House living area %dm² below minimum %dm²", d.LivingAreaSqm, minHouseAreaSqm)), true
	case d.Type == StudioApartment && !studioAllowed(d.Postcode):
		return unacceptable("Studio apartment in unacceptable location",
			"Studio apartments only accepted in specific Sydney postcodes"), true
	}
	return Classification{}, false
}

func isHighDensity(d Details) bool {
	if d.FloorsInBuilding != nil && *d.FloorsInBuilding >= highDensityFloors {
		return true
	}
	return d.UnitsInBuilding != nil && *d.UnitsInBuilding > highDensityUnits
}

func checkNonStandard(d Details) (Classification, bool) {
	if d.Type == StudioApartment {
		// checkUnacceptable has already rejected studios outside the allow-list
		return nonStandard(nonStandardMaxLVR, false,
			"Studio apartment in acceptable Sydney location", "Limited to specific postcodes",
			SuncorpBank), true
	}

	if isHighDensity(d) {
		return nonStandard(nonStandardMaxLVR, true,
			"High-density property", "Some lenders may not accept high-density properties",
			SuncorpBank, LaTrobeFinancial), true
	}

	if d.Type == RuralResidential {
		switch {
		case d.LandSizeHectares <= smallRuralHectares:
			return nonStandard(90, true, "Rural residential under 10 hectares", "",
				GreatSouthernBank, SuncorpBank), true
		case d.LandSizeHectares <= mediumRuralHectares:
			return nonStandard(restrictedMaxLVR, true,
				"Rural residential 10-40 hectares", "Reduced LVR for larger rural properties",
				LaTrobeFinancial), true
		default:
			return nonStandard(60, true,
				"Large rural residential property", "Very limited lender acceptance for properties >40 hectares",
				LaTrobeFinancial), true
		}
	}

	if d.HeritageListed || d.Type == Heritage {
		return nonStandard(restrictedMaxLVR, false,
			"Heritage listed property", "Higher maintenance costs and restrictions apply",
			LaTrobeFinancial), true
	}

	if d.Type == WarehouseConversion {
		return nonStandard(restrictedMaxLVR, true,
			"Warehouse conversion to residential", "Limited lender acceptance",
			LaTrobeFinancial), true
	}

	if d.FloodProne || d.BushfireZone {
		hazard := "bushfire zone"
		if d.FloodProne {
			hazard = "flood prone"
		}
		return nonStandard(restrictedMaxLVR, true,
			fmt.Sprintf("Property in %s area", hazard), "May require additional insurance and have reduced LVR",
			LaTrobeFinancial), true
	}

	return Classification{}, false
}

func classifyStandard(d Details) Classification {
	cl := Classification{
		Category:        Standard,
		MaxLVR:          standardMaxLVR,
		LMIAvailable:    true,
		Reasons:         []string{},
		Warnings:        []string{},
		SuitableLenders: []string{GreatSouthernBank, SuncorpBank, LaTrobeFinancial},
	}

	switch {
	case d.Type == House:
		cl.Reasons = append(cl.Reasons, "Standard residential house")
		if d.LandSizeHectares <= largeBlockHectares {
			cl.Reasons = append(cl.Reasons, "Standard residential land size")
		} else {
			cl.Reasons = append(cl.Reasons, "Large residential block")
			cl.Warnings = append(cl.Warnings, "Some lenders may treat as rural residential")
		}
	case isAttached(d.Type):
		cl.Reasons = append(cl.Reasons,
			fmt.Sprintf("Standard %s", d.Type),
			fmt.Sprintf("Living area %dm² meets standard requirements", d.LivingAreaSqm))
	case d.Type == VacantLand:
		if d.LandSizeHectares >= smallLandHectares {
			cl.Reasons = append(cl.Reasons, "Standard residential vacant land")
		} else {
			cl.Warnings = append(cl.Warnings, "Small vacant land may have limited lender acceptance")
		}
	}

	switch {
	case d.Value <= standardValue:
		cl.Reasons = append(cl.Reasons, "Standard property value range")
	case d.Value <= specialistValue:
		cl.Reasons = append(cl.Reasons, "Higher value property - most lenders acceptable")
	default:
		cl.Warnings = append(cl.Warnings, "High value property may require specialist lending")
		cl.SuitableLenders = []string{LaTrobeFinancial}
	}

	return cl
}

// LenderClassification applies a single lender's property policy on top of
// the general classification.
func (c *Classifier) LenderClassification(d Details, lender string) LenderView {
	base := c.Classify(d)

	switch lender {
	case GreatSouthernBank:
		if d.FloorsInBuilding != nil && *d.FloorsInBuilding >= highDensityFloors {
			return LenderView{Lender: lender, Acceptable: false,
				Reason: "Great Southern Bank does not accept high-density properties"}
		}
	case SuncorpBank:
		if d.Type == StudioApartment && base.Category != Unacceptable {
			return LenderView{Lender: lender, Acceptable: true, MaxLVR: nonStandardMaxLVR,
				Reason: "Studio apartment in acceptable Sydney location"}
		}
	case LaTrobeFinancial:
		if base.Category == NonStandard {
			return LenderView{Lender: lender, Acceptable: true, MaxLVR: base.MaxLVR,
				Reason: "LaTrobe Financial specializes in non-standard properties"}
		}
	}

	return LenderView{
		Lender:     lender,
		Acceptable: base.Category != Unacceptable,
		MaxLVR:     base.MaxLVR,
		Reason:     strings.Join(base.Reasons, "; "),
	}
}

