package property

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownPropertyType = errors.New("unknown property type")

// Type is the kind of dwelling offered as security.
type Type string

const (
	House               Type = "house"
	Unit                Type = "unit"
	Townhouse           Type = "townhouse"
	Villa               Type = "villa"
	Apartment           Type = "apartment"
	StudioApartment     Type = "studio_apartment"
	RuralResidential    Type = "rural_residential"
	VacantLand          Type = "vacant_land"
	WarehouseConversion Type = "warehouse_conversion"
	Heritage            Type = "heritage"
)

// ParseType validates a declared property type. "studio" and
// "heritage_listed" are accepted as aliases.
func ParseType(s string) (Type, error) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	switch t := Type(normalized); t {
	case House, Unit, Townhouse, Villa, Apartment, StudioApartment, RuralResidential,
		VacantLand, WarehouseConversion, Heritage:
		return t, nil
	case "studio":
		return StudioApartment, nil
	case "heritage_listed":
		return Heritage, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPropertyType, s)
	}
}

// Category is the lending acceptability bucket of a property.
type Category string

const (
	Standard     Category = "standard_residential"
	NonStandard  Category = "non_standard_residential"
	Unacceptable Category = "unacceptable"
)

// Details describes the security property.
type Details struct {
	Type             Type    `json:"property_type"`
	LivingAreaSqm    int     `json:"living_area_sqm"`
	LandSizeHectares float64 `json:"land_size_hectares"`
	Value            float64 `json:"property_value"`
	Postcode         string  `json:"postcode"`
	FloorsInBuilding *int    `json:"floors_in_building,omitempty"`
	UnitsInBuilding  *int    `json:"units_in_building,omitempty"`
	// AgeYears is recorded with the application; no lender policy prices on it.
	AgeYears         *int    `json:"age_years,omitempty"`
	HeritageListed   bool    `json:"heritage_listed"`
	FloodProne       bool    `json:"flood_prone"`
	BushfireZone     bool    `json:"bushfire_zone"`
}

// Classification is the acceptability verdict for a property.
type Classification struct {
	Category        Category `json:"category"`
	MaxLVR          float64  `json:"max_lvr"`
	LMIAvailable    bool     `json:"lmi_available"`
	Reasons         []string `json:"reasons"`
	Warnings        []string `json:"warnings"`
	SuitableLenders []string `json:"suitable_lenders"`
}

// Accepts reports whether lenderName is in the classification's candidate set.
func (c Classification) Accepts(lenderName string) bool {
	for _, name := range c.SuitableLenders {
		if name == lenderName {
			return true
		}
	}
	return false
}

// LenderView is one lender's reading of a property.
type LenderView struct {
	Lender     string  `json:"lender"`
	Acceptable bool    `json:"acceptable"`
	MaxLVR     float64 `json:"max_lvr"`
	Reason     string  `json:"reason"`
}
