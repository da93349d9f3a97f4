package models

import (
	"slices"
	"strings"
	"time"

	id "careflow/pkg/domain"
	dErrors "careflow/pkg/domain-errors"
)

type Category string

const (
	CategoryMentalHealth Category = "mental_health"
	CategoryFoodSupport  Category = "food_support"
	CategoryTransport    Category = "transport"
	CategoryFinancial    Category = "financial"
	CategoryHousing      Category = "housing"
	CategoryChronicCare  Category = "chronic_care"
	CategoryWellness     Category = "wellness"
)

var categories = []Category{
	CategoryMentalHealth,
	CategoryFoodSupport,
	CategoryTransport,
	CategoryFinancial,
	CategoryHousing,
	CategoryChronicCare,
	CategoryWellness,
}

// Categories lists the supported referral categories.
func Categories() []Category {
	return slices.Clone(categories)
}

func (c Category) IsValid() bool {
	return slices.Contains(categories, c)
}

func ParseCategory(raw string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(raw)))
	if !c.IsValid() {
		return "", dErrors.Newf(dErrors.CodeValidation, "unknown referral category %q", raw)
	}
	return c, nil
}

type Status string

// StatusRecommended is the only status this core assigns; downstream systems own the rest.
const StatusRecommended Status = "recommended"

type Referral struct {
	ID            id.ReferralID
	PatientID     id.PatientID
	Category      Category
	Reason        string
	Status        Status
	SourceEventID id.EventID
	RuleID        id.RuleID
	CreatedAt     time.Time
}
