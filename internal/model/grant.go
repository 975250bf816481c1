package model

import "strings"

// FundingType is the kind of financial support a grant offers
type FundingType string

const (
	FundingSubsidy FundingType = "Subsidy"
	FundingLoan    FundingType = "Loan"
	FundingGrant   FundingType = "Grant"
	FundingEquity  FundingType = "Equity"
)

// ParseFundingType maps free-form extractor output onto the fixed funding set.
// Returns ("", false) for anything outside the set.
func ParseFundingType(s string) (FundingType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "subsidy":
		return FundingSubsidy, true
	case "loan":
		return FundingLoan, true
	case "grant", "scheme":
		return FundingGrant, true
	case "equity":
		return FundingEquity, true
	}
	return "", false
}

// CriterionType distinguishes primary from secondary mandatory conditions
type CriterionType string

const (
	CriterionPrimaryMandatory   CriterionType = "primary_mandatory"
	CriterionSecondaryMandatory CriterionType = "secondary_mandatory"
)

// Criterion is an eligibility condition attached to a grant
type Criterion struct {
	Type        CriterionType `json:"type"`
	Description string        `json:"description"`
}

// UniversalVerticalPrefix marks a vertical that applies to every sector.
// The full sentinel phrase is required so vertical names that merely start
// with "All" ("Allied Health", "Alloy Smelting") are not swallowed. A grant
// with no geographic filter is nationwide; vertical universality, by
// contrast, is an explicit sentinel name.
const UniversalVerticalPrefix = "All Verticals"

// IsUniversalVertical reports whether a vertical name is the universality sentinel.
func IsUniversalVertical(name string) bool {
	return strings.HasPrefix(strings.TrimSpace(name), UniversalVerticalPrefix)
}

// Grant is a funding opportunity record extracted from a source document.
// ID is stable: derived from the source document, never recomputed, so
// re-ingesting the same document updates the existing record.
type Grant struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	FundingType FundingType `json:"funding_type"`

	// Monetary fields are free-text strings; units vary across source
	// documents and are deliberately not normalized.
	MaxValue   string `json:"max_value,omitempty"`
	MaxSubsidy string `json:"max_subsidy,omitempty"`

	SourceFile string `json:"source_file,omitempty"`

	Verticals    []string    `json:"target_verticals,omitempty"`
	Technologies []string    `json:"technologies,omitempty"`
	Sizes        []string    `json:"size_eligibility,omitempty"`
	Regions      []string    `json:"geographic_filters,omitempty"`
	Countries    []string    `json:"countries,omitempty"`
	Criteria     []Criterion `json:"eligibility_criteria,omitempty"`
}

// Nationwide reports whether the grant has no geographic restriction.
// Absence of region relationships encodes universality for location.
func (g *Grant) Nationwide() bool {
	return len(g.Regions) == 0
}
