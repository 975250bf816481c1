package model

import (
	"fmt"
	"strings"
)

// SMESize is the applicant organization size bucket
type SMESize string

const (
	SizeMicro  SMESize = "Micro"
	SizeSmall  SMESize = "Small"
	SizeMedium SMESize = "Medium"
	SizeLarge  SMESize = "Large"
)

// ParseSMESize maps a size string onto the fixed size set.
func ParseSMESize(s string) (SMESize, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "micro":
		return SizeMicro, true
	case "small":
		return SizeSmall, true
	case "medium":
		return SizeMedium, true
	case "large":
		return SizeLarge, true
	}
	return "", false
}

// SMEProfile describes an applicant. Only SMESize, SectorCategory and
// NeedDescription drive ranking; ProjectValue and FinancialHealth are
// informational and never filtered on.
type SMEProfile struct {
	SMESize         SMESize `json:"sme_size"`
	Registered      bool    `json:"registered"`
	SectorCategory  string  `json:"sector_category"`
	FinancialHealth string  `json:"financial_health,omitempty"`
	LocationState   string  `json:"location_state,omitempty"`
	ProjectValue    float64 `json:"project_value,omitempty"`
	NeedDescription string  `json:"project_need_description"`

	// Contact enables reverse notification when new matching grants arrive.
	Contact string `json:"contact,omitempty"`
}

// Validate checks the profile fields that matching depends on.
func (p *SMEProfile) Validate() error {
	if _, ok := ParseSMESize(string(p.SMESize)); !ok {
		return fmt.Errorf("invalid sme_size %q (expected Micro, Small, Medium or Large)", p.SMESize)
	}
	if strings.TrimSpace(p.NeedDescription) == "" && strings.TrimSpace(p.SectorCategory) == "" {
		return fmt.Errorf("profile needs a sector category or a project need description")
	}
	return nil
}
