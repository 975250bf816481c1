package model

// GrantMatch is one ranked result from the matcher
type GrantMatch struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	FundingType FundingType `json:"funding_type"`
	MaxValue    string      `json:"max_value,omitempty"`
	Description string      `json:"description,omitempty"`
	SourceFile  string      `json:"source_file,omitempty"`

	Score       float64 `json:"match_score"`
	BaseScore   float64 `json:"base_score"`
	SizeBonus   float64 `json:"size_bonus"`
	SectorBonus float64 `json:"sector_bonus"`

	Verticals []string    `json:"target_verticals,omitempty"`
	Criteria  []Criterion `json:"eligibility_criteria,omitempty"`
}
