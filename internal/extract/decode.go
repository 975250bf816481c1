package extract

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/opensme/grantscout/internal/model"
)

// rawRecord is the loosely-typed shape the generation step produces.
// Coercion happens during unmarshal (stringList, flexString); strict
// validation happens afterwards in toGrant.
type rawRecord struct {
	Name         flexString `json:"name"`
	Description  flexString `json:"description"`
	FundingType  flexString `json:"funding_type"`
	MaxValue     flexString `json:"max_value"`
	MaxSubsidy   flexString `json:"max_subsidy"`
	Verticals    stringList `json:"target_verticals"`
	Technologies stringList `json:"technologies"`
	Sizes        stringList `json:"size_eligibility"`
	Criterion1   flexString `json:"criterion_1"`
	Criterion2   flexString `json:"criterion_2"`
	Regions      stringList `json:"geographic_filters"`
	Countries    stringList `json:"countries"`
}

// decodeGrant carves the first balanced-looking JSON object out of a reply
// (tolerant of leading/trailing prose), unmarshals it with coercion, and
// validates the result against the grant schema.
func decodeGrant(reply string) (*model.Grant, error) {
	carved, ok := carveJSON(reply)
	if !ok {
		return nil, fmt.Errorf("no JSON object in response")
	}

	var raw rawRecord
	if err := json.Unmarshal([]byte(carved), &raw); err != nil {
		return nil, fmt.Errorf("parse response JSON: %w", err)
	}

	return raw.toGrant()
}

// carveJSON returns the substring from the first '{' to the last '}'.
func carveJSON(s string) (string, bool) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

func (r *rawRecord) toGrant() (*model.Grant, error) {
	name := strings.TrimSpace(string(r.Name))
	if name == "" {
		return nil, fmt.Errorf("record is missing required field %q", "name")
	}

	funding, ok := model.ParseFundingType(string(r.FundingType))
	if !ok {
		return nil, fmt.Errorf("invalid funding_type %q", string(r.FundingType))
	}

	g := &model.Grant{
		Name:         name,
		Description:  strings.TrimSpace(string(r.Description)),
		FundingType:  funding,
		MaxValue:     strings.TrimSpace(string(r.MaxValue)),
		MaxSubsidy:   strings.TrimSpace(string(r.MaxSubsidy)),
		Verticals:    cleanNames(r.Verticals),
		Technologies: cleanNames(r.Technologies),
		Sizes:        canonicalSizes(r.Sizes),
		Regions:      cleanNames(r.Regions),
		Countries:    cleanNames(r.Countries),
	}

	// criterion_1 is the primary mandatory condition, criterion_2 the
	// secondary one; empty descriptions are dropped, not stored.
	if c := strings.TrimSpace(string(r.Criterion1)); c != "" {
		g.Criteria = append(g.Criteria, model.Criterion{Type: model.CriterionPrimaryMandatory, Description: c})
	}
	if c := strings.TrimSpace(string(r.Criterion2)); c != "" {
		g.Criteria = append(g.Criteria, model.Criterion{Type: model.CriterionSecondaryMandatory, Description: c})
	}

	return g, nil
}

// cleanNames trims entity names and drops empties while preserving order.
// Entity identity is the trimmed, case-sensitive name.
func cleanNames(in []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// canonicalSizes normalizes size names onto the fixed size buckets where
// possible; unrecognized names are kept trimmed as-is.
func canonicalSizes(in []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if size, ok := model.ParseSMESize(s); ok {
			s = string(size)
		}
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// flexString accepts a JSON string, number or bool and renders it as a string.
// Upstream output is loosely typed; a monetary field may arrive as a bare number.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(s)
		return nil
	}

	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*f = ""
		return nil
	}

	// Numbers and bools: keep the literal text
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = flexString(strings.Trim(trimmed, `"`))
	return nil
}

// stringList accepts a JSON array of scalars, a lone scalar (wrapped into a
// one-element list) or a comma-separated string (split into elements).
type stringList []string

func (l *stringList) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*l = nil
		return nil
	}

	if strings.HasPrefix(trimmed, "[") {
		var items []flexString
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		out := make([]string, 0, len(items))
		for _, it := range items {
			out = append(out, string(it))
		}
		*l = out
		return nil
	}

	// Lone scalar: coerce into a list, splitting on commas
	var f flexString
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	s := string(f)
	if s == "" {
		*l = nil
		return nil
	}
	if strings.Contains(s, ",") {
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		*l = out
		return nil
	}
	*l = []string{s}
	return nil
}
