package match

import (
	"strings"

	"github.com/opensme/grantscout/internal/model"
)

// Scoring weights. The base relevance from the full-text index dominates;
// bonuses nudge ordering between textually similar grants.
const (
	baseWeight = 5.0

	sizeExactBonus = 2.0
	sizeFloorBonus = 0.5

	sectorContainsBonus  = 3.0
	sectorUniversalBonus = 1.0
	sectorFloorBonus     = 0.5
)

// SizeBonus rewards an exact company-size eligibility match. A grant that
// lists no sizes, or none matching, still gets the floor so candidates are
// never zeroed out by missing metadata.
func SizeBonus(profileSize model.SMESize, grantSizes []string) float64 {
	want := strings.ToLower(strings.TrimSpace(string(profileSize)))
	if want != "" {
		for _, gs := range grantSizes {
			if strings.ToLower(strings.TrimSpace(gs)) == want {
				return sizeExactBonus
			}
		}
	}
	return sizeFloorBonus
}

// SectorBonus scores sector alignment against a grant's target verticals.
// Containment is one-directional: the vertical must contain the profile's
// sector. Universal verticals ("All Verticals") earn a smaller bonus than a
// genuine sector hit. The best applicable rule wins; bonuses do not stack.
func SectorBonus(sector string, verticals []string) float64 {
	sector = strings.ToLower(strings.TrimSpace(sector))
	best := sectorFloorBonus
	for _, v := range verticals {
		if model.IsUniversalVertical(v) {
			if sectorUniversalBonus > best {
				best = sectorUniversalBonus
			}
			continue
		}
		if sector != "" && strings.Contains(strings.ToLower(v), sector) {
			return sectorContainsBonus
		}
	}
	return best
}
