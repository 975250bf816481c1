// Package match ranks stored grants against an SME profile. Candidate
// retrieval is deliberately loose; the deterministic bonus scoring on top
// decides the final ordering.
package match

import (
	"context"
	"log/slog"
	"sort"

	"github.com/opensme/grantscout/internal/graph"
	"github.com/opensme/grantscout/internal/model"
)

const (
	// candidateLimit bounds the loose retrieval step; bonuses then reorder
	// within this pool before the final cut.
	candidateLimit = 10

	// maxResults caps what a caller sees.
	maxResults = 5
)

// GrantSource is the slice of the store the matcher needs.
type GrantSource interface {
	SearchGrants(ctx context.Context, tsquery string, limit int) ([]graph.GrantRow, error)
	SearchGrantsLoose(ctx context.Context, tokens []string, limit int) ([]graph.GrantRow, error)
	GrantVerticals(ctx context.Context, id string) ([]string, error)
	GrantSizes(ctx context.Context, id string) ([]string, error)
	GrantCriteria(ctx context.Context, id string) ([]model.Criterion, error)
}

// Matcher scores grants against SME profiles.
type Matcher struct {
	source GrantSource
	logger *slog.Logger
}

// New creates a Matcher backed by the given grant source.
func New(source GrantSource, logger *slog.Logger) *Matcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Matcher{source: source, logger: logger}
}

// Match returns the top grants for a profile, best first. Matching never
// hard-fails on retrieval problems: a failed primary query falls back to the
// loose search, and an empty result set is a valid answer.
func (m *Matcher) Match(ctx context.Context, profile *model.SMEProfile) ([]model.GrantMatch, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}

	// The full-text query is built from the need alone; sector alignment
	// enters through the bonus, not through retrieval.
	tokens := Tokenize(profile.NeedDescription)
	rows := m.candidates(ctx, tokens)
	if len(rows) == 0 {
		return nil, nil
	}

	matches := make([]model.GrantMatch, 0, len(rows))
	for _, row := range rows {
		matches = append(matches, m.score(ctx, profile, row))
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > maxResults {
		matches = matches[:maxResults]
	}
	return matches, nil
}

// candidates runs the primary full-text query, falling back to the loose
// substring search when it errors or comes back empty.
func (m *Matcher) candidates(ctx context.Context, tokens []string) []graph.GrantRow {
	if q := BuildTSQuery(tokens); q != "" {
		rows, err := m.source.SearchGrants(ctx, q, candidateLimit)
		if err != nil {
			m.logger.Warn("full-text search failed, using loose fallback", "error", err)
		} else if len(rows) > 0 {
			return rows
		}
	}

	rows, err := m.source.SearchGrantsLoose(ctx, tokens, candidateLimit)
	if err != nil {
		m.logger.Warn("loose search failed", "error", err)
		return nil
	}
	return rows
}

// score computes the final score for one candidate. Attribute lookups that
// fail leave the candidate with floor bonuses rather than dropping it.
func (m *Matcher) score(ctx context.Context, profile *model.SMEProfile, row graph.GrantRow) model.GrantMatch {
	verticals, err := m.source.GrantVerticals(ctx, row.ID)
	if err != nil {
		m.logger.Warn("vertical lookup failed", "grant", row.ID, "error", err)
	}
	sizes, err := m.source.GrantSizes(ctx, row.ID)
	if err != nil {
		m.logger.Warn("size lookup failed", "grant", row.ID, "error", err)
	}
	criteria, err := m.source.GrantCriteria(ctx, row.ID)
	if err != nil {
		m.logger.Warn("criteria lookup failed", "grant", row.ID, "error", err)
	}

	sizeBonus := SizeBonus(profile.SMESize, sizes)
	sectorBonus := SectorBonus(profile.SectorCategory, verticals)

	return model.GrantMatch{
		ID:          row.ID,
		Title:       row.Name,
		FundingType: model.FundingType(row.FundingType),
		MaxValue:    row.MaxValue,
		Description: row.Description,
		SourceFile:  row.SourceFile,
		BaseScore:   row.Rank,
		SizeBonus:   sizeBonus,
		SectorBonus: sectorBonus,
		Score:       row.Rank*baseWeight + sizeBonus + sectorBonus,
		Verticals:   verticals,
		Criteria:    criteria,
	}
}
