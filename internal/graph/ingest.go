package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/opensme/grantscout/internal/model"
)

// IngestGrant stores a grant record, overwriting scalar fields and merging
// graph structure. Re-ingesting the same grant is a no-op for the graph and
// refreshes the relational row, so the operation is safe to retry.
func (s *Store) IngestGrant(ctx context.Context, g *model.Grant) error {
	if g == nil || g.ID == "" {
		return fmt.Errorf("grant record has no id")
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO grants (id, name, description, funding_type, max_value, max_subsidy, source_file, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			funding_type = EXCLUDED.funding_type,
			max_value = EXCLUDED.max_value,
			max_subsidy = EXCLUDED.max_subsidy,
			source_file = EXCLUDED.source_file,
			updated_at = now()`,
		g.ID, g.Name, g.Description, string(g.FundingType), g.MaxValue, g.MaxSubsidy, g.SourceFile,
	)
	if err != nil {
		return fmt.Errorf("upsert grant row %s: %w", g.ID, err)
	}

	for _, stmt := range grantCypher(g) {
		if err := s.execCypher(ctx, stmt); err != nil {
			return fmt.Errorf("merge grant %s into graph: %w", g.ID, err)
		}
	}

	s.logger.Debug("ingested grant", "id", g.ID, "name", g.Name)
	return nil
}

// grantCypher builds the MERGE statements for one grant. Each statement is
// independently idempotent; auxiliary nodes are keyed by their trimmed name
// so grants sharing a vertical or criterion converge on one node.
func grantCypher(g *model.Grant) []string {
	id := escapeCypher(g.ID)

	stmts := []string{fmt.Sprintf(
		"MERGE (g:%s {id: '%s'}) SET g.name = '%s', g.funding_type = '%s'",
		LabelGrant, id, escapeCypher(g.Name), escapeCypher(string(g.FundingType)),
	)}

	edge := func(label, edgeType, name string) {
		name = strings.TrimSpace(name)
		if name == "" {
			return
		}
		stmts = append(stmts, fmt.Sprintf(
			"MATCH (g:%s {id: '%s'}) MERGE (n:%s {name: '%s'}) MERGE (g)-[:%s]->(n)",
			LabelGrant, id, label, escapeCypher(name), edgeType,
		))
	}

	for _, v := range g.Verticals {
		edge(LabelVertical, EdgeTargetsVertical, v)
	}
	for _, t := range g.Technologies {
		edge(LabelTechnology, EdgeUsesTech, t)
	}
	for _, sz := range g.Sizes {
		edge(LabelSize, EdgeEligibleForSize, sz)
	}
	for _, r := range g.Regions {
		edge(LabelRegion, EdgeGeographicFilter, r)
	}
	for _, c := range g.Countries {
		edge(LabelCountry, EdgeApplicableIn, c)
	}

	for _, c := range g.Criteria {
		desc := strings.TrimSpace(c.Description)
		if desc == "" {
			continue
		}
		// coalesce keeps the first classification a criterion was stored
		// under; later grants reusing the description do not flip it.
		stmts = append(stmts, fmt.Sprintf(
			"MATCH (g:%s {id: '%s'}) MERGE (c:%s {description: '%s'}) SET c.ctype = coalesce(c.ctype, '%s') MERGE (g)-[:%s]->(c)",
			LabelGrant, id, LabelCriterion, escapeCypher(desc), escapeCypher(string(c.Type)), EdgeRequiresCriterion,
		))
	}

	return stmts
}

// DeleteGrant removes a grant and its edges. Auxiliary nodes stay; they may
// be shared with other grants.
func (s *Store) DeleteGrant(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("grant id is required")
	}

	stmt := fmt.Sprintf("MATCH (g:%s {id: '%s'}) DETACH DELETE g", LabelGrant, escapeCypher(id))
	if err := s.execCypher(ctx, stmt); err != nil {
		return fmt.Errorf("delete grant %s from graph: %w", id, err)
	}

	if _, err := s.pool.Exec(ctx, `DELETE FROM grants WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete grant row %s: %w", id, err)
	}

	s.logger.Info("deleted grant", "id", id)
	return nil
}
