package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/opensme/grantscout/internal/model"
)

// GrantRow is a row from the full-text candidate search. Rank carries the
// ts_rank relevance; rows from the loose fallback have rank zero.
type GrantRow struct {
	ID          string
	Name        string
	Description string
	FundingType string
	MaxValue    string
	SourceFile  string
	Rank        float64
}

// SearchGrants runs the primary full-text candidate query. The tsquery is
// built by the matcher; this method only executes it.
func (s *Store) SearchGrants(ctx context.Context, tsquery string, limit int) ([]GrantRow, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT g.id, g.name, g.description, g.funding_type, g.max_value, g.source_file,
		       ts_rank(g.search, q.query)::float8
		FROM grants g, to_tsquery('english', $1) q(query)
		WHERE g.search @@ q.query
		ORDER BY ts_rank(g.search, q.query) DESC
		LIMIT $2`,
		tsquery, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("full-text search: %w", err)
	}
	defer rows.Close()
	return scanGrantRows(rows)
}

// SearchGrantsLoose is the relaxed fallback: any token appearing as a
// substring of the name or description qualifies.
func (s *Store) SearchGrantsLoose(ctx context.Context, tokens []string, limit int) ([]GrantRow, error) {
	patterns := make([]string, 0, len(tokens))
	for _, t := range tokens {
		t = strings.TrimSpace(t)
		if t != "" {
			patterns = append(patterns, "%"+t+"%")
		}
	}
	if len(patterns) == 0 {
		return s.AllGrants(ctx, limit)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, name, description, funding_type, max_value, source_file, 0::float8
		FROM grants
		WHERE name ILIKE ANY($1) OR description ILIKE ANY($1)
		ORDER BY updated_at DESC
		LIMIT $2`,
		patterns, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("loose search: %w", err)
	}
	defer rows.Close()
	return scanGrantRows(rows)
}

// AllGrants returns the most recently updated grants. Used when a profile
// yields no usable search tokens.
func (s *Store) AllGrants(ctx context.Context, limit int) ([]GrantRow, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, description, funding_type, max_value, source_file, 0::float8
		FROM grants
		ORDER BY updated_at DESC
		LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list grants: %w", err)
	}
	defer rows.Close()
	return scanGrantRows(rows)
}

type pgxRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanGrantRows(rows pgxRows) ([]GrantRow, error) {
	var out []GrantRow
	for rows.Next() {
		var r GrantRow
		if err := rows.Scan(&r.ID, &r.Name, &r.Description, &r.FundingType, &r.MaxValue, &r.SourceFile, &r.Rank); err != nil {
			return nil, fmt.Errorf("scan grant row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GrantVerticals returns the vertical names a grant targets.
func (s *Store) GrantVerticals(ctx context.Context, id string) ([]string, error) {
	stmt := fmt.Sprintf(
		"MATCH (g:%s {id: '%s'})-[:%s]->(v:%s) RETURN v.name",
		LabelGrant, escapeCypher(id), EdgeTargetsVertical, LabelVertical,
	)
	return s.queryCypherStrings(ctx, stmt)
}

// GrantSizes returns the size eligibility names attached to a grant.
func (s *Store) GrantSizes(ctx context.Context, id string) ([]string, error) {
	stmt := fmt.Sprintf(
		"MATCH (g:%s {id: '%s'})-[:%s]->(sz:%s) RETURN sz.name",
		LabelGrant, escapeCypher(id), EdgeEligibleForSize, LabelSize,
	)
	return s.queryCypherStrings(ctx, stmt)
}

// GrantCriteria returns a grant's eligibility criteria with their stored
// classification.
func (s *Store) GrantCriteria(ctx context.Context, id string) ([]model.Criterion, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, ageSetup); err != nil {
		return nil, fmt.Errorf("age setup: %w", err)
	}

	stmt := fmt.Sprintf(
		"MATCH (g:%s {id: '%s'})-[:%s]->(c:%s) RETURN c.ctype, c.description",
		LabelGrant, escapeCypher(id), EdgeRequiresCriterion, LabelCriterion,
	)
	sql := fmt.Sprintf(
		"SELECT * FROM ag_catalog.cypher('%s', $$ %s $$) AS (ctype ag_catalog.agtype, description ag_catalog.agtype)",
		s.graph, stmt,
	)
	rows, err := conn.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Criterion
	for rows.Next() {
		var ctype, desc string
		if err := rows.Scan(&ctype, &desc); err != nil {
			continue
		}
		out = append(out, model.Criterion{
			Type:        model.CriterionType(unquoteAgtype(ctype)),
			Description: unquoteAgtype(desc),
		})
	}
	return out, rows.Err()
}

// GrantRegions returns the geographic filters attached to a grant. An empty
// result means the grant applies nationwide.
func (s *Store) GrantRegions(ctx context.Context, id string) ([]string, error) {
	stmt := fmt.Sprintf(
		"MATCH (g:%s {id: '%s'})-[:%s]->(r:%s) RETURN r.name",
		LabelGrant, escapeCypher(id), EdgeGeographicFilter, LabelRegion,
	)
	return s.queryCypherStrings(ctx, stmt)
}
