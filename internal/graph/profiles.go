package graph

import (
	"context"
	"fmt"

	"github.com/opensme/grantscout/internal/model"
)

// SaveProfile upserts an SME profile keyed by contact address. Profiles with
// no contact are matched against but never persisted.
func (s *Store) SaveProfile(ctx context.Context, p *model.SMEProfile) error {
	if p == nil || p.Contact == "" {
		return fmt.Errorf("profile has no contact address")
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO sme_profiles (contact, sme_size, registered, sector_category, financial_health, location_state, project_value, need_description)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (contact) DO UPDATE SET
			sme_size = EXCLUDED.sme_size,
			registered = EXCLUDED.registered,
			sector_category = EXCLUDED.sector_category,
			financial_health = EXCLUDED.financial_health,
			location_state = EXCLUDED.location_state,
			project_value = EXCLUDED.project_value,
			need_description = EXCLUDED.need_description`,
		p.Contact, string(p.SMESize), p.Registered, p.SectorCategory,
		p.FinancialHealth, p.LocationState, p.ProjectValue, p.NeedDescription,
	)
	if err != nil {
		return fmt.Errorf("upsert profile %s: %w", p.Contact, err)
	}

	s.logger.Debug("saved profile", "contact", p.Contact)
	return nil
}

// Profiles returns all stored SME profiles, newest first.
func (s *Store) Profiles(ctx context.Context) ([]model.SMEProfile, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT contact, sme_size, registered, sector_category, financial_health, location_state, project_value, need_description
		FROM sme_profiles
		ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var out []model.SMEProfile
	for rows.Next() {
		var p model.SMEProfile
		var size string
		if err := rows.Scan(&p.Contact, &size, &p.Registered, &p.SectorCategory,
			&p.FinancialHealth, &p.LocationState, &p.ProjectValue, &p.NeedDescription); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		p.SMESize = model.SMESize(size)
		out = append(out, p)
	}
	return out, rows.Err()
}
