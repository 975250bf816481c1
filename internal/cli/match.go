package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/opensme/grantscout/internal/graph"
	"github.com/opensme/grantscout/internal/match"
	"github.com/opensme/grantscout/internal/model"
)

var (
	matchSize    string
	matchSector  string
	matchNeed    string
	matchState   string
	matchContact string
	matchSave    bool
	matchTimeout time.Duration
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Match stored grants against an SME profile",
	Long: `Match ranks stored grants against a company profile. The sector and
need description drive the search; company size and sector alignment
adjust the final ordering.

Example:
  grantscout match --size small --sector "food processing" --need "solar panels for production hall"
  grantscout match --size micro --sector retail --save --contact owner@shop.example`,
	RunE: runMatch,
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().StringVar(&matchSize, "size", "", "company size (micro, small, medium, large)")
	matchCmd.Flags().StringVar(&matchSector, "sector", "", "sector or industry category")
	matchCmd.Flags().StringVar(&matchNeed, "need", "", "free-text description of the funding need")
	matchCmd.Flags().StringVar(&matchState, "state", "", "location state or region")
	matchCmd.Flags().StringVar(&matchContact, "contact", "", "contact email (required with --save)")
	matchCmd.Flags().BoolVar(&matchSave, "save", false, "store the profile for future grant alerts")
	matchCmd.Flags().DurationVar(&matchTimeout, "timeout", time.Minute, "matching timeout")
}

func runMatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	size, ok := model.ParseSMESize(matchSize)
	if !ok {
		return fmt.Errorf("invalid --size %q (expected micro, small, medium or large)", matchSize)
	}

	profile := &model.SMEProfile{
		SMESize:         size,
		SectorCategory:  matchSector,
		NeedDescription: matchNeed,
		LocationState:   matchState,
		Contact:         matchContact,
	}
	if err := profile.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), matchTimeout)
	defer cancel()

	store, err := graph.Connect(ctx, graph.Config{
		DSN:       cfg.Database.DSN,
		GraphName: cfg.Database.GraphName,
		MaxConns:  cfg.Database.MaxConns,
	}, logger)
	if err != nil {
		return fmt.Errorf("connect store: %w", err)
	}
	defer store.Close()

	if matchSave {
		if matchContact == "" {
			return fmt.Errorf("--save requires --contact")
		}
		if err := store.SaveProfile(ctx, profile); err != nil {
			return fmt.Errorf("save profile: %w", err)
		}
	}

	matcher := match.New(store, logger)
	matches, err := matcher.Match(ctx, profile)
	if err != nil {
		return fmt.Errorf("match: %w", err)
	}

	if len(matches) == 0 {
		fmt.Println("No matching grants found.")
		return nil
	}

	for i, m := range matches {
		fmt.Printf("%d. %s  [%.2f]\n", i+1, m.Title, m.Score)
		fmt.Printf("   Type: %s", m.FundingType)
		if m.MaxValue != "" {
			fmt.Printf("   Max: %s", m.MaxValue)
		}
		fmt.Println()
		if len(m.Verticals) > 0 {
			fmt.Printf("   Verticals: %s\n", strings.Join(m.Verticals, ", "))
		}
		if m.Description != "" {
			fmt.Printf("   %s\n", truncate(m.Description, 200))
		}
		fmt.Println()
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return strings.TrimSpace(s[:n]) + "..."
}
