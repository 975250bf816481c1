package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/opensme/grantscout/internal/graph"
	"github.com/opensme/grantscout/internal/model"
)

var (
	profileSize       string
	profileSector     string
	profileNeed       string
	profileState      string
	profileRegistered bool
	profileValue      float64
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage stored SME profiles",
}

var profileSaveCmd = &cobra.Command{
	Use:   "save <contact-email>",
	Short: "Store or update an SME profile",
	Long: `Save stores a company profile keyed by contact address. Stored
profiles receive email alerts when newly ingested grants match their
sector.

Example:
  grantscout profile save owner@shop.example --size small --sector "food processing"`,
	Args: cobra.ExactArgs(1),
	RunE: runProfileSave,
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored SME profiles",
	RunE:  runProfileList,
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(profileSaveCmd)
	profileCmd.AddCommand(profileListCmd)

	profileSaveCmd.Flags().StringVar(&profileSize, "size", "", "company size (micro, small, medium, large)")
	profileSaveCmd.Flags().StringVar(&profileSector, "sector", "", "sector or industry category")
	profileSaveCmd.Flags().StringVar(&profileNeed, "need", "", "free-text description of the funding need")
	profileSaveCmd.Flags().StringVar(&profileState, "state", "", "location state or region")
	profileSaveCmd.Flags().BoolVar(&profileRegistered, "registered", false, "company is formally registered")
	profileSaveCmd.Flags().Float64Var(&profileValue, "project-value", 0, "planned project value")
}

func connectStore(ctx context.Context) (*graph.Store, *model.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	store, err := graph.Connect(ctx, graph.Config{
		DSN:       cfg.Database.DSN,
		GraphName: cfg.Database.GraphName,
		MaxConns:  cfg.Database.MaxConns,
	}, newLogger(cfg))
	if err != nil {
		return nil, nil, fmt.Errorf("connect store: %w", err)
	}
	return store, cfg, nil
}

func runProfileSave(cmd *cobra.Command, args []string) error {
	size, ok := model.ParseSMESize(profileSize)
	if !ok {
		return fmt.Errorf("invalid --size %q (expected micro, small, medium or large)", profileSize)
	}

	profile := &model.SMEProfile{
		SMESize:         size,
		Registered:      profileRegistered,
		SectorCategory:  profileSector,
		NeedDescription: profileNeed,
		LocationState:   profileState,
		ProjectValue:    profileValue,
		Contact:         args[0],
	}
	if err := profile.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	store, _, err := connectStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.SaveProfile(ctx, profile); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	fmt.Printf("Saved profile for %s\n", profile.Contact)
	return nil
}

func runProfileList(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	store, _, err := connectStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	profiles, err := store.Profiles(ctx)
	if err != nil {
		return fmt.Errorf("list profiles: %w", err)
	}
	if len(profiles) == 0 {
		fmt.Println("No profiles stored.")
		return nil
	}

	for _, p := range profiles {
		fmt.Printf("%s  size=%s  sector=%q  state=%q\n", p.Contact, p.SMESize, p.SectorCategory, p.LocationState)
	}
	return nil
}
