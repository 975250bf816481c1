package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/opensme/grantscout/internal/llm"
)

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Manage extraction policy versions",
	Long: `The extraction policy is the instruction text given to the LLM when
turning raw documents into grant records. Saved versions are inert
until explicitly activated, so a bad revision never reaches ingestion
by accident.`,
}

var policyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved policy versions",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store := llm.NewPolicyStore(cfg.Extract.PolicyDir)

		versions, err := store.Versions()
		if err != nil {
			return fmt.Errorf("list policy versions: %w", err)
		}
		if len(versions) == 0 {
			fmt.Println("No saved versions; the built-in policy is active.")
			return nil
		}

		active := store.ActiveVersion()
		for _, v := range versions {
			marker := "  "
			if v == active {
				marker = "* "
			}
			fmt.Printf("%s%s\n", marker, v)
		}
		return nil
	},
}

var policySaveCmd = &cobra.Command{
	Use:   "save <file>",
	Short: "Save a new policy version from a text file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		text, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read policy file: %w", err)
		}

		store := llm.NewPolicyStore(cfg.Extract.PolicyDir)
		name, err := store.SaveVersion(string(text))
		if err != nil {
			return fmt.Errorf("save policy: %w", err)
		}
		fmt.Printf("Saved %s (not active; run 'grantscout policy activate %s')\n", name, name)
		return nil
	},
}

var policyActivateCmd = &cobra.Command{
	Use:   "activate <version>",
	Short: "Make a saved policy version the active one",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store := llm.NewPolicyStore(cfg.Extract.PolicyDir)
		if err := store.Activate(args[0]); err != nil {
			return fmt.Errorf("activate policy: %w", err)
		}
		fmt.Printf("Activated %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(policyCmd)
	policyCmd.AddCommand(policyListCmd)
	policyCmd.AddCommand(policySaveCmd)
	policyCmd.AddCommand(policyActivateCmd)
}
