package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/opensme/grantscout/internal/extract"
	"github.com/opensme/grantscout/internal/graph"
	"github.com/opensme/grantscout/internal/pipeline"
)

var (
	ingestTimeout time.Duration
	ingestWorkers int
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file-or-dir>",
	Short: "Extract grant records from documents and store them",
	Long: `Ingest reads grant document text files, extracts structured grant
records with the configured LLM, and merges them into the graph store.
Re-ingesting a document updates its record in place.

Example:
  grantscout ingest ./downloads/grant_notice.txt
  grantscout ingest ./downloads --workers 8`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().DurationVar(&ingestTimeout, "timeout", 10*time.Minute, "total ingestion timeout")
	ingestCmd.Flags().IntVar(&ingestWorkers, "workers", 0, "extraction workers (0 = config default)")
}

func runIngest(cmd *cobra.Command, args []string) error {
	path := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if ingestWorkers > 0 {
		cfg.Concurrency.ExtractionWorkers = ingestWorkers
	}
	logger := newLogger(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), ingestTimeout)
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

	p, err := pipeline.New(cfg, store, logger)
	if err != nil {
		return err
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	if info.IsDir() {
		result, err := p.IngestDir(ctx, path)
		if err != nil {
			return fmt.Errorf("ingest directory: %w", err)
		}
		fmt.Printf("Ingested %d grants (%d skipped, %d irrelevant, %d failed)\n",
			len(result.Ingested), result.Skipped, result.Irrelevant, len(result.Failed))
		for path, err := range result.Failed {
			fmt.Fprintf(os.Stderr, "  failed: %s: %v\n", path, err)
		}
		return nil
	}

	grant, err := p.IngestFile(ctx, path)
	switch {
	case errors.Is(err, extract.ErrNoContent):
		fmt.Println("Skipped: document too short to extract from")
		return nil
	case errors.Is(err, extract.ErrNotRelevant):
		fmt.Println("Skipped: document is not a grant or subsidy")
		return nil
	case err != nil:
		return fmt.Errorf("ingest %s: %w", path, err)
	}

	fmt.Printf("Ingested %s (%s)\n", grant.Name, grant.ID)
	return nil
}
