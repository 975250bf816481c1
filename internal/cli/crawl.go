package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/opensme/grantscout/internal/cache"
	"github.com/opensme/grantscout/internal/crawl"
	"github.com/opensme/grantscout/internal/worker"
)

var (
	crawlDepth        int
	crawlPages        int
	crawlDownload     bool
	crawlDownloadDir  string
	crawlIgnoreRobots bool
	crawlJSON         string
	crawlTimeout      time.Duration
)

var crawlCmd = &cobra.Command{
	Use:   "crawl <seed-url>",
	Short: "Discover grant documents on a funding portal",
	Long: `Crawl walks a portal website from the seed URL, staying on the same
host, and collects links to grant documents. With --download the
documents are fetched into a local directory ready for ingestion.

Example:
  grantscout crawl https://portal.example.org/grants
  grantscout crawl https://portal.example.org/grants --download --download-dir ./downloads`,
	Args: cobra.ExactArgs(1),
	RunE: runCrawl,
}

func init() {
	rootCmd.AddCommand(crawlCmd)

	crawlCmd.Flags().IntVar(&crawlDepth, "depth", 0, "link depth limit (0 = config default)")
	crawlCmd.Flags().IntVar(&crawlPages, "pages", 0, "page fetch limit (0 = config default)")
	crawlCmd.Flags().BoolVar(&crawlDownload, "download", false, "download discovered documents")
	crawlCmd.Flags().StringVar(&crawlDownloadDir, "download-dir", "", "download directory (default from config)")
	crawlCmd.Flags().BoolVar(&crawlIgnoreRobots, "ignore-robots", false, "ignore robots.txt rules")
	crawlCmd.Flags().StringVar(&crawlJSON, "json", "", "write discovered documents as JSON to this path")
	crawlCmd.Flags().DurationVar(&crawlTimeout, "timeout", 5*time.Minute, "crawl timeout")
}

func runCrawl(cmd *cobra.Command, args []string) error {
	seed := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	opts := crawl.Options{
		DepthLimit: cfg.Crawl.DepthLimit,
		PageLimit:  cfg.Crawl.PageLimit,
		ObeyRobots: cfg.Crawl.ObeyRobots && !crawlIgnoreRobots,
	}
	if crawlDepth > 0 {
		opts.DepthLimit = crawlDepth
	}
	if crawlPages > 0 {
		opts.PageLimit = crawlPages
	}

	fetcher := crawl.NewFetcher(crawl.FetcherOptions{
		Timeout:     cfg.HTTP.Timeout,
		UserAgent:   cfg.HTTP.UserAgent,
		MaxBytes:    cfg.HTTP.MaxBodyBytes,
		InsecureTLS: cfg.HTTP.InsecureTLS,
		HTTPProxy:   cfg.HTTP.HTTPProxy,
		HTTPSProxy:  cfg.HTTP.HTTPSProxy,
		NoProxy:     cfg.HTTP.NoProxy,
	})

	var robots *crawl.RobotsChecker
	if opts.ObeyRobots {
		robots = crawl.NewRobotsChecker(cfg.HTTP.UserAgent, cfg.HTTP.Timeout)
	}

	var pages cache.Cache
	if cfg.Cache.Enabled {
		pages = cache.NewLayeredCache(cfg.Cache.TTL, cfg.Cache.Dir, cfg.Cache.TTL)
	}

	limiter := worker.NewLimiter(cfg.Crawl.RequestsPerSecond, cfg.Crawl.Burst)
	spider := crawl.NewSpider(fetcher, robots, limiter, pages, opts, logger)

	ctx, cancel := context.WithTimeout(context.Background(), crawlTimeout)
	defer cancel()

	docs, err := spider.Crawl(ctx, seed)
	if err != nil {
		return fmt.Errorf("crawl: %w", err)
	}

	fmt.Printf("Found %d documents\n", len(docs))
	for _, d := range docs {
		fmt.Printf("  %s (found on %s)\n", d.URL, d.FoundOn)
	}

	if crawlJSON != "" {
		data, err := json.MarshalIndent(docs, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal documents: %w", err)
		}
		if err := os.WriteFile(crawlJSON, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", crawlJSON, err)
		}
		fmt.Printf("Wrote %s\n", crawlJSON)
	}

	if crawlDownload {
		dir := crawlDownloadDir
		if dir == "" {
			dir = cfg.Crawl.DownloadDir
		}
		paths, err := spider.Download(ctx, docs, dir)
		if err != nil {
			return fmt.Errorf("download: %w", err)
		}
		fmt.Printf("Downloaded %d documents to %s\n", len(paths), dir)
	}
	return nil
}
