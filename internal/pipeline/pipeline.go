// Package pipeline orchestrates ingestion: document text goes through the
// extractor into the graph store, and interested SME profiles get notified.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/opensme/grantscout/internal/extract"
	"github.com/opensme/grantscout/internal/graph"
	"github.com/opensme/grantscout/internal/llm"
	"github.com/opensme/grantscout/internal/match"
	"github.com/opensme/grantscout/internal/model"
	"github.com/opensme/grantscout/internal/notify"
	"github.com/opensme/grantscout/internal/worker"
)

// Pipeline ties the extractor, store and notifier together for ingestion
// runs.
type Pipeline struct {
	extractor *extract.Extractor
	store     *graph.Store
	sender    *notify.EmailSender
	renderer  *notify.GrantAlertRenderer
	config    *model.Config
	logger    *slog.Logger
}

// New assembles a pipeline from configuration. The store must already be
// connected; LLM provider construction failures are fatal because ingestion
// cannot run without extraction.
func New(cfg *model.Config, store *graph.Store, logger *slog.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = slog.Default()
	}

	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM))
	if err != nil {
		return nil, fmt.Errorf("initialize LLM provider: %w", err)
	}
	if provider == nil {
		return nil, errors.New("ingestion requires an LLM provider; set llm.provider in the config")
	}

	policy := llm.NewPolicyStore(cfg.Extract.PolicyDir)
	extractor := extract.New(provider, policy, extract.Options{
		MaxDocChars: cfg.Extract.MaxDocChars,
		MinDocChars: cfg.Extract.MinDocChars,
		MaxAttempts: cfg.Extract.MaxAttempts,
		RetryPause:  cfg.Extract.RetryPause,
	}, logger)

	sender := notify.NewEmailSender(notify.EmailConfig{
		Enabled:   cfg.SMTP.Enabled,
		Server:    cfg.SMTP.Server,
		Port:      cfg.SMTP.Port,
		User:      cfg.SMTP.User,
		Pass:      cfg.SMTP.Password,
		FromEmail: cfg.SMTP.FromEmail,
	}, logger)

	return &Pipeline{
		extractor: extractor,
		store:     store,
		sender:    sender,
		renderer:  notify.NewGrantAlertRenderer(),
		config:    cfg,
		logger:    logger,
	}, nil
}

// IngestFile reads one document, extracts a grant record and stores it.
// Irrelevant and too-short documents return the extractor's sentinel errors
// so batch callers can count skips separately from failures.
func (p *Pipeline) IngestFile(ctx context.Context, path string) (*model.Grant, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	return p.IngestText(ctx, string(data), filepath.Base(path))
}

// IngestText runs extraction and storage for raw document text. sourceFile
// names the document and determines the grant's identity.
func (p *Pipeline) IngestText(ctx context.Context, text, sourceFile string) (*model.Grant, error) {
	grant, err := p.extractor.Extract(ctx, text, sourceFile)
	if err != nil {
		return nil, err
	}

	if err := p.store.IngestGrant(ctx, grant); err != nil {
		return nil, fmt.Errorf("store grant: %w", err)
	}

	p.notifyInterested(ctx, grant)
	return grant, nil
}

// BatchResult summarizes one batch ingestion run.
type BatchResult struct {
	Ingested   []*model.Grant
	Skipped    int
	Irrelevant int
	Failed     map[string]error
}

// IngestDir ingests every document under dir with bounded concurrency.
func (p *Pipeline) IngestDir(ctx context.Context, dir string) (*BatchResult, error) {
	batch := worker.NewBatchIngestor(p, p.config.Concurrency.ExtractionWorkers)
	results, err := batch.ProcessDir(ctx, dir)
	if err != nil {
		return nil, err
	}

	out := &BatchResult{Failed: make(map[string]error)}
	for _, r := range results {
		switch {
		case r.Err == nil:
			out.Ingested = append(out.Ingested, r.Grant)
		case errors.Is(r.Err, extract.ErrNoContent):
			out.Skipped++
		case errors.Is(r.Err, extract.ErrNotRelevant):
			out.Irrelevant++
		default:
			out.Failed[r.Path] = r.Err
		}
	}

	p.logger.Info("batch ingestion finished",
		"ingested", len(out.Ingested),
		"skipped", out.Skipped,
		"irrelevant", out.Irrelevant,
		"failed", len(out.Failed))
	return out, nil
}

// notifyInterested emails profiles whose sector aligns with the new grant.
// Notification is best-effort and never fails ingestion.
func (p *Pipeline) notifyInterested(ctx context.Context, grant *model.Grant) {
	if !p.config.SMTP.Enabled {
		return
	}

	profiles, err := p.store.Profiles(ctx)
	if err != nil {
		p.logger.Warn("profile lookup for notification failed", "error", err)
		return
	}
	if len(profiles) == 0 {
		return
	}

	verticals, err := p.store.GrantVerticals(ctx, grant.ID)
	if err != nil {
		p.logger.Warn("vertical lookup for notification failed", "grant", grant.ID, "error", err)
	}

	msg, err := p.renderer.Render(notify.GrantAlert{Grant: grant, Verticals: verticals})
	if err != nil {
		p.logger.Warn("alert rendering failed", "grant", grant.ID, "error", err)
		return
	}

	for _, profile := range profiles {
		if match.SectorBonus(profile.SectorCategory, verticals) <= 0.5 {
			continue
		}
		if err := p.sender.Send(profile.Contact, msg); err != nil {
			p.logger.Warn("alert delivery failed", "to", profile.Contact, "error", err)
		}
	}
}
