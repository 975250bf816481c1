package extract

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/opensme/grantscout/internal/llm"
	"github.com/opensme/grantscout/internal/model"
)

// Terminal outcomes of an extraction attempt. Callers treat all three as
// "skip this document", never as pipeline-fatal.
var (
	// ErrNoContent means the document was too short to carry a grant
	ErrNoContent = errors.New("document has no meaningful content")

	// ErrNotRelevant means the policy classified the document as not a grant
	ErrNotRelevant = errors.New("document is not a grant")

	// ErrRetriesExhausted means every generation attempt produced unusable output
	ErrRetriesExhausted = errors.New("extraction retries exhausted")
)

// sleepFunc is the pause used before retrying transient provider errors
// (injectable for tests)
var sleepFunc = time.Sleep

// A short response containing the sentinel is an irrelevance verdict; longer
// responses that merely mention the token are treated as extraction output.
const sentinelMaxLen = 64

// PolicyLoader supplies the current extraction policy text.
// Loaded at the start of every extraction so policy updates take effect
// without a restart.
type PolicyLoader interface {
	Load() string
}

// Options bound the extraction state machine
type Options struct {
	MaxDocChars int
	MinDocChars int
	MaxAttempts int
	RetryPause  time.Duration
}

// DefaultOptions returns the bounds used in production
func DefaultOptions() Options {
	return Options{
		MaxDocChars: 15000,
		MinDocChars: 50,
		MaxAttempts: 3,
		RetryPause:  2 * time.Second,
	}
}

// Extractor turns raw document text into a validated Grant record, or decides
// the document is irrelevant. It tolerates unreliable generative output by
// retrying the whole generation call up to a fixed bound.
type Extractor struct {
	provider llm.Provider
	policy   PolicyLoader
	opts     Options
	logger   *slog.Logger
}

// New creates an Extractor. policy may be nil, in which case the built-in
// default policy is used for every call.
func New(provider llm.Provider, policy PolicyLoader, opts Options, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultOptions().MaxAttempts
	}
	if opts.MaxDocChars <= 0 {
		opts.MaxDocChars = DefaultOptions().MaxDocChars
	}
	if opts.MinDocChars <= 0 {
		opts.MinDocChars = DefaultOptions().MinDocChars
	}
	return &Extractor{
		provider: provider,
		policy:   policy,
		opts:     opts,
		logger:   logger,
	}
}

// Extract runs the classify-then-extract state machine for one document.
//
// Returns the validated record, or one of ErrNoContent, ErrNotRelevant,
// ErrRetriesExhausted. No partial record is ever returned alongside an error.
func (e *Extractor) Extract(ctx context.Context, docText, sourceFile string) (*model.Grant, error) {
	if countNonWhitespace(docText) < e.opts.MinDocChars {
		e.logger.Info("skipping document: no content", "source", sourceFile)
		return nil, ErrNoContent
	}

	// Bounded prefix keeps the call inside the model's context budget.
	// The cut backs up to a rune boundary so the prompt stays valid UTF-8.
	text := docText
	if len(text) > e.opts.MaxDocChars {
		cut := e.opts.MaxDocChars
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
	}

	policy := llm.DefaultPolicy
	if e.policy != nil {
		policy = e.policy.Load()
	}

	prompt := fmt.Sprintf("Document filename: %s\n\nDocument text:\n---\n%s\n---", sourceFile, text)

	var lastErr error
	for attempt := 1; attempt <= e.opts.MaxAttempts; attempt++ {
		resp, err := e.provider.Generate(ctx, llm.GenerateRequest{
			System:      policy,
			Prompt:      prompt,
			Temperature: 0,
		})
		if err != nil {
			// Transient backend error: pause briefly, then spend another attempt.
			lastErr = err
			e.logger.Warn("generation call failed", "source", sourceFile, "attempt", attempt, "error", err)
			if attempt < e.opts.MaxAttempts {
				sleepFunc(e.opts.RetryPause)
			}
			continue
		}

		reply := strings.TrimSpace(resp.Text)

		// Irrelevance verdict aborts cleanly, before any JSON handling.
		if len(reply) <= sentinelMaxLen && strings.Contains(reply, llm.IrrelevanceSentinel) {
			e.logger.Info("document classified as not relevant", "source", sourceFile)
			return nil, ErrNotRelevant
		}

		grant, err := decodeGrant(reply)
		if err != nil {
			// Malformed output: retry immediately, no pause.
			lastErr = err
			e.logger.Warn("unusable generation output", "source", sourceFile, "attempt", attempt, "error", err)
			continue
		}

		grant.ID = GrantID(sourceFile)
		grant.SourceFile = sourceFile
		return grant, nil
	}

	e.logger.Error("extraction failed, document skipped", "source", sourceFile, "attempts", e.opts.MaxAttempts, "error", lastErr)
	return nil, fmt.Errorf("%w after %d attempts: %v", ErrRetriesExhausted, e.opts.MaxAttempts, lastErr)
}

// GrantID derives a stable identifier from the source filename, so
// re-ingesting the same document updates the existing record instead of
// creating a duplicate.
func GrantID(sourceFile string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(sourceFile)))
	return "grant_" + hex.EncodeToString(sum[:8])
}

func countNonWhitespace(s string) int {
	n := 0
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			n++
		}
	}
	return n
}
