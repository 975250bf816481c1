package llm

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// DefaultPolicy is the built-in relevance and extraction policy. The policy is
// data, not code: a PolicyStore can supersede it at runtime without a deploy.
// The irrelevance sentinel and the output schema are part of the extractor's
// wire contract and must survive any rewrite.
const DefaultPolicy = `You are an analyst for a government-grant discovery service.

You receive the text of one document. First decide relevance:
- RELEVANT: the document describes a government grant, scheme, subsidy, loan
  program, equity offer, or incentive program for businesses.
- NOT RELEVANT: receipts, invoices, personal correspondence, generic news
  articles, tender results, or empty/unintelligible content.

If the document is not relevant, reply with exactly:
NOT_RELEVANT

Otherwise reply with ONLY a JSON object (no prose) in this shape:
{
  "name": "official program name",
  "description": "2-3 sentence summary of what is funded",
  "funding_type": "Subsidy" | "Loan" | "Grant" | "Equity",
  "max_value": "maximum project value as written, with currency",
  "max_subsidy": "maximum support amount as written, with currency",
  "target_verticals": ["industry", ...] or "All Verticals",
  "technologies": ["technology", ...],
  "size_eligibility": ["Micro" | "Small" | "Medium" | "Large", ...],
  "criterion_1": "the primary mandatory eligibility condition",
  "criterion_2": "a secondary mandatory condition, or empty string",
  "geographic_filters": ["state or region", ...] (empty if nationwide),
  "countries": ["country", ...]
}

Rules:
- "name" is required and must not be empty.
- Prefer a plausible inference from context over an empty field.
- Never invent the relevance verdict: when in doubt about whether the text
  describes a funding program at all, answer NOT_RELEVANT.`

// IrrelevanceSentinel is the token a generation returns for non-grant documents
const IrrelevanceSentinel = "NOT_RELEVANT"

const (
	activeFileName   = "ACTIVE"
	feedbackFileName = "feedback_notes.txt"
)

// PolicyStore manages versioned extraction policy text on disk.
// An empty or missing store falls back to DefaultPolicy, so the extractor
// always has a policy to load at the start of each invocation.
type PolicyStore struct {
	dir string
}

// NewPolicyStore creates a policy store rooted at dir.
// An empty dir means "built-in policy only".
func NewPolicyStore(dir string) *PolicyStore {
	return &PolicyStore{dir: dir}
}

// Load returns the active policy text. Missing store, missing active pointer
// or unreadable version all degrade to DefaultPolicy rather than erroring:
// extraction must never be blocked by policy bookkeeping.
func (s *PolicyStore) Load() string {
	if s == nil || s.dir == "" {
		return DefaultPolicy
	}

	active, err := os.ReadFile(filepath.Join(s.dir, activeFileName))
	if err != nil {
		return DefaultPolicy
	}

	name := strings.TrimSpace(string(active))
	if name == "" {
		return DefaultPolicy
	}

	text, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return DefaultPolicy
	}

	return string(text)
}

// SaveVersion writes a new policy version and returns its name.
// The new version is NOT activated; activation is a separate, deliberate step
// so machine-rewritten policy text can be reviewed before it takes effect.
func (s *PolicyStore) SaveVersion(text string) (string, error) {
	if s.dir == "" {
		return "", fmt.Errorf("policy store has no directory configured")
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create policy dir: %w", err)
	}

	name := fmt.Sprintf("policy_%s.txt", time.Now().UTC().Format("20060102T150405"))
	if err := os.WriteFile(filepath.Join(s.dir, name), []byte(text), 0o644); err != nil {
		return "", fmt.Errorf("write policy version: %w", err)
	}
	return name, nil
}

// Activate marks the named version as the one Load returns.
func (s *PolicyStore) Activate(name string) error {
	if s.dir == "" {
		return fmt.Errorf("policy store has no directory configured")
	}
	if _, err := os.Stat(filepath.Join(s.dir, name)); err != nil {
		return fmt.Errorf("policy version %q not found: %w", name, err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, activeFileName), []byte(name+"\n"), 0o644); err != nil {
		return fmt.Errorf("write active pointer: %w", err)
	}
	return nil
}

// ActiveVersion returns the name of the activated version, or "" when the
// built-in policy is in effect.
func (s *PolicyStore) ActiveVersion() string {
	if s == nil || s.dir == "" {
		return ""
	}
	active, err := os.ReadFile(filepath.Join(s.dir, activeFileName))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(active))
}

// Versions lists stored policy versions, oldest first.
func (s *PolicyStore) Versions() ([]string, error) {
	if s.dir == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read policy dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasPrefix(e.Name(), "policy_") && strings.HasSuffix(e.Name(), ".txt") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// AppendFeedback records a correction complaint for a later policy rewrite.
// The rewrite mechanism itself is an external collaborator; the store only
// accumulates the raw material.
func (s *PolicyStore) AppendFeedback(grantID, reason string) error {
	if s.dir == "" {
		return fmt.Errorf("policy store has no directory configured")
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create policy dir: %w", err)
	}

	f, err := os.OpenFile(filepath.Join(s.dir, feedbackFileName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open feedback file: %w", err)
	}
	defer f.Close()

	line := fmt.Sprintf("%s\t%s\t%s\n", time.Now().UTC().Format(time.RFC3339), grantID, strings.ReplaceAll(reason, "\n", " "))
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("append feedback: %w", err)
	}
	return nil
}
