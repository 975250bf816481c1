package extract

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/opensme/grantscout/internal/llm"
)

// fakeProvider replays scripted responses, one per Generate call.
type fakeProvider struct {
	replies []string
	errs    []error
	calls   int
}

func (f *fakeProvider) Name() string      { return "fake" }
func (f *fakeProvider) IsAvailable(ctx context.Context) bool { return true }

func (f *fakeProvider) Generate(ctx context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if i < len(f.replies) {
		return &llm.GenerateResponse{Text: f.replies[i]}, nil
	}
	return nil, errors.New("no scripted response")
}

const validReply = `{
	"name": "Green Manufacturing Grant",
	"description": "Funds energy efficiency upgrades in production facilities.",
	"funding_type": "Grant",
	"max_value": "EUR 500,000",
	"max_subsidy": "EUR 150,000",
	"target_verticals": ["Manufacturing"],
	"technologies": ["Solar"],
	"size_eligibility": ["Small", "Medium"],
	"criterion_1": "Applicant must be a registered company",
	"criterion_2": "",
	"geographic_filters": [],
	"countries": ["Netherlands"]
}`

func testDoc() string {
	return strings.Repeat("grant program details for businesses ", 20)
}

func noSleep(t *testing.T) {
	t.Helper()
	orig := sleepFunc
	sleepFunc = func(time.Duration) {}
	t.Cleanup(func() { sleepFunc = orig })
}

func TestExtractSuccess(t *testing.T) {
	provider := &fakeProvider{replies: []string{validReply}}
	e := New(provider, nil, DefaultOptions(), nil)

	grant, err := e.Extract(context.Background(), testDoc(), "notice.txt")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if grant.Name != "Green Manufacturing Grant" {
		t.Errorf("Name = %q", grant.Name)
	}
	if grant.ID != GrantID("notice.txt") {
		t.Errorf("ID = %q, want derived from source file", grant.ID)
	}
	if grant.SourceFile != "notice.txt" {
		t.Errorf("SourceFile = %q", grant.SourceFile)
	}
	if len(grant.Criteria) != 1 {
		t.Errorf("Criteria count = %d, want 1 (empty criterion_2 dropped)", len(grant.Criteria))
	}
}

func TestExtractTooShortSkipsGeneration(t *testing.T) {
	provider := &fakeProvider{replies: []string{validReply}}
	e := New(provider, nil, DefaultOptions(), nil)

	_, err := e.Extract(context.Background(), "   too short   ", "small.txt")
	if !errors.Is(err, ErrNoContent) {
		t.Fatalf("Extract() error = %v, want ErrNoContent", err)
	}
	if provider.calls != 0 {
		t.Errorf("Generate called %d times for empty document, want 0", provider.calls)
	}
}

func TestExtractWhitespaceOnlyCountsAsEmpty(t *testing.T) {
	e := New(&fakeProvider{}, nil, DefaultOptions(), nil)

	doc := strings.Repeat(" \n\t", 200)
	if _, err := e.Extract(context.Background(), doc, "blank.txt"); !errors.Is(err, ErrNoContent) {
		t.Fatalf("Extract() error = %v, want ErrNoContent", err)
	}
}

func TestExtractNotRelevant(t *testing.T) {
	tests := []struct {
		name   string
		reply  string
		wantRc bool
	}{
		{"bare sentinel", "NOT_RELEVANT", true},
		{"sentinel with padding", "  NOT_RELEVANT.  ", true},
		{"sentinel inside long reply", validReply + " NOT_RELEVANT", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &fakeProvider{replies: []string{tt.reply}}
			e := New(provider, nil, DefaultOptions(), nil)

			_, err := e.Extract(context.Background(), testDoc(), "doc.txt")
			if got := errors.Is(err, ErrNotRelevant); got != tt.wantRc {
				t.Errorf("errors.Is(err, ErrNotRelevant) = %v, want %v (err=%v)", got, tt.wantRc, err)
			}
		})
	}
}

func TestExtractRetriesTransientErrors(t *testing.T) {
	noSleep(t)

	provider := &fakeProvider{
		errs:    []error{errors.New("backend down"), errors.New("backend down"), nil},
		replies: []string{"", "", validReply},
	}
	e := New(provider, nil, DefaultOptions(), nil)

	grant, err := e.Extract(context.Background(), testDoc(), "doc.txt")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if grant == nil || provider.calls != 3 {
		t.Errorf("calls = %d, want 3", provider.calls)
	}
}

func TestExtractExhaustsAttempts(t *testing.T) {
	noSleep(t)

	backendErr := errors.New("backend down")
	provider := &fakeProvider{errs: []error{backendErr, backendErr, backendErr, backendErr}}
	e := New(provider, nil, DefaultOptions(), nil)

	_, err := e.Extract(context.Background(), testDoc(), "doc.txt")
	if !errors.Is(err, ErrRetriesExhausted) {
		t.Fatalf("Extract() error = %v, want ErrRetriesExhausted", err)
	}
	if provider.calls != DefaultOptions().MaxAttempts {
		t.Errorf("calls = %d, want exactly %d", provider.calls, DefaultOptions().MaxAttempts)
	}
}

func TestExtractRetriesMalformedOutput(t *testing.T) {
	provider := &fakeProvider{replies: []string{"sorry, I cannot do that", validReply}}
	e := New(provider, nil, DefaultOptions(), nil)

	grant, err := e.Extract(context.Background(), testDoc(), "doc.txt")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if grant.Name == "" || provider.calls != 2 {
		t.Errorf("calls = %d, want 2 (one failed parse, one success)", provider.calls)
	}
}

func TestExtractTruncatesLongDocuments(t *testing.T) {
	var gotPrompt string
	provider := &promptCapture{reply: validReply, prompt: &gotPrompt}
	opts := DefaultOptions()
	opts.MaxDocChars = 500

	e := New(provider, nil, opts, nil)
	doc := strings.Repeat("x", 5000)
	if _, err := e.Extract(context.Background(), doc, "big.txt"); err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if strings.Count(gotPrompt, "x") > 500 {
		t.Errorf("prompt carries %d document chars, want at most 500", strings.Count(gotPrompt, "x"))
	}
}

func TestExtractTruncatesOnRuneBoundary(t *testing.T) {
	var gotPrompt string
	provider := &promptCapture{reply: validReply, prompt: &gotPrompt}
	opts := DefaultOptions()
	opts.MaxDocChars = 101 // lands mid-rune in a two-byte sequence

	e := New(provider, nil, opts, nil)
	doc := strings.Repeat("é", 100)
	if _, err := e.Extract(context.Background(), doc, "accents.txt"); err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if !utf8.ValidString(gotPrompt) {
		t.Error("prompt is not valid UTF-8 after truncation")
	}
}

type promptCapture struct {
	reply  string
	prompt *string
}

func (p *promptCapture) Name() string      { return "capture" }
func (p *promptCapture) IsAvailable(ctx context.Context) bool { return true }

func (p *promptCapture) Generate(ctx context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
	*p.prompt = req.Prompt
	return &llm.GenerateResponse{Text: p.reply}, nil
}

// staticPolicy satisfies PolicyLoader for tests.
type staticPolicy string

func (s staticPolicy) Load() string { return string(s) }

func TestExtractUsesLoadedPolicy(t *testing.T) {
	var gotSystem string
	provider := &systemCapture{reply: validReply, system: &gotSystem}

	e := New(provider, staticPolicy("CUSTOM POLICY TEXT"), DefaultOptions(), nil)
	if _, err := e.Extract(context.Background(), testDoc(), "doc.txt"); err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if gotSystem != "CUSTOM POLICY TEXT" {
		t.Errorf("system prompt = %q, want loaded policy text", gotSystem)
	}
}

type systemCapture struct {
	reply  string
	system *string
}

func (s *systemCapture) Name() string      { return "capture" }
func (s *systemCapture) IsAvailable(ctx context.Context) bool { return true }

func (s *systemCapture) Generate(ctx context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
	*s.system = req.System
	return &llm.GenerateResponse{Text: s.reply}, nil
}

func TestGrantID(t *testing.T) {
	id := GrantID("notice.txt")
	if !strings.HasPrefix(id, "grant_") {
		t.Errorf("GrantID = %q, want grant_ prefix", id)
	}
	if len(id) != len("grant_")+16 {
		t.Errorf("GrantID length = %d, want %d", len(id), len("grant_")+16)
	}
	if GrantID("notice.txt") != GrantID("  notice.txt  ") {
		t.Error("GrantID should ignore surrounding whitespace")
	}
	if GrantID("a.txt") == GrantID("b.txt") {
		t.Error("distinct source files must produce distinct IDs")
	}
}

func TestGrantIDStable(t *testing.T) {
	// The derivation is part of the storage contract: changing it would
	// orphan every previously ingested record.
	want := GrantID("fixed-name.txt")
	for i := 0; i < 3; i++ {
		if got := GrantID("fixed-name.txt"); got != want {
			t.Fatalf("GrantID not deterministic: %q vs %q", got, want)
		}
	}
}
