// Package crawl discovers grant documents on funding portal websites: a
// polite same-domain spider that collects linked PDF documents for the
// ingestion pipeline.
package crawl

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/opensme/grantscout/internal/util"
)

// Fetcher retrieves page and document bodies with a size cap.
type Fetcher struct {
	client    *http.Client
	userAgent string
	maxBytes  int64
}

// FetcherOptions configures the HTTP client behind a Fetcher.
type FetcherOptions struct {
	Timeout     time.Duration
	UserAgent   string
	MaxBytes    int64
	InsecureTLS bool
	HTTPProxy   string
	HTTPSProxy  string
	NoProxy     string
}

// NewFetcher creates a Fetcher. TLS verification is only relaxed when the
// options explicitly say so; the setting stays scoped to this client.
func NewFetcher(opts FetcherOptions) *Fetcher {
	return &Fetcher{
		client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: util.NewTransport(opts.InsecureTLS, opts.HTTPProxy, opts.HTTPSProxy, opts.NoProxy),
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		userAgent: opts.UserAgent,
		maxBytes:  opts.MaxBytes,
	}
}

// FetchResult holds a fetched body and the metadata needed by the spider.
type FetchResult struct {
	Body        []byte
	ContentType string
	FinalURL    string
}

// Fetch retrieves a URL, returning at most maxBytes of the body.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/pdf;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return &FetchResult{
		Body:        body,
		ContentType: resp.Header.Get("Content-Type"),
		FinalURL:    resp.Request.URL.String(),
	}, nil
}
