package crawl

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"
)

func testSpider(opts Options) *Spider {
	fetcher := NewFetcher(FetcherOptions{
		Timeout:   5 * time.Second,
		UserAgent: "grantscout-test",
		MaxBytes:  1 << 20,
	})
	return NewSpider(fetcher, nil, nil, nil, opts, nil)
}

func TestParsePageExtractsDocumentLinks(t *testing.T) {
	page := `<html><body>
		<a href="/docs/subsidy_scheme.pdf">Subsidy scheme</a>
		<a href="https://portal.example.org/grants/page2">More grants</a>
		<a href="#" onclick="open_doc('/docs/innovation_grant.pdf')">Innovation grant</a>
		<a href="mailto:info@example.org">Contact</a>
		<a href="javascript:void(0)">Noop</a>
	</body></html>`

	s := testSpider(DefaultOptions())
	docs, links := s.parsePage("https://portal.example.org/grants", []byte(page))

	if len(docs) != 2 {
		t.Fatalf("got %d documents, want 2: %v", len(docs), docs)
	}
	if docs[0] != "https://portal.example.org/docs/subsidy_scheme.pdf" {
		t.Errorf("href document = %s", docs[0])
	}
	if docs[1] != "https://portal.example.org/docs/innovation_grant.pdf" {
		t.Errorf("onclick document = %s", docs[1])
	}

	if len(links) != 1 || links[0] != "https://portal.example.org/grants/page2" {
		t.Errorf("links = %v, want only the page link", links)
	}
}

func TestResolveLink(t *testing.T) {
	base, _ := url.Parse("https://portal.example.org/grants/list")

	tests := []struct {
		href string
		want string
		ok   bool
	}{
		{"/docs/a.pdf", "https://portal.example.org/docs/a.pdf", true},
		{"detail?id=7", "https://portal.example.org/grants/detail?id=7", true},
		{"https://other.example.com/x", "https://other.example.com/x", true},
		{"page#section", "https://portal.example.org/grants/page", true},
		{"#anchor", "", false},
		{"mailto:a@b.c", "", false},
		{"javascript:go()", "", false},
		{"ftp://example.org/file", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := resolveLink(base, tt.href)
		if ok != tt.ok || got != tt.want {
			t.Errorf("resolveLink(%q) = %q, %v; want %q, %v", tt.href, got, ok, tt.want, tt.ok)
		}
	}
}

func TestIsDocumentURL(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://x.org/a.pdf", true},
		{"https://x.org/a.PDF", true},
		{"https://x.org/a.pdf?download=1", true},
		{"https://x.org/a.html", false},
		{"https://x.org/pdf-guide", false},
	}

	for _, tt := range tests {
		if got := isDocumentURL(tt.url); got != tt.want {
			t.Errorf("isDocumentURL(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}

func TestDocumentFileName(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://x.org/docs/grant_2026.pdf", "grant_2026.pdf"},
		{"https://x.org/", "document.pdf"},
		{"https://x.org/a:b*c.pdf", "a_b_c.pdf"},
	}

	for _, tt := range tests {
		if got := documentFileName(tt.url); got != tt.want {
			t.Errorf("documentFileName(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestCrawlHonorsPageLimit(t *testing.T) {
	var pages int
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		pages++
		w.Header().Set("Content-Type", "text/html")
		// Every page links to two more, so an unbounded crawl never ends.
		fmt.Fprintf(w, `<html><body>
			<a href="/page-%d-a">a</a>
			<a href="/page-%d-b">b</a>
			<a href="/doc-%d.pdf">doc</a>
		</body></html>`, pages, pages, pages)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	s := testSpider(Options{DepthLimit: 10, PageLimit: 3, ObeyRobots: false})
	docs, err := s.Crawl(context.Background(), srv.URL+"/")
	if err != nil {
		t.Fatalf("Crawl() error = %v", err)
	}

	if pages != 3 {
		t.Errorf("fetched %d pages, want exactly 3", pages)
	}
	if len(docs) != 3 {
		t.Errorf("got %d documents, want one per fetched page", len(docs))
	}
}

func TestCrawlHonorsDepthLimit(t *testing.T) {
	var fetched []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetched = append(fetched, r.URL.Path)
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprintf(w, `<html><body><a href="%s/deeper">next</a></body></html>`, r.URL.Path)
	}))
	defer srv.Close()

	s := testSpider(Options{DepthLimit: 1, PageLimit: 50, ObeyRobots: false})
	if _, err := s.Crawl(context.Background(), srv.URL+"/start"); err != nil {
		t.Fatalf("Crawl() error = %v", err)
	}

	// Depth 0 is the seed, depth 1 its link; the depth-2 page must not be
	// fetched.
	if len(fetched) != 2 {
		t.Errorf("fetched %v, want seed plus one level", fetched)
	}
}

func TestCrawlStaysOnHost(t *testing.T) {
	other := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("crawler left the seed host: %s", r.URL)
	}))
	defer other.Close()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprintf(w, `<html><body><a href="%s/offsite">offsite</a></body></html>`, other.URL)
	}))
	defer srv.Close()

	s := testSpider(Options{DepthLimit: 3, PageLimit: 10, ObeyRobots: false})
	if _, err := s.Crawl(context.Background(), srv.URL+"/"); err != nil {
		t.Fatalf("Crawl() error = %v", err)
	}
}

func TestCrawlRejectsBadSeed(t *testing.T) {
	s := testSpider(DefaultOptions())
	if _, err := s.Crawl(context.Background(), "not-a-url"); err == nil {
		t.Fatal("Crawl() accepted a seed without a host")
	}
}
