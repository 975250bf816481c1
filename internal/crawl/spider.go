package crawl

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/opensme/grantscout/internal/cache"
	"github.com/opensme/grantscout/internal/worker"
)

// Document is a downloadable grant document discovered during a crawl.
type Document struct {
	URL     string `json:"url"`
	FoundOn string `json:"found_on"`
	Depth   int    `json:"depth"`
}

// Options bounds a crawl. The defaults keep runs short: portal grant pages
// are shallow and the interesting documents sit close to the seed.
type Options struct {
	DepthLimit int
	PageLimit  int
	ObeyRobots bool
}

// DefaultOptions returns the crawl bounds used when the config is silent.
func DefaultOptions() Options {
	return Options{DepthLimit: 2, PageLimit: 5, ObeyRobots: true}
}

// Spider walks a portal site breadth-first collecting document links. It
// never leaves the seed's host.
type Spider struct {
	fetcher *Fetcher
	robots  *RobotsChecker
	limiter *worker.Limiter
	pages   cache.Cache
	opts    Options
	logger  *slog.Logger
}

// NewSpider assembles a spider. The page cache and robots checker are
// optional; passing nil disables them.
func NewSpider(fetcher *Fetcher, robots *RobotsChecker, limiter *worker.Limiter, pages cache.Cache, opts Options, logger *slog.Logger) *Spider {
	if opts.DepthLimit <= 0 {
		opts.DepthLimit = DefaultOptions().DepthLimit
	}
	if opts.PageLimit <= 0 {
		opts.PageLimit = DefaultOptions().PageLimit
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Spider{
		fetcher: fetcher,
		robots:  robots,
		limiter: limiter,
		pages:   pages,
		opts:    opts,
		logger:  logger,
	}
}

type crawlItem struct {
	url   string
	depth int
}

// Crawl walks pages reachable from seed and returns the documents found,
// deduplicated by URL. Individual page failures are logged and skipped.
func (s *Spider) Crawl(ctx context.Context, seed string) ([]Document, error) {
	seedURL, err := url.Parse(seed)
	if err != nil {
		return nil, fmt.Errorf("parse seed URL: %w", err)
	}
	if seedURL.Host == "" {
		return nil, fmt.Errorf("seed URL %q has no host", seed)
	}

	queue := []crawlItem{{url: seedURL.String(), depth: 0}}
	visited := map[string]bool{}
	seenDocs := map[string]bool{}
	var docs []Document
	fetched := 0

	for len(queue) > 0 && fetched < s.opts.PageLimit {
		if err := ctx.Err(); err != nil {
			return docs, err
		}

		item := queue[0]
		queue = queue[1:]
		if visited[item.url] {
			continue
		}
		visited[item.url] = true

		body, ok := s.fetchPage(ctx, item.url)
		if !ok {
			continue
		}
		fetched++

		pageDocs, links := s.parsePage(item.url, body)
		for _, d := range pageDocs {
			if seenDocs[d] {
				continue
			}
			seenDocs[d] = true
			docs = append(docs, Document{URL: d, FoundOn: item.url, Depth: item.depth})
		}

		if item.depth >= s.opts.DepthLimit {
			continue
		}
		for _, link := range links {
			if !visited[link] && sameHost(seedURL, link) {
				queue = append(queue, crawlItem{url: link, depth: item.depth + 1})
			}
		}
	}

	s.logger.Info("crawl finished", "seed", seed, "pages", fetched, "documents", len(docs))
	return docs, nil
}

// fetchPage retrieves one page honoring the rate limit, robots rules and
// the page cache.
func (s *Spider) fetchPage(ctx context.Context, pageURL string) ([]byte, bool) {
	if s.pages != nil {
		if body, found := s.pages.Get(cache.Key(pageURL)); found {
			s.logger.Debug("page cache hit", "url", pageURL)
			return body, true
		}
	}

	if s.opts.ObeyRobots && s.robots != nil {
		allowed, _, err := s.robots.CanFetch(ctx, pageURL)
		if err == nil && !allowed {
			s.logger.Debug("blocked by robots.txt", "url", pageURL)
			return nil, false
		}
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx, pageURL); err != nil {
			return nil, false
		}
	}

	res, err := s.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		s.logger.Warn("page fetch failed", "url", pageURL, "error", err)
		return nil, false
	}
	if !strings.Contains(res.ContentType, "html") {
		return nil, false
	}

	if s.pages != nil {
		if err := s.pages.Set(cache.Key(pageURL), res.Body, 0); err != nil {
			s.logger.Debug("page cache write failed", "url", pageURL, "error", err)
		}
	}
	return res.Body, true
}

// openDocPattern matches the javascript document viewer some portals use
// instead of plain links.
var openDocPattern = regexp.MustCompile(`open_doc\('([^']+)'\)`)

// parsePage extracts document URLs and follow-up page links from HTML.
func (s *Spider) parsePage(pageURL string, body []byte) (docs, links []string) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, nil
	}

	root, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		s.logger.Debug("html parse failed", "url", pageURL, "error", err)
		return nil, nil
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				switch attr.Key {
				case "href":
					if resolved, ok := resolveLink(base, attr.Val); ok {
						if isDocumentURL(resolved) {
							docs = append(docs, resolved)
						} else {
							links = append(links, resolved)
						}
					}
				case "onclick":
					for _, m := range openDocPattern.FindAllStringSubmatch(attr.Val, -1) {
						if resolved, ok := resolveLink(base, m[1]); ok {
							docs = append(docs, resolved)
						}
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return docs, links
}

// resolveLink turns an href into an absolute http(s) URL without fragment.
func resolveLink(base *url.URL, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") ||
		strings.HasPrefix(href, "javascript:") || strings.HasPrefix(href, "mailto:") {
		return "", false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	resolved := base.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return "", false
	}
	resolved.Fragment = ""
	return resolved.String(), true
}

// isDocumentURL reports whether a link points at a grant document.
func isDocumentURL(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return strings.HasSuffix(strings.ToLower(parsed.Path), ".pdf")
}

func sameHost(seed *url.URL, rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return strings.EqualFold(parsed.Host, seed.Host)
}

// Download fetches each document into dir, named by its URL path base.
// Returns the local paths of successful downloads.
func (s *Spider) Download(ctx context.Context, docs []Document, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create download dir: %w", err)
	}

	var paths []string
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return paths, err
		}
		if s.limiter != nil {
			if err := s.limiter.Wait(ctx, doc.URL); err != nil {
				return paths, err
			}
		}

		res, err := s.fetcher.Fetch(ctx, doc.URL)
		if err != nil {
			s.logger.Warn("document download failed", "url", doc.URL, "error", err)
			continue
		}

		name := documentFileName(doc.URL)
		dest := filepath.Join(dir, name)
		if err := os.WriteFile(dest, res.Body, 0o644); err != nil {
			s.logger.Warn("document write failed", "path", dest, "error", err)
			continue
		}
		paths = append(paths, dest)
	}
	return paths, nil
}

// documentFileName derives a safe local filename from a document URL.
func documentFileName(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "document.pdf"
	}
	name := path.Base(parsed.Path)
	if name == "" || name == "." || name == "/" {
		return "document.pdf"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, name)
}
