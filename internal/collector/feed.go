package collector

import (
	"context"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/persona-chat/internal/types"
)

// DefaultTimeout is the per-page HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// DefaultUserAgent is the user agent string for feed requests.
const DefaultUserAgent = "Mozilla/5.0 (compatible; PersonaAgent/1.0)"

// DefaultMaxPages bounds how deep pagination goes per feed section.
const DefaultMaxPages = 5

// feedSections are the profile tabs collected concurrently. The empty
// section is the main timeline.
var feedSections = []string{"", "/with_replies"}

// FeedCollector scrapes a user's public feed from a mirror instance.
type FeedCollector struct {
	baseURL    string
	client     *http.Client
	userAgent  string
	useBrowser bool
	maxPages   int
}

// Options configures a FeedCollector.
type Options struct {
	UseBrowser bool // Render pages in a headless browser (script-heavy mirrors)
	MaxPages   int
	Timeout    time.Duration
}

// NewFeedCollector creates a collector against the given mirror base URL.
func NewFeedCollector(baseURL string, opts Options) *FeedCollector {
	if opts.MaxPages <= 0 {
		opts.MaxPages = DefaultMaxPages
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &FeedCollector{
		baseURL:    strings.TrimRight(baseURL, "/"),
		client:     &http.Client{Timeout: opts.Timeout},
		userAgent:  DefaultUserAgent,
		useBrowser: opts.UseBrowser,
		maxPages:   opts.MaxPages,
	}
}

// Collect fetches the user's feed sections concurrently, follows pagination
// up to the configured depth, and returns deduplicated posts newest-first.
func (c *FeedCollector) Collect(ctx context.Context, username string) ([]types.Post, error) {
	g, gctx := errgroup.WithContext(ctx)

	var mu sync.Mutex
	var all []types.Post

	for _, section := range feedSections {
		g.Go(func() error {
			posts, err := c.collectSection(gctx, username, section)
			if err != nil {
				return err
			}
			mu.Lock()
			all = append(all, posts...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return dedupePosts(all), nil
}

// collectSection walks one feed tab page by page, following the cursor link
// until it runs out or the page budget is spent.
func (c *FeedCollector) collectSection(ctx context.Context, username, section string) ([]types.Post, error) {
	pageURL := c.baseURL + "/" + username + section

	var posts []types.Post
	for page := 0; page < c.maxPages && pageURL != ""; page++ {
		html, err := c.fetchPage(ctx, pageURL)
		if err != nil {
			return nil, err
		}

		pagePosts, cursor, err := ParseTimeline(html)
		if err != nil {
			return nil, &Error{URL: pageURL, Message: "failed to parse timeline", Cause: err}
		}
		posts = append(posts, pagePosts...)

		if cursor == "" {
			break
		}
		pageURL = c.baseURL + "/" + username + section + cursor
	}
	return posts, nil
}

// fetchPage retrieves one feed page, rendering it in a headless browser when
// configured for script-heavy mirrors.
func (c *FeedCollector) fetchPage(ctx context.Context, pageURL string) (string, error) {
	if c.useBrowser {
		return fetchRendered(ctx, pageURL, c.client.Timeout)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", &Error{URL: pageURL, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", &Error{URL: pageURL, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &Error{URL: pageURL, Message: "failed to read response body", Cause: err}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &Error{URL: pageURL, Message: "HTTP status " + resp.Status}
	}
	return string(body), nil
}

// dedupePosts drops duplicate IDs (posts appear in both the main timeline
// and the replies tab) and sorts newest-first.
func dedupePosts(posts []types.Post) []types.Post {
	seen := make(map[string]struct{}, len(posts))
	out := posts[:0]
	for _, p := range posts {
		if _, ok := seen[p.ID]; ok && p.ID != "" {
			continue
		}
		seen[p.ID] = struct{}{}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}

// Verify FeedCollector implements Collector.
var _ Collector = (*FeedCollector)(nil)
