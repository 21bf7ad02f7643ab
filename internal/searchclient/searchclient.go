// Package searchclient provides a shared, rate-limited HTTP client for the
// search-engine HTML endpoints the discovery strategies scrape. Keeping one
// limiter across strategies avoids hammering the engines when a batch of
// enrichment jobs runs.
package searchclient

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/enrich-cli/internal/config"
	"github.com/sells-group/enrich-cli/internal/resilience"
)

const (
	userAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
	maxBodyBytes = 512 * 1024
)

// Client fetches search-result pages with rate limiting and transient-error
// retry.
type Client struct {
	http       *http.Client
	limiter    *rate.Limiter
	retries    int
	maxResults int
	ddgBase    string
	googleBase string
}

// New creates a Client from search configuration.
func New(cfg config.SearchConfig) *Client {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	rps := cfg.RatePerSec
	if rps <= 0 {
		rps = 1.0
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 5
	}

	return &Client{
		http: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: timeout,
				}).DialContext,
				TLSHandshakeTimeout: timeout,
			},
		},
		limiter:    rate.NewLimiter(rate.Limit(rps), burst),
		retries:    cfg.Retries,
		maxResults: maxResults,
		ddgBase:    strings.TrimSuffix(cfg.DuckDuckGoBaseURL, "/"),
		googleBase: strings.TrimSuffix(cfg.GoogleBaseURL, "/"),
	}
}

// GetHTML fetches a URL and returns the response body as a string. Transient
// failures are retried once; non-2xx statuses are errors.
func (c *Client) GetHTML(ctx context.Context, targetURL string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", eris.Wrap(err, "searchclient: rate limit wait")
	}

	var body string
	cfg := resilience.RetryConfig{MaxAttempts: c.retries + 1, Delay: time.Second}
	err := resilience.Do(ctx, cfg, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
		if err != nil {
			return eris.Wrap(err, "searchclient: create request")
		}
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")

		resp, err := c.http.Do(req)
		if err != nil {
			return eris.Wrap(err, "searchclient: fetch")
		}
		defer func() { _ = resp.Body.Close() }()

		raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return eris.Wrap(err, "searchclient: read body")
		}

		if resp.StatusCode >= 400 {
			err := eris.Errorf("searchclient: status %d for %s", resp.StatusCode, targetURL)
			if resilience.IsTransientHTTPStatus(resp.StatusCode) {
				return resilience.NewTransientError(err, resp.StatusCode)
			}
			return err
		}

		body = string(raw)
		return nil
	})
	return body, err
}

var (
	ddgResultRe    = regexp.MustCompile(`(?is)<a[^>]+class="[^"]*result__a[^"]*"[^>]+href="([^"]+)"`)
	googleResultRe = regexp.MustCompile(`(?i)href="/url\?q=([^&"]+)`)
)

// SearchDuckDuckGo runs a query against the DuckDuckGo HTML endpoint and
// returns up to MaxResults result URLs, with redirect wrappers decoded.
func (c *Client) SearchDuckDuckGo(ctx context.Context, query string) ([]string, error) {
	searchURL := c.ddgBase + "/html/?q=" + url.QueryEscape(query)
	body, err := c.GetHTML(ctx, searchURL)
	if err != nil {
		return nil, err
	}

	var links []string
	for _, m := range ddgResultRe.FindAllStringSubmatch(body, -1) {
		link := decodeDuckDuckGoRedirect(htmlUnescape(m[1]))
		if link != "" {
			links = append(links, link)
		}
		if len(links) >= c.maxResults {
			break
		}
	}
	return links, nil
}

// SearchGoogle runs a query against Google's HTML results page and returns
// up to MaxResults result URLs.
func (c *Client) SearchGoogle(ctx context.Context, query string) ([]string, error) {
	searchURL := c.googleBase + "/search?q=" + url.QueryEscape(query)
	body, err := c.GetHTML(ctx, searchURL)
	if err != nil {
		return nil, err
	}

	var links []string
	for _, m := range googleResultRe.FindAllStringSubmatch(body, -1) {
		link, err := url.QueryUnescape(htmlUnescape(m[1]))
		if err != nil || link == "" {
			continue
		}
		if !strings.HasPrefix(link, "http") {
			continue
		}
		links = append(links, link)
		if len(links) >= c.maxResults {
			break
		}
	}
	return links, nil
}

// decodeDuckDuckGoRedirect unwraps //duckduckgo.com/l/?uddg=<real> links to
// the destination URL. Links without the wrapper pass through unchanged.
func decodeDuckDuckGoRedirect(link string) string {
	if !strings.Contains(link, "duckduckgo.com/l/?") {
		return link
	}
	idx := strings.Index(link, "?")
	q, err := url.ParseQuery(link[idx+1:])
	if err != nil {
		return link
	}
	if real := q.Get("uddg"); real != "" {
		return real
	}
	return link
}

// htmlUnescape decodes the entities that appear in href attributes.
func htmlUnescape(s string) string {
	return strings.NewReplacer("&amp;", "&", "&#39;", "'", "&quot;", `"`).Replace(s)
}
