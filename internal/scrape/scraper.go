// Package scrape fetches a company website and extracts the fields the
// enrichment pipeline cares about: description, phone and email candidates,
// and social profile links.
package scrape

import (
	"context"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/enrich-cli/internal/config"
	"github.com/sells-group/enrich-cli/internal/model"
)

const scraperUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"

// PageData is the extraction result for one page. A failed fetch yields the
// zero value (plus URL), never an error surfaced past the scraper: the
// orchestrator proceeds to classification with whatever was found upstream.
type PageData struct {
	URL         string        `json:"url"`
	Title       string        `json:"title,omitempty"`
	Description string        `json:"description,omitempty"`
	Phone       string        `json:"phone,omitempty"`
	Phones      []string      `json:"phones,omitempty"`
	Emails      []string      `json:"emails,omitempty"`
	Socials     model.Socials `json:"socials,omitempty"`
	HTML        string        `json:"-"`
	ScrapedAt   time.Time     `json:"scraped_at"`
}

// SiteScraper fetches pages with a bounded timeout and size cap.
type SiteScraper struct {
	client  *http.Client
	maxBody int64
}

// New creates a SiteScraper from scrape configuration.
func New(cfg config.ScrapeConfig) *SiteScraper {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	maxBody := int64(cfg.MaxBodyBytes)
	if maxBody <= 0 {
		maxBody = 512 * 1024
	}
	return &SiteScraper{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: timeout,
				}).DialContext,
				TLSHandshakeTimeout: timeout,
			},
		},
		maxBody: maxBody,
	}
}

// Scrape fetches targetURL and extracts page data. On fetch failure the
// returned PageData is empty and the error describes why; callers log it
// and continue.
func (s *SiteScraper) Scrape(ctx context.Context, targetURL string) (*PageData, error) {
	page := &PageData{URL: targetURL, Socials: model.Socials{}, ScrapedAt: time.Now()}

	html, err := s.fetch(ctx, targetURL)
	if err != nil {
		return page, err
	}

	page.HTML = html
	page.Title = extractTitle(html)
	page.Description = ExtractDescription(html)

	text := stripHTML(html)
	page.Phones = ExtractPhones(text)
	if len(page.Phones) > 0 {
		page.Phone = page.Phones[0]
	}
	page.Emails = ExtractEmails(text)
	page.Socials = ExtractSocials(html)

	zap.L().Debug("scrape: page extracted",
		zap.String("url", targetURL),
		zap.Int("emails", len(page.Emails)),
		zap.Int("phones", len(page.Phones)),
		zap.Int("socials", len(page.Socials)),
	)
	return page, nil
}

// fetch downloads the page body, capped at maxBody bytes.
func (s *SiteScraper) fetch(ctx context.Context, targetURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return "", eris.Wrap(err, "scrape: create request")
	}
	req.Header.Set("User-Agent", scraperUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", eris.Wrap(err, "scrape: fetch")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return "", eris.Errorf("scrape: status %d for %s", resp.StatusCode, targetURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBody))
	if err != nil {
		return "", eris.Wrap(err, "scrape: read body")
	}
	if len(body) == 0 {
		return "", eris.Errorf("scrape: empty page at %s", targetURL)
	}

	return string(body), nil
}
