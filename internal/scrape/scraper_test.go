package scrape

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/enrich-cli/internal/config"
	"github.com/sells-group/enrich-cli/internal/model"
)

func testScraper() *SiteScraper {
	return New(config.ScrapeConfig{TimeoutSecs: 5, MaxBodyBytes: 512 * 1024})
}

func TestScrape_FullPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><head>
			<title>Acme Ltd | Home</title>
			<meta name="description" content="Acme builds industrial widgets.">
		</head><body>
			<p>Call +1 (902) 555-0134 or email info@acme.com</p>
			<a href="https://www.linkedin.com/company/acme">LinkedIn</a>
		</body></html>`))
	}))
	defer srv.Close()

	page, err := testScraper().Scrape(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "Acme Ltd | Home", page.Title)
	assert.Equal(t, "Acme builds industrial widgets.", page.Description)
	assert.Equal(t, "+1 (902) 555-0134", page.Phone)
	assert.Equal(t, []string{"info@acme.com"}, page.Emails)
	assert.Equal(t, "https://www.linkedin.com/company/acme", page.Socials[model.PlatformLinkedIn])
	assert.False(t, page.ScrapedAt.IsZero())
}

func TestScrape_FetchFailureReturnsEmptyPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	page, err := testScraper().Scrape(context.Background(), srv.URL)
	require.Error(t, err)
	require.NotNil(t, page)
	assert.Equal(t, srv.URL, page.URL)
	assert.Empty(t, page.Description)
	assert.Empty(t, page.Emails)
}

func TestScrape_UnreachableHost(t *testing.T) {
	page, err := testScraper().Scrape(context.Background(), "http://127.0.0.1:1")
	require.Error(t, err)
	require.NotNil(t, page)
	assert.Empty(t, page.Title)
}

func TestScrape_BodyCapped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<title>Big</title>"))
		_, _ = w.Write([]byte(strings.Repeat("a", 4096)))
	}))
	defer srv.Close()

	s := New(config.ScrapeConfig{TimeoutSecs: 5, MaxBodyBytes: 1024})
	page, err := s.Scrape(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "Big", page.Title)
	assert.LessOrEqual(t, len(page.HTML), 1024)
}

func TestScrape_SendsUserAgent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("User-Agent"), "Mozilla")
		_, _ = w.Write([]byte("<title>ok</title>"))
	}))
	defer srv.Close()

	_, err := testScraper().Scrape(context.Background(), srv.URL)
	require.NoError(t, err)
}
