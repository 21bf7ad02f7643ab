package discovery

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/enrich-cli/internal/model"
	"github.com/sells-group/enrich-cli/internal/searchclient"
)

// SearchStrategy resolves a website by scraping DuckDuckGo's HTML results
// for the company name plus whatever address/phone context is known.
type SearchStrategy struct {
	client *searchclient.Client
}

// NewSearchStrategy creates a web-search discovery strategy.
func NewSearchStrategy(client *searchclient.Client) *SearchStrategy {
	return &SearchStrategy{client: client}
}

func (s *SearchStrategy) Name() string { return "web_search" }

// Attempt searches for the company and returns the first plausible
// non-social result link as the website. Social links that show up among
// the results are kept as socials.
func (s *SearchStrategy) Attempt(ctx context.Context, in Input) (model.DiscoveryResult, error) {
	result := model.DiscoveryResult{Source: model.SourceWebSearch, Socials: model.Socials{}}

	query := in.Name
	if in.Address != "" {
		query += " " + in.Address
	}
	if in.Phone != "" {
		query += " " + in.Phone
	}

	links, err := s.client.SearchDuckDuckGo(ctx, query)
	if err != nil {
		return result, err
	}

	for _, link := range links {
		if platform := platformForURL(link); platform != "" {
			if _, taken := result.Socials[platform]; !taken {
				result.Socials[platform] = link
			}
			continue
		}
		if isDirectoryURL(link) {
			continue
		}
		if result.Website == "" {
			result.Website = link
		}
	}

	zap.L().Debug("discovery: web search done",
		zap.String("company", in.Name),
		zap.String("website", result.Website),
		zap.Int("socials", len(result.Socials)),
	)
	return result, nil
}

// directoryDomains are aggregator sites that should never be treated as a
// company's own website.
var directoryDomains = []string{
	"yelp.com", "yellowpages.com", "bbb.org", "mapquest.com",
	"manta.com", "dnb.com", "crunchbase.com", "bloomberg.com",
	"wikipedia.org", "glassdoor.com", "indeed.com",
}

func isDirectoryURL(link string) bool {
	lower := strings.ToLower(link)
	for _, d := range directoryDomains {
		if strings.Contains(lower, d) {
			return true
		}
	}
	return false
}

// platformForURL returns the social platform a URL belongs to, or "".
func platformForURL(link string) string {
	lower := strings.ToLower(link)
	switch {
	case strings.Contains(lower, "linkedin.com"):
		return model.PlatformLinkedIn
	case strings.Contains(lower, "facebook.com"):
		return model.PlatformFacebook
	case strings.Contains(lower, "twitter.com"), strings.Contains(lower, "//x.com"), strings.Contains(lower, "www.x.com"):
		return model.PlatformTwitter
	case strings.Contains(lower, "instagram.com"):
		return model.PlatformInstagram
	case strings.Contains(lower, "youtube.com"):
		return model.PlatformYouTube
	}
	return ""
}
