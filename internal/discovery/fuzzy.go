package discovery

import (
	"context"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/enrich-cli/internal/model"
	"github.com/sells-group/enrich-cli/internal/searchclient"
)

// FuzzyStrategy scores general search-engine results by how closely the
// result domain resembles the company name and picks the best scoring link.
type FuzzyStrategy struct {
	client *searchclient.Client
}

// NewFuzzyStrategy creates a fuzzy search-match discovery strategy.
func NewFuzzyStrategy(client *searchclient.Client) *FuzzyStrategy {
	return &FuzzyStrategy{client: client}
}

func (s *FuzzyStrategy) Name() string { return "fuzzy_search" }

// Attempt searches the wider web for the company name and scores each
// result: the name slug appearing in the domain is worth 2, a common TLD 1,
// and not being a social or directory site 1. Highest score wins; ties go
// to the earlier result.
func (s *FuzzyStrategy) Attempt(ctx context.Context, in Input) (model.DiscoveryResult, error) {
	result := model.DiscoveryResult{Source: model.SourceFuzzySearch, Socials: model.Socials{}}

	links, err := s.client.SearchGoogle(ctx, in.Name+" official website")
	if err != nil {
		return result, err
	}

	slug := Slug(in.Name)
	best := ""
	bestScore := 0
	for _, link := range links {
		if platformForURL(link) != "" || isDirectoryURL(link) {
			continue
		}
		score := scoreCandidate(link, slug)
		if score > bestScore {
			best = link
			bestScore = score
		}
	}

	// A candidate whose domain never mentions the name is noise, however
	// well it scores otherwise.
	if bestScore >= 3 {
		result.Website = best
	}

	zap.L().Debug("discovery: fuzzy match done",
		zap.String("company", in.Name),
		zap.String("website", result.Website),
		zap.Int("score", bestScore),
	)
	return result, nil
}

var knownTLDs = map[string]struct{}{
	"com": {}, "net": {}, "org": {}, "co": {}, "io": {}, "us": {}, "biz": {},
}

// scoreCandidate rates one result link against the company name slug.
func scoreCandidate(link, slug string) int {
	u, err := url.Parse(link)
	if err != nil || u.Host == "" {
		return 0
	}
	host := strings.ToLower(strings.TrimPrefix(u.Host, "www."))

	score := 0
	if slug != "" && strings.Contains(strings.ReplaceAll(host, "-", ""), slug) {
		score += 2
	}
	if dot := strings.LastIndex(host, "."); dot >= 0 {
		if _, ok := knownTLDs[host[dot+1:]]; ok {
			score++
		}
	}
	if platformForURL(link) == "" && !isDirectoryURL(link) {
		score++
	}
	return score
}
