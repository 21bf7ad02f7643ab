package discovery

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/enrich-cli/internal/model"
	"github.com/sells-group/enrich-cli/internal/searchclient"
)

// Outcome is the merged result of a full discovery run.
type Outcome struct {
	Website     string
	Source      model.Source
	Socials     model.Socials
	Directories map[string]string
}

// Waterfall runs discovery strategies in priority order, stopping at the
// first website, then layers on the always-run social and directory passes.
type Waterfall struct {
	strategies  []Strategy
	social      *SocialDiscovery
	directories *DirectoryDiscovery
}

// NewWaterfall assembles the default strategy cascade: web search, registry
// lookup, domain guessing, then fuzzy matching.
func NewWaterfall(client *searchclient.Client, registry *RegistryStrategy, guess *GuessStrategy) *Waterfall {
	return &Waterfall{
		strategies: []Strategy{
			NewSearchStrategy(client),
			registry,
			guess,
			NewFuzzyStrategy(client),
		},
		social:      NewSocialDiscovery(client),
		directories: NewDirectoryDiscovery(client),
	}
}

// Resolve finds the company's website and social profiles. A caller-provided
// URL short-circuits the website cascade entirely. Strategy errors degrade
// to no-result: the cascade moves on to the next strategy.
func (w *Waterfall) Resolve(ctx context.Context, in Input, knownURL string) Outcome {
	out := Outcome{Socials: model.Socials{}, Directories: map[string]string{}}

	if knownURL != "" {
		out.Website = normalizeURL(knownURL)
		out.Source = model.SourceProvided
	}

	for _, strategy := range w.strategies {
		if out.Website != "" {
			break
		}
		result, err := strategy.Attempt(ctx, in)
		if err != nil {
			zap.L().Warn("discovery: strategy failed",
				zap.String("strategy", strategy.Name()),
				zap.String("company", in.Name),
				zap.Error(err),
			)
		}
		if result.Website != "" {
			out.Website = normalizeURL(result.Website)
			out.Source = result.Source
		}
		mergeSocials(out.Socials, result.Socials)
	}

	// Social and directory discovery run regardless of website resolution.
	mergeSocials(out.Socials, w.social.Discover(ctx, in.Name))
	for domain, link := range w.directories.Discover(ctx, in.Name) {
		out.Directories[domain] = link
	}

	zap.L().Info("discovery: resolved",
		zap.String("company", in.Name),
		zap.String("website", out.Website),
		zap.String("source", string(out.Source)),
		zap.Int("socials", len(out.Socials)),
	)
	return out
}

// mergeSocials copies src entries into dst without clobbering platforms
// already resolved by an earlier (higher priority) pass.
func mergeSocials(dst, src model.Socials) {
	for platform, link := range src {
		if _, taken := dst[platform]; !taken {
			dst[platform] = link
		}
	}
}

// normalizeURL ensures a scheme prefix so downstream fetches work.
func normalizeURL(raw string) string {
	if raw == "" {
		return ""
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		return "https://" + raw
	}
	return raw
}
