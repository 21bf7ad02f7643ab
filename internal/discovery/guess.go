package discovery

import (
	"context"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/enrich-cli/internal/config"
	"github.com/sells-group/enrich-cli/internal/model"
)

// guessTLDs is the fixed list of top-level domains crossed with name
// patterns when guessing a company's domain.
var guessTLDs = []string{"com", "net", "org", "co", "io", "us", "biz"}

// parkedRe matches the copy that domain parkers and registrars put on
// placeholder pages. A probe that returns such a page is rejected.
var parkedRe = regexp.MustCompile(`(?i)domain (?:is )?parked|buy this domain|this domain (?:may be|is) for sale|parked free|godaddy\.com/domainsearch|sedoparking`)

// GuessStrategy probes candidate domains built from the company name.
// The whole strategy runs under a hard wall-clock budget; partial progress
// is discarded when the budget expires.
type GuessStrategy struct {
	http         *http.Client
	budget       time.Duration
	probeTimeout time.Duration
}

// NewGuessStrategy creates a domain-pattern discovery strategy.
func NewGuessStrategy(cfg config.GuessConfig) *GuessStrategy {
	budget := time.Duration(cfg.BudgetSecs) * time.Second
	if budget <= 0 {
		budget = 25 * time.Second
	}
	probe := time.Duration(cfg.ProbeTimeoutSecs) * time.Second
	if probe <= 0 {
		probe = 5 * time.Second
	}
	return &GuessStrategy{
		http:         &http.Client{Timeout: probe},
		budget:       budget,
		probeTimeout: probe,
	}
}

func (s *GuessStrategy) Name() string { return "domain_guess" }

// Attempt probes candidate domains in order and accepts the first that
// serves a real page. Domains taken from known email addresses are tried
// before name-derived guesses.
func (s *GuessStrategy) Attempt(ctx context.Context, in Input) (model.DiscoveryResult, error) {
	result := model.DiscoveryResult{Source: model.SourceDomainGuess, Socials: model.Socials{}}

	candidates := s.candidates(in)
	if len(candidates) == 0 {
		return result, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.budget)
	defer cancel()

	for _, domain := range candidates {
		if ctx.Err() != nil {
			zap.L().Debug("discovery: guess budget expired",
				zap.String("company", in.Name),
			)
			return model.DiscoveryResult{Source: model.SourceDomainGuess, Socials: model.Socials{}}, nil
		}
		for _, scheme := range []string{"https://", "http://"} {
			candidate := scheme + domain
			if s.probe(ctx, candidate) {
				result.Website = candidate
				zap.L().Debug("discovery: guess hit",
					zap.String("company", in.Name),
					zap.String("website", candidate),
				)
				return result, nil
			}
		}
	}

	return result, nil
}

// candidates builds the ordered probe list: email domains first, then the
// cross product of name patterns, TLDs, and a www. prefix variant.
func (s *GuessStrategy) candidates(in Input) []string {
	var domains []string
	seen := make(map[string]struct{})
	add := func(d string) {
		if d == "" {
			return
		}
		if _, ok := seen[d]; ok {
			return
		}
		seen[d] = struct{}{}
		domains = append(domains, d)
	}

	for _, email := range in.KnownEmails {
		at := strings.LastIndex(email, "@")
		if at < 0 {
			continue
		}
		domain := strings.ToLower(email[at+1:])
		if isFreeMailDomain(domain) {
			continue
		}
		add(domain)
		add("www." + domain)
	}

	slug := Slug(in.Name)
	words := SlugWords(in.Name)
	if slug == "" {
		return domains
	}

	patterns := []string{slug}
	if len(words) > 1 {
		patterns = append(patterns, strings.Join(words, "-"))
		patterns = append(patterns, words[0])
	}

	for _, pattern := range patterns {
		for _, tld := range guessTLDs {
			add(pattern + "." + tld)
			add("www." + pattern + "." + tld)
		}
	}
	return domains
}

// freeMailDomains are consumer mail providers whose domains say nothing
// about the company website.
var freeMailDomains = map[string]struct{}{
	"gmail.com": {}, "yahoo.com": {}, "hotmail.com": {}, "outlook.com": {},
	"aol.com": {}, "icloud.com": {}, "live.com": {}, "msn.com": {},
	"protonmail.com": {}, "proton.me": {}, "mail.com": {}, "gmx.com": {},
}

func isFreeMailDomain(domain string) bool {
	_, ok := freeMailDomains[domain]
	return ok
}

// probe fetches a candidate URL and reports whether it returned a real page
// rather than an error or a parked-domain placeholder.
func (s *GuessStrategy) probe(ctx context.Context, candidate string) bool {
	probeCtx, cancel := context.WithTimeout(ctx, s.probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, candidate, nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; enrich-cli)")

	resp, err := s.http.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil || len(body) == 0 {
		return false
	}
	return !parkedRe.Match(body)
}
