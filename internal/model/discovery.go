package model

// Source identifies which discovery technique produced a result. Priority is
// implicit: sources earlier in the waterfall are more trusted.
type Source string

const (
	SourceProvided    Source = "provided"
	SourceWebSearch   Source = "web_search"
	SourceRegistry    Source = "registry"
	SourceDomainGuess Source = "domain_guess"
	SourceFuzzySearch Source = "fuzzy_search"
	SourceSocial      Source = "social_search"
	SourceDirectory   Source = "directory_search"
	SourceScrape      Source = "scrape"
	SourceTextExtract Source = "text_extract"
)

// DiscoveryResult is the outcome of a single discovery strategy. Ephemeral:
// produced and consumed within one orchestrator run, never persisted directly.
type DiscoveryResult struct {
	Source  Source  `json:"source"`
	Website string  `json:"website,omitempty"`
	Socials Socials `json:"socials,omitempty"`
}

// Empty reports whether the result carries neither a website nor socials.
func (r *DiscoveryResult) Empty() bool {
	return r == nil || (r.Website == "" && !r.Socials.HasAny())
}
