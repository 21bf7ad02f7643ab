package enrich

import "github.com/sells-group/enrich-cli/internal/model"

// Classify derives the enrichment status from the evidence gathered in one
// run. Precedence: a website or any social profile means enriched; an email,
// description, or industry alone means partially enriched; nothing found
// means incomplete.
func Classify(website string, socials model.Socials, email, description, industry string) model.Status {
	if website != "" || socials.HasAny() {
		return model.StatusEnriched
	}
	if email != "" || usableDescription(description) || industry != "" {
		return model.StatusPartiallyEnriched
	}
	return model.StatusIncomplete
}

// usableDescription reports whether a description is real content rather
// than the scraper's "not available" sentinel.
func usableDescription(description string) bool {
	return description != "" && description != descriptionUnavailable
}

// descriptionUnavailable mirrors the scraper's sentinel for a page with no
// extractable description.
const descriptionUnavailable = "not available"
