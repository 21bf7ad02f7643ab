package enrich

import (
	"net/url"
	"strings"

	"github.com/sells-group/enrich-cli/internal/discovery"
	"github.com/sells-group/enrich-cli/internal/model"
	"github.com/sells-group/enrich-cli/internal/scrape"
)

// Finding is everything one enrichment run discovered about a company,
// before merging against the persisted record.
type Finding struct {
	Website     string
	Socials     model.Socials
	Description string
	Email       string
	Phone       string
	Industry    string
}

// BuildFinding flattens a discovery outcome and scrape result into a single
// Finding. The first scraped email and phone become the primary candidates.
func BuildFinding(out *discovery.Outcome, page *scrape.PageData, industry string) Finding {
	f := Finding{Industry: industry, Socials: model.Socials{}}
	if out != nil {
		f.Website = out.Website
		f.Socials = mergeSocialMaps(f.Socials, out.Socials)
	}
	if page != nil {
		f.Description = page.Description
		f.Phone = page.Phone
		if len(page.Emails) > 0 {
			f.Email = page.Emails[0]
		}
		f.Socials = mergeSocialMaps(f.Socials, page.Socials)
	}
	return f
}

// BuildUpdate merges a run's finding against the persisted record. The merge
// is additive: a non-empty discovered value is written, an empty one leaves
// the persisted value untouched. Status always reflects the combined
// evidence of old and new fields.
func BuildUpdate(existing *model.Company, f Finding) model.CompanyUpdate {
	var u model.CompanyUpdate

	if f.Website != "" && f.Website != existing.Website {
		u.Website = &f.Website
	}
	if usableDescription(f.Description) && f.Description != existing.Description {
		u.Description = &f.Description
	}
	if f.Email != "" && f.Email != existing.Email {
		u.Email = &f.Email
	}
	if f.Phone != "" && existing.Phone == "" {
		u.Phone = &f.Phone
	}
	if f.Industry != "" && f.Industry != existing.Industry {
		u.Industry = &f.Industry
	}

	merged := mergeSocialMaps(existing.Socials.Clone(), f.Socials)
	if !socialsEqual(merged, existing.Socials) {
		u.Socials = merged
	}

	website := existing.Website
	if f.Website != "" {
		website = f.Website
	}
	email := existing.Email
	if f.Email != "" {
		email = f.Email
	}
	description := existing.Description
	if usableDescription(f.Description) {
		description = f.Description
	}
	industry := existing.Industry
	if f.Industry != "" {
		industry = f.Industry
	}

	status := Classify(website, merged, email, description, industry)
	u.Status = &status
	return u
}

// mergeSocialMaps unions src into dst keyed by platform. On conflict the URL
// with fewer path segments wins, the more canonical profile link.
func mergeSocialMaps(dst, src model.Socials) model.Socials {
	if dst == nil {
		dst = model.Socials{}
	}
	for platform, link := range src {
		if link == "" {
			continue
		}
		current, ok := dst[platform]
		if !ok || current == "" {
			dst[platform] = link
			continue
		}
		if pathSegments(link) < pathSegments(current) {
			dst[platform] = link
		}
	}
	return dst
}

// pathSegments counts non-empty path parts of a URL.
func pathSegments(link string) int {
	u, err := url.Parse(link)
	if err != nil {
		return strings.Count(link, "/")
	}
	n := 0
	for _, part := range strings.Split(u.Path, "/") {
		if part != "" {
			n++
		}
	}
	return n
}

func socialsEqual(a, b model.Socials) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}
