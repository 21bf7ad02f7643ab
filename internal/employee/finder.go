// Package employee discovers a company's staff from its website team pages
// and public search results, persisting them as contacts.
package employee

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/enrich-cli/internal/model"
	"github.com/sells-group/enrich-cli/internal/scrape"
	"github.com/sells-group/enrich-cli/internal/searchclient"
)

// teamPaths are the site paths probed for staff listings, in order.
var teamPaths = []string{"/team", "/about", "/about-us", "/our-team", "/staff", "/people", "/leadership"}

// roleKeywords mark a text fragment as a job title worth pairing with a name.
var roleKeywords = []string{
	"ceo", "cto", "cfo", "coo", "founder", "co-founder", "president",
	"owner", "partner", "principal", "director", "manager", "head of",
	"vice president", "vp", "lead", "supervisor",
}

// Store is the persistence surface employee discovery needs.
type Store interface {
	GetCompany(ctx context.Context, id int64) (*model.Company, error)
	CreateContact(ctx context.Context, contact model.Contact) (int64, error)
	ListContacts(ctx context.Context, companyID int64) ([]model.Contact, error)
	DedupeContacts(ctx context.Context) (int64, error)
	RecordAudit(ctx context.Context, entry model.AuditEntry) error
}

// Scraper fetches one page.
type Scraper interface {
	Scrape(ctx context.Context, url string) (*scrape.PageData, error)
}

// Finder handles employee_discovery jobs.
type Finder struct {
	store   Store
	scraper Scraper
	search  *searchclient.Client
}

// New creates a Finder.
func New(store Store, scraper Scraper, search *searchclient.Client) *Finder {
	return &Finder{store: store, scraper: scraper, search: search}
}

// HandleDiscovery is the queue handler for employee_discovery jobs. It scans
// the company's team pages and LinkedIn search results, then persists any
// contacts not already on record.
func (f *Finder) HandleDiscovery(ctx context.Context, job *model.Job) error {
	payload, err := discoveryPayload(job)
	if err != nil {
		zap.L().Error("employee: bad payload, dropping job",
			zap.String("job_id", job.ID),
			zap.Error(err),
		)
		return nil
	}

	log := zap.L().With(
		zap.Int64("company_id", payload.CompanyID),
		zap.String("job_id", job.ID),
	)

	company, err := f.store.GetCompany(ctx, payload.CompanyID)
	if err != nil {
		return eris.Wrapf(err, "employee: load company %d", payload.CompanyID)
	}

	website := payload.WebsiteURL
	if website == "" {
		website = company.Website
	}
	name := payload.CompanyName
	if name == "" {
		name = company.Name
	}

	var found []model.Contact
	if website != "" {
		found = append(found, f.fromTeamPages(ctx, website)...)
	}
	found = append(found, f.fromSearch(ctx, name, payload.Location)...)

	existing, err := f.store.ListContacts(ctx, payload.CompanyID)
	if err != nil {
		return eris.Wrapf(err, "employee: list contacts for %d", payload.CompanyID)
	}

	created := 0
	for _, contact := range dedupe(found, existing) {
		contact.CompanyID = payload.CompanyID
		if _, err := f.store.CreateContact(ctx, contact); err != nil {
			return eris.Wrapf(err, "employee: create contact %q", contact.Name)
		}
		created++
	}

	// A cleanup pass catches duplicates racing in from concurrent jobs.
	if created > 0 {
		if _, err := f.store.DedupeContacts(ctx); err != nil {
			log.Warn("employee: contact dedup failed", zap.Error(err))
		}
	}

	f.audit(ctx, payload, created, len(found))
	log.Info("employee: discovery complete",
		zap.Int("found", len(found)),
		zap.Int("created", created),
	)
	return nil
}

// fromTeamPages probes the known team-page paths and extracts name/role
// pairs from each page that loads.
func (f *Finder) fromTeamPages(ctx context.Context, website string) []model.Contact {
	base := strings.TrimSuffix(website, "/")

	var contacts []model.Contact
	for _, path := range teamPaths {
		page, err := f.scraper.Scrape(ctx, base+path)
		if err != nil {
			continue
		}
		for _, c := range ExtractPeople(page.HTML) {
			c.Source = "website"
			contacts = append(contacts, c)
		}
	}
	return contacts
}

// fromSearch mines LinkedIn-scoped search results for "Name - Role" titles.
func (f *Finder) fromSearch(ctx context.Context, companyName, location string) []model.Contact {
	if f.search == nil || companyName == "" {
		return nil
	}

	query := "site:linkedin.com/in " + companyName
	if location != "" {
		query += " " + location
	}
	links, err := f.search.SearchDuckDuckGo(ctx, query)
	if err != nil {
		zap.L().Debug("employee: search failed", zap.Error(err))
		return nil
	}

	var contacts []model.Contact
	for _, link := range links {
		if !strings.Contains(strings.ToLower(link), "linkedin.com/in") {
			continue
		}
		name := nameFromProfileURL(link)
		if name == "" {
			continue
		}
		contacts = append(contacts, model.Contact{
			Name:        name,
			LinkedInURL: link,
			Source:      "search",
		})
	}
	return contacts
}

var (
	headingRe  = regexp.MustCompile(`(?is)<(?:h[2-6]|strong|b)[^>]*>(.*?)</(?:h[2-6]|strong|b)>`)
	nameLikeRe = regexp.MustCompile(`^[A-Z][a-z]+(?: [A-Z][a-z'.-]+){1,2}$`)
	tagStripRe = regexp.MustCompile(`<[^>]+>`)
)

// nonNameWords appear in marketing headings that otherwise shape like a
// person's name ("Our Services", "Contact Us Today").
var nonNameWords = map[string]struct{}{
	"our": {}, "the": {}, "contact": {}, "us": {}, "services": {},
	"team": {}, "meet": {}, "why": {}, "what": {}, "get": {}, "free": {},
	"today": {}, "about": {}, "home": {}, "welcome": {}, "new": {},
}

// ExtractPeople pulls name/role pairs out of team-page HTML: a heading that
// looks like a person's name, paired with nearby text containing a role
// keyword.
func ExtractPeople(html string) []model.Contact {
	matches := headingRe.FindAllStringSubmatchIndex(html, -1)

	var contacts []model.Contact
	for i, m := range matches {
		text := strings.TrimSpace(tagStripRe.ReplaceAllString(html[m[2]:m[3]], " "))
		if !nameLikeRe.MatchString(text) || hasNonNameWord(text) {
			continue
		}

		// The role usually sits between this heading and the next.
		end := len(html)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		window := html[m[1]:min(end, m[1]+500)]
		role := findRole(window)

		contacts = append(contacts, model.Contact{Name: text, Role: role})
	}
	return contacts
}

func hasNonNameWord(text string) bool {
	for _, word := range strings.Fields(strings.ToLower(text)) {
		if _, ok := nonNameWords[word]; ok {
			return true
		}
	}
	return false
}

// findRole returns the first role keyword phrase in an HTML fragment.
func findRole(fragment string) string {
	text := strings.TrimSpace(tagStripRe.ReplaceAllString(fragment, " "))
	lower := strings.ToLower(text)
	for _, kw := range roleKeywords {
		idx := strings.Index(lower, kw)
		if idx < 0 {
			continue
		}
		// Take the whole line the keyword sits on, trimmed to sanity.
		start := strings.LastIndexAny(lower[:idx], ".|\n") + 1
		endOff := strings.IndexAny(lower[idx:], ".|\n")
		end := len(text)
		if endOff >= 0 {
			end = idx + endOff
		}
		role := strings.TrimSpace(text[start:end])
		if len(role) > 60 {
			role = strings.TrimSpace(text[idx : idx+len(kw)])
		}
		return role
	}
	return ""
}

// nameFromProfileURL turns a /in/jane-doe-123 slug into "Jane Doe".
func nameFromProfileURL(link string) string {
	idx := strings.Index(strings.ToLower(link), "linkedin.com/in/")
	if idx < 0 {
		return ""
	}
	slug := link[idx+len("linkedin.com/in/"):]
	if cut := strings.IndexAny(slug, "/?#"); cut >= 0 {
		slug = slug[:cut]
	}

	var words []string
	for _, part := range strings.Split(slug, "-") {
		if part == "" || strings.IndexFunc(part, isDigit) >= 0 {
			continue
		}
		words = append(words, strings.ToUpper(part[:1])+part[1:])
	}
	if len(words) < 2 {
		return ""
	}
	return strings.Join(words, " ")
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

// dedupe drops candidates already present (by name, role, source) either in
// the found batch or among persisted contacts.
func dedupe(found, existing []model.Contact) []model.Contact {
	seen := make(map[string]struct{}, len(existing))
	key := func(c model.Contact) string {
		return strings.ToLower(c.Name) + "|" + strings.ToLower(c.Role) + "|" + c.Source
	}
	for _, c := range existing {
		seen[key(c)] = struct{}{}
	}

	var out []model.Contact
	for _, c := range found {
		k := key(c)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, c)
	}
	return out
}

func (f *Finder) audit(ctx context.Context, payload model.EmployeeDiscoveryPayload, created, found int) {
	entry := model.AuditEntry{
		ActorID:    payload.UserID,
		Action:     "company.employees_discovered",
		EntityType: "company",
		EntityID:   payload.CompanyID,
		Details:    map[string]any{"found": found, "created": created},
		CreatedAt:  time.Now(),
	}
	if err := f.store.RecordAudit(ctx, entry); err != nil {
		zap.L().Warn("employee: audit write failed", zap.Error(err))
	}
}

func discoveryPayload(job *model.Job) (model.EmployeeDiscoveryPayload, error) {
	switch p := job.Payload.(type) {
	case model.EmployeeDiscoveryPayload:
		return p, nil
	case *model.EmployeeDiscoveryPayload:
		if p != nil {
			return *p, nil
		}
	}
	return model.EmployeeDiscoveryPayload{}, eris.Errorf("employee: unexpected payload type %T", job.Payload)
}
