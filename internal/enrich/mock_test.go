package enrich

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/enrich-cli/internal/discovery"
	"github.com/sells-group/enrich-cli/internal/model"
	"github.com/sells-group/enrich-cli/internal/scrape"
)

// mockStore implements Store for testing.
type mockStore struct {
	companies map[int64]*model.Company
	updates   []model.CompanyUpdate
	audits    []model.AuditEntry

	getErr    error
	updateErr error
}

func (m *mockStore) GetCompany(_ context.Context, id int64) (*model.Company, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	c, ok := m.companies[id]
	if !ok {
		return nil, eris.Errorf("company %d not found", id)
	}
	return c, nil
}

func (m *mockStore) UpdateCompanyFields(_ context.Context, _ int64, update model.CompanyUpdate) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.updates = append(m.updates, update)
	return nil
}

func (m *mockStore) RecordAudit(_ context.Context, entry model.AuditEntry) error {
	m.audits = append(m.audits, entry)
	return nil
}

// stubResolver implements Resolver with a canned outcome.
type stubResolver struct {
	outcome discovery.Outcome
	calls   int
	lastURL string
}

func (r *stubResolver) Resolve(_ context.Context, _ discovery.Input, knownURL string) discovery.Outcome {
	r.calls++
	r.lastURL = knownURL
	out := r.outcome
	if out.Socials == nil {
		out.Socials = model.Socials{}
	}
	if knownURL != "" && out.Website == "" {
		out.Website = knownURL
		out.Source = model.SourceProvided
	}
	return out
}

// stubScraper implements Scraper with a canned page.
type stubScraper struct {
	page  *scrape.PageData
	err   error
	calls int
}

func (s *stubScraper) Scrape(_ context.Context, url string) (*scrape.PageData, error) {
	s.calls++
	if s.page == nil {
		return &scrape.PageData{URL: url, Socials: model.Socials{}}, s.err
	}
	return s.page, s.err
}
