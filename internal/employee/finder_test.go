package employee

import (
	"context"
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/enrich-cli/internal/model"
	"github.com/sells-group/enrich-cli/internal/scrape"
)

// mockStore implements Store for testing.
type mockStore struct {
	companies map[int64]*model.Company
	existing  []model.Contact
	created   []model.Contact
	audits    []model.AuditEntry
	createErr error
	deduped   int
}

func (m *mockStore) GetCompany(_ context.Context, id int64) (*model.Company, error) {
	c, ok := m.companies[id]
	if !ok {
		return nil, eris.Errorf("company %d not found", id)
	}
	return c, nil
}

func (m *mockStore) CreateContact(_ context.Context, contact model.Contact) (int64, error) {
	if m.createErr != nil {
		return 0, m.createErr
	}
	m.created = append(m.created, contact)
	return int64(len(m.created)), nil
}

func (m *mockStore) ListContacts(_ context.Context, _ int64) ([]model.Contact, error) {
	return m.existing, nil
}

func (m *mockStore) DedupeContacts(_ context.Context) (int64, error) {
	m.deduped++
	return 0, nil
}

func (m *mockStore) RecordAudit(_ context.Context, entry model.AuditEntry) error {
	m.audits = append(m.audits, entry)
	return nil
}

// stubScraper returns canned pages keyed by URL suffix.
type stubScraper struct {
	pages map[string]string
}

func (s *stubScraper) Scrape(_ context.Context, url string) (*scrape.PageData, error) {
	for suffix, html := range s.pages {
		if strings.HasSuffix(url, suffix) {
			return &scrape.PageData{URL: url, HTML: html}, nil
		}
	}
	return &scrape.PageData{URL: url}, eris.Errorf("status 404 for %s", url)
}

const teamPageHTML = `
	<div class="member">
		<h3>Jane Doe</h3>
		<p>CEO and founder of Acme</p>
	</div>
	<div class="member">
		<h3>John Smith</h3>
		<p>Operations Manager</p>
	</div>
	<h3>Our Services</h3>
	<p>We build things.</p>
`

func discoveryJob(payload model.EmployeeDiscoveryPayload) *model.Job {
	return &model.Job{ID: "job-1", Kind: model.JobEmployeeDiscovery, Payload: payload}
}

func TestHandleDiscovery_CreatesContactsFromTeamPage(t *testing.T) {
	store := &mockStore{companies: map[int64]*model.Company{
		5: {ID: 5, Name: "Acme Ltd", Website: "https://acme.com"},
	}}
	scraper := &stubScraper{pages: map[string]string{"/team": teamPageHTML}}

	f := New(store, scraper, nil)
	err := f.HandleDiscovery(context.Background(), discoveryJob(model.EmployeeDiscoveryPayload{CompanyID: 5}))
	require.NoError(t, err)

	require.Len(t, store.created, 2)
	assert.Equal(t, "Jane Doe", store.created[0].Name)
	assert.Contains(t, store.created[0].Role, "CEO")
	assert.Equal(t, int64(5), store.created[0].CompanyID)
	assert.Equal(t, "website", store.created[0].Source)
	assert.Equal(t, "John Smith", store.created[1].Name)

	require.Len(t, store.audits, 1)
	assert.Equal(t, "company.employees_discovered", store.audits[0].Action)
	assert.Equal(t, 2, store.audits[0].Details["created"])
	assert.Equal(t, 1, store.deduped)
}

func TestHandleDiscovery_SkipsExistingContacts(t *testing.T) {
	store := &mockStore{
		companies: map[int64]*model.Company{
			5: {ID: 5, Name: "Acme Ltd", Website: "https://acme.com"},
		},
		existing: []model.Contact{
			{Name: "John Smith", Role: "Operations Manager", Source: "website"},
		},
	}
	scraper := &stubScraper{pages: map[string]string{"/team": teamPageHTML}}

	f := New(store, scraper, nil)
	err := f.HandleDiscovery(context.Background(), discoveryJob(model.EmployeeDiscoveryPayload{CompanyID: 5}))
	require.NoError(t, err)

	require.Len(t, store.created, 1)
	assert.Equal(t, "Jane Doe", store.created[0].Name)
}

func TestHandleDiscovery_NoWebsiteNoSearch(t *testing.T) {
	store := &mockStore{companies: map[int64]*model.Company{
		5: {ID: 5, Name: "Acme Ltd"},
	}}
	f := New(store, &stubScraper{}, nil)

	err := f.HandleDiscovery(context.Background(), discoveryJob(model.EmployeeDiscoveryPayload{CompanyID: 5}))
	require.NoError(t, err)
	assert.Empty(t, store.created)
	require.Len(t, store.audits, 1)
	assert.Equal(t, 0, store.audits[0].Details["found"])
}

func TestHandleDiscovery_BadPayloadDropped(t *testing.T) {
	store := &mockStore{}
	f := New(store, &stubScraper{}, nil)

	err := f.HandleDiscovery(context.Background(), &model.Job{ID: "j", Payload: 42})
	assert.NoError(t, err)
	assert.Empty(t, store.created)
}

func TestExtractPeople(t *testing.T) {
	contacts := ExtractPeople(teamPageHTML)
	require.Len(t, contacts, 2)
	assert.Equal(t, "Jane Doe", contacts[0].Name)
	assert.Contains(t, strings.ToLower(contacts[0].Role), "ceo")
	assert.Equal(t, "John Smith", contacts[1].Name)
	assert.Contains(t, strings.ToLower(contacts[1].Role), "manager")
}

func TestExtractPeople_IgnoresNonNames(t *testing.T) {
	html := `<h3>Contact Us Today</h3><p>CEO approved pricing</p>`
	assert.Empty(t, ExtractPeople(html))
}

func TestNameFromProfileURL(t *testing.T) {
	assert.Equal(t, "Jane Doe", nameFromProfileURL("https://www.linkedin.com/in/jane-doe-91b2a3"))
	assert.Equal(t, "John Smith", nameFromProfileURL("https://linkedin.com/in/john-smith/"))
	assert.Empty(t, nameFromProfileURL("https://linkedin.com/in/x"))
	assert.Empty(t, nameFromProfileURL("https://example.com/team"))
}

func TestDedupe_WithinBatch(t *testing.T) {
	found := []model.Contact{
		{Name: "Jane Doe", Role: "CEO", Source: "website"},
		{Name: "jane doe", Role: "ceo", Source: "website"},
		{Name: "Jane Doe", Role: "CEO", Source: "search"},
	}
	out := dedupe(found, nil)
	require.Len(t, out, 2)
}
