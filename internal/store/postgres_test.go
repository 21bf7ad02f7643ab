package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/enrich-cli/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

var companyRowColumns = []string{
	"id", "name", "address", "phone", "website", "socials", "industry",
	"description", "email", "status", "last_enrichment_attempt",
	"last_enrichment_error", "created_at", "updated_at",
}

func TestPostgresStore_GetCompany(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	now := time.Now().UTC()
	mock.ExpectQuery(`SELECT .+ FROM companies WHERE id = \$1`).
		WithArgs(int64(42)).
		WillReturnRows(pgxmock.NewRows(companyRowColumns).AddRow(
			int64(42), "Acme Plumbing", "12 Main St", "+1 555 0100",
			"https://acmeplumbing.com", []byte(`{"facebook":"https://facebook.com/acme"}`),
			"construction", "Plumbing contractors.", "info@acmeplumbing.com",
			model.StatusEnriched, (*time.Time)(nil), "", now, now,
		))

	c, err := s.GetCompany(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, "Acme Plumbing", c.Name)
	assert.Equal(t, model.StatusEnriched, c.Status)
	assert.Equal(t, "https://facebook.com/acme", c.Socials[model.PlatformFacebook])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetCompany_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT .+ FROM companies WHERE id = \$1`).
		WithArgs(int64(999)).
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetCompany(context.Background(), 999)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateCompanyFields(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	website := "https://acme.com"
	status := model.StatusEnriched
	mock.ExpectExec(`UPDATE companies SET website = \$1, status = \$2, updated_at = \$3 WHERE id = \$4`).
		WithArgs(website, string(status), pgxmock.AnyArg(), int64(7)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := s.UpdateCompanyFields(context.Background(), 7, model.CompanyUpdate{
		Website: &website,
		Status:  &status,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateCompanyFields_Empty(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	// No fields set means no statement is issued.
	err := s.UpdateCompanyFields(context.Background(), 7, model.CompanyUpdate{})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateCompanyFields_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	email := "hello@nowhere.test"
	mock.ExpectExec(`UPDATE companies SET email = \$1, updated_at = \$2 WHERE id = \$3`).
		WithArgs(email, pgxmock.AnyArg(), int64(123)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.UpdateCompanyFields(context.Background(), 123, model.CompanyUpdate{Email: &email})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_BulkInsertCompanies(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectCopyFrom(pgx.Identifier{"companies"}, companyInsertColumns).
		WillReturnResult(2)

	n, err := s.BulkInsertCompanies(context.Background(), []model.Company{
		{Name: "Acme Ltd", Phone: "555-0100"},
		{Name: "Bravo LLC", Status: model.StatusPartiallyEnriched},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_DedupeCompanies(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`DELETE FROM companies c\s+USING companies keep`).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	n, err := s.DedupeCompanies(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CreateContact(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`INSERT INTO contacts`).
		WithArgs(int64(5), "Jane Doe", "CEO", "", "", "", "", "team_page").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(11)))

	id, err := s.CreateContact(context.Background(), model.Contact{
		CompanyID: 5,
		Name:      "Jane Doe",
		Role:      "CEO",
		Source:    "team_page",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(11), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetWorkflow(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, name, steps, created_at FROM workflows WHERE id = \$1`).
		WithArgs(int64(3)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "steps", "created_at"}).
			AddRow(int64(3), "outreach",
				[]byte(`[{"type":"call","offset_days":0},{"type":"email","offset_days":3}]`),
				time.Now()))

	w, err := s.GetWorkflow(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, w.Steps, 2)
	assert.Equal(t, "call", w.Steps[0].Type)
	assert.Equal(t, 3, w.Steps[1].OffsetDays)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CreateTask(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	contactID := int64(11)
	due := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`INSERT INTO tasks`).
		WithArgs(int64(3), int64(5), &contactID, "call", due, (*int64)(nil)).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(21)))

	id, err := s.CreateTask(context.Background(), model.Task{
		WorkflowID: 3,
		CompanyID:  5,
		ContactID:  &contactID,
		Type:       "call",
		DueDate:    due,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(21), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_RecordAudit(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO audit_logs`).
		WithArgs(pgxmock.AnyArg(), int64(0), "company.enriched", "company", int64(5),
			pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.RecordAudit(context.Background(), model.AuditEntry{
		Action:     "company.enriched",
		EntityType: "company",
		EntityID:   5,
		Details:    map[string]any{"status": "enriched"},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListAudit(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	now := time.Now().UTC()
	mock.ExpectQuery(`SELECT id, actor_id, action, entity_type, entity_id, details, created_at\s+FROM audit_logs`).
		WithArgs(2).
		WillReturnRows(pgxmock.NewRows([]string{"id", "actor_id", "action", "entity_type", "entity_id", "details", "created_at"}).
			AddRow("a1", int64(0), "company.enriched", "company", int64(5), []byte(`{"status":"enriched"}`), now).
			AddRow("a2", int64(0), "send_email", "task", int64(21), []byte(nil), now))

	entries, err := s.ListAudit(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "enriched", entries[0].Details["status"])
	assert.Nil(t, entries[1].Details)
	assert.NoError(t, mock.ExpectationsWereMet())
}
