// Package store persists companies, contacts, tasks, workflows, groups, and
// the audit log. Two backends are provided: Postgres via pgx for production
// and SQLite via modernc for local, CGO-free use.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/enrich-cli/internal/config"
	"github.com/sells-group/enrich-cli/internal/model"
)

// Store defines the persistence interface for the enrichment pipeline and
// its supporting CRM entities.
type Store interface {
	// Companies
	GetCompany(ctx context.Context, id int64) (*model.Company, error)
	ListCompanies(ctx context.Context, limit, offset int) ([]model.Company, error)
	UpdateCompanyFields(ctx context.Context, id int64, update model.CompanyUpdate) error
	BulkInsertCompanies(ctx context.Context, companies []model.Company) (int64, error)
	DedupeCompanies(ctx context.Context) (int64, error)

	// Contacts
	CreateContact(ctx context.Context, contact model.Contact) (int64, error)
	ListContacts(ctx context.Context, companyID int64) ([]model.Contact, error)
	DedupeContacts(ctx context.Context) (int64, error)

	// Workflows, groups, tasks
	GetWorkflow(ctx context.Context, id int64) (*model.Workflow, error)
	ListCompaniesInGroup(ctx context.Context, groupID int64) ([]model.Company, error)
	CreateTask(ctx context.Context, task model.Task) (int64, error)

	// Audit log
	RecordAudit(ctx context.Context, entry model.AuditEntry) error
	ListAudit(ctx context.Context, limit int) ([]model.AuditEntry, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open creates the configured backend.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "postgres", "":
		return NewPostgres(ctx, cfg.DatabaseURL, nil)
	case "sqlite":
		return NewSQLite(cfg.SQLitePath)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}
