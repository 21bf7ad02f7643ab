package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/enrich-cli/internal/db"
	"github.com/sells-group/enrich-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool db.Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS companies (
	id                      BIGSERIAL PRIMARY KEY,
	name                    TEXT NOT NULL,
	address                 TEXT NOT NULL DEFAULT '',
	phone                   TEXT NOT NULL DEFAULT '',
	website                 TEXT NOT NULL DEFAULT '',
	socials                 JSONB NOT NULL DEFAULT '{}',
	industry                TEXT NOT NULL DEFAULT '',
	description             TEXT NOT NULL DEFAULT '',
	email                   TEXT NOT NULL DEFAULT '',
	status                  TEXT NOT NULL DEFAULT 'incomplete',
	last_enrichment_attempt TIMESTAMPTZ,
	last_enrichment_error   TEXT NOT NULL DEFAULT '',
	created_at              TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at              TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS contacts (
	id           BIGSERIAL PRIMARY KEY,
	company_id   BIGINT NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
	name         TEXT NOT NULL,
	role         TEXT NOT NULL DEFAULT '',
	email        TEXT NOT NULL DEFAULT '',
	phone        TEXT NOT NULL DEFAULT '',
	department   TEXT NOT NULL DEFAULT '',
	linkedin_url TEXT NOT NULL DEFAULT '',
	source       TEXT NOT NULL DEFAULT '',
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS workflows (
	id         BIGSERIAL PRIMARY KEY,
	name       TEXT NOT NULL,
	steps      JSONB NOT NULL DEFAULT '[]',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS groups (
	id         BIGSERIAL PRIMARY KEY,
	name       TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS group_companies (
	group_id   BIGINT NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
	company_id BIGINT NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
	PRIMARY KEY (group_id, company_id)
);

CREATE TABLE IF NOT EXISTS tasks (
	id          BIGSERIAL PRIMARY KEY,
	workflow_id BIGINT NOT NULL REFERENCES workflows(id),
	company_id  BIGINT NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
	contact_id  BIGINT REFERENCES contacts(id) ON DELETE SET NULL,
	type        TEXT NOT NULL,
	due_date    TIMESTAMPTZ NOT NULL,
	assigned_to BIGINT,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS audit_logs (
	id          TEXT PRIMARY KEY,
	actor_id    BIGINT NOT NULL DEFAULT 0,
	action      TEXT NOT NULL,
	entity_type TEXT NOT NULL,
	entity_id   BIGINT NOT NULL,
	details     JSONB,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_companies_status ON companies(status);
CREATE INDEX IF NOT EXISTS idx_companies_lower_name ON companies(LOWER(name));
CREATE INDEX IF NOT EXISTS idx_contacts_company_id ON contacts(company_id);
CREATE INDEX IF NOT EXISTS idx_tasks_company_id ON tasks(company_id);
CREATE INDEX IF NOT EXISTS idx_tasks_due_date ON tasks(due_date);
CREATE INDEX IF NOT EXISTS idx_audit_logs_created_at ON audit_logs(created_at DESC);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

const companyColumns = `id, name, address, phone, website, socials, industry,
	description, email, status, last_enrichment_attempt, last_enrichment_error,
	created_at, updated_at`

func (s *PostgresStore) GetCompany(ctx context.Context, id int64) (*model.Company, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+companyColumns+` FROM companies WHERE id = $1`, id)
	c, err := scanCompany(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Errorf("postgres: company %d not found", id)
	}
	return c, err
}

func (s *PostgresStore) ListCompanies(ctx context.Context, limit, offset int) ([]model.Company, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+companyColumns+` FROM companies ORDER BY id LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list companies")
	}
	defer rows.Close()
	return collectCompanies(rows)
}

// companySetColumns maps update fields to their column expressions, in a
// fixed order so generated SQL is deterministic.
func (s *PostgresStore) UpdateCompanyFields(ctx context.Context, id int64, update model.CompanyUpdate) error {
	var (
		sets []string
		args []any
	)
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if update.Website != nil {
		add("website", *update.Website)
	}
	if update.Socials != nil {
		raw, err := json.Marshal(update.Socials)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal socials")
		}
		add("socials", string(raw))
	}
	if update.Industry != nil {
		add("industry", *update.Industry)
	}
	if update.Description != nil {
		add("description", *update.Description)
	}
	if update.Email != nil {
		add("email", *update.Email)
	}
	if update.Phone != nil {
		add("phone", *update.Phone)
	}
	if update.Status != nil {
		add("status", string(*update.Status))
	}
	if update.LastEnrichmentAttempt != nil {
		add("last_enrichment_attempt", *update.LastEnrichmentAttempt)
	}
	if update.LastEnrichmentError != nil {
		add("last_enrichment_error", *update.LastEnrichmentError)
	}
	if len(sets) == 0 {
		return nil
	}
	add("updated_at", time.Now().UTC())

	args = append(args, id)
	query := fmt.Sprintf("UPDATE companies SET %s WHERE id = $%d",
		strings.Join(sets, ", "), len(args))

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return eris.Wrapf(err, "postgres: update company %d", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("postgres: company %d not found", id)
	}
	return nil
}

var companyInsertColumns = []string{"name", "address", "phone", "website", "socials", "industry", "description", "email", "status"}

func (s *PostgresStore) BulkInsertCompanies(ctx context.Context, companies []model.Company) (int64, error) {
	rows := make([][]any, 0, len(companies))
	for _, c := range companies {
		status := c.Status
		if status == "" {
			status = model.StatusIncomplete
		}
		socials, err := json.Marshal(c.Socials.Clone())
		if err != nil {
			return 0, eris.Wrap(err, "postgres: marshal socials")
		}
		rows = append(rows, []any{
			c.Name, c.Address, c.Phone, c.Website, string(socials),
			c.Industry, c.Description, c.Email, string(status),
		})
	}
	return db.CopyFrom(ctx, s.pool, "companies", companyInsertColumns, rows)
}

// DedupeCompanies removes companies whose lowercased name duplicates an
// earlier row, keeping the smallest id. Contacts and tasks follow their
// company via ON DELETE CASCADE.
func (s *PostgresStore) DedupeCompanies(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM companies c
		 USING companies keep
		 WHERE LOWER(c.name) = LOWER(keep.name) AND c.id > keep.id`)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: dedupe companies")
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) CreateContact(ctx context.Context, contact model.Contact) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO contacts (company_id, name, role, email, phone, department, linkedin_url, source)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
		contact.CompanyID, contact.Name, contact.Role, contact.Email,
		contact.Phone, contact.Department, contact.LinkedInURL, contact.Source,
	).Scan(&id)
	if err != nil {
		return 0, eris.Wrapf(err, "postgres: insert contact for company %d", contact.CompanyID)
	}
	return id, nil
}

func (s *PostgresStore) ListContacts(ctx context.Context, companyID int64) ([]model.Contact, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, company_id, name, role, email, phone, department, linkedin_url, source, created_at
		 FROM contacts WHERE company_id = $1 ORDER BY id`, companyID)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list contacts for company %d", companyID)
	}
	defer rows.Close()

	var contacts []model.Contact
	for rows.Next() {
		var c model.Contact
		if err := rows.Scan(&c.ID, &c.CompanyID, &c.Name, &c.Role, &c.Email,
			&c.Phone, &c.Department, &c.LinkedInURL, &c.Source, &c.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan contact")
		}
		contacts = append(contacts, c)
	}
	return contacts, eris.Wrap(rows.Err(), "postgres: iterate contacts")
}

// DedupeContacts removes contacts duplicating (company, name, role, source),
// keeping the smallest id.
func (s *PostgresStore) DedupeContacts(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM contacts c
		 USING contacts keep
		 WHERE c.company_id = keep.company_id
		   AND LOWER(c.name) = LOWER(keep.name)
		   AND LOWER(c.role) = LOWER(keep.role)
		   AND c.source = keep.source
		   AND c.id > keep.id`)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: dedupe contacts")
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) GetWorkflow(ctx context.Context, id int64) (*model.Workflow, error) {
	var (
		w        model.Workflow
		stepsRaw []byte
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, steps, created_at FROM workflows WHERE id = $1`, id,
	).Scan(&w.ID, &w.Name, &stepsRaw, &w.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Errorf("postgres: workflow %d not found", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get workflow %d", id)
	}
	if err := json.Unmarshal(stepsRaw, &w.Steps); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal workflow steps")
	}
	return &w, nil
}

func (s *PostgresStore) ListCompaniesInGroup(ctx context.Context, groupID int64) ([]model.Company, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+companyColumns+` FROM companies
		 JOIN group_companies gc ON gc.company_id = companies.id
		 WHERE gc.group_id = $1 ORDER BY companies.id`, groupID)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list companies in group %d", groupID)
	}
	defer rows.Close()
	return collectCompanies(rows)
}

func (s *PostgresStore) CreateTask(ctx context.Context, task model.Task) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO tasks (workflow_id, company_id, contact_id, type, due_date, assigned_to)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		task.WorkflowID, task.CompanyID, task.ContactID, task.Type, task.DueDate, task.AssignedTo,
	).Scan(&id)
	if err != nil {
		return 0, eris.Wrapf(err, "postgres: insert task for company %d", task.CompanyID)
	}
	return id, nil
}

func (s *PostgresStore) RecordAudit(ctx context.Context, entry model.AuditEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	details, err := json.Marshal(entry.Details)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal audit details")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO audit_logs (id, actor_id, action, entity_type, entity_id, details, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.ID, entry.ActorID, entry.Action, entry.EntityType, entry.EntityID,
		string(details), entry.CreatedAt)
	return eris.Wrap(err, "postgres: insert audit entry")
}

func (s *PostgresStore) ListAudit(ctx context.Context, limit int) ([]model.AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, actor_id, action, entity_type, entity_id, details, created_at
		 FROM audit_logs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list audit entries")
	}
	defer rows.Close()

	var entries []model.AuditEntry
	for rows.Next() {
		var (
			e   model.AuditEntry
			raw []byte
		)
		if err := rows.Scan(&e.ID, &e.ActorID, &e.Action, &e.EntityType, &e.EntityID, &raw, &e.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan audit entry")
		}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &e.Details); err != nil {
				return nil, eris.Wrap(err, "postgres: unmarshal audit details")
			}
		}
		entries = append(entries, e)
	}
	return entries, eris.Wrap(rows.Err(), "postgres: iterate audit entries")
}

// helpers

type scannable interface {
	Scan(dest ...any) error
}

func scanCompany(row scannable) (*model.Company, error) {
	var (
		c          model.Company
		socialsRaw []byte
	)
	err := row.Scan(&c.ID, &c.Name, &c.Address, &c.Phone, &c.Website, &socialsRaw,
		&c.Industry, &c.Description, &c.Email, &c.Status,
		&c.LastEnrichmentAttempt, &c.LastEnrichmentError, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(socialsRaw) > 0 {
		if err := json.Unmarshal(socialsRaw, &c.Socials); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal socials")
		}
	}
	return &c, nil
}

func collectCompanies(rows pgx.Rows) ([]model.Company, error) {
	var companies []model.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan company")
		}
		companies = append(companies, *c)
	}
	return companies, eris.Wrap(rows.Err(), "postgres: iterate companies")
}
