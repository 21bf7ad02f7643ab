package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/enrich-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS companies (
	id                      INTEGER PRIMARY KEY AUTOINCREMENT,
	name                    TEXT NOT NULL,
	address                 TEXT NOT NULL DEFAULT '',
	phone                   TEXT NOT NULL DEFAULT '',
	website                 TEXT NOT NULL DEFAULT '',
	socials                 TEXT NOT NULL DEFAULT '{}',
	industry                TEXT NOT NULL DEFAULT '',
	description             TEXT NOT NULL DEFAULT '',
	email                   TEXT NOT NULL DEFAULT '',
	status                  TEXT NOT NULL DEFAULT 'incomplete',
	last_enrichment_attempt DATETIME,
	last_enrichment_error   TEXT NOT NULL DEFAULT '',
	created_at              DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at              DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS contacts (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	company_id   INTEGER NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
	name         TEXT NOT NULL,
	role         TEXT NOT NULL DEFAULT '',
	email        TEXT NOT NULL DEFAULT '',
	phone        TEXT NOT NULL DEFAULT '',
	department   TEXT NOT NULL DEFAULT '',
	linkedin_url TEXT NOT NULL DEFAULT '',
	source       TEXT NOT NULL DEFAULT '',
	created_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS workflows (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	name       TEXT NOT NULL,
	steps      TEXT NOT NULL DEFAULT '[]',
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS groups (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	name       TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS group_companies (
	group_id   INTEGER NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
	company_id INTEGER NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
	PRIMARY KEY (group_id, company_id)
);

CREATE TABLE IF NOT EXISTS tasks (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	workflow_id INTEGER NOT NULL REFERENCES workflows(id),
	company_id  INTEGER NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
	contact_id  INTEGER REFERENCES contacts(id) ON DELETE SET NULL,
	type        TEXT NOT NULL,
	due_date    DATETIME NOT NULL,
	assigned_to INTEGER,
	created_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS audit_logs (
	id          TEXT PRIMARY KEY,
	actor_id    INTEGER NOT NULL DEFAULT 0,
	action      TEXT NOT NULL,
	entity_type TEXT NOT NULL,
	entity_id   INTEGER NOT NULL,
	details     TEXT,
	created_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_companies_status ON companies(status);
CREATE INDEX IF NOT EXISTS idx_contacts_company_id ON contacts(company_id);
CREATE INDEX IF NOT EXISTS idx_tasks_company_id ON tasks(company_id);
CREATE INDEX IF NOT EXISTS idx_audit_logs_created_at ON audit_logs(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const sqliteCompanyColumns = `id, name, address, phone, website, socials, industry,
	description, email, status, last_enrichment_attempt, last_enrichment_error,
	created_at, updated_at`

func (s *SQLiteStore) GetCompany(ctx context.Context, id int64) (*model.Company, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sqliteCompanyColumns+` FROM companies WHERE id = ?`, id)
	c, err := scanSQLiteCompany(row)
	if err == sql.ErrNoRows {
		return nil, eris.Errorf("sqlite: company %d not found", id)
	}
	return c, err
}

func (s *SQLiteStore) ListCompanies(ctx context.Context, limit, offset int) ([]model.Company, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sqliteCompanyColumns+` FROM companies ORDER BY id LIMIT ? OFFSET ?`,
		limit, offset)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list companies")
	}
	defer rows.Close()
	return collectSQLiteCompanies(rows)
}

func (s *SQLiteStore) UpdateCompanyFields(ctx context.Context, id int64, update model.CompanyUpdate) error {
	var (
		sets []string
		args []any
	)
	add := func(column string, value any) {
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}

	if update.Website != nil {
		add("website", *update.Website)
	}
	if update.Socials != nil {
		raw, err := json.Marshal(update.Socials)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal socials")
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
		add("last_enrichment_attempt", update.LastEnrichmentAttempt.UTC())
	}
	if update.LastEnrichmentError != nil {
		add("last_enrichment_error", *update.LastEnrichmentError)
	}
	if len(sets) == 0 {
		return nil
	}
	add("updated_at", time.Now().UTC())

	args = append(args, id)
	query := fmt.Sprintf("UPDATE companies SET %s WHERE id = ?", strings.Join(sets, ", "))

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update company %d", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Errorf("sqlite: company %d not found", id)
	}
	return nil
}

func (s *SQLiteStore) BulkInsertCompanies(ctx context.Context, companies []model.Company) (int64, error) {
	if len(companies) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin bulk insert")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO companies (name, address, phone, website, socials, industry, description, email, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare bulk insert")
	}
	defer stmt.Close()

	now := time.Now().UTC()
	var inserted int64
	for _, c := range companies {
		status := c.Status
		if status == "" {
			status = model.StatusIncomplete
		}
		socials, err := json.Marshal(c.Socials.Clone())
		if err != nil {
			return 0, eris.Wrap(err, "sqlite: marshal socials")
		}
		if _, err := stmt.ExecContext(ctx,
			c.Name, c.Address, c.Phone, c.Website, string(socials),
			c.Industry, c.Description, c.Email, string(status), now, now); err != nil {
			return 0, eris.Wrapf(err, "sqlite: insert company %q", c.Name)
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit bulk insert")
	}
	return inserted, nil
}

func (s *SQLiteStore) DedupeCompanies(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM companies WHERE id NOT IN (
			SELECT MIN(id) FROM companies GROUP BY LOWER(name)
		)`)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: dedupe companies")
	}
	n, err := res.RowsAffected()
	return n, eris.Wrap(err, "sqlite: rows affected")
}

func (s *SQLiteStore) CreateContact(ctx context.Context, contact model.Contact) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO contacts (company_id, name, role, email, phone, department, linkedin_url, source, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		contact.CompanyID, contact.Name, contact.Role, contact.Email,
		contact.Phone, contact.Department, contact.LinkedInURL, contact.Source,
		time.Now().UTC())
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: insert contact for company %d", contact.CompanyID)
	}
	id, err := res.LastInsertId()
	return id, eris.Wrap(err, "sqlite: last insert id")
}

func (s *SQLiteStore) ListContacts(ctx context.Context, companyID int64) ([]model.Contact, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, company_id, name, role, email, phone, department, linkedin_url, source, created_at
		 FROM contacts WHERE company_id = ? ORDER BY id`, companyID)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list contacts for company %d", companyID)
	}
	defer rows.Close()

	var contacts []model.Contact
	for rows.Next() {
		var c model.Contact
		if err := rows.Scan(&c.ID, &c.CompanyID, &c.Name, &c.Role, &c.Email,
			&c.Phone, &c.Department, &c.LinkedInURL, &c.Source, &c.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan contact")
		}
		contacts = append(contacts, c)
	}
	return contacts, eris.Wrap(rows.Err(), "sqlite: iterate contacts")
}

func (s *SQLiteStore) DedupeContacts(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM contacts WHERE id NOT IN (
			SELECT MIN(id) FROM contacts
			GROUP BY company_id, LOWER(name), LOWER(role), source
		)`)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: dedupe contacts")
	}
	n, err := res.RowsAffected()
	return n, eris.Wrap(err, "sqlite: rows affected")
}

func (s *SQLiteStore) GetWorkflow(ctx context.Context, id int64) (*model.Workflow, error) {
	var (
		w        model.Workflow
		stepsRaw string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, steps, created_at FROM workflows WHERE id = ?`, id,
	).Scan(&w.ID, &w.Name, &stepsRaw, &w.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.Errorf("sqlite: workflow %d not found", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get workflow %d", id)
	}
	if err := json.Unmarshal([]byte(stepsRaw), &w.Steps); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal workflow steps")
	}
	return &w, nil
}

func (s *SQLiteStore) ListCompaniesInGroup(ctx context.Context, groupID int64) ([]model.Company, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sqliteCompanyColumns+` FROM companies
		 JOIN group_companies gc ON gc.company_id = companies.id
		 WHERE gc.group_id = ? ORDER BY companies.id`, groupID)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list companies in group %d", groupID)
	}
	defer rows.Close()
	return collectSQLiteCompanies(rows)
}

func (s *SQLiteStore) CreateTask(ctx context.Context, task model.Task) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (workflow_id, company_id, contact_id, type, due_date, assigned_to, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		task.WorkflowID, task.CompanyID, task.ContactID, task.Type,
		task.DueDate.UTC(), task.AssignedTo, time.Now().UTC())
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: insert task for company %d", task.CompanyID)
	}
	id, err := res.LastInsertId()
	return id, eris.Wrap(err, "sqlite: last insert id")
}

func (s *SQLiteStore) RecordAudit(ctx context.Context, entry model.AuditEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	details, err := json.Marshal(entry.Details)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal audit details")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO audit_logs (id, actor_id, action, entity_type, entity_id, details, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.ActorID, entry.Action, entry.EntityType, entry.EntityID,
		string(details), entry.CreatedAt.UTC())
	return eris.Wrap(err, "sqlite: insert audit entry")
}

func (s *SQLiteStore) ListAudit(ctx context.Context, limit int) ([]model.AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, actor_id, action, entity_type, entity_id, details, created_at
		 FROM audit_logs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list audit entries")
	}
	defer rows.Close()

	var entries []model.AuditEntry
	for rows.Next() {
		var (
			e   model.AuditEntry
			raw sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.ActorID, &e.Action, &e.EntityType, &e.EntityID, &raw, &e.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan audit entry")
		}
		if raw.Valid && raw.String != "" && raw.String != "null" {
			if err := json.Unmarshal([]byte(raw.String), &e.Details); err != nil {
				return nil, eris.Wrap(err, "sqlite: unmarshal audit details")
			}
		}
		entries = append(entries, e)
	}
	return entries, eris.Wrap(rows.Err(), "sqlite: iterate audit entries")
}

// helpers

func scanSQLiteCompany(row scannable) (*model.Company, error) {
	var (
		c          model.Company
		socialsRaw string
		attempt    sql.NullTime
	)
	err := row.Scan(&c.ID, &c.Name, &c.Address, &c.Phone, &c.Website, &socialsRaw,
		&c.Industry, &c.Description, &c.Email, &c.Status,
		&attempt, &c.LastEnrichmentError, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if attempt.Valid {
		t := attempt.Time
		c.LastEnrichmentAttempt = &t
	}
	if socialsRaw != "" {
		if err := json.Unmarshal([]byte(socialsRaw), &c.Socials); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal socials")
		}
	}
	return &c, nil
}

func collectSQLiteCompanies(rows *sql.Rows) ([]model.Company, error) {
	var companies []model.Company
	for rows.Next() {
		c, err := scanSQLiteCompany(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan company")
		}
		companies = append(companies, *c)
	}
	return companies, eris.Wrap(rows.Err(), "sqlite: iterate companies")
}
