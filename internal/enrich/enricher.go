// Package enrich implements the company-enrichment orchestrator: it resolves
// a website through the discovery waterfall, scrapes it, merges the findings
// into the persisted record, and classifies the result.
package enrich

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/enrich-cli/internal/discovery"
	"github.com/sells-group/enrich-cli/internal/model"
	"github.com/sells-group/enrich-cli/internal/scrape"
)

// Store is the persistence surface the orchestrator needs. The full store
// implements it; tests substitute a mock.
type Store interface {
	GetCompany(ctx context.Context, id int64) (*model.Company, error)
	UpdateCompanyFields(ctx context.Context, id int64, update model.CompanyUpdate) error
	RecordAudit(ctx context.Context, entry model.AuditEntry) error
}

// Resolver runs the discovery waterfall.
type Resolver interface {
	Resolve(ctx context.Context, in discovery.Input, knownURL string) discovery.Outcome
}

// Scraper fetches and extracts one page.
type Scraper interface {
	Scrape(ctx context.Context, url string) (*scrape.PageData, error)
}

// Enricher handles company_enrichment jobs.
type Enricher struct {
	store    Store
	resolver Resolver
	scraper  Scraper
	industry *IndustryClassifier
}

// New creates an Enricher.
func New(store Store, resolver Resolver, scraper Scraper, industry *IndustryClassifier) *Enricher {
	return &Enricher{
		store:    store,
		resolver: resolver,
		scraper:  scraper,
		industry: industry,
	}
}

// HandleEnrichment is the queue handler for company_enrichment jobs. A
// returned error has already been recorded on the company as a
// scraping_failed status; the queue retries against that durable state.
func (e *Enricher) HandleEnrichment(ctx context.Context, job *model.Job) error {
	payload, err := enrichmentPayload(job)
	if err != nil {
		// Malformed payloads never become valid; don't burn retries on them.
		zap.L().Error("enrich: bad payload, dropping job",
			zap.String("job_id", job.ID),
			zap.Error(err),
		)
		return nil
	}

	log := zap.L().With(
		zap.Int64("company_id", payload.CompanyID),
		zap.String("job_id", job.ID),
	)
	log.Info("enrich: starting")

	if err := e.run(ctx, payload, log); err != nil {
		e.recordFailure(ctx, payload, err, log)
		return err
	}
	return nil
}

// run executes one enrichment pass end to end.
func (e *Enricher) run(ctx context.Context, payload model.EnrichmentPayload, log *zap.Logger) error {
	company, err := e.store.GetCompany(ctx, payload.CompanyID)
	if err != nil {
		return eris.Wrapf(err, "enrich: load company %d", payload.CompanyID)
	}

	in := discovery.Input{
		Name:    company.Name,
		Address: company.Address,
		Phone:   company.Phone,
	}
	if payload.CompanyName != "" {
		in.Name = payload.CompanyName
	}
	if company.Email != "" {
		in.KnownEmails = append(in.KnownEmails, company.Email)
	}

	knownURL := payload.URL
	if knownURL == "" {
		knownURL = company.Website
	}

	outcome := e.resolver.Resolve(ctx, in, knownURL)

	// Scrape failures degrade to an empty page; classification proceeds on
	// whatever discovery produced.
	var page *scrape.PageData
	if outcome.Website != "" {
		page, err = e.scraper.Scrape(ctx, outcome.Website)
		if err != nil {
			log.Warn("enrich: scrape failed, continuing with discovery results",
				zap.String("website", outcome.Website),
				zap.Error(err),
			)
		}
	}

	// Descriptions sometimes mention the real website or extra profiles.
	if page != nil && usableDescription(page.Description) {
		textWebsite, textSocials := scrape.ExtractLinks(page.Description)
		if outcome.Website == "" && textWebsite != "" {
			outcome.Website = textWebsite
			outcome.Source = model.SourceTextExtract
		}
		for platform, link := range textSocials {
			if _, taken := outcome.Socials[platform]; !taken {
				outcome.Socials[platform] = link
			}
		}
	}

	industry := company.Industry
	if industry == "" && e.industry != nil {
		text := in.Name
		if page != nil {
			text += " " + page.Description + " " + page.Title
		}
		industry = e.industry.Infer(text)
	}

	finding := BuildFinding(&outcome, page, industry)
	update := BuildUpdate(company, finding)

	now := time.Now()
	update.LastEnrichmentAttempt = &now
	empty := ""
	update.LastEnrichmentError = &empty

	if err := e.store.UpdateCompanyFields(ctx, company.ID, update); err != nil {
		return eris.Wrapf(err, "enrich: persist company %d", company.ID)
	}

	e.audit(ctx, payload, "company.enriched", map[string]any{
		"status":  string(*update.Status),
		"website": finding.Website,
		"source":  string(outcome.Source),
		"socials": len(finding.Socials),
	})

	log.Info("enrich: complete",
		zap.String("status", string(*update.Status)),
		zap.String("website", finding.Website),
		zap.String("source", string(outcome.Source)),
	)
	return nil
}

// recordFailure persists the scraping_failed status with the error message
// and attempt time. The original good fields are left untouched.
func (e *Enricher) recordFailure(ctx context.Context, payload model.EnrichmentPayload, cause error, log *zap.Logger) {
	now := time.Now()
	status := model.StatusScrapingFailed
	msg := cause.Error()

	err := e.store.UpdateCompanyFields(ctx, payload.CompanyID, model.CompanyUpdate{
		Status:                &status,
		LastEnrichmentAttempt: &now,
		LastEnrichmentError:   &msg,
	})
	if err != nil {
		log.Error("enrich: failed to record failure status", zap.Error(err))
	}

	e.audit(ctx, payload, "company.enrichment_failed", map[string]any{
		"error": msg,
	})
	log.Error("enrich: run failed", zap.Error(cause))
}

// audit records an audit entry; audit failures are logged, never fatal.
func (e *Enricher) audit(ctx context.Context, payload model.EnrichmentPayload, action string, details map[string]any) {
	entry := model.AuditEntry{
		ActorID:    payload.UserID,
		Action:     action,
		EntityType: "company",
		EntityID:   payload.CompanyID,
		Details:    details,
		CreatedAt:  time.Now(),
	}
	if err := e.store.RecordAudit(ctx, entry); err != nil {
		zap.L().Warn("enrich: audit write failed", zap.Error(err))
	}
}

// enrichmentPayload extracts the typed payload from a job.
func enrichmentPayload(job *model.Job) (model.EnrichmentPayload, error) {
	switch p := job.Payload.(type) {
	case model.EnrichmentPayload:
		return p, nil
	case *model.EnrichmentPayload:
		if p != nil {
			return *p, nil
		}
	}
	return model.EnrichmentPayload{}, eris.Errorf("enrich: unexpected payload type %T", job.Payload)
}
