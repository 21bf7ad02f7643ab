package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/enrich-cli/internal/discovery"
	"github.com/sells-group/enrich-cli/internal/employee"
	"github.com/sells-group/enrich-cli/internal/enrich"
	"github.com/sells-group/enrich-cli/internal/mailer"
	"github.com/sells-group/enrich-cli/internal/model"
	"github.com/sells-group/enrich-cli/internal/queue"
	"github.com/sells-group/enrich-cli/internal/scrape"
	"github.com/sells-group/enrich-cli/internal/searchclient"
	"github.com/sells-group/enrich-cli/internal/store"
	"github.com/sells-group/enrich-cli/internal/taskgen"
)

// appEnv wires the store, discovery waterfall, job handlers, and queue.
// Every command that processes jobs builds one.
type appEnv struct {
	Store    store.Store
	Queue    *queue.Service
	Enricher *enrich.Enricher
	Finder   *employee.Finder
	TaskGen  *taskgen.Generator
	Mailer   *mailer.Mailer
}

func initApp(ctx context.Context) (*appEnv, error) {
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	search := searchclient.New(cfg.Search)
	registry := discovery.NewRegistryStrategy(cfg.Registry)
	guess := discovery.NewGuessStrategy(cfg.Guess)
	waterfall := discovery.NewWaterfall(search, registry, guess)
	scraper := scrape.New(cfg.Scrape)

	industry, err := enrich.NewIndustryClassifier(cfg.Industry.TaxonomyPath)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	env := &appEnv{
		Store:    st,
		Enricher: enrich.New(st, waterfall, scraper, industry),
		Finder:   employee.New(st, scraper, search),
		TaskGen:  taskgen.New(st),
		Mailer:   mailer.New(cfg.Mail, st),
	}

	env.Queue = queue.New(queue.Options{
		Workers:         cfg.Queue.Workers,
		DefaultAttempts: cfg.Queue.DefaultAttempts,
		DefaultBackoff: model.Backoff{
			Type:  model.BackoffType(cfg.Queue.BackoffType),
			Delay: time.Duration(cfg.Queue.BackoffDelayMs) * time.Millisecond,
		},
	})
	env.Queue.Register(model.JobCompanyEnrichment, env.Enricher.HandleEnrichment)
	env.Queue.Register(model.JobEmployeeDiscovery, env.Finder.HandleDiscovery)
	env.Queue.Register(model.JobTaskGeneration, env.TaskGen.HandleGeneration)
	env.Queue.Register(model.JobEmail, env.Mailer.HandleEmail)

	return env, nil
}

func (e *appEnv) Close() {
	_ = e.Store.Close()
}

// drain waits until the pending list empties, then stops the queue. In-flight
// handlers finish; retries still waiting on their backoff timer are abandoned.
func (e *appEnv) drain(ctx context.Context) {
	for e.Queue.Pending() > 0 && ctx.Err() == nil {
		time.Sleep(100 * time.Millisecond)
	}
	e.Queue.Stop()
}
