package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/enrich-cli/internal/model"
	"github.com/sells-group/enrich-cli/internal/queue"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and background job workers",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initApp(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		if err := env.Queue.Start(ctx); err != nil {
			return err
		}
		defer env.Queue.Stop()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(env),
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func newRouter(env *appEnv) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/companies/{id}/enrich", handleEnqueueEnrichment(env))
		r.Post("/companies/{id}/employees", handleEnqueueEmployees(env))
		r.Post("/groups/{id}/tasks", handleEnqueueTasks(env))
		r.Get("/companies/{id}", handleGetCompany(env))
		r.Get("/audit", handleListAudit(env))
	})

	return r
}

func handleEnqueueEnrichment(env *appEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		id, ok := pathID(w, req)
		if !ok {
			return
		}

		var body struct {
			URL string `json:"url"`
		}
		if req.Body != nil && req.ContentLength != 0 {
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
		}

		company, err := env.Store.GetCompany(req.Context(), id)
		if err != nil {
			writeError(w, http.StatusNotFound, "company not found")
			return
		}

		jobID, err := env.Queue.Enqueue(model.JobCompanyEnrichment, model.EnrichmentPayload{
			CompanyID:   company.ID,
			CompanyName: company.Name,
			URL:         body.URL,
		}, queue.EnqueueOptions{})
		if err != nil {
			writeError(w, http.StatusInternalServerError, "enqueue failed")
			return
		}

		writeJSON(w, http.StatusAccepted, map[string]any{
			"job_id":     jobID,
			"company_id": company.ID,
		})
	}
}

func handleEnqueueEmployees(env *appEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		id, ok := pathID(w, req)
		if !ok {
			return
		}

		company, err := env.Store.GetCompany(req.Context(), id)
		if err != nil {
			writeError(w, http.StatusNotFound, "company not found")
			return
		}

		jobID, err := env.Queue.Enqueue(model.JobEmployeeDiscovery, model.EmployeeDiscoveryPayload{
			CompanyID:   company.ID,
			CompanyName: company.Name,
			WebsiteURL:  company.Website,
			Location:    company.Address,
		}, queue.EnqueueOptions{})
		if err != nil {
			writeError(w, http.StatusInternalServerError, "enqueue failed")
			return
		}

		writeJSON(w, http.StatusAccepted, map[string]any{
			"job_id":     jobID,
			"company_id": company.ID,
		})
	}
}

func handleEnqueueTasks(env *appEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		id, ok := pathID(w, req)
		if !ok {
			return
		}

		var body struct {
			WorkflowID int64 `json:"workflow_id"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if body.WorkflowID == 0 {
			writeError(w, http.StatusBadRequest, "workflow_id is required")
			return
		}

		jobID, err := env.Queue.Enqueue(model.JobTaskGeneration, model.TaskGenerationPayload{
			GroupID:    id,
			WorkflowID: body.WorkflowID,
		}, queue.EnqueueOptions{})
		if err != nil {
			writeError(w, http.StatusInternalServerError, "enqueue failed")
			return
		}

		writeJSON(w, http.StatusAccepted, map[string]any{
			"job_id":   jobID,
			"group_id": id,
		})
	}
}

func handleGetCompany(env *appEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		id, ok := pathID(w, req)
		if !ok {
			return
		}

		company, err := env.Store.GetCompany(req.Context(), id)
		if err != nil {
			writeError(w, http.StatusNotFound, "company not found")
			return
		}
		writeJSON(w, http.StatusOK, company)
	}
}

func handleListAudit(env *appEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
		entries, err := env.Store.ListAudit(req.Context(), limit)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "audit query failed")
			return
		}
		if entries == nil {
			entries = []model.AuditEntry{}
		}
		writeJSON(w, http.StatusOK, entries)
	}
}

func pathID(w http.ResponseWriter, req *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(req, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
