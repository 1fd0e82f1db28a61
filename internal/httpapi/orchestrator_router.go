// Package httpapi wires chi routers over the orchestrator's and worker's
// HTTP surfaces (spec §6.1, §6.2).
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/jobmesh/jobmesh/internal/metrics"
	"github.com/jobmesh/jobmesh/internal/orchestrator"
	"github.com/jobmesh/jobmesh/internal/repository"
)

// NewOrchestratorRouter builds the chi router for the orchestrator role.
func NewOrchestratorRouter(ingest *orchestrator.IngestService, repo repository.JobRepository, m *metrics.Metrics, logger *zap.Logger, maxUploadBytes int64) http.Handler {
	h := &orchestratorHandlers{ingest: ingest, repo: repo, metrics: m, logger: logger, maxUploadBytes: maxUploadBytes}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(zapRequestLogger(logger))

	r.Post("/upload", h.upload)
	r.Head("/download/{id}", h.download)
	r.Get("/download/{id}", h.download)
	r.Get("/health", h.health)
	r.Get("/metrics", h.metrics_)
	r.Get("/jobs", h.listJobs)
	r.Get("/jobs/{id}", h.getJob)

	return r
}
