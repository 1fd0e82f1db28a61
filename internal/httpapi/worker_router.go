package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/jobmesh/jobmesh/internal/payloadstore"
	"github.com/jobmesh/jobmesh/internal/worker"
)

// NewWorkerRouter builds the chi router for the worker role.
func NewWorkerRouter(svc *worker.PayloadService, store *payloadstore.Store, loadSampleWindow time.Duration, logger *zap.Logger, maxUploadBytes int64) http.Handler {
	h := &workerHandlers{svc: svc, store: store, loadSampleWindow: loadSampleWindow, logger: logger, maxUploadBytes: maxUploadBytes}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(zapRequestLogger(logger))

	r.Post("/submit", h.submit)
	r.Get("/retrieve/{id}", h.retrieve)
	r.Get("/load", h.load)
	r.Get("/health", h.health)

	return r
}
