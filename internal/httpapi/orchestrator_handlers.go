package httpapi

import (
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/jobmesh/jobmesh/internal/blob"
	"github.com/jobmesh/jobmesh/internal/metrics"
	"github.com/jobmesh/jobmesh/internal/models"
	"github.com/jobmesh/jobmesh/internal/orchestrator"
	"github.com/jobmesh/jobmesh/internal/repository"
)

type orchestratorHandlers struct {
	ingest         *orchestrator.IngestService
	repo           repository.JobRepository
	metrics        *metrics.Metrics
	logger         *zap.Logger
	maxUploadBytes int64
}

// upload handles POST /upload (spec §6.1).
func (h *orchestratorHandlers) upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "request too large or malformed multipart body")
		return
	}

	userIDStr := r.FormValue("user_id")
	userID, err := strconv.ParseInt(userIDStr, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "user_id must be an integer")
		return
	}

	service := r.FormValue("service")
	if service == "" {
		writeError(w, http.StatusBadRequest, "service is required")
		return
	}

	files := r.MultipartForm.File["file"]
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, "at least one file is required")
		return
	}

	job, err := h.ingest.CreateJob(r.Context(), userID, service, files)
	if err != nil {
		switch {
		case errors.Is(err, orchestrator.ErrUnknownService):
			writeError(w, http.StatusBadRequest, "unknown service")
		case errors.Is(err, orchestrator.ErrMissingRunScript):
			writeError(w, http.StatusBadRequest, "missing run.sh")
		default:
			h.logger.Error("upload failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "upload failed")
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(job)
}

// download handles HEAD and GET /download/{id} (spec §6.1).
func (h *orchestratorHandlers) download(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusNotFound, "invalid job id")
		return
	}

	job, err := h.repo.GetJob(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "job not found")
			return
		}
		h.logger.Error("download lookup failed", zap.Int64("job_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}

	status := orchestrator.DownloadStatus(job)
	if r.Method == http.MethodHead || status != http.StatusOK {
		w.WriteHeader(status)
		return
	}

	archivePath := filepath.Join(job.Loc, blob.ResultArchiveName)
	f, err := os.Open(archivePath)
	if err != nil {
		h.logger.Error("archive open failed", zap.Int64("job_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "archive unavailable")
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/zip")
	w.WriteHeader(http.StatusOK)
	io.Copy(w, f)
}

// health handles GET /health.
func (h *orchestratorHandlers) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
}

// metrics_ handles GET /metrics, a diagnostic addition beyond spec §6.1.
func (h *orchestratorHandlers) metrics_(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.metrics.GetSnapshot())
}

// listJobs handles GET /jobs, a read-only diagnostic addition beyond
// spec §6.1's three state-affecting routes. An optional ?status= query
// limits the listing to jobs in that status.
func (h *orchestratorHandlers) listJobs(w http.ResponseWriter, r *http.Request) {
	var jobs []*models.Job
	var err error
	if status := r.URL.Query().Get("status"); status != "" {
		jobs, err = h.repo.ListByStatus(r.Context(), models.ParseJobStatus(status))
	} else {
		jobs, err = h.repo.ListJobs(r.Context())
	}
	if err != nil {
		h.logger.Error("list jobs failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "list failed")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(jobs)
}

// getJob handles GET /jobs/{id}, a read-only diagnostic addition.
func (h *orchestratorHandlers) getJob(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid job id")
		return
	}
	job, err := h.repo.GetJob(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "job not found")
			return
		}
		h.logger.Error("get job failed", zap.Int64("job_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(job)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
