package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/jobmesh/jobmesh/internal/blob"
	"github.com/jobmesh/jobmesh/internal/loadprobe"
	"github.com/jobmesh/jobmesh/internal/models"
	"github.com/jobmesh/jobmesh/internal/payloadstore"
	"github.com/jobmesh/jobmesh/internal/worker"
)

type workerHandlers struct {
	svc              *worker.PayloadService
	store            *payloadstore.Store
	loadSampleWindow time.Duration
	logger           *zap.Logger
	maxUploadBytes   int64
}

// submit handles POST /submit (spec §6.2).
func (h *workerHandlers) submit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	files := r.MultipartForm.File["file"]
	if len(files) == 0 {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	payload, err := h.svc.Create(files)
	if err != nil {
		h.logger.Error("submit failed", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(payload)
}

// retrieve handles GET /retrieve/{id} (spec §6.2).
func (h *workerHandlers) retrieve(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	payload, err := h.store.Get(id)
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	switch payload.Status {
	case models.PayloadCompleted:
		archivePath := filepath.Join(payload.Loc, blob.ResultArchiveName)
		f, err := os.Open(archivePath)
		if err != nil {
			h.logger.Error("retrieve archive open failed", zap.Int("payload_id", id), zap.Error(err))
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		defer f.Close()
		w.Header().Set("Content-Type", "application/zip")
		w.WriteHeader(http.StatusOK)
		io.Copy(w, f)
	case models.PayloadPrepared, models.PayloadRunning:
		w.WriteHeader(http.StatusAccepted)
	case models.PayloadInvalid:
		w.WriteHeader(http.StatusBadRequest)
	case models.PayloadFailed:
		w.WriteHeader(http.StatusGone)
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

// load handles GET /load (spec §6.2).
func (h *workerHandlers) load(w http.ResponseWriter, r *http.Request) {
	pct, err := loadprobe.Percent(h.loadSampleWindow)
	if err != nil {
		h.logger.Error("load probe failed", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(pct)
}

// health handles GET /health.
func (h *workerHandlers) health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

