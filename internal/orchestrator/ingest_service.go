package orchestrator

import (
	"context"
	"fmt"
	"mime/multipart"

	"go.uber.org/zap"

	"github.com/jobmesh/jobmesh/internal/blob"
	"github.com/jobmesh/jobmesh/internal/metrics"
	"github.com/jobmesh/jobmesh/internal/models"
	"github.com/jobmesh/jobmesh/internal/repository"
)

// ErrUnknownService is returned when /upload names a service not in the
// registry.
var ErrUnknownService = fmt.Errorf("ingest: unknown service")

// ErrMissingRunScript is returned when the uploaded file set has no file
// literally named run.sh.
var ErrMissingRunScript = fmt.Errorf("ingest: no run.sh in upload")

// IngestService implements the orchestrator's POST /upload semantics
// (spec §4.1): validate, write files, create a Queued job record.
type IngestService struct {
	repo     repository.JobRepository
	registry *Registry
	dataPath string
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// NewIngestService builds an IngestService.
func NewIngestService(repo repository.JobRepository, registry *Registry, dataPath string, logger *zap.Logger, m *metrics.Metrics) *IngestService {
	return &IngestService{repo: repo, registry: registry, dataPath: dataPath, logger: logger, metrics: m}
}

// CreateJob validates service and the run.sh requirement, writes files
// under a fresh job directory, and creates a Queued record.
func (s *IngestService) CreateJob(ctx context.Context, userID int64, service string, files []*multipart.FileHeader) (*models.Job, error) {
	if _, ok := s.registry.Lookup(service); !ok {
		return nil, ErrUnknownService
	}

	hasRunScript := false
	for _, fh := range files {
		if blob.SanitizeFilename(fh.Filename) == "run.sh" {
			hasRunScript = true
			break
		}
	}
	if !hasRunScript {
		return nil, ErrMissingRunScript
	}

	dir, err := blob.NewDir(s.dataPath)
	if err != nil {
		return nil, fmt.Errorf("ingest: create job dir: %w", err)
	}

	for _, fh := range files {
		src, err := fh.Open()
		if err != nil {
			blob.Remove(dir)
			return nil, fmt.Errorf("ingest: open upload %q: %w", fh.Filename, err)
		}
		writeErr := blob.WriteFile(dir, fh.Filename, src)
		src.Close()
		if writeErr != nil {
			blob.Remove(dir)
			return nil, fmt.Errorf("ingest: write upload %q: %w", fh.Filename, writeErr)
		}
	}

	job := &models.Job{UserID: userID, Service: service, Loc: dir}
	id, err := s.repo.CreateJob(ctx, job)
	if err != nil {
		blob.Remove(dir)
		return nil, fmt.Errorf("ingest: create job record: %w", err)
	}
	job.ID = id
	job.Status = models.JobQueued

	s.metrics.IncrementJobsSubmitted()
	s.logger.Info("job created", zap.Int64("job_id", id), zap.Int64("user_id", userID), zap.String("service", service))

	return job, nil
}

// DownloadStatus maps a job's status to the HTTP code the /download
// handler should return, per spec §6.1, splitting Failed into 400
// (bad input) vs 410 (execution failure) via the job's recorded FailCause.
func DownloadStatus(job *models.Job) int {
	switch job.Status {
	case models.JobCompleted:
		return 200
	case models.JobQueued, models.JobProcessing, models.JobSubmitted, models.JobUnknown:
		return 202
	case models.JobCleaned:
		return 204
	case models.JobFailed:
		if job.FailCause == models.FailCauseInput {
			return 400
		}
		return 410
	default:
		return 404
	}
}
