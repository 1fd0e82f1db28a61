package orchestrator

import (
	"context"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/jobmesh/jobmesh/internal/blob"
	"github.com/jobmesh/jobmesh/internal/logging"
	"github.com/jobmesh/jobmesh/internal/metrics"
	"github.com/jobmesh/jobmesh/internal/models"
	"github.com/jobmesh/jobmesh/internal/repository"
)

// Getter pulls results from workers for Submitted/Unknown jobs, interpreting
// the worker's /retrieve status code per the ABI table in spec §6.2.
type Getter struct {
	repo     repository.JobRepository
	registry *Registry
	client   *DispatchClient
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// NewGetter builds a Getter.
func NewGetter(repo repository.JobRepository, registry *Registry, client *DispatchClient, logger *zap.Logger, m *metrics.Metrics) *Getter {
	return &Getter{repo: repo, registry: registry, client: client, logger: logger, metrics: m}
}

// Tick runs one Getter iteration.
func (g *Getter) Tick(ctx context.Context) {
	for _, status := range []models.JobStatus{models.JobSubmitted, models.JobUnknown} {
		jobs, err := g.repo.ListByStatus(ctx, status)
		if err != nil {
			g.logger.Error("getter: list jobs", zap.String("status", string(status)), zap.Error(err))
			continue
		}
		for _, job := range jobs {
			if job.DestID == "" {
				continue
			}
			g.retrieve(ctx, job)
		}
	}
}

func (g *Getter) retrieve(ctx context.Context, job *models.Job) {
	svc, ok := g.registry.Lookup(job.Service)
	if !ok {
		g.transition(ctx, job, models.JobUnknown)
		return
	}

	result, err := g.client.Retrieve(ctx, svc.RetrieveURL, job.DestID)
	if err != nil {
		g.logger.Debug("getter: retrieve transport error", zap.Int64("job_id", job.ID), zap.Error(err))
		g.transition(ctx, job, models.JobUnknown)
		return
	}
	defer result.Body.Close()

	switch result.StatusCode {
	case http.StatusOK:
		g.complete(ctx, job, result.Body)
	case http.StatusAccepted:
		// Still executing; leave status unchanged.
	case http.StatusNoContent:
		g.transition(ctx, job, models.JobUnknown)
	case http.StatusBadRequest:
		g.fail(ctx, job, models.FailCauseInput)
	case http.StatusGone:
		g.fail(ctx, job, models.FailCauseExec)
	default:
		g.transition(ctx, job, models.JobUnknown)
	}
}

func (g *Getter) fail(ctx context.Context, job *models.Job, cause models.FailCause) {
	if err := g.repo.MarkFailed(ctx, job.ID, cause); err != nil {
		g.logger.Error("getter: mark failed", zap.Int64("job_id", job.ID), zap.Error(err))
		return
	}
	g.metrics.IncrementJobsFailed()
	g.logger.Info("job status transition", logging.JobFields(job.ID, job.UserID, job.Service, string(job.Status), string(models.JobFailed))...)
}

func (g *Getter) complete(ctx context.Context, job *models.Job, body io.ReadCloser) {
	if _, err := blob.WriteStream(job.Loc, blob.ResultArchiveName, body); err != nil {
		g.logger.Warn("getter: archive write failed, retrying next tick", zap.Int64("job_id", job.ID), zap.Error(err))
		return
	}
	g.transition(ctx, job, models.JobCompleted)
}

func (g *Getter) transition(ctx context.Context, job *models.Job, to models.JobStatus) {
	if job.Status == to {
		return
	}
	if err := g.repo.MarkStatus(ctx, job.ID, to); err != nil {
		g.logger.Error("getter: mark status", zap.Int64("job_id", job.ID), zap.Error(err))
		return
	}

	switch to {
	case models.JobCompleted:
		g.metrics.IncrementJobsCompleted()
	case models.JobFailed:
		g.metrics.IncrementJobsFailed()
	case models.JobUnknown:
		g.metrics.IncrementJobsUnknown()
	}
	g.logger.Info("job status transition", logging.JobFields(job.ID, job.UserID, job.Service, string(job.Status), string(to))...)
}
