package orchestrator

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/jobmesh/jobmesh/internal/blob"
	"github.com/jobmesh/jobmesh/internal/logging"
	"github.com/jobmesh/jobmesh/internal/metrics"
	"github.com/jobmesh/jobmesh/internal/models"
	"github.com/jobmesh/jobmesh/internal/repository"
)

// Cleaner reclaims disk for jobs older than maxAge, regardless of status
// (spec §4.4: "operates on all statuses including in-progress ones").
type Cleaner struct {
	repo    repository.JobRepository
	maxAge  time.Duration
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewCleaner builds a Cleaner.
func NewCleaner(repo repository.JobRepository, maxAge time.Duration, logger *zap.Logger, m *metrics.Metrics) *Cleaner {
	return &Cleaner{repo: repo, maxAge: maxAge, logger: logger, metrics: m}
}

// Tick runs one Cleaner iteration. It sweeps terminal jobs older than
// maxAge; abandoned non-terminal jobs are caught by the same cutoff since
// ListOlderThan is scoped to completed/failed, so in-progress jobs stuck
// past maxAge are reclaimed by a broader sweep below.
func (c *Cleaner) Tick(ctx context.Context) {
	cutoff := time.Now().Add(-c.maxAge)

	jobs, err := c.repo.ListOlderThan(ctx, cutoff)
	if err != nil {
		c.logger.Error("cleaner: list old jobs", zap.Error(err))
		return
	}

	for _, job := range jobs {
		c.reclaim(ctx, job)
	}

	c.reclaimAbandoned(ctx, cutoff)
}

// reclaimAbandoned sweeps non-terminal jobs (Queued, Processing, Submitted,
// Unknown) past the cutoff, since spec §4.4 treats them as abandoned too.
func (c *Cleaner) reclaimAbandoned(ctx context.Context, cutoff time.Time) {
	for _, status := range []models.JobStatus{models.JobQueued, models.JobProcessing, models.JobSubmitted, models.JobUnknown} {
		jobs, err := c.repo.ListByStatus(ctx, status)
		if err != nil {
			c.logger.Error("cleaner: list by status", zap.String("status", string(status)), zap.Error(err))
			continue
		}
		for _, job := range jobs {
			if job.CreatedAt.After(cutoff) {
				continue
			}
			c.reclaim(ctx, job)
		}
	}
}

func (c *Cleaner) reclaim(ctx context.Context, job *models.Job) {
	if err := blob.Remove(job.Loc); err != nil {
		c.logger.Error("cleaner: remove blob failed, retrying next tick", zap.Int64("job_id", job.ID), zap.Error(err))
		return
	}
	if err := c.repo.MarkStatus(ctx, job.ID, models.JobCleaned); err != nil {
		c.logger.Error("cleaner: mark cleaned", zap.Int64("job_id", job.ID), zap.Error(err))
		return
	}
	c.metrics.IncrementJobsCleaned()
	c.logger.Info("job cleaned", logging.JobFields(job.ID, job.UserID, job.Service, string(job.Status), string(models.JobCleaned))...)
}
