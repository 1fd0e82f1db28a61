package orchestrator

import (
	"context"

	"go.uber.org/zap"

	"github.com/jobmesh/jobmesh/internal/logging"
	"github.com/jobmesh/jobmesh/internal/metrics"
	"github.com/jobmesh/jobmesh/internal/models"
	"github.com/jobmesh/jobmesh/internal/repository"
)

// Sender promotes Queued jobs to Processing, honoring per-user-per-service
// quotas, then dispatches Processing jobs to their worker (spec §4.2).
type Sender struct {
	repo     repository.JobRepository
	registry *Registry
	client   *DispatchClient
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// NewSender builds a Sender.
func NewSender(repo repository.JobRepository, registry *Registry, client *DispatchClient, logger *zap.Logger, m *metrics.Metrics) *Sender {
	return &Sender{repo: repo, registry: registry, client: client, logger: logger, metrics: m}
}

// Tick runs one Sender iteration.
func (s *Sender) Tick(ctx context.Context) {
	s.dispatchQueued(ctx)
	s.redispatchAbandoned(ctx)
}

func (s *Sender) dispatchQueued(ctx context.Context) {
	queued, err := s.repo.ListByStatus(ctx, models.JobQueued)
	if err != nil {
		s.logger.Error("sender: list queued jobs", zap.Error(err))
		return
	}

	for _, job := range queued {
		quota := s.registry.RunsPerUser(job.Service)

		inFlight, err := s.repo.CountInFlight(ctx, job.UserID, job.Service)
		if err != nil {
			s.logger.Error("sender: count in-flight", zap.Int64("job_id", job.ID), zap.Error(err))
			continue
		}
		if inFlight >= quota {
			continue
		}

		claimed, err := s.repo.ClaimQueuedByID(ctx, job.ID)
		if err != nil {
			s.logger.Error("sender: claim queued job", zap.Int64("job_id", job.ID), zap.Error(err))
			continue
		}
		if claimed == nil {
			// Already claimed or transitioned away by the time we got here;
			// re-evaluate on the next tick.
			continue
		}

		s.dispatch(ctx, claimed)
	}
}

// redispatchAbandoned re-submits jobs stuck in Processing with no dest_id —
// the crash window between ClaimQueuedByID's commit and MarkSubmitted.
// Idempotence (spec §4.2): a job left in Processing after a crash, with no
// dest_id, is re-submitted on the next tick rather than stranded until the
// Cleaner reaps it.
func (s *Sender) redispatchAbandoned(ctx context.Context) {
	processing, err := s.repo.ListByStatus(ctx, models.JobProcessing)
	if err != nil {
		s.logger.Error("sender: list processing jobs", zap.Error(err))
		return
	}
	for _, job := range processing {
		if job.DestID != "" {
			continue
		}
		s.dispatch(ctx, job)
	}
}

func (s *Sender) dispatch(ctx context.Context, job *models.Job) {
	svc, ok := s.registry.Lookup(job.Service)
	if !ok {
		s.fail(ctx, job, "service no longer registered")
		return
	}

	destID, err := s.client.Submit(ctx, svc.SubmitURL, job.Loc)
	if err != nil {
		s.logger.Warn("sender: submit failed", zap.Int64("job_id", job.ID), zap.Error(err))
		s.fail(ctx, job, err.Error())
		return
	}

	if err := s.repo.MarkSubmitted(ctx, job.ID, destID, svc.SubmitURL); err != nil {
		s.logger.Error("sender: mark submitted", zap.Int64("job_id", job.ID), zap.Error(err))
		return
	}
	s.logger.Info("job submitted", logging.JobFields(job.ID, job.UserID, job.Service, string(models.JobProcessing), string(models.JobSubmitted))...)
}

func (s *Sender) fail(ctx context.Context, job *models.Job, reason string) {
	if err := s.repo.MarkFailed(ctx, job.ID, models.FailCauseExec); err != nil {
		s.logger.Error("sender: mark failed", zap.Int64("job_id", job.ID), zap.Error(err))
		return
	}
	s.metrics.IncrementJobsFailed()
	s.logger.Warn("job dispatch failed", append(logging.JobFields(job.ID, job.UserID, job.Service, string(models.JobProcessing), string(models.JobFailed)), zap.String("reason", reason))...)
}
