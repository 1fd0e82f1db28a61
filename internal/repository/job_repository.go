package repository

import (
	"context"
	"time"

	"github.com/jobmesh/jobmesh/internal/models"
)

// JobRepository defines the persistence contract for the orchestrator's
// job table. Implementations must make the status transitions atomic:
// CreateJob, ClaimQueuedByID, MarkSubmitted, MarkStatus and MarkFailed each
// commit in a single transaction so the Sender/Getter/Cleaner tasks never
// observe a half-written row.
type JobRepository interface {
	CreateJob(ctx context.Context, job *models.Job) (int64, error)
	GetJob(ctx context.Context, id int64) (*models.Job, error)
	ListJobs(ctx context.Context) ([]*models.Job, error)

	// ClaimQueuedByID transitions job id to Processing, but only if it is
	// still Queued, returning nil if it has already been claimed or
	// otherwise transitioned away (spec §4.2 step 2c: "only this job, only
	// from Queued"). The Sender calls this once it has already picked and
	// quota-checked a specific candidate.
	ClaimQueuedByID(ctx context.Context, id int64) (*models.Job, error)

	// MarkSubmitted transitions a Processing job to Submitted, recording
	// the downstream dest_id and dest_service_url returned by the worker.
	MarkSubmitted(ctx context.Context, id int64, destID, destServiceURL string) error

	// MarkStatus performs a plain status transition with no side data.
	MarkStatus(ctx context.Context, id int64, status models.JobStatus) error

	// MarkFailed transitions a job to Failed, recording which ABI sub-cause
	// applies (spec §6.1's 400 vs 410 distinction).
	MarkFailed(ctx context.Context, id int64, cause models.FailCause) error

	// ListByStatus returns every job currently in status, oldest first.
	ListByStatus(ctx context.Context, status models.JobStatus) ([]*models.Job, error)

	// CountInFlight returns how many jobs for (userID, service) are in
	// Processing, Submitted, or Unknown — the orchestrator's quota count.
	CountInFlight(ctx context.Context, userID int64, service string) (int, error)

	// ListOlderThan returns jobs in a terminal state (Completed or Failed)
	// created before cutoff, for the Cleaner task.
	ListOlderThan(ctx context.Context, cutoff time.Time) ([]*models.Job, error)
}
