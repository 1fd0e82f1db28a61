package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/jobmesh/jobmesh/internal/models"
)

// SQLiteRepository implements JobRepository using SQLite, the orchestrator's
// sole durable store (spec §5.1: jobs must survive a restart).
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository opens dbPath in WAL mode and ensures the schema exists.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("repository: open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("repository: ping database: %w", err)
	}

	repo := &SQLiteRepository{db: db}
	if err := repo.initSchema(); err != nil {
		return nil, fmt.Errorf("repository: init schema: %w", err)
	}
	return repo, nil
}

// Close closes the underlying database connection.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteRepository) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS jobs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		service TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'queued',
		loc TEXT NOT NULL,
		dest_id TEXT NOT NULL DEFAULT '',
		dest_service_url TEXT NOT NULL DEFAULT '',
		fail_cause TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);
	CREATE INDEX IF NOT EXISTS idx_jobs_status_service ON jobs(status, service);
	CREATE INDEX IF NOT EXISTS idx_jobs_user_service ON jobs(user_id, service);
	CREATE INDEX IF NOT EXISTS idx_jobs_created_at ON jobs(created_at);
	`
	_, err := r.db.Exec(schema)
	return err
}

func scanJob(row interface{ Scan(...interface{}) error }) (*models.Job, error) {
	var job models.Job
	var status, failCause string
	var createdAt int64

	if err := row.Scan(&job.ID, &job.UserID, &job.Service, &status, &job.Loc,
		&job.DestID, &job.DestServiceURL, &failCause, &createdAt); err != nil {
		return nil, err
	}
	job.Status = models.ParseJobStatus(status)
	job.FailCause = models.FailCause(failCause)
	job.CreatedAt = time.Unix(createdAt, 0)
	return &job, nil
}

const jobColumns = `id, user_id, service, status, loc, dest_id, dest_service_url, fail_cause, created_at`

// CreateJob inserts a new job in the Queued state and returns its id.
func (r *SQLiteRepository) CreateJob(ctx context.Context, job *models.Job) (int64, error) {
	job.CreatedAt = time.Now()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO jobs (user_id, service, status, loc, dest_id, dest_service_url, fail_cause, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		job.UserID, job.Service, models.JobQueued, job.Loc, "", "", "", job.CreatedAt.Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("repository: insert job: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("repository: read inserted id: %w", err)
	}
	return id, nil
}

// GetJob retrieves a single job by id.
func (r *SQLiteRepository) GetJob(ctx context.Context, id int64) (*models.Job, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("repository: get job: %w", err)
	}
	return job, nil
}

// ListJobs returns every job, newest first, for diagnostic listing.
func (r *SQLiteRepository) ListJobs(ctx context.Context) ([]*models.Job, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+jobColumns+` FROM jobs ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("repository: list jobs: %w", err)
	}
	defer rows.Close()
	return collectJobs(rows)
}

func collectJobs(rows *sql.Rows) ([]*models.Job, error) {
	var jobs []*models.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("repository: scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: iterate jobs: %w", err)
	}
	return jobs, nil
}

// ClaimQueuedByID atomically transitions id to Processing, but only if it
// is still Queued at the time of the update. Callers pick the candidate
// (FIFO order, quota checks) before calling this, so the claim must be
// scoped to that exact job, not merely its service (spec §4.2 step 2c) —
// claiming the service-head regardless of caller could transition a
// different user's job out from under a quota check done for someone else.
func (r *SQLiteRepository) ClaimQueuedByID(ctx context.Context, id int64) (*models.Job, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("repository: begin claim: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE id = ? AND status = ?`,
		id, models.JobQueued,
	)
	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("repository: find queued job: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE jobs SET status = ? WHERE id = ?`, models.JobProcessing, job.ID); err != nil {
		return nil, fmt.Errorf("repository: claim job: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("repository: commit claim: %w", err)
	}

	job.Status = models.JobProcessing
	return job, nil
}

// MarkSubmitted transitions a job to Submitted, recording where the worker
// is holding it.
func (r *SQLiteRepository) MarkSubmitted(ctx context.Context, id int64, destID, destServiceURL string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE jobs SET status = ?, dest_id = ?, dest_service_url = ? WHERE id = ?`,
		models.JobSubmitted, destID, destServiceURL, id,
	)
	if err != nil {
		return fmt.Errorf("repository: mark submitted: %w", err)
	}
	return nil
}

// MarkStatus performs a bare status transition.
func (r *SQLiteRepository) MarkStatus(ctx context.Context, id int64, status models.JobStatus) error {
	_, err := r.db.ExecContext(ctx, `UPDATE jobs SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("repository: mark status: %w", err)
	}
	return nil
}

// MarkFailed transitions a job to Failed, recording the ABI sub-cause.
func (r *SQLiteRepository) MarkFailed(ctx context.Context, id int64, cause models.FailCause) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE jobs SET status = ?, fail_cause = ? WHERE id = ?`,
		models.JobFailed, cause, id,
	)
	if err != nil {
		return fmt.Errorf("repository: mark failed: %w", err)
	}
	return nil
}

// ListByStatus returns every job currently in status, oldest first.
func (r *SQLiteRepository) ListByStatus(ctx context.Context, status models.JobStatus) ([]*models.Job, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE status = ? ORDER BY created_at ASC, id ASC`, status)
	if err != nil {
		return nil, fmt.Errorf("repository: list by status: %w", err)
	}
	defer rows.Close()
	return collectJobs(rows)
}

// CountInFlight counts jobs for (userID, service) in Processing, Submitted,
// or Unknown, the set spec §4.1 defines as occupying a user's quota slot.
func (r *SQLiteRepository) CountInFlight(ctx context.Context, userID int64, service string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM jobs WHERE user_id = ? AND service = ? AND status IN (?, ?, ?)`,
		userID, service, models.JobProcessing, models.JobSubmitted, models.JobUnknown,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("repository: count in-flight: %w", err)
	}
	return count, nil
}

// ListOlderThan returns terminal (Completed or Failed) jobs created before
// cutoff, the Cleaner task's sweep candidates (spec §4.4).
func (r *SQLiteRepository) ListOlderThan(ctx context.Context, cutoff time.Time) ([]*models.Job, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE status IN (?, ?) AND created_at < ?`,
		models.JobCompleted, models.JobFailed, cutoff.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("repository: list older than: %w", err)
	}
	defer rows.Close()
	return collectJobs(rows)
}
