// Package models defines the record shapes shared across the orchestrator
// and worker roles.
package models

import "time"

// JobStatus is the lifecycle state of an orchestrator-side Job.
type JobStatus string

const (
	JobQueued     JobStatus = "queued"
	JobProcessing JobStatus = "processing"
	JobSubmitted  JobStatus = "submitted"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
	JobUnknown    JobStatus = "unknown"
	JobCleaned    JobStatus = "cleaned"
)

// ParseJobStatus maps a stored status string back to a JobStatus,
// case-insensitively. Unrecognized input maps to JobUnknown.
func ParseJobStatus(s string) JobStatus {
	switch JobStatus(asciiLower(s)) {
	case JobQueued, JobProcessing, JobSubmitted, JobCompleted, JobFailed, JobUnknown, JobCleaned:
		return JobStatus(asciiLower(s))
	default:
		return JobUnknown
	}
}

func asciiLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// InFlight reports whether this status counts against a (user_id, service)
// quota: Processing, Submitted, Unknown.
func (s JobStatus) InFlight() bool {
	switch s {
	case JobProcessing, JobSubmitted, JobUnknown:
		return true
	default:
		return false
	}
}

// FailCause records which of the two Failed sub-causes the ABI's
// /download mapping must distinguish (spec §6.1: 400 bad-input vs 410
// execution failure). It is implementation bookkeeping, not part of the
// spec's Job.status enum, needed because both causes collapse to the same
// Failed status.
type FailCause string

const (
	// FailCauseExec covers Sender dispatch failures and worker-reported
	// execution failures (410 Gone at /retrieve).
	FailCauseExec FailCause = "exec"
	// FailCauseInput covers worker-reported payload invalidation (400 Bad
	// Request at /retrieve — the script validator rejected it).
	FailCauseInput FailCause = "input"
)

// Job is the orchestrator's durable record of one user submission.
type Job struct {
	ID             int64     `json:"id"`
	UserID         int64     `json:"user_id"`
	Service        string    `json:"service"`
	Status         JobStatus `json:"status"`
	Loc            string    `json:"loc"`
	DestID         string    `json:"dest_id,omitempty"`
	DestServiceURL string    `json:"dest_service_url,omitempty"`
	FailCause      FailCause `json:"fail_cause,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Service is a registry entry: a named class of compute handled by a
// specific worker URL pair, carrying its own per-user quota.
type Service struct {
	Name        string
	SubmitURL   string
	RetrieveURL string
	RunsPerUser int
}
