package models

// PayloadStatus is the lifecycle state of a worker-side Payload.
type PayloadStatus string

const (
	PayloadPrepared  PayloadStatus = "prepared"
	PayloadRunning   PayloadStatus = "running"
	PayloadCompleted PayloadStatus = "completed"
	PayloadFailed    PayloadStatus = "failed"
	PayloadInvalid   PayloadStatus = "invalid"
)

// Payload is the worker's ephemeral, in-memory record of one dispatched job.
type Payload struct {
	ID     int   `json:"id"`
	Status PayloadStatus `json:"status"`
	Loc    string        `json:"loc"`
}
