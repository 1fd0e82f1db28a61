// Package metrics tracks in-process counters for the orchestrator and
// worker roles, exposed as a JSON snapshot.
package metrics

import "sync"

// Metrics tracks job/payload outcome counters.
type Metrics struct {
	mu sync.RWMutex

	jobsSubmitted int64
	jobsCompleted int64
	jobsFailed    int64
	jobsCleaned   int64
	jobsUnknown   int64

	payloadsPrepared  int64
	payloadsCompleted int64
	payloadsFailed    int64
	payloadsInvalid   int64
}

// NewMetrics creates a new metrics instance.
func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) IncrementJobsSubmitted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobsSubmitted++
}

func (m *Metrics) IncrementJobsCompleted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobsCompleted++
}

func (m *Metrics) IncrementJobsFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobsFailed++
}

func (m *Metrics) IncrementJobsCleaned() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobsCleaned++
}

func (m *Metrics) IncrementJobsUnknown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobsUnknown++
}

func (m *Metrics) IncrementPayloadsPrepared() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payloadsPrepared++
}

func (m *Metrics) IncrementPayloadsCompleted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payloadsCompleted++
}

func (m *Metrics) IncrementPayloadsFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payloadsFailed++
}

func (m *Metrics) IncrementPayloadsInvalid() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payloadsInvalid++
}

// GetSnapshot returns a snapshot of all metrics.
func (m *Metrics) GetSnapshot() map[string]int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]int64{
		"jobs_submitted":     m.jobsSubmitted,
		"jobs_completed":     m.jobsCompleted,
		"jobs_failed":        m.jobsFailed,
		"jobs_cleaned":       m.jobsCleaned,
		"jobs_unknown":       m.jobsUnknown,
		"payloads_prepared":  m.payloadsPrepared,
		"payloads_completed": m.payloadsCompleted,
		"payloads_failed":    m.payloadsFailed,
		"payloads_invalid":   m.payloadsInvalid,
	}
}
