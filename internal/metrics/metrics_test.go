package metrics

import (
	"sync"
	"testing"
)

func TestMetrics_IncrementJobsSubmitted(t *testing.T) {
	m := NewMetrics()
	m.IncrementJobsSubmitted()

	snapshot := m.GetSnapshot()
	if snapshot["jobs_submitted"] != 1 {
		t.Errorf("expected jobs_submitted 1, got %d", snapshot["jobs_submitted"])
	}
}

func TestMetrics_IncrementJobsCompleted(t *testing.T) {
	m := NewMetrics()
	m.IncrementJobsCompleted()

	snapshot := m.GetSnapshot()
	if snapshot["jobs_completed"] != 1 {
		t.Errorf("expected jobs_completed 1, got %d", snapshot["jobs_completed"])
	}
}

func TestMetrics_IncrementJobsFailed(t *testing.T) {
	m := NewMetrics()
	m.IncrementJobsFailed()

	snapshot := m.GetSnapshot()
	if snapshot["jobs_failed"] != 1 {
		t.Errorf("expected jobs_failed 1, got %d", snapshot["jobs_failed"])
	}
}

func TestMetrics_IncrementJobsUnknown(t *testing.T) {
	m := NewMetrics()
	m.IncrementJobsUnknown()

	snapshot := m.GetSnapshot()
	if snapshot["jobs_unknown"] != 1 {
		t.Errorf("expected jobs_unknown 1, got %d", snapshot["jobs_unknown"])
	}
}

func TestMetrics_ConcurrentAccess(t *testing.T) {
	m := NewMetrics()
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.IncrementJobsSubmitted()
			m.IncrementJobsCompleted()
			m.IncrementJobsFailed()
			m.IncrementPayloadsPrepared()
		}()
	}

	wg.Wait()

	snapshot := m.GetSnapshot()
	if snapshot["jobs_submitted"] != 100 {
		t.Errorf("expected jobs_submitted 100, got %d", snapshot["jobs_submitted"])
	}
	if snapshot["jobs_completed"] != 100 {
		t.Errorf("expected jobs_completed 100, got %d", snapshot["jobs_completed"])
	}
}

func TestMetrics_GetSnapshot(t *testing.T) {
	m := NewMetrics()
	m.IncrementJobsSubmitted()
	m.IncrementJobsSubmitted()
	m.IncrementJobsCompleted()
	m.IncrementJobsFailed()
	m.IncrementJobsCleaned()

	snapshot := m.GetSnapshot()

	expected := map[string]int64{
		"jobs_submitted": 2,
		"jobs_completed": 1,
		"jobs_failed":    1,
		"jobs_cleaned":   1,
	}

	for key, expectedValue := range expected {
		if snapshot[key] != expectedValue {
			t.Errorf("expected %s %d, got %d", key, expectedValue, snapshot[key])
		}
	}
}
