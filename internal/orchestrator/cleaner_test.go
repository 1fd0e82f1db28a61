package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jobmesh/jobmesh/internal/metrics"
	"github.com/jobmesh/jobmesh/internal/models"
)

func TestCleaner_RemovesOldTerminalJobs(t *testing.T) {
	repo := newTestSenderRepo(t)
	ctx := context.Background()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "result.zip"), []byte("x"), 0o644))

	id, err := repo.CreateJob(ctx, &models.Job{UserID: 1, Service: "echo", Loc: dir})
	require.NoError(t, err)
	require.NoError(t, repo.MarkStatus(ctx, id, models.JobCompleted))

	// A negative maxAge pushes the cutoff into the future, guaranteeing the
	// job (created_at has only second resolution) counts as old regardless
	// of how little wall-clock time has actually elapsed in the test.
	cleaner := NewCleaner(repo, -time.Hour, zap.NewNop(), metrics.NewMetrics())
	cleaner.Tick(ctx)

	job, err := repo.GetJob(ctx, id)
	require.NoError(t, err)
	require.Equal(t, models.JobCleaned, job.Status)

	_, statErr := os.Stat(dir)
	require.True(t, os.IsNotExist(statErr))
}

func TestCleaner_ReclaimsAbandonedInProgressJobs(t *testing.T) {
	repo := newTestSenderRepo(t)
	ctx := context.Background()

	dir := t.TempDir()
	id, err := repo.CreateJob(ctx, &models.Job{UserID: 1, Service: "echo", Loc: dir})
	require.NoError(t, err)
	require.NoError(t, repo.MarkStatus(ctx, id, models.JobProcessing))

	cleaner := NewCleaner(repo, -time.Hour, zap.NewNop(), metrics.NewMetrics())
	cleaner.Tick(ctx)

	job, err := repo.GetJob(ctx, id)
	require.NoError(t, err)
	require.Equal(t, models.JobCleaned, job.Status)
}

func TestCleaner_LeavesRecentJobsAlone(t *testing.T) {
	repo := newTestSenderRepo(t)
	ctx := context.Background()

	dir := t.TempDir()
	id, err := repo.CreateJob(ctx, &models.Job{UserID: 1, Service: "echo", Loc: dir})
	require.NoError(t, err)
	require.NoError(t, repo.MarkStatus(ctx, id, models.JobCompleted))

	cleaner := NewCleaner(repo, time.Hour, zap.NewNop(), metrics.NewMetrics())
	cleaner.Tick(ctx)

	job, err := repo.GetJob(ctx, id)
	require.NoError(t, err)
	require.Equal(t, models.JobCompleted, job.Status)
	require.DirExists(t, dir)
}
