// Package worker implements the Runner periodic task: executing Prepared
// payloads and producing their result archive (spec §4.5).
package worker

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/jobmesh/jobmesh/internal/blob"
	"github.com/jobmesh/jobmesh/internal/logging"
	"github.com/jobmesh/jobmesh/internal/metrics"
	"github.com/jobmesh/jobmesh/internal/models"
	"github.com/jobmesh/jobmesh/internal/payloadstore"
	"github.com/jobmesh/jobmesh/internal/validator"
)

const outputLogName = "output.log"

// Runner executes Prepared payloads to completion, one at a time within a
// tick (spec §4.5: "processes one payload to completion before starting
// the next in the same tick").
type Runner struct {
	store      *payloadstore.Store
	runTimeout time.Duration
	logger     *zap.Logger
	metrics    *metrics.Metrics
}

// NewRunner builds a Runner.
func NewRunner(store *payloadstore.Store, runTimeout time.Duration, logger *zap.Logger, m *metrics.Metrics) *Runner {
	return &Runner{store: store, runTimeout: runTimeout, logger: logger, metrics: m}
}

// Tick runs one Runner iteration.
func (r *Runner) Tick(ctx context.Context) {
	for _, p := range r.store.List() {
		if p.Status != models.PayloadPrepared {
			continue
		}
		r.execute(ctx, p)
	}
}

func (r *Runner) execute(ctx context.Context, p *models.Payload) {
	scriptPath := filepath.Join(p.Loc, "run.sh")

	if err := validator.ValidateFile(scriptPath); err != nil {
		r.setStatus(p.ID, models.PayloadInvalid)
		r.logger.Warn("payload rejected by validator", append(logging.PayloadFields(p.ID, string(models.PayloadPrepared), string(models.PayloadInvalid)), zap.Error(err))...)
		r.metrics.IncrementPayloadsInvalid()
		return
	}

	r.setStatus(p.ID, models.PayloadRunning)
	r.logger.Info("payload running", logging.PayloadFields(p.ID, string(models.PayloadPrepared), string(models.PayloadRunning))...)

	runCtx, cancel := context.WithTimeout(ctx, r.runTimeout)
	defer cancel()

	exitCode, err := r.runScript(runCtx, p.Loc, scriptPath)
	if err != nil {
		r.logger.Error("payload run error", zap.Int("payload_id", p.ID), zap.Error(err))
	}

	if _, zerr := blob.Zip(p.Loc); zerr != nil {
		r.logger.Error("payload archive failed", zap.Int("payload_id", p.ID), zap.Error(zerr))
	}

	if exitCode == 0 && err == nil {
		r.setStatus(p.ID, models.PayloadCompleted)
		r.metrics.IncrementPayloadsCompleted()
		r.logger.Info("payload completed", logging.PayloadFields(p.ID, string(models.PayloadRunning), string(models.PayloadCompleted))...)
		return
	}

	r.setStatus(p.ID, models.PayloadFailed)
	r.metrics.IncrementPayloadsFailed()
	r.logger.Info("payload failed", append(logging.PayloadFields(p.ID, string(models.PayloadRunning), string(models.PayloadFailed)), zap.Int("exit_code", exitCode))...)
}

// runScript spawns bash run.sh with cwd=dir, capturing combined output to a
// file under dir so it becomes part of the result bundle.
func (r *Runner) runScript(ctx context.Context, dir, scriptPath string) (int, error) {
	outFile, err := os.Create(filepath.Join(dir, outputLogName))
	if err != nil {
		return -1, fmt.Errorf("runner: create output log: %w", err)
	}
	defer outFile.Close()

	cmd := exec.CommandContext(ctx, "bash", scriptPath)
	cmd.Dir = dir
	cmd.Env = []string{"PATH=/usr/bin:/bin", "HOME=" + dir}
	cmd.Stdout = outFile
	cmd.Stderr = outFile

	runErr := cmd.Run()
	if ctx.Err() != nil {
		return -1, fmt.Errorf("runner: timed out: %w", ctx.Err())
	}
	if runErr == nil {
		return 0, nil
	}
	if exitErr, ok := runErr.(*exec.ExitError); ok {
		return exitErr.ExitCode(), nil
	}
	return -1, fmt.Errorf("runner: exec failed: %w", runErr)
}

func (r *Runner) setStatus(id int, status models.PayloadStatus) {
	if err := r.store.SetStatus(id, status); err != nil {
		r.logger.Error("runner: set status", zap.Int("payload_id", id), zap.Error(err))
	}
}
