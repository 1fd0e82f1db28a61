package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jobmesh/jobmesh/internal/config"
	"github.com/jobmesh/jobmesh/internal/httpapi"
	"github.com/jobmesh/jobmesh/internal/logging"
	"github.com/jobmesh/jobmesh/internal/metrics"
	"github.com/jobmesh/jobmesh/internal/payloadstore"
	"github.com/jobmesh/jobmesh/internal/task"
	"github.com/jobmesh/jobmesh/internal/worker"
)

func newWorkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "work",
		Short: "Run the worker role",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWork()
		},
	}
}

func runWork() error {
	logger := logging.New()
	defer logger.Sync()

	cfg, err := config.LoadWorker()
	if err != nil {
		return fmt.Errorf("work: load config: %w", err)
	}

	if err := os.MkdirAll(cfg.WorkDir, 0o755); err != nil {
		return fmt.Errorf("work: create work dir: %w", err)
	}

	m := metrics.NewMetrics()
	store := payloadstore.New()
	payloadSvc := worker.NewPayloadService(store, cfg.WorkDir, logger, m)
	runner := worker.NewRunner(store, cfg.RunTimeout, logger, m)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go task.New("runner", 500*time.Millisecond, runner.Tick, logger).Run(ctx)

	router := httpapi.NewWorkerRouter(payloadSvc, store, 200*time.Millisecond, logger, maxUploadBytes)
	server := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Port), Handler: router}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("worker listening", zap.Int("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return fmt.Errorf("work: server error: %w", err)
	case <-sigCh:
		logger.Info("shutting down worker")
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	return server.Shutdown(shutdownCtx)
}
