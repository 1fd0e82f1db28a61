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
	"github.com/jobmesh/jobmesh/internal/orchestrator"
	"github.com/jobmesh/jobmesh/internal/repository"
	"github.com/jobmesh/jobmesh/internal/task"
)

const maxUploadBytes = 400 << 20 // 400 MiB, spec §6.1 default cap

func newOrchestrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "orchestrate",
		Short: "Run the orchestrator role",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOrchestrate()
		},
	}
}

func runOrchestrate() error {
	logger := logging.New()
	defer logger.Sync()

	cfg, err := config.LoadOrchestrator()
	if err != nil {
		return fmt.Errorf("orchestrate: load config: %w", err)
	}

	if err := os.MkdirAll(cfg.DataPath, 0o755); err != nil {
		return fmt.Errorf("orchestrate: create data path: %w", err)
	}

	repo, err := repository.NewSQLiteRepository(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("orchestrate: open repository: %w", err)
	}
	defer repo.Close()

	m := metrics.NewMetrics()
	registry := orchestrator.NewRegistry(cfg)
	dispatchClient := orchestrator.NewDispatchClient(10 * time.Second)
	ingest := orchestrator.NewIngestService(repo, registry, cfg.DataPath, logger, m)

	sender := orchestrator.NewSender(repo, registry, dispatchClient, logger, m)
	getter := orchestrator.NewGetter(repo, registry, dispatchClient, logger, m)
	cleaner := orchestrator.NewCleaner(repo, cfg.MaxAge, logger, m)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go task.New("sender", 500*time.Millisecond, sender.Tick, logger).Run(ctx)
	go task.New("getter", 500*time.Millisecond, getter.Tick, logger).Run(ctx)
	go task.New("cleaner", 60*time.Second, cleaner.Tick, logger).Run(ctx)

	router := httpapi.NewOrchestratorRouter(ingest, repo, m, logger, maxUploadBytes)
	server := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Port), Handler: router}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("orchestrator listening", zap.Int("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return fmt.Errorf("orchestrate: server error: %w", err)
	case <-sigCh:
		logger.Info("shutting down orchestrator")
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	return server.Shutdown(shutdownCtx)
}
