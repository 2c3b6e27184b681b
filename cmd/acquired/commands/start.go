package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/marmos91/acquire/internal/logger"
	"github.com/marmos91/acquire/pkg/config"
	"github.com/marmos91/acquire/pkg/metrics"
	"github.com/marmos91/acquire/pkg/statusapi"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the acquisition daemon",
	Long: `Start the acquisition daemon.

start loads configuration, constructs the hash-index and blob-store
collaborator backends, and serves the metrics and status HTTP surfaces.
It does not itself accept agent connections: a caller links this module
and drives acquire.StartMultiGetFile against its own transport, then
registers the resulting engine with the status API so it shows up here.

Examples:
  acquired start
  acquired start --config /etc/acquire/config.yaml
  ACQUIRE_LOGGING_LEVEL=DEBUG acquired start --config /etc/acquire/config.yaml`,
	RunE: runStart,
}

func init() {
	startCmd.Flags().IntVar(&statusPort, "status-port", 9200, "port for the status API (/health, /flows)")
}

var statusPort int

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := InitLogger(cfg); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger.Info("acquired starting", "config_source", getConfigSource(GetConfigFile()))
	logger.Info("engine configuration",
		"maximum_pending_files", cfg.Engine.MaximumPendingFiles,
		"use_external_stores", cfg.Engine.UseExternalStores)

	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		logger.Info("metrics enabled", "port", cfg.Metrics.Port)
	} else {
		logger.Info("metrics disabled")
	}

	hashMetrics := metrics.NewHashIndexMetrics()
	blobMetrics := metrics.NewBlobStoreMetrics()

	hashIdx, closeHashIdx, err := buildHashIndex(cfg.HashIndex, hashMetrics)
	if err != nil {
		return err
	}
	if closeHashIdx != nil {
		defer func() {
			if err := closeHashIdx(); err != nil {
				logger.Warn("hash index close error", "error", err)
			}
		}()
	}
	logger.Info("hash index backend ready", "backend", cfg.HashIndex.Backend)

	blobStore, closeBlobStore, err := buildBlobStore(ctx, cfg.BlobStore, blobMetrics)
	if err != nil {
		return err
	}
	if closeBlobStore != nil {
		defer func() {
			if err := closeBlobStore(); err != nil {
				logger.Warn("blob store close error", "error", err)
			}
		}()
	}
	logger.Info("blob store backend ready", "backend", cfg.BlobStore.Backend)

	// hashIdx and blobStore are constructed and ready for a caller embedding
	// this process to hand to acquire.StartMultiGetFile; acquired itself
	// only needs them constructed so buildHashIndex/buildBlobStore's errors
	// (bad paths, bad buckets) surface at startup instead of first use.
	_ = hashIdx
	_ = blobStore

	statusRegistry := statusapi.NewRegistry()
	statusSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", statusPort),
		Handler: statusapi.NewRouter(statusRegistry),
	}

	var metricsSrv *http.Server
	if cfg.Metrics.Enabled {
		metricsSrv = metrics.NewServer(cfg.Metrics.Port)
	}

	serverErrs := make(chan error, 2)
	go func() {
		if err := statusSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrs <- fmt.Errorf("status API server: %w", err)
			return
		}
		serverErrs <- nil
	}()
	if metricsSrv != nil {
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serverErrs <- fmt.Errorf("metrics server: %w", err)
				return
			}
			serverErrs <- nil
		}()
	}

	watchStop := make(chan struct{})
	if configPath := GetConfigFile(); configPath != "" {
		go func() {
			if err := config.WatchLogLevel(configPath, watchStop); err != nil {
				logger.Warn("config watcher exited", "error", err)
			}
		}()
	}
	defer close(watchStop)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("acquired is running", "status_port", statusPort)

	select {
	case <-sigChan:
		signal.Stop(sigChan)
		logger.Info("shutdown signal received, initiating graceful shutdown")
	case err := <-serverErrs:
		if err != nil {
			logger.Error("server error", "error", err)
			cancel()
			return err
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := statusSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("status API shutdown error", "error", err)
	}
	if metricsSrv != nil {
		if err := metrics.Shutdown(shutdownCtx, metricsSrv); err != nil {
			logger.Warn("metrics shutdown error", "error", err)
		}
	}

	cancel()
	logger.Info("acquired stopped")
	return nil
}
