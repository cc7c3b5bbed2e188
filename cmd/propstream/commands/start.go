package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/marmos91/propstream/internal/config"
	"github.com/marmos91/propstream/internal/logger"
	"github.com/marmos91/propstream/internal/telemetry"
	"github.com/marmos91/propstream/pkg/api"
	"github.com/marmos91/propstream/pkg/fileregistry"
	"github.com/marmos91/propstream/pkg/itemstore"
	"github.com/marmos91/propstream/pkg/metrics"
	"github.com/marmos91/propstream/pkg/readpipeline"
	"github.com/marmos91/propstream/pkg/writepipeline"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the propstream server",
	Long: `Start the propstream HTTP server.

Examples:
  propstream start
  propstream start --config /etc/propstream/config.yaml
  PROPSTREAM_LOGGING_LEVEL=DEBUG propstream start`,
	RunE: runStart,
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(viper.New(), GetConfigFile())
	if err != nil {
		return err
	}

	if err := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	telemetryShutdown, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       true,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := telemetryShutdown(context.Background()); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}()

	logger.Info("configuration loaded", "storage_root", cfg.Storage.Root, "bind_address", cfg.Server.BindAddress)

	store, err := itemstore.New(cfg.Storage.Root)
	if err != nil {
		return fmt.Errorf("failed to initialize item store: %w", err)
	}
	registry := fileregistry.New()

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New(prometheus.DefaultRegisterer)
	}

	write := writepipeline.New(store, registry, int(cfg.Storage.MaxPropertySize))
	read := readpipeline.New(store, registry)
	handlers := api.NewHandlers(write, read, m)
	router := api.NewRouter(handlers, cfg.Metrics.Enabled)

	server := &http.Server{
		Addr:    cfg.Server.BindAddress,
		Handler: router,
	}

	serverDone := make(chan error, 1)
	go func() {
		logger.Info("propstream server listening", "address", cfg.Server.BindAddress)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverDone <- err
			return
		}
		serverDone <- nil
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
		signal.Stop(sigChan)
		logger.Info("shutdown signal received, initiating graceful shutdown")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", "error", err)
			return err
		}
		<-serverDone
		logger.Info("server stopped gracefully")

	case err := <-serverDone:
		signal.Stop(sigChan)
		if err != nil {
			logger.Error("server error", "error", err)
			return err
		}
		logger.Info("server stopped")
	}

	return nil
}
