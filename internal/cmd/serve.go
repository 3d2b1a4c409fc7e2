package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Maryland-State-Innovation-Team/Repetitive-Task-Agent/internal/observability"
	"github.com/Maryland-State-Innovation-Team/Repetitive-Task-Agent/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Long: `Run the batch engine as an HTTP service.

Endpoints:
  GET  /health          health check
  GET  /version         build version
  GET  /lists           enumerate work list files
  POST /lists           save a new work list
  POST /lists/load      load a list and return its preview
  POST /runs            start a batch run (returns a run_id immediately)
  GET  /runs/{runID}    poll run status

Example:
  rta serve
  rta serve --port 9000 --sandbox ./data`,
	RunE: runServe,
}

var servePort int

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Override server.port")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := observability.ServerLogger

	eng, err := buildEngine(logger)
	if err != nil {
		return exitError(foundry.ExitInvalidArgument, "Invalid configuration", err)
	}

	port := cfg.Server.Port
	if servePort != 0 {
		port = servePort
	}

	srv, err := server.New(ctx, server.Config{
		Host:         cfg.Server.Host,
		Port:         port,
		Version:      versionInfo.Version,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}, server.Deps{
		Store:    eng.store,
		Runner:   eng.runner,
		Registry: eng.registry,
		Logger:   logger,
	})
	if err != nil {
		return exitError(foundry.ExitInvalidArgument, "Invalid server configuration", err)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		if err != nil {
			return exitError(foundry.ExitExternalServiceUnavailable, "Server failed", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Graceful shutdown incomplete", zap.Error(err))
	}
	return <-errCh
}
