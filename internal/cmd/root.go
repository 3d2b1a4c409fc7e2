// Package cmd implements the rta command line interface.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/Maryland-State-Innovation-Team/Repetitive-Task-Agent/internal/config"
	"github.com/Maryland-State-Innovation-Team/Repetitive-Task-Agent/internal/observability"
	"github.com/Maryland-State-Innovation-Team/Repetitive-Task-Agent/pkg/batch"
	"github.com/Maryland-State-Innovation-Team/Repetitive-Task-Agent/pkg/batch/aggregate"
	"github.com/Maryland-State-Innovation-Team/Repetitive-Task-Agent/pkg/batch/invoke"
	"github.com/Maryland-State-Innovation-Team/Repetitive-Task-Agent/pkg/batch/status"
	"github.com/Maryland-State-Innovation-Team/Repetitive-Task-Agent/pkg/sandbox"
	"github.com/Maryland-State-Innovation-Team/Repetitive-Task-Agent/pkg/workerclient"
	"github.com/Maryland-State-Innovation-Team/Repetitive-Task-Agent/pkg/worklist"
)

// versionInfo carries build-time identification injected via ldflags.
var versionInfo = struct {
	Version   string
	Commit    string
	BuildDate string
}{
	Version:   "dev",
	Commit:    "HEAD",
	BuildDate: "unknown",
}

// SetVersionInfo records build identification before Execute.
func SetVersionInfo(version, commit, buildDate string) {
	versionInfo.Version = version
	versionInfo.Commit = commit
	versionInfo.BuildDate = buildDate
}

var (
	cfgFile     string
	logLevelArg string
	sandboxArg  string

	// cfg is resolved once in the persistent pre-run and shared by
	// every subcommand.
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "rta",
	Short: "Repetitive task batch engine",
	Long: `rta runs a repetitive task over a work list.

A work list is a CSV of items. A task manifest defines the instruction
template applied to each item, the expected flat JSON response shape,
and where to write the aggregated CSV of results. rta invokes an
external worker once per item, in order, and pads the result table so
every observed response field becomes a column.

Work lists and results live under a sandbox directory; paths outside it
are rejected.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return bootstrap()
	}
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to config file (default: ./rta.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevelArg, "log-level", "", "Log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().StringVar(&sandboxArg, "sandbox", "", "Sandbox root directory")
}

// bootstrap resolves configuration and initializes logging. Flags win
// over environment variables and the config file.
func bootstrap() error {
	overrides := map[string]any{}
	if logLevelArg != "" {
		overrides["logging.level"] = logLevelArg
	}
	if sandboxArg != "" {
		overrides["sandbox.root"] = sandboxArg
	}

	loaded, err := config.Load(rootCmd.Context(), cfgFile, overrides)
	if err != nil {
		return fmt.Errorf("resolve configuration: %w", err)
	}
	cfg = loaded

	if err := observability.Init(cfg.Logging.Level, cfg.Logging.Profile); err != nil {
		return fmt.Errorf("initialize logging: %w", err)
	}
	return nil
}

// setDefaults registers config defaults on the global viper, for
// commands that inspect configuration before Load runs.
func setDefaults() {
	config.SetDefaults(viper.GetViper())
}

// exitError wraps err with a human message and the process exit code.
func exitError(code int, message string, err error) error {
	return fmt.Errorf("%s (exit code %d): %w", message, code, err)
}

// engine is the wired batch machinery shared by serve and run.
type engine struct {
	root     *sandbox.Root
	store    *worklist.Store
	registry *status.Registry
	runner   *batch.Runner
}

// buildEngine assembles the sandbox, store, worker, and runner from cfg.
func buildEngine(logger *zap.Logger) (*engine, error) {
	root, err := sandbox.New(cfg.Sandbox.Root)
	if err != nil {
		return nil, fmt.Errorf("open sandbox %s: %w", cfg.Sandbox.Root, err)
	}

	worker, err := buildWorker()
	if err != nil {
		return nil, err
	}

	registry := status.NewRegistry()
	return &engine{
		root:     root,
		store:    worklist.NewStore(root),
		registry: registry,
		runner:   batch.NewRunner(registry, aggregate.New(root), worker, logger),
	}, nil
}

// buildWorker constructs the configured worker client.
func buildWorker() (invoke.Worker, error) {
	switch cfg.Worker.Kind {
	case "http":
		return workerclient.NewHTTP(workerclient.HTTPConfig{
			Endpoint: cfg.Worker.Endpoint,
			Timeout:  cfg.Worker.Timeout,
		})
	case "command":
		return workerclient.NewCommand(workerclient.CommandConfig{
			Command: cfg.Worker.Command,
			Args:    cfg.Worker.Args,
		})
	default:
		return nil, fmt.Errorf("unsupported worker.kind: %q", cfg.Worker.Kind)
	}
}

// Execute runs the CLI. It owns process exit on failure.
func Execute() {
	defer observability.Sync()

	rootCmd.Version = fmt.Sprintf("%s (commit %s, built %s)",
		versionInfo.Version, versionInfo.Commit, versionInfo.BuildDate)

	if err := rootCmd.Execute(); err != nil {
		observability.CLILogger.Error("Command failed", zap.Error(err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
