// Package observability owns logger construction for the CLI and server
// surfaces.
//
// CLILogger writes human-oriented console output on stderr so command
// stdout stays clean for data. ServerLogger writes structured JSON. Both
// default to no-ops until Init runs, so packages can log safely during
// early startup.
package observability

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// CLILogger is used by cobra commands.
var CLILogger = zap.NewNop()

// ServerLogger is used by the HTTP surface and the batch engine when
// running under serve.
var ServerLogger = zap.NewNop()

// Init builds the package loggers.
//
// level is a zap level name ("debug", "info", ...). profile selects the
// encoder: "console" or "structured" (JSON).
func Init(level, profile string) error {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid logging level %q: %w", level, err)
	}

	cliCfg := zap.NewDevelopmentConfig()
	cliCfg.Level = zap.NewAtomicLevelAt(lvl)
	cliCfg.OutputPaths = []string{"stderr"}
	cliCfg.ErrorOutputPaths = []string{"stderr"}
	cli, err := cliCfg.Build()
	if err != nil {
		return fmt.Errorf("build CLI logger: %w", err)
	}

	srvCfg := zap.NewProductionConfig()
	if profile == "console" {
		srvCfg = cliCfg
	}
	srvCfg.Level = zap.NewAtomicLevelAt(lvl)
	srv, err := srvCfg.Build()
	if err != nil {
		return fmt.Errorf("build server logger: %w", err)
	}

	CLILogger = cli
	ServerLogger = srv
	return nil
}

// Sync flushes buffered log entries. Called on shutdown.
func Sync() {
	_ = CLILogger.Sync()
	_ = ServerLogger.Sync()
}
