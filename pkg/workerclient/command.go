package workerclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"github.com/Maryland-State-Innovation-Team/Repetitive-Task-Agent/pkg/batch/invoke"
)

// CommandConfig configures a subprocess worker.
type CommandConfig struct {
	// Command is the executable to spawn per item. Required.
	Command string

	// Args are fixed arguments passed on every invocation.
	Args []string
}

// Validate checks the configuration.
func (c CommandConfig) Validate() error {
	if strings.TrimSpace(c.Command) == "" {
		return fmt.Errorf("worker command is required")
	}
	return nil
}

// Command invokes a worker as one fresh subprocess per item.
//
// The invocation payload is written to the child's stdin as JSON
// {item, instructions, response_format}; the child's stdout is the raw
// output. The process exits before Invoke returns, so no state survives
// between items.
type Command struct {
	command string
	args    []string
}

// NewCommand creates a subprocess worker.
func NewCommand(cfg CommandConfig) (*Command, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Command{command: cfg.Command, args: cfg.Args}, nil
}

// Invoke spawns the subprocess and waits for its terminal output.
func (c *Command) Invoke(ctx context.Context, req invoke.Request) (string, error) {
	payload, err := json.Marshal(httpRequest{
		Item:           req.Item,
		Instructions:   req.Instructions,
		ResponseFormat: req.ResponseFormat,
	})
	if err != nil {
		return "", fmt.Errorf("workerclient: marshal payload: %w", err)
	}

	cmd := exec.CommandContext(ctx, c.command, c.args...)
	cmd.Stdin = bytes.NewReader(payload)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if stderr.Len() > 0 {
			return "", fmt.Errorf("workerclient: %w: %s", err, strings.TrimSpace(stderr.String()))
		}
		return "", fmt.Errorf("workerclient: %w", err)
	}
	return stdout.String(), nil
}

// Compile-time check that Command implements invoke.Worker.
var _ invoke.Worker = (*Command)(nil)
