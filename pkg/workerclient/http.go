// Package workerclient provides Worker implementations for the external
// execution boundary.
//
// The engine does not care what the worker is (an LLM agent, a script, a
// service); it only needs raw terminal output per invocation and strict
// isolation between invocations. The HTTP worker issues one independent
// request per item; the command worker spawns one fresh subprocess per
// item. Neither carries any state across calls.
package workerclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Maryland-State-Innovation-Team/Repetitive-Task-Agent/pkg/batch/invoke"
)

// HTTPConfig configures an HTTP worker.
type HTTPConfig struct {
	// Endpoint is the worker URL. Required.
	Endpoint string

	// Timeout bounds one request. Zero uses the client default (the
	// invoker usually applies its own per-item timeout too).
	Timeout time.Duration
}

// Validate checks the configuration.
func (c HTTPConfig) Validate() error {
	if strings.TrimSpace(c.Endpoint) == "" {
		return fmt.Errorf("worker endpoint is required")
	}
	return nil
}

// HTTP invokes a worker over one POST request per item.
//
// The request body is a JSON object {item, instructions, response_format};
// the response body is returned verbatim as the worker's raw output.
type HTTP struct {
	endpoint string
	client   *http.Client
}

// NewHTTP creates an HTTP worker.
func NewHTTP(cfg HTTPConfig) (*HTTP, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &HTTP{
		endpoint: cfg.Endpoint,
		client:   &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type httpRequest struct {
	Item           string `json:"item"`
	Instructions   string `json:"instructions"`
	ResponseFormat string `json:"response_format"`
}

// Invoke performs one isolated request.
func (h *HTTP) Invoke(ctx context.Context, req invoke.Request) (string, error) {
	body, err := json.Marshal(httpRequest{
		Item:           req.Item,
		Instructions:   req.Instructions,
		ResponseFormat: req.ResponseFormat,
	})
	if err != nil {
		return "", fmt.Errorf("workerclient: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("workerclient: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("workerclient: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	out, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("workerclient: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("workerclient: worker returned status %d", resp.StatusCode)
	}
	return string(out), nil
}

// Compile-time check that HTTP implements invoke.Worker.
var _ invoke.Worker = (*HTTP)(nil)
