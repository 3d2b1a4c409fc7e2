// Package taskspec provides loading and validation of task manifests.
//
// A task manifest is a YAML or JSON file that defines one repetitive
// batch: the instruction template applied to each work item, the expected
// response shape, the output basename for the aggregate results, and
// optional run tuning.
//
// Example manifest (YAML):
//
//	version: "1.0"
//	task:
//	  instructions: "Find the county seat of {item_name} and its population."
//	  response_format: '{"county_seat": "...", "population": 0}'
//	  output_basename: county_seats
//	worklist:
//	  source: task_lists/maryland_counties.csv
//	run:
//	  rate_limit: 0.5
//	  worker_timeout: 120s
package taskspec

import (
	"fmt"
	"strings"
	"time"
)

// Placeholder is the substitution token the instruction template must
// contain exactly once.
const Placeholder = "{item_name}"

// Spec is a validated task manifest.
type Spec struct {
	// Version is the manifest schema version. Must be "1.0".
	Version string `json:"version" yaml:"version"`

	// Task defines the unit of work.
	Task TaskConfig `json:"task" yaml:"task"`

	// Worklist selects the work list source (optional; when empty, the
	// session list is used).
	Worklist WorklistConfig `json:"worklist,omitempty" yaml:"worklist,omitempty"`

	// Run tunes batch execution (optional).
	Run RunConfig `json:"run,omitempty" yaml:"run,omitempty"`
}

// TaskConfig is the unit-of-work definition.
type TaskConfig struct {
	// Instructions is the instruction template. It must contain the
	// {item_name} placeholder exactly once. The content is otherwise
	// opaque to the engine.
	Instructions string `json:"instructions" yaml:"instructions"`

	// ResponseFormat describes the flat result shape expected from the
	// worker. It is passed through verbatim, never validated structurally.
	ResponseFormat string `json:"response_format" yaml:"response_format"`

	// OutputBasename is the base filename (no extension) for the
	// aggregate results CSV.
	OutputBasename string `json:"output_basename" yaml:"output_basename"`
}

// WorklistConfig selects the work list for the batch.
type WorklistConfig struct {
	// Source is a sandbox-relative path to a work list CSV.
	Source string `json:"source,omitempty" yaml:"source,omitempty"`
}

// RunConfig tunes batch execution behavior.
type RunConfig struct {
	// RateLimit is the maximum worker invocations per second
	// (0 = unlimited). Default: 0.
	RateLimit float64 `json:"rate_limit,omitempty" yaml:"rate_limit,omitempty"`

	// WorkerTimeout bounds a single worker invocation, as a Go duration
	// string (e.g. "120s"). Empty means no per-item timeout.
	WorkerTimeout string `json:"worker_timeout,omitempty" yaml:"worker_timeout,omitempty"`
}

// Timeout parses WorkerTimeout. Empty yields zero.
func (r RunConfig) Timeout() (time.Duration, error) {
	if strings.TrimSpace(r.WorkerTimeout) == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(r.WorkerTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid run.worker_timeout: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("run.worker_timeout must be >= 0")
	}
	return d, nil
}

// ApplyDefaults fills optional fields with their defaults.
func (s *Spec) ApplyDefaults() {
	if s.Version == "" {
		s.Version = "1.0"
	}
}

// Validate checks the manifest for structural correctness.
func (s *Spec) Validate() error {
	if s.Version != "1.0" {
		return fmt.Errorf("unsupported manifest version: %q", s.Version)
	}
	if strings.TrimSpace(s.Task.Instructions) == "" {
		return fmt.Errorf("task.instructions is required")
	}
	if n := strings.Count(s.Task.Instructions, Placeholder); n != 1 {
		return fmt.Errorf("task.instructions must contain %s exactly once, found %d", Placeholder, n)
	}
	if strings.TrimSpace(s.Task.ResponseFormat) == "" {
		return fmt.Errorf("task.response_format is required")
	}
	if strings.TrimSpace(s.Task.OutputBasename) == "" {
		return fmt.Errorf("task.output_basename is required")
	}
	if s.Run.RateLimit < 0 {
		return fmt.Errorf("run.rate_limit must be >= 0")
	}
	if _, err := s.Run.Timeout(); err != nil {
		return err
	}
	return nil
}

// Template compiles the instruction template for repeated application.
func (s *Spec) Template() (*Template, error) {
	return CompileTemplate(s.Task.Instructions)
}
