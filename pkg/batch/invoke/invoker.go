package invoke

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Maryland-State-Innovation-Team/Repetitive-Task-Agent/pkg/taskspec"
)

// Request is everything a worker needs for one invocation: the item, the
// fully substituted instruction text, and the expected result shape.
type Request struct {
	Item           string
	Instructions   string
	ResponseFormat string
}

// Worker executes one unit of work in an isolated context.
//
// Implementations must give every invocation a fresh, independent
// execution context: no state may leak between calls, and the context
// must be torn down when Invoke returns, success or not. Invoke returns
// the worker's raw terminal output; interpreting it is the invoker's job.
type Worker interface {
	Invoke(ctx context.Context, req Request) (string, error)
}

// Config tunes invoker behavior.
type Config struct {
	// Timeout bounds one worker invocation. Zero means no limit.
	Timeout time.Duration

	// Logger receives per-item diagnostics. Nil means no logging.
	Logger *zap.Logger
}

// Invoker turns (item, template) pairs into result records.
type Invoker struct {
	worker  Worker
	timeout time.Duration
	logger  *zap.Logger
}

// New creates an invoker delegating to worker.
func New(worker Worker, cfg Config) *Invoker {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Invoker{worker: worker, timeout: cfg.Timeout, logger: logger}
}

// Invoke runs the unit of work for one item and always returns a record.
//
// Failure classes, all recovered into error records:
//   - the worker returns an error (transport, timeout)
//   - the worker produces no output at all
//   - the output cannot be parsed as a flat JSON object; the raw output
//     is retained in the error field for diagnosis
func (i *Invoker) Invoke(ctx context.Context, item string, tpl *taskspec.Template, responseFormat string) *Record {
	req := Request{
		Item:           item,
		Instructions:   tpl.Apply(item),
		ResponseFormat: responseFormat,
	}

	if i.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.timeout)
		defer cancel()
	}

	raw, err := i.worker.Invoke(ctx, req)
	if err != nil {
		i.logger.Warn("Worker invocation failed",
			zap.String("item", item),
			zap.Error(err))
		return errorRecord(item, fmt.Sprintf("Worker invocation failed: %v", err))
	}

	if strings.TrimSpace(raw) == "" {
		i.logger.Warn("No response from worker", zap.String("item", item))
		return errorRecord(item, "No response from worker")
	}

	keys, fields, err := extractFlatJSON(raw)
	if err != nil {
		i.logger.Warn("Failed to parse worker output",
			zap.String("item", item),
			zap.Error(err))
		return errorRecord(item, fmt.Sprintf("Failed to parse JSON: %s", raw))
	}

	rec := NewRecord(item)
	for _, k := range keys {
		if k == FieldOriginalItem {
			// The origin item is authoritative; workers cannot override it.
			continue
		}
		rec.Set(k, fields[k])
	}
	return rec
}
