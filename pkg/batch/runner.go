// Package batch drives a repetitive task over a work list.
//
// A Runner starts one background loop per batch run. The loop walks the
// work list in order, invokes the worker once per item, records every
// outcome (success or failure) as a result record, publishes progress to
// the run's status register after each item, and aggregates all records
// into one CSV when the list is exhausted. A failing item never aborts
// the batch; a failing aggregation does.
package batch

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Maryland-State-Innovation-Team/Repetitive-Task-Agent/pkg/batch/aggregate"
	"github.com/Maryland-State-Innovation-Team/Repetitive-Task-Agent/pkg/batch/invoke"
	"github.com/Maryland-State-Innovation-Team/Repetitive-Task-Agent/pkg/batch/status"
	"github.com/Maryland-State-Innovation-Team/Repetitive-Task-Agent/pkg/taskspec"
	"github.com/Maryland-State-Innovation-Team/Repetitive-Task-Agent/pkg/worklist"
)

// Run is one in-flight or finished batch execution.
type Run struct {
	// ID is the unique run identifier.
	ID string

	// Status is the run's pollable status register.
	Status *status.Register

	done chan struct{}
}

// Done is closed when the background loop has finished, whether the run
// completed or failed. There is no way to cancel a started run through
// the Run itself.
func (r *Run) Done() <-chan struct{} {
	return r.done
}

// Runner starts batch runs against a shared status registry.
//
// Runner is safe for concurrent use; every run gets its own register,
// record collection, and work list snapshot.
type Runner struct {
	registry   *status.Registry
	aggregator *aggregate.Aggregator
	worker     invoke.Worker
	logger     *zap.Logger
}

// NewRunner creates a runner. A nil logger disables logging.
func NewRunner(registry *status.Registry, aggregator *aggregate.Aggregator, worker invoke.Worker, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		registry:   registry,
		aggregator: aggregator,
		worker:     worker,
		logger:     logger,
	}
}

// Start validates the task manifest, initializes the run's status
// register, and
// schedules the background loop. It returns as soon as the initiated
// phase is observable; it never waits for any item.
//
// ctx bounds worker invocations and is checked between items; it does
// not affect Start itself.
func (r *Runner) Start(ctx context.Context, list *worklist.List, spec *taskspec.Spec) (*Run, error) {
	if list == nil {
		return nil, fmt.Errorf("batch: work list is required")
	}

	tpl, err := spec.Template()
	if err != nil {
		return nil, fmt.Errorf("batch: %w", err)
	}
	timeout, err := spec.Run.Timeout()
	if err != nil {
		return nil, fmt.Errorf("batch: %w", err)
	}

	run := &Run{
		ID:   uuid.New().String(),
		done: make(chan struct{}),
	}
	run.Status = r.registry.Create(run.ID)

	// Init must happen before the loop is scheduled so an immediate
	// status poll observes initiated, never not_started.
	run.Status.Init(list.Len())

	invoker := invoke.New(r.worker, invoke.Config{
		Timeout: timeout,
		Logger:  r.logger.With(zap.String("run_id", run.ID)),
	})

	var limiter *rate.Limiter
	if spec.Run.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(spec.Run.RateLimit), 1)
	}

	go r.loop(ctx, run, list, spec, tpl, invoker, limiter)

	return run, nil
}

// loop is the background body of one run.
func (r *Runner) loop(ctx context.Context, run *Run, list *worklist.List, spec *taskspec.Spec, tpl *taskspec.Template, invoker *invoke.Invoker, limiter *rate.Limiter) {
	defer close(run.done)

	logger := r.logger.With(zap.String("run_id", run.ID))
	start := time.Now()

	logger.Info("Batch run started",
		zap.String("source", list.Source),
		zap.Int("total_items", list.Len()),
		zap.String("output_basename", spec.Task.OutputBasename))

	records := make([]*invoke.Record, 0, list.Len())
	for idx, item := range list.Items {
		// Cancellation extension point: checked only between items.
		if err := ctx.Err(); err != nil {
			logger.Warn("Batch run cancelled between items",
				zap.Int("completed", idx),
				zap.Error(err))
			run.Status.Fail(time.Since(start))
			return
		}

		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				logger.Warn("Batch run cancelled while rate limited", zap.Error(err))
				run.Status.Fail(time.Since(start))
				return
			}
		}

		rec := invoker.Invoke(ctx, item, tpl, spec.Task.ResponseFormat)
		records = append(records, rec)
		run.Status.Advance(idx+1, time.Since(start))

		logger.Debug("Item processed",
			zap.Int("index", idx),
			zap.String("item", item),
			zap.Bool("error", rec.IsError()))
	}

	location, err := r.aggregator.Aggregate(records, spec.Task.OutputBasename)
	if err != nil {
		// The one error class with no per-item recovery: the run ends
		// in the failed phase and the collected records are lost.
		logger.Error("Aggregation failed, batch results were not persisted",
			zap.Int("records", len(records)),
			zap.Error(err))
		run.Status.Fail(time.Since(start))
		return
	}

	run.Status.Finish(location, time.Since(start))
	logger.Info("Batch run completed",
		zap.Int("items", len(records)),
		zap.String("result_location", location),
		zap.Duration("duration", time.Since(start)))
}
