package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Maryland-State-Innovation-Team/Repetitive-Task-Agent/pkg/batch"
	"github.com/Maryland-State-Innovation-Team/Repetitive-Task-Agent/pkg/batch/status"
	"github.com/Maryland-State-Innovation-Team/Repetitive-Task-Agent/pkg/taskspec"
	"github.com/Maryland-State-Innovation-Team/Repetitive-Task-Agent/pkg/worklist"
)

// Runs serves batch run start and status endpoints.
type Runs struct {
	store    *worklist.Store
	runner   *batch.Runner
	registry *status.Registry

	// baseCtx bounds worker invocations for runs started over HTTP; it
	// is the server's lifetime context, not the request's, because the
	// loop outlives the request.
	baseCtx context.Context
}

// NewRuns creates the handler set.
func NewRuns(baseCtx context.Context, store *worklist.Store, runner *batch.Runner, registry *status.Registry) *Runs {
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	return &Runs{store: store, runner: runner, registry: registry, baseCtx: baseCtx}
}

type startRunResponse struct {
	RunID   string `json:"run_id"`
	Message string `json:"message"`
}

// Start serves POST /runs.
//
// The body is a task manifest in JSON form. When worklist.source is set
// the list is loaded from it; otherwise the session list from the last
// /lists/load is used. The response is returned as soon as the run is
// initiated; poll GET /runs/{runID} for progress.
func (h *Runs) Start(w http.ResponseWriter, r *http.Request) {
	body := json.NewDecoder(r.Body)
	var spec taskspec.Spec
	if err := body.Decode(&spec); err != nil {
		writeValidationError(w, r, "invalid JSON body: "+err.Error())
		return
	}
	spec.ApplyDefaults()
	if err := spec.Validate(); err != nil {
		writeValidationError(w, r, err.Error())
		return
	}

	list, err := h.resolveList(&spec)
	if err != nil {
		if errors.Is(err, worklist.ErrNoSession) {
			writeValidationError(w, r, "no work list: set worklist.source or load a list first")
			return
		}
		writeDomainError(w, r, err)
		return
	}

	run, err := h.runner.Start(h.baseCtx, list, &spec)
	if err != nil {
		writeValidationError(w, r, err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, startRunResponse{
		RunID:   run.ID,
		Message: "Batch run initiated. Poll /runs/" + run.ID + " for progress.",
	})
}

// Status serves GET /runs/{runID}. Unknown runs report not_started
// rather than an error.
func (h *Runs) Status(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	writeJSON(w, http.StatusOK, h.registry.Snapshot(runID))
}

// resolveList picks the work list for a run.
func (h *Runs) resolveList(spec *taskspec.Spec) (*worklist.List, error) {
	if spec.Worklist.Source != "" {
		list, _, err := h.store.Load(spec.Worklist.Source)
		return list, err
	}
	return h.store.Session()
}
