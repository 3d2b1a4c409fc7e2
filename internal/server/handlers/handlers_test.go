package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Maryland-State-Innovation-Team/Repetitive-Task-Agent/internal/errors"
	"github.com/Maryland-State-Innovation-Team/Repetitive-Task-Agent/pkg/batch"
	"github.com/Maryland-State-Innovation-Team/Repetitive-Task-Agent/pkg/batch/aggregate"
	"github.com/Maryland-State-Innovation-Team/Repetitive-Task-Agent/pkg/batch/invoke"
	"github.com/Maryland-State-Innovation-Team/Repetitive-Task-Agent/pkg/batch/status"
	"github.com/Maryland-State-Innovation-Team/Repetitive-Task-Agent/pkg/sandbox"
	"github.com/Maryland-State-Innovation-Team/Repetitive-Task-Agent/pkg/worklist"
)

type workerFunc func(ctx context.Context, req invoke.Request) (string, error)

func (f workerFunc) Invoke(ctx context.Context, req invoke.Request) (string, error) {
	return f(ctx, req)
}

func echoWorker(ctx context.Context, req invoke.Request) (string, error) {
	return fmt.Sprintf(`{"answer": "about %s"}`, req.Item), nil
}

// testEnv wires a full handler stack over a temp sandbox.
type testEnv struct {
	root     *sandbox.Root
	store    *worklist.Store
	registry *status.Registry
	router   chi.Router
}

func newTestEnv(t *testing.T, worker invoke.Worker) *testEnv {
	t.Helper()

	root, err := sandbox.New(t.TempDir())
	require.NoError(t, err)

	store := worklist.NewStore(root)
	registry := status.NewRegistry()
	runner := batch.NewRunner(registry, aggregate.New(root), worker, nil)

	lists := NewLists(store)
	runs := NewRuns(context.Background(), store, runner, registry)

	r := chi.NewRouter()
	r.Get("/lists", lists.List)
	r.Post("/lists", lists.Save)
	r.Post("/lists/load", lists.Load)
	r.Post("/runs", runs.Start)
	r.Get("/runs/{runID}", runs.Status)

	return &testEnv{root: root, store: store, registry: registry, router: r}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func writeListFixture(t *testing.T, root *sandbox.Root, name string, items ...string) string {
	t.Helper()

	dir, err := root.EnsureSubdir(sandbox.TaskListsDir)
	require.NoError(t, err)

	var b strings.Builder
	b.WriteString("name\n")
	for _, it := range items {
		b.WriteString(it)
		b.WriteString("\n")
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(b.String()), 0o644))
	return filepath.Join(sandbox.TaskListsDir, name)
}

func validSpecBody(source string) map[string]any {
	return map[string]any{
		"task": map[string]any{
			"instructions":    "Look up {item_name} in the registry.",
			"response_format": `{"answer": "..."}`,
			"output_basename": "lookup_results",
		},
		"worklist": map[string]any{"source": source},
	}
}

func TestListsSaveLoadEnumerate(t *testing.T) {
	env := newTestEnv(t, workerFunc(echoWorker))

	rec := env.do(t, http.MethodPost, "/lists", map[string]any{
		"items":    []string{"Allegany", "Baltimore", "Calvert"},
		"basename": "counties",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	saved := decodeBody[map[string]string](t, rec)
	assert.Equal(t, filepath.Join("task_lists", "counties.csv"), saved["source"])

	rec = env.do(t, http.MethodGet, "/lists?pattern=*.csv", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	listed := decodeBody[map[string][]string](t, rec)
	assert.Equal(t, []string{"counties.csv"}, listed["files"])

	rec = env.do(t, http.MethodPost, "/lists/load", map[string]string{"source": saved["source"]})
	require.Equal(t, http.StatusOK, rec.Code)
	loaded := decodeBody[loadListResponse](t, rec)
	require.NotNil(t, loaded.Summary)
	assert.Equal(t, 3, loaded.Summary.TotalItems)
	assert.Equal(t, []string{"Allegany", "Baltimore", "Calvert"}, loaded.Summary.Preview)
}

func TestListsSaveConflict(t *testing.T) {
	env := newTestEnv(t, workerFunc(echoWorker))

	body := map[string]any{"items": []string{"x"}, "basename": "dup"}
	rec := env.do(t, http.MethodPost, "/lists", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodPost, "/lists", body)
	assert.Equal(t, http.StatusConflict, rec.Code)
	resp := decodeBody[apperrors.HTTPErrorResponse](t, rec)
	assert.Equal(t, apperrors.CodeAlreadyExists, resp.Error.Code)
}

func TestListsLoadErrors(t *testing.T) {
	env := newTestEnv(t, workerFunc(echoWorker))

	tests := []struct {
		name       string
		body       any
		wantStatus int
		wantCode   string
	}{
		{
			name:       "missing source",
			body:       map[string]string{},
			wantStatus: http.StatusBadRequest,
			wantCode:   apperrors.CodeValidation,
		},
		{
			name:       "unknown file",
			body:       map[string]string{"source": "task_lists/nope.csv"},
			wantStatus: http.StatusNotFound,
			wantCode:   apperrors.CodeNotFound,
		},
		{
			name:       "escaping path",
			body:       map[string]string{"source": "../../etc/passwd"},
			wantStatus: http.StatusForbidden,
			wantCode:   apperrors.CodeOutOfBounds,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/lists/load", tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)
			resp := decodeBody[apperrors.HTTPErrorResponse](t, rec)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}

func TestRunsStartAndPoll(t *testing.T) {
	env := newTestEnv(t, workerFunc(echoWorker))
	source := writeListFixture(t, env.root, "towns.csv", "Annapolis", "Frederick", "Cumberland")

	rec := env.do(t, http.MethodPost, "/runs", validSpecBody(source))
	require.Equal(t, http.StatusAccepted, rec.Code)
	started := decodeBody[startRunResponse](t, rec)
	require.NotEmpty(t, started.RunID)

	// The very first poll must never report not_started.
	rec = env.do(t, http.MethodGet, "/runs/"+started.RunID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	snap := decodeBody[status.Snapshot](t, rec)
	assert.NotEqual(t, status.PhaseNotStarted, snap.Phase)
	assert.Equal(t, 3, snap.Total)

	require.Eventually(t, func() bool {
		rec := env.do(t, http.MethodGet, "/runs/"+started.RunID, nil)
		snap := decodeBody[status.Snapshot](t, rec)
		return snap.Phase == status.PhaseCompleted
	}, 5*time.Second, 10*time.Millisecond)

	rec = env.do(t, http.MethodGet, "/runs/"+started.RunID, nil)
	snap = decodeBody[status.Snapshot](t, rec)
	assert.Equal(t, 3, snap.Progress)
	assert.Equal(t, filepath.Join("results", "lookup_results.csv"), snap.ResultLocation)

	data, err := os.ReadFile(filepath.Join(env.root.Dir(), snap.ResultLocation))
	require.NoError(t, err)
	assert.Contains(t, string(data), "original_item")
	assert.Contains(t, string(data), "Annapolis")
}

func TestRunsStartUsesSessionList(t *testing.T) {
	env := newTestEnv(t, workerFunc(echoWorker))
	source := writeListFixture(t, env.root, "session.csv", "one", "two")

	rec := env.do(t, http.MethodPost, "/lists/load", map[string]string{"source": source})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/runs", validSpecBody(""))
	require.Equal(t, http.StatusAccepted, rec.Code)
	started := decodeBody[startRunResponse](t, rec)

	require.Eventually(t, func() bool {
		return env.registry.Snapshot(started.RunID).Phase == status.PhaseCompleted
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, 2, env.registry.Snapshot(started.RunID).Total)
}

func TestRunsStartNoSession(t *testing.T) {
	env := newTestEnv(t, workerFunc(echoWorker))

	rec := env.do(t, http.MethodPost, "/runs", validSpecBody(""))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeBody[apperrors.HTTPErrorResponse](t, rec)
	assert.Equal(t, apperrors.CodeValidation, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "no work list")
}

func TestRunsStartInvalidSpec(t *testing.T) {
	env := newTestEnv(t, workerFunc(echoWorker))
	source := writeListFixture(t, env.root, "bad.csv", "one")

	body := validSpecBody(source)
	body["task"].(map[string]any)["instructions"] = "no placeholder here"

	rec := env.do(t, http.MethodPost, "/runs", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeBody[apperrors.HTTPErrorResponse](t, rec)
	assert.Equal(t, apperrors.CodeValidation, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "{item_name}")
}

func TestRunsStatusUnknownRun(t *testing.T) {
	env := newTestEnv(t, workerFunc(echoWorker))

	rec := env.do(t, http.MethodGet, "/runs/no-such-run", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	snap := decodeBody[status.Snapshot](t, rec)
	assert.Equal(t, status.PhaseNotStarted, snap.Phase)
	assert.Equal(t, 0, snap.Total)
}

func TestHealthHandler(t *testing.T) {
	m := NewHealthManager("1.2.3")

	rec := httptest.NewRecorder()
	m.HealthHandler(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[HealthResponse](t, rec)
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "1.2.3", resp.Version)
}
