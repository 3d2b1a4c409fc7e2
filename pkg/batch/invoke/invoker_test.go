package invoke

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Maryland-State-Innovation-Team/Repetitive-Task-Agent/pkg/taskspec"
)

// fakeWorker returns canned output per item.
type fakeWorker struct {
	outputs map[string]string
	errs    map[string]error

	lastReq Request
}

func (f *fakeWorker) Invoke(ctx context.Context, req Request) (string, error) {
	f.lastReq = req
	if err, ok := f.errs[req.Item]; ok {
		return "", err
	}
	return f.outputs[req.Item], nil
}

func mustTemplate(t *testing.T) *taskspec.Template {
	t.Helper()
	tpl, err := taskspec.CompileTemplate("Describe {item_name} briefly.")
	require.NoError(t, err)
	return tpl
}

func TestInvoke_Success(t *testing.T) {
	w := &fakeWorker{outputs: map[string]string{
		"Annapolis": `{"county_seat": "Annapolis", "population": 40812, "coastal": true}`,
	}}
	inv := New(w, Config{})

	rec := inv.Invoke(context.Background(), "Annapolis", mustTemplate(t), `{"county_seat":"..."}`)

	assert.False(t, rec.IsError())
	assert.Equal(t, "Annapolis", rec.Item())
	assert.Equal(t, []string{FieldOriginalItem, "county_seat", "population", "coastal"}, rec.Keys())

	pop, ok := rec.Get("population")
	require.True(t, ok)
	assert.Equal(t, json.Number("40812"), pop)

	// The worker saw the substituted instructions and schema.
	assert.Equal(t, "Describe Annapolis briefly.", w.lastReq.Instructions)
	assert.Equal(t, `{"county_seat":"..."}`, w.lastReq.ResponseFormat)
}

func TestInvoke_FencedOutput(t *testing.T) {
	w := &fakeWorker{outputs: map[string]string{
		"Frederick": "```json\n{\"summary\": \"second largest city\"}\n```",
	}}
	inv := New(w, Config{})

	rec := inv.Invoke(context.Background(), "Frederick", mustTemplate(t), "{}")
	assert.False(t, rec.IsError())

	v, ok := rec.Get("summary")
	require.True(t, ok)
	assert.Equal(t, "second largest city", v)
}

func TestInvoke_ParseFailureRetainsRawOutput(t *testing.T) {
	w := &fakeWorker{outputs: map[string]string{
		"Bowie": "Sure! Here is what I found: it depends.",
	}}
	inv := New(w, Config{})

	rec := inv.Invoke(context.Background(), "Bowie", mustTemplate(t), "{}")

	assert.True(t, rec.IsError())
	assert.Equal(t, "Bowie", rec.Item())

	msg, _ := rec.Get(FieldError)
	assert.Contains(t, msg.(string), "Failed to parse JSON")
	assert.Contains(t, msg.(string), "it depends")
}

func TestInvoke_NestedOutputIsParseFailure(t *testing.T) {
	w := &fakeWorker{outputs: map[string]string{
		"Laurel": `{"details": {"nested": true}}`,
	}}
	inv := New(w, Config{})

	rec := inv.Invoke(context.Background(), "Laurel", mustTemplate(t), "{}")
	assert.True(t, rec.IsError())
}

func TestInvoke_NoResponse(t *testing.T) {
	w := &fakeWorker{outputs: map[string]string{"Salisbury": "   \n"}}
	inv := New(w, Config{})

	rec := inv.Invoke(context.Background(), "Salisbury", mustTemplate(t), "{}")

	assert.True(t, rec.IsError())
	msg, _ := rec.Get(FieldError)
	assert.Equal(t, "No response from worker", msg)
}

func TestInvoke_WorkerError(t *testing.T) {
	w := &fakeWorker{errs: map[string]error{"Cumberland": errors.New("connection refused")}}
	inv := New(w, Config{})

	rec := inv.Invoke(context.Background(), "Cumberland", mustTemplate(t), "{}")

	assert.True(t, rec.IsError())
	msg, _ := rec.Get(FieldError)
	assert.Contains(t, msg.(string), "connection refused")
}

func TestInvoke_WorkerCannotOverrideOriginItem(t *testing.T) {
	w := &fakeWorker{outputs: map[string]string{
		"Easton": `{"original_item": "spoofed", "answer": "ok"}`,
	}}
	inv := New(w, Config{})

	rec := inv.Invoke(context.Background(), "Easton", mustTemplate(t), "{}")
	assert.Equal(t, "Easton", rec.Item())
}

type slowWorker struct{}

func (slowWorker) Invoke(ctx context.Context, req Request) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(5 * time.Second):
		return "{}", nil
	}
}

func TestInvoke_Timeout(t *testing.T) {
	inv := New(slowWorker{}, Config{Timeout: 10 * time.Millisecond})

	rec := inv.Invoke(context.Background(), "slow", mustTemplate(t), "{}")

	assert.True(t, rec.IsError())
	msg, _ := rec.Get(FieldError)
	assert.Contains(t, msg.(string), "context deadline exceeded")
}

func TestExtractFlatJSON(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantErr  bool
		wantKeys []string
	}{
		{"plain object", `{"a": 1, "b": "x"}`, false, []string{"a", "b"}},
		{"fenced", "```json\n{\"a\": null}\n```", false, []string{"a"}},
		{"empty object", `{}`, false, nil},
		{"array", `[1, 2]`, true, nil},
		{"nested value", `{"a": {"b": 1}}`, true, nil},
		{"array value", `{"a": [1]}`, true, nil},
		{"trailing content", `{"a": 1} {"b": 2}`, true, nil},
		{"not json", "hello", true, nil},
		{"empty", "", true, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			keys, fields, err := extractFlatJSON(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantKeys, keys)
			assert.Len(t, fields, len(tt.wantKeys))
		})
	}
}
