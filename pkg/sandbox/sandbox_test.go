package sandbox

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("creates missing root", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "box")
		root, err := New(dir)
		require.NoError(t, err)

		st, err := os.Stat(root.Dir())
		require.NoError(t, err)
		assert.True(t, st.IsDir())
	})

	t.Run("rejects empty root", func(t *testing.T) {
		_, err := New("  ")
		assert.Error(t, err)
	})
}

func TestResolve(t *testing.T) {
	root, err := New(t.TempDir())
	require.NoError(t, err)

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"relative inside", "task_lists/cities.csv", false},
		{"root itself", ".", false},
		{"absolute inside", filepath.Join(root.Dir(), "results", "out.csv"), false},
		{"parent escape", "../outside.csv", true},
		{"nested escape", "task_lists/../../outside.csv", true},
		{"absolute outside", string(filepath.Separator) + "etc" + string(filepath.Separator) + "passwd", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			abs, err := root.Resolve(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, filepath.IsAbs(abs))
		})
	}
}

func TestResolve_OutOfBoundsSentinel(t *testing.T) {
	root, err := New(t.TempDir())
	require.NoError(t, err)

	_, err = root.Resolve("../escape.csv")
	require.Error(t, err)
	assert.True(t, IsOutOfBounds(err))

	var pe *PathError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "resolve", pe.Op)
}

func TestResolveDir(t *testing.T) {
	root, err := New(t.TempDir())
	require.NoError(t, err)

	_, err = root.EnsureSubdir(TaskListsDir)
	require.NoError(t, err)

	t.Run("existing directory", func(t *testing.T) {
		abs, err := root.ResolveDir(TaskListsDir)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(root.Dir(), TaskListsDir), abs)
	})

	t.Run("missing directory", func(t *testing.T) {
		_, err := root.ResolveDir("nope")
		assert.Error(t, err)
	})

	t.Run("file is not a directory", func(t *testing.T) {
		p := filepath.Join(root.Dir(), "plain.txt")
		require.NoError(t, os.WriteFile(p, []byte("x"), 0644))

		_, err := root.ResolveDir("plain.txt")
		assert.Error(t, err)
	})
}
