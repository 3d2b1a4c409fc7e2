// Package sandbox enforces the permitted storage root for all file
// operations.
//
// Every path handed to the work list store or the result aggregator is
// resolved through a Root first. A path that escapes the root is rejected
// with ErrOutOfBounds before any I/O happens.
package sandbox

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Subdirectory names under the sandbox root.
const (
	// TaskListsDir holds saved work list CSVs.
	TaskListsDir = "task_lists"

	// ResultsDir holds aggregate result CSVs.
	ResultsDir = "results"
)

// ErrOutOfBounds indicates a path resolved outside the permitted root.
var ErrOutOfBounds = errors.New("path is outside the sandbox root")

// PathError wraps sandbox resolution failures with the offending path.
type PathError struct {
	Op   string
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("sandbox %s: %s: %v", e.Op, e.Path, e.Err)
}

func (e *PathError) Unwrap() error {
	return e.Err
}

// Root is a permitted storage root.
//
// Root is safe for concurrent use; it holds no mutable state.
type Root struct {
	dir string
}

// New creates a Root anchored at dir. The directory is created if it does
// not exist yet.
func New(dir string) (*Root, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("sandbox root is required")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve sandbox root: %w", err)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, fmt.Errorf("create sandbox root: %w", err)
	}
	return &Root{dir: abs}, nil
}

// Dir returns the absolute sandbox root directory.
func (r *Root) Dir() string {
	return r.dir
}

// Resolve turns p into an absolute path and verifies it stays inside the
// root. Relative paths are interpreted relative to the root.
func (r *Root) Resolve(p string) (string, error) {
	if strings.TrimSpace(p) == "" {
		return "", &PathError{Op: "resolve", Path: p, Err: fmt.Errorf("path is empty")}
	}
	abs := p
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(r.dir, abs)
	}
	abs = filepath.Clean(abs)
	if !r.contains(abs) {
		return "", &PathError{Op: "resolve", Path: p, Err: ErrOutOfBounds}
	}
	return abs, nil
}

// ResolveDir behaves like Resolve and additionally requires the path to be
// an existing directory.
func (r *Root) ResolveDir(p string) (string, error) {
	abs, err := r.Resolve(p)
	if err != nil {
		return "", err
	}
	st, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return "", &PathError{Op: "resolve", Path: p, Err: fmt.Errorf("directory does not exist")}
		}
		return "", &PathError{Op: "resolve", Path: p, Err: err}
	}
	if !st.IsDir() {
		return "", &PathError{Op: "resolve", Path: p, Err: fmt.Errorf("not a directory")}
	}
	return abs, nil
}

// EnsureSubdir resolves a sandbox subdirectory, creating it if needed.
func (r *Root) EnsureSubdir(name string) (string, error) {
	abs, err := r.Resolve(name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return "", &PathError{Op: "mkdir", Path: name, Err: err}
	}
	return abs, nil
}

// contains reports whether abs is the root itself or below it.
func (r *Root) contains(abs string) bool {
	rel, err := filepath.Rel(r.dir, abs)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// IsOutOfBounds returns true if the error indicates a sandbox escape.
func IsOutOfBounds(err error) bool {
	return errors.Is(err, ErrOutOfBounds)
}
