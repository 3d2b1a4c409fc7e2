// Package worklist loads, saves, and enumerates work lists.
//
// A work list is the ordered sequence of items one batch run iterates
// over. Lists are stored as CSV files inside the sandbox; only the first
// column is read, and the first row is treated as a header. The most
// recently loaded list is cached in the store so a batch run can be
// started without re-specifying the source.
package worklist

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/Maryland-State-Innovation-Team/Repetitive-Task-Agent/pkg/sandbox"
)

// PreviewSize is the number of leading items included in a load summary.
const PreviewSize = 5

// sessionName is the fixed name the last loaded list is cached under.
const sessionName = "session_iterator"

// List is an ordered, immutable work list snapshot.
type List struct {
	// Source is the path the list was loaded from, relative to the
	// sandbox root when possible.
	Source string `json:"source"`

	// Items are the work items in processing order. Values need not be
	// unique; order is significant.
	Items []string `json:"items"`
}

// Len returns the number of items.
func (l *List) Len() int {
	return len(l.Items)
}

// Preview summarizes a loaded list for operator confirmation.
type Preview struct {
	// TotalItems is the full item count.
	TotalItems int `json:"total_items"`

	// Preview holds the first items, at most PreviewSize.
	Preview []string `json:"preview"`
}

// Store loads and persists work lists inside a sandbox root.
//
// Store is safe for concurrent use. The session cache is guarded by a
// mutex; loaded List values are never mutated after creation.
type Store struct {
	root *sandbox.Root

	mu      sync.Mutex
	session *List
}

// NewStore creates a store over the given sandbox root.
func NewStore(root *sandbox.Root) *Store {
	return &Store{root: root}
}

// Load reads the first column of the CSV at source into an ordered list.
//
// The first row is consumed as a header and does not become an item.
// Returns ErrNotFound if the source does not exist and ErrInvalidFormat
// if the file has zero columns. On success the list is cached as the
// session list.
func (s *Store) Load(source string) (*List, *Preview, error) {
	abs, err := s.root.Resolve(source)
	if err != nil {
		return nil, nil, err
	}

	f, err := os.Open(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, &StoreError{Op: "Load", Source: source, Err: ErrNotFound}
		}
		return nil, nil, &StoreError{Op: "Load", Source: source, Err: err}
	}
	defer func() { _ = f.Close() }()

	items, err := readFirstColumn(f)
	if err != nil {
		return nil, nil, &StoreError{Op: "Load", Source: source, Err: err}
	}

	list := &List{Source: s.relSource(abs), Items: items}
	s.mu.Lock()
	s.session = list
	s.mu.Unlock()

	return list, list.preview(), nil
}

// Session returns the list cached by the most recent Load.
func (s *Store) Session() (*List, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil, &StoreError{Op: "Session", Source: sessionName, Err: ErrNoSession}
	}
	return s.session, nil
}

// Save persists items as a single-column CSV with a "name" header under
// task_lists/<basename>.csv. It never overwrites: ErrAlreadyExists is
// returned when the target file is already present.
func (s *Store) Save(items []string, basename string) (string, error) {
	basename = strings.TrimSpace(basename)
	if basename == "" {
		return "", &StoreError{Op: "Save", Err: errors.New("basename is required")}
	}

	if _, err := s.root.EnsureSubdir(sandbox.TaskListsDir); err != nil {
		return "", err
	}

	abs, err := s.root.Resolve(filepath.Join(sandbox.TaskListsDir, basename+".csv"))
	if err != nil {
		return "", err
	}

	// O_EXCL makes the existence check and the create atomic.
	f, err := os.OpenFile(abs, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if os.IsExist(err) {
			return "", &StoreError{Op: "Save", Source: basename, Err: ErrAlreadyExists}
		}
		return "", &StoreError{Op: "Save", Source: basename, Err: err}
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"name"}); err != nil {
		return "", &StoreError{Op: "Save", Source: basename, Err: err}
	}
	for _, item := range items {
		if err := w.Write([]string{item}); err != nil {
			return "", &StoreError{Op: "Save", Source: basename, Err: err}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", &StoreError{Op: "Save", Source: basename, Err: err}
	}

	return s.relSource(abs), nil
}

// List enumerates file names in a sandbox directory, optionally filtered
// by a doublestar glob pattern. No parsing is performed.
func (s *Store) List(dir, pattern string) ([]string, error) {
	if strings.TrimSpace(dir) == "" {
		dir = sandbox.TaskListsDir
	}
	abs, err := s.root.ResolveDir(dir)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, &StoreError{Op: "List", Source: dir, Err: err}
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if pattern != "" {
			ok, err := doublestar.Match(pattern, e.Name())
			if err != nil {
				return nil, &StoreError{Op: "List", Source: dir, Err: err}
			}
			if !ok {
				continue
			}
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// preview returns the count plus the first PreviewSize items.
func (l *List) preview() *Preview {
	n := len(l.Items)
	head := l.Items
	if n > PreviewSize {
		head = l.Items[:PreviewSize]
	}
	out := make([]string, len(head))
	copy(out, head)
	return &Preview{TotalItems: n, Preview: out}
}

// relSource reports abs relative to the sandbox root when possible.
func (s *Store) relSource(abs string) string {
	rel, err := filepath.Rel(s.root.Dir(), abs)
	if err != nil || strings.HasPrefix(rel, "..") {
		return abs
	}
	return rel
}

// readFirstColumn collects the first field of every row after the header.
func readFirstColumn(r io.Reader) ([]string, error) {
	cr := csv.NewReader(r)
	// Rows may have differing field counts; only the first field matters.
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrInvalidFormat
	}
	if err != nil {
		return nil, errors.Join(ErrInvalidFormat, err)
	}
	if len(header) == 0 {
		return nil, ErrInvalidFormat
	}

	var items []string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Join(ErrInvalidFormat, err)
		}
		if len(rec) == 0 {
			continue
		}
		items = append(items, rec[0])
	}
	return items, nil
}
