// Package aggregate merges heterogeneous result records into one flat
// CSV table.
//
// Success and error records differ in shape by design. The aggregator
// computes the union of field names across all records in first-seen
// order, then materializes one row per record with blanks for missing
// fields. Heterogeneity is the steady state, never an error.
package aggregate

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Maryland-State-Innovation-Team/Repetitive-Task-Agent/pkg/batch/invoke"
	"github.com/Maryland-State-Innovation-Team/Repetitive-Task-Agent/pkg/sandbox"
)

// Aggregator writes aggregate result tables into the sandbox results area.
type Aggregator struct {
	root *sandbox.Root
}

// New creates an aggregator over the given sandbox root.
func New(root *sandbox.Root) *Aggregator {
	return &Aggregator{root: root}
}

// Aggregate writes one CSV row per record to results/<basename>.csv and
// returns the written location relative to the sandbox root.
//
// Row order equals record order. Columns are the union of all field
// names in first-seen order; the origin-item field is always first
// because every record carries it first.
func (a *Aggregator) Aggregate(records []*invoke.Record, basename string) (string, error) {
	basename = strings.TrimSpace(basename)
	if basename == "" {
		return "", fmt.Errorf("aggregate: basename is required")
	}

	if _, err := a.root.EnsureSubdir(sandbox.ResultsDir); err != nil {
		return "", err
	}
	abs, err := a.root.Resolve(filepath.Join(sandbox.ResultsDir, basename+".csv"))
	if err != nil {
		return "", err
	}

	columns := unionColumns(records)

	f, err := os.Create(abs)
	if err != nil {
		return "", fmt.Errorf("aggregate: create %s: %w", basename, err)
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	if err := w.Write(columns); err != nil {
		return "", fmt.Errorf("aggregate: write header: %w", err)
	}
	for _, rec := range records {
		row := make([]string, len(columns))
		for i, col := range columns {
			v, ok := rec.Get(col)
			if !ok {
				continue
			}
			row[i] = renderValue(v)
		}
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("aggregate: write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("aggregate: flush: %w", err)
	}

	rel, err := filepath.Rel(a.root.Dir(), abs)
	if err != nil {
		return abs, nil
	}
	return rel, nil
}

// unionColumns collects field names across all records, first-seen order.
func unionColumns(records []*invoke.Record) []string {
	var columns []string
	seen := make(map[string]struct{})
	for _, rec := range records {
		for _, k := range rec.Keys() {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			columns = append(columns, k)
		}
	}
	if len(columns) == 0 {
		columns = []string{invoke.FieldOriginalItem}
	}
	return columns
}

// renderValue formats a scalar for CSV. Missing fields and nulls render
// as empty cells.
func renderValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	default:
		return fmt.Sprintf("%v", x)
	}
}
