// Package invoke runs the per-item unit of work.
//
// An Invoker substitutes one work item into the instruction template,
// delegates to an external Worker, and converts the worker's raw output
// into a flat Record. Worker failures are recoverable per-item outcomes:
// they become error records, never batch-level failures.
package invoke

// Reserved record fields.
const (
	// FieldOriginalItem identifies the originating work item. Every
	// record carries it.
	FieldOriginalItem = "original_item"

	// FieldError carries the failure description on error records.
	FieldError = "error"
)

// Record is one flat structured outcome for one work item.
//
// Fields map names to scalar values (string, json.Number, bool, or nil).
// Key order is preserved as first-seen so aggregate output columns stay
// stable.
type Record struct {
	fields map[string]any
	keys   []string
}

// NewRecord creates a record for the given originating item.
func NewRecord(item string) *Record {
	r := &Record{fields: make(map[string]any)}
	r.Set(FieldOriginalItem, item)
	return r
}

// Set stores a field value, appending the key on first sight.
func (r *Record) Set(key string, value any) {
	if _, ok := r.fields[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.fields[key] = value
}

// Get returns a field value and whether it is present.
func (r *Record) Get(key string) (any, bool) {
	v, ok := r.fields[key]
	return v, ok
}

// Keys returns field names in first-seen order.
func (r *Record) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Item returns the originating work item.
func (r *Record) Item() string {
	v, _ := r.fields[FieldOriginalItem].(string)
	return v
}

// IsError reports whether the record describes a per-item failure.
func (r *Record) IsError() bool {
	_, ok := r.fields[FieldError]
	return ok
}

// errorRecord builds a record holding only the origin item and an error
// description.
func errorRecord(item, message string) *Record {
	r := NewRecord(item)
	r.Set(FieldError, message)
	return r
}
