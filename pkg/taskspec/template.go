package taskspec

import (
	"fmt"
	"strings"
)

// Template is a compiled instruction template.
//
// The template is opaque text with a single {item_name} placeholder.
// Apply is a pure function; the same (template, item) pair always yields
// the same instruction text.
type Template struct {
	prefix string
	suffix string
}

// CompileTemplate parses a template string, verifying it contains the
// {item_name} placeholder exactly once.
func CompileTemplate(template string) (*Template, error) {
	idx := strings.Index(template, Placeholder)
	if idx == -1 {
		return nil, fmt.Errorf("template is missing the %s placeholder", Placeholder)
	}
	rest := template[idx+len(Placeholder):]
	if strings.Contains(rest, Placeholder) {
		return nil, fmt.Errorf("template contains more than one %s placeholder", Placeholder)
	}
	return &Template{prefix: template[:idx], suffix: rest}, nil
}

// Apply substitutes item into the placeholder.
//
// No escaping is performed; item values are the caller's responsibility.
func (t *Template) Apply(item string) string {
	return t.prefix + item + t.suffix
}
