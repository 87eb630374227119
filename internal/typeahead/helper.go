// Package typeahead builds the client-side autocomplete wiring shared by
// every rendered page.
package typeahead

import (
	"encoding/json"
	"fmt"
	"html/template"
	"sort"
	"strings"
)

// Source produces the suggestions for one autocomplete field.
type Source func() ([]string, error)

// Helper collects the sources defined while a page runs.
type Helper struct {
	sources map[string]Source
}

// New creates an empty helper.
func New() *Helper {
	return &Helper{sources: make(map[string]Source)}
}

// Define attaches source to every input with the CSS class class. Defining a
// class twice replaces its source.
func (h *Helper) Define(class string, source Source) {
	h.sources[class] = source
}

// Len returns the number of defined sources.
func (h *Helper) Len() int {
	return len(h.sources)
}

// ScriptBlock renders a single script element wiring every source, or ""
// when none are defined. Sources that fail are skipped.
func (h *Helper) ScriptBlock() template.HTML {
	if h == nil || len(h.sources) == 0 {
		return ""
	}

	classes := make([]string, 0, len(h.sources))
	for class := range h.sources {
		classes = append(classes, class)
	}
	sort.Strings(classes)

	var b strings.Builder
	b.WriteString("<script type=\"text/javascript\">\n")
	for _, class := range classes {
		items, err := h.sources[class]()
		if err != nil {
			continue
		}
		if items == nil {
			items = []string{}
		}
		data, err := json.Marshal(items)
		if err != nil {
			continue
		}
		selector, _ := json.Marshal("." + class)
		fmt.Fprintf(&b, "$(%s).typeahead({source: %s});\n", selector, data)
	}
	b.WriteString("</script>")
	return template.HTML(b.String())
}
