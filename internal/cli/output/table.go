package output

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
)

// Table is a set of rows under headers.
type Table struct {
	Headers []string
	Rows    [][]string
}

// NewTable creates a table with the given headers.
func NewTable(headers ...string) *Table {
	return &Table{Headers: headers}
}

// AddRow appends a row. Missing cells are rendered empty.
func (t *Table) AddRow(cells ...string) {
	t.Rows = append(t.Rows, cells)
}

// Render writes the table aligned with tabwriter.
func (t *Table) Render(w io.Writer, noHeaders bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	if !noHeaders && len(t.Headers) > 0 {
		upper := make([]string, len(t.Headers))
		for i, h := range t.Headers {
			upper[i] = strings.ToUpper(h)
		}
		fmt.Fprintln(tw, strings.Join(upper, "\t"))
	}

	width := len(t.Headers)
	for _, row := range t.Rows {
		cells := row
		if len(cells) < width {
			cells = append(append([]string(nil), row...), make([]string, width-len(row))...)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}

	return tw.Flush()
}

// Tabular is implemented by values with a table rendering.
type Tabular interface {
	Table() *Table
}

// TableFormatter writes tables. Values that cannot be tabulated are
// written as JSON.
type TableFormatter struct {
	NoHeaders bool
}

func (f *TableFormatter) Format(w io.Writer, data any) error {
	switch v := data.(type) {
	case nil:
		return nil
	case *Table:
		return v.Render(w, f.NoHeaders)
	case Tabular:
		return v.Table().Render(w, f.NoHeaders)
	case map[string]string:
		return keyValueTable(v).Render(w, f.NoHeaders)
	default:
		return (&JSONFormatter{}).Format(w, data)
	}
}

func keyValueTable(m map[string]string) *Table {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	t := NewTable("key", "value")
	for _, k := range keys {
		t.AddRow(k, m[k])
	}
	return t
}
