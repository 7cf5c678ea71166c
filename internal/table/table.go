// Package table holds the in-memory tabular model shared by the loaders,
// the builder, and the storage layer: column-ordered tables, a named set of
// them, and the defensive cell coercions used when consuming external data.
package table

import (
	"strconv"
	"strings"
)

// Table is a column-ordered table of positional rows. Rows are append-only;
// nothing in this codebase updates or deletes a row in place.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]any
}

// New returns an empty table with the given column order.
func New(name string, columns ...string) *Table {
	return &Table{Name: name, Columns: append([]string(nil), columns...)}
}

// Append adds rows at the end, preserving both prior rows and input order.
func (t *Table) Append(rows ...[]any) {
	t.Rows = append(t.Rows, rows...)
}

// Len reports the current row count.
func (t *Table) Len() int { return len(t.Rows) }

// ColumnIndex returns the position of a column, or -1 when absent.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Set is the output-tables collection keyed by table name.
type Set map[string]*Table

// Get returns the named table, or nil.
func (s Set) Get(name string) *Table { return s[name] }

// Ensure returns the named table, creating it with the given columns when it
// does not exist yet. An existing table keeps its own column order.
func (s Set) Ensure(name string, columns ...string) *Table {
	if t, ok := s[name]; ok {
		return t
	}
	t := New(name, columns...)
	s[name] = t
	return t
}

// ---- defensive cell coercion ----
//
// External tables arrive as strings (CSV) or loosely typed cells (XLSX).
// These helpers coerce best-effort and report failure instead of guessing.

// AsInt coerces a cell to int. Float cells are accepted when integral
// (XLSX stores every number as float64).
func AsInt(v any) (int, bool) {
	switch t := v.(type) {
	case nil:
		return 0, false
	case int:
		return t, true
	case int64:
		return int(t), true
	case float64:
		if t == float64(int64(t)) {
			return int(t), true
		}
		return 0, false
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, false
		}
		if n, err := strconv.Atoi(s); err == nil {
			return n, true
		}
		// Excel-exported integers often carry a trailing ".0".
		if f, err := strconv.ParseFloat(s, 64); err == nil && f == float64(int64(f)) {
			return int(f), true
		}
		return 0, false
	default:
		return 0, false
	}
}

// AsFloat coerces a cell to float64.
func AsFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case nil:
		return 0, false
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// AsString coerces a cell to a trimmed string. Nil becomes "".
func AsString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		if HasEdgeSpace(t) {
			return strings.TrimSpace(t)
		}
		return t
	case []byte:
		return strings.TrimSpace(string(t))
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}

// HasEdgeSpace reports whether s starts or ends with ASCII whitespace. It
// exists so hot paths can skip strings.TrimSpace when nothing would change.
func HasEdgeSpace(s string) bool {
	if s == "" {
		return false
	}
	return isSpace(s[0]) || isSpace(s[len(s)-1])
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\v' || b == '\f'
}
