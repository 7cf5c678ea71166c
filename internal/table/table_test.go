package table

import (
	"reflect"
	"testing"
)

func TestAppendPreservesOrder(t *testing.T) {
	tbl := New("CostVariable", "region", "period", "value")
	tbl.Append([]any{"ON", 2030, 1.0})
	tbl.Append([]any{"QC", 2030, 2.0}, []any{"BC", 2035, 3.0})

	if tbl.Len() != 3 {
		t.Fatalf("Len = %d, want 3", tbl.Len())
	}
	want := [][]any{
		{"ON", 2030, 1.0},
		{"QC", 2030, 2.0},
		{"BC", 2035, 3.0},
	}
	if !reflect.DeepEqual(tbl.Rows, want) {
		t.Fatalf("Rows = %v, want %v", tbl.Rows, want)
	}
}

func TestSetEnsure(t *testing.T) {
	s := Set{}
	a := s.Ensure("CostVariable", "region", "period")
	b := s.Ensure("CostVariable", "other", "columns")
	if a != b {
		t.Fatal("Ensure must return the existing table")
	}
	if !reflect.DeepEqual(b.Columns, []string{"region", "period"}) {
		t.Fatalf("existing column order was replaced: %v", b.Columns)
	}
}

func TestColumnIndex(t *testing.T) {
	tbl := New("t", "a", "b")
	if i := tbl.ColumnIndex("b"); i != 1 {
		t.Fatalf("ColumnIndex(b) = %d, want 1", i)
	}
	if i := tbl.ColumnIndex("missing"); i != -1 {
		t.Fatalf("ColumnIndex(missing) = %d, want -1", i)
	}
}

func TestAsInt(t *testing.T) {
	tests := []struct {
		in   any
		want int
		ok   bool
	}{
		{"2030", 2030, true},
		{" 2030 ", 2030, true},
		{"2030.0", 2030, true},
		{2030, 2030, true},
		{float64(2030), 2030, true},
		{float64(2030.5), 0, false},
		{"", 0, false},
		{nil, 0, false},
		{"n/a", 0, false},
	}
	for _, tc := range tests {
		got, ok := AsInt(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Errorf("AsInt(%#v) = %d, %v; want %d, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestAsFloat(t *testing.T) {
	tests := []struct {
		in   any
		want float64
		ok   bool
	}{
		{"10.5", 10.5, true},
		{float64(3.25), 3.25, true},
		{7, 7.0, true},
		{"", 0, false},
		{nil, 0, false},
		{"abc", 0, false},
	}
	for _, tc := range tests {
		got, ok := AsFloat(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Errorf("AsFloat(%#v) = %v, %v; want %v, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestAsString(t *testing.T) {
	if got := AsString("  T_dsl "); got != "T_dsl" {
		t.Fatalf("AsString = %q", got)
	}
	if got := AsString(nil); got != "" {
		t.Fatalf("AsString(nil) = %q", got)
	}
	if got := AsString(42); got != "42" {
		t.Fatalf("AsString(42) = %q", got)
	}
}

func TestHasEdgeSpace(t *testing.T) {
	if HasEdgeSpace("T_dsl") {
		t.Fatal("no edge space expected")
	}
	if !HasEdgeSpace(" T_dsl") || !HasEdgeSpace("T_dsl\t") {
		t.Fatal("edge space expected")
	}
	if HasEdgeSpace("") {
		t.Fatal("empty string has no edge space")
	}
}
