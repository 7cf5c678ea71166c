// Package transformer provides the pooled positional Row passed from the
// streaming parsers to the reference-table loaders.
package transformer

import "sync"

// Row is a pooled container holding one positional record.
//
// Ownership contract:
//   - Exactly one goroutine owns a Row at a time.
//   - Sending a Row on a channel transfers ownership.
//   - The final consumer calls Free() once it is fully done with r.V.
//   - On cancellation paths, call Drop() instead: a canceled parser may
//     still be unwinding while a drain-safe consumer reads the row, and
//     re-pooling at that point lets the parser reuse memory that is still
//     being observed downstream.
type Row struct {
	V    []any
	Line int // 1-based source record number, if known
}

var rowPool sync.Pool

// GetRow returns a pooled Row with length colCount and all cells zeroed.
func GetRow(colCount int) *Row {
	if v := rowPool.Get(); v != nil {
		r := v.(*Row)
		if cap(r.V) < colCount {
			r.V = make([]any, colCount)
		}
		r.V = r.V[:colCount]
		for i := range r.V {
			r.V[i] = nil
		}
		r.Line = 0
		return r
	}
	return &Row{V: make([]any, colCount)}
}

// Free returns the Row to the pool. Call only when no other goroutine can
// still observe r or r.V.
func (r *Row) Free() {
	rowPool.Put(r)
}

// Drop discards the Row without re-pooling it; the GC reclaims it.
func (r *Row) Drop() {
	r.V = nil
	r.Line = 0
}
