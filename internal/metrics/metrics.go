// Package metrics defines the minimal metrics surface the pipeline emits
// to. Core code depends only on Backend; concrete backends live in
// subpackages so their SDKs never leak into the derivation code.
package metrics

import "context"

// Backend receives pipeline metrics.
//
// Implementations must be safe for concurrent use. Counter and histogram
// calls must be cheap; network submission belongs in Flush.
type Backend interface {
	// IncCounter adds delta to a named counter.
	IncCounter(name string, delta float64)

	// ObserveHistogram records one sample of a named distribution
	// (durations are recorded in seconds).
	ObserveHistogram(name string, value float64)

	// Flush submits buffered metrics.
	Flush(ctx context.Context) error

	// Close flushes one final time and releases resources.
	Close(ctx context.Context) error
}

// Metric names emitted by the build pass.
const (
	CounterRowsBuilt       = "costvar.rows_built"
	CounterCombosSkipped   = "costvar.combinations_skipped"
	CounterLookupMisses    = "costvar.lookup_misses"
	HistogramStageDuration = "costvar.stage_duration_seconds"
)

type nop struct{}

// NewNop returns a Backend that discards everything.
func NewNop() Backend { return nop{} }

func (nop) IncCounter(string, float64)       {}
func (nop) ObserveHistogram(string, float64) {}
func (nop) Flush(context.Context) error      { return nil }
func (nop) Close(context.Context) error      { return nil }
