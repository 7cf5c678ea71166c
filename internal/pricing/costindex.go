package pricing

// CostIndex is an immutable (period, technical name) -> raw price index over
// the raw cost table.
//
// The raw table is not guaranteed duplicate-free; Add keeps the first value
// seen for a key, matching the "first match wins" contract of the upstream
// table scan.
type CostIndex struct {
	prices map[costKey]float64
}

type costKey struct {
	period int
	name   string
}

// NewCostIndex returns an empty index sized for roughly n entries.
func NewCostIndex(n int) *CostIndex {
	if n < 0 {
		n = 0
	}
	return &CostIndex{prices: make(map[costKey]float64, n)}
}

// Add records a raw price for (period, name). Later duplicates of the same
// key are ignored.
func (ix *CostIndex) Add(period int, name string, value float64) {
	k := costKey{period: period, name: name}
	if _, ok := ix.prices[k]; ok {
		return
	}
	ix.prices[k] = value
}

// Lookup returns the raw price for (period, name). The name must already be
// the exact technical name used by the raw table; no case folding happens
// here.
func (ix *CostIndex) Lookup(period int, name string) (float64, bool) {
	v, ok := ix.prices[costKey{period: period, name: name}]
	return v, ok
}

// Len reports the number of distinct (period, name) keys.
func (ix *CostIndex) Len() int { return len(ix.prices) }
