// Package pricing derives commodity prices for the CostVariable pass in
// model units (2020 M$/PJ).
//
// The package is deliberately pure: all reference data comes in as
// parameters, lookup failures are reported on the returned Quote instead of
// being logged here, and nothing in this package performs I/O. That keeps
// the resolution cascade trivially testable in isolation.
package pricing

// Factors is the run-wide bundle of scalar conversion constants. It is
// loaded once per run and treated as immutable.
type Factors struct {
	// MMBTUConvertor converts $/MMBtu series into $/PJ.
	MMBTUConvertor float64 `json:"mmbtu_convertor"`

	// CurrencyAdjustment converts source currency into model currency.
	CurrencyAdjustment float64 `json:"currency_adjustment"`

	// Deflation2022 and Deflation2025 bring prices from their base year
	// into the 2020 reporting year. Which one applies depends on the fuel
	// category; the split is inherited from the upstream series and must
	// not be changed per category.
	Deflation2022 float64 `json:"deflation_2022"`
	Deflation2025 float64 `json:"deflation_2025"`

	// Fixed external prices, already expressed in model units. These are
	// returned as-is, without any conversion chain.
	EthPrice  float64 `json:"eth_price"`
	RdslPrice float64 `json:"rdsl_price"`
	SpkPrice  float64 `json:"spk_price"`
}

// Overrides holds configuration-supplied prices for fuels that never appear
// in the raw cost table.
type Overrides struct {
	// BiomassPrice covers biomass and wood commodities ($/MMBtu).
	BiomassPrice float64 `json:"b_price"`

	// UraniumPrice covers natural and enriched uranium ($/MMBtu).
	UraniumPrice float64 `json:"u_price"`
}
