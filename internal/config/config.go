// Package config defines the JSON run configuration for a CostVariable
// build pass and its validation.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"costvar/internal/pricing"
)

// Run is the top-level run configuration.
type Run struct {
	Job string `json:"job"`

	// Inputs names the reference tables to load before the pass.
	Inputs Inputs `json:"inputs"`

	// Regions is the region domain, in output order. It may include the
	// aggregate placeholder "CAN", which is never priced.
	Regions []string `json:"regions"`

	// Periods serves as both the vintage domain and the period domain.
	Periods []int `json:"periods"`

	// RegionIDs maps every non-excluded region to its data_id. A region in
	// Regions without an entry here is a configuration error.
	RegionIDs map[string]string `json:"region_ids"`

	// Factors is the conversion-factor bundle for the run.
	Factors pricing.Factors `json:"factors"`

	// Fuels holds override prices for fuels absent from the raw cost table.
	Fuels pricing.Overrides `json:"fuels"`

	Storage Storage       `json:"storage"`
	Runtime RuntimeConfig `json:"runtime"`
}

// Inputs groups the reference-table sources.
type Inputs struct {
	CostTable    Input `json:"cost_table"`
	TechList     Input `json:"tech_list"`
	NameMapping  Input `json:"name_mapping"`
	FuelMetadata Input `json:"fuel_metadata"`
}

// Input describes one tabular source file.
type Input struct {
	Path string `json:"path"`

	// Format is "csv" or "xlsx". When empty it is inferred from the path
	// extension.
	Format string `json:"format,omitempty"`

	// Sheet selects the worksheet for xlsx sources. Defaults to the first
	// sheet in the workbook.
	Sheet string `json:"sheet,omitempty"`

	Options Options `json:"options,omitempty"`
}

// Storage selects the persistence backend for the finished table set.
type Storage struct {
	// Kind: "sqlite" | "postgres" | "mssql". Empty disables persistence
	// (useful for validate-only and dry runs).
	Kind string `json:"kind"`
	DSN  string `json:"dsn"`
}

// RuntimeConfig controls execution behavior.
type RuntimeConfig struct {
	// BatchSize bounds rows per insert statement. Defaults to 1024.
	BatchSize int `json:"batch_size"`

	// DebugTimings enables per-stage duration logging at debug level.
	DebugTimings bool `json:"debug_timings"`
}

// LoadRun reads and decodes a run configuration file. Decoding is strict:
// unknown top-level fields are rejected so typos fail fast rather than
// silently running with defaults.
func LoadRun(path string) (Run, error) {
	var r Run

	f, err := os.Open(path)
	if err != nil {
		return r, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&r); err != nil {
		return r, fmt.Errorf("decode config %s: %w", path, err)
	}
	return r, nil
}
