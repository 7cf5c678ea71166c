package config

import (
	"os"
	"path/filepath"
	"testing"

	"costvar/internal/pricing"
)

func validRun() Run {
	return Run{
		Job: "canoe-costvariable",
		Inputs: Inputs{
			CostTable:    Input{Path: "data/costs.csv"},
			TechList:     Input{Path: "data/techs.csv"},
			NameMapping:  Input{Path: "data/mapping.csv"},
			FuelMetadata: Input{Path: "data/fuels.xlsx", Sheet: "fuels"},
		},
		Regions:   []string{"ON", "QC", "CAN"},
		Periods:   []int{2025, 2030},
		RegionIDs: map[string]string{"ON": "ON1", "QC": "QC1"},
		Factors: pricing.Factors{
			MMBTUConvertor:     1.1,
			CurrencyAdjustment: 1.05,
			Deflation2022:      0.9,
			Deflation2025:      0.95,
			EthPrice:           7.5,
		},
		Fuels:   pricing.Overrides{BiomassPrice: 3.0, UraniumPrice: 5.0},
		Storage: Storage{Kind: "sqlite", DSN: "file:out.db"},
	}
}

func TestValidateRunOK(t *testing.T) {
	issues := ValidateRun(validRun())
	if HasErrors(issues) {
		t.Fatalf("unexpected errors: %v", issues)
	}
}

func TestValidateRunFindings(t *testing.T) {
	r := validRun()
	r.Inputs.CostTable.Path = ""
	r.Inputs.TechList.Format = "parquet"
	r.Regions = append(r.Regions, "MB") // no data_id entry
	r.Storage.Kind = "oracle"
	r.Factors.Deflation2025 = 0

	issues := ValidateRun(r)
	if !HasErrors(issues) {
		t.Fatal("expected errors")
	}

	wantPaths := map[string]bool{
		"inputs.cost_table.path": false,
		"inputs.tech_list.format": false,
		"region_ids":             false,
		"storage.kind":           false,
		"factors":                false,
	}
	for _, i := range issues {
		if _, ok := wantPaths[i.Path]; ok && i.Severity == SeverityError {
			wantPaths[i.Path] = true
		}
	}
	for p, seen := range wantPaths {
		if !seen {
			t.Errorf("missing error for %s (got %v)", p, issues)
		}
	}
}

func TestValidateRunCANNeedsNoDataID(t *testing.T) {
	r := validRun()
	// "CAN" is in Regions but deliberately absent from RegionIDs.
	if issues := ValidateRun(r); HasErrors(issues) {
		t.Fatalf("CAN must not require a data_id: %v", issues)
	}
}

func TestLoadRunRejectsUnknownFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.json")
	body := `{"job":"x","unknown_field":true}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadRun(path); err == nil {
		t.Fatal("expected decode error for unknown field")
	}
}

func TestOptionsAccessors(t *testing.T) {
	o := Options{
		"has_header": false,
		"comma":      ";",
		"batch":      float64(64),
		"encoding":   "latin1",
		"header_map": map[string]any{"Tech Name": "tech_name", "n": 1},
	}

	if o.Bool("has_header", true) {
		t.Error("Bool")
	}
	if o.Bool("missing", true) != true {
		t.Error("Bool default")
	}
	if o.Rune("comma", ',') != ';' {
		t.Error("Rune")
	}
	if o.Rune("missing", ',') != ',' {
		t.Error("Rune default")
	}
	if o.Int("batch", 0) != 64 {
		t.Error("Int from float64")
	}
	if o.String("encoding", "") != "latin1" {
		t.Error("String")
	}
	hm := o.StringMap("header_map")
	if hm["Tech Name"] != "tech_name" {
		t.Error("StringMap")
	}
	if _, ok := hm["n"]; ok {
		t.Error("StringMap must skip non-string values")
	}
	if Options(nil).Any("x") != nil {
		t.Error("nil Options")
	}
}
