package costvariable

import (
	"context"
	"reflect"
	"testing"

	"costvar/internal/loader"
	"costvar/internal/metrics"
	"costvar/internal/pricing"
	"costvar/internal/table"
)

type countingBackend struct {
	counters map[string]float64
}

func (c *countingBackend) IncCounter(name string, delta float64) {
	if c.counters == nil {
		c.counters = make(map[string]float64)
	}
	c.counters[name] += delta
}

func (c *countingBackend) ObserveHistogram(string, float64) {}
func (c *countingBackend) Flush(context.Context) error      { return nil }
func (c *countingBackend) Close(context.Context) error      { return nil }

func testFactors() pricing.Factors {
	return pricing.Factors{
		MMBTUConvertor:     1.1,
		CurrencyAdjustment: 1.05,
		Deflation2022:      0.9,
		Deflation2025:      0.95,
		EthPrice:           7.5,
		RdslPrice:          8.25,
		SpkPrice:           9.0,
	}
}

func testRequest() Request {
	costs := pricing.NewCostIndex(4)
	costs.Add(2030, "T_dsl", 10.0)
	costs.Add(2035, "T_dsl", 12.0)

	return Request{
		Tables:  table.Set{},
		Costs:   costs,
		Techs:   []string{"F_T_DSL", "F_IMP_DSL"},
		Mapping: map[string]loader.TechMapping{
			"F_T_DSL":   {Output: " T_dsl "},
			"F_IMP_DSL": {Output: "T_dsl"},
		},
		Regions:   []string{"ON", "CAN", "QC"},
		Periods:   []int{2030, 2035},
		RegionIDs: map[string]string{"ON": "id-on", "QC": "id-qc"},
		Fuels: map[string]loader.FuelInfo{
			"T_dsl": {Notes: "diesel, transport grade", Source: "StatCan 25-10-0029"},
		},
	}
}

func TestBuildEnumeration(t *testing.T) {
	req := testRequest()
	b := Builder{Factors: testFactors()}
	if err := b.Build(req); err != nil {
		t.Fatal(err)
	}

	out := req.Tables.Get(TableName)
	if out == nil {
		t.Fatal("no CostVariable table")
	}
	// 2 regions (CAN excluded) * 3 (vintage, period) pairs * 1 tech
	// (F_IMP_DSL excluded).
	if out.Len() != 6 {
		t.Fatalf("rows = %d, want 6", out.Len())
	}

	iRegion := out.ColumnIndex("region")
	iPeriod := out.ColumnIndex("period")
	iVintage := out.ColumnIndex("vintage")
	iTech := out.ColumnIndex("tech")
	for _, row := range out.Rows {
		if row[iRegion] == "CAN" {
			t.Fatal("CAN row emitted")
		}
		if row[iPeriod].(int) < row[iVintage].(int) {
			t.Fatalf("period %v before vintage %v", row[iPeriod], row[iVintage])
		}
		if row[iTech] != "F_T_DSL" {
			t.Fatalf("excluded tech emitted: %v", row[iTech])
		}
	}
}

func TestBuildRowContent(t *testing.T) {
	req := testRequest()
	b := Builder{Factors: testFactors()}
	if err := b.Build(req); err != nil {
		t.Fatal(err)
	}

	out := req.Tables.Get(TableName)
	first := out.Rows[0]
	f := testFactors()
	wantVal := ((10.0 * f.MMBTUConvertor) * f.CurrencyAdjustment) * f.Deflation2025
	want := []any{
		"ON", 2030, "F_T_DSL", 2030, wantVal, Unit,
		"diesel, transport grade", "StatCan 25-10-0029", 2, 3, 2, 1, 1,
		"id-on",
	}
	if !reflect.DeepEqual(first, want) {
		t.Fatalf("row =\n%v\nwant\n%v", first, want)
	}
}

func TestBuildPreservesPriorRows(t *testing.T) {
	req := testRequest()
	prior := []any{"BC", 2025, "F_OLD", 2025, 1.0, Unit, "", "", 2, 3, 2, 1, 1, "id-bc"}
	req.Tables.Ensure(TableName, Columns...).Append(prior)

	b := Builder{Factors: testFactors()}
	if err := b.Build(req); err != nil {
		t.Fatal(err)
	}

	out := req.Tables.Get(TableName)
	if out.Len() != 7 {
		t.Fatalf("rows = %d, want 7", out.Len())
	}
	if !reflect.DeepEqual(out.Rows[0], prior) {
		t.Fatalf("prior row disturbed: %v", out.Rows[0])
	}
}

func TestBuildDeterministic(t *testing.T) {
	b := Builder{Factors: testFactors()}

	reqA := testRequest()
	if err := b.Build(reqA); err != nil {
		t.Fatal(err)
	}
	reqB := testRequest()
	if err := b.Build(reqB); err != nil {
		t.Fatal(err)
	}

	a := reqA.Tables.Get(TableName).Rows
	bb := reqB.Tables.Get(TableName).Rows
	if !reflect.DeepEqual(a, bb) {
		t.Fatal("two identical builds produced different rows")
	}
}

func TestBuildMissingMappingFatal(t *testing.T) {
	req := testRequest()
	delete(req.Mapping, "F_T_DSL")

	b := Builder{Factors: testFactors()}
	if err := b.Build(req); err == nil {
		t.Fatal("expected error for unmapped technology")
	}
}

func TestBuildMissingRegionIDFatal(t *testing.T) {
	req := testRequest()
	delete(req.RegionIDs, "QC")

	b := Builder{Factors: testFactors()}
	if err := b.Build(req); err == nil {
		t.Fatal("expected error for region without data id")
	}
}

func TestBuildLookupMissYieldsZero(t *testing.T) {
	req := testRequest()
	req.Techs = []string{"F_T_GSL"}
	req.Mapping["F_T_GSL"] = loader.TechMapping{Output: "T_gsl"}

	mb := &countingBackend{}
	b := Builder{Factors: testFactors(), Metrics: mb}
	if err := b.Build(req); err != nil {
		t.Fatal(err)
	}

	out := req.Tables.Get(TableName)
	iValue := out.ColumnIndex("value")
	for _, row := range out.Rows {
		if row[iValue] != 0.0 {
			t.Fatalf("value = %v, want 0.0 for missing price", row[iValue])
		}
	}
	if mb.counters[metrics.CounterLookupMisses] != 6 {
		t.Fatalf("lookup misses = %v, want 6", mb.counters[metrics.CounterLookupMisses])
	}
}

func TestBuildFuelAnnotationDefaultsEmpty(t *testing.T) {
	req := testRequest()
	req.Fuels = nil

	b := Builder{Factors: testFactors()}
	if err := b.Build(req); err != nil {
		t.Fatal(err)
	}

	out := req.Tables.Get(TableName)
	iNotes := out.ColumnIndex("notes")
	iSource := out.ColumnIndex("source")
	if out.Rows[0][iNotes] != "" || out.Rows[0][iSource] != "" {
		t.Fatalf("annotations = %v, %v, want empty", out.Rows[0][iNotes], out.Rows[0][iSource])
	}
}

func TestSpecMatchesColumns(t *testing.T) {
	spec := Spec()
	if !reflect.DeepEqual(spec.ColumnNames(), Columns) {
		t.Fatalf("spec columns %v != %v", spec.ColumnNames(), Columns)
	}
}
