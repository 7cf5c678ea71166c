// Package costvariable derives the CostVariable table of the planning
// model: one priced row per valid (region, vintage, period, technology)
// combination, with provenance and data-quality metadata attached.
package costvariable

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"costvar/internal/loader"
	"costvar/internal/metrics"
	"costvar/internal/pricing"
	"costvar/internal/storage"
	"costvar/internal/table"
)

// TableName is the output table extended by Build.
const TableName = "CostVariable"

// Unit is the fixed model unit every derived price is expressed in.
const Unit = "2020 M$/PJ"

// Columns is the output schema, in append order.
var Columns = []string{
	"region", "period", "tech", "vintage", "value", "unit",
	"notes", "source", "dq_cred", "dq_geo", "dq_str", "dq_tech", "dq_time",
	"data_id",
}

// Default data-quality scores applied to every row of this pass.
const (
	dqCred = 2
	dqGeo  = 3
	dqStr  = 2
	dqTech = 1
	dqTime = 1
)

// Technologies carrying any of these markers are priced elsewhere.
var skipMarkers = []string{"F_IMP", "ELC", "OTH"}

// Request carries one build pass worth of inputs. Tables is mutated in
// place: only its CostVariable member is extended, everything else
// passes through untouched.
type Request struct {
	Tables    table.Set
	Costs     *pricing.CostIndex
	Techs     []string
	Mapping   map[string]loader.TechMapping
	Regions   []string
	Periods   []int
	RegionIDs map[string]string
	Fuels     map[string]loader.FuelInfo
}

type Builder struct {
	Factors   pricing.Factors
	Overrides pricing.Overrides
	Logger    *zap.Logger
	Metrics   metrics.Backend
}

// Build enumerates regions, vintages, periods and technologies in that
// order, prices each surviving combination and appends the rows to the
// CostVariable table in one batch. A technology missing from the name
// mapping, or a region missing from the region id map, aborts the pass:
// those indicate a malformed input set, not a missing price point.
func (b *Builder) Build(req Request) error {
	log := b.Logger
	if log == nil {
		log = zap.NewNop()
	}
	mb := b.Metrics
	if mb == nil {
		mb = metrics.NewNop()
	}

	out := req.Tables.Ensure(TableName, Columns...)

	var rows [][]any
	var skipped int
	for _, region := range req.Regions {
		if region == "CAN" {
			continue
		}
		dataID, ok := req.RegionIDs[region]
		if !ok {
			return fmt.Errorf("costvariable: region %q has no data id", region)
		}

		for _, vintage := range req.Periods {
			for _, period := range req.Periods {
				if period < vintage {
					skipped += len(req.Techs)
					continue
				}

				for _, tech := range req.Techs {
					if excluded(tech) {
						skipped++
						continue
					}

					mapped, ok := req.Mapping[tech]
					if !ok {
						return fmt.Errorf("costvariable: technology %q has no name mapping", tech)
					}
					name := strings.TrimSpace(mapped.Output)

					quote := pricing.Resolve(name, period, req.Costs, b.Overrides, b.Factors)
					for _, miss := range quote.Misses {
						mb.IncCounter(metrics.CounterLookupMisses, 1)
						log.Warn("no raw price, substituting zero",
							zap.String("tech_name", miss.Name),
							zap.Int("period", miss.Period),
							zap.String("rule", miss.Rule))
					}

					notes, source := "", ""
					if info, ok := req.Fuels[name]; ok {
						notes, source = info.Notes, info.Source
					}

					rows = append(rows, []any{
						region, period, tech, vintage, quote.Value, Unit,
						notes, source, dqCred, dqGeo, dqStr, dqTech, dqTime,
						dataID,
					})
				}
			}
		}
	}

	out.Append(rows...)
	mb.IncCounter(metrics.CounterRowsBuilt, float64(len(rows)))
	mb.IncCounter(metrics.CounterCombosSkipped, float64(skipped))
	log.Info("cost variable pass complete",
		zap.Int("rows", len(rows)),
		zap.Int("skipped", skipped))
	return nil
}

func excluded(tech string) bool {
	for _, marker := range skipMarkers {
		if strings.Contains(tech, marker) {
			return true
		}
	}
	return false
}

// Spec describes the output table for persistence backends.
func Spec() storage.TableSpec {
	return storage.TableSpec{
		Name:            TableName,
		AutoCreateTable: true,
		Columns: []storage.ColumnSpec{
			{Name: "region", Type: storage.TypeText},
			{Name: "period", Type: storage.TypeInteger},
			{Name: "tech", Type: storage.TypeText},
			{Name: "vintage", Type: storage.TypeInteger},
			{Name: "value", Type: storage.TypeDouble},
			{Name: "unit", Type: storage.TypeText},
			{Name: "notes", Type: storage.TypeText},
			{Name: "source", Type: storage.TypeText},
			{Name: "dq_cred", Type: storage.TypeInteger},
			{Name: "dq_geo", Type: storage.TypeInteger},
			{Name: "dq_str", Type: storage.TypeInteger},
			{Name: "dq_tech", Type: storage.TypeInteger},
			{Name: "dq_time", Type: storage.TypeInteger},
			{Name: "data_id", Type: storage.TypeText},
		},
	}
}
