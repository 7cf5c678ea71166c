// Package loader reads the reference tables a build pass needs and coerces
// them into typed inputs. Coercion is defensive: malformed rows are logged
// and skipped, never fatal, matching the "degrade, don't abort" policy of
// the derivation itself. Structural problems (unreadable file, missing
// sheet, bad header) are fatal.
package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"costvar/internal/config"
	csvparser "costvar/internal/parser/csv"
	xlsxparser "costvar/internal/parser/xlsx"
	"costvar/internal/pricing"
	"costvar/internal/table"
	"costvar/internal/transformer"
)

// TechMapping is one name-mapping record: technology identifier to the
// technical name used by the raw cost table.
type TechMapping struct {
	Output string
}

// FuelInfo carries the provenance annotations for one commodity.
type FuelInfo struct {
	Notes  string
	Source string
}

// Inputs is the full reference-data bundle for one build pass.
type Inputs struct {
	Costs   *pricing.CostIndex
	Techs   []string
	Mapping map[string]TechMapping
	Fuels   map[string]FuelInfo
}

// Load reads all four reference tables named in cfg.
func Load(ctx context.Context, cfg config.Inputs, log *zap.Logger) (*Inputs, error) {
	if log == nil {
		log = zap.NewNop()
	}

	costs, err := loadCostIndex(ctx, cfg.CostTable, log)
	if err != nil {
		return nil, fmt.Errorf("cost table: %w", err)
	}
	techs, err := loadTechList(ctx, cfg.TechList, log)
	if err != nil {
		return nil, fmt.Errorf("tech list: %w", err)
	}
	mapping, err := loadNameMapping(ctx, cfg.NameMapping, log)
	if err != nil {
		return nil, fmt.Errorf("name mapping: %w", err)
	}
	fuels, err := loadFuelMetadata(ctx, cfg.FuelMetadata, log)
	if err != nil {
		return nil, fmt.Errorf("fuel metadata: %w", err)
	}

	return &Inputs{Costs: costs, Techs: techs, Mapping: mapping, Fuels: fuels}, nil
}

func loadCostIndex(ctx context.Context, in config.Input, log *zap.Logger) (*pricing.CostIndex, error) {
	rows, err := readTable(ctx, in, []string{"period", "tech_name", "value"}, log)
	if err != nil {
		return nil, err
	}

	ix := pricing.NewCostIndex(len(rows))
	for _, r := range rows {
		period, ok := table.AsInt(r[0])
		if !ok {
			log.Warn("cost table: skipping row with non-integer period",
				zap.String("path", in.Path), zap.Any("period", r[0]))
			continue
		}
		name := table.AsString(r[1])
		if name == "" {
			log.Warn("cost table: skipping row with empty tech name",
				zap.String("path", in.Path), zap.Int("period", period))
			continue
		}
		value, ok := table.AsFloat(r[2])
		if !ok {
			log.Warn("cost table: skipping row with non-numeric value",
				zap.String("path", in.Path), zap.String("tech_name", name), zap.Int("period", period))
			continue
		}
		ix.Add(period, name, value)
	}
	return ix, nil
}

func loadTechList(ctx context.Context, in config.Input, log *zap.Logger) ([]string, error) {
	rows, err := readTable(ctx, in, []string{"tech"}, log)
	if err != nil {
		return nil, err
	}

	techs := make([]string, 0, len(rows))
	for _, r := range rows {
		if t := table.AsString(r[0]); t != "" {
			techs = append(techs, t)
		}
	}
	return techs, nil
}

func loadNameMapping(ctx context.Context, in config.Input, log *zap.Logger) (map[string]TechMapping, error) {
	rows, err := readTable(ctx, in, []string{"tech", "output"}, log)
	if err != nil {
		return nil, err
	}

	mapping := make(map[string]TechMapping, len(rows))
	for _, r := range rows {
		tech := table.AsString(r[0])
		if tech == "" {
			continue
		}
		if _, dup := mapping[tech]; dup {
			log.Warn("name mapping: duplicate tech, keeping first",
				zap.String("path", in.Path), zap.String("tech", tech))
			continue
		}
		mapping[tech] = TechMapping{Output: table.AsString(r[1])}
	}
	return mapping, nil
}

// loadFuelMetadata builds the commodity -> notes/source map. Absent notes
// or source cells default to empty strings, so a sparse metadata table is
// fine.
func loadFuelMetadata(ctx context.Context, in config.Input, log *zap.Logger) (map[string]FuelInfo, error) {
	rows, err := readTable(ctx, in, []string{"commodity", "notes", "source"}, log)
	if err != nil {
		return nil, err
	}

	fuels := make(map[string]FuelInfo, len(rows))
	for _, r := range rows {
		commodity := table.AsString(r[0])
		if commodity == "" {
			continue
		}
		if _, dup := fuels[commodity]; dup {
			continue // first match wins
		}
		fuels[commodity] = FuelInfo{
			Notes:  table.AsString(r[1]),
			Source: table.AsString(r[2]),
		}
	}
	return fuels, nil
}

// readTable streams one source file into memory, aligned to columns.
// Row-level parse errors are logged and the row skipped; structural errors
// abort.
func readTable(ctx context.Context, in config.Input, columns []string, log *zap.Logger) ([][]any, error) {
	f, err := os.Open(in.Path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", in.Path, err)
	}

	onErr := func(line int, err error) {
		log.Warn("parse error", zap.String("path", in.Path), zap.Int("line", line), zap.Error(err))
	}

	out := make(chan *transformer.Row, 256)
	errCh := make(chan error, 1)

	switch format(in) {
	case "xlsx":
		go func() {
			defer close(out)
			defer f.Close()
			errCh <- xlsxparser.StreamRows(ctx, f, in.Sheet, columns, in.Options, out, onErr)
		}()
	default:
		go func() {
			defer close(out)
			// the csv parser owns and closes f
			errCh <- csvparser.StreamRows(ctx, f, columns, in.Options, out, onErr)
		}()
	}

	var rows [][]any
	for r := range out {
		rows = append(rows, append([]any(nil), r.V...))
		r.Free()
	}
	if err := <-errCh; err != nil {
		return nil, err
	}
	return rows, nil
}

func format(in config.Input) string {
	if in.Format != "" {
		return strings.ToLower(in.Format)
	}
	switch strings.ToLower(filepath.Ext(in.Path)) {
	case ".xlsx", ".xlsm":
		return "xlsx"
	default:
		return "csv"
	}
}
