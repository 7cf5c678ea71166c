// Package xlsx streams XLSX worksheets into pooled rows aligned to a target
// column list, mirroring the CSV parser's contract. The upstream CER and
// StatCan price workbooks ship as XLSX, so this avoids a manual re-export
// step before every run.
package xlsx

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"costvar/internal/config"
	"costvar/internal/table"
	"costvar/internal/transformer"
)

// StreamRows streams one worksheet into pooled *transformer.Row objects
// aligned to the target 'columns' order.
//
// sheet selects the worksheet; empty means the first sheet in the workbook.
// Options mirror the CSV parser where they apply: has_header (default
// true), trim_space (default true), header_map. Cells arrive as formatted
// strings; numeric coercion is the loader's job.
//
// Row lifetime follows the same rules as the CSV parser: Free on the normal
// path only, Drop on cancellation.
func StreamRows(
	ctx context.Context,
	src io.Reader,
	sheet string,
	columns []string,
	opt config.Options,
	out chan<- *transformer.Row,
	onErr func(line int, err error),
) error {
	hasHeader := opt.Bool("has_header", true)
	trim := opt.Bool("trim_space", true)
	hm := opt.StringMap("header_map")

	f, err := excelize.OpenReader(src)
	if err != nil {
		if onErr != nil {
			onErr(0, fmt.Errorf("open workbook: %w", err))
		}
		return err
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return fmt.Errorf("xlsx: workbook has no sheets")
		}
		sheet = sheets[0]
	}

	it, err := f.Rows(sheet)
	if err != nil {
		if onErr != nil {
			onErr(0, fmt.Errorf("open sheet %q: %w", sheet, err))
		}
		return err
	}
	defer it.Close()

	colIx := make([]int, len(columns))
	for i := range colIx {
		colIx[i] = -1
	}

	var line int

	readRec := func() ([]string, bool, error) {
		if !it.Next() {
			return nil, false, it.Error()
		}
		line++
		rec, err := it.Columns()
		return rec, true, err
	}

	if hasHeader {
		hdr, ok, err := readRec()
		if err != nil || !ok {
			if err == nil {
				err = fmt.Errorf("xlsx: sheet %q is empty", sheet)
			}
			if onErr != nil {
				onErr(line, fmt.Errorf("read header: %w", err))
			}
			return err
		}
		srcToIdx := make(map[string]int, len(hdr))
		for i, h := range hdr {
			if table.HasEdgeSpace(h) {
				h = strings.TrimSpace(h)
			}
			if mapped, ok := hm[h]; ok {
				h = mapped
			} else {
				h = strings.ReplaceAll(strings.ToLower(h), " ", "_")
			}
			if _, exists := srcToIdx[h]; !exists {
				srcToIdx[h] = i
			}
		}
		for t, target := range columns {
			if si, ok := srcToIdx[target]; ok {
				colIx[t] = si
			}
		}
	} else {
		for i := range columns {
			colIx[i] = i
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		rec, ok, err := readRec()
		if !ok {
			// Iterator exhausted; a non-nil error here is terminal.
			if err != nil && onErr != nil {
				onErr(line, fmt.Errorf("xlsx read: %w", err))
			}
			return err
		}
		if err != nil {
			if onErr != nil {
				onErr(line, fmt.Errorf("xlsx read: %w", err))
			}
			continue
		}

		row := transformer.GetRow(len(columns))
		row.Line = line

		for t := range columns {
			si := colIx[t]
			if si < 0 || si >= len(rec) {
				row.V[t] = nil
				continue
			}
			v := rec[si]
			if trim && table.HasEdgeSpace(v) {
				v = strings.TrimSpace(v)
			}
			if v == "" {
				row.V[t] = nil
			} else {
				row.V[t] = v
			}
		}

		select {
		case out <- row:
		case <-ctx.Done():
			row.Drop()
			return ctx.Err()
		}
	}
}
