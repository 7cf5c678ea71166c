// Package csv streams CSV sources into pooled rows aligned to a target
// column list.
package csv

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"costvar/internal/config"
	"costvar/internal/table"
	"costvar/internal/transformer"
)

// StreamRows streams CSV into pooled *transformer.Row objects aligned to
// the target 'columns' order.
//
// Options:
//   - has_header (bool, default true)
//   - comma (string, default ",")
//   - trim_space (bool, default true)
//   - lazy_quotes (bool, default false)
//   - fields_per_record (int, default: variable)
//   - header_map (map, source header -> canonical column)
//   - encoding (string: "", "utf-8", "latin1", "windows-1252")
//
// Header names not covered by header_map are lowercased with spaces
// replaced by underscores, so "Tech Name" matches a target column
// "tech_name" without configuration. When a source header appears twice,
// the first occurrence wins and later duplicates are dropped.
//
// NOTE on cancellation:
// On ctx cancellation in-flight rows must NOT be returned to the pool
// (Drop instead), otherwise the parser can reuse them immediately while
// drain-safe consumers still read them.
func StreamRows(
	ctx context.Context,
	src io.ReadCloser,
	columns []string,
	opt config.Options,
	out chan<- *transformer.Row,
	onErr func(line int, err error),
) error {
	defer src.Close()

	var line int

	hasHeader := opt.Bool("has_header", true)
	comma := opt.Rune("comma", ',')
	trim := opt.Bool("trim_space", true)
	hm := opt.StringMap("header_map")
	lazy := opt.Bool("lazy_quotes", false)
	fieldsPer := opt.Int("fields_per_record", 0)

	r, err := decodeReader(src, opt.String("encoding", ""))
	if err != nil {
		if onErr != nil {
			onErr(0, err)
		}
		return err
	}

	cr := csv.NewReader(r)
	cr.Comma = comma
	cr.ReuseRecord = true
	cr.LazyQuotes = lazy
	if fieldsPer != 0 {
		cr.FieldsPerRecord = fieldsPer
	} else {
		cr.FieldsPerRecord = -1
	}

	colIx := make([]int, len(columns))
	for i := range colIx {
		colIx[i] = -1
	}

	readRec := func() ([]string, error) {
		line++
		return cr.Read()
	}

	if hasHeader {
		hdr, err := readRec()
		if err != nil {
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
			if i == 0 {
				h = strings.TrimPrefix(h, "\uFEFF")
			}
			if mapped, ok := hm[h]; ok {
				h = mapped
			} else {
				h = strings.ReplaceAll(strings.ToLower(h), " ", "_")
			}
			// Duplicate source columns: keep the first.
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

		rec, err := readRec()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			if onErr != nil {
				onErr(line, fmt.Errorf("csv read: %w", err))
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
			// IMPORTANT: do not re-pool on cancellation
			row.Drop()
			return ctx.Err()
		}
	}
}

// decodeReader wraps r with a charset decoder when the source is not UTF-8.
// StatCan and CER exports are occasionally Latin-1/Windows-1252 encoded.
func decodeReader(r io.Reader, enc string) (io.Reader, error) {
	var dec *encoding.Decoder
	switch strings.ToLower(strings.TrimSpace(enc)) {
	case "", "utf-8", "utf8":
		return r, nil
	case "latin1", "iso-8859-1":
		dec = charmap.ISO8859_1.NewDecoder()
	case "windows-1252", "cp1252":
		dec = charmap.Windows1252.NewDecoder()
	default:
		return nil, fmt.Errorf("csv: unsupported encoding %q", enc)
	}
	return transform.NewReader(r, dec), nil
}
