// Package csv reads and writes the pipeline's CSV artifacts.
//
// ReadTable loads a whole extract into a table.Table. Cells are kept as raw
// strings; empty fields become nil so that "null" has a single spelling
// everywhere downstream. WriteTable is the inverse and renders typed cells via
// table.Format.
package csv

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"retailetl/internal/config"
	"retailetl/internal/table"
)

// Options tunes the CSV reader.
type Options struct {
	// Comma is the field delimiter; zero means ','.
	Comma rune
	// TrimSpace trims leading/trailing whitespace from every cell.
	TrimSpace bool
	// LazyQuotes relaxes quote handling (encoding/csv LazyQuotes).
	LazyQuotes bool
	// HeaderMap renames source headers to canonical column names.
	HeaderMap map[string]string
}

// OptionsFrom reads parser options from a config options bag:
//
//	comma (string), trim_space (bool), lazy_quotes (bool), header_map (object)
func OptionsFrom(o config.Options) Options {
	return Options{
		Comma:      o.Rune("comma", ','),
		TrimSpace:  o.Bool("trim_space", false),
		LazyQuotes: o.Bool("lazy_quotes", false),
		HeaderMap:  o.StringMap("header_map"),
	}
}

// logEveryN controls the reader progress heartbeat.
const logEveryN = 100_000

// ReadTable reads a CSV document with a header row into a table. src is
// always closed.
//
// Rows shorter than the header are padded with nulls. Rows longer than the
// header, malformed quoting, and a missing header are fatal.
func ReadTable(ctx context.Context, src io.ReadCloser, opt Options) (*table.Table, error) {
	defer src.Close()

	cr := csv.NewReader(src)
	if opt.Comma != 0 {
		cr.Comma = opt.Comma
	}
	cr.LazyQuotes = opt.LazyQuotes
	cr.FieldsPerRecord = -1

	line := 1
	hdr, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read header: empty input")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := normalizeHeader(hdr, opt.HeaderMap)
	t := table.New(cols)

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		rec, err := cr.Read()
		if err == io.EOF {
			return t, nil
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("csv read line %d: %w", line, err)
		}
		if len(rec) > len(cols) {
			return nil, fmt.Errorf("csv read line %d: %d fields, header has %d", line, len(rec), len(cols))
		}

		row := make([]any, len(cols))
		for i, v := range rec {
			if opt.TrimSpace {
				v = strings.TrimSpace(v)
			}
			if v != "" {
				row[i] = v
			}
		}
		t.Rows = append(t.Rows, row)

		if n := len(t.Rows); n%logEveryN == 0 {
			log.Printf("reader: line=%d rows=%d", line, n)
		}
	}
}

// normalizeHeader strips the BOM and surrounding whitespace from header cells
// and applies the optional rename map.
func normalizeHeader(hdr []string, hm map[string]string) []string {
	out := StripHeaderBOM(append([]string(nil), hdr...))
	for i, h := range out {
		h = strings.TrimSpace(h)
		if mapped, ok := hm[h]; ok && mapped != "" {
			h = mapped
		}
		out[i] = h
	}
	return out
}
