package csv

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/Odelialan/Sales-Data-Analysis/internal/table"
)

// Options controls delimited-text parsing. The zero value reads
// comma-separated input with a header row, lenient quoting and trimmed cells.
type Options struct {
	// Comma is the field delimiter; 0 means ','.
	Comma rune
	// StrictQuotes disables encoding/csv LazyQuotes.
	StrictQuotes bool
	// KeepSpace disables trimming of cells and header names.
	KeepSpace bool
	// HeaderMap renames raw header names before they reach the table.
	HeaderMap map[string]string
}

// ReadRows parses delimited text into a header and raw records.
//
// Behavior:
//   - The first record is the header. A leading UTF-8 BOM is stripped from it.
//   - Blank header cells are named "Unnamed: <index>".
//   - Records may be ragged; alignment to the header is the caller's job
//     (table.FromStrings pads and truncates).
//   - Blank lines are skipped by encoding/csv.
//
// Errors:
//   - Malformed records abort the read; the wrapped *csv.ParseError carries
//     the line number. Lazy quoting makes this rare.
//   - Empty input returns a nil header and no error.
func ReadRows(r io.Reader, opt Options) ([]string, [][]string, error) {
	cr := csv.NewReader(r)
	if opt.Comma != 0 {
		cr.Comma = opt.Comma
	}
	cr.LazyQuotes = !opt.StrictQuotes
	cr.FieldsPerRecord = -1

	hdr, err := cr.Read()
	if err == io.EOF {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}

	header := make([]string, len(hdr))
	for i, h := range hdr {
		if i == 0 {
			h = strings.TrimPrefix(h, "\uFEFF")
		}
		if !opt.KeepSpace && table.HasEdgeSpace(h) {
			h = strings.TrimSpace(h)
		}
		if mapped, ok := opt.HeaderMap[h]; ok {
			h = mapped
		}
		if h == "" {
			h = fmt.Sprintf("Unnamed: %d", i)
		}
		header[i] = h
	}

	var records [][]string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return header, records, fmt.Errorf("csv read: %w", err)
		}
		if !opt.KeepSpace {
			for i, v := range rec {
				if table.HasEdgeSpace(v) {
					rec[i] = strings.TrimSpace(v)
				}
			}
		}
		records = append(records, rec)
	}
	return header, records, nil
}

// ReadTable is ReadRows followed by table.FromStrings.
func ReadTable(r io.Reader, opt Options) (*table.Table, error) {
	header, records, err := ReadRows(r, opt)
	if err != nil {
		return nil, err
	}
	return table.FromStrings(header, records), nil
}
