// Package xlsx reads the first worksheet of an Office Open XML workbook.
package xlsx

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/Odelialan/Sales-Data-Analysis/internal/table"
)

// ErrNoSheets is returned for a workbook without worksheets.
var ErrNoSheets = errors.New("xlsx: workbook has no sheets")

// ReadFile opens path and reads its first sheet. See ReadSheet.
func ReadFile(path string) (*table.Table, string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()
	return ReadSheet(f)
}

// ReadReader is ReadFile over an io.Reader.
func ReadReader(r io.Reader) (*table.Table, string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, "", fmt.Errorf("open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()
	return ReadSheet(f)
}

// ReadSheet reads the first sheet of f into a table and returns the sheet
// name.
//
// Behavior:
//   - Leading empty rows are skipped; the first non-empty row is the header.
//   - Cell values are the formatted strings excelize reports, trimmed.
//   - Numeric cells with a date number format are written as ISO dates
//     (2006-01-02, or 2006-01-02 15:04:05 with a time part) instead.
//   - Fully empty data rows are skipped.
//   - A sheet with no rows yields an empty table, not an error.
func ReadSheet(f *excelize.File) (*table.Table, string, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, "", ErrNoSheets
	}
	sheet := sheets[0]

	formatted, err := f.GetRows(sheet)
	if err != nil {
		return nil, sheet, fmt.Errorf("read rows in sheet %s: %w", sheet, err)
	}
	raw, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, sheet, fmt.Errorf("read raw rows in sheet %s: %w", sheet, err)
	}
	dates := newDateCells(f, sheet)

	var header []string
	var records [][]string
	for r, row := range formatted {
		if blank(row) {
			continue
		}
		if header == nil {
			header = make([]string, len(row))
			for i, h := range row {
				h = strings.TrimSpace(h)
				if h == "" {
					h = fmt.Sprintf("Unnamed: %d", i)
				}
				header[i] = h
			}
			continue
		}
		if r < len(raw) {
			for c := range row {
				if c < len(raw[r]) {
					if iso, ok := dates.iso(c, r, raw[r][c]); ok {
						row[c] = iso
					}
				}
			}
		}
		records = append(records, row)
	}

	return table.FromStrings(header, records), sheet, nil
}

// dateCells resolves which numeric cells carry a date format. Style lookups
// are cached by style ID.
type dateCells struct {
	f        *excelize.File
	sheet    string
	date1904 bool
	styles   map[int]bool
}

func newDateCells(f *excelize.File, sheet string) *dateCells {
	d := &dateCells{f: f, sheet: sheet, styles: map[int]bool{}}
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		d.date1904 = *props.Date1904
	}
	return d
}

// iso returns the cell at zero-based (col, row) as an ISO date string when
// its raw value is a serial number under a date format.
func (d *dateCells) iso(col, row int, rawValue string) (string, bool) {
	serial, err := strconv.ParseFloat(strings.TrimSpace(rawValue), 64)
	if err != nil || serial < 0 {
		return "", false
	}
	cell, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return "", false
	}
	id, err := d.f.GetCellStyle(d.sheet, cell)
	if err != nil {
		return "", false
	}
	isDate, seen := d.styles[id]
	if !seen {
		isDate = d.styleIsDate(id)
		d.styles[id] = isDate
	}
	if !isDate {
		return "", false
	}
	t, err := excelize.ExcelDateToTime(serial, d.date1904)
	if err != nil {
		return "", false
	}
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
		return t.Format("2006-01-02"), true
	}
	return t.Format("2006-01-02 15:04:05"), true
}

func (d *dateCells) styleIsDate(id int) bool {
	style, err := d.f.GetStyle(id)
	if err != nil || style == nil {
		return false
	}
	if style.CustomNumFmt != nil {
		return customIsDate(*style.CustomNumFmt)
	}
	return builtinDateFmt(style.NumFmt)
}

// builtinDateFmt reports built-in number formats that show a calendar date.
// Time-only formats (18-21, 45-47) are left as formatted text.
func builtinDateFmt(id int) bool {
	switch {
	case id >= 14 && id <= 17, id == 22:
		return true
	case id >= 27 && id <= 31, id >= 34 && id <= 36, id >= 50 && id <= 58:
		return true
	}
	return false
}

// customIsDate looks for a year or day token outside quoted literals and
// bracketed sections.
func customIsDate(code string) bool {
	inQuote, inBracket := false, false
	for i := 0; i < len(code); i++ {
		ch := code[i]
		switch {
		case ch == '\\':
			i++
		case ch == '"':
			inQuote = !inQuote
		case inQuote:
		case ch == '[':
			inBracket = true
		case ch == ']':
			inBracket = false
		case inBracket:
		case ch == 'y' || ch == 'Y' || ch == 'd' || ch == 'D':
			return true
		}
	}
	return false
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
