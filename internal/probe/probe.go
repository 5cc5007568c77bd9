// Package probe infers coarse column types for freshly loaded tables.
//
// The probe package is responsible for:
//   - Classifying each column as integer, float, boolean, date, timestamp or text
//   - Converting all-numeric columns to table.Number cells right after load
//   - Rendering a small human-readable profile for the probe command
//
// Design constraints:
//   - All inference is best-effort and must never fail a load.
//   - Only numeric columns are converted. Dates stay text until the cleaner
//     parses them, so a column that merely looks like a date is not rewritten.
package probe

import (
	"fmt"
	"strings"

	"github.com/Odelialan/Sales-Data-Analysis/internal/table"
)

// Inferred type labels. These are probe-internal and never written to output.
const (
	TypeInteger   = "integer"
	TypeFloat     = "float"
	TypeBoolean   = "boolean"
	TypeDate      = "date"
	TypeTimestamp = "timestamp"
	TypeText      = "text"
	TypeEmpty     = "empty"
)

// ColumnProfile describes one column of a table.
type ColumnProfile struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Missing int    `json:"missing"`
	// Layout is the most common date layout for date/timestamp columns.
	Layout string `json:"layout,omitempty"`
}

// Infer returns one profile per column, in column order.
//
// Edge cases:
//   - A column whose cells are all Missing is reported as TypeEmpty.
//   - Cells that already carry Number or Date kinds count as such; Text cells
//     are parsed.
func Infer(t *table.Table) []ColumnProfile {
	out := make([]ColumnProfile, len(t.Columns))
	for i, name := range t.Columns {
		out[i] = inferColumn(t, i)
		out[i].Name = name
	}
	return out
}

func inferColumn(t *table.Table, col int) ColumnProfile {
	var p ColumnProfile
	var seen bool
	allInt := true
	allFloat := true
	allBool := true
	allDate := true
	allTS := true
	layouts := map[string]int{}

	for _, row := range t.Rows {
		v := row[col]
		switch v.Kind() {
		case table.Missing:
			p.Missing++
			continue
		case table.Number:
			seen = true
			f, _ := v.Float()
			if f != float64(int64(f)) {
				allInt = false
			}
			allBool, allDate, allTS = false, false, false
			continue
		case table.Date:
			seen = true
			allInt, allFloat, allBool = false, false, false
			continue
		}

		s, _ := v.Text()
		seen = true
		if allInt && !isIntegerText(s) {
			allInt = false
		}
		if allFloat {
			if _, ok := table.ParseNumber(s); !ok {
				allFloat = false
			}
		}
		if allBool {
			if _, ok := parseBoolLoose(s); !ok {
				allBool = false
			}
		}
		if allDate || allTS {
			_, lay, ok := table.ParseDate(s)
			if !ok {
				allDate, allTS = false, false
			} else {
				layouts[lay]++
				if isTimestampLayout(lay) {
					allDate = false
				}
			}
		}
	}

	switch {
	case !seen:
		p.Type = TypeEmpty
	case allInt:
		p.Type = TypeInteger
	case allBool:
		p.Type = TypeBoolean
	case allDate:
		p.Type = TypeDate
	case allTS:
		p.Type = TypeTimestamp
	case allFloat:
		p.Type = TypeFloat
	default:
		p.Type = TypeText
	}
	if p.Type == TypeDate || p.Type == TypeTimestamp {
		p.Layout = majorityLayout(layouts)
	}
	return p
}

// Type converts every integer or float column of t to Number cells in place
// and returns the profiles it used. Boolean "0"/"1" columns are integers
// first, so they convert too.
func Type(t *table.Table) []ColumnProfile {
	profiles := Infer(t)
	for i, p := range profiles {
		if p.Type != TypeInteger && p.Type != TypeFloat {
			continue
		}
		for _, row := range t.Rows {
			if n, ok := table.ToNumber(row[i]); ok {
				row[i] = n
			}
		}
	}
	return profiles
}

// isIntegerText accepts an optional sign followed by digits, with or without
// comma thousands grouping.
func isIntegerText(s string) bool {
	f, ok := table.ParseNumber(s)
	if !ok {
		return false
	}
	if strings.ContainsAny(s, ".eE") {
		return false
	}
	return f == float64(int64(f))
}

func isTimestampLayout(lay string) bool {
	return strings.Contains(lay, "15")
}

func majorityLayout(counts map[string]int) string {
	best := ""
	bestN := 0
	for lay, n := range counts {
		if n > bestN || (n == bestN && lay < best) {
			best = lay
			bestN = n
		}
	}
	return best
}

func parseBoolLoose(s string) (bool, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "t", "true", "yes", "y":
		return true, true
	case "f", "false", "no", "n":
		return false, true
	default:
		return false, false
	}
}

// Render renders profiles as a small CSV-like block for terminals.
func Render(profiles []ColumnProfile, rows int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "rows=%d\n", rows)
	fmt.Fprintf(&b, "column,type,missing,layout\n")
	for _, p := range profiles {
		fmt.Fprintf(&b, "%s,%s,%d,%s\n", p.Name, p.Type, p.Missing, p.Layout)
	}
	return b.String()
}
