package table

import (
	"strconv"
	"strings"
	"time"
)

// naTokens load as Missing. They match the default NA markers of common
// spreadsheet exports.
var naTokens = map[string]struct{}{
	"":     {},
	"nan":  {},
	"NaN":  {},
	"NAN":  {},
	"None": {},
	"null": {},
	"NULL": {},
	"N/A":  {},
	"n/a":  {},
	"NA":   {},
	"#N/A": {},
}

// IsNAToken reports whether s (already trimmed) is a missing-value marker.
func IsNAToken(s string) bool {
	_, ok := naTokens[s]
	return ok
}

// FromRaw converts one raw cell into a Value: NA tokens become Missing,
// everything else becomes Text. Surrounding whitespace is trimmed.
func FromRaw(s string) Value {
	if HasEdgeSpace(s) {
		s = strings.TrimSpace(s)
	}
	if IsNAToken(s) {
		return Null()
	}
	return Str(s)
}

// HasEdgeSpace reports whether s begins or ends with ASCII whitespace.
// It is a cheap pre-check before strings.TrimSpace.
func HasEdgeSpace(s string) bool {
	if s == "" {
		return false
	}
	return isSpace(s[0]) || isSpace(s[len(s)-1])
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\v' || b == '\f'
}

// ParseNumber parses a decimal number. It accepts scientific notation and
// comma thousands separators ("1,234.50") and rejects NaN/Inf spellings.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	switch strings.ToLower(strings.TrimLeft(s, "+-")) {
	case "nan", "inf", "infinity":
		return 0, false
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return 0, false
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f, true
	}
	if strings.Contains(s, ",") && validThousands(s) {
		if f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

// validThousands checks the integer part is grouped in threes: 1,234 or 12,345,678.5.
func validThousands(s string) bool {
	s = strings.TrimLeft(s, "+-")
	intPart := s
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart = s[:i]
	}
	groups := strings.Split(intPart, ",")
	if len(groups[0]) == 0 || len(groups[0]) > 3 {
		return false
	}
	for _, g := range groups[1:] {
		if len(g) != 3 {
			return false
		}
	}
	return true
}

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"02.01.2006",
	"01/02/2006",
	"1/2/2006",
	"02/01/2006",
}

var tsLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000Z07:00",
	"2006/01/02 15:04:05",
	"02.01.2006 15:04:05",
	"01/02/2006 15:04",
	"1/2/2006 15:04",
	"01/02/2006 15:04:05",
}

// ParseDate tries the date layouts and then the timestamp layouts. The
// matched layout is returned for diagnostics.
//
// Slash dates are read month-first; day-first applies only when the first
// component is above 12. ParseDate looks at one string. Use DateLayout and
// DateParser to read a whole column in one order.
func ParseDate(s string) (time.Time, string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, "", false
	}
	for _, lay := range dateLayouts {
		if t, err := time.Parse(lay, s); err == nil {
			return t, lay, true
		}
	}
	for _, lay := range tsLayouts {
		if t, err := time.Parse(lay, s); err == nil {
			return t, lay, true
		}
	}
	return time.Time{}, "", false
}

// ToNumber coerces v to a Number. Text is parsed; Missing stays Missing;
// Date and unparsable Text become Missing. ok reports whether the result
// holds a number.
func ToNumber(v Value) (Value, bool) {
	switch v.kind {
	case Number:
		return v, true
	case Text:
		if f, ok := ParseNumber(v.str); ok {
			return Num(f), true
		}
	}
	return Null(), false
}

// ToDate coerces v to a Date. Text is parsed with ParseDate; numbers are
// never treated as dates.
func ToDate(v Value) (Value, bool) {
	switch v.kind {
	case Date:
		return v, true
	case Text:
		if t, _, ok := ParseDate(v.str); ok {
			return Time(t), true
		}
	}
	return Null(), false
}

// DateLayout returns the layout that parses the most Text cells of vals, or
// "" when none parse. Every layout a cell satisfies is counted, so a column of
// "03/04/2024" and "03/15/2024" resolves month-first. Ties go to the layout
// ParseDate tries first.
func DateLayout(vals []Value) string {
	layouts := allDateLayouts()
	counts := make([]int, len(layouts))
	for _, v := range vals {
		if v.kind != Text {
			continue
		}
		s := strings.TrimSpace(v.str)
		if s == "" {
			continue
		}
		for i, lay := range layouts {
			if _, err := time.Parse(lay, s); err == nil {
				counts[i]++
			}
		}
	}
	best, bestN := "", 0
	for i, n := range counts {
		if n > bestN {
			best, bestN = layouts[i], n
		}
	}
	return best
}

// DateParser returns a ToDate variant for one column. Cells are parsed with
// layout first and then with the other layouts, except those that read
// day and month in the opposite order to layout.
func DateParser(layout string) func(Value) (Value, bool) {
	if layout == "" {
		return ToDate
	}
	order := slashOrder(layout)
	var rest []string
	for _, lay := range allDateLayouts() {
		if lay == layout {
			continue
		}
		if o := slashOrder(lay); order != 0 && o != 0 && o != order {
			continue
		}
		rest = append(rest, lay)
	}
	return func(v Value) (Value, bool) {
		switch v.kind {
		case Date:
			return v, true
		case Text:
			s := strings.TrimSpace(v.str)
			if t, err := time.Parse(layout, s); err == nil {
				return Time(t), true
			}
			for _, lay := range rest {
				if t, err := time.Parse(lay, s); err == nil {
					return Time(t), true
				}
			}
		}
		return Null(), false
	}
}

func allDateLayouts() []string {
	return append(append([]string(nil), dateLayouts...), tsLayouts...)
}

// slashOrder is 1 for month-first slash layouts, 2 for day-first and 0 for
// layouts without an ambiguous day/month pair.
func slashOrder(lay string) int {
	switch {
	case strings.HasPrefix(lay, "01/"), strings.HasPrefix(lay, "1/"):
		return 1
	case strings.HasPrefix(lay, "02/"):
		return 2
	}
	return 0
}

// ToText coerces v to Text using its String form. Missing stays Missing.
func ToText(v Value) Value {
	if v.kind == Missing || v.kind == Text {
		return v
	}
	return Str(v.String())
}
