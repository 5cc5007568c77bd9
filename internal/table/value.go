// Package table holds the in-memory tabular model shared by every stage:
// a Table is an ordered list of column names over rows of tagged Values.
//
// Values are explicit about their kind. Nothing in this package guesses a
// type behind the caller's back; conversions go through ToNumber, ToDate and
// ToText, which are total and never panic.
package table

import (
	"math"
	"strconv"
	"time"
)

// Kind identifies which payload a Value carries.
type Kind uint8

const (
	// Missing is the sentinel for an absent cell. It is the zero Kind, so the
	// zero Value is Missing.
	Missing Kind = iota
	Number
	Text
	Date
)

func (k Kind) String() string {
	switch k {
	case Missing:
		return "missing"
	case Number:
		return "number"
	case Text:
		return "text"
	case Date:
		return "date"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is a single cell. Exactly one payload is meaningful, selected by Kind.
type Value struct {
	kind Kind
	num  float64
	str  string
	t    time.Time
}

// Null returns the missing sentinel.
func Null() Value { return Value{} }

// Num returns a Number value. NaN is stored as Missing.
func Num(f float64) Value {
	if math.IsNaN(f) {
		return Value{}
	}
	return Value{kind: Number, num: f}
}

// Str returns a Text value. The string is kept verbatim, including "".
func Str(s string) Value { return Value{kind: Text, str: s} }

// Time returns a Date value. The zero time is stored as Missing.
func Time(t time.Time) Value {
	if t.IsZero() {
		return Value{}
	}
	return Value{kind: Date, t: t}
}

func (v Value) Kind() Kind      { return v.kind }
func (v Value) IsMissing() bool { return v.kind == Missing }

// Float returns the numeric payload; ok is false unless Kind is Number.
func (v Value) Float() (float64, bool) {
	if v.kind != Number {
		return 0, false
	}
	return v.num, true
}

// Text returns the string payload; ok is false unless Kind is Text.
func (v Value) Text() (string, bool) {
	if v.kind != Text {
		return "", false
	}
	return v.str, true
}

// Date returns the time payload; ok is false unless Kind is Date.
func (v Value) Date() (time.Time, bool) {
	if v.kind != Date {
		return time.Time{}, false
	}
	return v.t, true
}

// String renders the value the way it is written to delimited output.
// Missing renders as "".
func (v Value) String() string {
	switch v.kind {
	case Number:
		return formatNumber(v.num)
	case Text:
		return v.str
	case Date:
		return formatDate(v.t)
	default:
		return ""
	}
}

// Equal reports whether a and b have the same kind and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case Missing:
		return true
	case Number:
		return v.num == o.num
	case Text:
		return v.str == o.str
	case Date:
		return v.t.Equal(o.t)
	}
	return false
}

// Any returns the payload as a driver-friendly Go value: nil, float64, string
// or time.Time.
func (v Value) Any() any {
	switch v.kind {
	case Number:
		return v.num
	case Text:
		return v.str
	case Date:
		return v.t
	default:
		return nil
	}
}

func formatNumber(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func formatDate(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format("2006-01-02 15:04:05")
}
