// Package coerce converts raw CSV cell text into typed values.
//
// Every function tolerates empty or malformed input and reports "no value"
// through its ok result instead of returning an error. Boolean is the one
// exception: anything unrecognised is false.
package coerce

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Numbers are read from the leading numeric prefix of a cell, so "12.50 USD"
// yields 12.50 and "abc" yields nothing.
var (
	numericPrefix = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?`)
	integerPrefix = regexp.MustCompile(`^[+-]?\d+`)
)

// TwoDigitYearPivot defines how 2-digit years are interpreted: years more
// than this far in the future belong to the previous century.
var TwoDigitYearPivot = 20

var (
	twoDigitYearLayouts = []string{
		"1/2/06", "01/02/06", "1-2-06", "1.2.06",
	}
	fourDigitYearLayouts = []string{
		time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02 15:04",
		"1/2/2006 15:04:05", "1/2/2006 15:04", "1/2/2006 3:04:05 PM", "1/2/2006 3:04 PM",
		"1/2/2006", "01/02/2006", "1-2-2006", "01-02-2006", "1.2.2006",
		"2006-01-02", "2006/01/02", "2006.01.02",
		"Jan 2, 2006", "January 2, 2006", "Jan 2 2006", "2 Jan 2006", "Mon, Jan 2, 2006",
		time.RFC1123, time.RFC1123Z,
		"20060102",
	}
)

// Numeric strips "$" and "," and parses the remaining text as a decimal.
func Numeric(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(strings.NewReplacer("$", "", ",", "").Replace(s))
	m := numericPrefix.FindString(s)
	if m == "" {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(m)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

// NumericOrZero is Numeric with a zero fallback.
func NumericOrZero(s string) decimal.Decimal {
	d, _ := Numeric(s)
	return d
}

// NullNumeric wraps Numeric for nullable columns.
func NullNumeric(s string) decimal.NullDecimal {
	d, ok := Numeric(s)
	return decimal.NullDecimal{Decimal: d, Valid: ok}
}

// Integer strips "," and parses the leading base-10 integer.
func Integer(s string) (int64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	m := integerPrefix.FindString(s)
	if m == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(m, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// IntOrZero is Integer with a zero fallback, narrowed to int.
func IntOrZero(s string) int {
	n, _ := Integer(s)
	return int(n)
}

// Boolean reports whether s is "true", "yes" or "1", ignoring case.
func Boolean(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "1":
		return true
	}
	return false
}

// Date parses the common US, ISO and long-form date and timestamp layouts.
// Values without a zone are read as UTC.
func Date(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range fourDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	pivotYear := time.Now().Year() + TwoDigitYearPivot
	for _, layout := range twoDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			if t.Year() > pivotYear {
				t = t.AddDate(-100, 0, 0)
			}
			return t, true
		}
	}

	return time.Time{}, false
}

// List splits s on delim (default ","), trims each element and drops empties.
func List(s, delim string) []string {
	if delim == "" {
		delim = ","
	}
	if strings.TrimSpace(s) == "" {
		return []string{}
	}

	parts := strings.Split(s, delim)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
