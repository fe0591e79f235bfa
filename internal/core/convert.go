package core

// convert.go provides the coercion functions that turn spreadsheet cells
// into canonical values.
//
// The published sheet is maintained by hand, so cells arrive in whatever
// shape the person typing them chose:
//   - Dates in day-first form (03/04/2024), ISO form, or with a time part
//   - Currency in Brazilian form (R$ 1.234,56), sometimes without the symbol
//   - Quantities with either a decimal comma or a decimal point
//   - Excel formula prefixes (="value") and stray quotes
//
// Every Parse* function returns a value with Valid=false for empty or
// unparseable input; callers never see the original text.

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// numericRegex validates a number after separators have been normalized.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)$`)

// TwoDigitYearPivot defines how 2-digit years are interpreted.
// Years that would land more than this many years in the future are
// assumed to be in the previous century.
var TwoDigitYearPivot = 20

// Day-first date layouts. ISO layouts are unambiguous and tried alongside.
var (
	twoDigitYearLayouts = []string{
		"2/1/06", "02/01/06", "2-1-06", "2.1.06", "02.01.06",
	}
	fourDigitYearLayouts = []string{
		"2/1/2006", "02/01/2006", "2-1-2006", "02-01-2006", "2.1.2006", "02.01.2006",
		"2/1/2006 15:04", "2/1/2006 15:04:05",
		"2006-01-02", "2006/01/02", "2006.01.02",
		"2006-01-02 15:04:05", "2006-01-02T15:04:05", time.RFC3339,
		"20060102",
	}
)

// currencySymbols are stripped before parsing a currency cell.
var currencySymbols = []string{"R$", "$"}

// ParseDate converts a cell to a calendar date, reading ambiguous numeric
// forms day-first ("03/04/2024" is 3 April 2024).
func ParseDate(s string) NullDate {
	s = CleanCell(s)
	if s == "" {
		return NullDate{}
	}

	for _, layout := range fourDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOf(t)
		}
	}

	pivotYear := time.Now().Year() + TwoDigitYearPivot
	for _, layout := range twoDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			if t.Year() > pivotYear {
				t = t.AddDate(-100, 0, 0)
			}
			return DateOf(t)
		}
	}

	return NullDate{}
}

// ParseBRL converts a Brazilian-formatted currency cell ("R$ 1.234,56")
// to a decimal. The currency symbol and spaces are dropped and the comma
// is the decimal separator. Dots are thousands separators only when they
// split the integer part into groups of three; without a comma, a single
// dot followed by other than three digits is the decimal point ("12.50").
// Accounting parentheses mark a negative value.
func ParseBRL(s string) decimal.NullDecimal {
	s = CleanCell(s)
	if s == "" {
		return decimal.NullDecimal{}
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	for _, sym := range currencySymbols {
		s = strings.ReplaceAll(s, sym, "")
	}
	s, ok := normalizeSeparators(stripSpaces(s))
	if !ok {
		return decimal.NullDecimal{}
	}

	return parseDecimal(s, negative)
}

// normalizeSeparators rewrites a Brazilian number to plain decimal form.
func normalizeSeparators(s string) (string, bool) {
	intPart, fracPart, hasComma := strings.Cut(s, ",")
	if hasComma {
		if !thousandsGrouped(intPart) {
			return "", false
		}
		return strings.ReplaceAll(intPart, ".", "") + "." + fracPart, true
	}

	switch {
	case !strings.Contains(s, "."):
		return s, true
	case thousandsGrouped(s):
		return strings.ReplaceAll(s, ".", ""), true
	case strings.Count(s, ".") == 1:
		return s, true
	default:
		return "", false
	}
}

// thousandsGrouped reports whether every dot in s separates a group of
// exactly three digits ("1.234.567"). A string without dots qualifies.
func thousandsGrouped(s string) bool {
	groups := strings.Split(strings.TrimLeft(s, "+-"), ".")
	if len(groups) == 1 {
		return true
	}
	if n := len(groups[0]); n == 0 || n > 3 || !allDigits(groups[0]) {
		return false
	}
	for _, g := range groups[1:] {
		if len(g) != 3 || !allDigits(g) {
			return false
		}
	}
	return true
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ParseQuantity converts a quantity cell. A value containing a comma is
// read with Brazilian separators; anything else as a plain decimal, so
// both "1,5" and "1.5" are one and a half.
func ParseQuantity(s string) decimal.NullDecimal {
	s = CleanCell(s)
	if s == "" {
		return decimal.NullDecimal{}
	}
	if strings.Contains(s, ",") {
		return ParseBRL(s)
	}
	return parseDecimal(stripSpaces(s), false)
}

func parseDecimal(s string, negative bool) decimal.NullDecimal {
	if !numericRegex.MatchString(s) {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	if negative {
		d = d.Neg()
	}
	return decimal.NewNullDecimal(d)
}

// stripSpaces removes ASCII and non-breaking spaces anywhere in s.
func stripSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '\u00a0' || r == '\t' {
			return -1
		}
		return r
	}, s)
}

// CleanCell removes common spreadsheet export artifacts from a cell value:
// surrounding whitespace, the Excel formula prefix (="...") and
// surrounding quotes.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	return strings.TrimSpace(strings.Trim(s, `"'`))
}

// NormalizeHeader trims and upper-cases a header cell. Upper-casing is
// Unicode aware so "preço" becomes "PREÇO".
func NormalizeHeader(h string) string {
	return cases.Upper(language.BrazilianPortuguese).String(CleanCell(h))
}

// aliasIndex maps every accepted upper-cased header name to its column.
var aliasIndex = func() map[string]Column {
	idx := make(map[string]Column)
	for _, spec := range FieldSpecs {
		for _, alias := range spec.Aliases {
			idx[alias] = spec.Column
		}
	}
	return idx
}()

// MakeHeaderIndex resolves a CSV header row against the column whitelist.
// It returns the position of each recognized column and the recognized
// columns in header order. Unknown headers are ignored; when a column
// appears twice the first occurrence wins.
func MakeHeaderIndex(header []string) (HeaderIndex, []Column) {
	idx := make(HeaderIndex)
	var cols []Column
	for i, h := range header {
		col, ok := aliasIndex[NormalizeHeader(h)]
		if !ok {
			continue
		}
		if _, seen := idx[col]; seen {
			continue
		}
		idx[col] = i
		cols = append(cols, col)
	}
	return idx, cols
}

// getCell returns the raw cell for col, or "" when the column is absent
// or the row is short.
func getCell(row []string, idx HeaderIndex, col Column) string {
	i, ok := idx[col]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}
