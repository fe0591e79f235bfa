package core

// format.go renders canonical values as Brazilian display strings.
// Formatting is display-only: queries always run on the typed Table.

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// DisplayTable is a Table whose cells have been rendered for display.
// Rows and columns match the source Table one to one.
type DisplayTable struct {
	Columns []Column   `json:"-"`
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// Len returns the number of rows.
func (d DisplayTable) Len() int {
	return len(d.Rows)
}

// Format renders every date and number in t as a display string.
func Format(t Table) DisplayTable {
	out := DisplayTable{
		Columns: t.Columns,
		Headers: make([]string, len(t.Columns)),
		Rows:    make([][]string, len(t.Records)),
	}
	for i, col := range t.Columns {
		out.Headers[i] = col.Label()
	}
	for i, rec := range t.Records {
		row := make([]string, len(t.Columns))
		for j, col := range t.Columns {
			row[j] = FormatCell(rec, col)
		}
		out.Rows[i] = row
	}
	return out
}

// FormatCell renders a single field of rec.
func FormatCell(rec Record, col Column) string {
	switch col {
	case ColSupplier:
		return rec.Supplier
	case ColProducts:
		return rec.Product
	case ColQuantity:
		return FormatQuantity(rec.Quantity)
	case ColUnit:
		return rec.Unit
	case ColPrice:
		return FormatBRL(rec.Price)
	case ColTotal:
		return FormatBRL(rec.Total)
	case ColDate:
		return FormatDate(rec.Date)
	case ColInvoiceRef:
		return rec.InvoiceRef
	default:
		return ""
	}
}

// FormatBRL renders a currency value as "R$ 1.234,56". Null renders as "".
func FormatBRL(n decimal.NullDecimal) string {
	if !n.Valid {
		return ""
	}
	return "R$ " + groupDecimal(n.Decimal.StringFixed(2))
}

// FormatQuantity renders a quantity with a decimal comma and no padding.
func FormatQuantity(n decimal.NullDecimal) string {
	if !n.Valid {
		return ""
	}
	return groupDecimal(n.Decimal.String())
}

// FormatDate renders a date as DD/MM/YYYY. Null renders as "".
func FormatDate(d NullDate) string {
	if !d.Valid {
		return ""
	}
	return fmt.Sprintf("%02d/%02d/%04d", d.Date.Day, int(d.Date.Month), d.Date.Year)
}

// FormatCount renders an integer with '.' thousands separators.
func FormatCount(n int) string {
	return groupDecimal(strconv.Itoa(n))
}

// groupDecimal converts a plain decimal string ("-1234.5") to Brazilian
// separators ("-1.234,5").
func groupDecimal(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, fracPart, hasFrac := strings.Cut(s, ".")

	var b strings.Builder
	b.WriteString(sign)
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	if hasFrac {
		b.WriteByte(',')
		b.WriteString(fracPart)
	}
	return b.String()
}
