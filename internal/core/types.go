package core

import (
	"encoding/json"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Column is the canonical (upper-case, English) name of a recognized column.
type Column string

const (
	ColSupplier   Column = "SUPPLIER"
	ColProducts   Column = "PRODUCTS"
	ColQuantity   Column = "QUANTITY"
	ColUnit       Column = "UNIT"
	ColPrice      Column = "PRICE"
	ColTotal      Column = "TOTAL"
	ColDate       Column = "DATE"
	ColInvoiceRef Column = "INVOICE-REF"
)

// FieldType represents how a column's raw text is coerced.
type FieldType int

const (
	FieldText FieldType = iota
	FieldQuantity
	FieldCurrency
	FieldDate
)

// FieldSpec describes one whitelisted column.
type FieldSpec struct {
	Column  Column    // Canonical name
	Label   string    // Display header (the spreadsheet's Portuguese name)
	Aliases []string  // Upper-cased header names accepted for this column
	Type    FieldType // Coercion applied to each cell
}

// FieldSpecs is the column whitelist in canonical display order.
var FieldSpecs = []FieldSpec{
	{Column: ColSupplier, Label: "FORNECEDOR", Aliases: []string{"FORNECEDOR", "SUPPLIER"}, Type: FieldText},
	{Column: ColProducts, Label: "PRODUTOS", Aliases: []string{"PRODUTOS", "PRODUCTS"}, Type: FieldText},
	{Column: ColQuantity, Label: "QUANT", Aliases: []string{"QUANT", "QUANTITY"}, Type: FieldQuantity},
	{Column: ColUnit, Label: "UNIDADE", Aliases: []string{"UNIDADE", "UNIT"}, Type: FieldText},
	{Column: ColPrice, Label: "PREÇO", Aliases: []string{"PREÇO", "PRECO", "PRICE"}, Type: FieldCurrency},
	{Column: ColTotal, Label: "TOTAL", Aliases: []string{"TOTAL"}, Type: FieldCurrency},
	{Column: ColDate, Label: "DATA", Aliases: []string{"DATA", "DATE"}, Type: FieldDate},
	{Column: ColInvoiceRef, Label: "NFE", Aliases: []string{"NFE", "INVOICE-REF"}, Type: FieldText},
}

// SpecFor returns the FieldSpec for a canonical column.
func SpecFor(c Column) (FieldSpec, bool) {
	for _, spec := range FieldSpecs {
		if spec.Column == c {
			return spec, true
		}
	}
	return FieldSpec{}, false
}

// Label returns the display header for the column.
func (c Column) Label() string {
	if spec, ok := SpecFor(c); ok {
		return spec.Label
	}
	return string(c)
}

// Numeric reports whether the column holds numbers (quantity or currency).
func (c Column) Numeric() bool {
	spec, ok := SpecFor(c)
	return ok && (spec.Type == FieldQuantity || spec.Type == FieldCurrency)
}

// HeaderIndex maps canonical columns to their position in the CSV row.
type HeaderIndex map[Column]int

// NullDate is a calendar date that may be absent.
type NullDate struct {
	Date  civil.Date
	Valid bool
}

// DateOf returns a valid NullDate for the calendar date of t.
func DateOf(t time.Time) NullDate {
	return NullDate{Date: civil.DateOf(t), Valid: true}
}

// MarshalJSON encodes the date as "YYYY-MM-DD" or null.
func (d NullDate) MarshalJSON() ([]byte, error) {
	if !d.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(d.Date.String())
}

// UnmarshalJSON accepts "YYYY-MM-DD" or null.
func (d *NullDate) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*d = NullDate{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	date, err := civil.ParseDate(s)
	if err != nil {
		return err
	}
	*d = NullDate{Date: date, Valid: true}
	return nil
}

// Record is one delivery line item.
type Record struct {
	Supplier   string              `json:"supplier"`
	Product    string              `json:"product"`
	Quantity   decimal.NullDecimal `json:"quantity"`
	Unit       string              `json:"unit"`
	Price      decimal.NullDecimal `json:"price"`
	Total      decimal.NullDecimal `json:"total"`
	Date       NullDate            `json:"date"`
	InvoiceRef string              `json:"invoice_ref"`
}

// Table is an ordered sequence of Records as loaded from the source.
// Columns lists the recognized columns in source header order; columns
// missing from the source are absent. A Table is never mutated after
// construction.
type Table struct {
	Columns []Column `json:"columns"`
	Records []Record `json:"records"`
}

// Len returns the number of records.
func (t Table) Len() int {
	return len(t.Records)
}

// HasColumn reports whether the source provided column c.
func (t Table) HasColumn(c Column) bool {
	for _, col := range t.Columns {
		if col == c {
			return true
		}
	}
	return false
}

// withRecords returns a Table with the same columns and the given records.
func (t Table) withRecords(records []Record) Table {
	return Table{Columns: t.Columns, Records: records}
}

// Dataset is the result of one Loader.Load call.
type Dataset struct {
	Table            Table
	Source           string
	Fingerprint      string
	LoadID           uuid.UUID
	LoadedAt         time.Time
	Cached           bool
	CoercionWarnings int
}
