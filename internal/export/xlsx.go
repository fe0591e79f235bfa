package export

import (
	"fmt"
	"io"
	"time"

	"github.com/JonMunkholm/pesquisa/internal/core"
	"github.com/xuri/excelize/v2"
)

// SheetName is the single worksheet in an XLSX export.
const SheetName = "Pesquisa"

const (
	currencyNumFmt = `"R$" #,##0.00`
	quantityNumFmt = `#,##0.###`
	dateNumFmt     = `dd/mm/yyyy`
)

// WriteXLSX writes t as a workbook with one sheet. Unlike the CSV export,
// cells keep their types: currency and quantity are numbers and dates are
// dates, formatted the Brazilian way. Null cells are left blank.
func WriteXLSX(w io.Writer, t core.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	styles, err := newStyles(f)
	if err != nil {
		return err
	}

	for i, col := range t.Columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(SheetName, cell, col.Label()); err != nil {
			return fmt.Errorf("write header %s: %w", col, err)
		}
	}
	if len(t.Columns) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(t.Columns), 1)
		if err := f.SetCellStyle(SheetName, "A1", last, styles.header); err != nil {
			return fmt.Errorf("style header: %w", err)
		}
	}

	for r, rec := range t.Records {
		for c, col := range t.Columns {
			v, ok := cellValue(rec, col)
			if !ok {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(SheetName, cell, v); err != nil {
				return fmt.Errorf("write %s: %w", cell, err)
			}
		}
	}

	for c, col := range t.Columns {
		name, err := excelize.ColumnNumberToName(c + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(SheetName, name, name, columnWidth(col)); err != nil {
			return fmt.Errorf("set width %s: %w", name, err)
		}
		style, ok := styles.forColumn(col)
		if !ok || len(t.Records) == 0 {
			continue
		}
		if err := f.SetCellStyle(SheetName, name+"2", fmt.Sprintf("%s%d", name, len(t.Records)+1), style); err != nil {
			return fmt.Errorf("style column %s: %w", name, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

type sheetStyles struct {
	header, currency, quantity, date int
}

func newStyles(f *excelize.File) (sheetStyles, error) {
	var s sheetStyles
	var err error

	if s.header, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err != nil {
		return s, fmt.Errorf("header style: %w", err)
	}
	currency := currencyNumFmt
	if s.currency, err = f.NewStyle(&excelize.Style{CustomNumFmt: &currency}); err != nil {
		return s, fmt.Errorf("currency style: %w", err)
	}
	quantity := quantityNumFmt
	if s.quantity, err = f.NewStyle(&excelize.Style{CustomNumFmt: &quantity}); err != nil {
		return s, fmt.Errorf("quantity style: %w", err)
	}
	date := dateNumFmt
	if s.date, err = f.NewStyle(&excelize.Style{CustomNumFmt: &date}); err != nil {
		return s, fmt.Errorf("date style: %w", err)
	}
	return s, nil
}

func (s sheetStyles) forColumn(col core.Column) (int, bool) {
	switch col {
	case core.ColPrice, core.ColTotal:
		return s.currency, true
	case core.ColQuantity:
		return s.quantity, true
	case core.ColDate:
		return s.date, true
	}
	return 0, false
}

// cellValue returns the typed value for one cell; false means blank.
func cellValue(rec core.Record, col core.Column) (any, bool) {
	switch col {
	case core.ColQuantity:
		return rec.Quantity.Decimal.InexactFloat64(), rec.Quantity.Valid
	case core.ColPrice:
		return rec.Price.Decimal.InexactFloat64(), rec.Price.Valid
	case core.ColTotal:
		return rec.Total.Decimal.InexactFloat64(), rec.Total.Valid
	case core.ColDate:
		if !rec.Date.Valid {
			return nil, false
		}
		return rec.Date.Date.In(time.UTC), true
	}
	s := core.FormatCell(rec, col)
	return s, s != ""
}

func columnWidth(col core.Column) float64 {
	switch col {
	case core.ColSupplier, core.ColProducts:
		return 32
	case core.ColDate, core.ColPrice, core.ColTotal:
		return 14
	default:
		return 10
	}
}
