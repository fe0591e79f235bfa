package export

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/JonMunkholm/pesquisa/internal/core"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

func sampleTable() core.Table {
	money := func(s string) decimal.NullDecimal {
		return decimal.NewNullDecimal(decimal.RequireFromString(s))
	}
	return core.Table{
		Columns: []core.Column{core.ColSupplier, core.ColProducts, core.ColQuantity, core.ColPrice, core.ColDate},
		Records: []core.Record{
			{
				Supplier: "Casa do Açúcar",
				Product:  "Açúcar; cristal",
				Quantity: money("1.5"),
				Price:    money("1234.56"),
				Date:     core.NullDate{Date: civil.Date{Year: 2024, Month: time.April, Day: 3}, Valid: true},
			},
			{Supplier: "Ferragens", Product: "Prego"},
		},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{"", CSV, false},
		{"csv", CSV, false},
		{"XLSX", XLSX, false},
		{" xlsx ", XLSX, false},
		{"pdf", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownFormat) {
					t.Errorf("expected ErrUnknownFormat, got %v", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ParseFormat(%q) = (%q, %v), want %q", tt.input, got, err, tt.want)
			}
		})
	}
}

func TestFormat_Filename(t *testing.T) {
	now := time.Date(2024, 4, 3, 15, 30, 0, 0, time.UTC)
	if got := XLSX.Filename(now); got != "pesquisa_2024-04-03_1530.xlsx" {
		t.Errorf("Filename() = %q", got)
	}
	if !strings.HasPrefix(CSV.ContentType(), "text/csv") {
		t.Errorf("CSV ContentType = %q", CSV.ContentType())
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, core.Format(sampleTable())); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}

	out := buf.String()
	if !strings.HasPrefix(out, "\xEF\xBB\xBF") {
		t.Error("CSV should start with a UTF-8 BOM")
	}
	lines := strings.Split(strings.TrimSuffix(strings.TrimPrefix(out, "\xEF\xBB\xBF"), "\n"), "\n")
	want := []string{
		"FORNECEDOR;PRODUTOS;QUANT;PREÇO;DATA",
		`Casa do Açúcar;"Açúcar; cristal";1,5;R$ 1.234,56;03/04/2024`,
		"Ferragens;Prego;;;",
	}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d:\n%s", len(lines), len(want), out)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, sampleTable()); err != nil {
		t.Fatalf("WriteXLSX() error = %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	if sheets := f.GetSheetList(); len(sheets) != 1 || sheets[0] != SheetName {
		t.Fatalf("sheets = %v, want [%s]", sheets, SheetName)
	}

	raw := excelize.Options{RawCellValue: true}
	tests := []struct {
		cell string
		want string
	}{
		{"A1", "FORNECEDOR"},
		{"D1", "PREÇO"},
		{"A2", "Casa do Açúcar"},
		{"B2", "Açúcar; cristal"},
		{"C2", "1.5"},
		{"D2", "1234.56"},
		{"E2", "45385"},
		{"B3", "Prego"},
		{"D3", ""},
		{"E3", ""},
	}
	for _, tt := range tests {
		got, err := f.GetCellValue(SheetName, tt.cell, raw)
		if err != nil {
			t.Errorf("GetCellValue(%s) error = %v", tt.cell, err)
			continue
		}
		if got != tt.want {
			t.Errorf("%s = %q, want %q", tt.cell, got, tt.want)
		}
	}

	styleID, err := f.GetCellStyle(SheetName, "A1")
	if err != nil {
		t.Fatal(err)
	}
	style, err := f.GetStyle(styleID)
	if err != nil {
		t.Fatal(err)
	}
	if style.Font == nil || !style.Font.Bold {
		t.Error("header row should be bold")
	}
}

func TestWriteXLSX_Empty(t *testing.T) {
	var buf bytes.Buffer
	table := core.Table{Columns: []core.Column{core.ColProducts}}
	if err := WriteXLSX(&buf, table); err != nil {
		t.Fatalf("WriteXLSX() error = %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0][0] != "PRODUTOS" {
		t.Errorf("rows = %v, want header only", rows)
	}
}
