package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/JonMunkholm/pesquisa/internal/core"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteCSV writes the display strings of d, header first.
//
// The file opens cleanly in a pt-BR Excel: it starts with a UTF-8 BOM and
// uses ';' as the delimiter, since ',' is the decimal separator there.
func WriteCSV(w io.Writer, d core.DisplayTable) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("write bom: %w", err)
	}

	cw := csv.NewWriter(w)
	cw.Comma = ';'

	if err := cw.Write(d.Headers); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, row := range d.Rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
