// Package export writes search results as downloadable spreadsheets.
package export

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrUnknownFormat is returned by ParseFormat for unsupported names.
var ErrUnknownFormat = errors.New("unknown export format")

// Format is a download file type.
type Format string

const (
	CSV  Format = "csv"
	XLSX Format = "xlsx"
)

// ParseFormat accepts "csv" or "xlsx" in any case. Empty selects CSV.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "csv":
		return CSV, nil
	case "xlsx":
		return XLSX, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// ContentType returns the MIME type for the format.
func (f Format) ContentType() string {
	if f == XLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// Filename builds the attachment name, e.g. "pesquisa_2024-04-03_1530.xlsx".
func (f Format) Filename(now time.Time) string {
	return fmt.Sprintf("pesquisa_%s.%s", now.Format("2006-01-02_1504"), f)
}
