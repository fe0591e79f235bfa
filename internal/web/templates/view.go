// Package templates holds the templ components of the search UI.
//
// Components are written in the .templ files next to this one; the
// *_templ.go files are generated with `templ generate` and committed.
// This file carries the view models and the helpers the components call.
package templates

import (
	"fmt"
	"net/url"

	"github.com/JonMunkholm/pesquisa/internal/core"
	"github.com/a-h/templ"
)

// Alert kinds map to CSS classes.
const (
	AlertSuccess = "success"
	AlertWarning = "warning"
	AlertError   = "error"
	AlertInfo    = "info"
)

// SearchView is the outcome of a product search.
type SearchView struct {
	Count int               // Matches before the display limit
	Table core.DisplayTable // Rows actually shown
}

// DateView is the outcome of a date filter.
type DateView struct {
	Date  string // DD/MM/YYYY
	Count int
	Sum   string // R$ formatted
	Table core.DisplayTable
}

// PageData drives the search page.
type PageData struct {
	Query     string // Echoed into the search box
	Date      string // Echoed into the date picker (YYYY-MM-DD)
	Submitted bool   // The form was sent at least once

	Search *SearchView
	ByDate *DateView

	TotalRows int
	Error     *core.UserMessage
}

var exportFormats = []struct{ format, label string }{
	{"csv", "CSV"},
	{"xlsx", "Excel"},
}

// exportURL links to the download of the current query.
func exportURL(format, query, date string) templ.SafeURL {
	v := url.Values{"format": {format}}
	if query != "" {
		v.Set("q", query)
	}
	if date != "" {
		v.Set("date", date)
	}
	return templ.SafeURL("/api/export?" + v.Encode())
}

func numericAt(d core.DisplayTable, i int) bool {
	return i < len(d.Columns) && d.Columns[i].Numeric()
}

func hasRows(data PageData) bool {
	if data.ByDate != nil {
		return data.ByDate.Count > 0
	}
	return data.Search != nil && data.Search.Count > 0
}

func searchMessage(count int) string {
	return fmt.Sprintf("%d resultado(s) encontrado(s).", count)
}

func dateMessage(d DateView) string {
	return fmt.Sprintf("%d entrega(s) em %s. Soma dos totais: %s", d.Count, d.Date, d.Sum)
}
