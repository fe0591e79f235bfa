package web

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/JonMunkholm/pesquisa/internal/core"
	"github.com/JonMunkholm/pesquisa/internal/export"
	"github.com/JonMunkholm/pesquisa/internal/logging"
	"github.com/JonMunkholm/pesquisa/internal/web/templates"
	"github.com/shopspring/decimal"
)

// queryParams are the filters shared by the page, the API and exports.
type queryParams struct {
	Term    string
	HasTerm bool // q was present, even if empty
	DateRaw string
	Date    core.NullDate
}

// parseQuery reads q and date. Dates accept the date picker's YYYY-MM-DD
// as well as DD/MM/YYYY.
func parseQuery(r *http.Request) (queryParams, error) {
	v := r.URL.Query()
	_, hasTerm := v["q"]
	p := queryParams{
		Term:    v.Get("q"),
		HasTerm: hasTerm,
		DateRaw: strings.TrimSpace(v.Get("date")),
	}
	if p.DateRaw != "" {
		p.Date = core.ParseDate(p.DateRaw)
		if !p.Date.Valid {
			return p, fmt.Errorf("%w: %q", core.ErrInvalidDate, p.DateRaw)
		}
	}
	return p, nil
}

// submitted reports whether the search form was sent.
func (p queryParams) submitted() bool {
	return p.HasTerm || p.DateRaw != ""
}

// queryResult holds the full, untrimmed matches.
type queryResult struct {
	Search *core.Table      // nil when only a date was given
	ByDate *core.DateResult // nil without a date
}

// Final returns the table the user is looking at: the date matches when a
// date was given, otherwise the search matches.
func (q queryResult) Final() core.Table {
	if q.ByDate != nil {
		return q.ByDate.Table
	}
	if q.Search != nil {
		return *q.Search
	}
	return core.Table{}
}

// run applies the filters in order: product search, then date.
// An empty term with a date filters by date alone.
func (s *Server) run(t core.Table, p queryParams) queryResult {
	var res queryResult
	base := t
	if strings.TrimSpace(p.Term) != "" || !p.Date.Valid {
		found := core.SearchByProductWith(t, p.Term, s.search)
		res.Search = &found
		base = found
	}
	if p.Date.Valid {
		dr := core.FilterByDate(base, p.Date)
		res.ByDate = &dr
	}
	return res
}

// display trims t to the display limit and formats it.
func (s *Server) display(t core.Table) core.DisplayTable {
	return core.Format(core.Tail(t, s.displayLimit))
}

// handleIndex renders the search page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ds, err := s.loader.Load(ctx)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	p, err := parseQuery(r)
	data := templates.PageData{
		Query:     p.Term,
		Date:      p.DateRaw,
		Submitted: p.submitted(),
		TotalRows: ds.Table.Len(),
	}
	status := http.StatusOK

	if err != nil {
		msg := core.MapError(err)
		data.Error = &msg
		status = statusFor(err)
		logging.FromContext(ctx).Warn("invalid query", "error", err)
	} else if data.Submitted {
		res := s.run(ds.Table, p)
		if res.Search != nil {
			data.Search = &templates.SearchView{Count: res.Search.Len(), Table: s.display(*res.Search)}
		}
		if res.ByDate != nil {
			data.ByDate = &templates.DateView{
				Date:  core.FormatDate(p.Date),
				Count: res.ByDate.Table.Len(),
				Sum:   core.FormatBRL(decimal.NewNullDecimal(res.ByDate.Total)),
				Table: s.display(res.ByDate.Table),
			}
		}
		logging.FromContext(ctx).Debug("page query",
			"q", p.Term,
			"date", p.DateRaw,
			"matches", res.Final().Len(),
		)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := templates.Page(data).Render(ctx, w); err != nil {
		logging.FromContext(ctx).Error("render page", "error", err)
	}
}

// datasetInfo describes the load a response was computed from.
type datasetInfo struct {
	TotalRows        int       `json:"total_rows"`
	Fingerprint      string    `json:"fingerprint"`
	Cached           bool      `json:"cached"`
	LoadedAt         time.Time `json:"loaded_at"`
	CoercionWarnings int       `json:"coercion_warnings"`
}

func infoOf(ds *core.Dataset) datasetInfo {
	return datasetInfo{
		TotalRows:        ds.Table.Len(),
		Fingerprint:      ds.Fingerprint,
		Cached:           ds.Cached,
		LoadedAt:         ds.LoadedAt,
		CoercionWarnings: ds.CoercionWarnings,
	}
}

// SearchResponse is the body of GET /api/search.
type SearchResponse struct {
	Query string `json:"query"`
	Count int    `json:"count"`
	Shown int    `json:"shown"`
	core.DisplayTable
	Dataset datasetInfo `json:"dataset"`
}

// handleSearch returns the products matching q.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	ds, err := s.loader.Load(r.Context())
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	term := r.URL.Query().Get("q")
	found := core.SearchByProductWith(ds.Table, term, s.search)
	shown := s.display(found)

	writeJSON(w, r, SearchResponse{
		Query:        term,
		Count:        found.Len(),
		Shown:        shown.Len(),
		DisplayTable: shown,
		Dataset:      infoOf(ds),
	})
}

// DateResponse is the body of GET /api/date.
type DateResponse struct {
	Date       string `json:"date"`        // DD/MM/YYYY
	Query      string `json:"query,omitempty"`
	Count      int    `json:"count"`
	Shown      int    `json:"shown"`
	Sum        string `json:"sum"`         // canonical decimal, e.g. "1234.56"
	SumDisplay string `json:"sum_display"` // R$ 1.234,56
	core.DisplayTable
	Dataset datasetInfo `json:"dataset"`
}

// handleDate returns the deliveries on date, optionally narrowed by q.
func (s *Server) handleDate(w http.ResponseWriter, r *http.Request) {
	p, err := parseQuery(r)
	if err == nil && !p.Date.Valid {
		err = fmt.Errorf("%w: date is required", core.ErrInvalidDate)
	}
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	ds, err := s.loader.Load(r.Context())
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	res := s.run(ds.Table, p)
	shown := s.display(res.ByDate.Table)
	writeJSON(w, r, DateResponse{
		Date:         core.FormatDate(p.Date),
		Query:        p.Term,
		Count:        res.ByDate.Table.Len(),
		Shown:        shown.Len(),
		Sum:          res.ByDate.Total.StringFixed(2),
		SumDisplay:   core.FormatBRL(decimal.NewNullDecimal(res.ByDate.Total)),
		DisplayTable: shown,
		Dataset:      infoOf(ds),
	})
}

// handleExport downloads every row of the current result, ignoring the
// display limit.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	p, err := parseQuery(r)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	if err := s.exports.Acquire(ctx); err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	defer s.exports.Release()

	ds, err := s.loader.Load(ctx)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	table := s.run(ds.Table, p).Final()

	var buf bytes.Buffer
	switch format {
	case export.XLSX:
		err = export.WriteXLSX(&buf, table)
	default:
		err = export.WriteCSV(&buf, core.Format(table))
	}
	if err != nil {
		respondError(w, r, fmt.Errorf("export %s: %w", format, err), http.StatusInternalServerError)
		return
	}

	logging.FromContext(ctx).Info("export",
		"format", string(format),
		"rows", table.Len(),
		"bytes", buf.Len(),
		"fingerprint", ds.Fingerprint,
		"exports_active", s.exports.Status().Active,
	)

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, format.Filename(s.now())))
	buf.WriteTo(w)
}

// handleHealth reports liveness. It does not touch the source.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok"))
}
