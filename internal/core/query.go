package core

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
)

// SearchOptions controls product search policy.
type SearchOptions struct {
	// MatchAllOnEmpty returns the whole table for an empty term.
	// Off by default so an empty query never dumps the dataset.
	MatchAllOnEmpty bool
}

// DateResult is the output of FilterByDate.
type DateResult struct {
	Table Table
	Total decimal.Decimal // Sum of Total over the matches; nulls count as zero
}

// SearchByProduct returns the records whose product contains term,
// ignoring case. The term is matched as given, spaces included. An empty
// or whitespace-only term returns an empty Table.
func SearchByProduct(t Table, term string) Table {
	return SearchByProductWith(t, term, SearchOptions{})
}

// SearchByProductWith is SearchByProduct with an explicit policy.
func SearchByProductWith(t Table, term string, opts SearchOptions) Table {
	if strings.TrimSpace(term) == "" {
		if opts.MatchAllOnEmpty {
			return t.withRecords(append([]Record(nil), t.Records...))
		}
		return t.withRecords(nil)
	}

	fold := cases.Fold()
	needle := fold.String(term)

	var matches []Record
	for _, rec := range t.Records {
		if rec.Product == "" {
			continue
		}
		if strings.Contains(fold.String(rec.Product), needle) {
			matches = append(matches, rec)
		}
	}
	return t.withRecords(matches)
}

// FilterByDate returns the records dated exactly date along with the sum
// of their totals. A null date matches nothing.
func FilterByDate(t Table, date NullDate) DateResult {
	result := DateResult{Table: t.withRecords(nil), Total: decimal.Zero}
	if !date.Valid {
		return result
	}

	var matches []Record
	for _, rec := range t.Records {
		if !rec.Date.Valid || rec.Date.Date != date.Date {
			continue
		}
		matches = append(matches, rec)
		if rec.Total.Valid {
			result.Total = result.Total.Add(rec.Total.Decimal)
		}
	}
	result.Table = t.withRecords(matches)
	return result
}

// Tail returns the last n records of t. n <= 0 returns t unchanged.
func Tail(t Table, n int) Table {
	if n <= 0 || n >= len(t.Records) {
		return t
	}
	return t.withRecords(t.Records[len(t.Records)-n : len(t.Records) : len(t.Records)])
}
