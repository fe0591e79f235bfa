// Package core provides the business logic for delivery spreadsheet search.
//
// The package holds all domain logic independent of any UI or transport
// layer. It can be used by web handlers, CLI tools, or tests without
// modification.
//
// # Loading
//
// A [Loader] reads the published CSV export from a [Source] (HTTP or file),
// keeps only the whitelisted columns in [FieldSpecs], and coerces each cell:
//
//	loader := core.NewLoader(core.NewSource(url, client), core.LoaderOptions{
//	    MaxBytes: 50 << 20,
//	    Cache:    cache.NewMemory(),
//	})
//	ds, err := loader.Load(ctx)
//
// Dates are parsed day first (03/04/2024 is 3 April). Currency cells such as
// "R$ 1.234,56" become decimals. Cells that cannot be coerced become null and
// are counted in [Dataset.CoercionWarnings]; they never fail the load.
//
// The export is fetched on every Load and hashed with [Fingerprint]. When
// a [Cache] already holds a table for that fingerprint, parsing is skipped.
//
// # Queries
//
// [SearchByProduct] and [FilterByDate] are pure functions over a [Table].
// [Tail] trims a result to the rows shown on screen.
//
// # Presentation
//
// [Format] renders a Table for display: currency as "R$ 1.234,56" and dates
// as DD/MM/YYYY. Formatting never feeds back into queries.
//
// # Error Handling
//
// Technical errors are mapped to user-facing Portuguese messages with
// [MapError]. Each category has a code for support reference:
//
//   - SRC001-SRC002: Source errors (unreachable, too large)
//   - SCH001: No recognized column in the export
//   - REQ001-REQ002: Invalid request parameters
//   - REQ003-REQ004: Request canceled or timed out
//   - EXP001: Export slots busy
//   - RATE001: Too many requests
package core
