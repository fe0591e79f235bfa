package core

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/JonMunkholm/pesquisa/internal/logging"
	"github.com/google/uuid"
)

// CacheKey identifies a parsed table by source identity and content.
type CacheKey struct {
	Source      string
	Fingerprint string
}

// CacheEntry is what a Cache stores for a key.
type CacheEntry struct {
	Table            Table
	CoercionWarnings int
	LoadedAt         time.Time
}

// Cache memoizes parsed tables by fingerprint. Implementations must be
// safe for concurrent use. A Cache is an optimization only: a miss or an
// error makes the Loader parse again.
type Cache interface {
	Get(ctx context.Context, key CacheKey) (CacheEntry, bool, error)
	Put(ctx context.Context, key CacheKey, entry CacheEntry) error
}

// LoaderOptions configures a Loader. Zero values are usable.
type LoaderOptions struct {
	// MaxBytes caps the size of the export; <= 0 disables the cap.
	MaxBytes int64

	// Cache is consulted before parsing. Nil disables caching.
	Cache Cache

	// Now is the clock used for LoadedAt (default: time.Now).
	Now func() time.Time
}

// Loader fetches the delivery sheet and builds canonical Tables.
type Loader struct {
	source   Source
	cache    Cache
	maxBytes int64
	now      func() time.Time
}

// NewLoader creates a Loader for source.
func NewLoader(source Source, opts LoaderOptions) *Loader {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Loader{
		source:   source,
		cache:    opts.Cache,
		maxBytes: opts.MaxBytes,
		now:      now,
	}
}

// SourceID returns the identity of the underlying source.
func (l *Loader) SourceID() string {
	return l.source.ID()
}

// Load fetches the source and returns its canonical Table.
//
// The export is always fetched, since its fingerprint is what decides
// whether the cached Table is still current. Parsing and coercion are
// skipped on a cache hit.
func (l *Loader) Load(ctx context.Context) (*Dataset, error) {
	loadID := uuid.New()
	sourceID := l.source.ID()
	logger := logging.WithFields(ctx, "load_id", loadID.String(), "source", sourceID)

	data, err := l.fetch(ctx)
	if err != nil {
		logger.Warn("load failed", "error", err)
		return nil, err
	}

	fingerprint := Fingerprint(data)
	key := CacheKey{Source: sourceID, Fingerprint: fingerprint}
	ds := &Dataset{
		Source:      sourceID,
		Fingerprint: fingerprint,
		LoadID:      loadID,
	}

	if l.cache != nil {
		entry, ok, err := l.cache.Get(ctx, key)
		if err != nil {
			logger.Warn("cache get failed, parsing source", "error", err)
		} else if ok {
			ds.Table = entry.Table
			ds.CoercionWarnings = entry.CoercionWarnings
			ds.LoadedAt = entry.LoadedAt
			ds.Cached = true
			logger.Debug("load served from cache",
				"fingerprint", fingerprint,
				"rows", ds.Table.Len(),
			)
			return ds, nil
		}
	}

	table, warnings, err := ParseTable(bytes.NewReader(data))
	if err != nil {
		logger.Warn("parse failed", "fingerprint", fingerprint, "error", err)
		return nil, err
	}

	ds.Table = table
	ds.CoercionWarnings = warnings
	ds.LoadedAt = l.now()

	if l.cache != nil {
		entry := CacheEntry{Table: table, CoercionWarnings: warnings, LoadedAt: ds.LoadedAt}
		if err := l.cache.Put(ctx, key, entry); err != nil {
			logger.Warn("cache put failed", "error", err)
		}
	}

	logger.Info("source loaded",
		"fingerprint", fingerprint,
		"rows", table.Len(),
		"columns", len(table.Columns),
		"coercion_warnings", warnings,
	)
	return ds, nil
}

// fetch reads and decodes the whole export.
func (l *Loader) fetch(ctx context.Context) ([]byte, error) {
	rc, err := l.source.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	raw, err := readLimited(rc, l.maxBytes)
	if err != nil {
		if errors.Is(err, ErrSourceTooLarge) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: read body: %v", ErrSourceUnavailable, err)
	}

	data, err := decodeSource(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	return data, nil
}

// Fingerprint returns the SHA-256 hex digest of decoded export bytes.
func Fingerprint(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ParseTable reads CSV data with a header row into a canonical Table.
// It returns the number of coercion warnings: non-empty cells that could
// not be coerced and became null, plus unreadable rows that were skipped.
// ErrSchema is returned when the header has no whitelisted column.
func ParseTable(r io.Reader) (Table, int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return Table{}, 0, fmt.Errorf("%w: empty source", ErrSchema)
	}
	if err != nil {
		return Table{}, 0, fmt.Errorf("%w: read header: %v", ErrSchema, err)
	}

	idx, cols := MakeHeaderIndex(header)
	if len(cols) == 0 {
		return Table{}, 0, fmt.Errorf("%w in header %q", ErrSchema, header)
	}

	table := Table{Columns: cols}
	warnings := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			warnings++
			continue
		}
		if isEmptyRow(row) {
			continue
		}

		rec, w := buildRecord(row, idx)
		warnings += w
		table.Records = append(table.Records, rec)
	}

	return table, warnings, nil
}

// buildRecord coerces one CSV row. It returns the number of non-empty
// cells that became null.
func buildRecord(row []string, idx HeaderIndex) (Record, int) {
	var rec Record
	warnings := 0

	for _, spec := range FieldSpecs {
		if _, ok := idx[spec.Column]; !ok {
			continue
		}
		raw := getCell(row, idx, spec.Column)
		present := CleanCell(raw) != ""

		switch spec.Column {
		case ColSupplier:
			rec.Supplier = strings.TrimSpace(raw)
		case ColProducts:
			rec.Product = strings.TrimSpace(raw)
		case ColUnit:
			rec.Unit = strings.TrimSpace(raw)
		case ColInvoiceRef:
			rec.InvoiceRef = strings.TrimSpace(raw)
		case ColQuantity:
			rec.Quantity = ParseQuantity(raw)
			if present && !rec.Quantity.Valid {
				warnings++
			}
		case ColPrice:
			rec.Price = ParseBRL(raw)
			if present && !rec.Price.Valid {
				warnings++
			}
		case ColTotal:
			rec.Total = ParseBRL(raw)
			if present && !rec.Total.Valid {
				warnings++
			}
		case ColDate:
			rec.Date = ParseDate(raw)
			if present && !rec.Date.Valid {
				warnings++
			}
		}
	}

	return rec, warnings
}

func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
