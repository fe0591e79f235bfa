package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/JonMunkholm/pesquisa/internal/core"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the subset of *pgxpool.Pool the Postgres cache uses.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const createSnapshotsTable = `
CREATE TABLE IF NOT EXISTS sheet_snapshots (
    source            TEXT        NOT NULL,
    fingerprint       TEXT        NOT NULL,
    columns           JSONB       NOT NULL,
    records           JSONB       NOT NULL,
    coercion_warnings INTEGER     NOT NULL DEFAULT 0,
    loaded_at         TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (source, fingerprint)
)`

const selectSnapshot = `
SELECT columns, records, coercion_warnings, loaded_at
FROM sheet_snapshots
WHERE source = $1 AND fingerprint = $2`

// upsertSnapshot stores the new snapshot and drops older fingerprints of
// the same source in one statement.
const upsertSnapshot = `
WITH stale AS (
    DELETE FROM sheet_snapshots WHERE source = $1 AND fingerprint <> $2
)
INSERT INTO sheet_snapshots (source, fingerprint, columns, records, coercion_warnings, loaded_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (source, fingerprint) DO UPDATE SET
    columns           = EXCLUDED.columns,
    records           = EXCLUDED.records,
    coercion_warnings = EXCLUDED.coercion_warnings,
    loaded_at         = EXCLUDED.loaded_at`

// Postgres persists parsed tables so a restarted server can skip parsing
// an export it has already seen.
type Postgres struct {
	db DBTX
}

// NewPostgres wraps a pool (or any DBTX). Call Migrate once before use.
func NewPostgres(db DBTX) *Postgres {
	return &Postgres{db: db}
}

// Migrate creates the snapshot table if it does not exist.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, createSnapshotsTable); err != nil {
		return fmt.Errorf("create sheet_snapshots: %w", err)
	}
	return nil
}

// Get implements core.Cache.
func (p *Postgres) Get(ctx context.Context, key core.CacheKey) (core.CacheEntry, bool, error) {
	var (
		columnsJSON []byte
		recordsJSON []byte
		warnings    int32
		loadedAt    time.Time
	)
	err := p.db.QueryRow(ctx, selectSnapshot, key.Source, key.Fingerprint).
		Scan(&columnsJSON, &recordsJSON, &warnings, &loadedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.CacheEntry{}, false, nil
	}
	if err != nil {
		return core.CacheEntry{}, false, fmt.Errorf("select snapshot: %w", err)
	}

	table, err := decodeTable(columnsJSON, recordsJSON)
	if err != nil {
		return core.CacheEntry{}, false, err
	}
	return core.CacheEntry{
		Table:            table,
		CoercionWarnings: int(warnings),
		LoadedAt:         loadedAt,
	}, true, nil
}

// Put implements core.Cache.
func (p *Postgres) Put(ctx context.Context, key core.CacheKey, entry core.CacheEntry) error {
	columnsJSON, recordsJSON, err := encodeTable(entry.Table)
	if err != nil {
		return err
	}
	_, err = p.db.Exec(ctx, upsertSnapshot,
		key.Source,
		key.Fingerprint,
		columnsJSON,
		recordsJSON,
		int32(entry.CoercionWarnings),
		entry.LoadedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}
	return nil
}

func encodeTable(t core.Table) (columns, records []byte, err error) {
	if columns, err = json.Marshal(t.Columns); err != nil {
		return nil, nil, fmt.Errorf("encode columns: %w", err)
	}
	recs := t.Records
	if recs == nil {
		recs = []core.Record{}
	}
	if records, err = json.Marshal(recs); err != nil {
		return nil, nil, fmt.Errorf("encode records: %w", err)
	}
	return columns, records, nil
}

// decodeTable rejects snapshots naming columns this build does not know,
// which can happen after the whitelist changes.
func decodeTable(columns, records []byte) (core.Table, error) {
	var t core.Table
	if err := json.Unmarshal(columns, &t.Columns); err != nil {
		return core.Table{}, fmt.Errorf("decode columns: %w", err)
	}
	for _, c := range t.Columns {
		if _, ok := core.SpecFor(c); !ok {
			return core.Table{}, fmt.Errorf("snapshot has unknown column %q", c)
		}
	}
	if err := json.Unmarshal(records, &t.Records); err != nil {
		return core.Table{}, fmt.Errorf("decode records: %w", err)
	}
	if len(t.Records) == 0 {
		t.Records = nil
	}
	return t, nil
}
