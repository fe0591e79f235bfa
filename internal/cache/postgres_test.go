package cache

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/JonMunkholm/pesquisa/internal/core"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// fakeDB stores the last upserted row per key, enough to exercise the
// encode and decode paths without a server.
type fakeDB struct {
	rows    map[core.CacheKey][]any
	execs   []string
	execErr error
}

func newFakeDB() *fakeDB {
	return &fakeDB{rows: make(map[core.CacheKey][]any)}
}

func (f *fakeDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, sql)
	if f.execErr != nil {
		return pgconn.CommandTag{}, f.execErr
	}
	if strings.Contains(sql, "INSERT INTO sheet_snapshots") {
		key := core.CacheKey{Source: args[0].(string), Fingerprint: args[1].(string)}
		for k := range f.rows {
			if k.Source == key.Source && k.Fingerprint != key.Fingerprint {
				delete(f.rows, k)
			}
		}
		f.rows[key] = args[2:]
		return pgconn.NewCommandTag("INSERT 0 1"), nil
	}
	return pgconn.NewCommandTag("CREATE TABLE"), nil
}

func (f *fakeDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	key := core.CacheKey{Source: args[0].(string), Fingerprint: args[1].(string)}
	return fakeRow{vals: f.rows[key]}
}

type fakeRow struct {
	vals []any
}

func (r fakeRow) Scan(dest ...any) error {
	if r.vals == nil {
		return pgx.ErrNoRows
	}
	*dest[0].(*[]byte) = r.vals[0].([]byte)
	*dest[1].(*[]byte) = r.vals[1].([]byte)
	*dest[2].(*int32) = r.vals[2].(int32)
	*dest[3].(*time.Time) = r.vals[3].(time.Time)
	return nil
}

func richEntry() core.CacheEntry {
	return core.CacheEntry{
		Table: core.Table{
			Columns: []core.Column{core.ColProducts, core.ColPrice, core.ColDate},
			Records: []core.Record{
				{
					Product: "Açúcar cristal",
					Price:   decimal.NewNullDecimal(decimal.RequireFromString("1234.56")),
					Date:    core.NullDate{Date: civil.Date{Year: 2024, Month: time.April, Day: 3}, Valid: true},
				},
				{Product: "Sem preço"},
			},
		},
		CoercionWarnings: 1,
		LoadedAt:         time.Date(2024, 4, 3, 12, 0, 0, 0, time.UTC),
	}
}

func checkEntry(t *testing.T, got core.CacheEntry) {
	t.Helper()
	want := richEntry()

	if got.CoercionWarnings != want.CoercionWarnings {
		t.Errorf("CoercionWarnings = %d, want %d", got.CoercionWarnings, want.CoercionWarnings)
	}
	if !got.LoadedAt.Equal(want.LoadedAt) {
		t.Errorf("LoadedAt = %v, want %v", got.LoadedAt, want.LoadedAt)
	}
	if len(got.Table.Columns) != 3 || got.Table.Columns[1] != core.ColPrice {
		t.Errorf("Columns = %v", got.Table.Columns)
	}
	if len(got.Table.Records) != 2 {
		t.Fatalf("got %d records, want 2", len(got.Table.Records))
	}
	first, second := got.Table.Records[0], got.Table.Records[1]
	if first.Product != "Açúcar cristal" {
		t.Errorf("Product = %q", first.Product)
	}
	if !first.Price.Valid || !first.Price.Decimal.Equal(decimal.RequireFromString("1234.56")) {
		t.Errorf("Price = %v", first.Price)
	}
	if first.Date != want.Table.Records[0].Date {
		t.Errorf("Date = %v", first.Date)
	}
	if second.Price.Valid || second.Date.Valid {
		t.Error("null fields should stay null")
	}
}

func TestPostgres_RoundTrip(t *testing.T) {
	ctx := context.Background()
	p := NewPostgres(newFakeDB())
	key := core.CacheKey{Source: "https://example.com/export", Fingerprint: "abc"}

	if _, ok, err := p.Get(ctx, key); ok || err != nil {
		t.Fatalf("Get on empty store = (%v, %v), want miss", ok, err)
	}
	if err := p.Put(ctx, key, richEntry()); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	got, ok, err := p.Get(ctx, key)
	if err != nil || !ok {
		t.Fatalf("Get after Put = (%v, %v), want hit", ok, err)
	}
	checkEntry(t, got)
}

func TestPostgres_ExecError(t *testing.T) {
	db := newFakeDB()
	db.execErr = errors.New("connection refused")
	p := NewPostgres(db)

	if err := p.Migrate(context.Background()); err == nil {
		t.Error("Migrate should fail when Exec fails")
	}
	err := p.Put(context.Background(), core.CacheKey{Source: "s", Fingerprint: "f"}, richEntry())
	if err == nil || !strings.Contains(err.Error(), "upsert snapshot") {
		t.Errorf("Put error = %v, want upsert snapshot failure", err)
	}
}

func TestDecodeTable_UnknownColumn(t *testing.T) {
	_, err := decodeTable([]byte(`["PRODUCTS","COLOR"]`), []byte(`[]`))
	if err == nil || !strings.Contains(err.Error(), "COLOR") {
		t.Errorf("expected unknown column error, got %v", err)
	}
}

func TestEncodeTable_EmptyRecords(t *testing.T) {
	_, records, err := encodeTable(core.Table{Columns: []core.Column{core.ColProducts}})
	if err != nil {
		t.Fatal(err)
	}
	if string(records) != "[]" {
		t.Errorf("records = %s, want []", records)
	}
}

// TestPostgres_Integration runs against a real server when
// TEST_DATABASE_URL is set.
func TestPostgres_Integration(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer pool.Close()

	p := NewPostgres(pool)
	if err := p.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	source := "test:" + t.Name()
	t.Cleanup(func() {
		pool.Exec(context.Background(), "DELETE FROM sheet_snapshots WHERE source = $1", source)
	})

	old := core.CacheKey{Source: source, Fingerprint: "old"}
	cur := core.CacheKey{Source: source, Fingerprint: "new"}
	if err := p.Put(ctx, old, richEntry()); err != nil {
		t.Fatalf("Put(old) error = %v", err)
	}
	if err := p.Put(ctx, cur, richEntry()); err != nil {
		t.Fatalf("Put(new) error = %v", err)
	}

	if _, ok, err := p.Get(ctx, old); ok || err != nil {
		t.Errorf("old fingerprint = (%v, %v), want evicted", ok, err)
	}
	got, ok, err := p.Get(ctx, cur)
	if err != nil || !ok {
		t.Fatalf("Get(new) = (%v, %v), want hit", ok, err)
	}
	checkEntry(t, got)
}
