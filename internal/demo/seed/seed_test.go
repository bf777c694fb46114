package seed

import (
	"context"
	"database/sql"
	"reflect"
	"strings"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/querylens/querylens/internal/database"
)

func TestGeneratorDeterministicForSeed(t *testing.T) {
	cfg := smallConfig()
	first := NewGenerator(cfg).Generate()
	second := NewGenerator(cfg).Generate()
	if !reflect.DeepEqual(first, second) {
		t.Fatal("datasets differ for the same seed")
	}

	cfg.Seed = 99
	if reflect.DeepEqual(first, NewGenerator(cfg).Generate()) {
		t.Fatal("datasets should differ for another seed")
	}
}

func TestGeneratorProducesMessyData(t *testing.T) {
	ds := NewGenerator(DefaultConfig()).Generate()

	formats := map[string]bool{}
	for _, sale := range ds.Sales {
		switch {
		case strings.HasPrefix(sale.Amount, "$"):
			formats["dollar"] = true
		case strings.HasSuffix(sale.Amount, " EUR"):
			formats["eur"] = true
		default:
			formats["plain"] = true
		}
	}
	if len(formats) != 3 {
		t.Fatalf("amount formats = %v, want three shapes", formats)
	}

	lateNightAtBranch7 := 0
	for _, sale := range ds.Sales {
		if sale.StoreID == suspiciousBranch && sale.Hour < 5 {
			lateNightAtBranch7++
		}
		if sale.StoreID != suspiciousBranch && sale.Hour < 9 {
			t.Fatalf("sale %d at store %d has hour %d", sale.ID, sale.StoreID, sale.Hour)
		}
	}
	if lateNightAtBranch7 == 0 {
		t.Fatal("expected late night sales at branch 7")
	}
	if len(ds.Returns) == 0 {
		t.Fatal("expected returns")
	}
}

func TestWithThousands(t *testing.T) {
	tests := map[float64]string{
		0.5:        "0.50",
		999.99:     "999.99",
		1234.5:     "1,234.50",
		1234567.01: "1,234,567.01",
	}
	for value, want := range tests {
		if got := withThousands(value); got != want {
			t.Fatalf("withThousands(%v) = %q, want %q", value, got, want)
		}
	}
}

func TestBuildInsertPlaceholders(t *testing.T) {
	tbl := table{name: "t", columns: []string{"a", "b"}}
	rows := [][]any{{1, "x"}, {2, nil}}

	statement, args := buildInsert(database.DriverPostgres, tbl, rows)
	if statement != "INSERT INTO t (a, b) VALUES ($1, $2), ($3, $4)" {
		t.Fatalf("postgres statement = %q", statement)
	}
	if len(args) != 4 || args[3] != nil {
		t.Fatalf("args = %#v", args)
	}

	statement, _ = buildInsert(database.DriverMySQL, tbl, rows)
	if statement != "INSERT INTO t (a, b) VALUES (?, ?), (?, ?)" {
		t.Fatalf("mysql statement = %q", statement)
	}
}

func TestSeederLoadsSQLite(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("sql.Open() error = %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	cfg := smallConfig()
	seeder, err := NewSeeder(db, database.DriverSQLite, cfg, nil)
	if err != nil {
		t.Fatalf("NewSeeder() error = %v", err)
	}

	summary, err := seeder.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if summary["stores"] != cfg.Stores || summary["sls_txn"] != cfg.Sales {
		t.Fatalf("summary = %#v", summary)
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM sls_txn WHERE str_id = 7").Scan(&count); err != nil {
		t.Fatalf("count query error = %v", err)
	}
	if count == 0 {
		t.Fatal("expected sales for branch 7")
	}

	if _, err := seeder.Run(context.Background()); err != nil {
		t.Fatalf("second Run() with reset error = %v", err)
	}
	if err := db.QueryRow("SELECT COUNT(*) FROM stores").Scan(&count); err != nil {
		t.Fatalf("count query error = %v", err)
	}
	if count != cfg.Stores {
		t.Fatalf("stores after reseed = %d, want %d", count, cfg.Stores)
	}
}

func TestNewSeederValidates(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("sql.Open() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if _, err := NewSeeder(nil, database.DriverSQLite, smallConfig(), nil); err == nil {
		t.Fatal("expected error for nil db")
	}
	if _, err := NewSeeder(db, "oracle", smallConfig(), nil); err == nil {
		t.Fatal("expected error for unknown driver")
	}
	cfg := smallConfig()
	cfg.Stores = 3
	if _, err := NewSeeder(db, database.DriverSQLite, cfg, nil); err == nil {
		t.Fatal("expected error for too few stores")
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	cfg, err := LoadConfigFromEnv(mapLookup(map[string]string{
		"QUERYLENS_SEED":          "42",
		"QUERYLENS_SEED_SALES":    "10",
		"QUERYLENS_SEED_START":    "2025-03-01",
		"QUERYLENS_SEED_RESET":    "false",
		"QUERYLENS_SEED_STORES":   "8",
		"QUERYLENS_SEED_PRODUCTS": "3",
	}))
	if err != nil {
		t.Fatalf("LoadConfigFromEnv() error = %v", err)
	}
	if cfg.Seed != 42 || cfg.Sales != 10 || cfg.Stores != 8 || cfg.Products != 3 || cfg.Reset {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.Start.Format("2006-01-02") != "2025-03-01" {
		t.Fatalf("Start = %s", cfg.Start)
	}

	for _, env := range []map[string]string{
		{"QUERYLENS_SEED": "x"},
		{"QUERYLENS_SEED_START": "March"},
		{"QUERYLENS_SEED_SALES": "0"},
	} {
		if _, err := LoadConfigFromEnv(mapLookup(env)); err == nil {
			t.Fatalf("LoadConfigFromEnv(%v) expected error", env)
		}
	}
}

func smallConfig() Config {
	cfg := DefaultConfig()
	cfg.Stores = 8
	cfg.Products = 5
	cfg.Customers = 20
	cfg.Sales = 150
	cfg.BatchSize = 40
	return cfg
}

func mapLookup(values map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		value, ok := values[key]
		return value, ok
	}
}
