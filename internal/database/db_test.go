package database

import (
	"context"
	"testing"
)

func TestOpenRequiresDSN(t *testing.T) {
	_, err := Open(context.Background(), DBConfig{Driver: DriverMySQL})
	if err == nil {
		t.Fatal("expected error for empty DSN")
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), DBConfig{Driver: "oracle", DSN: "x"})
	if err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestSQLDriverName(t *testing.T) {
	tests := map[string]string{
		DriverMySQL:    "mysql",
		DriverPostgres: "pgx",
		DriverSQLite:   "sqlite",
		DriverDuckDB:   "duckdb",
	}
	for driver, want := range tests {
		got, err := SQLDriverName(driver)
		if err != nil {
			t.Fatalf("SQLDriverName(%q) error = %v", driver, err)
		}
		if got != want {
			t.Fatalf("SQLDriverName(%q) = %q, want %q", driver, got, want)
		}
	}
}

func TestOpenSQLiteInMemory(t *testing.T) {
	db, err := Open(context.Background(), DBConfig{Driver: DriverSQLite, DSN: "file::memory:?cache=shared", MaxOpenConns: 2})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()

	var one int
	if err := db.QueryRowContext(context.Background(), "SELECT 1").Scan(&one); err != nil {
		t.Fatalf("QueryRow() error = %v", err)
	}
	if one != 1 {
		t.Fatalf("SELECT 1 = %d", one)
	}
}
