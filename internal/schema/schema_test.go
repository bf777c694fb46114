package schema

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"strings"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/google/go-cmp/cmp"
	_ "modernc.org/sqlite"
)

func TestLoadMySQLDescribesEveryTable(t *testing.T) {
	db, mock := newSQLMock(t)
	introspector := NewIntrospector(MySQL{}, nil)

	mock.ExpectQuery(regexp.QuoteMeta("SHOW TABLES")).
		WillReturnRows(sqlmock.NewRows([]string{"Tables_in_dirty_business_data"}).AddRow("tbl_cust").AddRow("ordrs"))
	mock.ExpectQuery(regexp.QuoteMeta("DESCRIBE `tbl_cust`")).
		WillReturnRows(sqlmock.NewRows([]string{"Field", "Type", "Null", "Key", "Default", "Extra"}).
			AddRow("c_id", "int", "NO", "PRI", nil, "auto_increment").
			AddRow("cty", "varchar(64)", "YES", "", nil, ""))
	mock.ExpectQuery(regexp.QuoteMeta("DESCRIBE `ordrs`")).
		WillReturnRows(sqlmock.NewRows([]string{"Field", "Type", "Null", "Key", "Default", "Extra"}).
			AddRow("o_id", "int", "NO", "PRI", nil, "").
			AddRow("stat", "varchar(16)", "NO", "", "open", ""))

	snapshot, err := introspector.Load(context.Background(), db)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	open := "open"
	want := Snapshot{
		"tbl_cust": {
			{Name: "c_id", Type: "int", Nullable: false, Key: "PRI", Extra: "auto_increment"},
			{Name: "cty", Type: "varchar(64)", Nullable: true},
		},
		"ordrs": {
			{Name: "o_id", Type: "int", Key: "PRI"},
			{Name: "stat", Type: "varchar(16)", Default: &open},
		},
	}
	if diff := cmp.Diff(want, snapshot); diff != "" {
		t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
	}
	assertSQLMock(t, mock)
}

func TestGetSchemaFailsOpenWithEmptySnapshot(t *testing.T) {
	db, mock := newSQLMock(t)
	introspector := NewIntrospector(MySQL{}, nil)

	mock.ExpectQuery(regexp.QuoteMeta("SHOW TABLES")).
		WillReturnRows(sqlmock.NewRows([]string{"Tables"}).AddRow("a").AddRow("b"))
	mock.ExpectQuery(regexp.QuoteMeta("DESCRIBE `a`")).
		WillReturnRows(sqlmock.NewRows([]string{"Field", "Type", "Null", "Key", "Default", "Extra"}).
			AddRow("id", "int", "NO", "PRI", nil, ""))
	mock.ExpectQuery(regexp.QuoteMeta("DESCRIBE `b`")).
		WillReturnError(errors.New("table vanished"))

	snapshot := introspector.GetSchema(context.Background(), db)
	if snapshot == nil {
		t.Fatal("GetSchema() returned nil snapshot")
	}
	if len(snapshot) != 0 {
		t.Fatalf("GetSchema() = %#v, want empty snapshot", snapshot)
	}
	assertSQLMock(t, mock)
}

func TestLoadReturnsErrorWhenListingFails(t *testing.T) {
	db, mock := newSQLMock(t)
	introspector := NewIntrospector(DuckDB{}, nil)

	mock.ExpectQuery(regexp.QuoteMeta("SHOW TABLES")).WillReturnError(errors.New("connection reset"))

	if _, err := introspector.Load(context.Background(), db); err == nil {
		t.Fatal("Load() expected error")
	}
	assertSQLMock(t, mock)
}

func TestDuckDBDescribeQuotesIdentifier(t *testing.T) {
	db, mock := newSQLMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`DESCRIBE "sales ""raw"""`)).
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "column_type", "null", "key", "default", "extra"}).
			AddRow("amt", "DECIMAL(10,2)", "YES", nil, nil, nil))

	columns, err := DuckDB{}.DescribeTable(context.Background(), db, `sales "raw"`)
	if err != nil {
		t.Fatalf("DescribeTable() error = %v", err)
	}
	want := []Column{{Name: "amt", Type: "DECIMAL(10,2)", Nullable: true}}
	if diff := cmp.Diff(want, columns); diff != "" {
		t.Fatalf("columns mismatch (-want +got):\n%s", diff)
	}
	assertSQLMock(t, mock)
}

func TestPostgresDescribeMapsConstraints(t *testing.T) {
	db, mock := newSQLMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(postgresDescribeTableSQL)).
		WithArgs("orders").
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type", "is_nullable", "column_default", "is_identity", "is_primary", "is_unique", "is_foreign"}).
			AddRow("order_id", "integer", "NO", nil, "YES", true, false, false).
			AddRow("cust_ref", "integer", "YES", nil, "NO", false, false, true).
			AddRow("ref_code", "text", "YES", "'n/a'::text", "NO", false, true, false))

	columns, err := Postgres{}.DescribeTable(context.Background(), db, "orders")
	if err != nil {
		t.Fatalf("DescribeTable() error = %v", err)
	}
	defaultCode := "'n/a'::text"
	want := []Column{
		{Name: "order_id", Type: "integer", Key: "PRI", Extra: "identity"},
		{Name: "cust_ref", Type: "integer", Nullable: true, Key: "MUL"},
		{Name: "ref_code", Type: "text", Nullable: true, Key: "UNI", Default: &defaultCode},
	}
	if diff := cmp.Diff(want, columns); diff != "" {
		t.Fatalf("columns mismatch (-want +got):\n%s", diff)
	}
	assertSQLMock(t, mock)
}

func TestLoadSQLiteRoundTrip(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("sql.Open() error = %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	for _, stmt := range []string{
		`CREATE TABLE ordrs (o_id INTEGER PRIMARY KEY, stat VARCHAR(16) NOT NULL DEFAULT 'open', amt DECIMAL(10,2))`,
		`CREATE TABLE brnch (b_no INTEGER, cty VARCHAR(64))`,
	} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			t.Fatalf("ExecContext(%q) error = %v", stmt, err)
		}
	}

	snapshot, err := NewIntrospector(SQLite{}, nil).Load(ctx, db)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	open := "'open'"
	want := Snapshot{
		"brnch": {
			{Name: "b_no", Type: "INTEGER", Nullable: true},
			{Name: "cty", Type: "VARCHAR(64)", Nullable: true},
		},
		"ordrs": {
			{Name: "o_id", Type: "INTEGER", Nullable: true, Key: "PRI"},
			{Name: "stat", Type: "VARCHAR(16)", Nullable: false, Default: &open},
			{Name: "amt", Type: "DECIMAL(10,2)", Nullable: true},
		},
	}
	if diff := cmp.Diff(want, snapshot); diff != "" {
		t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestSnapshotJSONIsIndentedAndSorted(t *testing.T) {
	snapshot := Snapshot{
		"zeta":  {{Name: "z", Type: "int"}},
		"alpha": {{Name: "a", Type: "text", Nullable: true}},
	}
	encoded, err := snapshot.JSON()
	if err != nil {
		t.Fatalf("JSON() error = %v", err)
	}
	if strings.Index(encoded, `"alpha"`) > strings.Index(encoded, `"zeta"`) {
		t.Fatalf("tables not sorted:\n%s", encoded)
	}
	if !strings.Contains(encoded, "\n  \"alpha\": [\n    {\n      \"name\": \"a\"") {
		t.Fatalf("unexpected indentation:\n%s", encoded)
	}
}

func TestEmptySnapshotJSON(t *testing.T) {
	var snapshot Snapshot
	encoded, err := snapshot.JSON()
	if err != nil {
		t.Fatalf("JSON() error = %v", err)
	}
	if encoded != "{}" {
		t.Fatalf("JSON() = %q, want {}", encoded)
	}
}

func TestDialectFor(t *testing.T) {
	for _, driver := range []string{"mysql", "postgres", "sqlite", "duckdb"} {
		dialect, err := DialectFor(driver)
		if err != nil {
			t.Fatalf("DialectFor(%q) error = %v", driver, err)
		}
		if dialect.Name() != driver {
			t.Fatalf("DialectFor(%q).Name() = %q", driver, dialect.Name())
		}
	}
	if _, err := DialectFor("oracle"); err == nil {
		t.Fatal("DialectFor(oracle) expected error")
	}
}

func newSQLMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func assertSQLMock(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sql expectations: %v", err)
	}
}
