package sqlexec

import (
	"errors"
	"testing"
)

func TestGuardAcceptsReadOnlyStatements(t *testing.T) {
	guard := Guard{ReadOnly: true}
	tests := map[string]string{
		"SELECT * FROM ordrs;;":                        "SELECT * FROM ordrs",
		"  with t as (select 1) select * from t ; ":    "with t as (select 1) select * from t",
		"SHOW TABLES":                                  "SHOW TABLES",
		"DESCRIBE ordrs":                               "DESCRIBE ordrs",
		"desc ordrs":                                   "desc ordrs",
		"EXPLAIN SELECT 1":                             "EXPLAIN SELECT 1",
		"(SELECT 1) UNION (SELECT 2)":                  "(SELECT 1) UNION (SELECT 2)",
		"-- revenue by city\nSELECT cty FROM tbl_cust": "-- revenue by city\nSELECT cty FROM tbl_cust",
		"/* note; with semicolon */ SELECT 'a;b' AS x": "/* note; with semicolon */ SELECT 'a;b' AS x",
		"SELECT \"weird;name\" FROM t":                 "SELECT \"weird;name\" FROM t",
		"SELECT 1; -- trailing note":                   "SELECT 1",
		"SELECT 1; /* done */ ;":                       "SELECT 1",
		"SELECT 'a;' ; -- x":                           "SELECT 'a;'",
		"SELECT 1 -- note without semicolon":           "SELECT 1 -- note without semicolon",
		"SELECT 'it''s; fine'":                         "SELECT 'it''s; fine'",
		"SELECT \"delete\", 'insert' AS op FROM t":     "SELECT \"delete\", 'insert' AS op FROM t",
		"SELECT created_at, updated_by FROM tbl_cust":  "SELECT created_at, updated_by FROM tbl_cust",
	}
	for input, want := range tests {
		got, err := guard.Check(input)
		if err != nil {
			t.Fatalf("Check(%q) error = %v", input, err)
		}
		if got != want {
			t.Fatalf("Check(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestGuardRejections(t *testing.T) {
	tests := []struct {
		name     string
		readOnly bool
		sql      string
		want     error
	}{
		{"empty", true, "  ;; ", ErrEmptyStatement},
		{"comment only", false, "-- nothing here", ErrEmptyStatement},
		{"stacked", false, "SELECT 1; DROP TABLE ordrs", ErrMultipleStatements},
		{"stacked read only", true, "SELECT 1; SELECT 2", ErrMultipleStatements},
		{"delete", true, "DELETE FROM ordrs", ErrNotReadOnly},
		{"update after comment", true, "/* harmless */ UPDATE ordrs SET amt = 0", ErrNotReadOnly},
		{"drop", true, "drop table ordrs", ErrNotReadOnly},
		{"cte delete", true, "WITH doomed AS (SELECT o_id FROM ordrs) DELETE FROM ordrs WHERE o_id IN (SELECT o_id FROM doomed)", ErrNotReadOnly},
		{"cte update", true, "with t as (select 1) update ordrs set qty = 0", ErrNotReadOnly},
		{"writable cte", true, "WITH gone AS (DELETE FROM ordrs RETURNING *) SELECT * FROM gone", ErrNotReadOnly},
		{"explain analyze", true, "EXPLAIN ANALYZE DELETE FROM ordrs", ErrNotReadOnly},
		{"select into", true, "SELECT * INTO backup FROM ordrs", ErrNotReadOnly},
		{"write after comment", true, "WITH x AS (SELECT 1) x--c\nDELETE FROM ordrs", ErrNotReadOnly},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Guard{ReadOnly: tc.readOnly}.Check(tc.sql)
			if !errors.Is(err, tc.want) {
				t.Fatalf("Check(%q) error = %v, want %v", tc.sql, err, tc.want)
			}
		})
	}
}

func TestGuardPassThroughWhenNotReadOnly(t *testing.T) {
	got, err := Guard{}.Check("UPDATE ordrs SET stat = 'closed';")
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if got != "UPDATE ordrs SET stat = 'closed'" {
		t.Fatalf("Check() = %q", got)
	}
}
