package schema

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Dialect knows how a particular database lists its tables and describes
// their columns.
type Dialect interface {
	Name() string
	ListTables(ctx context.Context, q Querier) ([]string, error)
	DescribeTable(ctx context.Context, q Querier, table string) ([]Column, error)
}

func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case "mysql":
		return MySQL{}, nil
	case "postgres":
		return Postgres{}, nil
	case "sqlite":
		return SQLite{}, nil
	case "duckdb":
		return DuckDB{}, nil
	default:
		return nil, fmt.Errorf("no schema dialect for driver %q", driver)
	}
}

type MySQL struct{}

func (MySQL) Name() string { return "mysql" }

func (MySQL) ListTables(ctx context.Context, q Querier) ([]string, error) {
	return queryStrings(ctx, q, "SHOW TABLES")
}

func (MySQL) DescribeTable(ctx context.Context, q Querier, table string) ([]Column, error) {
	return describeSixColumns(ctx, q, "DESCRIBE "+quoteBacktick(table))
}

// DuckDB reports the same six-column DESCRIBE shape as MySQL.
type DuckDB struct{}

func (DuckDB) Name() string { return "duckdb" }

func (DuckDB) ListTables(ctx context.Context, q Querier) ([]string, error) {
	return queryStrings(ctx, q, "SHOW TABLES")
}

func (DuckDB) DescribeTable(ctx context.Context, q Querier, table string) ([]Column, error) {
	return describeSixColumns(ctx, q, "DESCRIBE "+quoteDouble(table))
}

type Postgres struct{}

func (Postgres) Name() string { return "postgres" }

const postgresListTablesSQL = `
SELECT table_name
FROM information_schema.tables
WHERE table_schema = current_schema()
ORDER BY table_name`

const postgresDescribeTableSQL = `
SELECT c.column_name,
       c.data_type,
       c.is_nullable,
       c.column_default,
       c.is_identity,
       COALESCE(k.is_primary, false),
       COALESCE(k.is_unique, false),
       COALESCE(k.is_foreign, false)
FROM information_schema.columns c
LEFT JOIN (
  SELECT kcu.column_name,
         bool_or(tc.constraint_type = 'PRIMARY KEY') AS is_primary,
         bool_or(tc.constraint_type = 'UNIQUE') AS is_unique,
         bool_or(tc.constraint_type = 'FOREIGN KEY') AS is_foreign
  FROM information_schema.table_constraints tc
  JOIN information_schema.key_column_usage kcu
    ON tc.constraint_name = kcu.constraint_name
   AND tc.table_schema = kcu.table_schema
   AND tc.table_name = kcu.table_name
  WHERE tc.table_schema = current_schema()
    AND tc.table_name = $1
  GROUP BY kcu.column_name
) k ON k.column_name = c.column_name
WHERE c.table_schema = current_schema()
  AND c.table_name = $1
ORDER BY c.ordinal_position`

func (Postgres) ListTables(ctx context.Context, q Querier) ([]string, error) {
	return queryStrings(ctx, q, postgresListTablesSQL)
}

func (Postgres) DescribeTable(ctx context.Context, q Querier, table string) ([]Column, error) {
	rows, err := q.QueryContext(ctx, postgresDescribeTableSQL, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns := []Column{}
	for rows.Next() {
		var (
			column                         Column
			nullable, identity             string
			defaultValue                   sql.NullString
			isPrimary, isUnique, isForeign bool
		)
		if err := rows.Scan(&column.Name, &column.Type, &nullable, &defaultValue, &identity, &isPrimary, &isUnique, &isForeign); err != nil {
			return nil, err
		}
		column.Nullable = strings.EqualFold(nullable, "YES")
		column.Default = nullableString(defaultValue)
		switch {
		case isPrimary:
			column.Key = "PRI"
		case isUnique:
			column.Key = "UNI"
		case isForeign:
			column.Key = "MUL"
		}
		if strings.EqualFold(identity, "YES") {
			column.Extra = "identity"
		}
		columns = append(columns, column)
	}
	return columns, rows.Err()
}

type SQLite struct{}

func (SQLite) Name() string { return "sqlite" }

func (SQLite) ListTables(ctx context.Context, q Querier) ([]string, error) {
	return queryStrings(ctx, q, "SELECT name FROM sqlite_master WHERE type IN ('table', 'view') ORDER BY name")
}

func (SQLite) DescribeTable(ctx context.Context, q Querier, table string) ([]Column, error) {
	rows, err := q.QueryContext(ctx, "PRAGMA table_info("+quoteDouble(table)+")")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns := []Column{}
	for rows.Next() {
		var (
			cid, notNull, pk int
			column           Column
			defaultValue     sql.NullString
		)
		if err := rows.Scan(&cid, &column.Name, &column.Type, &notNull, &defaultValue, &pk); err != nil {
			return nil, err
		}
		column.Nullable = notNull == 0
		column.Default = nullableString(defaultValue)
		if pk > 0 {
			column.Key = "PRI"
		}
		columns = append(columns, column)
	}
	return columns, rows.Err()
}

func queryStrings(ctx context.Context, q Querier, query string) ([]string, error) {
	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var value string
		if err := rows.Scan(&value); err != nil {
			return nil, err
		}
		values = append(values, value)
	}
	return values, rows.Err()
}

// describeSixColumns reads DESCRIBE output shaped as
// (name, type, null, key, default, extra).
func describeSixColumns(ctx context.Context, q Querier, query string) ([]Column, error) {
	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns := []Column{}
	for rows.Next() {
		var (
			column               Column
			nullable, key, extra sql.NullString
			defaultValue         sql.NullString
		)
		if err := rows.Scan(&column.Name, &column.Type, &nullable, &key, &defaultValue, &extra); err != nil {
			return nil, err
		}
		column.Nullable = strings.EqualFold(nullable.String, "YES")
		column.Key = key.String
		column.Default = nullableString(defaultValue)
		column.Extra = extra.String
		columns = append(columns, column)
	}
	return columns, rows.Err()
}

func nullableString(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	s := value.String
	return &s
}

func quoteBacktick(identifier string) string {
	return "`" + strings.ReplaceAll(identifier, "`", "``") + "`"
}

func quoteDouble(identifier string) string {
	return `"` + strings.ReplaceAll(identifier, `"`, `""`) + `"`
}
