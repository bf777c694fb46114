// Package schema captures a point-in-time description of the tables and
// columns visible through a database connection.
package schema

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/querylens/querylens/internal/observability"
)

// Column describes one column as reported by the database.
type Column struct {
	Name     string  `json:"name"`
	Type     string  `json:"type"`
	Nullable bool    `json:"nullable"`
	Key      string  `json:"key,omitempty"`
	Default  *string `json:"default"`
	Extra    string  `json:"extra,omitempty"`
}

// Snapshot maps table name to its columns in ordinal order. A snapshot is
// rebuilt for every request and never mutated after capture.
type Snapshot map[string][]Column

// Querier is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// JSON renders the snapshot as two-space indented JSON with table names sorted.
func (s Snapshot) JSON() (string, error) {
	if s == nil {
		s = Snapshot{}
	}
	encoded, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode schema snapshot: %w", err)
	}
	return string(encoded), nil
}

// Tables returns the number of tables in the snapshot.
func (s Snapshot) Tables() int {
	return len(s)
}

type Introspector struct {
	dialect Dialect
	logger  *slog.Logger
}

func NewIntrospector(dialect Dialect, logger *slog.Logger) *Introspector {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Introspector{dialect: dialect, logger: logger}
}

func (i *Introspector) Dialect() string {
	return i.dialect.Name()
}

// Load enumerates every table and describes each one in its own round trip.
// Any failure aborts the whole load.
func (i *Introspector) Load(ctx context.Context, q Querier) (Snapshot, error) {
	if i.dialect == nil {
		return nil, fmt.Errorf("schema dialect is required")
	}
	tables, err := i.dialect.ListTables(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}

	snapshot := make(Snapshot, len(tables))
	for _, table := range tables {
		columns, err := i.dialect.DescribeTable(ctx, q, table)
		if err != nil {
			return nil, fmt.Errorf("describe table %s: %w", table, err)
		}
		snapshot[table] = columns
	}
	return snapshot, nil
}

// GetSchema is the fail-open variant of Load used by the pipeline: on error it
// logs, counts the failure and returns an empty snapshot, never a partial one.
func (i *Introspector) GetSchema(ctx context.Context, q Querier) Snapshot {
	start := time.Now()
	snapshot, err := i.Load(ctx, q)
	if err != nil {
		observability.IncrementSchemaUnavailable()
		observability.WithTrace(ctx, i.logger).WarnContext(ctx, "schema_unavailable",
			slog.String("dialect", i.Dialect()),
			slog.String("error", err.Error()),
		)
		return Snapshot{}
	}
	observability.WithTrace(ctx, i.logger).DebugContext(ctx, "schema_loaded",
		slog.Int("tables", snapshot.Tables()),
		slog.String("duration", time.Since(start).String()),
	)
	return snapshot
}
