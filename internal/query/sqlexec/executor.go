// Package sqlexec runs generated SQL against a live database connection.
package sqlexec

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/marcboeker/go-duckdb/v2"

	"github.com/querylens/querylens/internal/observability"
	"github.com/querylens/querylens/internal/query"
)

type Config struct {
	ReadOnly     bool
	QueryTimeout time.Duration
	MaxRows      int
}

type Executor struct {
	guard   Guard
	timeout time.Duration
	maxRows int
	logger  *slog.Logger
}

var _ query.Executor = (*Executor)(nil)

func New(cfg Config, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Executor{
		guard:   Guard{ReadOnly: cfg.ReadOnly},
		timeout: cfg.QueryTimeout,
		maxRows: cfg.MaxRows,
		logger:  logger,
	}
}

// Execute runs sqlText as one autocommit statement. Every problem, including
// guard rejections, is reported as a Failure outcome.
func (e *Executor) Execute(ctx context.Context, q query.Querier, sqlText string) query.Outcome {
	statement, err := e.guard.Check(sqlText)
	if err != nil {
		return e.fail(ctx, sqlText, query.FailureRejected, err)
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	start := time.Now()
	success, err := e.runGuarded(ctx, q, statement)
	if err != nil {
		kind := classify(err)
		if ctx.Err() != nil && kind == query.FailureUnknown {
			kind = classify(ctx.Err())
		}
		return e.fail(ctx, sqlText, kind, err)
	}
	success.Duration = time.Since(start)

	observability.WithTrace(ctx, e.logger).DebugContext(ctx, "sql_executed",
		slog.Int("rows", len(success.Rows)),
		slog.Bool("truncated", success.Truncated),
		slog.String("duration", success.Duration.String()),
	)
	return query.Succeeded(sqlText, success)
}

// txBeginner is implemented by *sql.DB and *sql.Conn.
type txBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// runGuarded runs read-only statements inside a transaction that is always
// rolled back, so a write the lexical guard missed never persists.
func (e *Executor) runGuarded(ctx context.Context, q query.Querier, statement string) (query.Success, error) {
	beginner, ok := q.(txBeginner)
	if !e.guard.ReadOnly || !ok {
		return e.run(ctx, q, statement)
	}
	tx, err := beginner.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		// DuckDB refuses read-only transactions; the rollback still discards writes.
		tx, err = beginner.BeginTx(ctx, nil)
		if err != nil {
			return query.Success{}, fmt.Errorf("begin read-only transaction: %w", err)
		}
	}
	defer func() { _ = tx.Rollback() }()
	return e.run(ctx, tx, statement)
}

func (e *Executor) run(ctx context.Context, q query.Querier, statement string) (query.Success, error) {
	rows, err := q.QueryContext(ctx, statement)
	if err != nil {
		return query.Success{}, err
	}
	defer func() { _ = rows.Close() }()

	names, err := rows.Columns()
	if err != nil {
		return query.Success{}, fmt.Errorf("query columns: %w", err)
	}
	columns := uniqueColumnNames(names)
	decimals := decimalColumns(rows, len(columns))

	resultRows := make([]query.Row, 0)
	truncated := false
	for rows.Next() {
		if e.maxRows > 0 && len(resultRows) >= e.maxRows {
			truncated = true
			break
		}
		values := make([]any, len(columns))
		scanTargets := make([]any, len(columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return query.Success{}, fmt.Errorf("scan row: %w", err)
		}
		row := make(query.Row, len(columns))
		for i, value := range values {
			row[columns[i]] = normalizeValue(value, decimals[i])
		}
		resultRows = append(resultRows, row)
	}
	if err := rows.Err(); err != nil {
		return query.Success{}, fmt.Errorf("iterate rows: %w", err)
	}

	return query.Success{
		Columns:   columns,
		Rows:      resultRows,
		Truncated: truncated,
	}, nil
}

func (e *Executor) fail(ctx context.Context, sqlText string, kind query.FailureKind, err error) query.Outcome {
	observability.IncrementExecutionFailure(kind.String())
	observability.WithTrace(ctx, e.logger).WarnContext(ctx, "sql_execution_failed",
		slog.String("kind", kind.String()),
		slog.String("error", err.Error()),
	)
	message := err.Error()
	if kind == query.FailureTimeout && e.timeout > 0 && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		message = fmt.Sprintf("query exceeded %s timeout", e.timeout)
	}
	return query.Failed(sqlText, kind, message)
}

// uniqueColumnNames keeps the first occurrence of a name and suffixes later
// ones (id, id_2, id_3) so row maps never drop a value.
func uniqueColumnNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		seen[name] = struct{}{}
	}
	used := make(map[string]struct{}, len(names))
	unique := make([]string, len(names))
	for i, name := range names {
		candidate := name
		if _, taken := used[candidate]; taken {
			for n := 2; ; n++ {
				candidate = name + "_" + strconv.Itoa(n)
				_, inUse := used[candidate]
				_, reserved := seen[candidate]
				if !inUse && !reserved {
					break
				}
			}
		}
		used[candidate] = struct{}{}
		unique[i] = candidate
	}
	return unique
}

func decimalColumns(rows *sql.Rows, count int) []bool {
	decimals := make([]bool, count)
	types, err := rows.ColumnTypes()
	if err != nil || len(types) != count {
		return decimals
	}
	for i, columnType := range types {
		name := strings.ToUpper(columnType.DatabaseTypeName())
		decimals[i] = strings.HasPrefix(name, "DECIMAL") || strings.HasPrefix(name, "NUMERIC") || name == "NEWDECIMAL"
	}
	return decimals
}

// normalizeValue maps driver values onto the JSON friendly set the chart and
// payload understand. Non-finite floats become nil.
func normalizeValue(value any, decimal bool) any {
	switch typed := value.(type) {
	case []byte:
		return normalizeText(string(typed), decimal)
	case string:
		return normalizeText(typed, decimal)
	case float64:
		return finiteOrNil(typed)
	case float32:
		return finiteOrNil(float64(typed))
	case *big.Int:
		if typed == nil {
			return nil
		}
		if typed.IsInt64() {
			return typed.Int64()
		}
		f, _ := new(big.Float).SetInt(typed).Float64()
		return finiteOrNil(f)
	case duckdb.Decimal:
		if typed.Value == nil {
			return nil
		}
		return finiteOrNil(typed.Float64())
	default:
		return typed
	}
}

func normalizeText(text string, decimal bool) any {
	if !decimal {
		return text
	}
	parsed, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return text
	}
	return finiteOrNil(parsed)
}

func finiteOrNil(f float64) any {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return f
}
