package sqlexec

import (
	"context"
	"database/sql/driver"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/querylens/querylens/internal/query"
)

var mysqlFailureKinds = map[uint16]query.FailureKind{
	1064: query.FailureSyntax,
	1149: query.FailureSyntax,
	1044: query.FailurePermission,
	1045: query.FailurePermission,
	1142: query.FailurePermission,
	1143: query.FailurePermission,
	1227: query.FailurePermission,
	1370: query.FailurePermission,
	1046: query.FailureMissingObject,
	1049: query.FailureMissingObject,
	1054: query.FailureMissingObject,
	1146: query.FailureMissingObject,
	1317: query.FailureTimeout,
	3024: query.FailureTimeout,
}

var postgresFailureKinds = map[string]query.FailureKind{
	"42601": query.FailureSyntax,
	"42501": query.FailurePermission,
	"42P01": query.FailureMissingObject,
	"42703": query.FailureMissingObject,
	"42883": query.FailureMissingObject,
	"57014": query.FailureTimeout,
}

// classify maps a driver error onto a FailureKind.
func classify(err error) query.FailureKind {
	switch {
	case err == nil:
		return query.FailureUnknown
	case errors.Is(err, context.DeadlineExceeded):
		return query.FailureTimeout
	case errors.Is(err, context.Canceled):
		return query.FailureCanceled
	case errors.Is(err, driver.ErrBadConn), errors.Is(err, mysql.ErrInvalidConn):
		return query.FailureConnection
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		if kind, ok := mysqlFailureKinds[mysqlErr.Number]; ok {
			return kind
		}
		return query.FailureUnknown
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if kind, ok := postgresFailureKinds[pgErr.Code]; ok {
			return kind
		}
		if strings.HasPrefix(pgErr.Code, "08") {
			return query.FailureConnection
		}
		return query.FailureUnknown
	}

	// SQLite and DuckDB report failures as plain messages.
	message := strings.ToLower(err.Error())
	switch {
	case strings.Contains(message, "syntax error"), strings.Contains(message, "parser error"):
		return query.FailureSyntax
	case strings.Contains(message, "no such table"), strings.Contains(message, "no such column"),
		strings.Contains(message, "catalog error"), strings.Contains(message, "binder error"):
		return query.FailureMissingObject
	case strings.Contains(message, "permission denied"), strings.Contains(message, "access denied"),
		strings.Contains(message, "readonly database"), strings.Contains(message, "read-only"):
		return query.FailurePermission
	case strings.Contains(message, "interrupted"):
		return query.FailureTimeout
	case strings.Contains(message, "connection refused"), strings.Contains(message, "bad connection"),
		strings.Contains(message, "broken pipe"), strings.Contains(message, "database is closed"):
		return query.FailureConnection
	default:
		return query.FailureUnknown
	}
}
