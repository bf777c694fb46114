// Package query defines the outcome of running one generated statement.
package query

import (
	"context"
	"database/sql"
	"time"
)

// Querier is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Executor runs a statement and always reports an Outcome; execution problems
// are described by a Failure rather than a returned error.
type Executor interface {
	Execute(ctx context.Context, q Querier, sqlText string) Outcome
}

type Row map[string]any

type Success struct {
	Columns   []string
	Rows      []Row
	Truncated bool
	Duration  time.Duration
}

type FailureKind int

const (
	FailureUnknown FailureKind = iota
	FailureRejected
	FailureSyntax
	FailurePermission
	FailureMissingObject
	FailureTimeout
	FailureCanceled
	FailureConnection
)

func (k FailureKind) String() string {
	switch k {
	case FailureRejected:
		return "rejected"
	case FailureSyntax:
		return "syntax"
	case FailurePermission:
		return "permission"
	case FailureMissingObject:
		return "missing_object"
	case FailureTimeout:
		return "timeout"
	case FailureCanceled:
		return "canceled"
	case FailureConnection:
		return "connection"
	default:
		return "unknown"
	}
}

type Failure struct {
	Kind    FailureKind
	Message string
}

// Outcome holds exactly one of Success or Failure.
type Outcome struct {
	SQL     string
	Success *Success
	Failure *Failure
}

func Succeeded(sqlText string, success Success) Outcome {
	return Outcome{SQL: sqlText, Success: &success}
}

func Failed(sqlText string, kind FailureKind, message string) Outcome {
	return Outcome{SQL: sqlText, Failure: &Failure{Kind: kind, Message: message}}
}

func (o Outcome) OK() bool {
	return o.Success != nil && o.Failure == nil
}

// RowCount is zero for failures.
func (o Outcome) RowCount() int {
	if !o.OK() {
		return 0
	}
	return len(o.Success.Rows)
}
