// Package pipeline answers a business question end to end: introspect the
// schema, generate SQL, execute it and pick a chart.
package pipeline

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/querylens/querylens/internal/chart"
	"github.com/querylens/querylens/internal/nl2sql"
	"github.com/querylens/querylens/internal/observability"
	"github.com/querylens/querylens/internal/query"
	"github.com/querylens/querylens/internal/schema"
)

var ErrQuestionRequired = errors.New("question is required")

// ConnProvider hands out dedicated connections. *sql.DB satisfies it.
type ConnProvider interface {
	Conn(ctx context.Context) (*sql.Conn, error)
}

// Record is what gets archived for an answered question.
type Record struct {
	Question string
	AskedAt  time.Time
	Response Response
	Outcome  query.Outcome
}

// Archiver persists answered questions and returns the id stored in
// Response.AnswerID.
type Archiver interface {
	Archive(ctx context.Context, record Record) (string, error)
}

type Dependencies struct {
	DB           ConnProvider
	Introspector *schema.Introspector
	Generator    nl2sql.Generator
	Executor     query.Executor
	Selector     *chart.Selector
	Archiver     Archiver
	Logger       *slog.Logger
}

type Config struct {
	MaxConcurrent int
	SchemaTimeout time.Duration
}

type Service struct {
	deps          Dependencies
	slots         *semaphore.Weighted
	schemaTimeout time.Duration
	logger        *slog.Logger
}

func NewService(deps Dependencies, cfg Config) (*Service, error) {
	if deps.DB == nil {
		return nil, fmt.Errorf("database is required")
	}
	if deps.Introspector == nil {
		return nil, fmt.Errorf("schema introspector is required")
	}
	if deps.Generator == nil {
		return nil, fmt.Errorf("sql generator is required")
	}
	if deps.Executor == nil {
		return nil, fmt.Errorf("query executor is required")
	}
	if deps.Selector == nil {
		deps.Selector = chart.NewSelector(chart.DefaultRules())
	}
	logger := deps.Logger
	if logger == nil {
		logger = observability.NopLogger()
	}
	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &Service{
		deps:          deps,
		slots:         semaphore.NewWeighted(int64(maxConcurrent)),
		schemaTimeout: cfg.SchemaTimeout,
		logger:        logger,
	}, nil
}

// Ask runs the full pipeline for one question. Only generation failures and
// cancellation are returned as errors; execution problems are reported inside
// the Response.
func (s *Service) Ask(ctx context.Context, question string) (Response, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Response{}, ErrQuestionRequired
	}
	logger := observability.WithTrace(ctx, s.logger)

	if err := s.slots.Acquire(ctx, 1); err != nil {
		observability.ObservePipelineRequest("canceled")
		return Response{}, fmt.Errorf("wait for pipeline slot: %w", err)
	}
	observability.PipelineSlotAcquired()
	defer func() {
		s.slots.Release(1)
		observability.PipelineSlotReleased()
	}()

	var q query.Querier
	conn, err := s.deps.DB.Conn(ctx)
	if err != nil {
		logger.WarnContext(ctx, "database_connection_unavailable", slog.String("error", err.Error()))
		q = unavailableQuerier{err: err}
	} else {
		defer func() { _ = conn.Close() }()
		q = conn
	}

	start := time.Now()
	snapshot := s.loadSchema(ctx, q)
	s.stageDone(ctx, logger, "schema", start)

	req, err := nl2sql.BuildRequest(question, snapshot)
	if err != nil {
		return Response{}, err
	}

	start = time.Now()
	result, err := s.deps.Generator.Generate(ctx, req)
	s.stageDone(ctx, logger, "generate", start)
	if err != nil {
		if ctx.Err() != nil {
			observability.ObservePipelineRequest("canceled")
			return Response{}, fmt.Errorf("generate sql: %w", err)
		}
		provider, kind := "unknown", "unknown"
		var genErr *nl2sql.GenerationError
		if errors.As(err, &genErr) {
			provider, kind = genErr.Provider, string(genErr.Kind)
		}
		observability.IncrementGenerationError(provider, kind)
		observability.ObservePipelineRequest("generation_failed")
		logger.ErrorContext(ctx, "sql_generation_failed",
			slog.String("provider", provider),
			slog.String("kind", kind),
			slog.String("error", err.Error()),
		)
		return Response{}, fmt.Errorf("generate sql: %w", err)
	}
	observability.ObserveGenerationConfidence(result.Confidence)

	start = time.Now()
	outcome := s.deps.Executor.Execute(ctx, q, result.SQL)
	s.stageDone(ctx, logger, "execute", start)

	start = time.Now()
	var series *chart.Series
	if selected, ok := s.deps.Selector.Select(outcome); ok {
		series = &selected
		observability.ObserveChartSelection(string(selected.Type))
	} else {
		observability.ObserveChartSelection("")
	}
	s.stageDone(ctx, logger, "visualize", start)

	response := Assemble(result, outcome, series)
	if outcome.OK() {
		observability.ObservePipelineRequest("answered")
	} else {
		observability.ObservePipelineRequest("execution_failed")
	}

	if s.deps.Archiver != nil {
		start = time.Now()
		answerID, err := s.deps.Archiver.Archive(ctx, Record{
			Question: question,
			AskedAt:  time.Now().UTC(),
			Response: response,
			Outcome:  outcome,
		})
		s.stageDone(ctx, logger, "archive", start)
		if err != nil {
			observability.ObserveArchiveWrite("failed")
			logger.WarnContext(ctx, "answer_archive_failed", slog.String("error", err.Error()))
		} else {
			observability.ObserveArchiveWrite("stored")
			response.AnswerID = answerID
		}
	}
	return response, nil
}

func (s *Service) loadSchema(ctx context.Context, q schema.Querier) schema.Snapshot {
	if s.schemaTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.schemaTimeout)
		defer cancel()
	}
	return s.deps.Introspector.GetSchema(ctx, q)
}

// Schema loads a snapshot strictly, without the fail-open fallback.
func (s *Service) Schema(ctx context.Context) (schema.Snapshot, error) {
	conn, err := s.deps.DB.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire database connection: %w", err)
	}
	defer func() { _ = conn.Close() }()

	if s.schemaTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.schemaTimeout)
		defer cancel()
	}
	return s.deps.Introspector.Load(ctx, conn)
}

func (s *Service) stageDone(ctx context.Context, logger *slog.Logger, stage string, start time.Time) {
	elapsed := time.Since(start)
	observability.ObservePipelineStage(stage, elapsed)
	logger.DebugContext(ctx, "pipeline_stage_completed",
		slog.String("stage", stage),
		slog.String("duration", elapsed.String()),
	)
}

// unavailableQuerier stands in for a connection that could not be acquired so
// the degraded paths (empty schema, failed execution) still run.
type unavailableQuerier struct {
	err error
}

func (u unavailableQuerier) QueryContext(context.Context, string, ...any) (*sql.Rows, error) {
	return nil, u.err
}
