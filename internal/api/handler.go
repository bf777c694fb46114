// Package api exposes the question answering pipeline over HTTP.
package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/querylens/querylens/internal/auth"
	"github.com/querylens/querylens/internal/config"
	"github.com/querylens/querylens/internal/observability"
	"github.com/querylens/querylens/internal/pipeline"
	"github.com/querylens/querylens/internal/schema"
)

type ReadinessCheck func(ctx context.Context) error

// Pipeline is the part of pipeline.Service the handlers use.
type Pipeline interface {
	Ask(ctx context.Context, question string) (pipeline.Response, error)
	Schema(ctx context.Context) (schema.Snapshot, error)
}

type Dependencies struct {
	Logger            *slog.Logger
	Readiness         ReadinessCheck
	AuthMiddleware    func(http.Handler) http.Handler
	DependencyTimeout time.Duration
	Pipeline          Pipeline
	Examples          []string
	MaxBodyBytes      int64
}

const defaultMaxBodyBytes = 64 << 10

func NewHandler(cfg config.Config, deps Dependencies) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "service": cfg.Service.Name})
	})

	mux.HandleFunc("GET /v1/ready", func(w http.ResponseWriter, r *http.Request) {
		if deps.Readiness == nil {
			writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
			return
		}
		timeout := deps.DependencyTimeout
		if timeout <= 0 {
			timeout = 2 * time.Second
		}
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()
		if err := deps.Readiness(ctx); err != nil {
			writeError(r.Context(), w, http.StatusServiceUnavailable, "NOT_READY", err.Error(), true, "")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
	})

	mux.Handle("GET /v1/metrics", promhttp.Handler())

	protected := http.NewServeMux()
	protected.Handle("POST /api/query", auth.RequireRole(auth.RoleAnalyst, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handleQuery(deps, w, r)
	})))
	protected.Handle("GET /api/schema", auth.RequireRole(auth.RoleAnalyst, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handleSchema(deps, w, r)
	})))
	protected.HandleFunc("GET /api/example-queries", func(w http.ResponseWriter, r *http.Request) {
		handleExampleQueries(deps, w, r)
	})

	var protectedHandler http.Handler = protected
	if cfg.Auth.Required {
		if deps.AuthMiddleware == nil {
			if deps.Logger != nil {
				deps.Logger.Error("auth required but auth middleware missing")
			}
			protectedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeError(r.Context(), w, http.StatusInternalServerError, "AUTH_MIDDLEWARE_MISSING", "auth middleware is required by configuration", false, "")
			})
		} else {
			protectedHandler = deps.AuthMiddleware(protectedHandler)
		}
	}
	mux.Handle("POST /api/query", protectedHandler)
	mux.Handle("GET /api/schema", protectedHandler)
	mux.Handle("GET /api/example-queries", protectedHandler)

	middlewares := []func(http.Handler) http.Handler{
		observability.TraceMiddleware,
		observability.MetricsMiddleware,
	}
	if deps.Logger != nil {
		middlewares = append(middlewares, observability.LoggingMiddleware(deps.Logger))
	}
	if origins := cfg.CORS.Origins(); len(origins) > 0 {
		middlewares = append(middlewares, observability.CORSMiddleware(origins))
	}
	return chain(mux, middlewares...)
}

// CheckDatabase pings the shared pool.
func CheckDatabase(db *sql.DB) ReadinessCheck {
	return func(ctx context.Context) error {
		return db.PingContext(ctx)
	}
}

func CombineReadinessChecks(checks ...ReadinessCheck) ReadinessCheck {
	filtered := make([]ReadinessCheck, 0, len(checks))
	for _, check := range checks {
		if check != nil {
			filtered = append(filtered, check)
		}
	}
	return func(ctx context.Context) error {
		for _, check := range filtered {
			if err := check(ctx); err != nil {
				return err
			}
		}
		return nil
	}
}

func chain(base http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	wrapped := base
	for i := len(middlewares) - 1; i >= 0; i-- {
		wrapped = middlewares[i](wrapped)
	}
	return wrapped
}

// writeJSON encodes before writing the header so an unencodable payload
// becomes a 500 instead of an empty 200.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		status = http.StatusInternalServerError
		body = []byte(`{"error":"Failed to encode response","error_code":"ENCODE_FAILED","retryable":false}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

func writeError(ctx context.Context, w http.ResponseWriter, status int, code, message string, retryable bool, details string) {
	body := map[string]any{
		"error":      message,
		"error_code": code,
		"retryable":  retryable,
		"trace_id":   observability.TraceIDFromContext(ctx),
	}
	if details != "" {
		body["details"] = details
	}
	writeJSON(w, status, body)
}
