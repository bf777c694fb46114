package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/querylens/querylens/internal/examples"
	"github.com/querylens/querylens/internal/nl2sql"
	"github.com/querylens/querylens/internal/observability"
	"github.com/querylens/querylens/internal/pipeline"
)

type queryRequest struct {
	Question string `json:"question"`
}

func handleQuery(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	maxBytes := deps.MaxBodyBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxBodyBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	var request queryRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid query request body", false, err.Error())
		return
	}
	// Checked here so a blank question never reaches schema loading or the model.
	if strings.TrimSpace(request.Question) == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "QUESTION_REQUIRED", "Question is required", false, "")
		return
	}
	if deps.Pipeline == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "PIPELINE_NOT_CONFIGURED", "query pipeline is not configured", false, "")
		return
	}

	response, err := deps.Pipeline.Ask(r.Context(), request.Question)
	if err != nil {
		var genErr *nl2sql.GenerationError
		switch {
		case errors.Is(err, pipeline.ErrQuestionRequired):
			writeError(r.Context(), w, http.StatusBadRequest, "QUESTION_REQUIRED", "Question is required", false, "")
		case errors.As(err, &genErr):
			writeError(r.Context(), w, http.StatusInternalServerError, "GENERATION_FAILED", "Failed to process query", genErr.Kind == nl2sql.KindUpstream, err.Error())
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			writeError(r.Context(), w, http.StatusServiceUnavailable, "REQUEST_CANCELED", "Failed to process query", true, err.Error())
		default:
			observability.WithTrace(r.Context(), deps.Logger).ErrorContext(r.Context(), "query_failed",
				slog.String("error", err.Error()),
			)
			writeError(r.Context(), w, http.StatusInternalServerError, "QUERY_FAILED", "Failed to process query", false, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, response)
}

func handleSchema(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Pipeline == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "PIPELINE_NOT_CONFIGURED", "query pipeline is not configured", false, "")
		return
	}
	snapshot, err := deps.Pipeline.Schema(r.Context())
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "SCHEMA_FETCH_FAILED", "Failed to load schema", true, err.Error())
		return
	}
	if snapshot == nil {
		writeJSON(w, http.StatusOK, map[string]any{})
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func handleExampleQueries(deps Dependencies, w http.ResponseWriter, _ *http.Request) {
	queries := deps.Examples
	if len(queries) == 0 {
		queries = examples.Default()
	}
	writeJSON(w, http.StatusOK, queries)
}
