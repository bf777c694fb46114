// Package archive writes answered questions to an object store: the response
// payload as JSON and, for successful queries, the result cells as Parquet.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/querylens/querylens/internal/pipeline"
	"github.com/querylens/querylens/internal/query"
	"github.com/querylens/querylens/internal/storage"
)

type Options struct {
	// Timeout bounds all writes for one answer. Zero means no extra bound.
	Timeout time.Duration
	NewID   func() string
}

type Archiver struct {
	store   storage.ObjectStore
	timeout time.Duration
	newID   func() string
}

func New(store storage.ObjectStore, opts Options) (*Archiver, error) {
	if store == nil {
		return nil, fmt.Errorf("object store is required")
	}
	newID := opts.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	return &Archiver{store: store, timeout: opts.Timeout, newID: newID}, nil
}

type document struct {
	AnswerID  string            `json:"answerId"`
	Question  string            `json:"question"`
	AskedAt   time.Time         `json:"askedAt"`
	SQL       string            `json:"sql"`
	Failure   *failure          `json:"failure,omitempty"`
	Truncated bool              `json:"truncated"`
	Response  pipeline.Response `json:"response"`
}

type failure struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Archive stores record and returns its answer id. The parquet object is only
// written for successful outcomes.
func (a *Archiver) Archive(ctx context.Context, record pipeline.Record) (string, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	answerID := a.newID()
	askedAt := record.AskedAt
	if askedAt.IsZero() {
		askedAt = time.Now().UTC()
	}

	doc := document{
		AnswerID: answerID,
		Question: record.Question,
		AskedAt:  askedAt.UTC(),
		SQL:      record.Outcome.SQL,
		Response: record.Response,
	}
	doc.Response.AnswerID = answerID
	if record.Outcome.Failure != nil {
		doc.Failure = &failure{Kind: record.Outcome.Failure.Kind.String(), Message: record.Outcome.Failure.Message}
	}
	if record.Outcome.Success != nil {
		doc.Truncated = record.Outcome.Success.Truncated
	}

	payload, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshal answer document: %w", err)
	}
	meta := map[string]string{"answer-id": answerID, "outcome": outcomeLabel(record.Outcome)}
	if err := a.put(ctx, askedAt, answerID, storage.ExtJSON, payload, meta); err != nil {
		return "", err
	}

	if record.Outcome.OK() {
		cells, err := EncodeCells(*record.Outcome.Success)
		if err != nil {
			return "", err
		}
		if err := a.put(ctx, askedAt, answerID, storage.ExtParquet, cells, meta); err != nil {
			return "", err
		}
	}
	return answerID, nil
}

func (a *Archiver) put(ctx context.Context, askedAt time.Time, answerID, ext string, body []byte, meta map[string]string) error {
	key, err := storage.BuildAnswerPath(askedAt, answerID, ext)
	if err != nil {
		return err
	}
	opts := storage.PutOptions{ContentType: storage.ContentTypeFor(ext), Metadata: meta}
	if _, err := a.store.Put(ctx, key, bytes.NewReader(body), int64(len(body)), opts); err != nil {
		return fmt.Errorf("archive %s: %w", ext, err)
	}
	return nil
}

func outcomeLabel(outcome query.Outcome) string {
	if outcome.Failure != nil {
		return outcome.Failure.Kind.String()
	}
	return "ok"
}
