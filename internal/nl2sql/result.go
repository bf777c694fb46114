package nl2sql

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	ErrMissingField = errors.New("missing field")
	ErrInvalidField = errors.New("invalid field")
)

const defaultVisualization = "bar"

var allowedVisualizations = map[string]struct{}{
	"bar":  {},
	"line": {},
	"pie":  {},
	"area": {},
}

// ParseResult validates a model reply against the four-field contract.
// Provider and Model are left for the caller to fill in.
func ParseResult(content string) (Result, error) {
	body := stripMarkdownFence(content)
	if body == "" {
		return Result{}, fmt.Errorf("empty reply")
	}

	decoder := json.NewDecoder(strings.NewReader(body))
	decoder.UseNumber()
	var fields map[string]json.RawMessage
	if err := decoder.Decode(&fields); err != nil {
		return Result{}, fmt.Errorf("decode reply: %w", err)
	}

	for _, name := range []string{"sql", "explanation", "visualization", "confidence"} {
		raw, ok := fields[name]
		if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			return Result{}, fmt.Errorf("%w: %s", ErrMissingField, name)
		}
	}

	var result Result
	if err := json.Unmarshal(fields["sql"], &result.SQL); err != nil {
		return Result{}, fmt.Errorf("%w: sql must be a string", ErrInvalidField)
	}
	result.SQL = stripMarkdownFence(result.SQL)
	if result.SQL == "" {
		return Result{}, fmt.Errorf("%w: sql is empty", ErrInvalidField)
	}
	if err := json.Unmarshal(fields["explanation"], &result.Explanation); err != nil {
		return Result{}, fmt.Errorf("%w: explanation must be a string", ErrInvalidField)
	}

	var visualization string
	if err := json.Unmarshal(fields["visualization"], &visualization); err != nil {
		return Result{}, fmt.Errorf("%w: visualization must be a string", ErrInvalidField)
	}
	result.Visualization = normalizeVisualization(visualization)

	confidence, err := parseConfidence(fields["confidence"])
	if err != nil {
		return Result{}, err
	}
	result.Confidence = confidence
	return result, nil
}

func normalizeVisualization(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if _, ok := allowedVisualizations[value]; ok {
		return value
	}
	return defaultVisualization
}

// parseConfidence accepts a JSON number or a numeric string, rounds it and
// clamps it to 0..100.
func parseConfidence(raw json.RawMessage) (int, error) {
	var text string
	var number json.Number
	switch {
	case json.Unmarshal(raw, &number) == nil:
		text = number.String()
	case json.Unmarshal(raw, &text) == nil:
		text = strings.TrimSuffix(strings.TrimSpace(text), "%")
	default:
		return 0, fmt.Errorf("%w: confidence must be a number", ErrInvalidField)
	}

	value, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("%w: confidence must be a number", ErrInvalidField)
	}
	value = math.Round(value)
	switch {
	case value < 0:
		return 0, nil
	case value > 100:
		return 100, nil
	default:
		return int(value), nil
	}
}

func stripMarkdownFence(value string) string {
	trimmed := strings.TrimSpace(value)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if newline := strings.IndexByte(trimmed, '\n'); newline >= 0 && !strings.ContainsAny(trimmed[:newline], "{ ") {
		trimmed = trimmed[newline+1:]
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
