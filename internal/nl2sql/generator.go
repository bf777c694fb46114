// Package nl2sql turns a business question plus a schema snapshot into a
// structured SQL generation result from a language model.
package nl2sql

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

type Request struct {
	System     string `json:"system"`
	Question   string `json:"question"`
	SchemaJSON string `json:"schema_json"`
}

type Result struct {
	SQL           string `json:"sql"`
	Explanation   string `json:"explanation"`
	Visualization string `json:"visualization"`
	Confidence    int    `json:"confidence"`
	Provider      string `json:"provider"`
	Model         string `json:"model"`
}

// Generator produces a Result for a composed Request. Implementations return
// *GenerationError for upstream failures and contract violations.
type Generator interface {
	Generate(ctx context.Context, req Request) (Result, error)
}

type Config struct {
	Provider    string
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	Timeout     time.Duration
}

func New(ctx context.Context, cfg Config) (Generator, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case ProviderOpenAI, "":
		return NewOpenAIGenerator(OpenAIConfig{
			BaseURL:     cfg.BaseURL,
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			Timeout:     cfg.Timeout,
		})
	case ProviderGemini:
		return NewGeminiGenerator(ctx, GeminiConfig{
			BaseURL:     cfg.BaseURL,
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			Timeout:     cfg.Timeout,
		})
	default:
		return nil, fmt.Errorf("unsupported ai provider %q", cfg.Provider)
	}
}
