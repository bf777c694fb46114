package nl2sql

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultOpenAIBaseURL = "https://api.openai.com"

type OpenAIConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	Timeout     time.Duration
}

// OpenAIGenerator talks to any OpenAI-compatible chat completions endpoint in
// JSON mode.
type OpenAIGenerator struct {
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	client      *http.Client
}

func NewOpenAIGenerator(cfg OpenAIConfig) (*OpenAIGenerator, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("api key is required")
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "gpt-4o"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &OpenAIGenerator{
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiKey:      strings.TrimSpace(cfg.APIKey),
		model:       model,
		temperature: cfg.Temperature,
		client:      &http.Client{Timeout: timeout},
	}, nil
}

func (g *OpenAIGenerator) Generate(ctx context.Context, req Request) (Result, error) {
	body, err := json.Marshal(buildOpenAIPayload(g.model, g.temperature, req))
	if err != nil {
		return Result{}, upstreamError(ProviderOpenAI, fmt.Errorf("marshal chat payload: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return Result{}, upstreamError(ProviderOpenAI, fmt.Errorf("build chat request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return Result{}, upstreamError(ProviderOpenAI, fmt.Errorf("request chat completion: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	rawRespBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, upstreamError(ProviderOpenAI, fmt.Errorf("read chat response body: %w", err))
	}
	if resp.StatusCode >= 400 {
		return Result{}, upstreamError(ProviderOpenAI, fmt.Errorf("chat completion failed status=%d body=%s", resp.StatusCode, string(rawRespBody)))
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(rawRespBody, &parsed); err != nil {
		return Result{}, upstreamError(ProviderOpenAI, fmt.Errorf("decode chat completion response: %w", err))
	}
	if len(parsed.Choices) == 0 {
		return Result{}, malformedError(ProviderOpenAI, fmt.Errorf("empty chat completion choices"))
	}

	result, err := ParseResult(parsed.Choices[0].Message.Content)
	if err != nil {
		return Result{}, malformedError(ProviderOpenAI, err)
	}
	result.Provider = ProviderOpenAI
	result.Model = g.model
	return result, nil
}

func buildOpenAIPayload(model string, temperature float64, req Request) map[string]any {
	return map[string]any{
		"model": model,
		"messages": []map[string]string{
			{"role": "system", "content": req.System},
			{"role": "user", "content": req.Question},
		},
		"temperature":     temperature,
		"response_format": map[string]string{"type": "json_object"},
	}
}
