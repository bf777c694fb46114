package nl2sql

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

type GeminiConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	Timeout     time.Duration
}

// GeminiGenerator asks Gemini for a schema-constrained JSON reply.
type GeminiGenerator struct {
	client      *genai.Client
	model       string
	temperature float32
	timeout     time.Duration
}

func NewGeminiGenerator(ctx context.Context, cfg GeminiConfig) (*GeminiGenerator, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("api key is required")
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "gemini-2.5-flash"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL := strings.TrimSpace(cfg.BaseURL); baseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GeminiGenerator{
		client:      client,
		model:       model,
		temperature: float32(cfg.Temperature),
		timeout:     timeout,
	}, nil
}

func (g *GeminiGenerator) Generate(ctx context.Context, req Request) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	contents := []*genai.Content{
		genai.NewContentFromText(req.Question, genai.RoleUser),
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(req.System, genai.RoleUser),
		Temperature:       genai.Ptr(g.temperature),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    resultSchema(),
	})
	if err != nil {
		return Result{}, upstreamError(ProviderGemini, fmt.Errorf("generate content: %w", err))
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return Result{}, malformedError(ProviderGemini, fmt.Errorf("empty candidates"))
	}

	result, err := ParseResult(resp.Text())
	if err != nil {
		return Result{}, malformedError(ProviderGemini, err)
	}
	result.Provider = ProviderGemini
	result.Model = g.model
	return result, nil
}

func resultSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"sql":           {Type: genai.TypeString, Description: "The SQL query to be executed"},
			"explanation":   {Type: genai.TypeString, Description: "What the query is looking for"},
			"visualization": {Type: genai.TypeString, Enum: []string{"bar", "line", "pie", "area"}},
			"confidence":    {Type: genai.TypeInteger, Description: "0-100 confidence in the translation"},
		},
		Required:         []string{"sql", "explanation", "visualization", "confidence"},
		PropertyOrdering: []string{"sql", "explanation", "visualization", "confidence"},
	}
}
