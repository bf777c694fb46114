package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoadDefaultsForDevProfile(t *testing.T) {
	lookup := mapLookup(map[string]string{})
	cfg, err := Load("querylens-api", lookup)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Profile != ProfileDev {
		t.Fatalf("Profile = %q, want %q", cfg.Profile, ProfileDev)
	}
	if cfg.HTTP.Address != ":3001" {
		t.Fatalf("HTTP.Address = %q", cfg.HTTP.Address)
	}
	if cfg.Observability.LogLevel != slog.LevelDebug {
		t.Fatalf("LogLevel = %v", cfg.Observability.LogLevel)
	}
	if cfg.Auth.Required {
		t.Fatal("Auth.Required should default to false in dev")
	}
	if cfg.Database.Driver != "mysql" {
		t.Fatalf("Database.Driver = %q", cfg.Database.Driver)
	}
	if cfg.Database.MaxOpenConns != 10 {
		t.Fatalf("Database.MaxOpenConns = %d", cfg.Database.MaxOpenConns)
	}
	if cfg.AI.Provider != "openai" {
		t.Fatalf("AI.Provider = %q", cfg.AI.Provider)
	}
	if cfg.AI.Model != "gpt-4o" {
		t.Fatalf("AI.Model = %q", cfg.AI.Model)
	}
	if !cfg.Pipeline.ReadOnly {
		t.Fatal("Pipeline.ReadOnly should default to true")
	}
	if cfg.Pipeline.MaxRows != 1000 {
		t.Fatalf("Pipeline.MaxRows = %d", cfg.Pipeline.MaxRows)
	}
	if cfg.Pipeline.QueryTimeout != 20*time.Second {
		t.Fatalf("Pipeline.QueryTimeout = %s", cfg.Pipeline.QueryTimeout)
	}
	if cfg.Archive.Enabled {
		t.Fatal("Archive.Enabled should default to false")
	}
	if got := cfg.CORS.Origins(); len(got) != 1 || got[0] != "*" {
		t.Fatalf("CORS.Origins() = %#v", got)
	}
}

func TestLoadProdProfileDefaults(t *testing.T) {
	lookup := mapLookup(map[string]string{"QUERYLENS_PROFILE": "prod"})
	cfg, err := Load("querylens-api", lookup)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Profile != ProfileProd {
		t.Fatalf("Profile = %q, want %q", cfg.Profile, ProfileProd)
	}
	if !cfg.Auth.Required {
		t.Fatal("Auth.Required should default to true in prod")
	}
	if cfg.Observability.LogLevel != slog.LevelInfo {
		t.Fatalf("LogLevel = %v", cfg.Observability.LogLevel)
	}
	if !cfg.Archive.UseSSL {
		t.Fatal("Archive.UseSSL should default to true in prod")
	}
	if cfg.Archive.AutoCreateBucket {
		t.Fatal("Archive.AutoCreateBucket should default to false in prod")
	}
	if len(cfg.CORS.Origins()) != 0 {
		t.Fatalf("CORS.Origins() = %#v, want none", cfg.CORS.Origins())
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	lookup := mapLookup(map[string]string{
		"QUERYLENS_PROFILE":                 "test",
		"QUERYLENS_SERVICE_NAME":            "querylens-custom",
		"QUERYLENS_HTTP_ADDR":               ":9999",
		"QUERYLENS_HTTP_READ_TIMEOUT":       "2s",
		"QUERYLENS_HTTP_WRITE_TIMEOUT":      "3s",
		"QUERYLENS_LOG_LEVEL":               "error",
		"QUERYLENS_AUTH_REQUIRED":           "true",
		"QUERYLENS_AUTH_STATIC_KEYS":        "k1:alice:analyst",
		"QUERYLENS_DB_DRIVER":               "Postgres",
		"QUERYLENS_DB_DSN":                  "postgres://example",
		"QUERYLENS_DB_MAX_OPEN_CONNS":       "42",
		"QUERYLENS_DB_MAX_IDLE_CONNS":       "17",
		"QUERYLENS_AI_PROVIDER":             "gemini",
		"QUERYLENS_AI_BASE_URL":             "https://api.example.com",
		"QUERYLENS_AI_API_KEY":              "secret-key",
		"QUERYLENS_AI_MODEL":                "gemini-2.5-flash",
		"QUERYLENS_AI_TEMPERATURE":          "0.3",
		"QUERYLENS_AI_TIMEOUT":              "21s",
		"QUERYLENS_PIPELINE_MAX_CONCURRENT": "4",
		"QUERYLENS_PIPELINE_SCHEMA_TIMEOUT": "4s",
		"QUERYLENS_PIPELINE_QUERY_TIMEOUT":  "9s",
		"QUERYLENS_PIPELINE_MAX_ROWS":       "0",
		"QUERYLENS_PIPELINE_READ_ONLY":      "false",
		"QUERYLENS_ARCHIVE_ENABLED":         "true",
		"QUERYLENS_ARCHIVE_ENDPOINT":        "s3.example.com",
		"QUERYLENS_ARCHIVE_BUCKET":          "answers",
		"QUERYLENS_ARCHIVE_PREFIX":          "prod",
		"QUERYLENS_ARCHIVE_USE_SSL":         "true",
		"QUERYLENS_EXAMPLES_FILE":           "/etc/querylens/examples.yaml",
		"QUERYLENS_CORS_ALLOWED_ORIGINS":    "http://localhost:8080, https://app.example.com",
	})
	cfg, err := Load("querylens-api", lookup)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Service.Name != "querylens-custom" {
		t.Fatalf("Service.Name = %q", cfg.Service.Name)
	}
	if cfg.HTTP.Address != ":9999" {
		t.Fatalf("HTTP.Address = %q", cfg.HTTP.Address)
	}
	if cfg.HTTP.ReadTimeout != 2*time.Second {
		t.Fatalf("HTTP.ReadTimeout = %s", cfg.HTTP.ReadTimeout)
	}
	if cfg.HTTP.WriteTimeout != 3*time.Second {
		t.Fatalf("HTTP.WriteTimeout = %s", cfg.HTTP.WriteTimeout)
	}
	if cfg.Observability.LogLevel != slog.LevelError {
		t.Fatalf("LogLevel = %v", cfg.Observability.LogLevel)
	}
	if !cfg.Auth.Required {
		t.Fatal("Auth.Required = false, want true")
	}
	if cfg.Auth.StaticKeys != "k1:alice:analyst" {
		t.Fatalf("StaticKeys = %q", cfg.Auth.StaticKeys)
	}
	if cfg.Database.Driver != "postgres" {
		t.Fatalf("Database.Driver = %q", cfg.Database.Driver)
	}
	if cfg.Database.DSN != "postgres://example" {
		t.Fatalf("Database.DSN = %q", cfg.Database.DSN)
	}
	if cfg.Database.MaxOpenConns != 42 {
		t.Fatalf("Database.MaxOpenConns = %d", cfg.Database.MaxOpenConns)
	}
	if cfg.Database.MaxIdleConns != 17 {
		t.Fatalf("Database.MaxIdleConns = %d", cfg.Database.MaxIdleConns)
	}
	if cfg.AI.Provider != "gemini" {
		t.Fatalf("AI.Provider = %q", cfg.AI.Provider)
	}
	if cfg.AI.BaseURL != "https://api.example.com" {
		t.Fatalf("AI.BaseURL = %q", cfg.AI.BaseURL)
	}
	if cfg.AI.APIKey != "secret-key" {
		t.Fatalf("AI.APIKey = %q", cfg.AI.APIKey)
	}
	if cfg.AI.Model != "gemini-2.5-flash" {
		t.Fatalf("AI.Model = %q", cfg.AI.Model)
	}
	if cfg.AI.Temperature != 0.3 {
		t.Fatalf("AI.Temperature = %f", cfg.AI.Temperature)
	}
	if cfg.AI.Timeout != 21*time.Second {
		t.Fatalf("AI.Timeout = %s", cfg.AI.Timeout)
	}
	if cfg.Pipeline.MaxConcurrent != 4 {
		t.Fatalf("Pipeline.MaxConcurrent = %d", cfg.Pipeline.MaxConcurrent)
	}
	if cfg.Pipeline.SchemaTimeout != 4*time.Second {
		t.Fatalf("Pipeline.SchemaTimeout = %s", cfg.Pipeline.SchemaTimeout)
	}
	if cfg.Pipeline.QueryTimeout != 9*time.Second {
		t.Fatalf("Pipeline.QueryTimeout = %s", cfg.Pipeline.QueryTimeout)
	}
	if cfg.Pipeline.MaxRows != 0 {
		t.Fatalf("Pipeline.MaxRows = %d", cfg.Pipeline.MaxRows)
	}
	if cfg.Pipeline.ReadOnly {
		t.Fatal("Pipeline.ReadOnly = true, want false")
	}
	if !cfg.Archive.Enabled {
		t.Fatal("Archive.Enabled = false, want true")
	}
	if cfg.Archive.Endpoint != "s3.example.com" {
		t.Fatalf("Archive.Endpoint = %q", cfg.Archive.Endpoint)
	}
	if cfg.Archive.Bucket != "answers" {
		t.Fatalf("Archive.Bucket = %q", cfg.Archive.Bucket)
	}
	if cfg.Archive.Prefix != "prod" {
		t.Fatalf("Archive.Prefix = %q", cfg.Archive.Prefix)
	}
	if !cfg.Archive.UseSSL {
		t.Fatal("Archive.UseSSL = false, want true")
	}
	if cfg.Examples.File != "/etc/querylens/examples.yaml" {
		t.Fatalf("Examples.File = %q", cfg.Examples.File)
	}
	origins := cfg.CORS.Origins()
	if len(origins) != 2 || origins[0] != "http://localhost:8080" || origins[1] != "https://app.example.com" {
		t.Fatalf("CORS.Origins() = %#v", origins)
	}
}

func TestLoadGeminiDefaultsModel(t *testing.T) {
	cfg, err := Load("querylens-api", mapLookup(map[string]string{"QUERYLENS_AI_PROVIDER": "gemini"}))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.AI.Model != "gemini-2.5-flash" {
		t.Fatalf("AI.Model = %q", cfg.AI.Model)
	}
}

func TestLoadErrorsOnInvalidValues(t *testing.T) {
	tests := []map[string]string{
		{"QUERYLENS_PROFILE": "oops"},
		{"QUERYLENS_HTTP_READ_TIMEOUT": "NaN"},
		{"QUERYLENS_DB_MAX_OPEN_CONNS": "oops"},
		{"QUERYLENS_DB_DRIVER": "oracle"},
		{"QUERYLENS_AI_PROVIDER": "mystery"},
		{"QUERYLENS_AI_TEMPERATURE": "bad"},
		{"QUERYLENS_PIPELINE_MAX_CONCURRENT": "0"},
		{"QUERYLENS_PIPELINE_MAX_ROWS": "-1"},
		{"QUERYLENS_PIPELINE_READ_ONLY": "maybe"},
		{"QUERYLENS_AUTH_REQUIRED": "not-bool"},
		{"QUERYLENS_LOG_LEVEL": "verbose"},
	}
	for _, env := range tests {
		_, err := Load("querylens-api", mapLookup(env))
		if err == nil {
			t.Fatalf("Load() expected error for env %#v", env)
		}
	}
}

func mapLookup(values map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		value, ok := values[key]
		return value, ok
	}
}
