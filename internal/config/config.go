package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type LookupFunc func(string) (string, bool)

type Profile string

const (
	ProfileDev  Profile = "dev"
	ProfileTest Profile = "test"
	ProfileProd Profile = "prod"
)

type Config struct {
	Profile       Profile
	Service       ServiceConfig
	HTTP          HTTPConfig
	Database      DatabaseConfig
	AI            AIConfig
	Pipeline      PipelineConfig
	Archive       ArchiveConfig
	Examples      ExamplesConfig
	CORS          CORSConfig
	Observability ObservabilityConfig
	Auth          AuthConfig
}

type ServiceConfig struct {
	Name string
}

type HTTPConfig struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type DatabaseConfig struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration
}

type AIConfig struct {
	Provider    string
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	Timeout     time.Duration
}

type PipelineConfig struct {
	MaxConcurrent int
	SchemaTimeout time.Duration
	QueryTimeout  time.Duration
	MaxRows       int
	ReadOnly      bool
}

type ArchiveConfig struct {
	Enabled          bool
	Endpoint         string
	Region           string
	Bucket           string
	AccessKeyID      string
	SecretAccessKey  string
	UseSSL           bool
	Prefix           string
	AutoCreateBucket bool
	Timeout          time.Duration
}

type ExamplesConfig struct {
	File string
}

type CORSConfig struct {
	AllowedOrigins string
}

type ObservabilityConfig struct {
	LogLevel slog.Level
	LogJSON  bool
}

type AuthConfig struct {
	Required   bool
	StaticKeys string
}

func LoadFromEnv(serviceName string) (Config, error) {
	return Load(serviceName, os.LookupEnv)
}

func Load(serviceName string, lookup LookupFunc) (Config, error) {
	if lookup == nil {
		return Config{}, fmt.Errorf("lookup function is required")
	}

	profile := ProfileDev
	if raw, ok := lookup("QUERYLENS_PROFILE"); ok {
		profile = Profile(strings.ToLower(strings.TrimSpace(raw)))
	}
	if !isValidProfile(profile) {
		return Config{}, fmt.Errorf("invalid QUERYLENS_PROFILE: %q", profile)
	}

	cfg := defaultsForProfile(profile)
	if serviceName != "" {
		cfg.Service.Name = serviceName
	}

	appliers := []func() error{
		func() error { return applyString(lookup, "QUERYLENS_SERVICE_NAME", &cfg.Service.Name) },
		func() error { return applyString(lookup, "QUERYLENS_HTTP_ADDR", &cfg.HTTP.Address) },
		func() error { return applyDuration(lookup, "QUERYLENS_HTTP_READ_TIMEOUT", &cfg.HTTP.ReadTimeout) },
		func() error { return applyDuration(lookup, "QUERYLENS_HTTP_WRITE_TIMEOUT", &cfg.HTTP.WriteTimeout) },
		func() error { return applyDuration(lookup, "QUERYLENS_HTTP_IDLE_TIMEOUT", &cfg.HTTP.IdleTimeout) },
		func() error { return applyString(lookup, "QUERYLENS_DB_DRIVER", &cfg.Database.Driver) },
		func() error { return applyString(lookup, "QUERYLENS_DB_DSN", &cfg.Database.DSN) },
		func() error { return applyInt(lookup, "QUERYLENS_DB_MAX_OPEN_CONNS", &cfg.Database.MaxOpenConns) },
		func() error { return applyInt(lookup, "QUERYLENS_DB_MAX_IDLE_CONNS", &cfg.Database.MaxIdleConns) },
		func() error { return applyDuration(lookup, "QUERYLENS_DB_CONN_MAX_IDLE_TIME", &cfg.Database.ConnMaxIdleTime) },
		func() error { return applyDuration(lookup, "QUERYLENS_DB_CONN_MAX_LIFETIME", &cfg.Database.ConnMaxLifetime) },
		func() error { return applyString(lookup, "QUERYLENS_AI_PROVIDER", &cfg.AI.Provider) },
		func() error { return applyString(lookup, "QUERYLENS_AI_BASE_URL", &cfg.AI.BaseURL) },
		func() error { return applyString(lookup, "QUERYLENS_AI_API_KEY", &cfg.AI.APIKey) },
		func() error { return applyString(lookup, "QUERYLENS_AI_MODEL", &cfg.AI.Model) },
		func() error { return applyFloat(lookup, "QUERYLENS_AI_TEMPERATURE", &cfg.AI.Temperature) },
		func() error { return applyDuration(lookup, "QUERYLENS_AI_TIMEOUT", &cfg.AI.Timeout) },
		func() error { return applyInt(lookup, "QUERYLENS_PIPELINE_MAX_CONCURRENT", &cfg.Pipeline.MaxConcurrent) },
		func() error { return applyDuration(lookup, "QUERYLENS_PIPELINE_SCHEMA_TIMEOUT", &cfg.Pipeline.SchemaTimeout) },
		func() error { return applyDuration(lookup, "QUERYLENS_PIPELINE_QUERY_TIMEOUT", &cfg.Pipeline.QueryTimeout) },
		func() error { return applyInt(lookup, "QUERYLENS_PIPELINE_MAX_ROWS", &cfg.Pipeline.MaxRows) },
		func() error { return applyBool(lookup, "QUERYLENS_PIPELINE_READ_ONLY", &cfg.Pipeline.ReadOnly) },
		func() error { return applyBool(lookup, "QUERYLENS_ARCHIVE_ENABLED", &cfg.Archive.Enabled) },
		func() error { return applyString(lookup, "QUERYLENS_ARCHIVE_ENDPOINT", &cfg.Archive.Endpoint) },
		func() error { return applyString(lookup, "QUERYLENS_ARCHIVE_REGION", &cfg.Archive.Region) },
		func() error { return applyString(lookup, "QUERYLENS_ARCHIVE_BUCKET", &cfg.Archive.Bucket) },
		func() error { return applyString(lookup, "QUERYLENS_ARCHIVE_ACCESS_KEY", &cfg.Archive.AccessKeyID) },
		func() error { return applyString(lookup, "QUERYLENS_ARCHIVE_SECRET_KEY", &cfg.Archive.SecretAccessKey) },
		func() error { return applyBool(lookup, "QUERYLENS_ARCHIVE_USE_SSL", &cfg.Archive.UseSSL) },
		func() error { return applyString(lookup, "QUERYLENS_ARCHIVE_PREFIX", &cfg.Archive.Prefix) },
		func() error { return applyBool(lookup, "QUERYLENS_ARCHIVE_AUTO_CREATE_BUCKET", &cfg.Archive.AutoCreateBucket) },
		func() error { return applyDuration(lookup, "QUERYLENS_ARCHIVE_TIMEOUT", &cfg.Archive.Timeout) },
		func() error { return applyString(lookup, "QUERYLENS_EXAMPLES_FILE", &cfg.Examples.File) },
		func() error { return applyString(lookup, "QUERYLENS_CORS_ALLOWED_ORIGINS", &cfg.CORS.AllowedOrigins) },
		func() error { return applyBool(lookup, "QUERYLENS_LOG_JSON", &cfg.Observability.LogJSON) },
		func() error { return applyLogLevel(lookup, "QUERYLENS_LOG_LEVEL", &cfg.Observability.LogLevel) },
		func() error { return applyBool(lookup, "QUERYLENS_AUTH_REQUIRED", &cfg.Auth.Required) },
		func() error { return applyString(lookup, "QUERYLENS_AUTH_STATIC_KEYS", &cfg.Auth.StaticKeys) },
	}
	for _, apply := range appliers {
		if err := apply(); err != nil {
			return Config{}, err
		}
	}

	cfg.Database.Driver = strings.ToLower(cfg.Database.Driver)
	cfg.AI.Provider = strings.ToLower(cfg.AI.Provider)
	if _, set := lookup("QUERYLENS_AI_MODEL"); !set && cfg.AI.Provider == "gemini" {
		cfg.AI.Model = "gemini-2.5-flash"
	}

	if cfg.Service.Name == "" {
		return Config{}, fmt.Errorf("service name is required")
	}
	if cfg.HTTP.Address == "" {
		return Config{}, fmt.Errorf("http address is required")
	}
	if !isValidDriver(cfg.Database.Driver) {
		return Config{}, fmt.Errorf("invalid QUERYLENS_DB_DRIVER: %q", cfg.Database.Driver)
	}
	if !isValidProvider(cfg.AI.Provider) {
		return Config{}, fmt.Errorf("invalid QUERYLENS_AI_PROVIDER: %q", cfg.AI.Provider)
	}
	if cfg.Pipeline.MaxConcurrent <= 0 {
		return Config{}, fmt.Errorf("QUERYLENS_PIPELINE_MAX_CONCURRENT must be positive")
	}
	if cfg.Pipeline.MaxRows < 0 {
		return Config{}, fmt.Errorf("QUERYLENS_PIPELINE_MAX_ROWS must not be negative")
	}
	return cfg, nil
}

// Origins splits the comma separated CORS origin list.
func (c CORSConfig) Origins() []string {
	var origins []string
	for _, origin := range strings.Split(c.AllowedOrigins, ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

func defaultsForProfile(profile Profile) Config {
	cfg := Config{
		Profile: profile,
		Service: ServiceConfig{Name: "querylens-api"},
		HTTP: HTTPConfig{
			Address:      ":3001",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 90 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:          "mysql",
			DSN:             "root:@tcp(localhost:3306)/dirty_business_data?parseTime=true",
			MaxOpenConns:    10,
			MaxIdleConns:    10,
			ConnMaxIdleTime: 5 * time.Minute,
			ConnMaxLifetime: 30 * time.Minute,
		},
		AI: AIConfig{
			Provider:    "openai",
			Model:       "gpt-4o",
			Temperature: 0.1,
			Timeout:     30 * time.Second,
		},
		Pipeline: PipelineConfig{
			MaxConcurrent: 10,
			SchemaTimeout: 10 * time.Second,
			QueryTimeout:  20 * time.Second,
			MaxRows:       1000,
			ReadOnly:      true,
		},
		Archive: ArchiveConfig{
			Enabled:          false,
			Endpoint:         "localhost:9000",
			Region:           "us-east-1",
			Bucket:           "querylens",
			AccessKeyID:      "minio",
			SecretAccessKey:  "miniostorage",
			UseSSL:           false,
			Prefix:           "",
			AutoCreateBucket: true,
			Timeout:          5 * time.Second,
		},
		CORS: CORSConfig{
			AllowedOrigins: "*",
		},
		Observability: ObservabilityConfig{
			LogLevel: slog.LevelDebug,
			LogJSON:  true,
		},
		Auth: AuthConfig{
			Required:   false,
			StaticKeys: "",
		},
	}

	switch profile {
	case ProfileTest:
		cfg.HTTP.Address = ":13001"
		cfg.Observability.LogLevel = slog.LevelWarn
		cfg.Auth.Required = false
	case ProfileProd:
		cfg.Observability.LogLevel = slog.LevelInfo
		cfg.Auth.Required = true
		cfg.CORS.AllowedOrigins = ""
		cfg.Archive.UseSSL = true
		cfg.Archive.AutoCreateBucket = false
	}

	return cfg
}

func isValidProfile(profile Profile) bool {
	switch profile {
	case ProfileDev, ProfileTest, ProfileProd:
		return true
	default:
		return false
	}
}

func isValidDriver(driver string) bool {
	switch driver {
	case "mysql", "postgres", "sqlite", "duckdb":
		return true
	default:
		return false
	}
}

func isValidProvider(provider string) bool {
	switch provider {
	case "openai", "gemini":
		return true
	default:
		return false
	}
}

func applyString(lookup LookupFunc, key string, dst *string) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	*dst = strings.TrimSpace(raw)
	return nil
}

func applyDuration(lookup LookupFunc, key string, dst *time.Duration) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyBool(lookup LookupFunc, key string, dst *bool) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyInt(lookup LookupFunc, key string, dst *int) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyFloat(lookup LookupFunc, key string, dst *float64) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyLogLevel(lookup LookupFunc, key string, dst *slog.Level) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	level := strings.ToLower(strings.TrimSpace(raw))
	switch level {
	case "debug":
		*dst = slog.LevelDebug
	case "info":
		*dst = slog.LevelInfo
	case "warn", "warning":
		*dst = slog.LevelWarn
	case "error":
		*dst = slog.LevelError
	default:
		return fmt.Errorf("invalid %s: %q", key, raw)
	}
	return nil
}
