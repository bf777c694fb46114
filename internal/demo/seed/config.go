package seed

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type LookupFunc func(string) (string, bool)

type Config struct {
	Seed      int64
	Stores    int
	Products  int
	Customers int
	Sales     int
	// Start is the first sales day. Sales spread over the following year.
	Start     time.Time
	Reset     bool
	BatchSize int
}

func DefaultConfig() Config {
	return Config{
		Seed:      7,
		Stores:    12,
		Products:  40,
		Customers: 300,
		Sales:     5000,
		Start:     time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		Reset:     true,
		BatchSize: 200,
	}
}

func LoadConfigFromEnv(lookup LookupFunc) (Config, error) {
	if lookup == nil {
		return Config{}, fmt.Errorf("lookup function is required")
	}

	cfg := DefaultConfig()
	if err := applyInt64(lookup, "QUERYLENS_SEED", &cfg.Seed); err != nil {
		return Config{}, err
	}
	if err := applyInt(lookup, "QUERYLENS_SEED_STORES", &cfg.Stores); err != nil {
		return Config{}, err
	}
	if err := applyInt(lookup, "QUERYLENS_SEED_PRODUCTS", &cfg.Products); err != nil {
		return Config{}, err
	}
	if err := applyInt(lookup, "QUERYLENS_SEED_CUSTOMERS", &cfg.Customers); err != nil {
		return Config{}, err
	}
	if err := applyInt(lookup, "QUERYLENS_SEED_SALES", &cfg.Sales); err != nil {
		return Config{}, err
	}
	if err := applyDate(lookup, "QUERYLENS_SEED_START", &cfg.Start); err != nil {
		return Config{}, err
	}
	if err := applyBool(lookup, "QUERYLENS_SEED_RESET", &cfg.Reset); err != nil {
		return Config{}, err
	}
	if err := applyInt(lookup, "QUERYLENS_SEED_BATCH_SIZE", &cfg.BatchSize); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	// Branch 7 carries the planted anomaly, so at least seven stores exist.
	if c.Stores < 7 {
		return fmt.Errorf("QUERYLENS_SEED_STORES must be >= 7")
	}
	if c.Products <= 0 {
		return fmt.Errorf("QUERYLENS_SEED_PRODUCTS must be > 0")
	}
	if c.Customers <= 0 {
		return fmt.Errorf("QUERYLENS_SEED_CUSTOMERS must be > 0")
	}
	if c.Sales <= 0 {
		return fmt.Errorf("QUERYLENS_SEED_SALES must be > 0")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("QUERYLENS_SEED_BATCH_SIZE must be > 0")
	}
	return nil
}

func applyDate(lookup LookupFunc, key string, dst *time.Time) error {
	raw, ok := lookup(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return nil
	}
	v, err := time.Parse(time.DateOnly, strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = v
	return nil
}

func applyBool(lookup LookupFunc, key string, dst *bool) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	v, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = v
	return nil
}

func applyInt(lookup LookupFunc, key string, dst *int) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = v
	return nil
}

func applyInt64(lookup LookupFunc, key string, dst *int64) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = v
	return nil
}
