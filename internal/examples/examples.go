// Package examples provides the sample questions offered to users.
package examples

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

var defaultQueries = []string{
	"Which city performed worst last holiday season?",
	"Show trends of customer returns over time.",
	"Is there any suspicious activity in branch 7?",
	"Why did revenue tank in Q2 last year?",
	"Which products have the highest profit margin?",
	"Compare sales performance across different regions.",
	"Identify unusual patterns in customer behavior.",
	"Which stores are underperforming expectations?",
}

// Default returns a copy of the built-in example questions.
func Default() []string {
	return append([]string(nil), defaultQueries...)
}

type file struct {
	Queries []string `yaml:"queries"`
}

// Load returns the built-in questions when path is empty, otherwise the
// questions listed under `queries:` in the YAML file at path.
func Load(path string) ([]string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read examples file: %w", err)
	}
	queries, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse examples file %s: %w", path, err)
	}
	return queries, nil
}

func Parse(data []byte) ([]string, error) {
	var parsed file
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&parsed); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	queries := make([]string, 0, len(parsed.Queries))
	for i, query := range parsed.Queries {
		query = strings.TrimSpace(query)
		if query == "" {
			return nil, fmt.Errorf("query %d is empty", i+1)
		}
		queries = append(queries, query)
	}
	if len(queries) == 0 {
		return nil, fmt.Errorf("at least one query is required")
	}
	return queries, nil
}
