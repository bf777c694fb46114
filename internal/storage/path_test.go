package storage

import (
	"testing"
	"time"
)

func TestBuildAnswerPath(t *testing.T) {
	ts := time.Date(2026, time.February, 19, 22, 5, 0, 0, time.FixedZone("x", -5*3600))
	key, err := BuildAnswerPath(ts, "3f2b9c1e-0d4a-4c55-9a33-1c0a7f1e2d11", ExtJSON)
	if err != nil {
		t.Fatalf("BuildAnswerPath() error = %v", err)
	}
	want := "answers/2026/02/20/3f2b9c1e-0d4a-4c55-9a33-1c0a7f1e2d11.json"
	if key != want {
		t.Fatalf("BuildAnswerPath() = %q, want %q", key, want)
	}
}

func TestBuildAnswerPathParquet(t *testing.T) {
	ts := time.Date(2026, time.October, 1, 9, 0, 0, 0, time.UTC)
	key, err := BuildAnswerPath(ts, "a1", ExtParquet)
	if err != nil {
		t.Fatalf("BuildAnswerPath() error = %v", err)
	}
	if key != "answers/2026/10/01/a1.parquet" {
		t.Fatalf("BuildAnswerPath() = %q", key)
	}
}

func TestBuildAnswerPathRejectsInvalidInput(t *testing.T) {
	if _, err := BuildAnswerPath(time.Now(), "../oops", ExtJSON); err == nil {
		t.Fatal("expected invalid answer id error")
	}
	if _, err := BuildAnswerPath(time.Now(), "a1", "csv"); err == nil {
		t.Fatal("expected unsupported extension error")
	}
}

func TestContentTypeFor(t *testing.T) {
	tests := map[string]string{
		ExtJSON:    "application/json",
		".parquet": "application/vnd.apache.parquet",
		".csv":     "application/octet-stream",
	}
	for ext, want := range tests {
		if got := ContentTypeFor(ext); got != want {
			t.Fatalf("ContentTypeFor(%q) = %q, want %q", ext, got, want)
		}
	}
}
