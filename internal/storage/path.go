package storage

import (
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"
)

const (
	ExtJSON    = "json"
	ExtParquet = "parquet"
)

// ContentTypeFor returns the media type of an archive extension, with or
// without its leading dot.
func ContentTypeFor(ext string) string {
	switch strings.TrimPrefix(ext, ".") {
	case ExtJSON:
		return "application/json"
	case ExtParquet:
		return "application/vnd.apache.parquet"
	default:
		return "application/octet-stream"
	}
}

var answerIDPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]{0,127}$`)

// BuildAnswerPath returns answers/YYYY/MM/DD/<answerID>.<ext>, dated in UTC.
func BuildAnswerPath(askedAt time.Time, answerID, ext string) (string, error) {
	if !answerIDPattern.MatchString(answerID) {
		return "", fmt.Errorf("invalid answer id: %q", answerID)
	}
	switch ext {
	case ExtJSON, ExtParquet:
	default:
		return "", fmt.Errorf("unsupported archive extension %q", ext)
	}

	ts := askedAt.UTC()
	return path.Join(
		"answers",
		fmt.Sprintf("%04d", ts.Year()),
		fmt.Sprintf("%02d", ts.Month()),
		fmt.Sprintf("%02d", ts.Day()),
		answerID+"."+ext,
	), nil
}
