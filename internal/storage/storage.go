// Package storage defines the object store used for the answer archive.
package storage

import (
	"context"
	"errors"
	"io"
)

var ErrBucketNotFound = errors.New("bucket not found")

type ObjectInfo struct {
	Key  string
	Size int64
	ETag string
}

type PutOptions struct {
	// ContentType defaults to ContentTypeFor the key's extension.
	ContentType string
	// Metadata is stored as user metadata next to the object.
	Metadata map[string]string
}

type ObjectStore interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, opts PutOptions) (ObjectInfo, error)
}
