package storage

import (
	"context"
	"errors"
	"io"
)

var ErrBadKey = errors.New("invalid object key")

// ImageStore saves uploaded objects and returns the public URL they are
// served from.
type ImageStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader) (string, error)
	Delete(ctx context.Context, key string) error
}
