package domain

import (
	"context"
	"io"
)

// MaxImageSize caps market image uploads at 5 MiB.
const MaxImageSize int64 = 5 * 1024 * 1024

// ImageHost uploads a market image to third-party hosting and returns the
// public URL. It is separate from the Timedrop backend.
type ImageHost interface {
	Upload(ctx context.Context, name string, data io.Reader, contentType string) (string, error)
}

// BlobWriter stores an object under key in blob storage.
type BlobWriter interface {
	Put(ctx context.Context, key string, data io.Reader, contentType string) error
}
