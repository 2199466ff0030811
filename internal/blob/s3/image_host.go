package s3blob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/timedrop/tdadmin/internal/domain"
)

// imagePrefix is the key prefix under which market images are stored.
const imagePrefix = "markets/"

// uploader is the part of manager.Uploader the image host calls.
type uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// ImageHost implements domain.ImageHost. Each upload gets a fresh random
// key, so re-uploading the same file never overwrites a live image.
type ImageHost struct {
	up         uploader
	bucket     string
	publicBase string
	newID      func() string
}

// NewImageHost creates an ImageHost that uploads into the client's bucket.
func NewImageHost(c *Client) *ImageHost {
	return &ImageHost{
		up:         manager.NewUploader(c.S3()),
		bucket:     c.Bucket(),
		publicBase: c.publicBase,
		newID:      uuid.NewString,
	}
}

// Upload validates and stores an image and returns its public URL. The
// content type must be image/* and the body at most domain.MaxImageSize
// bytes; violations wrap domain.ErrInvalidInput.
func (h *ImageHost) Upload(ctx context.Context, name string, data io.Reader, contentType string) (string, error) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "image/") {
		return "", fmt.Errorf("s3blob: content type %q is not an image: %w", contentType, domain.ErrInvalidInput)
	}

	body, err := io.ReadAll(io.LimitReader(data, domain.MaxImageSize+1))
	if err != nil {
		return "", fmt.Errorf("s3blob: read image: %w", err)
	}
	if int64(len(body)) > domain.MaxImageSize {
		return "", fmt.Errorf("s3blob: image exceeds %d bytes: %w", domain.MaxImageSize, domain.ErrInvalidInput)
	}
	if len(body) == 0 {
		return "", fmt.Errorf("s3blob: image is empty: %w", domain.ErrInvalidInput)
	}

	key := ObjectKey(h.newID(), name, mediaType)
	_, err = h.up.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(h.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(mediaType),
	})
	if err != nil {
		return "", fmt.Errorf("s3blob: upload %s: %w", key, err)
	}
	return h.publicBase + "/" + key, nil
}

// ObjectKey builds markets/<id><ext>. The extension comes from the file
// name, falling back to the first one registered for the media type.
func ObjectKey(id, name, mediaType string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		if exts, _ := mime.ExtensionsByType(mediaType); len(exts) > 0 {
			ext = exts[0]
		}
	}
	return imagePrefix + id + ext
}

// Compile-time interface check.
var _ domain.ImageHost = (*ImageHost)(nil)
