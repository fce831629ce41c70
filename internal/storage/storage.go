// Package storage hosts uploaded images outside the database.
package storage

import (
	"context"
	"errors"
	"io"

	"github.com/vedran77/frameverse/internal/domain"
)

var ErrUnsupportedType = errors.New("unsupported image type")

// ImageStore uploads images and retires them by asset id.
type ImageStore interface {
	Upload(ctx context.Context, r io.Reader, size int64, contentType string) (domain.Image, error)
	Delete(ctx context.Context, assetID string) error
}

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Extension returns the file extension for an accepted image content type.
func Extension(contentType string) (string, error) {
	ext, ok := extensions[contentType]
	if !ok {
		return "", ErrUnsupportedType
	}
	return ext, nil
}
