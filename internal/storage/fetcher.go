package storage

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	apperrors "go-photo-qc/internal/errors"
)

const (
	// DefaultMaxImageBytes bounds any single download or file read
	DefaultMaxImageBytes = 64 << 20
	// DefaultMaxImagePixels bounds the decoded size of an image, checked
	// from its header before any pixel data is decoded
	DefaultMaxImagePixels = 100_000_000
)

// Blob holds the encoded bytes of an image and where they came from
type Blob struct {
	Location    string
	ContentType string
	Data        []byte
}

// Fetcher reads encoded image bytes from one kind of location
type Fetcher interface {
	Fetch(ctx context.Context, location string) (*Blob, error)
}

// Decode decodes JPEG, PNG, GIF, BMP, TIFF and WebP data and reports the
// format name. Images whose header declares more than maxPixels pixels are
// rejected without decoding; maxPixels <= 0 applies DefaultMaxImagePixels.
func Decode(data []byte, maxPixels int64) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", apperrors.NewImageDecodeError("empty image data", nil)
	}
	if maxPixels <= 0 {
		maxPixels = DefaultMaxImagePixels
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", apperrors.NewImageDecodeError("failed to decode image header", err)
	}
	if pixels := int64(cfg.Width) * int64(cfg.Height); pixels > maxPixels {
		return nil, "", apperrors.NewValidationError(
			fmt.Sprintf("image is %dx%d, exceeding the limit of %d pixels", cfg.Width, cfg.Height, maxPixels), nil)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", apperrors.NewImageDecodeError("failed to decode image", err)
	}
	return img, format, nil
}

// readLimited reads r fully, failing once more than limit bytes arrive
func readLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, apperrors.NewValidationError(fmt.Sprintf("image exceeds %d bytes", limit), nil)
	}
	return data, nil
}
