package repository

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"

	apperrors "go-photo-qc/internal/errors"
	"go-photo-qc/internal/imaging"
	"go-photo-qc/internal/logger"
	"go-photo-qc/internal/metadata"
	"go-photo-qc/internal/storage"
)

// SourceRepository implements ImageRepository by routing each location to
// the local, HTTP or Azure fetcher
type SourceRepository struct {
	local  storage.Fetcher
	remote storage.Fetcher
	azure  storage.Fetcher
	meta   metadata.Reader

	maxPixels int64
}

// NewSourceRepository wires the fetchers. azure may be nil when no account is
// configured; meta may be nil to skip metadata extraction.
func NewSourceRepository(local, remote, azure storage.Fetcher, meta metadata.Reader) *SourceRepository {
	if meta == nil {
		meta = metadata.Nop{}
	}
	return &SourceRepository{
		local:     local,
		remote:    remote,
		azure:     azure,
		meta:      meta,
		maxPixels: storage.DefaultMaxImagePixels,
	}
}

// WithMaxPixels sets the largest decoded image Load accepts
func (r *SourceRepository) WithMaxPixels(n int64) *SourceRepository {
	r.maxPixels = n
	return r
}

// ValidateLocation validates if the provided location is acceptable
func (r *SourceRepository) ValidateLocation(location string) error {
	_, err := r.route(location)
	return err
}

func (r *SourceRepository) route(location string) (storage.Fetcher, error) {
	if strings.TrimSpace(location) == "" {
		return nil, ErrInvalidLocation
	}
	if storage.IsBlobLocation(location) {
		if r.azure == nil {
			return nil, fmt.Errorf("%w: azure storage is not configured", ErrUnsupportedScheme)
		}
		return r.azure, nil
	}

	u, err := url.Parse(location)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLocation, err)
	}
	switch strings.ToLower(u.Scheme) {
	case "", "file":
		return r.local, nil
	case "http", "https":
		if u.Host == "" {
			return nil, fmt.Errorf("%w: missing host in %s", ErrInvalidLocation, location)
		}
		return r.remote, nil
	default:
		// Drive letters such as C:\photos parse as one-letter schemes
		if len(u.Scheme) == 1 {
			return r.local, nil
		}
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedScheme, u.Scheme)
	}
}

// Load fetches, decodes and converts the image at location. Metadata
// extraction is best effort and never fails a load.
func (r *SourceRepository) Load(ctx context.Context, location string) (*LoadedImage, error) {
	fetcher, err := r.route(location)
	if err != nil {
		return nil, apperrors.NewValidationError("unusable image location", err)
	}

	blob, err := fetcher.Fetch(ctx, location)
	if err != nil {
		return nil, err
	}

	decoded, format, err := storage.Decode(blob.Data, r.maxPixels)
	if err != nil {
		return nil, err
	}

	buf, err := imaging.FromImage(decoded)
	if err != nil {
		return nil, convertError(err)
	}

	md, err := r.meta.Read(ctx, blob.Data)
	if err != nil && !errors.Is(err, metadata.ErrUnavailable) {
		logger.WithFields(logrus.Fields{
			"location": location,
			"error":    err.Error(),
		}).Debug("Metadata extraction failed")
	}

	return &LoadedImage{
		Location: location,
		Format:   format,
		Bytes:    len(blob.Data),
		Image:    buf,
		Metadata: md,
	}, nil
}

// convertError maps buffer construction failures onto application errors
func convertError(err error) error {
	switch {
	case errors.Is(err, imaging.ErrEmptyImage):
		return apperrors.NewEmptyImageError("image has no pixels", err)
	case errors.Is(err, imaging.ErrUnsupportedChannelLayout):
		return apperrors.NewUnsupportedChannelLayoutError("image channel layout is not supported", err)
	default:
		return apperrors.NewImageDecodeError("failed to convert image", err)
	}
}
