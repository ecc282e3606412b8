package repository

import (
	"context"

	"go-photo-qc/internal/imaging"
)

// ImageRepository loads photographs from any supported location
type ImageRepository interface {
	// Load fetches, decodes and converts the image at location
	Load(ctx context.Context, location string) (*LoadedImage, error)

	// ValidateLocation checks that some fetcher can serve location
	ValidateLocation(location string) error
}

// LoadedImage is a decoded photograph ready for the engine
type LoadedImage struct {
	Location string
	Format   string
	Bytes    int
	Image    *imaging.Image
	Metadata map[string]any
}
