package repository

import "errors"

var (
	// ErrInvalidLocation indicates an empty or malformed image location
	ErrInvalidLocation = errors.New("invalid image location")

	// ErrUnsupportedScheme indicates no fetcher handles the location's scheme
	ErrUnsupportedScheme = errors.New("unsupported location scheme")
)
