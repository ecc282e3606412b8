package storage

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"strings"

	apperrors "go-photo-qc/internal/errors"
)

// LocalFetcher reads images from the local filesystem. Locations may be
// plain paths or file:// URLs.
type LocalFetcher struct {
	maxBytes int64
}

func NewLocalFetcher() *LocalFetcher {
	return &LocalFetcher{maxBytes: DefaultMaxImageBytes}
}

func (l *LocalFetcher) Fetch(ctx context.Context, location string) (*Blob, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewTimeoutError("read canceled", err)
	}
	path := strings.TrimPrefix(location, "file://")

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperrors.NewImageNotFoundError("no such file: "+path, err)
		}
		return nil, apperrors.NewInternalError("failed to open "+path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to stat "+path, err)
	}
	if info.IsDir() {
		return nil, apperrors.NewValidationError(path+" is a directory", nil)
	}

	data, err := readLimited(f, l.maxBytes)
	if err != nil {
		return nil, err
	}
	return &Blob{Location: location, Data: data}, nil
}
