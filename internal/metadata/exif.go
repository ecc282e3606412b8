// Package metadata extracts EXIF and container metadata with exiftool.
// Metadata is carried into reports verbatim and never scored.
package metadata

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
)

// ErrUnavailable means the exiftool binary could not be found
var ErrUnavailable = errors.New("exiftool not available")

// Reader extracts an opaque key/value map from encoded image bytes
type Reader interface {
	Read(ctx context.Context, data []byte) (map[string]any, error)
}

// ExifTool runs `exiftool -json -` and feeds the image on stdin
type ExifTool struct {
	Path string
}

func NewExifTool(path string) *ExifTool {
	if path == "" {
		path = "exiftool"
	}
	return &ExifTool{Path: path}
}

func (e *ExifTool) Read(ctx context.Context, data []byte) (map[string]any, error) {
	bin, err := exec.LookPath(e.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	cmd := exec.CommandContext(ctx, bin, "-json", "-G", "-")
	cmd.Stdin = bytes.NewReader(data)
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("exiftool: %w: %s", err, bytes.TrimSpace(stderr.Bytes()))
	}
	return parseExifJSON(out.Bytes())
}

// parseExifJSON takes the first object of exiftool's JSON array output
func parseExifJSON(raw []byte) (map[string]any, error) {
	var parsed []map[string]any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parse exiftool output: %w", err)
	}
	if len(parsed) == 0 {
		return map[string]any{}, nil
	}
	m := parsed[0]
	// Reading from stdin, exiftool reports "-" as the source file
	delete(m, "SourceFile")
	return m, nil
}

// Nop returns no metadata. Used when exiftool is disabled.
type Nop struct{}

func (Nop) Read(context.Context, []byte) (map[string]any, error) {
	return nil, nil
}
