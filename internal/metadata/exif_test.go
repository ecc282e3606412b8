package metadata

import (
	"context"
	"errors"
	"testing"
)

func TestParseExifJSON(t *testing.T) {
	raw := []byte(`[{"SourceFile":"-","EXIF:Make":"Canon","EXIF:ISO":400,"File:ImageWidth":640}]`)
	m, err := parseExifJSON(raw)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if _, ok := m["SourceFile"]; ok {
		t.Error("Expected SourceFile to be dropped")
	}
	if m["EXIF:Make"] != "Canon" {
		t.Errorf("Expected Canon, got %v", m["EXIF:Make"])
	}
	if m["EXIF:ISO"] != float64(400) {
		t.Errorf("Expected ISO 400, got %v", m["EXIF:ISO"])
	}

	empty, err := parseExifJSON([]byte(`[]`))
	if err != nil || len(empty) != 0 {
		t.Errorf("Expected empty map, got %v, %v", empty, err)
	}

	if _, err := parseExifJSON([]byte(`not json`)); err == nil {
		t.Error("Expected error for invalid output")
	}
}

func TestExifTool_Missing(t *testing.T) {
	r := NewExifTool("/nonexistent/exiftool-binary")
	if _, err := r.Read(context.Background(), []byte{0xFF, 0xD8}); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Expected ErrUnavailable, got %v", err)
	}
}

func TestNop(t *testing.T) {
	m, err := Nop{}.Read(context.Background(), nil)
	if m != nil || err != nil {
		t.Errorf("Expected nil, nil; got %v, %v", m, err)
	}
}
