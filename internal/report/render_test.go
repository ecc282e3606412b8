package report

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"go-photo-qc/pkg/models"
	"go-photo-qc/pkg/validation"
)

func sampleReport() models.Report {
	return models.Report{
		ID:        "0b7e5f1e-0000-4000-8000-000000000001",
		Source:    "photo.jpg",
		Image:     models.ImageInfo{Width: 100, Height: 100, Channels: 3, Format: "jpeg"},
		Timestamp: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Results: []models.MetricResult{
			{Name: "laplacian_variance", Family: "sharpness", Value: 0, Status: models.StatusOK},
			{Name: "highlight_clipping", Family: "color", Value: 50, Unit: "%", Status: models.StatusOK},
			{Name: "psnr", Family: "reference", Value: math.Inf(1), Unit: "dB", Status: models.StatusOK},
			{Name: "ssim", Family: "reference", Status: models.StatusFailed, Reason: models.ReasonUnsupportedCapability},
			{Name: "lens_distortion", Family: "optical", Status: models.StatusNoResult, Reason: models.ReasonNoLines},
		},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatText, false},
		{"TEXT", FormatText, false},
		{"json", FormatJSON, false},
		{"yml", FormatYAML, false},
		{"yaml", FormatYAML, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseFormat(%q): expected %q/%v, got %q/%v", tt.in, tt.want, tt.wantErr, got, err)
		}
	}
}

func TestText(t *testing.T) {
	got := Text(sampleReport())
	want := "laplacian_variance: 0\n" +
		"highlight_clipping: 50 %\n" +
		"psnr: +Inf dB\n" +
		"ssim: failed (unsupported-capability)\n" +
		"lens_distortion: no_result (no lines found)\n"
	if got != want {
		t.Errorf("Expected:\n%s\ngot:\n%s", want, got)
	}
}

func TestWrite_TextWithVerdict(t *testing.T) {
	r := sampleReport()
	verdict := validation.NewQualityValidator().Evaluate(r)

	var buf bytes.Buffer
	entries := []Entry{
		{Source: "photo.jpg", Report: &r, Verdict: &verdict},
		{Source: "broken.jpg", Error: "image_decode: failed to decode image"},
	}
	if err := Write(&buf, FormatText, entries); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"# photo.jpg",
		"image: 100x100, 3 channels, jpeg",
		"verdict: failed",
		"[error] laplacian_variance:",
		"[error] highlight_clipping:",
		"# broken.jpg\nerror: image_decode",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestWrite_JSON(t *testing.T) {
	r := sampleReport()
	var buf bytes.Buffer
	if err := Write(&buf, FormatJSON, []Entry{{Source: r.Source, Report: &r}}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	var decoded Entry
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Expected valid JSON object, got %v:\n%s", err, buf.String())
	}
	psnr, ok := decoded.Report.Result("psnr")
	if !ok || !math.IsInf(psnr.Value, 1) {
		t.Errorf("Expected +Inf PSNR to survive JSON, got %+v", psnr)
	}
	if !strings.Contains(buf.String(), `"value": "+Inf"`) {
		t.Errorf("Expected +Inf sentinel in JSON, got:\n%s", buf.String())
	}

	buf.Reset()
	if err := Write(&buf, FormatJSON, []Entry{{Source: "a"}, {Source: "b"}}); err != nil {
		t.Fatal(err)
	}
	var list []Entry
	if err := json.Unmarshal(buf.Bytes(), &list); err != nil || len(list) != 2 {
		t.Errorf("Expected a JSON list of 2, got %v (%v)", list, err)
	}
}

func TestWrite_YAML(t *testing.T) {
	r := sampleReport()
	var buf bytes.Buffer
	if err := Write(&buf, FormatYAML, []Entry{{Source: r.Source, Report: &r}}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	var decoded map[string]any
	if err := yaml.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Expected valid YAML, got %v:\n%s", err, buf.String())
	}
	if decoded["source"] != "photo.jpg" {
		t.Errorf("Expected source photo.jpg, got %v", decoded["source"])
	}
	if !strings.Contains(buf.String(), "name: laplacian_variance") {
		t.Errorf("Expected metric names in YAML, got:\n%s", buf.String())
	}
}
