package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"go-photo-qc/internal/analyzer"
	apperrors "go-photo-qc/internal/errors"
	"go-photo-qc/internal/imaging"
	"go-photo-qc/internal/observer"
	"go-photo-qc/internal/repository"
	"go-photo-qc/pkg/models"
)

// fakeRepository serves synthetic images by location
type fakeRepository struct {
	mu     sync.Mutex
	images map[string]*imaging.Image
	loads  []string
}

func (f *fakeRepository) Load(ctx context.Context, location string) (*repository.LoadedImage, error) {
	f.mu.Lock()
	f.loads = append(f.loads, location)
	img, ok := f.images[location]
	f.mu.Unlock()
	if !ok {
		return nil, apperrors.NewImageNotFoundError("no such image: "+location, nil)
	}
	return &repository.LoadedImage{
		Location: location,
		Format:   "png",
		Image:    img,
		Metadata: map[string]any{"EXIF:Make": "Test"},
	}, nil
}

func (f *fakeRepository) ValidateLocation(location string) error {
	if strings.TrimSpace(location) == "" {
		return repository.ErrInvalidLocation
	}
	return nil
}

func gradientImage(t *testing.T, w, h int) *imaging.Image {
	t.Helper()
	pix := make([]uint8, 0, w*h*3)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			pix = append(pix, uint8(x*4), uint8(y*4), uint8((x+y)*2))
		}
	}
	img, err := imaging.FromInterleaved(w, h, imaging.LayoutRGB, pix)
	if err != nil {
		t.Fatalf("Failed to create test image: %v", err)
	}
	return img
}

func newTestService(t *testing.T, images map[string]*imaging.Image) (ImageAnalysisService, *fakeRepository, *observer.MetricsObserver) {
	t.Helper()
	engine, err := analyzer.NewEngine(analyzer.DefaultOptions())
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}
	t.Cleanup(func() { engine.Close() })

	repo := &fakeRepository{images: images}
	events := observer.NewEventPublisher()
	counters := observer.NewMetricsObserver()
	events.Subscribe(counters)

	return NewImageAnalysisService(repo, engine, nil, events, 2), repo, counters
}

func TestAnalyze_FullReport(t *testing.T) {
	svc, _, counters := newTestService(t, map[string]*imaging.Image{
		"a.png": gradientImage(t, 48, 48),
	})

	report, err := svc.Analyze(context.Background(), models.AnalyzeRequest{Source: "a.png"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(report.Results) != len(analyzer.DefaultMetricNames()) {
		t.Errorf("Expected %d results, got %d", len(analyzer.DefaultMetricNames()), len(report.Results))
	}
	if report.Source != "a.png" || report.Image.Format != "png" {
		t.Errorf("Unexpected report header: %+v", report)
	}
	if report.Metadata["EXIF:Make"] != "Test" {
		t.Errorf("Expected metadata to be carried, got %v", report.Metadata)
	}

	snap := counters.GetMetrics()
	if snap.TotalAnalyses != 1 || snap.SuccessfulAnalyses != 1 {
		t.Errorf("Unexpected counters: %+v", snap)
	}
	// ssim, psnr and mse fail without a reference
	if snap.MetricFailures["ssim"] != 1 || snap.MetricFailures["mse"] != 1 {
		t.Errorf("Expected reference metric failures to be counted, got %v", snap.MetricFailures)
	}
}

func TestAnalyze_ProfileAndReference(t *testing.T) {
	img := gradientImage(t, 32, 32)
	svc, repo, _ := newTestService(t, map[string]*imaging.Image{"a.png": img, "ref.png": img})

	report, err := svc.Analyze(context.Background(), models.AnalyzeRequest{
		Source:    "a.png",
		Reference: "ref.png",
		Profile:   "reference",
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	want := []string{"ssim", "psnr", "mse"}
	got := report.Names()
	if len(got) != len(want) {
		t.Fatalf("Expected %v, got %v", want, got)
	}
	if v, ok := report.Value("ssim"); !ok || v != 1 {
		t.Errorf("Expected SSIM 1 for identical reference, got %v (%v)", v, ok)
	}
	if report.Reference != "ref.png" {
		t.Errorf("Expected reference recorded, got %q", report.Reference)
	}
	if len(repo.loads) != 2 {
		t.Errorf("Expected two loads, got %v", repo.loads)
	}
}

func TestAnalyze_ExplicitMetricsOverrideProfile(t *testing.T) {
	svc, _, _ := newTestService(t, map[string]*imaging.Image{"a.png": gradientImage(t, 32, 32)})

	report, err := svc.Analyze(context.Background(), models.AnalyzeRequest{
		Source:  "a.png",
		Profile: "noise",
		Metrics: []string{"brenner"},
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if names := report.Names(); len(names) != 1 || names[0] != "brenner" {
		t.Errorf("Expected [brenner], got %v", names)
	}
}

func TestAnalyze_Errors(t *testing.T) {
	svc, _, counters := newTestService(t, map[string]*imaging.Image{"a.png": gradientImage(t, 16, 16)})

	tests := []struct {
		name     string
		req      models.AnalyzeRequest
		wantType apperrors.ErrorType
	}{
		{"empty source", models.AnalyzeRequest{}, apperrors.ErrorTypeValidation},
		{"unknown metric", models.AnalyzeRequest{Source: "a.png", Metrics: []string{"sparkle"}}, apperrors.ErrorTypeValidation},
		{"unknown profile", models.AnalyzeRequest{Source: "a.png", Profile: "portrait"}, apperrors.ErrorTypeValidation},
		{"learned profile without scorers", models.AnalyzeRequest{Source: "a.png", Profile: "learned"}, apperrors.ErrorTypeValidation},
		{"missing image", models.AnalyzeRequest{Source: "missing.png"}, apperrors.ErrorTypeImageNotFound},
		{"missing reference", models.AnalyzeRequest{Source: "a.png", Reference: "gone.png"}, apperrors.ErrorTypeImageNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := svc.Analyze(context.Background(), tt.req)
			if report != nil {
				t.Error("Expected no report")
			}
			if !apperrors.IsType(err, tt.wantType) {
				t.Errorf("Expected %s, got %v", tt.wantType, err)
			}
		})
	}

	if got := counters.GetMetrics().FailedAnalyses; got != 2 {
		t.Errorf("Expected 2 failed analyses (load failures only), got %d", got)
	}
}

func TestAnalyzeBatch(t *testing.T) {
	images := map[string]*imaging.Image{}
	var reqs []models.AnalyzeRequest
	for i := 0; i < 5; i++ {
		name := fmt.Sprintf("img%d.png", i)
		images[name] = gradientImage(t, 24+i, 24)
		reqs = append(reqs, models.AnalyzeRequest{Source: name, Profile: "quick"})
	}
	reqs = append(reqs, models.AnalyzeRequest{Source: "missing.png"})

	svc, _, _ := newTestService(t, images)
	results, err := svc.AnalyzeBatch(context.Background(), reqs)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(results) != len(reqs) {
		t.Fatalf("Expected %d results, got %d", len(reqs), len(results))
	}
	for i, res := range results[:5] {
		if res.Err != nil || res.Report == nil {
			t.Errorf("Item %d: unexpected failure %v", i, res.Err)
			continue
		}
		if res.Report.Source != reqs[i].Source {
			t.Errorf("Item %d: results out of order, got %s", i, res.Report.Source)
		}
		if res.Report.Image.Width != 24+i {
			t.Errorf("Item %d: expected width %d, got %d", i, 24+i, res.Report.Image.Width)
		}
	}
	if last := results[5]; !apperrors.IsType(last.Err, apperrors.ErrorTypeImageNotFound) {
		t.Errorf("Expected not found for missing item, got %v", last.Err)
	}
}

func TestAnalyzeBatch_Canceled(t *testing.T) {
	svc, _, _ := newTestService(t, map[string]*imaging.Image{"a.png": gradientImage(t, 16, 16)})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.AnalyzeBatch(ctx, []models.AnalyzeRequest{{Source: "a.png"}})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestMetricsAndProfiles(t *testing.T) {
	svc, _, _ := newTestService(t, nil)

	metrics := svc.Metrics()
	if len(metrics) != len(analyzer.DefaultMetricNames()) {
		t.Fatalf("Expected %d metrics, got %d", len(analyzer.DefaultMetricNames()), len(metrics))
	}
	for _, m := range metrics {
		if m.Name == "ssim" && m.Capability != "dual-image" {
			t.Errorf("Expected ssim to require dual-image, got %s", m.Capability)
		}
	}
	if len(svc.Profiles()) == 0 {
		t.Error("Expected profiles")
	}
}
