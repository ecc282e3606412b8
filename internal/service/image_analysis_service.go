package service

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"go-photo-qc/internal/analyzer"
	apperrors "go-photo-qc/internal/errors"
	"go-photo-qc/internal/observer"
	"go-photo-qc/internal/repository"
	"go-photo-qc/internal/strategy"
	"go-photo-qc/pkg/models"
)

// ImageAnalysisService loads photographs and scores them with the metric engine
type ImageAnalysisService interface {
	// Analyze scores one image, optionally against a reference
	Analyze(ctx context.Context, req models.AnalyzeRequest) (*models.Report, error)

	// AnalyzeBatch scores many images with bounded concurrency. Per-item
	// failures are reported in the results; only cancellation is fatal.
	AnalyzeBatch(ctx context.Context, reqs []models.AnalyzeRequest) ([]BatchResult, error)

	// Metrics lists the registered metrics in report order
	Metrics() []models.MetricInfo

	// Profiles lists the available analysis profiles
	Profiles() []string

	// ValidateLocation checks an image location without loading it
	ValidateLocation(location string) error
}

// BatchResult pairs a batch request with its report or error
type BatchResult struct {
	Request models.AnalyzeRequest
	Report  *models.Report
	Err     error
}

// imageAnalysisService implements ImageAnalysisService
type imageAnalysisService struct {
	imageRepo        repository.ImageRepository
	engine           analyzer.Analyzer
	profiles         *strategy.Profiles
	events           observer.Subject
	batchConcurrency int
}

// NewImageAnalysisService creates a new image analysis service
func NewImageAnalysisService(
	imageRepository repository.ImageRepository,
	engine analyzer.Analyzer,
	profiles *strategy.Profiles,
	events observer.Subject,
	batchConcurrency int,
) ImageAnalysisService {
	if profiles == nil {
		profiles = strategy.DefaultProfiles()
	}
	if events == nil {
		events = observer.NewEventPublisher()
	}
	if batchConcurrency < 1 {
		batchConcurrency = 1
	}
	return &imageAnalysisService{
		imageRepo:        imageRepository,
		engine:           engine,
		profiles:         profiles,
		events:           events,
		batchConcurrency: batchConcurrency,
	}
}

func (s *imageAnalysisService) Analyze(ctx context.Context, req models.AnalyzeRequest) (*models.Report, error) {
	start := time.Now()

	if err := s.ValidateLocation(req.Source); err != nil {
		return nil, apperrors.NewValidationError("invalid image location", err)
	}
	if req.Reference != "" {
		if err := s.ValidateLocation(req.Reference); err != nil {
			return nil, apperrors.NewValidationError("invalid reference location", err)
		}
	}
	metrics, err := s.selectMetrics(req)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, observer.AnalysisEvent{
		EventType: observer.AnalysisStarted,
		Source:    req.Source,
		Reference: req.Reference,
	})

	img, ref, err := s.load(ctx, req)
	if err != nil {
		s.publish(ctx, observer.AnalysisEvent{
			EventType:      observer.AnalysisFailed,
			Source:         req.Source,
			Reference:      req.Reference,
			ProcessingTime: time.Since(start),
			ErrorMessage:   err.Error(),
		})
		return nil, err
	}

	in := analyzer.RunInput{
		Image:    img.Image,
		Source:   req.Source,
		Format:   img.Format,
		Metadata: img.Metadata,
		Metrics:  metrics,
	}
	if ref != nil {
		in.Reference = ref.Image
		in.ReferenceSource = req.Reference
	}
	report := s.engine.Run(ctx, in)

	for _, res := range report.Failed() {
		s.publish(ctx, observer.AnalysisEvent{
			EventType:    observer.MetricFailed,
			Source:       req.Source,
			ReportID:     report.ID,
			Metric:       res.Name,
			ErrorMessage: res.Reason,
		})
	}
	s.publish(ctx, observer.AnalysisEvent{
		EventType:      observer.AnalysisCompleted,
		Source:         req.Source,
		Reference:      req.Reference,
		ReportID:       report.ID,
		ProcessingTime: time.Since(start),
		Success:        true,
		Metadata: map[string]interface{}{
			"metrics": len(report.Results),
			"failed":  len(report.Failed()),
		},
	})
	return &report, nil
}

// selectMetrics resolves explicit metric names, falling back to the profile
func (s *imageAnalysisService) selectMetrics(req models.AnalyzeRequest) ([]string, error) {
	if len(req.Metrics) > 0 {
		if _, err := s.engine.Resolve(req.Metrics); err != nil {
			return nil, apperrors.NewValidationError("unknown metric", err)
		}
		return req.Metrics, nil
	}

	profile, err := s.profiles.Get(req.Profile)
	if err != nil {
		return nil, apperrors.NewValidationError("unknown profile", err)
	}
	names := profile.Select(s.engine.Descriptors())
	if len(names) == 0 {
		if _, full := profile.(strategy.FullStrategy); !full {
			return nil, apperrors.NewValidationError(
				fmt.Sprintf("profile %q selects no registered metrics", profile.GetStrategyName()), nil)
		}
	}
	return names, nil
}

// load fetches the image and the optional reference concurrently
func (s *imageAnalysisService) load(ctx context.Context, req models.AnalyzeRequest) (img, ref *repository.LoadedImage, err error) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		loaded, err := s.loadOne(gctx, req.Source)
		img = loaded
		return err
	})
	if req.Reference != "" {
		g.Go(func() error {
			loaded, err := s.loadOne(gctx, req.Reference)
			ref = loaded
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return img, ref, nil
}

func (s *imageAnalysisService) loadOne(ctx context.Context, location string) (*repository.LoadedImage, error) {
	start := time.Now()
	loaded, err := s.imageRepo.Load(ctx, location)
	if err != nil {
		s.publish(ctx, observer.AnalysisEvent{
			EventType:      observer.ImageLoadFailed,
			Source:         location,
			ProcessingTime: time.Since(start),
			ErrorMessage:   err.Error(),
		})
		return nil, err
	}
	s.publish(ctx, observer.AnalysisEvent{
		EventType:      observer.ImageLoaded,
		Source:         location,
		ProcessingTime: time.Since(start),
		Success:        true,
		Metadata: map[string]interface{}{
			"format": loaded.Format,
			"bytes":  loaded.Bytes,
			"width":  loaded.Image.Width(),
			"height": loaded.Image.Height(),
		},
	})
	return loaded, nil
}

func (s *imageAnalysisService) AnalyzeBatch(ctx context.Context, reqs []models.AnalyzeRequest) ([]BatchResult, error) {
	results := make([]BatchResult, len(reqs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.batchConcurrency)
	for i, req := range reqs {
		results[i].Request = req
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i].Err = err
				return err
			}
			report, err := s.Analyze(gctx, req)
			results[i].Report = report
			results[i].Err = err
			// Only cancellation stops the batch
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return results, apperrors.NewTimeoutError("batch interrupted", err)
	}
	return results, nil
}

func (s *imageAnalysisService) Metrics() []models.MetricInfo {
	descs := s.engine.Descriptors()
	out := make([]models.MetricInfo, len(descs))
	for i, d := range descs {
		out[i] = models.MetricInfo{
			Name:       d.Name,
			Family:     d.Family,
			Unit:       d.Unit,
			Capability: d.Capability.String(),
		}
	}
	return out
}

func (s *imageAnalysisService) Profiles() []string {
	return s.profiles.Names()
}

func (s *imageAnalysisService) ValidateLocation(location string) error {
	return s.imageRepo.ValidateLocation(location)
}

func (s *imageAnalysisService) publish(ctx context.Context, event observer.AnalysisEvent) {
	event.Timestamp = time.Now()
	s.events.NotifyObservers(ctx, event)
}
