package container

import (
	"fmt"
	"net/http"
	"time"

	"go-photo-qc/internal/analyzer"
	"go-photo-qc/internal/config"
	"go-photo-qc/internal/factory"
	"go-photo-qc/internal/logger"
	"go-photo-qc/internal/observer"
	"go-photo-qc/internal/repository"
	"go-photo-qc/internal/service"
	"go-photo-qc/internal/strategy"
	"go-photo-qc/internal/transport"
	"go-photo-qc/pkg/validation"
)

// Container holds all application dependencies
type Container struct {
	config               *config.Config
	engine               *analyzer.Engine
	imageRepository      repository.ImageRepository
	events               *observer.EventPublisher
	counters             *observer.MetricsObserver
	quality              *validation.QualityValidator
	imageAnalysisService service.ImageAnalysisService
	handler              http.Handler
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *config.Config) (*Container, error) {
	components := factory.NewComponentFactory(cfg)

	// Build dependency graph
	engine, err := components.CreateEngine()
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}
	imageRepository, err := components.CreateRepository()
	if err != nil {
		engine.Close()
		return nil, fmt.Errorf("failed to create repository: %w", err)
	}

	events := observer.NewEventPublisher()
	counters := observer.NewMetricsObserver()
	events.Subscribe(observer.NewLoggingObserver(logger.Logger))
	events.Subscribe(counters)

	quality := validation.NewQualityValidator()
	imageAnalysisService := service.NewImageAnalysisService(
		imageRepository,
		engine,
		strategy.DefaultProfiles(),
		events,
		cfg.BatchConcurrency,
	)
	handler := transport.NewHandler(transport.Dependencies{
		Service:   imageAnalysisService,
		Quality:   quality,
		URLs:      validation.NewURLValidator(),
		Counters:  counters,
		Config:    cfg,
		StartedAt: time.Now(),
	})

	return &Container{
		config:               cfg,
		engine:               engine,
		imageRepository:      imageRepository,
		events:               events,
		counters:             counters,
		quality:              quality,
		imageAnalysisService: imageAnalysisService,
		handler:              handler,
	}, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Service returns the analysis service
func (c *Container) Service() service.ImageAnalysisService {
	return c.imageAnalysisService
}

// Quality returns the report interpreter
func (c *Container) Quality() *validation.QualityValidator {
	return c.quality
}

// Counters returns the analysis counters
func (c *Container) Counters() *observer.MetricsObserver {
	return c.counters
}

// Close stops the engine's worker pool
func (c *Container) Close() error {
	return c.engine.Close()
}
