package factory

import (
	"errors"
	"fmt"
	"strings"

	"go-photo-qc/internal/analyzer"
	"go-photo-qc/internal/config"
	"go-photo-qc/internal/metadata"
	"go-photo-qc/internal/repository"
	"go-photo-qc/internal/storage"
)

// ErrStorageNotConfigured is returned for a backend without credentials
var ErrStorageNotConfigured = errors.New("storage backend not configured")

// DefaultScorerName names a command scorer declared without an explicit name
const DefaultScorerName = "learned_score"

// StorageType represents different types of storage backends
type StorageType string

const (
	// HTTPStorage for HTTP-based image fetching
	HTTPStorage StorageType = "http"
	// AzureStorage for Azure blob storage
	AzureStorage StorageType = "azure"
	// LocalStorage for local file system
	LocalStorage StorageType = "local"
)

// AnalyzerFactory creates metric engines
type AnalyzerFactory interface {
	CreateAnalyzer(opts analyzer.Options) (*analyzer.Engine, error)
}

// StorageFactory creates storage implementations
type StorageFactory interface {
	CreateStorage(storageType StorageType) (storage.Fetcher, error)
}

// analyzerFactory implements AnalyzerFactory
type analyzerFactory struct {
	scorerCommand string
}

// NewAnalyzerFactory creates a factory that injects the scorer described by
// scorerCommand, if any, into every engine it builds
func NewAnalyzerFactory(scorerCommand string) AnalyzerFactory {
	return &analyzerFactory{scorerCommand: scorerCommand}
}

// CreateAnalyzer builds an engine over the default battery plus the scorer
func (f *analyzerFactory) CreateAnalyzer(opts analyzer.Options) (*analyzer.Engine, error) {
	scorer, err := ParseScorerCommand(f.scorerCommand)
	if err != nil {
		return nil, err
	}
	if scorer == nil {
		return analyzer.NewEngine(opts)
	}
	return analyzer.NewEngine(opts, analyzer.ScorerDescriptor(scorer))
}

// ParseScorerCommand reads "[name=]program [args...]". An empty command
// means no scorer.
func ParseScorerCommand(command string) (*analyzer.CommandScorer, error) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return nil, nil
	}

	name := DefaultScorerName
	if head, program, ok := strings.Cut(fields[0], "="); ok {
		if head == "" || program == "" {
			return nil, fmt.Errorf("invalid scorer command %q: want [name=]program [args...]", command)
		}
		name = head
		fields[0] = program
	}
	return &analyzer.CommandScorer{
		MetricName: name,
		Path:       fields[0],
		Args:       fields[1:],
	}, nil
}

// storageFactory implements StorageFactory
type storageFactory struct {
	cfg *config.Config
}

// NewStorageFactory creates a new storage factory
func NewStorageFactory(cfg *config.Config) StorageFactory {
	return &storageFactory{cfg: cfg}
}

// CreateStorage creates a storage implementation based on the specified type
func (f *storageFactory) CreateStorage(storageType StorageType) (storage.Fetcher, error) {
	switch storageType {
	case HTTPStorage:
		return storage.NewHTTPFetcher(f.cfg.ImageFetchTimeout), nil
	case AzureStorage:
		if f.cfg.AzureStorageAccount == "" {
			return nil, fmt.Errorf("%w: %s", ErrStorageNotConfigured, storageType)
		}
		return storage.NewAzureFetcher(f.cfg.AzureStorageAccount, f.cfg.AzureStorageKey)
	case LocalStorage:
		return storage.NewLocalFetcher(), nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}

// ComponentFactory combines all factories
type ComponentFactory struct {
	AnalyzerFactory AnalyzerFactory
	StorageFactory  StorageFactory
	cfg             *config.Config
}

// NewComponentFactory creates a new component factory
func NewComponentFactory(cfg *config.Config) *ComponentFactory {
	return &ComponentFactory{
		AnalyzerFactory: NewAnalyzerFactory(cfg.ScorerCommand),
		StorageFactory:  NewStorageFactory(cfg),
		cfg:             cfg,
	}
}

// CreateEngine builds the engine from the configured options
func (f *ComponentFactory) CreateEngine() (*analyzer.Engine, error) {
	return f.AnalyzerFactory.CreateAnalyzer(f.cfg.EngineOptions())
}

// CreateRepository wires every available backend into one repository.
// Azure is optional and left out when no account is configured.
func (f *ComponentFactory) CreateRepository() (*repository.SourceRepository, error) {
	local, err := f.StorageFactory.CreateStorage(LocalStorage)
	if err != nil {
		return nil, err
	}
	remote, err := f.StorageFactory.CreateStorage(HTTPStorage)
	if err != nil {
		return nil, err
	}

	var azure storage.Fetcher
	if blob, err := f.StorageFactory.CreateStorage(AzureStorage); err == nil {
		azure = blob
	} else if !errors.Is(err, ErrStorageNotConfigured) {
		return nil, fmt.Errorf("azure storage: %w", err)
	}

	var meta metadata.Reader = metadata.Nop{}
	if f.cfg.ExiftoolPath != "" {
		meta = metadata.NewExifTool(f.cfg.ExiftoolPath)
	}
	return repository.NewSourceRepository(local, remote, azure, meta).WithMaxPixels(f.cfg.MaxImagePixels), nil
}
