package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"go-photo-qc/internal/analyzer"
	"go-photo-qc/internal/storage"
)

type Config struct {
	Host               string
	Port               string
	RequestTimeout     time.Duration
	ImageFetchTimeout  time.Duration
	AnalysisTimeout    time.Duration
	MaxRequestBodySize int64
	MaxImagePixels     int64

	// Engine tuning
	MetricSubset        []string
	ChromaticShiftRange int
	FFTMaskRadius       float64
	MedianFilterWindow  int
	MaxWorkers          int
	BatchConcurrency    int

	// Collaborators
	AzureStorageAccount string
	AzureStorageKey     string
	ExiftoolPath        string
	ScorerCommand       string
}

func (c *Config) ServerAddress() string {
	// Trim any whitespace from host and port
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

// EngineOptions translates the environment settings into engine options
func (c *Config) EngineOptions() analyzer.Options {
	opts := analyzer.DefaultOptions().
		WithTimeout(c.AnalysisTimeout).
		WithChromaticShiftRange(c.ChromaticShiftRange).
		WithFFTMaskRadius(c.FFTMaskRadius).
		WithMedianFilterWindow(c.MedianFilterWindow).
		WithMaxWorkers(c.MaxWorkers)
	if len(c.MetricSubset) > 0 {
		opts = opts.WithMetrics(c.MetricSubset...)
	}
	return opts
}

// Load reads an optional .env file and then the process environment.
// A missing .env file is not an error.
func Load(dotenvFiles ...string) (*Config, error) {
	if err := godotenv.Load(dotenvFiles...); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return LoadFromEnv()
}

func LoadFromEnv() (*Config, error) {
	defaults := analyzer.DefaultOptions()

	// Set defaults
	cfg := &Config{
		Host:                getEnvOrDefault("HOST", "0.0.0.0"),
		Port:                getEnvOrDefault("PORT", "8080"),
		RequestTimeout:      parseDurationOrDefault("REQUEST_TIMEOUT", 30*time.Second),
		ImageFetchTimeout:   parseDurationOrDefault("IMAGE_FETCH_TIMEOUT", 15*time.Second),
		AnalysisTimeout:     parseDurationOrDefault("ANALYSIS_TIMEOUT", 20*time.Second),
		MaxRequestBodySize:  parseIntOrDefault("MAX_REQUEST_BODY_SIZE", 10*1024*1024), // 10MB
		MaxImagePixels:      parseIntOrDefault("MAX_IMAGE_PIXELS", storage.DefaultMaxImagePixels),
		MetricSubset:        parseListOrDefault("METRIC_SUBSET", nil),
		ChromaticShiftRange: int(parseIntOrDefault("CHROMATIC_SHIFT_RANGE", int64(defaults.ChromaticShiftRange))),
		FFTMaskRadius:       parseFloatOrDefault("FFT_MASK_RADIUS", defaults.FFTMaskRadius),
		MedianFilterWindow:  int(parseIntOrDefault("MEDIAN_FILTER_WINDOW", int64(defaults.MedianFilterWindow))),
		MaxWorkers:          int(parseIntOrDefault("MAX_WORKERS", 0)),
		BatchConcurrency:    int(parseIntOrDefault("BATCH_CONCURRENCY", 4)),
		AzureStorageAccount: os.Getenv("AZURE_STORAGE_ACCOUNT"),
		AzureStorageKey:     os.Getenv("AZURE_STORAGE_KEY"),
		ExiftoolPath:        getEnvOrDefault("EXIFTOOL_PATH", "exiftool"),
		ScorerCommand:       os.Getenv("SCORER_COMMAND"),
	}

	// Validate port is numeric and in range
	p, err := strconv.Atoi(strings.TrimSpace(cfg.Port))
	if err != nil || p < 1 || p > 65535 {
		return nil, fmt.Errorf("invalid PORT: %q", cfg.Port)
	}
	if cfg.MaxRequestBodySize <= 0 {
		return nil, fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", cfg.MaxRequestBodySize)
	}
	if cfg.MaxImagePixels <= 0 {
		return nil, fmt.Errorf("MAX_IMAGE_PIXELS must be > 0 (got %d)", cfg.MaxImagePixels)
	}
	if cfg.RequestTimeout <= 0 || cfg.ImageFetchTimeout <= 0 || cfg.AnalysisTimeout <= 0 {
		return nil, fmt.Errorf("timeouts must be > 0 (got request=%s, fetch=%s, analysis=%s)",
			cfg.RequestTimeout, cfg.ImageFetchTimeout, cfg.AnalysisTimeout)
	}
	if cfg.MaxWorkers < 0 || cfg.BatchConcurrency < 1 {
		return nil, fmt.Errorf("MAX_WORKERS must be >= 0 and BATCH_CONCURRENCY >= 1 (got %d, %d)",
			cfg.MaxWorkers, cfg.BatchConcurrency)
	}
	if (cfg.AzureStorageAccount == "") != (cfg.AzureStorageKey == "") {
		return nil, fmt.Errorf("AZURE_STORAGE_ACCOUNT and AZURE_STORAGE_KEY must be set together")
	}
	if err := cfg.EngineOptions().Validate(); err != nil {
		return nil, fmt.Errorf("invalid engine settings: %w", err)
	}
	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func parseFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// parseListOrDefault splits a comma separated value, dropping blanks
func parseListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
