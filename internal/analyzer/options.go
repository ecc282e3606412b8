package analyzer

import (
	"fmt"
	"time"
)

// GaborParams configures the Gabor-response variance metric
type GaborParams struct {
	KernelSize int
	Sigma      float64
	Theta      float64
	Lambda     float64
	Gamma      float64
	Psi        float64
}

// LensParams configures edge and line-segment detection for lens distortion
type LensParams struct {
	CannyLow      float64
	CannyHigh     float64
	Threshold     int
	MinLineLength float64
	MaxLineGap    float64
	Band          float64
	MaxLines      int
}

// Options is the explicit engine configuration
type Options struct {
	// Restrict computation to these metric names. Empty runs everything.
	MetricSubset []string

	// Per-run deadline. Zero disables it.
	Timeout time.Duration

	ChromaticShiftRange int
	FFTMaskRadius       float64
	MedianFilterWindow  int
	LocalVarianceWindow int
	SmoothingWindow     int

	Gabor GaborParams

	// Edge thresholds for the edge-count metric
	CannyLow  float64
	CannyHigh float64

	Lens LensParams

	// Performance options
	MaxWorkers int
}

// DefaultOptions returns default engine options
func DefaultOptions() Options {
	return Options{
		Timeout:             0,
		ChromaticShiftRange: 5,
		FFTMaskRadius:       30,
		MedianFilterWindow:  5,
		LocalVarianceWindow: 7,
		SmoothingWindow:     5,
		Gabor: GaborParams{
			KernelSize: 31,
			Sigma:      4.0,
			Theta:      0,
			Lambda:     10.0,
			Gamma:      0.5,
			Psi:        0,
		},
		CannyLow:  100,
		CannyHigh: 200,
		Lens: LensParams{
			CannyLow:      50,
			CannyHigh:     150,
			Threshold:     100,
			MinLineLength: 100,
			MaxLineGap:    10,
			Band:          3,
			MaxLines:      20,
		},
		MaxWorkers: 0, // Use default CPU count
	}
}

// WithMetrics restricts the run to the named metrics
func (opts Options) WithMetrics(names ...string) Options {
	opts.MetricSubset = append([]string(nil), names...)
	return opts
}

// WithTimeout sets the per-run deadline
func (opts Options) WithTimeout(d time.Duration) Options {
	opts.Timeout = d
	return opts
}

// WithChromaticShiftRange sets the horizontal search window for chromatic aberration
func (opts Options) WithChromaticShiftRange(n int) Options {
	opts.ChromaticShiftRange = n
	return opts
}

// WithFFTMaskRadius sets the low-frequency disk radius
func (opts Options) WithFFTMaskRadius(r float64) Options {
	opts.FFTMaskRadius = r
	return opts
}

// WithMedianFilterWindow sets the median window for residual noise
func (opts Options) WithMedianFilterWindow(n int) Options {
	opts.MedianFilterWindow = n
	return opts
}

// WithMaxWorkers bounds metric concurrency
func (opts Options) WithMaxWorkers(n int) Options {
	opts.MaxWorkers = n
	return opts
}

// Validate checks option ranges. Metric names are checked against the
// registry by NewEngine.
func (opts Options) Validate() error {
	if opts.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative: %s", opts.Timeout)
	}
	if opts.ChromaticShiftRange < 0 {
		return fmt.Errorf("chromatic shift range must not be negative: %d", opts.ChromaticShiftRange)
	}
	if opts.FFTMaskRadius < 0 {
		return fmt.Errorf("fft mask radius must not be negative: %g", opts.FFTMaskRadius)
	}
	for name, w := range map[string]int{
		"median filter window":  opts.MedianFilterWindow,
		"local variance window": opts.LocalVarianceWindow,
		"smoothing window":      opts.SmoothingWindow,
		"gabor kernel size":     opts.Gabor.KernelSize,
	} {
		if w < 1 || w%2 == 0 {
			return fmt.Errorf("%s must be a positive odd number: %d", name, w)
		}
	}
	if opts.Gabor.Sigma <= 0 || opts.Gabor.Lambda <= 0 || opts.Gabor.Gamma <= 0 {
		return fmt.Errorf("gabor sigma, lambda and gamma must be positive")
	}
	if opts.Lens.MinLineLength <= 0 || opts.Lens.MaxLineGap < 0 {
		return fmt.Errorf("lens line length must be positive and gap non-negative")
	}
	return nil
}
