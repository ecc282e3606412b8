package analyzer

import (
	"context"

	"go-photo-qc/internal/imaging"
	"go-photo-qc/pkg/models"
)

// Analyzer runs the registered metric battery against an image
type Analyzer interface {
	Run(ctx context.Context, in RunInput) models.Report
	Descriptors() []Descriptor
	Resolve(names []string) ([]Descriptor, error)
	Close() error
}

// Capability is the input requirement of a metric.
type Capability int

const (
	// CapabilityGrayscale accepts any channel layout.
	CapabilityGrayscale Capability = iota
	// CapabilityColor requires at least three channels.
	CapabilityColor
	// CapabilityDualImage requires a reference image.
	CapabilityDualImage
)

func (c Capability) String() string {
	switch c {
	case CapabilityGrayscale:
		return "grayscale"
	case CapabilityColor:
		return "color"
	case CapabilityDualImage:
		return "dual-image"
	default:
		return "unknown"
	}
}

// Metric families.
const (
	FamilySharpness   = "sharpness"
	FamilyNoise       = "noise"
	FamilyColor       = "color"
	FamilyOptical     = "optical"
	FamilyCompression = "compression"
	FamilyReference   = "reference"
	FamilyLearned     = "learned"
)

// Value is what a metric function produces.
type Value struct {
	V      float64
	Status models.MetricStatus
	Reason string
	Detail map[string]any
}

// Scalar wraps a plain numeric outcome.
func Scalar(v float64) Value {
	return Value{V: v, Status: models.StatusOK}
}

// NoResult is a non-error outcome without a number.
func NoResult(reason string) Value {
	return Value{Status: models.StatusNoResult, Reason: reason}
}

// ComputeFunc is a pure function of the run input.
type ComputeFunc func(in *Input) (Value, error)

// Descriptor registers one named metric.
type Descriptor struct {
	Name       string
	Unit       string
	Family     string
	Capability Capability
	Compute    ComputeFunc
}

// Scorer is an optional referenceless quality model. Implementations
// return ErrUnavailable when the model cannot run.
type Scorer interface {
	Name() string
	Score(ctx context.Context, img *imaging.Image) (float64, error)
}
