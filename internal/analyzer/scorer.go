package analyzer

import (
	"context"
	"errors"
	"fmt"
	"image/png"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"go-photo-qc/internal/imaging"
)

// ErrUnavailable is returned by a Scorer that cannot produce a score in
// this environment.
var ErrUnavailable = errors.New("scorer unavailable")

// ScorerDescriptor adapts a Scorer into a registry entry. Unavailable
// scorers report no_result rather than failing.
func ScorerDescriptor(s Scorer) Descriptor {
	return Descriptor{
		Name:       s.Name(),
		Family:     FamilyLearned,
		Capability: CapabilityGrayscale,
		Compute: func(in *Input) (Value, error) {
			v, err := s.Score(in.Context(), in.Image)
			if errors.Is(err, ErrUnavailable) {
				return NoResult(err.Error()), nil
			}
			if err != nil {
				return Value{}, err
			}
			return Scalar(v), nil
		},
	}
}

// CommandScorer delegates scoring to an external program. The image is
// written to a temporary PNG whose path is appended to Args; the program
// must print a single number on stdout.
type CommandScorer struct {
	MetricName string
	Path       string
	Args       []string
}

func (c *CommandScorer) Name() string { return c.MetricName }

func (c *CommandScorer) Score(ctx context.Context, img *imaging.Image) (float64, error) {
	bin, err := exec.LookPath(c.Path)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrUnavailable, c.Path)
	}

	f, err := os.CreateTemp("", "photoqc-*.png")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(f.Name())

	if err := png.Encode(f, img.ToImage()); err != nil {
		f.Close()
		return 0, fmt.Errorf("encode temp image: %w", err)
	}
	if err := f.Close(); err != nil {
		return 0, err
	}

	args := append(append([]string(nil), c.Args...), f.Name())
	out, err := exec.CommandContext(ctx, bin, args...).Output()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", c.MetricName, err)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("%s: unparseable score %q", c.MetricName, strings.TrimSpace(string(out)))
	}
	return v, nil
}
