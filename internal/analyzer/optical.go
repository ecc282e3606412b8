package analyzer

import (
	"context"
	"errors"
	"math"

	"go-photo-qc/internal/imaging"
	"go-photo-qc/pkg/models"
)

func opticalDescriptors() []Descriptor {
	return []Descriptor{
		{Name: "chromatic_aberration", Unit: "%", Family: FamilyOptical, Capability: CapabilityColor, Compute: chromaticAberration},
		{Name: "vignetting", Unit: "%", Family: FamilyOptical, Compute: vignetting},
		{Name: "lens_distortion", Unit: "%", Family: FamilyOptical, Compute: lensDistortion},
	}
}

// bestShift finds the circular horizontal shift of ch that best matches ref
// by sum of absolute differences. Candidates are visited as 0, 1, -1, 2, -2
// and only a strictly smaller sum replaces the incumbent, so ties go to the
// smallest magnitude and then to the positive shift. It gives up between
// rows once ctx is done.
func bestShift(ctx context.Context, ch, ref *imaging.Plane, maxShift int) (int, error) {
	w, h := ch.Width, ch.Height
	best, bestSAD := 0, math.Inf(1)
	for k := 0; k <= 2*maxShift; k++ {
		s := (k + 1) / 2
		if k%2 == 0 {
			s = -s
		}
		var sad float64
		for y := 0; y < h; y++ {
			if err := ctx.Err(); err != nil {
				return 0, err
			}
			row := y * w
			for x := 0; x < w; x++ {
				src := ((x-s)%w + w) % w
				sad += math.Abs(ch.Data[row+src] - ref.Data[row+x])
			}
		}
		if sad < bestSAD {
			best, bestSAD = s, sad
		}
	}
	return best, nil
}

// chromaticAberration measures lateral color fringing as the horizontal
// misregistration of red and blue against green.
func chromaticAberration(in *Input) (Value, error) {
	r, g, b := in.RGB()
	maxShift := in.Options().ChromaticShiftRange
	w := float64(in.Width())

	redShift, err := bestShift(in.Context(), r, g, maxShift)
	if err != nil {
		return Value{}, err
	}
	blueShift, err := bestShift(in.Context(), b, g, maxShift)
	if err != nil {
		return Value{}, err
	}
	redScore := math.Abs(float64(redShift)) / w * 100
	blueScore := math.Abs(float64(blueShift)) / w * 100

	return Value{
		V: (redScore + blueScore) / 2,
		Detail: map[string]any{
			"red_shift":  redShift,
			"blue_shift": blueShift,
			"red_score":  redScore,
			"blue_score": blueScore,
		},
	}, nil
}

func regionMean(p *imaging.Plane, x0, y0, x1, y1 int) float64 {
	return p.Crop(x0, y0, x1, y1).Mean()
}

// vignetting compares a central box of 20% x 20% with four corner boxes of
// the same size. Positive means darker corners.
func vignetting(in *Input) (Value, error) {
	p := in.GrayPlane()
	w, h := p.Width, p.Height
	cw, ch := int(float64(w)*0.2), int(float64(h)*0.2)
	if cw < 1 || ch < 1 {
		return Value{}, errors.New("image too small for vignetting regions")
	}

	cx0, cy0 := w/2-cw/2, h/2-ch/2
	center := regionMean(p, cx0, cy0, cx0+cw, cy0+ch)
	corners := (regionMean(p, 0, 0, cw, ch) +
		regionMean(p, w-cw, 0, w, ch) +
		regionMean(p, 0, h-ch, cw, h) +
		regionMean(p, w-cw, h-ch, w, h)) / 4

	if center == 0 {
		return Scalar(0), nil
	}
	return Value{
		V: (center - corners) / center * 100,
		Detail: map[string]any{
			"center_mean":  center,
			"corners_mean": corners,
		},
	}, nil
}

// lensDistortion estimates barrel (positive) or pincushion (negative)
// distortion from the bow of long near-straight edges. Each segment's bow is
// the mean offset of its middle third minus that of its outer thirds,
// signed so that bulging away from the image center counts as positive.
func lensDistortion(in *Input) (Value, error) {
	lens := in.Options().Lens
	w, h := in.Width(), in.Height()

	minLen := math.Min(lens.MinLineLength, float64(min(w, h))/2)
	threshold := min(lens.Threshold, int(minLen))
	edges := imaging.Canny(in.GrayPlane(), lens.CannyLow, lens.CannyHigh)
	segs := imaging.HoughSegments(edges, imaging.HoughParams{
		Threshold: max(threshold, 2),
		MinLength: minLen,
		MaxGap:    lens.MaxLineGap,
		Band:      lens.Band,
		MaxLines:  lens.MaxLines,
	})
	if len(segs) == 0 {
		return NoResult(models.ReasonNoLines), nil
	}

	cx, cy := float64(w)/2, float64(h)/2
	var total float64
	used := 0
	for _, seg := range segs {
		n := len(seg.Points)
		if n < 3 {
			continue
		}
		third := n / 3
		var mid, outer float64
		for i, pt := range seg.Points {
			off := seg.Offset(pt)
			if i >= third && i < n-third {
				mid += off
			} else {
				outer += off
			}
		}
		bow := mid/float64(n-2*third) - outer/float64(2*third)

		a, b := seg.Endpoints()
		mx, my := float64(a.X+b.X)/2, float64(a.Y+b.Y)/2
		nx, ny := seg.Normal()
		side := nx*(mx-cx) + ny*(my-cy)
		if side == 0 {
			continue
		}
		if side < 0 {
			bow = -bow
		}
		total += bow / float64(w) * 100
		used++
	}
	if used == 0 {
		return NoResult(models.ReasonNoLines), nil
	}
	return Value{
		V:      total / float64(used),
		Detail: map[string]any{"segments": used},
	}, nil
}
