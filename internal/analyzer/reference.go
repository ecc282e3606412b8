package analyzer

import (
	"errors"
	"fmt"
	"math"

	"go-photo-qc/internal/imaging"
	"go-photo-qc/pkg/models"
)

var errDimensionMismatch = errors.New(models.ReasonDimensionMismatch)

const (
	ssimWindow    = 7
	ssimDataRange = 255.0
)

func referenceDescriptors() []Descriptor {
	return []Descriptor{
		{Name: "ssim", Family: FamilyReference, Capability: CapabilityDualImage, Compute: ssim},
		{Name: "psnr", Unit: "dB", Family: FamilyReference, Capability: CapabilityDualImage, Compute: psnr},
		{Name: "mse", Family: FamilyReference, Capability: CapabilityDualImage, Compute: mse},
	}
}

func referencePlanes(in *Input) (x, y *imaging.Plane, err error) {
	if in.Reference == nil {
		return nil, nil, errors.New("no reference image")
	}
	if !in.Image.SameSize(in.Reference) {
		return nil, nil, errDimensionMismatch
	}
	return in.GrayPlane(), in.ReferenceGray(), nil
}

// ssim is the mean structural similarity over 7x7 uniform windows with
// sample covariance, excluding the border half-window.
func ssim(in *Input) (Value, error) {
	x, y, err := referencePlanes(in)
	if err != nil {
		return Value{}, err
	}
	if x.Width < ssimWindow || x.Height < ssimWindow {
		return Value{}, fmt.Errorf("image smaller than the %dx%d similarity window", ssimWindow, ssimWindow)
	}

	c1 := math.Pow(0.01*ssimDataRange, 2)
	c2 := math.Pow(0.03*ssimDataRange, 2)
	np := float64(ssimWindow * ssimWindow)
	covNorm := np / (np - 1)

	prod := func(a, b *imaging.Plane) *imaging.Plane {
		out := imaging.NewPlane(a.Width, a.Height)
		for i := range out.Data {
			out.Data[i] = a.Data[i] * b.Data[i]
		}
		return out
	}

	means := make([]*imaging.Plane, 0, 5)
	for _, src := range []*imaging.Plane{x, y, prod(x, x), prod(y, y), prod(x, y)} {
		m, err := imaging.BoxMeanContext(in.Context(), src, ssimWindow)
		if err != nil {
			return Value{}, err
		}
		means = append(means, m)
	}
	ux, uy, uxx, uyy, uxy := means[0], means[1], means[2], means[3], means[4]

	pad := ssimWindow / 2
	var total float64
	count := 0
	for row := pad; row < x.Height-pad; row++ {
		for col := pad; col < x.Width-pad; col++ {
			i := row*x.Width + col
			mx, my := ux.Data[i], uy.Data[i]
			vx := covNorm * (uxx.Data[i] - mx*mx)
			vy := covNorm * (uyy.Data[i] - my*my)
			vxy := covNorm * (uxy.Data[i] - mx*my)

			num := (2*mx*my + c1) * (2*vxy + c2)
			den := (mx*mx + my*my + c1) * (vx + vy + c2)
			total += num / den
			count++
		}
	}
	return Scalar(total / float64(count)), nil
}

func meanSquaredError(x, y *imaging.Plane) float64 {
	return x.Sub(y).MeanSquare()
}

func mse(in *Input) (Value, error) {
	x, y, err := referencePlanes(in)
	if err != nil {
		return Value{}, err
	}
	return Scalar(meanSquaredError(x, y)), nil
}

// psnr is +Inf for identical images.
func psnr(in *Input) (Value, error) {
	x, y, err := referencePlanes(in)
	if err != nil {
		return Value{}, err
	}
	m := meanSquaredError(x, y)
	if m == 0 {
		return Scalar(math.Inf(1)), nil
	}
	return Scalar(10 * math.Log10(ssimDataRange*ssimDataRange/m)), nil
}
