package analyzer

import (
	"go-photo-qc/internal/imaging"
)

func noiseDescriptors() []Descriptor {
	return []Descriptor{
		{Name: "noise_laplacian_variance", Family: FamilyNoise, Compute: noiseLaplacianVariance},
		{Name: "noise_median_residual", Family: FamilyNoise, Compute: noiseMedianResidual},
		{Name: "noise_luminance", Family: FamilyNoise, Compute: noiseLuminance},
		{Name: "noise_chrominance", Family: FamilyNoise, Capability: CapabilityColor, Compute: noiseChrominance},
		{Name: "noise_dominance", Family: FamilyNoise, Capability: CapabilityColor, Compute: noiseDominance},
	}
}

// noiseLaplacianVariance is the Laplacian variance read as a noise level.
// High values on an image known to be in focus indicate grain.
func noiseLaplacianVariance(in *Input) (Value, error) {
	return Scalar(in.Laplacian().Variance()), nil
}

// noiseMedianResidual is the mean squared signed residual after median
// filtering, computed in float64 so negative residuals survive.
func noiseMedianResidual(in *Input) (Value, error) {
	p := in.GrayPlane()
	filtered, err := imaging.MedianFilterContext(in.Context(), p, in.Options().MedianFilterWindow)
	if err != nil {
		return Value{}, err
	}
	return Scalar(p.Sub(filtered).MeanSquare()), nil
}

func noiseLuminance(in *Input) (Value, error) {
	y, _, _ := in.YCbCr()
	return Scalar(y.StdDev()), nil
}

func chromaNoise(in *Input) float64 {
	_, cb, cr := in.YCbCr()
	return (cb.StdDev() + cr.StdDev()) / 2
}

func noiseChrominance(in *Input) (Value, error) {
	return Scalar(chromaNoise(in)), nil
}

// noiseDominance is chroma minus luma noise; the sign tells which dominates.
func noiseDominance(in *Input) (Value, error) {
	y, _, _ := in.YCbCr()
	luma := y.StdDev()
	chroma := chromaNoise(in)

	label := "balanced"
	switch {
	case luma > chroma:
		label = "luminance-dominant"
	case chroma > luma:
		label = "chrominance-dominant"
	}
	return Value{
		V: chroma - luma,
		Detail: map[string]any{
			"dominance":   label,
			"luminance":   luma,
			"chrominance": chroma,
		},
	}, nil
}
