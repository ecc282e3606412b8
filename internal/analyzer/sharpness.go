package analyzer

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"go-photo-qc/internal/imaging"
)

func sharpnessDescriptors() []Descriptor {
	return []Descriptor{
		{Name: "laplacian_variance", Family: FamilySharpness, Compute: laplacianVariance},
		{Name: "laplacian_variance_smoothed", Family: FamilySharpness, Compute: laplacianVarianceSmoothed},
		{Name: "brenner", Family: FamilySharpness, Compute: brenner},
		{Name: "tenengrad", Family: FamilySharpness, Compute: tenengrad},
		{Name: "gabor_variance", Family: FamilySharpness, Compute: gaborVariance},
		{Name: "fft_high_frequency_ratio", Unit: "ratio", Family: FamilySharpness, Compute: fftHighFrequencyRatio},
		{Name: "wavelet_detail_energy", Family: FamilySharpness, Compute: waveletDetailEnergy},
		{Name: "gradient_mean", Family: FamilySharpness, Compute: gradientMean},
		{Name: "gradient_mean_normalized", Family: FamilySharpness, Compute: gradientMeanNormalized},
		{Name: "sobel_edge_intensity", Family: FamilySharpness, Compute: sobelEdgeIntensity},
		{Name: "local_variance", Family: FamilySharpness, Compute: localVariance},
		{Name: "edge_count", Unit: "px", Family: FamilySharpness, Compute: edgeCount},
	}
}

func laplacianVariance(in *Input) (Value, error) {
	return Scalar(in.Laplacian().Variance()), nil
}

// laplacianVarianceSmoothed suppresses sensor noise with a Gaussian
// pre-blur before measuring focus.
func laplacianVarianceSmoothed(in *Input) (Value, error) {
	smoothed, err := imaging.GaussianBlurContext(in.Context(), in.GrayPlane(), in.Options().SmoothingWindow, 0)
	if err != nil {
		return Value{}, err
	}
	return Scalar(imaging.Laplacian(smoothed).Variance()), nil
}

// brenner sums squared differences between rows two apart.
func brenner(in *Input) (Value, error) {
	p := in.GrayPlane()
	if p.Height <= 2 {
		return Value{}, fmt.Errorf("image height %d too small for a two-row difference", p.Height)
	}
	var sum float64
	w := p.Width
	for y := 0; y < p.Height-2; y++ {
		for x := 0; x < w; x++ {
			d := p.Data[(y+2)*w+x] - p.Data[y*w+x]
			sum += d * d
		}
	}
	return Scalar(sum), nil
}

func tenengrad(in *Input) (Value, error) {
	gx, gy := in.Sobel()
	var sum float64
	for i := range gx.Data {
		sum += gx.Data[i]*gx.Data[i] + gy.Data[i]*gy.Data[i]
	}
	return Scalar(sum), nil
}

func gaborVariance(in *Input) (Value, error) {
	g := in.Options().Gabor
	if g.KernelSize > in.Width() || g.KernelSize > in.Height() {
		return Value{}, fmt.Errorf("gabor kernel %dx%d larger than image %dx%d", g.KernelSize, g.KernelSize, in.Width(), in.Height())
	}
	k := imaging.GaborKernel(g.KernelSize, g.Sigma, g.Theta, g.Lambda, g.Gamma, g.Psi)
	resp, err := imaging.CorrelateContext(in.Context(), in.GrayPlane(), k)
	if err != nil {
		return Value{}, err
	}
	return Scalar(resp.Variance()), nil
}

// fftHighFrequencyRatio is the share of log-magnitude outside the
// low-frequency disk.
func fftHighFrequencyRatio(in *Input) (Value, error) {
	mag, err := imaging.FFTLogMagnitudeContext(in.Context(), in.GrayPlane())
	if err != nil {
		return Value{}, err
	}
	low, high := imaging.DiskSplit(mag, in.Options().FFTMaskRadius)
	total := low + high
	if total == 0 {
		return Scalar(0), nil
	}
	return Scalar(high / total), nil
}

func waveletDetailEnergy(in *Input) (Value, error) {
	return Scalar(imaging.Haar(in.GrayPlane()).DetailEnergy()), nil
}

func gradientMagnitudes(in *Input) []float64 {
	gx, gy := in.Sobel()
	mags := make([]float64, len(gx.Data))
	for i := range mags {
		mags[i] = math.Hypot(gx.Data[i], gy.Data[i])
	}
	return mags
}

func gradientMean(in *Input) (Value, error) {
	return Scalar(stat.Mean(gradientMagnitudes(in), nil)), nil
}

func gradientMeanNormalized(in *Input) (Value, error) {
	mean := in.GrayPlane().Mean()
	if mean == 0 {
		return Value{}, errors.New("mean intensity is zero")
	}
	return Scalar(stat.Mean(gradientMagnitudes(in), nil) / mean), nil
}

func sobelEdgeIntensity(in *Input) (Value, error) {
	return Scalar(floats.Sum(gradientMagnitudes(in))), nil
}

// localVariance averages E[X²] - E[X]² over a sliding window.
func localVariance(in *Input) (Value, error) {
	p := in.GrayPlane()
	win := in.Options().LocalVarianceWindow
	mean, err := imaging.BoxMeanContext(in.Context(), p, win)
	if err != nil {
		return Value{}, err
	}
	sq, err := imaging.BoxMeanContext(in.Context(), p.Map(func(v float64) float64 { return v * v }), win)
	if err != nil {
		return Value{}, err
	}

	var total float64
	for i := range mean.Data {
		total += sq.Data[i] - mean.Data[i]*mean.Data[i]
	}
	return Scalar(total / float64(len(mean.Data))), nil
}

func edgeCount(in *Input) (Value, error) {
	opts := in.Options()
	edges := imaging.Canny(in.GrayPlane(), opts.CannyLow, opts.CannyHigh)
	return Scalar(float64(edges.Count())), nil
}
