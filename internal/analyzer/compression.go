package analyzer

import (
	"go-photo-qc/internal/imaging"
)

// blockKernel responds to the ring patterns left at 8x8 block boundaries.
var blockKernel = imaging.NewKernel(9, 9, []float64{
	-1, -1, -1, -1, -1, -1, -1, -1, -1,
	-1, 8, 8, 8, 8, 8, 8, 8, -1,
	-1, 8, -1, -1, -1, -1, -1, 8, -1,
	-1, 8, -1, 8, 8, 8, -1, 8, -1,
	-1, 8, -1, 8, -1, 8, -1, 8, -1,
	-1, 8, -1, 8, 8, 8, -1, 8, -1,
	-1, 8, -1, -1, -1, -1, -1, 8, -1,
	-1, 8, 8, 8, 8, 8, 8, 8, -1,
	-1, -1, -1, -1, -1, -1, -1, -1, -1,
})

func compressionDescriptors() []Descriptor {
	return []Descriptor{
		{Name: "blockiness", Family: FamilyCompression, Compute: blockiness},
		{Name: "blur_residual", Family: FamilyCompression, Compute: blurResidual},
	}
}

// blockiness is the mean squared valid-mode response to blockKernel.
func blockiness(in *Input) (Value, error) {
	resp, err := imaging.ConvolveValidContext(in.Context(), in.GrayPlane(), blockKernel)
	if err != nil {
		return Value{}, err
	}
	return Scalar(resp.MeanSquare()), nil
}

// blurResidual sums |I - G(I)| for a small Gaussian G.
func blurResidual(in *Input) (Value, error) {
	p := in.GrayPlane()
	blurred, err := imaging.GaussianBlurContext(in.Context(), p, in.Options().SmoothingWindow, 0)
	if err != nil {
		return Value{}, err
	}
	var total float64
	for i, v := range p.Data {
		d := v - blurred.Data[i]
		if d < 0 {
			d = -d
		}
		total += d
	}
	return Scalar(total), nil
}
