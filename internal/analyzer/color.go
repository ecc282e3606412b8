package analyzer

import (
	"fmt"
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/stat"

	"go-photo-qc/internal/imaging"
)

func colorDescriptors() []Descriptor {
	return []Descriptor{
		{Name: "colorfulness", Family: FamilyColor, Capability: CapabilityColor, Compute: colorfulness},
		{Name: "shadow_clipping", Unit: "%", Family: FamilyColor, Compute: shadowClipping},
		{Name: "highlight_clipping", Unit: "%", Family: FamilyColor, Compute: highlightClipping},
		{Name: "histogram_entropy", Unit: "bits", Family: FamilyColor, Compute: histogramEntropy},
		{Name: "luminance_stddev", Family: FamilyColor, Compute: luminanceStdDev},
		{Name: "intensity_range", Family: FamilyColor, Compute: intensityRange},
		{Name: "white_balance_gain_r", Unit: "gain", Family: FamilyColor, Capability: CapabilityColor, Compute: whiteBalanceGain(0)},
		{Name: "white_balance_gain_g", Unit: "gain", Family: FamilyColor, Capability: CapabilityColor, Compute: whiteBalanceGain(1)},
		{Name: "white_balance_gain_b", Unit: "gain", Family: FamilyColor, Capability: CapabilityColor, Compute: whiteBalanceGain(2)},
		{Name: "white_balance_delta_e", Unit: "ΔE00", Family: FamilyColor, Capability: CapabilityColor, Compute: whiteBalanceDeltaE},
		{Name: "color_cast_strength", Family: FamilyColor, Capability: CapabilityColor, Compute: colorCastStrength},
	}
}

// colorfulness follows Hasler and Süsstrunk: opponent channels rg and yb,
// spread plus 0.3 of their mean magnitude.
func colorfulness(in *Input) (Value, error) {
	r, g, b := in.RGB()
	n := len(r.Data)
	rg := make([]float64, n)
	yb := make([]float64, n)
	for i := 0; i < n; i++ {
		rg[i] = r.Data[i] - g.Data[i]
		yb[i] = 0.5*(r.Data[i]+g.Data[i]) - b.Data[i]
	}
	meanRG, stdRG := stat.PopMeanStdDev(rg, nil)
	meanYB, stdYB := stat.PopMeanStdDev(yb, nil)

	score := math.Sqrt(stdRG*stdRG+stdYB*stdYB) + 0.3*math.Sqrt(meanRG*meanRG+meanYB*meanYB)
	return Scalar(score), nil
}

func clippingPercent(in *Input, bin int) float64 {
	hist := imaging.Histogram(in.Gray())
	return float64(hist[bin]) / float64(len(in.Gray())) * 100
}

func shadowClipping(in *Input) (Value, error) {
	return Scalar(clippingPercent(in, 0)), nil
}

func highlightClipping(in *Input) (Value, error) {
	return Scalar(clippingPercent(in, 255)), nil
}

func histogramEntropy(in *Input) (Value, error) {
	return Scalar(imaging.Entropy(imaging.Histogram(in.Gray()))), nil
}

// luminanceStdDev is the spread of the HSV value channel, a dynamic range proxy.
func luminanceStdDev(in *Input) (Value, error) {
	v := imaging.PlaneFrom(in.Width(), in.Height(), in.Image.Value())
	return Scalar(v.StdDev()), nil
}

func intensityRange(in *Input) (Value, error) {
	p := in.GrayPlane()
	return Scalar(p.Max() - p.Min()), nil
}

func channelMeans(in *Input) [3]float64 {
	r, g, b := in.RGB()
	return [3]float64{r.Mean(), g.Mean(), b.Mean()}
}

var channelNames = [3]string{"red", "green", "blue"}

// whiteBalanceGain is the gray-world gain for one channel.
func whiteBalanceGain(c int) ComputeFunc {
	return func(in *Input) (Value, error) {
		means := channelMeans(in)
		if means[c] == 0 {
			return Value{}, fmt.Errorf("%s channel mean is zero", channelNames[c])
		}
		gray := (means[0] + means[1] + means[2]) / 3
		return Scalar(gray / means[c]), nil
	}
}

// whiteBalanceDeltaE is the CIEDE2000 distance between the average color
// and neutral white (L=100, a=0, b=0).
func whiteBalanceDeltaE(in *Input) (Value, error) {
	means := channelMeans(in)
	avg := colorful.Color{R: means[0] / 255, G: means[1] / 255, B: means[2] / 255}
	white := colorful.Lab(1, 0, 0)

	// go-colorful works on L in [0, 1]; scale to conventional units
	dE := avg.DistanceCIEDE2000(white) * 100

	l, a, b := avg.Lab()
	return Value{
		V: dE,
		Detail: map[string]any{
			"L": l * 100,
			"a": a * 100,
			"b": b * 100,
		},
	}, nil
}

// colorCastStrength is the distance of the channel means from their gray level.
func colorCastStrength(in *Input) (Value, error) {
	means := channelMeans(in)
	gray := (means[0] + means[1] + means[2]) / 3
	var sq float64
	for _, m := range means {
		sq += (m - gray) * (m - gray)
	}
	return Scalar(math.Sqrt(sq)), nil
}
