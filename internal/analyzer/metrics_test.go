package analyzer

import (
	"math"
	"testing"

	"go-photo-qc/internal/imaging"
	"go-photo-qc/pkg/models"
)

func TestUniformGrayScenario(t *testing.T) {
	in := newTestInput(createUniformImage(t, 100, 100, 128, 128, 128), nil)

	tests := []struct {
		name string
		fn   ComputeFunc
	}{
		{"laplacian_variance", laplacianVariance},
		{"brenner", brenner},
		{"colorfulness", colorfulness},
		{"vignetting", vignetting},
		{"chromatic_aberration", chromaticAberration},
		{"noise_median_residual", noiseMedianResidual},
		{"intensity_range", intensityRange},
		{"color_cast_strength", colorCastStrength},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if v := mustCompute(t, tt.fn, in); v != 0 {
				t.Errorf("Expected 0, got %v", v)
			}
		})
	}
}

func TestBlackWhiteSplitScenario(t *testing.T) {
	img := createGrayImage(t, 100, 100, func(x, y int) uint8 {
		if x < 50 {
			return 0
		}
		return 255
	})
	in := newTestInput(img, nil)

	if n := mustCompute(t, edgeCount, in); n <= 0 || n > 100*100 {
		t.Errorf("Expected edge count in (0, 10000], got %v", n)
	}
	if v := mustCompute(t, shadowClipping, in); v != 50 {
		t.Errorf("Expected 50%% shadow clipping, got %v", v)
	}
	if v := mustCompute(t, highlightClipping, in); v != 50 {
		t.Errorf("Expected 50%% highlight clipping, got %v", v)
	}
	if v := mustCompute(t, histogramEntropy, in); math.Abs(v-1) > 1e-12 {
		t.Errorf("Expected 1 bit of entropy, got %v", v)
	}
}

func TestBlurMonotonicity(t *testing.T) {
	sharp := createNoiseImage(t, 128, 128, 11)
	blurred := blurImage(t, sharp, 5)

	tests := []struct {
		name string
		fn   ComputeFunc
	}{
		{"laplacian_variance", laplacianVariance},
		{"brenner", brenner},
		{"fft_high_frequency_ratio", fftHighFrequencyRatio},
		{"tenengrad", tenengrad},
		{"wavelet_detail_energy", waveletDetailEnergy},
		{"gradient_mean", gradientMean},
		{"local_variance", localVariance},
		{"laplacian_variance_smoothed", laplacianVarianceSmoothed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := mustCompute(t, tt.fn, newTestInput(sharp, nil))
			b := mustCompute(t, tt.fn, newTestInput(blurred, nil))
			if b >= s {
				t.Errorf("Expected blurred < sharp, got %v >= %v", b, s)
			}
		})
	}
}

func TestFFTHighFrequencyRatio_Range(t *testing.T) {
	v := mustCompute(t, fftHighFrequencyRatio, newTestInput(createNoiseImage(t, 64, 64, 12), nil))
	if v <= 0 || v >= 1 {
		t.Errorf("Expected ratio in (0, 1), got %v", v)
	}
	black := createUniformImage(t, 32, 32, 0, 0, 0)
	if v := mustCompute(t, fftHighFrequencyRatio, newTestInput(black, nil)); v != 0 {
		t.Errorf("Expected 0 for an all-black image, got %v", v)
	}
}

func TestGradientMeanNormalized_ZeroMean(t *testing.T) {
	black := createUniformImage(t, 16, 16, 0, 0, 0)
	if _, err := gradientMeanNormalized(newTestInput(black, nil)); err == nil {
		t.Error("Expected error for zero mean intensity")
	}
}

func TestGaborVariance_KernelLargerThanImage(t *testing.T) {
	small := createNoiseImage(t, 20, 20, 13)
	if _, err := gaborVariance(newTestInput(small, nil)); err == nil {
		t.Error("Expected error when the Gabor kernel exceeds the image")
	}
	if v := mustCompute(t, gaborVariance, newTestInput(createNoiseImage(t, 64, 64, 13), nil)); v <= 0 {
		t.Errorf("Expected positive Gabor variance, got %v", v)
	}
}

func TestBrenner_TooShort(t *testing.T) {
	img := createGrayImage(t, 10, 2, func(x, y int) uint8 { return uint8(x) })
	if _, err := brenner(newTestInput(img, nil)); err == nil {
		t.Error("Expected error for a two-row image")
	}
}

func TestColorfulness_NonNegative(t *testing.T) {
	for seed := uint64(20); seed < 25; seed++ {
		v := mustCompute(t, colorfulness, newTestInput(createNoiseImage(t, 32, 32, seed), nil))
		if v < 0 {
			t.Errorf("Seed %d: expected non-negative colorfulness, got %v", seed, v)
		}
	}
	red := mustCompute(t, colorfulness, newTestInput(createUniformImage(t, 8, 8, 255, 0, 0), nil))
	if red <= 0 {
		t.Errorf("Expected positive colorfulness for pure red, got %v", red)
	}
}

func TestWhiteBalance_GrayWorldRoundTrip(t *testing.T) {
	img := createUniformImage(t, 20, 20, 100, 150, 200)
	in := newTestInput(img, nil)

	means := channelMeans(in)
	gains := [3]float64{
		mustCompute(t, whiteBalanceGain(0), in),
		mustCompute(t, whiteBalanceGain(1), in),
		mustCompute(t, whiteBalanceGain(2), in),
	}
	corrected := [3]float64{means[0] * gains[0], means[1] * gains[1], means[2] * gains[2]}
	for c := 1; c < 3; c++ {
		if math.Abs(corrected[c]-corrected[0]) > 1e-9 {
			t.Errorf("Expected equal corrected means, got %v", corrected)
		}
	}
}

func TestWhiteBalance_ZeroChannel(t *testing.T) {
	in := newTestInput(createUniformImage(t, 4, 4, 0, 120, 120), nil)
	if _, err := whiteBalanceGain(0)(in); err == nil {
		t.Error("Expected error for a zero red mean")
	}
}

func TestWhiteBalanceDeltaE(t *testing.T) {
	white := mustCompute(t, whiteBalanceDeltaE, newTestInput(createUniformImage(t, 4, 4, 255, 255, 255), nil))
	if white > 0.5 {
		t.Errorf("Expected near-zero ΔE for white, got %v", white)
	}
	cast := mustCompute(t, whiteBalanceDeltaE, newTestInput(createUniformImage(t, 4, 4, 255, 200, 150), nil))
	if cast <= white {
		t.Errorf("Expected a warm cast to be farther from white: %v <= %v", cast, white)
	}
}

func TestChromaticAberration(t *testing.T) {
	t.Run("identical planes", func(t *testing.T) {
		gray := createNoiseImage(t, 40, 20, 30).Gray()
		img, _ := imaging.New(40, 20, gray, gray, gray)
		v, err := chromaticAberration(newTestInput(img, nil))
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if v.V != 0 || v.Detail["red_shift"] != 0 || v.Detail["blue_shift"] != 0 {
			t.Errorf("Expected zero shifts, got %v %v", v.V, v.Detail)
		}
	})

	t.Run("shifted red", func(t *testing.T) {
		green := createNoiseImage(t, 40, 20, 31).Gray()
		red := make([]uint8, len(green))
		for y := 0; y < 20; y++ {
			for x := 0; x < 40; x++ {
				red[y*40+(x+3)%40] = green[y*40+x]
			}
		}
		img, _ := imaging.New(40, 20, red, green, green)
		v, err := chromaticAberration(newTestInput(img, nil))
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if v.Detail["red_shift"] != -3 {
			t.Errorf("Expected red shift -3, got %v", v.Detail["red_shift"])
		}
		want := (3.0 / 40 * 100) / 2
		if math.Abs(v.V-want) > 1e-12 {
			t.Errorf("Expected score %v, got %v", want, v.V)
		}
	})
}

func TestVignetting(t *testing.T) {
	dark := createGrayImage(t, 100, 100, func(x, y int) uint8 {
		dx, dy := float64(x-50), float64(y-50)
		return uint8(math.Max(0, 200-0.03*(dx*dx+dy*dy)))
	})
	if v := mustCompute(t, vignetting, newTestInput(dark, nil)); v <= 0 {
		t.Errorf("Expected positive vignetting for darker corners, got %v", v)
	}

	bright := createGrayImage(t, 100, 100, func(x, y int) uint8 {
		dx, dy := float64(x-50), float64(y-50)
		return uint8(math.Min(255, 50+0.03*(dx*dx+dy*dy)))
	})
	if v := mustCompute(t, vignetting, newTestInput(bright, nil)); v >= 0 {
		t.Errorf("Expected negative vignetting for brighter corners, got %v", v)
	}

	black := createUniformImage(t, 20, 20, 0, 0, 0)
	if v := mustCompute(t, vignetting, newTestInput(black, nil)); v != 0 {
		t.Errorf("Expected 0 when the center is black, got %v", v)
	}
}

func TestLensDistortion(t *testing.T) {
	t.Run("no lines", func(t *testing.T) {
		v, err := lensDistortion(newTestInput(createUniformImage(t, 200, 200, 90, 90, 90), nil))
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if v.Status != models.StatusNoResult || v.Reason != models.ReasonNoLines {
			t.Errorf("Expected no_result %q, got %s %q", models.ReasonNoLines, v.Status, v.Reason)
		}
	})

	t.Run("straight edge", func(t *testing.T) {
		img := createGrayImage(t, 300, 200, func(x, y int) uint8 {
			if y < 40 {
				return 0
			}
			return 255
		})
		v, err := lensDistortion(newTestInput(img, nil))
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if v.Status == models.StatusNoResult {
			t.Fatal("Expected the step edge to be detected")
		}
		if math.Abs(v.V) > 1e-9 {
			t.Errorf("Expected no bow on a straight edge, got %v", v.V)
		}
	})

	t.Run("outward bow", func(t *testing.T) {
		img := createGrayImage(t, 300, 200, func(x, y int) uint8 {
			edge := 30 + 0.0001*float64((x-150)*(x-150))
			if float64(y) < edge {
				return 0
			}
			return 255
		})
		v, err := lensDistortion(newTestInput(img, nil))
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if v.Status == models.StatusNoResult {
			t.Fatal("Expected the curved edge to be detected")
		}
		if v.V <= 0 {
			t.Errorf("Expected positive (barrel) distortion, got %v", v.V)
		}
	})
}

func TestNoise(t *testing.T) {
	clean := createUniformImage(t, 32, 32, 120, 120, 120)
	noisy := createNoiseImage(t, 32, 32, 40)

	for _, fn := range []ComputeFunc{noiseMedianResidual, noiseLuminance, noiseChrominance, noiseLaplacianVariance} {
		c := mustCompute(t, fn, newTestInput(clean, nil))
		n := mustCompute(t, fn, newTestInput(noisy, nil))
		if c > 1e-9 || n <= 0 {
			t.Errorf("Expected clean=0 and noisy>0, got %v and %v", c, n)
		}
	}

	lumaOnly := createGrayImage(t, 32, 32, func(x, y int) uint8 { return uint8((x*37 + y*91) % 256) })
	rgb, _ := imaging.New(32, 32, lumaOnly.Gray(), lumaOnly.Gray(), lumaOnly.Gray())
	v, err := noiseDominance(newTestInput(rgb, nil))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if v.Detail["dominance"] != "luminance-dominant" || v.V >= 0 {
		t.Errorf("Expected luminance-dominant, got %v %v", v.Detail["dominance"], v.V)
	}
}

func TestCompression(t *testing.T) {
	img := createNoiseImage(t, 64, 64, 50)
	if v := mustCompute(t, blockiness, newTestInput(img, nil)); v <= 0 {
		t.Errorf("Expected positive blockiness, got %v", v)
	}
	if _, err := blockiness(newTestInput(createUniformImage(t, 8, 8, 1, 1, 1), nil)); err == nil {
		t.Error("Expected error for an image smaller than the block kernel")
	}

	flat := createUniformImage(t, 32, 32, 77, 77, 77)
	if v := mustCompute(t, blurResidual, newTestInput(flat, nil)); v > 1e-9 {
		t.Errorf("Expected no blur residual on a flat image, got %v", v)
	}
	if v := mustCompute(t, blurResidual, newTestInput(img, nil)); v <= 0 {
		t.Errorf("Expected positive blur residual, got %v", v)
	}
}

func TestReferenceMetrics_Degraded(t *testing.T) {
	ref := createNoiseImage(t, 48, 48, 60)
	blurred := blurImage(t, ref, 5)
	in := newTestInput(blurred, ref)

	s := mustCompute(t, ssim, in)
	if s <= 0 || s >= 1 {
		t.Errorf("Expected SSIM in (0, 1), got %v", s)
	}
	p := mustCompute(t, psnr, in)
	if math.IsInf(p, 0) || p <= 0 {
		t.Errorf("Expected finite positive PSNR, got %v", p)
	}
	m := mustCompute(t, mse, in)
	if want := 10 * math.Log10(255*255/m); math.Abs(want-p) > 1e-9 {
		t.Errorf("PSNR %v inconsistent with MSE %v", p, m)
	}
}
