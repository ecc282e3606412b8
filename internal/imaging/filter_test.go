package imaging

import (
	"context"
	"errors"
	"math"
	"testing"
)

func uniformPlane(w, h int, v float64) *Plane {
	p := NewPlane(w, h)
	for i := range p.Data {
		p.Data[i] = v
	}
	return p
}

func checkerPlane(w, h, cell int) *Plane {
	p := NewPlane(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if ((x/cell)+(y/cell))%2 == 0 {
				p.Set(x, y, 255)
			}
		}
	}
	return p
}

func TestReflect101(t *testing.T) {
	tests := []struct{ i, n, want int }{
		{-1, 5, 1},
		{-2, 5, 2},
		{5, 5, 3},
		{6, 5, 2},
		{0, 1, 0},
		{3, 1, 0},
	}
	for _, tt := range tests {
		if got := reflect101(tt.i, tt.n); got != tt.want {
			t.Errorf("reflect101(%d, %d) = %d, want %d", tt.i, tt.n, got, tt.want)
		}
	}
}

func TestLaplacian_UniformIsZero(t *testing.T) {
	lap := Laplacian(uniformPlane(16, 12, 90))
	for i, v := range lap.Data {
		if v != 0 {
			t.Fatalf("Expected zero response at %d, got %f", i, v)
		}
	}
}

func TestGaussianKernel_Normalized(t *testing.T) {
	for _, size := range []int{3, 5, 9} {
		k := GaussianKernel(size, 0)
		if math.Abs(k.Sum()-1) > 1e-9 {
			t.Errorf("Size %d: expected sum 1, got %f", size, k.Sum())
		}
	}
}

func TestGaussianBlur_ReducesVariance(t *testing.T) {
	p := checkerPlane(32, 32, 2)
	blurred := GaussianBlur(p, 5, 0)
	if blurred.Variance() >= p.Variance() {
		t.Errorf("Expected blur to reduce variance: %f >= %f", blurred.Variance(), p.Variance())
	}
}

func TestMedianFilter_RemovesImpulse(t *testing.T) {
	p := uniformPlane(9, 9, 50)
	p.Set(4, 4, 255)
	out := MedianFilter(p, 5)
	if out.At(4, 4) != 50 {
		t.Errorf("Expected impulse removed, got %f", out.At(4, 4))
	}
}

func TestConvolveValid(t *testing.T) {
	p := uniformPlane(10, 8, 2)
	k := NewKernel(3, 3, []float64{1, 1, 1, 1, 1, 1, 1, 1, 1})
	out, err := ConvolveValid(p, k)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if out.Width != 8 || out.Height != 6 {
		t.Errorf("Expected 8x6 output, got %dx%d", out.Width, out.Height)
	}
	if out.At(3, 3) != 18 {
		t.Errorf("Expected 18, got %f", out.At(3, 3))
	}

	if _, err := ConvolveValid(NewPlane(2, 2), k); err == nil {
		t.Error("Expected error for kernel larger than plane")
	}
}

func TestCanny_CountInRange(t *testing.T) {
	p := checkerPlane(40, 30, 8)
	edges := Canny(p, 100, 200)
	n := edges.Count()
	if n <= 0 || n > 40*30 {
		t.Errorf("Expected edge count in (0, %d], got %d", 40*30, n)
	}

	if Canny(uniformPlane(20, 20, 128), 100, 200).Count() != 0 {
		t.Error("Expected no edges on a uniform plane")
	}
}

func TestHoughSegments_FindsLine(t *testing.T) {
	edges := &EdgeMap{Width: 200, Height: 100, Edges: make([]bool, 200*100)}
	for x := 20; x < 180; x++ {
		edges.Edges[50*200+x] = true
	}

	segs := HoughSegments(edges, HoughParams{Threshold: 50, MinLength: 100, MaxGap: 10, Band: 2})
	if len(segs) == 0 {
		t.Fatal("Expected at least one segment")
	}
	if segs[0].Length() < 100 {
		t.Errorf("Expected segment length >= 100, got %f", segs[0].Length())
	}
	for _, pt := range segs[0].Points {
		if math.Abs(segs[0].Offset(pt)) > 2 {
			t.Errorf("Point %v outside band: %f", pt, segs[0].Offset(pt))
		}
	}
}

func TestHoughSegments_Empty(t *testing.T) {
	edges := &EdgeMap{Width: 10, Height: 10, Edges: make([]bool, 100)}
	if segs := HoughSegments(edges, HoughParams{Threshold: 5, MinLength: 5, MaxGap: 2}); segs != nil {
		t.Errorf("Expected no segments, got %d", len(segs))
	}
}

func TestFFTLogMagnitude_DCCentered(t *testing.T) {
	p := uniformPlane(16, 8, 10)
	mag := FFTLogMagnitude(p)
	dc := mag.At(8, 4)
	want := 20 * math.Log1p(16*8*10)
	if math.Abs(dc-want) > 1e-6 {
		t.Errorf("Expected DC %f, got %f", want, dc)
	}
	inside, outside := DiskSplit(mag, 0)
	if math.Abs(inside-dc) > 1e-6 {
		t.Errorf("Expected only DC inside radius 0, got %f", inside)
	}
	if outside > 1e-6 {
		t.Errorf("Expected no energy away from DC, got %f", outside)
	}
}

func TestHaar_UniformHasNoDetail(t *testing.T) {
	bands := Haar(uniformPlane(7, 5, 40))
	if bands.DetailEnergy() != 0 {
		t.Errorf("Expected zero detail energy, got %f", bands.DetailEnergy())
	}
	if bands.Approx.Width != 4 || bands.Approx.Height != 3 {
		t.Errorf("Expected 4x3 approximation, got %dx%d", bands.Approx.Width, bands.Approx.Height)
	}
	if bands.Approx.At(0, 0) != 80 {
		t.Errorf("Expected approximation 80, got %f", bands.Approx.At(0, 0))
	}
}

func TestEntropy(t *testing.T) {
	var hist [256]int
	hist[0], hist[255] = 50, 50
	if e := Entropy(hist); math.Abs(e-1) > 1e-12 {
		t.Errorf("Expected 1 bit, got %f", e)
	}
}

func TestContextVariants_StopWhenCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := checkerPlane(300, 300, 8)

	tests := []struct {
		name string
		run  func() (*Plane, error)
	}{
		{"correlate", func() (*Plane, error) { return CorrelateContext(ctx, p, GaussianKernel(5, 0)) }},
		{"convolve valid", func() (*Plane, error) { return ConvolveValidContext(ctx, p, GaussianKernel(5, 0)) }},
		{"box mean", func() (*Plane, error) { return BoxMeanContext(ctx, p, 7) }},
		{"gaussian blur", func() (*Plane, error) { return GaussianBlurContext(ctx, p, 5, 0) }},
		{"median", func() (*Plane, error) { return MedianFilterContext(ctx, p, 5) }},
		{"fft", func() (*Plane, error) { return FFTLogMagnitudeContext(ctx, p) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := tt.run()
			if !errors.Is(err, context.Canceled) {
				t.Errorf("Expected context.Canceled, got %v", err)
			}
			if out != nil {
				t.Error("Expected no plane from a canceled run")
			}
		})
	}
}

func TestParallelRows_PanicReachesCaller(t *testing.T) {
	defer func() {
		if r := recover(); r != "bad strip" {
			t.Errorf("Expected the strip panic on the calling goroutine, got %v", r)
		}
	}()
	// Large enough to be split across goroutines on multi-core machines
	_ = parallelRows(context.Background(), 512, 512*512, func(y0, y1 int) {
		if y0 == 0 {
			panic("bad strip")
		}
	})
	t.Error("Expected parallelRows to panic")
}
