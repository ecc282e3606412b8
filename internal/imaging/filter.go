package imaging

import (
	"context"
	"fmt"
	"math"
	"slices"
)

// Kernel is a 2-D filter with its anchor at the center.
type Kernel struct {
	Width  int
	Height int
	Data   []float64
}

// NewKernel wraps row-major weights.
func NewKernel(width, height int, data []float64) Kernel {
	return Kernel{Width: width, Height: height, Data: data}
}

func (k Kernel) at(x, y int) float64 { return k.Data[y*k.Width+x] }

// Sum returns the sum of the weights.
func (k Kernel) Sum() float64 {
	var s float64
	for _, v := range k.Data {
		s += v
	}
	return s
}

var (
	laplacianKernel = NewKernel(3, 3, []float64{0, 1, 0, 1, -4, 1, 0, 1, 0})
	sobelXKernel    = NewKernel(3, 3, []float64{-1, 0, 1, -2, 0, 2, -1, 0, 1})
	sobelYKernel    = NewKernel(3, 3, []float64{-1, -2, -1, 0, 0, 0, 1, 2, 1})
)

// reflect101 maps an out-of-range index onto gfedcb|abcdefgh|gfedcba.
func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		}
		if i >= n {
			i = 2*n - 2 - i
		}
	}
	return i
}

// replicate clamps an index onto aaaaaa|abcdefgh|hhhhhhh.
func replicate(i, n int) int {
	return min(max(i, 0), n-1)
}

// Correlate applies k to p with reflect-101 borders. The result has the
// same dimensions as p.
func Correlate(p *Plane, k Kernel) *Plane {
	out, _ := CorrelateContext(context.Background(), p, k)
	return out
}

// CorrelateContext is Correlate that gives up between rows once ctx is done.
func CorrelateContext(ctx context.Context, p *Plane, k Kernel) (*Plane, error) {
	out := NewPlane(p.Width, p.Height)
	ax, ay := k.Width/2, k.Height/2
	w, h := p.Width, p.Height

	err := parallelRows(ctx, h, w*h, func(y0, y1 int) {
		for y := y0; y < y1 && ctx.Err() == nil; y++ {
			for x := 0; x < w; x++ {
				var acc float64
				interior := x-ax >= 0 && x+k.Width-ax <= w && y-ay >= 0 && y+k.Height-ay <= h
				for ky := 0; ky < k.Height; ky++ {
					sy := y + ky - ay
					if !interior {
						sy = reflect101(sy, h)
					}
					row := sy * w
					for kx := 0; kx < k.Width; kx++ {
						wgt := k.at(kx, ky)
						if wgt == 0 {
							continue
						}
						sx := x + kx - ax
						if !interior {
							sx = reflect101(sx, w)
						}
						acc += wgt * p.Data[row+sx]
					}
				}
				out.Data[y*w+x] = acc
			}
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ConvolveValid computes the true 2-D convolution of p with k, keeping only
// positions where the kernel fits entirely inside the plane.
func ConvolveValid(p *Plane, k Kernel) (*Plane, error) {
	return ConvolveValidContext(context.Background(), p, k)
}

// ConvolveValidContext is ConvolveValid that gives up between rows once ctx
// is done.
func ConvolveValidContext(ctx context.Context, p *Plane, k Kernel) (*Plane, error) {
	ow, oh := p.Width-k.Width+1, p.Height-k.Height+1
	if ow <= 0 || oh <= 0 {
		return nil, fmt.Errorf("kernel %dx%d larger than plane %dx%d", k.Width, k.Height, p.Width, p.Height)
	}
	out := NewPlane(ow, oh)
	err := parallelRows(ctx, oh, ow*oh, func(y0, y1 int) {
		for y := y0; y < y1 && ctx.Err() == nil; y++ {
			for x := 0; x < ow; x++ {
				var acc float64
				for ky := 0; ky < k.Height; ky++ {
					row := (y + ky) * p.Width
					for kx := 0; kx < k.Width; kx++ {
						acc += k.at(k.Width-1-kx, k.Height-1-ky) * p.Data[row+x+kx]
					}
				}
				out.Data[y*ow+x] = acc
			}
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// BoxMean returns the mean over a size x size window at every pixel.
func BoxMean(p *Plane, size int) *Plane {
	out, _ := BoxMeanContext(context.Background(), p, size)
	return out
}

func BoxMeanContext(ctx context.Context, p *Plane, size int) (*Plane, error) {
	n := size * size
	data := make([]float64, n)
	for i := range data {
		data[i] = 1 / float64(n)
	}
	return CorrelateContext(ctx, p, NewKernel(size, size, data))
}

// GaussianKernel returns a normalized size x size Gaussian. A non-positive
// sigma is derived from the size the same way common vision libraries do.
func GaussianKernel(size int, sigma float64) Kernel {
	if sigma <= 0 {
		sigma = 0.3*(float64(size-1)*0.5-1) + 0.8
	}
	oneD := make([]float64, size)
	c := float64(size-1) / 2
	var sum float64
	for i := range oneD {
		d := float64(i) - c
		oneD[i] = math.Exp(-(d * d) / (2 * sigma * sigma))
		sum += oneD[i]
	}
	for i := range oneD {
		oneD[i] /= sum
	}
	data := make([]float64, size*size)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			data[y*size+x] = oneD[y] * oneD[x]
		}
	}
	return NewKernel(size, size, data)
}

// GaussianBlur smooths p with a size x size Gaussian.
func GaussianBlur(p *Plane, size int, sigma float64) *Plane {
	return Correlate(p, GaussianKernel(size, sigma))
}

func GaussianBlurContext(ctx context.Context, p *Plane, size int, sigma float64) (*Plane, error) {
	return CorrelateContext(ctx, p, GaussianKernel(size, sigma))
}

// GaborKernel builds a real Gabor kernel with the conventional
// parameterization (ksize, sigma, theta, lambda, gamma, psi).
func GaborKernel(size int, sigma, theta, lambda, gamma, psi float64) Kernel {
	half := size / 2
	sinT, cosT := math.Sin(theta), math.Cos(theta)
	ex := -0.5 / (sigma * sigma)
	ey := -0.5 / (sigma * sigma / (gamma * gamma))
	cscale := 2 * math.Pi / lambda

	data := make([]float64, size*size)
	for y := -half; y <= half; y++ {
		for x := -half; x <= half; x++ {
			xr := float64(x)*cosT + float64(y)*sinT
			yr := -float64(x)*sinT + float64(y)*cosT
			v := math.Exp(ex*xr*xr+ey*yr*yr) * math.Cos(cscale*xr+psi)
			data[(half-y)*size+(half-x)] = v
		}
	}
	return NewKernel(size, size, data)
}

// MedianFilter replaces every sample with the median of its size x size
// neighborhood using replicated borders. size must be odd.
func MedianFilter(p *Plane, size int) *Plane {
	out, _ := MedianFilterContext(context.Background(), p, size)
	return out
}

// MedianFilterContext is MedianFilter that gives up between rows once ctx
// is done.
func MedianFilterContext(ctx context.Context, p *Plane, size int) (*Plane, error) {
	out := NewPlane(p.Width, p.Height)
	r := size / 2
	w, h := p.Width, p.Height
	err := parallelRows(ctx, h, w*h, func(y0, y1 int) {
		window := make([]float64, size*size)
		for y := y0; y < y1 && ctx.Err() == nil; y++ {
			for x := 0; x < w; x++ {
				i := 0
				for dy := -r; dy <= r; dy++ {
					row := replicate(y+dy, h) * w
					for dx := -r; dx <= r; dx++ {
						window[i] = p.Data[row+replicate(x+dx, w)]
						i++
					}
				}
				slices.Sort(window)
				out.Data[y*w+x] = window[len(window)/2]
			}
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Sobel returns the horizontal and vertical 3x3 derivatives.
func Sobel(p *Plane) (gx, gy *Plane) {
	return Correlate(p, sobelXKernel), Correlate(p, sobelYKernel)
}

// Laplacian applies the 4-neighbor Laplacian [0 1 0; 1 -4 1; 0 1 0].
func Laplacian(p *Plane) *Plane {
	return Correlate(p, laplacianKernel)
}
