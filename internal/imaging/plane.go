package imaging

import (
	"context"
	"runtime"
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Plane is a single-channel float64 raster in row-major order.
type Plane struct {
	Width  int
	Height int
	Data   []float64
}

// NewPlane allocates a zeroed plane.
func NewPlane(width, height int) *Plane {
	return &Plane{Width: width, Height: height, Data: make([]float64, width*height)}
}

// PlaneFrom widens 8-bit samples into a new plane.
func PlaneFrom(width, height int, samples []uint8) *Plane {
	p := NewPlane(width, height)
	for i, v := range samples {
		p.Data[i] = float64(v)
	}
	return p
}

// At returns the sample at (x, y).
func (p *Plane) At(x, y int) float64 { return p.Data[y*p.Width+x] }

// Set stores v at (x, y).
func (p *Plane) Set(x, y int, v float64) { p.Data[y*p.Width+x] = v }

// Clone returns a deep copy.
func (p *Plane) Clone() *Plane {
	return &Plane{Width: p.Width, Height: p.Height, Data: append([]float64(nil), p.Data...)}
}

func (p *Plane) Mean() float64 { return stat.Mean(p.Data, nil) }

// Variance is the population variance of all samples.
func (p *Plane) Variance() float64 { return stat.PopVariance(p.Data, nil) }

// StdDev is the population standard deviation of all samples.
func (p *Plane) StdDev() float64 { return stat.PopStdDev(p.Data, nil) }

func (p *Plane) Sum() float64 { return floats.Sum(p.Data) }
func (p *Plane) Min() float64 { return floats.Min(p.Data) }
func (p *Plane) Max() float64 { return floats.Max(p.Data) }

// MeanSquare returns the mean of squared samples.
func (p *Plane) MeanSquare() float64 {
	if len(p.Data) == 0 {
		return 0
	}
	return floats.Dot(p.Data, p.Data) / float64(len(p.Data))
}

// Crop returns the sub-plane [x0, x1) x [y0, y1).
func (p *Plane) Crop(x0, y0, x1, y1 int) *Plane {
	out := NewPlane(x1-x0, y1-y0)
	for y := y0; y < y1; y++ {
		copy(out.Data[(y-y0)*out.Width:], p.Data[y*p.Width+x0:y*p.Width+x1])
	}
	return out
}

// Map returns a new plane with fn applied to every sample.
func (p *Plane) Map(fn func(float64) float64) *Plane {
	out := NewPlane(p.Width, p.Height)
	for i, v := range p.Data {
		out.Data[i] = fn(v)
	}
	return out
}

// Sub returns p - q element-wise. Both planes must share dimensions.
func (p *Plane) Sub(q *Plane) *Plane {
	out := NewPlane(p.Width, p.Height)
	floats.SubTo(out.Data, p.Data, q.Data)
	return out
}

// parallelRows splits [0, height) into horizontal strips processed
// concurrently. Small planes run inline. fn should stop early once ctx is
// done; parallelRows then reports ctx.Err(). A panic in any strip is
// re-raised on the calling goroutine after every strip has returned.
func parallelRows(ctx context.Context, height, pixels int, fn func(y0, y1 int)) error {
	workers := runtime.NumCPU()
	if pixels < 64*1024 || workers <= 1 || height < 2 {
		fn(0, height)
		return ctx.Err()
	}
	if height < workers {
		workers = height
	}
	rowsPerWorker := (height + workers - 1) / workers

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		panicked bool
		panicVal any
	)
	for start := 0; start < height; start += rowsPerWorker {
		end := min(start+rowsPerWorker, height)
		wg.Add(1)
		go func(y0, y1 int) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					mu.Lock()
					if !panicked {
						panicked, panicVal = true, r
					}
					mu.Unlock()
				}
			}()
			fn(y0, y1)
		}(start, end)
	}
	wg.Wait()

	if panicked {
		panic(panicVal)
	}
	return ctx.Err()
}
