package imaging

import (
	"context"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
)

// FFTLogMagnitude returns the centered log-magnitude spectrum
// 20·ln(1+|F|) of p. The zero frequency sits at (Width/2, Height/2).
func FFTLogMagnitude(p *Plane) *Plane {
	mag, _ := FFTLogMagnitudeContext(context.Background(), p)
	return mag
}

// FFTLogMagnitudeContext is FFTLogMagnitude that gives up between rows and
// columns once ctx is done.
func FFTLogMagnitudeContext(ctx context.Context, p *Plane) (*Plane, error) {
	w, h := p.Width, p.Height
	spec := make([]complex128, w*h)
	for i, v := range p.Data {
		spec[i] = complex(v, 0)
	}

	rowFFT := fourier.NewCmplxFFT(w)
	row := make([]complex128, w)
	for y := 0; y < h; y++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rowFFT.Coefficients(row, spec[y*w:(y+1)*w])
		copy(spec[y*w:], row)
	}

	colFFT := fourier.NewCmplxFFT(h)
	col := make([]complex128, h)
	out := make([]complex128, h)
	for x := 0; x < w; x++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for y := 0; y < h; y++ {
			col[y] = spec[y*w+x]
		}
		colFFT.Coefficients(out, col)
		for y := 0; y < h; y++ {
			spec[y*w+x] = out[y]
		}
	}

	mag := NewPlane(w, h)
	for y := 0; y < h; y++ {
		sy := (y + h/2) % h
		for x := 0; x < w; x++ {
			sx := (x + w/2) % w
			mag.Data[sy*w+sx] = 20 * math.Log1p(cmplx.Abs(spec[y*w+x]))
		}
	}
	return mag, nil
}

// DiskSplit sums p inside and outside a disk of the given radius centered
// at (Width/2, Height/2).
func DiskSplit(p *Plane, radius float64) (inside, outside float64) {
	cx, cy := p.Width/2, p.Height/2
	r2 := radius * radius
	for y := 0; y < p.Height; y++ {
		dy := float64(y - cy)
		for x := 0; x < p.Width; x++ {
			dx := float64(x - cx)
			if dx*dx+dy*dy <= r2 {
				inside += p.Data[y*p.Width+x]
			} else {
				outside += p.Data[y*p.Width+x]
			}
		}
	}
	return inside, outside
}
