package imaging

import "math"

// HaarBands holds the four subbands of a single-level 2-D Haar transform.
type HaarBands struct {
	Approx     *Plane
	Horizontal *Plane
	Vertical   *Plane
	Diagonal   *Plane
}

// Haar performs one level of the orthonormal 2-D Haar transform. Odd
// dimensions are extended by repeating the last row or column.
func Haar(p *Plane) HaarBands {
	w, h := (p.Width+1)/2, (p.Height+1)/2
	bands := HaarBands{
		Approx:     NewPlane(w, h),
		Horizontal: NewPlane(w, h),
		Vertical:   NewPlane(w, h),
		Diagonal:   NewPlane(w, h),
	}
	at := func(x, y int) float64 {
		return p.At(min(x, p.Width-1), min(y, p.Height-1))
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			a := at(2*x, 2*y)
			b := at(2*x+1, 2*y)
			c := at(2*x, 2*y+1)
			d := at(2*x+1, 2*y+1)
			i := y*w + x
			bands.Approx.Data[i] = (a + b + c + d) / 2
			bands.Horizontal.Data[i] = (a + b - c - d) / 2
			bands.Vertical.Data[i] = (a - b + c - d) / 2
			bands.Diagonal.Data[i] = (a - b - c + d) / 2
		}
	}
	return bands
}

// DetailEnergy is sqrt(mean(H²) + mean(V²) + mean(D²)).
func (b HaarBands) DetailEnergy() float64 {
	return math.Sqrt(b.Horizontal.MeanSquare() + b.Vertical.MeanSquare() + b.Diagonal.MeanSquare())
}
