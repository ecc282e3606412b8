package imaging

import "math"

// EdgeMap is a binary edge raster.
type EdgeMap struct {
	Width  int
	Height int
	Edges  []bool
}

// Count returns the number of edge pixels.
func (e *EdgeMap) Count() int {
	n := 0
	for _, v := range e.Edges {
		if v {
			n++
		}
	}
	return n
}

// At reports whether (x, y) is an edge pixel.
func (e *EdgeMap) At(x, y int) bool { return e.Edges[y*e.Width+x] }

const (
	dirHorizontal = iota
	dirDiag45
	dirVertical
	dirDiag135
)

// Canny runs 3x3 Sobel, L1 gradient magnitude, non-maximum suppression and
// hysteresis thresholding. Pixels above high seed edges; pixels above low
// join an edge when 8-connected to a seed.
func Canny(p *Plane, low, high float64) *EdgeMap {
	if low > high {
		low, high = high, low
	}
	w, h := p.Width, p.Height
	gx, gy := Sobel(p)

	mag := make([]float64, w*h)
	dir := make([]uint8, w*h)
	tan22 := math.Tan(math.Pi / 8)
	for i := range mag {
		dx, dy := gx.Data[i], gy.Data[i]
		mag[i] = math.Abs(dx) + math.Abs(dy)
		ax, ay := math.Abs(dx), math.Abs(dy)
		switch {
		case ay <= ax*tan22:
			dir[i] = dirHorizontal
		case ax <= ay*tan22:
			dir[i] = dirVertical
		case (dx > 0) == (dy > 0):
			dir[i] = dirDiag45
		default:
			dir[i] = dirDiag135
		}
	}

	magAt := func(x, y int) float64 {
		if x < 0 || y < 0 || x >= w || y >= h {
			return 0
		}
		return mag[y*w+x]
	}

	const (
		none = iota
		weak
		strong
	)
	state := make([]uint8, w*h)
	stack := make([]int, 0, 1024)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			m := mag[i]
			if m <= low {
				continue
			}
			var n1, n2 float64
			switch dir[i] {
			case dirHorizontal:
				n1, n2 = magAt(x-1, y), magAt(x+1, y)
			case dirVertical:
				n1, n2 = magAt(x, y-1), magAt(x, y+1)
			case dirDiag45:
				n1, n2 = magAt(x-1, y-1), magAt(x+1, y+1)
			default:
				n1, n2 = magAt(x+1, y-1), magAt(x-1, y+1)
			}
			if m < n1 || m <= n2 {
				continue
			}
			if m > high {
				state[i] = strong
				stack = append(stack, i)
			} else {
				state[i] = weak
			}
		}
	}

	edges := make([]bool, w*h)
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if edges[i] {
			continue
		}
		edges[i] = true
		x, y := i%w, i/w
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				nx, ny := x+dx, y+dy
				if nx < 0 || ny < 0 || nx >= w || ny >= h {
					continue
				}
				j := ny*w + nx
				if state[j] != none && !edges[j] {
					stack = append(stack, j)
				}
			}
		}
	}

	return &EdgeMap{Width: w, Height: h, Edges: edges}
}
