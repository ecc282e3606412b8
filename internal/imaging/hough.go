package imaging

import (
	"math"
	"slices"
)

// HoughParams configures the line-segment search.
type HoughParams struct {
	// Threshold is the minimum accumulator vote for a candidate line.
	Threshold int
	// MinLength is the minimum segment span in pixels.
	MinLength float64
	// MaxGap is the largest gap between collinear edge pixels within a segment.
	MaxGap float64
	// Band is the distance from the ideal line within which edge pixels
	// still support it.
	Band float64
	// MaxLines caps the number of accumulator peaks examined.
	MaxLines int
}

// Point is an integer pixel coordinate.
type Point struct{ X, Y int }

// LineSegment is a run of edge pixels supporting one Hough line.
// Points are ordered along the line direction.
type LineSegment struct {
	Theta  float64
	Rho    float64
	Votes  int
	Points []Point
}

// Normal returns the unit normal (cos θ, sin θ) of the supporting line.
func (s LineSegment) Normal() (float64, float64) {
	return math.Cos(s.Theta), math.Sin(s.Theta)
}

// Offset is the signed distance of pt from the supporting line.
func (s LineSegment) Offset(pt Point) float64 {
	nx, ny := s.Normal()
	return float64(pt.X)*nx + float64(pt.Y)*ny - s.Rho
}

// Endpoints returns the first and last supporting pixels.
func (s LineSegment) Endpoints() (Point, Point) {
	return s.Points[0], s.Points[len(s.Points)-1]
}

// Length is the Euclidean distance between the endpoints.
func (s LineSegment) Length() float64 {
	a, b := s.Endpoints()
	return math.Hypot(float64(b.X-a.X), float64(b.Y-a.Y))
}

const houghThetaSteps = 180

// HoughSegments finds straight line segments in an edge map using a
// 1 px x 1° accumulator. Peaks are local maxima at or above the threshold;
// each is split into runs of supporting pixels separated by at most MaxGap.
func HoughSegments(edges *EdgeMap, params HoughParams) []LineSegment {
	w, h := edges.Width, edges.Height
	if params.MaxLines <= 0 {
		params.MaxLines = 20
	}
	if params.Band <= 0 {
		params.Band = 1
	}

	var pts []Point
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if edges.At(x, y) {
				pts = append(pts, Point{x, y})
			}
		}
	}
	if len(pts) == 0 {
		return nil
	}

	diag := int(math.Ceil(math.Hypot(float64(w), float64(h))))
	nRho := 2*diag + 1
	cosT := make([]float64, houghThetaSteps)
	sinT := make([]float64, houghThetaSteps)
	for t := range cosT {
		theta := float64(t) * math.Pi / houghThetaSteps
		cosT[t], sinT[t] = math.Cos(theta), math.Sin(theta)
	}

	acc := make([]int, houghThetaSteps*nRho)
	for _, p := range pts {
		for t := 0; t < houghThetaSteps; t++ {
			r := int(math.Round(float64(p.X)*cosT[t]+float64(p.Y)*sinT[t])) + diag
			acc[t*nRho+r]++
		}
	}

	type peak struct{ t, r, votes int }
	var peaks []peak
	for t := 0; t < houghThetaSteps; t++ {
		for r := 0; r < nRho; r++ {
			v := acc[t*nRho+r]
			if v < params.Threshold || v == 0 {
				continue
			}
			if isLocalMax(acc, t, r, nRho, v) {
				peaks = append(peaks, peak{t, r, v})
			}
		}
	}
	slices.SortFunc(peaks, func(a, b peak) int {
		if a.votes != b.votes {
			return b.votes - a.votes
		}
		if a.t != b.t {
			return a.t - b.t
		}
		return a.r - b.r
	})
	if len(peaks) > params.MaxLines {
		peaks = peaks[:params.MaxLines]
	}

	var segments []LineSegment
	for _, pk := range peaks {
		theta := float64(pk.t) * math.Pi / houghThetaSteps
		rho := float64(pk.r - diag)
		nx, ny := cosT[pk.t], sinT[pk.t]
		dx, dy := -ny, nx

		type proj struct {
			t  float64
			pt Point
		}
		var support []proj
		for _, p := range pts {
			d := float64(p.X)*nx + float64(p.Y)*ny - rho
			if math.Abs(d) <= params.Band {
				support = append(support, proj{float64(p.X)*dx + float64(p.Y)*dy, p})
			}
		}
		slices.SortFunc(support, func(a, b proj) int {
			switch {
			case a.t < b.t:
				return -1
			case a.t > b.t:
				return 1
			}
			return 0
		})

		start := 0
		for i := 1; i <= len(support); i++ {
			if i < len(support) && support[i].t-support[i-1].t <= params.MaxGap {
				continue
			}
			run := support[start:i]
			start = i
			if len(run) < 2 || run[len(run)-1].t-run[0].t < params.MinLength {
				continue
			}
			seg := LineSegment{Theta: theta, Rho: rho, Votes: pk.votes, Points: make([]Point, len(run))}
			for j, s := range run {
				seg.Points[j] = s.pt
			}
			segments = append(segments, seg)
		}
	}
	return segments
}

func isLocalMax(acc []int, t, r, nRho, v int) bool {
	for dt := -1; dt <= 1; dt++ {
		for dr := -1; dr <= 1; dr++ {
			if dt == 0 && dr == 0 {
				continue
			}
			tt, rr := t+dt, r+dr
			if tt < 0 || tt >= houghThetaSteps || rr < 0 || rr >= nRho {
				continue
			}
			n := acc[tt*nRho+rr]
			// ties resolve toward the lower index
			if n > v || (n == v && (dt < 0 || (dt == 0 && dr < 0))) {
				return false
			}
		}
	}
	return true
}
