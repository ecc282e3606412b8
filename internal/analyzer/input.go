package analyzer

import (
	"context"
	"sync"

	"go-photo-qc/internal/imaging"
)

// RunInput is what a caller hands to the engine for one run.
type RunInput struct {
	Image     *imaging.Image
	Reference *imaging.Image

	Source          string
	ReferenceSource string
	Format          string

	// Metadata is copied into the report untouched.
	Metadata map[string]any

	// Metrics narrows this run to the named metrics. Names the engine does
	// not know are ignored; use Engine.Resolve to reject them up front.
	Metrics []string
}

// Input gives metric functions read-only access to the image and to
// derived planes. Each derived plane is computed at most once per run and
// shared by every metric that asks for it.
type Input struct {
	ctx       context.Context
	opts      Options
	Image     *imaging.Image
	Reference *imaging.Image

	grayOnce sync.Once
	gray     []uint8
	grayF    *imaging.Plane

	lapOnce sync.Once
	lap     *imaging.Plane

	sobelOnce sync.Once
	gx, gy    *imaging.Plane

	rgbOnce sync.Once
	rgb     [3]*imaging.Plane

	yccOnce   sync.Once
	y, cb, cr *imaging.Plane

	refOnce  sync.Once
	refGrayF *imaging.Plane
}

// NewInput prepares a run input. Exposed for metric functions used
// outside the engine.
func NewInput(ctx context.Context, opts Options, img, ref *imaging.Image) *Input {
	return &Input{ctx: ctx, opts: opts, Image: img, Reference: ref}
}

func (in *Input) Context() context.Context { return in.ctx }
func (in *Input) Options() Options         { return in.opts }

func (in *Input) Width() int  { return in.Image.Width() }
func (in *Input) Height() int { return in.Image.Height() }

// Gray returns the 8-bit luma plane.
func (in *Input) Gray() []uint8 {
	in.loadGray()
	return in.gray
}

// GrayPlane returns the luma plane widened to float64.
func (in *Input) GrayPlane() *imaging.Plane {
	in.loadGray()
	return in.grayF
}

func (in *Input) loadGray() {
	in.grayOnce.Do(func() {
		in.gray = in.Image.Gray()
		in.grayF = imaging.PlaneFrom(in.Image.Width(), in.Image.Height(), in.gray)
	})
}

// Laplacian returns the 4-neighbor Laplacian of the gray plane.
func (in *Input) Laplacian() *imaging.Plane {
	in.lapOnce.Do(func() {
		in.lap = imaging.Laplacian(in.GrayPlane())
	})
	return in.lap
}

// Sobel returns the 3x3 gradients of the gray plane.
func (in *Input) Sobel() (gx, gy *imaging.Plane) {
	in.sobelOnce.Do(func() {
		in.gx, in.gy = imaging.Sobel(in.GrayPlane())
	})
	return in.gx, in.gy
}

// RGB returns the color planes as float64. Only valid for color images.
func (in *Input) RGB() (r, g, b *imaging.Plane) {
	in.rgbOnce.Do(func() {
		w, h := in.Image.Width(), in.Image.Height()
		for c := 0; c < 3; c++ {
			in.rgb[c] = imaging.PlaneFrom(w, h, in.Image.Channel(c))
		}
	})
	return in.rgb[0], in.rgb[1], in.rgb[2]
}

// YCbCr returns full-range luma and chroma planes.
func (in *Input) YCbCr() (y, cb, cr *imaging.Plane) {
	in.yccOnce.Do(func() {
		in.y, in.cb, in.cr = in.Image.YCbCr()
	})
	return in.y, in.cb, in.cr
}

// ReferenceGray returns the reference image's luma plane.
func (in *Input) ReferenceGray() *imaging.Plane {
	in.refOnce.Do(func() {
		in.refGrayF = imaging.PlaneFrom(in.Reference.Width(), in.Reference.Height(), in.Reference.Gray())
	})
	return in.refGrayF
}
