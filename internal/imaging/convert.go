package imaging

import (
	"image"
	"image/color"
	"math"
)

// FromImage converts a decoded image.Image into a canonical Image.
// Gray sources keep a single plane; images with transparency keep alpha.
func FromImage(src image.Image) (*Image, error) {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return nil, ErrEmptyImage
	}

	switch s := src.(type) {
	case *image.Gray:
		pix := make([]uint8, 0, w*h)
		for y := 0; y < h; y++ {
			off := s.PixOffset(b.Min.X, b.Min.Y+y)
			pix = append(pix, s.Pix[off:off+w]...)
		}
		return FromInterleaved(w, h, LayoutGray, pix)
	case *image.NRGBA:
		return fromRGBAPix(w, h, s.Stride, s.Pix[s.PixOffset(b.Min.X, b.Min.Y):], s.Opaque())
	case *image.RGBA:
		if s.Opaque() {
			return fromRGBAPix(w, h, s.Stride, s.Pix[s.PixOffset(b.Min.X, b.Min.Y):], true)
		}
	}

	if src.ColorModel() == color.GrayModel || src.ColorModel() == color.Gray16Model {
		pix := make([]uint8, w*h)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				pix[y*w+x] = color.GrayModel.Convert(src.At(b.Min.X+x, b.Min.Y+y)).(color.Gray).Y
			}
		}
		return FromInterleaved(w, h, LayoutGray, pix)
	}

	opaque := true
	if o, ok := src.(interface{ Opaque() bool }); ok {
		opaque = o.Opaque()
	}
	layout, channels := LayoutRGB, 3
	if !opaque {
		layout, channels = LayoutRGBA, 4
	}

	pix := make([]uint8, w*h*channels)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.NRGBAModel.Convert(src.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			i := (y*w + x) * channels
			pix[i], pix[i+1], pix[i+2] = c.R, c.G, c.B
			if channels == 4 {
				pix[i+3] = c.A
			}
		}
	}
	return FromInterleaved(w, h, layout, pix)
}

func fromRGBAPix(w, h, stride int, pix []uint8, opaque bool) (*Image, error) {
	channels := 4
	layout := LayoutRGBA
	if opaque {
		channels = 3
		layout = LayoutRGB
	}
	out := make([]uint8, 0, w*h*channels)
	for y := 0; y < h; y++ {
		row := pix[y*stride : y*stride+w*4]
		for x := 0; x < w; x++ {
			out = append(out, row[x*4:x*4+channels]...)
		}
	}
	return FromInterleaved(w, h, layout, out)
}

// Gray returns the BT.601 luma plane rounded to 8 bits. Single-channel
// images are copied unchanged.
func (img *Image) Gray() []uint8 {
	if img.channels == 1 {
		return append([]uint8(nil), img.planes[0]...)
	}
	r, g, b := img.planes[0], img.planes[1], img.planes[2]
	out := make([]uint8, img.Pixels())
	for i := range out {
		out[i] = uint8(math.Round(0.299*float64(r[i]) + 0.587*float64(g[i]) + 0.114*float64(b[i])))
	}
	return out
}

// Channel returns a copy of channel c in canonical order.
func (img *Image) Channel(c int) []uint8 {
	return append([]uint8(nil), img.planes[c]...)
}

// YCbCr returns full-range luma and chroma planes (JPEG convention).
// Gray images yield constant 128 chroma planes.
func (img *Image) YCbCr() (y, cb, cr *Plane) {
	w, h := img.width, img.height
	y, cb, cr = NewPlane(w, h), NewPlane(w, h), NewPlane(w, h)
	if img.channels == 1 {
		for i, v := range img.planes[0] {
			y.Data[i] = float64(v)
			cb.Data[i] = 128
			cr.Data[i] = 128
		}
		return y, cb, cr
	}
	r, g, b := img.planes[0], img.planes[1], img.planes[2]
	for i := range y.Data {
		rf, gf, bf := float64(r[i]), float64(g[i]), float64(b[i])
		y.Data[i] = 0.299*rf + 0.587*gf + 0.114*bf
		cb.Data[i] = 128 - 0.168736*rf - 0.331264*gf + 0.5*bf
		cr.Data[i] = 128 + 0.5*rf - 0.418688*gf - 0.081312*bf
	}
	return y, cb, cr
}

// Value returns the HSV value channel, max(R, G, B), on the 0..255 scale.
func (img *Image) Value() []uint8 {
	if img.channels == 1 {
		return img.Gray()
	}
	r, g, b := img.planes[0], img.planes[1], img.planes[2]
	out := make([]uint8, img.Pixels())
	for i := range out {
		out[i] = max(r[i], g[i], b[i])
	}
	return out
}

// ToImage renders the buffer back into a standard library image, mainly for
// encoding test fixtures.
func (img *Image) ToImage() image.Image {
	rect := image.Rect(0, 0, img.width, img.height)
	if img.channels == 1 {
		g := image.NewGray(rect)
		copy(g.Pix, img.planes[0])
		return g
	}
	out := image.NewNRGBA(rect)
	for i := 0; i < img.Pixels(); i++ {
		out.Pix[i*4] = img.planes[0][i]
		out.Pix[i*4+1] = img.planes[1][i]
		out.Pix[i*4+2] = img.planes[2][i]
		out.Pix[i*4+3] = 255
		if img.channels == 4 {
			out.Pix[i*4+3] = img.planes[3][i]
		}
	}
	return out
}
