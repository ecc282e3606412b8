// Package imaging owns decoded pixel buffers and the derived planes the
// metric engine works on. An Image is immutable once constructed.
package imaging

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyImage is returned when width or height is zero.
	ErrEmptyImage = errors.New("empty image")

	// ErrUnsupportedChannelLayout is returned for channel counts other than 1, 3 or 4.
	ErrUnsupportedChannelLayout = errors.New("unsupported channel layout")

	// ErrPlaneSize is returned when a sample plane does not hold width*height samples.
	ErrPlaneSize = errors.New("plane size does not match image dimensions")
)

// Layout describes how interleaved samples are ordered in memory.
type Layout int

const (
	LayoutGray Layout = iota
	LayoutRGB
	LayoutBGR
	LayoutRGBA
	LayoutBGRA
)

// Channels returns the number of samples per pixel for the layout.
func (l Layout) Channels() int {
	switch l {
	case LayoutGray:
		return 1
	case LayoutRGB, LayoutBGR:
		return 3
	case LayoutRGBA, LayoutBGRA:
		return 4
	default:
		return 0
	}
}

func (l Layout) String() string {
	switch l {
	case LayoutGray:
		return "gray"
	case LayoutRGB:
		return "rgb"
	case LayoutBGR:
		return "bgr"
	case LayoutRGBA:
		return "rgba"
	case LayoutBGRA:
		return "bgra"
	default:
		return fmt.Sprintf("layout(%d)", int(l))
	}
}

// Image is an 8-bit raster held as planes in canonical order: a single gray
// plane, or R, G, B and optionally A.
type Image struct {
	width    int
	height   int
	channels int
	planes   [][]uint8
}

// New builds an image from planar samples given in canonical order.
// The planes are copied.
func New(width, height int, planes ...[]uint8) (*Image, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrEmptyImage, width, height)
	}
	if err := checkChannels(len(planes)); err != nil {
		return nil, err
	}

	n := width * height
	img := &Image{width: width, height: height, channels: len(planes)}
	img.planes = make([][]uint8, len(planes))
	for i, p := range planes {
		if len(p) != n {
			return nil, fmt.Errorf("%w: plane %d has %d samples, want %d", ErrPlaneSize, i, len(p), n)
		}
		img.planes[i] = append([]uint8(nil), p...)
	}
	return img, nil
}

// FromInterleaved builds an image from interleaved samples. BGR and BGRA input
// is reordered so every derived view is independent of storage order.
func FromInterleaved(width, height int, layout Layout, pix []uint8) (*Image, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrEmptyImage, width, height)
	}
	channels := layout.Channels()
	if err := checkChannels(channels); err != nil {
		return nil, err
	}
	n := width * height
	if len(pix) != n*channels {
		return nil, fmt.Errorf("%w: got %d samples, want %d for %s", ErrPlaneSize, len(pix), n*channels, layout)
	}

	order := []int{0, 1, 2, 3}
	if layout == LayoutBGR || layout == LayoutBGRA {
		order = []int{2, 1, 0, 3}
	}

	img := &Image{width: width, height: height, channels: channels}
	img.planes = make([][]uint8, channels)
	for c := 0; c < channels; c++ {
		img.planes[c] = make([]uint8, n)
	}
	for i := 0; i < n; i++ {
		base := i * channels
		for c := 0; c < channels; c++ {
			img.planes[order[c]][i] = pix[base+c]
		}
	}
	return img, nil
}

func checkChannels(channels int) error {
	switch channels {
	case 1, 3, 4:
		return nil
	default:
		return fmt.Errorf("%w: %d channels", ErrUnsupportedChannelLayout, channels)
	}
}

// Width returns the image width in pixels.
func (img *Image) Width() int { return img.width }

// Height returns the image height in pixels.
func (img *Image) Height() int { return img.height }

// Channels returns 1, 3 or 4.
func (img *Image) Channels() int { return img.channels }

// IsColor reports whether the image carries at least three color channels.
func (img *Image) IsColor() bool { return img.channels >= 3 }

// Pixels returns width*height.
func (img *Image) Pixels() int { return img.width * img.height }

// SameSize reports whether other has identical dimensions.
func (img *Image) SameSize(other *Image) bool {
	return other != nil && img.width == other.width && img.height == other.height
}

// Sample returns the 8-bit sample of channel c at (x, y).
func (img *Image) Sample(c, x, y int) uint8 {
	return img.planes[c][y*img.width+x]
}
