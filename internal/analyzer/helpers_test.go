package analyzer

import (
	"context"
	"math"
	"math/rand/v2"
	"testing"

	"go-photo-qc/internal/imaging"
)

func createUniformImage(t *testing.T, w, h int, r, g, b uint8) *imaging.Image {
	t.Helper()
	pix := make([]uint8, 0, w*h*3)
	for i := 0; i < w*h; i++ {
		pix = append(pix, r, g, b)
	}
	img, err := imaging.FromInterleaved(w, h, imaging.LayoutRGB, pix)
	if err != nil {
		t.Fatalf("Failed to create test image: %v", err)
	}
	return img
}

func createGrayImage(t *testing.T, w, h int, fn func(x, y int) uint8) *imaging.Image {
	t.Helper()
	pix := make([]uint8, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			pix[y*w+x] = fn(x, y)
		}
	}
	img, err := imaging.New(w, h, pix)
	if err != nil {
		t.Fatalf("Failed to create test image: %v", err)
	}
	return img
}

// createNoiseImage is a reproducible random RGB texture.
func createNoiseImage(t *testing.T, w, h int, seed uint64) *imaging.Image {
	t.Helper()
	rng := rand.New(rand.NewPCG(seed, seed+1))
	pix := make([]uint8, w*h*3)
	for i := range pix {
		pix[i] = uint8(rng.IntN(256))
	}
	img, err := imaging.FromInterleaved(w, h, imaging.LayoutRGB, pix)
	if err != nil {
		t.Fatalf("Failed to create test image: %v", err)
	}
	return img
}

// blurImage applies a Gaussian blur to every channel.
func blurImage(t *testing.T, img *imaging.Image, size int) *imaging.Image {
	t.Helper()
	w, h := img.Width(), img.Height()
	planes := make([][]uint8, img.Channels())
	for c := range planes {
		blurred := imaging.GaussianBlur(imaging.PlaneFrom(w, h, img.Channel(c)), size, 0)
		planes[c] = make([]uint8, w*h)
		for i, v := range blurred.Data {
			planes[c][i] = uint8(math.Round(math.Min(255, math.Max(0, v))))
		}
	}
	out, err := imaging.New(w, h, planes...)
	if err != nil {
		t.Fatalf("Failed to blur test image: %v", err)
	}
	return out
}

func newTestInput(img, ref *imaging.Image) *Input {
	return NewInput(context.Background(), DefaultOptions(), img, ref)
}

func mustCompute(t *testing.T, fn ComputeFunc, in *Input) float64 {
	t.Helper()
	v, err := fn(in)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	return v.V
}
