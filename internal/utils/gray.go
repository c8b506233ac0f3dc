package utils

import (
	"image"
	"math"
)

// Gray is a single-channel float64 luminance plane with values in [0, 255].
// Detection code works on this representation instead of image.Image so the
// same buffer can be thresholded, blurred and profiled without re-decoding
// pixels.
type Gray struct {
	Pix    []float64
	Width  int
	Height int
}

// NewGray allocates a zeroed luminance plane.
func NewGray(width, height int) *Gray {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Gray{Pix: make([]float64, width*height), Width: width, Height: height}
}

// GrayFromImage converts an image to a luminance plane using Rec. 601 weights.
func GrayFromImage(img image.Image) *Gray {
	b := img.Bounds()
	g := NewGray(b.Dx(), b.Dy())
	idx := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, gr, bl, _ := img.At(x, y).RGBA()
			g.Pix[idx] = (0.299*float64(r) + 0.587*float64(gr) + 0.114*float64(bl)) / 257.0
			idx++
		}
	}
	return g
}

// At returns the luminance at (x, y). Out-of-range coordinates are clamped.
func (g *Gray) At(x, y int) float64 {
	if g.Width == 0 || g.Height == 0 {
		return 0
	}
	x = clampInt(x, 0, g.Width-1)
	y = clampInt(y, 0, g.Height-1)
	return g.Pix[y*g.Width+x]
}

// Row returns the luminance values of row y restricted to [x0, x1).
func (g *Gray) Row(y, x0, x1 int) []float64 {
	y = clampInt(y, 0, g.Height-1)
	x0 = clampInt(x0, 0, g.Width)
	x1 = clampInt(x1, x0, g.Width)
	return g.Pix[y*g.Width+x0 : y*g.Width+x1]
}

// BoxBlur returns a copy of g blurred with a (2r+1)x(2r+1) box kernel.
// Edges are handled by clamping.
func (g *Gray) BoxBlur(r int) *Gray {
	if r <= 0 || g.Width == 0 || g.Height == 0 {
		out := NewGray(g.Width, g.Height)
		copy(out.Pix, g.Pix)
		return out
	}
	// Two separable passes.
	tmp := NewGray(g.Width, g.Height)
	out := NewGray(g.Width, g.Height)
	norm := 1.0 / float64(2*r+1)
	for y := range g.Height {
		for x := range g.Width {
			var sum float64
			for dx := -r; dx <= r; dx++ {
				sum += g.At(x+dx, y)
			}
			tmp.Pix[y*g.Width+x] = sum * norm
		}
	}
	for y := range g.Height {
		for x := range g.Width {
			var sum float64
			for dy := -r; dy <= r; dy++ {
				sum += tmp.At(x, y+dy)
			}
			out.Pix[y*g.Width+x] = sum * norm
		}
	}
	return out
}

// GaussianKernel1D builds a normalized 1-D Gaussian kernel of the given odd
// size. Sigma follows the usual 0.3*((size-1)*0.5 - 1) + 0.8 rule so kernel
// size alone controls the smoothing.
func GaussianKernel1D(size int) []float64 {
	if size < 1 {
		size = 1
	}
	if size%2 == 0 {
		size++
	}
	sigma := 0.3*(float64(size-1)*0.5-1) + 0.8
	k := make([]float64, size)
	half := size / 2
	var sum float64
	for i := range k {
		d := float64(i - half)
		k[i] = math.Exp(-d * d / (2 * sigma * sigma))
		sum += k[i]
	}
	for i := range k {
		k[i] /= sum
	}
	return k
}

// SmoothGaussian1D convolves values with a Gaussian kernel of the given size,
// clamping at the edges. The input slice is not modified.
func SmoothGaussian1D(values []float64, kernelSize int) []float64 {
	n := len(values)
	out := make([]float64, n)
	if n == 0 {
		return out
	}
	k := GaussianKernel1D(kernelSize)
	half := len(k) / 2
	for i := range values {
		var sum float64
		for j, w := range k {
			idx := clampInt(i+j-half, 0, n-1)
			sum += w * values[idx]
		}
		out[i] = sum
	}
	return out
}

// MeanStd returns the mean and population standard deviation of values.
func MeanStd(values []float64) (mean, std float64) {
	n := len(values)
	if n == 0 {
		return 0, 0
	}
	for _, v := range values {
		mean += v
	}
	mean /= float64(n)
	for _, v := range values {
		d := v - mean
		std += d * d
	}
	std = math.Sqrt(std / float64(n))
	return mean, std
}
