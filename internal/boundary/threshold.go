package boundary

import "github.com/dodogabrie/image-processing-leggio/internal/utils"

// otsuThreshold computes the global Otsu threshold over a luminance plane,
// maximizing between-class variance on a 256-bin histogram.
func otsuThreshold(g *utils.Gray) float64 {
	var hist [256]int
	total := len(g.Pix)
	if total == 0 {
		return 0
	}
	for _, v := range g.Pix {
		b := int(v)
		if b < 0 {
			b = 0
		} else if b > 255 {
			b = 255
		}
		hist[b]++
	}

	var sumAll float64
	for i, c := range hist {
		sumAll += float64(i) * float64(c)
	}

	var sumB, wB float64
	bestVar := -1.0
	threshold := 0
	for t := range 256 {
		wB += float64(hist[t])
		if wB == 0 {
			continue
		}
		wF := float64(total) - wB
		if wF == 0 {
			break
		}
		sumB += float64(t) * float64(hist[t])
		mB := sumB / wB
		mF := (sumAll - sumB) / wF
		between := wB * wF * (mB - mF) * (mB - mF)
		if between > bestVar {
			bestVar = between
			threshold = t
		}
	}
	return float64(threshold)
}

// binarizeDocument builds a foreground mask for the document side of the
// Otsu split. The document is whichever class the image center belongs to,
// so both light-page-on-dark-desk and dark-cover-on-light-desk photos work.
func binarizeDocument(g *utils.Gray, threshold float64) []bool {
	mask := make([]bool, len(g.Pix))
	centerBright := centerMean(g) > threshold
	for i, v := range g.Pix {
		if centerBright {
			mask[i] = v > threshold
		} else {
			mask[i] = v <= threshold
		}
	}
	return mask
}

// centerMean samples the mean luminance of the central 20% window.
func centerMean(g *utils.Gray) float64 {
	if g.Width == 0 || g.Height == 0 {
		return 0
	}
	x0 := g.Width * 2 / 5
	x1 := g.Width * 3 / 5
	y0 := g.Height * 2 / 5
	y1 := g.Height * 3 / 5
	if x1 <= x0 {
		x1 = x0 + 1
	}
	if y1 <= y0 {
		y1 = y0 + 1
	}
	var sum float64
	var n int
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			sum += g.At(x, y)
			n++
		}
	}
	return sum / float64(n)
}

// dilateMask expands true regions with a kernelSize x kernelSize window.
func dilateMask(mask []bool, w, h, kernelSize int) []bool {
	if kernelSize <= 1 {
		return mask
	}
	out := make([]bool, len(mask))
	half := kernelSize / 2
	for y := range h {
		for x := range w {
			found := false
			for ky := -half; ky <= half && !found; ky++ {
				for kx := -half; kx <= half; kx++ {
					nx, ny := x+kx, y+ky
					if nx >= 0 && nx < w && ny >= 0 && ny < h && mask[ny*w+nx] {
						found = true
						break
					}
				}
			}
			out[y*w+x] = found
		}
	}
	return out
}

// erodeMask shrinks true regions with a kernelSize x kernelSize window.
func erodeMask(mask []bool, w, h, kernelSize int) []bool {
	if kernelSize <= 1 {
		return mask
	}
	out := make([]bool, len(mask))
	half := kernelSize / 2
	for y := range h {
		for x := range w {
			all := true
			for ky := -half; ky <= half && all; ky++ {
				for kx := -half; kx <= half; kx++ {
					nx, ny := x+kx, y+ky
					if nx < 0 || nx >= w || ny < 0 || ny >= h || !mask[ny*w+nx] {
						all = false
						break
					}
				}
			}
			out[y*w+x] = all
		}
	}
	return out
}

// closeMask fills gaps: dilate then erode.
func closeMask(mask []bool, w, h, kernelSize int) []bool {
	return erodeMask(dilateMask(mask, w, h, kernelSize), w, h, kernelSize)
}
