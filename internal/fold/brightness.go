package fold

import (
	"math"

	"github.com/dodogabrie/image-processing-leggio/internal/utils"
)

// snrSaturation is the signal-to-noise ratio treated as a "clean" trough;
// anything above it no longer raises the quality score.
const snrSaturation = 10.0

// DetectBrightness finds a fold as a dark trough in the column brightness
// profile of the search band. Around 40 rows are sampled, rows whose mean
// brightness deviates more than OutlierSigma standard deviations are
// discarded (hands, bookmarks), and the per-column mean profile is Gaussian
// smoothed before locating the minimum with sub-pixel parabolic refinement.
func DetectBrightness(gray *utils.Gray, region Region, p Params) (Candidate, bool) {
	p = p.withDefaults()
	if gray == nil || gray.Width < 8 || gray.Height < 8 {
		return Candidate{}, false
	}
	x0, x1 := region.band(gray.Width, p.CenterSearchRatio)
	if x1-x0 < p.SmoothKernel {
		return Candidate{}, false
	}

	rows := sampleRows(gray.Height, p.SampleRows)
	rows = rejectOutlierRows(gray, rows, x0, x1, p.OutlierSigma)
	if len(rows) == 0 {
		return Candidate{}, false
	}

	profile, noise := columnProfile(gray, rows, x0, x1)
	smoothed := utils.SmoothGaussian1D(profile, p.SmoothKernel)

	minIdx := argmin(smoothed)
	refined := refineParabolic(smoothed, minIdx, p.RefineWindow)

	mean, _ := utils.MeanStd(smoothed)
	minV, maxV := minMax(smoothed)
	contrast := maxV - minV
	depth := mean - minV

	// The trough must stand clear of the profile noise floor, otherwise the
	// minimum is just texture.
	if contrast < 1e-6 || depth <= 2*noise {
		return Candidate{}, false
	}

	qDepth := utils.ClampFloat(depth/contrast, 0, 1)
	snr := depth / (noise + 1e-6)
	qSNR := utils.ClampFloat(snr/snrSaturation, 0, 1)

	return Candidate{
		X:       x0 + int(math.Round(refined)),
		Quality: 0.6*qDepth + 0.4*qSNR,
		Method:  MethodBrightness,
	}, true
}

// sampleRows returns up to n evenly spaced row indices.
func sampleRows(height, n int) []int {
	if n > height {
		n = height
	}
	if n <= 0 {
		return nil
	}
	rows := make([]int, 0, n)
	step := float64(height) / float64(n)
	for i := range n {
		rows = append(rows, int(float64(i)*step))
	}
	return rows
}

// rejectOutlierRows drops rows whose band mean deviates more than sigma
// standard deviations from the mean of all sampled rows.
func rejectOutlierRows(gray *utils.Gray, rows []int, x0, x1 int, sigma float64) []int {
	if len(rows) < 3 {
		return rows
	}
	means := make([]float64, len(rows))
	for i, y := range rows {
		m, _ := utils.MeanStd(gray.Row(y, x0, x1))
		means[i] = m
	}
	mean, std := utils.MeanStd(means)
	if std == 0 {
		return rows
	}
	kept := rows[:0]
	for i, y := range rows {
		if math.Abs(means[i]-mean) <= sigma*std {
			kept = append(kept, y)
		}
	}
	return kept
}

// columnProfile builds the per-column mean brightness over the kept rows
// and returns it together with the noise floor, the average per-column
// standard deviation.
func columnProfile(gray *utils.Gray, rows []int, x0, x1 int) (profile []float64, noise float64) {
	w := x1 - x0
	profile = make([]float64, w)
	col := make([]float64, len(rows))
	var stdSum float64
	for x := range w {
		for i, y := range rows {
			col[i] = gray.At(x0+x, y)
		}
		m, s := utils.MeanStd(col)
		profile[x] = m
		stdSum += s
	}
	return profile, stdSum / float64(w)
}

func argmin(v []float64) int {
	idx := 0
	for i := range v {
		if v[i] < v[idx] {
			idx = i
		}
	}
	return idx
}

func minMax(v []float64) (minV, maxV float64) {
	minV, maxV = v[0], v[0]
	for _, x := range v[1:] {
		if x < minV {
			minV = x
		}
		if x > maxV {
			maxV = x
		}
	}
	return minV, maxV
}

// refineParabolic fits a quadratic to the profile in a window around idx and
// returns the sub-sample vertex position. Falls back to idx when the fit is
// degenerate or the vertex escapes the window.
func refineParabolic(v []float64, idx, halfWindow int) float64 {
	lo := utils.ClampInt(idx-halfWindow, 0, len(v)-1)
	hi := utils.ClampInt(idx+halfWindow, 0, len(v)-1)
	if hi-lo < 2 {
		return float64(idx)
	}

	// Least squares fit y = a t^2 + b t + c with t relative to idx.
	var s0, s1, s2, s3, s4, sy, sty, st2y float64
	for j := lo; j <= hi; j++ {
		t := float64(j - idx)
		y := v[j]
		t2 := t * t
		s0++
		s1 += t
		s2 += t2
		s3 += t2 * t
		s4 += t2 * t2
		sy += y
		sty += t * y
		st2y += t2 * y
	}

	// Solve the 3x3 normal equations by Cramer's rule.
	det := s4*(s2*s0-s1*s1) - s3*(s3*s0-s1*s2) + s2*(s3*s1-s2*s2)
	if math.Abs(det) < 1e-12 {
		return float64(idx)
	}
	a := (st2y*(s2*s0-s1*s1) - s3*(sty*s0-sy*s1) + s2*(sty*s1-sy*s2)) / det
	b := (s4*(sty*s0-sy*s1) - st2y*(s3*s0-s1*s2) + s2*(s3*sy-s2*sty)) / det

	if a <= 0 {
		return float64(idx)
	}
	vertex := -b / (2 * a)
	if math.Abs(vertex) > float64(halfWindow) {
		return float64(idx)
	}
	return float64(idx) + vertex
}
