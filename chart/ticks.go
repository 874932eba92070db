package chart

import "math"

// NiceStep returns a tick spacing of 1, 2 or 5 × 10^k giving roughly
// target intervals over span.
func NiceStep(span float64, target int) float64 {
	if target < 1 {
		target = 1
	}
	if span <= 0 || math.IsNaN(span) || math.IsInf(span, 0) {
		return 1
	}

	raw := span / float64(target)
	mag := math.Pow(10, math.Floor(math.Log10(raw)))
	var step float64
	switch norm := raw / mag; {
	case norm <= 1:
		step = 1
	case norm <= 2:
		step = 2
	case norm <= 5:
		step = 5
	default:
		step = 10
	}
	return step * mag
}

// NiceTicks returns the multiples of NiceStep that fall within [lo, hi].
func NiceTicks(lo, hi float64, target int) []float64 {
	if hi < lo {
		lo, hi = hi, lo
	}
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}

	step := NiceStep(hi-lo, target)
	start := math.Ceil(lo/step) * step
	eps := step * 1e-9

	var ticks []float64
	for i := 0; ; i++ {
		v := start + float64(i)*step
		if v > hi+eps {
			break
		}
		if math.Abs(v) < eps {
			v = 0
		}
		ticks = append(ticks, v)
	}
	return ticks
}

// Viewport returns the data bounds with the y range widened to whole
// multiples of its tick step, so the curves never touch the frame.
func (f Figure) Viewport(target int) (xmin, xmax, ymin, ymax float64, ok bool) {
	xmin, xmax, ymin, ymax, ok = f.Bounds()
	if !ok {
		return 0, 1, 0, 1, false
	}
	if xmin == xmax {
		xmin, xmax = xmin-0.5, xmax+0.5
	}
	if ymin == ymax {
		ymin, ymax = ymin-0.5, ymax+0.5
	}

	step := NiceStep(ymax-ymin, target)
	ymin = math.Floor(ymin/step) * step
	ymax = math.Ceil(ymax/step) * step
	return xmin, xmax, ymin, ymax, true
}
