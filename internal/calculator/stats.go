package calculator

import "math"

// WindowStats holds the mean and population standard deviation of one window.
type WindowStats struct {
	Index  int // index of the last observation in the window
	Mean   float64
	StdDev float64
}

// Mean returns the arithmetic mean, 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// PopulationStdDev returns sqrt(Σ(x-mean)²/n).
func PopulationStdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := Mean(values)
	sq := 0.0
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(values)))
}

// Window returns the stats of the (up to) w observations ending at end, inclusive.
func Window(values []float64, end, w int) WindowStats {
	start := end - w + 1
	if start < 0 {
		start = 0
	}
	win := values[start : end+1]
	return WindowStats{Index: end, Mean: Mean(win), StdDev: PopulationStdDev(win)}
}

// Rolling computes trailing-window stats for every index i >= w-1.
// Indices before the first full window produce no output.
func Rolling(values []float64, w int) []WindowStats {
	if w <= 0 || len(values) < w {
		return nil
	}
	out := make([]WindowStats, 0, len(values)-w+1)
	for i := w - 1; i < len(values); i++ {
		out = append(out, Window(values, i, w))
	}
	return out
}

// Round2 rounds to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
