package features

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// channelMoments reduces one time series to the seven schema statistics in
// schema order: kurtosis, max, mean, median, min, skew, std. Degenerate
// series (empty, constant, or too short for a moment to be defined) yield 0
// for the affected statistics instead of NaN.
func channelMoments(series []float64) [7]float64 {
	var moments [7]float64
	if len(series) == 0 {
		return moments
	}

	sorted := make([]float64, len(series))
	copy(sorted, series)
	sort.Float64s(sorted)

	moments[0] = sanitize(stat.ExKurtosis(series, nil))
	moments[1] = sanitize(floats.Max(series))
	moments[2] = sanitize(stat.Mean(series, nil))
	moments[3] = sanitize(stat.Quantile(0.5, stat.Empirical, sorted, nil))
	moments[4] = sanitize(floats.Min(series))
	moments[5] = sanitize(stat.Skew(series, nil))
	moments[6] = sanitize(stat.PopStdDev(series, nil))

	return moments
}

// sanitize maps undefined statistics onto the conservative 0 default
func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
