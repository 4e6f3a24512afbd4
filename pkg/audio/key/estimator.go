package key

import (
	"gonum.org/v1/gonum/stat"

	"github.com/RyanBlaney/track-analyzer/pkg/logging"
)

// Krumhansl-Schmuckler key profiles: perceived stability of each pitch class
// within a major or minor key, in chroma bin order starting at C
var (
	majorProfile = [12]float64{6.35, 2.23, 3.48, 2.33, 4.38, 4.09, 2.52, 5.19, 2.39, 3.66, 2.29, 2.88}
	minorProfile = [12]float64{6.33, 2.68, 3.52, 5.38, 2.60, 3.53, 2.54, 4.75, 3.98, 2.69, 3.34, 3.17}
)

// pitchClasses lists tonic names in chroma bin order
var pitchClasses = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// Result is the best-matching key for a chroma observation. Confidence is a
// linear rescaling of the winning Pearson correlation: [0, 1] maps onto
// [0, 100] and negative correlations clamp to 0.
type Result struct {
	Tonic       string
	Minor       bool
	Confidence  float64
	Correlation float64
}

// Estimator matches averaged chroma content against the 24 rotated
// Krumhansl-Schmuckler profiles
type Estimator struct {
	logger logging.Logger
}

// NewEstimator creates a key estimator
func NewEstimator() *Estimator {
	return &Estimator{
		logger: logging.WithFields(logging.Fields{
			"component": "key_estimator",
		}),
	}
}

// Estimate averages the chromagram frames into one 12-dimensional vector and
// correlates it against every rotation of the major and minor profiles. On
// floating-point-equal correlations major wins over minor. All-zero chroma
// yields the default C major at confidence 0 instead of an error.
func (e *Estimator) Estimate(chromagram [][]float64) Result {
	mean := averageChroma(chromagram)

	if isFlat(mean) {
		e.logger.Debug("Degenerate chroma, returning default key")
		return Result{Tonic: pitchClasses[0], Minor: false, Confidence: 0}
	}

	bestMajorTonic, bestMajor := 0, -2.0
	bestMinorTonic, bestMinor := 0, -2.0
	for tonic := 0; tonic < 12; tonic++ {
		if corr := profileCorrelation(mean, majorProfile, tonic); corr > bestMajor {
			bestMajorTonic, bestMajor = tonic, corr
		}
		if corr := profileCorrelation(mean, minorProfile, tonic); corr > bestMinor {
			bestMinorTonic, bestMinor = tonic, corr
		}
	}

	// Equal correlations resolve to the major key
	var best Result
	if bestMajor >= bestMinor {
		best = Result{Tonic: pitchClasses[bestMajorTonic], Minor: false, Correlation: bestMajor}
	} else {
		best = Result{Tonic: pitchClasses[bestMinorTonic], Minor: true, Correlation: bestMinor}
	}

	best.Confidence = confidenceFromCorrelation(best.Correlation)

	e.logger.Debug("Key estimation completed", logging.Fields{
		"tonic":       best.Tonic,
		"minor":       best.Minor,
		"correlation": best.Correlation,
	})

	return best
}

// profileCorrelation computes the Pearson correlation between the chroma
// vector and a key profile rotated to the given tonic
func profileCorrelation(chroma []float64, profile [12]float64, tonic int) float64 {
	rotated := make([]float64, 12)
	for i := 0; i < 12; i++ {
		// Rotating the profile so its tonic lands on bin `tonic`
		rotated[(i+tonic)%12] = profile[i]
	}

	corr := stat.Correlation(chroma, rotated, nil)
	if corr != corr { // NaN from a zero-variance input
		return 0
	}
	return corr
}

// confidenceFromCorrelation maps a correlation onto the user-facing [0, 100]
// scale: clamp(r, 0, 1) * 100
func confidenceFromCorrelation(r float64) float64 {
	if r <= 0 {
		return 0
	}
	if r >= 1 {
		return 100
	}
	return r * 100
}

func averageChroma(chromagram [][]float64) []float64 {
	mean := make([]float64, 12)
	if len(chromagram) == 0 {
		return mean
	}

	for _, frame := range chromagram {
		for i := 0; i < len(frame) && i < 12; i++ {
			mean[i] += frame[i]
		}
	}
	for i := range mean {
		mean[i] /= float64(len(chromagram))
	}

	return mean
}

// isFlat reports whether every bin is (near) identical, which makes
// correlation undefined
func isFlat(chroma []float64) bool {
	for _, v := range chroma[1:] {
		if v != chroma[0] {
			return false
		}
	}
	return true
}
