package tempo

import (
	"math"
)

// BeatTrackCandidate runs a dynamic-programming beat tracker over the onset
// envelope and converts the median inter-beat interval to BPM. startBPM
// seeds an autocorrelation pre-estimate whose period anchors the program;
// tightness penalizes deviation of consecutive beat intervals from that
// period.
func (e *Estimator) BeatTrackCandidate(envelope OnsetEnvelope, startBPM, tightness float64) (float64, bool) {
	values := envelope.Values
	if len(values) < 16 || envelope.FrameRate <= 0 || startBPM <= 0 || tightness <= 0 {
		return 0, false
	}

	lag, _, ok := e.autocorrPeakLag(envelope, startBPM)
	if !ok {
		return 0, false
	}
	period := float64(lag)
	if period < 2 {
		return 0, false
	}

	localScore := localOnsetScore(values, period)

	maxLocal := 0.0
	for _, v := range localScore {
		if v > maxLocal {
			maxLocal = v
		}
	}
	if maxLocal <= 0 {
		return 0, false
	}
	onsetThreshold := 0.01 * maxLocal

	minInterval := int(math.Round(period / 2))
	maxInterval := int(math.Round(period * 2))
	if minInterval < 1 {
		minInterval = 1
	}

	// Dynamic program: each frame scores its own onset strength plus the
	// best predecessor score under a log-squared interval penalty. Frames
	// before the first strong onset stay unlinked so leading silence
	// cannot anchor the chain.
	cumScore := make([]float64, len(localScore))
	backlink := make([]int, len(localScore))
	for i := range backlink {
		backlink[i] = -1
	}

	firstBeat := true
	for i := range localScore {
		bestScore := math.Inf(-1)
		bestPrev := -1

		for interval := minInterval; interval <= maxInterval; interval++ {
			j := i - interval
			if j < 0 {
				break
			}
			logRatio := math.Log(float64(interval) / period)
			score := cumScore[j] - tightness*logRatio*logRatio
			if score > bestScore {
				bestScore = score
				bestPrev = j
			}
		}

		cumScore[i] = localScore[i]
		if bestPrev >= 0 {
			cumScore[i] += bestScore
		}
		if firstBeat && localScore[i] < onsetThreshold {
			continue
		}
		if bestPrev >= 0 {
			backlink[i] = bestPrev
			firstBeat = false
		}
	}

	// Backtrack from the last confident local maximum of the cumulative
	// score; trailing weak frames would otherwise dilute the beat chain
	var peaks []int
	for i := 1; i+1 < len(cumScore); i++ {
		if cumScore[i] >= cumScore[i-1] && cumScore[i] >= cumScore[i+1] {
			peaks = append(peaks, i)
		}
	}
	if len(peaks) == 0 {
		return 0, false
	}

	peakScores := make([]float64, len(peaks))
	for i, p := range peaks {
		peakScores[i] = cumScore[p]
	}
	medianPeak := medianOf(peakScores)

	tail := -1
	for _, p := range peaks {
		if cumScore[p] >= 0.5*medianPeak {
			tail = p
		}
	}
	if tail < 0 {
		return 0, false
	}

	var beats []int
	for i := tail; i >= 0; i = backlink[i] {
		beats = append(beats, i)
		if backlink[i] < 0 {
			break
		}
	}

	if len(beats) < 3 {
		return 0, false
	}

	// Beats are collected in reverse; intervals are sign-agnostic
	intervals := make([]float64, len(beats)-1)
	for i := 1; i < len(beats); i++ {
		intervals[i-1] = math.Abs(float64(beats[i-1] - beats[i]))
	}

	medianInterval := medianOf(intervals)
	if medianInterval <= 0 {
		return 0, false
	}

	return envelope.FrameRate * 60 / medianInterval, true
}

// localOnsetScore normalizes the onset envelope by its standard deviation
// and smooths it with a Gaussian proportional to the expected beat period
func localOnsetScore(values []float64, period float64) []float64 {
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	variance := 0.0
	for _, v := range values {
		diff := v - mean
		variance += diff * diff
	}
	variance /= float64(len(values))

	normalized := make([]float64, len(values))
	if variance > 1e-20 {
		std := math.Sqrt(variance)
		for i, v := range values {
			normalized[i] = v / std
		}
	} else {
		copy(normalized, values)
	}

	sigma := period / 32
	if sigma < 1 {
		sigma = 1
	}
	half := int(math.Ceil(4 * sigma))

	kernel := make([]float64, 2*half+1)
	for k := -half; k <= half; k++ {
		kernel[k+half] = math.Exp(-0.5 * float64(k) * float64(k) / (sigma * sigma))
	}

	smoothed := make([]float64, len(normalized))
	for i := range normalized {
		acc := 0.0
		for k := -half; k <= half; k++ {
			j := i + k
			if j >= 0 && j < len(normalized) {
				acc += normalized[j] * kernel[k+half]
			}
		}
		smoothed[i] = acc
	}

	return smoothed
}
