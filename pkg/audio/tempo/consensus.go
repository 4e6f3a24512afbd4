package tempo

import (
	"math"
)

// Reconcile reduces the method candidates to one integer BPM. Candidates are
// folded into the plausible range, octave-corrected toward the population
// median (a 2x or 0.5x disagreement is an octave error, not a different
// tempo), and clustered within the configured tolerance. The median of the
// majority cluster wins; anything short of a majority is reported as
// undetermined rather than a misleading number.
func (e *Estimator) Reconcile(candidates []Candidate) (int, bool) {
	if len(candidates) == 0 {
		return 0, false
	}

	folded := make([]float64, 0, len(candidates))
	for _, c := range candidates {
		bpm := e.foldIntoRange(c.BPM)
		if bpm > 0 {
			folded = append(folded, bpm)
		}
	}
	if len(folded) == 0 {
		return 0, false
	}

	seed := medianOf(folded)

	corrected := make([]float64, len(folded))
	for i, bpm := range folded {
		corrected[i] = octaveCorrect(bpm, seed)
	}

	center := medianOf(corrected)

	cluster := corrected[:0:0]
	for _, bpm := range corrected {
		if math.Abs(bpm-center) <= e.config.ConsensusTolerance {
			cluster = append(cluster, bpm)
		}
	}

	// A minority cluster means the methods genuinely disagree
	if len(cluster)*2 <= len(corrected) {
		return 0, false
	}

	bpm := int(math.Round(medianOf(cluster)))
	if float64(bpm) < e.config.MinBPM || float64(bpm) > e.config.MaxBPM {
		return 0, false
	}

	return bpm, true
}

// foldIntoRange shifts a tempo by octaves until it lies within the
// configured BPM range; zero means the tempo cannot be folded in
func (e *Estimator) foldIntoRange(bpm float64) float64 {
	if bpm <= 0 {
		return 0
	}
	for bpm < e.config.MinBPM {
		bpm *= 2
	}
	for bpm > e.config.MaxBPM {
		bpm /= 2
	}
	if bpm < e.config.MinBPM {
		return 0
	}
	return bpm
}

// octaveCorrect moves a tempo by whole octaves to whichever multiple lies
// closest to the reference
func octaveCorrect(bpm, reference float64) float64 {
	if bpm <= 0 || reference <= 0 {
		return bpm
	}

	best := bpm
	bestDiff := math.Abs(bpm - reference)
	for _, factor := range [4]float64{0.25, 0.5, 2, 4} {
		shifted := bpm * factor
		if diff := math.Abs(shifted - reference); diff < bestDiff {
			bestDiff = diff
			best = shifted
		}
	}

	return best
}
