package tempo

import (
	"math"

	"github.com/RyanBlaney/track-analyzer/configs"
	"github.com/RyanBlaney/track-analyzer/pkg/audio/analyzers"
	"github.com/RyanBlaney/track-analyzer/pkg/logging"
)

// Candidate is one method's optional tempo vote
type Candidate struct {
	Source string
	BPM    float64
}

// Estimator derives a single best-effort BPM value from a percussive
// waveform by reconciling independent estimation methods: onset-envelope
// autocorrelation, a sliding tempogram (at two hop resolutions), and a
// dynamic-programming beat tracker run with two tempo priors. When the
// methods disagree irreconcilably the result is explicitly undetermined
// rather than a misleading number.
type Estimator struct {
	config *configs.AnalysisConfig
	logger logging.Logger
}

// NewEstimator creates a tempo estimator
func NewEstimator(config *configs.AnalysisConfig) *Estimator {
	return &Estimator{
		config: config,
		logger: logging.WithFields(logging.Fields{
			"component": "tempo_estimator",
		}),
	}
}

// Estimate runs all candidate methods on the percussive waveform and
// reconciles them. The boolean result is false when tempo is undetermined.
func (e *Estimator) Estimate(percussive []float64, sampleRate int) (int, bool) {
	envelope := e.OnsetStrength(percussive, sampleRate, e.config.HopSize)
	if !envelope.HasEnergy() {
		e.logger.Debug("No onset energy detected")
		return 0, false
	}

	candidates := make([]Candidate, 0, 5)

	if bpm, ok := e.AutocorrelationCandidate(envelope); ok {
		candidates = append(candidates, Candidate{Source: "autocorrelation", BPM: bpm})
	}
	if bpm, ok := e.TempogramCandidate(envelope); ok {
		candidates = append(candidates, Candidate{Source: "tempogram", BPM: bpm})
	}

	fineEnvelope := e.OnsetStrength(percussive, sampleRate, e.config.FineHop)
	if bpm, ok := e.TempogramCandidate(fineEnvelope); ok {
		candidates = append(candidates, Candidate{Source: "tempogram_fine", BPM: bpm})
	}

	if bpm, ok := e.BeatTrackCandidate(envelope, e.config.BeatTrackStartBPM, e.config.BeatTrackTightness); ok {
		candidates = append(candidates, Candidate{Source: "beat_track", BPM: bpm})
	}
	if bpm, ok := e.BeatTrackCandidate(envelope, e.config.BeatTrackAltBPM, e.config.BeatTrackAltTighten); ok {
		candidates = append(candidates, Candidate{Source: "beat_track_alt", BPM: bpm})
	}

	bpm, ok := e.Reconcile(candidates)

	fields := logging.Fields{"candidates": len(candidates), "determined": ok}
	if ok {
		fields["bpm"] = bpm
	}
	e.logger.Debug("Tempo estimation completed", fields)

	return bpm, ok
}

// AutocorrelationCandidate autocorrelates the onset envelope over the lag
// range of plausible tempi and picks the strongest peak, biased by a
// log-normal prior around 120 BPM and corrected against sub-harmonic
// (half-tempo) peaks.
func (e *Estimator) AutocorrelationCandidate(envelope OnsetEnvelope) (float64, bool) {
	bestLag, autocorr, ok := e.autocorrPeakLag(envelope, 120)
	if !ok {
		return 0, false
	}

	lag := interpolatePeak(autocorr, bestLag)
	return envelope.FrameRate * 60 / lag, true
}

// autocorrPeakLag finds the strongest autocorrelation lag within the
// plausible tempo range under a log-normal prior centered on centerBPM, and
// returns it with the normalized autocorrelation it was picked from.
func (e *Estimator) autocorrPeakLag(envelope OnsetEnvelope, centerBPM float64) (int, []float64, bool) {
	values := envelope.Values
	if len(values) < 8 || envelope.FrameRate <= 0 {
		return 0, nil, false
	}

	minLag := int(envelope.FrameRate * 60 / e.config.MaxBPM)
	maxLag := int(math.Ceil(envelope.FrameRate * 60 / e.config.MinBPM))
	if minLag < 1 {
		minLag = 1
	}

	autocorr := autocorrelate(values, maxLag+2)
	if autocorr == nil {
		return 0, nil, false
	}

	// The envelope may be shorter than the slowest plausible lag; the peak
	// loop reads one past each lag, so leave that much headroom
	if maxLag > len(autocorr)-2 {
		maxLag = len(autocorr) - 2
	}
	if maxLag <= minLag {
		return 0, nil, false
	}

	// Best peak under the tempo prior
	bestLag := 0
	bestScore := 0.0
	for lag := minLag; lag <= maxLag; lag++ {
		if autocorr[lag] <= autocorr[lag-1] || autocorr[lag] < autocorr[lag+1] {
			continue
		}
		bpm := envelope.FrameRate * 60 / float64(lag)
		score := autocorr[lag] * tempoPrior(bpm, centerBPM)
		if score > bestScore {
			bestScore = score
			bestLag = lag
		}
	}

	if bestLag == 0 {
		return 0, nil, false
	}

	// Bias against sub-harmonics: when half the winning lag carries
	// comparable correlation, the faster tempo is the fundamental
	for bestLag/2 >= minLag && autocorr[bestLag/2] >= 0.6*autocorr[bestLag] {
		bestLag = bestLag / 2
	}

	return bestLag, autocorr, true
}

// TempogramCandidate runs a short-time Fourier analysis over sliding windows
// of the onset envelope and aggregates the dominant periodicity of each
// window into a single tempo by median.
func (e *Estimator) TempogramCandidate(envelope OnsetEnvelope) (float64, bool) {
	values := envelope.Values
	if envelope.FrameRate <= 0 {
		return 0, false
	}

	windowLen := int(e.config.TempogramWindowSec * envelope.FrameRate)
	if windowLen < 16 {
		return 0, false
	}
	if windowLen > len(values) {
		windowLen = len(values)
	}
	hop := windowLen / 2
	if hop < 1 {
		hop = 1
	}

	analyzer := analyzers.NewSpectralAnalyzer(int(envelope.FrameRate))

	var windowTempi []float64
	segment := make([]float64, windowLen)
	for start := 0; start+windowLen <= len(values); start += hop {
		copy(segment, values[start:start+windowLen])

		// Remove the DC component so the fundamental dominates
		mean := 0.0
		for _, v := range segment {
			mean += v
		}
		mean /= float64(windowLen)
		for i := range segment {
			segment[i] -= mean
		}

		spectrum := analyzer.FFT(segment)
		magnitude := make([]float64, len(spectrum)/2+1)
		for i := range magnitude {
			magnitude[i] = math.Hypot(real(spectrum[i]), imag(spectrum[i]))
		}

		if bpm, ok := e.dominantTempoBin(magnitude, envelope.FrameRate, windowLen); ok {
			windowTempi = append(windowTempi, bpm)
		}
	}

	if len(windowTempi) == 0 {
		return 0, false
	}

	return medianOf(windowTempi), true
}

// dominantTempoBin picks the strongest periodicity within the plausible BPM
// range from an onset-envelope magnitude spectrum
func (e *Estimator) dominantTempoBin(magnitude []float64, frameRate float64, windowLen int) (float64, bool) {
	freqResolution := frameRate / float64(windowLen)

	minBin := int(e.config.MinBPM / 60 / freqResolution)
	maxBin := int(math.Ceil(e.config.MaxBPM / 60 / freqResolution))
	if minBin < 1 {
		minBin = 1
	}
	if maxBin >= len(magnitude) {
		maxBin = len(magnitude) - 1
	}
	if maxBin <= minBin {
		return 0, false
	}

	bestBin := 0
	bestMag := 0.0
	for i := minBin; i <= maxBin; i++ {
		if magnitude[i] > bestMag {
			bestMag = magnitude[i]
			bestBin = i
		}
	}

	if bestBin == 0 || bestMag <= 1e-12 {
		return 0, false
	}

	bin := interpolatePeak(magnitude, bestBin)
	return bin * freqResolution * 60, true
}

// tempoPrior is a log-normal weight centered on centerBPM with a standard
// deviation of one octave
func tempoPrior(bpm, centerBPM float64) float64 {
	if bpm <= 0 || centerBPM <= 0 {
		return 0
	}
	octaves := math.Log2(bpm / centerBPM)
	return math.Exp(-0.5 * octaves * octaves)
}

// autocorrelate computes the normalized autocorrelation up to maxLag
func autocorrelate(signal []float64, maxLag int) []float64 {
	if maxLag > len(signal) {
		maxLag = len(signal)
	}
	if maxLag < 2 {
		return nil
	}

	autocorr := make([]float64, maxLag)
	for lag := 0; lag < maxLag; lag++ {
		sum := 0.0
		for i := 0; i < len(signal)-lag; i++ {
			sum += signal[i] * signal[i+lag]
		}
		autocorr[lag] = sum / float64(len(signal)-lag)
	}

	if autocorr[0] <= 0 {
		return nil
	}
	for i := range autocorr {
		autocorr[i] /= autocorr[0]
	}

	return autocorr
}

// interpolatePeak refines a peak index with parabolic interpolation over its
// immediate neighbors
func interpolatePeak(values []float64, peak int) float64 {
	if peak <= 0 || peak >= len(values)-1 {
		return float64(peak)
	}

	left := values[peak-1]
	center := values[peak]
	right := values[peak+1]

	denom := left - 2*center + right
	if math.Abs(denom) < 1e-12 {
		return float64(peak)
	}

	delta := 0.5 * (left - right) / denom
	if delta > 0.5 || delta < -0.5 {
		return float64(peak)
	}

	return float64(peak) + delta
}

func medianOf(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	for i := 1; i < n; i++ {
		v := sorted[i]
		j := i - 1
		for j >= 0 && sorted[j] > v {
			sorted[j+1] = sorted[j]
			j--
		}
		sorted[j+1] = v
	}

	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
