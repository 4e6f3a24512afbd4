package chroma

import (
	"math"

	"github.com/RyanBlaney/track-analyzer/configs"
	"github.com/RyanBlaney/track-analyzer/pkg/audio/analyzers"
	"github.com/RyanBlaney/track-analyzer/pkg/logging"
)

// ChromaBins is the number of pitch classes in a chroma vector
const ChromaBins = 12

// Extractor computes time-pitch chroma representations: a plain STFT
// chromagram and an energy-normalized, quantized, smoothed variant in the
// style of chroma CENS that is robust to transient noise and small tuning
// deviations. Stateless and deterministic.
type Extractor struct {
	config *configs.AnalysisConfig
	logger logging.Logger
}

// NewExtractor creates a chroma extractor
func NewExtractor(config *configs.AnalysisConfig) *Extractor {
	return &Extractor{
		config: config,
		logger: logging.WithFields(logging.Fields{
			"component": "chroma_extractor",
		}),
	}
}

// ExtractSTFT computes a per-frame chromagram by folding STFT bin energies
// onto 12 pitch classes. Each frame is max-normalized.
func (e *Extractor) ExtractSTFT(samples []float64, sampleRate int) [][]float64 {
	spectrogram, freqs := e.spectrogram(samples, sampleRate)
	if spectrogram == nil {
		return [][]float64{}
	}

	chromagram := make([][]float64, spectrogram.TimeFrames)
	for t := 0; t < spectrogram.TimeFrames; t++ {
		chromagram[t] = e.foldFrame(spectrogram.Magnitude[t], freqs)

		maxVal := 0.0
		for _, v := range chromagram[t] {
			if v > maxVal {
				maxVal = v
			}
		}
		if maxVal > 0 {
			for i := range chromagram[t] {
				chromagram[t][i] /= maxVal
			}
		}
	}

	return chromagram
}

// Extract computes the noise-robust chroma variant: fold energies to pitch
// classes, L1-normalize each frame, quantize amplitudes to four coarse
// levels, smooth along time with a moving average, and L2-normalize each
// frame. The quantization thresholds (0.05/0.1/0.2/0.4) follow the standard
// CENS construction.
func (e *Extractor) Extract(samples []float64, sampleRate int) [][]float64 {
	spectrogram, freqs := e.spectrogram(samples, sampleRate)
	if spectrogram == nil {
		return [][]float64{}
	}

	chromagram := make([][]float64, spectrogram.TimeFrames)
	for t := 0; t < spectrogram.TimeFrames; t++ {
		frame := e.foldFrame(spectrogram.Magnitude[t], freqs)

		// L1 normalization
		sum := 0.0
		for _, v := range frame {
			sum += v
		}
		if sum > 0 {
			for i := range frame {
				frame[i] /= sum
			}
		}

		// Amplitude quantization
		for i, v := range frame {
			frame[i] = quantize(v)
		}

		chromagram[t] = frame
	}

	smoothed := smoothTime(chromagram, e.config.ChromaSmoothing)

	// Per-frame L2 normalization
	for t := range smoothed {
		norm := 0.0
		for _, v := range smoothed[t] {
			norm += v * v
		}
		norm = math.Sqrt(norm)
		if norm > 0 {
			for i := range smoothed[t] {
				smoothed[t][i] /= norm
			}
		}
	}

	e.logger.Debug("Chroma extraction completed", logging.Fields{
		"frames":    len(smoothed),
		"smoothing": e.config.ChromaSmoothing,
	})

	return smoothed
}

// AverageFrames reduces a chromagram to a single 12-dimensional vector
func AverageFrames(chromagram [][]float64) []float64 {
	mean := make([]float64, ChromaBins)
	if len(chromagram) == 0 {
		return mean
	}

	for _, frame := range chromagram {
		for i := 0; i < len(frame) && i < ChromaBins; i++ {
			mean[i] += frame[i]
		}
	}
	for i := range mean {
		mean[i] /= float64(len(chromagram))
	}

	return mean
}

func (e *Extractor) spectrogram(samples []float64, sampleRate int) (*analyzers.SpectrogramResult, []float64) {
	if len(samples) == 0 || sampleRate <= 0 {
		return nil, nil
	}

	analyzer := analyzers.NewSpectralAnalyzer(sampleRate)
	spectrogram, err := analyzer.ComputeSTFT(samples, e.config.WindowSize, e.config.HopSize)
	if err != nil {
		return nil, nil
	}
	return spectrogram, analyzer.GetFrequencyBins(spectrogram.FreqBins)
}

// foldFrame maps one magnitude frame onto 12 pitch classes. Bin energies are
// assigned via MIDI note number relative to the configured tuning frequency.
func (e *Extractor) foldFrame(magnitude []float64, freqs []float64) []float64 {
	frame := make([]float64, ChromaBins)

	for f := 0; f < len(magnitude) && f < len(freqs); f++ {
		freq := freqs[f]
		if freq < e.config.ChromaMinFreq || freq > e.config.ChromaMaxFreq {
			continue
		}

		midiNote := 12*math.Log2(freq/e.config.TuningFreq) + 69
		pitchClass := int(math.Round(midiNote)) % ChromaBins
		if pitchClass < 0 {
			pitchClass += ChromaBins
		}

		// Energy, not magnitude, so loud bins dominate the pitch class
		frame[pitchClass] += magnitude[f] * magnitude[f]
	}

	return frame
}

// quantize maps an L1-normalized chroma value onto four coarse levels
func quantize(v float64) float64 {
	q := 0.0
	for _, threshold := range [4]float64{0.05, 0.1, 0.2, 0.4} {
		if v > threshold {
			q += 0.25
		}
	}
	return q
}

// smoothTime applies a centered moving average of the given window length
// along the time axis
func smoothTime(chromagram [][]float64, window int) [][]float64 {
	if len(chromagram) == 0 || window <= 1 {
		return chromagram
	}

	half := window / 2
	smoothed := make([][]float64, len(chromagram))
	for t := range chromagram {
		smoothed[t] = make([]float64, ChromaBins)
		count := 0
		for k := t - half; k <= t+half; k++ {
			if k >= 0 && k < len(chromagram) {
				for i := 0; i < ChromaBins; i++ {
					smoothed[t][i] += chromagram[k][i]
				}
				count++
			}
		}
		if count > 0 {
			for i := 0; i < ChromaBins; i++ {
				smoothed[t][i] /= float64(count)
			}
		}
	}

	return smoothed
}
