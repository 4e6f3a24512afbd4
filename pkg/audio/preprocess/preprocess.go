package preprocess

import (
	"math"

	"github.com/RyanBlaney/track-analyzer/configs"
	"github.com/RyanBlaney/track-analyzer/pkg/audio/analyzers"
	"github.com/RyanBlaney/track-analyzer/pkg/logging"
)

// Preprocessor trims silence and separates the percussive component of a
// waveform ahead of tempo analysis. All methods are pure: degenerate input
// (silent, empty, or shorter than one analysis window) is returned unchanged
// instead of failing, so downstream stages handle near-empty signals themselves.
type Preprocessor struct {
	config *configs.AnalysisConfig
	logger logging.Logger
}

// NewPreprocessor creates a preprocessor with the given analysis parameters
func NewPreprocessor(config *configs.AnalysisConfig) *Preprocessor {
	return &Preprocessor{
		config: config,
		logger: logging.WithFields(logging.Fields{
			"component": "preprocessor",
		}),
	}
}

// Trim removes leading and trailing frames whose RMS is more than
// TrimThresholdDB below the waveform peak
func (p *Preprocessor) Trim(samples []float64, sampleRate int) []float64 {
	frameSize := p.config.HopSize
	if len(samples) < frameSize || frameSize <= 0 {
		return samples
	}

	peak := 0.0
	for _, s := range samples {
		if a := math.Abs(s); a > peak {
			peak = a
		}
	}
	if peak == 0 {
		return samples
	}

	threshold := peak * math.Pow(10, -p.config.TrimThresholdDB/20)

	numFrames := len(samples) / frameSize
	firstFrame := -1
	lastFrame := -1
	for i := 0; i < numFrames; i++ {
		rms := analyzers.CalculateRMSEnergy(samples[i*frameSize : (i+1)*frameSize])
		if rms >= threshold {
			if firstFrame < 0 {
				firstFrame = i
			}
			lastFrame = i
		}
	}

	if firstFrame < 0 {
		// Entirely below threshold
		return samples
	}

	start := firstFrame * frameSize
	end := (lastFrame + 1) * frameSize
	if end > len(samples) {
		end = len(samples)
	}

	p.logger.Debug("Trimmed silence", logging.Fields{
		"original_samples": len(samples),
		"trimmed_samples":  end - start,
	})

	return samples[start:end]
}

// Percussive isolates the percussive component via median-filter based
// harmonic/percussive separation: the magnitude spectrogram is median
// filtered across time (enhancing sustained harmonic energy) and across
// frequency (enhancing transient percussive energy), a soft Wiener-style
// mask is built from the two, and the masked spectrogram is reconstructed
// by inverse STFT.
func (p *Preprocessor) Percussive(samples []float64, sampleRate int) []float64 {
	if len(samples) < p.config.WindowSize || sampleRate <= 0 {
		return samples
	}

	analyzer := analyzers.NewSpectralAnalyzer(sampleRate)
	spectrogram, err := analyzer.ComputeSTFT(samples, p.config.WindowSize, p.config.HopSize)
	if err != nil || spectrogram.TimeFrames < 2 {
		return samples
	}

	kernel := p.config.HPSSKernelSize
	harmonic := medianFilterTime(spectrogram.Magnitude, kernel)
	percussive := medianFilterFrequency(spectrogram.Magnitude, kernel)

	// Soft mask: P^2 / (H^2 + P^2)
	masked := make([][]complex128, spectrogram.TimeFrames)
	for t := 0; t < spectrogram.TimeFrames; t++ {
		masked[t] = make([]complex128, spectrogram.FreqBins)
		for f := 0; f < spectrogram.FreqBins; f++ {
			h := harmonic[t][f]
			pc := percussive[t][f]
			denom := h*h + pc*pc
			if denom > 1e-20 {
				mask := (pc * pc) / denom
				masked[t][f] = spectrogram.Complex[t][f] * complex(mask, 0)
			}
		}
	}

	result := analyzer.InverseSTFT(masked, p.config.WindowSize, p.config.HopSize, len(samples))

	p.logger.Debug("Percussive separation completed", logging.Fields{
		"frames": spectrogram.TimeFrames,
		"kernel": kernel,
	})

	return result
}

// medianFilterTime applies a median filter along the time axis per frequency bin
func medianFilterTime(magnitude [][]float64, kernel int) [][]float64 {
	timeFrames := len(magnitude)
	if timeFrames == 0 {
		return nil
	}
	freqBins := len(magnitude[0])
	half := kernel / 2

	filtered := make([][]float64, timeFrames)
	for t := 0; t < timeFrames; t++ {
		filtered[t] = make([]float64, freqBins)
	}

	window := make([]float64, 0, kernel)
	for f := 0; f < freqBins; f++ {
		for t := 0; t < timeFrames; t++ {
			window = window[:0]
			for k := t - half; k <= t+half; k++ {
				if k >= 0 && k < timeFrames {
					window = append(window, magnitude[k][f])
				}
			}
			filtered[t][f] = median(window)
		}
	}

	return filtered
}

// medianFilterFrequency applies a median filter along the frequency axis per frame
func medianFilterFrequency(magnitude [][]float64, kernel int) [][]float64 {
	timeFrames := len(magnitude)
	if timeFrames == 0 {
		return nil
	}
	freqBins := len(magnitude[0])
	half := kernel / 2

	filtered := make([][]float64, timeFrames)
	window := make([]float64, 0, kernel)
	for t := 0; t < timeFrames; t++ {
		filtered[t] = make([]float64, freqBins)
		for f := 0; f < freqBins; f++ {
			window = window[:0]
			for k := f - half; k <= f+half; k++ {
				if k >= 0 && k < freqBins {
					window = append(window, magnitude[t][k])
				}
			}
			filtered[t][f] = median(window)
		}
	}

	return filtered
}

func median(values []float64) float64 {
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
