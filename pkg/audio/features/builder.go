package features

import (
	"math"

	"github.com/RyanBlaney/track-analyzer/configs"
	"github.com/RyanBlaney/track-analyzer/pkg/audio/analyzers"
	"github.com/RyanBlaney/track-analyzer/pkg/audio/chroma"
	"github.com/RyanBlaney/track-analyzer/pkg/logging"
)

// Builder extracts the fixed-order feature vector consumed by the external
// genre classifier. Features are computed on the full-spectrum waveform
// (peak-normalized first), reduced to summary statistics across frames so
// the vector length is independent of waveform duration.
type Builder struct {
	config *configs.AnalysisConfig
	chroma *chroma.Extractor
	logger logging.Logger
}

// NewBuilder creates a feature vector builder
func NewBuilder(config *configs.AnalysisConfig) *Builder {
	return &Builder{
		config: config,
		chroma: chroma.NewExtractor(config),
		logger: logging.WithFields(logging.Fields{
			"component": "feature_builder",
		}),
	}
}

// Build computes the versioned feature vector. The result always has exactly
// Dimensions entries; degenerate input produces zeros rather than an error.
func (b *Builder) Build(samples []float64, sampleRate int) []float64 {
	normalized := peakNormalize(samples)

	series := b.computeSeries(normalized, sampleRate)

	vector := make([]float64, 0, Dimensions)
	for _, group := range featureGroups {
		channels := series[group.name]

		// Per-channel moments, laid out statistic-major to match Schema()
		groupMoments := make([][7]float64, group.size)
		for i := 0; i < group.size; i++ {
			if i < len(channels) {
				groupMoments[i] = channelMoments(channels[i])
			}
		}
		for statIdx := range statistics {
			for i := 0; i < group.size; i++ {
				vector = append(vector, groupMoments[i][statIdx])
			}
		}
	}

	b.logger.Debug("Feature vector built", logging.Fields{
		"dimensions":     len(vector),
		"schema_version": SchemaVersion,
	})

	return vector
}

// computeSeries derives every frame-wise feature family as [channel][frame]
func (b *Builder) computeSeries(samples []float64, sampleRate int) map[string][][]float64 {
	series := make(map[string][][]float64, len(featureGroups))

	cens := b.chroma.Extract(samples, sampleRate)
	series["chroma_cens"] = transpose(cens, chroma.ChromaBins)
	series["chroma_stft"] = transpose(b.chroma.ExtractSTFT(samples, sampleRate), chroma.ChromaBins)
	series["tonnetz"] = transpose(chroma.Tonnetz(cens), chroma.TonnetzDims)

	series["rmse"] = [][]float64{b.frameSeries(samples, analyzers.CalculateRMSEnergy)}
	series["zcr"] = [][]float64{b.frameSeries(samples, analyzers.CalculateZeroCrossingRate)}

	spectral := b.spectralSeries(samples, sampleRate)
	for name, channels := range spectral {
		series[name] = channels
	}

	return series
}

// frameSeries applies a per-frame scalar measure over hop-spaced windows
func (b *Builder) frameSeries(samples []float64, measure func([]float64) float64) []float64 {
	frameSize := b.config.WindowSize
	hop := b.config.HopSize
	if len(samples) < frameSize {
		return nil
	}

	numFrames := (len(samples)-frameSize)/hop + 1
	values := make([]float64, numFrames)
	for i := 0; i < numFrames; i++ {
		start := i * hop
		values[i] = measure(samples[start : start+frameSize])
	}
	return values
}

// spectralSeries extracts the spectrogram-derived families: centroid,
// bandwidth, rolloff, flatness, contrast and MFCC
func (b *Builder) spectralSeries(samples []float64, sampleRate int) map[string][][]float64 {
	out := map[string][][]float64{}

	if len(samples) < b.config.WindowSize || sampleRate <= 0 {
		return out
	}

	analyzer := analyzers.NewSpectralAnalyzer(sampleRate)
	spectrogram, err := analyzer.ComputeSTFT(samples, b.config.WindowSize, b.config.HopSize)
	if err != nil {
		return out
	}

	frames := spectrogram.TimeFrames
	freqs := analyzer.GetFrequencyBins(spectrogram.FreqBins)

	centroid := make([]float64, frames)
	bandwidth := make([]float64, frames)
	rolloff := make([]float64, frames)
	flatness := make([]float64, frames)
	contrast := make([][]float64, b.config.ContrastBands)
	for i := range contrast {
		contrast[i] = make([]float64, frames)
	}

	for t := 0; t < frames; t++ {
		magnitude := spectrogram.Magnitude[t]

		centroid[t] = analyzers.CalculateSpectralCentroid(magnitude, freqs)
		bandwidth[t] = analyzers.CalculateSpectralBandwidth(magnitude, freqs, centroid[t])
		rolloff[t] = analyzers.CalculateSpectralRolloff(magnitude, freqs, 0.85)
		flatness[t] = analyzers.CalculateSpectralFlatness(magnitude)

		frameContrast := analyzers.CalculateSpectralContrast(magnitude, b.config.ContrastBands)
		for band, v := range frameContrast {
			contrast[band][t] = v
		}
	}

	out["spectral_centroid"] = [][]float64{centroid}
	out["spectral_bandwidth"] = [][]float64{bandwidth}
	out["spectral_rolloff"] = [][]float64{rolloff}
	out["spectral_flatness"] = [][]float64{flatness}
	out["spectral_contrast"] = contrast
	out["mfcc"] = b.mfccSeries(spectrogram)

	return out
}

// mfccSeries computes mel-frequency cepstral coefficients per frame as
// [coefficient][frame]
func (b *Builder) mfccSeries(spectrogram *analyzers.SpectrogramResult) [][]float64 {
	numCoeffs := b.config.MFCCCoefficients
	filterBank := melFilterBank(b.config.MelFilters, 0, float64(spectrogram.SampleRate)/2, spectrogram.FreqBins)

	mfcc := make([][]float64, numCoeffs)
	for k := 0; k < numCoeffs; k++ {
		mfcc[k] = make([]float64, spectrogram.TimeFrames)
	}

	logMel := make([]float64, len(filterBank))
	for t := 0; t < spectrogram.TimeFrames; t++ {
		magnitude := spectrogram.Magnitude[t]

		for i, filter := range filterBank {
			sum := 0.0
			for j, coeff := range filter {
				if j < len(magnitude) {
					// Power spectrum drives the mel energies
					sum += magnitude[j] * magnitude[j] * coeff
				}
			}
			if sum > 1e-10 {
				logMel[i] = math.Log(sum)
			} else {
				logMel[i] = math.Log(1e-10)
			}
		}

		for k := 0; k < numCoeffs; k++ {
			mfcc[k][t] = dctCoefficient(logMel, k)
		}
	}

	return mfcc
}

// dctCoefficient computes the k-th DCT-II coefficient of the log mel spectrum
func dctCoefficient(logMel []float64, k int) float64 {
	n := float64(len(logMel))
	sum := 0.0
	for i, v := range logMel {
		sum += v * math.Cos(math.Pi*float64(k)*(float64(i)+0.5)/n)
	}
	return sum
}

// melFilterBank creates triangular filters equally spaced on the mel scale
func melFilterBank(numFilters int, lowFreq, highFreq float64, freqBins int) [][]float64 {
	lowMel := hzToMel(lowFreq)
	highMel := hzToMel(highFreq)

	melPoints := make([]float64, numFilters+2)
	melStep := (highMel - lowMel) / float64(numFilters+1)
	for i := range melPoints {
		melPoints[i] = lowMel + float64(i)*melStep
	}

	freqPoints := make([]float64, len(melPoints))
	for i, mel := range melPoints {
		freqPoints[i] = melToHz(mel)
	}

	filterBank := make([][]float64, numFilters)
	for i := 0; i < numFilters; i++ {
		filter := make([]float64, freqBins)

		leftFreq := freqPoints[i]
		centerFreq := freqPoints[i+1]
		rightFreq := freqPoints[i+2]

		for j := 0; j < freqBins; j++ {
			freq := float64(j) * highFreq / float64(freqBins-1)

			if freq >= leftFreq && freq <= rightFreq {
				if freq <= centerFreq {
					if centerFreq > leftFreq {
						filter[j] = (freq - leftFreq) / (centerFreq - leftFreq)
					}
				} else {
					if rightFreq > centerFreq {
						filter[j] = (rightFreq - freq) / (rightFreq - centerFreq)
					}
				}
			}
		}

		filterBank[i] = filter
	}

	return filterBank
}

func hzToMel(hz float64) float64 {
	return 2595.0 * math.Log10(1.0+hz/700.0)
}

func melToHz(mel float64) float64 {
	return 700.0 * (math.Pow(10, mel/2595.0) - 1.0)
}

// peakNormalize scales the waveform so its peak amplitude is 1. Silent input
// is returned unchanged.
func peakNormalize(samples []float64) []float64 {
	peak := 0.0
	for _, s := range samples {
		if a := math.Abs(s); a > peak {
			peak = a
		}
	}
	if peak == 0 || peak == 1 {
		return samples
	}

	normalized := make([]float64, len(samples))
	for i, s := range samples {
		normalized[i] = s / peak
	}
	return normalized
}

// transpose converts frame-major [frame][channel] data into channel-major
// [channel][frame] series with exactly the given channel count
func transpose(frames [][]float64, channels int) [][]float64 {
	out := make([][]float64, channels)
	if len(frames) == 0 {
		return out
	}

	for i := 0; i < channels; i++ {
		out[i] = make([]float64, len(frames))
	}
	for t, frame := range frames {
		for i := 0; i < channels && i < len(frame); i++ {
			out[i][t] = frame[i]
		}
	}
	return out
}
