package analyzers

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"

	"github.com/RyanBlaney/track-analyzer/pkg/logging"
)

// SpectralAnalyzer provides core FFT and spectral analysis functionality
type SpectralAnalyzer struct {
	windowGenerator *WindowGenerator
	sampleRate      int
	logger          logging.Logger
}

// SpectrogramResult holds the result of STFT analysis
type SpectrogramResult struct {
	Magnitude      [][]float64    `json:"magnitude"`       // Time x Frequency magnitude matrix
	Complex        [][]complex128 `json:"-"`               // Raw complex spectrogram (not serialized)
	TimeFrames     int            `json:"time_frames"`     // Number of time frames
	FreqBins       int            `json:"freq_bins"`       // Number of frequency bins
	SampleRate     int            `json:"sample_rate"`     // Sample rate
	WindowSize     int            `json:"window_size"`     // FFT window size
	HopSize        int            `json:"hop_size"`        // Hop size between frames
	FreqResolution float64        `json:"freq_resolution"` // Frequency resolution (Hz/bin)
	TimeResolution float64        `json:"time_resolution"` // Time resolution (seconds/frame)
}

// NewSpectralAnalyzer creates a new spectral analyzer
func NewSpectralAnalyzer(sampleRate int) *SpectralAnalyzer {
	return &SpectralAnalyzer{
		windowGenerator: NewWindowGenerator(),
		sampleRate:      sampleRate,
		logger: logging.WithFields(logging.Fields{
			"component":   "spectral_analyzer",
			"sample_rate": sampleRate,
		}),
	}
}

// FFT computes a Fast Fourier Transform using mjibson/go-dsp.
// Handles all input sizes, including non-power-of-2.
func (sa *SpectralAnalyzer) FFT(x []float64) []complex128 {
	if len(x) == 0 {
		return []complex128{}
	}
	return fft.FFTReal(x)
}

// ComputeSTFT computes a short-time Fourier transform with the given window
// and hop sizes using a Hann window. The final partial frame is zero-padded.
func (sa *SpectralAnalyzer) ComputeSTFT(signal []float64, windowSize, hopSize int) (*SpectrogramResult, error) {
	if len(signal) == 0 {
		return nil, fmt.Errorf("empty signal")
	}
	if windowSize <= 0 || hopSize <= 0 {
		return nil, fmt.Errorf("invalid STFT parameters: window=%d hop=%d", windowSize, hopSize)
	}

	window := sa.windowGenerator.Generate(WindowHann, windowSize)

	timeFrames := 1
	if len(signal) > windowSize {
		timeFrames = (len(signal)-windowSize)/hopSize + 1
	}
	freqBins := windowSize/2 + 1

	magnitude := make([][]float64, timeFrames)
	complexSpec := make([][]complex128, timeFrames)

	frame := make([]float64, windowSize)
	for t := 0; t < timeFrames; t++ {
		start := t * hopSize
		for i := 0; i < windowSize; i++ {
			if start+i < len(signal) {
				frame[i] = signal[start+i] * window[i]
			} else {
				frame[i] = 0
			}
		}

		spectrum := fft.FFTReal(frame)

		magnitude[t] = make([]float64, freqBins)
		complexSpec[t] = make([]complex128, freqBins)
		for f := 0; f < freqBins; f++ {
			complexSpec[t][f] = spectrum[f]
			magnitude[t][f] = cmplx.Abs(spectrum[f])
		}
	}

	result := &SpectrogramResult{
		Magnitude:      magnitude,
		Complex:        complexSpec,
		TimeFrames:     timeFrames,
		FreqBins:       freqBins,
		SampleRate:     sa.sampleRate,
		WindowSize:     windowSize,
		HopSize:        hopSize,
		FreqResolution: float64(sa.sampleRate) / float64(windowSize),
		TimeResolution: float64(hopSize) / float64(sa.sampleRate),
	}

	sa.logger.Debug("STFT computation completed", logging.Fields{
		"time_frames": result.TimeFrames,
		"freq_bins":   result.FreqBins,
		"hop_size":    hopSize,
	})

	return result, nil
}

// InverseSTFT reconstructs a time-domain signal from a half-spectrum complex
// spectrogram via windowed overlap-add. The output is truncated or padded to
// length samples.
func (sa *SpectralAnalyzer) InverseSTFT(complexSpec [][]complex128, windowSize, hopSize, length int) []float64 {
	if len(complexSpec) == 0 || windowSize <= 0 || hopSize <= 0 {
		return make([]float64, length)
	}

	window := sa.windowGenerator.Generate(WindowHann, windowSize)

	totalLen := (len(complexSpec)-1)*hopSize + windowSize
	output := make([]float64, totalLen)
	windowSum := make([]float64, totalLen)

	fullSpectrum := make([]complex128, windowSize)
	for t, halfSpec := range complexSpec {
		// Rebuild the conjugate-symmetric full spectrum
		for f := 0; f < windowSize; f++ {
			fullSpectrum[f] = 0
		}
		for f := 0; f < len(halfSpec) && f < windowSize; f++ {
			fullSpectrum[f] = halfSpec[f]
			if f > 0 && f < windowSize-f {
				fullSpectrum[windowSize-f] = cmplx.Conj(halfSpec[f])
			}
		}

		frame := fft.IFFT(fullSpectrum)

		start := t * hopSize
		for i := 0; i < windowSize; i++ {
			output[start+i] += real(frame[i]) * window[i]
			windowSum[start+i] += window[i] * window[i]
		}
	}

	// Compensate for window overlap
	for i := range output {
		if windowSum[i] > 1e-10 {
			output[i] /= windowSum[i]
		}
	}

	if length <= 0 {
		length = totalLen
	}
	result := make([]float64, length)
	copy(result, output)
	return result
}

// GetFrequencyBins returns frequency values for each FFT bin
func (sa *SpectralAnalyzer) GetFrequencyBins(numBins int) []float64 {
	freqs := make([]float64, numBins)
	for i := 0; i < numBins; i++ {
		freqs[i] = float64(i) * float64(sa.sampleRate) / float64((numBins-1)*2)
	}
	return freqs
}

// ComputeSpectralFlux computes half-wave-rectified spectral flux per frame
// pair (a measure of onset energy)
func (sa *SpectralAnalyzer) ComputeSpectralFlux(spectrogram *SpectrogramResult) []float64 {
	if spectrogram.TimeFrames < 2 {
		return nil
	}

	flux := make([]float64, spectrogram.TimeFrames-1)

	for t := 1; t < spectrogram.TimeFrames; t++ {
		sum := 0.0
		for f := 0; f < spectrogram.FreqBins; f++ {
			diff := spectrogram.Magnitude[t][f] - spectrogram.Magnitude[t-1][f]
			if diff > 0 { // Only positive changes (energy increases)
				sum += diff
			}
		}
		flux[t-1] = sum / float64(spectrogram.FreqBins)
	}

	return flux
}

// CalculateSpectralCentroid computes the spectral centroid of one frame
func CalculateSpectralCentroid(spectrum []float64, freqs []float64) float64 {
	if len(spectrum) != len(freqs) {
		return 0
	}

	numerator := 0.0
	denominator := 0.0

	for i := 0; i < len(spectrum); i++ {
		numerator += freqs[i] * spectrum[i]
		denominator += spectrum[i]
	}

	if denominator == 0 {
		return 0
	}

	return numerator / denominator
}

// CalculateSpectralRolloff computes the frequency below which the given
// fraction of total spectral energy is contained
func CalculateSpectralRolloff(spectrum []float64, freqs []float64, threshold float64) float64 {
	totalEnergy := 0.0
	for _, mag := range spectrum {
		totalEnergy += mag * mag
	}

	if totalEnergy == 0 {
		return 0
	}

	targetEnergy := threshold * totalEnergy
	cumulativeEnergy := 0.0

	for i := 0; i < len(spectrum); i++ {
		cumulativeEnergy += spectrum[i] * spectrum[i]
		if cumulativeEnergy >= targetEnergy {
			if i < len(freqs) {
				return freqs[i]
			}
			break
		}
	}

	if len(freqs) > 0 {
		return freqs[len(freqs)-1]
	}
	return 0
}

// CalculateSpectralBandwidth computes spectral spread around the centroid
func CalculateSpectralBandwidth(spectrum []float64, freqs []float64, centroid float64) float64 {
	if len(spectrum) != len(freqs) {
		return 0
	}

	numerator := 0.0
	denominator := 0.0

	for i := 0; i < len(spectrum); i++ {
		diff := freqs[i] - centroid
		numerator += diff * diff * spectrum[i]
		denominator += spectrum[i]
	}

	if denominator == 0 {
		return 0
	}

	return math.Sqrt(numerator / denominator)
}

// CalculateSpectralFlatness computes spectral flatness (Wiener entropy)
func CalculateSpectralFlatness(spectrum []float64) float64 {
	if len(spectrum) == 0 {
		return 0
	}

	// Geometric mean
	logSum := 0.0
	count := 0

	for _, mag := range spectrum {
		if mag > 1e-10 { // Avoid log(0)
			logSum += math.Log(mag)
			count++
		}
	}

	if count == 0 {
		return 0
	}

	geometricMean := math.Exp(logSum / float64(count))

	// Arithmetic mean
	arithmeticMean := 0.0
	for _, mag := range spectrum {
		arithmeticMean += mag
	}
	arithmeticMean /= float64(len(spectrum))

	if arithmeticMean == 0 {
		return 0
	}

	return geometricMean / arithmeticMean
}

// CalculateSpectralContrast computes log peak-to-valley contrast per band
func CalculateSpectralContrast(spectrum []float64, numBands int) []float64 {
	if numBands <= 0 {
		numBands = 6
	}

	contrast := make([]float64, numBands)
	bandSize := len(spectrum) / numBands
	if bandSize == 0 {
		return contrast
	}

	for band := 0; band < numBands; band++ {
		start := band * bandSize
		end := start + bandSize
		if band == numBands-1 {
			end = len(spectrum)
		}

		sorted := make([]float64, end-start)
		copy(sorted, spectrum[start:end])
		insertionSort(sorted)

		// 5th and 95th percentiles as valley and peak
		valley := sorted[len(sorted)/20]
		peak := sorted[19*len(sorted)/20]

		if valley > 1e-10 {
			contrast[band] = math.Log(peak / valley)
		}
	}

	return contrast
}

// CalculateZeroCrossingRate computes zero crossing rate for a signal frame
func CalculateZeroCrossingRate(pcm []float64) float64 {
	if len(pcm) <= 1 {
		return 0
	}
	crossings := 0
	for i := 1; i < len(pcm); i++ {
		if (pcm[i-1] >= 0 && pcm[i] < 0) || (pcm[i-1] < 0 && pcm[i] >= 0) {
			crossings++
		}
	}
	return float64(crossings) / float64(len(pcm)-1)
}

// CalculateRMSEnergy computes root-mean-square energy
func CalculateRMSEnergy(pcm []float64) float64 {
	if len(pcm) == 0 {
		return 0
	}
	sum := 0.0
	for _, sample := range pcm {
		sum += sample * sample
	}
	return math.Sqrt(sum / float64(len(pcm)))
}

func insertionSort(values []float64) {
	for i := 1; i < len(values); i++ {
		v := values[i]
		j := i - 1
		for j >= 0 && values[j] > v {
			values[j+1] = values[j]
			j--
		}
		values[j+1] = v
	}
}
