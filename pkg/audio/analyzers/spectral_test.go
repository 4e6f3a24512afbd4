package analyzers

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sine(freq float64, sampleRate, length int) []float64 {
	samples := make([]float64, length)
	for i := range samples {
		samples[i] = 0.5 * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
	}
	return samples
}

func TestComputeSTFTShape(t *testing.T) {
	analyzer := NewSpectralAnalyzer(8192)

	signal := sine(440, 8192, 8192*2)
	spectrogram, err := analyzer.ComputeSTFT(signal, 2048, 512)
	require.NoError(t, err)

	assert.Equal(t, (len(signal)-2048)/512+1, spectrogram.TimeFrames)
	assert.Equal(t, 1025, spectrogram.FreqBins)
	assert.InDelta(t, 4.0, spectrogram.FreqResolution, 1e-9)
	assert.Len(t, spectrogram.Magnitude, spectrogram.TimeFrames)
	assert.Len(t, spectrogram.Magnitude[0], spectrogram.FreqBins)
}

func TestComputeSTFTPeakBin(t *testing.T) {
	analyzer := NewSpectralAnalyzer(8192)

	// 512 Hz sits exactly on bin 128 at a 4 Hz resolution
	signal := sine(512, 8192, 8192*2)
	spectrogram, err := analyzer.ComputeSTFT(signal, 2048, 512)
	require.NoError(t, err)

	for _, frame := range spectrogram.Magnitude {
		peak := 0
		for f, v := range frame {
			if v > frame[peak] {
				peak = f
			}
			_ = v
		}
		assert.Equal(t, 128, peak)
	}
}

func TestComputeSTFTEmptySignal(t *testing.T) {
	analyzer := NewSpectralAnalyzer(8192)

	_, err := analyzer.ComputeSTFT(nil, 2048, 512)
	assert.Error(t, err)

	_, err = analyzer.ComputeSTFT(sine(440, 8192, 4096), 0, 512)
	assert.Error(t, err)
}

func TestInverseSTFTRoundTrip(t *testing.T) {
	analyzer := NewSpectralAnalyzer(8192)

	signal := sine(440, 8192, 8192)
	spectrogram, err := analyzer.ComputeSTFT(signal, 2048, 512)
	require.NoError(t, err)

	reconstructed := analyzer.InverseSTFT(spectrogram.Complex, 2048, 512, len(signal))
	require.Len(t, reconstructed, len(signal))

	// Overlap-add reconstruction is accurate away from the edges
	for i := 2048; i < len(signal)-2048; i++ {
		assert.InDelta(t, signal[i], reconstructed[i], 0.01, "sample %d", i)
	}
}

func TestComputeSpectralFlux(t *testing.T) {
	analyzer := NewSpectralAnalyzer(8192)

	// Tone switching on halfway through produces a flux spike
	signal := make([]float64, 8192*2)
	copy(signal[8192:], sine(440, 8192, 8192))

	spectrogram, err := analyzer.ComputeSTFT(signal, 2048, 512)
	require.NoError(t, err)

	flux := analyzer.ComputeSpectralFlux(spectrogram)
	require.Len(t, flux, spectrogram.TimeFrames-1)

	peak := 0
	for i, v := range flux {
		assert.GreaterOrEqual(t, v, 0.0)
		if v > flux[peak] {
			peak = i
		}
	}

	// The spike lands within a window of the onset frame
	onsetFrame := 8192 / 512
	assert.InDelta(t, float64(onsetFrame), float64(peak), 4)
}

func TestCalculateSpectralCentroid(t *testing.T) {
	spectrum := make([]float64, 100)
	freqs := make([]float64, 100)
	for i := range freqs {
		freqs[i] = float64(i) * 10
	}
	spectrum[40] = 1

	assert.InDelta(t, 400, CalculateSpectralCentroid(spectrum, freqs), 1e-9)
	assert.Equal(t, 0.0, CalculateSpectralCentroid(make([]float64, 100), freqs))
}

func TestCalculateSpectralRolloff(t *testing.T) {
	spectrum := make([]float64, 10)
	freqs := make([]float64, 10)
	for i := range spectrum {
		spectrum[i] = 1
		freqs[i] = float64(i) * 100
	}

	rolloff := CalculateSpectralRolloff(spectrum, freqs, 0.85)
	assert.GreaterOrEqual(t, rolloff, 700.0)
	assert.LessOrEqual(t, rolloff, 900.0)
}

func TestCalculateSpectralFlatness(t *testing.T) {
	flat := []float64{1, 1, 1, 1, 1, 1, 1, 1}
	assert.InDelta(t, 1.0, CalculateSpectralFlatness(flat), 1e-6)

	peaky := []float64{0.001, 0.001, 10, 0.001, 0.001, 0.001, 0.001, 0.001}
	assert.Less(t, CalculateSpectralFlatness(peaky), 0.1)
}

func TestCalculateZeroCrossingRate(t *testing.T) {
	alternating := []float64{1, -1, 1, -1, 1, -1, 1, -1}
	assert.InDelta(t, 1.0, CalculateZeroCrossingRate(alternating), 0.15)

	constant := []float64{1, 1, 1, 1}
	assert.Equal(t, 0.0, CalculateZeroCrossingRate(constant))
}

func TestCalculateRMSEnergy(t *testing.T) {
	constant := []float64{0.5, 0.5, 0.5, 0.5}
	assert.InDelta(t, 0.5, CalculateRMSEnergy(constant), 1e-9)
	assert.Equal(t, 0.0, CalculateRMSEnergy(nil))
}

func TestCalculateSpectralContrast(t *testing.T) {
	spectrum := make([]float64, 1025)
	for i := range spectrum {
		spectrum[i] = 0.01
	}
	spectrum[100] = 5
	spectrum[500] = 3

	contrast := CalculateSpectralContrast(spectrum, 7)
	require.Len(t, contrast, 7)
	for _, v := range contrast {
		assert.False(t, math.IsNaN(v))
	}
}

func TestWindowGeneratorCaching(t *testing.T) {
	generator := NewWindowGenerator()

	first := generator.Generate(WindowHann, 1024)
	second := generator.Generate(WindowHann, 1024)
	require.Len(t, first, 1024)

	// Same backing array comes back from the cache
	assert.Same(t, &first[0], &second[0])

	// Hann endpoints are zero, midpoint is one
	assert.InDelta(t, 0.0, first[0], 1e-9)
	assert.InDelta(t, 1.0, first[512], 1e-3)
}

func TestWindowGeneratorRectangular(t *testing.T) {
	generator := NewWindowGenerator()

	window := generator.Generate(WindowRectangular, 64)
	require.Len(t, window, 64)
	for _, v := range window {
		assert.Equal(t, 1.0, v)
	}

	assert.Nil(t, generator.Generate(WindowRectangular, 0))
}
