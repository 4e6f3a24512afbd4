package chroma

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/track-analyzer/configs"
)

func testConfig() *configs.AnalysisConfig {
	config := configs.DefaultAnalysisConfig()
	return &config
}

func sine(freq float64, sampleRate int, seconds float64) []float64 {
	samples := make([]float64, int(float64(sampleRate)*seconds))
	for i := range samples {
		samples[i] = 0.5 * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
	}
	return samples
}

func argmax(values []float64) int {
	best := 0
	for i, v := range values {
		if v > values[best] {
			best = i
		}
	}
	return best
}

func TestExtractPureTone(t *testing.T) {
	extractor := NewExtractor(testConfig())

	// 440 Hz lands exactly on an FFT bin at this rate and maps to pitch
	// class A (bin 9)
	samples := sine(440, 8192, 4)
	chromagram := extractor.Extract(samples, 8192)

	require.NotEmpty(t, chromagram)
	mean := AverageFrames(chromagram)
	assert.Equal(t, 9, argmax(mean))
}

func TestExtractFramesAreUnitNorm(t *testing.T) {
	extractor := NewExtractor(testConfig())

	samples := sine(440, 8192, 2)
	chromagram := extractor.Extract(samples, 8192)

	require.NotEmpty(t, chromagram)
	for _, frame := range chromagram {
		require.Len(t, frame, ChromaBins)
		norm := 0.0
		for _, v := range frame {
			norm += v * v
		}
		assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-9)
	}
}

func TestExtractSTFTPureTone(t *testing.T) {
	extractor := NewExtractor(testConfig())

	samples := sine(440, 8192, 2)
	chromagram := extractor.ExtractSTFT(samples, 8192)

	require.NotEmpty(t, chromagram)
	for _, frame := range chromagram {
		assert.Equal(t, 9, argmax(frame))
		assert.InDelta(t, 1.0, frame[9], 1e-9)
	}
}

func TestExtractTransposedTone(t *testing.T) {
	extractor := NewExtractor(testConfig())

	// One octave up is the same pitch class
	low := extractor.Extract(sine(440, 8192, 2), 8192)
	high := extractor.Extract(sine(880, 8192, 2), 8192)

	assert.Equal(t, argmax(AverageFrames(low)), argmax(AverageFrames(high)))
}

func TestExtractEmptyInput(t *testing.T) {
	extractor := NewExtractor(testConfig())

	assert.Empty(t, extractor.Extract(nil, 8192))
	assert.Empty(t, extractor.Extract(make([]float64, 100), 0))
}

func TestAverageFrames(t *testing.T) {
	chromagram := [][]float64{
		{1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0},
		{0, 1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0},
	}

	mean := AverageFrames(chromagram)
	assert.InDelta(t, 0.5, mean[0], 1e-9)
	assert.InDelta(t, 0.5, mean[1], 1e-9)
	assert.InDelta(t, 0.0, mean[2], 1e-9)

	assert.Equal(t, make([]float64, ChromaBins), AverageFrames(nil))
}

func TestQuantizeLevels(t *testing.T) {
	assert.Equal(t, 0.0, quantize(0.0))
	assert.Equal(t, 0.0, quantize(0.05))
	assert.Equal(t, 0.25, quantize(0.08))
	assert.Equal(t, 0.5, quantize(0.15))
	assert.Equal(t, 0.75, quantize(0.3))
	assert.Equal(t, 1.0, quantize(0.9))
}

func TestSmoothTimePreservesShape(t *testing.T) {
	chromagram := make([][]float64, 10)
	for t2 := range chromagram {
		chromagram[t2] = make([]float64, ChromaBins)
		chromagram[t2][3] = 1
	}

	smoothed := smoothTime(chromagram, 5)
	require.Len(t, smoothed, 10)
	for _, frame := range smoothed {
		assert.InDelta(t, 1.0, frame[3], 1e-9)
		assert.InDelta(t, 0.0, frame[0], 1e-9)
	}
}

func TestTonnetzDimensions(t *testing.T) {
	chromagram := [][]float64{
		{1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0},
		{0, 0, 0, 1, 0, 0, 0, 0, 0, 0, 0, 0},
	}

	tonnetz := Tonnetz(chromagram)
	require.Len(t, tonnetz, 2)
	for _, frame := range tonnetz {
		assert.Len(t, frame, TonnetzDims)
	}

	// Distinct pitch content yields distinct tonal centroids
	assert.NotEqual(t, tonnetz[0], tonnetz[1])
}
