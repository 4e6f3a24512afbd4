package preprocess

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

func tone(freq float64, sampleRate, length int) []float64 {
	samples := make([]float64, length)
	for i := range samples {
		samples[i] = 0.5 * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
	}
	return samples
}

func TestTrimRemovesSilencePadding(t *testing.T) {
	preprocessor := NewPreprocessor(testConfig())
	sampleRate := 8192

	padding := make([]float64, sampleRate) // one second of digital silence
	signal := tone(440, sampleRate, 2*sampleRate)

	padded := make([]float64, 0, 4*sampleRate)
	padded = append(padded, padding...)
	padded = append(padded, signal...)
	padded = append(padded, padding...)

	trimmed := preprocessor.Trim(padded, sampleRate)

	require.NotEmpty(t, trimmed)
	assert.Less(t, len(trimmed), len(padded))
	// Most of the tone survives; frame granularity costs at most a hop on
	// each side
	assert.GreaterOrEqual(t, len(trimmed), len(signal)-2*512)
	assert.LessOrEqual(t, len(trimmed), len(signal)+2*512)
}

func TestTrimAllSilenceUnchanged(t *testing.T) {
	preprocessor := NewPreprocessor(testConfig())

	silence := make([]float64, 8192)
	trimmed := preprocessor.Trim(silence, 8192)
	assert.Equal(t, len(silence), len(trimmed))
}

func TestTrimNoSilenceUnchanged(t *testing.T) {
	preprocessor := NewPreprocessor(testConfig())
	sampleRate := 8192

	signal := tone(440, sampleRate, 2*sampleRate)
	trimmed := preprocessor.Trim(signal, sampleRate)
	assert.GreaterOrEqual(t, len(trimmed), len(signal)-512)
}

func TestTrimShortInputUnchanged(t *testing.T) {
	preprocessor := NewPreprocessor(testConfig())

	short := []float64{0.1, 0.2, 0.3}
	assert.Equal(t, short, preprocessor.Trim(short, 8192))
}

func TestPercussiveSuppressesSteadyTone(t *testing.T) {
	preprocessor := NewPreprocessor(testConfig())
	sampleRate := 8192

	signal := tone(440, sampleRate, 4*sampleRate)
	percussive := preprocessor.Percussive(signal, sampleRate)

	require.Len(t, percussive, len(signal))

	// The sustained tone is harmonic content; most of its energy should be
	// masked away. Compare mid-signal energy to avoid STFT edge effects.
	start := sampleRate
	end := 3 * sampleRate
	var inputEnergy, outputEnergy float64
	for i := start; i < end; i++ {
		inputEnergy += signal[i] * signal[i]
		outputEnergy += percussive[i] * percussive[i]
	}

	assert.Less(t, outputEnergy, inputEnergy*0.2)
}

func TestPercussiveKeepsClicks(t *testing.T) {
	preprocessor := NewPreprocessor(testConfig())
	sampleRate := 8192

	// Clicks every half second over a sustained tone
	signal := tone(440, sampleRate, 4*sampleRate)
	for beat := 0; beat < 8; beat++ {
		start := beat * sampleRate / 2
		for i := 0; i < 32; i++ {
			if start+i < len(signal) {
				signal[start+i] += 0.9
			}
		}
	}

	percussive := preprocessor.Percussive(signal, sampleRate)
	require.Len(t, percussive, len(signal))

	var energy float64
	for _, v := range percussive {
		energy += v * v
	}
	assert.Greater(t, energy, 0.0)
}

func TestPercussiveShortInputUnchanged(t *testing.T) {
	preprocessor := NewPreprocessor(testConfig())

	short := make([]float64, 100)
	assert.Equal(t, short, preprocessor.Percussive(short, 8192))
}

func TestMedianHelper(t *testing.T) {
	assert.Equal(t, 2.0, median([]float64{3, 1, 2}))
	assert.Equal(t, 1.5, median([]float64{1, 2}))
	assert.Equal(t, 0.0, median(nil))
}
