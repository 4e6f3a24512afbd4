package audio

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/track-analyzer/pkg/audio/features"
	"github.com/RyanBlaney/track-analyzer/pkg/audio/fingerprint"
)

const testSampleRate = 25600

// musicalSignal synthesizes a track-like waveform: a sustained A4 tone with
// broadband clicks at the given BPM
func musicalSignal(bpm float64, seconds float64) Waveform {
	samples := make([]float64, int(float64(testSampleRate)*seconds))

	for i := range samples {
		samples[i] = 0.3 * math.Sin(2*math.Pi*440*float64(i)/float64(testSampleRate))
	}

	period := 60.0 / bpm * float64(testSampleRate)
	for beat := 0; ; beat++ {
		start := int(float64(beat) * period)
		if start >= len(samples) {
			break
		}
		for i := 0; i < 48; i++ {
			if start+i >= len(samples) {
				break
			}
			sign := 1.0
			if i%2 == 1 {
				sign = -1
			}
			samples[start+i] += 0.6 * sign * math.Pow(0.85, float64(i))
		}
	}

	return Waveform{Samples: samples, SampleRate: testSampleRate}
}

func TestAnalyzeFullPipeline(t *testing.T) {
	analyzer := NewAnalyzer(nil)

	waveform := musicalSignal(120, 20)
	result, err := analyzer.Analyze(waveform)
	require.NoError(t, err)

	assert.True(t, result.Tempo.Determined)
	assert.InDelta(t, 120, float64(result.Tempo.BPM), 3)

	assert.Equal(t, "A", result.Key.Tonic)
	assert.Greater(t, result.Key.Confidence, 0.0)

	assert.Len(t, result.Fingerprint, fingerprint.EncodedLength)
	assert.Len(t, result.Features, features.Dimensions)

	assert.InDelta(t, 20, result.Duration, 1e-9)
	assert.Equal(t, testSampleRate, result.SampleRate)
}

func TestAnalyzeFastClickTrack(t *testing.T) {
	analyzer := NewAnalyzer(nil)

	// Four clicks per second over the A4 tone: the tempo reading must stay
	// at 240 rather than collapse to the half-tempo octave
	waveform := musicalSignal(240, 20)
	result, err := analyzer.Analyze(waveform)
	require.NoError(t, err)

	assert.True(t, result.Tempo.Determined)
	assert.InDelta(t, 240, float64(result.Tempo.BPM), 4)

	assert.Equal(t, "A", result.Key.Tonic)
	assert.Greater(t, result.Key.Confidence, 0.0)
}

func TestEstimateTempoMatchesAnalyze(t *testing.T) {
	analyzer := NewAnalyzer(nil)

	waveform := musicalSignal(120, 20)
	estimate, err := analyzer.EstimateTempo(waveform)
	require.NoError(t, err)

	result, err := analyzer.Analyze(waveform)
	require.NoError(t, err)

	assert.Equal(t, result.Tempo, estimate)
}

func TestGenerateFingerprintGainInvariance(t *testing.T) {
	analyzer := NewAnalyzer(nil)

	waveform := musicalSignal(120, 10)

	// Chroma normalization cancels playback gain before hashing
	quiet := Waveform{Samples: make([]float64, len(waveform.Samples)), SampleRate: testSampleRate}
	for i, v := range waveform.Samples {
		quiet.Samples[i] = v * 0.5
	}

	a, err := analyzer.GenerateFingerprint(waveform)
	require.NoError(t, err)
	b, err := analyzer.GenerateFingerprint(quiet)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestAnalyzeEmptyWaveformDegrades(t *testing.T) {
	analyzer := NewAnalyzer(nil)

	result, err := analyzer.Analyze(Waveform{SampleRate: 44100})
	require.NoError(t, err)

	assert.False(t, result.Tempo.Determined)
	assert.Equal(t, "C", result.Key.Tonic)
	assert.Equal(t, ModeMajor, result.Key.Mode)
	assert.Zero(t, result.Key.Confidence)
	assert.Len(t, result.Fingerprint, fingerprint.EncodedLength)
	assert.Len(t, result.Features, features.Dimensions)
	assert.Zero(t, result.Duration)
}

func TestAnalyzeInvalidSampleRate(t *testing.T) {
	analyzer := NewAnalyzer(nil)

	_, err := analyzer.Analyze(Waveform{Samples: []float64{0.1}, SampleRate: 0})
	assert.Error(t, err)
}

func TestTempoEstimateString(t *testing.T) {
	assert.Equal(t, "undetermined", TempoEstimate{}.String())
	assert.Equal(t, "128", TempoEstimate{BPM: 128, Determined: true}.String())
}

func TestKeyEstimateString(t *testing.T) {
	assert.Equal(t, "A", KeyEstimate{Tonic: "A", Mode: ModeMajor}.String())
	assert.Equal(t, "Cmin", KeyEstimate{Tonic: "C", Mode: ModeMinor}.String())
}

func TestWaveformDuration(t *testing.T) {
	w := Waveform{Samples: make([]float64, 44100), SampleRate: 44100}
	assert.InDelta(t, 1.0, w.Duration(), 1e-9)
	assert.Equal(t, 0.0, Waveform{}.Duration())
}
