package batch

import (
	"bytes"
	"context"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/track-analyzer/configs"
	"github.com/RyanBlaney/track-analyzer/pkg/audio"
)

func testConfig() *configs.AnalysisConfig {
	config := configs.DefaultAnalysisConfig()
	return &config
}

func writeToneWAV(t *testing.T, path string, sampleRate int, seconds float64) {
	t.Helper()

	count := int(float64(sampleRate) * seconds)
	var pcm bytes.Buffer
	for i := 0; i < count; i++ {
		sample := int16(16384 * math.Sin(2*math.Pi*440*float64(i)/float64(sampleRate)))
		require.NoError(t, binary.Write(&pcm, binary.LittleEndian, sample))
	}

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+pcm.Len()))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1))
	binary.Write(&buf, binary.LittleEndian, uint16(1))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate*2))
	binary.Write(&buf, binary.LittleEndian, uint16(2))
	binary.Write(&buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(pcm.Len()))
	buf.Write(pcm.Bytes())

	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
}

func TestDiscoverFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0755))

	for _, name := range []string{"b.wav", "a.mp3", "notes.txt", "nested/c.WAV"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
	}

	files, err := DiscoverFiles(dir)
	require.NoError(t, err)

	require.Len(t, files, 3)
	assert.Equal(t, filepath.Join(dir, "a.mp3"), files[0])
	assert.Equal(t, filepath.Join(dir, "b.wav"), files[1])
	assert.Equal(t, filepath.Join(dir, "nested", "c.WAV"), files[2])
}

func TestRunMixedResults(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "good.wav")
	writeToneWAV(t, good, 8000, 1.0)

	bad := filepath.Join(dir, "bad.wav")
	require.NoError(t, os.WriteFile(bad, []byte("not a wav"), 0644))

	runner := NewRunner(testConfig(), 2)
	summary, err := runner.Run(context.Background(), []string{good, bad})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.TotalTracks)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
	require.Len(t, summary.Measurements, 2)

	assert.NotNil(t, summary.Measurements[0].Result)
	assert.Empty(t, summary.Measurements[0].Error)
	assert.Nil(t, summary.Measurements[1].Result)
	assert.NotEmpty(t, summary.Measurements[1].Error)

	require.NotNil(t, summary.Metrics)
	assert.Equal(t, 1, summary.Metrics.ErrorDistribution["decode_error"])
}

func TestRunEmptyFileList(t *testing.T) {
	runner := NewRunner(testConfig(), 2)
	_, err := runner.Run(context.Background(), nil)
	assert.Error(t, err)
}

func TestRunCanceledContext(t *testing.T) {
	runner := NewRunner(testConfig(), 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	files := make([]string, 100)
	for i := range files {
		files[i] = "missing.wav"
	}

	_, err := runner.Run(ctx, files)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCalculateMetrics(t *testing.T) {
	calculator := NewMetricsCalculator(nil)

	summary := &Summary{
		Measurements: []TrackMeasurement{
			{
				Path: "a.wav",
				Result: &audio.Result{
					Tempo:    audio.TempoEstimate{BPM: 120, Determined: true},
					Key:      audio.KeyEstimate{Tonic: "C", Mode: audio.ModeMajor, Confidence: 80},
					Duration: 180,
				},
				ProcessingTime: time.Second,
			},
			{
				Path: "b.wav",
				Result: &audio.Result{
					Tempo:    audio.TempoEstimate{BPM: 140, Determined: true},
					Key:      audio.KeyEstimate{Tonic: "A", Mode: audio.ModeMinor, Confidence: 60},
					Duration: 200,
				},
				ProcessingTime: 2 * time.Second,
			},
			{
				Path: "c.wav",
				Result: &audio.Result{
					Tempo: audio.TempoEstimate{},
					Key:   audio.KeyEstimate{Tonic: "C", Mode: audio.ModeMajor, Confidence: 70},
				},
				ProcessingTime: time.Second,
			},
			{
				Path:  "d.wav",
				Error: "failed to decode d.wav: not a RIFF/WAVE file",
			},
		},
	}

	metrics := calculator.Calculate(summary)

	require.NotNil(t, metrics.Tempo)
	assert.Equal(t, 2, metrics.Tempo.Count)
	assert.InDelta(t, 130, metrics.Tempo.Mean, 1e-9)
	assert.InDelta(t, 120, metrics.Tempo.Min, 1e-9)
	assert.InDelta(t, 140, metrics.Tempo.Max, 1e-9)

	assert.InDelta(t, 2.0/3.0, metrics.TempoDeterminedRate, 1e-9)

	assert.Equal(t, 2, metrics.KeyDistribution["C"])
	assert.Equal(t, 1, metrics.KeyDistribution["Amin"])

	assert.Equal(t, 1, metrics.ErrorDistribution["decode_error"])
}

func TestCategorizeError(t *testing.T) {
	assert.Equal(t, "unsupported_format", categorizeError("unsupported audio format: .ogg"))
	assert.Equal(t, "decode_error", categorizeError("not a RIFF/WAVE file: x.wav"))
	assert.Equal(t, "file_access", categorizeError("open x.wav: no such file or directory"))
	assert.Equal(t, "empty_audio", categorizeError("empty waveform"))
	assert.Equal(t, "analysis_error", categorizeError("something else entirely"))
}
