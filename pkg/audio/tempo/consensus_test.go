package tempo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcileAgreement(t *testing.T) {
	estimator := NewEstimator(testConfig())

	bpm, ok := estimator.Reconcile([]Candidate{
		{Source: "autocorrelation", BPM: 120.2},
		{Source: "tempogram", BPM: 119.8},
		{Source: "beat_track", BPM: 120.5},
	})

	require.True(t, ok)
	assert.Equal(t, 120, bpm)
}

func TestReconcileOctaveError(t *testing.T) {
	estimator := NewEstimator(testConfig())

	// A doubled vote is an octave error, not a disagreement
	bpm, ok := estimator.Reconcile([]Candidate{
		{Source: "autocorrelation", BPM: 120},
		{Source: "tempogram", BPM: 240},
		{Source: "beat_track", BPM: 119},
	})

	require.True(t, ok)
	assert.InDelta(t, 120, float64(bpm), 1)
}

func TestReconcileDisagreement(t *testing.T) {
	estimator := NewEstimator(testConfig())

	_, ok := estimator.Reconcile([]Candidate{
		{Source: "autocorrelation", BPM: 100},
		{Source: "tempogram", BPM: 150},
	})

	assert.False(t, ok)
}

func TestReconcileEmpty(t *testing.T) {
	estimator := NewEstimator(testConfig())

	_, ok := estimator.Reconcile(nil)
	assert.False(t, ok)
}

func TestReconcileSingleCandidate(t *testing.T) {
	estimator := NewEstimator(testConfig())

	bpm, ok := estimator.Reconcile([]Candidate{
		{Source: "tempogram", BPM: 97.4},
	})

	require.True(t, ok)
	assert.Equal(t, 97, bpm)
}

func TestFoldIntoRange(t *testing.T) {
	estimator := NewEstimator(testConfig())

	assert.InDelta(t, 150, estimator.foldIntoRange(300), 1e-9)
	assert.InDelta(t, 40, estimator.foldIntoRange(20), 1e-9)
	assert.InDelta(t, 120, estimator.foldIntoRange(120), 1e-9)
	assert.Equal(t, 0.0, estimator.foldIntoRange(-5))
}

func TestOctaveCorrect(t *testing.T) {
	assert.InDelta(t, 120, octaveCorrect(240, 120), 1e-9)
	assert.InDelta(t, 120, octaveCorrect(60, 110), 1e-9)
	assert.InDelta(t, 100, octaveCorrect(100, 110), 1e-9)
	assert.InDelta(t, 128, octaveCorrect(32, 120), 1e-9)
}
