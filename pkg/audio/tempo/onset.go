package tempo

import (
	"github.com/RyanBlaney/track-analyzer/pkg/audio/analyzers"
)

// OnsetEnvelope is a frame-wise measure of rhythmic attack strength. Values
// are non-negative; the frame rate is sampleRate/hop.
type OnsetEnvelope struct {
	Values    []float64
	FrameRate float64
}

// OnsetStrength computes a spectral-flux onset envelope at the given hop
// size: per frame, the mean half-wave-rectified magnitude increase across
// frequency bins.
func (e *Estimator) OnsetStrength(samples []float64, sampleRate, hop int) OnsetEnvelope {
	envelope := OnsetEnvelope{FrameRate: float64(sampleRate) / float64(hop)}

	if len(samples) < e.config.WindowSize || sampleRate <= 0 || hop <= 0 {
		return envelope
	}

	analyzer := analyzers.NewSpectralAnalyzer(sampleRate)
	spectrogram, err := analyzer.ComputeSTFT(samples, e.config.WindowSize, hop)
	if err != nil {
		return envelope
	}

	envelope.Values = analyzer.ComputeSpectralFlux(spectrogram)
	return envelope
}

// HasEnergy reports whether the envelope carries any onset energy at all
func (o OnsetEnvelope) HasEnergy() bool {
	for _, v := range o.Values {
		if v > 1e-12 {
			return true
		}
	}
	return false
}
