package audio

import "fmt"

// Waveform is a decoded mono audio signal at a known sample rate.
// It is treated as immutable: analysis stages never modify Samples in place
// and always allocate new slices for derived signals.
type Waveform struct {
	Samples    []float64 `json:"-"`
	SampleRate int       `json:"sample_rate"`
}

// Duration returns the waveform length in seconds
func (w Waveform) Duration() float64 {
	if w.SampleRate <= 0 {
		return 0
	}
	return float64(len(w.Samples)) / float64(w.SampleRate)
}

// TempoEstimate is a single best-effort BPM value. Determined is false when
// the estimation methods disagreed irreconcilably or no onset energy was
// found; BPM is only meaningful when Determined is true.
type TempoEstimate struct {
	BPM        int  `json:"bpm,omitempty"`
	Determined bool `json:"determined"`
}

func (t TempoEstimate) String() string {
	if !t.Determined {
		return "undetermined"
	}
	return fmt.Sprintf("%d", t.BPM)
}

// Mode distinguishes major from minor keys
type Mode string

const (
	ModeMajor Mode = "major"
	ModeMinor Mode = "minor"
)

// KeyEstimate is the best-matching musical key with a 0-100 confidence.
// Confidence is a linear rescaling of the profile correlation: correlations
// in [0, 1] map onto [0, 100] and negative correlations clamp to 0.
type KeyEstimate struct {
	Tonic      string  `json:"tonic"`
	Mode       Mode    `json:"mode"`
	Confidence float64 `json:"confidence"`
}

func (k KeyEstimate) String() string {
	if k.Mode == ModeMinor {
		return k.Tonic + "min"
	}
	return k.Tonic
}

// Result bundles the descriptors of one full analysis pass
type Result struct {
	Tempo       TempoEstimate `json:"tempo"`
	Key         KeyEstimate   `json:"key"`
	Fingerprint string        `json:"fingerprint"`
	Features    []float64     `json:"features"`
	Duration    float64       `json:"duration_seconds"`
	SampleRate  int           `json:"sample_rate"`
}
