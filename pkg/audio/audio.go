package audio

import (
	"fmt"

	"github.com/RyanBlaney/track-analyzer/configs"
	"github.com/RyanBlaney/track-analyzer/pkg/audio/chroma"
	"github.com/RyanBlaney/track-analyzer/pkg/audio/features"
	"github.com/RyanBlaney/track-analyzer/pkg/audio/fingerprint"
	"github.com/RyanBlaney/track-analyzer/pkg/audio/key"
	"github.com/RyanBlaney/track-analyzer/pkg/audio/preprocess"
	"github.com/RyanBlaney/track-analyzer/pkg/audio/tempo"
	"github.com/RyanBlaney/track-analyzer/pkg/logging"
)

// Analyzer runs the descriptor extraction pipeline over decoded waveforms.
// It is safe for reuse across tracks; each call derives everything from the
// waveform it is given.
type Analyzer struct {
	config       *configs.AnalysisConfig
	preprocessor *preprocess.Preprocessor
	tempo        *tempo.Estimator
	chroma       *chroma.Extractor
	key          *key.Estimator
	fingerprint  *fingerprint.Generator
	features     *features.Builder
	logger       logging.Logger
}

// NewAnalyzer creates an analyzer with the given configuration. A nil config
// uses the defaults.
func NewAnalyzer(config *configs.AnalysisConfig) *Analyzer {
	if config == nil {
		defaults := configs.DefaultAnalysisConfig()
		config = &defaults
	}

	return &Analyzer{
		config:       config,
		preprocessor: preprocess.NewPreprocessor(config),
		tempo:        tempo.NewEstimator(config),
		chroma:       chroma.NewExtractor(config),
		key:          key.NewEstimator(),
		fingerprint:  fingerprint.NewGenerator(),
		features:     features.NewBuilder(config),
		logger: logging.WithFields(logging.Fields{
			"component": "analyzer",
		}),
	}
}

// EstimateTempo trims leading and trailing silence, isolates the percussive
// component and runs the tempo consensus over it
func (a *Analyzer) EstimateTempo(w Waveform) (TempoEstimate, error) {
	if err := validateWaveform(w); err != nil {
		return TempoEstimate{}, err
	}

	trimmed := a.preprocessor.Trim(w.Samples, w.SampleRate)
	percussive := a.preprocessor.Percussive(trimmed, w.SampleRate)

	bpm, ok := a.tempo.Estimate(percussive, w.SampleRate)
	return TempoEstimate{BPM: bpm, Determined: ok}, nil
}

// EstimateKey trims silence, extracts the smoothed chromagram and matches it
// against the major and minor key profiles
func (a *Analyzer) EstimateKey(w Waveform) (KeyEstimate, error) {
	if err := validateWaveform(w); err != nil {
		return KeyEstimate{}, err
	}

	trimmed := a.preprocessor.Trim(w.Samples, w.SampleRate)
	chromagram := a.chroma.Extract(trimmed, w.SampleRate)

	return keyEstimateFrom(a.key.Estimate(chromagram)), nil
}

// GenerateFingerprint produces the compact chroma fingerprint of the trimmed
// waveform
func (a *Analyzer) GenerateFingerprint(w Waveform) (string, error) {
	if err := validateWaveform(w); err != nil {
		return "", err
	}

	trimmed := a.preprocessor.Trim(w.Samples, w.SampleRate)
	chromagram := a.chroma.Extract(trimmed, w.SampleRate)

	return a.fingerprint.Generate(chromagram), nil
}

// BuildFeatureVector computes the fixed-order statistical feature vector of
// the untrimmed waveform
func (a *Analyzer) BuildFeatureVector(w Waveform) ([]float64, error) {
	if err := validateWaveform(w); err != nil {
		return nil, err
	}

	return a.features.Build(w.Samples, w.SampleRate), nil
}

// Analyze runs the full pipeline and bundles every descriptor. The chromagram
// and trimmed waveform are shared between the key, fingerprint and tempo
// stages rather than recomputed per descriptor.
func (a *Analyzer) Analyze(w Waveform) (*Result, error) {
	if err := validateWaveform(w); err != nil {
		return nil, err
	}

	a.logger.Info("Analyzing track", logging.Fields{
		"duration_seconds": w.Duration(),
		"sample_rate":      w.SampleRate,
	})

	trimmed := a.preprocessor.Trim(w.Samples, w.SampleRate)

	percussive := a.preprocessor.Percussive(trimmed, w.SampleRate)
	bpm, determined := a.tempo.Estimate(percussive, w.SampleRate)

	chromagram := a.chroma.Extract(trimmed, w.SampleRate)
	keyResult := a.key.Estimate(chromagram)

	result := &Result{
		Tempo:       TempoEstimate{BPM: bpm, Determined: determined},
		Key:         keyEstimateFrom(keyResult),
		Fingerprint: a.fingerprint.Generate(chromagram),
		Features:    a.features.Build(w.Samples, w.SampleRate),
		Duration:    w.Duration(),
		SampleRate:  w.SampleRate,
	}

	a.logger.Info("Analysis complete", logging.Fields{
		"tempo":       result.Tempo.String(),
		"key":         result.Key.String(),
		"fingerprint": result.Fingerprint,
	})

	return result, nil
}

func keyEstimateFrom(r key.Result) KeyEstimate {
	mode := ModeMajor
	if r.Minor {
		mode = ModeMinor
	}
	return KeyEstimate{Tonic: r.Tonic, Mode: mode, Confidence: r.Confidence}
}

// validateWaveform rejects unusable metadata only. An empty sample slice is
// a degenerate input, not an error: every stage degrades to its conservative
// default on it.
func validateWaveform(w Waveform) error {
	if w.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate %d", w.SampleRate)
	}
	return nil
}
