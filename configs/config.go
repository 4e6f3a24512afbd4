package configs

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	// Application settings
	Verbose      bool   `mapstructure:"verbose"`
	LogLevel     string `mapstructure:"log_level"`
	OutputFormat string `mapstructure:"output_format"`

	// Analysis configuration
	Analysis AnalysisConfig `mapstructure:"analysis"`

	// Genre model configuration
	Genre GenreConfig `mapstructure:"genre"`
}

// AnalysisConfig contains the signal-processing parameters shared by the
// tempo, key, fingerprint and feature stages
type AnalysisConfig struct {
	// Spectral analysis
	WindowSize int `mapstructure:"window_size"`
	HopSize    int `mapstructure:"hop_size"`
	FineHop    int `mapstructure:"fine_hop"`

	// Silence trimming
	TrimThresholdDB float64 `mapstructure:"trim_threshold_db"`

	// Harmonic/percussive separation
	HPSSKernelSize int `mapstructure:"hpss_kernel_size"`

	// Tempo estimation
	MinBPM              float64 `mapstructure:"min_bpm"`
	MaxBPM              float64 `mapstructure:"max_bpm"`
	ConsensusTolerance  float64 `mapstructure:"consensus_tolerance"`
	TempogramWindowSec  float64 `mapstructure:"tempogram_window_sec"`
	BeatTrackStartBPM   float64 `mapstructure:"beat_track_start_bpm"`
	BeatTrackTightness  float64 `mapstructure:"beat_track_tightness"`
	BeatTrackAltBPM     float64 `mapstructure:"beat_track_alt_bpm"`
	BeatTrackAltTighten float64 `mapstructure:"beat_track_alt_tightness"`

	// Chroma extraction
	ChromaMinFreq   float64 `mapstructure:"chroma_min_freq"`
	ChromaMaxFreq   float64 `mapstructure:"chroma_max_freq"`
	TuningFreq      float64 `mapstructure:"tuning_freq"`
	ChromaSmoothing int     `mapstructure:"chroma_smoothing"`

	// Feature extraction
	MFCCCoefficients int `mapstructure:"mfcc_coefficients"`
	MelFilters       int `mapstructure:"mel_filters"`
	ContrastBands    int `mapstructure:"contrast_bands"`
}

// GenreConfig locates the external pretrained genre model
type GenreConfig struct {
	ModelPath string `mapstructure:"model_path"`
	Neighbors int    `mapstructure:"neighbors"`
}

// LoadConfig unmarshals the viper state into a validated Config
func LoadConfig() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate checks configuration invariants that would otherwise surface as
// confusing numeric failures deep inside the pipeline
func (c *Config) Validate() error {
	a := &c.Analysis

	if a.WindowSize <= 0 || a.WindowSize&(a.WindowSize-1) != 0 {
		return fmt.Errorf("window_size must be a positive power of two, got %d", a.WindowSize)
	}
	if a.HopSize <= 0 || a.HopSize > a.WindowSize {
		return fmt.Errorf("hop_size must be in (0, window_size], got %d", a.HopSize)
	}
	if a.FineHop <= 0 || a.FineHop > a.HopSize {
		return fmt.Errorf("fine_hop must be in (0, hop_size], got %d", a.FineHop)
	}
	if a.MinBPM <= 0 || a.MaxBPM <= a.MinBPM {
		return fmt.Errorf("BPM range [%.1f, %.1f] is invalid", a.MinBPM, a.MaxBPM)
	}
	if a.TrimThresholdDB <= 0 {
		return fmt.Errorf("trim_threshold_db must be positive, got %.1f", a.TrimThresholdDB)
	}
	if a.HPSSKernelSize <= 0 || a.HPSSKernelSize%2 == 0 {
		return fmt.Errorf("hpss_kernel_size must be a positive odd number, got %d", a.HPSSKernelSize)
	}
	if a.ChromaMinFreq <= 0 || a.ChromaMaxFreq <= a.ChromaMinFreq {
		return fmt.Errorf("chroma frequency range [%.1f, %.1f] is invalid", a.ChromaMinFreq, a.ChromaMaxFreq)
	}
	if a.TuningFreq <= 0 {
		return fmt.Errorf("tuning_freq must be positive, got %.1f", a.TuningFreq)
	}
	if a.ChromaSmoothing <= 0 || a.ChromaSmoothing%2 == 0 {
		return fmt.Errorf("chroma_smoothing must be a positive odd number, got %d", a.ChromaSmoothing)
	}
	if a.MFCCCoefficients <= 0 || a.MelFilters < a.MFCCCoefficients {
		return fmt.Errorf("mfcc_coefficients (%d) must be positive and at most mel_filters (%d)",
			a.MFCCCoefficients, a.MelFilters)
	}
	if a.ContrastBands <= 0 {
		return fmt.Errorf("contrast_bands must be positive, got %d", a.ContrastBands)
	}

	if c.Genre.Neighbors <= 0 {
		return fmt.Errorf("genre.neighbors must be positive, got %d", c.Genre.Neighbors)
	}

	return nil
}

// DefaultAnalysisConfig returns the analysis parameters used when no
// configuration file is present
func DefaultAnalysisConfig() AnalysisConfig {
	return AnalysisConfig{
		WindowSize:          2048,
		HopSize:             512,
		FineHop:             256,
		TrimThresholdDB:     60,
		HPSSKernelSize:      17,
		MinBPM:              40,
		MaxBPM:              240,
		ConsensusTolerance:  8,
		TempogramWindowSec:  8,
		BeatTrackStartBPM:   90,
		BeatTrackTightness:  100,
		BeatTrackAltBPM:     60,
		BeatTrackAltTighten: 80,
		ChromaMinFreq:       80,
		ChromaMaxFreq:       8000,
		TuningFreq:          440,
		ChromaSmoothing:     41,
		MFCCCoefficients:    20,
		MelFilters:          26,
		ContrastBands:       7,
	}
}
