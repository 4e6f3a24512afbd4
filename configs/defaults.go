package configs

import (
	"github.com/spf13/viper"
)

// SetDefaults sets default configuration values for all components
func SetDefaults(v *viper.Viper) {
	// Application defaults
	if !v.IsSet("verbose") {
		v.SetDefault("verbose", false)
	}
	if !v.IsSet("log_level") {
		v.SetDefault("log_level", "info")
	}
	if !v.IsSet("output_format") {
		v.SetDefault("output_format", "json")
	}

	// Spectral analysis defaults
	if !v.IsSet("analysis.window_size") {
		v.SetDefault("analysis.window_size", 2048)
	}
	if !v.IsSet("analysis.hop_size") {
		v.SetDefault("analysis.hop_size", 512)
	}
	if !v.IsSet("analysis.fine_hop") {
		v.SetDefault("analysis.fine_hop", 256)
	}

	// Preprocessing defaults
	if !v.IsSet("analysis.trim_threshold_db") {
		v.SetDefault("analysis.trim_threshold_db", 60.0)
	}
	if !v.IsSet("analysis.hpss_kernel_size") {
		v.SetDefault("analysis.hpss_kernel_size", 17)
	}

	// Tempo estimation defaults
	if !v.IsSet("analysis.min_bpm") {
		v.SetDefault("analysis.min_bpm", 40.0)
	}
	if !v.IsSet("analysis.max_bpm") {
		v.SetDefault("analysis.max_bpm", 240.0)
	}
	if !v.IsSet("analysis.consensus_tolerance") {
		v.SetDefault("analysis.consensus_tolerance", 8.0)
	}
	if !v.IsSet("analysis.tempogram_window_sec") {
		v.SetDefault("analysis.tempogram_window_sec", 8.0)
	}
	if !v.IsSet("analysis.beat_track_start_bpm") {
		v.SetDefault("analysis.beat_track_start_bpm", 90.0)
	}
	if !v.IsSet("analysis.beat_track_tightness") {
		v.SetDefault("analysis.beat_track_tightness", 100.0)
	}
	if !v.IsSet("analysis.beat_track_alt_bpm") {
		v.SetDefault("analysis.beat_track_alt_bpm", 60.0)
	}
	if !v.IsSet("analysis.beat_track_alt_tightness") {
		v.SetDefault("analysis.beat_track_alt_tightness", 80.0)
	}

	// Chroma defaults
	if !v.IsSet("analysis.chroma_min_freq") {
		v.SetDefault("analysis.chroma_min_freq", 80.0)
	}
	if !v.IsSet("analysis.chroma_max_freq") {
		v.SetDefault("analysis.chroma_max_freq", 8000.0)
	}
	if !v.IsSet("analysis.tuning_freq") {
		v.SetDefault("analysis.tuning_freq", 440.0)
	}
	if !v.IsSet("analysis.chroma_smoothing") {
		v.SetDefault("analysis.chroma_smoothing", 41)
	}

	// Feature extraction defaults
	if !v.IsSet("analysis.mfcc_coefficients") {
		v.SetDefault("analysis.mfcc_coefficients", 20)
	}
	if !v.IsSet("analysis.mel_filters") {
		v.SetDefault("analysis.mel_filters", 26)
	}
	if !v.IsSet("analysis.contrast_bands") {
		v.SetDefault("analysis.contrast_bands", 7)
	}

	// Genre model defaults
	if !v.IsSet("genre.model_path") {
		v.SetDefault("genre.model_path", "")
	}
	if !v.IsSet("genre.neighbors") {
		v.SetDefault("genre.neighbors", 5)
	}
}
