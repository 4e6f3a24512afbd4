package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/track-analyzer/configs"
	"github.com/RyanBlaney/track-analyzer/pkg/audio"
	"github.com/RyanBlaney/track-analyzer/pkg/decode"
)

var fingerprintCmd = &cobra.Command{
	Use:   "fingerprint [file]",
	Short: "Generate a compact chroma fingerprint for an audio file",
	Long: `Generates a deterministic fingerprint from the track's chroma
content. Identical waveforms always produce identical fingerprints, and the
encoding is insensitive to playback level and overall tempo; a transposed
rendition produces a different fingerprint.`,
	Args: cobra.ExactArgs(1),
	RunE: runFingerprint,
}

func init() {
	rootCmd.AddCommand(fingerprintCmd)
}

func runFingerprint(cmd *cobra.Command, args []string) error {
	path := args[0]

	appConfig, err := configs.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	waveform, err := decode.File(path)
	if err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}

	analyzer := audio.NewAnalyzer(&appConfig.Analysis)
	fingerprint, err := analyzer.GenerateFingerprint(waveform)
	if err != nil {
		return fmt.Errorf("fingerprint generation failed: %w", err)
	}

	return writeOutput(map[string]any{
		"file":        path,
		"fingerprint": fingerprint,
	})
}
