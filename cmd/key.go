package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/track-analyzer/configs"
	"github.com/RyanBlaney/track-analyzer/pkg/audio"
	"github.com/RyanBlaney/track-analyzer/pkg/decode"
)

var keyCmd = &cobra.Command{
	Use:   "key [file]",
	Short: "Estimate the musical key of an audio file",
	Long: `Estimates the musical key by correlating averaged chroma content
against the 24 rotated major and minor key profiles. The confidence score
rescales the winning correlation onto 0-100.`,
	Args: cobra.ExactArgs(1),
	RunE: runKey,
}

func init() {
	rootCmd.AddCommand(keyCmd)
}

func runKey(cmd *cobra.Command, args []string) error {
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
	estimate, err := analyzer.EstimateKey(waveform)
	if err != nil {
		return fmt.Errorf("key estimation failed: %w", err)
	}

	return writeOutput(map[string]any{
		"file": path,
		"key":  estimate,
	})
}
