package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/track-analyzer/configs"
	"github.com/RyanBlaney/track-analyzer/pkg/audio"
	"github.com/RyanBlaney/track-analyzer/pkg/decode"
)

var tempoCmd = &cobra.Command{
	Use:   "tempo [file]",
	Short: "Estimate the tempo of an audio file",
	Long: `Estimates tempo in beats per minute using a consensus of
autocorrelation, Fourier tempogram and beat tracking methods. Reports
"undetermined" when the methods disagree irreconcilably.`,
	Args: cobra.ExactArgs(1),
	RunE: runTempo,
}

func init() {
	rootCmd.AddCommand(tempoCmd)
}

func runTempo(cmd *cobra.Command, args []string) error {
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
	estimate, err := analyzer.EstimateTempo(waveform)
	if err != nil {
		return fmt.Errorf("tempo estimation failed: %w", err)
	}

	return writeOutput(map[string]any{
		"file":  path,
		"tempo": estimate,
	})
}
