package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/track-analyzer/configs"
	"github.com/RyanBlaney/track-analyzer/pkg/audio"
	"github.com/RyanBlaney/track-analyzer/pkg/audio/features"
	"github.com/RyanBlaney/track-analyzer/pkg/decode"
)

var featuresShowSchema bool

var featuresCmd = &cobra.Command{
	Use:   "features [file]",
	Short: "Extract the statistical feature vector from an audio file",
	Long: `Extracts the fixed-order feature vector used for genre
classification: summary statistics over chroma, MFCC, spectral and
time-domain frame series.`,
	Args: cobra.ExactArgs(1),
	RunE: runFeatures,
}

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the feature vector schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		return writeOutput(map[string]any{
			"schema_version": features.SchemaVersion,
			"dimensions":     features.Dimensions,
			"labels":         features.Schema(),
		})
	},
}

func init() {
	rootCmd.AddCommand(featuresCmd)
	featuresCmd.AddCommand(schemaCmd)

	featuresCmd.Flags().BoolVar(&featuresShowSchema, "labels", false,
		"include per-dimension labels in the output")
}

func runFeatures(cmd *cobra.Command, args []string) error {
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
	vector, err := analyzer.BuildFeatureVector(waveform)
	if err != nil {
		return fmt.Errorf("feature extraction failed: %w", err)
	}

	output := map[string]any{
		"file":           path,
		"schema_version": features.SchemaVersion,
		"features":       vector,
	}
	if featuresShowSchema {
		output["labels"] = features.Schema()
	}

	return writeOutput(output)
}
