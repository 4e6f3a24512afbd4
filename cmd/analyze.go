package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/track-analyzer/configs"
	"github.com/RyanBlaney/track-analyzer/internal/genre"
	"github.com/RyanBlaney/track-analyzer/pkg/audio"
	"github.com/RyanBlaney/track-analyzer/pkg/decode"
)

var analyzeModelPath string

var analyzeCmd = &cobra.Command{
	Use:   "analyze [file]",
	Short: "Extract every descriptor from an audio file",
	Long: `Runs the full analysis pipeline over one audio file: tempo, key,
fingerprint and the statistical feature vector. When a genre model is
supplied the feature vector is also classified.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVarP(&analyzeModelPath, "model", "m", "",
		"genre model file (overrides genre.model_path)")
}

type analyzeOutput struct {
	File        string             `json:"file" yaml:"file"`
	Result      *audio.Result      `json:"result" yaml:"result"`
	Predictions []genre.Prediction `json:"genre_predictions,omitempty" yaml:"genre_predictions,omitempty"`
}

func runAnalyze(cmd *cobra.Command, args []string) error {
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
	result, err := analyzer.Analyze(waveform)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	output := analyzeOutput{File: path, Result: result}

	modelPath := analyzeModelPath
	if modelPath == "" {
		modelPath = appConfig.Genre.ModelPath
	}
	if modelPath != "" {
		classifier, err := genre.NewClassifierFromFile(modelPath, appConfig.Genre.Neighbors)
		if err != nil {
			return fmt.Errorf("failed to load genre model: %w", err)
		}
		output.Predictions, err = classifier.Predict(result.Features)
		if err != nil {
			return fmt.Errorf("genre prediction failed: %w", err)
		}
	}

	return writeOutput(output)
}
