package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/track-analyzer/configs"
	"github.com/RyanBlaney/track-analyzer/internal/genre"
	"github.com/RyanBlaney/track-analyzer/pkg/audio"
	"github.com/RyanBlaney/track-analyzer/pkg/decode"
)

var (
	genreModelPath string
	genreNeighbors int
)

var genreCmd = &cobra.Command{
	Use:   "genre [file]",
	Short: "Classify the genre of an audio file",
	Long: `Extracts the feature vector from an audio file and classifies it
against a pretrained prototype model. The model file must have been built
with the same feature schema version this binary extracts.`,
	Args: cobra.ExactArgs(1),
	RunE: runGenre,
}

func init() {
	rootCmd.AddCommand(genreCmd)

	genreCmd.Flags().StringVarP(&genreModelPath, "model", "m", "",
		"genre model file (overrides genre.model_path)")
	genreCmd.Flags().IntVarP(&genreNeighbors, "neighbors", "k", 0,
		"neighbor count (overrides genre.neighbors)")
}

func runGenre(cmd *cobra.Command, args []string) error {
	path := args[0]

	appConfig, err := configs.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	modelPath := genreModelPath
	if modelPath == "" {
		modelPath = appConfig.Genre.ModelPath
	}
	if modelPath == "" {
		return fmt.Errorf("no genre model: set --model or genre.model_path")
	}

	neighbors := genreNeighbors
	if neighbors <= 0 {
		neighbors = appConfig.Genre.Neighbors
	}

	classifier, err := genre.NewClassifierFromFile(modelPath, neighbors)
	if err != nil {
		return fmt.Errorf("failed to load genre model: %w", err)
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

	predictions, err := classifier.Predict(vector)
	if err != nil {
		return fmt.Errorf("genre prediction failed: %w", err)
	}

	return writeOutput(map[string]any{
		"file":        path,
		"model":       modelPath,
		"labels":      classifier.Labels(),
		"predictions": predictions,
	})
}
