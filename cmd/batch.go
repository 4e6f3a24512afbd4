package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/track-analyzer/configs"
	"github.com/RyanBlaney/track-analyzer/internal/batch"
)

var batchWorkers int

var batchCmd = &cobra.Command{
	Use:   "batch [directory]",
	Short: "Analyze every audio file under a directory",
	Long: `Walks a directory tree, analyzes every WAV and MP3 file with a
bounded worker pool and reports per-track results plus catalog-level
metrics (tempo distribution, key distribution, error breakdown).`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVarP(&batchWorkers, "workers", "w", runtime.NumCPU(),
		"number of concurrent analysis workers")
}

func runBatch(cmd *cobra.Command, args []string) error {
	root := args[0]

	appConfig, err := configs.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	files, err := batch.DiscoverFiles(root)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no audio files found under %s", root)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := batch.NewRunner(&appConfig.Analysis, batchWorkers)
	summary, err := runner.Run(ctx, files)
	if err != nil {
		return fmt.Errorf("batch analysis failed: %w", err)
	}

	return writeOutput(summary)
}
