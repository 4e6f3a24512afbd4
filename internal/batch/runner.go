package batch

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/RyanBlaney/track-analyzer/configs"
	"github.com/RyanBlaney/track-analyzer/pkg/audio"
	"github.com/RyanBlaney/track-analyzer/pkg/decode"
	"github.com/RyanBlaney/track-analyzer/pkg/logging"
)

// TrackMeasurement is the analysis outcome for one file in a batch run
type TrackMeasurement struct {
	Path           string        `json:"path"`
	Result         *audio.Result `json:"result,omitempty"`
	Error          string        `json:"error,omitempty"`
	ProcessingTime time.Duration `json:"processing_time"`
}

// Summary aggregates a whole batch run
type Summary struct {
	TotalTracks  int                `json:"total_tracks"`
	Succeeded    int                `json:"succeeded"`
	Failed       int                `json:"failed"`
	Duration     time.Duration      `json:"duration"`
	Measurements []TrackMeasurement `json:"measurements"`
	Metrics      *CatalogMetrics    `json:"metrics,omitempty"`
}

// Runner analyzes a set of audio files concurrently with a bounded worker
// pool and aggregates catalog-level metrics over the results
type Runner struct {
	config  *configs.AnalysisConfig
	workers int
	logger  logging.Logger
	metrics *MetricsCalculator
}

// NewRunner creates a batch runner. Worker counts below 1 run sequentially.
func NewRunner(config *configs.AnalysisConfig, workers int) *Runner {
	if workers < 1 {
		workers = 1
	}

	logger := logging.WithFields(logging.Fields{
		"component": "batch_runner",
	})

	return &Runner{
		config:  config,
		workers: workers,
		logger:  logger,
		metrics: NewMetricsCalculator(logger),
	}
}

// DiscoverFiles walks a directory tree and collects the supported audio
// files in deterministic order
func DiscoverFiles(root string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".wav", ".mp3":
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}

	sort.Strings(files)
	return files, nil
}

// Run analyzes every file and returns the batch summary. Individual file
// failures are recorded in their measurements; only context cancellation
// aborts the run.
func (r *Runner) Run(ctx context.Context, files []string) (*Summary, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("no audio files to analyze")
	}

	startTime := time.Now()

	r.logger.Info("Starting batch analysis", logging.Fields{
		"tracks":  len(files),
		"workers": r.workers,
	})

	measurements := make([]TrackMeasurement, len(files))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for _i := 0; _i < r.workers; _i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			analyzer := audio.NewAnalyzer(r.config)
			for idx := range jobs {
				measurements[idx] = r.measureTrack(analyzer, files[idx])
			}
		}()
	}

	canceled := false
dispatch:
	for idx := range files {
		select {
		case <-ctx.Done():
			canceled = true
			break dispatch
		case jobs <- idx:
		}
	}
	close(jobs)
	wg.Wait()

	if canceled {
		return nil, ctx.Err()
	}

	summary := &Summary{
		TotalTracks:  len(files),
		Duration:     time.Since(startTime),
		Measurements: measurements,
	}
	for _, m := range measurements {
		if m.Error == "" {
			summary.Succeeded++
		} else {
			summary.Failed++
		}
	}
	summary.Metrics = r.metrics.Calculate(summary)

	r.logger.Info("Batch analysis complete", logging.Fields{
		"tracks":    summary.TotalTracks,
		"succeeded": summary.Succeeded,
		"failed":    summary.Failed,
		"duration":  summary.Duration.Seconds(),
	})

	return summary, nil
}

func (r *Runner) measureTrack(analyzer *audio.Analyzer, path string) TrackMeasurement {
	startTime := time.Now()
	measurement := TrackMeasurement{Path: path}

	waveform, err := decode.File(path)
	if err != nil {
		measurement.Error = err.Error()
		measurement.ProcessingTime = time.Since(startTime)
		r.logger.Warn("Failed to decode track", logging.Fields{
			"path":  path,
			"error": err.Error(),
		})
		return measurement
	}

	result, err := analyzer.Analyze(waveform)
	if err != nil {
		measurement.Error = err.Error()
	} else {
		measurement.Result = result
	}
	measurement.ProcessingTime = time.Since(startTime)

	return measurement
}
