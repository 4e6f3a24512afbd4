package batch

import (
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/RyanBlaney/track-analyzer/pkg/logging"
)

// MetricsCalculator aggregates per-track results into catalog-level metrics
type MetricsCalculator struct {
	logger logging.Logger
}

// NewMetricsCalculator creates a new metrics calculator
func NewMetricsCalculator(logger logging.Logger) *MetricsCalculator {
	if logger == nil {
		logger = logging.WithFields(logging.Fields{
			"component": "batch_metrics",
		})
	}

	return &MetricsCalculator{logger: logger}
}

// Stats represents statistical measures of one metric across the batch
type Stats struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	P95    float64 `json:"p95"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	StdDev float64 `json:"std_dev"`
	Count  int     `json:"count"`
}

// CatalogMetrics summarizes the musical makeup of an analyzed batch
type CatalogMetrics struct {
	Tempo               *Stats         `json:"tempo,omitempty"`
	TempoDeterminedRate float64        `json:"tempo_determined_rate"`
	KeyConfidence       *Stats         `json:"key_confidence,omitempty"`
	KeyDistribution     map[string]int `json:"key_distribution"`
	TrackDuration       *Stats         `json:"track_duration,omitempty"`
	ProcessingTime      *Stats         `json:"processing_time,omitempty"`
	ErrorDistribution   map[string]int `json:"error_distribution,omitempty"`
}

// Calculate derives catalog metrics from a batch summary
func (mc *MetricsCalculator) Calculate(summary *Summary) *CatalogMetrics {
	var tempos []float64
	var confidences []float64
	var durations []float64
	var processingTimes []float64

	keyDistribution := make(map[string]int)
	errorDistribution := make(map[string]int)
	determined := 0
	analyzed := 0

	for _, m := range summary.Measurements {
		processingTimes = append(processingTimes, m.ProcessingTime.Seconds())

		if m.Error != "" {
			errorDistribution[categorizeError(m.Error)]++
			continue
		}
		if m.Result == nil {
			continue
		}

		analyzed++
		if m.Result.Tempo.Determined {
			determined++
			tempos = append(tempos, float64(m.Result.Tempo.BPM))
		}
		confidences = append(confidences, m.Result.Key.Confidence)
		keyDistribution[m.Result.Key.String()]++
		durations = append(durations, m.Result.Duration)
	}

	metrics := &CatalogMetrics{
		Tempo:           mc.calculateStats(tempos),
		KeyConfidence:   mc.calculateStats(confidences),
		KeyDistribution: keyDistribution,
		TrackDuration:   mc.calculateStats(durations),
		ProcessingTime:  mc.calculateStats(processingTimes),
	}
	if analyzed > 0 {
		metrics.TempoDeterminedRate = float64(determined) / float64(analyzed)
	}
	if len(errorDistribution) > 0 {
		metrics.ErrorDistribution = errorDistribution
	}

	return metrics
}

func (mc *MetricsCalculator) calculateStats(data []float64) *Stats {
	if len(data) == 0 {
		return nil
	}

	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)

	return &Stats{
		Mean:   stat.Mean(sorted, nil),
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
		P95:    stat.Quantile(0.95, stat.Empirical, sorted, nil),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		StdDev: stat.StdDev(sorted, nil),
		Count:  len(sorted),
	}
}

// categorizeError buckets failure messages for the error distribution
func categorizeError(message string) string {
	lower := strings.ToLower(message)

	switch {
	case strings.Contains(lower, "unsupported audio format"),
		strings.Contains(lower, "unsupported wav encoding"):
		return "unsupported_format"
	case strings.Contains(lower, "decode"), strings.Contains(lower, "riff"),
		strings.Contains(lower, "mp3"):
		return "decode_error"
	case strings.Contains(lower, "no such file"), strings.Contains(lower, "permission"):
		return "file_access"
	case strings.Contains(lower, "empty waveform"), strings.Contains(lower, "no samples"):
		return "empty_audio"
	default:
		return "analysis_error"
	}
}
