package features

import "fmt"

// SchemaVersion identifies the feature vector layout. The vector is the only
// channel into the external genre classifier, so any change to the group
// sizes, statistic set, or ordering below is a breaking change and must bump
// this constant together with the downstream model.
const SchemaVersion = 1

// featureGroup is one frame-wise feature family and its channel count
type featureGroup struct {
	name string
	size int
}

// featureGroups lists the families in schema order (lexicographic by name,
// following the FMA feature-table convention)
var featureGroups = []featureGroup{
	{"chroma_cens", 12},
	{"chroma_stft", 12},
	{"mfcc", 20},
	{"rmse", 1},
	{"spectral_bandwidth", 1},
	{"spectral_centroid", 1},
	{"spectral_contrast", 7},
	{"spectral_flatness", 1},
	{"spectral_rolloff", 1},
	{"tonnetz", 6},
	{"zcr", 1},
}

// statistics lists the per-channel summary statistics in schema order
// (lexicographic)
var statistics = []string{"kurtosis", "max", "mean", "median", "min", "skew", "std"}

// Dimensions is the total feature vector length
var Dimensions = func() int {
	channels := 0
	for _, g := range featureGroups {
		channels += g.size
	}
	return channels * len(statistics)
}()

// Schema returns the ordered labels of every vector index, formatted as
// "<feature>.<statistic>.<channel>" with 1-based zero-padded channel numbers
func Schema() []string {
	labels := make([]string, 0, Dimensions)
	for _, g := range featureGroups {
		for _, stat := range statistics {
			for i := 0; i < g.size; i++ {
				labels = append(labels, fmt.Sprintf("%s.%s.%02d", g.name, stat, i+1))
			}
		}
	}
	return labels
}
