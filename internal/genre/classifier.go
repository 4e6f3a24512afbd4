package genre

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gonum.org/v1/gonum/floats"

	"github.com/RyanBlaney/track-analyzer/pkg/audio/features"
	"github.com/RyanBlaney/track-analyzer/pkg/logging"
)

// ErrSchemaMismatch is returned when a feature vector does not match the
// dimensionality or schema version the loaded model was trained against
var ErrSchemaMismatch = errors.New("feature schema mismatch")

// Prototype is one labeled training example in the model file
type Prototype struct {
	ID       string    `json:"id"`
	Label    string    `json:"label"`
	Features []float64 `json:"features"`
}

// Model is the on-disk classifier format: labeled prototypes, the schema
// version their features were extracted with, and optionally the scaler the
// model was trained with. Models without a scaler fall back to one derived
// from the prototypes themselves.
type Model struct {
	SchemaVersion int         `json:"schema_version"`
	Prototypes    []Prototype `json:"prototypes"`
	Scaler        *Scaler     `json:"scaler,omitempty"`
}

// Prediction is one candidate genre with its aggregated confidence
type Prediction struct {
	Label       string  `json:"label"`
	Confidence  float64 `json:"confidence"`
	AverageDist float64 `json:"average_distance"`
	Support     int     `json:"support"`
}

// Classifier predicts genres by k-nearest prototype lookup over standardized
// feature vectors. It is safe for concurrent use.
type Classifier struct {
	mu         sync.RWMutex
	prototypes []Prototype
	scaler     *Scaler
	k          int
	logger     logging.Logger
}

type distancePair struct {
	index    int
	distance float64
}

// NewClassifierFromFile loads a model file and prepares the prototype space.
// Prototype features are standardized once at load time so every Predict call
// only scales the incoming vector.
func NewClassifierFromFile(path string, k int) (*Classifier, error) {
	if k <= 0 {
		return nil, fmt.Errorf("invalid neighbor count: %d", k)
	}

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to load genre model: %w", err)
	}

	var model Model
	if err := json.Unmarshal(data, &model); err != nil {
		return nil, fmt.Errorf("unable to parse genre model: %w", err)
	}

	return NewClassifier(model, k)
}

// NewClassifier builds a classifier from an in-memory model
func NewClassifier(model Model, k int) (*Classifier, error) {
	if k <= 0 {
		return nil, fmt.Errorf("invalid neighbor count: %d", k)
	}
	if model.SchemaVersion != features.SchemaVersion {
		return nil, fmt.Errorf("%w: model schema version %d, extractor version %d",
			ErrSchemaMismatch, model.SchemaVersion, features.SchemaVersion)
	}
	if len(model.Prototypes) == 0 {
		return nil, errors.New("genre model has no prototypes")
	}

	logger := logging.WithFields(logging.Fields{
		"component": "genre_classifier",
	})

	for _, proto := range model.Prototypes {
		if proto.Label == "" {
			return nil, fmt.Errorf("prototype %s missing label", proto.ID)
		}
		if len(proto.Features) != features.Dimensions {
			return nil, fmt.Errorf("%w: prototype %s has %d features, expected %d",
				ErrSchemaMismatch, proto.ID, len(proto.Features), features.Dimensions)
		}
	}

	scaler := model.Scaler
	if scaler != nil {
		if err := scaler.Validate(features.Dimensions); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrSchemaMismatch, err)
		}
	} else {
		derived, err := NewScalerFromPrototypes(model.Prototypes)
		if err != nil {
			return nil, fmt.Errorf("failed to build feature scaler: %w", err)
		}
		scaler = derived
	}

	prototypes := make([]Prototype, len(model.Prototypes))
	for i, proto := range model.Prototypes {
		proto.Features = scaler.Transform(proto.Features)
		prototypes[i] = proto
	}

	if k > len(prototypes) {
		k = len(prototypes)
	}

	logger.Info("Genre model loaded", logging.Fields{
		"prototypes":     len(prototypes),
		"neighbors":      k,
		"schema_version": model.SchemaVersion,
	})

	return &Classifier{
		prototypes: prototypes,
		scaler:     scaler,
		k:          k,
		logger:     logger,
	}, nil
}

// Predict ranks the candidate genres for one feature vector. Confidence per
// label is the fraction of inverse-distance weight its neighbors carry among
// the k nearest prototypes.
func (c *Classifier) Predict(featureVector []float64) ([]Prediction, error) {
	if len(featureVector) != features.Dimensions {
		return nil, fmt.Errorf("%w: got %d dimensions, expected %d",
			ErrSchemaMismatch, len(featureVector), features.Dimensions)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	scaled := c.scaler.Transform(featureVector)

	distances := make([]distancePair, len(c.prototypes))
	for i, proto := range c.prototypes {
		distances[i] = distancePair{index: i, distance: euclideanDistance(scaled, proto.Features)}
	}
	sort.Slice(distances, func(i, j int) bool {
		return distances[i].distance < distances[j].distance
	})

	type labelStats struct {
		weightSum float64
		distSum   float64
		count     int
	}

	scores := make(map[string]*labelStats)
	totalWeight := 0.0
	for idx := 0; idx < len(distances) && idx < c.k; idx++ {
		neighbor := distances[idx]
		weight := 1.0 / (neighbor.distance + 1e-9)

		label := c.prototypes[neighbor.index].Label
		stats, ok := scores[label]
		if !ok {
			stats = &labelStats{}
			scores[label] = stats
		}
		stats.weightSum += weight
		stats.distSum += neighbor.distance
		stats.count++
		totalWeight += weight
	}

	if totalWeight == 0 {
		return []Prediction{}, nil
	}

	predictions := make([]Prediction, 0, len(scores))
	for label, stats := range scores {
		predictions = append(predictions, Prediction{
			Label:       label,
			Confidence:  stats.weightSum / totalWeight,
			AverageDist: stats.distSum / float64(stats.count),
			Support:     stats.count,
		})
	}

	sort.Slice(predictions, func(i, j int) bool {
		if math.Abs(predictions[i].Confidence-predictions[j].Confidence) > 1e-9 {
			return predictions[i].Confidence > predictions[j].Confidence
		}
		return predictions[i].AverageDist < predictions[j].AverageDist
	})

	return predictions, nil
}

// Labels returns the distinct genre labels in the model, sorted
func (c *Classifier) Labels() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, proto := range c.prototypes {
		seen[proto.Label] = struct{}{}
	}

	labels := make([]string, 0, len(seen))
	for label := range seen {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

func euclideanDistance(a, b []float64) float64 {
	if len(a) != len(b) {
		return math.MaxFloat64
	}
	return floats.Distance(a, b, 2)
}
