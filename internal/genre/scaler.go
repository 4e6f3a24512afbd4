package genre

import (
	"errors"
	"math"
)

// Scaler standardizes feature vectors with z-score normalization so no single
// feature dimension dominates the distance metric. Mean and Stddev are stored
// in the model file alongside the prototypes.
type Scaler struct {
	Mean   []float64 `json:"mean"`
	Stddev []float64 `json:"stddev"`
}

// Validate checks that pretrained scaling parameters are usable against the
// given dimensionality
func (s *Scaler) Validate(dims int) error {
	if len(s.Mean) != dims || len(s.Stddev) != dims {
		return errors.New("scaler dimensions do not match the feature schema")
	}
	for _, sd := range s.Stddev {
		if sd <= 0 {
			return errors.New("scaler stddev values must be positive")
		}
	}
	return nil
}

// NewScalerFromPrototypes computes per-dimension scaling parameters
func NewScalerFromPrototypes(prototypes []Prototype) (*Scaler, error) {
	if len(prototypes) == 0 {
		return nil, errors.New("no prototypes provided")
	}

	dims := len(prototypes[0].Features)
	if dims == 0 {
		return nil, errors.New("prototypes have no features")
	}

	mean := make([]float64, dims)
	for _, proto := range prototypes {
		if len(proto.Features) != dims {
			return nil, errors.New("inconsistent feature dimensions")
		}
		for i, v := range proto.Features {
			mean[i] += v
		}
	}
	for i := range mean {
		mean[i] /= float64(len(prototypes))
	}

	stddev := make([]float64, dims)
	for _, proto := range prototypes {
		for i, v := range proto.Features {
			diff := v - mean[i]
			stddev[i] += diff * diff
		}
	}
	for i := range stddev {
		stddev[i] = math.Sqrt(stddev[i] / float64(len(prototypes)))
		// Constant dimensions pass through unscaled
		if stddev[i] < 1e-10 {
			stddev[i] = 1.0
		}
	}

	return &Scaler{Mean: mean, Stddev: stddev}, nil
}

// Transform applies z-score standardization. Vectors of the wrong length are
// returned unchanged.
func (s *Scaler) Transform(features []float64) []float64 {
	if len(features) != len(s.Mean) {
		return features
	}

	scaled := make([]float64, len(features))
	for i, v := range features {
		scaled[i] = (v - s.Mean[i]) / s.Stddev[i]
	}
	return scaled
}
