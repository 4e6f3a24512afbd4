package chroma

import "math"

// TonnetzDims is the dimensionality of the harmonic-network projection
const TonnetzDims = 6

// tonnetzBasis holds the 6x12 transformation matrix projecting pitch classes
// onto the circles of fifths, minor thirds and major thirds (sin/cos pairs)
var tonnetzBasis = buildTonnetzBasis()

func buildTonnetzBasis() [TonnetzDims][ChromaBins]float64 {
	var basis [TonnetzDims][ChromaBins]float64

	// Radii follow the conventional tonal centroid construction
	radii := [3]float64{1.0, 1.0, 0.5}
	multipliers := [3]float64{7, 3, 2} // fifths, minor thirds, major thirds

	for c := 0; c < 3; c++ {
		for p := 0; p < ChromaBins; p++ {
			angle := float64(p) * multipliers[c] * math.Pi / 6
			basis[2*c][p] = radii[c] * math.Sin(angle)
			basis[2*c+1][p] = radii[c] * math.Cos(angle)
		}
	}

	return basis
}

// Tonnetz projects each chroma frame onto the 6-dimensional tonal centroid
// space. Frames are L1-normalized before projection so the output reflects
// harmonic shape rather than loudness.
func Tonnetz(chromagram [][]float64) [][]float64 {
	tonnetz := make([][]float64, len(chromagram))

	for t, frame := range chromagram {
		tonnetz[t] = make([]float64, TonnetzDims)

		sum := 0.0
		for i := 0; i < len(frame) && i < ChromaBins; i++ {
			sum += math.Abs(frame[i])
		}
		if sum == 0 {
			continue
		}

		for d := 0; d < TonnetzDims; d++ {
			acc := 0.0
			for p := 0; p < len(frame) && p < ChromaBins; p++ {
				acc += basisAt(d, p) * frame[p] / sum
			}
			tonnetz[t][d] = acc
		}
	}

	return tonnetz
}

func basisAt(d, p int) float64 {
	return tonnetzBasis[d][p]
}
