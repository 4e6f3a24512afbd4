package fingerprint

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"math"

	"github.com/RyanBlaney/track-analyzer/pkg/logging"
)

// EncodedLength is the length of every generated fingerprint string:
// a 32-byte SHA-256 digest in standard base64.
const EncodedLength = 44

// quantizationScale fixes the precision of the summarized chroma values to
// three decimal places, absorbing small floating-point noise before hashing
const quantizationScale = 1000

// Generator hashes summarized chroma content into a fixed-length printable
// fingerprint.
//
// Guarantees: bit-identical waveforms always produce identical fingerprints;
// the digest depends only on pitch-class content, so it is invariant to
// absolute timing in the weak sense (time pooling strips tempo structure)
// but NOT invariant under key transposition, and near-identical recordings
// at different tempos converge toward similar, not necessarily identical,
// fingerprints.
type Generator struct {
	logger logging.Logger
}

// NewGenerator creates a fingerprint generator
func NewGenerator() *Generator {
	return &Generator{
		logger: logging.WithFields(logging.Fields{
			"component": "fingerprint_generator",
		}),
	}
}

// Generate summarizes a chromagram across time (per-bin mean and standard
// deviation), quantizes the summary to fixed precision, serializes it with a
// fixed byte order and hashes it with SHA-256. The result is base64 encoded.
func (g *Generator) Generate(chromagram [][]float64) string {
	summary := summarize(chromagram)

	payload := make([]byte, 0, len(summary)*8)
	var buf [8]byte
	for _, v := range summary {
		quantized := int64(math.Round(v * quantizationScale))
		binary.BigEndian.PutUint64(buf[:], uint64(quantized))
		payload = append(payload, buf[:]...)
	}

	digest := sha256.Sum256(payload)
	encoded := base64.StdEncoding.EncodeToString(digest[:])

	g.logger.Debug("Fingerprint generated", logging.Fields{
		"frames": len(chromagram),
	})

	return encoded
}

// summarize pools the chromagram over time into 24 values: the mean and
// standard deviation of each pitch-class bin
func summarize(chromagram [][]float64) []float64 {
	const bins = 12
	summary := make([]float64, 2*bins)
	if len(chromagram) == 0 {
		return summary
	}

	n := float64(len(chromagram))
	for _, frame := range chromagram {
		for i := 0; i < len(frame) && i < bins; i++ {
			summary[i] += frame[i]
		}
	}
	for i := 0; i < bins; i++ {
		summary[i] /= n
	}

	for _, frame := range chromagram {
		for i := 0; i < len(frame) && i < bins; i++ {
			diff := frame[i] - summary[i]
			summary[bins+i] += diff * diff
		}
	}
	for i := 0; i < bins; i++ {
		summary[bins+i] = math.Sqrt(summary[bins+i] / n)
	}

	return summary
}
