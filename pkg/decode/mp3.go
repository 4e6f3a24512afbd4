package decode

import (
	"fmt"
	"io"
	"os"

	"github.com/hajimehoshi/go-mp3"

	"github.com/RyanBlaney/track-analyzer/pkg/audio"
	"github.com/RyanBlaney/track-analyzer/pkg/logging"
)

// MP3File decodes an MP3 file into a mono waveform
func MP3File(path string) (audio.Waveform, error) {
	f, err := os.Open(path)
	if err != nil {
		return audio.Waveform{}, fmt.Errorf("failed to open MP3 file: %w", err)
	}
	defer f.Close()

	return MP3(f)
}

// MP3 decodes an MP3 stream. The decoder always emits 16-bit little-endian
// stereo frames at the source sample rate; left and right are averaged.
func MP3(r io.Reader) (audio.Waveform, error) {
	decoder, err := mp3.NewDecoder(r)
	if err != nil {
		return audio.Waveform{}, fmt.Errorf("mp3 decode failed: %w", err)
	}

	var samples []float64
	buf := make([]byte, 8192)

	for {
		n, err := decoder.Read(buf)
		if n > 0 {
			for i := 0; i+3 < n; i += 4 {
				left := int16(buf[i]) | int16(buf[i+1])<<8
				right := int16(buf[i+2]) | int16(buf[i+3])<<8
				samples = append(samples, (float64(left)+float64(right))/2.0/32768.0)
			}
		}
		if err != nil {
			if err == io.EOF {
				break
			}
			return audio.Waveform{}, fmt.Errorf("mp3 read failed: %w", err)
		}
	}

	if len(samples) == 0 {
		return audio.Waveform{}, fmt.Errorf("mp3 stream contains no samples")
	}

	logging.WithFields(logging.Fields{
		"component": "mp3_decoder",
	}).Debug("Decoded MP3 stream", logging.Fields{
		"sample_rate": decoder.SampleRate(),
		"samples":     len(samples),
	})

	return audio.Waveform{Samples: samples, SampleRate: decoder.SampleRate()}, nil
}
