package decode

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/RyanBlaney/track-analyzer/pkg/audio"
	"github.com/RyanBlaney/track-analyzer/pkg/logging"
)

const (
	wavFormatPCM   = 1
	wavFormatFloat = 3
)

type wavFormat struct {
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
}

// WAVFile reads a RIFF/WAVE file into a mono waveform. PCM 16-bit, PCM
// 32-bit and IEEE float 32-bit sample formats are supported; chunks other
// than fmt and data are skipped.
func WAVFile(path string) (audio.Waveform, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return audio.Waveform{}, fmt.Errorf("failed to read WAV file: %w", err)
	}

	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return audio.Waveform{}, fmt.Errorf("not a RIFF/WAVE file: %s", path)
	}

	var format wavFormat
	var pcm []byte
	haveFormat := false

	// Walk the chunk list; chunk sizes are padded to even byte counts
	offset := 12
	for offset+8 <= len(data) {
		chunkID := string(data[offset : offset+4])
		chunkSize := int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		body := offset + 8
		if body+chunkSize > len(data) {
			chunkSize = len(data) - body
		}

		switch chunkID {
		case "fmt ":
			if err := binary.Read(bytes.NewReader(data[body:body+chunkSize]), binary.LittleEndian, &format); err != nil && err != io.ErrUnexpectedEOF {
				return audio.Waveform{}, fmt.Errorf("malformed fmt chunk: %w", err)
			}
			haveFormat = true
		case "data":
			pcm = data[body : body+chunkSize]
		}

		offset = body + chunkSize
		if chunkSize%2 == 1 {
			offset++
		}
	}

	if !haveFormat {
		return audio.Waveform{}, fmt.Errorf("WAV file missing fmt chunk: %s", path)
	}
	if pcm == nil {
		return audio.Waveform{}, fmt.Errorf("WAV file missing data chunk: %s", path)
	}
	if format.NumChannels == 0 || format.SampleRate == 0 {
		return audio.Waveform{}, fmt.Errorf("invalid WAV format: %d channels at %d Hz", format.NumChannels, format.SampleRate)
	}

	samples, err := decodePCM(pcm, format)
	if err != nil {
		return audio.Waveform{}, err
	}

	logging.WithFields(logging.Fields{
		"component": "wav_decoder",
	}).Debug("Decoded WAV file", logging.Fields{
		"path":        path,
		"sample_rate": format.SampleRate,
		"channels":    format.NumChannels,
		"samples":     len(samples),
	})

	return audio.Waveform{Samples: samples, SampleRate: int(format.SampleRate)}, nil
}

// decodePCM converts interleaved sample bytes to mono float64 in [-1, 1]
func decodePCM(pcm []byte, format wavFormat) ([]float64, error) {
	channels := int(format.NumChannels)
	bytesPerSample := int(format.BitsPerSample) / 8
	if bytesPerSample == 0 {
		return nil, fmt.Errorf("invalid bits per sample: %d", format.BitsPerSample)
	}

	frameSize := bytesPerSample * channels
	numFrames := len(pcm) / frameSize
	samples := make([]float64, numFrames)

	for frame := 0; frame < numFrames; frame++ {
		sum := 0.0
		for ch := 0; ch < channels; ch++ {
			idx := frame*frameSize + ch*bytesPerSample

			var value float64
			switch {
			case format.AudioFormat == wavFormatPCM && format.BitsPerSample == 16:
				value = float64(int16(binary.LittleEndian.Uint16(pcm[idx:]))) / 32768.0
			case format.AudioFormat == wavFormatPCM && format.BitsPerSample == 32:
				value = float64(int32(binary.LittleEndian.Uint32(pcm[idx:]))) / 2147483648.0
			case format.AudioFormat == wavFormatFloat && format.BitsPerSample == 32:
				value = float64(math.Float32frombits(binary.LittleEndian.Uint32(pcm[idx:])))
			default:
				return nil, fmt.Errorf("unsupported WAV encoding: format %d, %d bits", format.AudioFormat, format.BitsPerSample)
			}

			sum += value
		}
		samples[frame] = sum / float64(channels)
	}

	return samples, nil
}
