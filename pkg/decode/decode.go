// Package decode loads audio files into mono float64 waveforms.
// WAV is parsed directly; MP3 goes through the pure-Go decoder. Multichannel
// input is downmixed by averaging channels.
package decode

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/RyanBlaney/track-analyzer/pkg/audio"
)

// File decodes an audio file based on its extension
func File(path string) (audio.Waveform, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return WAVFile(path)
	case ".mp3":
		return MP3File(path)
	default:
		return audio.Waveform{}, fmt.Errorf("unsupported audio format: %s", filepath.Ext(path))
	}
}
