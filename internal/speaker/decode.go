package speaker

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hajimehoshi/ebiten/v2/audio/wav"

	"github.com/satindergrewal/looper/internal/audio"
)

// DecodeAsset decodes an audio file to interleaved stereo int16 at audio.SampleRate.
// WAV files are decoded in-process; anything else goes through FFmpeg.
func DecodeAsset(path string) ([]int16, error) {
	if strings.EqualFold(filepath.Ext(path), ".wav") {
		return DecodeWAV(path)
	}
	return audio.DecodeFile(path)
}

// DecodeWAV decodes a WAV file, resampling to audio.SampleRate.
func DecodeWAV(path string) ([]int16, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	stream, err := wav.DecodeWithSampleRate(audio.SampleRate, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("wav decode %s: %w", path, err)
	}
	out, err := io.ReadAll(stream)
	if err != nil {
		return nil, fmt.Errorf("wav read %s: %w", path, err)
	}
	return audio.BytesToSamples(out), nil
}
