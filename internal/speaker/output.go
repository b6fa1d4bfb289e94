// Package speaker holds the cgo-backed device side of playback: the oto
// output and in-process WAV decoding through ebiten.
package speaker

import (
	"fmt"
	"io"

	"github.com/ebitengine/oto/v3"

	"github.com/satindergrewal/looper/internal/audio"
)

// Output plays PCM pulled from a reader on the system audio device.
type Output struct {
	ctx    *oto.Context
	player *oto.Player
}

// Open opens the audio device at audio.SampleRate/Channels and starts
// pulling 16-bit PCM from src.
func Open(src io.Reader) (*Output, error) {
	op := &oto.NewContextOptions{
		SampleRate:   audio.SampleRate,
		ChannelCount: audio.Channels,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   5 * audio.FrameDuration,
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("open audio device: %w", err)
	}
	<-ready

	player := ctx.NewPlayer(src)
	player.Play()
	return &Output{ctx: ctx, player: player}, nil
}

// Close stops playback.
func (o *Output) Close() error {
	return o.player.Close()
}
