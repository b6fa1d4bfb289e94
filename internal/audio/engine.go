package audio

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/satindergrewal/looper/internal/mixer"
)

// Engine is the sound device: it caches decoded assets, plays voices and
// mixes them into 20ms PCM frames. Frames are pulled by an Output through
// Read, or paced by Run when no output device is attached.
type Engine struct {
	dir    string
	decode DecodeFunc

	frameCh chan []int16
	pending []byte // only touched by the Read caller

	mu      sync.Mutex
	samples map[string]*Sample
	voices  []*Voice
	mixed   uint64
}

// NewEngine creates an engine loading assets from dir with decode.
// A nil decode uses DecodeFile.
func NewEngine(dir string, decode DecodeFunc) *Engine {
	if decode == nil {
		decode = DecodeFile
	}
	return &Engine{
		dir:     dir,
		decode:  decode,
		frameCh: make(chan []int16, 100),
		samples: make(map[string]*Sample),
	}
}

// Frames returns the channel of mixed PCM frames (20ms each).
// Frames are dropped when the consumer falls behind.
func (e *Engine) Frames() <-chan []int16 {
	return e.frameCh
}

// Load decodes the named asset into the cache. Loading a cached asset is a no-op.
func (e *Engine) Load(name string) error {
	e.mu.Lock()
	_, ok := e.samples[name]
	e.mu.Unlock()
	if ok {
		return nil
	}

	// Decode outside the lock so the output never stalls on disk I/O.
	start := time.Now()
	pcm, err := e.decode(filepath.Join(e.dir, name))
	if err != nil {
		return err
	}
	s := &Sample{Name: name, PCM: pcm}

	e.mu.Lock()
	e.samples[name] = s
	e.mu.Unlock()

	log.Printf("Loaded %s (%.1fs, decoded in %v)", name, s.Duration().Seconds(), time.Since(start).Round(time.Millisecond))
	return nil
}

// Play starts a voice on a loaded asset. repeats is the number of extra
// passes after the first; -1 loops until stopped.
func (e *Engine) Play(name string, repeats int, fadeIn time.Duration) (mixer.Voice, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.samples[name]
	if !ok {
		return nil, fmt.Errorf("asset %s not loaded", name)
	}
	v := &Voice{
		e:         e,
		sample:    s,
		repeats:   repeats,
		left:      1,
		right:     1,
		fadeInLen: framesFor(fadeIn),
	}
	e.voices = append(e.voices, v)
	return v, nil
}

// ActiveVoices returns the number of voices still producing sound.
func (e *Engine) ActiveVoices() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.voices)
}

// MixedFrames returns how many frames the engine has produced.
func (e *Engine) MixedFrames() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mixed
}

// MixFrame mixes the next 20ms of every voice, releases finished voices and
// publishes the frame on Frames.
func (e *Engine) MixFrame() []int16 {
	acc := make([]float64, FrameSamples)

	e.mu.Lock()
	live := e.voices[:0]
	for _, v := range e.voices {
		v.mixInto(acc)
		if !v.done {
			live = append(live, v)
		}
	}
	for i := len(live); i < len(e.voices); i++ {
		e.voices[i] = nil
	}
	e.voices = live
	e.mixed++
	e.mu.Unlock()

	frame := make([]int16, FrameSamples)
	for i, s := range acc {
		frame[i] = clip16(s)
	}

	select {
	case e.frameCh <- frame:
	default:
		// monitor too slow, drop frame to keep the output moving
	}
	return frame
}

// Read fills p with mixed little-endian int16 PCM. It never blocks and never
// fails, so an Output can pull from it directly.
func (e *Engine) Read(p []byte) (int, error) {
	for len(e.pending) < len(p) {
		e.pending = append(e.pending, SamplesToBytes(e.MixFrame())...)
	}
	n := copy(p, e.pending)
	e.pending = append(e.pending[:0], e.pending[n:]...)
	return n, nil
}

// Run mixes frames at real-time rate. Used when no output device pulls
// from the engine. Blocks until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) {
	ticker := time.NewTicker(FrameDuration)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.MixFrame()
		}
	}
}
