package audio

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

// --- Constants ---

func TestConstants(t *testing.T) {
	// 48kHz * 20ms = 960 samples per channel
	if got := SampleRate * int(FrameDuration/time.Millisecond) / 1000; got != FrameSize {
		t.Errorf("FrameSize mismatch: want %d, got %d", got, FrameSize)
	}
	if FrameSamples != FrameSize*Channels {
		t.Errorf("FrameSamples = %d, want %d", FrameSamples, FrameSize*Channels)
	}
	if FrameBytes != FrameSamples*2 {
		t.Errorf("FrameBytes = %d, want %d", FrameBytes, FrameSamples*2)
	}
	if got := framesFor(FrameDuration); got != FrameSize {
		t.Errorf("framesFor(FrameDuration) = %d, want %d", got, FrameSize)
	}
}

// --- Smoothstep ---

func TestSmoothstepBoundaries(t *testing.T) {
	tests := []struct {
		input float64
		want  float64
	}{
		{-0.5, 0},
		{0, 0},
		{0.5, 0.5},
		{1, 1},
		{1.5, 1},
	}
	for _, tt := range tests {
		got := Smoothstep(tt.input)
		if got != tt.want {
			t.Errorf("Smoothstep(%v) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestSmoothstepMonotonic(t *testing.T) {
	prev := 0.0
	for i := 1; i <= 100; i++ {
		x := float64(i) / 100.0
		val := Smoothstep(x)
		if val < prev {
			t.Errorf("Smoothstep not monotonic: f(%v)=%v < f(%v)=%v", x, val, float64(i-1)/100.0, prev)
		}
		prev = val
	}
}

func TestFadeGainZeroLength(t *testing.T) {
	if got := fadeGain(0, 0); got != 1 {
		t.Errorf("fadeGain(0, 0) = %v, want 1", got)
	}
	if got := fadeGain(5, 4); got != 1 {
		t.Errorf("fadeGain past end = %v, want 1", got)
	}
}

// --- SamplesToBytes / BytesToSamples ---

func TestSamplesToBytes(t *testing.T) {
	samples := []int16{0, 1, -1, 32767, -32768, 256}
	buf := SamplesToBytes(samples)
	if len(buf) != len(samples)*2 {
		t.Fatalf("SamplesToBytes length = %d, want %d", len(buf), len(samples)*2)
	}

	// 256 = 0x0100 -> bytes [0x00, 0x01]
	idx := 5 * 2
	if buf[idx] != 0x00 || buf[idx+1] != 0x01 {
		t.Errorf("Sample 256 encoded as [%02x, %02x], want [00, 01]", buf[idx], buf[idx+1])
	}
}

func TestBytesToSamplesDropsOddByte(t *testing.T) {
	original := []int16{0, 1, -1, 32767, -32768, 12345, -6789}
	buf := append(SamplesToBytes(original), 0x7f)

	recovered := BytesToSamples(buf)
	if len(recovered) != len(original) {
		t.Fatalf("BytesToSamples length = %d, want %d", len(recovered), len(original))
	}
	for i, v := range original {
		if recovered[i] != v {
			t.Errorf("Round-trip sample[%d]: got %d, want %d", i, recovered[i], v)
		}
	}
}

// --- Engine ---

// constant returns frames stereo frames of a DC signal.
func constant(frames int, value int16) []int16 {
	pcm := make([]int16, frames*Channels)
	for i := range pcm {
		pcm[i] = value
	}
	return pcm
}

func newTestEngine(assets map[string][]int16) (*Engine, *int) {
	calls := 0
	e := NewEngine("/assets", func(path string) ([]int16, error) {
		calls++
		pcm, ok := assets[filepath.Base(path)]
		if !ok {
			return nil, errors.New("no such file")
		}
		return pcm, nil
	})
	return e, &calls
}

func TestEngineDecodesFromAssetDir(t *testing.T) {
	var got string
	e := NewEngine("/srv/clips", func(path string) ([]int16, error) {
		got = path
		return constant(1, 0), nil
	})
	if err := e.Load("car_vd3.wav"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if want := filepath.Join("/srv/clips", "car_vd3.wav"); got != want {
		t.Errorf("decode path = %q, want %q", got, want)
	}
	if NewEngine("/srv/clips", nil).decode == nil {
		t.Error("NewEngine(nil decoder) left no decoder")
	}
}

func TestEngineLoadCaches(t *testing.T) {
	e, calls := newTestEngine(map[string][]int16{"a.wav": constant(10, 1)})
	for i := 0; i < 3; i++ {
		if err := e.Load("a.wav"); err != nil {
			t.Fatalf("Load: %v", err)
		}
	}
	if *calls != 1 {
		t.Errorf("decode called %d times, want 1", *calls)
	}
	if err := e.Load("missing.wav"); err == nil {
		t.Error("Load of missing asset succeeded")
	}
}

func TestEnginePlayRequiresLoad(t *testing.T) {
	e, _ := newTestEngine(nil)
	if _, err := e.Play("a.wav", -1, 0); err == nil {
		t.Error("Play of unloaded asset succeeded")
	}
}

func TestEngineMixGain(t *testing.T) {
	e, _ := newTestEngine(map[string][]int16{"a.wav": constant(FrameSize*4, 1000)})
	e.Load("a.wav")
	v, _ := e.Play("a.wav", -1, 0)
	v.SetGain(0.5, 0.25)

	frame := e.MixFrame()
	if len(frame) != FrameSamples {
		t.Fatalf("Frame length = %d, want %d", len(frame), FrameSamples)
	}
	if frame[0] != 500 || frame[1] != 250 {
		t.Errorf("Mixed L/R = %d/%d, want 500/250", frame[0], frame[1])
	}

	v.SetGain(2, -1)
	frame = e.MixFrame()
	if frame[0] != 1000 || frame[1] != 0 {
		t.Errorf("Clamped L/R = %d/%d, want 1000/0", frame[0], frame[1])
	}
}

func TestEngineFadeIn(t *testing.T) {
	e, _ := newTestEngine(map[string][]int16{"a.wav": constant(FrameSize*4, 10000)})
	e.Load("a.wav")
	e.Play("a.wav", -1, FrameDuration)

	frame := e.MixFrame()
	if frame[0] != 0 {
		t.Errorf("First fade-in sample = %d, want 0", frame[0])
	}
	if last := frame[FrameSamples-2]; last < 9900 {
		t.Errorf("Last fade-in sample = %d, want near full scale", last)
	}
	if next := e.MixFrame(); next[0] != 10000 {
		t.Errorf("Post-fade sample = %d, want 10000", next[0])
	}
}

func TestEngineRepeats(t *testing.T) {
	// Half a frame long, one repeat: exactly one frame of sound.
	e, _ := newTestEngine(map[string][]int16{"a.wav": constant(FrameSize/2, 100)})
	e.Load("a.wav")
	v, _ := e.Play("a.wav", 1, 0)

	frame := e.MixFrame()
	if frame[FrameSamples-1] != 100 {
		t.Errorf("Second pass missing: last sample = %d, want 100", frame[FrameSamples-1])
	}
	if v.Playing() {
		t.Error("Voice still playing after its last repeat")
	}
	if e.ActiveVoices() != 0 {
		t.Errorf("ActiveVoices = %d, want 0", e.ActiveVoices())
	}
}

func TestEngineLoopsForever(t *testing.T) {
	e, _ := newTestEngine(map[string][]int16{"a.wav": constant(100, 100)})
	e.Load("a.wav")
	v, _ := e.Play("a.wav", -1, 0)
	for i := 0; i < 50; i++ {
		e.MixFrame()
	}
	if !v.Playing() {
		t.Error("Looping voice stopped on its own")
	}
}

func TestEngineStop(t *testing.T) {
	e, _ := newTestEngine(map[string][]int16{"a.wav": constant(FrameSize*10, 1000)})
	e.Load("a.wav")

	hard, _ := e.Play("a.wav", -1, 0)
	hard.Stop(0)
	if hard.Playing() {
		t.Error("Zero-fade stop left the voice playing")
	}

	soft, _ := e.Play("a.wav", -1, 0)
	soft.Stop(10 * time.Millisecond)
	if !soft.Playing() {
		t.Error("Fading voice reported silent before its fade")
	}
	frame := e.MixFrame()
	if frame[0] != 1000 {
		t.Errorf("Fade-out start = %d, want 1000", frame[0])
	}
	if tail := frame[FrameSamples-1]; tail != 0 {
		t.Errorf("Sample after fade-out = %d, want 0", tail)
	}
	if soft.Playing() {
		t.Error("Voice still playing after its fade-out")
	}
}

func TestEngineClipping(t *testing.T) {
	e, _ := newTestEngine(map[string][]int16{
		"hi.wav": constant(FrameSize, 30000),
		"lo.wav": constant(FrameSize, -30000),
	})
	e.Load("hi.wav")
	e.Load("lo.wav")
	e.Play("hi.wav", 0, 0)
	e.Play("hi.wav", 0, 0)
	frame := e.MixFrame()
	if frame[0] != 32767 {
		t.Errorf("Positive overflow = %d, want 32767", frame[0])
	}

	e.Play("lo.wav", 0, 0)
	e.Play("lo.wav", 0, 0)
	frame = e.MixFrame()
	if frame[0] != -32768 {
		t.Errorf("Negative overflow = %d, want -32768", frame[0])
	}
}

func TestEngineReadAndPublish(t *testing.T) {
	e, _ := newTestEngine(nil)
	buf := make([]byte, 1000)
	n, err := e.Read(buf)
	if n != len(buf) || err != nil {
		t.Fatalf("Read = %d, %v; want %d, nil", n, err, len(buf))
	}
	if len(e.pending) != FrameBytes-len(buf) {
		t.Errorf("pending = %d bytes, want %d", len(e.pending), FrameBytes-len(buf))
	}
	select {
	case f := <-e.Frames():
		if len(f) != FrameSamples {
			t.Errorf("Published frame length = %d, want %d", len(f), FrameSamples)
		}
	default:
		t.Error("Read did not publish the mixed frame")
	}
}

func TestEngineDropsWhenMonitorLags(t *testing.T) {
	e, _ := newTestEngine(nil)
	for i := 0; i < 250; i++ {
		e.MixFrame() // must not block
	}
	if got := len(e.frameCh); got != cap(e.frameCh) {
		t.Errorf("Buffered frames = %d, want %d", got, cap(e.frameCh))
	}
	if e.MixedFrames() != 250 {
		t.Errorf("MixedFrames = %d, want 250", e.MixedFrames())
	}
}
