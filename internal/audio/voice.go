package audio

import "time"

// Voice is one playback of a Sample inside the Engine.
// All fields are guarded by the owning engine's mutex.
type Voice struct {
	e       *Engine
	sample  *Sample
	pos     int // next stereo frame
	repeats int // remaining extra passes; -1 loops forever

	left, right float64

	fadeInPos, fadeInLen   int
	stopping               bool
	fadeOutPos, fadeOutLen int
	done                   bool
}

// Playing reports whether the voice still produces sound.
func (v *Voice) Playing() bool {
	v.e.mu.Lock()
	defer v.e.mu.Unlock()
	return !v.done
}

// SetGain sets the per-channel gain, each clamped to [0,1].
func (v *Voice) SetGain(left, right float64) {
	v.e.mu.Lock()
	v.left = clampGain(left)
	v.right = clampGain(right)
	v.e.mu.Unlock()
}

// Stop fades the voice out over fadeOut and then releases it.
func (v *Voice) Stop(fadeOut time.Duration) {
	v.e.mu.Lock()
	defer v.e.mu.Unlock()
	if v.done || v.stopping {
		return
	}
	v.stopping = true
	v.fadeOutLen = framesFor(fadeOut)
	if v.fadeOutLen == 0 {
		v.done = true
	}
}

// mixInto adds the voice's next len(acc)/Channels frames to acc.
// Must be called with e.mu held.
func (v *Voice) mixInto(acc []float64) {
	n := v.sample.Frames()
	if n == 0 {
		v.done = true
		return
	}
	pcm := v.sample.PCM

	for i := 0; i < len(acc)/Channels; i++ {
		if v.done {
			return
		}

		env := fadeGain(v.fadeInPos, v.fadeInLen)
		v.fadeInPos++
		if v.stopping {
			if v.fadeOutPos >= v.fadeOutLen {
				v.done = true
				return
			}
			env *= 1 - Smoothstep(float64(v.fadeOutPos)/float64(v.fadeOutLen))
			v.fadeOutPos++
		}

		acc[i*2] += float64(pcm[v.pos*2]) * v.left * env
		acc[i*2+1] += float64(pcm[v.pos*2+1]) * v.right * env

		v.pos++
		if v.pos >= n {
			if v.repeats == 0 {
				v.done = true
				return
			}
			if v.repeats > 0 {
				v.repeats--
			}
			v.pos = 0
		}
	}
}

func clampGain(g float64) float64 {
	if g < 0 {
		return 0
	}
	if g > 1 {
		return 1
	}
	return g
}
