package audio

import "time"

const (
	SampleRate    = 48000
	Channels      = 2
	BitDepth      = 16
	FrameDuration = 20 * time.Millisecond
	FrameSize     = 960                  // samples per channel per 20ms frame
	FrameSamples  = FrameSize * Channels // total interleaved samples per frame
	FrameBytes    = FrameSamples * 2     // bytes per frame (int16 = 2 bytes)
)

// Sample is a decoded audio asset: interleaved stereo int16 at SampleRate.
type Sample struct {
	Name string
	PCM  []int16
}

// Frames returns the length of the sample in stereo frames.
func (s *Sample) Frames() int {
	return len(s.PCM) / Channels
}

// Duration returns the playing time of one pass through the sample.
func (s *Sample) Duration() time.Duration {
	return time.Duration(s.Frames()) * time.Second / SampleRate
}

// framesFor converts a duration to a whole number of stereo frames.
func framesFor(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(d.Seconds() * SampleRate)
}
