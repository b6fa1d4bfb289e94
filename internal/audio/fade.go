package audio

// Smoothstep returns the smoothstep interpolation for t in [0,1].
// Formula: 3t^2 - 2t^3.
func Smoothstep(t float64) float64 {
	if t <= 0 {
		return 0
	}
	if t >= 1 {
		return 1
	}
	return t * t * (3 - 2*t)
}

// fadeGain returns the envelope gain after pos of total frames of a fade-in.
// A zero-length fade is already complete.
func fadeGain(pos, total int) float64 {
	if total <= 0 || pos >= total {
		return 1
	}
	return Smoothstep(float64(pos) / float64(total))
}

// clip16 saturates a mixed sample to the int16 range.
func clip16(v float64) int16 {
	if v > 32767 {
		return 32767
	} else if v < -32768 {
		return -32768
	}
	return int16(v)
}
