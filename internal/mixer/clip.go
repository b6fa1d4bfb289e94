package mixer

import "time"

// Clip is one playing audio layer.
type Clip struct {
	Key      string // base name, unique in the registry
	Asset    string // resolved asset file name
	Flags    Flags
	Volume   float64
	MaxLoops int // 0 unless FlagOnce

	voice Voice

	duckUntil    time.Time
	panPhase     float64
	fadeOrigin   time.Time
	fadeDuration time.Duration
}

// ClipStatus is a read-only view of a clip for status reporting.
type ClipStatus struct {
	Key      string  `json:"key"`
	Asset    string  `json:"asset"`
	Flags    string  `json:"flags"`
	Volume   float64 `json:"volume"`
	MaxLoops int     `json:"max_loops,omitempty"`
	Ducked   bool    `json:"ducked"`
	Muted    bool    `json:"muted"`
	Pan      float64 `json:"pan"`
	FadeLeft float64 `json:"fade_remaining,omitempty"` // seconds
}

// PanPhase returns the current stereo position in [-1,1].
func (c *Clip) PanPhase() float64 {
	return c.panPhase
}

// DuckUntil returns when the current duck ends; zero when not ducked.
func (c *Clip) DuckUntil() time.Time {
	return c.duckUntil
}

// FadeDuration returns the high-pass fade length; zero without FlagHighPass.
func (c *Clip) FadeDuration() time.Duration {
	return c.fadeDuration
}

// DuckMultiplier returns the duck gain factor at now: 0.5 when freshly
// ducked, recovering linearly to 1.0 at duckUntil.
func (c *Clip) DuckMultiplier(now time.Time, duckTime time.Duration) float64 {
	if c.duckUntil.IsZero() || !now.Before(c.duckUntil) || duckTime <= 0 {
		return 1.0
	}
	remaining := c.duckUntil.Sub(now).Seconds() / duckTime.Seconds()
	if remaining > 1 {
		remaining = 1
	}
	return 0.5 + 0.5*(1-remaining)
}

// fadeFraction returns how far through the high-pass fade the clip is.
// A high-pass clip without a fade length has already finished.
func (c *Clip) fadeFraction(now time.Time) float64 {
	if !c.Flags.Has(FlagHighPass) {
		return 0
	}
	if c.fadeDuration <= 0 {
		return 1
	}
	f := now.Sub(c.fadeOrigin).Seconds() / c.fadeDuration.Seconds()
	if f < 0 {
		return 0
	}
	return f
}

// FadeMultiplier returns the high-pass fade gain factor at now.
func (c *Clip) FadeMultiplier(now time.Time) float64 {
	f := c.fadeFraction(now)
	if f >= 1 {
		return 0
	}
	return 1 - f
}

// panGains splits a gain across channels by the pan phase.
func (c *Clip) panGains(gain float64) (left, right float64) {
	if !c.Flags.Has(FlagPan) {
		return gain, gain
	}
	return gain * (1 - c.panPhase) / 2, gain * (1 + c.panPhase) / 2
}
