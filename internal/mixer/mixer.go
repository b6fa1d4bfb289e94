package mixer

import (
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"sort"
	"time"
)

// ErrMissingAsset is returned by StartClip when no audio asset matches the video base.
var ErrMissingAsset = errors.New("missing audio asset")

// Voice is a playback handle owned by exactly one Clip.
type Voice interface {
	Playing() bool
	SetGain(left, right float64)
	Stop(fadeOut time.Duration)
}

// Device is the sound device the mixer drives.
type Device interface {
	Load(name string) error
	Play(name string, repeats int, fadeIn time.Duration) (Voice, error)
}

// Tuning holds the timing and probability constants of the envelopes.
type Tuning struct {
	DuckTime        time.Duration
	HighPassFadeMin time.Duration
	HighPassFadeMax time.Duration
	PlayFade        time.Duration
	StopFade        time.Duration
	PanJitter       float64 // max pan drift per second
	CullProbability float64 // chance a new variable clip replaces an old one
	MaxLoops        int
}

// DefaultTuning returns the installation's stock envelope constants.
func DefaultTuning() Tuning {
	return Tuning{
		DuckTime:        10 * time.Second,
		HighPassFadeMin: 30 * time.Second,
		HighPassFadeMax: 120 * time.Second,
		PlayFade:        200 * time.Millisecond,
		StopFade:        300 * time.Millisecond,
		PanJitter:       1.2,
		CullProbability: 0.6,
		MaxLoops:        10,
	}
}

// Config holds mixer construction parameters. A zero Tuning takes
// DefaultTuning. Otherwise a zero DuckTime, HighPassFadeMin or MaxLoops takes
// its default and a HighPassFadeMax below the minimum is raised to it; zero
// fades, jitter and cull probability are used as given.
type Config struct {
	Tuning     Tuning
	MasterGain float64 // 0 means full gain; silence with SetMasterGain(0)
	Rand       *rand.Rand
	Clock      func() time.Time
}

func withDefaults(t Tuning) Tuning {
	def := DefaultTuning()
	if t == (Tuning{}) {
		return def
	}
	if t.DuckTime <= 0 {
		t.DuckTime = def.DuckTime
	}
	if t.HighPassFadeMin <= 0 {
		t.HighPassFadeMin = def.HighPassFadeMin
	}
	if t.HighPassFadeMax < t.HighPassFadeMin {
		t.HighPassFadeMax = t.HighPassFadeMin
	}
	if t.MaxLoops < 1 {
		t.MaxLoops = def.MaxLoops
	}
	return t
}

// Mixer is the clip registry: active clips by base, the solo owner and master gain.
// It is not safe for concurrent use; the frame loop owns it.
type Mixer struct {
	device Device
	tuning Tuning
	rng    *rand.Rand
	now    func() time.Time

	clips  map[string]*Clip
	solo   string
	master float64
}

// New creates a mixer driving device.
func New(device Device, cfg Config) *Mixer {
	cfg.Tuning = withDefaults(cfg.Tuning)
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.MasterGain == 0 {
		cfg.MasterGain = 1.0
	}
	return &Mixer{
		device: device,
		tuning: cfg.Tuning,
		rng:    cfg.Rand,
		now:    cfg.Clock,
		clips:  make(map[string]*Clip),
		master: clamp01(cfg.MasterGain),
	}
}

// StartClip resolves, starts and registers the audio layer for videoBase,
// applying every flag's side effects on the other clips.
func (m *Mixer) StartClip(videoBase string, assets []string) (*Clip, error) {
	now := m.now()

	// A different video takes the screen: the previous solo ends with it.
	if m.solo != "" && m.solo != videoBase {
		if _, ok := m.clips[m.solo]; ok {
			m.StopClip(m.solo)
		}
	}

	asset, ok := ResolveAudioName(videoBase, assets, m.rng)
	if !ok {
		return nil, fmt.Errorf("%w for %s", ErrMissingAsset, videoBase)
	}

	sfx := ParseSuffix(Stem(asset))
	if _, ok := m.clips[sfx.Base]; ok {
		m.StopClip(sfx.Base)
	}

	clip := &Clip{
		Key:    sfx.Base,
		Asset:  asset,
		Flags:  sfx.Flags,
		Volume: sfx.Volume,
	}
	if clip.Flags.Has(FlagOnce) {
		clip.MaxLoops = m.rng.IntN(m.tuning.MaxLoops) + 1
	}
	if clip.Flags.Has(FlagHighPass) {
		clip.fadeOrigin = now
		clip.fadeDuration = m.fadeDuration()
	}

	repeats := -1
	switch {
	case clip.Flags.Has(FlagOneShot):
		repeats = 0
	case clip.Flags.Has(FlagOnce):
		repeats = clip.MaxLoops - 1
	}

	if err := m.device.Load(asset); err != nil {
		return nil, fmt.Errorf("load %s: %w", asset, err)
	}
	voice, err := m.device.Play(asset, repeats, m.tuning.PlayFade)
	if err != nil {
		return nil, fmt.Errorf("play %s: %w", asset, err)
	}
	gain := clip.Volume * m.master
	voice.SetGain(gain, gain)
	clip.voice = voice
	m.clips[clip.Key] = clip

	log.Printf("Clip started: %s (asset: %s, flags: %q, volume: %.1f)", clip.Key, asset, clip.Flags, clip.Volume)

	if clip.Flags.Has(FlagVariable) {
		m.cullVariable(clip)
	}

	if clip.Flags.Has(FlagDuck) {
		until := now.Add(m.tuning.DuckTime)
		for _, c := range m.clips {
			if c == clip {
				continue
			}
			c.duckUntil = until
			m.apply(c, now)
		}
	}

	if clip.Flags.Has(FlagSolo) {
		m.solo = clip.Key
		for _, c := range m.clips {
			m.apply(c, now)
		}
	} else {
		m.apply(clip, now)
	}

	return clip, nil
}

// cullVariable probabilistically stops one other variable clip.
func (m *Mixer) cullVariable(clip *Clip) {
	var others []string
	for key, c := range m.clips {
		if c != clip && c.Flags.Has(FlagVariable) {
			others = append(others, key)
		}
	}
	if len(others) == 0 || m.rng.Float64() >= m.tuning.CullProbability {
		return
	}
	sort.Strings(others)
	victim := others[m.rng.IntN(len(others))]
	log.Printf("Variable clip %s replaces %s", clip.Key, victim)
	m.StopClip(victim)
}

func (m *Mixer) fadeDuration() time.Duration {
	lo, hi := m.tuning.HighPassFadeMin, m.tuning.HighPassFadeMax
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(m.rng.Float64()*float64(hi-lo))
}

// Gain returns the composed stereo gain of clip at now.
func (m *Mixer) Gain(c *Clip, now time.Time) (left, right float64) {
	g := c.Volume * c.DuckMultiplier(now, m.tuning.DuckTime) * c.FadeMultiplier(now) * m.master
	if m.muted(c) {
		g = 0
	}
	return c.panGains(g)
}

func (m *Mixer) muted(c *Clip) bool {
	return m.solo != "" && m.solo != c.Key
}

func (m *Mixer) apply(c *Clip, now time.Time) {
	l, r := m.Gain(c, now)
	c.voice.SetGain(l, r)
}

// Clip returns the active clip registered under base.
func (m *Mixer) Clip(base string) (*Clip, bool) {
	c, ok := m.clips[base]
	return c, ok
}

// Len returns the number of active clips.
func (m *Mixer) Len() int {
	return len(m.clips)
}

// SoloOwner returns the base of the current solo clip, or "".
func (m *Mixer) SoloOwner() string {
	return m.solo
}

// MasterGain returns the global gain.
func (m *Mixer) MasterGain() float64 {
	return m.master
}

// SetMasterGain sets the global gain, clamped to [0,1], and re-applies every clip.
func (m *Mixer) SetMasterGain(g float64) {
	m.master = clamp01(g)
	m.RestoreAllVolumes()
}

// Snapshot returns the status of every active clip, sorted by key.
func (m *Mixer) Snapshot() []ClipStatus {
	now := m.now()
	out := make([]ClipStatus, 0, len(m.clips))
	for _, key := range m.keys() {
		c := m.clips[key]
		st := ClipStatus{
			Key:      c.Key,
			Asset:    c.Asset,
			Flags:    c.Flags.String(),
			Volume:   c.Volume,
			MaxLoops: c.MaxLoops,
			Ducked:   c.DuckMultiplier(now, m.tuning.DuckTime) < 1,
			Muted:    m.muted(c),
			Pan:      c.panPhase,
		}
		if c.Flags.Has(FlagHighPass) {
			st.FadeLeft = (c.fadeDuration - now.Sub(c.fadeOrigin)).Seconds()
		}
		out = append(out, st)
	}
	return out
}

func (m *Mixer) keys() []string {
	keys := make([]string, 0, len(m.clips))
	for k := range m.clips {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clampUnit(v float64) float64 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}
