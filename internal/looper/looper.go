package looper

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/satindergrewal/looper/internal/mixer"
)

// ErrNoClips is returned by Run when the library lists no playable clip.
var ErrNoClips = errors.New("no clips with audio")

// Mode is the installation's playback mode.
type Mode int

const (
	// ModeRandom starts a random clip every dwell period.
	ModeRandom Mode = iota
	// ModeUser steps through the clips on each Next.
	ModeUser
)

func (m Mode) String() string {
	if m == ModeUser {
		return "user"
	}
	return "random"
}

// Command is a remote or keyboard press.
type Command int

const (
	Next Command = iota
	Quit
)

// Library lists the clips and audio assets available to the loop.
type Library interface {
	Audio() []string
	Clips() []string
}

// Config holds installation loop parameters.
type Config struct {
	FPS      int
	DwellMin time.Duration
	DwellMax time.Duration
	Rand     *rand.Rand       // nil uses the global source
	Clock    func() time.Time // nil uses time.Now
}

// Status is a point-in-time view of the installation.
type Status struct {
	Mode           string             `json:"mode"`
	Current        string             `json:"current"`
	DwellRemaining float64            `json:"dwell_remaining"` // seconds, random mode only
	SoloOwner      string             `json:"solo_owner,omitempty"`
	MasterGain     float64            `json:"master_gain"`
	Frames         uint64             `json:"frames"`
	Clips          []mixer.ClipStatus `json:"clips"`
}

// Looper drives a mixer the way the installation's player does: a frame loop
// that advances envelopes, plus clip changes from the dwell timer or commands.
// The mixer is only touched from the Run goroutine.
type Looper struct {
	mixer *mixer.Mixer
	lib   Library
	cfg   Config
	rng   *rand.Rand
	now   func() time.Time

	cmdCh chan Command

	// owned by the Run goroutine
	mode    Mode
	index   int
	clipEnd time.Time
	frames  uint64

	mu     sync.RWMutex
	status Status
}

// New creates a looper in random mode.
func New(m *mixer.Mixer, lib Library, cfg Config) *Looper {
	if cfg.FPS <= 0 {
		cfg.FPS = 24
	}
	if cfg.DwellMax < cfg.DwellMin {
		cfg.DwellMax = cfg.DwellMin
	}
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	now := cfg.Clock
	if now == nil {
		now = time.Now
	}
	l := &Looper{
		mixer: m,
		lib:   lib,
		cfg:   cfg,
		rng:   rng,
		now:   now,
		cmdCh: make(chan Command, 1),
	}
	l.publish(now())
	return l
}

// Send queues a command for the loop. Drops it if one is already pending.
func (l *Looper) Send(cmd Command) {
	select {
	case l.cmdCh <- cmd:
	default:
	}
}

// Status returns the state as of the last frame.
func (l *Looper) Status() Status {
	l.mu.RLock()
	defer l.mu.RUnlock()
	s := l.status
	s.Clips = append([]mixer.ClipStatus(nil), l.status.Clips...)
	return s
}

// Run starts the frame loop. Blocks until ctx is cancelled or the sound
// device fails. All clips are stopped on return.
func (l *Looper) Run(ctx context.Context) error {
	if len(l.lib.Clips()) == 0 {
		return ErrNoClips
	}
	defer l.mixer.Reset()

	interval := time.Second / time.Duration(l.cfg.FPS)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Printf("Looper started at %d fps in %s mode", l.cfg.FPS, l.mode)

	last := l.now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case cmd := <-l.cmdCh:
			if err := l.handle(cmd); err != nil {
				return err
			}
		case <-ticker.C:
			now := l.now()
			dt := now.Sub(last)
			last = now
			if err := l.tick(now, dt); err != nil {
				return err
			}
		}
	}
}

// tick runs one frame: envelopes first, then the random-mode dwell timer.
func (l *Looper) tick(now time.Time, dt time.Duration) error {
	l.frames++
	l.mixer.UpdateClips(dt)
	if l.mode == ModeRandom && !now.Before(l.clipEnd) {
		if err := l.startRandom(now); err != nil {
			return err
		}
	}
	l.publish(now)
	return nil
}

func (l *Looper) handle(cmd Command) error {
	now := l.now()
	defer l.publish(now)

	switch cmd {
	case Next:
		clips := l.lib.Clips()
		if len(clips) == 0 {
			log.Printf("Next ignored: no clips")
			return nil
		}
		if l.mode == ModeRandom {
			l.mixer.Reset()
			l.mode = ModeUser
			l.index = 0
			log.Printf("Switched to user mode")
		} else {
			l.index = (l.index + 1) % len(clips)
		}
		if l.index >= len(clips) {
			l.index = 0
		}
		return l.play(clips[l.index])
	case Quit:
		if l.mode != ModeUser {
			return nil
		}
		l.mixer.Reset()
		l.mode = ModeRandom
		l.clipEnd = time.Time{}
		l.mu.Lock()
		l.status.Current = ""
		l.mu.Unlock()
		log.Printf("Switched to random mode")
	}
	return nil
}

func (l *Looper) startRandom(now time.Time) error {
	l.clipEnd = now.Add(l.dwell())
	clips := l.lib.Clips()
	if len(clips) == 0 {
		log.Printf("No clips to play, waiting for assets")
		return nil
	}
	return l.play(clips[l.rng.IntN(len(clips))])
}

// play starts base's audio. A missing asset is logged and skipped; any other
// failure means the sound device is gone.
func (l *Looper) play(base string) error {
	_, err := l.mixer.StartClip(base, l.lib.Audio())
	if errors.Is(err, mixer.ErrMissingAsset) {
		log.Printf("Skipping %s: %v", base, err)
		return nil
	}
	if err != nil {
		return fmt.Errorf("looper: start %s: %w", base, err)
	}
	l.mu.Lock()
	l.status.Current = base
	l.mu.Unlock()
	return nil
}

// dwell draws a random-mode clip length in [DwellMin, DwellMax].
func (l *Looper) dwell() time.Duration {
	spread := l.cfg.DwellMax - l.cfg.DwellMin
	if spread <= 0 {
		return l.cfg.DwellMin
	}
	return l.cfg.DwellMin + time.Duration(l.rng.Int64N(int64(spread)+1))
}

func (l *Looper) publish(now time.Time) {
	remaining := 0.0
	if l.mode == ModeRandom && !l.clipEnd.IsZero() {
		remaining = max(l.clipEnd.Sub(now).Seconds(), 0)
	}
	clips := l.mixer.Snapshot()

	l.mu.Lock()
	l.status.Mode = l.mode.String()
	l.status.DwellRemaining = remaining
	l.status.SoloOwner = l.mixer.SoloOwner()
	l.status.MasterGain = l.mixer.MasterGain()
	l.status.Frames = l.frames
	l.status.Clips = clips
	l.mu.Unlock()
}
