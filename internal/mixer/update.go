package mixer

import (
	"log"
	"time"
)

// UpdateClips advances every clip's envelopes by one frame and writes the
// composed gain to its voice. dt only drives the pan drift; ducks and fades
// run on wall-clock time.
func (m *Mixer) UpdateClips(dt time.Duration) {
	now := m.now()
	for _, key := range m.keys() {
		c, ok := m.clips[key]
		if !ok {
			continue
		}

		if (c.Flags.Has(FlagOneShot) || c.Flags.Has(FlagOnce)) && !c.voice.Playing() {
			log.Printf("Clip finished: %s", key)
			m.StopClip(key)
			continue
		}

		if !c.duckUntil.IsZero() && !now.Before(c.duckUntil) {
			c.duckUntil = time.Time{}
		}

		if c.Flags.Has(FlagHighPass) && c.fadeFraction(now) >= 1 {
			log.Printf("Clip faded out: %s", key)
			m.StopClip(key)
			continue
		}

		if c.Flags.Has(FlagPan) {
			drift := (m.rng.Float64()*2 - 1) * m.tuning.PanJitter
			c.panPhase = clampUnit(c.panPhase + drift*dt.Seconds())
		}

		m.apply(c, now)
	}
}

// StopClip fades out and unregisters the clip under base, if any.
// Stopping the solo owner unmutes the rest at their current envelope.
func (m *Mixer) StopClip(base string) {
	c, ok := m.clips[base]
	if !ok {
		return
	}
	delete(m.clips, base)
	c.voice.Stop(m.tuning.StopFade)

	if base == m.solo {
		m.solo = ""
		m.RestoreAllVolumes()
	}
}

// StopAll stops every clip and clears the solo owner.
func (m *Mixer) StopAll() {
	for _, key := range m.keys() {
		m.StopClip(key)
	}
	m.solo = ""
}

// Reset returns the mixer to its start-up state, keeping the master gain.
func (m *Mixer) Reset() {
	m.StopAll()
	log.Println("Mixer reset")
}

// RestoreAllVolumes re-applies every clip's composed gain.
func (m *Mixer) RestoreAllVolumes() {
	now := m.now()
	for _, c := range m.clips {
		m.apply(c, now)
	}
}
