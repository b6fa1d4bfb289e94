package stream

import (
	"context"
	"sync"
	"sync/atomic"
)

// DefaultBuffer is a listener's frame backlog: ~3 seconds at 20ms/frame.
const DefaultBuffer = 150

// Broadcaster fans the mixed output out to monitor listeners.
type Broadcaster struct {
	buffer int

	mu        sync.RWMutex
	listeners map[*Listener]struct{}

	frames atomic.Uint64
}

// Listener receives PCM frames from the broadcaster.
type Listener struct {
	Kind string       // "mp3", "webrtc"
	C    chan []int16 // buffered channel of 20ms PCM frames

	done    chan struct{}
	dropped atomic.Uint64
}

// Done is closed when the listener is unsubscribed.
func (l *Listener) Done() <-chan struct{} {
	return l.done
}

// Dropped returns how many frames were skipped because the listener lagged.
func (l *Listener) Dropped() uint64 {
	return l.dropped.Load()
}

// NewBroadcaster creates a broadcaster whose listeners buffer up to buffer
// frames. buffer <= 0 uses DefaultBuffer.
func NewBroadcaster(buffer int) *Broadcaster {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Broadcaster{
		buffer:    buffer,
		listeners: make(map[*Listener]struct{}),
	}
}

// Subscribe registers a new listener of the given kind.
func (b *Broadcaster) Subscribe(kind string) *Listener {
	l := &Listener{
		Kind: kind,
		C:    make(chan []int16, b.buffer),
		done: make(chan struct{}),
	}
	b.mu.Lock()
	b.listeners[l] = struct{}{}
	b.mu.Unlock()
	return l
}

// Unsubscribe removes a listener and signals it to stop.
func (b *Broadcaster) Unsubscribe(l *Listener) {
	b.mu.Lock()
	_, ok := b.listeners[l]
	delete(b.listeners, l)
	b.mu.Unlock()
	if ok {
		close(l.done)
	}
}

// ListenerCount returns the number of active listeners.
func (b *Broadcaster) ListenerCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners)
}

// Counts returns the active listeners by kind.
func (b *Broadcaster) Counts() map[string]int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[string]int)
	for l := range b.listeners {
		out[l.Kind]++
	}
	return out
}

// Frames returns how many frames have been broadcast.
func (b *Broadcaster) Frames() uint64 {
	return b.frames.Load()
}

// Run reads frames from source and fans out to all listeners.
// Slow listeners get frames dropped rather than blocking the broadcast.
func (b *Broadcaster) Run(ctx context.Context, source <-chan []int16) {
	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-source:
			if !ok {
				return
			}
			b.frames.Add(1)
			b.mu.RLock()
			for l := range b.listeners {
				select {
				case l.C <- frame:
				default:
					l.dropped.Add(1)
				}
			}
			b.mu.RUnlock()
		}
	}
}
