package stream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"
	"time"
)

func TestNewBroadcaster(t *testing.T) {
	b := NewBroadcaster(0)
	if b.ListenerCount() != 0 {
		t.Errorf("Initial ListenerCount = %d, want 0", b.ListenerCount())
	}
	if l := b.Subscribe("mp3"); cap(l.C) != DefaultBuffer {
		t.Errorf("Default buffer = %d, want %d", cap(l.C), DefaultBuffer)
	}
}

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroadcaster(4)

	l1 := b.Subscribe("mp3")
	l2 := b.Subscribe("webrtc")
	l3 := b.Subscribe("webrtc")
	if b.ListenerCount() != 3 {
		t.Errorf("ListenerCount = %d, want 3", b.ListenerCount())
	}
	counts := b.Counts()
	if counts["mp3"] != 1 || counts["webrtc"] != 2 {
		t.Errorf("Counts = %v, want mp3:1 webrtc:2", counts)
	}

	b.Unsubscribe(l1)
	b.Unsubscribe(l1) // second call is a no-op
	b.Unsubscribe(l2)
	b.Unsubscribe(l3)
	if b.ListenerCount() != 0 {
		t.Errorf("After all unsubscribed: ListenerCount = %d, want 0", b.ListenerCount())
	}
	select {
	case <-l1.Done():
	default:
		t.Error("Listener done channel not closed after unsubscribe")
	}
}

func TestBroadcastDeliversToAll(t *testing.T) {
	b := NewBroadcaster(10)
	listeners := []*Listener{b.Subscribe("mp3"), b.Subscribe("webrtc")}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	source := make(chan []int16, 10)
	go b.Run(ctx, source)

	frame := []int16{100, -100}
	source <- frame

	for i, l := range listeners {
		select {
		case got := <-l.C:
			if !slices.Equal(got, frame) {
				t.Errorf("Listener %d got %v, want %v", i, got, frame)
			}
		case <-time.After(time.Second):
			t.Fatalf("Listener %d timed out", i)
		}
	}
	if b.Frames() != 1 {
		t.Errorf("Frames = %d, want 1", b.Frames())
	}
}

func TestBroadcastDropsSlowListener(t *testing.T) {
	b := NewBroadcaster(5)
	slow := b.Subscribe("mp3")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	source := make(chan []int16)
	go b.Run(ctx, source)

	// unbuffered source: each send returns once Run has taken the frame
	for i := 0; i < 8; i++ {
		source <- []int16{int16(i)}
	}
	deadline := time.Now().Add(time.Second)
	for slow.Dropped() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	if len(slow.C) != 5 {
		t.Errorf("Slow listener buffered %d frames, want 5", len(slow.C))
	}
	if slow.Dropped() < 2 {
		t.Errorf("Dropped = %d, want at least 2", slow.Dropped())
	}
	if first := <-slow.C; first[0] != 0 {
		t.Errorf("Oldest buffered frame = %d, want 0", first[0])
	}
}

func TestBroadcastStops(t *testing.T) {
	t.Run("context cancel", func(t *testing.T) {
		b := NewBroadcaster(0)
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			b.Run(ctx, make(chan []int16))
			close(done)
		}()
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("Broadcaster did not stop after context cancel")
		}
	})

	t.Run("source closed", func(t *testing.T) {
		b := NewBroadcaster(0)
		source := make(chan []int16)
		done := make(chan struct{})
		go func() {
			b.Run(context.Background(), source)
			close(done)
		}()
		close(source)
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("Broadcaster did not stop after source closed")
		}
	})
}

// --- Handlers ---

func TestMP3EncoderArgs(t *testing.T) {
	h := NewMP3Handler(NewBroadcaster(0), "looper monitor", 0)
	args := strings.Join(h.encoderArgs(), " ")
	for _, want := range []string{"-ar 48000", "-ac 2", "-b:a 192k", "-f mp3"} {
		if !strings.Contains(args, want) {
			t.Errorf("encoder args %q missing %q", args, want)
		}
	}
}

func TestMP3RejectsNonGet(t *testing.T) {
	h := NewMP3Handler(NewBroadcaster(0), "looper monitor", 128)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/stream", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST /stream = %d, want 405", rec.Code)
	}
}

func TestWebRTCRejectsBadRequests(t *testing.T) {
	h := NewWebRTCHandler(NewBroadcaster(0), 0)

	tests := []struct {
		method string
		body   string
		want   int
	}{
		{http.MethodGet, "", http.StatusMethodNotAllowed},
		{http.MethodPost, "not json", http.StatusBadRequest},
		{http.MethodPost, `{"type":"answer","sdp":""}`, http.StatusBadRequest},
		{http.MethodOptions, "", http.StatusOK},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(tt.method, "/offer", strings.NewReader(tt.body)))
		if rec.Code != tt.want {
			t.Errorf("%s /offer %q = %d, want %d", tt.method, tt.body, rec.Code, tt.want)
		}
	}
	if h.PeerCount() != 0 {
		t.Errorf("PeerCount = %d after rejected offers, want 0", h.PeerCount())
	}
}
