package stream

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/pion/webrtc/v4"
	"github.com/pion/webrtc/v4/pkg/media"
	"github.com/satindergrewal/looper/internal/audio"
	"gopkg.in/hraban/opus.v2"
)

// WebRTCHandler negotiates low-latency Opus monitor sessions over SDP.
type WebRTCHandler struct {
	broadcaster *Broadcaster
	bitrate     int // bps

	mu    sync.Mutex
	peers map[*webrtc.PeerConnection]*Listener
}

// NewWebRTCHandler creates a WebRTC monitor handler.
func NewWebRTCHandler(b *Broadcaster, bitrate int) *WebRTCHandler {
	if bitrate <= 0 {
		bitrate = 128000
	}
	return &WebRTCHandler{
		broadcaster: b,
		bitrate:     bitrate,
		peers:       make(map[*webrtc.PeerConnection]*Listener),
	}
}

// PeerCount returns the number of active WebRTC peers.
func (h *WebRTCHandler) PeerCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.peers)
}

func (h *WebRTCHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}

	var offer webrtc.SessionDescription
	if err := json.NewDecoder(r.Body).Decode(&offer); err != nil || offer.Type != webrtc.SDPTypeOffer {
		http.Error(w, "invalid SDP offer", http.StatusBadRequest)
		return
	}

	pc, track, status, err := h.negotiate(r, offer)
	if err != nil {
		log.Printf("WebRTC: %v", err)
		http.Error(w, err.Error(), status)
		return
	}

	listener := h.broadcaster.Subscribe("webrtc")
	h.mu.Lock()
	h.peers[pc] = listener
	h.mu.Unlock()
	log.Printf("WebRTC monitor connected (total: %d)", h.PeerCount())

	go h.streamToPeer(listener, track)

	pc.OnConnectionStateChange(func(s webrtc.PeerConnectionState) {
		switch s {
		case webrtc.PeerConnectionStateFailed,
			webrtc.PeerConnectionStateClosed,
			webrtc.PeerConnectionStateDisconnected:
			if h.removePeer(pc) {
				pc.Close()
				log.Printf("WebRTC monitor disconnected (remaining: %d)", h.PeerCount())
			}
		}
	})

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	json.NewEncoder(w).Encode(pc.LocalDescription())
}

// negotiate builds a send-only Opus peer for offer and waits for ICE
// gathering, so the answer carries every candidate. On failure it returns
// the HTTP status to report.
func (h *WebRTCHandler) negotiate(r *http.Request, offer webrtc.SessionDescription) (*webrtc.PeerConnection, *webrtc.TrackLocalStaticSample, int, error) {
	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{})
	if err != nil {
		return nil, nil, http.StatusInternalServerError, fmt.Errorf("create peer connection: %w", err)
	}
	fail := func(status int, err error) (*webrtc.PeerConnection, *webrtc.TrackLocalStaticSample, int, error) {
		pc.Close()
		return nil, nil, status, err
	}

	track, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus, ClockRate: audio.SampleRate, Channels: audio.Channels},
		"audio",
		"looper-monitor",
	)
	if err != nil {
		return fail(http.StatusInternalServerError, fmt.Errorf("create audio track: %w", err))
	}
	if _, err := pc.AddTrack(track); err != nil {
		return fail(http.StatusInternalServerError, fmt.Errorf("add track: %w", err))
	}
	if err := pc.SetRemoteDescription(offer); err != nil {
		return fail(http.StatusBadRequest, fmt.Errorf("set remote description: %w", err))
	}
	answer, err := pc.CreateAnswer(nil)
	if err != nil {
		return fail(http.StatusInternalServerError, fmt.Errorf("create answer: %w", err))
	}
	gathered := webrtc.GatheringCompletePromise(pc)
	if err := pc.SetLocalDescription(answer); err != nil {
		return fail(http.StatusInternalServerError, fmt.Errorf("set local description: %w", err))
	}

	select {
	case <-gathered:
		return pc, track, http.StatusOK, nil
	case <-r.Context().Done():
		return fail(http.StatusRequestTimeout, r.Context().Err())
	}
}

func (h *WebRTCHandler) streamToPeer(listener *Listener, track *webrtc.TrackLocalStaticSample) {
	enc, err := opus.NewEncoder(audio.SampleRate, audio.Channels, opus.AppAudio)
	if err != nil {
		log.Printf("WebRTC: opus encoder error: %v", err)
		return
	}
	enc.SetBitrate(h.bitrate)

	opusBuf := make([]byte, 4000)
	for {
		select {
		case <-listener.Done():
			return
		case frame := <-listener.C:
			n, err := enc.Encode(frame, opusBuf)
			if err != nil {
				log.Printf("WebRTC: opus encode error: %v", err)
				continue
			}
			if err := track.WriteSample(media.Sample{
				Data:     opusBuf[:n],
				Duration: audio.FrameDuration,
			}); err != nil {
				return
			}
		}
	}
}

// removePeer forgets pc and stops its listener. Reports whether pc was known.
func (h *WebRTCHandler) removePeer(pc *webrtc.PeerConnection) bool {
	h.mu.Lock()
	listener, ok := h.peers[pc]
	delete(h.peers, pc)
	h.mu.Unlock()
	if ok {
		h.broadcaster.Unsubscribe(listener)
	}
	return ok
}

// Close hangs up every peer.
func (h *WebRTCHandler) Close() {
	h.mu.Lock()
	peers := make([]*webrtc.PeerConnection, 0, len(h.peers))
	for pc := range h.peers {
		peers = append(peers, pc)
	}
	h.mu.Unlock()
	for _, pc := range peers {
		h.removePeer(pc)
		pc.Close()
	}
}
