package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand/v2"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/satindergrewal/looper/internal/assets"
	"github.com/satindergrewal/looper/internal/audio"
	"github.com/satindergrewal/looper/internal/config"
	"github.com/satindergrewal/looper/internal/looper"
	"github.com/satindergrewal/looper/internal/mixer"
	"github.com/satindergrewal/looper/internal/speaker"
	"github.com/satindergrewal/looper/internal/stream"
)

func main() {
	cfg := config.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Println("looper starting up...")

	tuning, err := config.LoadTuning(cfg.TuningFile, mixer.DefaultTuning())
	if err != nil {
		log.Fatalf("Tuning: %v", err)
	}

	// Assets
	lib, err := assets.Open(cfg.AssetDir, cfg.AudioExt, cfg.VideoExt)
	if err != nil {
		log.Fatalf("Assets: %v", err)
	}
	log.Printf("Assets in %s: %d audio, %d clips", lib.Dir(), len(lib.Audio()), len(lib.Clips()))
	go func() {
		if err := lib.Watch(ctx); err != nil {
			log.Printf("Asset watch stopped: %v", err)
		}
	}()

	// Sound device
	engine := audio.NewEngine(cfg.AssetDir, speaker.DecodeAsset)
	switch cfg.Output {
	case "none":
		log.Println("Audio output disabled, mixing headless")
		go engine.Run(ctx)
	default:
		out, err := speaker.Open(engine)
		if err != nil {
			log.Fatalf("Audio output: %v", err)
		}
		defer out.Close()
	}

	// Mixer and installation loop share one seeded source when LOOPER_SEED is set.
	var rng *rand.Rand
	if cfg.Seed != 0 {
		rng = rand.New(rand.NewPCG(cfg.Seed, cfg.Seed))
		log.Printf("Random seed: %d", cfg.Seed)
	}
	mix := mixer.New(engine, mixer.Config{
		Tuning:     tuning,
		MasterGain: cfg.MasterGain,
		Rand:       rng,
	})
	loop := looper.New(mix, lib, looper.Config{
		FPS:      cfg.FPS,
		DwellMin: cfg.DwellMin,
		DwellMax: cfg.DwellMax,
		Rand:     rng,
	})

	// Monitor: fan-out PCM frames to all listeners
	broadcaster := stream.NewBroadcaster(stream.DefaultBuffer)
	go broadcaster.Run(ctx, engine.Frames())
	webrtcHandler := stream.NewWebRTCHandler(broadcaster, 0)
	defer webrtcHandler.Close()

	keyboard := NewKeyboard(loop.Send, cancel)
	keyboard.Start()
	defer keyboard.Stop()

	if cfg.MonitorPort != 0 {
		mux := http.NewServeMux()
		mux.Handle("/stream", stream.NewMP3Handler(broadcaster, "looper monitor", 192))
		mux.Handle("/offer", webrtcHandler)
		mux.HandleFunc("/api/status", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Access-Control-Allow-Origin", "*")
			json.NewEncoder(w).Encode(map[string]any{
				"looper":       loop.Status(),
				"voices":       engine.ActiveVoices(),
				"mixed_frames": engine.MixedFrames(),
				"listeners":    broadcaster.Counts(),
				"webrtc_peers": webrtcHandler.PeerCount(),
				"assets":       len(lib.Audio()),
				"clips":        len(lib.Clips()),
			})
		})

		addr := fmt.Sprintf(":%d", cfg.MonitorPort)
		server := &http.Server{Addr: addr, Handler: mux}
		go func() {
			<-ctx.Done()
			server.Close()
		}()
		go func() {
			log.Printf("Monitor live on %s", addr)
			if err := server.ListenAndServe(); err != http.ErrServerClosed {
				log.Printf("Monitor server error: %v", err)
			}
		}()
	}

	if err := loop.Run(ctx); err != nil {
		keyboard.Stop()
		log.Fatalf("Looper: %v", err)
	}
	log.Println("Shutting down...")
}
