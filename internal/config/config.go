package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/satindergrewal/looper/internal/mixer"
)

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

// Config holds all runtime configuration, loaded from environment variables.
type Config struct {
	// Assets
	AssetDir string
	AudioExt string // audio asset extension, e.g. ".wav"
	VideoExt string // video extension used to list clips

	// Installation loop
	FPS      int
	DwellMin time.Duration // random-mode clip length bounds
	DwellMax time.Duration
	Seed     uint64 // 0 picks a random seed

	// Audio
	MasterGain float64
	Output     string // "oto" plays on the sound card, "none" runs headless
	TuningFile string // optional YAML overlay on the mixer tuning

	// Monitor server (0 disables)
	MonitorPort int
}

// Load reads configuration from environment variables with sane defaults.
func Load() Config {
	return Config{
		AssetDir: envStr("LOOPER_ASSET_DIR", "HD"),
		AudioExt: envStr("LOOPER_AUDIO_EXT", ".wav"),
		VideoExt: envStr("LOOPER_VIDEO_EXT", ".mov"),

		FPS:      envInt("LOOPER_FPS", 24),
		DwellMin: time.Duration(envInt("LOOPER_DWELL_MIN", 1)) * time.Second,
		DwellMax: time.Duration(envInt("LOOPER_DWELL_MAX", 60)) * time.Second,
		Seed:     uint64(envInt("LOOPER_SEED", 0)),

		MasterGain: envFloat("LOOPER_MASTER_GAIN", 1.0),
		Output:     envStr("LOOPER_OUTPUT", "oto"),
		TuningFile: envStr("LOOPER_TUNING_FILE", ""),

		MonitorPort: envInt("LOOPER_MONITOR_PORT", 8080),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// tuningFile mirrors mixer.Tuning in file units; absent keys keep the base value.
type tuningFile struct {
	DuckTime        *float64 `yaml:"duck_time"`          // seconds
	HighPassFadeMin *float64 `yaml:"high_pass_fade_min"` // seconds
	HighPassFadeMax *float64 `yaml:"high_pass_fade_max"` // seconds
	PlayFadeMS      *int     `yaml:"play_fade_ms"`
	StopFadeMS      *int     `yaml:"stop_fade_ms"`
	PanJitter       *float64 `yaml:"pan_jitter"`
	CullProbability *float64 `yaml:"cull_probability"`
	MaxLoops        *int     `yaml:"max_loops"`
}

// LoadTuning overlays the YAML file at path on base. An empty path returns base.
func LoadTuning(path string, base mixer.Tuning) (mixer.Tuning, error) {
	if path == "" {
		return base, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("config: load %s: %w", path, err)
	}
	var f tuningFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return base, fmt.Errorf("config: unmarshal %s: %w", path, err)
	}

	t := base
	if f.DuckTime != nil {
		t.DuckTime = seconds(*f.DuckTime)
	}
	if f.HighPassFadeMin != nil {
		t.HighPassFadeMin = seconds(*f.HighPassFadeMin)
	}
	if f.HighPassFadeMax != nil {
		t.HighPassFadeMax = seconds(*f.HighPassFadeMax)
	}
	if f.PlayFadeMS != nil {
		t.PlayFade = time.Duration(*f.PlayFadeMS) * time.Millisecond
	}
	if f.StopFadeMS != nil {
		t.StopFade = time.Duration(*f.StopFadeMS) * time.Millisecond
	}
	if f.PanJitter != nil {
		t.PanJitter = *f.PanJitter
	}
	if f.CullProbability != nil {
		t.CullProbability = *f.CullProbability
	}
	if f.MaxLoops != nil {
		t.MaxLoops = *f.MaxLoops
	}

	if t.HighPassFadeMin <= 0 {
		return base, fmt.Errorf("config: %s: high_pass_fade_min must be positive", path)
	}
	if t.HighPassFadeMax < t.HighPassFadeMin {
		return base, fmt.Errorf("config: %s: high_pass_fade_max below high_pass_fade_min", path)
	}
	if t.CullProbability < 0 || t.CullProbability > 1 {
		return base, fmt.Errorf("config: %s: cull_probability must be 0-1", path)
	}
	if t.MaxLoops < 1 {
		return base, fmt.Errorf("config: %s: max_loops must be at least 1", path)
	}
	return t, nil
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
