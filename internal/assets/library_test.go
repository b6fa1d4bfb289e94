package assets

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		if err := os.WriteFile(filepath.Join(dir, n), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestOpenMissingDir(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "nope"), ".wav", ".mov"); err == nil {
		t.Error("Open of missing directory succeeded")
	}
}

func TestAudioListing(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "b_vd3.wav", "a.WAV", "a.mov", "notes.txt")
	os.Mkdir(filepath.Join(dir, "sub.wav"), 0o755)

	l, err := Open(dir, ".wav", ".mov")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	want := []string{"a.WAV", "b_vd3.wav"}
	if got := l.Audio(); !reflect.DeepEqual(got, want) {
		t.Errorf("Audio() = %v, want %v", got, want)
	}
}

func TestClipsNeedAudio(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir,
		"car.mov", "car_vd3.wav",
		"Bus.mov", "bus.wav",
		"sea.mov",
		"seaside.wav",
		"rain.mov", "rain_p.wav", "rain_h.wav",
	)
	l, err := Open(dir, ".wav", ".mov")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"Bus", "car", "rain"}
	if got := l.Clips(); !reflect.DeepEqual(got, want) {
		t.Errorf("Clips() = %v, want %v", got, want)
	}
}

func TestAudioReturnsCopy(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a.wav")
	l, _ := Open(dir, ".wav", ".mov")
	got := l.Audio()
	got[0] = "mutated"
	if l.Audio()[0] != "a.wav" {
		t.Error("Audio() exposed internal slice")
	}
}

func TestWatchRescans(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a.wav")
	l, err := Open(dir, ".wav", ".mov")
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Watch(ctx) }()

	// Give the watcher time to register before changing the directory.
	time.Sleep(100 * time.Millisecond)
	touch(t, dir, "b_s.wav")

	deadline := time.Now().Add(3 * time.Second)
	for len(l.Audio()) != 2 {
		if time.Now().After(deadline) {
			t.Fatalf("Audio() = %v after watch, want 2 entries", l.Audio())
		}
		time.Sleep(20 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch returned %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Watch did not stop on cancel")
	}
}
