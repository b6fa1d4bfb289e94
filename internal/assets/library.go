package assets

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Library lists the audio and video assets of one directory.
type Library struct {
	dir      string
	audioExt string
	videoExt string

	mu     sync.RWMutex
	audio  []string
	videos []string
}

// Open scans dir for assets with the given extensions (e.g. ".wav", ".mov").
func Open(dir, audioExt, videoExt string) (*Library, error) {
	l := &Library{
		dir:      dir,
		audioExt: strings.ToLower(audioExt),
		videoExt: strings.ToLower(videoExt),
	}
	if err := l.Rescan(); err != nil {
		return nil, err
	}
	return l, nil
}

// Dir returns the directory the library lists.
func (l *Library) Dir() string {
	return l.dir
}

// Rescan re-reads the directory listing.
func (l *Library) Rescan() error {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return fmt.Errorf("scan %s: %w", l.dir, err)
	}

	var audio, videos []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case l.audioExt:
			audio = append(audio, e.Name())
		case l.videoExt:
			videos = append(videos, e.Name())
		}
	}
	sort.Strings(audio)
	sort.Strings(videos)

	l.mu.Lock()
	l.audio = audio
	l.videos = videos
	l.mu.Unlock()
	return nil
}

// Audio returns the audio asset file names, extensions included.
func (l *Library) Audio() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]string(nil), l.audio...)
}

// Clips returns the sorted video bases that have at least one audio asset:
// "<base><audioExt>" or any "<base>_*<audioExt>". Matching ignores case.
func (l *Library) Clips() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var clips []string
	for _, v := range l.videos {
		base := strings.TrimSuffix(v, filepath.Ext(v))
		if hasAudio(base, l.audio) {
			clips = append(clips, base)
		}
	}
	return clips
}

func hasAudio(base string, audio []string) bool {
	lc := strings.ToLower(base)
	for _, a := range audio {
		stem := strings.ToLower(strings.TrimSuffix(a, filepath.Ext(a)))
		if stem == lc || strings.HasPrefix(stem, lc+"_") {
			return true
		}
	}
	return false
}

// Watch rescans the library whenever the directory changes. Bursts of events
// within 100ms collapse into one rescan. Blocks until ctx is cancelled.
func (l *Library) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch %s: %w", l.dir, err)
	}
	defer w.Close()
	if err := w.Add(l.dir); err != nil {
		return fmt.Errorf("watch %s: %w", l.dir, err)
	}

	var debounce <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if debounce == nil {
				debounce = time.After(100 * time.Millisecond)
			}
		case <-debounce:
			debounce = nil
			if err := l.Rescan(); err != nil {
				log.Printf("Asset rescan failed: %v", err)
				continue
			}
			log.Printf("Assets changed: %d audio, %d clips", len(l.Audio()), len(l.Clips()))
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Printf("Asset watcher error: %v", err)
		}
	}
}
