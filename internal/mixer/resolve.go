package mixer

import (
	"math/rand/v2"
	"path/filepath"
	"sort"
	"strings"
)

// Stem returns an asset name without its extension.
func Stem(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// ResolveAudioName picks the audio asset for a video base.
// An exact stem match wins; otherwise one of the "<base>_*" assets is drawn at random.
// Both comparisons ignore case.
func ResolveAudioName(videoBase string, assets []string, rng *rand.Rand) (string, bool) {
	base := strings.ToLower(videoBase)
	prefix := base + "_"

	var cands []string
	for _, a := range assets {
		stem := strings.ToLower(Stem(a))
		if stem == base {
			return a, true
		}
		if strings.HasPrefix(stem, prefix) {
			cands = append(cands, a)
		}
	}
	if len(cands) == 0 {
		return "", false
	}

	// Directory listings come back in arbitrary order; sort so a seeded rng repeats.
	sort.Strings(cands)
	return cands[rng.IntN(len(cands))], true
}
