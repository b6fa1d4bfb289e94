package mixer

import (
	"regexp"
	"strings"
)

// Flag is one behaviour switch carried in an asset's name suffix.
type Flag uint8

const (
	FlagVariable Flag = 1 << iota // v: may randomly replace another variable clip
	FlagDuck                      // d: ducks every other clip for DuckTime
	FlagSolo                      // s: mutes every other clip while active
	FlagPan                       // p: slow random stereo drift
	FlagOnce                      // o: loops 1..MaxLoops times, then stops
	FlagOneShot                   // t: plays exactly once
	FlagHighPass                  // h: linear fade to silence, then removal
)

// Flags is a set of Flag values.
type Flags uint8

// Has reports whether f contains flag.
func (f Flags) Has(flag Flag) bool {
	return f&Flags(flag) != 0
}

// String renders the set in the suffix alphabet, e.g. "vd".
func (f Flags) String() string {
	var b strings.Builder
	for _, fl := range flagOrder {
		if f.Has(fl.flag) {
			b.WriteByte(fl.char)
		}
	}
	return b.String()
}

var flagOrder = []struct {
	char byte
	flag Flag
}{
	{'v', FlagVariable},
	{'d', FlagDuck},
	{'s', FlagSolo},
	{'p', FlagPan},
	{'o', FlagOnce},
	{'t', FlagOneShot},
	{'h', FlagHighPass},
}

// ParseFlags collects the recognized flag characters of s. Anything else is ignored.
func ParseFlags(s string) Flags {
	var f Flags
	for i := 0; i < len(s); i++ {
		c := s[i] | 0x20 // ASCII lower
		for _, fl := range flagOrder {
			if fl.char == c {
				f |= Flags(fl.flag)
			}
		}
	}
	return f
}

// 'r' is part of the accepted alphabet but has no behaviour.
var suffixRE = regexp.MustCompile(`(?i)_([vdhoprst]*)(\d?)$`)

// Suffix is the decoded form of an asset name.
type Suffix struct {
	Base   string
	Flags  Flags
	Volume float64
}

// ParseSuffix splits name into its base, flag set and volume fraction.
// Names without a trailing "_<flags><digit>" group come back unchanged at full volume.
func ParseSuffix(name string) Suffix {
	m := suffixRE.FindStringSubmatchIndex(name)
	if m == nil {
		return Suffix{Base: name, Volume: 1.0}
	}
	return Suffix{
		Base:   name[:m[0]],
		Flags:  ParseFlags(name[m[2]:m[3]]),
		Volume: digitVolume(name[m[4]:m[5]]),
	}
}

func digitVolume(raw string) float64 {
	if raw == "" {
		return 1.0
	}
	d := int(raw[0] - '0')
	if d < 1 {
		d = 1
	}
	return float64(d) / 10.0
}
