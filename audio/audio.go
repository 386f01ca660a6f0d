// Package audio turns an input stream into a handful of slow control values
// (band levels, onsets, tempo) that signals can follow.
package audio

import (
	"strings"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
)

// Band selects one value out of a Frame
type Band int

const (
	Level Band = iota
	Low
	Mid
	High
	Onset
	Phase // beat phase, supplied by the timebase rather than the audio
)

var bandNames = [...]string{"level", "low", "mid", "high", "onset", "phase"}

func (b Band) String() string {
	if b < 0 || int(b) >= len(bandNames) {
		return "?"
	}
	return bandNames[b]
}

// ParseBand looks a band up by name
func ParseBand(s string) (Band, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range bandNames {
		if n == name {
			return Band(i), nil
		}
	}
	return 0, fault.New("unknown band "+s,
		ftag.With(ftag.InvalidArgument),
		fmsg.WithDesc("unknown band", "Signal inputs must be one of: "+strings.Join(bandNames[:], ", ")))
}

// Frame is one analysis snapshot. Levels are RMS over the last buffer;
// Onset is 1 if an onset was detected since the previous read.
type Frame struct {
	Level float64
	Low   float64
	Mid   float64
	High  float64
	Onset float64
}

// Band returns the value for b. Phase is not an audio value and reads 0.
func (f Frame) Band(b Band) float64 {
	switch b {
	case Level:
		return f.Level
	case Low:
		return f.Low
	case Mid:
		return f.Mid
	case High:
		return f.High
	case Onset:
		return f.Onset
	}
	return 0
}

// Source is what the engine reads once per frame
type Source interface {
	Frame() Frame
	// Tempo reports the detected tempo and the time of a beat, when known
	Tempo() (bpm float64, at time.Time, ok bool)
}
