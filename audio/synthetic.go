package audio

import (
	"math"
	"time"
)

// Synthetic is a stand-in source for running without an input device. It
// produces a kick on every beat, a slow swell and an offbeat hat at a fixed
// tempo.
type Synthetic struct {
	BPM   float64
	start time.Time
	now   func() time.Time
	last  float64 // beat position at the previous Frame
}

// NewSynthetic creates a synthetic source. now may be nil for time.Now.
func NewSynthetic(bpm float64, now func() time.Time) *Synthetic {
	if now == nil {
		now = time.Now
	}
	return &Synthetic{BPM: bpm, start: now(), now: now}
}

func (s *Synthetic) beats() float64 {
	return s.now().Sub(s.start).Seconds() * s.BPM / 60
}

// Frame computes levels for the current instant
func (s *Synthetic) Frame() Frame {
	b := s.beats()
	frac := b - math.Floor(b)

	var f Frame
	f.Low = math.Exp(-6 * frac)
	f.Mid = 0.5 + 0.5*math.Sin(2*math.Pi*b/8)
	half := 2*b - math.Floor(2*b)
	if int(math.Floor(2*b))%2 == 1 {
		f.High = math.Exp(-10 * half)
	}
	f.Level = (f.Low + f.Mid + f.High) / 3
	if math.Floor(b) > math.Floor(s.last) {
		f.Onset = 1
	}
	s.last = b
	return f
}

// Tempo reports the fixed tempo and the time of the most recent beat
func (s *Synthetic) Tempo() (float64, time.Time, bool) {
	if s.BPM <= 0 {
		return 0, time.Time{}, false
	}
	b := math.Floor(s.beats())
	at := s.start.Add(time.Duration(b * 60 / s.BPM * float64(time.Second)))
	return s.BPM, at, true
}
