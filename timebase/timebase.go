// Package timebase is the beat clock. Everything downstream of it (filters,
// signals, patterns) measures time in milli-beats rather than seconds.
package timebase

import (
	"math"
	"sync"
	"time"
)

// MBeat is a count of milli-beats since an arbitrary epoch.
// 1000 units is one beat.
type MBeat int64

// PerBeat is the number of MBeat in one beat
const PerBeat MBeat = 1000

// Beats converts to fractional beats
func (t MBeat) Beats() float64 {
	return float64(t) / float64(PerBeat)
}

// Phase returns the position inside the current beat, in [0,1)
func (t MBeat) Phase() float64 {
	p := t % PerBeat
	if p < 0 {
		p += PerBeat
	}
	return float64(p) / float64(PerBeat)
}

// FromBeats converts fractional beats to MBeat
func FromBeats(b float64) MBeat {
	return MBeat(math.Floor(b * float64(PerBeat)))
}

// Mode selects what drives tempo and phase
type Mode int

const (
	// Automatic: an analysis collaborator calls Sync
	Automatic Mode = iota
	// Manual: Tap and Align only
	Manual
)

func (m Mode) String() string {
	if m == Manual {
		return "manual"
	}
	return "auto"
}

// Tempo bounds
const (
	MinBPM = 20
	MaxBPM = 300
)

// Default tap window: taps further apart than MaxTap restart the sequence,
// closer than MinTap are treated as bounces and ignored.
const (
	DefaultMinTap = 150 * time.Millisecond
	DefaultMaxTap = 2 * time.Second
)

// Timebase projects a tempo and a phase anchor onto wall time
type Timebase struct {
	mu sync.Mutex

	mode Mode
	bpm  float64

	// beat position anchorBeat was reached at anchorTime
	anchorTime time.Time
	anchorBeat float64

	lastTap time.Time

	minTap time.Duration
	maxTap time.Duration

	now func() time.Time
}

// Option configures a Timebase
type Option func(*Timebase)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(tb *Timebase) { tb.now = now }
}

// WithTapWindow sets the accepted interval between taps
func WithTapWindow(min, max time.Duration) Option {
	return func(tb *Timebase) {
		tb.minTap = min
		tb.maxTap = max
	}
}

// WithMode sets the initial mode
func WithMode(m Mode) Option {
	return func(tb *Timebase) { tb.mode = m }
}

// New creates a timebase at beat 0 running at bpm
func New(bpm float64, opts ...Option) *Timebase {
	tb := &Timebase{
		mode:   Automatic,
		minTap: DefaultMinTap,
		maxTap: DefaultMaxTap,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(tb)
	}
	tb.bpm = clampBPM(bpm)
	tb.anchorTime = tb.now()
	return tb
}

func clampBPM(bpm float64) float64 {
	if math.IsNaN(bpm) || bpm < MinBPM {
		return MinBPM
	}
	if bpm > MaxBPM {
		return MaxBPM
	}
	return bpm
}

// beatsAt must be called with mu held
func (tb *Timebase) beatsAt(t time.Time) float64 {
	return tb.anchorBeat + t.Sub(tb.anchorTime).Seconds()*tb.bpm/60
}

// reanchor moves the anchor to t without changing the phase. mu held.
func (tb *Timebase) reanchor(t time.Time) {
	tb.anchorBeat = tb.beatsAt(t)
	tb.anchorTime = t
}

// Get returns the current beat time
func (tb *Timebase) Get() MBeat {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return FromBeats(tb.beatsAt(tb.now()))
}

// BPM returns the current smoothed tempo
func (tb *Timebase) BPM() float64 {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return tb.bpm
}

// SetBPM sets the tempo directly, keeping phase
func (tb *Timebase) SetBPM(bpm float64) {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.reanchor(tb.now())
	tb.bpm = clampBPM(bpm)
}

// Tap feeds one tap into the tempo estimate. alpha is the blend factor of
// the new interval, in (0,1].
func (tb *Timebase) Tap(alpha float64) {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := tb.now()
	last := tb.lastTap
	tb.lastTap = now
	if last.IsZero() {
		return
	}

	interval := now.Sub(last)
	if interval < tb.minTap {
		// contact bounce, keep the earlier tap as reference
		tb.lastTap = last
		return
	}
	if interval > tb.maxTap {
		return
	}

	if alpha <= 0 {
		return
	}
	if alpha > 1 {
		alpha = 1
	}

	inst := 60 / interval.Seconds()
	tb.reanchor(now)
	tb.bpm = clampBPM(tb.bpm + alpha*(inst-tb.bpm))
}

// Align snaps the current phase to the nearest beat boundary
func (tb *Timebase) Align() {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := tb.now()
	tb.anchorBeat = math.Round(tb.beatsAt(now))
	tb.anchorTime = now
}

// Sync is called by the analysis collaborator with a tempo estimate and the
// wall time of the last detected beat. Ignored in Manual mode.
func (tb *Timebase) Sync(bpm float64, beatAt time.Time) {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	if tb.mode != Automatic || bpm <= 0 {
		return
	}
	now := tb.now()
	if beatAt.After(now) {
		beatAt = now
	}
	beat := math.Round(tb.beatsAt(beatAt))
	tb.bpm = clampBPM(bpm)
	tb.anchorBeat = beat
	tb.anchorTime = beatAt
}

// Mode returns the current mode
func (tb *Timebase) Mode() Mode {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return tb.mode
}

// SetMode switches between Automatic and Manual
func (tb *Timebase) SetMode(m Mode) {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.mode = m
}

// ToggleMode flips the mode and returns the new one
func (tb *Timebase) ToggleMode() Mode {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	if tb.mode == Automatic {
		tb.mode = Manual
	} else {
		tb.mode = Automatic
	}
	return tb.mode
}
