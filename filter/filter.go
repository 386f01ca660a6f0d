// Package filter holds the single-pole filters used to condition signals.
// Time constants are in beats, so smoothing follows the music rather than
// the wall clock.
package filter

import (
	"math"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"

	"go-lumen/timebase"
)

// Filter is anything that can be fed samples at beat times
type Filter interface {
	Update(t timebase.MBeat, in float64) float64
	Value() float64
}

// state is the shared single-pole memory
type state struct {
	out    float64
	in     float64
	t      timebase.MBeat
	primed bool
}

// step advances the filter with time constant tau. The caller picks tau.
func (s *state) step(t timebase.MBeat, in, tau float64) float64 {
	if !s.primed {
		s.out = in
		s.in = in
		s.t = t
		s.primed = true
		return in
	}

	dt := t - s.t
	if dt == 0 {
		return s.out
	}
	if dt < 0 {
		// clock was realigned backwards; restart the interval from here
		s.t = t
		return s.out
	}

	alpha := 1 - math.Exp(-dt.Beats()/tau)
	s.out += alpha * (in - s.out)
	s.in = in
	s.t = t
	return s.out
}

// Reset forgets all history; the next sample bootstraps again
func (s *state) Reset() {
	*s = state{}
}

func invalid(msg string) error {
	return fault.New(msg, ftag.With(ftag.InvalidArgument), fmsg.With("invalid filter configuration"))
}

func checkTau(tau float64) error {
	if !(tau > 0) || math.IsInf(tau, 0) {
		return invalid("time constant must be positive and finite")
	}
	return nil
}

// EMA is an exponential moving average: a single-pole, linear IIR filter
// with a monotonic step response. tau is in beats.
type EMA struct {
	state
	tau float64
}

// NewEMA creates an EMA with time constant tau beats
func NewEMA(tau float64) (*EMA, error) {
	if err := checkTau(tau); err != nil {
		return nil, err
	}
	return &EMA{tau: tau}, nil
}

// MustEMA panics on invalid configuration
func MustEMA(tau float64) *EMA {
	f, err := NewEMA(tau)
	if err != nil {
		panic(err)
	}
	return f
}

func (f *EMA) Update(t timebase.MBeat, in float64) float64 {
	return f.step(t, in, f.tau)
}

func (f *EMA) Value() float64 { return f.out }

func (f *EMA) Tau() float64 { return f.tau }

// SetTau changes the time constant
func (f *EMA) SetTau(tau float64) error {
	if err := checkTau(tau); err != nil {
		return err
	}
	f.tau = tau
	return nil
}

// DiodeEMA is an EMA with separate time constants for rising and falling
// input, e.g. fast attack and slow release.
type DiodeEMA struct {
	state
	rise float64
	fall float64
}

// NewDiodeEMA creates a diode EMA
func NewDiodeEMA(rise, fall float64) (*DiodeEMA, error) {
	if err := checkTau(rise); err != nil {
		return nil, err
	}
	if err := checkTau(fall); err != nil {
		return nil, err
	}
	return &DiodeEMA{rise: rise, fall: fall}, nil
}

// MustDiodeEMA panics on invalid configuration
func MustDiodeEMA(rise, fall float64) *DiodeEMA {
	f, err := NewDiodeEMA(rise, fall)
	if err != nil {
		panic(err)
	}
	return f
}

// Tau returns the constant that a sample of in would use right now
func (f *DiodeEMA) Tau(in float64) float64 {
	if !f.primed || in >= f.out {
		return f.rise
	}
	return f.fall
}

func (f *DiodeEMA) Update(t timebase.MBeat, in float64) float64 {
	return f.step(t, in, f.Tau(in))
}

func (f *DiodeEMA) Value() float64 { return f.out }

// SetTaus changes both time constants
func (f *DiodeEMA) SetTaus(rise, fall float64) error {
	if err := checkTau(rise); err != nil {
		return err
	}
	if err := checkTau(fall); err != nil {
		return err
	}
	f.rise, f.fall = rise, fall
	return nil
}
