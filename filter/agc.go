package filter

import (
	"math"

	"go-lumen/timebase"
)

// AttackRatio is how much faster the AGC envelopes chase a new extreme than
// they relax away from it.
const AttackRatio = 16

// AGCConfig describes an automatic gain control stage
type AGCConfig struct {
	// Output range
	RangeLow  float64
	RangeHigh float64

	// Input range that is passed without amplification, in input units
	KneeLow  float64
	KneeHigh float64

	// Envelope release time in beats
	Tau float64
}

// AGC rescales a signal of unknown range into a fixed output range using
// envelopes that follow the input's highs and lows.
type AGC struct {
	cfg     AGCConfig
	envHigh *DiodeEMA
	envLow  *DiodeEMA
	out     float64
}

// NewAGC validates cfg and builds the envelopes
func NewAGC(cfg AGCConfig) (*AGC, error) {
	if math.IsNaN(cfg.RangeLow) || math.IsNaN(cfg.RangeHigh) || cfg.RangeLow > cfg.RangeHigh {
		return nil, invalid("agc output range is inverted")
	}
	if math.IsInf(cfg.RangeHigh-cfg.RangeLow, 0) {
		return nil, invalid("agc output range must be finite")
	}
	if math.IsNaN(cfg.KneeLow) || math.IsNaN(cfg.KneeHigh) || cfg.KneeLow >= cfg.KneeHigh {
		return nil, invalid("agc knee_low must be below knee_high")
	}
	if err := checkTau(cfg.Tau); err != nil {
		return nil, err
	}

	attack := cfg.Tau / AttackRatio
	return &AGC{
		cfg:     cfg,
		envHigh: MustDiodeEMA(attack, cfg.Tau),
		envLow:  MustDiodeEMA(cfg.Tau, attack),
		out:     cfg.RangeLow,
	}, nil
}

// MustAGC panics on invalid configuration
func MustAGC(cfg AGCConfig) *AGC {
	a, err := NewAGC(cfg)
	if err != nil {
		panic(err)
	}
	return a
}

func (a *AGC) Update(t timebase.MBeat, in float64) float64 {
	high := a.envHigh.Update(t, in)
	low := a.envLow.Update(t, in)

	effHigh := math.Max(high, a.cfg.KneeHigh)
	effLow := math.Min(low, a.cfg.KneeLow)
	if !(effHigh > effLow) {
		effHigh, effLow = a.cfg.KneeHigh, a.cfg.KneeLow
	}

	frac := (in - effLow) / (effHigh - effLow)
	switch {
	case math.IsNaN(frac) || frac < 0:
		frac = 0
	case frac > 1:
		frac = 1
	}

	a.out = math.Min(a.cfg.RangeLow+frac*(a.cfg.RangeHigh-a.cfg.RangeLow), a.cfg.RangeHigh)
	return a.out
}

func (a *AGC) Value() float64 { return a.out }

// Envelope returns the tracked (low, high) input envelope
func (a *AGC) Envelope() (low, high float64) {
	return a.envLow.Value(), a.envHigh.Value()
}

func (a *AGC) Config() AGCConfig { return a.cfg }
