package filter

import (
	"math"
	"math/rand"
	"testing"

	"github.com/Southclaws/fault/ftag"

	"go-lumen/timebase"
)

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestEMAFirstSampleBootstraps(t *testing.T) {
	f := MustEMA(1)
	if got := f.Update(500, 0.3); got != 0.3 {
		t.Errorf("first update = %f, expected input 0.3", got)
	}
}

func TestEMAOneTau(t *testing.T) {
	f := MustEMA(1)
	f.Update(0, 0)
	got := f.Update(1000, 1)
	if math.Abs(got-0.6321) > 1e-4 {
		t.Errorf("ema after one tau = %f, expected ~0.6321", got)
	}
}

func TestEMAClosedForm(t *testing.T) {
	tests := []struct {
		tau  float64
		prev float64
		in   float64
		dt   timebase.MBeat
	}{
		{1, 0, 1, 1000},
		{0.5, 2, -1, 250},
		{4, -3, 3, 1},
		{0.1, 1, 1, 5000},
		{2, 0.25, 0.75, 0},
	}
	for i, tst := range tests {
		f := MustEMA(tst.tau)
		f.Update(10000, tst.prev)
		got := f.Update(10000+tst.dt, tst.in)
		want := tst.in - (tst.in-tst.prev)*math.Exp(-tst.dt.Beats()/tst.tau)
		if !near(got, want) {
			t.Errorf("#%d ema = %.12f, expected %.12f", i, got, want)
		}
	}
}

func TestEMAZeroDtUnchanged(t *testing.T) {
	f := MustEMA(1)
	f.Update(0, 0)
	v := f.Update(1000, 1)
	if got := f.Update(1000, 50); got != v {
		t.Errorf("dt=0 update = %f, expected unchanged %f", got, v)
	}
}

func TestEMABackwardsTimeHolds(t *testing.T) {
	f := MustEMA(1)
	f.Update(2000, 0)
	f.Update(3000, 1)
	v := f.Value()
	if got := f.Update(2500, 10); got != v {
		t.Errorf("update after realignment = %f, expected held %f", got, v)
	}
	if got := f.Update(3500, 10); !near(got, 10-(10-v)*math.Exp(-1)) {
		t.Errorf("update after re-anchor = %f, expected one-beat step", got)
	}
}

func TestDiodeUsesRiseAndFall(t *testing.T) {
	const rise, fall = 0.25, 2.0
	f := MustDiodeEMA(rise, fall)
	f.Update(0, 0)

	// alternating steps: up, down, up, down
	inputs := []float64{1, -1, 1, -1, 1}
	tm := timebase.MBeat(0)
	for i, in := range inputs {
		prev := f.Value()
		tau := fall
		if in >= prev {
			tau = rise
		}
		if got := f.Tau(in); got != tau {
			t.Fatalf("#%d Tau(%f) with out=%f = %f, expected %f", i, in, prev, got, tau)
		}
		tm += 500
		got := f.Update(tm, in)
		want := in - (in-prev)*math.Exp(-0.5/tau)
		if !near(got, want) {
			t.Errorf("#%d diode = %f, expected %f (tau %f)", i, got, want, tau)
		}
	}
}

func TestDiodeEqualInputUsesRise(t *testing.T) {
	f := MustDiodeEMA(1, 3)
	f.Update(0, 0.5)
	if got := f.Tau(0.5); got != 1 {
		t.Errorf("Tau(in == out) = %f, expected rise", got)
	}
}

func TestAGCStaysInRange(t *testing.T) {
	cfg := AGCConfig{RangeLow: 0.1, RangeHigh: 0.9, KneeLow: -0.01, KneeHigh: 0.01, Tau: 4}

	rng := rand.New(rand.NewSource(1))
	sequences := map[string]func(i int) float64{
		"random":   func(i int) float64 { return rng.NormFloat64() * 100 },
		"constant": func(i int) float64 { return 3.5 },
		"zero":     func(i int) float64 { return 0 },
		"ramp":     func(i int) float64 { return float64(i) * 1e6 },
		"spikes": func(i int) float64 {
			if i%50 == 0 {
				return 1e12
			}
			return -1e-12
		},
	}

	for name, seq := range sequences {
		a := MustAGC(cfg)
		for i := 0; i < 2000; i++ {
			out := a.Update(timebase.MBeat(i*37), seq(i))
			if out < cfg.RangeLow || out > cfg.RangeHigh || math.IsNaN(out) {
				t.Fatalf("%s: sample %d out of range: %f", name, i, out)
			}
		}
	}
}

func TestAGCDegenerateRange(t *testing.T) {
	a := MustAGC(AGCConfig{RangeLow: 0.5, RangeHigh: 0.5, KneeLow: 0, KneeHigh: 1, Tau: 1})
	for i := 0; i < 10; i++ {
		if got := a.Update(timebase.MBeat(i*100), float64(i)); got != 0.5 {
			t.Fatalf("degenerate range output = %f, expected 0.5", got)
		}
	}
}

func TestAGCNormalizesToEnvelope(t *testing.T) {
	a := MustAGC(AGCConfig{RangeLow: 0, RangeHigh: 1, KneeLow: 0.4, KneeHigh: 0.6, Tau: 8})
	// square wave between 0 and 10 settles the envelopes at the extremes
	for i := 0; i < 4000; i++ {
		in := 0.0
		if (i/10)%2 == 0 {
			in = 10
		}
		out := a.Update(timebase.MBeat(i*10), in)
		if i > 3000 && in == 10 && out < 0.9 {
			t.Fatalf("peak mapped to %f, expected near top of range", out)
		}
	}
	low, high := a.Envelope()
	if low > 1 || high < 9 {
		t.Errorf("envelope = (%f, %f), expected to bracket the square wave", low, high)
	}
}

func TestConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		fn   func() error
	}{
		{"ema zero tau", func() error { _, err := NewEMA(0); return err }},
		{"ema negative tau", func() error { _, err := NewEMA(-1); return err }},
		{"ema nan tau", func() error { _, err := NewEMA(math.NaN()); return err }},
		{"diode fall", func() error { _, err := NewDiodeEMA(1, 0); return err }},
		{"agc inverted", func() error {
			_, err := NewAGC(AGCConfig{RangeLow: 1, RangeHigh: 0, KneeLow: 0, KneeHigh: 1, Tau: 1})
			return err
		}},
		{"agc knees", func() error {
			_, err := NewAGC(AGCConfig{RangeLow: 0, RangeHigh: 1, KneeLow: 1, KneeHigh: 1, Tau: 1})
			return err
		}},
		{"agc tau", func() error {
			_, err := NewAGC(AGCConfig{RangeLow: 0, RangeHigh: 1, KneeLow: 0, KneeHigh: 1, Tau: 0})
			return err
		}},
		{"agc range overflow", func() error {
			_, err := NewAGC(AGCConfig{RangeLow: -1e308, RangeHigh: 1e308, KneeLow: 0, KneeHigh: 1, Tau: 1})
			return err
		}},
		{"agc infinite range", func() error {
			_, err := NewAGC(AGCConfig{RangeLow: 0, RangeHigh: math.Inf(1), KneeLow: 0, KneeHigh: 1, Tau: 1})
			return err
		}},
		{"set tau", func() error { return MustEMA(1).SetTau(-2) }},
		{"set taus rise", func() error { return MustDiodeEMA(1, 1).SetTaus(0, 1) }},
		{"set taus fall", func() error { return MustDiodeEMA(1, 1).SetTaus(1, -1) }},
		{"set taus nan", func() error { return MustDiodeEMA(1, 1).SetTaus(math.NaN(), 1) }},
	}
	for _, tst := range tests {
		err := tst.fn()
		if err == nil {
			t.Errorf("%s: expected error", tst.name)
			continue
		}
		if ftag.Get(err) != ftag.InvalidArgument {
			t.Errorf("%s: tag = %v, expected InvalidArgument", tst.name, ftag.Get(err))
		}
	}
}

func TestDiodeSetTaus(t *testing.T) {
	f := MustDiodeEMA(1, 1)
	if err := f.SetTaus(0.5, 4); err != nil {
		t.Fatal(err)
	}
	f.Update(0, 0)
	if tau := f.Tau(1); tau != 0.5 {
		t.Errorf("rise tau = %f, expected 0.5", tau)
	}
	if tau := f.Tau(-1); tau != 4 {
		t.Errorf("fall tau = %f, expected 4", tau)
	}

	// a rejected change keeps the old constants
	f.SetTaus(-1, 2)
	if tau := f.Tau(1); tau != 0.5 {
		t.Errorf("rise tau = %f after rejected change", tau)
	}
}

func TestMustPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustEMA(0) did not panic")
		}
	}()
	MustEMA(0)
}
