package timebase

import (
	"math"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func TestGetProjectsTempo(t *testing.T) {
	clk := newFakeClock()
	tb := New(120, WithClock(clk.Now))

	if got := tb.Get(); got != 0 {
		t.Fatalf("Get at start = %d, expected 0", got)
	}
	clk.Advance(500 * time.Millisecond)
	if got := tb.Get(); got != 1000 {
		t.Errorf("Get after 500ms at 120bpm = %d, expected 1000", got)
	}
	clk.Advance(250 * time.Millisecond)
	if got := tb.Get(); got != 1500 {
		t.Errorf("Get after 750ms at 120bpm = %d, expected 1500", got)
	}
}

func TestTapConvergesTo120(t *testing.T) {
	clk := newFakeClock()
	tb := New(100, WithClock(clk.Now), WithMode(Manual))

	prev := math.Abs(tb.BPM() - 120)
	tb.Tap(0.5)
	for i := 0; i < 6; i++ {
		clk.Advance(500 * time.Millisecond)
		tb.Tap(0.5)
		d := math.Abs(tb.BPM() - 120)
		if d >= prev {
			t.Fatalf("tap %d: distance to 120 did not shrink (%f -> %f)", i, prev, d)
		}
		prev = d
	}
	if prev > 1 {
		t.Errorf("bpm = %f after 7 taps, expected within 1 of 120", tb.BPM())
	}
}

func TestTapKeepsPhaseContinuous(t *testing.T) {
	clk := newFakeClock()
	tb := New(100, WithClock(clk.Now))

	tb.Tap(0.5)
	clk.Advance(500 * time.Millisecond)
	before := tb.Get()
	tb.Tap(0.5)
	after := tb.Get()
	if before != after {
		t.Errorf("tap moved phase: %d -> %d", before, after)
	}
}

func TestTapWindow(t *testing.T) {
	tests := []struct {
		name     string
		interval time.Duration
		changed  bool
	}{
		{"in window", 500 * time.Millisecond, true},
		{"too slow restarts", 3 * time.Second, false},
		{"bounce ignored", 50 * time.Millisecond, false},
	}
	for _, tst := range tests {
		clk := newFakeClock()
		tb := New(100, WithClock(clk.Now))
		tb.Tap(1)
		clk.Advance(tst.interval)
		tb.Tap(1)
		if changed := tb.BPM() != 100; changed != tst.changed {
			t.Errorf("%s: bpm = %f, changed=%v expected %v", tst.name, tb.BPM(), changed, tst.changed)
		}
	}
}

func TestBounceKeepsFirstTap(t *testing.T) {
	clk := newFakeClock()
	tb := New(100, WithClock(clk.Now))
	tb.Tap(1)
	clk.Advance(50 * time.Millisecond)
	tb.Tap(1) // bounce
	clk.Advance(450 * time.Millisecond)
	tb.Tap(1)
	if got := tb.BPM(); math.Abs(got-120) > 1e-9 {
		t.Errorf("bpm = %f, expected 120 measured from the first tap", got)
	}
}

func TestAlignSnapsToNearestBeat(t *testing.T) {
	tests := []struct {
		elapsed time.Duration
		want    MBeat
	}{
		{600 * time.Millisecond, 1000},  // 1.2 beats -> 1
		{1200 * time.Millisecond, 2000}, // 2.4 beats -> 2
		{1300 * time.Millisecond, 3000}, // 2.6 beats -> 3
	}
	for _, tst := range tests {
		clk := newFakeClock()
		tb := New(120, WithClock(clk.Now))
		clk.Advance(tst.elapsed)
		tb.Align()
		if got := tb.Get(); got != tst.want {
			t.Errorf("align after %v: Get = %d, expected %d", tst.elapsed, got, tst.want)
		}
		if tb.BPM() != 120 {
			t.Errorf("align changed tempo to %f", tb.BPM())
		}
	}
}

func TestSyncOnlyInAutomatic(t *testing.T) {
	clk := newFakeClock()
	tb := New(120, WithClock(clk.Now), WithMode(Manual))
	clk.Advance(time.Second)
	tb.Sync(90, clk.Now())
	if tb.BPM() != 120 {
		t.Fatalf("manual mode accepted sync: bpm = %f", tb.BPM())
	}

	if m := tb.ToggleMode(); m != Automatic {
		t.Fatalf("ToggleMode = %v, expected auto", m)
	}
	clk.Advance(100 * time.Millisecond) // 2.2 beats
	tb.Sync(90, clk.Now())
	if tb.BPM() != 90 {
		t.Errorf("bpm = %f, expected 90", tb.BPM())
	}
	if got := tb.Get(); got != 2000 {
		t.Errorf("Get after sync = %d, expected beat boundary 2000", got)
	}
}

func TestBPMClamped(t *testing.T) {
	tb := New(1000)
	if tb.BPM() != MaxBPM {
		t.Errorf("bpm = %f, expected %d", tb.BPM(), MaxBPM)
	}
	tb.SetBPM(1)
	if tb.BPM() != MinBPM {
		t.Errorf("bpm = %f, expected %d", tb.BPM(), MinBPM)
	}
}

func TestGetDoesNotTearUnderTaps(t *testing.T) {
	tb := New(120)
	var wg sync.WaitGroup
	stop := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				tb.Tap(0.5)
				tb.SetBPM(121)
			}
		}
	}()
	last := tb.Get()
	for i := 0; i < 10000; i++ {
		now := tb.Get()
		if now < last {
			t.Fatalf("beat time went backwards without realignment: %d -> %d", last, now)
		}
		last = now
	}
	close(stop)
	wg.Wait()
}

func TestMBeatPhase(t *testing.T) {
	tests := []struct {
		t    MBeat
		want float64
	}{
		{0, 0},
		{250, 0.25},
		{1750, 0.75},
		{-250, 0.75},
	}
	for _, tst := range tests {
		if got := tst.t.Phase(); got != tst.want {
			t.Errorf("MBeat(%d).Phase() = %f, expected %f", tst.t, got, tst.want)
		}
	}
}
