package audio

import (
	"math"
	"sort"
	"sync"
	"time"
)

const (
	lowCutoff  = 250.0  // Hz
	highCutoff = 4000.0 // Hz

	onsetRatio    = 2.0
	onsetFloor    = 0.01
	onsetAvg      = 0.05 // weight of each buffer in the running level average
	onsetHoldoff  = 100 * time.Millisecond
	maxIntervals  = 8
	minIntervals  = 3
	minBeatPeriod = 200 * time.Millisecond
	maxBeatPeriod = 3 * time.Second
	foldLow       = 70.0
	foldHigh      = 140.0
)

// Analyzer splits mono input into three bands with one-pole filters, tracks
// their RMS per buffer, and estimates tempo from level onsets. Process is
// called from the audio callback; Frame and Tempo from the engine.
type Analyzer struct {
	mu sync.Mutex

	rate   float64
	kLow   float64
	kHigh  float64
	lpLow  float64
	lpHigh float64

	frame   Frame
	onset   bool
	avg     float64
	samples int64
	start   time.Time

	lastOnset time.Time
	intervals []time.Duration
	bpm       float64
	beatAt    time.Time
}

// coeff is the one-pole smoothing weight for a cutoff frequency
func coeff(cutoff, rate float64) float64 {
	return 1 - math.Exp(-2*math.Pi*cutoff/rate)
}

// NewAnalyzer creates an analyzer for the given sample rate. Onset times are
// measured in samples from start.
func NewAnalyzer(sampleRate float64, start time.Time) *Analyzer {
	return &Analyzer{
		rate:  sampleRate,
		kLow:  coeff(lowCutoff, sampleRate),
		kHigh: coeff(highCutoff, sampleRate),
		start: start,
	}
}

// Process consumes one buffer of samples
func (a *Analyzer) Process(in []float32) {
	if len(in) == 0 {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	var sumAll, sumLow, sumMid, sumHigh float64
	for _, s := range in {
		x := float64(s)
		a.lpLow += a.kLow * (x - a.lpLow)
		a.lpHigh += a.kHigh * (x - a.lpHigh)
		low := a.lpLow
		mid := a.lpHigh - a.lpLow
		high := x - a.lpHigh
		sumAll += x * x
		sumLow += low * low
		sumMid += mid * mid
		sumHigh += high * high
	}
	n := float64(len(in))
	a.frame.Level = math.Sqrt(sumAll / n)
	a.frame.Low = math.Sqrt(sumLow / n)
	a.frame.Mid = math.Sqrt(sumMid / n)
	a.frame.High = math.Sqrt(sumHigh / n)

	at := a.start.Add(time.Duration(float64(a.samples) / a.rate * float64(time.Second)))
	a.samples += int64(len(in))

	level := a.frame.Level
	if level > onsetRatio*a.avg+onsetFloor && (a.lastOnset.IsZero() || at.Sub(a.lastOnset) >= onsetHoldoff) {
		a.detect(at)
	}
	a.avg += onsetAvg * (level - a.avg)
}

// detect records an onset at time at and refreshes the tempo estimate
func (a *Analyzer) detect(at time.Time) {
	a.onset = true
	if !a.lastOnset.IsZero() {
		d := at.Sub(a.lastOnset)
		if d >= minBeatPeriod && d <= maxBeatPeriod {
			a.intervals = append(a.intervals, d)
			if len(a.intervals) > maxIntervals {
				a.intervals = a.intervals[1:]
			}
		} else if d > maxBeatPeriod {
			a.intervals = a.intervals[:0]
		}
	}
	a.lastOnset = at

	if len(a.intervals) < minIntervals {
		return
	}
	sorted := make([]time.Duration, len(a.intervals))
	copy(sorted, a.intervals)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	period := sorted[len(sorted)/2]

	bpm := 60 / period.Seconds()
	for bpm < foldLow {
		bpm *= 2
	}
	for bpm >= foldHigh {
		bpm /= 2
	}
	a.bpm = bpm
	a.beatAt = at
}

// Frame returns the latest levels and clears the onset latch
func (a *Analyzer) Frame() Frame {
	a.mu.Lock()
	defer a.mu.Unlock()
	f := a.frame
	if a.onset {
		f.Onset = 1
		a.onset = false
	}
	return f
}

// Tempo returns the tempo estimate and the time of the last onset used
func (a *Analyzer) Tempo() (float64, time.Time, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.bpm == 0 {
		return 0, time.Time{}, false
	}
	return a.bpm, a.beatAt, true
}
