package config

import (
	"fmt"
	"strings"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
)

// invalid builds a configuration error
func invalid(format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	return fault.New(msg,
		ftag.With(ftag.InvalidArgument),
		fmsg.WithDesc("invalid configuration", msg))
}

// Validate checks the configuration for values the engine cannot run with
func (c *Config) Validate() error {
	switch {
	case c.Slots < 1:
		return invalid("slots must be at least 1, got %d", c.Slots)
	case c.UI.FPS < 1 || c.UI.FPS > 240:
		return invalid("ui.fps must be in [1, 240], got %d", c.UI.FPS)
	case c.UI.PreviewWidth < 1 || c.UI.PreviewHeight < 1:
		return invalid("preview size must be positive, got %dx%d", c.UI.PreviewWidth, c.UI.PreviewHeight)
	case c.Timebase.BPM <= 0:
		return invalid("timebase.bpm must be positive, got %g", c.Timebase.BPM)
	case c.Timebase.TapAlpha <= 0 || c.Timebase.TapAlpha > 1:
		return invalid("timebase.tapAlpha must be in (0, 1], got %g", c.Timebase.TapAlpha)
	case c.Timebase.MinTapMS <= 0 || c.Timebase.MinTapMS >= c.Timebase.MaxTapMS:
		return invalid("tap window must satisfy 0 < minTapMs < maxTapMs, got %d..%d", c.Timebase.MinTapMS, c.Timebase.MaxTapMS)
	case strings.Count(c.State.PathFormat, "%d") != 1:
		return invalid("state.pathFormat must contain exactly one %%d, got %q", c.State.PathFormat)
	case c.State.Count < 1:
		return invalid("state.count must be at least 1, got %d", c.State.Count)
	case c.MIDI.GestureTimeoutMS <= 0:
		return invalid("midi.gestureTimeoutMs must be positive, got %d", c.MIDI.GestureTimeoutMS)
	}

	seen := make(map[uint8]bool)
	for _, m := range c.MIDI.Controls {
		if m.CC > 127 {
			return invalid("midi control cc %d out of range", m.CC)
		}
		if seen[m.CC] {
			return invalid("midi cc %d mapped twice", m.CC)
		}
		seen[m.CC] = true
		if m.Slot < 0 || m.Slot >= c.Slots {
			return invalid("midi cc %d maps to slot %d, have %d slots", m.CC, m.Slot, c.Slots)
		}
		if m.Param < -1 {
			return invalid("midi cc %d maps to param %d", m.CC, m.Param)
		}
	}
	for _, n := range []int{c.MIDI.TapNote, c.MIDI.AlignNote} {
		if n < -1 || n > 127 {
			return invalid("midi note %d out of range", n)
		}
	}

	switch c.Audio.Source {
	case AudioCapture, AudioSynthetic, AudioNone:
	default:
		return invalid("audio.source must be capture, synthetic or none, got %q", c.Audio.Source)
	}
	if c.Audio.Source == AudioCapture && (c.Audio.SampleRate <= 0 || c.Audio.Frames <= 0) {
		return invalid("audio sample rate and frames must be positive")
	}
	if c.Audio.Source == AudioSynthetic && c.Audio.SyntheticBPM <= 0 {
		return invalid("audio.syntheticBpm must be positive")
	}
	return nil
}

var filterKinds = map[string]bool{"ema": true, "diode": true, "agc": true, "none": true, "": true}

// validateSignals checks the structure of a signal bank. Filter constants
// are checked when the filters are built.
func validateSignals(sigs []SignalConfig) error {
	names := make(map[string]bool)
	for i, s := range sigs {
		if s.Name == "" {
			return invalid("signal %d has no name", i)
		}
		if names[s.Name] {
			return invalid("signal %q defined twice", s.Name)
		}
		names[s.Name] = true
		if s.Input == "" {
			return invalid("signal %q has no input", s.Name)
		}
		if !filterKinds[s.Filter.Kind] {
			return invalid("signal %q: unknown filter kind %q", s.Name, s.Filter.Kind)
		}
	}
	return nil
}
