package midi

import (
	"time"

	"go-lumen/config"
)

// ControlEvent is a CC message from a knob or fader
type ControlEvent struct {
	Controller string
	Channel    uint8
	CC         uint8
	Value      uint8
	At         time.Time
}

// Normalized maps the 7-bit value onto [0,1]
func (e ControlEvent) Normalized() float64 {
	return float64(e.Value) / 127
}

// NoteEvent is a pad or key press (On) or release
type NoteEvent struct {
	Controller string
	Channel    uint8
	Note       uint8
	Velocity   uint8
	On         bool
}

// Controller is the interface for MIDI input devices
type Controller interface {
	ID() string
	Type() config.ControllerType

	// Input events from the controller
	Controls() <-chan ControlEvent
	Notes() <-chan NoteEvent

	// Light turns a pad LED on or off; a no-op for devices without output
	Light(note uint8, on bool) error

	// Lifecycle
	Close() error
}
