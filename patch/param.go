// Package patch binds automatable parameters to live outputs, like patch
// cables on a modular synth. A Param follows at most one Output; manual
// gestures override the cable while they last.
package patch

// Status is the phase of a manual gesture
type Status int

const (
	Start Status = iota
	Change
	Stop
)

func (s Status) String() string {
	switch s {
	case Start:
		return "start"
	case Change:
		return "change"
	case Stop:
		return "stop"
	}
	return "?"
}

// Command is one gesture step aimed at a parameter. Value is normalized.
type Command struct {
	Index  int
	Status Status
	Value  float64
}

// AlphaIndex addresses a slot's alpha instead of a pattern parameter
const AlphaIndex = -1

// Gesture is the per-parameter drag state
type Gesture int

const (
	Idle Gesture = iota
	Dragging
)

// Param is an automatable value in [0,1]
type Param struct {
	value float64
	def   float64

	gesture Gesture
	start   float64 // value when the drag began
	live    float64 // value under the pointer while dragging

	source SourceID
}

// NewParam creates an idle, unpatched param at its default
func NewParam(def float64) *Param {
	def = clamp01(def)
	return &Param{value: def, def: def}
}

func clamp01(v float64) float64 {
	if !(v > 0) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Value is the value patterns see this frame
func (p *Param) Value() float64 {
	if p.gesture == Dragging {
		return p.live
	}
	return p.value
}

// Default is the value the param was created with
func (p *Param) Default() float64 { return p.def }

// Set assigns the manual value directly (no gesture)
func (p *Param) Set(v float64) { p.value = clamp01(v) }

// Source is the bound output, or the zero SourceID
func (p *Param) Source() SourceID { return p.source }

// Gesture returns the drag state
func (p *Param) Gesture() Gesture { return p.gesture }

// Dragging reports whether a manual gesture is in progress
func (p *Param) Dragging() bool { return p.gesture == Dragging }

// DragStart is the value the current gesture started from
func (p *Param) DragStart() float64 { return p.start }

// Apply runs one step of the gesture state machine:
//
//	Idle     --Start(v)-->  Dragging
//	Dragging --Change(v)--> Dragging
//	Dragging --Stop(v)-->   Idle, value = v
//
// Stop while idle sets the value; Change while idle is dropped.
func (p *Param) Apply(status Status, v float64) {
	v = clamp01(v)
	switch status {
	case Start:
		p.start = p.Value()
		p.live = v
		p.gesture = Dragging
	case Change:
		if p.gesture == Dragging {
			p.live = v
		}
	case Stop:
		p.value = v
		p.live = v
		p.gesture = Idle
	}
}

// Cancel ends a gesture at its current live value. No-op when idle.
func (p *Param) Cancel() {
	if p.gesture == Dragging {
		p.Apply(Stop, p.live)
	}
}

// ApplyCommand is the default command handler for a parameter vector.
// Index AlphaIndex is routed to alpha.
func ApplyCommand(params []*Param, alpha *Param, cmd Command) bool {
	var p *Param
	switch {
	case cmd.Index == AlphaIndex:
		p = alpha
	case cmd.Index >= 0 && cmd.Index < len(params):
		p = params[cmd.Index]
	}
	if p == nil {
		return false
	}
	p.Apply(cmd.Status, cmd.Value)
	return true
}
