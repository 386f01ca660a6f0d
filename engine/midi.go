package engine

import (
	"context"
	"fmt"
	"time"

	"go-lumen/debug"
	"go-lumen/midi"
	"go-lumen/patch"
	"go-lumen/timebase"
)

// gesture is a fader or knob movement in progress. Controllers send no
// release, so the gesture ends once the control has been still for the
// configured timeout.
type gesture struct {
	origin string
	ref    ParamRef
	value  float64
	last   time.Time
}

// AttachController feeds a controller's events into the engine until the
// controller closes or ctx is done
func (e *Engine) AttachController(ctx context.Context, c midi.Controller) {
	id := c.ID()
	e.mu.Lock()
	e.controllers[id] = c
	e.mu.Unlock()
	debug.Log("midi", "attach %s", id)

	go func() {
		defer e.detach(id)
		controls, notes := c.Controls(), c.Notes()
		for {
			select {
			case <-ctx.Done():
				return
			case <-e.done:
				return
			case ev, ok := <-controls:
				if !ok {
					return
				}
				e.post(func() { e.controlChange(ev) }, true)
			case ev, ok := <-notes:
				if !ok {
					return
				}
				e.Submit(func() { e.note(ev) })
			}
		}
	}()
}

func (e *Engine) detach(id string) {
	e.mu.Lock()
	delete(e.controllers, id)
	e.mu.Unlock()
	debug.Log("midi", "detach %s", id)
}

// controlChange maps a CC onto a slot param. The first message of a
// movement starts a gesture, later ones change it while the param is still
// being dragged.
func (e *Engine) controlChange(ev midi.ControlEvent) {
	m, ok := e.cfg.ControlFor(ev.CC)
	if !ok {
		debug.LogEvery(50, "midi", "unmapped cc %d", ev.CC)
		return
	}
	key := fmt.Sprintf("midi:%s:%d", ev.Controller, ev.CC)
	v := ev.Normalized()
	r := e.ref(m.Slot, m.Param)

	// another origin may have ended the drag since the last message
	status := patch.Change
	g, active := e.gestures[key]
	if p := e.resolve(r); !active || g.ref != r || p == nil || !p.Dragging() {
		status = patch.Start
		g = &gesture{origin: key, ref: r}
		e.gestures[key] = g
	}
	g.value = v
	g.last = ev.At
	if g.last.IsZero() {
		g.last = e.now()
	}

	if err := e.command(key, m.Slot, patch.Command{Index: m.Param, Status: status, Value: v}); err != nil {
		delete(e.gestures, key)
		debug.LogEvery(50, "midi", "cc %d: %v", ev.CC, err)
	}
}

// expireGestures stops every gesture idle for longer than the timeout
func (e *Engine) expireGestures(now time.Time) {
	timeout := e.cfg.MIDI.GestureTimeout()
	for key, g := range e.gestures {
		if now.Sub(g.last) < timeout {
			continue
		}
		delete(e.gestures, key)
		if e.resolve(g.ref) == nil {
			continue
		}
		cmd := patch.Command{Index: g.ref.Index, Status: patch.Stop, Value: g.value}
		if err := e.command(g.origin, g.ref.Slot, cmd); err != nil {
			debug.Log("midi", "end gesture: %v", err)
		}
	}
}

func (e *Engine) note(ev midi.NoteEvent) {
	if !ev.On {
		return
	}
	switch int(ev.Note) {
	case e.cfg.MIDI.TapNote:
		e.tap()
	case e.cfg.MIDI.AlignNote:
		e.align()
	default:
		debug.Log("midi", "note %d ignored", ev.Note)
	}
}

// beatLight flashes the tap pad for the first quarter of every beat
func (e *Engine) beatLight(t timebase.MBeat) {
	if len(e.controllers) == 0 {
		return
	}
	on := t.Phase() < 0.25
	if on == e.lit {
		return
	}
	e.lit = on
	for id, c := range e.controllers {
		if err := c.Light(uint8(e.cfg.MIDI.TapNote), on); err != nil {
			debug.LogEvery(100, "midi", "%s: light: %v", id, err)
		}
	}
}
