package engine

import (
	"fmt"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"

	"go-lumen/colormap"
	"go-lumen/debug"
	"go-lumen/patch"
	"go-lumen/timebase"
)

func notFound(format string, args ...any) error {
	return fault.New(fmt.Sprintf(format, args...), ftag.With(ftag.NotFound))
}

// The exported operations queue an event and report false once the engine
// has stopped. Failures end up in the debug log and on the status line.

// Tap feeds one tempo tap
func (e *Engine) Tap() bool {
	return e.Submit(e.tap)
}

// Align snaps the beat phase to the nearest beat
func (e *Engine) Align() bool {
	return e.Submit(e.align)
}

// ToggleMode flips between automatic and manual tempo
func (e *Engine) ToggleMode() bool {
	return e.Submit(func() {
		m := e.tb.ToggleMode()
		e.setStatus("tempo %s", m)
		debug.Log("engine", "mode %s", m)
	})
}

// NudgeBPM changes the tempo by delta
func (e *Engine) NudgeBPM(delta float64) bool {
	return e.Submit(func() { e.tb.SetBPM(e.tb.BPM() + delta) })
}

// LoadPattern replaces the contents of slot i with a fresh instance of the
// named pattern
func (e *Engine) LoadPattern(i int, name string) bool {
	return e.Submit(func() { e.report("slot", e.load(i, name)) })
}

// Unload empties slot i
func (e *Engine) Unload(i int) bool {
	return e.Submit(func() { e.report("slot", e.unload(i)) })
}

// Swap exchanges slots i and j
func (e *Engine) Swap(i, j int) bool {
	return e.Submit(func() { e.report("slot", e.swap(i, j)) })
}

// Command sends one gesture command from an input origin to a slot
func (e *Engine) Command(origin string, i int, cmd patch.Command) bool {
	return e.Submit(func() { e.report("slot", e.command(origin, i, cmd)) })
}

// BeginConnect marks a param as the target of the next source pick.
// Marking the same param again cancels.
func (e *Engine) BeginConnect(i, index int) bool {
	return e.Submit(func() { e.report("patch", e.beginConnect(i, index)) })
}

// ConnectPending binds the marked param to the named source
func (e *Engine) ConnectPending(source string) bool {
	return e.Submit(func() { e.report("patch", e.connectPending(source)) })
}

// Connect binds a param to the named source
func (e *Engine) Connect(i, index int, source string) bool {
	return e.Submit(func() { e.report("patch", e.connect(i, index, source)) })
}

// Disconnect unbinds a param
func (e *Engine) Disconnect(i, index int) bool {
	return e.Submit(func() { e.report("patch", e.disconnect(i, index)) })
}

// SelectPaletteTarget directs the next palette pick at slot i. Selecting
// the same slot twice clears its override.
func (e *Engine) SelectPaletteTarget(i int) bool {
	return e.Submit(func() { e.report("palette", e.selectPaletteTarget(i)) })
}

// ApplyPalette sets the named colormap on the palette target, or globally
func (e *Engine) ApplyPalette(name string) bool {
	return e.Submit(func() { e.report("palette", e.applyPalette(name)) })
}

// SetMono re-hues the mono colormap
func (e *Engine) SetMono(x float64) bool {
	return e.Submit(func() { e.setMono(x) })
}

func (e *Engine) tap() {
	e.tb.Tap(e.cfg.Timebase.TapAlpha)
	debug.Log("tempo", "tap: %.1f bpm", e.tb.BPM())
}

func (e *Engine) align() {
	e.tb.Align()
	debug.Log("tempo", "align")
}

func (e *Engine) load(i int, name string) error {
	p, ok := e.patterns.Lookup(name)
	if !ok {
		return notFound("no pattern %q", name)
	}
	if s := e.deck.Slot(i); s != nil && s.Loaded() {
		if err := e.unload(i); err != nil {
			return err
		}
	}
	e.releaseSlot(i)
	if err := e.deck.Load(i, p); err != nil {
		return err
	}
	e.setStatus("slot %d: %s", i, name)
	return nil
}

func (e *Engine) unload(i int) error {
	e.releaseSlot(i)
	return e.deck.Unload(i)
}

func (e *Engine) swap(i, j int) error {
	e.releaseSlot(i)
	e.releaseSlot(j)
	return e.deck.Swap(i, j)
}

// command routes cmd to slot i. Each origin drags at most one param: any
// command on another param stops the previous one at its live value.
func (e *Engine) command(origin string, i int, cmd patch.Command) error {
	r := e.ref(i, cmd.Index)
	if e.resolve(r) == nil {
		return notFound("slot %d has no param %d", i, cmd.Index)
	}

	if prev, ok := e.drags[origin]; ok && prev != r {
		e.endDrag(prev)
		delete(e.drags, origin)
	}
	switch cmd.Status {
	case patch.Start:
		e.drags[origin] = r
	case patch.Stop:
		delete(e.drags, origin)
	}
	return e.deck.Command(i, cmd)
}

// endDrag stops a still dragging param at its live value
func (e *Engine) endDrag(r ParamRef) {
	p := e.resolve(r)
	if p == nil || !p.Dragging() {
		return
	}
	if err := e.deck.Command(r.Slot, patch.Command{Index: r.Index, Status: patch.Stop, Value: p.Value()}); err != nil {
		debug.Log("slot", "end drag %d/%d: %v", r.Slot, r.Index, err)
	}
}

func (e *Engine) beginConnect(i, index int) error {
	r := e.ref(i, index)
	if e.resolve(r) == nil {
		return notFound("slot %d has no param %d", i, index)
	}
	if e.pending != nil && *e.pending == r {
		e.pending = nil
		return nil
	}
	e.pending = &r
	return nil
}

func (e *Engine) connectPending(source string) error {
	if e.pending == nil {
		return notFound("no param waiting for a source")
	}
	r := *e.pending
	e.pending = nil
	p := e.resolve(r)
	if p == nil {
		return notFound("param target went away")
	}
	return e.bind(p, r, source)
}

func (e *Engine) connect(i, index int, source string) error {
	r := e.ref(i, index)
	p := e.resolve(r)
	if p == nil {
		return notFound("slot %d has no param %d", i, index)
	}
	return e.bind(p, r, source)
}

func (e *Engine) bind(p *patch.Param, r ParamRef, source string) error {
	id, ok := e.graph.Find(source)
	if !ok {
		return notFound("no source %q", source)
	}
	e.graph.Connect(p, id)
	debug.Log("patch", "%d/%d <- %s", r.Slot, r.Index, source)
	e.setStatus("%d/%d follows %s", r.Slot, r.Index, source)
	return nil
}

func (e *Engine) disconnect(i, index int) error {
	p := e.resolve(e.ref(i, index))
	if p == nil {
		return notFound("slot %d has no param %d", i, index)
	}
	e.graph.Disconnect(p)
	return nil
}

func (e *Engine) selectPaletteTarget(i int) error {
	s := e.deck.Slot(i)
	if s == nil || !s.Loaded() {
		return notFound("slot %d is empty", i)
	}
	if cur, ok := e.paletteTarget(); ok && cur == i {
		e.palette = nil
		return e.deck.SetColormap(i, nil)
	}
	e.palette = &paletteRef{slot: i, gen: s.Generation()}
	return nil
}

func (e *Engine) applyPalette(name string) error {
	cm := colormap.Find(e.colormaps, name)
	if cm == nil {
		return notFound("no colormap %q", name)
	}
	if i, ok := e.paletteTarget(); ok {
		e.palette = nil
		if err := e.deck.SetColormap(i, cm); err != nil {
			return fault.Wrap(err, fmsg.With("apply palette"))
		}
		e.setStatus("slot %d: %s", i, name)
		return nil
	}
	e.palette = nil
	e.comp.SetGlobal(cm)
	e.cfg.UI.LastPalette = name
	e.setStatus("palette %s", name)
	return nil
}

func (e *Engine) setMono(x float64) {
	if x < 0 {
		x = 0
	}
	if x > 1 {
		x = 1
	}
	e.mono = x
	for _, cm := range e.colormaps {
		if cm.Name == "mono" {
			cm.SetMono(x)
		}
	}
}

// parseMode reads the saved form of a timebase mode
func parseMode(s string) (timebase.Mode, bool) {
	switch s {
	case timebase.Automatic.String(), "":
		return timebase.Automatic, true
	case timebase.Manual.String():
		return timebase.Manual, true
	}
	return 0, false
}
