package engine

import (
	"sort"

	"go-lumen/colormap"
	"go-lumen/patch"
	"go-lumen/timebase"
)

// ParamView is a copy of one param for display
type ParamView struct {
	Name     string
	Value    float64
	Source   string // empty when unpatched
	Dragging bool
	Pending  bool // waiting for a source pick
}

// SlotView is a copy of one slot for display
type SlotView struct {
	Index         int
	Pattern       string // empty when the slot is empty
	Params        []ParamView
	Alpha         ParamView
	Colormap      string // empty when following the global colormap
	PaletteTarget bool
	Generation    uint64
}

// Loaded reports whether the slot hosts a pattern
func (s SlotView) Loaded() bool { return s.Pattern != "" }

// SignalView is a copy of one signal for display
type SignalView struct {
	Name    string
	Color   [3]uint8
	Value   float64
	History []float64
}

// View is a consistent copy of the engine state for the UI
type View struct {
	BPM   float64
	Mode  timebase.Mode
	Beat  timebase.MBeat
	FPS   float64
	Frame uint64

	Slots       []SlotView
	Signals     []SignalView
	Sources     []string
	Patterns    []string
	Colormaps   []string
	Global      string
	Mono        float64
	Controllers []string
	Pending     bool

	// Preview holds PreviewW*PreviewH colors, row by row from the top
	Preview            []colormap.Color
	PreviewW, PreviewH int

	Status string
}

// View copies the engine state under the read lock
func (e *Engine) View() View {
	e.mu.RLock()
	defer e.mu.RUnlock()

	v := View{
		BPM:      e.tb.BPM(),
		Mode:     e.tb.Mode(),
		Beat:     e.beat,
		FPS:      e.fps,
		Frame:    e.frame,
		Patterns: e.patterns.Names(),
		Global:   e.comp.Global().Name,
		Mono:     e.mono,
		Preview:  append([]colormap.Color(nil), e.preview...),
		PreviewW: e.cfg.UI.PreviewWidth,
		PreviewH: e.cfg.UI.PreviewHeight,
		Status:   e.status,
	}

	var pending ParamRef
	if e.pending != nil && e.resolve(*e.pending) != nil {
		pending = *e.pending
		v.Pending = true
	}
	target, hasTarget := e.paletteTarget()

	v.Slots = make([]SlotView, e.deck.Len())
	for i := range v.Slots {
		s := e.deck.Slot(i)
		sv := SlotView{Index: i, Generation: s.Generation()}
		if s.Loaded() {
			sv.Pattern = s.Pattern.Name
			sv.Params = make([]ParamView, len(s.Params))
			for j, p := range s.Params {
				sv.Params[j] = e.paramView(s.Pattern.Params[j].Name, p)
				sv.Params[j].Pending = v.Pending && pending.Slot == i && pending.Index == j
			}
			sv.Alpha = e.paramView("alpha", s.Alpha)
			sv.Alpha.Pending = v.Pending && pending.Slot == i && pending.Index == patch.AlphaIndex
			if s.Colormap != nil {
				sv.Colormap = s.Colormap.Name
			}
			sv.PaletteTarget = hasTarget && target == i
		}
		v.Slots[i] = sv
	}

	v.Signals = make([]SignalView, len(e.signals))
	for i, s := range e.signals {
		v.Signals[i] = SignalView{
			Name:    s.Name(),
			Color:   s.Output.Color,
			Value:   s.Value(),
			History: s.History(),
		}
	}
	for _, id := range e.graph.Sources() {
		v.Sources = append(v.Sources, e.graph.Name(id))
	}
	for _, cm := range e.colormaps {
		v.Colormaps = append(v.Colormaps, cm.Name)
	}
	for id := range e.controllers {
		v.Controllers = append(v.Controllers, id)
	}
	sort.Strings(v.Controllers)
	return v
}

func (e *Engine) paramView(name string, p *patch.Param) ParamView {
	return ParamView{
		Name:     name,
		Value:    p.Value(),
		Source:   e.graph.Name(p.Source()),
		Dragging: p.Dragging(),
	}
}
