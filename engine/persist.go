package engine

import (
	"fmt"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"

	"go-lumen/colormap"
	"go-lumen/debug"
	"go-lumen/patch"
	"go-lumen/pattern"
	"go-lumen/state"
)

// SaveState writes the current performance to state slot i
func (e *Engine) SaveState(i int) bool {
	return e.Submit(func() {
		if err := e.saveState(i); err != nil {
			e.report("state", err)
			return
		}
		e.setStatus("saved state %d", i)
	})
}

// LoadState restores state slot i. A state that fails to load leaves the
// running performance untouched.
func (e *Engine) LoadState(i int) bool {
	return e.Submit(func() {
		if err := e.loadState(i); err != nil {
			e.report("state", err)
			return
		}
		e.setStatus("loaded state %d", i)
	})
}

// Saves lists the state files on disk
func (e *Engine) Saves() []state.SaveInfo {
	return state.List(e.cfg.StatePath(), e.cfg.State.Count)
}

func (e *Engine) statePath(i int) (string, error) {
	if i < 0 || i >= e.cfg.State.Count {
		return "", fault.New(fmt.Sprintf("no state slot %d", i), ftag.With(ftag.InvalidArgument))
	}
	return state.Path(e.cfg.StatePath(), i), nil
}

func (e *Engine) snapshot() *state.Snapshot {
	snap := &state.Snapshot{
		BPM:      e.tb.BPM(),
		Mode:     e.tb.Mode().String(),
		Colormap: e.comp.Global().Name,
		Mono:     e.mono,
		Slots:    make([]state.SlotState, e.deck.Len()),
	}
	for i := range snap.Slots {
		s := e.deck.Slot(i)
		if !s.Loaded() {
			continue
		}
		ss := state.SlotState{
			Pattern: s.Pattern.Name,
			Params:  make([]state.ParamState, len(s.Params)),
			Alpha:   e.paramState(s.Alpha),
		}
		for j, p := range s.Params {
			ss.Params[j] = e.paramState(p)
		}
		if s.Colormap != nil {
			ss.Colormap = s.Colormap.Name
		}
		snap.Slots[i] = ss
	}
	return snap
}

func (e *Engine) paramState(p *patch.Param) state.ParamState {
	return state.ParamState{Value: p.Value(), Source: e.graph.Name(p.Source())}
}

func (e *Engine) saveState(i int) error {
	path, err := e.statePath(i)
	if err != nil {
		return err
	}
	if err := state.Save(path, e.snapshot()); err != nil {
		return err
	}
	debug.Log("state", "saved %s", path)
	return nil
}

// resolved is a snapshot whose names have all been looked up
type resolved struct {
	snap     *state.Snapshot
	global   *colormap.Colormap
	patterns []*pattern.Pattern
	maps     []*colormap.Colormap
}

func invalidState(format string, args ...any) error {
	return fault.New(fmt.Sprintf(format, args...), ftag.With(ftag.InvalidArgument))
}

// resolveSnapshot checks every name in snap against what the engine has, so that
// applying it cannot fail halfway
func (e *Engine) resolveSnapshot(snap *state.Snapshot) (*resolved, error) {
	if len(snap.Slots) > e.deck.Len() {
		return nil, invalidState("state has %d slots, deck has %d", len(snap.Slots), e.deck.Len())
	}
	if _, ok := parseMode(snap.Mode); !ok {
		return nil, invalidState("unknown tempo mode %q", snap.Mode)
	}

	r := &resolved{
		snap:     snap,
		global:   e.comp.Global(),
		patterns: make([]*pattern.Pattern, len(snap.Slots)),
		maps:     make([]*colormap.Colormap, len(snap.Slots)),
	}
	if snap.Colormap != "" {
		if r.global = colormap.Find(e.colormaps, snap.Colormap); r.global == nil {
			return nil, notFound("no colormap %q", snap.Colormap)
		}
	}

	// sources that will exist once the state is applied
	sources := make(map[string]bool)
	for _, s := range e.signals {
		sources[s.Name()] = true
	}
	for i, ss := range snap.Slots {
		if ss.Pattern == "" {
			continue
		}
		p, ok := e.patterns.Lookup(ss.Pattern)
		if !ok {
			return nil, notFound("slot %d: no pattern %q", i, ss.Pattern)
		}
		if len(ss.Params) != len(p.Params) {
			return nil, invalidState("slot %d: %s takes %d params, state has %d",
				i, p.Name, len(p.Params), len(ss.Params))
		}
		r.patterns[i] = p
		for _, pd := range p.Params {
			sources[fmt.Sprintf("%d.%s", i, pd.Name)] = true
		}
		if ss.Colormap != "" {
			if r.maps[i] = colormap.Find(e.colormaps, ss.Colormap); r.maps[i] == nil {
				return nil, notFound("slot %d: no colormap %q", i, ss.Colormap)
			}
		}
	}
	for i, ss := range snap.Slots {
		for _, ps := range append([]state.ParamState{ss.Alpha}, ss.Params...) {
			if ps.Source != "" && !sources[ps.Source] {
				return nil, notFound("slot %d: no source %q", i, ps.Source)
			}
		}
	}
	return r, nil
}

func (e *Engine) loadState(i int) error {
	path, err := e.statePath(i)
	if err != nil {
		return err
	}
	snap, err := state.Load(path)
	if err != nil {
		return err
	}
	r, err := e.resolveSnapshot(snap)
	if err != nil {
		return fault.Wrap(err, fmsg.With("load "+path))
	}
	e.apply(r)
	debug.Log("state", "loaded %s", path)
	return nil
}

// apply replaces the running performance with a resolved snapshot
func (e *Engine) apply(r *resolved) {
	e.releaseAll()
	for i := 0; i < e.deck.Len(); i++ {
		if e.deck.Slot(i).Loaded() {
			if err := e.deck.Unload(i); err != nil {
				debug.Log("state", "unload slot %d: %v", i, err)
			}
		}
	}

	for i, p := range r.patterns {
		if p == nil {
			continue
		}
		if err := e.deck.Load(i, p); err != nil {
			debug.Log("state", "load slot %d: %v", i, err)
			continue
		}
		s := e.deck.Slot(i)
		ss := r.snap.Slots[i]
		for j, ps := range ss.Params {
			s.Params[j].Set(ps.Value)
		}
		s.Alpha.Set(ss.Alpha.Value)
		if err := e.deck.SetColormap(i, r.maps[i]); err != nil {
			debug.Log("state", "colormap slot %d: %v", i, err)
		}
	}

	// bind once every slot output exists
	for i, p := range r.patterns {
		if p == nil {
			continue
		}
		s := e.deck.Slot(i)
		if s == nil || !s.Loaded() {
			continue
		}
		ss := r.snap.Slots[i]
		e.rebind(s.Alpha, ss.Alpha.Source)
		for j, ps := range ss.Params {
			e.rebind(s.Params[j], ps.Source)
		}
	}

	mode, _ := parseMode(r.snap.Mode)
	e.tb.SetMode(mode)
	if r.snap.BPM > 0 {
		e.tb.SetBPM(r.snap.BPM)
	}
	e.comp.SetGlobal(r.global)
	e.setMono(r.snap.Mono)
}

func (e *Engine) rebind(p *patch.Param, source string) {
	if source == "" {
		return
	}
	if id, ok := e.graph.Find(source); ok {
		e.graph.Connect(p, id)
	}
}
