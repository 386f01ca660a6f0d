package engine

import (
	"go-lumen/patch"
)

// ParamRef addresses one param of a slot (patch.AlphaIndex for alpha). It
// only resolves while the slot keeps the generation it had when the ref was
// taken.
type ParamRef struct {
	Slot  int
	Index int
	gen   uint64
}

// paletteRef is the slot whose colormap the next palette pick overrides
type paletteRef struct {
	slot int
	gen  uint64
}

func (e *Engine) ref(slot, index int) ParamRef {
	return ParamRef{Slot: slot, Index: index, gen: e.deck.Generation(slot)}
}

// resolve returns the param behind r, or nil once the slot has mutated
func (e *Engine) resolve(r ParamRef) *patch.Param {
	if e.deck.Generation(r.Slot) != r.gen {
		return nil
	}
	return e.deck.Param(r.Slot, r.Index)
}

func (e *Engine) paletteTarget() (int, bool) {
	if e.palette == nil || e.deck.Generation(e.palette.slot) != e.palette.gen {
		return 0, false
	}
	return e.palette.slot, true
}

// releaseSlot ends every gesture on slot i and drops the engine's references
// to it. It runs before the slot is unloaded or swapped.
func (e *Engine) releaseSlot(i int) {
	for origin, r := range e.drags {
		if r.Slot != i {
			continue
		}
		if p := e.resolve(r); p != nil {
			p.Cancel()
		}
		delete(e.drags, origin)
	}
	for key, g := range e.gestures {
		if g.ref.Slot == i {
			delete(e.gestures, key)
		}
	}
	if e.pending != nil && e.pending.Slot == i {
		e.pending = nil
	}
	if e.palette != nil && e.palette.slot == i {
		e.palette = nil
	}
}

// releaseAll drops every reference into the deck
func (e *Engine) releaseAll() {
	for i := 0; i < e.deck.Len(); i++ {
		e.releaseSlot(i)
	}
}
