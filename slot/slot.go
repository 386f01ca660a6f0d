// Package slot is the deck of pattern slots. Each slot hosts at most one
// pattern instance with its params, and publishes every param as a patch
// output so other slots can follow it.
package slot

import (
	"fmt"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"

	"go-lumen/colormap"
	"go-lumen/debug"
	"go-lumen/patch"
	"go-lumen/pattern"
	"go-lumen/timebase"
)

var (
	ErrOccupied = fault.New("slot is occupied", ftag.With(ftag.AlreadyExists))
	ErrEmpty    = fault.New("slot is empty", ftag.With(ftag.NotFound))
	ErrRange    = fault.New("no such slot", ftag.With(ftag.InvalidArgument))
)

// Slot is one deck position
type Slot struct {
	Pattern  *pattern.Pattern
	Instance pattern.Instance
	Params   []*patch.Param
	Outputs  []patch.SourceID
	Alpha    *patch.Param
	Colormap *colormap.Colormap // nil uses the global colormap

	values []float64 // scratch for Instance.Update
	gen    uint64
}

// Loaded reports whether the slot hosts a pattern
func (s *Slot) Loaded() bool { return s.Pattern != nil }

// Generation changes on every load, unload and swap touching the slot
func (s *Slot) Generation() uint64 { return s.gen }

// Deck is the fixed row of slots. It is not safe for concurrent use; the
// engine serializes access.
type Deck struct {
	slots []Slot
	graph *patch.Graph
}

// NewDeck creates n empty slots whose param outputs live in graph
func NewDeck(n int, graph *patch.Graph) *Deck {
	return &Deck{slots: make([]Slot, n), graph: graph}
}

// Len is the number of slots
func (d *Deck) Len() int { return len(d.slots) }

// Slot returns slot i, or nil if i is out of range
func (d *Deck) Slot(i int) *Slot {
	if i < 0 || i >= len(d.slots) {
		return nil
	}
	return &d.slots[i]
}

// Generation returns the generation of slot i
func (d *Deck) Generation(i int) uint64 {
	if s := d.Slot(i); s != nil {
		return s.gen
	}
	return 0
}

func outputName(i int, param string) string {
	return fmt.Sprintf("%d.%s", i, param)
}

// Load instantiates p into the empty slot i with default params, unpatched
// and idle, and full alpha.
func (d *Deck) Load(i int, p *pattern.Pattern) error {
	s := d.Slot(i)
	if s == nil {
		return fault.Wrap(ErrRange, fmsg.With(fmt.Sprintf("load slot %d", i)))
	}
	if s.Loaded() {
		return fault.Wrap(ErrOccupied, fmsg.With(fmt.Sprintf("load slot %d", i)))
	}
	if p == nil || len(p.Params) == 0 {
		return fault.New("pattern has no parameters", ftag.With(ftag.InvalidArgument))
	}

	s.Pattern = p
	s.Instance = p.New()
	s.Params = make([]*patch.Param, len(p.Params))
	s.Outputs = make([]patch.SourceID, len(p.Params))
	s.values = make([]float64, len(p.Params))
	for j, pd := range p.Params {
		s.Params[j] = patch.NewParam(pd.Default)
		out := patch.NewOutput(outputName(i, pd.Name), [3]uint8{255, 255, 255})
		out.Set(s.Params[j].Value())
		s.Outputs[j] = d.graph.Register(out)
	}
	s.Alpha = patch.NewParam(1)
	s.Colormap = nil
	s.gen++

	debug.Log("slot", "load %d: %s", i, p.Name)
	return nil
}

// Unload releases slot i. Params anywhere that followed its outputs are
// unpatched first, then its own params drop their bindings.
func (d *Deck) Unload(i int) error {
	s := d.Slot(i)
	if s == nil {
		return fault.Wrap(ErrRange, fmsg.With(fmt.Sprintf("unload slot %d", i)))
	}
	if !s.Loaded() {
		return fault.Wrap(ErrEmpty, fmsg.With(fmt.Sprintf("unload slot %d", i)))
	}

	for _, id := range s.Outputs {
		d.graph.Remove(id)
	}
	d.graph.Forget(s.Params...)
	d.graph.Forget(s.Alpha)

	name := s.Pattern.Name
	gen := s.gen
	*s = Slot{gen: gen + 1}

	debug.Log("slot", "unload %d: %s", i, name)
	return nil
}

// Swap exchanges the contents of slots i and j. Params keep their bindings
// and move with the pattern; outputs are renamed to their new position.
func (d *Deck) Swap(i, j int) error {
	a, b := d.Slot(i), d.Slot(j)
	if a == nil || b == nil {
		return fault.Wrap(ErrRange, fmsg.With(fmt.Sprintf("swap slots %d and %d", i, j)))
	}
	if i == j {
		return nil
	}

	ga, gb := a.gen, b.gen
	*a, *b = *b, *a
	a.gen, b.gen = ga+1, gb+1
	d.rename(i)
	d.rename(j)

	debug.Log("slot", "swap %d <-> %d", i, j)
	return nil
}

func (d *Deck) rename(i int) {
	s := &d.slots[i]
	if !s.Loaded() {
		return
	}
	for k, id := range s.Outputs {
		if out, ok := d.graph.Lookup(id); ok {
			out.Name = outputName(i, s.Pattern.Params[k].Name)
		}
	}
}

// Command sends one gesture command to slot i. Instances implementing
// pattern.Commander handle it themselves.
func (d *Deck) Command(i int, cmd patch.Command) error {
	s := d.Slot(i)
	if s == nil {
		return fault.Wrap(ErrRange, fmsg.With(fmt.Sprintf("command slot %d", i)))
	}
	if !s.Loaded() {
		return fault.Wrap(ErrEmpty, fmsg.With(fmt.Sprintf("command slot %d", i)))
	}

	var ok bool
	if c, is := s.Instance.(pattern.Commander); is {
		ok = c.Command(cmd, s.Params, s.Alpha)
	} else {
		ok = patch.ApplyCommand(s.Params, s.Alpha, cmd)
	}
	if !ok {
		return fault.New(fmt.Sprintf("slot %d has no param %d", i, cmd.Index), ftag.With(ftag.InvalidArgument))
	}
	return nil
}

// Param returns param j of slot i (patch.AlphaIndex for alpha), or nil
func (d *Deck) Param(i, j int) *patch.Param {
	s := d.Slot(i)
	if s == nil || !s.Loaded() {
		return nil
	}
	if j == patch.AlphaIndex {
		return s.Alpha
	}
	if j < 0 || j >= len(s.Params) {
		return nil
	}
	return s.Params[j]
}

// SetColormap overrides the colormap of slot i; nil restores the global one
func (d *Deck) SetColormap(i int, cm *colormap.Colormap) error {
	s := d.Slot(i)
	if s == nil {
		return fault.Wrap(ErrRange, fmsg.With(fmt.Sprintf("colormap slot %d", i)))
	}
	if !s.Loaded() {
		return fault.Wrap(ErrEmpty, fmsg.With(fmt.Sprintf("colormap slot %d", i)))
	}
	s.Colormap = cm
	return nil
}

// Update runs every loaded instance for beat t. The patch graph must have
// been pulled first. Param outputs are refreshed afterwards so they carry
// this frame's values.
func (d *Deck) Update(t timebase.MBeat) {
	for i := range d.slots {
		s := &d.slots[i]
		if !s.Loaded() {
			continue
		}
		for j, p := range s.Params {
			s.values[j] = p.Value()
		}
		s.Instance.Update(t, s.values)
		for j, id := range s.Outputs {
			if out, ok := d.graph.Lookup(id); ok {
				out.Set(s.values[j])
			}
		}
	}
}

// Layer is the compositor's read-only view of a slot
type Layer struct {
	Instance pattern.Instance
	Scalar   bool
	Alpha    float64
	Colormap *colormap.Colormap
}

// Layers returns the loaded slots in deck order
func (d *Deck) Layers() []Layer {
	layers := make([]Layer, 0, len(d.slots))
	for i := range d.slots {
		s := &d.slots[i]
		if !s.Loaded() {
			continue
		}
		layers = append(layers, Layer{
			Instance: s.Instance,
			Scalar:   s.Pattern.Scalar,
			Alpha:    s.Alpha.Value(),
			Colormap: s.Colormap,
		})
	}
	return layers
}
