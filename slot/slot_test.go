package slot

import (
	"errors"
	"testing"

	"go-lumen/colormap"
	"go-lumen/patch"
	"go-lumen/pattern"
	"go-lumen/timebase"
)

type recorder struct {
	updates int
	last    []float64
}

func (r *recorder) Update(t timebase.MBeat, p []float64) {
	r.updates++
	r.last = append(r.last[:0], p...)
}

func (r *recorder) Render(x, y float32) colormap.Color { return colormap.Gray(0) }

var three = &pattern.Pattern{
	Name:   "three",
	Params: []pattern.ParamDef{{Name: "a", Default: 0.1}, {Name: "b", Default: 0.5}, {Name: "c", Default: 0.9}},
	New:    func() pattern.Instance { return &recorder{} },
}

var one = &pattern.Pattern{
	Name:   "one",
	Params: []pattern.ParamDef{{Name: "x", Default: 0.3}},
	Scalar: true,
	New:    func() pattern.Instance { return &recorder{} },
}

func newDeck() (*Deck, *patch.Graph) {
	g := patch.NewGraph()
	return NewDeck(8, g), g
}

func TestLoadDefaults(t *testing.T) {
	d, g := newDeck()
	if err := d.Load(0, three); err != nil {
		t.Fatal(err)
	}
	s := d.Slot(0)
	want := []float64{0.1, 0.5, 0.9}
	if len(s.Params) != len(want) {
		t.Fatalf("params = %d", len(s.Params))
	}
	for i, p := range s.Params {
		if p.Value() != want[i] || !p.Source().IsNone() || p.Dragging() {
			t.Errorf("param %d: value=%f source=%v dragging=%v", i, p.Value(), p.Source(), p.Dragging())
		}
	}
	if s.Alpha.Value() != 1 {
		t.Errorf("alpha = %f", s.Alpha.Value())
	}
	if len(g.Sources()) != 3 {
		t.Errorf("graph has %d outputs, expected 3", len(g.Sources()))
	}
	if _, ok := g.Find("0.b"); !ok {
		t.Error("output 0.b not registered")
	}
}

func TestLoadOccupied(t *testing.T) {
	d, _ := newDeck()
	d.Load(2, three)
	err := d.Load(2, one)
	if !errors.Is(err, ErrOccupied) {
		t.Errorf("err = %v, expected ErrOccupied", err)
	}
	if d.Slot(2).Pattern != three {
		t.Error("occupied slot was replaced")
	}
	if !errors.Is(d.Load(8, one), ErrRange) {
		t.Error("load out of range accepted")
	}
}

func TestUnload(t *testing.T) {
	d, g := newDeck()
	d.Load(1, three)
	gen := d.Generation(1)
	if err := d.Unload(1); err != nil {
		t.Fatal(err)
	}
	s := d.Slot(1)
	if s.Loaded() || s.Instance != nil || s.Params != nil || s.Alpha != nil || s.Colormap != nil {
		t.Errorf("slot not cleared: %+v", s)
	}
	if d.Generation(1) == gen {
		t.Error("generation not bumped")
	}
	if len(g.Sources()) != 0 {
		t.Errorf("outputs left in graph: %d", len(g.Sources()))
	}
	if !errors.Is(d.Unload(1), ErrEmpty) {
		t.Error("unload of empty slot accepted")
	}
}

func TestUnloadInvalidatesFollowers(t *testing.T) {
	d, g := newDeck()
	d.Load(0, three)
	d.Load(1, one)

	src, _ := g.Find("0.c")
	follower := d.Param(1, 0)
	g.Connect(follower, src)
	g.Pull()
	if follower.Value() != 0.9 {
		t.Fatalf("follower = %f, expected 0.9", follower.Value())
	}

	// slot 0 follows itself through 0.a to check its own bindings are dropped
	self, _ := g.Find("0.a")
	g.Connect(d.Param(0, 1), self)

	d.Unload(0)
	if !follower.Source().IsNone() {
		t.Error("follower still bound to unloaded slot")
	}
	if follower.Value() != 0.9 {
		t.Errorf("follower lost its value: %f", follower.Value())
	}
	if g.Len() != 0 {
		t.Errorf("graph still holds %d bindings", g.Len())
	}
}

func TestSwap(t *testing.T) {
	d, g := newDeck()
	d.Load(0, three)
	d.Load(1, one)
	d.Command(0, patch.Command{Index: patch.AlphaIndex, Status: patch.Stop, Value: 0.7})
	d.Command(1, patch.Command{Index: patch.AlphaIndex, Status: patch.Stop, Value: 0.2})
	g0, g1 := d.Generation(0), d.Generation(1)

	if err := d.Swap(0, 1); err != nil {
		t.Fatal(err)
	}
	a, b := d.Slot(0), d.Slot(1)
	if a.Pattern != one || b.Pattern != three {
		t.Fatalf("patterns not swapped: %s %s", a.Pattern.Name, b.Pattern.Name)
	}
	if a.Alpha.Value() != 0.2 || b.Alpha.Value() != 0.7 {
		t.Errorf("alphas = %f %f, expected 0.2 0.7", a.Alpha.Value(), b.Alpha.Value())
	}
	if len(a.Params) != 1 || len(b.Params) != 3 {
		t.Errorf("param counts = %d %d", len(a.Params), len(b.Params))
	}
	if d.Generation(0) == g0 || d.Generation(1) == g1 {
		t.Error("generations not bumped")
	}
	if _, ok := g.Find("1.c"); !ok {
		t.Error("moved output not renamed to 1.c")
	}
	if _, ok := g.Find("0.x"); !ok {
		t.Error("moved output not renamed to 0.x")
	}
}

func TestSwapWithEmpty(t *testing.T) {
	d, g := newDeck()
	d.Load(3, one)
	d.Swap(3, 5)
	if d.Slot(3).Loaded() || !d.Slot(5).Loaded() {
		t.Fatal("swap with empty slot did not move the pattern")
	}
	if _, ok := g.Find("5.x"); !ok {
		t.Error("output not renamed")
	}
	if !errors.Is(d.Swap(0, 9), ErrRange) {
		t.Error("swap out of range accepted")
	}
}

func TestSwapKeepsBindings(t *testing.T) {
	d, g := newDeck()
	d.Load(0, three)
	d.Load(1, one)
	src, _ := g.Find("0.a")
	p := d.Param(1, 0)
	g.Connect(p, src)

	d.Swap(0, 1)
	if d.Param(0, 0) != p {
		t.Fatal("param did not move")
	}
	if p.Source() != src || g.Name(src) != "1.a" {
		t.Errorf("binding lost or output not renamed: %v %q", p.Source(), g.Name(src))
	}
}

func TestCommand(t *testing.T) {
	d, _ := newDeck()
	if !errors.Is(d.Command(0, patch.Command{}), ErrEmpty) {
		t.Error("command on empty slot accepted")
	}
	d.Load(0, three)
	if err := d.Command(0, patch.Command{Index: 2, Status: patch.Stop, Value: 0.25}); err != nil {
		t.Fatal(err)
	}
	if v := d.Param(0, 2).Value(); v != 0.25 {
		t.Errorf("param = %f", v)
	}
	if err := d.Command(0, patch.Command{Index: 3, Status: patch.Stop}); err == nil {
		t.Error("command on missing param accepted")
	}
}

func TestCommandGoesToCommander(t *testing.T) {
	d, _ := newDeck()
	d.Load(0, pattern.Strobe)
	if err := d.Command(0, patch.Command{Index: 0, Status: patch.Start, Value: 0.6}); err != nil {
		t.Fatal(err)
	}
	if !d.Param(0, 0).Dragging() {
		t.Error("strobe did not forward the command to its params")
	}
}

func TestUpdate(t *testing.T) {
	d, g := newDeck()
	d.Load(4, three)
	d.Command(4, patch.Command{Index: 0, Status: patch.Stop, Value: 0.6})
	d.Update(0)

	rec := d.Slot(4).Instance.(*recorder)
	if rec.updates != 1 {
		t.Errorf("updates = %d", rec.updates)
	}
	if rec.last[0] != 0.6 || rec.last[2] != 0.9 {
		t.Errorf("values = %v", rec.last)
	}
	id, _ := g.Find("4.a")
	if out, _ := g.Lookup(id); out.Value() != 0.6 {
		t.Errorf("output 4.a = %f", out.Value())
	}
}

func TestLayers(t *testing.T) {
	d, _ := newDeck()
	d.Load(5, one)
	d.Load(2, three)
	fire := colormap.Find(colormap.Builtin(), "fire")
	d.SetColormap(5, fire)
	d.Command(2, patch.Command{Index: patch.AlphaIndex, Status: patch.Stop, Value: 0.5})

	layers := d.Layers()
	if len(layers) != 2 {
		t.Fatalf("layers = %d", len(layers))
	}
	if layers[0].Alpha != 0.5 || layers[0].Scalar {
		t.Errorf("layer 0 = %+v", layers[0])
	}
	if layers[1].Colormap != fire || !layers[1].Scalar {
		t.Errorf("layer 1 = %+v", layers[1])
	}
	if !errors.Is(d.SetColormap(0, fire), ErrEmpty) {
		t.Error("colormap on empty slot accepted")
	}
}
