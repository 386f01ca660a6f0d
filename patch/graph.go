package patch

// SourceID is a generation-checked handle to an Output registered in a
// Graph. A handle outlives its output safely: once the output is removed the
// generation moves on and Lookup fails. The zero value means "no source".
type SourceID struct {
	index uint32
	gen   uint32
}

// None is the empty source
var None SourceID

// IsNone reports whether id is the empty source
func (id SourceID) IsNone() bool { return id.gen == 0 }

// Output is a named value that params can follow
type Output struct {
	Name  string
	Color [3]uint8
	value float64
}

// NewOutput creates an output at 0
func NewOutput(name string, color [3]uint8) *Output {
	return &Output{Name: name, Color: color}
}

// Value is the current value
func (o *Output) Value() float64 { return o.value }

// Set is called by the output's owner once per frame
func (o *Output) Set(v float64) { o.value = v }

type entry struct {
	out  *Output
	gen  uint32
	live bool
}

// Graph owns the source table and the set of bound params. It is not
// safe for concurrent use; the engine serializes access.
type Graph struct {
	entries []entry
	free    []uint32
	bound   map[*Param]struct{}
}

// NewGraph creates an empty graph
func NewGraph() *Graph {
	return &Graph{bound: make(map[*Param]struct{})}
}

// Register adds an output and returns its handle
func (g *Graph) Register(out *Output) SourceID {
	var idx uint32
	if n := len(g.free); n > 0 {
		idx = g.free[n-1]
		g.free = g.free[:n-1]
	} else {
		idx = uint32(len(g.entries))
		g.entries = append(g.entries, entry{})
	}
	e := &g.entries[idx]
	e.gen++
	e.out = out
	e.live = true
	return SourceID{index: idx, gen: e.gen}
}

// Remove destroys a source. Every param bound to it is reset to no source
// before the handle goes stale. Returns false for unknown or stale handles.
func (g *Graph) Remove(id SourceID) bool {
	if _, ok := g.Lookup(id); !ok {
		return false
	}
	for p := range g.bound {
		if p.source == id {
			p.source = None
			delete(g.bound, p)
		}
	}
	e := &g.entries[id.index]
	e.out = nil
	e.live = false
	e.gen++
	g.free = append(g.free, id.index)
	return true
}

// Lookup resolves a handle, checking that the source is still alive
func (g *Graph) Lookup(id SourceID) (*Output, bool) {
	if id.IsNone() || int(id.index) >= len(g.entries) {
		return nil, false
	}
	e := g.entries[id.index]
	if !e.live || e.gen != id.gen {
		return nil, false
	}
	return e.out, true
}

// Connect binds p to the source, replacing any previous binding. Connecting
// to a dead source leaves p unbound and returns false.
func (g *Graph) Connect(p *Param, id SourceID) bool {
	if _, ok := g.Lookup(id); !ok {
		g.Disconnect(p)
		return false
	}
	p.source = id
	g.bound[p] = struct{}{}
	return true
}

// Disconnect unbinds p; it keeps its last value
func (g *Graph) Disconnect(p *Param) {
	p.source = None
	delete(g.bound, p)
}

// Forget drops every binding held by params that are being destroyed
func (g *Graph) Forget(params ...*Param) {
	for _, p := range params {
		if p != nil {
			g.Disconnect(p)
		}
	}
}

// Pull copies each bound source's current value into its param. Params in
// the middle of a gesture keep the gesture value.
func (g *Graph) Pull() {
	for p := range g.bound {
		out, ok := g.Lookup(p.source)
		if !ok {
			p.source = None
			delete(g.bound, p)
			continue
		}
		if p.gesture != Dragging {
			p.value = clamp01(out.Value())
		}
	}
}

// Sources lists live sources in table order
func (g *Graph) Sources() []SourceID {
	ids := make([]SourceID, 0, len(g.entries))
	for i, e := range g.entries {
		if e.live {
			ids = append(ids, SourceID{index: uint32(i), gen: e.gen})
		}
	}
	return ids
}

// Name returns the source's name, or "" when the handle is dead
func (g *Graph) Name(id SourceID) string {
	if out, ok := g.Lookup(id); ok {
		return out.Name
	}
	return ""
}

// Find returns the live source with the given name
func (g *Graph) Find(name string) (SourceID, bool) {
	for _, id := range g.Sources() {
		if g.entries[id.index].out.Name == name {
			return id, true
		}
	}
	return None, false
}

// BoundCount is how many params follow the source
func (g *Graph) BoundCount(id SourceID) int {
	n := 0
	for p := range g.bound {
		if p.source == id {
			n++
		}
	}
	return n
}

// Len is the number of bound params
func (g *Graph) Len() int { return len(g.bound) }
