// Package pattern defines the visual generators that slots host, and the
// registry they are looked up in.
package pattern

import (
	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"

	"go-lumen/colormap"
	"go-lumen/patch"
	"go-lumen/timebase"
)

// ParamDef names a pattern parameter and its starting value
type ParamDef struct {
	Name    string
	Default float64
}

// Instance is the per-slot state of a loaded pattern. Update runs once per
// frame with the current param values; Render is then sampled many times
// and must not allocate or mutate.
type Instance interface {
	Update(t timebase.MBeat, params []float64)
	Render(x, y float32) colormap.Color
}

// Commander is implemented by instances that handle param commands
// themselves instead of leaving them to the default gesture handling.
type Commander interface {
	Command(cmd patch.Command, params []*patch.Param, alpha *patch.Param) bool
}

// Pattern describes a generator. Descriptors are immutable and shared by
// every slot running them.
type Pattern struct {
	Name   string
	Params []ParamDef
	// Scalar patterns return a gray level that the compositor sends
	// through a colormap.
	Scalar bool
	New    func() Instance
}

// Defaults returns the default value of every param
func (p *Pattern) Defaults() []float64 {
	d := make([]float64, len(p.Params))
	for i, pd := range p.Params {
		d[i] = pd.Default
	}
	return d
}

func invalid(name, msg string) error {
	return fault.New("pattern "+name+": "+msg,
		ftag.With(ftag.InvalidArgument),
		fmsg.With("invalid pattern"))
}

// Registry is the table of available patterns, in registration order
type Registry struct {
	patterns []*Pattern
	byName   map[string]*Pattern
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Pattern)}
}

// Register validates and adds a pattern
func (r *Registry) Register(p *Pattern) error {
	switch {
	case p == nil:
		return invalid("", "nil descriptor")
	case p.Name == "":
		return invalid(p.Name, "empty name")
	case len(p.Params) == 0:
		return invalid(p.Name, "no parameters")
	case p.New == nil:
		return invalid(p.Name, "no constructor")
	}
	if _, ok := r.byName[p.Name]; ok {
		return invalid(p.Name, "registered twice")
	}
	for _, pd := range p.Params {
		if pd.Name == "" {
			return invalid(p.Name, "unnamed parameter")
		}
		if pd.Default < 0 || pd.Default > 1 {
			return invalid(p.Name, "default of "+pd.Name+" outside [0,1]")
		}
	}
	r.patterns = append(r.patterns, p)
	r.byName[p.Name] = p
	return nil
}

// MustRegister panics if p is invalid
func (r *Registry) MustRegister(p *Pattern) {
	if err := r.Register(p); err != nil {
		panic(err)
	}
}

// Lookup finds a pattern by name
func (r *Registry) Lookup(name string) (*Pattern, bool) {
	p, ok := r.byName[name]
	return p, ok
}

// Names lists pattern names in registration order
func (r *Registry) Names() []string {
	names := make([]string, len(r.patterns))
	for i, p := range r.patterns {
		names[i] = p.Name
	}
	return names
}

// All returns the registered patterns in order
func (r *Registry) All() []*Pattern {
	return r.patterns
}

// Len is the number of registered patterns
func (r *Registry) Len() int { return len(r.patterns) }
