package pattern

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	colorful "github.com/lucasb-eyer/go-colorful"

	"go-lumen/colormap"
	"go-lumen/patch"
	"go-lumen/timebase"
)

// Builtin returns a registry holding the stock patterns
func Builtin() *Registry {
	r := NewRegistry()
	r.MustRegister(Full)
	r.MustRegister(Wave)
	r.MustRegister(Bubble)
	r.MustRegister(Strobe)
	r.MustRegister(Spin)
	return r
}

func clamp01(v float32) float32 {
	return mgl32.Clamp(v, 0, 1)
}

// Full fills the frame with one level, optionally pulsing on the beat
var Full = &Pattern{
	Name:   "full",
	Params: []ParamDef{{"level", 0.5}, {"pulse", 0}},
	Scalar: true,
	New:    func() Instance { return &full{} },
}

type full struct {
	v float32
}

func (f *full) Update(t timebase.MBeat, p []float64) {
	decay := 1 - p[1]*t.Phase()
	f.v = clamp01(float32(p[0] * decay))
}

func (f *full) Render(x, y float32) colormap.Color {
	return colormap.Gray(f.v)
}

// Wave is a plane wave travelling across the frame
var Wave = &Pattern{
	Name:   "wave",
	Params: []ParamDef{{"freq", 0.3}, {"speed", 0.5}, {"angle", 0}},
	Scalar: true,
	New:    func() Instance { return &wave{} },
}

type wave struct {
	k      float64
	offset float64
	dir    mgl32.Vec2
}

func (w *wave) Update(t timebase.MBeat, p []float64) {
	w.k = 0.5 + p[0]*8
	w.offset = t.Beats() * (p[1]*2 - 1)
	a := float32(p[2] * 2 * math.Pi)
	w.dir = mgl32.Vec2{float32(math.Cos(float64(a))), float32(math.Sin(float64(a)))}
}

func (w *wave) Render(x, y float32) colormap.Color {
	d := float64(w.dir.Dot(mgl32.Vec2{x, y}))
	v := 0.5 + 0.5*math.Sin(2*math.Pi*(w.k*d/2-w.offset))
	return colormap.Gray(float32(v))
}

// Bubble is a soft colored disc; outside the disc it is transparent
var Bubble = &Pattern{
	Name:   "bubble",
	Params: []ParamDef{{"x", 0.5}, {"y", 0.5}, {"size", 0.4}, {"hue", 0}},
	New:    func() Instance { return &bubble{} },
}

type bubble struct {
	center mgl32.Vec2
	r      float32
	color  colormap.Color
}

func (b *bubble) Update(t timebase.MBeat, p []float64) {
	b.center = mgl32.Vec2{float32(p[0]*2 - 1), float32(p[1]*2 - 1)}
	b.r = float32(0.05 + p[2]*1.5)
	c := colorful.Hsv(p[3]*360, 1, 1)
	b.color = colormap.RGBA(float32(c.R), float32(c.G), float32(c.B), 1)
}

func (b *bubble) Render(x, y float32) colormap.Color {
	d := mgl32.Vec2{x, y}.Sub(b.center).Len() / b.r
	a := clamp01(1 - d*d)
	c := b.color
	c[3] = a
	return c
}

// Strobe flashes on beat subdivisions. A Start gesture on any param fires
// an extra flash.
var Strobe = &Pattern{
	Name:   "strobe",
	Params: []ParamDef{{"rate", 0.25}, {"duty", 0.2}},
	Scalar: true,
	New:    func() Instance { return &strobe{} },
}

// strobeDivisions are the flashes per beat selectable with the rate param
var strobeDivisions = [...]float64{1, 2, 4, 8}

// manualFlash is how long a commanded flash lasts
const manualFlash = timebase.PerBeat / 8

type strobe struct {
	t     timebase.MBeat
	fire  bool
	until timebase.MBeat
	on    bool
}

func (s *strobe) Update(t timebase.MBeat, p []float64) {
	s.t = t
	if s.fire {
		s.until = t + manualFlash
		s.fire = false
	}
	i := int(p[0] * float64(len(strobeDivisions)))
	if i >= len(strobeDivisions) {
		i = len(strobeDivisions) - 1
	}
	pos := t.Beats() * strobeDivisions[i]
	s.on = pos-math.Floor(pos) < p[1] || t < s.until
}

func (s *strobe) Render(x, y float32) colormap.Color {
	if s.on {
		return colormap.Gray(1)
	}
	return colormap.Gray(0)
}

func (s *strobe) Command(cmd patch.Command, params []*patch.Param, alpha *patch.Param) bool {
	if cmd.Status == patch.Start {
		s.fire = true
	}
	return patch.ApplyCommand(params, alpha, cmd)
}

// Spin is a rotating spiral
var Spin = &Pattern{
	Name:   "spin",
	Params: []ParamDef{{"speed", 0.6}, {"arms", 0.2}, {"twist", 0.3}},
	Scalar: true,
	New:    func() Instance { return &spin{} },
}

type spin struct {
	rot   mgl32.Mat2
	arms  float64
	twist float64
}

func (s *spin) Update(t timebase.MBeat, p []float64) {
	turns := t.Beats() * (p[0]*2 - 1) / 4
	s.rot = mgl32.Rotate2D(float32(turns * 2 * math.Pi))
	s.arms = math.Round(1 + p[1]*7)
	s.twist = p[2] * 8
}

func (s *spin) Render(x, y float32) colormap.Color {
	v := s.rot.Mul2x1(mgl32.Vec2{x, y})
	r := float64(v.Len())
	th := math.Atan2(float64(v.Y()), float64(v.X()))
	g := 0.5 + 0.5*math.Cos(s.arms*th+s.twist*r)
	return colormap.Gray(float32(g))
}
