// Package colormap maps a scalar in [0,1] to a color. Patterns that render
// a scalar field are colored through the slot's colormap, or the global one.
package colormap

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	colorful "github.com/lucasb-eyer/go-colorful"
)

// Color is RGBA with every channel in [0,1]
type Color = mgl32.Vec4

// RGBA builds a Color
func RGBA(r, g, b, a float32) Color {
	return Color{r, g, b, a}
}

// Gray is an opaque gray level, also how scalar-field patterns return t
func Gray(v float32) Color {
	return Color{v, v, v, 1}
}

// Clamp clamps every channel into [0,1]
func Clamp(c Color) Color {
	for i := range c {
		c[i] = mgl32.Clamp(c[i], 0, 1)
	}
	return c
}

// RGB255 converts to 8-bit RGB, ignoring alpha
func RGB255(c Color) [3]uint8 {
	c = Clamp(c)
	return [3]uint8{
		uint8(math.Round(float64(c[0]) * 255)),
		uint8(math.Round(float64(c[1]) * 255)),
		uint8(math.Round(float64(c[2]) * 255)),
	}
}

// Colormap is a named gradient through a list of stops
type Colormap struct {
	Name  string
	stops []colorful.Color
	lut   []Color
}

// lutSize is the resolution of the precomputed table; Color interpolates
// linearly between entries so lookups stay allocation-free.
const lutSize = 256

// New builds a colormap through the given stops (at least one)
func New(name string, stops ...colorful.Color) *Colormap {
	if len(stops) == 0 {
		stops = []colorful.Color{{R: 0, G: 0, B: 0}}
	}
	cm := &Colormap{Name: name, stops: stops}
	cm.build()
	return cm
}

// FromHex builds a colormap from "#rrggbb" stops
func FromHex(name string, hexes ...string) (*Colormap, error) {
	stops := make([]colorful.Color, 0, len(hexes))
	for _, h := range hexes {
		c, err := colorful.Hex(h)
		if err != nil {
			return nil, err
		}
		stops = append(stops, c)
	}
	return New(name, stops...), nil
}

func (cm *Colormap) build() {
	cm.lut = make([]Color, lutSize)
	for i := range cm.lut {
		c := cm.blend(float64(i) / float64(lutSize-1))
		cm.lut[i] = Color{float32(c.R), float32(c.G), float32(c.B), 1}
	}
}

// blend interpolates in HCL between the two stops around t
func (cm *Colormap) blend(t float64) colorful.Color {
	if len(cm.stops) == 1 || t <= 0 {
		return cm.stops[0]
	}
	if t >= 1 {
		return cm.stops[len(cm.stops)-1]
	}
	pos := t * float64(len(cm.stops)-1)
	i := int(pos)
	frac := pos - float64(i)
	return cm.stops[i].BlendHcl(cm.stops[i+1], frac).Clamped()
}

// Color returns the color at t in [0,1]; t outside is clamped
func (cm *Colormap) Color(t float32) Color {
	if !(t > 0) {
		return cm.lut[0]
	}
	if t >= 1 {
		return cm.lut[lutSize-1]
	}
	pos := t * float32(lutSize-1)
	i := int(pos)
	frac := pos - float32(i)
	a, b := cm.lut[i], cm.lut[i+1]
	return a.Add(b.Sub(a).Mul(frac))
}

// Stops returns the gradient stops
func (cm *Colormap) Stops() []colorful.Color {
	return cm.stops
}
