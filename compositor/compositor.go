// Package compositor blends the deck's layers into one image at arbitrary
// sample coordinates.
package compositor

import (
	"sync"

	"github.com/go-gl/mathgl/mgl32"

	"go-lumen/colormap"
	"go-lumen/slot"
)

// Compositor mixes layers with "over" blending. The global colormap colors
// scalar layers that have no override of their own.
type Compositor struct {
	mu       sync.Mutex
	global   *colormap.Colormap
	counters map[string]uint64
}

// New creates a compositor with a global colormap
func New(global *colormap.Colormap) *Compositor {
	return &Compositor{global: global, counters: make(map[string]uint64)}
}

// SetGlobal replaces the fallback colormap
func (c *Compositor) SetGlobal(cm *colormap.Colormap) {
	c.mu.Lock()
	c.global = cm
	c.mu.Unlock()
}

// Global returns the fallback colormap
func (c *Compositor) Global() *colormap.Colormap {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.global
}

// Frame renders one frame for the consumer named tag: out[k] is the
// composite at (xs[k], ys[k]). Layers are sampled in deck order over an
// opaque black background.
func (c *Compositor) Frame(tag string, layers []slot.Layer, xs, ys []float32, out []colormap.Color) {
	c.mu.Lock()
	global := c.global
	c.counters[tag]++
	c.mu.Unlock()

	n := len(out)
	if len(xs) < n {
		n = len(xs)
	}
	if len(ys) < n {
		n = len(ys)
	}
	for k := 0; k < n; k++ {
		out[k] = Pixel(layers, global, xs[k], ys[k])
	}
}

// Pixel composites the layers at one point
func Pixel(layers []slot.Layer, global *colormap.Colormap, x, y float32) colormap.Color {
	result := colormap.RGBA(0, 0, 0, 1)
	for _, l := range layers {
		sample := l.Instance.Render(x, y)
		if l.Scalar {
			cm := l.Colormap
			if cm == nil {
				cm = global
			}
			if cm != nil {
				sample = cm.Color(sample[0])
			}
		}
		a := mgl32.Clamp(float32(l.Alpha)*sample[3], 0, 1)
		if a == 0 {
			continue
		}
		result = result.Mul(1 - a).Add(sample.Mul(a))
	}
	result[3] = 1
	return colormap.Clamp(result)
}

// Frames returns how many frames have been rendered for tag
func (c *Compositor) Frames(tag string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counters[tag]
}

// Grid returns sample coordinates for a w×h raster covering [-1,1]² in
// row-major order.
func Grid(w, h int) (xs, ys []float32) {
	xs = make([]float32, 0, w*h)
	ys = make([]float32, 0, w*h)
	for j := 0; j < h; j++ {
		for i := 0; i < w; i++ {
			xs = append(xs, coord(i, w))
			ys = append(ys, coord(j, h))
		}
	}
	return xs, ys
}

func coord(i, n int) float32 {
	if n < 2 {
		return 0
	}
	return float32(i)/float32(n-1)*2 - 1
}
