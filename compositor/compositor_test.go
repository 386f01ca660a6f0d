package compositor

import (
	"math"
	"testing"

	"go-lumen/colormap"
	"go-lumen/slot"
	"go-lumen/timebase"
)

type solid colormap.Color

func (s solid) Update(timebase.MBeat, []float64)   {}
func (s solid) Render(x, y float32) colormap.Color { return colormap.Color(s) }

func near(a, b colormap.Color) bool {
	for i := range a {
		if math.Abs(float64(a[i]-b[i])) > 1e-5 {
			return false
		}
	}
	return true
}

func TestBlend(t *testing.T) {
	red := solid(colormap.RGBA(1, 0, 0, 1))
	blue := solid(colormap.RGBA(0, 0, 1, 1))
	halfBlue := solid(colormap.RGBA(0, 0, 1, 0.5))

	tests := []struct {
		name   string
		layers []slot.Layer
		want   colormap.Color
	}{
		{"empty", nil, colormap.RGBA(0, 0, 0, 1)},
		{"opaque", []slot.Layer{{Instance: red, Alpha: 1}}, colormap.RGBA(1, 0, 0, 1)},
		{"top wins", []slot.Layer{{Instance: red, Alpha: 1}, {Instance: blue, Alpha: 1}}, colormap.RGBA(0, 0, 1, 1)},
		{"slot alpha", []slot.Layer{{Instance: red, Alpha: 1}, {Instance: blue, Alpha: 0.5}}, colormap.RGBA(0.5, 0, 0.5, 1)},
		{"sample alpha", []slot.Layer{{Instance: red, Alpha: 1}, {Instance: halfBlue, Alpha: 0.5}}, colormap.RGBA(0.75, 0, 0.25, 1)},
		{"zero alpha", []slot.Layer{{Instance: red, Alpha: 0}}, colormap.RGBA(0, 0, 0, 1)},
	}
	for _, tst := range tests {
		got := Pixel(tst.layers, nil, 0, 0)
		if !near(got, tst.want) {
			t.Errorf("%s: got %v, expected %v", tst.name, got, tst.want)
		}
	}
}

func TestScalarUsesColormap(t *testing.T) {
	bw, _ := colormap.FromHex("bw", "#000000", "#ffffff")
	redmap, _ := colormap.FromHex("red", "#000000", "#ff0000")
	white := solid(colormap.Gray(1))

	c := New(bw)
	out := make([]colormap.Color, 1)

	c.Frame("t", []slot.Layer{{Instance: white, Alpha: 1, Scalar: true}}, []float32{0}, []float32{0}, out)
	if !near(out[0], colormap.RGBA(1, 1, 1, 1)) {
		t.Errorf("global map: %v", out[0])
	}
	c.Frame("t", []slot.Layer{{Instance: white, Alpha: 1, Scalar: true, Colormap: redmap}}, []float32{0}, []float32{0}, out)
	if !near(out[0], colormap.RGBA(1, 0, 0, 1)) {
		t.Errorf("override map: %v", out[0])
	}
	if c.Frames("t") != 2 || c.Frames("other") != 0 {
		t.Errorf("frame counters = %d %d", c.Frames("t"), c.Frames("other"))
	}
}

func TestFrameIsPure(t *testing.T) {
	c := New(colormap.Builtin()[1])
	layers := []slot.Layer{{Instance: solid(colormap.Gray(0.3)), Alpha: 0.8, Scalar: true}}
	xs, ys := Grid(4, 3)
	a := make([]colormap.Color, len(xs))
	b := make([]colormap.Color, len(xs))
	c.Frame("a", layers, xs, ys, a)
	c.Frame("b", layers, xs, ys, b)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("sample %d differs: %v %v", i, a[i], b[i])
		}
	}
}

func TestGrid(t *testing.T) {
	xs, ys := Grid(3, 2)
	wantX := []float32{-1, 0, 1, -1, 0, 1}
	wantY := []float32{-1, -1, -1, 1, 1, 1}
	for i := range wantX {
		if xs[i] != wantX[i] || ys[i] != wantY[i] {
			t.Errorf("point %d = (%f,%f)", i, xs[i], ys[i])
		}
	}
	xs, _ = Grid(1, 1)
	if len(xs) != 1 || xs[0] != 0 {
		t.Errorf("1x1 grid = %v", xs)
	}
}
