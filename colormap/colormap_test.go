package colormap

import (
	"math"
	"strings"
	"testing"
)

func nearColor(a, b Color) bool {
	return nearColorTol(a, b, 0.01)
}

func nearColorTol(a, b Color, tol float64) bool {
	for i := range a {
		if math.Abs(float64(a[i]-b[i])) > tol {
			return false
		}
	}
	return true
}

func TestEndpoints(t *testing.T) {
	cm := mustHex("bw", "#000000", "#ffffff")
	tests := []struct {
		t    float32
		want Color
	}{
		{-1, RGBA(0, 0, 0, 1)},
		{0, RGBA(0, 0, 0, 1)},
		{1, RGBA(1, 1, 1, 1)},
		{2, RGBA(1, 1, 1, 1)},
		{float32(math.NaN()), RGBA(0, 0, 0, 1)},
	}
	for _, tst := range tests {
		if got := cm.Color(tst.t); !nearColor(got, tst.want) {
			t.Errorf("Color(%f) = %v, expected %v", tst.t, got, tst.want)
		}
	}
}

func TestColorInRange(t *testing.T) {
	for _, cm := range Builtin() {
		for i := 0; i <= 100; i++ {
			c := cm.Color(float32(i) / 100)
			for ch := 0; ch < 4; ch++ {
				if c[ch] < 0 || c[ch] > 1 {
					t.Fatalf("%s: Color(%d%%) channel %d = %f", cm.Name, i, ch, c[ch])
				}
			}
		}
	}
}

func TestParseGPL(t *testing.T) {
	src := `GIMP Palette
Name: test
Columns: 2
# comment
255   0   0	red
  0   0 255	blue
`
	cm, err := ParseGPL(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	if cm.Name != "test" {
		t.Errorf("name = %q", cm.Name)
	}
	if n := len(cm.Stops()); n != 2 {
		t.Fatalf("stops = %d, expected 2", n)
	}
	if got := cm.Color(0); !nearColor(got, RGBA(1, 0, 0, 1)) {
		t.Errorf("Color(0) = %v, expected red", got)
	}
	if got := cm.Color(1); !nearColor(got, RGBA(0, 0, 1, 1)) {
		t.Errorf("Color(1) = %v, expected blue", got)
	}
}

func TestParseGPLEmpty(t *testing.T) {
	if _, err := ParseGPL(strings.NewReader("GIMP Palette\nName: x\n")); err == nil {
		t.Error("expected error for palette without colors")
	}
}

func TestSetMono(t *testing.T) {
	cm := Mono(0)
	mid := cm.Color(0.5)
	if !nearColorTol(mid, RGBA(1, 0, 0, 1), 0.05) {
		t.Errorf("mono(0) midpoint = %v, expected red", mid)
	}
	cm.SetMono(1.0 / 3) // 120 degrees
	if mid := cm.Color(0.5); !nearColorTol(mid, RGBA(0, 1, 0, 1), 0.05) {
		t.Errorf("mono(1/3) midpoint = %v, expected green", mid)
	}
}

func TestRGB255(t *testing.T) {
	if got := RGB255(RGBA(1, 0.5, -3, 1)); got != [3]uint8{255, 128, 0} {
		t.Errorf("RGB255 = %v", got)
	}
}

func TestFind(t *testing.T) {
	maps := Builtin()
	if Find(maps, "fire") == nil {
		t.Error("fire not found")
	}
	if Find(maps, "nope") != nil {
		t.Error("unexpected colormap")
	}
}
