package widgets

import (
	"strings"
	"testing"

	"go-lumen/colormap"
)

func TestRenderSlider(t *testing.T) {
	tests := []struct {
		v    float64
		want string
	}{
		{0, "----"},
		{0.5, "##--"},
		{1, "####"},
		{2, "####"},
		{-1, "----"},
	}
	for _, tst := range tests {
		if got := RenderSlider(tst.v, 4, '#', '-'); got != tst.want {
			t.Errorf("RenderSlider(%v) = %q, expected %q", tst.v, got, tst.want)
		}
	}
}

func TestRenderSparkline(t *testing.T) {
	levels := []rune("_abc")
	tests := []struct {
		values []float64
		want   string
	}{
		{nil, "____"},
		{[]float64{1, 0}, "__c_"},
		{[]float64{0, 0.34, 0.67, 1, 1}, "abcc"},
	}
	for _, tst := range tests {
		if got := RenderSparkline(tst.values, 4, levels); got != tst.want {
			t.Errorf("RenderSparkline(%v) = %q, expected %q", tst.values, got, tst.want)
		}
	}
}

func TestRenderPreviewLines(t *testing.T) {
	px := make([]colormap.Color, 3*3)
	out := RenderPreview(px, 3, 3, '▀')
	if n := strings.Count(out, "\n") + 1; n != 2 {
		t.Errorf("%d lines, expected 2", n)
	}
	if RenderPreview(px[:4], 3, 3, '▀') != "" {
		t.Error("short pixel buffer rendered")
	}
}
