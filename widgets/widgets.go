package widgets

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"go-lumen/colormap"
	"go-lumen/theme"
)

// RenderPad renders a single colored pad
func RenderPad(color [3]uint8) string {
	style := lipgloss.NewStyle().Foreground(theme.RGB(color))
	return style.Render("■")
}

// RenderSwatch renders a colormap as a strip of width cells
func RenderSwatch(cm *colormap.Colormap, width int) string {
	colors := make([][3]uint8, width)
	for i := range colors {
		t := float32(0)
		if width > 1 {
			t = float32(i) / float32(width-1)
		}
		colors[i] = colormap.RGB255(cm.Color(t))
	}
	var out strings.Builder
	for _, c := range colors {
		out.WriteString(RenderPad(c))
	}
	return out.String()
}

// RenderLegendItem renders a single legend item: "■ Name - description"
func RenderLegendItem(color [3]uint8, name, desc string) string {
	return fmt.Sprintf("  %s %s - %s", RenderPad(color), name, desc)
}

// RenderSlider renders v in [0,1] as a bar of width cells
func RenderSlider(v float64, width int, full, empty rune) string {
	n := int(math.Round(clamp01(v) * float64(width)))
	return strings.Repeat(string(full), n) + strings.Repeat(string(empty), width-n)
}

// RenderSparkline renders the last width values, one level glyph each
func RenderSparkline(values []float64, width int, levels []rune) string {
	if len(values) > width {
		values = values[len(values)-width:]
	}
	var out strings.Builder
	for i := len(values); i < width; i++ {
		out.WriteRune(levels[0])
	}
	top := float64(len(levels) - 1)
	for _, v := range values {
		out.WriteRune(levels[int(math.Round(clamp01(v)*top))])
	}
	return out.String()
}

// RenderPreview draws w*h colors (row-major, top row first) with half
// blocks, so each text line holds two pixel rows
func RenderPreview(pixels []colormap.Color, w, h int, half rune) string {
	if len(pixels) < w*h {
		return ""
	}
	var lines []string
	for y := 0; y < h; y += 2 {
		var line strings.Builder
		for x := 0; x < w; x++ {
			style := lipgloss.NewStyle().Foreground(theme.Hex(pixels[y*w+x]))
			if y+1 < h {
				style = style.Background(theme.Hex(pixels[(y+1)*w+x]))
			}
			line.WriteString(style.Render(string(half)))
		}
		lines = append(lines, line.String())
	}
	return strings.Join(lines, "\n")
}

func clamp01(v float64) float64 {
	if !(v > 0) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
