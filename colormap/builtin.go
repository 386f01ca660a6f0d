package colormap

import (
	colorful "github.com/lucasb-eyer/go-colorful"
)

func mustHex(name string, hexes ...string) *Colormap {
	cm, err := FromHex(name, hexes...)
	if err != nil {
		panic(err)
	}
	return cm
}

// Builtin returns fresh copies of the built-in colormaps. The first one is
// the mono map, which follows the hue set with SetMono.
func Builtin() []*Colormap {
	return []*Colormap{
		Mono(0),
		mustHex("rainbow", "#ff0000", "#ffff00", "#00ff00", "#00ffff", "#0000ff", "#ff00ff", "#ff0000"),
		mustHex("plasma", "#0d0887", "#6a00a8", "#b12a90", "#e16462", "#fca636", "#f0f921"),
		mustHex("fire", "#000000", "#800000", "#ff4000", "#ffc000", "#ffffff"),
		mustHex("ice", "#000010", "#003060", "#00a0c0", "#c0ffff", "#ffffff"),
	}
}

// Mono is a single-hue ramp from black through the hue to white
func Mono(hue float64) *Colormap {
	return New("mono", monoStops(hue)...)
}

func monoStops(hue float64) []colorful.Color {
	return []colorful.Color{
		{R: 0, G: 0, B: 0},
		colorful.Hsv(hue, 1, 1),
		{R: 1, G: 1, B: 1},
	}
}

// SetMono re-hues a mono colormap; x in [0,1] spans the hue circle
func (cm *Colormap) SetMono(x float64) {
	if x < 0 {
		x = 0
	}
	if x > 1 {
		x = 1
	}
	cm.stops = monoStops(x * 360)
	cm.build()
}

// Find returns the colormap with the given name, or nil
func Find(maps []*Colormap, name string) *Colormap {
	for _, cm := range maps {
		if cm.Name == name {
			return cm
		}
	}
	return nil
}
