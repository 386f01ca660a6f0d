package theme

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"go-lumen/colormap"
)

type Theme struct {
	Colormap *colormap.Colormap
	Symbols  Symbols
}

type Symbols struct {
	// Slot list
	Solid    rune // ■ loaded slot
	Empty    rune // □ empty slot
	Focus    rune // ▶ slot or param under the cursor
	Target   rune // ◆ next palette pick goes here
	Pending  rune // ◇ param waiting for a source
	Dragging rune // ● param under a gesture
	Link     rune // ← param follows a source

	// Beat indicator
	BeatOn  rune // ●
	BeatOff rune // ○

	// Sliders and sparklines
	BarFull  rune // █
	BarEmpty rune // ░
	Levels   []rune

	// Preview: one cell holds two pixels, top in the foreground
	HalfTop rune // ▀
}

func New(cm *colormap.Colormap) *Theme {
	return &Theme{
		Colormap: cm,
		Symbols: Symbols{
			Solid:    '■',
			Empty:    '□',
			Focus:    '▶',
			Target:   '◆',
			Pending:  '◇',
			Dragging: '●',
			Link:     '←',

			BeatOn:  '●',
			BeatOff: '○',

			BarFull:  '█',
			BarEmpty: '░',
			Levels:   []rune(" ▁▂▃▄▅▆▇█"),

			HalfTop: '▀',
		},
	}
}

// Color roles mapped to colormap positions (0-1)
const (
	RoleBG      = 0.0
	RoleSurface = 0.1
	RoleMuted   = 0.25
	RoleFG      = 0.5
	RoleAccent  = 0.6
	RoleCursor  = 0.7
	RoleActive  = 0.8
	RoleWarning = 0.9
	RoleSuccess = 1.0
)

// Style helpers

func (t *Theme) BG() lipgloss.Color {
	return t.Color(RoleBG)
}

func (t *Theme) FG() lipgloss.Color {
	return t.Color(RoleFG)
}

func (t *Theme) Accent() lipgloss.Color {
	return t.Color(RoleAccent)
}

func (t *Theme) Muted() lipgloss.Color {
	return t.Color(RoleMuted)
}

func (t *Theme) Active() lipgloss.Color {
	return t.Color(RoleActive)
}

func (t *Theme) Cursor() lipgloss.Color {
	return t.Color(RoleCursor)
}

func (t *Theme) Warning() lipgloss.Color {
	return t.Color(RoleWarning)
}

func (t *Theme) Success() lipgloss.Color {
	return t.Color(RoleSuccess)
}

// Color returns lipgloss color for any normalized value 0-1
func (t *Theme) Color(norm float64) lipgloss.Color {
	return Hex(t.Colormap.Color(float32(norm)))
}

// Hex converts an engine color for lipgloss
func Hex(c colormap.Color) lipgloss.Color {
	return RGB(colormap.RGB255(c))
}

// RGB converts 8-bit components for lipgloss
func RGB(c [3]uint8) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2]))
}
