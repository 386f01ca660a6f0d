package tui

import (
	"github.com/charmbracelet/bubbles/key"
)

func Key(help string, keyboardKey ...string) key.Binding {
	return key.NewBinding(key.WithKeys(keyboardKey...), key.WithHelp(keyboardKey[0], help))
}

type keyMap struct {
	Left, Right, Up, Down key.Binding
	Dec, Inc              key.Binding
	Load, Unload          key.Binding
	SwapLeft, SwapRight   key.Binding
	Connect, Disconnect   key.Binding
	Palette, Global       key.Binding
	MonoDown, MonoUp      key.Binding
	Tap, Align, Mode      key.Binding
	Faster, Slower        key.Binding
	Save, Open            key.Binding
	Refresh               key.Binding
	Help, Quit            key.Binding

	// pickers
	Pick, Cancel key.Binding
}

var keys = keyMap{
	Left:       Key("slot left", "left", "h"),
	Right:      Key("slot right", "right", "l"),
	Up:         Key("param up", "up", "k"),
	Down:       Key("param down", "down", "j"),
	Dec:        Key("value -", "[", "{"),
	Inc:        Key("value +", "]", "}"),
	Load:       Key("load pattern", "enter"),
	Unload:     Key("unload", "x", "delete"),
	SwapLeft:   Key("move left", "<", ","),
	SwapRight:  Key("move right", ">", "."),
	Connect:    Key("patch", "c"),
	Disconnect: Key("unpatch", "d"),
	Palette:    Key("slot palette", "p"),
	Global:     Key("global palette", "P"),
	MonoDown:   Key("mono hue -", "m"),
	MonoUp:     Key("mono hue +", "M"),
	Tap:        Key("tap", " ", "t"),
	Align:      Key("align", "a"),
	Mode:       Key("auto/manual", "tab"),
	Faster:     Key("bpm +", "+", "="),
	Slower:     Key("bpm -", "-", "_"),
	Save:       Key("save state", "s"),
	Open:       Key("load state", "o"),
	Refresh:    Key("rescan midi", "r"),
	Help:       Key("help", "?"),
	Quit:       Key("quit", "q", "ctrl+c"),

	Pick:   Key("pick", "enter"),
	Cancel: Key("cancel", "esc"),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Load, k.Connect, k.Palette, k.Tap, k.Save, k.Open, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Left, k.Right, k.Up, k.Down, k.Dec, k.Inc},
		{k.Load, k.Unload, k.SwapLeft, k.SwapRight},
		{k.Connect, k.Disconnect, k.Palette, k.Global, k.MonoDown, k.MonoUp},
		{k.Tap, k.Align, k.Mode, k.Faster, k.Slower},
		{k.Save, k.Open, k.Refresh, k.Help, k.Quit},
	}
}
