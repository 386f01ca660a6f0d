package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Southclaws/fault/ftag"
)

func TestDefaultIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no slots", func(c *Config) { c.Slots = 0 }},
		{"fps", func(c *Config) { c.UI.FPS = 0 }},
		{"bpm", func(c *Config) { c.Timebase.BPM = -1 }},
		{"tap alpha", func(c *Config) { c.Timebase.TapAlpha = 1.5 }},
		{"tap window", func(c *Config) { c.Timebase.MinTapMS = 3000 }},
		{"state format", func(c *Config) { c.State.PathFormat = "state.json" }},
		{"state count", func(c *Config) { c.State.Count = 0 }},
		{"gesture timeout", func(c *Config) { c.MIDI.GestureTimeoutMS = 0 }},
		{"cc range", func(c *Config) { c.MIDI.Controls = []ControlMapping{{CC: 200}} }},
		{"cc twice", func(c *Config) { c.MIDI.Controls = []ControlMapping{{CC: 1}, {CC: 1}} }},
		{"cc slot", func(c *Config) { c.MIDI.Controls = []ControlMapping{{CC: 1, Slot: 8}} }},
		{"cc param", func(c *Config) { c.MIDI.Controls = []ControlMapping{{CC: 1, Param: -2}} }},
		{"note", func(c *Config) { c.MIDI.TapNote = 128 }},
		{"audio source", func(c *Config) { c.Audio.Source = "mic" }},
		{"sample rate", func(c *Config) { c.Audio.SampleRate = 0 }},
	}
	for _, tst := range tests {
		c := DefaultConfig()
		tst.mutate(c)
		err := c.Validate()
		if err == nil {
			t.Errorf("%s: expected error", tst.name)
			continue
		}
		if ftag.Get(err) != ftag.InvalidArgument {
			t.Errorf("%s: tag = %v", tst.name, ftag.Get(err))
		}
	}
}

func TestLoadMissingReturnsDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.UI.FPS != 30 {
		t.Errorf("fps = %d", cfg.UI.FPS)
	}
}

func TestLoadKeepsDefaultsForMissingFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"ui": {"fps": 60}}`), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.UI.FPS != 60 {
		t.Errorf("fps = %d, expected 60", cfg.UI.FPS)
	}
	if cfg.Timebase.BPM != 120 || cfg.State.Count != 10 {
		t.Errorf("defaults lost: %+v %+v", cfg.Timebase, cfg.State)
	}
}

func TestLoadBadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	os.WriteFile(path, []byte(`{"ui":`), 0644)
	if _, err := LoadFrom(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.json")
	cfg := DefaultConfig()
	cfg.UI.LastPalette = "fire"
	cfg.AddController(ControllerConfig{PortName: "pads", Type: ControllerKeyboard})
	if err := cfg.SaveTo(path); err != nil {
		t.Fatal(err)
	}
	got, err := LoadFrom(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.UI.LastPalette != "fire" || got.FindController("pads") == nil {
		t.Errorf("reloaded config lost fields: %+v", got.UI)
	}
}

func TestControllers(t *testing.T) {
	cfg := &Config{}
	cfg.AddController(ControllerConfig{PortName: "a", AutoConnect: true})
	cfg.AddController(ControllerConfig{PortName: "b"})
	cfg.AddController(ControllerConfig{PortName: "a", Type: ControllerKeyboard, AutoConnect: true})

	if len(cfg.MIDI.Controllers) != 2 {
		t.Fatalf("controllers = %d, expected 2", len(cfg.MIDI.Controllers))
	}
	if cfg.FindController("a").Type != ControllerKeyboard {
		t.Error("AddController did not update")
	}
	if auto := cfg.AutoConnectControllers(); len(auto) != 1 || auto[0].PortName != "a" {
		t.Errorf("auto = %+v", auto)
	}
}

func TestControlFor(t *testing.T) {
	cfg := DefaultConfig()
	m, ok := cfg.ControlFor(3)
	if !ok || m.Slot != 3 || m.Param != -1 {
		t.Errorf("cc 3 -> %+v %v", m, ok)
	}
	if _, ok := cfg.ControlFor(100); ok {
		t.Error("unexpected mapping for cc 100")
	}
}

func TestBuiltinSignals(t *testing.T) {
	sigs, err := LoadSignals("")
	if err != nil {
		t.Fatal(err)
	}
	if len(sigs) == 0 {
		t.Fatal("empty signal bank")
	}
	if sigs[0].Name != "level" || sigs[0].Filter.Kind != "agc" || sigs[0].Filter.Tau != 8 {
		t.Errorf("first signal = %+v", sigs[0])
	}
}

func TestParseSignalsErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"no name", "signals:\n  - input: low\n"},
		{"duplicate", "signals:\n  - {name: a, input: low}\n  - {name: a, input: high}\n"},
		{"no input", "signals:\n  - {name: a}\n"},
		{"kind", "signals:\n  - {name: a, input: low, filter: {kind: fir}}\n"},
	}
	for _, tst := range tests {
		_, err := ParseSignals([]byte(tst.yaml))
		if err == nil {
			t.Errorf("%s: expected error", tst.name)
			continue
		}
		if ftag.Get(err) != ftag.InvalidArgument {
			t.Errorf("%s: tag = %v", tst.name, ftag.Get(err))
		}
	}
	if _, err := ParseSignals([]byte("signals: [")); err == nil {
		t.Error("expected YAML error")
	}
}
