package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
)

// ControllerType identifies the kind of controller
type ControllerType string

const (
	ControllerGeneric  ControllerType = "generic"  // knobs/faders sending CC, pads sending notes
	ControllerKeyboard ControllerType = "keyboard" // notes only
)

// ControllerConfig defines a saved controller configuration
type ControllerConfig struct {
	PortName     string         `json:"portName"`
	Type         ControllerType `json:"type"`
	AutoConnect  bool           `json:"autoConnect"`
	InputChannel int            `json:"inputChannel,omitempty"` // 1-16, 0 = any
}

// ControlMapping routes a CC to a slot parameter. Param -1 is the slot alpha.
type ControlMapping struct {
	CC    uint8 `json:"cc"`
	Slot  int   `json:"slot"`
	Param int   `json:"param"`
}

// MIDIConfig stores controllers and how their messages map to the engine
type MIDIConfig struct {
	Controllers      []ControllerConfig `json:"controllers,omitempty"`
	Controls         []ControlMapping   `json:"controls,omitempty"`
	TapNote          int                `json:"tapNote"`
	AlignNote        int                `json:"alignNote"`
	GestureTimeoutMS int                `json:"gestureTimeoutMs"`
}

// GestureTimeout is how long a CC stream may pause before its gesture ends
func (m MIDIConfig) GestureTimeout() time.Duration {
	return time.Duration(m.GestureTimeoutMS) * time.Millisecond
}

// UIConfig stores UI preferences
type UIConfig struct {
	FPS           int    `json:"fps"`
	PreviewWidth  int    `json:"previewWidth"`
	PreviewHeight int    `json:"previewHeight"`
	LastPalette   string `json:"lastPalette,omitempty"`
}

// TimebaseConfig sets the beat clock up
type TimebaseConfig struct {
	BPM      float64 `json:"bpm"`
	TapAlpha float64 `json:"tapAlpha"`
	MinTapMS int     `json:"minTapMs"`
	MaxTapMS int     `json:"maxTapMs"`
	Manual   bool    `json:"manual,omitempty"`
}

// TapWindow is the accepted range of intervals between taps
func (t TimebaseConfig) TapWindow() (time.Duration, time.Duration) {
	return time.Duration(t.MinTapMS) * time.Millisecond, time.Duration(t.MaxTapMS) * time.Millisecond
}

// StateConfig locates the numbered save slots
type StateConfig struct {
	PathFormat string `json:"pathFormat"` // must contain one %d
	Count      int    `json:"count"`
}

// AudioSource selects where band levels come from
type AudioSource string

const (
	AudioCapture   AudioSource = "capture"
	AudioSynthetic AudioSource = "synthetic"
	AudioNone      AudioSource = "none"
)

// AudioConfig selects and sets up the audio input
type AudioConfig struct {
	Source       AudioSource `json:"source"`
	Device       string      `json:"device,omitempty"`
	SampleRate   float64     `json:"sampleRate"`
	Frames       int         `json:"frames"`
	SyntheticBPM float64     `json:"syntheticBpm,omitempty"`
}

// Config is the main configuration structure
type Config struct {
	Slots    int            `json:"slots"`
	UI       UIConfig       `json:"ui"`
	Timebase TimebaseConfig `json:"timebase"`
	State    StateConfig    `json:"state"`
	MIDI     MIDIConfig     `json:"midi"`
	Audio    AudioConfig    `json:"audio"`
	Palettes string         `json:"palettes,omitempty"` // directory of .gpl files
	Signals  string         `json:"signals,omitempty"`  // YAML signal bank, empty = built-in
	Debug    bool           `json:"debug,omitempty"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Slots: 8,
		UI: UIConfig{
			FPS:           30,
			PreviewWidth:  48,
			PreviewHeight: 16,
		},
		Timebase: TimebaseConfig{
			BPM:      120,
			TapAlpha: 0.5,
			MinTapMS: 150,
			MaxTapMS: 2000,
		},
		State: StateConfig{
			PathFormat: "state_%d.json",
			Count:      10,
		},
		MIDI: MIDIConfig{
			Controllers: []ControllerConfig{
				{PortName: "nanoKONTROL2 SLIDER/KNOB", Type: ControllerGeneric, AutoConnect: true},
			},
			Controls:         defaultControls(),
			TapNote:          41,
			AlignNote:        42,
			GestureTimeoutMS: 300,
		},
		Audio: AudioConfig{
			Source:       AudioCapture,
			SampleRate:   48000,
			Frames:       512,
			SyntheticBPM: 120,
		},
	}
}

// defaultControls maps faders 0-7 to slot alphas and knobs 16-23 to param 0
func defaultControls() []ControlMapping {
	var m []ControlMapping
	for i := 0; i < 8; i++ {
		m = append(m,
			ControlMapping{CC: uint8(i), Slot: i, Param: -1},
			ControlMapping{CC: uint8(16 + i), Slot: i, Param: 0},
		)
	}
	return m
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "go-lumen"), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from disk, or returns defaults if not found
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads the config at path. Missing fields keep their defaults.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fault.Wrap(err, fmsg.With("read config"))
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fault.Wrap(err, fmsg.WithDesc("parse config", "The config file "+path+" is not valid JSON."))
	}

	return cfg, nil
}

// Save writes the config to disk
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the config to path, creating its directory
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fault.Wrap(err, fmsg.With("create config dir"))
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fault.Wrap(err, fmsg.With("encode config"))
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fault.Wrap(err, fmsg.With("write config"))
	}
	return nil
}

// StatePath resolves a relative state path format against the config dir
func (c *Config) StatePath() string {
	if filepath.IsAbs(c.State.PathFormat) {
		return c.State.PathFormat
	}
	dir, err := ConfigDir()
	if err != nil {
		return c.State.PathFormat
	}
	return filepath.Join(dir, c.State.PathFormat)
}

// FindController finds a controller config by port name
func (c *Config) FindController(portName string) *ControllerConfig {
	for i := range c.MIDI.Controllers {
		if c.MIDI.Controllers[i].PortName == portName {
			return &c.MIDI.Controllers[i]
		}
	}
	return nil
}

// AddController adds or updates a controller config
func (c *Config) AddController(ctrl ControllerConfig) {
	for i := range c.MIDI.Controllers {
		if c.MIDI.Controllers[i].PortName == ctrl.PortName {
			c.MIDI.Controllers[i] = ctrl
			return
		}
	}
	c.MIDI.Controllers = append(c.MIDI.Controllers, ctrl)
}

// AutoConnectControllers returns controllers with autoConnect enabled
func (c *Config) AutoConnectControllers() []ControllerConfig {
	var result []ControllerConfig
	for _, ctrl := range c.MIDI.Controllers {
		if ctrl.AutoConnect {
			result = append(result, ctrl)
		}
	}
	return result
}

// ControlFor returns the mapping for a CC number
func (c *Config) ControlFor(cc uint8) (ControlMapping, bool) {
	for _, m := range c.MIDI.Controls {
		if m.CC == cc {
			return m, true
		}
	}
	return ControlMapping{}, false
}
