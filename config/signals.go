package config

import (
	_ "embed"
	"os"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"gopkg.in/yaml.v3"
)

//go:embed signals.yaml
var defaultSignals []byte

// FilterConfig describes how a signal conditions its input. Kind is one of
// "ema", "diode", "agc" or "none"; times are in beats.
type FilterConfig struct {
	Kind      string  `yaml:"kind"`
	Tau       float64 `yaml:"tau,omitempty"`
	Rise      float64 `yaml:"rise,omitempty"`
	Fall      float64 `yaml:"fall,omitempty"`
	RangeLow  float64 `yaml:"range_low,omitempty"`
	RangeHigh float64 `yaml:"range_high,omitempty"`
	KneeLow   float64 `yaml:"knee_low,omitempty"`
	KneeHigh  float64 `yaml:"knee_high,omitempty"`
}

// SignalConfig is one entry of the signal bank
type SignalConfig struct {
	Name   string       `yaml:"name"`
	Color  string       `yaml:"color"`
	Input  string       `yaml:"input"`
	Filter FilterConfig `yaml:"filter"`
}

type signalBank struct {
	Signals []SignalConfig `yaml:"signals"`
}

// ParseSignals decodes a YAML signal bank
func ParseSignals(data []byte) ([]SignalConfig, error) {
	var bank signalBank
	if err := yaml.Unmarshal(data, &bank); err != nil {
		return nil, fault.Wrap(err, fmsg.With("parse signal bank"))
	}
	if err := validateSignals(bank.Signals); err != nil {
		return nil, err
	}
	return bank.Signals, nil
}

// LoadSignals reads the signal bank at path, or the built-in one when path
// is empty.
func LoadSignals(path string) ([]SignalConfig, error) {
	if path == "" {
		return ParseSignals(defaultSignals)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fault.Wrap(err, fmsg.With("read signal bank"))
	}
	return ParseSignals(data)
}
