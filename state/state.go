// Package state persists engine snapshots to numbered JSON files. A snapshot
// refers to patterns, colormaps and sources by name; resolving those names
// is up to the engine.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
)

// Version is written into every snapshot
const Version = 1

// ParamState is one saved param
type ParamState struct {
	Value  float64 `json:"value"`
	Source string  `json:"source,omitempty"` // output name, empty if unpatched
}

// SlotState is one saved slot. An empty Pattern means the slot was empty.
type SlotState struct {
	Pattern  string       `json:"pattern,omitempty"`
	Params   []ParamState `json:"params,omitempty"`
	Alpha    ParamState   `json:"alpha"`
	Colormap string       `json:"colormap,omitempty"`
}

// Snapshot is everything needed to restore a performance
type Snapshot struct {
	Version  int         `json:"version"`
	BPM      float64     `json:"bpm"`
	Mode     string      `json:"mode"`
	Colormap string      `json:"colormap"`
	Mono     float64     `json:"mono"`
	Slots    []SlotState `json:"slots"`
}

// SaveInfo describes a state file on disk (for listing)
type SaveInfo struct {
	Index    int
	Path     string
	Modified time.Time
}

// Path maps a state index to a file name using a format with one %d
func Path(format string, i int) string {
	return fmt.Sprintf(format, i)
}

// Save writes the snapshot to path. The file is replaced atomically so a
// failed write never leaves a truncated state behind.
func Save(path string, s *Snapshot) error {
	s.Version = Version
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fault.Wrap(err, fmsg.With("encode state"))
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fault.Wrap(err, fmsg.With("create state dir"))
	}

	tmp, err := os.CreateTemp(dir, ".state-*")
	if err != nil {
		return fault.Wrap(err, fmsg.With("save state"))
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fault.Wrap(err, fmsg.With("save state"))
	}
	if err := tmp.Close(); err != nil {
		return fault.Wrap(err, fmsg.With("save state"))
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fault.Wrap(err, fmsg.With("save state"))
	}
	return nil
}

// Load reads a snapshot. It only decodes; names are not resolved.
func Load(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fault.Wrap(err, ftag.With(ftag.NotFound), fmsg.With("no state at "+path))
		}
		return nil, fault.Wrap(err, fmsg.With("read state"))
	}

	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fault.Wrap(err, ftag.With(ftag.InvalidArgument), fmsg.With("decode state "+path))
	}
	if s.Version != Version {
		return nil, fault.New(fmt.Sprintf("state %s has version %d, expected %d", path, s.Version, Version),
			ftag.With(ftag.InvalidArgument))
	}
	return &s, nil
}

// List returns the state files that exist among indices [0, n)
func List(format string, n int) []SaveInfo {
	var saves []SaveInfo
	for i := 0; i < n; i++ {
		path := Path(format, i)
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		saves = append(saves, SaveInfo{Index: i, Path: path, Modified: info.ModTime()})
	}
	return saves
}
