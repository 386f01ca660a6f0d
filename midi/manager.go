package midi

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/Southclaws/fault"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver

	"go-lumen/config"
	"go-lumen/debug"
)

// DeviceEvent is emitted when controllers connect/disconnect
type DeviceEvent struct {
	Type       DeviceEventType
	Controller Controller
	ID         string
}

type DeviceEventType int

const (
	DeviceConnected DeviceEventType = iota
	DeviceDisconnected
)

func (t DeviceEventType) String() string {
	if t == DeviceConnected {
		return "connected"
	}
	return "disconnected"
}

// portTimeout bounds a port listing; CoreMIDI can hang
const portTimeout = 3 * time.Second

// DeviceManager handles hot-plug detection of MIDI controllers. Only ports
// matching a configured controller with autoConnect are opened.
type DeviceManager struct {
	configs     []config.ControllerConfig
	controllers map[string]Controller
	mu          sync.RWMutex
	events      chan DeviceEvent
	refresh     chan struct{}
	pollRate    time.Duration
}

// NewDeviceManager creates a new device manager
func NewDeviceManager(configs []config.ControllerConfig) *DeviceManager {
	return &DeviceManager{
		configs:     configs,
		controllers: make(map[string]Controller),
		events:      make(chan DeviceEvent, 16),
		refresh:     make(chan struct{}, 1),
		pollRate:    time.Second,
	}
}

// Events returns a channel of device connect/disconnect events
func (dm *DeviceManager) Events() <-chan DeviceEvent {
	return dm.events
}

// Controllers returns a snapshot of connected controllers
func (dm *DeviceManager) Controllers() map[string]Controller {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	copy := make(map[string]Controller, len(dm.controllers))
	for k, v := range dm.controllers {
		copy[k] = v
	}
	return copy
}

// IDs returns the connected controller IDs
func (dm *DeviceManager) IDs() []string {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	ids := make([]string, 0, len(dm.controllers))
	for id := range dm.controllers {
		ids = append(ids, id)
	}
	return ids
}

// Refresh asks the polling loop to rescan now
func (dm *DeviceManager) Refresh() {
	select {
	case dm.refresh <- struct{}{}:
	default:
	}
}

// Run starts the polling loop (blocking - run in goroutine)
func (dm *DeviceManager) Run(ctx context.Context) {
	ticker := time.NewTicker(dm.pollRate)
	defer ticker.Stop()

	// Initial scan
	dm.scan()

	for {
		select {
		case <-ctx.Done():
			dm.closeAll()
			close(dm.events)
			return
		case <-ticker.C:
			dm.scan()
		case <-dm.refresh:
			debug.Log("midi", "refresh requested")
			dm.scan()
		}
	}
}

// Ports lists input and output ports, or ok=false if the driver hung
func Ports() (ins []drivers.In, outs []drivers.Out, ok bool) {
	type portsResult struct {
		inPorts  []drivers.In
		outPorts []drivers.Out
	}

	ch := make(chan portsResult, 1)
	go func() {
		ch <- portsResult{inPorts: gomidi.GetInPorts(), outPorts: gomidi.GetOutPorts()}
	}()

	select {
	case result := <-ch:
		return result.inPorts, result.outPorts, true
	case <-time.After(portTimeout):
		// CoreMIDI is hung - skip this scan
		// User needs to run: sudo killall coreaudiod midiserver
		return nil, nil, false
	}
}

func (dm *DeviceManager) scan() {
	inPorts, outPorts, ok := Ports()
	if !ok {
		debug.Log("midi", "port listing timed out")
		return
	}

	// Build map of what we see now
	seenIDs := make(map[string]bool)

	for _, inPort := range inPorts {
		id := inPort.String()
		cfg, ok := match(id, dm.configs)
		if !ok {
			continue
		}
		seenIDs[id] = true

		dm.mu.RLock()
		_, exists := dm.controllers[id]
		dm.mu.RUnlock()
		if exists {
			continue
		}

		// Find matching output port
		var outPort drivers.Out
		for j, op := range outPorts {
			if outputFor(id, op.String()) {
				outPort = outPorts[j]
				break
			}
		}

		c, err := NewGenericController(cfg, inPort, outPort)
		if err != nil {
			debug.Log("midi", "open %s: %v", id, err)
			continue
		}

		dm.mu.Lock()
		dm.controllers[id] = c
		dm.mu.Unlock()

		debug.Log("midi", "connected %s (%s)", id, cfg.Type)
		dm.events <- DeviceEvent{
			Type:       DeviceConnected,
			Controller: c,
			ID:         id,
		}
	}

	// Check for disconnects
	dm.mu.Lock()
	var toRemove []string
	for id := range dm.controllers {
		if !seenIDs[id] {
			toRemove = append(toRemove, id)
		}
	}
	for _, id := range toRemove {
		c := dm.controllers[id]
		c.Close()
		delete(dm.controllers, id)
		debug.Log("midi", "disconnected %s", id)
		dm.events <- DeviceEvent{
			Type: DeviceDisconnected,
			ID:   id,
		}
	}
	dm.mu.Unlock()
}

func (dm *DeviceManager) closeAll() {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	for _, c := range dm.controllers {
		c.Close()
	}
	dm.controllers = make(map[string]Controller)
}

// match finds the auto-connect config whose port name appears in the port
func match(port string, configs []config.ControllerConfig) (config.ControllerConfig, bool) {
	name := strings.ToLower(port)
	for _, c := range configs {
		if c.AutoConnect && c.PortName != "" && strings.Contains(name, strings.ToLower(c.PortName)) {
			return c, true
		}
	}
	return config.ControllerConfig{}, false
}

// outputFor reports whether an output port belongs to the same device as
// an input port. Drivers often append the port direction to the name.
func outputFor(in, out string) bool {
	trim := func(s string) string {
		s = strings.ToLower(s)
		for _, suffix := range []string{" in", " out", " input", " output"} {
			s = strings.TrimSuffix(s, suffix)
		}
		return s
	}
	return trim(in) == trim(out)
}

// FindPorts returns the first input whose name contains substr (any input
// when substr is empty) and its matching output, if there is one.
func FindPorts(substr string) (drivers.In, drivers.Out, error) {
	ins, outs, ok := Ports()
	if !ok {
		return nil, nil, fault.New("midi driver did not answer")
	}
	want := strings.ToLower(substr)
	for _, in := range ins {
		if !strings.Contains(strings.ToLower(in.String()), want) {
			continue
		}
		for _, out := range outs {
			if outputFor(in.String(), out.String()) {
				return in, out, nil
			}
		}
		return in, nil, nil
	}
	return nil, nil, fault.New("no midi input matching " + substr)
}
