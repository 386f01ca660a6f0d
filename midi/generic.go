package midi

import (
	"sync"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"go-lumen/config"
	"go-lumen/debug"
)

// GenericController handles any class-compliant controller: CCs from knobs
// and faders, notes from pads or keys. Keyboards drop CCs.
type GenericController struct {
	id       string
	typ      config.ControllerType
	channel  int // 1-16, 0 = any
	send     func(msg gomidi.Message) error
	stopFunc func()

	mu       sync.Mutex
	closed   bool
	ccChan   chan ControlEvent
	noteChan chan NoteEvent
}

// NewGenericController opens the ports. outPort may be nil.
func NewGenericController(cfg config.ControllerConfig, inPort drivers.In, outPort drivers.Out) (*GenericController, error) {
	gc := &GenericController{
		id:       inPort.String(),
		typ:      cfg.Type,
		channel:  cfg.InputChannel,
		ccChan:   make(chan ControlEvent, 64),
		noteChan: make(chan NoteEvent, 32),
	}
	if gc.typ == "" {
		gc.typ = config.ControllerGeneric
	}

	// Open output
	if outPort != nil {
		send, err := gomidi.SendTo(outPort)
		if err != nil {
			return nil, fault.Wrap(err, fmsg.With("open output "+outPort.String()))
		}
		gc.send = send
	}

	// Open input
	stop, err := gomidi.ListenTo(inPort, func(msg gomidi.Message, timestampms int32) {
		gc.dispatch(decode(gc.id, gc.typ, gc.channel, msg, time.Now()))
	})
	if err != nil {
		return nil, fault.Wrap(err, fmsg.With("open input "+inPort.String()))
	}
	gc.stopFunc = stop

	return gc, nil
}

// decode turns a raw message into a ControlEvent or NoteEvent, or nil when
// the message is filtered out or not of interest.
func decode(id string, typ config.ControllerType, channel int, msg gomidi.Message, at time.Time) any {
	var ch, key, vel, cc, val uint8
	switch {
	case msg.GetControlChange(&ch, &cc, &val):
		if typ == config.ControllerKeyboard || !onChannel(channel, ch) {
			return nil
		}
		return ControlEvent{Controller: id, Channel: ch, CC: cc, Value: val, At: at}
	case msg.GetNoteOn(&ch, &key, &vel):
		if !onChannel(channel, ch) {
			return nil
		}
		// note on with velocity 0 is a release
		return NoteEvent{Controller: id, Channel: ch, Note: key, Velocity: vel, On: vel > 0}
	case msg.GetNoteOff(&ch, &key, &vel):
		if !onChannel(channel, ch) {
			return nil
		}
		return NoteEvent{Controller: id, Channel: ch, Note: key, Velocity: vel}
	}
	return nil
}

// onChannel checks a 0-based wire channel against a 1-based filter
func onChannel(filter int, ch uint8) bool {
	return filter == 0 || int(ch)+1 == filter
}

func (gc *GenericController) dispatch(ev any) {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	if gc.closed {
		return
	}
	switch e := ev.(type) {
	case ControlEvent:
		select {
		case gc.ccChan <- e:
		default:
			debug.LogEvery(100, "midi", "%s: control queue full", gc.id)
		}
	case NoteEvent:
		select {
		case gc.noteChan <- e:
		default:
			debug.Log("midi", "%s: note queue full", gc.id)
		}
	}
}

func (gc *GenericController) ID() string {
	return gc.id
}

func (gc *GenericController) Type() config.ControllerType {
	return gc.typ
}

func (gc *GenericController) Controls() <-chan ControlEvent {
	return gc.ccChan
}

func (gc *GenericController) Notes() <-chan NoteEvent {
	return gc.noteChan
}

func (gc *GenericController) Light(note uint8, on bool) error {
	if gc.send == nil {
		return nil
	}
	if on {
		return gc.send(gomidi.NoteOn(0, note, 127))
	}
	return gc.send(gomidi.NoteOff(0, note))
}

func (gc *GenericController) Close() error {
	if gc.stopFunc != nil {
		gc.stopFunc()
	}
	gc.mu.Lock()
	defer gc.mu.Unlock()
	if !gc.closed {
		gc.closed = true
		close(gc.ccChan)
		close(gc.noteChan)
	}
	return nil
}
