// Package engine owns the performance state: the beat clock, the signal
// bank, the patch graph and the deck. One goroutine ticks it; input from the
// terminal and MIDI controllers arrives as queued events that are applied at
// the start of the next tick.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"

	"go-lumen/audio"
	"go-lumen/colormap"
	"go-lumen/compositor"
	"go-lumen/config"
	"go-lumen/debug"
	"go-lumen/midi"
	"go-lumen/patch"
	"go-lumen/pattern"
	"go-lumen/signal"
	"go-lumen/slot"
	"go-lumen/timebase"
)

// Event is a callback run on the engine goroutine with the engine locked
type Event func()

// eventQueueSize bounds the number of events waiting for the next tick
const eventQueueSize = 256

// Engine is the single owner of all mutable performance state
type Engine struct {
	cfg *config.Config
	now func() time.Time

	mu        sync.RWMutex
	tb        *timebase.Timebase
	graph     *patch.Graph
	deck      *slot.Deck
	comp      *compositor.Compositor
	patterns  *pattern.Registry
	colormaps []*colormap.Colormap
	mono      float64
	signals   []*signal.Signal
	audio     audio.Source
	lastSync  time.Time

	// weak references into the deck
	pending *ParamRef
	palette *paletteRef
	drags   map[string]ParamRef

	// MIDI
	controllers map[string]midi.Controller
	gestures    map[string]*gesture
	lit         bool

	// preview
	xs, ys  []float32
	preview []colormap.Color

	beat     timebase.MBeat
	fps      float64
	lastTick time.Time
	frame    uint64
	status   string

	events   chan Event
	done     chan struct{}
	stopOnce sync.Once

	// Notify TUI of updates
	UpdateChan chan struct{}
}

// Option configures an Engine
type Option func(*Engine)

// WithAudio sets the analysis source feeding the signals
func WithAudio(src audio.Source) Option {
	return func(e *Engine) { e.audio = src }
}

// WithClock replaces time.Now for the engine and its timebase
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithSignals replaces the signal bank from the config
func WithSignals(sigs []*signal.Signal) Option {
	return func(e *Engine) { e.signals = sigs }
}

// WithColormaps replaces the built-in and palette-directory colormaps
func WithColormaps(maps []*colormap.Colormap) Option {
	return func(e *Engine) { e.colormaps = maps }
}

// WithPatterns replaces the built-in pattern registry
func WithPatterns(r *pattern.Registry) Option {
	return func(e *Engine) { e.patterns = r }
}

// New builds an engine from a validated config
func New(cfg *config.Config, opts ...Option) (*Engine, error) {
	e := &Engine{
		cfg:         cfg,
		now:         time.Now,
		graph:       patch.NewGraph(),
		drags:       make(map[string]ParamRef),
		controllers: make(map[string]midi.Controller),
		gestures:    make(map[string]*gesture),
		events:      make(chan Event, eventQueueSize),
		done:        make(chan struct{}),
		UpdateChan:  make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.signals == nil {
		bank, err := config.LoadSignals(cfg.Signals)
		if err != nil {
			return nil, err
		}
		if e.signals, err = signal.Build(bank); err != nil {
			return nil, err
		}
	}
	if e.colormaps == nil {
		e.colormaps = colormap.Builtin()
		if cfg.Palettes != "" {
			extra, err := colormap.LoadDir(cfg.Palettes)
			if err != nil {
				return nil, fault.Wrap(err, fmsg.With("load palettes"))
			}
			e.colormaps = append(e.colormaps, extra...)
		}
	}
	if len(e.colormaps) == 0 {
		e.colormaps = colormap.Builtin()
	}
	if e.patterns == nil {
		e.patterns = pattern.Builtin()
	}

	mode := timebase.Automatic
	if cfg.Timebase.Manual || e.audio == nil {
		mode = timebase.Manual
	}
	minTap, maxTap := cfg.Timebase.TapWindow()
	e.tb = timebase.New(cfg.Timebase.BPM,
		timebase.WithClock(e.now),
		timebase.WithTapWindow(minTap, maxTap),
		timebase.WithMode(mode))

	// signal outputs come first so they head the source list
	for _, s := range e.signals {
		e.graph.Register(s.Output)
	}
	e.deck = slot.NewDeck(cfg.Slots, e.graph)

	global := colormap.Find(e.colormaps, cfg.UI.LastPalette)
	if global == nil {
		global = e.colormaps[0]
	}
	e.comp = compositor.New(global)

	e.xs, e.ys = compositor.Grid(cfg.UI.PreviewWidth, cfg.UI.PreviewHeight)
	e.preview = make([]colormap.Color, len(e.xs))

	debug.Log("engine", "new: %d slots, %d signals, %d patterns, %d colormaps",
		cfg.Slots, len(e.signals), e.patterns.Len(), len(e.colormaps))
	return e, nil
}

// Submit queues an event for the next tick. It blocks while the queue is
// full and returns false once the engine has stopped.
func (e *Engine) Submit(ev Event) bool {
	return e.post(ev, false)
}

func (e *Engine) post(ev Event, dropIfFull bool) bool {
	select {
	case <-e.done:
		return false
	default:
	}
	if dropIfFull {
		select {
		case e.events <- ev:
			return true
		default:
			debug.LogEvery(100, "engine", "event queue full, dropping")
			return false
		}
	}
	select {
	case e.events <- ev:
		return true
	case <-e.done:
		return false
	}
}

// drainEvents runs every queued event
func (e *Engine) drainEvents() {
	for {
		select {
		case ev := <-e.events:
			ev()
		default:
			return
		}
	}
}

// Run ticks the engine at the configured frame rate until ctx is done
// (blocking - run in goroutine)
func (e *Engine) Run(ctx context.Context) {
	fps := e.cfg.UI.FPS
	if fps <= 0 {
		fps = 30
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()
	defer e.Stop()

	debug.Log("engine", "run at %d fps", fps)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.Tick(e.now())
		}
	}
}

// Stop makes Submit fail from now on. Queued events are discarded.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() {
		close(e.done)
		debug.Log("engine", "stopped after %d frames", e.frame)
	})
}

// Done is closed once the engine has stopped
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

// Tick advances one frame
func (e *Engine) Tick(now time.Time) {
	e.mu.Lock()

	e.drainEvents()

	if e.audio != nil && e.tb.Mode() == timebase.Automatic {
		if bpm, at, ok := e.audio.Tempo(); ok && !at.Equal(e.lastSync) {
			e.tb.Sync(bpm, at)
			e.lastSync = at
		}
	}
	t := e.tb.Get()

	var frame audio.Frame
	if e.audio != nil {
		frame = e.audio.Frame()
	}
	for _, s := range e.signals {
		s.Update(t, frame)
	}

	e.expireGestures(now)
	e.graph.Pull()
	e.deck.Update(t)
	e.comp.Frame("preview", e.deck.Layers(), e.xs, e.ys, e.preview)
	e.beatLight(t)

	if !e.lastTick.IsZero() {
		if dt := now.Sub(e.lastTick).Seconds(); dt > 0 {
			inst := 1 / dt
			if e.fps == 0 {
				e.fps = inst
			} else {
				e.fps = 0.8*e.fps + 0.2*inst
			}
		}
	}
	e.lastTick = now
	e.beat = t
	e.frame++

	e.mu.Unlock()
	e.notifyUpdate()
}

// notifyUpdate sends a non-blocking signal to the TUI
func (e *Engine) notifyUpdate() {
	select {
	case e.UpdateChan <- struct{}{}:
	default:
	}
}

// report records the outcome of an operation for the status line
func (e *Engine) report(category string, err error) {
	if err == nil {
		return
	}
	debug.Log(category, "%v", err)
	if issue := fmsg.GetIssue(err); issue != "" {
		e.status = issue
		return
	}
	e.status = err.Error()
}

func (e *Engine) setStatus(format string, args ...any) {
	e.status = fmt.Sprintf(format, args...)
}
