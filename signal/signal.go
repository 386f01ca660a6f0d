// Package signal holds the conditioned control signals that params can be
// patched to. A signal reads one analysis band, runs it through a filter in
// beat time and publishes the result as a patch.Output.
package signal

import (
	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	colorful "github.com/lucasb-eyer/go-colorful"

	"go-lumen/audio"
	"go-lumen/config"
	"go-lumen/filter"
	"go-lumen/patch"
	"go-lumen/timebase"
)

// HistoryLen is how many frames of output a signal remembers for display
const HistoryLen = 64

// Signal is a named, filtered view of one input band
type Signal struct {
	Output *patch.Output
	Band   audio.Band
	Kind   string

	filter  filter.Filter // nil passes the input through
	history [HistoryLen]float64
	pos     int
}

// New creates a signal. f may be nil.
func New(name string, color [3]uint8, band audio.Band, f filter.Filter) *Signal {
	kind := "none"
	switch f.(type) {
	case *filter.EMA:
		kind = "ema"
	case *filter.DiodeEMA:
		kind = "diode"
	case *filter.AGC:
		kind = "agc"
	}
	return &Signal{
		Output: patch.NewOutput(name, color),
		Band:   band,
		Kind:   kind,
		filter: f,
	}
}

// Name is the output name
func (s *Signal) Name() string { return s.Output.Name }

// Update samples the frame at beat t and publishes the filtered value
func (s *Signal) Update(t timebase.MBeat, f audio.Frame) float64 {
	in := f.Band(s.Band)
	if s.Band == audio.Phase {
		in = t.Phase()
	}
	v := in
	if s.filter != nil {
		v = s.filter.Update(t, in)
	}
	s.Output.Set(v)
	s.history[s.pos] = v
	s.pos = (s.pos + 1) % HistoryLen
	return v
}

// Value is the last published value
func (s *Signal) Value() float64 { return s.Output.Value() }

// History returns the recent outputs, oldest first
func (s *Signal) History() []float64 {
	h := make([]float64, 0, HistoryLen)
	h = append(h, s.history[s.pos:]...)
	h = append(h, s.history[:s.pos]...)
	return h
}

// FromConfig builds a signal from a signal bank entry
func FromConfig(c config.SignalConfig) (*Signal, error) {
	band, err := audio.ParseBand(c.Input)
	if err != nil {
		return nil, fault.Wrap(err, fmsg.With("signal "+c.Name))
	}

	color := [3]uint8{255, 255, 255}
	if c.Color != "" {
		col, err := colorful.Hex(c.Color)
		if err != nil {
			return nil, fault.Wrap(err,
				ftag.With(ftag.InvalidArgument),
				fmsg.WithDesc("signal "+c.Name, "Signal colors are written as #rrggbb."))
		}
		r, g, b := col.RGB255()
		color = [3]uint8{r, g, b}
	}

	f, err := buildFilter(c.Filter)
	if err != nil {
		return nil, fault.Wrap(err, fmsg.With("signal "+c.Name))
	}
	return New(c.Name, color, band, f), nil
}

func buildFilter(c config.FilterConfig) (filter.Filter, error) {
	var (
		f   filter.Filter
		err error
	)
	switch c.Kind {
	case "ema":
		f, err = filter.NewEMA(c.Tau)
	case "diode":
		f, err = filter.NewDiodeEMA(c.Rise, c.Fall)
	case "agc":
		cfg := filter.AGCConfig{
			RangeLow:  c.RangeLow,
			RangeHigh: c.RangeHigh,
			KneeLow:   c.KneeLow,
			KneeHigh:  c.KneeHigh,
			Tau:       c.Tau,
		}
		if cfg.RangeLow == 0 && cfg.RangeHigh == 0 {
			cfg.RangeHigh = 1
		}
		f, err = filter.NewAGC(cfg)
	case "", "none":
		return nil, nil
	default:
		return nil, fault.New("unknown filter kind "+c.Kind, ftag.With(ftag.InvalidArgument))
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Build creates every signal in the bank, failing on the first bad entry
func Build(bank []config.SignalConfig) ([]*Signal, error) {
	sigs := make([]*Signal, 0, len(bank))
	for _, c := range bank {
		s, err := FromConfig(c)
		if err != nil {
			return nil, err
		}
		sigs = append(sigs, s)
	}
	return sigs, nil
}
