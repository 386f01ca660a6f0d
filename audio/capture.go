package audio

import (
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/gordonklaus/portaudio"

	"go-lumen/debug"
)

// Capture feeds a mono portaudio input stream into an Analyzer
type Capture struct {
	*Analyzer
	stream *portaudio.Stream
}

// OpenCapture opens the named input device (or the default one when device
// is empty) and starts streaming.
func OpenCapture(device string, sampleRate float64, frames int) (*Capture, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fault.Wrap(err, fmsg.With("portaudio init"))
	}

	c := &Capture{Analyzer: NewAnalyzer(sampleRate, time.Now())}

	var (
		stream *portaudio.Stream
		err    error
	)
	if device == "" {
		stream, err = portaudio.OpenDefaultStream(1, 0, sampleRate, frames, c.process)
	} else {
		var dev *portaudio.DeviceInfo
		dev, err = findInput(device)
		if err == nil {
			p := portaudio.LowLatencyParameters(dev, nil)
			p.Input.Channels = 1
			p.SampleRate = sampleRate
			p.FramesPerBuffer = frames
			stream, err = portaudio.OpenStream(p, c.process)
		}
	}
	if err != nil {
		portaudio.Terminate()
		return nil, fault.Wrap(err, fmsg.With("open audio input"))
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, fault.Wrap(err, fmsg.With("start audio input"))
	}
	c.stream = stream
	debug.Log("audio", "capture started: device=%q rate=%.0f frames=%d", device, sampleRate, frames)
	return c, nil
}

func (c *Capture) process(in []float32) {
	c.Process(in)
}

func findInput(name string) (*portaudio.DeviceInfo, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}
	for _, d := range devices {
		if d.Name == name && d.MaxInputChannels > 0 {
			return d, nil
		}
	}
	return nil, fault.New("no input device named " + name)
}

// InputDevices lists the names of devices that can record
func InputDevices() ([]string, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fault.Wrap(err, fmsg.With("portaudio init"))
	}
	defer portaudio.Terminate()
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fault.Wrap(err, fmsg.With("list audio devices"))
	}
	var names []string
	for _, d := range devices {
		if d.MaxInputChannels > 0 {
			names = append(names, d.Name)
		}
	}
	return names, nil
}

// Close stops the stream and releases portaudio
func (c *Capture) Close() error {
	if c.stream == nil {
		return nil
	}
	stopErr := c.stream.Stop()
	closeErr := c.stream.Close()
	c.stream = nil
	termErr := portaudio.Terminate()
	for _, err := range []error{stopErr, closeErr, termErr} {
		if err != nil {
			return fault.Wrap(err, fmsg.With("close audio input"))
		}
	}
	return nil
}
