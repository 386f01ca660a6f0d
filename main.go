package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	tea "github.com/charmbracelet/bubbletea"

	"go-lumen/audio"
	"go-lumen/colormap"
	"go-lumen/config"
	"go-lumen/debug"
	"go-lumen/engine"
	"go-lumen/midi"
	"go-lumen/theme"
	"go-lumen/tui"
)

func main() {
	var (
		configPath = flag.String("config", "", "config file (default ~/.config/go-lumen/config.json)")
		debugLog   = flag.Bool("debug", false, "write a debug log")
		listAudio  = flag.Bool("list-audio", false, "list audio input devices and exit")
		source     = flag.String("audio", "", "audio source: capture, synthetic or none")
	)
	flag.Parse()

	if *listAudio {
		names, err := audio.InputDevices()
		if err != nil {
			fatal(err)
		}
		for _, n := range names {
			fmt.Println(n)
		}
		return
	}

	path := *configPath
	if path == "" {
		p, err := config.ConfigPath()
		if err != nil {
			fatal(err)
		}
		path = p
	}
	cfg, err := config.LoadFrom(path)
	if err != nil {
		fatal(err)
	}
	if *source != "" {
		cfg.Audio.Source = config.AudioSource(*source)
	}
	if err := cfg.Validate(); err != nil {
		fatal(err)
	}

	if *debugLog || cfg.Debug {
		if err := debug.Enable(); err != nil {
			fmt.Fprintf(os.Stderr, "debug log: %v\n", err)
		}
		defer debug.Disable()
	}

	src, closer := openAudio(cfg)
	if closer != nil {
		defer closer.Close()
	}

	var opts []engine.Option
	if src != nil {
		opts = append(opts, engine.WithAudio(src))
	}
	e, err := engine.New(cfg, opts...)
	if err != nil {
		fatal(err)
	}

	th := theme.New(colormap.Find(colormap.Builtin(), "plasma"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go e.Run(ctx)

	// Create MIDI device manager (handles hot-plug)
	deviceMgr := midi.NewDeviceManager(cfg.AutoConnectControllers())
	go deviceMgr.Run(ctx)

	m := tui.NewModel(ctx, e, deviceMgr, th, cfg)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())

	_, runErr := p.Run()

	cancel()
	<-e.Done()

	if err := cfg.SaveTo(path); err != nil {
		debug.Log("config", "save failed: %v", err)
	}
	if runErr != nil {
		fmt.Printf("Error: %v\n", runErr)
		os.Exit(1)
	}
}

// openAudio picks the band source; a capture that fails to open falls back
// to the synthetic one so the rig still moves
func openAudio(cfg *config.Config) (audio.Source, io.Closer) {
	switch cfg.Audio.Source {
	case config.AudioCapture:
		c, err := audio.OpenCapture(cfg.Audio.Device, cfg.Audio.SampleRate, cfg.Audio.Frames)
		if err == nil {
			return c, c
		}
		debug.Log("audio", "capture unavailable: %v", err)
		fmt.Fprintf(os.Stderr, "audio capture unavailable (%v), using synthetic input\n", err)
		bpm := cfg.Audio.SyntheticBPM
		if bpm <= 0 {
			bpm = cfg.Timebase.BPM
		}
		return audio.NewSynthetic(bpm, time.Now), nil
	case config.AudioSynthetic:
		return audio.NewSynthetic(cfg.Audio.SyntheticBPM, time.Now), nil
	}
	return nil, nil
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	if issue := fmsg.GetIssue(err); issue != "" {
		fmt.Fprintf(os.Stderr, "  %s\n", issue)
	}
	if chain := fault.Flatten(err); len(chain) > 1 {
		for _, step := range chain {
			if step.Message != "" {
				fmt.Fprintf(os.Stderr, "  - %s\n", step.Message)
			}
		}
	}
	os.Exit(1)
}
