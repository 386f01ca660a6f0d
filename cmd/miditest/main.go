package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"go-lumen/config"
	"go-lumen/midi"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	port := ""
	if len(os.Args) > 2 {
		port = os.Args[2]
	}

	switch os.Args[1] {
	case "list":
		listPorts()
	case "monitor":
		monitor(port)
	case "leds":
		testLEDs(port)
	case "poll":
		pollDevices()
	default:
		usage()
	}
}

func usage() {
	fmt.Println("MIDI Test Scripts")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  list           - List all MIDI ports")
	fmt.Println("  monitor [port] - Print CCs and notes as the engine sees them")
	fmt.Println("  leds [port]    - Blink the configured tap pad")
	fmt.Println("  poll           - Poll for device changes")
}

func listPorts() {
	fmt.Println("=== MIDI Input Ports ===")
	fmt.Println("(waiting up to 3 seconds...)")

	ins, outs, ok := midi.Ports()
	if !ok {
		fmt.Println("\nTIMEOUT! CoreMIDI is hung.")
		fmt.Println("Fix: sudo killall coreaudiod midiserver")
		return
	}
	for i, p := range ins {
		fmt.Printf("  %d: %s\n", i, p.String())
	}
	fmt.Println("\n=== MIDI Output Ports ===")
	for i, p := range outs {
		fmt.Printf("  %d: %s\n", i, p.String())
	}
}

func open(port string) (*midi.GenericController, bool) {
	in, out, err := midi.FindPorts(port)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return nil, false
	}
	fmt.Printf("Using input: %s\n", in.String())
	if out != nil {
		fmt.Printf("Using output: %s\n", out.String())
	}
	c, err := midi.NewGenericController(config.ControllerConfig{PortName: in.String()}, in, out)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return nil, false
	}
	return c, true
}

func monitor(port string) {
	c, ok := open(port)
	if !ok {
		return
	}
	defer c.Close()

	cfg := config.DefaultConfig()
	if loaded, err := config.Load(); err == nil {
		cfg = loaded
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	fmt.Println("Listening. Ctrl+C to exit.")

	for {
		select {
		case ev := <-c.Controls():
			target := "unmapped"
			if m, ok := cfg.ControlFor(ev.CC); ok {
				if m.Param < 0 {
					target = fmt.Sprintf("slot %d alpha", m.Slot)
				} else {
					target = fmt.Sprintf("slot %d param %d", m.Slot, m.Param)
				}
			}
			fmt.Printf("CC   ch=%-2d cc=%-3d value=%-3d (%.2f) -> %s\n",
				ev.Channel+1, ev.CC, ev.Value, ev.Normalized(), target)
		case ev := <-c.Notes():
			action := ""
			switch int(ev.Note) {
			case cfg.MIDI.TapNote:
				action = " -> tap"
			case cfg.MIDI.AlignNote:
				action = " -> align"
			}
			fmt.Printf("NOTE ch=%-2d note=%-3d vel=%-3d on=%v%s\n",
				ev.Channel+1, ev.Note, ev.Velocity, ev.On, action)
		case <-interrupt:
			return
		}
	}
}

func testLEDs(port string) {
	c, ok := open(port)
	if !ok {
		return
	}
	defer c.Close()

	note := uint8(config.DefaultConfig().MIDI.TapNote)
	fmt.Printf("Blinking note %d at 120 BPM...\n", note)
	for i := 0; i < 8; i++ {
		if err := c.Light(note, true); err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		time.Sleep(125 * time.Millisecond)
		c.Light(note, false)
		time.Sleep(375 * time.Millisecond)
	}
	fmt.Println("Done!")
}

func pollDevices() {
	fmt.Println("Polling for device changes every 2 seconds...")
	fmt.Println("Connect/disconnect a controller to test. Ctrl+C to exit.")

	lastIn := ""
	lastOut := ""

	for {
		ins, outs, ok := midi.Ports()
		if !ok {
			fmt.Println("driver hung, retrying")
			time.Sleep(2 * time.Second)
			continue
		}

		var inNames, outNames []string
		for _, p := range ins {
			inNames = append(inNames, p.String())
		}
		for _, p := range outs {
			outNames = append(outNames, p.String())
		}

		currentIn := strings.Join(inNames, ",")
		currentOut := strings.Join(outNames, ",")

		if currentIn != lastIn || currentOut != lastOut {
			fmt.Printf("\n[%s] Device change detected!\n", time.Now().Format("15:04:05"))
			fmt.Printf("  Inputs: %v\n", inNames)
			fmt.Printf("  Outputs: %v\n", outNames)

			cfg, err := config.Load()
			if err == nil {
				for _, c := range cfg.AutoConnectControllers() {
					for _, name := range inNames {
						if strings.Contains(strings.ToLower(name), strings.ToLower(c.PortName)) {
							fmt.Printf("  -> %s would auto-connect\n", name)
						}
					}
				}
			}

			lastIn = currentIn
			lastOut = currentOut
		}

		time.Sleep(2 * time.Second)
	}
}
