package colormap

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	colorful "github.com/lucasb-eyer/go-colorful"
)

// LoadGPL reads a GIMP palette file as a colormap, one stop per color line
func LoadGPL(path string) (*Colormap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fault.Wrap(err, fmsg.With("open palette"))
	}
	defer f.Close()

	cm, err := ParseGPL(f)
	if err != nil {
		return nil, fault.Wrap(err, fmsg.WithDesc("parse palette "+path, "Palette "+filepath.Base(path)+" is not a GIMP palette."))
	}
	if cm.Name == "" {
		cm.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return cm, nil
}

// ParseGPL parses GIMP palette text
func ParseGPL(r io.Reader) (*Colormap, error) {
	var name string
	var stops []colorful.Color
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if strings.HasPrefix(line, "Name:") {
			name = strings.TrimSpace(strings.TrimPrefix(line, "Name:"))
			continue
		}

		// Skip headers and comments
		if line == "" || line[0] == '#' || strings.HasPrefix(line, "GIMP") || strings.HasPrefix(line, "Columns") {
			continue
		}

		// Parse RGB values (first 3 fields are R G B)
		fields := strings.Fields(line)
		if len(fields) >= 3 {
			r, err1 := strconv.Atoi(fields[0])
			g, err2 := strconv.Atoi(fields[1])
			b, err3 := strconv.Atoi(fields[2])
			if err1 == nil && err2 == nil && err3 == nil {
				stops = append(stops, colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255})
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fault.Wrap(err, fmsg.With("read palette"))
	}

	if len(stops) == 0 {
		return nil, fault.New("no colors found in palette")
	}

	return New(name, stops...), nil
}

// LoadDir loads every .gpl file in dir, sorted by file name
func LoadDir(dir string) ([]*Colormap, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.gpl"))
	if err != nil {
		return nil, fault.Wrap(err, fmsg.With("list palettes"))
	}
	var out []*Colormap
	for _, m := range matches {
		cm, err := LoadGPL(m)
		if err != nil {
			return nil, err
		}
		out = append(out, cm)
	}
	return out, nil
}
