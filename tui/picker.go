package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"go-lumen/theme"
)

type pickKind int

const (
	pickPattern pickKind = iota
	pickSource
	pickPalette
	pickGlobal
	pickSave
	pickLoad
)

// followGlobal is the palette entry that drops a slot's override
const followGlobal = "(global)"

// picker is a modal list; the chosen item is applied according to kind
type picker struct {
	kind  pickKind
	title string
	items []string
	index int
}

func (m *Model) open(kind pickKind, title string, items []string) {
	if len(items) == 0 {
		return
	}
	m.pick = &picker{kind: kind, title: title, items: items}
}

func (m Model) updatePicker(msg tea.KeyMsg) Model {
	p := m.pick
	switch {
	case Is(msg, keys.Up):
		if p.index > 0 {
			p.index--
		}
	case Is(msg, keys.Down):
		if p.index < len(p.items)-1 {
			p.index++
		}
	case Is(msg, keys.Pick):
		m.pick = nil
		m.apply(p)
	case Is(msg, keys.Cancel), Is(msg, keys.Quit):
		m.pick = nil
		if p.kind == pickSource && m.Engine.View().Pending {
			// marking the same param again cancels
			m.Engine.BeginConnect(m.slot, m.param)
		}
	}
	return m
}

func (m *Model) apply(p *picker) {
	e := m.Engine
	item := p.items[p.index]
	switch p.kind {
	case pickPattern:
		e.LoadPattern(m.slot, item)
		m.param = 0
	case pickSource:
		e.ConnectPending(item)
	case pickPalette:
		// selecting the slot twice drops its override
		e.SelectPaletteTarget(m.slot)
		if item == followGlobal {
			e.SelectPaletteTarget(m.slot)
			return
		}
		e.ApplyPalette(item)
	case pickGlobal:
		e.ApplyPalette(item)
	case pickSave:
		e.SaveState(p.index)
	case pickLoad:
		e.LoadState(p.index)
	}
}

// pickerRows is how many items are shown around the cursor
const pickerRows = 8

func (p *picker) view(th *theme.Theme) string {
	titleStyle := lipgloss.NewStyle().Foreground(th.Accent())
	cursorStyle := lipgloss.NewStyle().Foreground(th.Cursor())

	first := p.index - pickerRows/2
	if first > len(p.items)-pickerRows {
		first = len(p.items) - pickerRows
	}
	if first < 0 {
		first = 0
	}
	last := first + pickerRows
	if last > len(p.items) {
		last = len(p.items)
	}

	lines := []string{titleStyle.Render(p.title)}
	for i := first; i < last; i++ {
		if i == p.index {
			lines = append(lines, cursorStyle.Render(fmt.Sprintf("%c %s", th.Symbols.Focus, p.items[i])))
		} else {
			lines = append(lines, "  "+p.items[i])
		}
	}
	return strings.Join(lines, "\n")
}
