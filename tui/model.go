package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"go-lumen/config"
	"go-lumen/engine"
	"go-lumen/midi"
	"go-lumen/patch"
	"go-lumen/theme"
	"go-lumen/widgets"
)

// layoutBounds holds cached layout info
type layoutBounds struct {
	previewTop  int
	previewRows int
	previewW    int
	previewH    int
}

// step is how far one key press moves a param
const step = 0.05

// monoStep is how far one key press moves the mono hue
const monoStep = 1.0 / 24

type Model struct {
	Engine    *engine.Engine
	DeviceMgr *midi.DeviceManager
	Theme     *theme.Theme

	ctx        context.Context
	stateCount int
	help       help.Model
	slot       int
	param      int // patch.AlphaIndex for alpha
	pick       *picker
	dragging   bool
	dragSlot   int
	quitting   bool
	bounds     *layoutBounds
}

type UpdateMsg struct{}

type DeviceEventMsg midi.DeviceEvent

// NewModel creates the control surface. Controllers announced by deviceMgr
// are attached to the engine for the lifetime of ctx.
func NewModel(ctx context.Context, e *engine.Engine, deviceMgr *midi.DeviceManager, th *theme.Theme, cfg *config.Config) Model {
	return Model{
		Engine:     e,
		DeviceMgr:  deviceMgr,
		Theme:      th,
		ctx:        ctx,
		stateCount: cfg.State.Count,
		help:       help.New(),
		param:      patch.AlphaIndex,
		bounds:     &layoutBounds{},
	}
}

func ListenForUpdates(e *engine.Engine) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-e.UpdateChan:
			return UpdateMsg{}
		case <-e.Done():
			return nil
		}
	}
}

func ListenForDevices(deviceMgr *midi.DeviceManager) tea.Cmd {
	if deviceMgr == nil {
		return nil
	}
	return func() tea.Msg {
		event, ok := <-deviceMgr.Events()
		if !ok {
			return nil
		}
		return DeviceEventMsg(event)
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		ListenForUpdates(m.Engine),
		ListenForDevices(m.DeviceMgr),
	)
}

func Is(msg tea.KeyMsg, k ...key.Binding) bool {
	return key.Matches(msg, k...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.pick != nil {
			return m.updatePicker(msg), nil
		}
		if Is(msg, keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
		m.handleKey(msg)

	case tea.MouseMsg:
		m.handleMouse(msg)

	case tea.WindowSizeMsg:
		m.help.Width = msg.Width

	case UpdateMsg:
		return m, ListenForUpdates(m.Engine)

	case DeviceEventMsg:
		event := midi.DeviceEvent(msg)
		if event.Type == midi.DeviceConnected {
			m.Engine.AttachController(m.ctx, event.Controller)
		}
		return m, ListenForDevices(m.DeviceMgr)
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) {
	v := m.Engine.View()
	e := m.Engine

	switch {
	case Is(msg, keys.Left):
		m.focus(v, m.slot-1)
	case Is(msg, keys.Right):
		m.focus(v, m.slot+1)
	case Is(msg, keys.Up):
		if m.param > patch.AlphaIndex {
			m.param--
		}
	case Is(msg, keys.Down):
		if m.param < len(v.Slots[m.slot].Params)-1 {
			m.param++
		}
	case Is(msg, keys.Dec, keys.Inc):
		p, ok := m.current(v)
		if !ok {
			return
		}
		d := step
		if Is(msg, keys.Dec) {
			d = -step
		}
		e.Command("keys", m.slot, patch.Command{Index: m.param, Status: patch.Stop, Value: p.Value + d})

	case Is(msg, keys.Load):
		m.open(pickPattern, fmt.Sprintf("load into slot %d", m.slot), v.Patterns)
	case Is(msg, keys.Unload):
		e.Unload(m.slot)
		m.param = patch.AlphaIndex
	case Is(msg, keys.SwapLeft):
		if m.slot > 0 {
			e.Swap(m.slot, m.slot-1)
			m.slot--
		}
	case Is(msg, keys.SwapRight):
		if m.slot < len(v.Slots)-1 {
			e.Swap(m.slot, m.slot+1)
			m.slot++
		}

	case Is(msg, keys.Connect):
		if _, ok := m.current(v); ok {
			e.BeginConnect(m.slot, m.param)
			m.open(pickSource, "patch from", v.Sources)
		}
	case Is(msg, keys.Disconnect):
		e.Disconnect(m.slot, m.param)
	case Is(msg, keys.Palette):
		if v.Slots[m.slot].Loaded() {
			m.open(pickPalette, fmt.Sprintf("palette for slot %d", m.slot), append([]string{followGlobal}, v.Colormaps...))
		}
	case Is(msg, keys.Global):
		m.open(pickGlobal, "global palette", v.Colormaps)
	case Is(msg, keys.MonoDown):
		e.SetMono(v.Mono - monoStep)
	case Is(msg, keys.MonoUp):
		e.SetMono(v.Mono + monoStep)

	case Is(msg, keys.Tap):
		e.Tap()
	case Is(msg, keys.Align):
		e.Align()
	case Is(msg, keys.Mode):
		e.ToggleMode()
	case Is(msg, keys.Faster):
		e.NudgeBPM(1)
	case Is(msg, keys.Slower):
		e.NudgeBPM(-1)

	case Is(msg, keys.Save):
		m.open(pickSave, "save state", m.stateItems())
	case Is(msg, keys.Open):
		m.open(pickLoad, "load state", m.stateItems())
	case Is(msg, keys.Refresh):
		if m.DeviceMgr != nil {
			m.DeviceMgr.Refresh()
		}
	case Is(msg, keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
}

// focus moves the cursor to slot i, resetting the param cursor
func (m *Model) focus(v engine.View, i int) {
	if i < 0 || i >= len(v.Slots) {
		return
	}
	m.slot = i
	m.param = patch.AlphaIndex
}

// current is the param under the cursor
func (m *Model) current(v engine.View) (engine.ParamView, bool) {
	s := v.Slots[m.slot]
	if !s.Loaded() {
		return engine.ParamView{}, false
	}
	if m.param == patch.AlphaIndex {
		return s.Alpha, true
	}
	if m.param < 0 || m.param >= len(s.Params) {
		return engine.ParamView{}, false
	}
	return s.Params[m.param], true
}

func (m *Model) stateItems() []string {
	exists := make(map[int]string)
	for _, s := range m.Engine.Saves() {
		exists[s.Index] = s.Modified.Format("Jan 2 15:04")
	}
	items := make([]string, m.stateCount)
	for i := range items {
		items[i] = fmt.Sprintf("%d  %s", i, exists[i])
	}
	return items
}

// handleMouse turns drags over the preview into gestures on params 0 and 1
// of the slot focused when the button went down
func (m *Model) handleMouse(msg tea.MouseMsg) {
	x, y, inside := m.previewPos(msg.X, msg.Y)

	switch {
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft && inside:
		m.dragging = true
		m.dragSlot = m.slot
		m.Engine.Command("mouse:x", m.dragSlot, patch.Command{Index: 0, Status: patch.Start, Value: x})
		m.Engine.Command("mouse:y", m.dragSlot, patch.Command{Index: 1, Status: patch.Start, Value: y})
	case msg.Action == tea.MouseActionMotion && m.dragging:
		m.Engine.Command("mouse:x", m.dragSlot, patch.Command{Index: 0, Status: patch.Change, Value: x})
		m.Engine.Command("mouse:y", m.dragSlot, patch.Command{Index: 1, Status: patch.Change, Value: y})
	case msg.Action == tea.MouseActionRelease && m.dragging:
		m.dragging = false
		m.Engine.Command("mouse:x", m.dragSlot, patch.Command{Index: 0, Status: patch.Stop, Value: x})
		m.Engine.Command("mouse:y", m.dragSlot, patch.Command{Index: 1, Status: patch.Stop, Value: y})
	}
}

// previewPos maps a terminal cell onto [0,1]² over the preview, y up
func (m *Model) previewPos(cx, cy int) (x, y float64, inside bool) {
	b := m.bounds
	if b.previewW < 2 || b.previewH < 2 {
		return 0, 0, false
	}
	row := cy - b.previewTop
	inside = cx >= 0 && cx < b.previewW && row >= 0 && row < b.previewRows
	x = clamp01(float64(cx) / float64(b.previewW-1))
	y = clamp01(1 - float64(row*2)/float64(b.previewH-1))
	return x, y, inside
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	v := m.Engine.View()
	sym := m.Theme.Symbols

	// Styles
	headerStyle := lipgloss.NewStyle().Foreground(m.Theme.Accent())
	dimStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())
	statusStyle := lipgloss.NewStyle().Foreground(m.Theme.Warning())

	// Header with tempo and device status
	beat := sym.BeatOff
	if v.Beat.Phase() < 0.25 {
		beat = sym.BeatOn
	}
	ctrl := ""
	if len(v.Controllers) > 0 {
		ctrl = fmt.Sprintf("  midi:%d", len(v.Controllers))
	}
	header := headerStyle.Render(fmt.Sprintf("go-lumen  %6.1fbpm %-6s %c %5d  %4.0ffps  %s%s",
		v.BPM, v.Mode, beat, int64(v.Beat.Beats()), v.FPS, v.Global, ctrl))

	preview := widgets.RenderPreview(v.Preview, v.PreviewW, v.PreviewH, sym.HalfTop)
	top := lipgloss.JoinHorizontal(lipgloss.Top, preview, "  ", m.renderSignals(v))

	// Compute layout bounds
	m.bounds.previewTop = 1 + lipgloss.Height(header) + 1
	m.bounds.previewRows = (v.PreviewH + 1) / 2
	m.bounds.previewW = v.PreviewW
	m.bounds.previewH = v.PreviewH

	// Build output
	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(header)
	out.WriteString("\n\n")
	out.WriteString(top)
	out.WriteString("\n\n")
	out.WriteString(m.renderSlots(v))
	if m.pick != nil {
		out.WriteString("\n\n")
		out.WriteString(m.pick.view(m.Theme))
	}
	out.WriteString("\n\n")
	if v.Status != "" {
		out.WriteString(statusStyle.Render(v.Status))
		out.WriteString("\n")
	}
	out.WriteString(dimStyle.Render(m.help.View(keys)))
	return out.String()
}

const signalWidth = 24

func (m Model) renderSignals(v engine.View) string {
	var lines []string
	for _, s := range v.Signals {
		spark := widgets.RenderSparkline(s.History, signalWidth, m.Theme.Symbols.Levels)
		lines = append(lines, widgets.RenderLegendItem(s.Color, fmt.Sprintf("%-8s", s.Name),
			fmt.Sprintf("%s %.2f", spark, s.Value)))
	}
	return strings.Join(lines, "\n")
}

const sliderWidth = 12

func (m Model) renderSlots(v engine.View) string {
	sym := m.Theme.Symbols
	focusStyle := lipgloss.NewStyle().Foreground(m.Theme.Cursor())
	dimStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())
	activeStyle := lipgloss.NewStyle().Foreground(m.Theme.Active())

	var lines []string
	for _, s := range v.Slots {
		focused := s.Index == m.slot
		cursor := ' '
		if focused {
			cursor = sym.Focus
		}
		if !s.Loaded() {
			lines = append(lines, dimStyle.Render(fmt.Sprintf("%c %c %d  -", cursor, sym.Empty, s.Index)))
			continue
		}

		target := ' '
		if s.PaletteTarget {
			target = sym.Target
		}
		cm := s.Colormap
		if cm == "" {
			cm = "(" + v.Global + ")"
		}
		alphaCursor := ' '
		if focused && m.param == patch.AlphaIndex {
			alphaCursor = sym.Focus
		}
		line := fmt.Sprintf("%c %c %d  %-8s %c %s  %c %s", cursor, sym.Solid, s.Index, s.Pattern,
			alphaCursor, m.renderParam(s.Alpha), target, cm)
		if focused {
			line = focusStyle.Render(line)
		}
		lines = append(lines, line)
		if !focused {
			continue
		}

		for j, p := range s.Params {
			cursor := ' '
			if j == m.param {
				cursor = sym.Focus
			}
			row := fmt.Sprintf("               %c %s", cursor, m.renderParam(p))
			if p.Dragging {
				row = activeStyle.Render(row)
			}
			lines = append(lines, row)
		}
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderParam(p engine.ParamView) string {
	sym := m.Theme.Symbols
	mark := ' '
	switch {
	case p.Pending:
		mark = sym.Pending
	case p.Dragging:
		mark = sym.Dragging
	}
	s := fmt.Sprintf("%-6s %s %.2f %c", p.Name, widgets.RenderSlider(p.Value, sliderWidth, sym.BarFull, sym.BarEmpty), p.Value, mark)
	if p.Source != "" {
		s += fmt.Sprintf(" %c %s", sym.Link, p.Source)
	}
	return s
}
