package ui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/canfix/internal/protocol"
)

// DefaultRecentFrames is the number of raw frames the monitor keeps
const DefaultRecentFrames = 12

// FrameMsg carries one frame received from the bus
type FrameMsg struct {
	Frame protocol.Frame
	At    time.Time
}

// BusClosedMsg reports that the frame source ended
type BusClosedMsg struct{}

// WaitForFrame returns a command that blocks for the next frame on ch.
func WaitForFrame(ch <-chan protocol.Frame) tea.Cmd {
	return func() tea.Msg {
		f, ok := <-ch
		if !ok {
			return BusClosedMsg{}
		}
		return FrameMsg{Frame: f, At: time.Now()}
	}
}

type monitorKeyMap struct {
	Up    key.Binding
	Down  key.Binding
	Clear key.Binding
	Quit  key.Binding
}

func (k monitorKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Clear, k.Quit}
}

func (k monitorKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Up, k.Down}, {k.Clear, k.Quit}}
}

func defaultMonitorKeys() monitorKeyMap {
	return monitorKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Clear: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "clear"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

type paramKey struct {
	id    uint16
	index byte
}

type paramEntry struct {
	param protocol.Parameter
	seen  time.Time
}

// MonitorModel is a live bus view: the latest value of every parameter,
// per-category frame counts and the most recent raw frames.
type MonitorModel struct {
	Title string

	source    <-chan protocol.Frame
	maxRecent int

	recent    []FrameMsg
	params    map[paramKey]paramEntry
	counts    map[protocol.Category]int
	total     int
	malformed int
	closed    bool

	table  table.Model
	keys   monitorKeyMap
	help   help.Model
	width  int
	height int
}

// NewMonitorModel creates a monitor fed from source. A nil source leaves
// frame delivery to the caller (Program.Send).
func NewMonitorModel(title string, source <-chan protocol.Frame) MonitorModel {
	width, height := GetTerminalSize()
	t := table.New(
		table.WithColumns(paramColumns(width)),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(MutedColor).
		BorderBottom(true).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(TextColor).
		Background(PrimaryColor)
	t.SetStyles(styles)

	return MonitorModel{
		Title:     title,
		source:    source,
		maxRecent: DefaultRecentFrames,
		params:    make(map[paramKey]paramEntry),
		counts:    make(map[protocol.Category]int),
		table:     t,
		keys:      defaultMonitorKeys(),
		help:      help.New(),
		width:     width,
		height:    height,
	}
}

func paramColumns(width int) []table.Column {
	dataWidth := width - 44
	if dataWidth < 14 {
		dataWidth = 14
	}
	return []table.Column{
		{Title: "ID", Width: 6},
		{Title: "Idx", Width: 4},
		{Title: "Node", Width: 5},
		{Title: "Flags", Width: 6},
		{Title: "Meta", Width: 5},
		{Title: "Data", Width: dataWidth},
		{Title: "Age", Width: 6},
	}
}

// Init implements tea.Model
func (m MonitorModel) Init() tea.Cmd {
	if m.source == nil {
		return nil
	}
	return WaitForFrame(m.source)
}

// Update implements tea.Model
func (m MonitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = clampWidth(msg.Width), msg.Height
		m.table.SetColumns(paramColumns(m.width))
		m.table.SetHeight(m.tableHeight())
		m.table.SetRows(m.rows(time.Now()))
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Clear):
			m.clear()
			return m, nil
		}
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd

	case FrameMsg:
		m.record(msg)
		m.table.SetRows(m.rows(msg.At))
		if m.source == nil {
			return m, nil
		}
		return m, WaitForFrame(m.source)

	case BusClosedMsg:
		m.closed = true
		return m, nil
	}
	return m, nil
}

func (m *MonitorModel) record(msg FrameMsg) {
	m.total++
	m.recent = append(m.recent, msg)
	if len(m.recent) > m.maxRecent {
		m.recent = m.recent[len(m.recent)-m.maxRecent:]
	}

	cat := protocol.Classify(msg.Frame.ID)
	m.counts[cat]++
	if cat != protocol.CategoryParameter {
		return
	}
	p, err := protocol.ParseParameter(msg.Frame)
	if err != nil {
		m.malformed++
		return
	}
	m.params[paramKey{id: p.Type, index: p.Index}] = paramEntry{param: p, seen: msg.At}
}

func (m *MonitorModel) clear() {
	m.recent = nil
	m.params = make(map[paramKey]paramEntry)
	m.counts = make(map[protocol.Category]int)
	m.total = 0
	m.malformed = 0
	m.table.SetRows(nil)
}

func (m MonitorModel) tableHeight() int {
	// Title, counts, recent frames and help take the rest
	h := m.height - m.maxRecent - 8
	if h < 3 {
		h = 3
	}
	return h
}

func (m MonitorModel) sortedKeys() []paramKey {
	keys := make([]paramKey, 0, len(m.params))
	for k := range m.params {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].id != keys[j].id {
			return keys[i].id < keys[j].id
		}
		return keys[i].index < keys[j].index
	})
	return keys
}

func (m MonitorModel) rows(now time.Time) []table.Row {
	keys := m.sortedKeys()
	rows := make([]table.Row, 0, len(keys))
	for _, k := range keys {
		e := m.params[k]
		p := e.param
		rows = append(rows, table.Row{
			fmt.Sprintf("0x%03X", p.Type),
			fmt.Sprintf("%d", p.Index),
			fmt.Sprintf("%d", p.Node),
			flagString(p),
			fmt.Sprintf("%X", p.Metadata()),
			fmt.Sprintf("% X", p.Payload()),
			formatAge(now.Sub(e.seen)),
		})
	}
	return rows
}

func flagString(p protocol.Parameter) string {
	flags := []byte("---")
	if p.Annunciate() {
		flags[0] = 'A'
	}
	if p.Quality() {
		flags[1] = 'Q'
	}
	if p.Failed() {
		flags[2] = 'F'
	}
	return string(flags)
}

func formatAge(d time.Duration) string {
	switch {
	case d < time.Second:
		return "now"
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	default:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
}

// View implements tea.Model
func (m MonitorModel) View() string {
	var b strings.Builder

	title := m.Title
	if title == "" {
		title = "CAN-FIX monitor"
	}
	b.WriteString(TitleStyle.Render(title))
	if m.closed {
		b.WriteString(" " + ErrorMessageStyle.Render("bus closed"))
	}
	b.WriteString("\n")
	b.WriteString(m.countsLine())
	b.WriteString("\n\n")

	b.WriteString(m.table.View())
	b.WriteString("\n")

	b.WriteString(SectionStyle.Render("Recent frames"))
	b.WriteString("\n")
	for _, r := range m.recent {
		line := r.At.Format("15:04:05.000") + "  " + r.Frame.String()
		if protocol.Classify(r.Frame.ID) == protocol.CategoryAlarm {
			b.WriteString(AlarmLineStyle.Render(line))
		} else {
			b.WriteString(FrameLineStyle.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m MonitorModel) countsLine() string {
	parts := []string{
		KeyStyle.UnsetWidth().Render("frames ") + CountStyle.Render(fmt.Sprintf("%d", m.total)),
	}
	for _, cat := range []protocol.Category{
		protocol.CategoryParameter,
		protocol.CategoryAlarm,
		protocol.CategoryNodeSpecific,
		protocol.CategoryChannel,
		protocol.CategoryIgnored,
	} {
		parts = append(parts, KeyStyle.UnsetWidth().Render(cat.String()+" ")+CountStyle.Render(fmt.Sprintf("%d", m.counts[cat])))
	}
	if m.malformed > 0 {
		parts = append(parts, ErrorMessageStyle.Render(fmt.Sprintf("malformed %d", m.malformed)))
	}
	return strings.Join(parts, "  ")
}

// Total returns the number of frames seen since the last clear
func (m MonitorModel) Total() int { return m.total }

// Count returns the number of frames seen in category c
func (m MonitorModel) Count(c protocol.Category) int { return m.counts[c] }

// Malformed returns the number of undecodable parameter frames
func (m MonitorModel) Malformed() int { return m.malformed }

// Parameters returns the latest value of every parameter, ordered by
// identifier then index.
func (m MonitorModel) Parameters() []protocol.Parameter {
	keys := m.sortedKeys()
	out := make([]protocol.Parameter, 0, len(keys))
	for _, k := range keys {
		out = append(out, m.params[k].param)
	}
	return out
}

// Recent returns the retained raw frames, oldest first
func (m MonitorModel) Recent() []protocol.Frame {
	out := make([]protocol.Frame, len(m.recent))
	for i, r := range m.recent {
		out[i] = r.Frame
	}
	return out
}

// Closed reports whether the frame source has ended
func (m MonitorModel) Closed() bool { return m.closed }
