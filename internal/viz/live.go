package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/nebula/internal/metrics"
	"github.com/san-kum/nebula/internal/nebula"
)

const (
	canvasWidth      = 48
	canvasHeight     = 24
	historyCapacity  = 300
	sampleEvery      = 5
	maxTicksPerFrame = 32
)

var (
	canvasStyle  = lipgloss.NewStyle().Padding(1, 2)
	statsStyle   = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(48)
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(18)
	valueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	activeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	runningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ff88")).Bold(true)
	pausedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffaa00")).Bold(true)
	graphStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second/60, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Model is the Bubble Tea model of the watch dashboard. It owns the tick
// schedule of the engine it is given.
type Model struct {
	engine  *nebula.Engine
	title   string
	dt      float64
	seed    int64
	metrics []metrics.Metric
	names   []string

	canvas *Canvas
	camera *Camera

	running       bool
	ticksPerFrame int
	frames        int
	selected      int
	values        []float64
	history       [][]float64
	stepRate      float64
	lastFrame     time.Time
	showHelp      bool
	err           error
}

// NewModel watches an engine that has already been configured. It is
// reseeded with seed on start.
func NewModel(engine *nebula.Engine, title string, dt float64, seed int64) Model {
	p := engine.Params()
	ms := metrics.Standard(p.G, p.Softening)
	m := Model{
		engine:        engine,
		title:         title,
		dt:            dt,
		seed:          seed,
		metrics:       ms,
		names:         metrics.Names(ms),
		canvas:        NewCanvas(canvasWidth, canvasHeight),
		camera:        NewCamera(1.5 * p.Disk.Radius),
		running:       true,
		ticksPerFrame: 1,
		history:       make([][]float64, len(ms)),
	}
	m.reseed(seed)
	return m
}

func (m Model) Init() tea.Cmd { return tick() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.reseed(m.seed)
		case "n":
			m.reseed(m.seed + 1)
		case "tab":
			m.selected = (m.selected + 1) % len(m.names)
		case "+", "=":
			m.ticksPerFrame = min(maxTicksPerFrame, m.ticksPerFrame*2)
		case "-", "_":
			m.ticksPerFrame = max(1, m.ticksPerFrame/2)
		case "x":
			m.camera.RotateX(0.1)
		case "X":
			m.camera.RotateX(-0.1)
		case "y":
			m.camera.RotateY(0.1)
		case "Y":
			m.camera.RotateY(-0.1)
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running {
			m.advance(time.Time(msg))
		}
		return m, tick()
	}
	return m, nil
}

func (m *Model) advance(now time.Time) {
	if m.err != nil {
		return
	}
	before := m.engine.Generation()
	for i := 0; i < m.ticksPerFrame; i++ {
		m.engine.Advance(m.dt)
	}
	if !m.lastFrame.IsZero() {
		if secs := now.Sub(m.lastFrame).Seconds(); secs > 0 {
			m.stepRate = float64(m.engine.Generation()-before) / secs
		}
	}
	m.lastFrame = now
	m.frames++
	if m.frames%sampleEvery == 0 {
		m.sample()
	}
}

func (m *Model) reseed(seed int64) {
	m.seed = seed
	m.frames = 0
	m.lastFrame = time.Time{}
	m.err = m.engine.Reset(seed)
	for i := range m.history {
		m.history[i] = m.history[i][:0]
	}
	for _, mt := range m.metrics {
		mt.Reset()
	}
	if m.err == nil {
		m.sample()
	}
}

func (m *Model) sample() {
	m.values = metrics.ObserveAll(m.metrics, metrics.Snapshot{
		Positions:  m.engine.Positions(),
		Velocities: m.engine.Velocities(),
		Time:       m.engine.Elapsed(),
	})
	for i, v := range m.values {
		h := append(m.history[i], v)
		if len(h) > historyCapacity {
			h = h[1:]
		}
		m.history[i] = h
	}
}

func (m *Model) draw() {
	m.canvas.Clear()
	v := m.engine.Positions()
	sw, sh := m.canvas.Width*2, m.canvas.Height*4
	for i := 0; i < v.Len(); i++ {
		if x, y, ok := m.camera.Project(v.At(i).Pos(), sw, sh); ok {
			m.canvas.Set(x, y)
		}
	}
}

func (m Model) View() string {
	m.draw()
	canvasView := canvasStyle.Render(m.canvas.String())

	var s strings.Builder
	s.WriteString(headerStyle.Render(strings.ToUpper(m.title)) + "\n")
	switch {
	case m.err != nil:
		s.WriteString(pausedStyle.Render("ERROR: "+m.err.Error()) + "\n\n")
	case m.running:
		s.WriteString(runningStyle.Render("RUNNING") + "\n\n")
	default:
		s.WriteString(pausedStyle.Render("PAUSED") + "\n\n")
	}

	if h := m.history[m.selected]; len(h) > 1 {
		chart := asciigraph.Plot(h, asciigraph.Height(5), asciigraph.Width(36), asciigraph.Caption(m.names[m.selected]))
		s.WriteString(graphStyle.Render(chart) + "\n")
	}

	row := func(label, value string) {
		s.WriteString(labelStyle.Render(label) + valueStyle.Render(value) + "\n")
	}
	row("seed", fmt.Sprintf("%d", m.seed))
	row("particles", fmt.Sprintf("%d", m.engine.Positions().Len()))
	row("generation", fmt.Sprintf("%d", m.engine.Generation()))
	row("time", fmt.Sprintf("%.2fs", m.engine.Elapsed()))
	row("ticks/frame", fmt.Sprintf("%d", m.ticksPerFrame))
	row("steps/s", fmt.Sprintf("%.0f", m.stepRate))
	s.WriteString("\n")
	for i, name := range m.names {
		val := ""
		if i < len(m.values) {
			val = fmt.Sprintf("%.5g", m.values[i])
		}
		if i == m.selected {
			s.WriteString(activeStyle.Render(fmt.Sprintf("> %-16s%s", name, val)) + "\n")
		} else {
			row("  "+name, val)
		}
	}
	s.WriteString(helpStyle.Render("SP:Pause R:Reset N:Next Q:Quit\nTab:Graph +/-:Speed ?:Help"))

	main := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsStyle.Render(s.String()))
	if m.showHelp {
		return helpText + "\n" + main
	}
	return main
}

const helpText = `
  Space  pause or resume
  R      reseed with the same seed
  N      reseed with the next seed
  Tab    cycle the graphed diagnostic
  + / -  double or halve ticks per frame
  X / Y  rotate the preview
  Q      quit
`
