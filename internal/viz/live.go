package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/springz/internal/config"
	"github.com/san-kum/springz/internal/metrics"
	"github.com/san-kum/springz/internal/observability"
	"github.com/san-kum/springz/internal/sim"
	"github.com/san-kum/springz/internal/springz"
)

const (
	width           = 80
	height          = 24
	historyCapacity = 600
	glideStep       = 0.05
)

type TickMsg time.Time

// Model steps a scene's collection once per tick and draws it.
type Model struct {
	scene     *config.Scene
	logger    *log.Logger
	collector *observability.Collector
	runner    *sim.Runner
	cfg       sim.Config

	canvas        *Canvas
	running       bool
	steps         int
	resolved      int
	energyHistory []float64
	theme         int
	err           error
}

// NewModel builds the scene's collection. The scene is cloned so later
// edits by the caller do not leak into resets.
func NewModel(scene *config.Scene, logger *log.Logger) (Model, error) {
	if logger == nil {
		logger = log.Default()
	}
	m := Model{
		scene:   scene.Clone(),
		logger:  logger,
		canvas:  NewCanvas(width, height),
		running: true,
		cfg: sim.Config{
			Width:           scene.Run.Width,
			Height:          scene.Run.Height,
			UncollidePasses: scene.Run.UncollidePasses,
		},
	}
	if err := m.build(); err != nil {
		return Model{}, err
	}
	return m, nil
}

// SetCollector routes per-step measurements to c.
func (m *Model) SetCollector(c *observability.Collector) {
	m.collector = c
	m.runner.SetCollector(c)
}

// Collection returns the collection currently on screen.
func (m Model) Collection() *springz.Collection { return m.runner.Collection() }

func (m Model) Steps() int        { return m.steps }
func (m Model) Running() bool     { return m.running }
func (m Model) Err() error        { return m.err }
func (m Model) Energy() []float64 { return m.energyHistory }

func (m *Model) build() error {
	coll, err := m.scene.Build(m.logger)
	if err != nil {
		return err
	}
	m.runner = sim.New(coll, m.logger)
	m.runner.SetCollector(m.collector)
	return nil
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return tick()
}

// Update handles input events and steps the layout.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		coll := m.Collection()
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.reset()
		case "c":
			coll.AvoidCollisions = !coll.AvoidCollisions
		case "m":
			coll.Masses = !coll.Masses
		case "+", "=":
			coll.Glide = math.Min(1, coll.Glide+glideStep)
		case "-", "_":
			coll.Glide = math.Max(0, coll.Glide-glideStep)
		case "t":
			m.theme = (m.theme + 1) % len(themes)
		}
	case TickMsg:
		if m.running && m.err == nil {
			m.step()
		}
		return m, tick()
	}
	return m, nil
}

func (m *Model) step() {
	energy, resolved, err := m.runner.Step(m.steps+1, m.cfg)
	if err != nil {
		m.err = err
		m.running = false
		m.logger.Error("step failed", "err", err)
		return
	}
	m.steps++
	m.resolved += resolved
	m.energyHistory = append(m.energyHistory, energy)
	if len(m.energyHistory) > historyCapacity {
		m.energyHistory = m.energyHistory[1:]
	}
}

// reset rebuilds the scene from its starting positions. Toggles made
// while running carry over.
func (m *Model) reset() {
	old := m.Collection()
	if err := m.build(); err != nil {
		m.err = err
		return
	}
	coll := m.Collection()
	coll.Masses = old.Masses
	coll.AvoidCollisions = old.AvoidCollisions
	coll.Glide = old.Glide

	m.steps = 0
	m.resolved = 0
	m.energyHistory = m.energyHistory[:0]
	m.err = nil
}

// viewport uses the run bounds when set, otherwise the extent of the nodes.
func (m *Model) viewport(nodes []*springz.Node) Viewport {
	if m.cfg.Width > 0 && m.cfg.Height > 0 {
		return NewViewport(m.canvas, m.cfg.Width, m.cfg.Height)
	}
	hw, hh := 1.0, 1.0
	for _, n := range nodes {
		hw = math.Max(hw, math.Abs(n.X)+n.Radius)
		hh = math.Max(hh, math.Abs(n.Y)+n.Radius)
	}
	return NewViewport(m.canvas, hw*1.1, hh*1.1)
}

func (m *Model) draw() {
	m.canvas.Clear()
	coll := m.Collection()
	nodes := coll.Nodes()
	vp := m.viewport(nodes)

	for _, c := range coll.Connections() {
		x0, y0 := vp.Project(c.Node1().X, c.Node1().Y)
		x1, y1 := vp.Project(c.Node2().X, c.Node2().Y)
		if c.Active {
			m.canvas.DrawLine(x0, y0, x1, y1)
		} else {
			m.canvas.DrawDashed(x0, y0, x1, y1)
		}
	}
	for _, n := range nodes {
		x, y := vp.Project(n.X, n.Y)
		r := max(vp.Scale(n.Radius), 1)
		if n.Locked {
			m.canvas.FillCircle(x, y, r)
		} else {
			m.canvas.DrawCircle(x, y, r)
		}
	}
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// View renders the TUI interface.
func (m Model) View() string {
	st := newStyles(themes[m.theme])
	m.draw()
	coll := m.Collection()
	nodes := coll.Nodes()

	var s strings.Builder
	s.WriteString(st.header.Render(strings.ToUpper(m.scene.Name)) + "\n")
	switch {
	case m.err != nil:
		s.WriteString(st.paused.Render("HALTED: "+m.err.Error()) + "\n\n")
	case m.running:
		s.WriteString(st.running.Render("RUNNING") + "\n\n")
	default:
		s.WriteString(st.paused.Render("PAUSED") + "\n\n")
	}

	if len(m.energyHistory) > 1 {
		chart := asciigraph.Plot(m.energyHistory, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Energy"))
		s.WriteString(st.graph.Render(chart) + "\n\n")
	}

	energy := 0.0
	if len(m.energyHistory) > 0 {
		energy = m.energyHistory[len(m.energyHistory)-1]
	}
	rows := []struct{ k, v string }{
		{"Step", fmt.Sprintf("%d", m.steps)},
		{"Nodes", fmt.Sprintf("%d / %d conns", coll.NumNodes(), coll.NumConnections())},
		{"Energy", fmt.Sprintf("%.4f", energy)},
		{"Strain", fmt.Sprintf("%.3f", metrics.MeanStrain(coll.Connections()))},
		{"Overlaps", fmt.Sprintf("%d", metrics.Overlaps(nodes))},
		{"Resolved", fmt.Sprintf("%d", m.resolved)},
		{"Glide", fmt.Sprintf("%.2f", coll.Glide)},
		{"Masses", onOff(coll.Masses)},
		{"Collide", onOff(coll.AvoidCollisions)},
	}
	for _, r := range rows {
		s.WriteString(st.label.Render(r.k) + st.value.Render(r.v) + "\n")
	}
	s.WriteString(st.help.Render("SP:Pause R:Reset Q:Quit\nC:Collide M:Masses +/-:Glide\nT:Theme (" + themes[m.theme].Name + ")"))

	canvasView := st.canvas.Render(m.canvas.String())
	return lipgloss.JoinHorizontal(lipgloss.Top, canvasView, st.panel.Render(s.String()))
}
