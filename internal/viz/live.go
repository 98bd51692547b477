package viz

import (
	"fmt"
	"image"
	"image/gif"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/cherrycore/internal/sim"
)

const (
	width           = 80
	height          = 24
	historyCapacity = 300
	sparkWidth      = 20
)

type TickMsg time.Time

// Config describes the particle set the live view (re)initializes.
type Config struct {
	Particles int
	Radius    float32
	Seed      int64
	Dt        float32
	FPS       int
	GIFPath   string
}

func (c Config) withDefaults() Config {
	if c.FPS <= 0 {
		c.FPS = 60
	}
	if c.GIFPath == "" {
		c.GIFPath = "cherry.gif"
	}
	return c
}

// tunable is one parameter adjustable from the keyboard.
type tunable struct {
	name     string
	get      func(sim.Params) float64
	set      func(*sim.Params, float64)
	step     float64 // used when the value is zero or integral
	integral bool
}

var tunables = []tunable{
	{name: "repulsion", get: func(p sim.Params) float64 { return float64(p.RepulsionStrength) },
		set: func(p *sim.Params, v float64) { p.RepulsionStrength = float32(v) }, step: 0.1},
	{name: "damping", get: func(p sim.Params) float64 { return float64(p.Damping) },
		set: func(p *sim.Params, v float64) { p.Damping = float32(v) }, step: 0.01},
	{name: "steering", get: func(p sim.Params) float64 { return float64(p.SteeringStrength) },
		set: func(p *sim.Params, v float64) { p.SteeringStrength = float32(v) }, step: 0.05},
	{name: "steer_every", get: func(p sim.Params) float64 { return float64(p.SteeringEveryNFrames) },
		set: func(p *sim.Params, v float64) { p.SteeringEveryNFrames = int(v) }, step: 1, integral: true},
	{name: "max_speed", get: func(p sim.Params) float64 { return float64(p.MaxSpeed) },
		set: func(p *sim.Params, v float64) { p.MaxSpeed = float32(v) }, step: 0.05},
	{name: "segment", get: func(p sim.Params) float64 { return float64(p.AxisSegmentLength) },
		set: func(p *sim.Params, v float64) { p.AxisSegmentLength = float32(v) }, step: 0.01},
}

// Model is the bubbletea model of the live particle view.
type Model struct {
	sim           *sim.Simulation
	cfg           Config
	initialParams sim.Params

	canvas *Canvas
	camera *Camera
	box    *Wireframe
	scene  *Wireframe
	theme  Theme
	st     styles

	running  bool
	showAxes bool
	showHelp bool
	selected int
	lastErr  error

	energy   []float64
	contacts []float64

	recording bool
	frames    []*image.Paletted
}

// NewModel initializes s from cfg and wraps it in a live view.
func NewModel(s *sim.Simulation, cfg Config) Model {
	cfg = cfg.withDefaults()
	s.Initialize(cfg.Particles, cfg.Radius, cfg.Seed)
	theme := Themes[0]
	return Model{
		sim:           s,
		cfg:           cfg,
		initialParams: s.Params(),
		canvas:        NewCanvas(width, height),
		camera:        NewCamera(1),
		box:           BoxWireframe(1),
		scene:         NewWireframe(),
		theme:         theme,
		st:            newStyles(theme),
		running:       true,
		showAxes:      true,
		energy:        make([]float64, 0, historyCapacity),
		contacts:      make([]float64, 0, historyCapacity),
	}
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.cfg.FPS), func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

// Update handles input events and steps the simulation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if m.recording {
				m.lastErr = m.saveGIF()
			}
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.reset()
		case "n":
			if !m.running {
				m.step()
			}
		case "tab":
			m.selected = (m.selected + 1) % len(tunables)
		case "up", "k":
			m.adjustParam(1)
		case "down", "j":
			m.adjustParam(-1)
		case "a":
			m.showAxes = !m.showAxes
		case "g":
			if m.recording {
				m.lastErr = m.saveGIF()
				m.recording = false
				m.frames = nil
			} else {
				m.recording = true
				m.frames = make([]*image.Paletted, 0)
			}
		case "?":
			m.showHelp = !m.showHelp
		case "t":
			m.theme = NextTheme(m.theme)
			m.st = newStyles(m.theme)
		case "x":
			m.camera.RotateX(0.1)
		case "X":
			m.camera.RotateX(-0.1)
		case "y":
			m.camera.RotateY(0.1)
		case "Y":
			m.camera.RotateY(-0.1)
		case "z":
			m.camera.RotateZ(0.1)
		case "Z":
			m.camera.RotateZ(-0.1)
		case "+", "=":
			m.camera.ZoomIn()
		case "-", "_":
			m.camera.ZoomOut()
		}
	case TickMsg:
		if m.running {
			m.step()
		}
		if m.recording {
			m.draw()
			m.frames = append(m.frames, m.canvas.Image(8, 16))
		}
		return m, m.tick()
	}
	return m, nil
}

// step advances the simulation one frame and records its history.
func (m *Model) step() {
	st := m.sim.Update(m.cfg.Dt)
	m.energy = appendCapped(m.energy, st.KineticEnergy)
	m.contacts = appendCapped(m.contacts, float64(st.Contacts))
}

func appendCapped(h []float64, v float64) []float64 {
	h = append(h, v)
	if len(h) > historyCapacity {
		h = h[1:]
	}
	return h
}

// adjustParam scales the selected parameter by 5% in direction dir, or
// steps it when it is zero or integral.
func (m *Model) adjustParam(dir int) {
	t := tunables[m.selected]
	p := m.sim.Params()
	v := t.get(p)
	switch {
	case t.integral || v == 0:
		v += float64(dir) * t.step
	case dir > 0:
		v *= 1.05
	default:
		v *= 0.95
	}
	if v < 0 {
		v = 0
	}
	t.set(&p, v)
	m.lastErr = m.sim.SetParams(p)
}

// reset reseeds the particles and restores the starting parameters.
func (m *Model) reset() {
	m.lastErr = m.sim.SetParams(m.initialParams)
	m.sim.Initialize(m.cfg.Particles, m.cfg.Radius, m.cfg.Seed)
	m.energy = m.energy[:0]
	m.contacts = m.contacts[:0]
}

// draw projects the exported position and segment buffers onto the canvas.
func (m *Model) draw() {
	m.canvas.Clear()
	m.scene.Clear()
	m.scene.Edges = append(m.scene.Edges, m.box.Edges...)

	pos, radii := m.sim.Positions(), m.sim.Radii()
	for i := 0; i < pos.Len(); i++ {
		p := pos.At(i)
		m.scene.AddPoint(r3.Vec{X: float64(p[0]), Y: float64(p[1]), Z: float64(p[2])}, float64(radii.At(i)[0]))
	}
	if m.showAxes {
		seg := m.sim.AxisSegments()
		for i := 0; i < seg.Len(); i++ {
			s := seg.At(i)
			m.scene.AddEdge(
				r3.Vec{X: float64(s[0]), Y: float64(s[1]), Z: float64(s[2])},
				r3.Vec{X: float64(s[3]), Y: float64(s[4]), Z: float64(s[5])},
			)
		}
	}
	Render3D(m.canvas, m.scene, m.camera)
}

func (m *Model) saveGIF() error {
	if len(m.frames) == 0 {
		return nil
	}
	delay := max(1, 100/m.cfg.FPS)
	anim := gif.GIF{LoopCount: 0}
	for _, frame := range m.frames {
		anim.Image = append(anim.Image, frame)
		anim.Delay = append(anim.Delay, delay)
	}
	f, err := os.Create(m.cfg.GIFPath)
	if err != nil {
		return err
	}
	defer f.Close()
	return gif.EncodeAll(f, &anim)
}

// View renders the TUI interface.
func (m Model) View() string {
	m.draw()
	canvasView := m.st.canvas.Render(m.canvas.String())
	last := m.sim.LastStats()
	n := m.sim.ParticleCount()

	var s strings.Builder
	s.WriteString(m.st.header.Render(fmt.Sprintf("CHERRYCORE  %d particles", n)) + "\n")
	switch {
	case m.recording:
		s.WriteString(m.st.recording.Render("● REC") + "\n\n")
	case m.running:
		s.WriteString(m.st.running.Render("RUNNING") + "\n\n")
	default:
		s.WriteString(m.st.paused.Render("PAUSED") + "\n\n")
	}

	if len(m.energy) > 1 {
		chart := asciigraph.Plot(m.energy, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Kinetic energy"))
		s.WriteString(m.st.graph.Render(chart) + "\n\n")
	}

	row := func(label, value string) {
		s.WriteString(m.st.label.Render(label) + m.st.value.Render(value) + "\n")
	}
	row("Frame", fmt.Sprintf("%d", m.sim.Frame()))
	row("Time", fmt.Sprintf("%.2fs", m.sim.Time()))
	row("Energy", fmt.Sprintf("%.4g", last.KineticEnergy))
	row("Speed", fmt.Sprintf("%.4f", last.MeanSpeed))
	s.WriteString(m.st.label.Render("Contacts") + m.st.Sparkline(m.contacts, sparkWidth) + m.st.value.Render(fmt.Sprintf(" %d", last.Contacts)) + "\n")

	steering := string(last.Steering)
	if last.Steering == sim.SteeringFailed {
		steering = m.st.failed.Render(steering)
	}
	row("Steering", steering)
	coverage := 0.0
	if n > 0 {
		coverage = float64(last.Steered) / float64(n)
	}
	s.WriteString(m.st.label.Render("Steered") + m.st.ProgressBar(coverage, sparkWidth) + m.st.value.Render(fmt.Sprintf(" %d", last.Steered)) + "\n")
	row("Fallbacks", fmt.Sprintf("%d", last.Fallbacks))
	row("Tetrahedra", fmt.Sprintf("%d", last.Tetrahedra))

	s.WriteString("\nPARAMETERS\n")
	p := m.sim.Params()
	for i, t := range tunables {
		line := fmt.Sprintf("%-12s %.3f", t.name, t.get(p))
		if i == m.selected {
			s.WriteString(m.st.active.Render("> "+line) + "\n")
		} else {
			s.WriteString("  " + m.st.value.Render(line) + "\n")
		}
	}
	if m.lastErr != nil {
		s.WriteString(m.st.failed.Render(m.lastErr.Error()) + "\n")
	}
	s.WriteString(m.st.help.Render("SP:Pause R:Reset Q:Quit A:Axes\nT:Theme G:Record ?:Help Tab/↑↓:Tune"))

	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, m.st.panel.Render(s.String()))
	if m.showHelp {
		return helpText + "\n\n" + mainView
	}
	return mainView
}

const helpText = `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume simulation  ║
║  N        - Single step when paused  ║
║  R        - Reseed particles         ║
║  Q        - Quit                     ║
║  Tab      - Cycle parameters         ║
║  Up/K     - Increase parameter       ║
║  Down/J   - Decrease parameter       ║
║  A        - Toggle axis segments     ║
║  X/Y/Z    - Rotate camera            ║
║  +/-      - Zoom                     ║
║  G        - Toggle GIF recording     ║
║  T        - Cycle themes             ║
║  ?        - Toggle this help         ║
╚══════════════════════════════════════╝`

// Run starts the live view on the terminal and blocks until it exits.
func Run(m Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
