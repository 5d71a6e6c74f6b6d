package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/springsim/internal/dynamo"
	"github.com/san-kum/springsim/internal/metrics"
	"github.com/san-kum/springsim/internal/sim"
)

const (
	width           = 60
	height          = 22
	historyCapacity = 240
	gifPath         = "springsim.gif"
)

var (
	canvasStyle = lipgloss.NewStyle().Padding(1, 2)
	statsStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(46)
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
)

type TickMsg time.Time

// LiveModel steps a simulator in real time and draws its chains.
type LiveModel struct {
	sim      *sim.Simulator
	name     string
	dt       float64
	canvas   *Canvas
	camera   *Camera
	ground   *Wireframe
	frame    dynamo.Frame
	running  bool
	selected int
	gravity  []float64 // per-chain gravity power while gravity is off
	swing    []float64
	recorder *Recorder
	status   string
	showHelp bool
}

// NewLiveModel wraps a simulator that has already been set up.
func NewLiveModel(s *sim.Simulator, name string, dt float64) LiveModel {
	return LiveModel{
		sim:     s,
		name:    name,
		dt:      dt,
		canvas:  NewCanvas(width, height),
		camera:  NewCamera(),
		ground:  GroundWireframe(2, 5),
		frame:   s.Sample(),
		running: true,
		swing:   make([]float64, 0, historyCapacity),
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/60, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m LiveModel) Init() tea.Cmd {
	return tick()
}

func (m LiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.reset()
		case "i":
			m.identity()
		case "g":
			m.toggleGravity()
		case "tab":
			if n := len(m.sim.Chains()); n > 0 {
				m.selected = (m.selected + 1) % n
				m.swing = m.swing[:0]
			}
		case "up", "k":
			m.scaleStiffness(1.1)
		case "down", "j":
			m.scaleStiffness(1 / 1.1)
		case "left", "h":
			m.camera.Orbit(-0.1, 0)
		case "right", "l":
			m.camera.Orbit(0.1, 0)
		case "w":
			m.camera.Orbit(0, 0.1)
		case "s":
			m.camera.Orbit(0, -0.1)
		case "+", "=":
			m.camera.ZoomIn()
		case "-", "_":
			m.camera.ZoomOut()
		case "t":
			NextTheme()
		case "v":
			m.toggleRecording()
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running {
			m.step()
		}
		m.draw()
		if m.recorder != nil {
			m.recorder.Capture(m.canvas)
		}
		return m, tick()
	}
	return m, nil
}

func (m *LiveModel) step() {
	m.frame = m.sim.Step(m.dt)

	if m.selected < len(m.frame.Chains) {
		bones := m.frame.Chains[m.selected].Bones
		if len(bones) > 0 {
			tip := bones[len(bones)-1]
			m.swing = append(m.swing, metrics.Angle(tip.Direction(), tip.Rest))
			if len(m.swing) > historyCapacity {
				m.swing = m.swing[1:]
			}
		}
	}
}

// reset puts every chain back in its captured rest pose.
func (m *LiveModel) reset() {
	if err := m.sim.Reset(); err != nil {
		m.status = err.Error()
	} else {
		m.status = "reset"
	}
	m.swing = m.swing[:0]
	m.frame = m.sim.Sample()
}

// identity zeroes every simulated local rotation and captures that as the
// new rest pose.
func (m *LiveModel) identity() {
	for _, c := range m.sim.Chains() {
		c.SetLocalRotationsIdentity()
		if err := c.Setup(true); err != nil {
			m.status = err.Error()
			return
		}
	}
	m.status = "identity pose"
	m.swing = m.swing[:0]
	m.frame = m.sim.Sample()
}

func (m *LiveModel) toggleGravity() {
	chains := m.sim.Chains()
	if m.gravity == nil {
		m.gravity = make([]float64, len(chains))
		for i, c := range chains {
			m.gravity[i] = c.GravityPower
			c.GravityPower = 0
		}
		m.status = "gravity off"
		return
	}
	for i, c := range chains {
		c.GravityPower = m.gravity[i]
	}
	m.gravity = nil
	m.status = "gravity on"
}

func (m *LiveModel) scaleStiffness(factor float64) {
	chains := m.sim.Chains()
	if m.selected >= len(chains) {
		return
	}
	chains[m.selected].StiffnessForce *= factor
}

func (m *LiveModel) toggleRecording() {
	if m.recorder == nil {
		m.recorder = NewRecorder()
		m.status = "recording"
		return
	}
	if err := m.recorder.Save(gifPath); err != nil {
		m.status = err.Error()
	} else {
		m.status = "saved " + gifPath
	}
	m.recorder = nil
}

func (m *LiveModel) draw() {
	m.canvas.Clear()
	Render3D(m.canvas, m.ground, m.camera)
	Render3D(m.canvas, ChainWireframe(m.frame), m.camera)
}

func (m LiveModel) View() string {
	m.draw()
	canvasView := canvasStyle.Render(m.canvas.String())

	var s strings.Builder
	s.WriteString(HeaderStyle().Render(strings.ToUpper(m.name)) + "\n\n")

	switch {
	case m.recorder != nil:
		s.WriteString(StatusRecording.Render(fmt.Sprintf("REC %d", m.recorder.Len())))
	case m.running:
		s.WriteString(StatusRunning.Render("RUNNING"))
	default:
		s.WriteString(StatusPaused.Render("PAUSED"))
	}
	if m.status != "" {
		s.WriteString("  " + Subtle.Render(m.status))
	}
	s.WriteString("\n\n")

	s.WriteString(MetricLabel.Render("Time") + MetricValue.Render(fmt.Sprintf("%.2fs", m.sim.Time())) + "\n")
	s.WriteString(MetricLabel.Render("Bones") + MetricValue.Render(fmt.Sprintf("%d", len(m.frame.Bones()))) + "\n")
	gravity := "on"
	if m.gravity != nil {
		gravity = "off"
	}
	s.WriteString(MetricLabel.Render("Gravity") + MetricValue.Render(gravity) + "\n\n")

	s.WriteString("CHAINS\n")
	for i, c := range m.sim.Chains() {
		name := c.Comment
		if name == "" {
			name = fmt.Sprintf("chain %d", i)
		}
		line := fmt.Sprintf("%-12s k=%.2f drag=%.2f", name, c.StiffnessForce, c.DragForce)
		if i == m.selected {
			s.WriteString(SelectedStyle().Render("> "+line) + "\n")
		} else {
			s.WriteString("  " + Subtle.Render(line) + "\n")
		}
	}

	if len(m.swing) > 1 {
		chart := PlotSeries(m.swing, "tip swing (deg)", 30, 4)
		s.WriteString(graphStyle.Render(chart) + "\n")
	}

	s.WriteString("\n" + Separator(30) + "\n")
	s.WriteString(KeyHint.Render("SP:Pause R:Reset I:Identity G:Gravity\nTab:Chain ↑↓:Stiffness ←→ws:Orbit\nV:Record T:Theme ?:Help Q:Quit"))

	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsStyle.Render(s.String()))
	if m.showHelp {
		return GlassPanel.Render(helpText) + "\n" + mainView
	}
	return mainView
}

const helpText = `Space     pause / resume
R         restore the captured rest pose
I         identity pose, captured as the new rest pose
G         toggle gravity on every chain
Tab       select the next chain
Up/Down   scale the selected chain's stiffness
Left/Right, W/S, +/-  orbit and zoom the camera
V         start / stop GIF recording
T         cycle themes
Q         quit`
