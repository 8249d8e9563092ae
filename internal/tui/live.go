// Package tui provides a live terminal view of the hill response: the
// closed loop is stepped in real time from its trim point while the
// velocity and throttle traces scroll past.
package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/nmoray/cruisesim/internal/config"
	"github.com/nmoray/cruisesim/internal/integrators"
	"github.com/nmoray/cruisesim/internal/loop"
	"github.com/nmoray/cruisesim/internal/scenario"
	"github.com/nmoray/cruisesim/internal/sim"
	"github.com/nmoray/cruisesim/internal/trim"
)

var (
	cyan   = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white  = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim    = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	dimmer = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	green  = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	yellow = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
)

const (
	liveDt      = 0.02
	historyCap  = 400
	tickPeriod  = 33 * time.Millisecond
	graphHeight = 8
)

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(tickPeriod, func(t time.Time) tea.Msg { return tickMsg(t) })
}

type model struct {
	cfg *config.Config
	lp  *loop.Loop
	rk  *integrators.RK4

	trimX sim.State
	vIdx  int
	uIdx  int

	x      sim.State
	t      float64
	v      float64
	u      float64
	theta  float64
	speed  float64
	paused bool
	done   bool
	runErr error

	vHist []float64
	uHist []float64

	width  int
	height int
}

func newModel(cfg *config.Config, lp *loop.Loop, pt trim.Point) (*model, error) {
	vIdx, err := lp.FindOutput("v")
	if err != nil {
		return nil, err
	}
	uIdx, err := lp.FindOutput("u")
	if err != nil {
		return nil, err
	}
	m := &model{
		cfg:   cfg,
		lp:    lp,
		rk:    integrators.NewRK4(),
		trimX: pt.X.Clone(),
		vIdx:  vIdx,
		uIdx:  uIdx,
		speed: 1.0,
		width: 90,
	}
	m.restart()
	return m, nil
}

func (m *model) restart() {
	m.x = m.trimX.Clone()
	m.t = 0
	m.paused = false
	m.done = false
	m.runErr = nil
	m.vHist = m.vHist[:0]
	m.uHist = m.uHist[:0]
	m.sample()
}

func (m *model) forcing(t float64) sim.Input {
	s := m.cfg.Scenario
	return sim.Input{
		s.Vref,
		float64(s.Gear),
		scenario.HillProfile(t, s.HillTime, s.Ramp, s.GradeDeg),
	}
}

func (m *model) step() {
	if m.t >= m.cfg.Scenario.Horizon {
		m.done = true
		return
	}
	next, err := m.rk.Step(m.lp, m.x, m.forcing, m.t, liveDt)
	if err != nil {
		m.runErr = err
		m.done = true
		return
	}
	m.x = next
	m.t += liveDt
	m.sample()
}

func (m *model) sample() {
	u := m.forcing(m.t)
	m.theta = u[2]
	y, err := m.lp.Output(m.x, u, m.t)
	if err != nil {
		m.runErr = err
		m.done = true
		return
	}
	m.v = y[m.vIdx]
	m.u = y[m.uIdx]
	m.vHist = append(m.vHist, m.v)
	m.uHist = append(m.uHist, m.u)
	if len(m.vHist) > historyCap {
		m.vHist = m.vHist[1:]
		m.uHist = m.uHist[1:]
	}
}

func (m *model) Init() tea.Cmd { return tick() }

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "escape":
			return m, tea.Quit
		case " ", "p":
			m.paused = !m.paused
		case "r":
			m.restart()
		case "+", "=":
			m.speed = math.Min(m.speed*2, 16)
		case "-", "_":
			m.speed = math.Max(m.speed/2, 0.25)
		case "0":
			m.speed = 1.0
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tickMsg:
		if !m.paused && !m.done {
			steps := int(m.speed)
			if steps < 1 {
				steps = 1
			}
			for i := 0; i < steps && !m.done; i++ {
				m.step()
			}
		}
		return m, tick()
	}
	return m, nil
}

func (m *model) View() string {
	var b strings.Builder

	status := green.Render("● running")
	switch {
	case m.runErr != nil:
		status = yellow.Render("✗ " + m.runErr.Error())
	case m.done:
		status = dim.Render("○ finished")
	case m.paused:
		status = yellow.Render("○ paused")
	}
	b.WriteString(fmt.Sprintf("\n  %s  %s\n", cyan.Render("cruise"), status))

	horizon := m.cfg.Scenario.Horizon
	progress := m.t / horizon
	if progress > 1 {
		progress = 1
	}
	barWidth := 40
	filled := int(progress * float64(barWidth))
	bar := cyan.Render(strings.Repeat("━", filled)) + dimmer.Render(strings.Repeat("─", barWidth-filled))
	b.WriteString(fmt.Sprintf("  %s %s  %s\n\n", bar,
		dim.Render(fmt.Sprintf("%5.1fs/%.0fs", m.t, horizon)),
		dim.Render(fmt.Sprintf("x%.2g", m.speed))))

	gw := m.width - 14
	if gw < 40 {
		gw = 40
	}
	if gw > 110 {
		gw = 110
	}
	b.WriteString(graph(m.vHist, gw, fmt.Sprintf("velocity v [m/s]  (vref %.1f)", m.cfg.Scenario.Vref)))
	b.WriteString("\n")
	b.WriteString(graph(m.uHist, gw, "throttle u"))
	b.WriteString("\n")

	b.WriteString(fmt.Sprintf("  %s%s  %s%s  %s%s\n",
		dim.Render("v="), white.Render(fmt.Sprintf("%.3f", m.v)),
		dim.Render("u="), white.Render(fmt.Sprintf("%.4f", m.u)),
		dim.Render("slope="), white.Render(fmt.Sprintf("%.1f°", m.theta*180/math.Pi)),
	))

	b.WriteString("\n" + dim.Render("  space pause  ± speed  r restart  q quit") + "\n")
	return b.String()
}

func graph(data []float64, width int, caption string) string {
	if len(data) < 2 {
		return dim.Render("  collecting...") + "\n"
	}
	return asciigraph.Plot(data,
		asciigraph.Height(graphHeight),
		asciigraph.Width(width),
		asciigraph.Offset(4),
		asciigraph.Caption(caption),
	) + "\n"
}

// Run trims the closed loop for the configured scenario and drives the
// live view until the user quits.
func Run(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	lp, err := loop.Cruise(cfg.VehicleParams(), cfg.Controller.Kp, cfg.Controller.Ki)
	if err != nil {
		return err
	}
	s := cfg.Scenario
	pt, err := trim.Find(lp,
		sim.State{s.Vref, 0},
		sim.Input{s.Vref, float64(s.Gear), 0},
		trim.Spec{
			FixedInputs:   []int{1, 2},
			TargetOutputs: map[int]float64{0: s.Vref},
			Tol:           cfg.Solver.TrimTol,
			MaxIter:       cfg.Solver.MaxIter,
		})
	if err != nil {
		return err
	}
	m, err := newModel(cfg, lp, pt)
	if err != nil {
		return err
	}
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err = p.Run()
	return err
}
