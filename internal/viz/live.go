package viz

import (
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/episim/internal/dynamo"
)

const (
	frameRate           = time.Second / 30
	defaultStepsPerTick = 5
)

// Snapshot stores state at a specific time for replay.
type Snapshot struct {
	State dynamo.State
	Time  float64
}

var (
	chartStyle       = lipgloss.NewStyle().Padding(1, 2)
	statsStyle       = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(40)
	headerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(14)
	valueStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	activeParamStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	helpStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(frameRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// LiveConfig describes a run to animate. Build is called again whenever a
// rate constant is tuned, since models are immutable.
type LiveConfig struct {
	Model        string
	Build        func(params map[string]float64) (dynamo.System, error)
	Integrator   dynamo.Integrator
	Params       map[string]float64
	InitState    []float64
	Dt           float64
	Duration     float64
	StepsPerTick int
}

// Model steps a simulation a few grid points per frame and draws the
// compartments so far.
type Model struct {
	cfg           LiveConfig
	dyn           dynamo.System
	grid          dynamo.Grid
	k             int
	state         dynamo.State
	initialState  dynamo.State
	params        map[string]float64
	initialParams map[string]float64
	paramKeys     []string
	selected      int
	history       []Snapshot
	playHead      int
	running       bool
	err           error
	notice        string
	showHelp      bool
}

func NewModel(cfg LiveConfig) (Model, error) {
	if cfg.Build == nil || cfg.Integrator == nil {
		return Model{}, fmt.Errorf("live view needs a model builder and an integrator")
	}
	if cfg.StepsPerTick <= 0 {
		cfg.StepsPerTick = defaultStepsPerTick
	}

	grid, err := dynamo.NewGrid(cfg.Duration, cfg.Dt)
	if err != nil {
		return Model{}, err
	}
	dyn, err := cfg.Build(cfg.Params)
	if err != nil {
		return Model{}, err
	}
	x0 := dynamo.State(cfg.InitState).Clone()
	if len(x0) != dyn.StateDim() {
		return Model{}, fmt.Errorf("%w: initial state has %d values, model expects %d", dynamo.ErrDimensionMismatch, len(x0), dyn.StateDim())
	}
	if err := dyn.Validate(x0); err != nil {
		return Model{}, err
	}

	params := make(map[string]float64, len(cfg.Params))
	initialParams := make(map[string]float64, len(cfg.Params))
	keys := make([]string, 0, len(cfg.Params))
	for k, v := range cfg.Params {
		params[k] = v
		initialParams[k] = v
		keys = append(keys, k)
	}
	sort.Strings(keys)

	m := Model{
		cfg:           cfg,
		dyn:           dyn,
		grid:          grid,
		state:         x0.Clone(),
		initialState:  x0,
		params:        params,
		initialParams: initialParams,
		paramKeys:     keys,
		history:       make([]Snapshot, 0, len(grid)),
		playHead:      -1,
		running:       true,
	}
	m.record()
	return m, nil
}

func (m Model) Init() tea.Cmd {
	return tick()
}

// Update handles input events and steps the simulation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			if !m.Finished() {
				m.running = !m.running
			}
		case "r":
			m.reset()
		case "[":
			m.scrub(-1)
		case "]":
			m.scrub(1)
		case "tab":
			m.cycleParam()
		case "up", "k":
			m.adjustParam(1.05)
		case "down", "j":
			m.adjustParam(0.95)
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running {
			if m.playHead == -1 {
				for i := 0; i < m.cfg.StepsPerTick && m.running; i++ {
					m.step()
				}
			} else {
				m.playHead++
				if m.playHead >= len(m.history) {
					m.playHead = -1
				}
			}
		}
		return m, tick()
	}
	return m, nil
}

// Finished reports whether the last grid point has been reached.
func (m Model) Finished() bool { return m.k == len(m.grid)-1 }

// Err is the numerical failure that stopped the run, if any.
func (m Model) Err() error { return m.err }

func (m Model) Time() float64 { return m.grid[m.k] }

func (m Model) State() dynamo.State { return m.state.Clone() }

func (m Model) Params() map[string]float64 {
	out := make(map[string]float64, len(m.params))
	for k, v := range m.params {
		out[k] = v
	}
	return out
}

func (m *Model) step() {
	if m.Finished() || m.err != nil {
		m.running = false
		return
	}

	dt := m.grid[m.k+1] - m.grid[m.k]
	next := m.cfg.Integrator.Step(m.dyn, m.state, m.grid[m.k], dt)
	if !next.IsValid() {
		m.err = &dynamo.SimulationError{Step: m.k + 1, Time: m.grid[m.k+1], State: next, Wrapped: dynamo.ErrInvalidState}
		m.running = false
		return
	}

	m.k++
	m.state = next
	m.record()
	if m.Finished() {
		m.running = false
	}
}

func (m *Model) record() {
	m.history = append(m.history, Snapshot{State: m.state, Time: m.grid[m.k]})
}

func (m *Model) cycleParam() {
	if len(m.paramKeys) == 0 {
		return
	}
	m.selected = (m.selected + 1) % len(m.paramKeys)
}

// adjustParam scales the selected rate constant and rebuilds the model. A
// value the model rejects is reverted and reported.
func (m *Model) adjustParam(factor float64) {
	if len(m.paramKeys) == 0 {
		return
	}
	key := m.paramKeys[m.selected]
	old := m.params[key]

	next := old * factor
	if old == 0 && factor > 1 {
		next = 0.01
	}
	m.params[key] = next

	dyn, err := m.cfg.Build(m.params)
	if err != nil {
		m.params[key] = old
		m.notice = err.Error()
		return
	}
	m.dyn = dyn
	m.notice = ""
}

// scrub changes the playback position in history.
func (m *Model) scrub(dir int) {
	if m.playHead == -1 {
		if len(m.history) > 0 {
			m.playHead = len(m.history) - 1
			m.running = false
		} else {
			return
		}
	}
	m.playHead += dir
	if m.playHead < 0 {
		m.playHead = 0
	}
	if m.playHead >= len(m.history) {
		m.playHead = -1
	}
}

// reset restores the initial state and parameters.
func (m *Model) reset() {
	for k, v := range m.initialParams {
		m.params[k] = v
	}
	if dyn, err := m.cfg.Build(m.params); err == nil {
		m.dyn = dyn
	}
	m.k = 0
	m.state = m.initialState.Clone()
	m.history = m.history[:0]
	m.record()
	m.playHead = -1
	m.running = true
	m.err = nil
	m.notice = ""
}

// visible returns the history up to the replay position.
func (m Model) visible() []Snapshot {
	if m.playHead >= 0 && m.playHead < len(m.history) {
		return m.history[:m.playHead+1]
	}
	return m.history
}

// View renders the TUI interface.
func (m Model) View() string {
	shown := m.visible()
	current := shown[len(shown)-1]

	status := "RUNNING"
	switch {
	case m.err != nil:
		status = StatusFail.Render("DIVERGED: " + m.err.Error())
	case m.playHead != -1:
		status = fmt.Sprintf("REPLAY (t=%.1f)", current.Time)
	case m.Finished():
		status = "DONE"
	case !m.running:
		status = "PAUSED"
	}

	var chartView string
	if len(shown) > 1 {
		r := &dynamo.Result{Compartments: m.dyn.Compartments(), Times: make([]float64, len(shown)), States: make([]dynamo.State, len(shown))}
		for i, snap := range shown {
			r.Times[i], r.States[i] = snap.Time, snap.State
		}
		chartView = chartStyle.Render(Plot(r, PlotOptions{Width: 70, Height: 16, Caption: "Time " + fmt.Sprintf("%.1f", current.Time)}))
	}

	var s strings.Builder
	s.WriteString(headerStyle.Render(strings.ToUpper(m.cfg.Model)) + "\n")
	s.WriteString(status + "\n\n")
	s.WriteString(labelStyle.Render("Time") + valueStyle.Render(fmt.Sprintf("%.2f / %g", current.Time, m.grid.Horizon())) + "\n")
	legends := Legends(m.dyn.Compartments())
	for i, v := range current.State {
		s.WriteString(labelStyle.Render(legends[i]) + valueStyle.Render(fmt.Sprintf("%.5f", v)) + "\n")
	}
	s.WriteString(labelStyle.Render("Total") + valueStyle.Render(fmt.Sprintf("%.12f", current.State.Sum())) + "\n")

	s.WriteString("\nPARAMETERS\n")
	for i, k := range m.paramKeys {
		line := fmt.Sprintf("%-8s %.4g", k, m.params[k])
		if i == m.selected {
			s.WriteString(activeParamStyle.Render("> "+line) + "\n")
		} else {
			s.WriteString("  " + labelStyle.Render(line) + "\n")
		}
	}
	if m.notice != "" {
		s.WriteString(StatusWarn.Render(m.notice) + "\n")
	}
	s.WriteString(helpStyle.Render("SP:Pause R:Reset Q:Quit\nTab:Param ↑↓:Tune [ ]:Replay ?:Help"))

	mainView := lipgloss.JoinHorizontal(lipgloss.Top, chartView, statsStyle.Render(s.String()))
	if m.showHelp {
		return KeyHint.Render(helpText) + "\n\n" + mainView
	}
	return mainView
}

const helpText = `Space  pause or resume
R      reset state and parameters
Tab    select next parameter
Up/K   increase parameter by 5%
Down/J decrease parameter by 5%
[ ]    step back or forward through history
Q      quit`
