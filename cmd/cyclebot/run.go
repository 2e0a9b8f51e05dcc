package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/canvas/runes"
	"github.com/NimbleMarkets/ntcharts/linechart/streamlinechart"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/errors"

	"github.com/gwillem/cyclebot/pkg/command"
	"github.com/gwillem/cyclebot/pkg/control"
	"github.com/gwillem/cyclebot/pkg/logging"
	"github.com/gwillem/cyclebot/pkg/oi"
	"github.com/gwillem/cyclebot/pkg/robot"
)

type RunCommand struct {
	Pattern string `short:"p" long:"pattern" description:"Autonomous pattern (straight_with_pid, straight_no_pid, box)"`
	Start   string `long:"start" description:"Start position (left, center, right)"`
	Hz      int    `long:"hz" description:"Control loop frequency, overrides the configuration"`
	Auto    bool   `long:"auto" description:"Start the autonomous routine right away"`
}

const (
	headerHeight = 3 // title, status line, blank line
	legendHeight = 2 // legend row + blank
	footerHeight = 7 // log box height
	maxLogs      = 5 // number of log messages to show
	borderSize   = 2 // chart border
	stickStep    = .1
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	chartStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	onStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
)

// Data sets and their colours
var seriesColors = []struct {
	name  string
	color string
}{
	{"heading", "51"},
	{"left", "208"},
	{"right", "201"},
}

type runModel struct {
	ctrl    *control.Controller
	lines   <-chan string
	pattern robot.Pattern
	start   robot.StartPosition

	heading *streamlinechart.Model
	speeds  *streamlinechart.Model
	state   control.State
	width   int
	height  int
	logs    []string
	quit    bool
}

type stateMsg control.State
type logMsg string

func waitForState(ctrl *control.Controller) tea.Cmd {
	return func() tea.Msg {
		return stateMsg(<-ctrl.States())
	}
}

func waitForLog(lines <-chan string) tea.Cmd {
	return func() tea.Msg {
		return logMsg(<-lines)
	}
}

func newRunModel(ctrl *control.Controller, lines <-chan string, pattern robot.Pattern, start robot.StartPosition) runModel {
	heading := streamlinechart.New(80, 10, streamlinechart.WithYRange(0, 360))
	speeds := streamlinechart.New(80, 8, streamlinechart.WithYRange(-1, 1))
	for _, s := range seriesColors {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(s.color))
		if s.name == "heading" {
			heading.SetDataSetStyles(s.name, runes.ThinLineStyle, style)
		} else {
			speeds.SetDataSetStyles(s.name, runes.ThinLineStyle, style)
		}
	}
	return runModel{
		ctrl:    ctrl,
		lines:   lines,
		pattern: pattern,
		start:   start,
		heading: &heading,
		speeds:  &speeds,
	}
}

func (m *runModel) addLog(msg string) {
	m.logs = append(m.logs, msg)
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}
}

// resizeCharts splits the space left by header, legend and log box between
// the heading chart and the speed chart, 3:2.
func (m *runModel) resizeCharts() {
	w := max(m.width-borderSize-2, 40)
	h := max(m.height-headerHeight-legendHeight-footerHeight-2*borderSize, 10)
	m.heading.Resize(w, h*3/5)
	m.speeds.Resize(w, h-h*3/5)
}

func (m runModel) Init() tea.Cmd {
	return tea.Batch(
		waitForState(m.ctrl),
		waitForLog(m.lines),
	)
}

func (m runModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	in := m.ctrl.Robot().Input

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeCharts()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quit = true
			return m, tea.Quit
		case "a":
			m.ctrl.RunAutonomous(m.pattern, m.start)
		case "x", " ":
			in.SetCancel(true)
		case "t":
			in.ToggleTurbo()
		case "c":
			in.ToggleCompressor()
		case "d":
			in.SetDriveType((in.DriveType() + 1) % (oi.SingleStick + 1))
		case "0":
			in.CentreSticks()
		case "up", "down":
			left, _ := in.Sticks()
			if msg.String() == "up" {
				left.Y += stickStep
			} else {
				left.Y -= stickStep
			}
			in.SetStick(oi.Left, left)
		case "left", "right":
			_, right := in.Sticks()
			if msg.String() == "right" {
				right.X += stickStep
			} else {
				right.X -= stickStep
			}
			in.SetStick(oi.Right, right)
		}
		return m, nil

	case stateMsg:
		m.state = control.State(msg)
		m.heading.PushDataSet("heading", m.state.Heading)
		m.heading.DrawAll()
		m.speeds.PushDataSet("left", m.state.Left)
		m.speeds.PushDataSet("right", m.state.Right)
		m.speeds.DrawAll()
		return m, waitForState(m.ctrl)

	case logMsg:
		m.addLog(string(msg))
		return m, waitForLog(m.lines)
	}

	return m, nil
}

func (m runModel) View() string {
	if m.quit {
		return "Robot stopped.\n"
	}

	var sb strings.Builder
	s := m.state
	in := m.ctrl.Robot().Input

	// Header
	sb.WriteString(titleStyle.Render("cyclebot"))
	sb.WriteString(fmt.Sprintf(" - %d Hz - %s from %s", m.ctrl.Hz(), m.pattern.Title(), m.start))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("heading %6.1f°  distance %7.1f in  %4.1f V  drive %s  ",
		s.Heading, s.Distance, s.Voltage, in.DriveType()))
	sb.WriteString(flag("turbo", s.Turbo) + "  " + flag("compressor", s.Compressor))
	if len(s.Currents) > 0 {
		sb.WriteString("  " + renderCurrents(s.Currents))
	}
	sb.WriteString("\n")
	if len(s.Commands) > 0 {
		sb.WriteString(statusStyle.Render(strings.Join(s.Commands, " | ")))
	}
	sb.WriteString("\n")

	// Charts
	sb.WriteString(chartStyle.Render(m.heading.View()))
	sb.WriteString("\n")
	sb.WriteString(chartStyle.Render(m.speeds.View()))
	sb.WriteString("\n")

	// Legend
	sb.WriteString(renderLegend())
	sb.WriteString("\n")

	// Log box
	logStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Width(max(m.width-4, 20))

	var logLines string
	if len(m.logs) == 0 {
		logLines = statusStyle.Render("a autonomous  x cancel  t turbo  c compressor  d drive type  arrows sticks  0 centre  q quit")
	} else {
		logLines = strings.Join(m.logs, "\n")
	}
	sb.WriteString(logStyle.Render(logLines))
	sb.WriteString("\n")

	return sb.String()
}

func flag(name string, on bool) string {
	if on {
		return onStyle.Render(name)
	}
	return statusStyle.Render(name)
}

func renderCurrents(currents map[int]float64) string {
	channels := make([]int, 0, len(currents))
	for ch := range currents {
		channels = append(channels, ch)
	}
	sort.Ints(channels)

	parts := make([]string, len(channels))
	for i, ch := range channels {
		parts[i] = fmt.Sprintf("ch%d %.1fA", ch, currents[ch])
	}
	return strings.Join(parts, " ")
}

func renderLegend() string {
	var items []string
	for _, s := range seriesColors {
		colorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(s.color)).Bold(true)
		items = append(items, colorStyle.Render("━━")+" "+s.name)
	}
	return strings.Join(items, "  ")
}

// choosePattern returns the pattern named on the command line or in the
// configuration, or asks for one.
func (c *RunCommand) choosePattern(cfg *robot.Config) (robot.Pattern, error) {
	switch {
	case c.Pattern != "":
		return robot.ParsePattern(c.Pattern)
	case cfg.Operator.Pattern != "":
		return robot.ParsePattern(cfg.Operator.Pattern)
	}

	pattern := robot.DefaultPattern
	var options []huh.Option[robot.Pattern]
	for _, p := range robot.AllPatterns() {
		options = append(options, huh.NewOption(p.Title(), p))
	}
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[robot.Pattern]().
				Title("Autonomous pattern").
				Options(options...).
				Value(&pattern),
		),
	)
	if err := form.Run(); err != nil {
		return pattern, err
	}
	return pattern, nil
}

func (c *RunCommand) Execute(args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if c.Hz > 0 {
		cfg.Hz = c.Hz
	}
	startName := cfg.Operator.StartPosition
	if c.Start != "" {
		startName = c.Start
	}
	start, err := robot.ParseStartPosition(startName)
	if err != nil {
		return err
	}
	pattern, err := c.choosePattern(cfg)
	if err != nil {
		return err
	}

	lines := make(chan string, 100)
	logger, logCloser, err := logging.New(logging.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		Lines:      lines,
	})
	if err != nil {
		return err
	}
	defer logCloser.Close()

	hw, err := robot.OpenHardware(cfg, logger.Named("hw"))
	if err != nil {
		return err
	}
	defer hw.Close()

	clock := command.NewManualClock(time.Now())
	r, err := robot.New(hw, cfg, clock, logger)
	if err != nil {
		return err
	}

	ctrl := control.NewController(r, control.Config{
		Hz:      cfg.Hz,
		Stepper: hw.Sim,
		Clock:   clock,
	})
	defer ctrl.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := ctrl.Start(ctx); err != nil && err != context.Canceled {
			fmt.Fprintf(os.Stderr, "Controller error: %v\n", err)
		}
	}()
	if c.Auto {
		ctrl.RunAutonomous(pattern, start)
	}

	p := tea.NewProgram(newRunModel(ctrl, lines, pattern, start), tea.WithAltScreen())
	_, err = p.Run()

	// The loop owns the robot until it has stopped
	cancel()
	<-done
	return errors.Wrap(err, "run console")
}
