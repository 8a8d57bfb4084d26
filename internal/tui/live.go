// Package tui renders a live view of a running hyperparameter sweep.
package tui

import (
	"fmt"
	"math"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/GJBoth/Reservoir-computing-kernels/internal/sweep"
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(14)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	bestStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true)
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

// ResultMsg delivers one finished grid point to the view.
type ResultMsg struct {
	Index  int
	Result sweep.Result
}

// DoneMsg signals that every grid point has been evaluated.
type DoneMsg struct{}

type Model struct {
	param    string
	values   []float64
	results  []sweep.Result
	have     []bool
	done     int
	finished bool
	ch       <-chan ResultMsg
}

func NewModel(param string, values []float64, ch <-chan ResultMsg) Model {
	return Model{
		param:   param,
		values:  values,
		results: make([]sweep.Result, len(values)),
		have:    make([]bool, len(values)),
		ch:      ch,
	}
}

func waitForResult(ch <-chan ResultMsg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return DoneMsg{}
		}
		return msg
	}
}

func (m Model) Init() tea.Cmd {
	return waitForResult(m.ch)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
	case ResultMsg:
		if msg.Index >= 0 && msg.Index < len(m.results) && !m.have[msg.Index] {
			m.results[msg.Index] = msg.Result
			m.have[msg.Index] = true
			m.done++
		}
		return m, waitForResult(m.ch)
	case DoneMsg:
		m.finished = true
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	var s strings.Builder
	s.WriteString(headerStyle.Render(strings.ToUpper("sweep: "+m.param)) + "\n")

	status := fmt.Sprintf("%d/%d configurations", m.done, len(m.values))
	if m.finished {
		status += "  done"
	}
	s.WriteString(status + "\n")

	if chart := m.chart(); chart != "" {
		s.WriteString(graphStyle.Render(chart) + "\n")
	}

	completed := m.completed()
	if best, ok := sweep.Best(completed); ok {
		s.WriteString(labelStyle.Render("best") +
			bestStyle.Render(fmt.Sprintf("%s=%.4g  rmse=%.6f", m.param, completed[best].Param, completed[best].RMSE)) + "\n")
	}

	var failed []string
	for i, r := range m.results {
		if m.have[i] && r.Failed() {
			failed = append(failed, fmt.Sprintf("%.4g", r.Param))
		}
	}
	if len(failed) > 0 {
		s.WriteString(labelStyle.Render("skipped") + failStyle.Render(strings.Join(failed, ", ")) + "\n")
	}

	for i, r := range m.results {
		if !m.have[i] {
			continue
		}
		line := fmt.Sprintf("%s=%-10.4g", m.param, r.Param)
		if r.Failed() {
			line += failStyle.Render("failed: " + r.Err.Error())
		} else {
			line += valueStyle.Render(fmt.Sprintf("rmse=%.6f  valid=%.0f", r.RMSE, r.ValidTime))
		}
		s.WriteString("  " + line + "\n")
	}

	s.WriteString(helpStyle.Render("q: quit"))
	return s.String()
}

// completed returns the finished results in grid order.
func (m Model) completed() []sweep.Result {
	out := make([]sweep.Result, 0, m.done)
	for i, r := range m.results {
		if m.have[i] {
			out = append(out, r)
		}
	}
	return out
}

func (m Model) chart() string {
	type point struct{ param, rmse float64 }
	var pts []point
	for i, r := range m.results {
		if m.have[i] && !r.Failed() && !math.IsNaN(r.RMSE) {
			pts = append(pts, point{r.Param, r.RMSE})
		}
	}
	if len(pts) < 2 {
		return ""
	}
	sort.Slice(pts, func(i, j int) bool { return pts[i].param < pts[j].param })
	series := make([]float64, len(pts))
	for i, p := range pts {
		series[i] = p.rmse
	}
	return asciigraph.Plot(series,
		asciigraph.Height(8),
		asciigraph.Width(60),
		asciigraph.Caption(fmt.Sprintf("rmse vs %s", m.param)))
}

// Run drives the live view until the sweep finishes or the user quits.
func Run(param string, values []float64, ch <-chan ResultMsg) error {
	p := tea.NewProgram(NewModel(param, values, ch))
	_, err := p.Run()
	return err
}
