package record

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
)

// teaProgram abstracts bubbletea.Program for testing.
type teaProgram interface {
	Send(tea.Msg)
}

// logMsg carries a trial log line for the viewport.
type logMsg struct{ line string }

// trialMsg reports the outcome of one trial.
type trialMsg struct {
	trial  int
	ok     bool
	apogee float64
}

// summaryMsg carries the closing campaign summary.
type summaryMsg struct{ Summary }

const maxLogLines = 500

var (
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	boldStyle = lipgloss.NewStyle().Bold(true)
)

// TUIRecorder renders campaign progress using a bubbletea TUI.
type TUIRecorder struct {
	program    teaProgram
	done       chan struct{}
	sendSignal atomic.Bool
}

// NewTUIRecorder starts a bubbletea program and returns a TUIRecorder.
func NewTUIRecorder(campaign string, trials int) *TUIRecorder {
	w := &TUIRecorder{done: make(chan struct{})}
	w.sendSignal.Store(true)
	p := tea.NewProgram(newTUIModel(campaign, trials), tea.WithAltScreen())
	w.program = p
	go func() {
		_, _ = p.Run()
		close(w.done)
		// Quitting the UI interrupts the campaign.
		if w.sendSignal.Load() {
			if proc, err := os.FindProcess(os.Getpid()); err == nil {
				_ = proc.Signal(os.Interrupt)
			}
		}
	}()
	return w
}

// WriteInput implements Recorder.
func (w *TUIRecorder) WriteInput(in Input) error {
	line := fmt.Sprintf("%s %s", dimStyle.Render(fmt.Sprintf("[trial %d]", in.Trial)), formatParams(in))
	w.program.Send(logMsg{line: line})
	return nil
}

// WriteOutput implements Recorder.
func (w *TUIRecorder) WriteOutput(out Output) error {
	line := fmt.Sprintf("%s %s apogee=%.1f impact=(%.1f,%.1f) t=%.3fs",
		dimStyle.Render(fmt.Sprintf("[trial %d]", out.Trial)),
		okStyle.Render("OK"),
		out.ApogeeAltitude, out.ImpactX, out.ImpactY, out.ExecutionTime)
	w.program.Send(logMsg{line: line})
	w.program.Send(trialMsg{trial: out.Trial, ok: true, apogee: out.ApogeeAltitude})
	return nil
}

// WriteError implements Recorder.
func (w *TUIRecorder) WriteError(e ErrorRecord) error {
	line := fmt.Sprintf("%s %s %s",
		dimStyle.Render(fmt.Sprintf("[trial %d]", e.Trial)),
		failStyle.Render("FAIL"),
		e.Error)
	w.program.Send(logMsg{line: line})
	w.program.Send(trialMsg{trial: e.Trial})
	return nil
}

// WriteSummary implements SummaryWriter.
func (w *TUIRecorder) WriteSummary(s Summary) error {
	w.program.Send(summaryMsg{s})
	return nil
}

// Close shuts down the TUI program and waits for cleanup.
func (w *TUIRecorder) Close() error {
	w.sendSignal.Store(false)
	if w.program != nil {
		w.program.Send(tea.Quit())
	}
	if w.done != nil {
		<-w.done
	}
	return nil
}

func formatParams(in Input) string {
	keys := make([]string, 0, len(in.Parameters))
	for k := range in.Parameters {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%.4g", k, in.Parameters[k])
	}
	return strings.Join(parts, " ")
}

type tuiModel struct {
	campaign   string
	total      int
	table      table.Model
	vp         viewport.Model
	logs       []string
	succeeded  int
	failed     int
	apogeeSum  float64
	started    time.Time
	summary    *Summary
	wrap       bool
	autoscroll bool
	height     int
	header     string
}

func newTUIModel(campaign string, trials int) tuiModel {
	cols := []table.Column{
		{Title: "Campaign", Width: 24},
		{Title: "Progress", Width: 12},
		{Title: "OK", Width: 8},
		{Title: "Failed", Width: 8},
		{Title: "Mean apogee (m)", Width: 16},
	}
	t := table.New(table.WithColumns(cols), table.WithHeight(2))
	m := tuiModel{
		campaign:   campaign,
		total:      trials,
		table:      t,
		vp:         viewport.New(0, 0),
		autoscroll: true,
		started:    time.Now(),
	}
	m.refreshTable()
	return m
}

func (m tuiModel) Init() tea.Cmd { return nil }

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.table.SetWidth(msg.Width)
		m.vp.Width = msg.Width
		m.height = msg.Height
		m.updateViewportHeight()
		m.refreshViewport()
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "w":
			m.wrap = !m.wrap
			m.refreshViewport()
		case "s":
			m.autoscroll = !m.autoscroll
			if m.autoscroll {
				m.vp.GotoBottom()
			}
		default:
			var cmd tea.Cmd
			m.vp, cmd = m.vp.Update(msg)
			return m, cmd
		}
	case logMsg:
		m.logs = append(m.logs, msg.line)
		if len(m.logs) > maxLogLines {
			m.logs = m.logs[len(m.logs)-maxLogLines:]
		}
		m.refreshViewport()
	case trialMsg:
		if msg.ok {
			m.succeeded++
			m.apogeeSum += msg.apogee
		} else {
			m.failed++
		}
		m.refreshTable()
	case summaryMsg:
		s := msg.Summary
		m.summary = &s
		m.logs = append(m.logs, boldStyle.Render(s.String()))
		m.refreshTable()
		m.refreshViewport()
	}
	return m, nil
}

func (m *tuiModel) refreshTable() {
	mean := "-"
	if m.succeeded > 0 {
		mean = fmt.Sprintf("%.2f", m.apogeeSum/float64(m.succeeded))
	}
	progress := fmt.Sprintf("%d/%d", m.succeeded+m.failed, m.total)
	m.table.SetRows([]table.Row{{m.campaign, progress, fmt.Sprint(m.succeeded), fmt.Sprint(m.failed), mean}})
	m.header = m.table.View()
}

func (m *tuiModel) updateViewportHeight() {
	h := m.height - lipgloss.Height(m.header) - lipgloss.Height(m.renderBottom()) - 2
	if h < 0 {
		h = 0
	}
	m.vp.Height = h
	if m.autoscroll {
		m.vp.GotoBottom()
	}
}

func (m *tuiModel) refreshViewport() {
	lines := m.logs
	if m.wrap && m.vp.Width > 0 {
		lines = make([]string, len(m.logs))
		for i, l := range m.logs {
			lines[i] = wordwrap.String(l, m.vp.Width)
		}
	}
	m.vp.SetContent(strings.Join(lines, "\n"))
	if m.autoscroll {
		m.vp.GotoBottom()
	}
}

func (m tuiModel) View() string {
	divider := strings.Repeat("─", m.vp.Width)
	return strings.Join([]string{m.header, divider, m.vp.View(), divider, m.renderBottom()}, "\n")
}

func (m tuiModel) renderBottom() string {
	state := "running"
	elapsed := time.Since(m.started)
	if m.summary != nil {
		state = "done"
		elapsed = m.summary.WallTime
	}
	return dimStyle.Render(fmt.Sprintf("%s  elapsed %s  [w] wrap=%t  [s] autoscroll=%t  [q] quit",
		state, elapsed.Round(time.Second), m.wrap, m.autoscroll))
}
