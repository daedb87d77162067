package viz

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/nbodybench/internal/bench"
	"github.com/san-kum/nbodybench/internal/sweep"
)

const recentRows = 8

type TickMsg time.Time

type StartedMsg struct{ Total int }

type RunMsg struct {
	Record      bench.Record
	Done, Total int
}

type DoneMsg struct {
	Summary sweep.Summary
	Err     error
}

// Progress is the --tui view of a running sweep. Quitting cancels the sweep.
type Progress struct {
	title    string
	cancel   context.CancelFunc
	total    int
	done     int
	failed   int
	recent   []bench.Record
	times    []float64
	frame    int
	started  time.Time
	finished bool
	summary  sweep.Summary
	err      error
}

func NewProgress(title string, cancel context.CancelFunc) Progress {
	return Progress{title: title, cancel: cancel, started: time.Now()}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/10, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Progress) Init() tea.Cmd {
	return tick()
}

func (m Progress) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}
	case StartedMsg:
		m.total = msg.Total
	case RunMsg:
		m.done, m.total = msg.Done, msg.Total
		if msg.Record.Failed() {
			m.failed++
		} else {
			m.times = append(m.times, float64(msg.Record.ExecutionTimeMs))
		}
		m.recent = append(m.recent, msg.Record)
		if len(m.recent) > recentRows {
			m.recent = m.recent[len(m.recent)-recentRows:]
		}
	case DoneMsg:
		m.finished = true
		m.summary, m.err = msg.Summary, msg.Err
		return m, tea.Quit
	case TickMsg:
		m.frame++
		return m, tick()
	}
	return m, nil
}

func (m Progress) View() string {
	var s strings.Builder
	s.WriteString(HeaderStyle.Render(strings.ToUpper(m.title)) + "\n\n")

	percent := 0.0
	if m.total > 0 {
		percent = float64(m.done) / float64(m.total)
	}
	s.WriteString(spinner(m.frame, m.finished) + " " + ProgressBar(percent, 40) +
		fmt.Sprintf(" %d/%d\n\n", m.done, m.total))

	s.WriteString(MetricLabel.Render("elapsed") + MetricValue.Render(time.Since(m.started).Round(time.Second).String()) + "\n")
	s.WriteString(MetricLabel.Render("failed") + MetricValue.Render(fmt.Sprint(m.failed)) + "\n")
	s.WriteString(MetricLabel.Render("timings") + SparkHigh.Render(Sparkline(m.times, 40)) + "\n\n")

	width := len(fmt.Sprint(m.total))
	for _, r := range m.recent {
		s.WriteString(FormatRun(r, r.Seq+1, m.total, width) + "\n")
	}

	if m.finished {
		s.WriteString("\n" + MetricLabel.Render("completed") + MetricValue.Render(fmt.Sprintf("%d/%d", m.summary.Completed, m.summary.Attempted)) + "\n")
	}
	if m.finished && m.err != nil {
		s.WriteString("\n" + StatusStyle(bench.StatusRuntimeFailure).Render(m.err.Error()) + "\n")
	}
	s.WriteString("\n" + KeyHint.Render("q: stop sweep"))
	return Panel.Render(s.String())
}

func spinner(frame int, finished bool) string {
	if finished {
		return "✓"
	}
	frames := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	return frames[frame%len(frames)]
}

// ProgramObserver forwards sweep events to a running tea program.
type ProgramObserver struct {
	send func(tea.Msg)
}

func NewProgramObserver(p *tea.Program) *ProgramObserver {
	return &ProgramObserver{send: p.Send}
}

func (o *ProgramObserver) SweepStarted(total int) {
	o.send(StartedMsg{Total: total})
}

func (o *ProgramObserver) RunFinished(r bench.Record, done, total int) {
	o.send(RunMsg{Record: r, Done: done, Total: total})
}
