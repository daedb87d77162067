package viz

import (
	"fmt"
	"io"
	"time"

	"github.com/san-kum/nbodybench/internal/bench"
	"github.com/san-kum/nbodybench/internal/sweep"
)

// Console prints one styled line per finished run.
type Console struct {
	w     io.Writer
	width int
}

func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

func (c *Console) SweepStarted(total int) {
	c.width = len(fmt.Sprint(total))
	fmt.Fprintln(c.w, Title.Render(fmt.Sprintf("sweeping %d runs", total)))
}

func (c *Console) RunFinished(r bench.Record, done, total int) {
	fmt.Fprintln(c.w, FormatRun(r, done, total, c.width))
}

// FormatRun renders a single progress line.
func FormatRun(r bench.Record, done, total, width int) string {
	line := fmt.Sprintf("[%*d/%d] bodies=%-6d iter=%d dt=%g",
		width, done, total, r.Bodies, r.Iterations, r.Dt)
	timing := MetricValue.Render(fmt.Sprintf("%8d ms", r.ExecutionTimeMs))
	status := StatusStyle(r.Status).Render(string(r.Status))
	if r.Failed() && r.Error != "" {
		return fmt.Sprintf("%s %s %s %s", line, timing, status, Subtle.Render(r.Error))
	}
	return fmt.Sprintf("%s %s %s", line, timing, status)
}

// RenderSummary formats the end-of-sweep report. artifact may be empty when
// nothing was written.
func RenderSummary(s sweep.Summary, artifact string) string {
	row := func(label, value string) string {
		return MetricLabel.Render(label) + MetricValue.Render(value) + "\n"
	}
	body := HeaderStyle.Render("sweep summary") + "\n"
	body += row("attempted", fmt.Sprint(s.Attempted))
	body += row("completed", fmt.Sprint(s.Completed))
	body += row("failed", fmt.Sprint(s.Failed))
	body += row("elapsed", s.Elapsed.Round(time.Millisecond).String())
	if artifact != "" {
		body += row("results", artifact)
	}
	return Panel.Render(body)
}
