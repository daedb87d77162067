package viz

import (
	"bytes"
	"slices"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/nbodybench/internal/bench"
	"github.com/san-kum/nbodybench/internal/sweep"
)

func rec(seq, bodies int, ms int64, status bench.Status) bench.Record {
	return bench.Record{Seq: seq, Bodies: bodies, ExecutionTimeMs: ms, Iterations: 1, SaveInterval: 10, Dt: 0.1, Status: status}
}

func TestSparkline(t *testing.T) {
	if got := Sparkline(nil, 5); got != "─────" {
		t.Errorf("empty sparkline: %q", got)
	}

	got := Sparkline([]float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 4)
	if utf8.RuneCountInString(got) != 4 {
		t.Errorf("expected 4 runes, got %q", got)
	}
	if !strings.HasSuffix(got, "█") {
		t.Errorf("largest value should be a full block: %q", got)
	}
}

func TestFormatRun(t *testing.T) {
	line := FormatRun(rec(2, 30, 123, bench.StatusOK), 3, 9, 1)
	for _, want := range []string{"[3/9]", "bodies=30", "123 ms", "ok"} {
		if !strings.Contains(line, want) {
			t.Errorf("missing %q in %q", want, line)
		}
	}

	failed := rec(3, 40, 0, bench.StatusLaunchFailure)
	failed.Error = "no such file"
	line = FormatRun(failed, 4, 9, 1)
	if !strings.Contains(line, "launch_failure") || !strings.Contains(line, "no such file") {
		t.Errorf("failure detail missing: %q", line)
	}
}

func TestConsole(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf)
	c.SweepStarted(12)
	c.RunFinished(rec(0, 10, 5, bench.StatusOK), 1, 12)

	out := buf.String()
	if !strings.Contains(out, "sweeping 12 runs") || !strings.Contains(out, "[ 1/12]") {
		t.Errorf("unexpected console output:\n%s", out)
	}
}

func TestRenderSummary(t *testing.T) {
	out := RenderSummary(sweep.Summary{Attempted: 9, Completed: 8, Failed: 1, Elapsed: 1500 * time.Millisecond}, "out.xlsx")
	for _, want := range []string{"attempted", "9", "failed", "1.5s", "out.xlsx"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in summary", want)
		}
	}
	if strings.Contains(RenderSummary(sweep.Summary{}, ""), "results") {
		t.Error("artifact row shown without an artifact")
	}
}

func TestPlotTimings(t *testing.T) {
	if PlotTimings(nil, 40, 8, "t") != "" {
		t.Error("expected empty plot for no records")
	}

	recs := []bench.Record{
		rec(1, 20, 40, bench.StatusOK),
		rec(0, 10, 10, bench.StatusOK),
		rec(2, 30, 0, bench.StatusTimeout),
	}
	bodies, ms := TimingSeries(recs)
	if len(bodies) != 2 || bodies[0] != 10 || ms[1] != 40 {
		t.Errorf("unexpected series %v %v", bodies, ms)
	}
	if plot := PlotTimings(recs, 40, 8, "execution time"); !strings.Contains(plot, "execution time") {
		t.Errorf("caption missing:\n%s", plot)
	}
}

func TestTimingSeriesOrdersByBodyCount(t *testing.T) {
	// a descending sweep: sweep position and body count disagree
	recs := []bench.Record{
		rec(0, 30, 90, bench.StatusOK),
		rec(1, 20, 40, bench.StatusOK),
		rec(2, 10, 10, bench.StatusOK),
	}
	bodies, ms := TimingSeries(recs)
	if !slices.Equal(bodies, []int{10, 20, 30}) || !slices.Equal(ms, []float64{10, 40, 90}) {
		t.Errorf("expected series ordered by body count, got %v %v", bodies, ms)
	}
}

func TestProgressUpdate(t *testing.T) {
	cancelled := false
	var m tea.Model = NewProgress("gpu-bh", func() { cancelled = true })

	m, _ = m.Update(StartedMsg{Total: 3})
	m, _ = m.Update(RunMsg{Record: rec(0, 10, 5, bench.StatusOK), Done: 1, Total: 3})
	m, _ = m.Update(RunMsg{Record: rec(1, 20, 0, bench.StatusRuntimeFailure), Done: 2, Total: 3})

	p := m.(Progress)
	if p.done != 2 || p.failed != 1 || len(p.times) != 1 {
		t.Errorf("unexpected progress state %+v", p)
	}
	if view := p.View(); !strings.Contains(view, "2/3") || !strings.Contains(view, "GPU-BH") {
		t.Errorf("unexpected view:\n%s", view)
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if !cancelled {
		t.Error("quitting should cancel the sweep")
	}
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestProgressRecentRows(t *testing.T) {
	m := NewProgress("sweep", nil)
	var model tea.Model = m
	for i := range 20 {
		model, _ = model.Update(RunMsg{Record: rec(i, (i+1)*10, int64(i), bench.StatusOK), Done: i + 1, Total: 20})
	}
	if got := len(model.(Progress).recent); got != recentRows {
		t.Errorf("expected %d recent rows, got %d", recentRows, got)
	}

	model, cmd := model.Update(DoneMsg{Summary: sweep.Summary{Attempted: 20, Completed: 20}})
	if !model.(Progress).finished || cmd == nil {
		t.Error("done message should finish and quit")
	}
}

func TestProgramObserver(t *testing.T) {
	var msgs []tea.Msg
	o := &ProgramObserver{send: func(m tea.Msg) { msgs = append(msgs, m) }}

	o.SweepStarted(4)
	o.RunFinished(rec(0, 10, 1, bench.StatusOK), 1, 4)

	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if s, ok := msgs[0].(StartedMsg); !ok || s.Total != 4 {
		t.Errorf("unexpected first message %#v", msgs[0])
	}
	if r, ok := msgs[1].(RunMsg); !ok || r.Done != 1 {
		t.Errorf("unexpected second message %#v", msgs[1])
	}
}

func TestThemes(t *testing.T) {
	defer SetTheme(CurrentTheme.Name)

	SetTheme("ocean")
	if CurrentTheme.Name != "ocean" {
		t.Errorf("expected ocean, got %s", CurrentTheme.Name)
	}
	if Title.GetForeground() != ThemeOcean.Accent {
		t.Errorf("title not recolored: %v", Title.GetForeground())
	}
	if MetricValue.GetForeground() != ThemeOcean.Primary {
		t.Errorf("metric value not recolored: %v", MetricValue.GetForeground())
	}
	if Subtle.GetForeground() != ThemeOcean.Muted || KeyHint.GetForeground() != ThemeOcean.Muted {
		t.Error("muted styles not recolored")
	}
	if HeaderStyle.GetForeground() != ThemeOcean.Text {
		t.Errorf("header not recolored: %v", HeaderStyle.GetForeground())
	}
	if Panel.GetBorderTopForeground() != ThemeOcean.Primary {
		t.Errorf("panel border not recolored: %v", Panel.GetBorderTopForeground())
	}
	if GetTheme("missing").Name != ThemeCyberpunk.Name {
		t.Error("unknown theme should fall back to default")
	}
	if len(ThemeNames()) != len(Themes) {
		t.Error("theme names mismatch")
	}
}
