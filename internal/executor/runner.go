// Package executor launches the simulation binary and times it.
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/san-kum/nbodybench/internal/bench"
)

const stderrTail = 512

// Outcome is what one launch produced.
type Outcome struct {
	Elapsed  time.Duration
	ExitCode int
}

// Millis returns Elapsed rounded to the nearest whole millisecond.
func (o Outcome) Millis() int64 {
	return RoundMillis(o.Elapsed)
}

func RoundMillis(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	return int64(math.Round(float64(d) / float64(time.Millisecond)))
}

// Runner launches a single simulation binary.
type Runner struct {
	Binary    string
	ExtraArgs []string
	Env       []string
	Dir       string
	Timeout   time.Duration
	Logger    *slog.Logger
}

// NewRunner creates a Runner for binary. extraArgs are placed before the
// protocol arguments, so wrappers such as "mpirun -np 4 ./sim" can be
// expressed as binary "mpirun" with extra args. env is appended to the
// inherited environment.
func NewRunner(binary string, extraArgs, env []string, timeout time.Duration, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		Binary:    binary,
		ExtraArgs: extraArgs,
		Env:       env,
		Timeout:   timeout,
		Logger:    logger.With(slog.String("binary", binary)),
	}
}

// Run launches the binary with args appended to the runner's extra args,
// waits for it to exit and reports how long that took.
//
// A binary that cannot be started yields an error wrapping bench.ErrLaunch.
// A binary that exits non-zero yields bench.ErrRuntime, or bench.ErrTimeout
// when it was killed for exceeding the runner timeout. In both of the latter
// cases the Outcome is still filled in.
func (r *Runner) Run(ctx context.Context, args []string) (Outcome, error) {
	runCtx := ctx
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	argv := make([]string, 0, len(r.ExtraArgs)+len(args))
	argv = append(argv, r.ExtraArgs...)
	argv = append(argv, args...)

	cmd := exec.CommandContext(runCtx, r.Binary, argv...)
	cmd.Dir = r.Dir
	cmd.WaitDelay = 5 * time.Second
	if len(r.Env) > 0 {
		cmd.Env = append(os.Environ(), r.Env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	out := Outcome{ExitCode: bench.NoExitCode}

	r.Logger.Debug("launching", slog.Any("args", argv))

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return out, fmt.Errorf("%w: start %s: %v", bench.ErrLaunch, r.Binary, err)
	}
	waitErr := cmd.Wait()
	out.Elapsed = time.Since(start)

	if cmd.ProcessState != nil {
		out.ExitCode = cmd.ProcessState.ExitCode()
	}

	if waitErr == nil {
		r.Logger.Debug("finished",
			slog.Duration("wall_time", out.Elapsed),
			slog.Int("stdout_bytes", stdout.Len()),
		)
		return out, nil
	}

	tail := lastBytes(stderr.String(), stderrTail)

	switch {
	case errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil:
		return out, fmt.Errorf("%w: killed after %v", bench.ErrTimeout, r.Timeout)
	case ctx.Err() != nil:
		return out, fmt.Errorf("%w: interrupted: %w", bench.ErrRuntime, ctx.Err())
	}

	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		if tail != "" {
			return out, fmt.Errorf("%w: %v: %s", bench.ErrRuntime, waitErr, tail)
		}
		return out, fmt.Errorf("%w: %v", bench.ErrRuntime, waitErr)
	}
	return out, fmt.Errorf("%w: wait: %v", bench.ErrRuntime, waitErr)
}

func lastBytes(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) > n {
		s = "..." + s[len(s)-n:]
	}
	return s
}
