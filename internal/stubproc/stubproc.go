// Package stubproc turns a test binary into a fake simulation executable.
//
// A test package calls MaybeRun from TestMain. When the binary is re-executed
// with the stub environment set, MaybeRun behaves like the simulation: it
// reads its parameters from either protocol, sleeps a duration proportional
// to the body count, and exits. Otherwise it returns immediately and the
// tests run as usual.
//
//	func TestMain(m *testing.M) {
//		stubproc.MaybeRun()
//		os.Exit(m.Run())
//	}
package stubproc

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/san-kum/nbodybench/internal/bench"
	"github.com/san-kum/nbodybench/internal/invoke"
)

const (
	envEnabled  = "NBODYBENCH_STUB"
	envPerBody  = "NBODYBENCH_STUB_PER_BODY"
	envFailAt   = "NBODYBENCH_STUB_FAIL_AT"
	envLog      = "NBODYBENCH_STUB_LOG"
	exitFailure = 3
	exitUsage   = 2
)

// Options configure the stub for one test.
type Options struct {
	// PerBody is slept once per body. Defaults to one millisecond.
	PerBody time.Duration
	// FailAt lists body counts for which the stub exits non-zero.
	FailAt []int
	// LogPath, when set, receives one line per invocation with the
	// arguments the stub was started with.
	LogPath string
}

// Command returns the binary and environment that launch the stub.
func Command(opts Options) (binary string, env []string) {
	env = []string{envEnabled + "=1"}
	if opts.PerBody > 0 {
		env = append(env, envPerBody+"="+opts.PerBody.String())
	}
	if len(opts.FailAt) > 0 {
		parts := make([]string, len(opts.FailAt))
		for i, n := range opts.FailAt {
			parts[i] = strconv.Itoa(n)
		}
		env = append(env, envFailAt+"="+strings.Join(parts, ","))
	}
	if opts.LogPath != "" {
		env = append(env, envLog+"="+opts.LogPath)
	}
	return os.Args[0], env
}

// MaybeRun runs the stub and exits if the stub environment is set.
func MaybeRun() {
	if os.Getenv(envEnabled) != "1" {
		return
	}
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	p, err := parseArgs(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, "stub:", err)
		return exitUsage
	}

	if path := os.Getenv(envLog); path != "" {
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err == nil {
			fmt.Fprintln(f, strings.Join(args, " "))
			f.Close()
		}
	}

	perBody := time.Millisecond
	if v := os.Getenv(envPerBody); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			perBody = d
		}
	}
	time.Sleep(time.Duration(p.Bodies) * perBody)

	for _, s := range strings.Split(os.Getenv(envFailAt), ",") {
		if n, err := strconv.Atoi(s); err == nil && n == p.Bodies {
			fmt.Fprintf(os.Stderr, "stub: simulated failure at %d bodies\n", p.Bodies)
			return exitFailure
		}
	}

	fmt.Printf("simulated %d bodies for %d iterations\n", p.Bodies, p.Iterations)
	return 0
}

func parseArgs(args []string) (bench.Params, error) {
	for i, a := range args {
		if a == invoke.ConfigFlag {
			if i+1 >= len(args) {
				return bench.Params{}, fmt.Errorf("missing value for %s", a)
			}
			return invoke.ReadDocument(args[i+1])
		}
	}

	if len(args) < 5 {
		return bench.Params{}, fmt.Errorf("expected 5 arguments, got %d", len(args))
	}
	pos := args[len(args)-5:]

	var p bench.Params
	var err error
	if p.Bodies, err = strconv.Atoi(pos[0]); err != nil {
		return p, fmt.Errorf("bodies: %w", err)
	}
	if p.Iterations, err = strconv.Atoi(pos[1]); err != nil {
		return p, fmt.Errorf("iterations: %w", err)
	}
	if p.SaveInterval, err = strconv.Atoi(pos[2]); err != nil {
		return p, fmt.Errorf("save interval: %w", err)
	}
	if p.Dt, err = strconv.ParseFloat(pos[3], 64); err != nil {
		return p, fmt.Errorf("dt: %w", err)
	}
	p.OutputFilename = pos[4]
	return p, nil
}
