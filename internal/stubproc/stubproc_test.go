package stubproc

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/san-kum/nbodybench/internal/bench"
	"github.com/san-kum/nbodybench/internal/invoke"
)

func TestParseArgs_Positional(t *testing.T) {
	p, err := parseArgs([]string{"--wrapped", "40", "2", "1", "0.8", "out.json"})
	if err != nil {
		t.Fatal(err)
	}
	want := bench.Params{Bodies: 40, Iterations: 2, SaveInterval: 1, Dt: 0.8, OutputFilename: "out.json"}
	if p != want {
		t.Errorf("expected %+v, got %+v", want, p)
	}
}

func TestParseArgs_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	want := bench.Params{Bodies: 70, Iterations: 1, SaveInterval: 10, Dt: 0.1, OutputFilename: "output.json"}
	if err := invoke.WriteDocument(path, want); err != nil {
		t.Fatal(err)
	}

	p, err := parseArgs([]string{invoke.ConfigFlag, path})
	if err != nil {
		t.Fatal(err)
	}
	if p != want {
		t.Errorf("expected %+v, got %+v", want, p)
	}
}

func TestParseArgs_Errors(t *testing.T) {
	tests := [][]string{
		{"10", "1", "10"},
		{"ten", "1", "10", "0.1", "out.json"},
		{"10", "1", "10", "fast", "out.json"},
		{invoke.ConfigFlag},
		{invoke.ConfigFlag, filepath.Join(os.TempDir(), "nbodybench-missing.json")},
	}
	for _, args := range tests {
		if _, err := parseArgs(args); err == nil {
			t.Errorf("expected error for %v", args)
		}
	}
}

func TestCommand(t *testing.T) {
	bin, env := Command(Options{PerBody: 2 * time.Millisecond, FailAt: []int{30, 50}, LogPath: "args.log"})
	if bin != os.Args[0] {
		t.Errorf("expected test binary, got %s", bin)
	}
	for _, want := range []string{
		"NBODYBENCH_STUB=1",
		"NBODYBENCH_STUB_PER_BODY=2ms",
		"NBODYBENCH_STUB_FAIL_AT=30,50",
		"NBODYBENCH_STUB_LOG=args.log",
	} {
		if !slices.Contains(env, want) {
			t.Errorf("missing %s in %v", want, env)
		}
	}
}
