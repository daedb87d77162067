package sweep_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/nbodybench/internal/bench"
	"github.com/san-kum/nbodybench/internal/config"
	"github.com/san-kum/nbodybench/internal/executor"
	"github.com/san-kum/nbodybench/internal/invoke"
	"github.com/san-kum/nbodybench/internal/results"
	"github.com/san-kum/nbodybench/internal/stubproc"
	"github.com/san-kum/nbodybench/internal/sweep"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type recordingObserver struct {
	total int
	seen  []bench.Record
	after func(done int)
}

func (o *recordingObserver) SweepStarted(total int) { o.total = total }

func (o *recordingObserver) RunFinished(r bench.Record, done, _ int) {
	o.seen = append(o.seen, r)
	if o.after != nil {
		o.after(done)
	}
}

type failingSink struct {
	okFor int
	n     int
}

func (s *failingSink) Append(bench.Record) error {
	s.n++
	if s.n > s.okFor {
		return fmt.Errorf("%w: disk full", bench.ErrExport)
	}
	return nil
}

func smallPlan() sweep.Plan {
	return sweep.Plan{
		Bodies:         sweep.Range{Start: 10, Stop: 90, Step: 10},
		Iterations:     []int{1},
		SaveInterval:   10,
		Dts:            []float64{0.1},
		OutputFilename: "output.json",
	}
}

var _ = Describe("Controller", func() {
	var (
		dir       string
		collector *results.Collector
	)

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "nbodybench-sweep-")
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(os.RemoveAll, dir)

		collector = results.NewCollector()
	})

	stubRunner := func(opts stubproc.Options) *executor.Runner {
		bin, env := stubproc.Command(opts)
		return executor.NewRunner(bin, nil, env, 0, discard)
	}

	It("sweeps 10..90 through the config-file protocol and exports every row", func() {
		configPath := filepath.Join(dir, "config.json")
		adapter := invoke.New(invoke.ConfigFile, configPath, discard)
		ctrl := sweep.New(adapter, stubRunner(stubproc.Options{PerBody: time.Millisecond}), collector, discard)

		summary, err := ctrl.Run(context.Background(), smallPlan())
		Expect(err).NotTo(HaveOccurred())
		Expect(summary.Attempted).To(Equal(9))
		Expect(summary.Completed).To(Equal(9))
		Expect(summary.Failed).To(BeZero())
		Expect(configPath).NotTo(BeAnExistingFile())

		out := filepath.Join(dir, "symulacja_wyniki.xlsx")
		Expect(results.Export(out, collector.Records())).To(Succeed())

		rows, err := results.Load(out)
		Expect(err).NotTo(HaveOccurred())
		Expect(rows).To(HaveLen(9))
		for i, r := range rows {
			Expect(r.Bodies).To(Equal((i + 1) * 10))
			Expect(r.Status).To(Equal(bench.StatusOK))
			Expect(r.ExecutionTimeMs).To(BeNumerically(">=", int64(r.Bodies)))
		}
		Expect(rows[8].ExecutionTimeMs).To(BeNumerically(">", rows[0].ExecutionTimeMs))
	})

	It("passes the five positional arguments in order", func() {
		logPath := filepath.Join(dir, "args.log")
		adapter := invoke.New(invoke.Positional, "", discard)
		runner := stubRunner(stubproc.Options{PerBody: time.Microsecond, LogPath: logPath})
		plan := smallPlan()
		plan.Bodies = sweep.Range{Start: 10, Stop: 30, Step: 10}
		plan.Dts = []float64{0.8}

		_, err := sweep.New(adapter, runner, collector, discard).Run(context.Background(), plan)
		Expect(err).NotTo(HaveOccurred())

		data, err := os.ReadFile(logPath)
		Expect(err).NotTo(HaveOccurred())
		Expect(strings.Split(strings.TrimSpace(string(data)), "\n")).To(Equal([]string{
			"10 1 10 0.8 output.json",
			"20 1 10 0.8 output.json",
			"30 1 10 0.8 output.json",
		}))
	})

	It("finds the config document when the binary runs in another directory", func() {
		wd, err := os.Getwd()
		Expect(err).NotTo(HaveOccurred())
		Expect(os.Chdir(dir)).To(Succeed())
		DeferCleanup(os.Chdir, wd)

		simDir, err := os.MkdirTemp("", "nbodybench-workdir-")
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(os.RemoveAll, simDir)

		cfg := config.DefaultConfig()
		cfg.WorkDir = simDir
		docPath, err := cfg.AdapterConfigPath()
		Expect(err).NotTo(HaveOccurred())
		Expect(filepath.IsAbs(docPath)).To(BeTrue())

		runner := stubRunner(stubproc.Options{PerBody: time.Microsecond})
		runner.Dir = simDir
		plan := smallPlan()
		plan.Bodies = sweep.Range{Start: 10, Stop: 30, Step: 10}

		adapter := invoke.New(invoke.ConfigFile, docPath, discard)
		summary, err := sweep.New(adapter, runner, collector, discard).Run(context.Background(), plan)
		Expect(err).NotTo(HaveOccurred())
		Expect(summary.Attempted).To(Equal(3))
		Expect(summary.Failed).To(BeZero())
		Expect(filepath.Join(dir, invoke.DefaultConfigPath)).NotTo(BeAnExistingFile())
		Expect(filepath.Join(simDir, invoke.DefaultConfigPath)).NotTo(BeAnExistingFile())
	})

	It("records launch failures without aborting the sweep", func() {
		adapter := invoke.New(invoke.ConfigFile, filepath.Join(dir, "config.json"), discard)
		runner := executor.NewRunner(filepath.Join(dir, "NBodyProblem"), nil, nil, 0, discard)

		summary, err := sweep.New(adapter, runner, collector, discard).Run(context.Background(), smallPlan())
		Expect(err).NotTo(HaveOccurred())
		Expect(summary.Attempted).To(Equal(9))
		Expect(summary.Failed).To(Equal(9))

		out := filepath.Join(dir, "results.csv")
		Expect(results.Export(out, collector.Records())).To(Succeed())
		rows, err := results.Load(out)
		Expect(err).NotTo(HaveOccurred())
		Expect(rows).To(HaveLen(9))
		for _, r := range rows {
			Expect(r.Status).To(Equal(bench.StatusLaunchFailure))
			Expect(r.ExitCode).To(Equal(bench.NoExitCode))
		}
		Expect(filepath.Join(dir, "config.json")).NotTo(BeAnExistingFile())
	})

	It("flags a non-zero exit and keeps going", func() {
		adapter := invoke.New(invoke.Positional, "", discard)
		runner := stubRunner(stubproc.Options{PerBody: time.Microsecond, FailAt: []int{30}})

		summary, err := sweep.New(adapter, runner, collector, discard).Run(context.Background(), smallPlan())
		Expect(err).NotTo(HaveOccurred())
		Expect(summary.Completed).To(Equal(8))
		Expect(summary.Failed).To(Equal(1))

		recs := collector.Records()
		Expect(recs[2].Bodies).To(Equal(30))
		Expect(recs[2].Status).To(Equal(bench.StatusRuntimeFailure))
		Expect(recs[2].ExitCode).To(Equal(3))
		Expect(recs[2].Error).To(ContainSubstring("bodies=30"))
		Expect(recs[3].Status).To(Equal(bench.StatusOK))
	})

	It("turns serialization failures into flagged records", func() {
		adapter := invoke.New(invoke.ConfigFile, filepath.Join(dir, "missing", "config.json"), discard)

		summary, err := sweep.New(adapter, stubRunner(stubproc.Options{}), collector, discard).Run(context.Background(), smallPlan())
		Expect(err).NotTo(HaveOccurred())
		Expect(summary.Failed).To(Equal(9))
		for _, r := range collector.Records() {
			Expect(r.Status).To(Equal(bench.StatusSerializationFailure))
			Expect(r.ExecutionTimeMs).To(BeZero())
		}
	})

	It("stops between steps when cancelled and keeps what it has", func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		obs := &recordingObserver{after: func(done int) {
			if done == 2 {
				cancel()
			}
		}}
		adapter := invoke.New(invoke.ConfigFile, filepath.Join(dir, "config.json"), discard)
		runner := stubRunner(stubproc.Options{PerBody: time.Microsecond})

		summary, err := sweep.New(adapter, runner, collector, discard, sweep.WithObserver(obs)).Run(ctx, smallPlan())
		Expect(err).To(MatchError(context.Canceled))
		Expect(summary.Attempted).To(Equal(2))
		Expect(collector.Records()).To(HaveLen(2))
		Expect(obs.total).To(Equal(9))
		Expect(filepath.Join(dir, "config.json")).NotTo(BeAnExistingFile())
	})

	It("aborts when the sink rejects a record", func() {
		adapter := invoke.New(invoke.Positional, "", discard)
		sink := &failingSink{okFor: 2}

		summary, err := sweep.New(adapter, stubRunner(stubproc.Options{PerBody: time.Microsecond}), sink, discard).Run(context.Background(), smallPlan())
		Expect(errors.Is(err, bench.ErrExport)).To(BeTrue())
		Expect(summary.Attempted).To(Equal(3))
	})

	It("rejects an invalid plan before launching anything", func() {
		plan := smallPlan()
		plan.Bodies.Step = 0

		summary, err := sweep.New(invoke.New(invoke.Positional, "", discard), stubRunner(stubproc.Options{}), collector, discard).Run(context.Background(), plan)
		Expect(err).To(HaveOccurred())
		Expect(summary.Attempted).To(BeZero())
	})

	Context("with several workers", func() {
		It("isolates config files per worker and exports in sweep order", func() {
			logPath := filepath.Join(dir, "args.log")
			configPath := filepath.Join(dir, "config.json")
			adapter := invoke.New(invoke.ConfigFile, configPath, discard)
			runner := stubRunner(stubproc.Options{PerBody: time.Millisecond, LogPath: logPath})
			obs := &recordingObserver{}

			summary, err := sweep.New(adapter, runner, collector, discard,
				sweep.WithWorkers(3), sweep.WithObserver(obs)).Run(context.Background(), smallPlan())
			Expect(err).NotTo(HaveOccurred())
			Expect(summary.Completed).To(Equal(9))
			Expect(obs.seen).To(HaveLen(9))

			recs := collector.Records()
			for i, r := range recs {
				Expect(r.Seq).To(Equal(i))
				Expect(r.Bodies).To(Equal((i + 1) * 10))
			}

			data, err := os.ReadFile(logPath)
			Expect(err).NotTo(HaveOccurred())
			Expect(strings.Split(strings.TrimSpace(string(data)), "\n")).To(HaveLen(9))

			leftovers, err := filepath.Glob(filepath.Join(dir, "config*.json"))
			Expect(err).NotTo(HaveOccurred())
			Expect(leftovers).To(BeEmpty())
		})
	})
})
