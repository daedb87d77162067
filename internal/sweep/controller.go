package sweep

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/san-kum/nbodybench/internal/bench"
	"github.com/san-kum/nbodybench/internal/executor"
	"github.com/san-kum/nbodybench/internal/invoke"
	"golang.org/x/sync/errgroup"
)

// Executor launches one prepared invocation.
type Executor interface {
	Run(ctx context.Context, args []string) (executor.Outcome, error)
}

// Sink receives records in completion order.
type Sink interface {
	Append(r bench.Record) error
}

// Observer is notified as the sweep progresses. Calls are never concurrent.
type Observer interface {
	SweepStarted(total int)
	RunFinished(r bench.Record, done, total int)
}

type Summary struct {
	Attempted int
	Completed int
	Failed    int
	Elapsed   time.Duration
}

// Controller drives a plan through the adapter and executor.
type Controller struct {
	adapter  *invoke.Adapter
	exec     Executor
	sink     Sink
	observer Observer
	workers  int
	logger   *slog.Logger

	mu      sync.Mutex
	summary Summary
}

type Option func(*Controller)

func WithObserver(o Observer) Option {
	return func(c *Controller) { c.observer = o }
}

// WithWorkers runs up to n steps at once. Timings taken while steps share
// the machine are not comparable with sequential ones.
func WithWorkers(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.workers = n
		}
	}
}

func New(adapter *invoke.Adapter, exec Executor, sink Sink, logger *slog.Logger, opts ...Option) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Controller{
		adapter: adapter,
		exec:    exec,
		sink:    sink,
		workers: 1,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run attempts every configuration of plan exactly once. Failed runs are
// recorded and the sweep moves on. Run returns early only when ctx is done
// or the sink rejects a record; the summary covers what was attempted.
func (c *Controller) Run(ctx context.Context, plan Plan) (Summary, error) {
	if err := plan.Validate(); err != nil {
		return Summary{}, err
	}

	c.summary = Summary{}
	total := plan.Len()
	start := time.Now()

	if c.observer != nil {
		c.observer.SweepStarted(total)
	}
	c.logger.InfoContext(ctx, "starting sweep",
		slog.String("bodies", plan.Bodies.String()),
		slog.Int("runs", total),
		slog.Int("workers", c.workers),
	)

	var err error
	if c.workers > 1 {
		err = c.runParallel(ctx, plan, total)
	} else {
		err = c.runSequential(ctx, plan, total)
	}

	c.summary.Elapsed = time.Since(start)
	c.logger.InfoContext(ctx, "sweep finished",
		slog.Int("attempted", c.summary.Attempted),
		slog.Int("completed", c.summary.Completed),
		slog.Int("failed", c.summary.Failed),
		slog.Duration("elapsed", c.summary.Elapsed),
	)
	return c.summary, err
}

func (c *Controller) runSequential(ctx context.Context, plan Plan, total int) error {
	seq := 0
	for params := range plan.All() {
		if err := ctx.Err(); err != nil {
			return err
		}
		rec := c.step(ctx, c.adapter, seq, params)
		if err := c.record(rec, total); err != nil {
			return err
		}
		seq++
	}
	return ctx.Err()
}

func (c *Controller) runParallel(ctx context.Context, plan Plan, total int) error {
	c.logger.WarnContext(ctx, "parallel sweep: timings are not comparable across runs",
		slog.Int("workers", c.workers),
	)

	slots := make(chan int, c.workers)
	for i := 0; i < c.workers; i++ {
		slots <- i
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)

	seq := 0
	for params := range plan.All() {
		if gctx.Err() != nil {
			break
		}
		n := seq
		g.Go(func() error {
			slot := <-slots
			defer func() { slots <- slot }()

			if err := gctx.Err(); err != nil {
				return err
			}
			adapter := c.adapter.WithConfigPath(c.adapter.SlotPath(slot))
			return c.record(c.step(gctx, adapter, n, params), total)
		})
		seq++
	}

	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return ctx.Err()
}

func (c *Controller) step(ctx context.Context, adapter *invoke.Adapter, seq int, params bench.Params) bench.Record {
	out := executor.Outcome{ExitCode: bench.NoExitCode}

	err := adapter.Invoke(params, func(args []string) error {
		var runErr error
		out, runErr = c.exec.Run(ctx, args)
		return runErr
	})
	if err != nil {
		err = &bench.RunError{Seq: seq, Bodies: params.Bodies, Wrapped: err}
		c.logger.WarnContext(ctx, "run failed",
			slog.Int("bodies", params.Bodies),
			slog.String("status", string(bench.StatusOf(err))),
			slog.String("error", err.Error()),
		)
	}

	return bench.NewRecord(seq, params, out.Millis(), out.ExitCode, err)
}

func (c *Controller) record(rec bench.Record, total int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.summary.Attempted++
	if rec.Failed() {
		c.summary.Failed++
	} else {
		c.summary.Completed++
	}

	if err := c.sink.Append(rec); err != nil {
		return err
	}

	c.logger.Debug("run recorded",
		slog.Int("bodies", rec.Bodies),
		slog.Int64("execution_time_ms", rec.ExecutionTimeMs),
		slog.String("status", string(rec.Status)),
	)
	if c.observer != nil {
		c.observer.RunFinished(rec, c.summary.Attempted, total)
	}
	return nil
}
