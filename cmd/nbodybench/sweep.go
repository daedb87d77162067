package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/nbodybench/internal/config"
	"github.com/san-kum/nbodybench/internal/executor"
	"github.com/san-kum/nbodybench/internal/invoke"
	"github.com/san-kum/nbodybench/internal/results"
	"github.com/san-kum/nbodybench/internal/storage"
	"github.com/san-kum/nbodybench/internal/sweep"
	"github.com/san-kum/nbodybench/internal/viz"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

// resolveConfig layers preset or file, environment and flags, in that order.
func resolveConfig(cmd *cobra.Command, args []string) (*config.Config, string, error) {
	cfg := config.DefaultConfig()
	name := ""
	if len(args) == 1 {
		name = args[0]
		cfg = config.GetPreset(name)
		if cfg == nil {
			return nil, "", fmt.Errorf("unknown preset: %s (available: %v)", name, config.ListPresets())
		}
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
		if name == "" {
			name = filepath.Base(configFile)
		}
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, "", err
	}

	flags := cmd.Flags()
	if flags.Changed("binary") {
		cfg.Binary = binary
	}
	if flags.Changed("arg") {
		cfg.Args = extraArgs
	}
	if flags.Changed("protocol") {
		if err := cfg.Protocol.UnmarshalText([]byte(protocol)); err != nil {
			return nil, "", err
		}
	}
	if flags.Changed("config-path") {
		cfg.ConfigPath = configPath
	}
	if flags.Changed("work-dir") {
		cfg.WorkDir = workDir
	}
	if flags.Changed("start") {
		cfg.Bodies.Start = start
	}
	if flags.Changed("stop") {
		cfg.Bodies.Stop = stop
	}
	if flags.Changed("step") {
		cfg.Bodies.Step = step
	}
	if flags.Changed("iterations") {
		cfg.Iterations = iterations
	}
	if flags.Changed("save-interval") {
		cfg.SaveInterval = saveInterval
	}
	if flags.Changed("dt") {
		cfg.Dt = dts
	}
	if flags.Changed("output") {
		cfg.Output = output
	}
	if flags.Changed("results") {
		cfg.Results = resultsPath
	}
	if flags.Changed("journal") {
		cfg.Journal = journalPath
	}
	if flags.Changed("timeout") {
		cfg.Timeout = timeout
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", fmt.Errorf("invalid sweep config: %w", err)
	}
	return cfg, name, nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, name, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	plan := cfg.Plan()
	docPath, err := cfg.AdapterConfigPath()
	if err != nil {
		return err
	}

	log := logger
	if useTUI {
		// the progress view owns the terminal
		f, err := openLogFile()
		if err != nil {
			return err
		}
		defer f.Close()
		log = slog.New(slog.NewTextHandler(f, nil))
	}

	adapter := invoke.New(cfg.Protocol, docPath, log)
	if _, err := adapter.Recover(cfg.Workers); err != nil {
		log.Warn("stale config cleanup failed", slog.Any("error", err))
	}
	atexit.Register(func() { adapter.Recover(cfg.Workers) })

	collector := results.NewCollector()
	journal := cfg.JournalPath()
	if err := collector.OpenJournal(journal); err != nil {
		return err
	}
	atexit.Register(func() { collector.Close() })

	runner := executor.NewRunner(cfg.Binary, cfg.Args, cfg.Env, cfg.Timeout, log)
	runner.Dir = cfg.WorkDir

	ctx, stopSignals := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	opts := []sweep.Option{sweep.WithWorkers(cfg.Workers)}
	var summary sweep.Summary
	var runErr error
	if useTUI {
		summary, runErr = runWithTUI(ctx, cancel, name, adapter, runner, collector, log, plan, opts)
	} else {
		opts = append(opts, sweep.WithObserver(viz.NewConsole(cmd.OutOrStdout())))
		summary, runErr = sweep.New(adapter, runner, collector, log, opts...).Run(ctx, plan)
	}

	if err := collector.Close(); err != nil {
		log.Warn("failed to close journal", slog.String("path", journal), slog.Any("error", err))
	}

	records := collector.Records()
	artifact := cfg.Results
	exportErr := results.Export(cfg.Results, records)
	if exportErr != nil {
		log.Error("export failed, journal kept", slog.String("journal", journal), slog.Any("error", exportErr))
		artifact = journal
	} else if err := os.Remove(journal); err != nil {
		log.Debug("journal not removed", slog.Any("error", err))
	}

	interrupted := errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded)
	st := storage.New(dataDir)
	if err := st.Init(); err == nil {
		id, err := st.Save(storage.SweepMetadata{
			Preset:      name,
			Binary:      cfg.Binary,
			Protocol:    cfg.Protocol.String(),
			Runs:        plan.Len(),
			Attempted:   summary.Attempted,
			Completed:   summary.Completed,
			Failed:      summary.Failed,
			Elapsed:     summary.Elapsed,
			Interrupted: interrupted,
			Artifact:    artifact,
		}, records)
		if err != nil {
			log.Warn("failed to record sweep history", slog.Any("error", err))
		} else {
			log.Debug("sweep recorded", slog.String("id", id))
		}
	}

	fmt.Fprintln(cmd.OutOrStdout(), viz.RenderSummary(summary, artifact))

	switch {
	case exportErr != nil:
		return exportErr
	case interrupted:
		return fmt.Errorf("sweep interrupted after %d of %d runs", summary.Attempted, plan.Len())
	case runErr != nil:
		return runErr
	}
	return nil
}

func runWithTUI(
	ctx context.Context,
	cancel context.CancelFunc,
	name string,
	adapter *invoke.Adapter,
	runner *executor.Runner,
	collector *results.Collector,
	log *slog.Logger,
	plan sweep.Plan,
	opts []sweep.Option,
) (sweep.Summary, error) {
	if name == "" {
		name = "sweep"
	}
	p := tea.NewProgram(viz.NewProgress(name, cancel))
	opts = append(opts, sweep.WithObserver(viz.NewProgramObserver(p)))
	ctrl := sweep.New(adapter, runner, collector, log, opts...)

	type result struct {
		summary sweep.Summary
		err     error
	}
	done := make(chan result, 1)
	go func() {
		summary, err := ctrl.Run(ctx, plan)
		done <- result{summary, err}
		p.Send(viz.DoneMsg{Summary: summary, Err: err})
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		r := <-done
		return r.summary, errors.Join(fmt.Errorf("progress view: %w", err), r.err)
	}
	r := <-done
	return r.summary, r.err
}

func openLogFile() (*os.File, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, err
	}
	return os.OpenFile(filepath.Join(dataDir, "nbodybench.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
}
