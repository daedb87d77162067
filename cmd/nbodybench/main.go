package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/san-kum/nbodybench/internal/analysis"
	"github.com/san-kum/nbodybench/internal/config"
	"github.com/san-kum/nbodybench/internal/invoke"
	"github.com/san-kum/nbodybench/internal/results"
	"github.com/san-kum/nbodybench/internal/storage"
	"github.com/san-kum/nbodybench/internal/viz"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

var (
	envFile   string
	dataDir   string
	themeName string
	verbose   bool

	configFile   string
	binary       string
	extraArgs    []string
	protocol     string
	configPath   string
	workDir      string
	start        int
	stop         int
	step         int
	iterations   []int
	saveInterval int
	dts          []float64
	output       string
	resultsPath  string
	journalPath  string
	timeout      time.Duration
	workers      int
	useTUI       bool

	plotWidth  int
	plotHeight int
	slots      int
	savePreset string
)

var logger *slog.Logger

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		atexit.Exit(1)
	}
	atexit.Exit(0)
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "nbodybench",
		Short:         "parameter sweep benchmark harness for n-body simulations",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
			viz.SetTheme(themeName)
			return config.LoadEnvFile(envFile)
		},
	}

	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file with NBODYBENCH_* overrides")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".nbodybench", "sweep history directory")
	rootCmd.PersistentFlags().StringVar(&themeName, "theme", "cyberpunk", "color theme: "+strings.Join(viz.ThemeNames(), ", "))
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	runCmd := &cobra.Command{
		Use:   "run [preset]",
		Short: "run a parameter sweep",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSweep,
	}
	runCmd.Flags().StringVar(&configFile, "config", "", "sweep config file (yaml)")
	runCmd.Flags().StringVar(&binary, "binary", config.DefaultBinary, "simulation executable")
	runCmd.Flags().StringArrayVar(&extraArgs, "arg", nil, "argument placed before the protocol arguments (repeatable)")
	runCmd.Flags().StringVar(&protocol, "protocol", config.DefaultProtocol, "invocation protocol: positional or config")
	runCmd.Flags().StringVar(&configPath, "config-path", invoke.DefaultConfigPath, "transient json config path")
	runCmd.Flags().StringVar(&workDir, "work-dir", "", "directory the simulation runs in")
	runCmd.Flags().IntVar(&start, "start", config.DefaultStart, "first body count")
	runCmd.Flags().IntVar(&stop, "stop", config.DefaultStop, "last body count (inclusive)")
	runCmd.Flags().IntVar(&step, "step", config.DefaultStep, "body count increment")
	runCmd.Flags().IntSliceVar(&iterations, "iterations", []int{config.DefaultIterations}, "iteration counts")
	runCmd.Flags().IntVar(&saveInterval, "save-interval", config.DefaultSaveInterval, "save interval")
	runCmd.Flags().Float64SliceVar(&dts, "dt", []float64{config.DefaultDt}, "timesteps")
	runCmd.Flags().StringVar(&output, "output", config.DefaultOutput, "simulation output filename")
	runCmd.Flags().StringVar(&resultsPath, "results", config.DefaultResults, "results file (.xlsx, .csv or .json)")
	runCmd.Flags().StringVar(&journalPath, "journal", "", "per-run journal (default: <results>.partial.csv)")
	runCmd.Flags().DurationVar(&timeout, "timeout", 0, "per-run timeout, 0 disables")
	runCmd.Flags().IntVar(&workers, "workers", 1, "concurrent runs; timings are not comparable above 1")
	runCmd.Flags().BoolVar(&useTUI, "tui", false, "show the interactive progress view")

	presetsCmd := &cobra.Command{
		Use:   "presets [name]",
		Short: "list sweep presets, or save one as a config file",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listPresets,
	}
	presetsCmd.Flags().StringVar(&savePreset, "save", "", "write the named preset to this yaml file")

	plotCmd := &cobra.Command{
		Use:   "plot [results]",
		Short: "plot execution time over a results file",
		Args:  cobra.ExactArgs(1),
		RunE:  plotResults,
	}
	plotCmd.Flags().IntVar(&plotWidth, "width", 70, "plot width")
	plotCmd.Flags().IntVar(&plotHeight, "height", 15, "plot height")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [results]",
		Short: "fit execution time against body count",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeResults,
	}

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "list recorded sweeps",
		Args:  cobra.NoArgs,
		RunE:  listHistory,
	}

	cleanCmd := &cobra.Command{
		Use:   "clean",
		Short: "remove config files left by an interrupted sweep",
		Args:  cobra.NoArgs,
		RunE:  cleanStale,
	}
	cleanCmd.Flags().StringVar(&configPath, "config-path", invoke.DefaultConfigPath, "transient json config path")
	cleanCmd.Flags().IntVar(&slots, "workers", 1, "worker slots to clean")

	rootCmd.AddCommand(runCmd, presetsCmd, plotCmd, analyzeCmd, historyCmd, cleanCmd)
	return rootCmd
}

func listPresets(cmd *cobra.Command, args []string) error {
	names := config.ListPresets()
	if len(args) == 1 {
		if config.GetPreset(args[0]) == nil {
			return fmt.Errorf("unknown preset: %s (available: %v)", args[0], names)
		}
		names = args
	}
	if savePreset != "" {
		if len(args) == 0 {
			return fmt.Errorf("--save needs a preset name")
		}
		if err := config.Save(savePreset, config.GetPreset(args[0])); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "saved %s to %s\n", args[0], savePreset)
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tPROTOCOL\tBODIES\tRUNS\tDT\tRESULTS")
	for _, name := range names {
		cfg := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%v\t%s\n",
			name, cfg.Protocol, cfg.Bodies, cfg.Plan().Len(), []float64(cfg.Dt), cfg.Results)
	}
	return w.Flush()
}

func plotResults(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	records, err := results.Load(args[0])
	if err != nil {
		return err
	}
	plot := viz.PlotTimings(records, plotWidth, plotHeight, "execution time [ms] by body count")
	if plot == "" {
		return fmt.Errorf("no successful runs in %s", args[0])
	}
	fmt.Fprintln(out, plot)

	bodies, _ := viz.TimingSeries(records)
	fmt.Fprintln(out, viz.Subtle.Render(fmt.Sprintf("bodies %d..%d, %d of %d runs ok", bodies[0], bodies[len(bodies)-1], len(bodies), len(records))))
	return nil
}

func analyzeResults(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	records, err := results.Load(args[0])
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BODIES\tRUNS\tFAILED\tMEAN_MS\tSTDDEV_MS\tMIN_MS\tMAX_MS")
	for _, s := range analysis.ByBodies(records) {
		fmt.Fprintf(w, "%d\t%d\t%d\t%.1f\t%.1f\t%d\t%d\n",
			s.Bodies, s.Runs, s.Failed, s.MeanMs, s.StdDevMs, s.MinMs, s.MaxMs)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fit, err := analysis.FitScaling(records)
	if err != nil {
		fmt.Fprintln(out, viz.Subtle.Render("scaling: "+err.Error()))
		return nil
	}
	fmt.Fprintln(out, viz.Separator(40))
	fmt.Fprintln(out, viz.MetricLabel.Render("exponent")+viz.MetricValue.Render(fmt.Sprintf("%.3f", fit.Exponent)))
	fmt.Fprintln(out, viz.MetricLabel.Render("coefficient")+viz.MetricValue.Render(fmt.Sprintf("%.4g ms", fit.Coefficient)))
	fmt.Fprintln(out, viz.MetricLabel.Render("r²")+viz.MetricValue.Render(fmt.Sprintf("%.4f", fit.RSquared)))
	fmt.Fprintln(out, viz.MetricLabel.Render("points")+viz.MetricValue.Render(fmt.Sprint(fit.Points)))
	return nil
}

func listHistory(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	runs, err := storage.New(dataDir).List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "no sweeps recorded")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tWHEN\tPROTOCOL\tDONE\tFAILED\tELAPSED\tRESULTS")
	for _, r := range runs {
		done := fmt.Sprintf("%d/%d", r.Attempted, r.Runs)
		if r.Interrupted {
			done += " (interrupted)"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			r.ID, r.Timestamp.Format(time.DateTime), r.Protocol, done, r.Failed,
			r.Elapsed.Round(time.Millisecond), r.Artifact)
	}
	return w.Flush()
}

func cleanStale(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	adapter := invoke.New(invoke.ConfigFile, configPath, logger)
	removed, err := adapter.Recover(slots)
	if err != nil {
		return err
	}
	if len(removed) == 0 {
		fmt.Fprintln(out, "nothing to clean")
	}
	for _, path := range removed {
		fmt.Fprintln(out, "removed", path)
	}
	return nil
}
