package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/guptarohit/asciigraph"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/san-kum/setpoint/internal/automation"
	"github.com/san-kum/setpoint/internal/bench"
	"github.com/san-kum/setpoint/internal/config"
	"github.com/san-kum/setpoint/internal/control"
	"github.com/san-kum/setpoint/internal/metrics"
	"github.com/san-kum/setpoint/internal/optim"
	"github.com/san-kum/setpoint/internal/profile"
	"github.com/san-kum/setpoint/internal/storage"
	"github.com/san-kum/setpoint/internal/tui"
)

var (
	dataDir    string
	logLevel   = "info"
	configFile string
	preset     string
	duration   float64
	integrator string
	noSave     bool

	// profile
	maxVel   float64
	maxAccel float64
	from     float64
	to       float64
	step     float64

	// tune
	metric string
	kpGrid string
	kdGrid string

	outFile string
	svg     bool

	// batches
	param   string
	pMin    float64
	pMax    float64
	steps   int
	trials  int
	perturb float64
	seed    int64
)

var (
	headerColor = color.New(color.FgCyan, color.Bold)
	okColor     = color.New(color.FgGreen)
	warnColor   = color.New(color.FgYellow)
)

func setupLogger() error {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("failed to parse log level: %v", err)
	}
	logrus.SetLevel(level)
	logrus.SetOutput(os.Stderr)
	logrus.SetFormatter(&logrus.TextFormatter{})
	if isatty.IsTerminal(os.Stderr.Fd()) {
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.Kitchen,
		})
	}
	return nil
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "setpoint",
		Short: "setpoint mechanism control bench",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogger()
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".setpoint", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", logLevel, "log level (trace, debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run [mechanism]",
		Short: "run a mechanism on the bench",
		Args:  cobra.ExactArgs(1),
		RunE:  runBench,
	}
	addSourceFlags(runCmd)
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")

	profileCmd := &cobra.Command{
		Use:   "profile",
		Short: "tabulate a trapezoidal motion profile",
		Args:  cobra.NoArgs,
		RunE:  showProfile,
	}
	profileCmd.Flags().Float64Var(&maxVel, "max-vel", 1.5, "maximum velocity")
	profileCmd.Flags().Float64Var(&maxAccel, "max-accel", 3, "maximum acceleration")
	profileCmd.Flags().Float64Var(&from, "from", 0, "start position")
	profileCmd.Flags().Float64Var(&to, "to", 1, "goal position")
	profileCmd.Flags().Float64Var(&step, "step", 0.1, "table step in seconds")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a stored run as JSON or SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")
	exportCmd.Flags().BoolVar(&svg, "svg", false, "export a chart instead of JSON")

	presetsCmd := &cobra.Command{
		Use:   "presets [mechanism]",
		Short: "list presets for a mechanism",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			presets := config.ListPresets(args[0])
			if len(presets) == 0 {
				fmt.Printf("no presets for mechanism: %s\n", args[0])
				return nil
			}
			fmt.Printf("presets for %s:\n", args[0])
			for _, p := range presets {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	initCmd := &cobra.Command{
		Use:   "init-config [path]",
		Short: "write a configuration file to start from",
		Args:  cobra.ExactArgs(1),
		RunE:  initConfig,
	}
	initCmd.Flags().StringVar(&preset, "preset", "", "start from a preset (mechanism/name)")

	tuneCmd := &cobra.Command{
		Use:   "tune [mechanism]",
		Short: "grid search PID gains",
		Args:  cobra.ExactArgs(1),
		RunE:  tuneGains,
	}
	addSourceFlags(tuneCmd)
	tuneCmd.Flags().StringVar(&metric, "metric", "tracking_rms", "metric to optimise ("+strings.Join(metrics.Names(), ", ")+")")
	tuneCmd.Flags().StringVar(&kpGrid, "kp", "", "comma separated kp values")
	tuneCmd.Flags().StringVar(&kdGrid, "kd", "", "comma separated kd values")

	liveCmd := &cobra.Command{
		Use:   "live [mechanism]",
		Short: "drive a mechanism from the keyboard",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, args[0])
			if err != nil {
				return err
			}
			return tui.Run(cfg)
		},
	}
	addSourceFlags(liveCmd)

	sweepCmd := &cobra.Command{
		Use:   "sweep [mechanism]",
		Short: "run one parameter across a range",
		Args:  cobra.ExactArgs(1),
		RunE:  runSweep,
	}
	addSourceFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&param, "param", "kp", "parameter ("+strings.Join(optim.Params(), ", ")+")")
	sweepCmd.Flags().Float64Var(&pMin, "min", 1, "first value")
	sweepCmd.Flags().Float64Var(&pMax, "max", 10, "last value")
	sweepCmd.Flags().IntVar(&steps, "steps", 10, "number of values")

	mcCmd := &cobra.Command{
		Use:   "montecarlo [mechanism]",
		Short: "run against randomly perturbed plants",
		Args:  cobra.ExactArgs(1),
		RunE:  runMonteCarlo,
	}
	addSourceFlags(mcCmd)
	mcCmd.Flags().IntVar(&trials, "trials", 20, "number of trials")
	mcCmd.Flags().Float64Var(&perturb, "perturb", 0.2, "relative plant perturbation")
	mcCmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 for time based)")

	rootCmd.AddCommand(runCmd, profileCmd, listCmd, plotCmd, exportCmd, presetsCmd, initCmd, tuneCmd, sweepCmd, mcCmd, liveCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addSourceFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration in seconds")
	cmd.Flags().StringVar(&integrator, "integrator", "rk4", "integrator")
}

// loadConfig resolves the configuration for a mechanism: a config file wins
// over a preset, which wins over the mechanism defaults. Explicit flags
// override all three.
func loadConfig(cmd *cobra.Command, mech string) (*config.Config, error) {
	var cfg *config.Config
	switch {
	case configFile != "":
		c, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		if c.Mechanism != mech {
			return nil, fmt.Errorf("config %s is for %s, not %s", configFile, c.Mechanism, mech)
		}
		cfg = c
	case preset != "":
		cfg = config.GetPreset(mech, preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(mech))
		}
	default:
		cfg = config.Base(mech)
		if cfg == nil {
			return nil, fmt.Errorf("unknown mechanism: %s (available: %v)", mech, bench.Mechanisms())
		}
	}

	if cmd.Flags().Changed("time") {
		cfg.Duration = duration
	}
	if cmd.Flags().Changed("integrator") {
		cfg.Integrator = integrator
	}
	return cfg, cfg.Validate()
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runBench(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args[0])
	if err != nil {
		return err
	}

	b, err := bench.New(cfg)
	if err != nil {
		return err
	}
	var effort *metrics.ControlEffort
	for _, m := range metrics.Default(cfg.Plant.Tolerance) {
		b.AddMetric(m)
		if e, ok := m.(*metrics.ControlEffort); ok {
			effort = e
		}
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("running %s...\n", cfg.Mechanism)
	start := time.Now()
	result, err := b.Run(ctx)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	fmt.Printf("completed %d cycles in %v\n", result.Cycles, elapsed)
	fmt.Printf("transitions: %d\n", result.Transitions)
	fmt.Printf("calibration: %s\n", result.Calibration)
	for _, e := range result.Errors {
		warnColor.Printf("  %v\n", e)
	}

	headerColor.Println("\nmetrics:")
	printMetrics(result.Metrics)
	if effort != nil {
		fmt.Printf("  effort: machine %.0f%%, human %.0f%%, fallback %.0f%%, peak %.3f\n",
			100*effort.Share(control.MachineControl),
			100*effort.Share(control.HumanControl),
			100*effort.Share(control.UncalibratedFallback),
			effort.Peak(),
		)
	}

	if noSave {
		return nil
	}
	st := storage.New(dataDir)
	runID, err := st.Save(cfg, result)
	if err != nil {
		return err
	}
	okColor.Printf("\nrun id: %s\n", runID)
	return nil
}

func printMetrics(m map[string]float64) {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, m[name])
	}
}

func showProfile(cmd *cobra.Command, args []string) error {
	c := profile.Constraints{MaxVelocity: maxVel, MaxAcceleration: maxAccel}
	if err := c.Validate(); err != nil {
		return err
	}
	if !(step > 0) {
		return fmt.Errorf("step must be positive, got %v", step)
	}

	initial := profile.MotionState{Position: from}
	goal := profile.MotionState{Position: to}
	total := profile.Duration(initial, goal, c)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "T\tPOSITION\tVELOCITY")
	for t := 0.0; t < total+step; t += step {
		s := profile.Calculate(t, initial, goal, c)
		fmt.Fprintf(w, "%.2f\t%.4f\t%.4f\n", t, s.Position, s.Velocity)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	positions := make([]float64, 0, 120)
	for i := 0; i <= 119; i++ {
		positions = append(positions, profile.Calculate(total*float64(i)/119, initial, goal, c).Position)
	}
	fmt.Println()
	fmt.Println(asciigraph.Plot(positions,
		asciigraph.Height(12),
		asciigraph.Width(60),
		asciigraph.Caption(fmt.Sprintf("position, %.3fs total", total)),
	))
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMECHANISM\tPRESET\tTIME\tDURATION\tINTEG\tPROFILED\tTRANSITIONS")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2fs\t%s\t%t\t%d\n",
			run.ID,
			run.Mechanism,
			run.Preset,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Integrator,
			run.Profiled,
			run.Transitions,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	samples, err := st.LoadTrace(runID)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("mechanism: %s\n", meta.Mechanism)
	fmt.Printf("calibration: %s\n\n", meta.Calibration)

	res := &bench.Result{Samples: samples}
	reference := downsample(res.Series(func(s bench.Sample) float64 { return s.Reference }), 100)
	truth := downsample(res.Series(func(s bench.Sample) float64 { return s.Truth }), 100)
	power := downsample(res.Series(func(s bench.Sample) float64 { return s.Power }), 100)

	fmt.Println(asciigraph.PlotMany([][]float64{reference, truth},
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.SeriesColors(asciigraph.Yellow, asciigraph.Cyan),
		asciigraph.Caption("reference (yellow) / truth (cyan)"),
	))
	fmt.Println()
	fmt.Println(asciigraph.Plot(power,
		asciigraph.Height(6),
		asciigraph.Width(80),
		asciigraph.Caption("power"),
	))

	prev := samples[0].State
	fmt.Println("\nstate changes:")
	for _, s := range samples[1:] {
		if s.State != prev {
			fmt.Printf("  %7.2fs  %s -> %s\n", s.Time, prev, s.State)
			prev = s.State
		}
	}
	return nil
}

func downsample(data []float64, n int) []float64 {
	if len(data) <= n {
		return data
	}
	out := make([]float64, n)
	stride := float64(len(data)-1) / float64(n-1)
	for i := range out {
		out[i] = data[int(float64(i)*stride)]
	}
	return out
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	if svg {
		if outFile == "" {
			return st.ExportSVG(os.Stdout, args[0], 800, 400)
		}
		if err := st.ExportSVGFile(outFile, args[0], 800, 400); err != nil {
			return err
		}
	} else if outFile == "" {
		return st.Export(os.Stdout, args[0])
	} else if err := st.ExportFile(outFile, args[0]); err != nil {
		return err
	}
	fmt.Printf("exported %s to %s\n", args[0], outFile)
	return nil
}

func initConfig(cmd *cobra.Command, args []string) error {
	cfg := config.DefaultConfig()
	if preset != "" {
		mech, name, ok := strings.Cut(preset, "/")
		if !ok {
			return fmt.Errorf("preset must be mechanism/name, got %q", preset)
		}
		cfg = config.GetPreset(mech, name)
		if cfg == nil {
			return fmt.Errorf("unknown preset: %s (available: %v)", name, config.ListPresets(mech))
		}
	}
	if err := config.Save(args[0], cfg); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", args[0])
	return nil
}

func quietBench() bench.Option {
	l := logrus.New()
	l.SetLevel(logrus.WarnLevel)
	return bench.WithLogger(logrus.NewEntry(l))
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args[0])
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	sweep := automation.Sweep{Param: param, Min: pMin, Max: pMax, Steps: steps}
	results, err := automation.RunSweep(ctx, cfg, sweep, quietBench())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tTRACKING_RMS\tSETTLE\tSTABILITY\tEFFORT\tTRANSITIONS\tFINAL_ERR\n", strings.ToUpper(param))
	for _, r := range results {
		fmt.Fprintf(w, "%.4g\t%.4f\t%.2f\t%.3f\t%.3f\t%d\t%.4f\n",
			r.Value,
			r.Metrics["tracking_rms"],
			r.Metrics["settle_time"],
			r.Metrics["stability"],
			r.Metrics["control_effort"],
			r.Transitions,
			r.FinalError,
		)
	}
	return w.Flush()
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args[0])
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	mc := automation.MonteCarlo{Trials: trials, Perturbation: perturb, Seed: seed}
	results, err := automation.RunMonteCarlo(ctx, cfg, mc, quietBench())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TRIAL\tINERTIA\tSTALL\tDAMPING\tGRAVITY\tTRACKING_RMS\tFINAL_ERR")
	for _, r := range results {
		fmt.Fprintf(w, "%d\t%.4f\t%.3f\t%.4f\t%.3f\t%.4f\t%.4f\n",
			r.TrialID,
			r.Motor.Inertia,
			r.Motor.StallTorque,
			r.Motor.Damping,
			r.Motor.GravityTorque,
			r.Metrics["tracking_rms"],
			r.FinalError,
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	settled, unsettled := automation.MonteCarloStats(results, 5*cfg.Plant.Tolerance)
	c := okColor
	if unsettled > 0 {
		c = warnColor
	}
	c.Printf("\n%d settled, %d unsettled\n", settled, unsettled)
	return nil
}

func parseGrid(s string, fallback float64) ([]float64, error) {
	if s == "" {
		return []float64{fallback * 0.5, fallback, fallback * 1.5}, nil
	}
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("bad grid value %q: %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func tuneGains(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args[0])
	if err != nil {
		return err
	}

	kps, err := parseGrid(kpGrid, cfg.PID.Kp)
	if err != nil {
		return err
	}
	kds, err := parseGrid(kdGrid, cfg.PID.Kd)
	if err != nil {
		return err
	}

	gs, err := optim.NewGridSearch([]string{"kp", "kd"}, [][]float64{kps, kds})
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("searching %d points on %s...\n", len(kps)*len(kds), metric)
	best, err := gs.Search(ctx, cfg, metric, quietBench())
	if err != nil {
		return err
	}

	score := best.Score
	if optim.HigherIsBetter(metric) {
		score = -score
	}
	okColor.Printf("best %s: %.6f\n", metric, score)
	fmt.Printf("  kp: %g\n  kd: %g\n", best.Params["kp"], best.Params["kd"])
	return nil
}
