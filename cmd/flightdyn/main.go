package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/flightdyn/internal/analysis"
	"github.com/san-kum/flightdyn/internal/automation"
	"github.com/san-kum/flightdyn/internal/config"
	"github.com/san-kum/flightdyn/internal/experiment"
	"github.com/san-kum/flightdyn/internal/export"
	"github.com/san-kum/flightdyn/internal/log"
	"github.com/san-kum/flightdyn/internal/metrics"
	"github.com/san-kum/flightdyn/internal/optim"
	"github.com/san-kum/flightdyn/internal/sim"
	"github.com/san-kum/flightdyn/internal/storage"
	"github.com/san-kum/flightdyn/internal/viz"
)

var (
	dataDir    string
	configFile string
	preset     string
	logLevel   string
	logDir     string

	dt         float64
	endTime    float64
	integrator string
	airspeed   float64
	altitude   float64
	heading    float64
	groundElev float64
	icFile     string
	ctlFile    string
	holdAlt    bool
	holdHdg    bool

	// fly
	metricsAddr string
	autostart   bool
	saveFlight  bool

	// sweep
	minAirspeed float64
	maxAirspeed float64
	sweepSteps  int
	optimSteps  int
	workers     int

	// montecarlo
	trials    int
	perturb   float64
	seed      int64
	mcWorkers int

	plotColumns string
	objective   string
	svgX        string
	svgY        string
)

// main registers the flightdyn commands. With no subcommand it opens the
// aircraft launcher and flies the chosen aircraft.
func main() {
	rootCmd := &cobra.Command{
		Use:   "flightdyn",
		Short: "six-degree-of-freedom flight dynamics simulator",
		RunE:  launch,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".flightdyn", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logDir, "log-dir", "", "log directory (default: user config dir)")

	runCmd := &cobra.Command{
		Use:   "run [aircraft]",
		Short: "fly a trimmed aircraft offline to the end time and save the run",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runFlight,
	}
	addFlightFlags(runCmd)

	flyCmd := &cobra.Command{
		Use:   "fly [aircraft]",
		Short: "fly in real time with the terminal cockpit",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runFly,
	}
	addFlightFlags(flyCmd)
	flyCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9090)")
	flyCmd.Flags().BoolVar(&autostart, "autostart", true, "start stepping immediately")
	flyCmd.Flags().BoolVar(&saveFlight, "save", false, "save the retained output log on exit")

	trimCmd := &cobra.Command{
		Use:   "trim [aircraft]",
		Short: "solve level-flight trim",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runTrim,
	}
	addFlightFlags(trimCmd)

	sweepCmd := &cobra.Command{
		Use:   "sweep [aircraft]",
		Short: "trim across an airspeed range",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSweep,
	}
	sweepCmd.Flags().Float64Var(&minAirspeed, "min", 30, "lowest airspeed (m/s)")
	sweepCmd.Flags().Float64Var(&maxAirspeed, "max", 80, "highest airspeed (m/s)")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 11, "number of airspeeds")
	sweepCmd.Flags().Float64Var(&altitude, "altitude", config.DefaultAltitude, "altitude (m)")
	sweepCmd.Flags().IntVar(&workers, "workers", 0, "concurrent solves (0 = unbounded)")

	optimizeCmd := &cobra.Command{
		Use:   "optimize [aircraft]",
		Short: "find the airspeed minimizing a trim objective (drag, power, throttle)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runOptimize,
	}
	optimizeCmd.Flags().StringVar(&objective, "objective", "drag", "trim objective to minimize")
	optimizeCmd.Flags().Float64Var(&minAirspeed, "min", 30, "lowest airspeed (m/s)")
	optimizeCmd.Flags().Float64Var(&maxAirspeed, "max", 80, "highest airspeed (m/s)")
	optimizeCmd.Flags().IntVar(&optimSteps, "steps", 51, "grid points")
	optimizeCmd.Flags().Float64Var(&altitude, "altitude", config.DefaultAltitude, "altitude (m)")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a YAML scenario",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	monteCarloCmd := &cobra.Command{
		Use:   "montecarlo [aircraft]",
		Short: "fly perturbed copies of a trimmed flight",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runMonteCarlo,
	}
	addFlightFlags(monteCarloCmd)
	monteCarloCmd.Flags().IntVar(&trials, "trials", 20, "number of trials")
	monteCarloCmd.Flags().Float64Var(&perturb, "perturb", 0.05, "largest rate (rad/s) and angle (rad) offset")
	monteCarloCmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 = time based)")
	monteCarloCmd.Flags().IntVar(&mcWorkers, "workers", 4, "concurrent trials")

	compareCmd := &cobra.Command{
		Use:   "compare [aircraft] [integrator1] [integrator2] ...",
		Short: "compare integrators on the same trimmed flight",
		Args:  cobra.MinimumNArgs(2),
		RunE:  compareIntegrators,
	}
	addFlightFlags(compareCmd)

	benchCmd := &cobra.Command{
		Use:   "bench [aircraft]",
		Short: "benchmark ticks per second",
		Args:  cobra.MaximumNArgs(1),
		RunE:  benchFlight,
	}

	modesCmd := &cobra.Command{
		Use:   "modes [aircraft]",
		Short: "linearize about trim and report the dynamic stability modes",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runModes,
	}
	addFlightFlags(modesCmd)

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "spectral analysis of a saved run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().StringVar(&plotColumns, "columns", "ALTITUDE,TAS,PHI", "comma-separated output quantities")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run results",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&plotColumns, "columns", "ALTITUDE,TAS,VERTICAL_SPEED,ALPHA,THETA,LOAD_FACTOR", "comma-separated output quantities")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run data to CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return storage.New(dataDir).ExportCSV(args[0], os.Stdout)
		},
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return storage.New(dataDir).ExportJSON(args[0], os.Stdout)
		},
	}

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "draw one output quantity against another as SVG (default: ground track)",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVar(&svgX, "x", "EAST", "horizontal quantity")
	exportSVGCmd.Flags().StringVar(&svgY, "y", "NORTH", "vertical quantity")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list flight-condition presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "PRESET\tAIRSPEED\tALTITUDE\tDT\tEND")
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%.0f m/s\t%.0f m\t%.3fs\t%.0fs\n", name, p.Trim.Airspeed, p.Trim.Altitude, p.Integrator.Dt, p.Integrator.EndTime)
			}
			return w.Flush()
		},
	}

	aircraftCmd := &cobra.Command{
		Use:   "aircraft",
		Short: "list built-in aircraft and integrators",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := experiment.NewRegistry()
			fmt.Printf("aircraft:    %s\n", strings.Join(reg.ListAircraft(), ", "))
			fmt.Printf("integrators: %s\n", strings.Join(reg.ListIntegrators(), ", "))
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, flyCmd, trimCmd, sweepCmd, optimizeCmd, scenarioCmd, monteCarloCmd, compareCmd, benchCmd, modesCmd, analyzeCmd,
		listCmd, plotCmd, exportCmd, exportCSVCmd, exportJSONCmd, exportSVGCmd, presetsCmd, aircraftCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addFlightFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "config file path (yaml)")
	f.StringVar(&preset, "preset", "", "use preset flight condition")
	f.Float64Var(&dt, "dt", config.DefaultDt, "timestep (s)")
	f.Float64Var(&endTime, "time", config.DefaultEndTime, "end time (s)")
	f.StringVar(&integrator, "integrator", "rk4", "integrator")
	f.Float64Var(&airspeed, "airspeed", config.DefaultAirspeed, "trim airspeed (m/s)")
	f.Float64Var(&altitude, "altitude", config.DefaultAltitude, "trim altitude (m)")
	f.Float64Var(&heading, "heading", 0, "trim heading (deg)")
	f.Float64Var(&groundElev, "ground", 0, "ground elevation (m)")
	f.StringVar(&icFile, "ic", "", "initial-conditions file")
	f.StringVar(&ctlFile, "controls", "", "initial-controls file")
	f.BoolVar(&holdAlt, "hold-altitude", false, "engage altitude hold at the starting altitude")
	f.BoolVar(&holdHdg, "hold-heading", false, "engage heading hold at the starting heading")
}

// flightConfig layers preset, config file and changed flags, in that order.
func flightConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		if cfg = config.GetPreset(preset); cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	if len(args) > 0 {
		cfg.Aircraft = args[0]
	}

	flags := cmd.Flags()
	changed := func(name string) bool { return flags.Lookup(name) != nil && flags.Changed(name) }
	if changed("dt") {
		cfg.Integrator.Dt = dt
	}
	if changed("time") {
		cfg.Integrator.EndTime = endTime
	}
	if changed("integrator") {
		cfg.Integrator.Method = integrator
	}
	if changed("airspeed") {
		cfg.Trim.Airspeed = airspeed
	}
	if changed("altitude") {
		cfg.Trim.Altitude = altitude
	}
	if changed("heading") {
		cfg.Trim.Heading = heading
	}
	if changed("ground") {
		cfg.Environment.GroundElevation = groundElev
	}
	if changed("ic") {
		cfg.Files.InitialConditions = icFile
	}
	if changed("controls") {
		cfg.Files.InitialControls = ctlFile
	}
	if changed("hold-altitude") {
		cfg.Autopilot.AltitudeHold = holdAlt
	}
	if changed("hold-heading") {
		cfg.Autopilot.HeadingHold = holdHdg
	}
	if cmd.Flags().Changed("log-level") || cfg.Log.Level == "" {
		cfg.Log.Level = logLevel
	}
	if logDir != "" {
		cfg.Log.Dir = logDir
	}
	return cfg, cfg.Validate()
}

func newLogger(cfg *config.Config) *log.Logger {
	return log.New(cfg.Log.Level, cfg.Log.Dir)
}

func runFlight(cmd *cobra.Command, args []string) error {
	cfg, err := flightConfig(cmd, args)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	exp := experiment.New(cfg, experiment.NewRegistry(), logger)
	if err := exp.Setup(); err != nil {
		return err
	}

	fmt.Printf("flying %s to t=%.1fs...\n", exp.Spec().Name, cfg.Integrator.EndTime)
	start := time.Now()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	result, runErr := exp.Run(ctx)
	if result == nil {
		return runErr
	}
	elapsed := time.Since(start)

	runID, err := st.Save(automation.Metadata("", cfg, result), result.Records)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("records: %d\n", len(result.Records))
	printTrim(result.Trim.Alpha, result.Trim.Elevator, result.Trim.Throttle)
	fmt.Println("\nmetrics:")
	for name, val := range result.Metrics {
		fmt.Printf("  %s: %.6f\n", name, val)
	}
	if runErr != nil {
		return fmt.Errorf("run halted: %w", runErr)
	}
	return nil
}

func printTrim(alpha, elevator float64, throttle []float64) {
	fmt.Printf("trim: alpha %.2f°, elevator %.2f°, throttle", alpha*180/math.Pi, elevator*180/math.Pi)
	for _, th := range throttle {
		fmt.Printf(" %.1f%%", th*100)
	}
	fmt.Println()
}

func runFly(cmd *cobra.Command, args []string) error {
	cfg, err := flightConfig(cmd, args)
	if err != nil {
		return err
	}
	cfg.Integrator.Realtime = true
	cfg.Integrator.Unlimited = !cmd.Flags().Changed("time")
	if err := cfg.Validate(); err != nil {
		return err
	}
	return fly(cfg)
}

// fly runs the stepper, the cockpit and the optional metrics server until
// the cockpit exits or the process is interrupted.
func fly(cfg *config.Config) error {
	logger := newLogger(cfg)
	exp := experiment.New(cfg, experiment.NewRegistry(), logger)
	if err := exp.Setup(); err != nil {
		return err
	}
	stepper := exp.Stepper()

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithCancel(sigCtx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	if metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		srv := &http.Server{Addr: metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		g.Go(func() error {
			logger.Info("serving metrics", "addr", metricsAddr)
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdown, done := context.WithTimeout(context.Background(), 2*time.Second)
			defer done()
			return srv.Shutdown(shutdown)
		})
	}

	if autostart {
		stepper.Start(ctx)
	}
	g.Go(func() error {
		defer cancel()
		return viz.Run(ctx, stepper, exp.Spec().Name)
	})

	err := g.Wait()
	stepper.Stop()
	if werr := stepper.Wait(); werr != nil && !errors.Is(werr, context.Canceled) {
		logger.Error("flight ended with error", "error", werr)
		fmt.Fprintf(os.Stderr, "flight halted: %v\n", werr)
	}

	if saveFlight {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		res := &experiment.Result{
			Records: stepper.OutputLog(),
			Metrics: stepper.Metrics(),
			Trim:    exp.Trim(),
			Engines: len(exp.Spec().Engines),
			Err:     stepper.Err(),
		}
		runID, serr := st.Save(automation.Metadata("", cfg, res), res.Records)
		if serr != nil {
			return serr
		}
		fmt.Printf("saved flight %s (%d records)\n", runID, len(res.Records))
	}
	return err
}

func launch(cmd *cobra.Command, args []string) error {
	reg := experiment.NewRegistry()
	sel, err := viz.Launch(reg.ListAircraft(), config.ListPresets())
	if err != nil || sel.Cancelled {
		return err
	}
	cfg := config.GetPreset(sel.Preset)
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	cfg.Aircraft = sel.Aircraft
	cfg.Integrator.Realtime = true
	cfg.Integrator.Unlimited = true
	cfg.Log.Level = logLevel
	cfg.Log.Dir = logDir
	autostart = true
	return fly(cfg)
}

func runTrim(cmd *cobra.Command, args []string) error {
	cfg, err := flightConfig(cmd, args)
	if err != nil {
		return err
	}
	exp := experiment.New(cfg, experiment.NewRegistry(), newLogger(cfg))
	if err := exp.Setup(); err != nil {
		return err
	}
	r := exp.Trim()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "aircraft\t%s\n", exp.Spec().Name)
	fmt.Fprintf(w, "airspeed\t%.2f m/s\n", r.Airspeed)
	fmt.Fprintf(w, "altitude\t%.0f m\n", r.Altitude)
	fmt.Fprintf(w, "alpha\t%.3f°\n", r.Alpha*180/math.Pi)
	fmt.Fprintf(w, "theta\t%.3f°\n", r.Theta*180/math.Pi)
	fmt.Fprintf(w, "elevator\t%.3f°\n", r.Elevator*180/math.Pi)
	for i, th := range r.Throttle {
		fmt.Fprintf(w, "throttle %d\t%.1f%%\n", i+1, th*100)
	}
	fmt.Fprintf(w, "u, w\t%.2f, %.2f m/s\n", r.U, r.W)
	fmt.Fprintf(w, "dynamic pressure\t%.1f Pa\n", r.DynamicPressure)
	fmt.Fprintf(w, "CL\t%.4f\n", r.CLTrim)
	fmt.Fprintf(w, "drag\t%.1f N\n", r.Drag)
	if r.Singular {
		fmt.Fprintln(w, "note\tsingular lift/moment system, lift-only estimate")
	}
	if r.Clamped {
		fmt.Fprintln(w, "note\tclamped to limits, not a true level-flight trim")
	}
	return w.Flush()
}

func runSweep(cmd *cobra.Command, args []string) error {
	name := "trainer"
	if len(args) > 0 {
		name = args[0]
	}
	logger := log.New(logLevel, logDir)
	results, err := automation.RunTrimSweep(context.Background(), &automation.TrimSweep{
		Aircraft:    name,
		Altitude:    altitude,
		MinAirspeed: minAirspeed,
		MaxAirspeed: maxAirspeed,
		NumSteps:    sweepSteps,
		Workers:     workers,
	}, experiment.NewRegistry(), logger)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "AIRSPEED\tALPHA\tELEVATOR\tTHROTTLE\tCL\tDRAG\tNOTE")
	for _, r := range results {
		note := ""
		switch {
		case r.Singular:
			note = "singular"
		case r.Clamped:
			note = "clamped"
		}
		fmt.Fprintf(w, "%.1f\t%.2f°\t%.2f°\t%.1f%%\t%.3f\t%.0f N\t%s\n",
			r.Airspeed, r.Alpha*180/math.Pi, r.Elevator*180/math.Pi, r.Throttle[0]*100, r.CLTrim, r.Drag, note)
	}
	return w.Flush()
}

func runOptimize(cmd *cobra.Command, args []string) error {
	name := "trainer"
	if len(args) > 0 {
		name = args[0]
	}
	logger := log.New(logLevel, logDir)
	spec, err := experiment.NewRegistry().GetAircraft(name, logger)
	if err != nil {
		return err
	}
	obj, err := optim.TrimObjective(spec, altitude, objective, logger)
	if err != nil {
		return err
	}

	g := optim.NewGridSearch([]string{"airspeed"}, [][]float64{optim.Linspace(minAirspeed, maxAirspeed, optimSteps)})
	params, best, err := g.Search(cmd.Context(), obj)
	if err != nil {
		return err
	}
	fmt.Printf("%s at %.0f m: minimum %s %.4g at %.1f m/s\n", spec.Name, altitude, objective, best, params["airspeed"])
	return nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	logger := log.New(logLevel, logDir)

	fmt.Printf("scenario %s: %d steps\n", sc.Name, len(sc.Steps))
	results, err := automation.RunScenario(context.Background(), sc, experiment.NewRegistry(), st, logger)
	for i, r := range results {
		fmt.Printf("step %d: %s, %d records", i+1, r.Config.Aircraft, len(r.Result.Records))
		if r.RunID != "" {
			fmt.Printf(", saved as %s", r.RunID)
		}
		fmt.Println()
	}
	return err
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	cfg, err := flightConfig(cmd, args)
	if err != nil {
		return err
	}
	results, err := automation.RunMonteCarlo(context.Background(), &automation.MonteCarloConfig{
		Base:         cfg,
		Perturbation: perturb,
		NumTrials:    trials,
		Workers:      mcWorkers,
		Seed:         seed,
	}, experiment.NewRegistry(), newLogger(cfg))
	if err != nil {
		return err
	}
	stable, unstable, median := automation.MonteCarloStats(results)
	fmt.Printf("trials: %d  stable: %d  unstable: %d  median peak load: %.2f g\n", len(results), stable, unstable, median)
	return nil
}

func compareIntegrators(cmd *cobra.Command, args []string) error {
	cfg, err := flightConfig(cmd, args[:1])
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	registry := experiment.NewRegistry()

	fmt.Printf("comparing integrators for %s (dt=%.4f, end=%.1fs)\n\n", cfg.Aircraft, cfg.Integrator.Dt, cfg.Integrator.EndTime)
	fmt.Printf("%-12s  %-12s  %-12s  %-12s\n", "integrator", "final_alt", "vs_rms", "time_ms")
	fmt.Println(strings.Repeat("-", 52))

	for _, name := range args[1:] {
		run := *cfg
		run.Integrator.Method = name
		exp := experiment.New(&run, registry, logger)
		if err := exp.Setup(); err != nil {
			fmt.Printf("%-12s  error: %v\n", name, err)
			continue
		}

		start := time.Now()
		result, err := exp.Run(context.Background())
		elapsed := time.Since(start)
		if err != nil {
			fmt.Printf("%-12s  error: %v\n", name, err)
			continue
		}

		finalAlt := 0.0
		if n := len(result.Records); n > 0 {
			finalAlt = result.Records[n-1].Get(sim.Altitude)
		}
		fmt.Printf("%-12s  %12.3f  %12.2e  %12.2f\n", name, finalAlt, result.Metrics["vertical_speed_rms"], float64(elapsed.Microseconds())/1000)
	}
	return nil
}

func benchFlight(cmd *cobra.Command, args []string) error {
	name := "trainer"
	if len(args) > 0 {
		name = args[0]
	}
	registry := experiment.NewRegistry()

	fmt.Printf("benchmarking %s\n\n", name)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "END\tDT\tTICKS\tTIME\tTICKS/SEC")

	for _, end := range []float64{10, 60} {
		for _, step := range []float64{0.001, 0.01, 0.05} {
			cfg := config.DefaultConfig()
			cfg.Aircraft = name
			cfg.Integrator.Dt = step
			cfg.Integrator.EndTime = end

			exp := experiment.New(cfg, registry, nil)
			if err := exp.Setup(); err != nil {
				return err
			}
			start := time.Now()
			result, err := exp.Run(context.Background())
			if err != nil {
				return err
			}
			elapsed := time.Since(start)
			ticks := len(result.Records) - 1
			fmt.Fprintf(w, "%.0fs\t%.3fs\t%d\t%v\t%.0f\n", end, step, ticks, elapsed, float64(ticks)/elapsed.Seconds())
		}
	}
	return w.Flush()
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
	fmt.Fprintln(w, "ID\tAIRCRAFT\tTIME\tEND\tDT\tINTEG\tTICKS\tSTATUS")
	for _, run := range runs {
		status := "ok"
		if run.Error != "" {
			status = "halted"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%.1fs\t%.4fs\t%s\t%d\t%s\n",
			run.ID,
			run.Aircraft,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.EndTime,
			run.Dt,
			run.Integrator,
			run.Ticks,
			status,
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
	out, err := st.LoadOutput(runID)
	if err != nil {
		return err
	}
	if len(out.Rows) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("aircraft: %s\n", meta.Aircraft)
	fmt.Printf("samples: %d\n\n", len(out.Rows))

	for _, col := range strings.Split(plotColumns, ",") {
		col = strings.ToUpper(strings.TrimSpace(col))
		data, ok := out.Column(col)
		if !ok {
			fmt.Printf("unknown column %s\n\n", col)
			continue
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(strings.ToLower(col)+" vs time"),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "id\t%s\naircraft\t%s\nintegrator\t%s\ndt\t%g\nend\t%g\nticks\t%d\n", meta.ID, meta.Aircraft, meta.Integrator, meta.Dt, meta.EndTime, meta.Ticks)
	for name, v := range meta.Metrics {
		fmt.Fprintf(w, "%s\t%.6f\n", name, v)
	}
	if meta.Error != "" {
		fmt.Fprintf(w, "error\t%s\n", meta.Error)
	}
	return w.Flush()
}

func runModes(cmd *cobra.Command, args []string) error {
	cfg, err := flightConfig(cmd, args)
	if err != nil {
		return err
	}
	exp := experiment.New(cfg, experiment.NewRegistry(), newLogger(cfg))
	if err := exp.Setup(); err != nil {
		return err
	}
	st := exp.Stepper()
	modes, err := analysis.Modes(st.Flight(), st.InitialState(), st.Controls().Snapshot().Vector())
	if err != nil {
		return err
	}

	fmt.Printf("%s trimmed at %.1f m/s, %.0f m\n\n", exp.Spec().Name, cfg.Trim.Airspeed, cfg.Trim.Altitude)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MODE\tEIGENVALUE\tWN\tZETA\tPERIOD\tT1/2\tT2")
	for _, m := range modes {
		fmt.Fprintf(w, "%s\t%.4f%+.4fi\t%.3f\t%.3f\t%s\t%s\t%s\n",
			m.Name, real(m.Eigenvalue), imag(m.Eigenvalue), m.Frequency, m.Damping,
			seconds(m.Period), seconds(m.TimeToHalf), seconds(m.TimeToDouble))
	}
	return w.Flush()
}

func seconds(v float64) string {
	if v == 0 {
		return "-"
	}
	return fmt.Sprintf("%.2fs", v)
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	out, err := st.LoadOutput(runID)
	if err != nil {
		return err
	}
	if len(out.Rows) < 2 {
		return fmt.Errorf("no data")
	}

	fmt.Printf("frequency analysis: %s\n", meta.ID)
	fmt.Printf("aircraft: %s\n\n", meta.Aircraft)

	for _, col := range strings.Split(plotColumns, ",") {
		col = strings.ToUpper(strings.TrimSpace(col))
		data, ok := out.Column(col)
		if !ok {
			fmt.Printf("unknown column %s\n\n", col)
			continue
		}
		ps := analysis.PowerSpectrum(data)
		if len(ps) > 4 {
			ps = ps[:len(ps)/4]
		}
		if len(ps) > 1 {
			fmt.Println(asciigraph.Plot(ps[1:],
				asciigraph.Height(10),
				asciigraph.Width(80),
				asciigraph.Caption("power spectrum ("+strings.ToLower(col)+")"),
			))
		}
		if period := analysis.DominantPeriod(data, meta.Dt); period > 0 {
			fmt.Printf("dominant period: %.2f s (%.4f hz)\n\n", period, 1/period)
		} else {
			fmt.Print("no dominant oscillation\n\n")
		}
	}
	return nil
}

func exportSVG(cmd *cobra.Command, args []string) error {
	out, err := storage.New(dataDir).LoadOutput(args[0])
	if err != nil {
		return err
	}
	x, y := strings.ToUpper(svgX), strings.ToUpper(svgY)
	xs, ok := out.Column(x)
	if !ok {
		return fmt.Errorf("unknown column %s", x)
	}
	ys, ok := out.Column(y)
	if !ok {
		return fmt.Errorf("unknown column %s", y)
	}

	opts := export.DefaultPlotOptions()
	opts.XLabel, opts.YLabel = x, y
	opts.EqualAspect = x == "EAST" && y == "NORTH"
	return export.WritePlot(os.Stdout, xs, ys, opts)
}
