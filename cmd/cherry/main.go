package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/cherrycore/internal/analysis"
	"github.com/san-kum/cherrycore/internal/automation"
	"github.com/san-kum/cherrycore/internal/config"
	"github.com/san-kum/cherrycore/internal/experiment"
	"github.com/san-kum/cherrycore/internal/export"
	"github.com/san-kum/cherrycore/internal/optim"
	"github.com/san-kum/cherrycore/internal/storage"
	"github.com/san-kum/cherrycore/internal/viz"
)

var (
	dataDir  string
	logFile  string
	provider string

	configFile string
	replicates int
	noSave     bool

	frameRate int
	gifPath   string

	column   string
	withStat bool
	outFile  string

	sweepParams []string
	metricName  string
	maximize    bool

	benchSizes  []int
	benchFrames int
)

// configFlags maps command line flags onto config keys.
var configFlags = map[string]string{
	"particles":   "particles",
	"radius":      "radius",
	"dt":          "dt",
	"frames":      "frames",
	"margin":      "margin",
	"repulsion":   "repulsion",
	"damping":     "damping",
	"min-speed":   "min_speed",
	"max-speed":   "max_speed",
	"steering":    "strength",
	"steer-every": "every_n_frames",
	"segment":     "segment_length",
}

func main() {
	rootCmd := &cobra.Command{
		Use:          "cherry",
		Short:        "periodic soft-sphere particles with long-axis steering",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".cherry", "data directory")
	rootCmd.PersistentFlags().StringVar(&logFile, "log", "", "append log output to this file instead of stderr")

	runCmd := &cobra.Command{
		Use:   "run [preset]",
		Short: "run a simulation and record it",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addConfigFlags(runCmd)
	runCmd.Flags().IntVar(&replicates, "replicates", 1, "run this many seeds in parallel (not recorded)")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not record the run")

	liveCmd := &cobra.Command{
		Use:   "live [preset]",
		Short: "run simulation with live visualization",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addConfigFlags(liveCmd)
	liveCmd.Flags().IntVar(&frameRate, "fps", 60, "frame rate")
	liveCmd.Flags().StringVar(&gifPath, "gif", "cherry.gif", "GIF recording path")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "measure frame rate with and without steering",
		Args:  cobra.NoArgs,
		RunE:  benchProviders,
	}
	benchCmd.Flags().IntSliceVar(&benchSizes, "sizes", []int{64, 256, 1024}, "particle counts")
	benchCmd.Flags().IntVar(&benchFrames, "frames", 20, "frames per measurement")

	sweepCmd := &cobra.Command{
		Use:   "sweep [preset]",
		Short: "grid search config keys for the best metric",
		Args:  cobra.MaximumNArgs(1),
		RunE:  sweepConfig,
	}
	addConfigFlags(sweepCmd)
	sweepCmd.Flags().StringArrayVar(&sweepParams, "param", nil, "key=lo:hi:n, repeatable")
	sweepCmd.Flags().StringVar(&metricName, "metric", "energy", "metric to optimize")
	sweepCmd.Flags().BoolVar(&maximize, "maximize", false, "maximize instead of minimize")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a YAML scenario",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a recorded statistic",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&column, "column", "kinetic_energy", "stats column")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "summary, settling and frequency analysis of a statistic",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().StringVar(&column, "column", "kinetic_energy", "stats column")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().BoolVar(&withStat, "stats", false, "include per-frame statistics")
	exportCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	svgCmd := &cobra.Command{
		Use:   "svg [run_id]",
		Short: "export a recorded statistic as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	svgCmd.Flags().StringVar(&column, "column", "kinetic_energy", "stats column")
	svgCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	snapshotCmd := &cobra.Command{
		Use:   "snapshot [preset]",
		Short: "run a simulation and draw its final state as SVG",
		Args:  cobra.MaximumNArgs(1),
		RunE:  snapshot,
	}
	addConfigFlags(snapshotCmd)
	snapshotCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tPARTICLES\tRADIUS\tREPULSION\tDAMPING\tSTEERING\tEVERY")
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%d\t%.3f\t%.2f\t%.2f\t%.2f\t%d\n",
					name, p.Particles, p.Radius, p.Physics.Repulsion, p.Physics.Damping,
					p.Steering.Strength, p.Steering.EveryNFrames)
			}
			return w.Flush()
		},
	}

	rootCmd.AddCommand(runCmd, liveCmd, benchCmd, sweepCmd, scenarioCmd, listCmd, plotCmd, analyzeCmd, exportCmd, svgCmd, snapshotCmd, presetsCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func addConfigFlags(cmd *cobra.Command) {
	def := config.DefaultConfig()
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "config file (yaml or toml)")
	f.StringVar(&provider, "provider", experiment.ProviderDelaunay, "tetrahedralization provider (delaunay, none)")
	f.Int64("seed", def.Seed, "random seed")
	f.Int("particles", def.Particles, "particle count")
	f.Float64("radius", def.Radius, "particle radius")
	f.Float64("dt", def.Dt, "frame length")
	f.Int("frames", def.Frames, "frames to run")
	f.Float64("margin", def.Margin, "periodic image margin, 0 for automatic")
	f.Float64("repulsion", def.Physics.Repulsion, "repulsion strength")
	f.Float64("damping", def.Physics.Damping, "velocity retained per reference frame")
	f.Float64("min-speed", def.Physics.MinSpeed, "minimum speed, 0 disables")
	f.Float64("max-speed", def.Physics.MaxSpeed, "maximum speed, 0 disables")
	f.Float64("steering", def.Steering.Strength, "steering strength")
	f.Int("steer-every", def.Steering.EveryNFrames, "steer every n frames")
	f.Float64("segment", def.Steering.SegmentLength, "axis segment length")
}

// resolveConfig starts from the --config file, the named preset or the
// defaults, in that order, and applies the flags set on the command line.
func resolveConfig(cmd *cobra.Command, args []string) (*config.Config, string, error) {
	name := "custom"
	cfg := config.DefaultConfig()
	switch {
	case configFile != "":
		c, err := config.Load(configFile)
		if err != nil {
			return nil, "", err
		}
		cfg = c
	case len(args) > 0:
		name = args[0]
		if cfg = config.GetPreset(name); cfg == nil {
			return nil, "", fmt.Errorf("unknown preset: %s (available: %v)", name, config.ListPresets())
		}
	}

	flags := cmd.Flags()
	if flags.Changed("seed") {
		seed, err := flags.GetInt64("seed")
		if err != nil {
			return nil, "", err
		}
		cfg.Seed = seed
	}
	keys := make([]string, 0, len(configFlags))
	for flag := range configFlags {
		keys = append(keys, flag)
	}
	sort.Strings(keys)
	for _, flag := range keys {
		if !flags.Changed(flag) {
			continue
		}
		v, err := strconv.ParseFloat(flags.Lookup(flag).Value.String(), 64)
		if err != nil {
			return nil, "", fmt.Errorf("--%s: %w", flag, err)
		}
		if err := cfg.Set(configFlags[flag], v); err != nil {
			return nil, "", err
		}
	}
	return cfg, name, cfg.Validate()
}

// newLogger writes to --log when given, else to fallback.
func newLogger(fallback io.Writer) (*log.Logger, func(), error) {
	if logFile == "" {
		return log.New(fallback, "cherry: ", log.LstdFlags), func() {}, nil
	}
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, err
	}
	return log.New(f, "cherry: ", log.LstdFlags), func() { f.Close() }, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, name, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	logger, closeLog, err := newLogger(os.Stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	exp, err := experiment.New(cfg, experiment.WithProvider(provider), experiment.WithLogger(logger))
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if replicates > 1 {
		logger.Printf("running %s: %d replicates of %d particles for %d frames", name, replicates, cfg.Particles, cfg.Frames)
		start := time.Now()
		sums, err := exp.Replicate(cmd.Context(), replicates)
		if err != nil {
			return err
		}
		logger.Printf("done in %v", time.Since(start).Round(time.Millisecond))
		printMetrics(out, experiment.MeanMetrics(sums))
		return nil
	}

	var rec *storage.Recorder
	if !noSave {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		rec, err = st.Create(storage.RunMetadata{
			Preset:    name,
			Seed:      cfg.Seed,
			Particles: cfg.Particles,
			Radius:    cfg.Radius,
			Dt:        cfg.Dt,
			Frames:    cfg.Frames,
			Params:    cfg.Params(),
		})
		if err != nil {
			return err
		}
		exp.Simulation().AddObserver(rec)
	}

	logger.Printf("running %s: %d particles for %d frames", name, cfg.Particles, cfg.Frames)
	start := time.Now()
	sum, runErr := exp.Run(cmd.Context())
	elapsed := time.Since(start)

	if rec != nil {
		if err := rec.Close(sum); err != nil {
			return err
		}
		fmt.Fprintf(out, "run %s saved to %s\n", rec.ID(), dataDir)
	}
	if runErr != nil {
		return runErr
	}

	fmt.Fprintf(out, "frames: %d  time: %.3fs  wall: %v  steering: %d ran, %d failed\n",
		sum.Frames, sum.Time, elapsed.Round(time.Millisecond), sum.SteeringRuns, sum.SteeringFailures)
	printMetrics(out, sum.Metrics)
	return nil
}

func printMetrics(out io.Writer, m map[string]float64) {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, k := range names {
		fmt.Fprintf(w, "%s\t%.6g\n", k, m[k])
	}
	w.Flush()
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, _, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	logger, closeLog, err := newLogger(io.Discard)
	if err != nil {
		return err
	}
	defer closeLog()

	exp, err := experiment.New(cfg, experiment.WithProvider(provider), experiment.WithLogger(logger))
	if err != nil {
		return err
	}
	m := viz.NewModel(exp.Simulation(), viz.Config{
		Particles: cfg.Particles,
		Radius:    float32(cfg.Radius),
		Seed:      cfg.Seed,
		Dt:        float32(cfg.Dt),
		FPS:       frameRate,
		GIFPath:   gifPath,
	})
	return viz.Run(m)
}

func benchProviders(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PARTICLES\tPROVIDER\tFRAMES\tTIME\tFRAMES/SEC\tTETS/FRAME")

	for _, n := range benchSizes {
		for _, prov := range []string{experiment.ProviderNone, experiment.ProviderDelaunay} {
			cfg := config.DefaultConfig()
			cfg.Particles = n
			cfg.Frames = benchFrames
			cfg.Steering.EveryNFrames = 1

			exp, err := experiment.New(cfg, experiment.WithProvider(prov))
			if err != nil {
				return err
			}
			start := time.Now()
			sum, err := exp.Run(cmd.Context())
			if err != nil {
				return err
			}
			elapsed := time.Since(start)

			fmt.Fprintf(w, "%d\t%s\t%d\t%v\t%.1f\t%d\n",
				n, prov, sum.Frames, elapsed.Round(time.Microsecond),
				float64(sum.Frames)/elapsed.Seconds(), sum.Last.Tetrahedra)
		}
	}

	return w.Flush()
}

// parseRange reads key=lo:hi:n.
func parseRange(s string) (string, []float64, error) {
	key, spec, ok := strings.Cut(s, "=")
	if !ok {
		return "", nil, fmt.Errorf("bad --param %q, want key=lo:hi:n", s)
	}
	parts := strings.Split(spec, ":")
	if len(parts) != 3 {
		return "", nil, fmt.Errorf("bad --param %q, want key=lo:hi:n", s)
	}
	lo, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return "", nil, err
	}
	hi, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return "", nil, err
	}
	n, err := strconv.Atoi(parts[2])
	if err != nil {
		return "", nil, err
	}
	return key, optim.Linspace(lo, hi, n), nil
}

func sweepConfig(cmd *cobra.Command, args []string) error {
	if len(sweepParams) == 0 {
		return fmt.Errorf("at least one --param is required")
	}
	cfg, _, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	logger, closeLog, err := newLogger(os.Stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	names := make([]string, 0, len(sweepParams))
	ranges := make([][]float64, 0, len(sweepParams))
	for _, s := range sweepParams {
		key, vals, err := parseRange(s)
		if err != nil {
			return err
		}
		names = append(names, key)
		ranges = append(ranges, vals)
	}

	g := optim.NewGridSearch(names, ranges)
	if maximize {
		g.Maximize()
	}
	points, best, err := g.Search(cmd.Context(), cfg, metricName,
		experiment.WithProvider(provider), experiment.WithLogger(logger))
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.ToUpper(strings.Join(names, "\t"))+"\t"+strings.ToUpper(metricName))
	for _, p := range points {
		for _, k := range names {
			fmt.Fprintf(w, "%.4g\t", p.Params[k])
		}
		fmt.Fprintf(w, "%.6g\n", p.Value)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\nbest %s = %.6g at %v\n", metricName, best.Value, best.Params)
	return nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	logger, closeLog, err := newLogger(os.Stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	r := &automation.Runner{Store: st, Logger: logger}
	results, err := r.RunScenario(cmd.Context(), sc)
	for _, res := range results {
		fmt.Fprintf(cmd.OutOrStdout(), "== %s", res.Name)
		if res.RunID != "" {
			fmt.Fprintf(cmd.OutOrStdout(), " (run %s)", res.RunID)
		}
		fmt.Fprintln(cmd.OutOrStdout())
		printMetrics(cmd.OutOrStdout(), res.Mean)
	}
	return err
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no runs found")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRESET\tTIME\tPARTICLES\tFRAMES\tDT\tSTEERING")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%.4fs\t%d/%d\n",
			run.ID,
			run.Preset,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Particles,
			run.Frames,
			run.Dt,
			run.SteeringRuns,
			run.SteeringRuns+run.SteeringFailures,
		)
	}

	return w.Flush()
}

func loadColumn(runID string) (*storage.RunMetadata, []float64, error) {
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	stats, err := st.LoadStats(runID)
	if err != nil {
		return nil, nil, err
	}
	if len(stats) == 0 {
		return nil, nil, fmt.Errorf("no data in run %s", runID)
	}
	data, err := storage.Column(stats, column)
	if err != nil {
		return nil, nil, err
	}
	return meta, data, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, data, err := loadColumn(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run: %s\n", meta.ID)
	fmt.Fprintf(out, "preset: %s\n", meta.Preset)
	fmt.Fprintf(out, "frames: %d\n\n", len(data))

	graph := asciigraph.Plot(data,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption(column+" vs frame"),
	)
	fmt.Fprintln(out, graph)
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	meta, data, err := loadColumn(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	s := analysis.Describe(data)
	fmt.Fprintf(out, "analysis of %s: %s\n\n", column, meta.ID)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "samples\t%d\n", s.N)
	fmt.Fprintf(w, "mean\t%.6g\n", s.Mean)
	fmt.Fprintf(w, "stddev\t%.6g\n", s.StdDev)
	fmt.Fprintf(w, "min\t%.6g\n", s.Min)
	fmt.Fprintf(w, "max\t%.6g\n", s.Max)
	fmt.Fprintf(w, "final\t%.6g\n", s.Final)
	if idx := analysis.SettlingIndex(data, 0.05); idx >= 0 {
		fmt.Fprintf(w, "settled\tframe %d (%.3fs)\n", idx, float64(idx)*meta.Dt)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	ps := analysis.PowerSpectrum(data)
	if len(ps) > 2 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, asciigraph.Plot(ps[1:],
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption("power spectrum ("+column+")"),
		))
	}
	freq, _ := analysis.DominantFrequency(data, meta.Dt)
	fmt.Fprintf(out, "\ndominant frequency: %.3f hz\n", freq)
	if freq > 0 {
		fmt.Fprintf(out, "period: %.3f s\n", 1.0/freq)
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	if outFile != "" {
		return st.ExportJSONFile(outFile, args[0], withStat)
	}
	return st.ExportJSON(cmd.OutOrStdout(), args[0], withStat)
}

func writeOutput(cmd *cobra.Command, content string) error {
	if outFile == "" {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), content)
		return err
	}
	return os.WriteFile(outFile, []byte(content), 0644)
}

func exportSVG(cmd *cobra.Command, args []string) error {
	_, data, err := loadColumn(args[0])
	if err != nil {
		return err
	}
	return writeOutput(cmd, export.SeriesToSVG(data, 800, 300, "#00ff88"))
}

func snapshot(cmd *cobra.Command, args []string) error {
	cfg, _, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	logger, closeLog, err := newLogger(os.Stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	exp, err := experiment.New(cfg, experiment.WithProvider(provider), experiment.WithLogger(logger))
	if err != nil {
		return err
	}
	if _, err := exp.Run(cmd.Context()); err != nil {
		return err
	}
	s := exp.Simulation()
	return writeOutput(cmd, export.SnapshotSVG(s.Positions(), s.Radii(), s.AxisSegments(), 600))
}
