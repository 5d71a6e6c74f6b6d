package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"github.com/san-kum/springsim/internal/analysis"
	"github.com/san-kum/springsim/internal/automation"
	"github.com/san-kum/springsim/internal/config"
	"github.com/san-kum/springsim/internal/dynamo"
	"github.com/san-kum/springsim/internal/experiment"
	"github.com/san-kum/springsim/internal/export"
	"github.com/san-kum/springsim/internal/optim"
	"github.com/san-kum/springsim/internal/sim"
	"github.com/san-kum/springsim/internal/storage"
	"github.com/san-kum/springsim/internal/viz"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	dataDir    string
	verbose    bool
	configFile string
	dt         float64
	duration   float64
	parallel   bool
	strict     bool
	save       bool
	// plot / analyze
	bone int
	axis int
	// export-svg
	plane  string
	output string
	// sweep
	param      string
	sweepFrom  float64
	sweepTo    float64
	sweepSteps int
	// bench
	copies int
	// tune
	metricName string
	grid       []string

	log = logr.Discard()
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "springsim",
		Short: "spring bone simulation lab",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log = newLogger(verbose)
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".springsim", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")

	runCmd := &cobra.Command{
		Use:   "run [preset]",
		Short: "run a rig and store its trajectories",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addRigFlags(runCmd)
	runCmd.Flags().BoolVar(&save, "save", true, "store the run")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot tail trajectories",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&axis, "axis", 0, "tail component to plot (0=x, 1=y, 2=z)")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "swing spectrum, decay and phase portrait of one bone",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().IntVar(&bone, "bone", 0, "bone index")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export every frame of a run to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "draw tail trajectories as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVar(&plane, "plane", "side", "projection plane (side, front, top)")
	exportSVGCmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available rig presets",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("available presets:")
			for _, p := range config.ListPresets() {
				fmt.Printf("  %s\n", p)
			}
		},
	}

	dumpCmd := &cobra.Command{
		Use:   "dump-preset [name]",
		Short: "print a preset as a rig file",
		Args:  cobra.ExactArgs(1),
		RunE:  dumpPreset,
	}

	liveCmd := &cobra.Command{
		Use:   "live [preset]",
		Short: "interactive real-time view",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addRigFlags(liveCmd)

	benchCmd := &cobra.Command{
		Use:   "bench [preset]",
		Short: "benchmark a rig across timesteps",
		Args:  cobra.MaximumNArgs(1),
		RunE:  benchRig,
	}
	benchCmd.Flags().StringVar(&configFile, "config", "", "rig file")
	benchCmd.Flags().IntVar(&copies, "copies", 4, "independent rigs run concurrently")

	sweepCmd := &cobra.Command{
		Use:   "sweep [preset]",
		Short: "late swing angle as a chain parameter varies",
		Args:  cobra.MaximumNArgs(1),
		RunE:  sweepRig,
	}
	sweepCmd.Flags().StringVar(&configFile, "config", "", "rig file")
	sweepCmd.Flags().StringVar(&param, "param", "stiffness", "chain parameter to vary (stiffness, drag, gravity_power, hit_radius)")
	sweepCmd.Flags().Float64Var(&sweepFrom, "from", 0.1, "first value")
	sweepCmd.Flags().Float64Var(&sweepTo, "to", 4, "last value")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 40, "number of values")
	sweepCmd.Flags().IntVar(&bone, "bone", 0, "bone index")

	tuneCmd := &cobra.Command{
		Use:   "tune [preset]",
		Short: "grid search chain parameters minimizing a metric",
		Args:  cobra.MaximumNArgs(1),
		RunE:  tuneRig,
	}
	tuneCmd.Flags().StringVar(&configFile, "config", "", "rig file")
	tuneCmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration")
	tuneCmd.Flags().StringVar(&metricName, "metric", "swing_angle", "metric to minimize")
	tuneCmd.Flags().StringArrayVar(&grid, "grid", []string{"stiffness=0.5:4:8"}, "param=from:to:steps, repeatable")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a scripted sequence of rigs",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}
	scenarioCmd.Flags().BoolVar(&save, "save", true, "store every step")

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, analyzeCmd, exportJSONCmd, exportSVGCmd, presetsCmd, dumpCmd, liveCmd, benchCmd, sweepCmd, tuneCmd, scenarioCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(verbose bool) logr.Logger {
	opts := funcr.Options{}
	if verbose {
		opts.Verbosity = 1
	}
	return funcr.New(func(prefix, args string) {
		if prefix != "" {
			fmt.Fprintf(os.Stderr, "%s: %s\n", prefix, args)
			return
		}
		fmt.Fprintln(os.Stderr, args)
	}, opts)
}

func addRigFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "rig file (overrides the preset)")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration")
	cmd.Flags().BoolVar(&parallel, "parallel", false, "update independent chains concurrently")
	cmd.Flags().BoolVar(&strict, "strict", false, "fail on invalid bones instead of skipping them")
}

// loadRig resolves the rig from --config or a preset name (default
// pendulum), then applies only the flags the user set.
func loadRig(cmd *cobra.Command, args []string) (*config.Config, error) {
	var cfg *config.Config
	if configFile != "" {
		c, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = c
	} else {
		name := "pendulum"
		if len(args) > 0 {
			name = args[0]
		}
		cfg = config.GetPreset(name)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", name, config.ListPresets())
		}
	}

	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("time") {
		cfg.Duration = duration
	}
	if flags.Changed("parallel") {
		cfg.Parallel = parallel
	}
	if flags.Changed("strict") {
		cfg.Strict = strict
	}
	return cfg, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadRig(cmd, args)
	if err != nil {
		return err
	}

	exp := experiment.New(cfg, log)
	if err := exp.Setup(experiment.NewRegistry().DefaultMetrics()); err != nil {
		return err
	}

	fmt.Printf("running %s (%d bones)...\n", cfg.Name, exp.Rig().BoneCount())
	start := time.Now()

	result, err := exp.Run(context.Background())
	if err != nil {
		return err
	}

	elapsed := time.Since(start)

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("steps: %d\n", result.StepsTaken)

	if save {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(cfg, result)
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
	}

	fmt.Println("\nmetrics:")
	return printMetrics(result.Metrics)
}

func printMetrics(values map[string]float64) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, name := range experiment.NewRegistry().ListMetrics() {
		if v, ok := values[name]; ok {
			fmt.Fprintf(w, "  %s\t%.6f\n", name, v)
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
	fmt.Fprintln(w, "ID\tRIG\tTIME\tDURATION\tDT\tBONES\tLENGTH ERR")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%.4fs\t%d\t%.2e\n",
			run.ID,
			run.Rig,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			len(run.Bones),
			run.Metrics["length_error"],
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	if axis < 0 || axis > 2 {
		return fmt.Errorf("axis must be 0, 1 or 2")
	}

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	tails, _, err := st.LoadTails(runID)
	if err != nil {
		return err
	}

	if len(tails) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("rig: %s\n", meta.Rig)
	fmt.Printf("samples: %d\n\n", len(tails))

	// One chart per chain, bones overlaid.
	start := 0
	for start < len(meta.Bones) {
		end := start
		for end < len(meta.Bones) && meta.Bones[end].Chain == meta.Bones[start].Chain {
			end++
		}

		series := make([][]float64, 0, end-start)
		for b := start; b < end; b++ {
			s := make([]float64, 0, len(tails))
			for _, frame := range tails {
				if b < len(frame) {
					s = append(s, frame[b][axis])
				}
			}
			series = append(series, s)
		}

		caption := fmt.Sprintf("%s tail %c", meta.Bones[start].Chain, "xyz"[axis])
		fmt.Println(viz.PlotMany(series, caption, 80, 10))
		fmt.Println()
		start = end
	}

	return nil
}

// replay rebuilds a stored run from its rig file. Runs are deterministic, so
// the replay reproduces the stored trajectories.
func replay(st *storage.Store, runID string) (*storage.RunMetadata, *dynamo.Result, error) {
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	cfg, err := st.LoadConfig(runID)
	if err != nil {
		return nil, nil, err
	}

	exp := experiment.New(cfg, log)
	if err := exp.Setup(nil); err != nil {
		return nil, nil, err
	}
	result, err := exp.Run(context.Background())
	if err != nil {
		return nil, nil, err
	}
	result.Metrics = meta.Metrics
	return meta, result, nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	meta, result, err := replay(storage.New(dataDir), runID)
	if err != nil {
		return err
	}

	if bone < 0 || bone >= len(meta.Bones) {
		return fmt.Errorf("bone %d out of range (run has %d)", bone, len(meta.Bones))
	}

	series := analysis.SwingSeries(result.Frames, bone)
	if len(series) < 4 {
		return fmt.Errorf("run too short to analyze")
	}

	fmt.Printf("swing analysis: %s\n", meta.ID)
	fmt.Printf("bone: %s (%s)\n\n", meta.Bones[bone].Name, meta.Bones[bone].Chain)

	fmt.Println(viz.PlotSeries(series, "swing angle (deg)", 80, 10))
	fmt.Println()

	spec := analysis.SwingSpectrum(series, meta.Dt)
	plotData := spec.Power
	if len(plotData) > 4 {
		plotData = plotData[:len(plotData)/4]
	}
	fmt.Println(viz.PlotSeries(plotData, "power spectrum", 80, 10))
	fmt.Println()

	freq := spec.Dominant()
	fmt.Printf("dominant frequency: %.3f hz\n", freq)
	if freq > 0 {
		fmt.Printf("period: %.3f s\n", 1.0/freq)
	}
	fmt.Printf("decay rate: %.4f 1/s\n\n", analysis.DecayRate(series, meta.Dt))

	portrait := analysis.GeneratePhasePortrait(series, meta.Dt)
	fmt.Println("phase portrait (angle vs rate):")
	fmt.Println(analysis.PhasePortraitToASCII(portrait, 60, 20))

	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	meta, result, err := replay(storage.New(dataDir), args[0])
	if err != nil {
		return err
	}

	if output == "" {
		return storage.ExportJSONWriter(os.Stdout, *meta, result)
	}
	if err := storage.ExportJSON(output, *meta, result); err != nil {
		return err
	}
	fmt.Printf("exported %d frames to %s\n", len(result.Frames), output)
	return nil
}

func exportSVG(cmd *cobra.Command, args []string) error {
	runID := args[0]

	p, err := export.ParsePlane(plane)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	tails, _, err := st.LoadTails(runID)
	if err != nil {
		return err
	}

	paths := make([][]struct{ X, Y float64 }, len(meta.Bones))
	for b := range meta.Bones {
		paths[b] = export.ProjectTails(tails, b, p)
	}
	svg := export.TrajectoriesToSVG(paths, 800, 600, export.Palette)

	if output == "" {
		fmt.Print(svg)
		return nil
	}
	return os.WriteFile(output, []byte(svg), 0644)
}

func dumpPreset(cmd *cobra.Command, args []string) error {
	cfg := config.GetPreset(args[0])
	if cfg == nil {
		return fmt.Errorf("unknown preset: %s (available: %v)", args[0], config.ListPresets())
	}

	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return err
	}
	return enc.Close()
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadRig(cmd, args)
	if err != nil {
		return err
	}

	exp := experiment.New(cfg, log)
	if err := exp.Setup(nil); err != nil {
		return err
	}

	m := viz.NewLiveModel(exp.GetSimulator(), cfg.Name, cfg.Dt)

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

func benchRig(cmd *cobra.Command, args []string) error {
	base, err := loadRig(cmd, args)
	if err != nil {
		return err
	}

	durations := []float64{1.0, 5.0, 10.0}
	dts := []float64{1.0 / 30, 1.0 / 60, 1.0 / 240}

	fmt.Printf("benchmarking %s\n\n", base.Name)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DURATION\tDT\tSTEPS\tTIME\tSTEPS/SEC")

	for _, dur := range durations {
		for _, step := range dts {
			cfg := *base
			cfg.Dt = step
			cfg.Duration = dur

			exp := experiment.New(&cfg, log)
			if err := exp.Setup(nil); err != nil {
				return err
			}

			start := time.Now()
			result, err := exp.Run(context.Background())
			if err != nil {
				return err
			}
			elapsed := time.Since(start)

			stepsPerSec := float64(result.StepsTaken) / elapsed.Seconds()
			fmt.Fprintf(w, "%.1fs\t%.4fs\t%d\t%v\t%.0f\n",
				dur, step, result.StepsTaken, elapsed, stepsPerSec)
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if copies < 1 {
		return nil
	}

	sims := make([]*sim.Simulator, copies)
	for i := range sims {
		exp := experiment.New(base, log)
		if err := exp.Setup(nil); err != nil {
			return err
		}
		sims[i] = exp.GetSimulator()
	}

	simCfg := dynamo.DefaultConfig()
	simCfg.Dt = base.Dt
	simCfg.Duration = base.Duration
	simCfg.Parallel = base.Parallel

	start := time.Now()
	results, err := sim.NewEnsemble(sims...).Run(context.Background(), simCfg)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	total := 0
	for _, r := range results {
		total += r.StepsTaken
	}
	fmt.Printf("\nensemble of %d: %d steps in %v (%.0f steps/sec)\n",
		copies, total, elapsed, float64(total)/elapsed.Seconds())
	return nil
}

func sweepRig(cmd *cobra.Command, args []string) error {
	cfg, err := loadRig(cmd, args)
	if err != nil {
		return err
	}
	if err := cfg.SetChainParam(param, sweepFrom); err != nil {
		return err
	}

	run := func(p float64) ([]float64, error) {
		cfg, err := loadRig(cmd, args)
		if err != nil {
			return nil, err
		}
		if err := cfg.SetChainParam(param, p); err != nil {
			return nil, err
		}

		exp := experiment.New(cfg, log)
		if err := exp.Setup(nil); err != nil {
			return nil, err
		}
		result, err := exp.Run(context.Background())
		if err != nil {
			return nil, err
		}
		log.V(1).Info("sweep point", "param", param, "value", p, "steps", result.StepsTaken)
		return analysis.SwingSeries(result.Frames, bone), nil
	}

	params := analysis.Linspace(sweepFrom, sweepTo, sweepSteps)
	points, err := analysis.Sweep(params, 0, func(p float64) ([]float64, error) {
		series, err := run(p)
		if err != nil {
			return nil, err
		}
		// Only the second half of the run is kept.
		return series[len(series)/2:], nil
	})
	if err != nil {
		return err
	}

	fmt.Printf("swing angle of bone %d vs %s\n\n", bone, param)
	fmt.Println(analysis.SweepToASCII(points, 70, 20))
	return nil
}

// parseGrid reads "name=from:to:steps".
func parseGrid(spec string) (string, []float64, error) {
	name, rng, ok := strings.Cut(spec, "=")
	if !ok {
		return "", nil, fmt.Errorf("grid %q: want param=from:to:steps", spec)
	}
	parts := strings.Split(rng, ":")
	if len(parts) != 3 {
		return "", nil, fmt.Errorf("grid %q: want param=from:to:steps", spec)
	}
	from, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return "", nil, fmt.Errorf("grid %q: %w", spec, err)
	}
	to, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return "", nil, fmt.Errorf("grid %q: %w", spec, err)
	}
	steps, err := strconv.Atoi(parts[2])
	if err != nil || steps < 1 {
		return "", nil, fmt.Errorf("grid %q: steps must be a positive integer", spec)
	}
	return name, analysis.Linspace(from, to, steps), nil
}

func tuneRig(cmd *cobra.Command, args []string) error {
	rig, err := loadRig(cmd, args)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(rig)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(grid))
	ranges := make([][]float64, 0, len(grid))
	for _, spec := range grid {
		name, values, err := parseGrid(spec)
		if err != nil {
			return err
		}
		names = append(names, name)
		ranges = append(ranges, values)
	}

	// Every grid point starts from its own copy of the rig.
	base := func() *config.Config {
		cfg := config.DefaultConfig()
		_ = yaml.Unmarshal(data, cfg)
		return cfg
	}

	g := optim.NewGridSearch(names, ranges)
	g.Logger = log

	start := time.Now()
	best, value, err := g.Search(context.Background(), base, metricName)
	if err != nil {
		return err
	}

	fmt.Printf("searched %d parameters in %v\n\n", len(names), time.Since(start))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, name := range names {
		fmt.Fprintf(w, "  %s\t%.4f\n", name, best[name])
	}
	fmt.Fprintf(w, "  %s\t%.6f\n", metricName, value)
	return w.Flush()
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	var st *storage.Store
	if save {
		st = storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
	}

	fmt.Printf("scenario: %s\n", sc.Name)
	if sc.Description != "" {
		fmt.Printf("%s\n", sc.Description)
	}

	results, err := automation.NewRunner(st, log).Run(context.Background(), sc)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\nSTEP\tRIG\tSTEPS\tLENGTH ERR\tSWING\tRUN ID")
	for i, r := range results {
		fmt.Fprintf(w, "%d\t%s\t%d\t%.2e\t%.2f\t%s\n",
			i+1, r.Rig, r.Result.StepsTaken,
			r.Result.Metrics["length_error"], r.Result.Metrics["swing_angle"], r.RunID)
	}
	if ferr := w.Flush(); ferr != nil && err == nil {
		err = ferr
	}
	return err
}
