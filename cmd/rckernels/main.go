package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/GJBoth/Reservoir-computing-kernels/internal/analysis"
	"github.com/GJBoth/Reservoir-computing-kernels/internal/config"
	"github.com/GJBoth/Reservoir-computing-kernels/internal/dataset"
	"github.com/GJBoth/Reservoir-computing-kernels/internal/forecast"
	"github.com/GJBoth/Reservoir-computing-kernels/internal/ks"
	"github.com/GJBoth/Reservoir-computing-kernels/internal/reservoir"
	"github.com/GJBoth/Reservoir-computing-kernels/internal/ridge"
	"github.com/GJBoth/Reservoir-computing-kernels/internal/storage"
	"github.com/GJBoth/Reservoir-computing-kernels/internal/sweep"
	"github.com/GJBoth/Reservoir-computing-kernels/internal/tui"
)

var (
	dataDir    string
	configFile string
	preset     string
	source     string
	verbose    bool

	// reservoir / pipeline overrides
	reservoirSize int
	inputScale    float64
	resScale      float64
	biasScale     float64
	leakRate      float64
	activation    string
	structure     string
	seed          int64
	renorm        float64
	alpha         float64
	horizon       int
	recursion     int

	// sweep flags
	sweepParam  string
	sweepMin    float64
	sweepMax    float64
	sweepSteps  int
	sweepValues []float64
	workers     int
	live        bool

	// forecast flags
	oracle    bool
	gridIndex int

	log = logrus.New()
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "rckernels",
		Short: "reservoir computing forecasts for chaotic dynamics",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				log.SetLevel(logrus.DebugLevel)
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".rckernels", "data directory")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "debug logging")

	simulateCmd := &cobra.Command{
		Use:   "simulate",
		Short: "integrate the dynamics and store the trajectory",
		RunE:  runSimulate,
	}
	addConfigFlags(simulateCmd)

	forecastCmd := &cobra.Command{
		Use:   "forecast",
		Short: "train a readout and run a closed-loop forecast",
		RunE:  runForecast,
	}
	addConfigFlags(forecastCmd)
	addPipelineFlags(forecastCmd)
	forecastCmd.Flags().BoolVar(&oracle, "oracle", false, "also score a teacher-forced baseline")
	forecastCmd.Flags().IntVar(&gridIndex, "index", 0, "grid index to plot")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "grid search over one hyperparameter",
		RunE:  runSweep,
	}
	addConfigFlags(sweepCmd)
	addPipelineFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepParam, "param", "input_scale", "hyperparameter to sweep")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", config.DefaultSweepMin, "grid minimum")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", config.DefaultSweepMax, "grid maximum")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", config.DefaultSweepLen, "grid points")
	sweepCmd.Flags().Float64SliceVar(&sweepValues, "values", nil, "explicit grid values (overrides min/max/steps)")
	sweepCmd.Flags().IntVar(&workers, "workers", 0, "parallel workers (0 = all cpus)")
	sweepCmd.Flags().BoolVar(&live, "live", false, "live terminal view")

	analyzeCmd := &cobra.Command{
		Use:   "analyze",
		Short: "spectral and chaos diagnostics for the configured dynamics",
		RunE:  runAnalyze,
	}
	addConfigFlags(analyzeCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot stored sweep results",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [source]",
		Short: "list available presets for a data source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			names := config.ListPresets(args[0])
			if len(names) == 0 {
				return fmt.Errorf("no presets for source: %s", args[0])
			}
			fmt.Printf("presets for %s:\n", args[0])
			for _, name := range names {
				fmt.Printf("  %s\n", name)
			}
			return nil
		},
	}

	paramsCmd := &cobra.Command{
		Use:   "params",
		Short: "list sweepable hyperparameters",
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range sweep.ParamNames() {
				fmt.Println(name)
			}
		},
	}

	rootCmd.AddCommand(simulateCmd, forecastCmd, sweepCmd, analyzeCmd, listCmd, plotCmd, presetsCmd, paramsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addConfigFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().StringVar(&source, "source", "ks", "data source (ks, sine)")
}

func addPipelineFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&reservoirSize, "size", 1000, "reservoir size")
	cmd.Flags().Float64Var(&inputScale, "input-scale", 0.4, "input weight scale")
	cmd.Flags().Float64Var(&resScale, "res-scale", 0.9, "recurrent weight scale")
	cmd.Flags().Float64Var(&biasScale, "bias-scale", 0.1, "bias scale")
	cmd.Flags().Float64Var(&leakRate, "leak", 1.0, "leak rate")
	cmd.Flags().StringVar(&activation, "activation", "erf", "activation function")
	cmd.Flags().StringVar(&structure, "structure", "dense", "projection structure (dense, circulant)")
	cmd.Flags().Int64Var(&seed, "seed", 1, "random seed")
	cmd.Flags().Float64Var(&renorm, "renorm", 0.1, "raw input renormalization in feature rows")
	cmd.Flags().Float64Var(&alpha, "alpha", 1e-2, "ridge regularization")
	cmd.Flags().IntVar(&horizon, "horizon", 1, "prediction horizon")
	cmd.Flags().IntVar(&recursion, "recursion", 0, "closed-loop forecast steps (0 = full test window)")
}

// buildConfig resolves preset, config file and CLI flags in that order,
// the later winning for any flag explicitly set.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		p := config.GetPreset(source, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(source))
		}
		cfg = p
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if cmd.Flags().Changed("source") {
		cfg.Source = source
	}
	applyFlag := func(name string, set func()) {
		if cmd.Flags().Changed(name) {
			set()
		}
	}
	applyFlag("size", func() { cfg.Pipeline.Reservoir.Size = reservoirSize })
	applyFlag("input-scale", func() { cfg.Pipeline.Reservoir.InputScale = inputScale })
	applyFlag("res-scale", func() { cfg.Pipeline.Reservoir.ResScale = resScale })
	applyFlag("bias-scale", func() { cfg.Pipeline.Reservoir.BiasScale = biasScale })
	applyFlag("leak", func() { cfg.Pipeline.Reservoir.LeakRate = leakRate })
	applyFlag("activation", func() { cfg.Pipeline.Reservoir.Activation = activation })
	applyFlag("structure", func() { cfg.Pipeline.Reservoir.Structure = structure })
	applyFlag("seed", func() { cfg.Pipeline.Reservoir.Seed = seed })
	applyFlag("renorm", func() { cfg.Pipeline.Renorm = renorm })
	applyFlag("alpha", func() { cfg.Pipeline.Alpha = alpha })
	applyFlag("horizon", func() { cfg.Pipeline.Horizon = horizon })
	applyFlag("recursion", func() { cfg.Pipeline.Recursion = recursion })
	applyFlag("param", func() { cfg.Sweep.Param = sweepParam })
	applyFlag("min", func() { cfg.Sweep.Min = sweepMin })
	applyFlag("max", func() { cfg.Sweep.Max = sweepMax })
	applyFlag("steps", func() { cfg.Sweep.Steps = sweepSteps })
	applyFlag("values", func() { cfg.Sweep.Values = sweepValues })
	applyFlag("workers", func() { cfg.Sweep.Workers = workers })

	return cfg, nil
}

// buildData generates the configured trajectory and splits it into
// train and test windows.
func buildData(cfg *config.Config) (train, test *dataset.Trajectory, err error) {
	var traj *dataset.Trajectory
	switch cfg.Source {
	case "ks":
		log.WithFields(logrus.Fields{
			"L":    cfg.KS.L,
			"N":    cfg.KS.N,
			"dt":   cfg.KS.Dt,
			"tend": cfg.KS.TEnd,
		}).Info("integrating kuramoto-sivashinsky")
		traj, err = ks.Simulate(cfg.KS)
		if err != nil {
			return nil, nil, err
		}
	case "sine":
		traj = dataset.Sine(cfg.Sine.Length, cfg.Sine.Period)
	default:
		return nil, nil, fmt.Errorf("unknown data source: %s", cfg.Source)
	}

	if cfg.Data.Normalize {
		traj = traj.Normalize()
	}

	nTrain := int(cfg.Data.TrainFrac * float64(traj.Len()))
	return traj.Split(nTrain)
}

func runSimulate(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	var traj *dataset.Trajectory
	var dt float64
	start := time.Now()
	switch cfg.Source {
	case "ks":
		traj, err = ks.Simulate(cfg.KS)
		dt = cfg.KS.Dt
	case "sine":
		traj = dataset.Sine(cfg.Sine.Length, cfg.Sine.Period)
		dt = 1
	default:
		return fmt.Errorf("unknown data source: %s", cfg.Source)
	}
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.SaveTrajectory(cfg.Source, traj, dt)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("samples: %d  dim: %d\n\n", traj.Len(), traj.Dim())

	col, err := traj.Column(0)
	if err != nil {
		return err
	}
	if len(col) > 400 {
		col = col[len(col)-400:]
	}
	fmt.Println(asciigraph.Plot(col,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption("u0 vs time"),
	))
	return nil
}

func runForecast(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	train, test, err := buildData(cfg)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{"train": train.Len(), "test": test.Len(), "dim": train.Dim()}).
		Info("data ready")

	p := cfg.Pipeline
	resCfg := p.Reservoir
	resCfg.InputDim = train.Dim()
	res, err := reservoir.New(resCfg)
	if err != nil {
		return err
	}

	start := time.Now()
	states, err := res.Forward(train)
	if err != nil {
		return err
	}

	x, y, err := forecast.TrainingSet(states, train, p.Renorm, p.Horizon)
	if err != nil {
		return err
	}
	w, err := ridge.Train(x, y, p.Alpha)
	if err != nil {
		return err
	}
	pred, err := forecast.NewPredictor(res, w, p.Renorm, p.Horizon)
	if err != nil {
		return err
	}

	maxSteps := test.Len() - p.Horizon + 1
	if maxSteps <= 0 {
		return fmt.Errorf("test window of %d too short for horizon %d", test.Len(), p.Horizon)
	}
	nSteps := p.Recursion
	if nSteps <= 0 || nSteps > maxSteps {
		nSteps = maxSteps
	}

	seedInput := train.At(train.Len() - 1)
	seedState := states[len(states)-1]
	path, err := pred.Predict(seedInput, seedState, nSteps)
	if err != nil {
		return err
	}
	rmse, err := path.RMSE(test)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("forecast steps: %d  horizon: %d\n", path.Steps(), path.Horizon())
	fmt.Printf("recursive rmse: %.6f\n", rmse)

	if oracle {
		oraclePath, err := pred.TeacherForced(seedInput, seedState, test)
		if err != nil {
			return err
		}
		oracleRMSE, err := oraclePath.RMSE(test)
		if err != nil {
			return err
		}
		fmt.Printf("oracle rmse:    %.6f\n", oracleRMSE)
	}

	if gridIndex < 0 || gridIndex >= train.Dim() {
		return fmt.Errorf("grid index %d out of range [0,%d)", gridIndex, train.Dim())
	}
	predicted := make([]float64, path.Steps())
	truth := make([]float64, path.Steps())
	for i := 0; i < path.Steps(); i++ {
		predicted[i] = path.At(i, 0)[gridIndex]
		truth[i] = test.At(i)[gridIndex]
	}
	fmt.Println()
	fmt.Println(asciigraph.Plot(predicted,
		asciigraph.Height(8),
		asciigraph.Width(70),
		asciigraph.Caption(fmt.Sprintf("predicted u%d", gridIndex)),
	))
	fmt.Println()
	fmt.Println(asciigraph.Plot(truth,
		asciigraph.Height(8),
		asciigraph.Width(70),
		asciigraph.Caption(fmt.Sprintf("truth u%d", gridIndex)),
	))
	return nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Source != "ks" {
		return fmt.Errorf("analyze requires the ks source, got %s", cfg.Source)
	}

	base, err := ks.Simulate(cfg.KS)
	if err != nil {
		return err
	}

	perturbed := cfg.KS
	perturbed.Eps = 1e-7
	perturbed.Seed = cfg.KS.Seed + 1
	other, err := ks.Simulate(perturbed)
	if err != nil {
		return err
	}

	rate, err := analysis.DivergenceRate(base, other, cfg.KS.Dt)
	if err != nil {
		return err
	}
	fmt.Printf("divergence rate: %.4f per time unit\n", rate)
	if rate > 0 {
		fmt.Println("trajectories separate exponentially: chaotic regime")
	} else {
		fmt.Println("no exponential separation detected")
	}

	mean, err := analysis.MeanSpatialSpectrum(base)
	if err != nil {
		return err
	}
	// drop the constant mode, plot the active band
	plotBand := mean[1:]
	if len(plotBand) > 32 {
		plotBand = plotBand[:32]
	}
	fmt.Println()
	fmt.Println(asciigraph.Plot(plotBand,
		asciigraph.Height(12),
		asciigraph.Width(70),
		asciigraph.Caption("mean spatial power spectrum"),
	))

	col, err := base.Column(0)
	if err != nil {
		return err
	}
	ps := analysis.PowerSpectrum(col)
	freq := analysis.DominantFrequency(ps, len(col), cfg.KS.Dt)
	fmt.Printf("\ndominant temporal frequency at u0: %.4f\n", freq)
	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	train, test, err := buildData(cfg)
	if err != nil {
		return err
	}

	values := cfg.Grid()
	driver := sweep.NewDriver(cfg.Sweep.Workers, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var results []sweep.Result
	start := time.Now()
	if live {
		ch := make(chan tui.ResultMsg, len(values))
		driver.OnResult = func(idx int, r sweep.Result) {
			ch <- tui.ResultMsg{Index: idx, Result: r}
		}
		done := make(chan error, 1)
		go func() {
			var searchErr error
			results, searchErr = driver.Search(ctx, cfg.Pipeline, cfg.Sweep.Param, values, train, test)
			close(ch)
			done <- searchErr
		}()
		if err := tui.Run(cfg.Sweep.Param, values, ch); err != nil {
			return err
		}
		if err := <-done; err != nil {
			return err
		}
	} else {
		results, err = driver.Search(ctx, cfg.Pipeline, cfg.Sweep.Param, values, train, test)
		if err != nil {
			return err
		}
	}
	elapsed := time.Since(start)

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.SaveSweep(cfg.Source, cfg.Sweep.Param, results)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n\n", runID)

	printResults(cfg.Sweep.Param, results)
	return nil
}

func printResults(param string, results []sweep.Result) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tRMSE\tVALID_TIME\tSTATUS\n", param)
	for _, r := range results {
		if r.Failed() {
			fmt.Fprintf(w, "%.4g\t-\t-\tskipped: %v\n", r.Param, r.Err)
			continue
		}
		fmt.Fprintf(w, "%.4g\t%.6f\t%.0f\tok\n", r.Param, r.RMSE, r.ValidTime)
	}
	w.Flush()

	if best, ok := sweep.Best(results); ok {
		fmt.Printf("\nbest: %s=%.4g  rmse=%.6f\n", param, results[best].Param, results[best].RMSE)
	} else {
		fmt.Println("\nevery configuration failed")
	}
	if failed := sweep.Failed(results); len(failed) > 0 {
		fmt.Printf("skipped %d of %d configurations\n", len(failed), len(results))
	}
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
	fmt.Fprintln(w, "ID\tSOURCE\tTIME\tPARAM\tPOINTS\tFAILED\tBEST_RMSE")
	for _, run := range runs {
		best := "-"
		if run.BestIndex >= 0 {
			best = fmt.Sprintf("%.6f", run.BestRMSE)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
			run.ID,
			run.Source,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Param,
			run.Points,
			run.Failed,
			best,
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
	results, err := st.LoadResults(runID)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("param: %s  points: %d  failed: %d\n\n", meta.Param, meta.Points, meta.Failed)

	var series []float64
	for _, r := range results {
		if !r.Failed() {
			series = append(series, r.RMSE)
		}
	}
	if len(series) < 2 {
		return fmt.Errorf("not enough successful points to plot")
	}
	fmt.Println(asciigraph.Plot(series,
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("rmse vs %s", meta.Param)),
	))

	printResults(meta.Param, results)
	return nil
}
