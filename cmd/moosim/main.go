package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/moosim/internal/analysis"
	"github.com/san-kum/moosim/internal/config"
	"github.com/san-kum/moosim/internal/dynamo"
	"github.com/san-kum/moosim/internal/experiment"
	"github.com/san-kum/moosim/internal/jacobian"
	"github.com/san-kum/moosim/internal/logging"
	"github.com/san-kum/moosim/internal/models"
	"github.com/san-kum/moosim/internal/optim"
	"github.com/san-kum/moosim/internal/sim"
	"github.com/san-kum/moosim/internal/storage"
	"github.com/san-kum/moosim/internal/viz"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"
)

var (
	dataDir  string
	logLevel string

	configFile string
	preset     string
	stepper    string
	jacFormat  string
	stop       float64
	points     int
	substeps   int
	paramFlags map[string]string
	noSave     bool

	outFile string

	relStep     float64
	concurrency int

	interval  float64
	segments  int
	transient int

	searchLo   float64
	searchHi   float64
	searchTol  float64
	gridPoints int
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "moosim",
		Short:         "ode integration and evaluation lab",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".moosim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (overrides config)")

	runCmd := &cobra.Command{
		Use:   "run [model]",
		Short: "integrate a model and store the trajectory",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addConfigFlags(runCmd)
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	replayCmd := &cobra.Command{
		Use:   "replay [run_id]",
		Short: "step through a stored run interactively",
		Args:  cobra.ExactArgs(1),
		RunE:  replayRun,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run trajectory to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "list models and steppers",
		RunE:  listModels,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [model]",
		Short: "list available presets for a model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			presets := config.ListPresets(args[0])
			if len(presets) == 0 {
				fmt.Printf("no presets for model: %s\n", args[0])
				return nil
			}
			fmt.Printf("presets for %s:\n", args[0])
			for _, p := range presets {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	configCmd := &cobra.Command{
		Use:   "config [model]",
		Short: "print or write the resolved configuration",
		Args:  cobra.MaximumNArgs(1),
		RunE:  writeConfig,
	}
	addConfigFlags(configCmd)
	configCmd.Flags().StringVarP(&outFile, "out", "o", "", "write yaml to this file")

	jacobianCmd := &cobra.Command{
		Use:   "jacobian [model]",
		Short: "show the Jacobian sparsity and values at the initial state",
		Args:  cobra.MaximumNArgs(1),
		RunE:  showJacobian,
	}
	addConfigFlags(jacobianCmd)

	sensitivityCmd := &cobra.Command{
		Use:   "sensitivity [model]",
		Short: "final-state sensitivity to the model parameters",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSensitivity,
	}
	addConfigFlags(sensitivityCmd)
	sensitivityCmd.Flags().Float64Var(&relStep, "rel-step", 1e-6, "relative perturbation")
	sensitivityCmd.Flags().IntVar(&concurrency, "concurrency", 0, "simultaneous runs (0 = unlimited)")

	lyapunovCmd := &cobra.Command{
		Use:   "lyapunov [model]",
		Short: "estimate the largest Lyapunov exponent",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLyapunov,
	}
	addConfigFlags(lyapunovCmd)
	lyapunovCmd.Flags().Float64Var(&interval, "interval", 1, "time between renormalizations")
	lyapunovCmd.Flags().IntVar(&segments, "segments", 200, "averaged intervals")
	lyapunovCmd.Flags().IntVar(&transient, "transient", 20, "discarded intervals")

	verifyCmd := &cobra.Command{
		Use:   "verify-mwe",
		Short: "recover the optimal MWE parameter by searching the simulated cost",
		Args:  cobra.NoArgs,
		RunE:  verifyMWE,
	}
	addConfigFlags(verifyCmd)
	verifyCmd.Flags().Float64Var(&searchLo, "lo", 0, "lower end of the search interval")
	verifyCmd.Flags().Float64Var(&searchHi, "hi", 0.1, "upper end of the search interval")
	verifyCmd.Flags().Float64Var(&searchTol, "tol", 1e-7, "bracket width to stop at")
	verifyCmd.Flags().IntVar(&gridPoints, "grid", 11, "coarse grid points before refining")

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, replayCmd, exportJSONCmd, exportCSVCmd, modelsCmd, presetsCmd,
		configCmd, jacobianCmd, sensitivityCmd, lyapunovCmd, verifyCmd)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, viz.StatusFailed.Render("error:"), err)
		cancel()
		os.Exit(1)
	}
}

func addConfigFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().StringVar(&stepper, "stepper", config.DefaultStepper, "stepper")
	cmd.Flags().StringVar(&jacFormat, "jacobian", "dense", "jacobian format (dense, coo, csc)")
	cmd.Flags().Float64Var(&stop, "stop", config.DefaultStop, "end of the output grid")
	cmd.Flags().IntVar(&points, "points", config.DefaultPoints, "output grid points")
	cmd.Flags().IntVar(&substeps, "substeps", config.DefaultSubsteps, "fixed-step substeps per grid interval")
	cmd.Flags().StringToStringVar(&paramFlags, "param", nil, "parameter override name=value")
}

// loadConfig resolves defaults, then the preset, then the config file, then
// explicitly set flags.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if len(args) > 0 {
		cfg.Model = args[0]
	}

	if preset != "" {
		p := config.GetPreset(cfg.Model, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(cfg.Model))
		}
		cfg = p
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
		if len(args) > 0 {
			cfg.Model = args[0]
		}
	}

	flags := cmd.Flags()
	if flags.Changed("stepper") {
		cfg.Stepper = stepper
	}
	if flags.Changed("jacobian") {
		f, err := jacobian.ParseFormat(jacFormat)
		if err != nil {
			return nil, err
		}
		cfg.Jacobian = f
	}
	if flags.Changed("stop") {
		cfg.Grid.Stop = stop
	}
	if flags.Changed("points") {
		cfg.Grid.Points = points
	}
	if flags.Changed("substeps") {
		cfg.Substeps = substeps
	}
	for name, raw := range paramFlags {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("param %s: %w", name, err)
		}
		if cfg.Params == nil {
			cfg.Params = make(map[string]float64)
		}
		cfg.Params[name] = v
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	return cfg, cfg.Validate()
}

func newExperiment(cmd *cobra.Command, args []string) (*experiment.Experiment, *zap.Logger, error) {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return nil, nil, err
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}

	exp, err := experiment.New(cfg, experiment.NewRegistry(), logger)
	if err != nil {
		return nil, nil, err
	}
	return exp, logger, nil
}

func describeFailure(err error) error {
	var ierr *dynamo.IntegrationError
	if errors.As(err, &ierr) {
		return fmt.Errorf("%s stopped with %s: %w", ierr.Stepper, sim.Status(ierr.Status), err)
	}
	return err
}

func runSimulation(cmd *cobra.Command, args []string) error {
	exp, logger, err := newExperiment(cmd, args)
	if err != nil {
		return err
	}
	defer logger.Sync()

	res, err := exp.Run(cmd.Context())
	if err != nil {
		return describeFailure(err)
	}

	traj := res.Trajectory
	_, xf := traj.Final()

	fmt.Println(viz.MetricsPanel(fmt.Sprintf("%s / %s", exp.Model().Name, exp.Config().Stepper), res.Metrics))
	fmt.Println(viz.Subtle.Render(fmt.Sprintf("samples %d  elapsed %s  final state %v",
		traj.Len(), res.Elapsed, xf)))
	for i := 0; i < min(traj.XSize(), 4); i++ {
		fmt.Printf("x%d %s\n", i, viz.Sparkline(traj.X[i], 60))
	}

	if noSave {
		return nil
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	id, err := st.Save(exp.Metadata(res), traj)
	if err != nil {
		return err
	}

	logging.Success(logger, "run saved", zap.String("id", id), zap.String("dir", st.Dir()))
	fmt.Println(viz.StatusOK.Render("saved " + id))
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
	fmt.Fprintln(w, "ID\tMODEL\tTIME\tSTEPPER\tJACOBIAN\tSPAN\tSAMPLES")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t[%g, %g]\t%d\n",
			run.ID,
			run.Model,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Stepper,
			run.Jacobian,
			run.Start,
			run.Stop,
			run.Samples,
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

	traj, err := st.LoadTrajectory(runID)
	if err != nil {
		return err
	}

	if traj.Empty() {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("model: %s\n", meta.Model)
	fmt.Printf("samples: %d\n\n", traj.Len())

	series := make([][]float64, 0, traj.XSize()+traj.USize())
	captions := make([]string, 0, cap(series))
	for i := range traj.X {
		series = append(series, traj.X[i])
		captions = append(captions, fmt.Sprintf("x%d vs time [%g, %g]", i, meta.Start, meta.Stop))
	}
	for i := range traj.U {
		series = append(series, traj.U[i])
		captions = append(captions, fmt.Sprintf("u%d vs time [%g, %g]", i, meta.Start, meta.Stop))
	}

	const maxPlots = 6
	for i := 0; i < min(len(series), maxPlots); i++ {
		graph := asciigraph.Plot(series[i],
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(captions[i]),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	return nil
}

func replayRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	traj, err := st.LoadTrajectory(runID)
	if err != nil {
		return err
	}

	return viz.NewReplay(fmt.Sprintf("%s / %s", meta.Model, meta.Stepper), traj).Run()
}

func exportJSON(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	traj, err := st.LoadTrajectory(runID)
	if err != nil {
		return err
	}

	return storage.ExportJSON(os.Stdout, *meta, traj)
}

func exportCSV(cmd *cobra.Command, args []string) error {
	traj, err := storage.New(dataDir).LoadTrajectory(args[0])
	if err != nil {
		return err
	}
	return storage.WriteCSV(os.Stdout, traj)
}

func listModels(cmd *cobra.Command, args []string) error {
	reg := experiment.NewRegistry()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MODEL\tSTATES\tCONTROLS\tPARAMS\tSTEPPER\tDESCRIPTION")
	for _, name := range reg.ListModels() {
		m, err := reg.GetModel(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%s\t%s\n",
			m.Name, m.XSize(), m.ControlDim, strings.Join(m.ParamNames, ","), m.Stepper, m.Description)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\nsteppers: %s\n", strings.Join(reg.ListSteppers(), ", "))
	return nil
}

func writeConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	if outFile != "" {
		if err := config.Save(outFile, cfg); err != nil {
			return err
		}
		fmt.Println(viz.StatusOK.Render("wrote " + outFile))
		return nil
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}

func showJacobian(cmd *cobra.Command, args []string) error {
	exp, _, err := newExperiment(cmd, args)
	if err != nil {
		return err
	}

	m := exp.Model()
	if m.DenseJac == nil {
		return fmt.Errorf("%s has no analytic jacobian", m.Name)
	}

	n := m.XSize()
	format := exp.Config().Jacobian
	fn, pattern := m.Jacobian(format)

	values := make([]float64, pattern.ValueLen(n))
	u := make([]float64, m.ControlDim)
	fn(m.Start, m.State(), u, exp.Params(), values, nil)

	fmt.Println(viz.Title.Render(fmt.Sprintf("%s jacobian (%s, %d of %d cells)", m.Name, format, pattern.NNZ(), n*n)))
	switch format {
	case jacobian.COO:
		fmt.Println(viz.Subtle.Render(fmt.Sprintf("rows %v\ncols %v", pattern.Rows(), pattern.Cols())))
	case jacobian.CSC:
		fmt.Println(viz.Subtle.Render(fmt.Sprintf("col_ptr %v\nrow     %v", pattern.Cols(), pattern.Rows())))
	}
	fmt.Printf("values %v\n\n", values)

	dense := make([]float64, n*n)
	pattern.Densify(values, dense, n)
	fmt.Printf("%v\n", mat.Formatted(mat.NewDense(n, n, dense), mat.Squeeze()))
	return nil
}

func runSensitivity(cmd *cobra.Command, args []string) error {
	exp, logger, err := newExperiment(cmd, args)
	if err != nil {
		return err
	}
	defer logger.Sync()

	s, err := analysis.ParameterSensitivity(cmd.Context(), exp.Integrator, exp.Params(),
		analysis.WithRelativeStep(relStep),
		analysis.WithConcurrency(concurrency),
	)
	if err != nil {
		return describeFailure(err)
	}

	m := exp.Model()
	fmt.Println(viz.Title.Render(fmt.Sprintf("d x(%g) / d p for %s", exp.Config().Grid.Stop, m.Name)))
	fmt.Println(viz.Subtle.Render("columns: " + strings.Join(m.ParamNames, ", ")))
	fmt.Printf("%v\n", mat.Formatted(s, mat.Squeeze()))
	return nil
}

func runLyapunov(cmd *cobra.Command, args []string) error {
	exp, logger, err := newExperiment(cmd, args)
	if err != nil {
		return err
	}
	defer logger.Sync()

	m := exp.Model()
	if m.DenseJac == nil {
		return fmt.Errorf("%s has no analytic jacobian", m.Name)
	}

	st, err := experiment.NewRegistry().GetStepper(exp.Config().Stepper, exp.Config())
	if err != nil {
		return err
	}

	lambda, err := analysis.LyapunovExponent(cmd.Context(), m.RHS, m.DenseJac, m.State(), exp.Params(),
		m.Controls(), st, analysis.LyapunovConfig{
			Interval:  interval,
			Segments:  segments,
			Transient: transient,
		})
	if err != nil {
		return describeFailure(err)
	}

	style := viz.StatusOK
	if lambda > 0 {
		style = viz.StatusFailed
	}
	fmt.Println(viz.MetricLabel.Render("lambda_max") + style.Render(fmt.Sprintf("%.6g", lambda)))
	return nil
}

// verifyMWE scores a coarse grid of p by simulating the MWE under its
// optimal control, refines the best cell by golden-section search, and
// compares the result with the reference optimum.
func verifyMWE(cmd *cobra.Command, args []string) error {
	if preset == "" && configFile == "" {
		preset = "optimal"
	}
	exp, logger, err := newExperiment(cmd, []string{"mwe"})
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx := cmd.Context()
	objective := exp.Objective("quadratic_cost")
	base := exp.Params()

	if gridPoints < 3 {
		return fmt.Errorf("grid needs at least 3 points, got %d", gridPoints)
	}
	candidates := floats.Span(make([]float64, gridPoints), searchLo, searchHi)
	gs := optim.NewGridSearch([]int{0}, [][]float64{candidates})
	gs.Logger = logger
	coarse, err := gs.Search(ctx, objective, base)
	if err != nil {
		return describeFailure(err)
	}

	h := candidates[1] - candidates[0]
	lo := math.Max(searchLo, coarse.X[0]-h)
	hi := math.Min(searchHi, coarse.X[0]+h)
	fine, err := optim.GoldenSection(ctx, objective, coarse.X, 0, lo, hi, searchTol, 200)
	if err != nil {
		return describeFailure(err)
	}

	profile, err := optim.GoldenSection(ctx, func(_ context.Context, p []float64) (float64, error) {
		return models.NewMWEProfile(p[0]).Cost(exp.Config().Grid.Points), nil
	}, base, 0, lo, hi, searchTol, 200)
	if err != nil {
		return err
	}

	fmt.Println(viz.MetricsPanel("mwe optimum", map[string]float64{
		"p_simulated":   fine.X[0],
		"p_closed_form": profile.X[0],
		"p_reference":   models.MWEOptimalP,
		"cost":          fine.Value,
		"abs_error":     math.Abs(fine.X[0] - models.MWEOptimalP),
	}))

	logging.Success(logger, "mwe verified",
		zap.Float64("p", fine.X[0]),
		zap.Int("grid_evaluations", coarse.Iterations),
		zap.Int("golden_iterations", fine.Iterations))
	return nil
}
