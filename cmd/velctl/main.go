package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/san-kum/velctl/internal/agent"
	"github.com/san-kum/velctl/internal/analysis"
	"github.com/san-kum/velctl/internal/automation"
	"github.com/san-kum/velctl/internal/config"
	"github.com/san-kum/velctl/internal/control"
	"github.com/san-kum/velctl/internal/export"
	"github.com/san-kum/velctl/internal/logging"
	"github.com/san-kum/velctl/internal/metrics"
	"github.com/san-kum/velctl/internal/optim"
	"github.com/san-kum/velctl/internal/sim"
	"github.com/san-kum/velctl/internal/storage"
	"github.com/san-kum/velctl/internal/viz"
)

var (
	dataDir string
	verbose bool

	preset     string
	ticks      int
	dt         float64
	envs       int
	form       string
	kp         float64
	p1         float64
	p2         float64
	tracePath  string
	metricsOut string
	maxForce   float64
	forceRange float64
	dim        int

	agentName string
	env       int
	axis      int
	xAxis     int
	yAxis     int
	svgOut    string
	outFile   string
	frameRate int

	gainSets []string

	kpRange    []float64
	p1Range    []float64
	p2Range    []float64
	gridSteps  int
	objective  string
	trials     int
	perturbPct float64
	seed       int64
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "velctl",
		Short:        "batched PID velocity controller bench",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".velctl", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")

	runCmd := &cobra.Command{
		Use:   "run [scenario.yaml]",
		Short: "run a scenario and store the forces",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runScenario,
	}
	addScenarioFlags(runCmd)
	runCmd.Flags().StringVar(&tracePath, "trace", "", "velocity trace CSV (replaces profiles)")
	runCmd.Flags().StringVar(&metricsOut, "metrics-out", "", "write prometheus textfile")

	compareCmd := &cobra.Command{
		Use:   "compare [scenario.yaml]",
		Short: "run a scenario once per gain set",
		Args:  cobra.MaximumNArgs(1),
		RunE:  compareGains,
	}
	addScenarioFlags(compareCmd)
	compareCmd.Flags().StringArrayVar(&gainSets, "gains", nil, "gain set form:kp,p1,p2 (repeatable)")

	tuneCmd := &cobra.Command{
		Use:   "tune [scenario.yaml]",
		Short: "grid search gains against a metric",
		Args:  cobra.MaximumNArgs(1),
		RunE:  tuneGains,
	}
	addScenarioFlags(tuneCmd)
	tuneCmd.Flags().Float64SliceVar(&kpRange, "kp-range", []float64{0.5, 4}, "kp min,max")
	tuneCmd.Flags().Float64SliceVar(&p1Range, "p1-range", []float64{0, 0}, "p1 min,max")
	tuneCmd.Flags().Float64SliceVar(&p2Range, "p2-range", []float64{0, 0}, "p2 min,max")
	tuneCmd.Flags().IntVar(&gridSteps, "steps", 5, "grid points per gain")
	tuneCmd.Flags().StringVar(&objective, "objective", "tracking_error", "metric to minimize")

	monteCarloCmd := &cobra.Command{
		Use:   "montecarlo [scenario.yaml]",
		Short: "run randomized variants of a scenario",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runMonteCarlo,
	}
	addScenarioFlags(monteCarloCmd)
	monteCarloCmd.Flags().IntVar(&trials, "trials", 20, "number of trials")
	monteCarloCmd.Flags().Float64Var(&perturbPct, "perturb", 0.2, "relative mass and amplitude perturbation")
	monteCarloCmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 uses the scenario seed or the clock)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot forces of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&agentName, "agent", "", "agent name (default all)")
	plotCmd.Flags().IntVar(&env, "env", 0, "environment index")
	plotCmd.Flags().IntVar(&axis, "axis", -1, "force axis (-1 plots the norm)")
	plotCmd.Flags().StringVar(&svgOut, "svg", "", "also write the plotted series as SVG")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "dominant force frequency per agent and env",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	hodographCmd := &cobra.Command{
		Use:   "hodograph [run_id]",
		Short: "force hodograph of one agent env",
		Args:  cobra.ExactArgs(1),
		RunE:  hodographPlot,
	}
	hodographCmd.Flags().StringVar(&agentName, "agent", "", "agent name (default first)")
	hodographCmd.Flags().IntVar(&env, "env", 0, "environment index")
	hodographCmd.Flags().IntVar(&xAxis, "x-axis", 0, "force component for x-axis")
	hodographCmd.Flags().IntVar(&yAxis, "y-axis", 1, "force component for y-axis")
	hodographCmd.Flags().StringVar(&svgOut, "svg", "", "write SVG instead of ASCII")

	gainsCmd := &cobra.Command{
		Use:   "gains",
		Short: "print the constants derived from a gain set",
		Args:  cobra.NoArgs,
		RunE:  printGains,
	}
	gainsCmd.Flags().StringVar(&form, "form", "standard", "gain form (standard|parallel)")
	gainsCmd.Flags().Float64Var(&kp, "kp", 1.0, "proportional gain")
	gainsCmd.Flags().Float64Var(&p1, "p1", 0, "Ti (standard) or kI (parallel)")
	gainsCmd.Flags().Float64Var(&p2, "p2", 0, "Td (standard) or kD (parallel)")
	gainsCmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	gainsCmd.Flags().Float64Var(&maxForce, "max-force", 0, "agent max force (0 uses the default)")
	gainsCmd.Flags().Float64Var(&forceRange, "force-range", 0, "agent per-component force range")
	gainsCmd.Flags().IntVar(&dim, "dim", config.DefaultDim, "velocity dimension")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available scenario presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tAGENTS\tENVS\tDIM\tTICKS\tDT\tFORM")
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%.3f\t%s\n",
					name, len(p.Agents), p.Envs, p.Dim, p.Ticks, p.Dt, p.Controller.Form)
			}
			return w.Flush()
		},
	}

	liveCmd := &cobra.Command{
		Use:   "live [run_id]",
		Short: "replay a stored run in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE:  liveReplay,
	}
	liveCmd.Flags().IntVar(&frameRate, "fps", 30, "frame rate")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outFile, "output", "o", "", "output file (default stdout)")

	rootCmd.AddCommand(runCmd, compareCmd, tuneCmd, monteCarloCmd, listCmd, plotCmd, analyzeCmd, hodographCmd, gainsCmd, presetsCmd, liveCmd, exportJSONCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addScenarioFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&preset, "preset", "", "use preset scenario")
	cmd.Flags().IntVar(&ticks, "ticks", config.DefaultTicks, "number of ticks")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	cmd.Flags().IntVar(&envs, "envs", config.DefaultEnvs, "parallel environments")
	cmd.Flags().StringVar(&form, "form", "standard", "gain form (standard|parallel)")
	cmd.Flags().Float64Var(&kp, "kp", config.DefaultKp, "proportional gain")
	cmd.Flags().Float64Var(&p1, "p1", 0, "Ti (standard) or kI (parallel)")
	cmd.Flags().Float64Var(&p2, "p2", 0, "Td (standard) or kD (parallel)")
}

// loadScenario resolves the scenario from a file, a preset or the defaults,
// then applies the flags the user set explicitly.
func loadScenario(cmd *cobra.Command, args []string) (*config.Config, string, error) {
	var (
		cfg    *config.Config
		source = "default"
	)

	switch {
	case len(args) == 1:
		var err error
		cfg, err = config.Load(args[0])
		if err != nil {
			return nil, "", fmt.Errorf("failed to load scenario: %w", err)
		}
		source = args[0]
	case preset != "":
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, "", fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		source = "preset:" + preset
	default:
		cfg = config.DefaultConfig()
	}

	flags := cmd.Flags()
	if flags.Changed("ticks") {
		cfg.Ticks = ticks
	}
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("envs") {
		cfg.Envs = envs
	}
	if flags.Changed("form") {
		f, err := control.ParseForm(form)
		if err != nil {
			return nil, "", err
		}
		cfg.Controller.Form = f
	}
	if flags.Changed("kp") {
		cfg.Controller.Params[0] = kp
	}
	if flags.Changed("p1") {
		cfg.Controller.Params[1] = p1
	}
	if flags.Changed("p2") {
		cfg.Controller.Params[2] = p2
	}
	if flags.Lookup("trace") != nil && flags.Changed("trace") {
		cfg.Trace = tracePath
	}

	return cfg, source, cfg.Validate()
}

func runScenario(cmd *cobra.Command, args []string) error {
	log, err := logging.New(verbose)
	if err != nil {
		return err
	}

	cfg, source, err := loadScenario(cmd, args)
	if err != nil {
		return err
	}

	var src sim.Source
	if cfg.Trace != "" {
		trace, err := sim.LoadTrace(cfg.Trace, cfg.Dim)
		if err != nil {
			return err
		}
		if n := trace.Ticks(); n < cfg.Ticks {
			log.Info("trace shorter than scenario, holding last values", "traceTicks", n, "ticks", cfg.Ticks)
		}
		src = trace
		source = "trace:" + cfg.Trace
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	runner := sim.New(log.WithName("runner"))
	for _, m := range sim.DefaultMetrics() {
		runner.AddMetric(m)
	}
	exporter := metrics.NewExporter()
	runner.AddObserver(exporter)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("running %s (%d agents, %dx%d batch, %d ticks)...\n", cfg.Name, len(cfg.Agents), cfg.Envs, cfg.Dim, cfg.Ticks)
	start := time.Now()

	runID, result, err := executeRun(ctx, runner, st, storage.RunMetadata{
		Scenario: cfg.Name,
		Source:   source,
		Dt:       cfg.Dt,
		Envs:     cfg.Envs,
		Dim:      cfg.Dim,
	}, cfg, src)
	interrupted := errors.Is(err, context.Canceled) && runID != ""
	if err != nil && !interrupted {
		return err
	}
	elapsed := time.Since(start)

	if metricsOut != "" {
		if err := exporter.WriteTextfile(metricsOut); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
		log.Info("metrics written", "path", metricsOut)
	}

	if interrupted {
		fmt.Printf("interrupted after %v, partial run saved\n", elapsed)
	} else {
		fmt.Printf("completed in %v\n", elapsed)
	}
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d\n", result.StepsTaken)
	printMetrics(result)
	return nil
}

// executeRun runs cfg and stores the result. A run stopped by ctx still has
// its completed ticks saved; the context error is returned alongside the id.
func executeRun(ctx context.Context, runner *sim.Runner, st *storage.Store, meta storage.RunMetadata, cfg *config.Config, src sim.Source) (string, *sim.Result, error) {
	result, runErr := runner.Run(ctx, cfg, src)
	if runErr != nil && (ctx.Err() == nil || result == nil || result.StepsTaken == 0) {
		return "", nil, runErr
	}

	runID, err := st.Save(meta, result)
	if err != nil {
		return "", nil, err
	}
	return runID, result, runErr
}

func printMetrics(result *sim.Result) {
	for _, name := range result.Agents {
		fmt.Println()
		fmt.Println(headerStyle.Render(name))

		params := result.Params[name]
		fmt.Printf("  %s %s\n", labelStyle.Render("gains:"),
			valueStyle.Render(fmt.Sprintf("Kp=%.4g Ti=%.4g Td=%.4g windup=%.4g", params["Kp"], params["Ti"], params["Td"], params["Windup"])))

		values := result.Metrics[name]
		keys := lo.Keys(values)
		sort.Strings(keys)
		for _, k := range keys {
			style := valueStyle
			if strings.HasSuffix(k, "saturation") && values[k] > 0.5 {
				style = warnStyle
			}
			fmt.Printf("  %s %s\n", labelStyle.Render(fmt.Sprintf("%-22s", k+":")), style.Render(fmt.Sprintf("%.6f", values[k])))
		}
	}
}

func parseGainSet(s string) (config.ControllerConfig, error) {
	var cc config.ControllerConfig

	formPart, paramPart, ok := strings.Cut(s, ":")
	if !ok {
		formPart, paramPart = string(control.FormStandard), s
	}
	f, err := control.ParseForm(formPart)
	if err != nil {
		return cc, err
	}
	cc.Form = f

	fields := strings.Split(paramPart, ",")
	if len(fields) != 3 {
		return cc, fmt.Errorf("gain set %q: want kp,p1,p2", s)
	}
	for i, field := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return cc, fmt.Errorf("gain set %q: %w", s, err)
		}
		cc.Params[i] = v
	}
	return cc, nil
}

func compareGains(cmd *cobra.Command, args []string) error {
	log, err := logging.New(verbose)
	if err != nil {
		return err
	}

	cfg, _, err := loadScenario(cmd, args)
	if err != nil {
		return err
	}

	settings := []config.ControllerConfig{cfg.Controller}
	for _, s := range gainSets {
		cc, err := parseGainSet(s)
		if err != nil {
			return err
		}
		settings = append(settings, cc)
	}

	runner := sim.New(log.WithName("sweep"))
	for _, m := range sim.DefaultMetrics() {
		runner.AddMetric(m)
	}

	results, err := sim.NewSweep(runner, settings).Run(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	fmt.Printf("comparing %d gain sets on %s (dt=%.4f, ticks=%d)\n\n", len(settings), cfg.Name, cfg.Dt, cfg.Ticks)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "GAINS\tAGENT\tEFFORT\tTRACKING\tSATURATION\tWINDUP")
	for i, res := range results {
		label := fmt.Sprintf("%s:%g,%g,%g", settings[i].Form, settings[i].Params[0], settings[i].Params[1], settings[i].Params[2])
		for _, name := range res.Agents {
			m := res.Metrics[name]
			fmt.Fprintf(w, "%s\t%s\t%.4f\t%.4f\t%.3f\t%.3f\n",
				label, name, m["control_effort"], m["tracking_error"], m["force_saturation"], m["integrator_saturation"])
		}
	}
	return w.Flush()
}

func gridRange(name string, r []float64) ([]float64, error) {
	if len(r) != 2 || r[1] < r[0] {
		return nil, fmt.Errorf("--%s wants min,max", name)
	}
	if r[0] == r[1] {
		return []float64{r[0]}, nil
	}
	return optim.Linspace(r[0], r[1], gridSteps), nil
}

func tuneGains(cmd *cobra.Command, args []string) error {
	log, err := logging.New(verbose)
	if err != nil {
		return err
	}

	cfg, _, err := loadScenario(cmd, args)
	if err != nil {
		return err
	}

	var ranges [3][]float64
	for i, r := range []struct {
		name   string
		values []float64
	}{{"kp-range", kpRange}, {"p1-range", p1Range}, {"p2-range", p2Range}} {
		if ranges[i], err = gridRange(r.name, r.values); err != nil {
			return err
		}
	}

	runner := sim.New(log.WithName("tune"))
	for _, m := range sim.DefaultMetrics() {
		runner.AddMetric(m)
	}

	gs := optim.NewGridSearch(cfg.Controller.Form, ranges[0], ranges[1], ranges[2])
	best, all, err := gs.Search(cmd.Context(), runner, cfg, objective)
	if err != nil {
		return err
	}

	fmt.Printf("evaluated %d gain sets on %s, minimizing %s\n\n", len(all), cfg.Name, objective)
	sort.Slice(all, func(i, j int) bool { return all[i].Score < all[j].Score })
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KP\tP1\tP2\tSCORE")
	for _, c := range all[:min(len(all), 10)] {
		fmt.Fprintf(w, "%.4g\t%.4g\t%.4g\t%.6f\n", c.Setting.Params[0], c.Setting.Params[1], c.Setting.Params[2], c.Score)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(headerStyle.Render(fmt.Sprintf("best: %s [%g, %g, %g] score %.6f",
		best.Setting.Form, best.Setting.Params[0], best.Setting.Params[1], best.Setting.Params[2], best.Score)))
	return nil
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	log, err := logging.New(verbose)
	if err != nil {
		return err
	}

	cfg, _, err := loadScenario(cmd, args)
	if err != nil {
		return err
	}

	runner := sim.New(log.WithName("montecarlo"))
	for _, m := range sim.DefaultMetrics() {
		runner.AddMetric(m)
	}

	results, err := automation.RunMonteCarlo(cmd.Context(), log, runner, cfg, automation.MonteCarloConfig{
		Trials:          trials,
		Perturbation:    perturbPct,
		SaturationLimit: 0.5,
		Seed:            seed,
	})
	if err != nil {
		return err
	}

	saturated, clean := automation.SaturatedCount(results)
	fmt.Printf("%d trials of %s (perturbation %.0f%%): %d clean, %d saturated\n\n", len(results), cfg.Name, perturbPct*100, clean, saturated)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "AGENT\tMETRIC\tMEAN\tSTD\tMIN\tMAX")
	for _, a := range cfg.Agents {
		for _, metric := range []string{"control_effort", "tracking_error", "force_saturation", "integrator_saturation"} {
			st := automation.Stats(results, a.Name, metric)
			fmt.Fprintf(w, "%s\t%s\t%.4f\t%.4f\t%.4f\t%.4f\n", a.Name, metric, st.Mean, st.Std, st.Min, st.Max)
		}
	}
	return w.Flush()
}

func printGains(cmd *cobra.Command, args []string) error {
	f, err := control.ParseForm(form)
	if err != nil {
		return err
	}

	a := agent.New("probe", 1, dim, 1)
	if cmd.Flags().Changed("max-force") {
		a.WithMaxForce(&maxForce)
	}
	if cmd.Flags().Changed("force-range") {
		a.WithForceRange(&forceRange)
	}

	c, err := control.NewVelocityController(a, dt, [3]float64{kp, p1, p2}, f)
	if err != nil {
		return err
	}

	fmt.Println(headerStyle.Render(fmt.Sprintf("%s form [%g, %g, %g]", f, kp, p1, p2)))
	rows := [][2]string{
		{"Kp", fmt.Sprintf("%.6g", c.Gain())},
		{"Ti", fmt.Sprintf("%.6g", c.IntegralTimeConstant())},
		{"Td", fmt.Sprintf("%.6g", c.DerivativeTimeConstant())},
		{"integrator", strconv.FormatBool(c.UsesIntegrator())},
		{"windup limit", fmt.Sprintf("%.6g", c.WindupLimit())},
		{"dt", fmt.Sprintf("%.6g", c.Dt())},
	}
	fmt.Println(viz.Table(rows))
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
	fmt.Fprintln(w, "ID\tSCENARIO\tTIME\tTICKS\tDT\tBATCH\tAGENTS\tSOURCE")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.4fs\t%dx%d\t%s\t%s\n",
			run.ID,
			run.Scenario,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Ticks,
			run.Dt,
			run.Envs,
			run.Dim,
			strings.Join(run.Agents, ","),
			run.Source,
		)
	}

	return w.Flush()
}

func loadRun(runID string) (*storage.RunMetadata, *sim.Result, error) {
	st := storage.New(dataDir)
	meta, result, err := st.LoadResult(runID)
	if err != nil {
		return nil, nil, err
	}
	if len(result.Times) == 0 {
		return nil, nil, fmt.Errorf("run %s has no data", runID)
	}
	return meta, result, nil
}

func selectAgents(result *sim.Result) ([]int, error) {
	if agentName == "" {
		return lo.Range(len(result.Agents)), nil
	}
	idx := result.AgentIndex(agentName)
	if idx < 0 {
		return nil, fmt.Errorf("unknown agent %q (have %v)", agentName, result.Agents)
	}
	return []int{idx}, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, result, err := loadRun(args[0])
	if err != nil {
		return err
	}
	if env < 0 || env >= meta.Envs {
		return fmt.Errorf("env %d out of range [0, %d)", env, meta.Envs)
	}
	if axis >= meta.Dim {
		return fmt.Errorf("axis %d out of range [0, %d)", axis, meta.Dim)
	}

	agents, err := selectAgents(result)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scenario: %s\n", meta.Scenario)
	fmt.Printf("samples: %d\n\n", len(result.Times))

	for _, i := range agents {
		data := result.ForceNormSeries(i, env)
		caption := fmt.Sprintf("%s env %d |F| vs time", result.Agents[i], env)
		if axis >= 0 {
			data = result.ForceSeries(i, env, axis)
			caption = fmt.Sprintf("%s env %d f%d vs time", result.Agents[i], env, axis)
		}

		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(caption),
		)
		fmt.Println(graph)
		fmt.Println()

		if svgOut != "" {
			path := svgOut
			if len(agents) > 1 {
				path = strings.TrimSuffix(svgOut, ".svg") + "_" + result.Agents[i] + ".svg"
			}
			if err := os.WriteFile(path, []byte(export.SeriesSVG(result.Times, data, 800, 300, "#00ccff")), 0644); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", path)
		}
	}

	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	meta, result, err := loadRun(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("frequency analysis: %s (dt=%.4f, %d samples)\n\n", meta.ID, meta.Dt, len(result.Times))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "AGENT\tENV\tFREQ_HZ\tPERIOD_S\tMAGNITUDE\tSHARE")
	for i, name := range result.Agents {
		for e := 0; e < meta.Envs; e++ {
			peak := analysis.DominantFrequency(result.ForceNormSeries(i, e), meta.Dt)
			period := "-"
			if peak.Frequency > 0 {
				period = fmt.Sprintf("%.3f", 1/peak.Frequency)
			}
			fmt.Fprintf(w, "%s\t%d\t%.4f\t%s\t%.4f\t%.2f\n", name, e, peak.Frequency, period, peak.Magnitude, peak.Share)
		}
	}
	return w.Flush()
}

func hodographPlot(cmd *cobra.Command, args []string) error {
	meta, result, err := loadRun(args[0])
	if err != nil {
		return err
	}

	idx := 0
	if agentName != "" {
		if idx = result.AgentIndex(agentName); idx < 0 {
			return fmt.Errorf("unknown agent %q (have %v)", agentName, result.Agents)
		}
	}

	h := analysis.ForceHodograph(result, idx, env, xAxis, yAxis)
	if h == nil {
		return fmt.Errorf("invalid env/axes for %dx%d batch", meta.Envs, meta.Dim)
	}

	if svgOut != "" {
		if err := os.WriteFile(svgOut, []byte(export.HodographSVG(h, 600, 600, "#00ff88")), 0644); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", svgOut)
		return nil
	}

	fmt.Printf("hodograph: %s env %d (f%d vs f%d)\n\n", h.Agent, h.Env, h.XAxis, h.YAxis)
	fmt.Println(h.ToASCII(60, 24))
	return nil
}

func liveReplay(cmd *cobra.Command, args []string) error {
	meta, result, err := loadRun(args[0])
	if err != nil {
		return err
	}
	return viz.RunReplay(meta.ID, result, frameRate)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	meta, result, err := loadRun(args[0])
	if err != nil {
		return err
	}

	if outFile != "" {
		return export.ExportJSON(outFile, meta, result)
	}
	return export.WriteJSON(os.Stdout, meta, result)
}
