package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/san-kum/nebula/internal/analysis"
	"github.com/san-kum/nebula/internal/config"
	"github.com/san-kum/nebula/internal/experiment"
	"github.com/san-kum/nebula/internal/grid"
	"github.com/san-kum/nebula/internal/logger"
	"github.com/san-kum/nebula/internal/nebula"
	"github.com/san-kum/nebula/internal/storage"
	"github.com/san-kum/nebula/internal/telemetry"
	"github.com/san-kum/nebula/internal/viz"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// resolveConfig layers preset, config file and explicitly set flags, in
// that order.
func resolveConfig(cmd *cobra.Command) (*config.Config, string, error) {
	cfg := config.DefaultConfig()
	name := "nebula"

	if preset != "" {
		p := config.GetPreset(preset)
		if p == nil {
			return nil, "", fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		cfg, name = p, preset
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
		name = "custom"
	}

	flags := cmd.Flags()
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("ticks") {
		cfg.Ticks = ticks
	}
	if flags.Changed("substeps") {
		cfg.Physics.Substeps = substeps
	}
	if flags.Changed("workers") {
		cfg.Run.Workers = workers
	}
	if flags.Changed("backend") {
		cfg.Run.Backend = backend
	}
	if flags.Changed("solver") {
		cfg.Physics.Solver = solver
	}
	if flags.Changed("spin-ramp") {
		cfg.Physics.SpinRamp = spinRamp
	}
	if flags.Changed("pressure") {
		cfg.Physics.Pressure = pressure
	}
	if flags.Changed("init-spin") {
		cfg.Physics.InitSpin = initSpin
	}
	if flags.Changed("log-level") || cfg.Run.LogLevel == "" {
		cfg.Run.LogLevel = logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return cfg, name, nil
}

func newLogger(level string) (*zap.Logger, error) {
	return logger.New(logger.Config{Level: level, Encoding: logFormat})
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, name, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg.Run.LogLevel)
	if err != nil {
		return err
	}
	defer log.Sync()

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	reg := prometheus.NewRegistry()
	var collector *telemetry.Collector
	if ensemble <= 1 {
		collector, err = telemetry.NewCollector(reg, prometheus.Labels{"preset": name})
		if err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	srv := serveMetrics(g, reg, log)
	shutdown := func() {
		if srv != nil {
			srv.Shutdown(context.Background())
		}
	}

	if ensemble > 1 {
		g.Go(func() error {
			defer shutdown()
			return runEnsemble(gctx, cfg, name, st, reg, log)
		})
		return g.Wait()
	}

	var exp *experiment.Experiment
	var res *experiment.Result
	g.Go(func() error {
		defer shutdown()
		var err error
		exp, err = experiment.New(cfg, log, collector)
		if err != nil {
			return err
		}
		fmt.Printf("running %s: %dx%d particles, %d ticks of %gs\n",
			name, cfg.Seeding.Width, cfg.Seeding.Height, cfg.Ticks, cfg.Dt)
		res, err = exp.Run(gctx, nil)
		return err
	})

	runErr := g.Wait()
	if exp != nil {
		defer exp.Close()
	}
	if res == nil {
		return runErr
	}

	runID, err := st.Save(exp.Metadata(name, res), res.Columns, res.Samples, res.Shape, res.Positions)
	if err != nil {
		return err
	}
	printResult(runID, res)
	return runErr
}

// serveMetrics starts the /metrics endpoint in g when --metrics-addr is
// set. It returns nil otherwise.
func serveMetrics(g *errgroup.Group, reg *prometheus.Registry, log *zap.Logger) *http.Server {
	if metricsAddr == "" {
		return nil
	}
	srv := &http.Server{
		Addr:              metricsAddr,
		Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	g.Go(func() error {
		log.Info("serving metrics", zap.String("addr", metricsAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	return srv
}

// runEnsemble runs consecutive seeds concurrently. Each member reports to
// reg under its own member label.
func runEnsemble(ctx context.Context, cfg *config.Config, name string, st *storage.Store, reg prometheus.Registerer, log *zap.Logger) error {
	seeds := make([]int64, ensemble)
	for i := range seeds {
		seeds[i] = cfg.Seed + int64(i)
	}
	collectors := make([]*telemetry.Collector, len(seeds))
	for i := range collectors {
		c, err := telemetry.NewCollector(reg, prometheus.Labels{"preset": name, "member": strconv.Itoa(i)})
		if err != nil {
			return err
		}
		collectors[i] = c
	}
	fmt.Printf("running %s ensemble of %d seeds from %d\n", name, ensemble, cfg.Seed)

	results, err := experiment.Ensemble(ctx, cfg, seeds, log, func(i int) nebula.Observer {
		return collectors[i]
	})
	if err != nil {
		return err
	}
	for _, res := range results {
		c := cfg.Clone()
		c.Seed = res.Seed
		meta := storage.RunMetadata{
			Preset:      name,
			Seed:        res.Seed,
			Dt:          c.Dt,
			Ticks:       c.Ticks,
			Width:       res.Shape.Width,
			Height:      res.Shape.Height,
			Solver:      c.Physics.Solver,
			Backend:     c.Run.Backend,
			Workers:     c.Run.Workers,
			Generation:  res.Generation,
			Elapsed:     res.Elapsed,
			WallSeconds: res.Wall.Seconds(),
			Metrics:     res.Final,
		}
		runID, err := st.Save(meta, res.Columns, res.Samples, res.Shape, res.Positions)
		if err != nil {
			return err
		}
		printResult(runID, res)
	}
	return nil
}

func printResult(runID string, res *experiment.Result) {
	fmt.Printf("\nrun id: %s\n", runID)
	fmt.Printf("completed %d generations (%.3fs simulated) in %v\n", res.Generation, res.Elapsed, res.Wall.Round(time.Millisecond))
	fmt.Println("metrics:")
	for _, name := range res.Columns {
		fmt.Printf("  %-18s %.6g\n", name, res.Final[name])
	}
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, name, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	exp, err := experiment.New(cfg, zap.NewNop())
	if err != nil {
		return err
	}
	defer exp.Close()

	m := viz.NewModel(exp.Engine(), name, cfg.Dt, cfg.Seed)
	p := tea.NewProgram(m)
	if _, err := p.Run(); err != nil {
		return err
	}
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
	fmt.Fprintln(w, "ID\tPRESET\tTIME\tSEED\tGRID\tSOLVER\tGEN\tSIM TIME\tWALL")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%dx%d\t%s\t%d\t%.2fs\t%.2fs\n",
			run.ID,
			run.Preset,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Seed,
			run.Width, run.Height,
			run.Solver,
			run.Generation,
			run.Elapsed,
			run.WallSeconds,
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
	columns, samples, err := st.LoadDiagnostics(runID)
	if err != nil {
		return err
	}
	if len(samples) < 2 {
		return fmt.Errorf("no data to plot")
	}

	names := columns
	if metricName != "" {
		names = []string{metricName}
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("preset: %s  seed: %d  grid: %dx%d\n", meta.Preset, meta.Seed, meta.Width, meta.Height)
	fmt.Printf("samples: %d\n\n", len(samples))

	for _, name := range names {
		data, err := storage.Column(columns, samples, name)
		if err != nil {
			return err
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(name),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	return st.ExportPositions(args[0], cmd.OutOrStdout())
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	columns, samples, err := st.LoadDiagnostics(runID)
	if err != nil {
		return err
	}

	sampled := make([]int, len(samples))
	for i, s := range samples {
		sampled[i] = s.Tick
	}
	n, spacing := analysis.Uniform(sampled)
	series, err := storage.Column(columns, samples[:n], metricName)
	if err != nil {
		return err
	}

	interval := meta.Dt * float64(spacing)
	freqs, amp, err := analysis.Spectrum(series, interval)
	if err != nil {
		return err
	}

	fmt.Printf("frequency analysis: %s\n", meta.ID)
	fmt.Printf("diagnostic: %s, %d samples every %gs\n\n", metricName, n, interval)

	graph := asciigraph.Plot(amp[1:],
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("amplitude spectrum (%s)", metricName)),
	)
	fmt.Println(graph)
	fmt.Println()

	freq, a, err := analysis.Dominant(series, interval)
	if err != nil {
		return err
	}
	fmt.Printf("dominant frequency: %.4f hz (amplitude %.4g)\n", freq, a)
	if freq > 0 {
		fmt.Printf("period: %.3f s\n", 1.0/freq)
	}
	fmt.Printf("resolution: %.4f hz\n", freqs[1])
	return nil
}

func benchSolvers(cmd *cobra.Command, args []string) error {
	shapes := []grid.Shape{{Width: 32, Height: 16}, {Width: 64, Height: 32}, {Width: 96, Height: 48}}
	solvers := []string{"direct", "tree"}

	fmt.Printf("benchmarking %d ticks per run\n\n", ticks)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PARTICLES\tSOLVER\tWORKERS\tTIME\tSTEPS/SEC\tPAIRS/SEC")

	for _, shape := range shapes {
		for _, s := range solvers {
			p := nebula.DefaultParams()
			p.Disk.Grid = shape
			p.Solver = s

			e := nebula.New(nebula.WithWorkers(workers))
			if err := e.Configure(p); err != nil {
				e.Close()
				return err
			}
			if err := e.Reset(42); err != nil {
				e.Close()
				return err
			}

			start := time.Now()
			for i := 0; i < ticks; i++ {
				e.Advance(config.DefaultDt)
			}
			elapsed := time.Since(start)

			n := float64(shape.Len())
			steps := float64(e.Generation())
			fmt.Fprintf(w, "%d\t%s\t%d\t%v\t%.1f\t%.3g\n",
				shape.Len(), s, e.Backend().Workers(), elapsed.Round(time.Millisecond),
				steps/elapsed.Seconds(), steps*n*n/elapsed.Seconds())
			e.Close()
		}
	}
	return w.Flush()
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tGRID\tG\tPRESSURE\tSPIN\tSOLVER")
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%dx%d\t%g\t%g\t%g\t%s\n",
			name, p.Seeding.Width, p.Seeding.Height,
			p.Physics.G, p.Physics.Pressure, p.Physics.InitSpin, p.Physics.Solver)
	}
	return w.Flush()
}

func initConfig(cmd *cobra.Command, args []string) error {
	cfg := config.GetPreset(initPreset)
	if cfg == nil {
		return fmt.Errorf("unknown preset: %s (available: %v)", initPreset, config.ListPresets())
	}
	if _, err := os.Stat(args[0]); err == nil {
		return fmt.Errorf("%s already exists", args[0])
	}
	if err := config.Save(args[0], cfg); err != nil {
		return err
	}
	fmt.Printf("wrote %s preset to %s\n", initPreset, args[0])
	return nil
}
