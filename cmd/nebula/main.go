package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	dataDir    string
	logLevel   string
	logFormat  string
	configFile string
	preset     string
	seed       int64
	dt         float64
	ticks      int
	substeps   int
	workers    int
	backend    string
	solver     string
	spinRamp   string
	pressure   float64
	initSpin   float64
	// Run only
	ensemble    int
	metricsAddr string
	// Plot only
	metricName string
	// Config init only
	initPreset string
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "nebula",
		Short:        "double-buffered gravitational particle nebula",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".nebula", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "log encoding (console, json)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a simulation and store its diagnostics",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addSimFlags(runCmd)
	runCmd.Flags().IntVar(&ensemble, "ensemble", 1, "run this many consecutive seeds concurrently")
	runCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address while running")

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "live diagnostics dashboard",
		Args:  cobra.NoArgs,
		RunE:  runWatch,
	}
	addSimFlags(watchCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot stored diagnostics",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&metricName, "metric", "", "plot only this diagnostic")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "print the final particle positions of a run as CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency analysis of a stored diagnostic",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().StringVar(&metricName, "metric", "rms_radius", "diagnostic to analyse")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "measure step throughput across grid sizes and solvers",
		Args:  cobra.NoArgs,
		RunE:  benchSolvers,
	}
	benchCmd.Flags().IntVar(&workers, "workers", 0, "worker lanes (0 = one per CPU)")
	benchCmd.Flags().IntVar(&ticks, "ticks", 20, "ticks per measurement")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "configuration helpers",
	}
	configInitCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "write a config file from a preset",
		Args:  cobra.ExactArgs(1),
		RunE:  initConfig,
	}
	configInitCmd.Flags().StringVar(&initPreset, "preset", "nebula", "preset to start from")
	configCmd.AddCommand(configInitCmd)

	rootCmd.AddCommand(runCmd, watchCmd, listCmd, plotCmd, exportCmd, analyzeCmd, benchCmd, presetsCmd, configCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addSimFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "start from a preset")
	cmd.Flags().Int64Var(&seed, "seed", 1, "seeding seed")
	cmd.Flags().Float64Var(&dt, "dt", 0.016, "seconds per tick")
	cmd.Flags().IntVar(&ticks, "ticks", 600, "ticks to run")
	cmd.Flags().IntVar(&substeps, "substeps", 1, "steps per tick")
	cmd.Flags().IntVar(&workers, "workers", 0, "worker lanes (0 = one per CPU)")
	cmd.Flags().StringVar(&backend, "backend", "cpu", "dispatch backend (cpu, serial)")
	cmd.Flags().StringVar(&solver, "solver", "direct", "force solver (direct, tree)")
	cmd.Flags().StringVar(&spinRamp, "spin-ramp", "tick", "spin blend schedule (tick, elapsed)")
	cmd.Flags().Float64Var(&pressure, "pressure", 0.05, "short-range repulsion strength")
	cmd.Flags().Float64Var(&initSpin, "init-spin", 0.55, "circular velocity fraction blended in")
}
