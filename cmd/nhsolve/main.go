// Command nhsolve drives the nonhydrostatic dynamical core on a doubly
// periodic test mesh.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/notargets/nhsolve/config"
	"github.com/notargets/nhsolve/dycore"
	"github.com/notargets/nhsolve/grid"
	"github.com/notargets/nhsolve/logging"
	"github.com/notargets/nhsolve/partitions"
	"github.com/notargets/nhsolve/timeloop"
	"github.com/spf13/cobra"
)

var (
	configFile string
	preset     string
	backend    string
	steps      int
	logLevel   string
	plot       bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "nhsolve",
		Short:        "nonhydrostatic dynamical core driver",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := logging.New(logLevel, false)
			if err != nil {
				return err
			}
			logging.SetLogger(l)
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "use preset configuration")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "integrate the configured case",
		RunE:  runSimulation,
	}
	runCmd.Flags().StringVar(&backend, "backend", "", "override backend (reference, occa, native)")
	runCmd.Flags().IntVar(&steps, "steps", -1, "override number of outer steps")
	runCmd.Flags().BoolVar(&plot, "plot", true, "plot diagnostics")

	headerCmd := &cobra.Command{
		Use:   "header",
		Short: "print the C header of the native entry points",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprint(cmd.OutOrStdout(), dycore.Header())
		},
	}

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "inspect and write configurations",
	}
	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return writeYAML(cmd.OutOrStdout(), cfg)
		},
	}, &cobra.Command{
		Use:   "init [path]",
		Short: "write the effective configuration to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return config.Save(args[0], cfg)
		},
	}, &cobra.Command{
		Use:   "presets",
		Short: "list preset names",
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range config.ListPresets() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
		},
	})

	partitionCmd := &cobra.Command{
		Use:   "partition",
		Short: "show the decomposition of the configured mesh",
		RunE:  showPartitions,
	}

	rootCmd.AddCommand(runCmd, headerCmd, configCmd, partitionCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig resolves --preset and --config. The file is read over the
// preset defaults only when no preset is named.
func loadConfig() (*config.Config, error) {
	switch {
	case preset != "" && configFile != "":
		return nil, fmt.Errorf("--preset and --config are mutually exclusive")
	case preset != "":
		cfg := config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset %q (have %v)", preset, config.ListPresets())
		}
		return cfg, nil
	case configFile != "":
		return config.Load(configFile)
	default:
		return config.DefaultConfig(), nil
	}
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if backend != "" {
		cfg.Run.Backend = backend
	}
	if steps >= 0 {
		cfg.Run.NSteps = steps
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	report, err := Simulate(ctx, cfg)
	out := cmd.OutOrStdout()
	if report != nil {
		fmt.Fprintln(out, renderReport(report))
		if plot {
			for _, g := range []struct {
				caption string
				pick    func(timeloop.Sample) float64
			}{
				{"max |w| [m/s]", func(s timeloop.Sample) float64 { return s.MaxW }},
				{"max |vn| [m/s]", func(s timeloop.Sample) float64 { return s.MaxVn }},
			} {
				if chart := renderSeries(report.Samples, g.caption, g.pick); chart != "" {
					fmt.Fprintln(out, chart)
				}
			}
		}
	}
	return err
}

func showPartitions(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	mesh, err := grid.NewTorus(cfg.Grid.Nx, cfg.Grid.Ny, cfg.Grid.EdgeLength)
	if err != nil {
		return err
	}
	strategy, err := partitions.ParseStrategy(cfg.Grid.Strategy)
	if err != nil {
		return err
	}
	pb := &partitions.PartitionBuilder{Mesh: mesh, NumPartitions: cfg.Grid.Partitions, Strategy: strategy}
	layout, err := pb.BuildPartitions()
	if err != nil {
		return err
	}
	hx, err := partitions.NewHaloExchange(layout, mesh)
	if err != nil {
		return err
	}
	if err := hx.Verify(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderPartitions(layout.PartitionStatistics(mesh), layout, hx))
	return nil
}
