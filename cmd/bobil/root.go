package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/muurk/bobil/internal/heater"
	"github.com/muurk/bobil/internal/version"
)

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "bobil",
		Short: "Campervan heater control utility",
		Long: `A command-line utility for campervan diesel heaters with a built-in
web interface.

Reads the heater status page, switches the air, water and combined heating
circuits, steps the target temperature, and can serve the heater over HTTP
with a WebSocket stream and Prometheus metrics.

Settings come from the config file (see 'bobil config show'); flags override
them.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
	}

	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.SetOut(a.out)
	rootCmd.SetIn(a.in)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.host, "host", "", "Heater address, e.g. 192.168.4.1 or heater.local:8080")
	flags.DurationVar(&a.timeout, "timeout", heater.DefaultTimeout, "Timeout for each request to the heater")
	flags.StringVar(&a.logLevel, "log-level", "", "Log level (debug, info, warn, error); silent when empty")
	flags.StringVar(&a.configPath, "config", "", "Config file (default is the user config dir)")

	rootCmd.AddCommand(
		newProbeCmd(a),
		newStatusCmd(a),
		newCircuitCmd(a, heater.CircuitAir, "Air heating"),
		newCircuitCmd(a, heater.CircuitWater, "Water heating"),
		newCircuitCmd(a, heater.CircuitCombined, "Combined air and water heating"),
		newTempCmd(a),
		newWatchCmd(a),
		newServeCmd(a),
		newConfigCmd(a),
		newVersionCmd(a),
	)

	return rootCmd
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.out, "bobil %s (commit: %s)\n", version.Version, version.Commit)
		},
	}
}
