package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/muurk/bobil/internal/heater"
	"github.com/muurk/bobil/internal/ui"
)

// Output formats for status
const (
	formatDetailed = "detailed"
	formatCompact  = "compact"
	formatJSON     = "json"
)

func newProbeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "probe",
		Short: "Check that the heater is reachable",
		Long: `Fetch the heater status page once to check that the configured host is a
reachable heater.

On failure the output tells connection problems (timeouts, refused
connections, HTTP errors) apart from unexpected errors, with troubleshooting
hints for each.`,
		Example: `  # Probe a heater before saving it to the config
  bobil probe --host 192.168.4.1`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.client()
			if err != nil {
				return err
			}

			p := a.printer()
			snapshot, err := client.Probe(cmd.Context())
			if err != nil {
				p.PrintDeviceError(err)
				return fmt.Errorf("probe failed: %w", err)
			}

			r := ui.NewSuccessResult("Heater reachable").
				AddDetail("Host", client.Host).
				AddDetail("Fields reported", strconv.Itoa(len(snapshot.Fields())))
			if snapshot.SystemNumber != nil {
				r.AddDetail("System number", *snapshot.SystemNumber)
			}
			p.PrintResult(r)
			return nil
		},
	}
}

func newStatusCmd(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the current heater status",
		Long: `Fetch the heater status page and display temperatures, water level and
the state of each heating circuit. Measurements the heater did not report are
shown as n/a (or omitted in JSON).`,
		Example: `  # Styled output
  bobil status

  # One line, e.g. for a status bar
  bobil status --format compact

  # JSON for scripts
  bobil status --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch format {
			case formatDetailed, formatCompact, formatJSON:
			default:
				return fmt.Errorf("invalid format %q (expected %s, %s or %s)", format, formatDetailed, formatCompact, formatJSON)
			}

			st, err := a.stack()
			if err != nil {
				return err
			}

			snapshot, err := st.coordinator.Refresh(cmd.Context())
			if err != nil {
				if format != formatJSON {
					a.printer().PrintDeviceError(err)
				}
				return err
			}

			return printSnapshot(a, snapshot, format)
		},
	}

	cmd.Flags().StringVar(&format, "format", formatDetailed, "Output format (detailed, compact, json)")
	return cmd
}

func printSnapshot(a *app, snapshot *heater.Snapshot, format string) error {
	p := a.printer()
	switch format {
	case formatJSON:
		data, err := json.MarshalIndent(snapshot, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		p.Println(string(data))
	case formatCompact:
		p.Println(ui.StatusSummary(snapshot))
	default:
		p.PrintStatus(snapshot, false)
	}
	return nil
}

func newCircuitCmd(a *app, circuit heater.Circuit, title string) *cobra.Command {
	name := string(circuit)
	return &cobra.Command{
		Use:       name + " on|off|toggle",
		Short:     "Switch " + strings.ToLower(title) + " on or off",
		Long:      title + " control. The new state is read back after a short settle delay.",
		Example:   fmt.Sprintf("  bobil %s on\n  bobil %s toggle", name, name),
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"on", "off", "toggle"},
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.stack()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			var snapshot *heater.Snapshot
			switch args[0] {
			case "toggle":
				// Toggle needs the current state first
				if _, err = st.coordinator.Refresh(ctx); err == nil {
					snapshot, err = st.controller.Toggle(ctx, circuit)
				}
			default:
				snapshot, err = st.controller.Switch(ctx, circuit, args[0] == "on")
			}
			if err != nil {
				a.printer().PrintDeviceError(err)
				return err
			}

			state := ui.FormatSwitch(nil)
			if on, ok := snapshot.Status(circuit); ok {
				state = ui.FormatSwitch(&on)
			}
			a.printer().Println(fmt.Sprintf("%s %s is now %s", ui.SuccessMarker, title, state))
			return nil
		},
	}
}

func newTempCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "temp up|down",
		Short:     "Step the target air temperature",
		Long:      "Press the heater's temperature up or down button once and show the new target.",
		Example:   "  bobil temp up",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down"},
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.stack()
			if err != nil {
				return err
			}

			command := heater.CommandTempUp
			if args[0] == "down" {
				command = heater.CommandTempDown
			}

			snapshot, err := st.controller.Execute(cmd.Context(), command)
			if err != nil {
				a.printer().PrintDeviceError(err)
				return err
			}

			a.printer().Println(fmt.Sprintf("%s Target temperature is now %s",
				ui.SuccessMarker, ui.FormatTemperature(snapshot.AirTemperatureTarget)))
			return nil
		},
	}
}
