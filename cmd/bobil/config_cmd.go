package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/bobil/internal/config"
	"github.com/muurk/bobil/internal/ui"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}
	cmd.AddCommand(newConfigInitCmd(a), newConfigShowCmd(a))
	return cmd
}

func (a *app) resolvedConfigPath() (string, error) {
	if a.configPath != "" {
		return a.configPath, nil
	}
	return config.GetConfigPath()
}

func newConfigInitCmd(a *app) *cobra.Command {
	var (
		force bool
		probe bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file from the current flags",
		Long: `Write the effective configuration (defaults, the existing file and any
flags given) to the config file.

An existing file is only replaced after confirmation, or with --force.`,
		Example: `  # Save the heater address
  bobil config init --host 192.168.4.1

  # Check the heater answers before saving
  bobil config init --host 192.168.4.1 --probe`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := a.resolvedConfigPath()
			if err != nil {
				return err
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}

			p := a.printer()
			if probe {
				client, err := a.client()
				if err != nil {
					return err
				}
				if _, err := client.Probe(cmd.Context()); err != nil {
					p.PrintDeviceError(err)
					return fmt.Errorf("probe failed, config not written: %w", err)
				}
			}

			if _, err := os.Stat(path); err == nil && !force {
				ok := ui.Confirm(a.in, a.out, "Config file exists",
					[]string{path, "Its contents will be replaced"},
					"Overwrite?")
				if !ok {
					return errors.New("config not written")
				}
			}

			if err := a.cfg.Save(path); err != nil {
				return err
			}

			r := ui.NewSuccessResult("Configuration saved").
				AddDetail("Path", path)
			if a.cfg.Device.Host != "" {
				r.AddDetail("Heater", a.cfg.Device.Host)
			}
			p.PrintResult(r)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file without asking")
	cmd.Flags().BoolVar(&probe, "probe", false, "Probe the heater before writing")
	return cmd
}

func newConfigShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := a.cfg.Marshal()
			if err != nil {
				return err
			}
			path, err := a.resolvedConfigPath()
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "# %s\n", path)
			_, err = a.out.Write(data)
			return err
		},
	}
}
