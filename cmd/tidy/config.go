package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tidy/internal/app"
	"tidy/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with default values",
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, err := app.DefaultPaths()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := paths.BaseConfig()
		if err := config.Init(paths.ConfigFile, cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Configuration initialized at %s\n", paths.ConfigFile)
		fmt.Fprintf(out, "Data Dir: %s\n", cfg.DataDir)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, paths, err := loadConfig()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "# effective configuration (file: %s)\n", paths.ConfigFile)
		m := &config.Manager{}
		return m.Write(out, cfg)
	},
}

var configCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that configured directories are usable",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		res := config.ValidateConfig(cfg)
		out := cmd.OutOrStdout()
		for _, e := range res.Errors {
			fmt.Fprintf(out, "error   %s: %s\n", e.Field, e.Message)
		}
		for _, w := range res.Warnings {
			fmt.Fprintf(out, "warning %s: %s\n", w.Field, w.Message)
		}
		if !res.Valid {
			return fmt.Errorf("configuration has %d error(s)", len(res.Errors))
		}
		fmt.Fprintln(out, "Configuration OK.")
		return nil
	},
}
