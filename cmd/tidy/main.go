// Command tidy sorts the files of a folder into Category/Year/Month/Size
// directories, with a backup before every run and a one-step undo.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tidy/internal/app"
	"tidy/internal/config"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, userMessage(err))
		os.Exit(1)
	}
}

// loadConfig reads the config file on top of the defaults. A missing file
// is fine; defaults are used.
func loadConfig() (*config.Config, app.Paths, error) {
	paths, err := app.DefaultPaths()
	if err != nil {
		return nil, app.Paths{}, fmt.Errorf("getting defaults: %w", err)
	}
	cfg, err := paths.LoadConfig()
	if err != nil {
		return nil, app.Paths{}, err
	}
	return cfg, paths, nil
}

// newApp reads the config and creates an App. The caller must defer a.Close().
func newApp(operation string) (*app.App, error) {
	cfg, _, err := loadConfig()
	if err != nil {
		return nil, err
	}
	a, err := app.New(cfg, operation)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

var rootCmd = &cobra.Command{
	Use:           "tidy",
	Short:         "Organize a folder by file type, date and size",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configCheckCmd)

	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(userRegisterCmd)

	for _, c := range []*cobra.Command{userRegisterCmd, organizeCmd, undoCmd, logCmd, backupsCmd, historyCmd, watchCmd} {
		c.Flags().StringP("user", "u", "", "Account name")
		c.MarkFlagRequired("user")
	}

	rootCmd.AddCommand(organizeCmd)
	organizeCmd.Flags().String("skip", "", "Comma-separated extensions to leave in place, e.g. .txt,.jpg")
	organizeCmd.Flags().Bool("dry-run", false, "Show where files would go without backing up or moving anything")
	organizeCmd.Flags().BoolP("verbose", "v", false, "Print one line per file")

	rootCmd.AddCommand(undoCmd)
	undoCmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")

	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(backupsCmd)

	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntP("limit", "n", 20, "Maximum number of runs to show")

	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().String("skip", "", "Comma-separated extensions to leave in place")
}
