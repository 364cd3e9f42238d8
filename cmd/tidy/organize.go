package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"tidy/internal/app"
	"tidy/internal/engine"
	"tidy/internal/output"
)

// newOutput builds an Output on the command's streams.
func newOutput(cmd *cobra.Command, verbose bool) *output.Output {
	tty := false
	if f, ok := cmd.OutOrStdout().(*os.File); ok {
		tty = term.IsTerminal(int(f.Fd()))
	}
	return output.New(output.Config{
		Verbose:   verbose,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Input:     cmd.InOrStdin(),
		IsTTY:     tty,
	})
}

var organizeCmd = &cobra.Command{
	Use:   "organize FOLDER",
	Short: "Back up a folder, then sort its files into Category/Year/Month/Size",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 || args[0] == "" {
			return plainError("Please select a folder!")
		}
		skip, _ := cmd.Flags().GetString("skip")
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		verbose, _ := cmd.Flags().GetBool("verbose")

		a, u, err := login(cmd, "Organize")
		if err != nil {
			return err
		}
		defer a.Close()

		req, err := a.Request(u.Name, args[0], skip)
		if err != nil {
			return err
		}
		if dryRun {
			return printPlan(cmd, a, req)
		}

		o := newOutput(cmd, verbose)
		res, err := o.Render(a.Start(cmd.Context(), req))
		if err != nil {
			// Files already moved stay undoable; show what happened.
			if res != nil && res.Result != nil && res.Result.Moved() > 0 {
				o.Info("%s", engine.FormatSummary(res))
				warnActivity(o, res.Result.ActivityErrors)
			}
			return &organizeError{err: err}
		}
		o.Info("%s", engine.FormatSummary(res))
		warnActivity(o, res.Result.ActivityErrors)
		return nil
	},
}

// warnActivity reports activity lines that could not be written.
func warnActivity(o *output.Output, n int) {
	if n > 0 {
		o.Error("Warning: %d activity log entries could not be written; see tidy.log.", n)
	}
}

func printPlan(cmd *cobra.Command, a *app.App, req engine.Request) error {
	plan, err := a.Plan(cmd.Context(), req)
	if err != nil {
		return &organizeError{err: err}
	}
	out := cmd.OutOrStdout()
	if len(plan) == 0 {
		fmt.Fprintln(out, engine.NoFilesMessage)
		return nil
	}
	for _, p := range plan {
		rel, err := filepath.Rel(req.Folder, p.Destination)
		if err != nil {
			rel = p.Destination
		}
		fmt.Fprintf(out, "%s → %s\n", filepath.Base(p.Source), rel)
	}
	fmt.Fprintf(out, "\n%d file(s) would be organized. Nothing was changed.\n", len(plan))
	return nil
}
