package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tidy/internal/engine"
)

const undoPrompt = "Are you sure you want to undo the last organization?"

var undoCmd = &cobra.Command{
	Use:   "undo",
	Short: "Move the files of your last organize back where they were",
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")

		a, u, err := login(cmd, "Undo")
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		preview, err := a.PreviewUndo(ctx, u.Name)
		if err != nil {
			return err
		}

		o := newOutput(cmd, false)
		o.Info("%d file(s) will be moved back.", len(preview.Restore))
		if n := len(preview.Missing); n > 0 {
			o.Info("%d file(s) are no longer at their organized location and will be left alone.", n)
		}
		if !yes && !o.Confirm(undoPrompt) {
			o.Info("Undo cancelled.")
			return nil
		}

		res, err := a.Undo(ctx, u.Name)
		if err != nil {
			if res != nil && res.Restored > 0 {
				o.Info("Restored %d of %d files before the error; run undo again to retry the rest.", res.Restored, res.Total)
			}
			return fmt.Errorf("undo failed: %w", err)
		}
		o.Info("%s", engine.FormatUndo(res.Restored))
		warnActivity(o, res.ActivityErrors)
		return nil
	},
}
