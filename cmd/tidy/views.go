package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Show your activity log",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, u, err := login(cmd, "ViewLog")
		if err != nil {
			return err
		}
		defer a.Close()

		text, err := a.ActivityLog(u.Name)
		if err != nil {
			return fmt.Errorf("reading log file: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), text)
		return nil
	},
}

var backupsCmd = &cobra.Command{
	Use:   "backups",
	Short: "List your backup snapshots",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, u, err := login(cmd, "ListBackups")
		if err != nil {
			return err
		}
		defer a.Close()

		snaps, err := a.Backups(u.Name)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(snaps) == 0 {
			fmt.Fprintln(out, "No backups yet.")
			return nil
		}
		for _, s := range snaps {
			fmt.Fprintf(out, "%s  %4d file(s)  %s\n", s.Taken.Format("2006-01-02 15:04:05"), s.Files, s.Path)
		}
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show your recent organize and undo runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, u, err := login(cmd, "History")
		if err != nil {
			return err
		}
		defer a.Close()

		runs, err := a.History(cmd.Context(), u.Name, limit)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(runs) == 0 {
			fmt.Fprintln(out, "No runs recorded.")
			return nil
		}
		for _, r := range runs {
			fmt.Fprintf(out, "%s  %-8s  %s  %-9s  %4d file(s)  %s  %s\n",
				r.ID,
				r.Type,
				r.StartedAt.Format("2006-01-02 15:04:05"),
				r.Status,
				r.Files,
				r.Duration().Truncate(time.Millisecond),
				r.Folder,
			)
		}
		return nil
	},
}
