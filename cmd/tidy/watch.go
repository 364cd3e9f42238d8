package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"tidy/internal/apperr"
	"tidy/internal/engine"
	"tidy/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch FOLDER",
	Short: "Organize a folder whenever new files arrive, until interrupted",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		skip, _ := cmd.Flags().GetString("skip")

		a, u, err := login(cmd, "Watch")
		if err != nil {
			return err
		}
		defer a.Close()

		req, err := a.Request(u.Name, args[0], skip)
		if err != nil {
			return err
		}
		if _, err := os.Stat(req.Folder); err != nil {
			return apperr.New(apperr.FolderNotFound, "watch", req.Folder, err)
		}

		o := newOutput(cmd, false)
		run := func(ctx context.Context) (int, error) {
			res, err := a.Organize(ctx, req)
			if res != nil && res.Result != nil && res.Result.Moved() > 0 {
				o.Info("%s", engine.FormatSummary(res))
			}
			if err != nil {
				o.Error("Organization failed: %v", err)
				return 0, err
			}
			return res.Result.Moved(), nil
		}

		w, err := watcher.New(watcher.FromConfig(a.Config().Watch), run, a.Logger().With("component", "watcher"))
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if err := w.Start(ctx, req.Folder); err != nil {
			return err
		}
		o.Info("Watching %s. Press Ctrl+C to stop.", req.Folder)

		<-ctx.Done()
		s := w.Stop()
		o.Info("\nWatch session: %d run(s), %d file(s) organized, %d ignored, %d failure(s) in %s.",
			s.Runs, s.FilesOrganized, s.FilesIgnored, s.Failures, s.Duration.Truncate(time.Second))
		return nil
	},
}
