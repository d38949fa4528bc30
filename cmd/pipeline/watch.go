package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nguyentantai21042004/caption-notes/internal/orchestrator"
	"github.com/nguyentantai21042004/caption-notes/internal/watcher"
	"github.com/nguyentantai21042004/caption-notes/internal/writer"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Generate notes for every video dropped into the input folder",
	Long: `Monitor paths.input. Each new video gets its own output folder named after the file,
and is moved to paths.archived once its note is written.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx)
		if err != nil {
			return usageError(err)
		}
		defer a.Close()

		for _, dir := range []string{a.cfg.Paths.Input, a.cfg.Paths.Archived} {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return usageError(err)
			}
		}

		w, err := watcher.New(a.cfg.Paths.Input, watcher.Options{
			Patterns:      a.cfg.Watch.Patterns,
			SettleDelay:   a.cfg.Watch.SettleDelay,
			MaxConcurrent: a.cfg.Performance.MaxConcurrent,
		}, a.handleDrop, a.log)
		if err != nil {
			return usageError(err)
		}
		defer w.Stop()

		a.log.Info(ctx, "========================================")
		a.log.Info(ctx, "Note pipeline is ready!")
		a.log.Info(ctx, "Monitoring: %s", a.cfg.Paths.Input)
		a.log.Info(ctx, "Output: %s", a.cfg.Paths.Output)
		a.log.Info(ctx, "Press Ctrl+C to stop")
		a.log.Info(ctx, "========================================")

		if err := w.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return &exitError{code: orchestrator.ExitUsage, err: err}
		}
		a.log.Info(ctx, "Note pipeline stopped")
		return nil
	},
}

// handleDrop runs one dropped file into <output>/<file stem>/ and archives it on success.
func (a *app) handleDrop(ctx context.Context, path string) error {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	res, err := a.orch.Run(ctx, path, orchestrator.Options{
		OutputDir:        filepath.Join(a.cfg.Paths.Output, writer.SanitizeTitle(stem)),
		PersistSubtitles: !a.cfg.Output.SkipSubtitles,
		ExportDocx:       a.cfg.Output.ExportDocx,
	})
	if err != nil {
		return err
	}

	dest, err := watcher.Archive(path, a.cfg.Paths.Archived, time.Now())
	if err != nil {
		a.log.Warn(ctx, "Failed to move original to archived folder: %v", err)
		return nil
	}
	a.log.Info(ctx, "Note written to %s, source archived to %s", res.MarkdownPath, dest)
	return nil
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
