package main

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/nguyentantai21042004/caption-notes/internal/acquirer"
	"github.com/nguyentantai21042004/caption-notes/internal/completion"
	"github.com/nguyentantai21042004/caption-notes/internal/config"
	"github.com/nguyentantai21042004/caption-notes/internal/lock"
	"github.com/nguyentantai21042004/caption-notes/internal/logger"
	"github.com/nguyentantai21042004/caption-notes/internal/orchestrator"
	"github.com/nguyentantai21042004/caption-notes/internal/retry"
	"github.com/nguyentantai21042004/caption-notes/internal/synthesizer"
	"github.com/nguyentantai21042004/caption-notes/internal/transcriber"
	"github.com/nguyentantai21042004/caption-notes/internal/writer"
	"github.com/nguyentantai21042004/caption-notes/pkg/executor"
)

// app holds the wired pipeline for one CLI invocation.
type app struct {
	cfg    *config.Config
	log    logger.Logger
	orch   orchestrator.Orchestrator
	writer writer.Writer
	locker lock.Locker
}

func loadConfig() (*config.Config, logger.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	level := cfg.Logging.Level
	if verbose {
		level = "debug"
	}
	return cfg, logger.New(level, cfg.Logging.Format), nil
}

func newApp(ctx context.Context) (*app, error) {
	cfg, log, err := loadConfig()
	if err != nil {
		return nil, err
	}

	log.Info(ctx, "System: %s/%s, CPU cores: %d", runtime.GOOS, runtime.GOARCH, runtime.NumCPU())

	if err := ensureDirectories(cfg); err != nil {
		return nil, err
	}

	exec := executor.New()
	checkBinaries(ctx, cfg, exec, log)

	completer, err := completion.New(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("completion backend: %w", err)
	}
	tr, err := transcriber.New(cfg, exec, log)
	if err != nil {
		return nil, fmt.Errorf("transcriber backend: %w", err)
	}
	locker, err := lock.New(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("lock backend: %w", err)
	}

	syn := synthesizer.New(completer, synthesizer.Options{
		MaxWindowRunes:  cfg.Synthesis.MaxWindowRunes,
		SummaryMaxRunes: cfg.Synthesis.SummaryMaxRunes,
		FallbackTitle:   cfg.Synthesis.FallbackTitle,
		CallTimeout:     cfg.Completion.Timeout,
		Retry: retry.Policy{
			MaxAttempts:    cfg.Retry.MaxAttempts,
			InitialBackoff: cfg.Retry.InitialBackoff,
			MaxBackoff:     cfg.Retry.MaxBackoff,
		},
	}, log)

	w := writer.New(log)
	orch := orchestrator.New(cfg, orchestrator.Deps{
		Acquirer:          acquirer.New(cfg, exec, log),
		Transcriber:       tr,
		Synthesizer:       syn,
		Writer:            w,
		Locker:            locker,
		CompletionModel:   completer.Model(),
		CompletionBackend: completer.Backend(),
	}, log)

	log.Info(ctx, "Transcriber: %s, completion: %s (%s)", tr.Name(), completer.Backend(), completer.Model())
	return &app{cfg: cfg, log: log, orch: orch, writer: w, locker: locker}, nil
}

func (a *app) Close() {
	if err := a.locker.Close(); err != nil {
		a.log.Warn(context.Background(), "Close lock backend: %v", err)
	}
	a.log.Sync()
}

// checkBinaries warns about external tools that are not on PATH; runs resuming from a saved
// transcript do not need them.
func checkBinaries(ctx context.Context, cfg *config.Config, exec executor.Executor, log logger.Logger) {
	bins := []string{cfg.Acquirer.FFmpegPath, cfg.Acquirer.YtDlpPath}
	if cfg.Transcriber.Backend == "whisper" {
		bins = append(bins, cfg.Whisper.BinaryPath)
	}
	for _, b := range bins {
		if _, err := exec.LookPath(b); err != nil {
			log.Warn(ctx, "%v", err)
		}
	}
}

func ensureDirectories(cfg *config.Config) error {
	for _, dir := range []string{cfg.Paths.Output, cfg.Paths.Temp} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}
