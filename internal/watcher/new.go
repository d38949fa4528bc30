package watcher

import (
	"fmt"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/semaphore"

	"github.com/nguyentantai21042004/caption-notes/internal/logger"
)

// Options configure file matching and concurrency.
type Options struct {
	// Patterns are doublestar patterns matched against the file name.
	Patterns      []string
	SettleDelay   time.Duration
	MaxConcurrent int
}

// New creates a Watcher on inputDir.
func New(inputDir string, opts Options, handler EventHandler, log logger.Logger) (Watcher, error) {
	for _, p := range opts.Patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid watch pattern %q", p)
		}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(inputDir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("add watch path: %w", err)
	}

	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 2
	}
	if opts.SettleDelay <= 0 {
		opts.SettleDelay = 500 * time.Millisecond
	}

	return &implWatcher{
		inputDir: inputDir,
		opts:     opts,
		handler:  handler,
		logger:   log,
		watcher:  watcher,
		sem:      semaphore.NewWeighted(int64(opts.MaxConcurrent)),
		inFlight: make(map[string]struct{}),
	}, nil
}
