package watcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/semaphore"

	"github.com/nguyentantai21042004/caption-notes/internal/logger"
)

type implWatcher struct {
	inputDir string
	opts     Options
	handler  EventHandler
	logger   logger.Logger
	watcher  *fsnotify.Watcher
	sem      *semaphore.Weighted
	wg       sync.WaitGroup

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// Start processes files already in the folder, then every newly created matching file.
// It returns when ctx is done, after in-flight handlers finish.
func (w *implWatcher) Start(ctx context.Context) error {
	w.logger.Info(ctx, "File watcher started (max concurrent: %d). Monitoring: %s", w.opts.MaxConcurrent, w.inputDir)
	w.logger.Info(ctx, "Patterns: %s", strings.Join(w.opts.Patterns, ", "))

	entries, err := os.ReadDir(w.inputDir)
	if err != nil {
		return fmt.Errorf("scan input dir: %w", err)
	}
	for _, e := range entries {
		if !e.IsDir() {
			w.consider(ctx, filepath.Join(w.inputDir, e.Name()))
		}
	}

	for {
		select {
		case <-ctx.Done():
			w.logger.Info(ctx, "Waiting for ongoing processing to complete...")
			w.wg.Wait()
			w.logger.Info(ctx, "File watcher stopped")
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if event.Op.Has(fsnotify.Create) {
				w.consider(ctx, event.Name)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error(ctx, "Watcher error: %v", err)
		}
	}
}

func (w *implWatcher) consider(ctx context.Context, path string) {
	if !Matches(w.opts.Patterns, path) {
		w.logger.Debug(ctx, "Ignoring non-matching file: %s", path)
		return
	}

	w.mu.Lock()
	if _, busy := w.inFlight[path]; busy {
		w.mu.Unlock()
		return
	}
	w.inFlight[path] = struct{}{}
	w.mu.Unlock()

	w.logger.Info(ctx, "New file detected: %s", path)

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer func() {
			w.mu.Lock()
			delete(w.inFlight, path)
			w.mu.Unlock()
		}()

		if err := w.settle(ctx, path); err != nil {
			if ctx.Err() == nil {
				w.logger.Warn(ctx, "Skipping %s: %v", path, err)
			}
			return
		}
		if err := w.sem.Acquire(ctx, 1); err != nil {
			return
		}
		defer w.sem.Release(1)

		if err := w.handler(ctx, path); err != nil {
			w.logger.Error(ctx, "Failed to process %s: %v", path, err)
		}
	}()
}

// settle waits until the file size stops changing across one settle delay.
func (w *implWatcher) settle(ctx context.Context, path string) error {
	last := int64(-1)
	for {
		info, err := os.Stat(path)
		if err != nil {
			return err
		}
		if info.Size() == last && last > 0 {
			return nil
		}
		last = info.Size()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(w.opts.SettleDelay):
		}
	}
}

// Stop closes the file watcher.
func (w *implWatcher) Stop() error {
	return w.watcher.Close()
}

// Matches reports whether the file name matches any pattern, case-insensitively.
func Matches(patterns []string, path string) bool {
	name := strings.ToLower(filepath.Base(path))
	if strings.HasPrefix(name, ".") {
		return false
	}
	for _, p := range patterns {
		if ok, _ := doublestar.Match(strings.ToLower(p), name); ok {
			return true
		}
	}
	return false
}

// Archive moves a processed source into archivedDir, adding a timestamp suffix when the
// name is already taken.
func Archive(src, archivedDir string, now time.Time) (string, error) {
	if err := os.MkdirAll(archivedDir, 0755); err != nil {
		return "", fmt.Errorf("create archived dir: %w", err)
	}
	dest := filepath.Join(archivedDir, filepath.Base(src))
	if _, err := os.Stat(dest); err == nil {
		ext := filepath.Ext(dest)
		dest = strings.TrimSuffix(dest, ext) + "_" + now.Format("20060102-150405") + ext
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("stat archive target: %w", err)
	}
	if err := os.Rename(src, dest); err != nil {
		return "", fmt.Errorf("move to archived: %w", err)
	}
	return dest, nil
}
