package lock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nguyentantai21042004/caption-notes/internal/logger"
	"github.com/nguyentantai21042004/caption-notes/internal/models"
)

type implFile struct {
	dir        string
	staleAfter time.Duration
	logger     logger.Logger
	now        func() time.Time
}

// NewFile creates a Locker backed by exclusive-create lock files in dir. A holder touches its
// lock file every staleAfter/3; a lock file not touched for staleAfter is treated as left
// behind by a crashed run and taken over.
func NewFile(dir string, staleAfter time.Duration, log logger.Logger) (Locker, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create lock dir: %w", err)
	}
	return &implFile{dir: dir, staleAfter: staleAfter, logger: log, now: time.Now}, nil
}

func (l *implFile) Acquire(ctx context.Context, key string) (func(), error) {
	path := filepath.Join(l.dir, key+".lock")
	token := uuid.NewString()

	for attempt := 0; attempt < 2; attempt++ {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
		if err == nil {
			_, werr := fmt.Fprintf(f, "%s\n%d\n%s\n", token, os.Getpid(), l.now().UTC().Format(time.RFC3339))
			cerr := f.Close()
			if werr != nil || cerr != nil {
				os.Remove(path)
				return nil, fmt.Errorf("write lock file: %w", errors.Join(werr, cerr))
			}
			l.logger.Debug(ctx, "Lock acquired: %s", key)
			stop := heartbeat(l.staleAfter/3, func() { l.touch(ctx, path, token) })
			var once sync.Once
			return func() {
				once.Do(func() {
					stop()
					l.release(ctx, path, token)
				})
			}, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create lock file: %w", err)
		}
		if attempt > 0 || !l.stale(path) {
			break
		}
		l.logger.Warn(ctx, "Removing stale lock %s", path)
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("remove stale lock: %w", err)
		}
	}
	return nil, models.NewError(models.ErrLocked, "locked", fmt.Errorf("another run holds %s", key))
}

func (l *implFile) stale(path string) bool {
	if l.staleAfter <= 0 {
		return false
	}
	info, err := os.Stat(path)
	if err != nil {
		return errors.Is(err, os.ErrNotExist)
	}
	return l.now().Sub(info.ModTime()) > l.staleAfter
}

// touch refreshes the lock file's mtime while it still carries token.
func (l *implFile) touch(ctx context.Context, path, token string) {
	if !l.owns(path, token) {
		return
	}
	now := l.now()
	if err := os.Chtimes(path, now, now); err != nil {
		l.logger.Warn(ctx, "Failed to refresh lock %s: %v", path, err)
	}
}

func (l *implFile) owns(path, token string) bool {
	raw, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	first, _, _ := strings.Cut(string(raw), "\n")
	return first == token
}

// release removes the lock file only while it still carries this holder's token.
func (l *implFile) release(ctx context.Context, path, token string) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	if !l.owns(path, token) {
		l.logger.Warn(ctx, "Lock %s was taken over, leaving it in place", path)
		return
	}
	if err := os.Remove(path); err != nil {
		l.logger.Warn(ctx, "Failed to release lock %s: %v", path, err)
	}
}

func (l *implFile) Close() error { return nil }
