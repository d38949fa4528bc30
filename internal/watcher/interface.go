package watcher

import "context"

// Watcher monitors a drop folder and hands every new matching file to a handler.
type Watcher interface {
	Start(ctx context.Context) error
	Stop() error
}

// EventHandler processes one settled file.
type EventHandler func(ctx context.Context, filePath string) error
