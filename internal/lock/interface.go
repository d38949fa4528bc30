package lock

import "context"

// Locker grants exclusive, run-scoped ownership of a key. Acquire fails fast with
// models.ErrLocked when another holder owns the key.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
	Close() error
}
