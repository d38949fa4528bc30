package lock

import (
	"fmt"
	"path/filepath"

	"github.com/nguyentantai21042004/caption-notes/internal/config"
	"github.com/nguyentantai21042004/caption-notes/internal/logger"
)

// New creates the Locker selected by cfg.Lock.Backend.
func New(cfg *config.Config, log logger.Logger) (Locker, error) {
	switch cfg.Lock.Backend {
	case "", "file":
		return NewFile(filepath.Join(cfg.Paths.Temp, "locks"), cfg.Lock.StaleAfter, log)
	case "redis":
		return NewRedis(cfg.Lock.RedisAddr, cfg.Secrets.RedisPassword, cfg.Lock.RedisDB, cfg.Lock.TTL, log)
	default:
		return nil, fmt.Errorf("unknown lock backend %q", cfg.Lock.Backend)
	}
}
