package storage

import (
	"context"
	"fmt"

	"github.com/annel0/rts-engine/internal/config"
)

// NewSnapshotStore создаёт хранилище снимков по cfg.Driver
func NewSnapshotStore(ctx context.Context, cfg config.StorageConfig) (SnapshotStore, error) {
	switch cfg.Driver {
	case "", "memory":
		return NewMemoryStore()
	case "badger":
		return NewBadgerStore(cfg.Path, cfg.TTL)
	case "redis":
		return NewRedisStore(ctx, &RedisConfig{
			Addr:      cfg.RedisAddr,
			DB:        cfg.RedisDB,
			KeyPrefix: cfg.KeyPrefix,
			TTL:       cfg.TTL,
		})
	default:
		return nil, fmt.Errorf("неизвестный драйвер хранилища: %q", cfg.Driver)
	}
}
