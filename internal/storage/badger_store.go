package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/google/uuid"
)

// BadgerStore хранит снимки карт во встроенной BadgerDB
type BadgerStore struct {
	db      *badger.DB
	codec   *snapshotCodec
	ttl     time.Duration
	mutex   sync.RWMutex
	isReady bool
}

// NewBadgerStore открывает BadgerDB в каталоге <dataPath>/snapshots.
// Пустой dataPath открывает базу в памяти. ttl <= 0 хранит снимки бессрочно.
func NewBadgerStore(dataPath string, ttl time.Duration) (*BadgerStore, error) {
	var opts badger.Options
	if dataPath == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(filepath.Join(dataPath, "snapshots"))
	}
	opts.Logger = nil // Отключаем логирование BadgerDB

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть BadgerDB: %w", err)
	}

	codec, err := newSnapshotCodec()
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BadgerStore{db: db, codec: codec, ttl: ttl, isReady: true}, nil
}

func snapshotKey(runID uuid.UUID) []byte {
	return []byte("snapshot:" + runID.String())
}

// Save сохраняет снимок
func (s *BadgerStore) Save(ctx context.Context, snap *MapSnapshot) error {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if !s.isReady {
		return fmt.Errorf("хранилище не готово")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := s.codec.encode(snap)
	if err != nil {
		return err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(snapshotKey(snap.RunID), payload)
		if s.ttl > 0 {
			entry = entry.WithTTL(s.ttl)
		}
		return txn.SetEntry(entry)
	})
	if err != nil {
		return fmt.Errorf("ошибка сохранения в BadgerDB: %w", err)
	}
	return nil
}

// Load читает снимок или возвращает ErrSnapshotNotFound
func (s *BadgerStore) Load(ctx context.Context, runID uuid.UUID) (*MapSnapshot, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if !s.isReady {
		return nil, fmt.Errorf("хранилище не готово")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var payload []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(snapshotKey(runID))
		if err != nil {
			return err
		}
		payload, err = item.ValueCopy(nil)
		return err
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения из BadgerDB: %w", err)
	}
	return s.codec.decode(payload)
}

// Delete удаляет снимок
func (s *BadgerStore) Delete(ctx context.Context, runID uuid.UUID) error {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if !s.isReady {
		return fmt.Errorf("хранилище не готово")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(snapshotKey(runID))
	})
	if err != nil {
		return fmt.Errorf("ошибка удаления из BadgerDB: %w", err)
	}
	return nil
}

// Close закрывает базу; повторный вызов безопасен
func (s *BadgerStore) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.isReady {
		return nil
	}

	s.isReady = false
	s.codec.close()
	return s.db.Close()
}
