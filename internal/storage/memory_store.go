package storage

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore хранит снимки в памяти процесса.
// Используется по умолчанию и в тестах; данные теряются при перезапуске.
type MemoryStore struct {
	mu    sync.RWMutex
	codec *snapshotCodec
	data  map[uuid.UUID][]byte
}

// NewMemoryStore создаёт пустое хранилище в памяти
func NewMemoryStore() (*MemoryStore, error) {
	codec, err := newSnapshotCodec()
	if err != nil {
		return nil, err
	}
	return &MemoryStore{codec: codec, data: make(map[uuid.UUID][]byte)}, nil
}

// Save сохраняет снимок (перезаписывая снимок с тем же RunID)
func (s *MemoryStore) Save(ctx context.Context, snap *MapSnapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := s.codec.encode(snap)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[snap.RunID] = payload
	return nil
}

// Load возвращает снимок или ErrSnapshotNotFound
func (s *MemoryStore) Load(ctx context.Context, runID uuid.UUID) (*MapSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	payload, ok := s.data[runID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSnapshotNotFound
	}
	return s.codec.decode(payload)
}

// Delete удаляет снимок; отсутствие снимка не ошибка
func (s *MemoryStore) Delete(ctx context.Context, runID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, runID)
	return nil
}

// Close освобождает кодек
func (s *MemoryStore) Close() error {
	s.codec.close()
	return nil
}
