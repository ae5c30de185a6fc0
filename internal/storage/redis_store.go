package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/annel0/rts-engine/internal/logging"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// RedisConfig содержит настройки подключения к Redis
type RedisConfig struct {
	Addr      string        // Адрес Redis сервера
	Password  string        // Пароль (пустой если не требуется)
	DB        int           // Номер базы данных
	KeyPrefix string        // Префикс для ключей
	TTL       time.Duration // Время жизни снимков (0 - бессрочно)
}

// DefaultRedisConfig возвращает конфигурацию по умолчанию
func DefaultRedisConfig() *RedisConfig {
	return &RedisConfig{
		Addr:      "localhost:6379",
		KeyPrefix: "rts:snapshot:",
		TTL:       24 * time.Hour,
	}
}

// RedisStore хранит сжатые снимки карт в Redis
type RedisStore struct {
	client    *redis.Client
	codec     *snapshotCodec
	keyPrefix string
	ttl       time.Duration
}

// NewRedisStore подключается к Redis и проверяет соединение
func NewRedisStore(ctx context.Context, config *RedisConfig) (*RedisStore, error) {
	if config == nil {
		config = DefaultRedisConfig()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("не удалось подключиться к Redis %s: %w", config.Addr, err)
	}

	codec, err := newSnapshotCodec()
	if err != nil {
		client.Close()
		return nil, err
	}

	logging.GetStorageLogger().Info("🔴 Подключено к Redis %s", config.Addr)
	return &RedisStore{
		client:    client,
		codec:     codec,
		keyPrefix: config.KeyPrefix,
		ttl:       config.TTL,
	}, nil
}

func (s *RedisStore) key(runID uuid.UUID) string {
	return s.keyPrefix + runID.String()
}

// Save сохраняет снимок с TTL хранилища
func (s *RedisStore) Save(ctx context.Context, snap *MapSnapshot) error {
	payload, err := s.codec.encode(snap)
	if err != nil {
		return err
	}

	if err := s.client.Set(ctx, s.key(snap.RunID), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("ошибка записи снимка в Redis: %w", err)
	}
	return nil
}

// Load читает снимок или возвращает ErrSnapshotNotFound
func (s *RedisStore) Load(ctx context.Context, runID uuid.UUID) (*MapSnapshot, error) {
	payload, err := s.client.Get(ctx, s.key(runID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения снимка из Redis: %w", err)
	}
	return s.codec.decode(payload)
}

// Delete удаляет снимок
func (s *RedisStore) Delete(ctx context.Context, runID uuid.UUID) error {
	if err := s.client.Del(ctx, s.key(runID)).Err(); err != nil {
		return fmt.Errorf("ошибка удаления снимка из Redis: %w", err)
	}
	return nil
}

// Close закрывает соединение
func (s *RedisStore) Close() error {
	s.codec.close()
	return s.client.Close()
}
