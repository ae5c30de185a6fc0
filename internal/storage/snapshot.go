package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/annel0/rts-engine/internal/world"
	"github.com/google/uuid"
)

// ErrSnapshotNotFound возвращается, если снимок с таким RunID отсутствует
var ErrSnapshotNotFound = errors.New("снимок карты не найден")

// MapSnapshot - результат одного прогона генерации: размеры, дамп местности и слоты игроков
type MapSnapshot struct {
	RunID     uuid.UUID             `json:"run_id"`
	Seed      int64                 `json:"seed"`
	Width     int                   `json:"width"`
	Height    int                   `json:"height"`
	Levels    int                   `json:"levels"`
	Terrain   string                `json:"terrain"`
	Players   []world.PlayerMapInfo `json:"players"`
	CreatedAt time.Time             `json:"created_at"`
}

// NewMapSnapshot фиксирует текущее состояние карты под новым RunID
func NewMapSnapshot(m *world.RTSMap, seed int64) (*MapSnapshot, error) {
	grid := m.Grid()
	if grid == nil {
		return nil, fmt.Errorf("%w: карта не инициализирована", world.ErrInvalidDimensions)
	}

	return &MapSnapshot{
		RunID:     uuid.New(),
		Seed:      seed,
		Width:     grid.XSize(),
		Height:    grid.YSize(),
		Levels:    grid.Levels(),
		Terrain:   m.Draw(),
		Players:   m.PlayerInfos(),
		CreatedAt: time.Now().UTC(),
	}, nil
}

// SameLayout сравнивает местность и слоты игроков, игнорируя RunID и время
func (s *MapSnapshot) SameLayout(other *MapSnapshot) bool {
	if s.Width != other.Width || s.Height != other.Height || s.Levels != other.Levels {
		return false
	}
	if s.Terrain != other.Terrain || len(s.Players) != len(other.Players) {
		return false
	}
	for i := range s.Players {
		if s.Players[i] != other.Players[i] {
			return false
		}
	}
	return true
}

// SnapshotStore хранит снимки сгенерированных карт
type SnapshotStore interface {
	Save(ctx context.Context, snap *MapSnapshot) error
	Load(ctx context.Context, runID uuid.UUID) (*MapSnapshot, error)
	Delete(ctx context.Context, runID uuid.UUID) error
	Close() error
}
