package world

import (
	"context"
	"fmt"
	"time"

	"github.com/annel0/rts-engine/internal/logging"
	"github.com/annel0/rts-engine/internal/physics"
	"github.com/annel0/rts-engine/internal/vec"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// UnitRadius - радиус диска каждого юнита в клетках
const UnitRadius = 0.3

// GenerationObserver получает события генерации (метрики, отладка)
type GenerationObserver interface {
	AttemptStarted(attempt int)
	PlayerPlacementFailed(player PlayerID)
	MapGenerated(attempts int, elapsed time.Duration)
	GenerationFailed(attempts int)
}

type noopObserver struct{}

func (noopObserver) AttemptStarted(int) {}
func (noopObserver) PlayerPlacementFailed(PlayerID) {}
func (noopObserver) MapGenerated(int, time.Duration) {}
func (noopObserver) GenerationFailed(int) {}

// RTSMap объединяет сетку местности, слоты игроков, индекс юнитов и таблицу расстояний.
// Структура не синхронизирована: движок обращается к ней из одного владельца за тик.
type RTSMap struct {
	grid      *Grid
	infos     []PlayerMapInfo
	locality  *SpatialIndex
	distances *DistanceTable

	opts     GeneratorOptions
	observer GenerationObserver
	logger   *logging.Logger
	unit     *physics.CircleCollider
}

// NewRTSMap создаёт пустую карту; перед использованием вызывается InitMap или LoadDefaultMap
func NewRTSMap(opts GeneratorOptions) *RTSMap {
	if opts.Obstacles == "" {
		opts.Obstacles = ObstacleUniform
	}

	return &RTSMap{
		locality: NewSpatialIndex(vec.Vec2Float{}, vec.Vec2Float{}, 1),
		opts:     opts,
		observer: noopObserver{},
		logger:   logging.GetWorldLogger(),
		unit:     physics.NewCircleCollider(UnitRadius),
	}
}

// SetObserver подключает наблюдателя генерации (nil отключает)
func (m *RTSMap) SetObserver(observer GenerationObserver) {
	if observer == nil {
		observer = noopObserver{}
	}
	m.observer = observer
}

// SetLogger заменяет логгер карты
func (m *RTSMap) SetLogger(logger *logging.Logger) {
	m.logger = logger
}

// InitMap выделяет пустую сетку width*height*levels и сбрасывает индекс юнитов.
// Таблица расстояний строится только после генерации или ResetIntermediates.
func (m *RTSMap) InitMap(width, height, levels int) error {
	grid, err := NewGrid(width, height, levels)
	if err != nil {
		return err
	}

	m.grid = grid
	m.infos = nil
	m.locality = newLocality(grid)
	m.distances = nil
	return nil
}

// LoadDefaultMap создаёт пустую карту 20x20 в один уровень
func (m *RTSMap) LoadDefaultMap() {
	// Размеры заведомо корректны
	_ = m.InitMap(20, 20, 1)
}

// LoadMap - заглушка загрузки карты из файла, всегда успешна.
// Разбор форматов карт выполняется вне ядра.
func (m *RTSMap) LoadMap(filename string) error {
	return nil
}

// Grid возвращает текущую сетку (nil до инициализации)
func (m *RTSMap) Grid() *Grid { return m.grid }

// Locality возвращает индекс юнитов
func (m *RTSMap) Locality() *SpatialIndex { return m.locality }

// Distances возвращает таблицу расстояний (nil, если не построена)
func (m *RTSMap) Distances() *DistanceTable { return m.distances }

// XSize возвращает ширину карты
func (m *RTSMap) XSize() int {
	if m.grid == nil {
		return 0
	}
	return m.grid.XSize()
}

// YSize возвращает высоту карты
func (m *RTSMap) YSize() int {
	if m.grid == nil {
		return 0
	}
	return m.grid.YSize()
}

// CanPass проверяет проходимость клетки
func (m *RTSMap) CanPass(c Coord, exclude UnitID) bool {
	return m.grid != nil && m.grid.CanPass(c, exclude)
}

// CanSee проверяет прямую видимость между клетками
func (m *RTSMap) CanSee(s, t Coord) bool {
	if m.grid == nil {
		return s == t
	}
	return m.grid.CanSee(s, t)
}

// GetLoc переводит координату в адрес (карта должна быть инициализирована)
func (m *RTSMap) GetLoc(c Coord) Loc { return m.grid.GetLoc(c) }

// GetCoord переводит адрес в координату (карта должна быть инициализирована)
func (m *RTSMap) GetCoord(loc Loc) Coord { return m.grid.GetCoord(loc) }

// Draw возвращает текстовый дамп уровня 0
func (m *RTSMap) Draw() string {
	if m.grid == nil {
		return ""
	}
	return m.grid.Draw()
}

// PlayerInfos возвращает копию списка слотов игроков
func (m *RTSMap) PlayerInfos() []PlayerMapInfo {
	infos := make([]PlayerMapInfo, len(m.infos))
	copy(infos, m.infos)
	return infos
}

// AddPlayer регистрирует слоты игрока вручную (уровень 0)
func (m *RTSMap) AddPlayer(playerID PlayerID, baseX, baseY, resourceX, resourceY, initResource int) {
	m.infos = append(m.infos, PlayerMapInfo{
		PlayerID:        playerID,
		BaseCoord:       Coord{X: baseX, Y: baseY},
		ResourceCoord:   Coord{X: resourceX, Y: resourceY},
		InitialResource: initResource,
	})
}

// GenerateMap перегенерирует местность и размещает слоты numPlayers игроков.
// Неудача одного игрока (ErrSlotPlacementExhausted) приводит к полной перегенерации.
// Число перегенераций ограничено GeneratorOptions.MaxAttempts, после чего
// возвращается ErrGenerationFailed, а прежнее состояние карты не меняется.
// При успехе сетка, слоты, индекс юнитов и таблица расстояний заменяются одним шагом.
func (m *RTSMap) GenerateMap(ctx context.Context, f RandFunc, nImpassable, numPlayers, initResource int) error {
	if f == nil {
		return ErrNilRandom
	}
	if m.grid == nil {
		return fmt.Errorf("%w: карта не инициализирована", ErrInvalidDimensions)
	}

	ctx, span := tracer.Start(ctx, "world.GenerateMap", trace.WithAttributes(
		attribute.Int("width", m.grid.width),
		attribute.Int("height", m.grid.height),
		attribute.Int("impassable", nImpassable),
		attribute.Int("players", numPlayers),
	))
	defer span.End()

	started := time.Now()
	grid, err := NewGrid(m.grid.width, m.grid.height, m.grid.levels)
	if err != nil {
		return err
	}

	var infos []PlayerMapInfo
	attempts := 0
	for {
		if m.opts.MaxAttempts > 0 && attempts >= m.opts.MaxAttempts {
			m.observer.GenerationFailed(attempts)
			err := fmt.Errorf("%w: %d попыток, %d скал, %d игроков",
				ErrGenerationFailed, attempts, nImpassable, numPlayers)
			span.RecordError(err)
			m.logger.Error("%v", err)
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		attempts++
		m.observer.AttemptStarted(attempts)

		infos, err = m.placePlayers(grid, f, nImpassable, numPlayers, initResource)
		if err == nil {
			break
		}
		m.logger.Debug("Попытка %d: %v, перегенерация карты", attempts, err)
	}

	locality, distances, err := m.buildIntermediates(ctx, grid)
	if err != nil {
		span.RecordError(err)
		return err
	}

	m.grid = grid
	m.infos = infos
	m.locality = locality
	m.distances = distances

	elapsed := time.Since(started)
	m.observer.MapGenerated(attempts, elapsed)
	span.SetAttributes(attribute.Int("attempts", attempts))
	m.logger.Info("Карта %dx%d сгенерирована: %d игроков, %d попыток, %v",
		grid.width, grid.height, len(infos), attempts, elapsed)
	return nil
}

// placePlayers выполняет одну попытку: новая местность и слоты всех игроков по порядку
func (m *RTSMap) placePlayers(grid *Grid, f RandFunc, nImpassable, numPlayers, initResource int) ([]PlayerMapInfo, error) {
	grid.GenerateImpassable(f, nImpassable, m.opts.Obstacles)

	infos := make([]PlayerMapInfo, 0, max(numPlayers, 0))
	for i := 0; i < numPlayers; i++ {
		base, resource, ok := grid.findTwoNearbyEmptySlots(f, i)
		if !ok {
			m.logger.Debug("Игрок %d (%d, %d), (%d, %d): размещение не удалось",
				i, base.X, base.Y, resource.X, resource.Y)
			m.observer.PlayerPlacementFailed(PlayerID(i))
			return nil, fmt.Errorf("игрок %d: %w", i, ErrSlotPlacementExhausted)
		}

		infos = append(infos, PlayerMapInfo{
			PlayerID:        PlayerID(i),
			BaseCoord:       base,
			ResourceCoord:   resource,
			InitialResource: initResource,
		})
	}
	return infos, nil
}

// ResetIntermediates пересобирает индекс юнитов и таблицу расстояний по текущей сетке
func (m *RTSMap) ResetIntermediates(ctx context.Context) error {
	if m.grid == nil {
		return fmt.Errorf("%w: карта не инициализирована", ErrInvalidDimensions)
	}

	locality, distances, err := m.buildIntermediates(ctx, m.grid)
	if err != nil {
		return err
	}
	m.locality = locality
	m.distances = distances
	return nil
}

func (m *RTSMap) buildIntermediates(ctx context.Context, grid *Grid) (*SpatialIndex, *DistanceTable, error) {
	locality := newLocality(grid)

	if m.opts.MaxDistanceCells > 0 && grid.Cells() > m.opts.MaxDistanceCells {
		m.logger.Warn("Таблица расстояний пропущена: %d клеток больше лимита %d",
			grid.Cells(), m.opts.MaxDistanceCells)
		return locality, nil, nil
	}

	distances, err := BuildDistanceTable(ctx, grid)
	if err != nil {
		return nil, nil, fmt.Errorf("ошибка построения таблицы расстояний: %w", err)
	}
	return locality, distances, nil
}

// newLocality создаёт индекс с полями по полклетки вокруг карты
func newLocality(grid *Grid) *SpatialIndex {
	return NewSpatialIndex(
		vec.Vec2Float{X: -0.5, Y: -0.5},
		vec.Vec2Float{X: float64(grid.width) + 0.5, Y: float64(grid.height) + 0.5},
		1,
	)
}

// AddUnit регистрирует юнит в точке p; false - юнит уже есть или место занято
func (m *RTSMap) AddUnit(id UnitID, p vec.Vec2Float) bool {
	return m.locality.Add(id, p, m.unit.Radius) == nil
}

// MoveUnit перемещает юнит; false - юнит не найден или место занято
func (m *RTSMap) MoveUnit(id UnitID, p vec.Vec2Float) bool {
	return m.locality.Move(id, p) == nil
}

// RemoveUnit удаляет юнит; false - юнит не найден
func (m *RTSMap) RemoveUnit(id UnitID) bool {
	return m.locality.Remove(id) == nil
}

// GetClosestUnitID возвращает ближайший юнит, строго ближе maxR
func (m *RTSMap) GetClosestUnitID(p vec.Vec2Float, maxR float64) (UnitID, bool) {
	id, distSq, ok := m.locality.Nearest(p)
	if !ok || distSq >= maxR*maxR {
		return InvalidUnitID, false
	}
	return id, true
}

// GetUnitIDsInRegion возвращает юниты в замкнутом прямоугольнике
func (m *RTSMap) GetUnitIDsInRegion(topLeft, bottomRight vec.Vec2Float) map[UnitID]struct{} {
	return m.locality.KeysInRegion(topLeft, bottomRight)
}

// PrintDebugInfo возвращает дамп индекса юнитов
func (m *RTSMap) PrintDebugInfo() string {
	return m.locality.PrintDebugInfo()
}
