package world

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/annel0/rts-engine/internal/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedRand возвращает значения по кругу (по модулю границы)
func scriptedRand(values ...int) RandFunc {
	i := 0
	return func(bound int) int {
		v := values[i%len(values)]
		i++
		return v % bound
	}
}

// countingObserver считает события генерации
type countingObserver struct {
	mu        sync.Mutex
	attempts  int
	failures  map[PlayerID]int
	generated int
	failed    int
}

func newCountingObserver() *countingObserver {
	return &countingObserver{failures: make(map[PlayerID]int)}
}

func (o *countingObserver) AttemptStarted(int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.attempts++
}

func (o *countingObserver) PlayerPlacementFailed(player PlayerID) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failures[player]++
}

func (o *countingObserver) MapGenerated(int, time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.generated++
}

func (o *countingObserver) GenerationFailed(int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failed++
}

func newTestMap(t *testing.T, opts GeneratorOptions, w, h int) *RTSMap {
	t.Helper()
	m := NewRTSMap(opts)
	require.NoError(t, m.InitMap(w, h, 1))
	return m
}

func TestFindTwoNearbyEmptySlots_FirstSector(t *testing.T) {
	g, err := NewGrid(20, 20, 1)
	require.NoError(t, err)

	// x1 = 9/3 = 3, y1 = 12/3 = 4, x2 = 5-4+3 = 4, y2 = 4-4+4 = 4
	base, resource, ok := g.findTwoNearbyEmptySlots(scriptedRand(9, 12, 5, 4), 0)
	require.True(t, ok)
	assert.Equal(t, Coord{X: 3, Y: 4}, base)
	assert.Equal(t, Coord{X: 4, Y: 4}, resource)
}

func TestFindTwoNearbyEmptySlots_SecondSectorRetries(t *testing.T) {
	g, err := NewGrid(20, 20, 1)
	require.NoError(t, err)

	// Первая попытка даёт ресурс в клетке базы, вторая - в (17, 9)
	base, resource, ok := g.findTwoNearbyEmptySlots(scriptedRand(0, 0, 4, 4, 0, 0, 8, 0), 1)
	require.True(t, ok)
	assert.Equal(t, Coord{X: 13, Y: 13}, base, "Сектор второго игрока начинается с 2/3 карты")
	assert.Equal(t, Coord{X: 17, Y: 9}, resource)
}

func TestFindTwoNearbyEmptySlots_BlockedBase(t *testing.T) {
	g, err := NewGrid(20, 20, 1)
	require.NoError(t, err)
	g.SetTerrain(Coord{X: 3, Y: 4}, TerrainImpassable)

	_, _, ok := g.findTwoNearbyEmptySlots(scriptedRand(9, 12), 0)
	assert.False(t, ok, "База на скале должна отклоняться во всех попытках")

	// Третий игрок выходит за пределы карты 20x20 при любом значении f
	_, _, ok = g.findTwoNearbyEmptySlots(util.NewSeededRandFunc(1), 2)
	assert.False(t, ok)
}

func TestGenerateImpassable_Uniform(t *testing.T) {
	g, err := NewGrid(10, 10, 1)
	require.NoError(t, err)

	g.GenerateImpassable(scriptedRand(1, 1, 1, 1, 2, 3), 3, ObstacleUniform)
	assert.Equal(t, 2, g.CountTerrain(TerrainImpassable), "Повторные скалы перезаписывают клетку")
	assert.False(t, g.CanPass(Coord{X: 1, Y: 1}, InvalidUnitID))
	assert.False(t, g.CanPass(Coord{X: 2, Y: 3}, InvalidUnitID))

	g.GenerateImpassable(scriptedRand(5), 0, ObstacleUniform)
	assert.Zero(t, g.CountTerrain(TerrainImpassable), "Генерация начинает с чистой карты")
}

func TestGenerateImpassable_PerlinDeterministic(t *testing.T) {
	a, err := NewGrid(30, 30, 1)
	require.NoError(t, err)
	b, err := NewGrid(30, 30, 1)
	require.NoError(t, err)

	a.GenerateImpassable(util.NewSeededRandFunc(11), 60, ObstaclePerlin)
	b.GenerateImpassable(util.NewSeededRandFunc(11), 60, ObstaclePerlin)

	assert.Equal(t, a.Draw(), b.Draw(), "Одинаковый сид - одинаковая карта")
	rocks := a.CountTerrain(TerrainImpassable)
	assert.Greater(t, rocks, 0)
	assert.LessOrEqual(t, rocks, 60)
}

func TestGenerateMap_TwoPlayersNoObstacles(t *testing.T) {
	m := newTestMap(t, DefaultGeneratorOptions(), 20, 20)

	err := m.GenerateMap(context.Background(), util.NewSeededRandFunc(1), 0, 2, 100)
	require.NoError(t, err)

	infos := m.PlayerInfos()
	require.Len(t, infos, 2)
	for i, info := range infos {
		assert.Equal(t, PlayerID(i), info.PlayerID)
		assert.True(t, m.CanPass(info.BaseCoord, InvalidUnitID))
		assert.True(t, m.CanPass(info.ResourceCoord, InvalidUnitID))
		assert.NotEqual(t, info.BaseCoord, info.ResourceCoord)
		assert.Equal(t, 100, info.InitialResource)
	}

	assert.True(t, strings.HasPrefix(m.Draw(), "m 20 20 \n"))
	require.NotNil(t, m.Distances(), "Таблица расстояний строится после генерации")
	assert.Equal(t, 400, m.Distances().Cells())
}

func TestGenerateMap_PropertiesAcrossSeeds(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		m := newTestMap(t, DefaultGeneratorOptions(), 20, 20)
		require.NoError(t, m.GenerateMap(context.Background(), util.NewSeededRandFunc(seed), 40, 2, 50))

		infos := m.PlayerInfos()
		require.Len(t, infos, 2, "seed %d", seed)
		ids := make(map[PlayerID]struct{})
		for _, info := range infos {
			ids[info.PlayerID] = struct{}{}
			assert.True(t, m.CanPass(info.BaseCoord, InvalidUnitID), "seed %d", seed)
			assert.True(t, m.CanPass(info.ResourceCoord, InvalidUnitID), "seed %d", seed)
			assert.NotEqual(t, info.BaseCoord, info.ResourceCoord, "seed %d", seed)
		}
		assert.Len(t, ids, 2, "ID игроков должны быть уникальны")
		assert.LessOrEqual(t, m.Grid().CountTerrain(TerrainImpassable), 40)
	}
}

func TestGenerateMap_Deterministic(t *testing.T) {
	a := newTestMap(t, DefaultGeneratorOptions(), 20, 20)
	b := newTestMap(t, DefaultGeneratorOptions(), 20, 20)

	require.NoError(t, a.GenerateMap(context.Background(), util.NewSeededRandFunc(99), 30, 2, 10))
	require.NoError(t, b.GenerateMap(context.Background(), util.NewSeededRandFunc(99), 30, 2, 10))

	assert.Equal(t, a.Draw(), b.Draw())
	assert.Equal(t, a.PlayerInfos(), b.PlayerInfos())
}

func TestGenerateMap_FailureKeepsPreviousState(t *testing.T) {
	opts := DefaultGeneratorOptions()
	opts.MaxAttempts = 5
	m := newTestMap(t, opts, 20, 20)
	observer := newCountingObserver()
	m.SetObserver(observer)

	require.NoError(t, m.GenerateMap(context.Background(), util.NewSeededRandFunc(3), 20, 2, 100))
	before := m.Draw()
	infos := m.PlayerInfos()
	assert.True(t, m.AddUnit(1, infos[0].BaseCoord.ToPointF()))

	// Сектор третьего игрока лежит за пределами карты
	err := m.GenerateMap(context.Background(), util.NewSeededRandFunc(4), 20, 3, 100)
	require.ErrorIs(t, err, ErrGenerationFailed)

	assert.Equal(t, before, m.Draw(), "Неудачная генерация не меняет местность")
	assert.Equal(t, infos, m.PlayerInfos(), "Неудачная генерация не меняет слоты")
	assert.True(t, m.Locality().Exists(1), "Неудачная генерация не сбрасывает индекс юнитов")

	assert.Equal(t, 1, observer.generated)
	assert.Equal(t, 1, observer.failed)
	assert.Equal(t, 5, observer.failures[2], "Игрок 2 проваливается в каждой из 5 попыток")
	assert.GreaterOrEqual(t, observer.attempts, 6)
}

func TestGenerateMap_ContextCancelled(t *testing.T) {
	opts := DefaultGeneratorOptions()
	opts.MaxAttempts = 0 // Без лимита: выход только по контексту
	m := newTestMap(t, opts, 20, 20)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := m.GenerateMap(ctx, util.NewSeededRandFunc(1), 0, 3, 100)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGenerateMap_InvalidInput(t *testing.T) {
	m := NewRTSMap(DefaultGeneratorOptions())
	err := m.GenerateMap(context.Background(), util.NewSeededRandFunc(1), 0, 2, 100)
	assert.ErrorIs(t, err, ErrInvalidDimensions, "Генерация до InitMap невозможна")

	m.LoadDefaultMap()
	assert.ErrorIs(t, m.GenerateMap(context.Background(), nil, 0, 2, 100), ErrNilRandom)
}

func TestGenerateMap_ResetsUnitIndex(t *testing.T) {
	m := newTestMap(t, DefaultGeneratorOptions(), 20, 20)
	require.True(t, m.AddUnit(5, m.Grid().GetCoord(0).ToPointF()))

	require.NoError(t, m.GenerateMap(context.Background(), util.NewSeededRandFunc(8), 0, 2, 100))
	assert.False(t, m.Locality().Exists(5), "Новая карта получает пустой индекс юнитов")
}

func TestGenerateMap_SkipsLargeDistanceTable(t *testing.T) {
	opts := DefaultGeneratorOptions()
	opts.MaxDistanceCells = 100
	m := newTestMap(t, opts, 20, 20)

	require.NoError(t, m.GenerateMap(context.Background(), util.NewSeededRandFunc(2), 0, 2, 100))
	assert.Nil(t, m.Distances(), "Карта больше лимита не получает таблицу расстояний")

	opts.MaxDistanceCells = 0
	m = newTestMap(t, opts, 5, 5)
	require.NoError(t, m.ResetIntermediates(context.Background()))
	assert.NotNil(t, m.Distances(), "Лимит 0 означает отсутствие ограничения")
}
