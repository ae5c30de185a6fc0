package world

import (
	"github.com/annel0/rts-engine/internal/util"
)

// RandFunc - внешний источник случайных чисел: равномерное целое в [0, bound)
type RandFunc func(bound int) int

// ObstacleStrategy определяет способ расстановки скал
type ObstacleStrategy string

const (
	// ObstacleUniform - скалы в равномерно случайных клетках (повторы допустимы)
	ObstacleUniform ObstacleStrategy = "uniform"
	// ObstaclePerlin - скалы тяготеют к гребням шума Перлина
	ObstaclePerlin ObstacleStrategy = "perlin"
)

// Константы размещения слотов игроков
const (
	slotSearchDist = 4   // Ресурс ищется в квадрате ±slotSearchDist от базы
	maxSlotTrials  = 100 // Попыток на одного игрока до полной перегенерации
)

// Параметры кластерной расстановки скал
const (
	perlinSamples   = 8    // Кандидатов на одну скалу
	perlinScale     = 0.15 // Масштаб координат для шума
	perlinThreshold = 0.55 // Минимальное значение шума для скалы
	perlinSeedBound = 65536
)

// DefaultMaxAttempts - лимит полных перегенераций карты по умолчанию
const DefaultMaxAttempts = 1000

// DefaultMaxDistanceCells - размер карты, выше которого таблица расстояний не строится
const DefaultMaxDistanceCells = 4096

// GeneratorOptions содержит настройки генерации карты
type GeneratorOptions struct {
	MaxAttempts      int              // 0 - без ограничения
	Obstacles        ObstacleStrategy // Способ расстановки скал
	MaxDistanceCells int              // 0 - таблица строится всегда
}

// DefaultGeneratorOptions возвращает настройки по умолчанию
func DefaultGeneratorOptions() GeneratorOptions {
	return GeneratorOptions{
		MaxAttempts:      DefaultMaxAttempts,
		Obstacles:        ObstacleUniform,
		MaxDistanceCells: DefaultMaxDistanceCells,
	}
}

// GenerateImpassable очищает сетку и ставит nImpassable скал на уровне 0
func (g *Grid) GenerateImpassable(f RandFunc, nImpassable int, strategy ObstacleStrategy) {
	g.Reset()

	if strategy == ObstaclePerlin {
		g.generatePerlinImpassable(f, nImpassable)
		return
	}

	for i := 0; i < nImpassable; i++ {
		c := Coord{X: f(g.width), Y: f(g.height)}
		if g.IsIn(c) {
			g.SetTerrain(c, TerrainImpassable)
		}
	}
}

// generatePerlinImpassable для каждой скалы берёт до perlinSamples кандидатов
// и оставляет первый на гребне шума (иначе последний)
func (g *Grid) generatePerlinImpassable(f RandFunc, nImpassable int) {
	noise := util.NewNoise(int64(f(perlinSeedBound)))

	for i := 0; i < nImpassable; i++ {
		var c Coord
		for s := 0; s < perlinSamples; s++ {
			c = Coord{X: f(g.width), Y: f(g.height)}
			if noise.Value2D(float64(c.X)*perlinScale, float64(c.Y)*perlinScale) >= perlinThreshold {
				break
			}
		}
		if g.IsIn(c) {
			g.SetTerrain(c, TerrainImpassable)
		}
	}
}

// findTwoNearbyEmptySlots ищет базу в секторе игрока i и ресурс рядом с ней.
// Сектор: треть карты по каждой оси со смещением i*2/3 размера.
// Возвращает последнюю опробованную пару даже при неудаче (для журнала).
func (g *Grid) findTwoNearbyEmptySlots(f RandFunc, i int) (base, resource Coord, ok bool) {
	base = Coord{X: -1, Y: -1}
	resource = Coord{X: -1, Y: -1}
	w := float64(g.width)
	h := float64(g.height)

	for trial := 0; trial < maxSlotTrials; trial++ {
		base = Coord{
			X: int(float64(f(g.width))/3 + float64(i)*w/3*2),
			Y: int(float64(f(g.height))/3 + float64(i)*h/3*2),
		}
		if !g.CanPass(base, InvalidUnitID) {
			continue
		}

		resource = Coord{
			X: f(2*slotSearchDist+1) - slotSearchDist + base.X,
			Y: f(2*slotSearchDist+1) - slotSearchDist + base.Y,
		}
		if g.CanPass(resource, InvalidUnitID) && resource != base {
			return base, resource, true
		}
	}
	return base, resource, false
}
