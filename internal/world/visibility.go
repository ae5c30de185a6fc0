package world

import (
	"math"

	"github.com/annel0/rts-engine/internal/vec"
)

// visibilityStep - шаг луча в клетках вдоль направления на цель
const visibilityStep = 0.5

// CanSee проверяет прямую видимость между центрами клеток s и t.
// Точка движется от s к t шагами по полклетки; каждая пройденная клетка,
// кроме s и t, проверяется на скалу. Клетки вне карты пропускаются.
// Проверка приближённая: у углов клеток результат может зависеть от направления.
func (g *Grid) CanSee(s, t Coord) bool {
	dx := float64(t.X - s.X)
	dy := float64(t.Y - s.Y)
	r := math.Sqrt(dx*dx + dy*dy)
	if r == 0 {
		return true
	}

	step := vec.Vec2Float{X: visibilityStep * dx / r, Y: visibilityStep * dy / r}
	p := s.ToPointF()

	// Ограничитель на случай ошибок округления: луч не уходит дальше цели
	maxSteps := int(math.Ceil(r/visibilityStep)) + 2
	for i := 0; i < maxSteps; i++ {
		c := CoordFromPointF(p)
		c.Z = s.Z
		if c.X == t.X && c.Y == t.Y {
			return true
		}
		if c != s && g.IsIn(c) && g.slots[g.GetLoc(c)].Type == TerrainImpassable {
			return false
		}
		p = p.Add(step)
	}
	return true
}
