package vec

import "math"

// Vec2Float представляет 2D координаты с плавающей точкой.
// Целые значения соответствуют центрам клеток сетки.
type Vec2Float struct {
	X, Y float64
}

// Round возвращает ближайшую клетку (floor(v + 0.5) по каждой оси)
func (v Vec2Float) Round() Vec2 {
	return Vec2{X: int(math.Floor(v.X + 0.5)), Y: int(math.Floor(v.Y + 0.5))}
}

// Add складывает два вектора
func (v Vec2Float) Add(other Vec2Float) Vec2Float {
	return Vec2Float{X: v.X + other.X, Y: v.Y + other.Y}
}

// DistanceSqTo возвращает квадрат расстояния (без извлечения корня)
func (v Vec2Float) DistanceSqTo(other Vec2Float) float64 {
	dx := v.X - other.X
	dy := v.Y - other.Y
	return dx*dx + dy*dy
}
