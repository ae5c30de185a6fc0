package physics

import (
	"github.com/annel0/rts-engine/internal/vec"
)

// CircleCollider представляет круглый коллайдер юнита
type CircleCollider struct {
	Radius float64
}

// NewCircleCollider создаёт новый коллайдер с указанным радиусом
func NewCircleCollider(radius float64) *CircleCollider {
	return &CircleCollider{Radius: radius}
}

// CirclesOverlap проверяет пересечение двух дисков.
// Касание (расстояние ровно r1+r2) пересечением не считается.
func CirclesOverlap(p1 vec.Vec2Float, r1 float64, p2 vec.Vec2Float, r2 float64) bool {
	sum := r1 + r2
	return p1.DistanceSqTo(p2) < sum*sum
}

// NormalizeRect упорядочивает углы прямоугольника так, чтобы min <= max по обеим осям
func NormalizeRect(a, b vec.Vec2Float) (minP, maxP vec.Vec2Float) {
	minP = vec.Vec2Float{X: min(a.X, b.X), Y: min(a.Y, b.Y)}
	maxP = vec.Vec2Float{X: max(a.X, b.X), Y: max(a.Y, b.Y)}
	return minP, maxP
}

// IsPointInside проверяет, лежит ли точка в замкнутом прямоугольнике [minP, maxP]
func IsPointInside(point, minP, maxP vec.Vec2Float) bool {
	return point.X >= minP.X && point.X <= maxP.X &&
		point.Y >= minP.Y && point.Y <= maxP.Y
}
