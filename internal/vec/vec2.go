package vec

// Vec2 представляет 2D целочисленные координаты (ключи ячеек индекса)
type Vec2 struct {
	X, Y int
}

// ChebyshevTo возвращает расстояние Чебышёва (число "колец" между ячейками)
func (v Vec2) ChebyshevTo(other Vec2) int {
	dx := v.X - other.X
	if dx < 0 {
		dx = -dx
	}
	dy := v.Y - other.Y
	if dy < 0 {
		dy = -dy
	}
	return max(dx, dy)
}
