package world

import (
	"fmt"
	"strconv"
	"strings"
)

// Grid владеет плотным массивом клеток и преобразованиями координат
type Grid struct {
	width  int
	height int
	levels int
	slots  []MapSlot
}

// NewGrid создаёт сетку width*height*levels, все клетки пустые
func NewGrid(width, height, levels int) (*Grid, error) {
	if width <= 0 || height <= 0 || levels <= 0 {
		return nil, fmt.Errorf("%w: %dx%dx%d", ErrInvalidDimensions, width, height, levels)
	}

	return &Grid{
		width:  width,
		height: height,
		levels: levels,
		slots:  make([]MapSlot, width*height*levels),
	}, nil
}

// XSize возвращает ширину карты
func (g *Grid) XSize() int { return g.width }

// YSize возвращает высоту карты
func (g *Grid) YSize() int { return g.height }

// Levels возвращает число уровней
func (g *Grid) Levels() int { return g.levels }

// Cells возвращает общее число клеток (и значений Loc)
func (g *Grid) Cells() int { return len(g.slots) }

// Reset возвращает все клетки в пустое состояние
func (g *Grid) Reset() {
	clear(g.slots)
}

// IsIn проверяет, что клетка лежит в границах карты
func (g *Grid) IsIn(c Coord) bool {
	return c.X >= 0 && c.X < g.width &&
		c.Y >= 0 && c.Y < g.height &&
		c.Z >= 0 && c.Z < g.levels
}

// CanPass возвращает true, если клетка в границах и не является скалой.
// exclude зарезервирован под блокировку клетки юнитами и сейчас не используется.
func (g *Grid) CanPass(c Coord, exclude UnitID) bool {
	if !g.IsIn(c) {
		return false
	}
	return g.slots[g.GetLoc(c)].Type != TerrainImpassable
}

// GetLoc переводит координату в линейный адрес.
// Границы не проверяются: вызывающий код передаёт валидные координаты,
// для значений вне карты результат не определён.
func (g *Grid) GetLoc(c Coord) Loc {
	return Loc((c.Z*g.height+c.Y)*g.width + c.X)
}

// GetLoc2D возвращает адрес клетки уровня 0
func (g *Grid) GetLoc2D(x, y int) Loc {
	return Loc(y*g.width + x)
}

// GetCoord переводит линейный адрес обратно в координату
func (g *Grid) GetCoord(loc Loc) Coord {
	plane := g.width * g.height
	xy := int(loc) % plane
	z := int(loc) / plane
	return Coord{X: xy % g.width, Y: xy / g.width, Z: z}
}

// Slot возвращает состояние клетки по адресу
func (g *Grid) Slot(loc Loc) MapSlot {
	return g.slots[loc]
}

// SetTerrain меняет тип местности клетки (только во время генерации)
func (g *Grid) SetTerrain(c Coord, t Terrain) {
	g.slots[g.GetLoc(c)].Type = t
}

// PrintCoord форматирует адрес как "(x,y,z)"
func (g *Grid) PrintCoord(loc Loc) string {
	c := g.GetCoord(loc)
	return fmt.Sprintf("(%d,%d,%d)", c.X, c.Y, c.Z)
}

// Draw возвращает текстовый дамп уровня 0:
// "m <width> <height> \n", затем по строке на ряд, коды клеток через пробел.
func (g *Grid) Draw() string {
	var sb strings.Builder
	sb.Grow(16 + g.width*g.height*2 + g.height)

	sb.WriteString("m ")
	sb.WriteString(strconv.Itoa(g.width))
	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(g.height))
	sb.WriteString(" \n")

	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			sb.WriteString(strconv.Itoa(int(g.slots[g.GetLoc2D(x, y)].Type)))
			sb.WriteByte(' ')
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// CountTerrain возвращает число клеток заданного типа на всех уровнях
func (g *Grid) CountTerrain(t Terrain) int {
	count := 0
	for _, slot := range g.slots {
		if slot.Type == t {
			count++
		}
	}
	return count
}
