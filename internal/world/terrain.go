package world

import (
	"fmt"

	"github.com/annel0/rts-engine/internal/vec"
)

// Terrain представляет тип местности клетки
type Terrain int

const (
	TerrainNormal     Terrain = iota // Пустая проходимая клетка
	TerrainImpassable                // Скала, непроходима и непрозрачна
)

// String возвращает строковое представление типа местности
func (t Terrain) String() string {
	switch t {
	case TerrainNormal:
		return "normal"
	case TerrainImpassable:
		return "impassable"
	default:
		return fmt.Sprintf("terrain(%d)", int(t))
	}
}

// MapSlot хранит состояние одной клетки карты
type MapSlot struct {
	Type Terrain
}

// Coord адресует клетку сетки. Z - дискретный уровень (слой) карты.
type Coord struct {
	X, Y, Z int
}

// Loc - линейный адрес клетки: (z*height + y)*width + x
type Loc int

// PlayerID идентифицирует игрока в рамках одной генерации
type PlayerID int

// UnitID - непрозрачный идентификатор юнита, принадлежащий движку
type UnitID uint64

// InvalidUnitID не может быть зарегистрирован в индексе
const InvalidUnitID UnitID = 0

// PlayerMapInfo описывает стартовые слоты игрока
type PlayerMapInfo struct {
	PlayerID        PlayerID `json:"player_id"`
	BaseCoord       Coord    `json:"base_coord"`
	ResourceCoord   Coord    `json:"resource_coord"`
	InitialResource int      `json:"initial_resource"`
}

// ToPointF возвращает центр клетки в непрерывных координатах
func (c Coord) ToPointF() vec.Vec2Float {
	return vec.Vec2Float{X: float64(c.X), Y: float64(c.Y)}
}

// CoordFromPointF возвращает клетку уровня 0, содержащую точку
func CoordFromPointF(p vec.Vec2Float) Coord {
	cell := p.Round()
	return Coord{X: cell.X, Y: cell.Y}
}
