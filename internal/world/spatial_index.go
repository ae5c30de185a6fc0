package world

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/annel0/rts-engine/internal/physics"
	"github.com/annel0/rts-engine/internal/vec"
)

// maxIndexCell ограничивает ключи корзин, чтобы площади и кольца не переполняли int
const maxIndexCell = 1 << 40

// nearestScanFactor - во сколько раз площадь габарита может превышать число юнитов,
// прежде чем Nearest переходит на полный перебор
const nearestScanFactor = 4

// SpatialIndex представляет пространственный индекс юнитов.
// Юниты хранятся в корзинах сетки по положению центра.
// Все операции выполняются под одной блокировкой, поэтому Move
// атомарен для запросов: юнит виден либо в старой, либо в новой позиции.
type SpatialIndex struct {
	mu        sync.RWMutex
	minCorner vec.Vec2Float
	maxCorner vec.Vec2Float
	cellSize  float64
	cells     map[vec.Vec2]map[UnitID]*indexedUnit
	units     map[UnitID]*indexedUnit
	nextSeq   uint64
	maxRadius float64 // Наибольший зарегистрированный радиус (не уменьшается)

	// Габарит занятых корзин, ограничивает кольцевой поиск
	extentMin vec.Vec2
	extentMax vec.Vec2
}

// indexedUnit представляет индексированный юнит
type indexedUnit struct {
	id     UnitID
	pos    vec.Vec2Float
	radius float64
	seq    uint64 // Порядок вставки, используется при равенстве расстояний
	cell   vec.Vec2
}

// NewSpatialIndex создаёт индекс для области [minCorner, maxCorner].
// Точки вне области допускаются и попадают в корзины за её пределами.
func NewSpatialIndex(minCorner, maxCorner vec.Vec2Float, cellSize float64) *SpatialIndex {
	if cellSize <= 0 {
		cellSize = 1.0 // Одна корзина на клетку карты
	}

	return &SpatialIndex{
		minCorner: minCorner,
		maxCorner: maxCorner,
		cellSize:  cellSize,
		cells:     make(map[vec.Vec2]map[UnitID]*indexedUnit),
		units:     make(map[UnitID]*indexedUnit),
	}
}

// Add добавляет юнит с диском радиуса radius
func (si *SpatialIndex) Add(id UnitID, p vec.Vec2Float, radius float64) error {
	if id == InvalidUnitID {
		return ErrInvalidUnit
	}
	if !si.indexable(p) || !validRadius(radius, si.cellSize) {
		return fmt.Errorf("%w: юнит %d в (%v, %v) r=%v", ErrInvalidPosition, id, p.X, p.Y, radius)
	}

	si.mu.Lock()
	defer si.mu.Unlock()

	if _, exists := si.units[id]; exists {
		return fmt.Errorf("%w: %d", ErrDuplicateUnit, id)
	}
	if !si.isEmptyLocked(p, radius, InvalidUnitID) {
		return fmt.Errorf("%w: юнит %d в (%.2f, %.2f)", ErrOverlapRejected, id, p.X, p.Y)
	}

	si.insertLocked(&indexedUnit{id: id, pos: p, radius: radius, seq: si.nextSeq})
	si.nextSeq++
	return nil
}

// Remove удаляет юнит из индекса
func (si *SpatialIndex) Remove(id UnitID) error {
	si.mu.Lock()
	defer si.mu.Unlock()

	unit, exists := si.units[id]
	if !exists {
		return fmt.Errorf("%w: %d", ErrUnitNotFound, id)
	}
	si.removeLocked(unit)
	return nil
}

// Move перемещает юнит в новую позицию с тем же радиусом.
// Пересечение с самим собой не учитывается.
func (si *SpatialIndex) Move(id UnitID, p vec.Vec2Float) error {
	if !si.indexable(p) {
		return fmt.Errorf("%w: юнит %d в (%v, %v)", ErrInvalidPosition, id, p.X, p.Y)
	}

	si.mu.Lock()
	defer si.mu.Unlock()

	unit, exists := si.units[id]
	if !exists {
		return fmt.Errorf("%w: %d", ErrUnitNotFound, id)
	}
	if !si.isEmptyLocked(p, unit.radius, id) {
		return fmt.Errorf("%w: юнит %d в (%.2f, %.2f)", ErrOverlapRejected, id, p.X, p.Y)
	}

	// Порядок вставки сохраняется, чтобы правило выбора ближайшего не менялось от перемещений
	si.removeLocked(unit)
	unit.pos = p
	si.insertLocked(unit)
	return nil
}

// Exists проверяет наличие юнита
func (si *SpatialIndex) Exists(id UnitID) bool {
	si.mu.RLock()
	defer si.mu.RUnlock()
	_, exists := si.units[id]
	return exists
}

// Position возвращает позицию юнита
func (si *SpatialIndex) Position(id UnitID) (vec.Vec2Float, bool) {
	si.mu.RLock()
	defer si.mu.RUnlock()
	unit, exists := si.units[id]
	if !exists {
		return vec.Vec2Float{}, false
	}
	return unit.pos, true
}

// Len возвращает количество юнитов
func (si *SpatialIndex) Len() int {
	si.mu.RLock()
	defer si.mu.RUnlock()
	return len(si.units)
}

// IsEmpty проверяет, что диск (p, radius) не пересекает ни одного юнита, кроме exclude.
// Недопустимый диск (NaN, бесконечность) пустым не считается.
func (si *SpatialIndex) IsEmpty(p vec.Vec2Float, radius float64, exclude UnitID) bool {
	if !finite(p) || math.IsNaN(radius) {
		return false
	}

	si.mu.RLock()
	defer si.mu.RUnlock()
	return si.isEmptyLocked(p, radius, exclude)
}

// Nearest возвращает юнит с ближайшим к p центром и квадрат расстояния до него.
// При равных расстояниях выигрывает юнит, добавленный раньше.
// Для NaN и бесконечных p ничего не возвращается.
func (si *SpatialIndex) Nearest(p vec.Vec2Float) (UnitID, float64, bool) {
	si.mu.RLock()
	defer si.mu.RUnlock()

	if len(si.units) == 0 || !finite(p) {
		return InvalidUnitID, 0, false
	}

	// Разреженный индекс или запрос вне допустимых координат: кольца дороже полного перебора
	if !si.indexable(p) || si.extentArea() > nearestScanFactor*float64(len(si.units)) {
		best := si.nearestLinearLocked(p)
		return best.id, best.pos.DistanceSqTo(p), true
	}

	center := si.cellOf(p)
	maxRing := max(
		center.ChebyshevTo(si.extentMin),
		center.ChebyshevTo(si.extentMax),
		center.ChebyshevTo(vec.Vec2{X: si.extentMin.X, Y: si.extentMax.Y}),
		center.ChebyshevTo(vec.Vec2{X: si.extentMax.X, Y: si.extentMin.Y}),
	)

	// Кольца ближе габарита занятых корзин заведомо пусты
	startRing := max(0,
		si.extentMin.X-center.X, center.X-si.extentMax.X,
		si.extentMin.Y-center.Y, center.Y-si.extentMax.Y,
	)

	var best *indexedUnit
	bestDistSq := math.Inf(1)

	for ring := startRing; ring <= maxRing; ring++ {
		si.forEachRingCell(center, ring, func(key vec.Vec2) {
			for _, unit := range si.cells[key] {
				if closerThan(unit, p, best, bestDistSq) {
					best = unit
					bestDistSq = unit.pos.DistanceSqTo(p)
				}
			}
		})

		// Любая корзина следующего кольца удалена от p не меньше чем на ring*cellSize
		if best != nil {
			bound := float64(ring) * si.cellSize
			if bestDistSq < bound*bound {
				break
			}
		}
	}

	return best.id, bestDistSq, true
}

// KeysInRegion возвращает юниты, центры которых лежат в замкнутом прямоугольнике
func (si *SpatialIndex) KeysInRegion(topLeft, bottomRight vec.Vec2Float) map[UnitID]struct{} {
	minP, maxP := physics.NormalizeRect(topLeft, bottomRight)
	result := make(map[UnitID]struct{})

	si.mu.RLock()
	defer si.mu.RUnlock()

	if len(si.units) == 0 || hasNaN(minP) || hasNaN(maxP) {
		return result
	}

	minCell, maxCell, empty := si.clampToExtent(minP, maxP)
	if empty {
		return result
	}
	if cellArea(minCell, maxCell) > float64(len(si.units)) {
		for id, unit := range si.units {
			if physics.IsPointInside(unit.pos, minP, maxP) {
				result[id] = struct{}{}
			}
		}
		return result
	}

	for x := minCell.X; x <= maxCell.X; x++ {
		for y := minCell.Y; y <= maxCell.Y; y++ {
			for id, unit := range si.cells[vec.Vec2{X: x, Y: y}] {
				if physics.IsPointInside(unit.pos, minP, maxP) {
					result[id] = struct{}{}
				}
			}
		}
	}
	return result
}

// PrintDebugInfo возвращает стабильный текстовый дамп индекса (юниты по возрастанию ID)
func (si *SpatialIndex) PrintDebugInfo() string {
	si.mu.RLock()
	defer si.mu.RUnlock()

	ids := make([]UnitID, 0, len(si.units))
	for id := range si.units {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var sb strings.Builder
	fmt.Fprintf(&sb, "SpatialIndex [(%.2f, %.2f) - (%.2f, %.2f)] cell=%.2f: %d units, %d cells\n",
		si.minCorner.X, si.minCorner.Y, si.maxCorner.X, si.maxCorner.Y,
		si.cellSize, len(si.units), len(si.cells))
	for _, id := range ids {
		unit := si.units[id]
		fmt.Fprintf(&sb, "  unit %d: pos=(%.3f, %.3f) r=%.3f cell=(%d,%d)\n",
			id, unit.pos.X, unit.pos.Y, unit.radius, unit.cell.X, unit.cell.Y)
	}
	return sb.String()
}

// Вспомогательные методы

func (si *SpatialIndex) isEmptyLocked(p vec.Vec2Float, radius float64, exclude UnitID) bool {
	if len(si.units) == 0 {
		return true
	}

	reach := radius + si.maxRadius
	minCell, maxCell, empty := si.clampToExtent(
		vec.Vec2Float{X: p.X - reach, Y: p.Y - reach},
		vec.Vec2Float{X: p.X + reach, Y: p.Y + reach},
	)
	if empty {
		return true
	}

	if cellArea(minCell, maxCell) > float64(len(si.units)) {
		for id, unit := range si.units {
			if id != exclude && physics.CirclesOverlap(p, radius, unit.pos, unit.radius) {
				return false
			}
		}
		return true
	}

	for x := minCell.X; x <= maxCell.X; x++ {
		for y := minCell.Y; y <= maxCell.Y; y++ {
			for id, unit := range si.cells[vec.Vec2{X: x, Y: y}] {
				if id == exclude {
					continue
				}
				if physics.CirclesOverlap(p, radius, unit.pos, unit.radius) {
					return false
				}
			}
		}
	}
	return true
}

func (si *SpatialIndex) insertLocked(unit *indexedUnit) {
	unit.cell = si.cellOf(unit.pos)

	cell, exists := si.cells[unit.cell]
	if !exists {
		cell = make(map[UnitID]*indexedUnit)
		si.cells[unit.cell] = cell
	}
	cell[unit.id] = unit

	if len(si.units) == 0 {
		si.extentMin = unit.cell
		si.extentMax = unit.cell
	} else {
		si.extentMin.X = min(si.extentMin.X, unit.cell.X)
		si.extentMin.Y = min(si.extentMin.Y, unit.cell.Y)
		si.extentMax.X = max(si.extentMax.X, unit.cell.X)
		si.extentMax.Y = max(si.extentMax.Y, unit.cell.Y)
	}
	si.units[unit.id] = unit
	si.maxRadius = max(si.maxRadius, unit.radius)
}

func (si *SpatialIndex) removeLocked(unit *indexedUnit) {
	if cell, exists := si.cells[unit.cell]; exists {
		delete(cell, unit.id)
		if len(cell) == 0 {
			delete(si.cells, unit.cell)
		}
	}
	delete(si.units, unit.id)
}

// cellOf возвращает ключ корзины, содержащей точку (с учётом отрицательных координат)
func (si *SpatialIndex) cellOf(p vec.Vec2Float) vec.Vec2 {
	return vec.Vec2{X: si.cellCoord(p.X), Y: si.cellCoord(p.Y)}
}

// cellCoord переводит координату в номер корзины, насыщаясь на ±2*maxIndexCell
func (si *SpatialIndex) cellCoord(v float64) int {
	c := math.Floor(v / si.cellSize)
	if math.IsNaN(c) {
		return 0
	}
	c = math.Max(c, -2*maxIndexCell)
	c = math.Min(c, 2*maxIndexCell)
	return int(c)
}

// indexable проверяет, что точку можно хранить в корзинах
func (si *SpatialIndex) indexable(p vec.Vec2Float) bool {
	return finite(p) &&
		math.Abs(p.X/si.cellSize) < maxIndexCell &&
		math.Abs(p.Y/si.cellSize) < maxIndexCell
}

func validRadius(radius, cellSize float64) bool {
	return radius >= 0 && !math.IsInf(radius, 0) && radius/cellSize < maxIndexCell
}

func hasNaN(p vec.Vec2Float) bool {
	return math.IsNaN(p.X) || math.IsNaN(p.Y)
}

func finite(p vec.Vec2Float) bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) && !math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// clampToExtent переводит прямоугольник в диапазон корзин внутри габарита занятых корзин
func (si *SpatialIndex) clampToExtent(minP, maxP vec.Vec2Float) (lo, hi vec.Vec2, empty bool) {
	lo, hi = si.cellOf(minP), si.cellOf(maxP)
	lo.X = max(lo.X, si.extentMin.X)
	lo.Y = max(lo.Y, si.extentMin.Y)
	hi.X = min(hi.X, si.extentMax.X)
	hi.Y = min(hi.Y, si.extentMax.Y)
	return lo, hi, lo.X > hi.X || lo.Y > hi.Y
}

func cellArea(lo, hi vec.Vec2) float64 {
	return (float64(hi.X-lo.X) + 1) * (float64(hi.Y-lo.Y) + 1)
}

func (si *SpatialIndex) extentArea() float64 {
	return cellArea(si.extentMin, si.extentMax)
}

// nearestLinearLocked перебирает все юниты; индекс не пуст
func (si *SpatialIndex) nearestLinearLocked(p vec.Vec2Float) *indexedUnit {
	var best *indexedUnit
	bestDistSq := math.Inf(1)
	for _, unit := range si.units {
		if closerThan(unit, p, best, bestDistSq) {
			best = unit
			bestDistSq = unit.pos.DistanceSqTo(p)
		}
	}
	return best
}

// closerThan сравнивает кандидата с текущим лучшим; при равенстве выигрывает меньший seq
func closerThan(unit *indexedUnit, p vec.Vec2Float, best *indexedUnit, bestDistSq float64) bool {
	if best == nil {
		return true
	}
	d := unit.pos.DistanceSqTo(p)
	return d < bestDistSq || (d == bestDistSq && unit.seq < best.seq)
}

// forEachRingCell обходит корзины на расстоянии Чебышёва ровно ring от center,
// пропуская всё, что лежит вне габарита занятых корзин
func (si *SpatialIndex) forEachRingCell(center vec.Vec2, ring int, fn func(vec.Vec2)) {
	lo, hi := si.extentMin, si.extentMax

	if ring == 0 {
		if center.X >= lo.X && center.X <= hi.X && center.Y >= lo.Y && center.Y <= hi.Y {
			fn(center)
		}
		return
	}

	// Верхний и нижний ряды кольца
	x0, x1 := max(center.X-ring, lo.X), min(center.X+ring, hi.X)
	for _, y := range [2]int{center.Y - ring, center.Y + ring} {
		if y < lo.Y || y > hi.Y {
			continue
		}
		for x := x0; x <= x1; x++ {
			fn(vec.Vec2{X: x, Y: y})
		}
	}

	// Левый и правый столбцы без углов
	y0, y1 := max(center.Y-ring+1, lo.Y), min(center.Y+ring-1, hi.Y)
	for _, x := range [2]int{center.X - ring, center.X + ring} {
		if x < lo.X || x > hi.X {
			continue
		}
		for y := y0; y <= y1; y++ {
			fn(vec.Vec2{X: x, Y: y})
		}
	}
}
