package world

import (
	"container/heap"
	"context"
	"math"
	"runtime"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// Стоимость шагов: по стороне 10, по диагонали 14 (≈10√2)
const (
	CostCardinal = 10
	CostDiagonal = 14
)

// Unreachable - значение расстояния для недостижимой пары клеток
const Unreachable int32 = math.MaxInt32

// neighborOffsets - 8 направлений: N, NE, E, SE, S, SW, W, NW
var neighborOffsets = [8][2]int{
	{0, -1}, {1, -1}, {1, 0}, {1, 1},
	{0, 1}, {-1, 1}, {-1, 0}, {-1, -1},
}

// DistanceTable хранит кратчайшие расстояния между всеми парами Loc.
// Считается один раз на карту и читается внешним планировщиком путей.
type DistanceTable struct {
	cells int
	dist  []int32 // dist[from*cells + to]
}

// BuildDistanceTable считает расстояния по проходимым клеткам одного уровня.
// Движение в 8 направлениях, срезать углы скал нельзя.
// Источники обрабатываются параллельно, каждый воркер пишет только свою строку.
func BuildDistanceTable(ctx context.Context, g *Grid) (*DistanceTable, error) {
	n := g.Cells()
	ctx, span := tracer.Start(ctx, "world.BuildDistanceTable",
		trace.WithAttributes(attribute.Int("cells", n)))
	defer span.End()

	table := &DistanceTable{
		cells: n,
		dist:  make([]int32, n*n),
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.GOMAXPROCS(0))

	for src := 0; src < n; src++ {
		row := table.dist[src*n : (src+1)*n]
		from := Loc(src)
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			g.shortestFrom(from, row)
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		span.RecordError(err)
		return nil, err
	}
	return table, nil
}

// Cells возвращает число клеток, для которых построена таблица
func (dt *DistanceTable) Cells() int {
	return dt.cells
}

// Distance возвращает расстояние от a до b в единицах стоимости шагов.
// false - пара недостижима или адрес вне таблицы.
func (dt *DistanceTable) Distance(a, b Loc) (int32, bool) {
	if a < 0 || b < 0 || int(a) >= dt.cells || int(b) >= dt.cells {
		return Unreachable, false
	}
	d := dt.dist[int(a)*dt.cells+int(b)]
	return d, d != Unreachable
}

// shortestFrom заполняет row расстояниями Дейкстры от клетки from
func (g *Grid) shortestFrom(from Loc, row []int32) {
	for i := range row {
		row[i] = Unreachable
	}

	start := g.GetCoord(from)
	if !g.CanPass(start, InvalidUnitID) {
		return
	}

	row[from] = 0
	pq := &locHeap{{loc: from, dist: 0}}

	for pq.Len() > 0 {
		cur := heap.Pop(pq).(locEntry)
		if cur.dist > row[cur.loc] {
			continue
		}

		c := g.GetCoord(cur.loc)
		for dir, off := range neighborOffsets {
			next := Coord{X: c.X + off[0], Y: c.Y + off[1], Z: c.Z}
			if !g.CanPass(next, InvalidUnitID) {
				continue
			}

			cost := int32(CostCardinal)
			if dir%2 == 1 {
				// Диагональ допустима, только если обе смежные стороны свободны
				if !g.CanPass(Coord{X: c.X + off[0], Y: c.Y, Z: c.Z}, InvalidUnitID) ||
					!g.CanPass(Coord{X: c.X, Y: c.Y + off[1], Z: c.Z}, InvalidUnitID) {
					continue
				}
				cost = CostDiagonal
			}

			nextLoc := g.GetLoc(next)
			if d := cur.dist + cost; d < row[nextLoc] {
				row[nextLoc] = d
				heap.Push(pq, locEntry{loc: nextLoc, dist: d})
			}
		}
	}
}

type locEntry struct {
	loc  Loc
	dist int32
}

// locHeap - min-heap по расстоянию для container/heap
type locHeap []locEntry

func (h locHeap) Len() int           { return len(h) }
func (h locHeap) Less(i, j int) bool { return h[i].dist < h[j].dist }
func (h locHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *locHeap) Push(x any) { *h = append(*h, x.(locEntry)) }

func (h *locHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}
