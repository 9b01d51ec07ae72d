// Package system holds the per-tick simulation passes. The scheduler
// runs them in dependency order: spatial grid rebuild, pedestrian AI,
// traffic AI, vehicle dynamics, movement, map collision, entity
// collision.
package system

import (
	"blockcity/ecs"
	"blockcity/ecs/component"
)

// DefaultGridCellSize is the spatial hash cell edge in world units,
// tuned for typical agent spacing. Independent of the map block size.
const DefaultGridCellSize = 64.0

type gridEntry struct {
	Entity  ecs.Entity
	X, Y    float64
	Level   int
	Radius  float64
	Layer   uint32
	Mask    uint32
	Static  bool
	Vehicle bool
}

// SpatialGrid is a uniform grid over all collidable agents. It is
// rebuilt from scratch once per tick before any queries run; full
// rebuilds trade recomputation for the absence of stale entries.
type SpatialGrid struct {
	cellSize float64
	cols     int
	rows     int
	cells    [][]gridEntry
}

// NewSpatialGrid covers a world of the given size in world units.
func NewSpatialGrid(width, height, cellSize float64) *SpatialGrid {
	if cellSize <= 0 {
		cellSize = DefaultGridCellSize
	}
	cols := int(width/cellSize) + 1
	rows := int(height/cellSize) + 1
	cells := make([][]gridEntry, cols*rows)
	for i := range cells {
		cells[i] = make([]gridEntry, 0, 8)
	}
	return &SpatialGrid{cellSize: cellSize, cols: cols, rows: rows, cells: cells}
}

func (g *SpatialGrid) clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
}

func (g *SpatialGrid) cellIndex(x, y float64) int {
	col := int(x / g.cellSize)
	row := int(y / g.cellSize)
	if col < 0 {
		col = 0
	} else if col >= g.cols {
		col = g.cols - 1
	}
	if row < 0 {
		row = 0
	} else if row >= g.rows {
		row = g.rows - 1
	}
	return row*g.cols + col
}

func (g *SpatialGrid) insert(e gridEntry) {
	idx := g.cellIndex(e.X, e.Y)
	g.cells[idx] = append(g.cells[idx], e)
}

// Rebuild repopulates the grid from every collidable agent.
func (g *SpatialGrid) Rebuild(w *ecs.World) {
	g.clear()
	ecs.ForEach2(w, component.ColliderComponent, component.TransformComponent,
		func(e ecs.Entity, c *component.Collider, t *component.Transform) {
			g.insert(gridEntry{
				Entity:  e,
				X:       t.X,
				Y:       t.Y,
				Level:   t.Level,
				Radius:  c.BoundingRadius(),
				Layer:   c.Layer,
				Mask:    c.Mask,
				Static:  c.Static,
				Vehicle: ecs.Has(w, e, component.VehicleProfileComponent),
			})
		})
}

// Query visits every entry within radius of the position on the same
// level, excluding the given entity.
func (g *SpatialGrid) Query(x, y float64, level int, radius float64, exclude ecs.Entity, fn func(e gridEntry)) {
	cellRadius := int(radius/g.cellSize) + 1
	centerCol := int(x / g.cellSize)
	centerRow := int(y / g.cellSize)
	radiusSq := radius * radius

	for dr := -cellRadius; dr <= cellRadius; dr++ {
		for dc := -cellRadius; dc <= cellRadius; dc++ {
			col := centerCol + dc
			row := centerRow + dr
			if col < 0 || row < 0 || col >= g.cols || row >= g.rows {
				continue
			}
			for _, e := range g.cells[row*g.cols+col] {
				if e.Entity == exclude || e.Level != level {
					continue
				}
				dx := e.X - x
				dy := e.Y - y
				if dx*dx+dy*dy <= radiusSq {
					fn(e)
				}
			}
		}
	}
}

// VehicleWithin reports whether any other vehicle lies within radius
// of the position. Used by the traffic obstacle probe.
func (g *SpatialGrid) VehicleWithin(x, y float64, level int, radius float64, exclude ecs.Entity) bool {
	found := false
	g.Query(x, y, level, radius, exclude, func(e gridEntry) {
		if e.Vehicle {
			found = true
		}
	})
	return found
}

// GridRebuildSystem refreshes the spatial grid at the top of the tick
// so the AI probes and both collision passes see one coherent snapshot.
type GridRebuildSystem struct {
	Grid *SpatialGrid
}

func NewGridRebuildSystem(grid *SpatialGrid) *GridRebuildSystem {
	return &GridRebuildSystem{Grid: grid}
}

func (s *GridRebuildSystem) Update(w *ecs.World, dt float64) {
	s.Grid.Rebuild(w)
}
