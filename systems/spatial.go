// Package systems provides the simulation systems: spatial index, pheromone
// field and ant behaviour.
package systems

import (
	"log/slog"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/trails/components"
)

// Occupant is a handle to an entity standing on a grid cell.
type Occupant struct {
	E    ecs.Entity
	Kind components.Kind
}

// mooreOffsets is the fixed neighbour enumeration order: dx outer, dy inner.
// Gradient tie-breaking depends on this order.
var mooreOffsets = [9][2]int{
	{-1, -1}, {-1, 0}, {-1, 1},
	{0, -1}, {0, 0}, {0, 1},
	{1, -1}, {1, 0}, {1, 1},
}

// SpatialIndex is a toroidal grid of cells, each holding any number of occupants.
type SpatialIndex struct {
	width  int
	height int
	cells  [][]Occupant // flat grid of occupant lists, row-major
}

// NewSpatialIndex creates an index covering a width x height torus.
func NewSpatialIndex(width, height int) *SpatialIndex {
	cells := make([][]Occupant, width*height)
	return &SpatialIndex{
		width:  width,
		height: height,
		cells:  cells,
	}
}

// Width returns the number of columns.
func (s *SpatialIndex) Width() int { return s.width }

// Height returns the number of rows.
func (s *SpatialIndex) Height() int { return s.height }

// Len returns the number of cells.
func (s *SpatialIndex) Len() int { return len(s.cells) }

// Wrap maps any integer pair onto the torus.
func (s *SpatialIndex) Wrap(x, y int) components.Position {
	return components.Position{X: modInt(x, s.width), Y: modInt(y, s.height)}
}

// Index returns the flat row-major index of a position (wrapped first).
func (s *SpatialIndex) Index(p components.Position) int {
	p = s.Wrap(p.X, p.Y)
	return p.Y*s.width + p.X
}

// PositionOf is the inverse of Index.
func (s *SpatialIndex) PositionOf(i int) components.Position {
	return components.Position{X: i % s.width, Y: i / s.width}
}

// NeighborsInto appends the Moore neighbourhood of p to dst and returns it.
// On axes shorter than 3 cells the wrapped positions repeat.
func (s *SpatialIndex) NeighborsInto(dst []components.Position, p components.Position, includeCenter bool) []components.Position {
	for _, o := range mooreOffsets {
		if o[0] == 0 && o[1] == 0 && !includeCenter {
			continue
		}
		dst = append(dst, s.Wrap(p.X+o[0], p.Y+o[1]))
	}
	return dst
}

// Neighbors returns the 8 (or 9 with centre) wrapped neighbours of p.
func (s *SpatialIndex) Neighbors(p components.Position, includeCenter bool) []components.Position {
	n := 8
	if includeCenter {
		n = 9
	}
	return s.NeighborsInto(make([]components.Position, 0, n), p, includeCenter)
}

// Place adds an occupant to the cell at p.
func (s *SpatialIndex) Place(o Occupant, p components.Position) {
	idx := s.Index(p)
	s.cells[idx] = append(s.cells[idx], o)
}

// Occupants returns the occupants of p in insertion order.
// The slice is owned by the index and must not be modified.
func (s *SpatialIndex) Occupants(p components.Position) []Occupant {
	return s.cells[s.Index(p)]
}

// Move relocates e from one cell to another. It is a no-op returning false
// when from does not currently hold e.
func (s *SpatialIndex) Move(e ecs.Entity, from, to components.Position) bool {
	src := s.Index(from)
	list := s.cells[src]
	for i, o := range list {
		if o.E != e {
			continue
		}
		// Preserve insertion order of the remaining occupants.
		copy(list[i:], list[i+1:])
		list[len(list)-1] = Occupant{}
		s.cells[src] = list[:len(list)-1]

		dst := s.Index(to)
		s.cells[dst] = append(s.cells[dst], o)
		return true
	}
	slog.Debug("move ignored: entity not in source cell", "from_x", from.X, "from_y", from.Y)
	return false
}

// ToroidalDelta returns the shortest wrapped delta from a to b.
func (s *SpatialIndex) ToroidalDelta(a, b components.Position) (dx, dy int) {
	dx = b.X - a.X
	dy = b.Y - a.Y

	if dx > s.width/2 {
		dx -= s.width
	} else if dx < -s.width/2 {
		dx += s.width
	}
	if dy > s.height/2 {
		dy -= s.height
	} else if dy < -s.height/2 {
		dy += s.height
	}

	return dx, dy
}

// DistSq returns the squared toroidal Euclidean distance between a and b.
func (s *SpatialIndex) DistSq(a, b components.Position) int {
	dx, dy := s.ToroidalDelta(a, b)
	return dx*dx + dy*dy
}

func modInt(a, m int) int {
	r := a % m
	if r < 0 {
		r += m
	}
	return r
}
