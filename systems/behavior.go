package systems

import (
	"log/slog"
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/trails/components"
)

// Action is what an ant did during one tick.
type Action uint8

const (
	ActionRandomMove   Action = iota // unbiased step while searching
	ActionGradientMove               // step up the pheromone gradient
	ActionAte                        // picked up one unit of food
	ActionHomeMove                   // deposited and stepped towards home
	ActionDelivered                  // dropped food at home
)

// String returns the display name for an Action.
func (a Action) String() string {
	switch a {
	case ActionRandomMove:
		return "random_move"
	case ActionGradientMove:
		return "gradient_move"
	case ActionAte:
		return "ate"
	case ActionHomeMove:
		return "home_move"
	case ActionDelivered:
		return "delivered"
	}
	return "unknown"
}

// ForagerParams holds the ant behaviour tunables.
type ForagerParams struct {
	InitDrop   float64 // Carried when an ant picks up food
	ProbRandom float64 // Chance of a random move while searching
	DropRate   float64 // Carried multiplier after each deposit
	LowerBound float64 // Gradient moves ignore cells at or below this
}

// Forager runs the two-state ant behaviour against the shared grid.
//
// Random draws come from one shared generator in a fixed order per ant:
// a searching ant not on food draws one Float64 for the random-move check,
// then one Intn(8) if it moves randomly; a returning ant draws one Intn
// only when several neighbours tie for closest to home.
type Forager struct {
	index   *SpatialIndex
	field   *PheromoneField
	foodMap *ecs.Map[components.Food]
	homeMap *ecs.Map[components.Home]
	rng     *rand.Rand
	params  ForagerParams

	// Scratch buffers reused across calls
	neighbors []components.Position
	tied      []components.Position
}

// NewForager creates the ant behaviour system.
func NewForager(w *ecs.World, index *SpatialIndex, field *PheromoneField, rng *rand.Rand, params ForagerParams) *Forager {
	return &Forager{
		index:     index,
		field:     field,
		foodMap:   ecs.NewMap[components.Food](w),
		homeMap:   ecs.NewMap[components.Home](w),
		rng:       rng,
		params:    params,
		neighbors: make([]components.Position, 0, 8),
		tied:      make([]components.Position, 0, 8),
	}
}

// Act runs one tick of behaviour for the ant e. Effects are immediate:
// later ants in the same tick see moves, deposits and consumed food.
func (f *Forager) Act(e ecs.Entity, pos *components.Position, ant *components.Ant) Action {
	if ant.State == components.Returning {
		return f.actReturning(e, pos, ant)
	}
	return f.actSearching(e, pos, ant)
}

func (f *Forager) actSearching(e ecs.Entity, pos *components.Position, ant *components.Ant) Action {
	if food := f.foodAt(*pos); food != nil {
		food.Eat()
		ant.State = components.Returning
		ant.Carried = f.params.InitDrop
		return ActionAte
	}

	if f.rng.Float64() < f.params.ProbRandom {
		f.randomMove(e, pos)
		return ActionRandomMove
	}
	if f.gradientMove(e, pos) {
		return ActionGradientMove
	}
	f.randomMove(e, pos)
	return ActionRandomMove
}

func (f *Forager) actReturning(e ecs.Entity, pos *components.Position, ant *components.Ant) Action {
	if *pos == ant.Home {
		if home := f.homeAt(*pos); home != nil {
			home.Collected++
		} else {
			slog.Debug("returning ant found no home depot", "x", pos.X, "y", pos.Y)
		}
		ant.State = components.Searching
		ant.Carried = 0
		return ActionDelivered
	}

	f.field.Add(*pos, ant.Carried)
	ant.Carried *= f.params.DropRate
	f.homeMove(e, pos, ant.Home)
	return ActionHomeMove
}

// foodAt returns the first food source on p that still has stock.
func (f *Forager) foodAt(p components.Position) *components.Food {
	for _, o := range f.index.Occupants(p) {
		if o.Kind != components.KindFood {
			continue
		}
		if food := f.foodMap.Get(o.E); food != nil && food.Remaining > 0 {
			return food
		}
	}
	return nil
}

// homeAt returns the home depot on p, if any.
func (f *Forager) homeAt(p components.Position) *components.Home {
	for _, o := range f.index.Occupants(p) {
		if o.Kind == components.KindHome {
			return f.homeMap.Get(o.E)
		}
	}
	return nil
}

func (f *Forager) moveTo(e ecs.Entity, pos *components.Position, to components.Position) {
	f.index.Move(e, *pos, to)
	*pos = to
}

func (f *Forager) randomMove(e ecs.Entity, pos *components.Position) {
	f.neighbors = f.index.NeighborsInto(f.neighbors[:0], *pos, false)
	f.moveTo(e, pos, f.neighbors[f.rng.Intn(len(f.neighbors))])
}

// gradientMove steps to the neighbour with the highest pheromone. Ties keep
// the first neighbour in enumeration order. Returns false, without moving,
// when no neighbour exceeds the lower bound.
func (f *Forager) gradientMove(e ecs.Entity, pos *components.Position) bool {
	f.neighbors = f.index.NeighborsInto(f.neighbors[:0], *pos, false)

	best := -1
	bestAmount := 0.0
	for i, n := range f.neighbors {
		a := f.field.At(n)
		if best < 0 || a > bestAmount {
			best = i
			bestAmount = a
		}
	}
	if best < 0 || bestAmount <= f.params.LowerBound {
		return false
	}
	f.moveTo(e, pos, f.neighbors[best])
	return true
}

// homeMove steps to the neighbour closest to home on the torus.
// Exact ties are broken uniformly at random.
func (f *Forager) homeMove(e ecs.Entity, pos *components.Position, home components.Position) {
	f.neighbors = f.index.NeighborsInto(f.neighbors[:0], *pos, false)

	f.tied = f.tied[:0]
	bestDist := -1
	for _, n := range f.neighbors {
		d := f.index.DistSq(n, home)
		switch {
		case bestDist < 0 || d < bestDist:
			bestDist = d
			f.tied = append(f.tied[:0], n)
		case d == bestDist:
			f.tied = append(f.tied, n)
		}
	}

	next := f.tied[0]
	if len(f.tied) > 1 {
		next = f.tied[f.rng.Intn(len(f.tied))]
	}
	f.moveTo(e, pos, next)
}
