// Package game wires the ECS world, the pheromone field and the ant
// behaviour into a tick-driven simulation.
package game

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/trails/components"
	"github.com/pthm-cable/trails/config"
	"github.com/pthm-cable/trails/systems"
	"github.com/pthm-cable/trails/telemetry"
)

// Options configures a simulation run beyond the model parameters.
type Options struct {
	Seed          int64                       // RNG seed; runs with equal seeds and configs are identical
	LogStats      bool                        // log window stats and bookmarks via slog
	SnapshotDir   string                      // save a JSON snapshot on every bookmark (empty = off)
	OutputDir     string                      // CSV logs and config.yaml (empty = off)
	StatsCallback func(telemetry.WindowStats) // called on every stats flush
}

// Simulation holds the complete colony state.
//
// Each Tick runs three passes: every pheromone cell computes its next amount
// from the current field, every ant acts in creation order with immediate
// effects, then every cell commits.
type Simulation struct {
	cfg     *config.Config
	world   *ecs.World
	rng     *rand.Rand
	rngSeed int64

	// Entity mappers
	antMap  *ecs.Map2[components.Position, components.Ant]
	foodMap *ecs.Map2[components.Position, components.Food]
	homeMap *ecs.Map2[components.Position, components.Home]

	antFilter  *ecs.Filter2[components.Position, components.Ant]
	foodFilter *ecs.Filter2[components.Position, components.Food]

	index    *systems.SpatialIndex
	field    *systems.PheromoneField
	forager  *systems.Forager
	parallel *parallelState

	// Entities in creation order
	home ecs.Entity
	food []ecs.Entity
	ants []ecs.Entity

	tick   int32
	nextID uint32

	// Telemetry
	collector        *telemetry.Collector
	perfCollector    *telemetry.PerfCollector
	bookmarkDetector *telemetry.BookmarkDetector
	tripTracker      *telemetry.TripTracker
	outputManager    *telemetry.OutputManager
	logStats         bool
	snapshotDir      string
	statsCallback    func(telemetry.WindowStats)
}

// New validates cfg and builds a simulation with all ants on the home cell.
// Nothing is built when validation fails.
func New(cfg *config.Config, opts Options) (*Simulation, error) {
	if cfg == nil {
		return nil, errors.New("nil config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	cfg = cfg.Clone()
	cfg.Refresh()

	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, err
	}
	if err := om.WriteConfig(cfg); err != nil {
		om.Close()
		return nil, fmt.Errorf("writing config: %w", err)
	}

	world := ecs.NewWorld()
	rng := rand.New(rand.NewSource(opts.Seed))

	s := &Simulation{
		cfg:        cfg,
		world:      world,
		rng:        rng,
		rngSeed:    opts.Seed,
		antMap:     ecs.NewMap2[components.Position, components.Ant](world),
		foodMap:    ecs.NewMap2[components.Position, components.Food](world),
		homeMap:    ecs.NewMap2[components.Position, components.Home](world),
		antFilter:  ecs.NewFilter2[components.Position, components.Ant](world),
		foodFilter: ecs.NewFilter2[components.Position, components.Food](world),
		nextID:     1,

		perfCollector:    telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow),
		bookmarkDetector: telemetry.NewBookmarkDetector(cfg.Telemetry.BookmarkHistorySize),
		tripTracker:      telemetry.NewTripTracker(),
		outputManager:    om,
		logStats:         opts.LogStats,
		snapshotDir:      opts.SnapshotDir,
		statsCallback:    opts.StatsCallback,
	}
	if cfg.Telemetry.StatsWindow > 0 {
		s.collector = telemetry.NewCollector(int32(cfg.Telemetry.StatsWindow))
	}

	s.index = systems.NewSpatialIndex(cfg.World.Width, cfg.World.Height)
	s.field = systems.NewPheromoneField(s.index,
		cfg.Pheromone.Evaporate, cfg.Pheromone.Diffusion, cfg.Pheromone.LowerBound)
	s.forager = systems.NewForager(world, s.index, s.field, rng, systems.ForagerParams{
		InitDrop:   cfg.Colony.InitDrop,
		ProbRandom: cfg.Colony.ProbRandom,
		DropRate:   cfg.Colony.DropRate,
		LowerBound: cfg.Pheromone.LowerBound,
	})
	s.parallel = newParallelState(s.field, cfg.Parallel.Workers)

	s.spawn()
	return s, nil
}

// spawn creates the home depot, the food sources and the ants, in that
// order, and registers each on its cell.
func (s *Simulation) spawn() {
	home := components.Position{X: s.cfg.Colony.Home.X, Y: s.cfg.Colony.Home.Y}

	s.home = s.homeMap.NewEntity(&home, &components.Home{})
	s.index.Place(systems.Occupant{E: s.home, Kind: components.KindHome}, home)

	for _, fc := range s.cfg.Food {
		p := components.Position{X: fc.X, Y: fc.Y}
		e := s.foodMap.NewEntity(&p, &components.Food{ID: s.allocID(), Remaining: fc.Stock})
		s.index.Place(systems.Occupant{E: e, Kind: components.KindFood}, p)
		s.food = append(s.food, e)
	}

	for i := 0; i < s.cfg.Colony.Ants; i++ {
		p := home
		ant := components.Ant{ID: s.allocID(), State: components.Searching, Home: home}
		e := s.antMap.NewEntity(&p, &ant)
		s.index.Place(systems.Occupant{E: e, Kind: components.KindAnt}, p)
		s.ants = append(s.ants, e)
		s.tripTracker.Register(ant.ID, 0)
	}
}

func (s *Simulation) allocID() uint32 {
	id := s.nextID
	s.nextID++
	return id
}

// Tick advances the simulation by one step.
func (s *Simulation) Tick() {
	s.perfCollector.StartTick()

	s.perfCollector.StartPhase(telemetry.PhaseCompute)
	s.parallel.compute()

	s.perfCollector.StartPhase(telemetry.PhaseAct)
	s.actAnts()

	s.perfCollector.StartPhase(telemetry.PhaseCommit)
	s.field.Commit()
	s.tick++

	s.perfCollector.StartPhase(telemetry.PhaseTelemetry)
	s.flushTelemetry()

	s.perfCollector.EndTick()
}

// actAnts runs every ant once in creation order.
func (s *Simulation) actAnts() {
	tick := s.tick + 1
	for _, e := range s.ants {
		pos, ant := s.antMap.Get(e)
		state, carried := ant.State, ant.Carried

		action := s.forager.Act(e, pos, ant)

		s.collector.RecordAction(action)
		if action == systems.ActionHomeMove {
			s.collector.RecordDeposit(carried)
		}
		s.tripTracker.Observe(ant.ID, state, action, tick)
	}
}

// Ticks returns the number of completed ticks.
func (s *Simulation) Ticks() int32 {
	return s.tick
}

// Config returns the effective configuration.
func (s *Simulation) Config() *config.Config {
	return s.cfg
}

// PheromoneAt returns the current amount at p (wrapped onto the torus).
func (s *Simulation) PheromoneAt(p components.Position) float64 {
	return s.field.At(s.index.Wrap(p.X, p.Y))
}

// SetPheromone overwrites the amount at p. Used to seed trails.
func (s *Simulation) SetPheromone(p components.Position, amount float64) {
	s.field.Set(s.index.Wrap(p.X, p.Y), amount)
}

// PheromoneTotal returns the pheromone mass over the grid.
func (s *Simulation) PheromoneTotal() float64 {
	return s.field.Total()
}

// HomeCollected returns the food delivered home so far.
func (s *Simulation) HomeCollected() int {
	_, home := s.homeMap.Get(s.home)
	return home.Collected
}

// FoodRemaining returns the stock of each food source in config order.
func (s *Simulation) FoodRemaining() []int {
	out := make([]int, len(s.food))
	for i, e := range s.food {
		_, f := s.foodMap.Get(e)
		out[i] = f.Remaining
	}
	return out
}

// Ants returns every ant's state in creation order.
func (s *Simulation) Ants() []telemetry.AntState {
	out := make([]telemetry.AntState, len(s.ants))
	for i, e := range s.ants {
		pos, ant := s.antMap.Get(e)
		out[i] = telemetry.AntState{ID: ant.ID, Pos: *pos, State: ant.State, Carried: ant.Carried}
	}
	return out
}

// Trips returns per-ant trip statistics ordered by ant ID.
func (s *Simulation) Trips() []telemetry.TripStats {
	return s.tripTracker.Records()
}

// Close stops the worker pool, writes the trip table and closes output files.
func (s *Simulation) Close() error {
	s.parallel.stopWorkers()

	var errs []error
	if err := s.outputManager.WriteTrips(s.tripTracker.Records()); err != nil {
		errs = append(errs, err)
	}
	if err := s.outputManager.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
