package main

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/trails/config"
	"github.com/pthm-cable/trails/game"
	"github.com/pthm-cable/trails/telemetry"
)

// FitnessEvaluator runs headless simulations and scores parameter vectors.
type FitnessEvaluator struct {
	params      *ParamVector
	maxTicks    int32
	seeds       []int64
	baseConfig  *config.Config
	statsWindow int

	mu          sync.Mutex
	bestFitness float64
	bestTrips   []telemetry.TripStats
	lastQuality float64 // quality from the most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxTicks int32, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		maxTicks:    maxTicks,
		seeds:       seeds,
		baseConfig:  baseCfg,
		statsWindow: 100,
		bestFitness: math.Inf(1),
	}
}

// BestTrips returns the per-ant trip table from the best seed of the best
// evaluation.
func (fe *FitnessEvaluator) BestTrips() []telemetry.TripStats {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.bestTrips
}

// LastQuality returns the quality score from the most recent evaluation.
func (fe *FitnessEvaluator) LastQuality() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastQuality
}

// runResult holds the results from a single simulation run.
type runResult struct {
	collected   int
	windowStats []telemetry.WindowStats
	trips       []telemetry.TripStats
}

// seedResult holds the result from one seed evaluation.
type seedResult struct {
	fitness float64
	quality float64
	trips   []telemetry.TripStats
}

// Evaluate computes fitness for a parameter vector (lower = better).
// Seeds run concurrently; each has its own simulation and RNG.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	results := make([]seedResult, len(fe.seeds))
	var wg sync.WaitGroup

	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			r := fe.runSimulation(x, s)
			quality := computeQuality(r.windowStats)
			results[idx] = seedResult{
				fitness: computeFitness(r.collected, quality),
				quality: quality,
				trips:   r.trips,
			}
		}(i, seed)
	}
	wg.Wait()

	var totalFitness, totalQuality float64
	bestSeed := 0
	for i, r := range results {
		totalFitness += r.fitness
		totalQuality += r.quality
		if r.fitness < results[bestSeed].fitness {
			bestSeed = i
		}
	}

	n := float64(len(fe.seeds))
	avgFitness := totalFitness / n

	fe.mu.Lock()
	if avgFitness < fe.bestFitness {
		fe.bestFitness = avgFitness
		fe.bestTrips = results[bestSeed].trips
	}
	fe.lastQuality = totalQuality / n
	fe.mu.Unlock()

	return avgFitness
}

// runSimulation executes a single headless run for maxTicks.
// An invalid config scores as an empty run.
func (fe *FitnessEvaluator) runSimulation(x []float64, seed int64) *runResult {
	cfg := fe.baseConfig.Clone()
	fe.params.ApplyToConfig(cfg, x)
	cfg.Telemetry.StatsWindow = fe.statsWindow
	cfg.Parallel.Workers = 1

	result := &runResult{}

	sim, err := game.New(cfg, game.Options{
		Seed: seed,
		StatsCallback: func(stats telemetry.WindowStats) {
			result.windowStats = append(result.windowStats, stats)
		},
	})
	if err != nil {
		return result
	}
	defer sim.Close()

	for sim.Ticks() < fe.maxTicks {
		sim.Tick()
	}

	result.collected = sim.HomeCollected()
	result.trips = sim.Trips()
	return result
}

// computeFitness calculates the scalar fitness (lower = better).
// Formula: -(collected × (1.0 + 0.2 × quality))
// Collected food dominates; quality separates configs with similar yields.
func computeFitness(collected int, quality float64) float64 {
	return -(float64(collected) * (1.0 + 0.2*quality))
}

// Quality component weights.
const (
	qualityWeightTrail     = 0.6
	qualityWeightStability = 0.4

	qualityWarmupWindows = 2 // skip first N windows
)

// computeQuality scores how well the colony uses its trails, in [0, 1]:
// the share of searching moves that followed the gradient and the
// steadiness of deliveries across windows.
func computeQuality(windows []telemetry.WindowStats) float64 {
	if len(windows) <= qualityWarmupWindows {
		return 0
	}
	valid := windows[qualityWarmupWindows:]

	var trailSum float64
	var trailCount int
	delivered := make([]float64, 0, len(valid))

	for _, w := range valid {
		delivered = append(delivered, float64(w.Delivered))
		if moves := w.GradientMoves + w.RandomMoves; moves > 0 {
			trailSum += float64(w.GradientMoves) / float64(moves)
			trailCount++
		}
	}

	trailScore := 0.0
	if trailCount > 0 {
		trailScore = trailSum / float64(trailCount)
	}

	stabilityScore := 0.0
	if c := cv(delivered); len(delivered) >= 2 && !math.IsNaN(c) {
		stabilityScore = math.Exp(-c * c)
	}

	return clamp01(qualityWeightTrail*trailScore + qualityWeightStability*stabilityScore)
}

// cv computes the coefficient of variation (std/mean). NaN when the mean is 0.
func cv(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	mean, std := stat.PopMeanStdDev(values, nil)
	if mean == 0 {
		return math.NaN()
	}
	return std / mean
}

// clamp01 clamps x to [0, 1].
func clamp01(x float64) float64 {
	return min(max(x, 0), 1)
}
