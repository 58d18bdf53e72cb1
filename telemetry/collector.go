// Package telemetry provides colony statistics, bookmarks, run output and snapshots.
package telemetry

import "github.com/pthm-cable/trails/systems"

// ColonySample is the end-of-window state the caller reads off the
// simulation when flushing.
type ColonySample struct {
	Searching int
	Returning int
	Carried   []float64 // carried strength of returning ants

	Collected       int
	FoodRemaining   int
	FoodSourcesLeft int

	FieldMass float64
	FieldMax  float64
	Coverage  int

	TotalFood int // initial stock over all sources
	Cells     int
}

// Collector counts ant actions within a window and produces WindowStats.
// A nil *Collector ignores records and never flushes.
type Collector struct {
	windowTicks     int32
	windowStartTick int32

	eaten         int
	delivered     int
	randomMoves   int
	gradientMoves int
	homeMoves     int
	deposited     float64
}

// NewCollector creates a collector flushing every windowTicks ticks.
func NewCollector(windowTicks int32) *Collector {
	if windowTicks < 1 {
		windowTicks = 1
	}
	return &Collector{windowTicks: windowTicks}
}

// RecordAction counts one ant action.
func (c *Collector) RecordAction(a systems.Action) {
	if c == nil {
		return
	}
	switch a {
	case systems.ActionRandomMove:
		c.randomMoves++
	case systems.ActionGradientMove:
		c.gradientMoves++
	case systems.ActionAte:
		c.eaten++
	case systems.ActionHomeMove:
		c.homeMoves++
	case systems.ActionDelivered:
		c.delivered++
	}
}

// RecordDeposit adds pheromone laid by a returning ant.
func (c *Collector) RecordDeposit(amount float64) {
	if c == nil {
		return
	}
	c.deposited += amount
}

// ShouldFlush reports whether the current window is complete.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	if c == nil {
		return false
	}
	return currentTick-c.windowStartTick >= c.windowTicks
}

// Flush produces the stats for the window ending at currentTick and
// resets the counters.
func (c *Collector) Flush(currentTick int32, sample ColonySample) WindowStats {
	var rate float64
	if span := currentTick - c.windowStartTick; span > 0 {
		rate = float64(c.delivered) / float64(span)
	}

	mean, std, p50, p90 := ComputeCarriedStats(sample.Carried)

	var collectedFrac, coverageFrac float64
	if sample.TotalFood > 0 {
		collectedFrac = float64(sample.Collected) / float64(sample.TotalFood)
	}
	if sample.Cells > 0 {
		coverageFrac = float64(sample.Coverage) / float64(sample.Cells)
	}

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,

		Searching: sample.Searching,
		Returning: sample.Returning,

		Eaten:         c.eaten,
		Delivered:     c.delivered,
		RandomMoves:   c.randomMoves,
		GradientMoves: c.gradientMoves,
		HomeMoves:     c.homeMoves,
		Deposited:     c.deposited,
		DeliveryRate:  rate,

		Collected:       sample.Collected,
		CollectedFrac:   collectedFrac,
		FoodRemaining:   sample.FoodRemaining,
		FoodSourcesLeft: sample.FoodSourcesLeft,

		FieldMass:    sample.FieldMass,
		FieldMax:     sample.FieldMax,
		Coverage:     sample.Coverage,
		CoverageFrac: coverageFrac,

		CarriedMean: mean,
		CarriedStd:  std,
		CarriedP50:  p50,
		CarriedP90:  p90,
	}

	c.windowStartTick = currentTick
	c.eaten = 0
	c.delivered = 0
	c.randomMoves = 0
	c.gradientMoves = 0
	c.homeMoves = 0
	c.deposited = 0

	return stats
}
