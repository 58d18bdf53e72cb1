package game

import (
	"log/slog"

	"github.com/pthm-cable/trails/components"
	"github.com/pthm-cable/trails/telemetry"
)

// flushTelemetry closes the stats window when it is due, writes the CSV
// rows and handles bookmarks.
func (s *Simulation) flushTelemetry() {
	if !s.collector.ShouldFlush(s.tick) {
		return
	}

	stats := s.collector.Flush(s.tick, s.sampleColony())
	perfStats := s.perfCollector.Stats()

	if s.statsCallback != nil {
		s.statsCallback(stats)
	}

	if s.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if err := s.outputManager.WriteTelemetry(stats); err != nil {
		slog.Error("failed to write telemetry", "error", err)
	}
	if err := s.outputManager.WritePerf(perfStats, stats.WindowEndTick); err != nil {
		slog.Error("failed to write perf", "error", err)
	}

	for _, bm := range s.bookmarkDetector.Check(stats) {
		if s.logStats {
			bm.LogBookmark()
		}
		if err := s.outputManager.WriteBookmark(bm); err != nil {
			slog.Error("failed to write bookmark", "error", err)
		}
		if s.snapshotDir != "" {
			s.saveSnapshot(&bm)
		}
	}
}

// sampleColony reads the end-of-window colony state.
func (s *Simulation) sampleColony() telemetry.ColonySample {
	var sample telemetry.ColonySample

	query := s.antFilter.Query()
	for query.Next() {
		_, ant := query.Get()
		if ant.State == components.Returning {
			sample.Returning++
			sample.Carried = append(sample.Carried, ant.Carried)
		} else {
			sample.Searching++
		}
	}

	foodQuery := s.foodFilter.Query()
	for foodQuery.Next() {
		_, food := foodQuery.Get()
		sample.FoodRemaining += food.Remaining
		if food.Remaining > 0 {
			sample.FoodSourcesLeft++
		}
	}

	sample.Collected = s.HomeCollected()
	sample.FieldMass = s.field.Total()
	sample.FieldMax = s.field.Max()
	sample.Coverage = s.field.Coverage()
	sample.TotalFood = s.cfg.Derived.TotalFood
	sample.Cells = s.cfg.Derived.Cells

	return sample
}

// Snapshot returns a copy of the current state.
func (s *Simulation) Snapshot() *telemetry.Snapshot {
	return s.createSnapshot(nil)
}

func (s *Simulation) createSnapshot(bookmark *telemetry.Bookmark) *telemetry.Snapshot {
	homePos, home := s.homeMap.Get(s.home)

	snapshot := &telemetry.Snapshot{
		Version:   telemetry.SnapshotVersion,
		RNGSeed:   s.rngSeed,
		Tick:      s.tick,
		Width:     s.index.Width(),
		Height:    s.index.Height(),
		Pheromone: s.field.Amounts(),
		Home:      telemetry.HomeState{Pos: *homePos, Collected: home.Collected},
		Food:      make([]telemetry.FoodState, 0, len(s.food)),
		Ants:      s.Ants(),
		Bookmark:  bookmark,
	}

	for _, e := range s.food {
		pos, food := s.foodMap.Get(e)
		snapshot.Food = append(snapshot.Food, telemetry.FoodState{
			ID:        food.ID,
			Pos:       *pos,
			Remaining: food.Remaining,
		})
	}

	return snapshot
}

// saveSnapshot writes a snapshot tagged with the bookmark to snapshotDir.
func (s *Simulation) saveSnapshot(bookmark *telemetry.Bookmark) {
	path, err := telemetry.SaveSnapshot(s.createSnapshot(bookmark), s.snapshotDir)
	if err != nil {
		slog.Error("failed to save snapshot", "error", err)
		return
	}
	slog.Info("snapshot saved", "path", path, "tick", s.tick)
}
