package telemetry

import (
	"sort"

	"github.com/pthm-cable/trails/components"
	"github.com/pthm-cable/trails/systems"
)

// TripStats tracks one ant's foraging trips. A trip runs from leaving home
// (or the start of the run) to the next delivery.
type TripStats struct {
	AntID          uint32 `csv:"ant_id"`
	Trips          int    `csv:"trips"`
	LastTripTicks  int32  `csv:"last_trip_ticks"`
	TotalTripTicks int64  `csv:"total_trip_ticks"`
	SearchingTicks int64  `csv:"searching_ticks"`
	ReturningTicks int64  `csv:"returning_ticks"`

	tripStart int32 `csv:"-"`
}

// MeanTripTicks returns the mean trip length, or 0 before the first trip.
func (s *TripStats) MeanTripTicks() float64 {
	if s.Trips == 0 {
		return 0
	}
	return float64(s.TotalTripTicks) / float64(s.Trips)
}

// TripTracker manages per-ant trip statistics.
type TripTracker struct {
	stats map[uint32]*TripStats
}

// NewTripTracker creates an empty tracker.
func NewTripTracker() *TripTracker {
	return &TripTracker{stats: make(map[uint32]*TripStats)}
}

// Register starts tracking an ant from startTick.
func (tt *TripTracker) Register(antID uint32, startTick int32) {
	tt.stats[antID] = &TripStats{AntID: antID, tripStart: startTick}
}

// Observe records that the ant spent tick in state before acting and took
// action. A delivery closes the running trip.
func (tt *TripTracker) Observe(antID uint32, state components.AntState, action systems.Action, tick int32) {
	s := tt.stats[antID]
	if s == nil {
		return
	}

	if state == components.Returning {
		s.ReturningTicks++
	} else {
		s.SearchingTicks++
	}

	if action == systems.ActionDelivered {
		s.Trips++
		s.LastTripTicks = tick - s.tripStart
		s.TotalTripTicks += int64(s.LastTripTicks)
		s.tripStart = tick
	}
}

// Records returns a copy of every ant's stats ordered by ant ID.
func (tt *TripTracker) Records() []TripStats {
	out := make([]TripStats, 0, len(tt.stats))
	for _, s := range tt.stats {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AntID < out[j].AntID })
	return out
}
