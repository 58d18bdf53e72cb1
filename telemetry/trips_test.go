package telemetry

import (
	"testing"

	"github.com/pthm-cable/trails/components"
	"github.com/pthm-cable/trails/systems"
)

func TestTripTrackerCountsTrips(t *testing.T) {
	tt := NewTripTracker()
	tt.Register(7, 0)

	// Search for three ticks, eat, return for two ticks, deliver.
	tt.Observe(7, components.Searching, systems.ActionRandomMove, 1)
	tt.Observe(7, components.Searching, systems.ActionGradientMove, 2)
	tt.Observe(7, components.Searching, systems.ActionAte, 3)
	tt.Observe(7, components.Returning, systems.ActionHomeMove, 4)
	tt.Observe(7, components.Returning, systems.ActionHomeMove, 5)
	tt.Observe(7, components.Returning, systems.ActionDelivered, 6)

	s := tt.Records()[0]
	if s.Trips != 1 || s.LastTripTicks != 6 {
		t.Errorf("trips = %d, last = %d; want 1, 6", s.Trips, s.LastTripTicks)
	}
	if s.SearchingTicks != 3 || s.ReturningTicks != 3 {
		t.Errorf("searching/returning = %d/%d, want 3/3", s.SearchingTicks, s.ReturningTicks)
	}

	// Second, shorter trip
	tt.Observe(7, components.Searching, systems.ActionAte, 7)
	tt.Observe(7, components.Returning, systems.ActionDelivered, 8)
	s = tt.Records()[0]
	if s.Trips != 2 || s.LastTripTicks != 2 {
		t.Errorf("trips = %d, last = %d; want 2, 2", s.Trips, s.LastTripTicks)
	}
	if got := s.MeanTripTicks(); got != 4 {
		t.Errorf("MeanTripTicks = %v, want 4", got)
	}
}

func TestTripTrackerIgnoresUnknownAnts(t *testing.T) {
	tt := NewTripTracker()
	tt.Observe(1, components.Returning, systems.ActionDelivered, 5)
	if recs := tt.Records(); len(recs) != 0 {
		t.Error("unregistered ant was tracked")
	}
}

func TestTripTrackerRecordsSorted(t *testing.T) {
	tt := NewTripTracker()
	for _, id := range []uint32{5, 1, 3} {
		tt.Register(id, 0)
	}
	recs := tt.Records()
	if len(recs) != 3 || recs[0].AntID != 1 || recs[1].AntID != 3 || recs[2].AntID != 5 {
		t.Errorf("Records = %+v, want sorted by ant ID", recs)
	}
	if (&TripStats{}).MeanTripTicks() != 0 {
		t.Error("MeanTripTicks before any trip should be 0")
	}
}
