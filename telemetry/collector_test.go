package telemetry

import (
	"testing"

	"github.com/pthm-cable/trails/systems"
)

func TestCollectorFlush(t *testing.T) {
	c := NewCollector(10)

	actions := []systems.Action{
		systems.ActionRandomMove, systems.ActionRandomMove,
		systems.ActionGradientMove,
		systems.ActionAte, systems.ActionAte,
		systems.ActionHomeMove, systems.ActionHomeMove, systems.ActionHomeMove,
		systems.ActionDelivered,
	}
	for _, a := range actions {
		c.RecordAction(a)
	}
	c.RecordDeposit(500)
	c.RecordDeposit(450)

	if c.ShouldFlush(9) {
		t.Error("ShouldFlush(9) = true before the window is complete")
	}
	if !c.ShouldFlush(10) {
		t.Fatal("ShouldFlush(10) = false at window end")
	}

	s := c.Flush(10, ColonySample{
		Searching:     3,
		Returning:     2,
		Carried:       []float64{450, 405},
		Collected:     1,
		FoodRemaining: 99,
		FieldMass:     12.5,
	})

	if s.RandomMoves != 2 || s.GradientMoves != 1 || s.Eaten != 2 || s.HomeMoves != 3 || s.Delivered != 1 {
		t.Errorf("counters = %+v", s)
	}
	if s.Deposited != 950 {
		t.Errorf("Deposited = %v, want 950", s.Deposited)
	}
	if s.DeliveryRate != 0.1 {
		t.Errorf("DeliveryRate = %v, want 0.1", s.DeliveryRate)
	}
	if s.CarriedMean != 427.5 {
		t.Errorf("CarriedMean = %v, want 427.5", s.CarriedMean)
	}
	if s.WindowStartTick != 0 || s.WindowEndTick != 10 {
		t.Errorf("window = [%d, %d], want [0, 10]", s.WindowStartTick, s.WindowEndTick)
	}

	// Counters reset for the next window
	next := c.Flush(20, ColonySample{})
	if next.Eaten != 0 || next.Delivered != 0 || next.Deposited != 0 || next.RandomMoves != 0 {
		t.Errorf("counters not reset: %+v", next)
	}
	if next.WindowStartTick != 10 {
		t.Errorf("next window starts at %d, want 10", next.WindowStartTick)
	}
}

func TestCollectorMinimumWindow(t *testing.T) {
	c := NewCollector(0)
	if c.ShouldFlush(0) {
		t.Error("ShouldFlush(0) = true for an empty window")
	}
	if !c.ShouldFlush(1) {
		t.Error("ShouldFlush(1) = false, want a one-tick window")
	}
}

func TestCollectorFractions(t *testing.T) {
	tests := []struct {
		name          string
		sample        ColonySample
		wantCollected float64
		wantCoverage  float64
	}{
		{"quarter", ColonySample{Collected: 75, TotalFood: 300, Coverage: 50, Cells: 2500}, 0.25, 0.02},
		{"no food or cells", ColonySample{Collected: 3}, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewCollector(1).Flush(1, tt.sample)
			if s.CollectedFrac != tt.wantCollected {
				t.Errorf("CollectedFrac = %v, want %v", s.CollectedFrac, tt.wantCollected)
			}
			if s.CoverageFrac != tt.wantCoverage {
				t.Errorf("CoverageFrac = %v, want %v", s.CoverageFrac, tt.wantCoverage)
			}
		})
	}
}

func TestNilCollector(t *testing.T) {
	var c *Collector
	c.RecordAction(systems.ActionAte)
	c.RecordDeposit(1)
	if c.ShouldFlush(1000) {
		t.Error("nil collector asked to flush")
	}
}
