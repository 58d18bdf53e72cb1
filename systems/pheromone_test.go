package systems

import (
	"math"
	"math/rand"
	"testing"

	"github.com/pthm-cable/trails/components"
)

func newTestField(w, h int, evaporate, diffusion, lowerBound float64) *PheromoneField {
	return NewPheromoneField(NewSpatialIndex(w, h), evaporate, diffusion, lowerBound)
}

// seedRandom fills the field with values in [0, scale) from a fixed seed.
func seedRandom(f *PheromoneField, seed int64, scale float64) {
	rng := rand.New(rand.NewSource(seed))
	for i := range f.Amount {
		f.Amount[i] = rng.Float64() * scale
	}
}

func step(f *PheromoneField) {
	f.Compute()
	f.Commit()
}

func TestPheromoneUpdateRule(t *testing.T) {
	f := newTestField(3, 3, 0.1, 0.5, 0.01)
	f.Set(pos(1, 1), 9)

	step(f)

	// Centre: avg = 9/9 = 1, next = 0.9 * (9 + 0.5*(1-9)) = 4.5
	if got := f.At(pos(1, 1)); math.Abs(got-4.5) > 1e-12 {
		t.Errorf("centre = %v, want 4.5", got)
	}
	// Every other cell sees the centre once: avg = 1, next = 0.9 * (0 + 0.5*1) = 0.45
	for i := 0; i < f.Len(); i++ {
		p := f.index.PositionOf(i)
		if p == pos(1, 1) {
			continue
		}
		if got := f.At(p); math.Abs(got-0.45) > 1e-12 {
			t.Errorf("cell %v = %v, want 0.45", p, got)
		}
	}
}

func TestPheromoneLowerBoundClip(t *testing.T) {
	f := newTestField(5, 5, 0.0, 0.3, 0.5)
	f.Set(pos(2, 2), 2)

	step(f)

	// Neighbours would receive 0.3*(2/9) ~= 0.067, below the bound.
	for _, n := range f.index.Neighbors(pos(2, 2), false) {
		if got := f.At(n); got != 0 {
			t.Errorf("neighbour %v = %v, want exactly 0", n, got)
		}
	}
	if got := f.At(pos(2, 2)); got <= 0 {
		t.Errorf("centre = %v, want > 0", got)
	}
}

func TestPheromoneNeverNegative(t *testing.T) {
	f := newTestField(8, 6, 0.07, 0.3, 0.01)
	seedRandom(f, 7, 10)

	for tick := 0; tick < 200; tick++ {
		f.Compute()
		for i := 0; i < f.Len(); i++ {
			if f.NextAt(i) != 0 && f.NextAt(i) < f.LowerBound {
				t.Fatalf("tick %d: next[%d] = %v is below lowerbound but not clipped", tick, i, f.NextAt(i))
			}
		}
		f.Commit()
		for i, a := range f.Amount {
			if a < 0 {
				t.Fatalf("tick %d: cell %d negative: %v", tick, i, a)
			}
		}
	}

	f.Add(pos(0, 0), -1e9)
	if got := f.At(pos(0, 0)); got != 0 {
		t.Errorf("large negative deposit left %v, want 0", got)
	}
}

func TestPheromoneMassConservedWithoutEvaporation(t *testing.T) {
	for _, d := range []float64{0, 0.1, 0.3, 0.7, 1.0} {
		f := newTestField(9, 7, 0, d, 0)
		seedRandom(f, 11, 5)

		prev := f.Total()
		for tick := 0; tick < 50; tick++ {
			step(f)
			cur := f.Total()
			if cur > prev+1e-9 {
				t.Fatalf("diffusion=%v tick %d: mass increased %v -> %v", d, tick, prev, cur)
			}
			prev = cur
		}
	}
}

func TestPheromoneMassNeverIncreasesWithClipping(t *testing.T) {
	f := newTestField(6, 6, 0, 0.5, 0.05)
	seedRandom(f, 3, 1)

	prev := f.Total()
	for tick := 0; tick < 100; tick++ {
		step(f)
		cur := f.Total()
		if cur > prev+1e-9 {
			t.Fatalf("tick %d: mass increased %v -> %v", tick, prev, cur)
		}
		prev = cur
	}
}

func TestPheromoneMassDecreasesWithEvaporation(t *testing.T) {
	f := newTestField(10, 10, 0.05, 0.3, 0.001)
	seedRandom(f, 5, 20)

	prev := f.Total()
	for tick := 0; tick < 50 && prev > 0; tick++ {
		step(f)
		cur := f.Total()
		if cur >= prev {
			t.Fatalf("tick %d: mass did not decrease %v -> %v", tick, prev, cur)
		}
		prev = cur
	}
}

func TestPheromoneOrderIndependent(t *testing.T) {
	a := newTestField(12, 9, 0.07, 0.3, 0.01)
	b := newTestField(12, 9, 0.07, 0.3, 0.01)
	seedRandom(a, 99, 50)
	copy(b.Amount, a.Amount)

	rng := rand.New(rand.NewSource(1))
	for tick := 0; tick < 20; tick++ {
		a.Compute()
		a.Commit()

		b.ComputeOrder(rng.Perm(b.Len()))
		b.Commit()
	}

	for i := range a.Amount {
		if a.Amount[i] != b.Amount[i] {
			t.Fatalf("cell %d differs: %v vs %v", i, a.Amount[i], b.Amount[i])
		}
	}
}

func TestPheromoneFullDecay(t *testing.T) {
	f := newTestField(7, 7, 1.0, 0, 0.01)
	seedRandom(f, 13, 1000)

	step(f)

	for i, a := range f.Amount {
		if a != 0 {
			t.Errorf("cell %d = %v after full decay, want 0", i, a)
		}
	}
}

func TestPheromoneDepositDuringTickSurvivesCommit(t *testing.T) {
	f := newTestField(5, 5, 0, 0, 0.01)
	f.Set(pos(1, 1), 2)

	f.Compute()
	f.Add(pos(3, 3), 4)
	// Visible immediately
	if got := f.At(pos(3, 3)); got != 4 {
		t.Errorf("deposit not visible before commit: %v", got)
	}
	f.Commit()

	if got := f.At(pos(3, 3)); got != 4 {
		t.Errorf("deposit after commit = %v, want 4", got)
	}
	if got := f.At(pos(1, 1)); got != 2 {
		t.Errorf("untouched cell = %v, want 2", got)
	}
}

func TestPheromoneSmallDepositClippedAtCommit(t *testing.T) {
	f := newTestField(5, 5, 0, 0, 0.01)

	f.Compute()
	f.Add(pos(2, 2), 0.005)
	f.Commit()

	if got := f.At(pos(2, 2)); got != 0 {
		t.Errorf("amount after commit = %v, want 0 below lowerbound %v", got, f.LowerBound)
	}

	// A small deposit onto a cell already above the bound is kept.
	f.Set(pos(1, 1), 0.02)
	f.Compute()
	f.Add(pos(1, 1), 0.005)
	f.Commit()
	if got := f.At(pos(1, 1)); math.Abs(got-0.025) > 1e-12 {
		t.Errorf("amount after commit = %v, want 0.025", got)
	}
}

func TestPheromoneDepositNotSeenByCompletedCompute(t *testing.T) {
	f := newTestField(3, 3, 0, 1, 0)
	f.Compute()
	f.Add(pos(0, 0), 9)

	// The compute phase already ran against an empty field.
	for i := 0; i < f.Len(); i++ {
		if f.NextAt(i) != 0 {
			t.Fatalf("next[%d] = %v, want 0", i, f.NextAt(i))
		}
	}
	f.Commit()
	if got := f.Total(); got != 9 {
		t.Errorf("total after commit = %v, want 9", got)
	}
}

func TestPheromoneCommitWithoutCompute(t *testing.T) {
	f := newTestField(3, 3, 0.5, 0.5, 0)
	f.Set(pos(1, 1), 3)
	f.Commit()
	if got := f.At(pos(1, 1)); got != 3 {
		t.Errorf("Commit without Compute changed the field: %v", got)
	}
}

func TestPheromoneStats(t *testing.T) {
	f := newTestField(4, 4, 0, 0, 0.5)
	f.Set(pos(0, 0), 1)
	f.Set(pos(1, 0), 3)
	f.Set(pos(2, 0), 0.25)

	if got := f.Total(); got != 4.25 {
		t.Errorf("Total = %v, want 4.25", got)
	}
	if got := f.Max(); got != 3 {
		t.Errorf("Max = %v, want 3", got)
	}
	if got := f.Coverage(); got != 2 {
		t.Errorf("Coverage = %v, want 2", got)
	}

	snap := f.Amounts()
	snap[0] = 100
	if f.At(components.Position{}) != 1 {
		t.Error("Amounts returned a view, want a copy")
	}
}
