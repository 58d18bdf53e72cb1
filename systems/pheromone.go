package systems

import (
	"gonum.org/v1/gonum/floats"

	"github.com/pthm-cable/trails/components"
)

// PheromoneField is a toroidal grid of diffusing, evaporating pheromone.
//
// Each tick runs in two phases: Compute derives every cell's next amount from
// the current amounts, then Commit publishes them. Deposits via Add are
// visible to At immediately; deposits made between Compute and Commit are
// carried over on top of the committed amounts.
type PheromoneField struct {
	W, H int

	// Current amount per cell, row-major, always >= 0
	Amount []float64

	// Parameters
	Evaporate  float64 // fraction lost per tick
	Diffusion  float64 // weight towards the neighbourhood mean per tick
	LowerBound float64 // next amounts below this are clipped to 0

	index     *SpatialIndex
	next      []float64
	deposited []float64 // deposits since BeginCompute
	computing bool      // between BeginCompute and Commit
}

// NewPheromoneField creates an empty field over the index's grid.
func NewPheromoneField(index *SpatialIndex, evaporate, diffusion, lowerBound float64) *PheromoneField {
	n := index.Len()
	return &PheromoneField{
		W:          index.Width(),
		H:          index.Height(),
		Amount:     make([]float64, n),
		Evaporate:  evaporate,
		Diffusion:  diffusion,
		LowerBound: lowerBound,
		index:      index,
		next:       make([]float64, n),
		deposited:  make([]float64, n),
	}
}

// Len returns the number of cells.
func (f *PheromoneField) Len() int { return len(f.Amount) }

// At returns the current amount at p.
func (f *PheromoneField) At(p components.Position) float64 {
	return f.Amount[f.index.Index(p)]
}

// Add deposits amount at p. The cell never goes negative.
func (f *PheromoneField) Add(p components.Position, amount float64) {
	i := f.index.Index(p)
	f.Amount[i] += amount
	if f.Amount[i] < 0 {
		f.Amount[i] = 0
	}
	if f.computing {
		f.deposited[i] += amount
	}
}

// Set overwrites the amount at p (clamped at 0). Used to seed scenarios.
func (f *PheromoneField) Set(p components.Position, amount float64) {
	if amount < 0 {
		amount = 0
	}
	f.Amount[f.index.Index(p)] = amount
}

// NextAt returns the amount computed for cell i by the last compute phase.
func (f *PheromoneField) NextAt(i int) float64 {
	return f.next[i]
}

// nextFor evaluates the update rule for cell i against current amounts.
// scratch is a reusable neighbour buffer; the grown slice is returned.
func (f *PheromoneField) nextFor(i int, scratch []components.Position) (float64, []components.Position) {
	p := f.index.PositionOf(i)
	scratch = f.index.NeighborsInto(scratch[:0], p, false)

	self := f.Amount[i]
	sum := self
	for _, n := range scratch {
		sum += f.Amount[n.Y*f.W+n.X]
	}
	avg := sum / float64(len(scratch)+1)

	next := (1 - f.Evaporate) * (self + f.Diffusion*(avg-self))
	if next < f.LowerBound {
		next = 0
	}
	return next, scratch
}

// BeginCompute opens a tick. Call before ComputeRange.
func (f *PheromoneField) BeginCompute() {
	clear(f.deposited)
	f.computing = true
}

// ComputeRange runs the compute phase for cells [start, end).
// Safe to call concurrently on disjoint ranges with separate scratch buffers,
// after BeginCompute.
func (f *PheromoneField) ComputeRange(start, end int, scratch []components.Position) []components.Position {
	var v float64
	for i := start; i < end; i++ {
		v, scratch = f.nextFor(i, scratch)
		f.next[i] = v
	}
	return scratch
}

// Compute runs the compute phase for every cell.
func (f *PheromoneField) Compute() {
	f.BeginCompute()
	f.ComputeRange(0, len(f.Amount), make([]components.Position, 0, 9))
}

// ComputeOrder runs the compute phase visiting cells in the given order.
// The result does not depend on the order.
func (f *PheromoneField) ComputeOrder(order []int) {
	f.BeginCompute()
	scratch := make([]components.Position, 0, 9)
	var v float64
	for _, i := range order {
		v, scratch = f.nextFor(i, scratch)
		f.next[i] = v
	}
}

// Commit publishes the computed amounts plus any deposits made since the
// compute phase, clipping sums below LowerBound to zero. Without a
// preceding compute phase it does nothing.
func (f *PheromoneField) Commit() {
	if !f.computing {
		return
	}
	for i, v := range f.next {
		v += f.deposited[i]
		if v < f.LowerBound {
			v = 0
		}
		f.Amount[i] = v
	}
	f.computing = false
}

// Total returns the pheromone mass over all cells.
func (f *PheromoneField) Total() float64 {
	return floats.Sum(f.Amount)
}

// Max returns the largest cell amount.
func (f *PheromoneField) Max() float64 {
	if len(f.Amount) == 0 {
		return 0
	}
	return floats.Max(f.Amount)
}

// Coverage returns how many cells hold more than LowerBound.
func (f *PheromoneField) Coverage() int {
	n := 0
	for _, a := range f.Amount {
		if a > f.LowerBound {
			n++
		}
	}
	return n
}

// Amounts returns a copy of the current amounts.
func (f *PheromoneField) Amounts() []float64 {
	out := make([]float64, len(f.Amount))
	copy(out, f.Amount)
	return out
}
