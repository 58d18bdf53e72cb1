package game

import (
	"sync"

	"github.com/pthm-cable/trails/components"
	"github.com/pthm-cable/trails/systems"
)

// parallelThreshold is the minimum cell count to split the compute phase
// across workers. Below this the serial pass is faster.
const parallelThreshold = 1024

// workChunk is a range of cells for one worker.
type workChunk struct {
	start, end int
}

// parallelState runs the pheromone compute phase on a persistent pool.
// Workers only read current amounts and write disjoint ranges of the next
// buffer, so the result is identical to the serial pass.
type parallelState struct {
	field      *systems.PheromoneField
	numWorkers int
	threshold  int
	scratches  [][]components.Position

	// Worker pool channels
	workChan chan workChunk
	doneChan chan struct{}
	stopChan chan struct{}
	wg       sync.WaitGroup
	running  bool
}

func newParallelState(field *systems.PheromoneField, numWorkers int) *parallelState {
	if numWorkers < 1 {
		numWorkers = 1
	}
	scratches := make([][]components.Position, numWorkers)
	for i := range scratches {
		scratches[i] = make([]components.Position, 0, 9)
	}
	return &parallelState{
		field:      field,
		numWorkers: numWorkers,
		threshold:  parallelThreshold,
		scratches:  scratches,
	}
}

// startWorkers launches the worker goroutines.
func (p *parallelState) startWorkers() {
	if p.running {
		return
	}

	p.workChan = make(chan workChunk, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// stopWorkers signals all workers to exit and waits for them.
func (p *parallelState) stopWorkers() {
	if !p.running {
		return
	}

	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}

func (p *parallelState) worker(id int) {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			p.scratches[id] = p.field.ComputeRange(chunk.start, chunk.end, p.scratches[id])
			p.doneChan <- struct{}{}
		}
	}
}

// compute runs the field's compute phase, serially for small grids or
// single-worker pools.
func (p *parallelState) compute() {
	n := p.field.Len()
	if p.numWorkers <= 1 || n < p.threshold {
		p.field.BeginCompute()
		p.scratches[0] = p.field.ComputeRange(0, n, p.scratches[0])
		return
	}

	if !p.running {
		p.startWorkers()
	}

	p.field.BeginCompute()

	chunkSize := (n + p.numWorkers - 1) / p.numWorkers
	dispatched := 0
	for w := 0; w < p.numWorkers; w++ {
		start := w * chunkSize
		end := min(start+chunkSize, n)
		if start >= end {
			continue
		}
		p.workChan <- workChunk{start: start, end: end}
		dispatched++
	}

	for i := 0; i < dispatched; i++ {
		<-p.doneChan
	}
}
