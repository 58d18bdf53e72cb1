// Package components defines ECS components for the simulation.
package components

// Kind tags what an occupant of a grid cell is.
type Kind uint8

const (
	KindAnt Kind = iota
	KindFood
	KindHome
)

// String returns the display name for a Kind.
func (k Kind) String() string {
	switch k {
	case KindAnt:
		return "ant"
	case KindFood:
		return "food"
	case KindHome:
		return "home"
	}
	return "unknown"
}

// AntState is the behavioural state of an ant.
type AntState uint8

const (
	Searching AntState = iota // foraging for food
	Returning                 // carrying food home, laying a trail
)

// String returns the display name for an AntState.
func (s AntState) String() string {
	if s == Returning {
		return "returning"
	}
	return "searching"
}

// MarshalText encodes the state by name for JSON and CSV output.
func (s AntState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Ant holds per-ant behaviour state. Position lives in its own component.
type Ant struct {
	ID      uint32
	State   AntState
	Carried float64  // pheromone deposited per step while returning
	Home    Position // read-only back-reference to the home cell
}

// Food is a stationary, consumable stock.
type Food struct {
	ID        uint32
	Remaining int
}

// Eat consumes one unit. Returns false when the stock is already empty.
func (f *Food) Eat() bool {
	if f.Remaining <= 0 {
		return false
	}
	f.Remaining--
	return true
}

// Home counts food delivered by returning ants.
type Home struct {
	Collected int
}
