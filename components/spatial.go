package components

// Position is a grid cell on the torus.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}
