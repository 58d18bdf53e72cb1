package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pthm-cable/trails/components"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// Snapshot is a read-only copy of the simulation state at one tick.
type Snapshot struct {
	Version int   `json:"version"`
	RNGSeed int64 `json:"rng_seed"`
	Tick    int32 `json:"tick"`

	Width  int `json:"width"`
	Height int `json:"height"`

	// Row-major pheromone amounts
	Pheromone []float64 `json:"pheromone"`

	Home HomeState   `json:"home"`
	Food []FoodState `json:"food"`
	Ants []AntState  `json:"ants"`

	Bookmark *Bookmark `json:"bookmark,omitempty"`
}

// HomeState is the home depot in a Snapshot.
type HomeState struct {
	Pos       components.Position `json:"pos"`
	Collected int                 `json:"collected"`
}

// FoodState is one food source in a Snapshot.
type FoodState struct {
	ID        uint32              `json:"id"`
	Pos       components.Position `json:"pos"`
	Remaining int                 `json:"remaining"`
}

// AntState is one ant in a Snapshot.
type AntState struct {
	ID      uint32              `json:"id"`
	Pos     components.Position `json:"pos"`
	State   components.AntState `json:"state"`
	Carried float64             `json:"carried"`
}

// PheromoneAt returns the snapshot amount at p, which must be in bounds.
func (s *Snapshot) PheromoneAt(p components.Position) float64 {
	return s.Pheromone[p.Y*s.Width+p.X]
}

// SaveSnapshot writes the snapshot as indented JSON into dir and returns
// the file path.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	name := fmt.Sprintf("snapshot_%d", snapshot.Tick)
	if snapshot.Bookmark != nil {
		name = fmt.Sprintf("snapshot_%d_%s", snapshot.Tick, snapshot.Bookmark.Type)
	}
	path := filepath.Join(dir, name+".json")

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	return path, nil
}
