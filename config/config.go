// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	World     WorldConfig     `yaml:"world"`
	Pheromone PheromoneConfig `yaml:"pheromone"`
	Colony    ColonyConfig    `yaml:"colony"`
	Food      []FoodConfig    `yaml:"food"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Parallel  ParallelConfig  `yaml:"parallel"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// WorldConfig holds the torus dimensions in cells.
type WorldConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// PheromoneConfig holds diffusion field parameters.
type PheromoneConfig struct {
	Evaporate  float64 `yaml:"evaporate"`  // Fraction lost per tick, [0,1]
	Diffusion  float64 `yaml:"diffusion"`  // Neighbour averaging weight per tick, [0,1]
	LowerBound float64 `yaml:"lowerbound"` // Amounts below this are clipped to 0
}

// CellConfig is a grid position in a config file.
type CellConfig struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

// ColonyConfig holds ant behaviour parameters and the home cell.
type ColonyConfig struct {
	Ants       int        `yaml:"ants"`
	Home       CellConfig `yaml:"home"`
	InitDrop   float64    `yaml:"initdrop"`    // Carried pheromone when an ant picks up food
	ProbRandom float64    `yaml:"prob_random"` // Chance of ignoring the gradient while searching
	DropRate   float64    `yaml:"drop_rate"`   // Carried *= drop_rate after each deposit
}

// FoodConfig places one food source.
type FoodConfig struct {
	X     int `yaml:"x"`
	Y     int `yaml:"y"`
	Stock int `yaml:"stock"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         int `yaml:"stats_window"` // ticks per stats window
	PerfWindow          int `yaml:"perf_window"`
	BookmarkHistorySize int `yaml:"bookmark_history_size"`
}

// ParallelConfig controls the field compute worker pool.
type ParallelConfig struct {
	Workers int `yaml:"workers"` // 0 or 1 = serial
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	Cells     int // World.Width * World.Height
	TotalFood int // sum of Food[].Stock
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Default returns a fresh copy of the embedded defaults.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults invalid: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file.
		// A food list in the file replaces the default list.
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	cfg.computeDerived()

	return cfg, nil
}

// Validate reports every out-of-range parameter.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}
	finite := func(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
	unit := func(v float64) bool { return finite(v) && v >= 0 && v <= 1 }

	check(c.World.Width >= 1, "world.width must be >= 1, got %d", c.World.Width)
	check(c.World.Height >= 1, "world.height must be >= 1, got %d", c.World.Height)

	check(unit(c.Pheromone.Evaporate), "pheromone.evaporate must be in [0,1], got %v", c.Pheromone.Evaporate)
	check(unit(c.Pheromone.Diffusion), "pheromone.diffusion must be in [0,1], got %v", c.Pheromone.Diffusion)
	check(finite(c.Pheromone.LowerBound) && c.Pheromone.LowerBound >= 0,
		"pheromone.lowerbound must be finite and >= 0, got %v", c.Pheromone.LowerBound)

	check(c.Colony.Ants >= 0, "colony.ants must be >= 0, got %d", c.Colony.Ants)
	check(finite(c.Colony.InitDrop) && c.Colony.InitDrop >= 0,
		"colony.initdrop must be finite and >= 0, got %v", c.Colony.InitDrop)
	check(unit(c.Colony.ProbRandom), "colony.prob_random must be in [0,1], got %v", c.Colony.ProbRandom)
	check(finite(c.Colony.DropRate) && c.Colony.DropRate > 0 && c.Colony.DropRate <= 1,
		"colony.drop_rate must be in (0,1], got %v", c.Colony.DropRate)
	check(c.inWorld(c.Colony.Home.X, c.Colony.Home.Y),
		"colony.home (%d,%d) outside %dx%d world", c.Colony.Home.X, c.Colony.Home.Y, c.World.Width, c.World.Height)

	for i, f := range c.Food {
		check(c.inWorld(f.X, f.Y), "food[%d] (%d,%d) outside %dx%d world", i, f.X, f.Y, c.World.Width, c.World.Height)
		check(f.Stock >= 0, "food[%d].stock must be >= 0, got %d", i, f.Stock)
	}

	check(c.Telemetry.StatsWindow >= 0, "telemetry.stats_window must be >= 0, got %d", c.Telemetry.StatsWindow)
	check(c.Parallel.Workers >= 0, "parallel.workers must be >= 0, got %d", c.Parallel.Workers)

	return errors.Join(errs...)
}

func (c *Config) inWorld(x, y int) bool {
	return x >= 0 && x < c.World.Width && y >= 0 && y < c.World.Height
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.Cells = c.World.Width * c.World.Height
	c.Derived.TotalFood = 0
	for _, f := range c.Food {
		c.Derived.TotalFood += f.Stock
	}
}

// Refresh recomputes derived values after fields were changed in code.
func (c *Config) Refresh() {
	c.computeDerived()
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	cp := *c
	cp.Food = append([]FoodConfig(nil), c.Food...)
	return &cp
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
