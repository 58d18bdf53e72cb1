package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated colony statistics for a window of ticks.
type WindowStats struct {
	WindowStartTick int32 `csv:"-"`
	WindowEndTick   int32 `csv:"window_end"`

	// Ant states at window end
	Searching int `csv:"searching"`
	Returning int `csv:"returning"`

	// Events during window
	Eaten         int     `csv:"eaten"`
	Delivered     int     `csv:"delivered"`
	RandomMoves   int     `csv:"random_moves"`
	GradientMoves int     `csv:"gradient_moves"`
	HomeMoves     int     `csv:"home_moves"`
	Deposited     float64 `csv:"deposited"`
	DeliveryRate  float64 `csv:"delivery_rate"` // deliveries per tick

	// Food at window end
	Collected       int     `csv:"collected"`
	CollectedFrac   float64 `csv:"collected_frac"` // of the initial stock
	FoodRemaining   int     `csv:"food_remaining"`
	FoodSourcesLeft int     `csv:"food_sources_left"`

	// Field at window end
	FieldMass    float64 `csv:"field_mass"`
	FieldMax     float64 `csv:"field_max"`
	Coverage     int     `csv:"coverage"`      // cells above lowerbound
	CoverageFrac float64 `csv:"coverage_frac"` // of all cells

	// Carried strength of returning ants at window end
	CarriedMean float64 `csv:"carried_mean"`
	CarriedStd  float64 `csv:"carried_std"`
	CarriedP50  float64 `csv:"carried_p50"`
	CarriedP90  float64 `csv:"carried_p90"`
}

// ComputeCarriedStats returns the mean, population std and empirical
// quantiles of values. All zero when values is empty.
func ComputeCarriedStats(values []float64) (mean, std, p50, p90 float64) {
	if len(values) == 0 {
		return 0, 0, 0, 0
	}

	mean, std = stat.PopMeanStdDev(values, nil)

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	p50 = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	p90 = stat.Quantile(0.9, stat.Empirical, sorted, nil)

	return mean, std, p50, p90
}

// LogValue implements slog.LogValuer.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", int(s.WindowStartTick)),
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.Int("searching", s.Searching),
		slog.Int("returning", s.Returning),
		slog.Int("eaten", s.Eaten),
		slog.Int("delivered", s.Delivered),
		slog.Int("random_moves", s.RandomMoves),
		slog.Int("gradient_moves", s.GradientMoves),
		slog.Int("home_moves", s.HomeMoves),
		slog.Float64("deposited", s.Deposited),
		slog.Float64("delivery_rate", s.DeliveryRate),
		slog.Int("collected", s.Collected),
		slog.Float64("collected_frac", s.CollectedFrac),
		slog.Int("food_remaining", s.FoodRemaining),
		slog.Int("food_sources_left", s.FoodSourcesLeft),
		slog.Float64("field_mass", s.FieldMass),
		slog.Float64("field_max", s.FieldMax),
		slog.Int("coverage", s.Coverage),
		slog.Float64("coverage_frac", s.CoverageFrac),
		slog.Float64("carried_mean", s.CarriedMean),
		slog.Float64("carried_p90", s.CarriedP90),
	)
}

// LogStats logs the window summary.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"searching", s.Searching,
		"returning", s.Returning,
		"eaten", s.Eaten,
		"delivered", s.Delivered,
		"collected", s.Collected,
		"collected_frac", s.CollectedFrac,
		"food_remaining", s.FoodRemaining,
		"gradient_moves", s.GradientMoves,
		"random_moves", s.RandomMoves,
		"field_mass", s.FieldMass,
		"coverage", s.Coverage,
		"carried_mean", s.CarriedMean,
	)
}
