package telemetry

import (
	"log/slog"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DaySnapshot is the immutable record appended to history once per day.
// Trait statistics are computed over the pre-judgment population of
// non-zombie consumers; Population is the post-judgment count.
type DaySnapshot struct {
	Day        int `csv:"day"`
	Population int `csv:"population"`
	Births     int `csv:"births"`
	Deaths     int `csv:"deaths"`

	StarvationDeaths int `csv:"starvation_deaths"`
	PredationDeaths  int `csv:"predation_deaths"`

	ResourcesConsumed int `csv:"resources_consumed"`
	PreyConsumed      int `csv:"prey_consumed"`

	AvgSpeed float64 `csv:"avg_speed"`
	AvgSize  float64 `csv:"avg_size"`
	AvgSense float64 `csv:"avg_sense"`
	MaxSpeed float64 `csv:"max_speed"`
	MaxSize  float64 `csv:"max_size"`
	MaxSense float64 `csv:"max_sense"`

	MaxGeneration int `csv:"max_generation"`
}

// TraitStats computes the mean and maximum of a trait sample. Returns
// zeros for an empty sample.
func TraitStats(values []float64) (mean, max float64) {
	if len(values) == 0 {
		return 0, 0
	}
	return stat.Mean(values, nil), floats.Max(values)
}

// LogValue implements slog.LogValuer for structured logging.
func (s DaySnapshot) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("day", s.Day),
		slog.Int("population", s.Population),
		slog.Int("births", s.Births),
		slog.Int("deaths", s.Deaths),
		slog.Int("starvation_deaths", s.StarvationDeaths),
		slog.Int("predation_deaths", s.PredationDeaths),
		slog.Int("resources_consumed", s.ResourcesConsumed),
		slog.Int("prey_consumed", s.PreyConsumed),
		slog.Float64("avg_speed", s.AvgSpeed),
		slog.Float64("avg_size", s.AvgSize),
		slog.Float64("avg_sense", s.AvgSense),
		slog.Float64("max_speed", s.MaxSpeed),
		slog.Float64("max_size", s.MaxSize),
		slog.Float64("max_sense", s.MaxSense),
		slog.Int("max_generation", s.MaxGeneration),
	)
}
