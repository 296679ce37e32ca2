// Package config provides configuration loading and access for the
// simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Arena      ArenaConfig      `yaml:"arena"`
	Spatial    SpatialConfig    `yaml:"spatial"`
	Entity     EntityConfig     `yaml:"entity"`
	Population PopulationConfig `yaml:"population"`
	Genome     GenomeConfig     `yaml:"genome"`
	Energy     EnergyConfig     `yaml:"energy"`
	Behavior   BehaviorConfig   `yaml:"behavior"`
	Phase      PhaseConfig      `yaml:"phase"`
	Physics    PhysicsConfig    `yaml:"physics"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ArenaConfig holds the circular arena geometry. All radii are measured
// from the arena center.
type ArenaConfig struct {
	Radius        float64 `yaml:"radius"`         // hard boundary
	SoftBoundary  float64 `yaml:"soft_boundary"`  // avoidance ramp start
	EdgeRadius    float64 `yaml:"edge_radius"`    // overnight rest ring
	EdgeThreshold float64 `yaml:"edge_threshold"` // at-edge arrival line
	CenterZone    float64 `yaml:"center_zone"`    // resource spawn radius
}

// SpatialConfig holds spatial index parameters.
type SpatialConfig struct {
	CellSize float64 `yaml:"cell_size"`
}

// EntityConfig holds entity creation parameters.
type EntityConfig struct {
	BodyRadius float64 `yaml:"body_radius"` // physical radius at size 1.0
	MaxEnergy  float64 `yaml:"max_energy"`
}

// PopulationConfig holds initial population parameters.
type PopulationConfig struct {
	Consumers int `yaml:"consumers"`
	Resources int `yaml:"resources"` // batch size per day reset
}

// GenomeConfig holds trait mutation parameters. Trait ranges themselves
// are fixed invariants declared in the genome package.
type GenomeConfig struct {
	MutationMagnitude float64 `yaml:"mutation_magnitude"`
}

// EnergyConfig holds energy economics parameters.
type EnergyConfig struct {
	BaseCost     float64 `yaml:"base_cost"`     // drain per second for existing
	MoveCost     float64 `yaml:"move_cost"`     // scaled by size^3 * speed^2
	SenseCost    float64 `yaml:"sense_cost"`    // per unit of sense radius per second
	ResourceGain float64 `yaml:"resource_gain"` // energy restored per resource
	PreyGain     float64 `yaml:"prey_gain"`     // energy restored per prey
}

// BehaviorConfig holds behavior FSM parameters.
type BehaviorConfig struct {
	PredationRatio  float64 `yaml:"predation_ratio"` // size advantage required to hunt
	EatDistance     float64 `yaml:"eat_distance"`
	HuntForce       float64 `yaml:"hunt_force"`
	FleeForce       float64 `yaml:"flee_force"`
	WanderForce     float64 `yaml:"wander_force"`
	ReturnForce     float64 `yaml:"return_force"`
	BoundaryForce   float64 `yaml:"boundary_force"`
	ConsumeDuration float64 `yaml:"consume_duration"` // seconds before a marked prey is purged
}

// PhaseConfig holds the day/sunset/night clock parameters.
type PhaseConfig struct {
	DayDuration      float64 `yaml:"day_duration"`       // simulation seconds
	ReturnThreshold  float64 `yaml:"return_threshold"`   // remaining-time sunset trigger
	SunsetFailsafeMs int     `yaml:"sunset_failsafe_ms"` // wall-clock, not pause-gated
	NightDuration    float64 `yaml:"night_duration"`     // simulation seconds
}

// PhysicsConfig holds parameters for the external integrator. The core
// never applies forces itself; these live here so the driver and the
// core share one config file.
type PhysicsConfig struct {
	DT       float64 `yaml:"dt"`
	MaxSpeed float64 `yaml:"max_speed"`
	Drag     float64 `yaml:"drag"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	LogDays bool `yaml:"log_days"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	SunsetFailsafe time.Duration // SunsetFailsafeMs as a Duration
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded
// defaults if path is empty. Must be called before Cfg().
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

// Load loads configuration from a YAML file, merging with embedded
// defaults. If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Load user config if provided
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	// Compute derived values
	cfg.computeDerived()

	return cfg, nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.SunsetFailsafe = time.Duration(c.Phase.SunsetFailsafeMs) * time.Millisecond

	// Arena radii default relative to the hard boundary when unset.
	if c.Arena.SoftBoundary == 0 {
		c.Arena.SoftBoundary = c.Arena.Radius * 0.76
	}
	if c.Arena.EdgeRadius == 0 {
		c.Arena.EdgeRadius = c.Arena.Radius * 0.94
	}
	if c.Arena.EdgeThreshold == 0 {
		c.Arena.EdgeThreshold = c.Arena.Radius * 0.90
	}
	if c.Arena.CenterZone == 0 {
		c.Arena.CenterZone = c.Arena.Radius * 0.60
	}
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
