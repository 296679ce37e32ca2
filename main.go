package main

import (
	"flag"
	"log/slog"
	"math"
	"os"
	"time"

	"github.com/pthm-cable/veldt/config"
	"github.com/pthm-cable/veldt/sim"
	"github.com/pthm-cable/veldt/telemetry"
)

// driver owns the movement layer: it integrates steering forces into
// velocities and positions, clamps to the arena, and feeds resolved
// positions and edge arrivals back into the core.
type driver struct {
	s          *sim.Simulation
	velocities map[uint64]vec
}

type vec struct{ x, z float64 }

func newDriver(s *sim.Simulation) *driver {
	return &driver{s: s, velocities: make(map[uint64]vec)}
}

// step runs one fixed-dt frame: core tick, integration, sync.
func (d *driver) step(dt float64) {
	cfg := config.Cfg()

	decisions := d.s.Tick(dt)

	for _, dec := range decisions {
		v := d.velocities[dec.ID]

		v.x += dec.Force.X * dt
		v.z += dec.Force.Z * dt

		damp := 1 - cfg.Physics.Drag*dt
		if damp < 0 {
			damp = 0
		}
		v.x *= damp
		v.z *= damp

		if speed := math.Hypot(v.x, v.z); speed > cfg.Physics.MaxSpeed {
			scale := cfg.Physics.MaxSpeed / speed
			v.x *= scale
			v.z *= scale
		}
		d.velocities[dec.ID] = v
	}

	for _, view := range d.s.Consumers() {
		if view.BeingEaten {
			continue
		}
		v, ok := d.velocities[view.ID]
		if !ok {
			continue
		}

		x := view.X + v.x*dt
		z := view.Z + v.z*dt

		// Hard arena clamp: the boundary is a wall, not a suggestion.
		if dist := math.Hypot(x, z); dist > cfg.Arena.Radius {
			scale := cfg.Arena.Radius / dist
			x *= scale
			z *= scale
		}

		d.s.SyncPosition(view.ID, x, view.Y, z)

		if math.Hypot(x, z) >= cfg.Arena.EdgeThreshold {
			d.s.ReportAtEdge(view.ID)
		}
	}
}

// prune drops velocity entries for consumers that no longer exist.
func (d *driver) prune() {
	alive := make(map[uint64]struct{}, len(d.velocities))
	for _, view := range d.s.Consumers() {
		alive[view.ID] = struct{}{}
	}
	for id := range d.velocities {
		if _, ok := alive[id]; !ok {
			delete(d.velocities, id)
		}
	}
}

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	days := flag.Int("days", 10, "Stop after N completed days (0 = unlimited)")
	speed := flag.Float64("speed", 1, "Simulation speed multiplier")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")

	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	out, err := telemetry.NewOutputManager(*outputDir)
	if err != nil {
		slog.Error("failed to create output directory", "error", err)
		os.Exit(1)
	}
	defer out.Close()

	if err := out.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config snapshot", "error", err)
		os.Exit(1)
	}

	s := sim.NewSimulation(sim.Options{Seed: rngSeed, Output: out})
	s.SetSpeed(*speed)
	s.Setup(cfg.Population.Consumers, cfg.Population.Resources)

	slog.Info("starting simulation",
		"seed", rngSeed,
		"days", *days,
		"speed", *speed,
		"consumers", cfg.Population.Consumers,
		"resources", cfg.Population.Resources,
	)

	d := newDriver(s)
	dt := cfg.Physics.DT
	completed := 0

	for {
		d.step(dt)

		if n := len(s.History()); n > completed {
			completed = n
			d.prune()

			if s.ConsumerCount() == 0 {
				slog.Info("population extinct", "day", completed)
				return
			}
			if *days > 0 && completed >= *days {
				slog.Info("run complete", "days", completed)
				return
			}
		}
	}
}
