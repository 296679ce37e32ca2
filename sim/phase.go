package sim

import (
	"log/slog"
	"time"

	"github.com/pthm-cable/veldt/config"
)

// Phase is the global time-of-day state.
type Phase uint8

const (
	PhaseDay Phase = iota
	PhaseSunset
	PhaseNight
)

// String returns a human-readable phase name.
func (p Phase) String() string {
	switch p {
	case PhaseDay:
		return "day"
	case PhaseSunset:
		return "sunset"
	case PhaseNight:
		return "night"
	default:
		return "unknown"
	}
}

// PhaseEvent signals a transition produced by a single Advance call.
type PhaseEvent uint8

const (
	PhaseEventNone PhaseEvent = iota
	PhaseEventSunset
	PhaseEventNight
	PhaseEventDay // night completed: judgment fires, next day begins
)

// PhaseController drives the Day -> Sunset -> Night -> Day clock.
//
// The day countdown advances by simulation time (speed-scaled and
// pause-gated by the caller). The sunset exit failsafe is wall-clock
// based and deliberately independent of pause and speed: sunset never
// hangs, whatever the simulation clock does.
type PhaseController struct {
	phase     Phase
	day       int
	remaining float64 // sim seconds left in the current day

	nightRemaining float64
	sunsetStart    time.Time

	atEdge map[uint64]struct{}

	now func() time.Time // injectable for tests
}

// NewPhaseController creates a controller at the start of day 1.
func NewPhaseController() *PhaseController {
	pc := &PhaseController{
		atEdge: make(map[uint64]struct{}),
		now:    time.Now,
	}
	pc.Reset()
	return pc
}

// Reset returns the clock to the start of day 1.
func (pc *PhaseController) Reset() {
	pc.phase = PhaseDay
	pc.day = 1
	pc.remaining = config.Cfg().Phase.DayDuration
	pc.nightRemaining = 0
	clear(pc.atEdge)
}

// ReportAtEdge records that an agent's resolved position crossed the
// edge threshold. Fed by the external movement layer; consumed by the
// sunset exit condition.
func (pc *PhaseController) ReportAtEdge(id uint64) {
	pc.atEdge[id] = struct{}{}
}

// AtEdge reports whether id has arrived at the edge this day.
func (pc *PhaseController) AtEdge(id uint64) bool {
	_, ok := pc.atEdge[id]
	return ok
}

// Advance moves the clock by dt simulation seconds and returns the
// transition that occurred, if any. allAtEdge and populationZero are
// the sunset exit inputs computed by the caller over live, non-zombie
// consumers.
func (pc *PhaseController) Advance(dt float64, allAtEdge, populationZero bool) PhaseEvent {
	cfg := config.Cfg()

	switch pc.phase {
	case PhaseDay:
		pc.remaining -= dt
		if pc.remaining <= cfg.Phase.ReturnThreshold {
			// Displayed remaining time freezes at the threshold.
			pc.remaining = cfg.Phase.ReturnThreshold
			pc.phase = PhaseSunset
			pc.sunsetStart = pc.now()
			return PhaseEventSunset
		}

	case PhaseSunset:
		failsafe := pc.now().Sub(pc.sunsetStart) >= cfg.Derived.SunsetFailsafe
		if allAtEdge || populationZero || failsafe {
			if failsafe && !allAtEdge && !populationZero {
				// Recovery path, not an error.
				slog.Info("sunset failsafe elapsed", "day", pc.day,
					"waited", cfg.Derived.SunsetFailsafe)
			}
			pc.phase = PhaseNight
			pc.nightRemaining = cfg.Phase.NightDuration
			return PhaseEventNight
		}

	case PhaseNight:
		pc.nightRemaining -= dt
		if pc.nightRemaining <= 0 {
			pc.phase = PhaseDay
			pc.day++
			pc.remaining = cfg.Phase.DayDuration
			clear(pc.atEdge)
			return PhaseEventDay
		}
	}

	return PhaseEventNone
}

// SunsetElapsed returns the wall-clock time spent in the current
// sunset, zero outside it.
func (pc *PhaseController) SunsetElapsed() time.Duration {
	if pc.phase != PhaseSunset {
		return 0
	}
	return pc.now().Sub(pc.sunsetStart)
}

// Phase returns the current phase.
func (pc *PhaseController) Phase() Phase {
	return pc.phase
}

// Day returns the current day index, starting at 1.
func (pc *PhaseController) Day() int {
	return pc.day
}

// Remaining returns the displayed remaining day time: counting down
// during the day, frozen at the return threshold during sunset, zero at
// night.
func (pc *PhaseController) Remaining() float64 {
	if pc.phase == PhaseNight {
		return 0
	}
	return pc.remaining
}

// Active reports whether agents behave this phase (day and sunset).
func (pc *PhaseController) Active() bool {
	return pc.phase == PhaseDay || pc.phase == PhaseSunset
}
