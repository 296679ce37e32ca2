// Package telemetry aggregates per-day simulation statistics.
package telemetry

// Collector accumulates events within a single day. All recording calls
// are fire-and-forget: they never block and never fail back into the
// tick.
type Collector struct {
	resourcesConsumed int
	preyConsumed      int
	predationDeaths   int
	edgeArrivals      int
	failsafeTrips     int
}

// NewCollector creates an empty day collector.
func NewCollector() *Collector {
	return &Collector{}
}

// RecordResourceConsumed records one resource consumption credit.
func (c *Collector) RecordResourceConsumed() {
	c.resourcesConsumed++
}

// RecordPreyConsumed records one predation credit (prey claimed).
func (c *Collector) RecordPreyConsumed() {
	c.preyConsumed++
}

// RecordPredationDeath records a prey removal after consumption.
func (c *Collector) RecordPredationDeath() {
	c.predationDeaths++
}

// RecordEdgeArrival records an agent reaching the arena edge.
func (c *Collector) RecordEdgeArrival() {
	c.edgeArrivals++
}

// RecordFailsafeTrip records a sunset wall-clock failsafe firing.
func (c *Collector) RecordFailsafeTrip() {
	c.failsafeTrips++
}

// ResourcesConsumed returns the resource credits this day.
func (c *Collector) ResourcesConsumed() int { return c.resourcesConsumed }

// PreyConsumed returns the predation credits this day.
func (c *Collector) PreyConsumed() int { return c.preyConsumed }

// PredationDeaths returns prey removed by predation this day.
func (c *Collector) PredationDeaths() int { return c.predationDeaths }

// EdgeArrivals returns the edge arrivals this day.
func (c *Collector) EdgeArrivals() int { return c.edgeArrivals }

// FailsafeTrips returns the sunset failsafe count this day.
func (c *Collector) FailsafeTrips() int { return c.failsafeTrips }

// Reset clears all counters for the next day.
func (c *Collector) Reset() {
	*c = Collector{}
}
