package systems

import "math"

// Vec2 is a steering vector on the ground plane.
type Vec2 struct {
	X, Z float64
}

// Add returns v + o.
func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{X: v.X + o.X, Z: v.Z + o.Z}
}

// Scale returns v scaled by f.
func (v Vec2) Scale(f float64) Vec2 {
	return Vec2{X: v.X * f, Z: v.Z * f}
}

// Len returns the vector magnitude.
func (v Vec2) Len() float64 {
	return math.Sqrt(v.X*v.X + v.Z*v.Z)
}

// Normalized returns the unit vector in v's direction, or the zero
// vector if v has no length.
func (v Vec2) Normalized() Vec2 {
	l := v.Len()
	if l == 0 {
		return Vec2{}
	}
	return Vec2{X: v.X / l, Z: v.Z / l}
}

// DistSq returns the squared ground-plane distance between two points.
func DistSq(x1, z1, x2, z2 float64) float64 {
	dx := x2 - x1
	dz := z2 - z1
	return dx*dx + dz*dz
}

// WithinAABB reports whether (x2, z2) lies inside the axis-aligned box
// of half-extent r around (x1, z1). Cheap rejection before the exact
// distance computation.
func WithinAABB(x1, z1, x2, z2, r float64) bool {
	return math.Abs(x2-x1) <= r && math.Abs(z2-z1) <= r
}

// BoundaryAvoidance returns a vector pushing (x, z) toward the arena
// center. Inside the soft radius it is zero; between the soft and hard
// radii its magnitude ramps linearly from 0 to strength; beyond the
// hard radius it stays at full strength.
func BoundaryAvoidance(x, z, soft, hard, strength float64) Vec2 {
	dist := math.Sqrt(x*x + z*z)
	if dist <= soft || hard <= soft {
		return Vec2{}
	}
	pressure := (dist - soft) / (hard - soft)
	if pressure > 1 {
		pressure = 1
	}
	inward := Vec2{X: -x / dist, Z: -z / dist}
	return inward.Scale(strength * pressure)
}

// EdgeDirection returns the outward radial unit vector from the arena
// center through (x, z). At the exact center it falls back to a
// deterministic angle seeded from the spawn anchor, so the choice is
// stable per agent.
func EdgeDirection(x, z, spawnX, spawnZ float64) Vec2 {
	dist := math.Sqrt(x*x + z*z)
	if dist == 0 {
		angle := 2 * math.Pi * hash01(spawnX*12.9898+spawnZ*78.233)
		return Vec2{X: math.Cos(angle), Z: math.Sin(angle)}
	}
	return Vec2{X: x / dist, Z: z / dist}
}

// WanderDirection returns a low-frequency pseudo-random unit vector
// derived from the agent's spawn anchor and elapsed simulation time.
// The same inputs always produce the same direction, so wandering is
// reproducible per agent without per-tick randomness.
func WanderDirection(spawnX, spawnZ, elapsed float64) Vec2 {
	// Quantize time so the heading holds for a stretch instead of
	// flickering every tick.
	step := math.Floor(elapsed * 0.5)
	angle := 2 * math.Pi * hash01(spawnX*12.9898+spawnZ*78.233+step*0.377)
	return Vec2{X: math.Cos(angle), Z: math.Sin(angle)}
}

// hash01 maps v to [0, 1) deterministically.
func hash01(v float64) float64 {
	s := math.Sin(v) * 43758.5453
	return s - math.Floor(s)
}
