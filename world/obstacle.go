// Package world describes the planar arena a vehicle plans in: its obstacles, its boundary,
// and the checks that decide whether a sampled path keeps clear of both.
package world

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// Kind tags the shape of an obstacle.
type Kind int

// Obstacle shapes.
const (
	Cylinder Kind = iota
	AABB
)

func (k Kind) String() string {
	if k == AABB {
		return "aabb"
	}
	return "cylinder"
}

// Obstacle is a static obstacle in the arena plane, either a vertical cylinder or an
// axis-aligned box. Radius is used by cylinders, HalfExtents by boxes.
type Obstacle struct {
	Kind        Kind      `json:"kind"`
	Center      orb.Point `json:"center"`
	Radius      float64   `json:"radius,omitempty"`
	HalfExtents orb.Point `json:"halfExtents,omitempty"`
}

// NewCylinder returns a cylinder obstacle.
func NewCylinder(center orb.Point, radius float64) Obstacle {
	return Obstacle{Kind: Cylinder, Center: center, Radius: math.Abs(radius)}
}

// NewAABB returns an axis-aligned box obstacle.
func NewAABB(center, halfExtents orb.Point) Obstacle {
	return Obstacle{
		Kind:        AABB,
		Center:      center,
		HalfExtents: orb.Point{math.Abs(halfExtents[0]), math.Abs(halfExtents[1])},
	}
}

// FootprintRadius is the radius of the smallest circle around Center that holds the obstacle.
func (o Obstacle) FootprintRadius() float64 {
	if o.Kind == AABB {
		return math.Hypot(o.HalfExtents[0], o.HalfExtents[1])
	}
	return o.Radius
}

// Bound returns the axis-aligned bound of the obstacle grown by pad on every side.
func (o Obstacle) Bound(pad float64) orb.Bound {
	hx, hy := o.Radius, o.Radius
	if o.Kind == AABB {
		hx, hy = o.HalfExtents[0], o.HalfExtents[1]
	}
	hx += pad
	hy += pad
	return orb.Bound{
		Min: orb.Point{o.Center[0] - hx, o.Center[1] - hy},
		Max: orb.Point{o.Center[0] + hx, o.Center[1] + hy},
	}
}

// Contains reports whether p is strictly inside the obstacle inflated by buffer.
func (o Obstacle) Contains(p orb.Point, buffer float64) bool {
	if o.Kind == AABB {
		return math.Abs(p[0]-o.Center[0]) < o.HalfExtents[0]+buffer &&
			math.Abs(p[1]-o.Center[1]) < o.HalfExtents[1]+buffer
	}
	return distance(p, o.Center) < o.Radius+buffer
}

func (o Obstacle) String() string {
	if o.Kind == AABB {
		return fmt.Sprintf("aabb(%.3f, %.3f ±%.3f, %.3f)", o.Center[0], o.Center[1], o.HalfExtents[0], o.HalfExtents[1])
	}
	return fmt.Sprintf("cylinder(%.3f, %.3f r=%.3f)", o.Center[0], o.Center[1], o.Radius)
}

// World is a read-only snapshot of the arena. An ArenaRadius of zero, a negative value
// or +Inf means the arena is unbounded.
type World struct {
	Obstacles   []Obstacle `json:"obstacles"`
	ArenaRadius float64    `json:"arenaRadius"`
}

// Bounded reports whether the arena has a finite boundary.
func (w World) Bounded() bool {
	return w.ArenaRadius > 0 && !math.IsInf(w.ArenaRadius, 1)
}
