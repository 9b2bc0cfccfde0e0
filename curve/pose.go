// Package curve solves and samples curvature-constrained paths for car-like vehicles.
//
// Solving happens in normalised space, where distances are divided by the vehicle's
// turning radius so that every arc has unit radius. Sampling converts a symbolic path
// back to world units.
package curve

import (
	"math"

	"github.com/golang/geo/r2"
)

const twoPi = 2 * math.Pi

// Pose is a position plus heading. Theta is in radians.
type Pose struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Theta float64 `json:"theta"`
}

// NewPose returns a pose with theta wrapped into [0, 2π).
func NewPose(x, y, theta float64) Pose {
	return Pose{X: x, Y: y, Theta: WrapTo2Pi(theta)}
}

// WrapTo2Pi returns theta in the [0, 2π) range.
func WrapTo2Pi(theta float64) float64 {
	t := theta - twoPi*math.Floor(theta/twoPi)
	if t >= twoPi {
		return 0
	}
	return t
}

// wrapToPi returns theta in the [-π, π) range.
func wrapToPi(theta float64) float64 {
	return WrapTo2Pi(theta+math.Pi) - math.Pi
}

// AngleDiff returns the unsigned smallest angle between a and b.
func AngleDiff(a, b float64) float64 {
	return math.Abs(wrapToPi(a - b))
}

// Point returns the position of the pose.
func (p Pose) Point() r2.Point {
	return r2.Point{X: p.X, Y: p.Y}
}

// DistanceTo is the euclidean distance between the positions of two poses.
func (p Pose) DistanceTo(q Pose) float64 {
	return p.Point().Sub(q.Point()).Norm()
}

// Normalize scales the position by 1/radius. Heading is unchanged.
func (p Pose) Normalize(radius float64) Pose {
	return Pose{X: p.X / radius, Y: p.Y / radius, Theta: p.Theta}
}

// Denormalize scales the position by radius. Heading is unchanged.
func (p Pose) Denormalize(radius float64) Pose {
	return Pose{X: p.X * radius, Y: p.Y * radius, Theta: p.Theta}
}

// Relative expresses to in the frame of from, so that from becomes (0, 0, 0).
func Relative(from, to Pose) Pose {
	dx, dy := to.X-from.X, to.Y-from.Y
	c, s := math.Cos(from.Theta), math.Sin(from.Theta)
	return NewPose(dx*c+dy*s, -dx*s+dy*c, to.Theta-from.Theta)
}

// Near reports whether two poses agree within posTol in position and angTol in heading.
func (p Pose) Near(q Pose, posTol, angTol float64) bool {
	return p.DistanceTo(q) <= posTol && AngleDiff(p.Theta, q.Theta) <= angTol
}
