package world

import (
	"math"

	"github.com/paulmach/orb"
)

// DefaultNudgeEpsilon is how far past the inflated boundary a nudged goal lands, in meters.
const DefaultNudgeEpsilon = 0.01

// NudgeOutside moves goal out of any obstacle inflated by buffer. A goal inside a cylinder is
// moved along the ray from the centre through the goal to radius+buffer+epsilon; a goal inside
// a box is pushed through its nearest inflated face. When the goal sits on the centre, the
// direction towards from is used, or +X if from is on the centre too.
// It reports whether the goal was moved.
func NudgeOutside(goal, from orb.Point, obstacles []Obstacle, buffer, epsilon float64) (orb.Point, bool) {
	moved := false
	// a nudge can land inside a neighbour, so repeat until nothing contains the goal
	for pass := 0; pass < max(len(obstacles), 1); pass++ {
		changed := false
		for _, o := range obstacles {
			if !o.Contains(goal, buffer) {
				continue
			}
			goal = nudgeFrom(goal, from, o, buffer, epsilon)
			changed = true
		}
		if !changed {
			break
		}
		moved = true
	}
	return goal, moved
}

func nudgeFrom(goal, from orb.Point, o Obstacle, buffer, epsilon float64) orb.Point {
	if o.Kind == AABB {
		return nudgeFromBox(goal, from, o, buffer, epsilon)
	}

	dir, ok := unit(goal, o.Center)
	if !ok {
		if dir, ok = unit(from, o.Center); !ok {
			dir = orb.Point{1, 0}
		}
	}
	reach := o.Radius + buffer + epsilon
	return orb.Point{o.Center[0] + dir[0]*reach, o.Center[1] + dir[1]*reach}
}

func nudgeFromBox(goal, from orb.Point, o Obstacle, buffer, epsilon float64) orb.Point {
	dx, dy := goal[0]-o.Center[0], goal[1]-o.Center[1]
	ex, ey := o.HalfExtents[0]+buffer, o.HalfExtents[1]+buffer

	if ex-math.Abs(dx) <= ey-math.Abs(dy) {
		return orb.Point{o.Center[0] + side(dx, from[0]-o.Center[0])*(ex+epsilon), goal[1]}
	}
	return orb.Point{goal[0], o.Center[1] + side(dy, from[1]-o.Center[1])*(ey+epsilon)}
}

// side is the sign of d, falling back to the sign of hint and then to +1.
func side(d, hint float64) float64 {
	switch {
	case d > 0:
		return 1
	case d < 0:
		return -1
	case hint < 0:
		return -1
	default:
		return 1
	}
}

// unit returns the unit vector from origin to p.
func unit(p, origin orb.Point) (orb.Point, bool) {
	d := distance(p, origin)
	if d < 1e-12 {
		return orb.Point{}, false
	}
	return orb.Point{(p[0] - origin[0]) / d, (p[1] - origin[1]) / d}, true
}
