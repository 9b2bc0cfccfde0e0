package planner

import (
	"math"

	"github.com/paulmach/orb"

	"carpath/curve"
)

// SimplifyWaypoints drops near-collinear points from a grid polyline. The first and last points
// are always kept; an intermediate point is kept only when the turn between the direction from
// the last kept point and the direction to the next point exceeds threshold radians.
func SimplifyWaypoints(points orb.LineString, threshold float64) orb.LineString {
	if len(points) <= 2 {
		return points.Clone()
	}

	simplified := orb.LineString{points[0]}
	for i := 1; i < len(points)-1; i++ {
		prev := simplified[len(simplified)-1]
		incoming := heading(prev, points[i])
		outgoing := heading(points[i], points[i+1])
		if curve.AngleDiff(incoming, outgoing) > threshold {
			simplified = append(simplified, points[i])
		}
	}
	return append(simplified, points[len(points)-1])
}

// heading returns the direction from a to b
func heading(a, b orb.Point) float64 {
	return math.Atan2(b[1]-a[1], b[0]-a[0])
}
