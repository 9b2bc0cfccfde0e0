package world

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// distance calculates Euclidean distance between two points
func distance(a, b orb.Point) float64 {
	return planar.Distance(a, b)
}

// bearing returns the direction from a to b in radians
func bearing(a, b orb.Point) float64 {
	return math.Atan2(b[1]-a[1], b[0]-a[0])
}

// isBoundContained checks if bound a lies inside bound b
func isBoundContained(a, b orb.Bound) bool {
	return a.Min[0] >= b.Min[0] && a.Max[0] <= b.Max[0] &&
		a.Min[1] >= b.Min[1] && a.Max[1] <= b.Max[1]
}

// isCylinderInBound checks if a circle is fully inside an axis-aligned bound
func isCylinderInBound(center orb.Point, radius float64, b orb.Bound) bool {
	return center[0]-radius >= b.Min[0] && center[0]+radius <= b.Max[0] &&
		center[1]-radius >= b.Min[1] && center[1]+radius <= b.Max[1]
}
