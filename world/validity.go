package world

import (
	"math"

	"github.com/paulmach/orb"

	"carpath/curve"
)

// DefaultClearanceAngle is the bearing tolerance of the turning-clearance test, in radians.
const DefaultClearanceAngle = 0.48

// ClearanceCheck configures the turning-clearance test. A sample fails when an obstacle lies
// within its footprint radius plus TurningRadius and the bearing to the obstacle is within
// AngleTolerance of the path's terminal heading.
type ClearanceCheck struct {
	TurningRadius  float64
	AngleTolerance float64
}

// IsValid reports whether every sample of path keeps clear of the arena wall and of every
// obstacle inflated by obstacleBuffer. An arenaRadius that is not positive and finite disables
// the wall test.
func IsValid(path curve.PosePath, obstacles []Obstacle, arenaRadius, wallBuffer, obstacleBuffer float64) bool {
	return isValid(path, obstacles, arenaRadius, wallBuffer, obstacleBuffer, nil)
}

// IsValidWithClearance is IsValid plus the turning-clearance test.
func IsValidWithClearance(
	path curve.PosePath,
	obstacles []Obstacle,
	arenaRadius, wallBuffer, obstacleBuffer float64,
	clearance ClearanceCheck,
) bool {
	return isValid(path, obstacles, arenaRadius, wallBuffer, obstacleBuffer, &clearance)
}

func isValid(
	path curve.PosePath,
	obstacles []Obstacle,
	arenaRadius, wallBuffer, obstacleBuffer float64,
	clearance *ClearanceCheck,
) bool {
	if len(path) == 0 {
		return true
	}
	bounded := arenaRadius > 0 && !math.IsInf(arenaRadius, 1)
	heading := path.End().Theta
	for _, s := range path {
		p := orb.Point{s.Pose.X, s.Pose.Y}
		if bounded && math.Hypot(p[0], p[1]) > arenaRadius-wallBuffer {
			return false
		}
		for _, o := range obstacles {
			if o.Contains(p, obstacleBuffer) {
				return false
			}
			if clearance != nil && clipsTurn(p, heading, o, *clearance) {
				return false
			}
		}
	}
	return true
}

// clipsTurn is the turning-clearance test for one sample and one obstacle.
func clipsTurn(p orb.Point, heading float64, o Obstacle, c ClearanceCheck) bool {
	if distance(p, o.Center) >= o.FootprintRadius()+c.TurningRadius {
		return false
	}
	return curve.AngleDiff(bearing(p, o.Center), heading) <= c.AngleTolerance
}

// CheckerOptions configures a Checker.
type CheckerOptions struct {
	WallBuffer     float64
	ObstacleBuffer float64
	// Clearance enables the turning-clearance test when non-nil.
	Clearance *ClearanceCheck
}

// Checker validates paths against one world snapshot. It indexes the obstacles once so that
// each path is only tested against the obstacles near it. Its verdicts match IsValid.
type Checker struct {
	world World
	opts  CheckerOptions
	// all holds every obstacle; reduced drops the ones contained in another, which cannot
	// change a verdict unless the turning-clearance test is on.
	all          *SpatialIndex
	reduced      *SpatialIndex
	maxFootprint float64
}

// NewChecker builds a checker for w. The snapshot must not be mutated afterwards.
func NewChecker(w World, opts CheckerOptions) *Checker {
	var maxFootprint float64
	for _, o := range w.Obstacles {
		maxFootprint = math.Max(maxFootprint, o.FootprintRadius())
	}
	return &Checker{
		world:        w,
		opts:         opts,
		all:          NewSpatialIndex(w.Obstacles, 0),
		reduced:      NewSpatialIndex(DropContained(w.Obstacles), 0),
		maxFootprint: maxFootprint,
	}
}

// WithClearance returns a checker sharing c's indexes with the turning-clearance test enabled.
func (c *Checker) WithClearance(clearance ClearanceCheck) *Checker {
	clone := *c
	clone.opts.Clearance = &clearance
	return &clone
}

// Valid reports whether path keeps clear of the wall and every obstacle.
func (c *Checker) Valid(path curve.PosePath) bool {
	if len(path) == 0 {
		return true
	}
	index, reach := c.reduced, c.opts.ObstacleBuffer
	if c.opts.Clearance != nil {
		index = c.all
		reach = math.Max(reach, c.opts.Clearance.TurningRadius+c.maxFootprint)
	}
	nearby := index.Query(pad(pathBound(path), reach))
	return isValid(path, nearby, c.world.ArenaRadius, c.opts.WallBuffer, c.opts.ObstacleBuffer, c.opts.Clearance)
}

// PointClear reports whether a single position is inside the arena and outside every inflated obstacle.
func (c *Checker) PointClear(p orb.Point) bool {
	if c.world.Bounded() && math.Hypot(p[0], p[1]) > c.world.ArenaRadius-c.opts.WallBuffer {
		return false
	}
	for _, o := range c.reduced.Query(pad(orb.Bound{Min: p, Max: p}, c.opts.ObstacleBuffer)) {
		if o.Contains(p, c.opts.ObstacleBuffer) {
			return false
		}
	}
	return true
}

// pad grows b by d on every side.
func pad(b orb.Bound, d float64) orb.Bound {
	return orb.Bound{
		Min: orb.Point{b.Min[0] - d, b.Min[1] - d},
		Max: orb.Point{b.Max[0] + d, b.Max[1] + d},
	}
}

// pathBound is the bound of every sample position.
func pathBound(path curve.PosePath) orb.Bound {
	ls := make(orb.LineString, len(path))
	for i, s := range path {
		ls[i] = orb.Point{s.Pose.X, s.Pose.Y}
	}
	return ls.Bound()
}
