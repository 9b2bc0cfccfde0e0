package planner

import (
	"math"

	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"carpath/curve"
	"carpath/world"
)

// leg is one validated curve segment of a stitched path, ending at pose to.
type leg struct {
	to      curve.Pose
	path    curve.Path
	samples curve.PosePath
}

// stitcher joins grid waypoints with validated curves for one vehicle and one environment.
type stitcher struct {
	checker  *world.Checker
	family   curve.Family
	radius   float64
	step     float64
	maxDepth int
	logger   *zap.SugaredLogger
}

// connect returns the shortest candidate curve from a to b whose samples validate.
func (s *stitcher) connect(a, b curve.Pose) (leg, bool) {
	for _, candidate := range curve.PlanCurve(a, b, s.radius, s.family) {
		samples, err := curve.SamplePath(candidate, s.step, s.radius, a)
		if err != nil {
			s.logger.Debugw("skipping candidate", "word", candidate.Word(), "error", err)
			continue
		}
		if s.checker.Valid(samples) {
			return leg{to: b, path: candidate, samples: samples}, true
		}
	}
	return leg{}, false
}

// stitch walks the simplified waypoints from start to goal, always reaching for the farthest
// waypoint a valid curve connects to. waypoints[0] must be the start position and the last
// waypoint the goal position. It reports false when a segment cannot be bridged even by
// subdivision.
func (s *stitcher) stitch(start, goal curve.Pose, waypoints orb.LineString) ([]leg, bool) {
	last := len(waypoints) - 1
	var legs []leg
	cur := start
	for i := 0; i < last; {
		advanced := false
		for j := last; j > i && !advanced; j-- {
			for _, target := range s.targets(j, cur, goal, waypoints) {
				l, ok := s.connect(cur, target)
				if !ok {
					continue
				}
				s.logger.Debugf("waypoint %d reached from %d with %s", j, i, l.path.Word())
				legs = append(legs, l)
				cur, i, advanced = target, j, true
				break
			}
		}
		if advanced {
			continue
		}

		s.logger.Debugf("no waypoint reachable from %d, subdividing", i)
		sub, ok := s.subdivide(cur, s.targets(i+1, cur, goal, waypoints)[0], 1)
		if !ok {
			s.logger.Debugf("subdivision towards waypoint %d exhausted", i+1)
			return nil, false
		}
		legs = append(legs, sub...)
		cur = sub[len(sub)-1].to
		i++
	}
	return legs, true
}

// targets lists the poses to try for waypoint j when coming from cur: the chord heading first,
// then the heading of the outgoing grid segment. The last waypoint only takes the goal heading.
func (s *stitcher) targets(j int, cur, goal curve.Pose, waypoints orb.LineString) []curve.Pose {
	if j == len(waypoints)-1 {
		return []curve.Pose{goal}
	}
	p := waypoints[j]
	chord := curve.NewPose(p[0], p[1], math.Atan2(p[1]-cur.Y, p[0]-cur.X))
	next := waypoints[j+1]
	outgoing := curve.NewPose(p[0], p[1], heading(p, next))
	if curve.AngleDiff(chord.Theta, outgoing.Theta) < 1e-9 {
		return []curve.Pose{chord}
	}
	return []curve.Pose{chord, outgoing}
}

// subdivide bisects a segment that could not be connected directly, trying each half directly
// before splitting it again, down to maxDepth levels.
func (s *stitcher) subdivide(a, b curve.Pose, depth int) ([]leg, bool) {
	if depth > s.maxDepth {
		return nil, false
	}
	mid := curve.NewPose((a.X+b.X)/2, (a.Y+b.Y)/2, math.Atan2(b.Y-a.Y, b.X-a.X))

	var legs []leg
	for _, half := range [2][2]curve.Pose{{a, mid}, {mid, b}} {
		if l, ok := s.connect(half[0], half[1]); ok {
			legs = append(legs, l)
			continue
		}
		sub, ok := s.subdivide(half[0], half[1], depth+1)
		if !ok {
			return nil, false
		}
		legs = append(legs, sub...)
	}
	return legs, true
}

// resimplify replaces runs of consecutive legs with one curve wherever a single valid curve
// is no longer than the run, scanning farthest-first from each leg start.
func (s *stitcher) resimplify(start curve.Pose, legs []leg) []leg {
	if len(legs) < 2 {
		return legs
	}
	var out []leg
	cur := start
	for i := 0; i < len(legs); {
		merged := false
		for j := len(legs) - 1; j > i; j-- {
			var combined float64
			for _, l := range legs[i : j+1] {
				combined += l.path.Length()
			}
			l, ok := s.connect(cur, legs[j].to)
			if ok && l.path.Length() <= combined+1e-9 {
				s.logger.Debugf("merged legs %d to %d into %s", i, j, l.path.Word())
				out = append(out, l)
				cur, i, merged = l.to, j+1, true
				break
			}
		}
		if !merged {
			out = append(out, legs[i])
			cur = legs[i].to
			i++
		}
	}
	return out
}

// join concatenates the samples of every leg, keeping each joint once.
func join(start curve.Pose, legs []leg) curve.PosePath {
	if len(legs) == 0 {
		return curve.PosePath{{Pose: start, Gear: curve.Forward}}
	}
	var path curve.PosePath
	for _, l := range legs {
		path = path.Append(l.samples)
	}
	return path
}
