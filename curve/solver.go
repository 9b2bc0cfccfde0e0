package curve

import (
	"math"
	"sort"

	"github.com/samber/lo"
)

const (
	// zeroLength is the element length below which an element is dropped from a candidate.
	zeroLength = 1e-10
	// angleSnap is how close to 2π a wrapped arc must be to count as no turn at all.
	angleSnap = 1e-9
	// endpointTolerance bounds the closed-form endpoint error of an accepted candidate.
	endpointTolerance = 1e-6
)

// Family selects the set of path words the solver enumerates.
type Family int

const (
	// Dubins paths drive forward only.
	Dubins Family = iota
	// ReedsShepp paths may reverse.
	ReedsShepp
)

// FamilyFor returns ReedsShepp when reversing is allowed and Dubins otherwise.
func FamilyFor(allowReverse bool) Family {
	if allowReverse {
		return ReedsShepp
	}
	return Dubins
}

func (f Family) String() string {
	if f == ReedsShepp {
		return "reeds-shepp"
	}
	return "dubins"
}

// Solve returns the shortest feasible path from start to goal. Poses are in normalised units.
// ok is false only if no word of the family is feasible.
func Solve(start, goal Pose, family Family) (Path, bool) {
	all := All(start, goal, family)
	if len(all) == 0 {
		return nil, false
	}
	return all[0], true
}

// All returns every feasible candidate from start to goal, ascending by total length.
// Ties keep enumeration order. Poses are in normalised units.
func All(start, goal Pose, family Family) []Path {
	rel := Relative(start, goal)

	var raw []Path
	switch family {
	case Dubins:
		raw = dubinsCandidates(rel.X, rel.Y, rel.Theta)
	default:
		raw = reedsSheppCandidates(rel.X, rel.Y, rel.Theta)
	}

	seen := make(map[string]bool, len(raw))
	paths := make([]Path, 0, len(raw))
	for _, candidate := range raw {
		candidate = compact(candidate)
		if !reaches(candidate, rel) {
			continue
		}
		key := candidate.key()
		if seen[key] {
			continue
		}
		seen[key] = true
		paths = append(paths, candidate)
	}

	sort.SliceStable(paths, func(i, j int) bool {
		return paths[i].Length() < paths[j].Length()
	})
	return paths
}

// PlanCurve solves between two world-space poses for a vehicle with the given turning radius.
// The returned paths are in normalised units, ready for SamplePath.
func PlanCurve(start, goal Pose, turningRadius float64, family Family) []Path {
	if !(turningRadius > 0) {
		return nil
	}
	return All(start.Normalize(turningRadius), goal.Normalize(turningRadius), family)
}

// compact drops zero-length elements. A path with nothing left (start equals goal) becomes
// a single zero-length straight element so it is still well formed.
func compact(p Path) Path {
	kept := lo.Filter(p, func(e Element, _ int) bool {
		return e.Length > zeroLength
	})
	if len(kept) == 0 {
		return Path{NewElement(0, Straight, Forward)}
	}
	return kept
}

// reaches verifies a candidate: finite non-negative lengths and an endpoint matching goal.
func reaches(p Path, goal Pose) bool {
	for _, e := range p {
		if math.IsNaN(e.Length) || math.IsInf(e.Length, 0) || e.Length < 0 {
			return false
		}
	}
	end := p.EndPose(Pose{}, 1)
	scale := 1 + math.Hypot(goal.X, goal.Y)
	return end.Near(goal, endpointTolerance*scale, endpointTolerance)
}
