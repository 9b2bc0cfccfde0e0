package curve

import (
	"math"
	"slices"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidTurningRadius is returned when a turning radius is not strictly positive.
	ErrInvalidTurningRadius = errors.New("turning radius must be positive")
	// ErrInvalidStep is returned when a sample step is not strictly positive.
	ErrInvalidStep = errors.New("sample step must be positive")
	// ErrMalformedElement is returned for elements with a negative or non-finite length.
	ErrMalformedElement = errors.New("malformed path element")
)

// jointTolerance is how close two poses must be for Append to treat them as one joint.
const jointTolerance = 1e-6

// Sample is one world-space pose on a sampled path and the gear used to reach it.
type Sample struct {
	Pose Pose `json:"pose"`
	Gear Gear `json:"gear"`
}

// PosePath is an ordered list of world-space samples.
type PosePath []Sample

// End returns the last pose. It panics on an empty path.
func (pp PosePath) End() Pose {
	return pp[len(pp)-1].Pose
}

// Length is the travelled distance along the samples.
func (pp PosePath) Length() float64 {
	var total float64
	for i := 1; i < len(pp); i++ {
		total += pp[i].Pose.DistanceTo(pp[i-1].Pose)
	}
	return total
}

// Append joins other onto pp. If other starts where pp ends, the shared pose is kept once.
// Neither pp's nor other's backing array is written to.
func (pp PosePath) Append(other PosePath) PosePath {
	if len(pp) > 0 && len(other) > 0 && pp.End().Near(other[0].Pose, jointTolerance, jointTolerance) {
		other = other[1:]
	}
	return append(slices.Clip(pp), other...)
}

// Poses returns just the poses.
func (pp PosePath) Poses() []Pose {
	poses := make([]Pose, len(pp))
	for i, s := range pp {
		poses[i] = s.Pose
	}
	return poses
}

// SampleCount is the number of samples emitted for an element of normalised length l at normalised step s.
func SampleCount(l, s float64) int {
	return int(math.Ceil(l/s-1e-9)) + 1
}

// SamplePath discretises a symbolic path starting at the world pose start.
// stepSize is in world units; the path is in normalised units and is scaled by turningRadius.
// Every element ends exactly on its analytic endpoint and joints between elements appear once.
func SamplePath(path Path, stepSize, turningRadius float64, start Pose) (PosePath, error) {
	if !(turningRadius > 0) || math.IsInf(turningRadius, 1) {
		return nil, errors.Wrapf(ErrInvalidTurningRadius, "got %v", turningRadius)
	}
	if !(stepSize > 0) || math.IsInf(stepSize, 1) {
		return nil, errors.Wrapf(ErrInvalidStep, "got %v", stepSize)
	}
	step := stepSize / turningRadius
	start = NewPose(start.X, start.Y, start.Theta)

	if len(path) == 0 {
		return PosePath{{Pose: start, Gear: Forward}}, nil
	}

	total := 0
	for i, e := range path {
		if math.IsNaN(e.Length) || math.IsInf(e.Length, 0) || e.Length < 0 {
			return nil, errors.Wrapf(ErrMalformedElement, "element %d has length %v", i, e.Length)
		}
		total += SampleCount(e.Length, step)
	}

	out := make(PosePath, 0, total)
	cur := start
	for i, e := range path {
		gear := e.Gear
		if gear != Backward {
			gear = Forward
		}
		n := SampleCount(e.Length, step)
		first := 0
		if i > 0 {
			first = 1
		}
		for k := first; k < n; k++ {
			t := float64(k) * step
			if k == n-1 || t > e.Length {
				t = e.Length
			}
			out = append(out, Sample{Pose: e.advance(cur, t, turningRadius), Gear: gear})
		}
		cur = e.advance(cur, e.Length, turningRadius)
	}
	return out, nil
}
