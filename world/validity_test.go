package world

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"go.viam.com/test"

	"carpath/curve"
)

// straightLine samples a forward line along +X from (0,0) to (length,0).
func straightLine(t *testing.T, length float64) curve.PosePath {
	t.Helper()
	path := curve.Path{curve.NewElement(length, curve.Straight, curve.Forward)}
	samples, err := curve.SamplePath(path, 0.25, 1, curve.Pose{})
	test.That(t, err, test.ShouldBeNil)
	return samples
}

func TestIsValidNoObstacles(t *testing.T) {
	path := straightLine(t, 100)
	test.That(t, IsValid(path, nil, math.Inf(1), 0.1, 0.5), test.ShouldBeTrue)
	test.That(t, IsValid(path, nil, 0, 0.1, 0.5), test.ShouldBeTrue)
	test.That(t, IsValid(nil, nil, 10, 0.1, 0.5), test.ShouldBeTrue)
}

func TestIsValidWall(t *testing.T) {
	path := straightLine(t, 5)
	test.That(t, IsValid(path, nil, 6, 0.1, 0.5), test.ShouldBeTrue)
	test.That(t, IsValid(path, nil, 5.05, 0.1, 0.5), test.ShouldBeFalse)
}

func TestIsValidThroughCentre(t *testing.T) {
	path := straightLine(t, 5)
	cyl := []Obstacle{NewCylinder(orb.Point{2.5, 0}, 1)}
	test.That(t, IsValid(path, cyl, math.Inf(1), 0.1, 0.5), test.ShouldBeFalse)

	box := []Obstacle{NewAABB(orb.Point{2.5, 0}, orb.Point{0.2, 0.2})}
	test.That(t, IsValid(path, box, math.Inf(1), 0.1, 0), test.ShouldBeFalse)
}

func TestIsValidBuffer(t *testing.T) {
	path := straightLine(t, 5)

	// 1.4 from the line: clear with no buffer, hit with 0.5
	cyl := []Obstacle{NewCylinder(orb.Point{2.5, 1.4}, 1)}
	test.That(t, IsValid(path, cyl, math.Inf(1), 0.1, 0), test.ShouldBeTrue)
	test.That(t, IsValid(path, cyl, math.Inf(1), 0.1, 0.5), test.ShouldBeFalse)

	box := []Obstacle{NewAABB(orb.Point{2.5, 0.8}, orb.Point{1, 0.5})}
	test.That(t, IsValid(path, box, math.Inf(1), 0.1, 0.2), test.ShouldBeTrue)
	test.That(t, IsValid(path, box, math.Inf(1), 0.1, 0.31), test.ShouldBeFalse)
}

func TestTurningClearance(t *testing.T) {
	path := straightLine(t, 2)
	// ahead of the terminal heading, outside the plain buffer but within the turning circle
	ahead := []Obstacle{NewCylinder(orb.Point{4, 0}, 0.5)}
	test.That(t, IsValid(path, ahead, math.Inf(1), 0.1, 0.5), test.ShouldBeTrue)

	clearance := ClearanceCheck{TurningRadius: 2, AngleTolerance: DefaultClearanceAngle}
	test.That(t, IsValidWithClearance(path, ahead, math.Inf(1), 0.1, 0.5, clearance), test.ShouldBeFalse)

	// same distance but behind the path: the bearing test lets it pass
	behind := []Obstacle{NewCylinder(orb.Point{-2, 0}, 0.5)}
	test.That(t, IsValidWithClearance(path, behind, math.Inf(1), 0.1, 0.5, clearance), test.ShouldBeTrue)
}

func TestCheckerMatchesIsValid(t *testing.T) {
	obstacles := []Obstacle{
		NewCylinder(orb.Point{2.5, 0}, 1),
		NewCylinder(orb.Point{2.5, 0}, 0.5),
		NewCylinder(orb.Point{-6, 6}, 1),
		NewAABB(orb.Point{8, 3}, orb.Point{1, 1}),
		NewAABB(orb.Point{12, -1}, orb.Point{0.5, 2}),
	}
	w := World{Obstacles: obstacles, ArenaRadius: 20}
	checker := NewChecker(w, CheckerOptions{WallBuffer: 0.1, ObstacleBuffer: 0.5})

	for _, tc := range []struct {
		name string
		path curve.PosePath
	}{
		{"through cylinder", straightLine(t, 5)},
		{"short", straightLine(t, 0.5)},
		{"long", straightLine(t, 19)},
		{"past wall", straightLine(t, 25)},
	} {
		t.Run(tc.name, func(t *testing.T) {
			want := IsValid(tc.path, obstacles, w.ArenaRadius, 0.1, 0.5)
			test.That(t, checker.Valid(tc.path), test.ShouldEqual, want)
		})
	}

	samples, err := curve.SamplePath(
		curve.Path{curve.NewElement(math.Pi, curve.Left, curve.Forward)}, 0.25, 3, curve.NewPose(0, -8, 0))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, checker.Valid(samples), test.ShouldEqual, IsValid(samples, obstacles, 20, 0.1, 0.5))

	test.That(t, checker.PointClear(orb.Point{2.5, 1.4}), test.ShouldBeFalse)
	test.That(t, checker.PointClear(orb.Point{2.5, 1.6}), test.ShouldBeTrue)
	test.That(t, checker.PointClear(orb.Point{19.95, 0}), test.ShouldBeFalse)
}

func TestSpatialIndexQuery(t *testing.T) {
	obstacles := []Obstacle{
		NewCylinder(orb.Point{0, 0}, 1),
		NewCylinder(orb.Point{10, 0}, 1),
		NewAABB(orb.Point{5, 5}, orb.Point{1, 1}),
	}
	index := NewSpatialIndex(obstacles, 0.5)
	test.That(t, index.Len(), test.ShouldEqual, 3)

	near := index.Query(orb.Bound{Min: orb.Point{-2, -2}, Max: orb.Point{11, 0}})
	test.That(t, near, test.ShouldResemble, []Obstacle{obstacles[0], obstacles[1]})

	test.That(t, index.Query(orb.Bound{Min: orb.Point{20, 20}, Max: orb.Point{21, 21}}), test.ShouldBeEmpty)

	// a degenerate bound still finds what it touches
	test.That(t, index.Query(orb.Bound{Min: orb.Point{5, 4}, Max: orb.Point{5, 4}}), test.ShouldHaveLength, 1)
}

func TestCheckerWithClearance(t *testing.T) {
	obstacles := []Obstacle{
		NewCylinder(orb.Point{4, 0}, 0.5),
		// contained in the first, but still tested once clearance is on
		NewCylinder(orb.Point{4, 0}, 0.2),
	}
	w := World{Obstacles: obstacles}
	checker := NewChecker(w, CheckerOptions{WallBuffer: 0.1, ObstacleBuffer: 0.5})
	path := straightLine(t, 2)
	test.That(t, checker.Valid(path), test.ShouldBeTrue)

	clearance := ClearanceCheck{TurningRadius: 2, AngleTolerance: DefaultClearanceAngle}
	strict := checker.WithClearance(clearance)
	test.That(t, strict.Valid(path), test.ShouldBeFalse)
	test.That(t, strict.Valid(path), test.ShouldEqual,
		IsValidWithClearance(path, obstacles, 0, 0.1, 0.5, clearance))

	// the original checker is unchanged
	test.That(t, checker.opts.Clearance, test.ShouldBeNil)
	test.That(t, checker.Valid(path), test.ShouldBeTrue)
}
