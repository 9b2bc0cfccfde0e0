package planner

import (
	"context"
	"math"
	"testing"

	"github.com/paulmach/orb"
	"go.uber.org/zap/zaptest"
	"go.viam.com/test"

	"carpath/curve"
	"carpath/world"
)

func newTestPlanner(t *testing.T, cfg Config, w world.World) *Planner {
	t.Helper()
	p, err := New(cfg, zaptest.NewLogger(t).Sugar())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p.SetWorld(w), test.ShouldBeNil)
	return p
}

func blockingCylinder() world.World {
	return world.World{Obstacles: []world.Obstacle{world.NewCylinder(orb.Point{2.5, 0}, 1)}}
}

// enclosedGoal surrounds (8, 0) with a ring of cylinders the grid cannot pass between.
func enclosedGoal() world.World {
	var obstacles []world.Obstacle
	for i := 0; i < 12; i++ {
		a := float64(i) * 2 * math.Pi / 12
		obstacles = append(obstacles, world.NewCylinder(orb.Point{8 + 2*math.Cos(a), 2 * math.Sin(a)}, 0.5))
	}
	return world.World{Obstacles: obstacles, ArenaRadius: 15}
}

func TestPlanDirectStraight(t *testing.T) {
	p := newTestPlanner(t, DefaultConfig(), world.World{})
	res, err := p.Plan(curve.Pose{}, curve.NewPose(5, 0, 0), VehicleSpec{TurningRadius: 1})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res.Outcome, test.ShouldEqual, Direct)
	test.That(t, res.Words, test.ShouldResemble, []string{"S+"})
	test.That(t, len(res.Path), test.ShouldEqual, 21)
	test.That(t, res.Path.End().Near(curve.NewPose(5, 0, 0), 1e-9, 1e-9), test.ShouldBeTrue)
	test.That(t, res.Length, test.ShouldAlmostEqual, 5)
	test.That(t, res.GoalNudged, test.ShouldBeFalse)
	test.That(t, res.Reverses, test.ShouldBeFalse)
}

func TestPlanReportsReversing(t *testing.T) {
	p := newTestPlanner(t, DefaultConfig(), world.World{})
	res, err := p.Plan(curve.Pose{}, curve.NewPose(-1, 0, 0), VehicleSpec{TurningRadius: 1})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res.Words, test.ShouldResemble, []string{"S-"})
	test.That(t, res.Reverses, test.ShouldBeTrue)
	test.That(t, res.Path.End().Near(curve.NewPose(-1, 0, 0), 1e-9, 1e-9), test.ShouldBeTrue)
}

func TestPlanSamePose(t *testing.T) {
	p := newTestPlanner(t, DefaultConfig(), blockingCylinder())
	start := curve.NewPose(-3, 0, 1)
	res, err := p.Plan(start, start, VehicleSpec{TurningRadius: 1})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res.Outcome, test.ShouldEqual, Direct)
	test.That(t, len(res.Path), test.ShouldEqual, 1)
	test.That(t, res.Path.End().Near(start, 1e-9, 1e-9), test.ShouldBeTrue)
}

func TestPlanAroundObstacle(t *testing.T) {
	p := newTestPlanner(t, DefaultConfig(), blockingCylinder())
	goal := curve.NewPose(5, 0, 0)
	res, err := p.Plan(curve.Pose{}, goal, VehicleSpec{TurningRadius: 2})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res.Outcome, test.ShouldEqual, Stitched)
	test.That(t, res.Outcome.Degraded(), test.ShouldBeFalse)
	test.That(t, res.Path[0].Pose.Near(curve.Pose{}, 1e-9, 1e-9), test.ShouldBeTrue)
	test.That(t, res.Path.End().Near(goal, 1e-6, 1e-6), test.ShouldBeTrue)
	test.That(t, p.Environment().Checker.Valid(res.Path), test.ShouldBeTrue)
	test.That(t, world.IsValid(res.Path, blockingCylinder().Obstacles, 0, 0.1, 0.5), test.ShouldBeTrue)
	test.That(t, len(res.Words), test.ShouldBeGreaterThanOrEqualTo, 1)

	// consecutive samples are never further apart than one step
	for i := 1; i < len(res.Path); i++ {
		test.That(t, res.Path[i].Pose.DistanceTo(res.Path[i-1].Pose), test.ShouldBeLessThanOrEqualTo, 0.25+1e-9)
	}
}

func TestPlanSmallRadiusAroundObstacle(t *testing.T) {
	p := newTestPlanner(t, DefaultConfig(), blockingCylinder())
	goal := curve.NewPose(5, 0, 0)
	res, err := p.Plan(curve.Pose{}, goal, VehicleSpec{TurningRadius: 0.5})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res.Outcome, test.ShouldEqual, Stitched)
	test.That(t, p.Environment().Checker.Valid(res.Path), test.ShouldBeTrue)
	test.That(t, res.Path.End().Near(goal, 1e-6, 1e-6), test.ShouldBeTrue)
}

func TestPlanForwardOnlyIsValidOrDegraded(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AllowReverse = false
	p := newTestPlanner(t, cfg, blockingCylinder())
	res, err := p.Plan(curve.Pose{}, curve.NewPose(5, 0, 0), VehicleSpec{TurningRadius: 2})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(res.Path), test.ShouldBeGreaterThan, 0)
	for _, s := range res.Path {
		test.That(t, s.Gear, test.ShouldEqual, curve.Forward)
	}
	if !res.Outcome.Degraded() {
		test.That(t, p.Environment().Checker.Valid(res.Path), test.ShouldBeTrue)
	}
}

func TestPlanEnclosedGoalFallsBack(t *testing.T) {
	p := newTestPlanner(t, DefaultConfig(), enclosedGoal())
	goal := curve.NewPose(8, 0, 0)
	res, err := p.Plan(curve.Pose{}, goal, VehicleSpec{TurningRadius: 1})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res.Outcome, test.ShouldEqual, FallbackGridUnreachable)
	test.That(t, res.Outcome.Degraded(), test.ShouldBeTrue)
	test.That(t, len(res.Path), test.ShouldBeGreaterThan, 1)
	// the fallback is the unvalidated best direct curve, which drives straight through the ring
	test.That(t, res.Words, test.ShouldResemble, []string{"S+"})
	test.That(t, res.Path.End().Near(goal, 1e-9, 1e-9), test.ShouldBeTrue)
}

func TestPlanStartInsideBufferAbortsStitching(t *testing.T) {
	w := world.World{Obstacles: []world.Obstacle{
		world.NewCylinder(orb.Point{0, 0}, 0.4),
		world.NewCylinder(orb.Point{3, 0}, 1),
	}}
	p := newTestPlanner(t, DefaultConfig(), w)
	goal := curve.NewPose(6, 0, 0)
	res, err := p.Plan(curve.NewPose(0.5, 0, 0), goal, VehicleSpec{TurningRadius: 1})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res.Outcome, test.ShouldEqual, FallbackStitchAborted)
	test.That(t, res.Outcome.Degraded(), test.ShouldBeTrue)
	// no leg can leave the start, so the unvalidated direct curve comes back
	test.That(t, res.Words, test.ShouldResemble, []string{"S+"})
	test.That(t, len(res.Path), test.ShouldBeGreaterThan, 0)
	test.That(t, res.Path.End().Near(goal, 1e-9, 1e-9), test.ShouldBeTrue)
	test.That(t, p.Environment().Checker.Valid(res.Path), test.ShouldBeFalse)
}

func TestPlanWithTurningClearance(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TurningClearance = true
	p := newTestPlanner(t, cfg, blockingCylinder())
	goal := curve.NewPose(5, 0, 0)
	spec := VehicleSpec{TurningRadius: 2}
	res, err := p.Plan(curve.Pose{}, goal, spec)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res.Outcome.Degraded(), test.ShouldBeFalse)
	test.That(t, res.Path.End().Near(goal, 1e-6, 1e-6), test.ShouldBeTrue)

	strict := p.Environment().Checker.WithClearance(world.ClearanceCheck{
		TurningRadius:  spec.TurningRadius,
		AngleTolerance: cfg.ClearanceAngleTolerance,
	})
	test.That(t, strict.Valid(res.Path), test.ShouldBeTrue)
	test.That(t, res.Reverses, test.ShouldBeTrue)
}

func TestPlanWhileWorldChanges(t *testing.T) {
	p := newTestPlanner(t, DefaultConfig(), world.World{})
	worlds := []world.World{blockingCylinder(), {}}

	done := make(chan error, 1)
	go func() {
		for i := 0; i < 20; i++ {
			if err := p.SetWorld(worlds[i%2]); err != nil {
				done <- err
				return
			}
		}
		done <- nil
	}()

	goal := curve.NewPose(5, 0, 0)
	spec := VehicleSpec{TurningRadius: 2}
	for i := 0; i < 5; i++ {
		res, err := p.Plan(curve.Pose{}, goal, spec)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, res.Outcome.Degraded(), test.ShouldBeFalse)
		test.That(t, res.Path.End().Near(goal, 1e-6, 1e-6), test.ShouldBeTrue)

		results, err := p.PlanAll(context.Background(), []Request{{Goal: goal, Vehicle: spec}})
		test.That(t, err, test.ShouldBeNil)
		test.That(t, results[0].Outcome.Degraded(), test.ShouldBeFalse)
	}
	test.That(t, <-done, test.ShouldBeNil)

	// the last published world is the empty one
	env := p.Environment()
	test.That(t, len(env.World.Obstacles), test.ShouldEqual, 0)
	test.That(t, env.Grid.Blocked(orb.Point{2.5, 0}), test.ShouldBeFalse)
}

func TestPlanNudgesGoal(t *testing.T) {
	p := newTestPlanner(t, DefaultConfig(), blockingCylinder())
	res, err := p.Plan(curve.Pose{}, curve.NewPose(2.5, 0, 0), VehicleSpec{TurningRadius: 1})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res.GoalNudged, test.ShouldBeTrue)
	test.That(t, res.Goal.X, test.ShouldAlmostEqual, 0.99)
	test.That(t, res.Goal.Y, test.ShouldAlmostEqual, 0)
	test.That(t, res.Goal.Theta, test.ShouldAlmostEqual, 0)
	test.That(t, res.Outcome, test.ShouldEqual, Direct)
	test.That(t, res.Words, test.ShouldResemble, []string{"S+"})
	test.That(t, res.Path.End().Near(res.Goal, 1e-9, 1e-9), test.ShouldBeTrue)
}

func TestPlanInvalidVehicle(t *testing.T) {
	p := newTestPlanner(t, DefaultConfig(), world.World{})
	for _, r := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		_, err := p.Plan(curve.Pose{}, curve.NewPose(5, 0, 0), VehicleSpec{TurningRadius: r})
		test.That(t, err, test.ShouldWrap, curve.ErrInvalidTurningRadius)
	}
}

func TestPlanPackageLevel(t *testing.T) {
	res, err := Plan(curve.Pose{}, curve.NewPose(5, 0, 0), VehicleSpec{TurningRadius: 2}, blockingCylinder())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res.Outcome, test.ShouldEqual, Stitched)

	_, err = Plan(curve.Pose{}, curve.NewPose(5, 0, 0), VehicleSpec{}, world.World{})
	test.That(t, err, test.ShouldWrap, curve.ErrInvalidTurningRadius)
}

func TestPlanDeterministic(t *testing.T) {
	p := newTestPlanner(t, DefaultConfig(), blockingCylinder())
	spec := VehicleSpec{TurningRadius: 2}
	first, err := p.Plan(curve.Pose{}, curve.NewPose(5, 0, 0), spec)
	test.That(t, err, test.ShouldBeNil)
	second, err := p.Plan(curve.Pose{}, curve.NewPose(5, 0, 0), spec)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, second.Path, test.ShouldResemble, first.Path)
	test.That(t, second.Words, test.ShouldResemble, first.Words)
}

func TestSetWorldReplacesEnvironment(t *testing.T) {
	p := newTestPlanner(t, DefaultConfig(), world.World{})
	before := p.Environment()
	test.That(t, p.SetWorld(blockingCylinder()), test.ShouldBeNil)
	after := p.Environment()
	test.That(t, after, test.ShouldNotEqual, before)
	test.That(t, len(before.World.Obstacles), test.ShouldEqual, 0)
	test.That(t, len(after.World.Obstacles), test.ShouldEqual, 1)
	test.That(t, after.Grid.Blocked(orb.Point{2.5, 0}), test.ShouldBeTrue)

	res, err := p.PlanIn(before, curve.Pose{}, curve.NewPose(5, 0, 0), VehicleSpec{TurningRadius: 2})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res.Outcome, test.ShouldEqual, Direct)
}

func TestPlanAll(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Workers = 2
	p := newTestPlanner(t, cfg, blockingCylinder())
	reqs := []Request{
		{ID: "straight", Start: curve.NewPose(0, 3, 0), Goal: curve.NewPose(5, 3, 0), Vehicle: VehicleSpec{TurningRadius: 1}},
		{ID: "around", Start: curve.Pose{}, Goal: curve.NewPose(5, 0, 0), Vehicle: VehicleSpec{TurningRadius: 2}},
		{ID: "nudged", Start: curve.Pose{}, Goal: curve.NewPose(2.5, 0, 0), Vehicle: VehicleSpec{TurningRadius: 1}},
	}
	results, err := p.PlanAll(context.Background(), reqs)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(results), test.ShouldEqual, 3)
	test.That(t, results[0].Outcome, test.ShouldEqual, Direct)
	test.That(t, results[1].Outcome, test.ShouldEqual, Stitched)
	test.That(t, results[2].GoalNudged, test.ShouldBeTrue)

	reqs = append(reqs, Request{ID: "broken", Goal: curve.NewPose(1, 0, 0)})
	_, err = p.PlanAll(context.Background(), reqs)
	test.That(t, err, test.ShouldWrap, curve.ErrInvalidTurningRadius)
	test.That(t, err.Error(), test.ShouldContainSubstring, "broken")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.PlanAll(ctx, reqs[:1])
	test.That(t, err, test.ShouldWrap, context.Canceled)
}

func TestOutcomeText(t *testing.T) {
	text, err := FallbackStitchAborted.MarshalText()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(text), test.ShouldEqual, "fallback_stitch_aborted")
	test.That(t, Direct.String(), test.ShouldEqual, "direct")
	test.That(t, Outcome(9).String(), test.ShouldEqual, "outcome(9)")
}
