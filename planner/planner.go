// Package planner plans drivable paths for car-like vehicles. It tries a single
// curvature-constrained curve first and, when obstacles block every candidate, stitches
// curves along a route found on the occupancy grid.
package planner

import (
	"context"
	"fmt"
	"runtime"

	"github.com/paulmach/orb"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"carpath/curve"
	"carpath/grid"
	"carpath/world"
)

// minGridWaypoints is the shortest grid route worth stitching along.
const minGridWaypoints = 3

// Outcome says how a path was produced.
type Outcome int

const (
	// Direct means a single curve from start to goal validated.
	Direct Outcome = iota
	// Stitched means the path was assembled from curves along a grid route.
	Stitched
	// FallbackGridUnreachable means the grid found no usable route and the best direct curve
	// was returned without validation.
	FallbackGridUnreachable
	// FallbackStitchAborted means stitching gave up and the best direct curve was returned
	// without validation.
	FallbackStitchAborted
)

func (o Outcome) String() string {
	switch o {
	case Direct:
		return "direct"
	case Stitched:
		return "stitched"
	case FallbackGridUnreachable:
		return "fallback_grid_unreachable"
	case FallbackStitchAborted:
		return "fallback_stitch_aborted"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Degraded reports whether the path may not be obstacle-clear.
func (o Outcome) Degraded() bool {
	return o == FallbackGridUnreachable || o == FallbackStitchAborted
}

// Result is a planned path. Path is never empty.
type Result struct {
	Path    curve.PosePath `json:"path"`
	Outcome Outcome        `json:"outcome"`
	// Goal is the goal actually planned to, after any nudge out of an obstacle.
	Goal       curve.Pose `json:"goal"`
	GoalNudged bool       `json:"goalNudged"`
	// Words holds the word of every curve in the path, in order.
	Words  []string `json:"words"`
	Length float64  `json:"length"`
	// Reverses is set when any part of the path is driven backward.
	Reverses bool `json:"reverses"`
}

// Environment is everything built once per world snapshot. It is immutable.
type Environment struct {
	World   world.World
	Checker *world.Checker
	Grid    *grid.OccupancyGrid
}

// NewEnvironment builds the checker and occupancy grid for w.
func NewEnvironment(w world.World, cfg Config) (*Environment, error) {
	arena := w.ArenaRadius
	if w.Bounded() {
		arena -= cfg.WallBufferMeters
	}
	g, err := grid.Build(w.Obstacles, grid.Config{
		CellSize:       cfg.GridCellSize,
		ExtentCells:    cfg.GridExtentCells,
		ObstacleBuffer: cfg.ObstacleBufferMeters,
		ArenaRadius:    arena,
	})
	if err != nil {
		return nil, err
	}
	return &Environment{
		World: w,
		Checker: world.NewChecker(w, world.CheckerOptions{
			WallBuffer:     cfg.WallBufferMeters,
			ObstacleBuffer: cfg.ObstacleBufferMeters,
		}),
		Grid: g,
	}, nil
}

// Planner plans against the most recently published environment. Plans may run concurrently
// with each other and with SetWorld.
type Planner struct {
	cfg    Config
	logger *zap.SugaredLogger
	env    *atomic.Pointer[Environment]
}

// New returns a planner over an empty, unbounded world.
func New(cfg Config, logger *zap.SugaredLogger) (*Planner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid planner config")
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	env, err := NewEnvironment(world.World{}, cfg)
	if err != nil {
		return nil, err
	}
	return &Planner{
		cfg:    cfg,
		logger: logger,
		env:    atomic.NewPointer(env),
	}, nil
}

// Config returns the planner's configuration.
func (p *Planner) Config() Config {
	return p.cfg
}

// SetWorld builds a new environment for w and publishes it. Plans already running keep the
// environment they started with.
func (p *Planner) SetWorld(w world.World) error {
	env, err := NewEnvironment(w, p.cfg)
	if err != nil {
		return err
	}
	p.env.Store(env)
	p.logger.Infof("published world with %d obstacles, arena radius %.2f", len(w.Obstacles), w.ArenaRadius)
	return nil
}

// Environment returns the currently published environment.
func (p *Planner) Environment() *Environment {
	return p.env.Load()
}

// Plan plans from start to goal against the current environment.
func (p *Planner) Plan(start, goal curve.Pose, spec VehicleSpec) (*Result, error) {
	return p.PlanIn(p.Environment(), start, goal, spec)
}

// PlanIn plans from start to goal in env. It only fails for an invalid vehicle spec; every
// other difficulty is reported through the result's Outcome.
func (p *Planner) PlanIn(env *Environment, start, goal curve.Pose, spec VehicleSpec) (*Result, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if env == nil {
		return nil, errors.New("no environment")
	}
	start = curve.NewPose(start.X, start.Y, start.Theta)
	goal = curve.NewPose(goal.X, goal.Y, goal.Theta)

	checker := env.Checker
	if p.cfg.TurningClearance {
		checker = checker.WithClearance(world.ClearanceCheck{
			TurningRadius:  spec.TurningRadius,
			AngleTolerance: p.cfg.ClearanceAngleTolerance,
		})
	}
	s := &stitcher{
		checker:  checker,
		family:   curve.FamilyFor(p.cfg.AllowReverse),
		radius:   spec.TurningRadius,
		step:     p.cfg.SampleStepMeters,
		maxDepth: p.cfg.MaxSubdivisionDepth,
		logger:   p.logger,
	}

	res := &Result{}
	obstacles := env.World.Obstacles
	if len(obstacles) > 0 {
		nudged, moved := world.NudgeOutside(
			orb.Point{goal.X, goal.Y}, orb.Point{start.X, start.Y},
			obstacles, p.cfg.ObstacleBufferMeters, p.cfg.GoalNudgeEpsilon)
		if moved {
			p.logger.Infof("goal (%.3f, %.3f) is inside an obstacle buffer, nudged to (%.3f, %.3f)",
				goal.X, goal.Y, nudged[0], nudged[1])
			goal = curve.NewPose(nudged[0], nudged[1], goal.Theta)
			res.GoalNudged = true
		}
	}
	res.Goal = goal

	candidates := curve.PlanCurve(start, goal, spec.TurningRadius, s.family)
	p.logger.Debugf("%d %s candidates from %v to %v", len(candidates), s.family, start, goal)
	fallback, err := p.fallback(start, candidates, s)
	if err != nil {
		return nil, err
	}

	if len(obstacles) == 0 && len(candidates) > 0 {
		return p.finish(res, Direct, []leg{fallback}, start), nil
	}
	for _, candidate := range candidates {
		samples, err := curve.SamplePath(candidate, s.step, s.radius, start)
		if err != nil {
			return nil, err
		}
		if checker.Valid(samples) {
			return p.finish(res, Direct, []leg{{to: goal, path: candidate, samples: samples}}, start), nil
		}
	}

	waypoints := env.Grid.Query(orb.Point{start.X, start.Y}, orb.Point{goal.X, goal.Y})
	if len(waypoints) < minGridWaypoints {
		return p.finish(res, FallbackGridUnreachable, []leg{fallback}, start), nil
	}
	waypoints = SimplifyWaypoints(waypoints, p.cfg.CollinearAngleThresholdRadians)
	waypoints[0] = orb.Point{start.X, start.Y}
	waypoints[len(waypoints)-1] = orb.Point{goal.X, goal.Y}
	p.logger.Debugf("stitching along %d simplified waypoints", len(waypoints))

	legs, ok := s.stitch(start, goal, waypoints)
	if !ok {
		return p.finish(res, FallbackStitchAborted, []leg{fallback}, start), nil
	}
	if p.cfg.Resimplify {
		legs = s.resimplify(start, legs)
	}
	return p.finish(res, Stitched, legs, start), nil
}

// fallback is the best direct curve, unvalidated. With no feasible candidate it is the start pose alone.
func (p *Planner) fallback(start curve.Pose, candidates []curve.Path, s *stitcher) (leg, error) {
	if len(candidates) == 0 {
		return leg{to: start, samples: curve.PosePath{{Pose: start, Gear: curve.Forward}}}, nil
	}
	samples, err := curve.SamplePath(candidates[0], s.step, s.radius, start)
	if err != nil {
		return leg{}, err
	}
	return leg{to: samples.End(), path: candidates[0], samples: samples}, nil
}

func (p *Planner) finish(res *Result, outcome Outcome, legs []leg, start curve.Pose) *Result {
	res.Outcome = outcome
	res.Path = join(start, legs)
	res.Length = res.Path.Length()
	for _, l := range legs {
		if len(l.path) > 0 {
			res.Words = append(res.Words, l.path.Word())
		}
		res.Reverses = res.Reverses || l.path.HasReverse()
	}
	if outcome.Degraded() {
		p.logger.Warnf("planning to (%.3f, %.3f) degraded: %s, returning the unvalidated direct curve",
			res.Goal.X, res.Goal.Y, outcome)
	} else {
		p.logger.Infof("planned %s path of %.2f m with %d segments", outcome, res.Length, len(res.Words))
	}
	return res
}

// Request is one vehicle's planning problem for PlanAll.
type Request struct {
	ID      string      `json:"id"`
	Start   curve.Pose  `json:"start"`
	Goal    curve.Pose  `json:"goal"`
	Vehicle VehicleSpec `json:"vehicle"`
}

// PlanAll plans every request concurrently against one environment snapshot. Results are in
// request order. The first error cancels the remaining requests.
func (p *Planner) PlanAll(ctx context.Context, reqs []Request) ([]*Result, error) {
	env := p.Environment()
	results := make([]*Result, len(reqs))

	workers := p.cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, req := range reqs {
		i, req := i, req
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := p.PlanIn(env, req.Start, req.Goal, req.Vehicle)
			if err != nil {
				return errors.Wrapf(err, "request %d (%s)", i, req.ID)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Plan plans one path in w with the default configuration.
func Plan(start, goal curve.Pose, spec VehicleSpec, w world.World) (*Result, error) {
	return PlanWithConfig(start, goal, spec, w, DefaultConfig(), nil)
}

// PlanWithConfig plans one path in w with cfg.
func PlanWithConfig(
	start, goal curve.Pose,
	spec VehicleSpec,
	w world.World,
	cfg Config,
	logger *zap.SugaredLogger,
) (*Result, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	p, err := New(cfg, logger)
	if err != nil {
		return nil, err
	}
	env, err := NewEnvironment(w, cfg)
	if err != nil {
		return nil, err
	}
	return p.PlanIn(env, start, goal, spec)
}
