package planner

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"carpath/world"
)

// Config holds the planner's tunables. Distances are in meters, angles in radians.
type Config struct {
	SampleStepMeters               float64 `json:"sampleStepMeters"`
	GridCellSize                   float64 `json:"gridCellSize"`
	GridExtentCells                int     `json:"gridExtentCells"`
	ObstacleBufferMeters           float64 `json:"obstacleBufferMeters"`
	WallBufferMeters               float64 `json:"wallBufferMeters"`
	MaxSubdivisionDepth            int     `json:"maxSubdivisionDepth"`
	CollinearAngleThresholdRadians float64 `json:"collinearAngleThresholdRadians"`

	// AllowReverse selects Reeds-Shepp paths; otherwise paths are forward-only Dubins.
	AllowReverse bool `json:"allowReverse"`
	// TurningClearance enables the turning-clearance test near the terminal heading.
	TurningClearance        bool    `json:"turningClearance"`
	ClearanceAngleTolerance float64 `json:"clearanceAngleTolerance"`
	// Resimplify merges consecutive stitched segments where a single curve validates.
	Resimplify       bool    `json:"resimplify"`
	GoalNudgeEpsilon float64 `json:"goalNudgeEpsilon"`
	// Workers bounds PlanAll's concurrency. Zero means GOMAXPROCS.
	Workers int `json:"workers"`
}

// DefaultConfig returns the default planner configuration.
func DefaultConfig() Config {
	return Config{
		SampleStepMeters:               0.25,
		GridCellSize:                   0.25,
		GridExtentCells:                60,
		ObstacleBufferMeters:           0.5,
		WallBufferMeters:               0.1,
		MaxSubdivisionDepth:            5,
		CollinearAngleThresholdRadians: 0.087,
		AllowReverse:                   true,
		TurningClearance:               false,
		ClearanceAngleTolerance:        world.DefaultClearanceAngle,
		Resimplify:                     true,
		GoalNudgeEpsilon:               world.DefaultNudgeEpsilon,
	}
}

// Validate returns every problem with the config combined into one error.
func (c Config) Validate() error {
	var err error
	if !(c.SampleStepMeters > 0) {
		err = multierr.Append(err, errors.Errorf("sampleStepMeters must be positive, got %v", c.SampleStepMeters))
	}
	if !(c.GridCellSize > 0) {
		err = multierr.Append(err, errors.Errorf("gridCellSize must be positive, got %v", c.GridCellSize))
	}
	if c.GridExtentCells < 1 {
		err = multierr.Append(err, errors.Errorf("gridExtentCells must be at least 1, got %d", c.GridExtentCells))
	}
	if c.ObstacleBufferMeters < 0 {
		err = multierr.Append(err, errors.Errorf("obstacleBufferMeters must not be negative, got %v", c.ObstacleBufferMeters))
	}
	if c.WallBufferMeters < 0 {
		err = multierr.Append(err, errors.Errorf("wallBufferMeters must not be negative, got %v", c.WallBufferMeters))
	}
	if c.MaxSubdivisionDepth < 0 {
		err = multierr.Append(err, errors.Errorf("maxSubdivisionDepth must not be negative, got %d", c.MaxSubdivisionDepth))
	}
	if c.CollinearAngleThresholdRadians < 0 {
		err = multierr.Append(err, errors.Errorf(
			"collinearAngleThresholdRadians must not be negative, got %v", c.CollinearAngleThresholdRadians))
	}
	if c.TurningClearance && !(c.ClearanceAngleTolerance > 0) {
		err = multierr.Append(err, errors.Errorf(
			"clearanceAngleTolerance must be positive when turningClearance is set, got %v", c.ClearanceAngleTolerance))
	}
	if c.GoalNudgeEpsilon < 0 {
		err = multierr.Append(err, errors.Errorf("goalNudgeEpsilon must not be negative, got %v", c.GoalNudgeEpsilon))
	}
	if c.Workers < 0 {
		err = multierr.Append(err, errors.Errorf("workers must not be negative, got %d", c.Workers))
	}
	return err
}

// LoadConfig reads a JSON config file. Fields missing from the file keep their defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "reading config %q", path)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parsing config %q", path)
	}
	return cfg, errors.Wrapf(cfg.Validate(), "invalid config %q", path)
}
