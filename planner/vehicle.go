package planner

import (
	"math"

	"github.com/pkg/errors"

	"carpath/curve"
)

// VehicleSpec describes the vehicle being planned for.
type VehicleSpec struct {
	// TurningRadius is the minimum radius of curvature in meters. It must be positive.
	TurningRadius float64 `json:"turningRadius"`
	// MaxSpeed is carried for the caller's controller; planning does not use it.
	MaxSpeed float64 `json:"maxSpeed"`
}

// Validate fails for a turning radius that is not positive and finite.
func (v VehicleSpec) Validate() error {
	if !(v.TurningRadius > 0) || math.IsInf(v.TurningRadius, 1) {
		return errors.Wrapf(curve.ErrInvalidTurningRadius, "got %v", v.TurningRadius)
	}
	return nil
}
