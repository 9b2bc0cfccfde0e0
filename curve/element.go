package curve

import (
	"fmt"
	"math"
	"strings"

	"github.com/golang/geo/r2"
	"gonum.org/v1/gonum/floats"
)

// Steering is the turn direction of a path element.
type Steering int8

// Steering values. The numeric value is the sign of the heading change when driving forward.
const (
	Right    Steering = -1
	Straight Steering = 0
	Left     Steering = 1
)

func (s Steering) String() string {
	switch s {
	case Left:
		return "L"
	case Right:
		return "R"
	default:
		return "S"
	}
}

// Gear is the direction of travel along a path element.
type Gear int8

// Gear values, usable directly as the sign of travel.
const (
	Backward Gear = -1
	Forward  Gear = 1
)

func (g Gear) String() string {
	if g == Backward {
		return "-"
	}
	return "+"
}

// Element is one arc or straight piece of a symbolic path, in normalised units.
// Dubins elements always drive Forward.
type Element struct {
	Length   float64  `json:"length"`
	Steering Steering `json:"steering"`
	Gear     Gear     `json:"gear"`
}

// NewElement builds an element. A negative length is stored as its absolute value with the gear flipped.
func NewElement(length float64, steering Steering, gear Gear) Element {
	if length < 0 {
		return Element{Length: -length, Steering: steering, Gear: -gear}
	}
	return Element{Length: length, Steering: steering, Gear: gear}
}

// ReverseGear returns the element driven in the opposite direction (timeflip).
func (e Element) ReverseGear() Element {
	e.Gear = -e.Gear
	return e
}

// ReverseSteering returns the element turning the other way (reflection).
func (e Element) ReverseSteering() Element {
	e.Steering = -e.Steering
	return e
}

func (e Element) String() string {
	return fmt.Sprintf("%s%s(%.3f)", e.Steering, e.Gear, e.Length)
}

// advance drives t normalised units of e from p on a circle of the given radius.
// Positions are computed from the arc centre, not integrated.
func (e Element) advance(p Pose, t, radius float64) Pose {
	d := float64(e.Gear) * t
	if e.Steering == Straight {
		return Pose{
			X:     p.X + d*radius*math.Cos(p.Theta),
			Y:     p.Y + d*radius*math.Sin(p.Theta),
			Theta: p.Theta,
		}
	}
	s := float64(e.Steering)
	center := p.Point().Add(r2.Point{X: -math.Sin(p.Theta), Y: math.Cos(p.Theta)}.Mul(s * radius))
	phi := p.Theta + s*d
	pos := center.Add(r2.Point{X: math.Sin(phi), Y: -math.Cos(phi)}.Mul(s * radius))
	return Pose{X: pos.X, Y: pos.Y, Theta: WrapTo2Pi(phi)}
}

// Path is an ordered list of elements starting implicitly at (0, 0, 0) in normalised space.
type Path []Element

// Length is the sum of the element lengths, the quantity the solver minimises.
func (p Path) Length() float64 {
	lengths := make([]float64, len(p))
	for i, e := range p {
		lengths[i] = e.Length
	}
	return floats.Sum(lengths)
}

// EndPose is the closed-form pose reached after driving the whole path from start on circles of radius.
func (p Path) EndPose(start Pose, radius float64) Pose {
	cur := start
	for _, e := range p {
		cur = e.advance(cur, e.Length, radius)
	}
	return cur
}

// Word renders the element sequence, e.g. "L+S+L-".
func (p Path) Word() string {
	var sb strings.Builder
	for _, e := range p {
		sb.WriteString(e.Steering.String())
		sb.WriteString(e.Gear.String())
	}
	return sb.String()
}

func (p Path) String() string {
	parts := make([]string, len(p))
	for i, e := range p {
		parts[i] = e.String()
	}
	return strings.Join(parts, " ")
}

// ReverseGear flips the gear of every element.
func (p Path) ReverseGear() Path {
	out := make(Path, len(p))
	for i, e := range p {
		out[i] = e.ReverseGear()
	}
	return out
}

// ReverseSteering mirrors every turn.
func (p Path) ReverseSteering() Path {
	out := make(Path, len(p))
	for i, e := range p {
		out[i] = e.ReverseSteering()
	}
	return out
}

// HasReverse reports whether any element drives backward.
func (p Path) HasReverse() bool {
	for _, e := range p {
		if e.Gear == Backward && e.Length > 0 {
			return true
		}
	}
	return false
}

// key identifies a path by its word and rounded lengths, for de-duplicating candidates.
func (p Path) key() string {
	var sb strings.Builder
	for _, e := range p {
		fmt.Fprintf(&sb, "%s%s%.9f;", e.Steering, e.Gear, e.Length)
	}
	return sb.String()
}
