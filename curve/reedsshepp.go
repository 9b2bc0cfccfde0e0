package curve

import "math"

// Reeds-Shepp words, after Reeds & Shepp (1990), section 8. Each formula solves one base
// word for a goal (x, y, phi) relative to the origin; negative lengths mean backward travel
// and are canonicalised by NewElement. The remaining words come from the timeflip and
// reflection symmetries applied in reedsSheppCandidates.

type rsFormula func(x, y, phi float64) (Path, bool)

var rsFormulas = []rsFormula{
	rsCSCSame,
	rsCSCOpposite,
	rsCCC,
	rsCCCBackLast,
	rsCCCBackFirst,
	rsCCuCuC,
	rsCCuCuCBack,
	rsCCSC,
	rsCSCC,
	rsCCSCOpposite,
	rsCSCCOpposite,
	rsCCSCC,
}

// clampUnit limits v to [-1, 1] so rounding cannot push an arcsin or arccos argument out of range.
func clampUnit(v float64) float64 {
	return math.Max(-1, math.Min(1, v))
}

// polar returns (r, theta) of (x, y).
func polar(x, y float64) (float64, float64) {
	return math.Hypot(x, y), math.Atan2(y, x)
}

// 8.1: L+ S+ L+
func rsCSCSame(x, y, phi float64) (Path, bool) {
	u, t := polar(x-math.Sin(phi), y-1+math.Cos(phi))
	v := wrapToPi(phi - t)
	return Path{
		NewElement(t, Left, Forward),
		NewElement(u, Straight, Forward),
		NewElement(v, Left, Forward),
	}, true
}

// 8.2: L+ S+ R+
func rsCSCOpposite(x, y, phi float64) (Path, bool) {
	phi = wrapToPi(phi)
	rho, t1 := polar(x+math.Sin(phi), y-1-math.Cos(phi))
	if rho*rho < 4-feasibilitySlack {
		return nil, false
	}
	u := math.Sqrt(math.Max(rho*rho-4, 0))
	t := wrapToPi(t1 + math.Atan2(2, u))
	v := wrapToPi(t - phi)
	return Path{
		NewElement(t, Left, Forward),
		NewElement(u, Straight, Forward),
		NewElement(v, Right, Forward),
	}, true
}

// 8.3: L+ R- L+
func rsCCC(x, y, phi float64) (Path, bool) {
	rho, theta := polar(x-math.Sin(phi), y-1+math.Cos(phi))
	if rho > 4+feasibilitySlack {
		return nil, false
	}
	a := math.Acos(clampUnit(rho / 4))
	t := wrapToPi(theta + math.Pi/2 + a)
	u := wrapToPi(math.Pi - 2*a)
	v := wrapToPi(phi - t - u)
	return Path{
		NewElement(t, Left, Forward),
		NewElement(u, Right, Backward),
		NewElement(v, Left, Forward),
	}, true
}

// 8.4a: L+ R- L-
func rsCCCBackLast(x, y, phi float64) (Path, bool) {
	rho, theta := polar(x-math.Sin(phi), y-1+math.Cos(phi))
	if rho > 4+feasibilitySlack {
		return nil, false
	}
	a := math.Acos(clampUnit(rho / 4))
	t := wrapToPi(theta + math.Pi/2 + a)
	u := wrapToPi(math.Pi - 2*a)
	v := wrapToPi(t + u - phi)
	return Path{
		NewElement(t, Left, Forward),
		NewElement(u, Right, Backward),
		NewElement(v, Left, Backward),
	}, true
}

// 8.4b: L+ R+ L-
func rsCCCBackFirst(x, y, phi float64) (Path, bool) {
	rho, theta := polar(x-math.Sin(phi), y-1+math.Cos(phi))
	if rho > 4+feasibilitySlack || rho < zeroLength {
		return nil, false
	}
	u := math.Acos(clampUnit(1 - rho*rho/8))
	a := math.Asin(clampUnit(2 * math.Sin(u) / rho))
	t := wrapToPi(theta + math.Pi/2 - a)
	v := wrapToPi(t - u - phi)
	return Path{
		NewElement(t, Left, Forward),
		NewElement(u, Right, Forward),
		NewElement(v, Left, Backward),
	}, true
}

// 8.7: L+ R+ L- R-
func rsCCuCuC(x, y, phi float64) (Path, bool) {
	rho, theta := polar(x+math.Sin(phi), y-1-math.Cos(phi))
	if rho > 4+feasibilitySlack {
		return nil, false
	}
	var t, u, v float64
	if rho <= 2 {
		a := math.Acos((rho + 2) / 4)
		t = wrapToPi(theta + math.Pi/2 + a)
		u = wrapToPi(a)
		v = wrapToPi(phi - t + 2*u)
	} else {
		a := math.Acos(clampUnit((rho - 2) / 4))
		t = wrapToPi(theta + math.Pi/2 - a)
		u = wrapToPi(math.Pi - a)
		v = wrapToPi(phi - t + 2*u)
	}
	return Path{
		NewElement(t, Left, Forward),
		NewElement(u, Right, Forward),
		NewElement(u, Left, Backward),
		NewElement(v, Right, Backward),
	}, true
}

// 8.8: L+ R- L- R+
func rsCCuCuCBack(x, y, phi float64) (Path, bool) {
	rho, theta := polar(x+math.Sin(phi), y-1-math.Cos(phi))
	u1 := (20 - rho*rho) / 16
	if rho > 6 || u1 < 0 || u1 > 1 || rho < zeroLength {
		return nil, false
	}
	u := math.Acos(u1)
	a := math.Asin(clampUnit(2 * math.Sin(u) / rho))
	t := wrapToPi(theta + math.Pi/2 + a)
	v := wrapToPi(t - phi)
	return Path{
		NewElement(t, Left, Forward),
		NewElement(u, Right, Backward),
		NewElement(u, Left, Backward),
		NewElement(v, Right, Forward),
	}, true
}

// 8.9a: L+ R-[π/2] S- L-
func rsCCSC(x, y, phi float64) (Path, bool) {
	rho, theta := polar(x-math.Sin(phi), y-1+math.Cos(phi))
	if rho < 2-feasibilitySlack {
		return nil, false
	}
	u := math.Sqrt(math.Max(rho*rho-4, 0)) - 2
	a := math.Atan2(2, u+2)
	t := wrapToPi(theta + math.Pi/2 + a)
	v := wrapToPi(t - phi + math.Pi/2)
	return Path{
		NewElement(t, Left, Forward),
		NewElement(math.Pi/2, Right, Backward),
		NewElement(u, Straight, Backward),
		NewElement(v, Left, Backward),
	}, true
}

// 8.9b: L+ S+ R+[π/2] L-
func rsCSCC(x, y, phi float64) (Path, bool) {
	rho, theta := polar(x-math.Sin(phi), y-1+math.Cos(phi))
	if rho < 2-feasibilitySlack {
		return nil, false
	}
	u := math.Sqrt(math.Max(rho*rho-4, 0)) - 2
	a := math.Atan2(u+2, 2)
	t := wrapToPi(theta + math.Pi/2 - a)
	v := wrapToPi(t - phi - math.Pi/2)
	return Path{
		NewElement(t, Left, Forward),
		NewElement(u, Straight, Forward),
		NewElement(math.Pi/2, Right, Forward),
		NewElement(v, Left, Backward),
	}, true
}

// 8.10a: L+ R-[π/2] S- R-
func rsCCSCOpposite(x, y, phi float64) (Path, bool) {
	rho, theta := polar(x+math.Sin(phi), y-1-math.Cos(phi))
	if rho < 2 {
		return nil, false
	}
	t := wrapToPi(theta + math.Pi/2)
	u := rho - 2
	v := wrapToPi(phi - t - math.Pi/2)
	return Path{
		NewElement(t, Left, Forward),
		NewElement(math.Pi/2, Right, Backward),
		NewElement(u, Straight, Backward),
		NewElement(v, Right, Backward),
	}, true
}

// 8.10b: L+ S+ L+[π/2] R-
func rsCSCCOpposite(x, y, phi float64) (Path, bool) {
	rho, theta := polar(x+math.Sin(phi), y-1-math.Cos(phi))
	if rho < 2 {
		return nil, false
	}
	t := wrapToPi(theta)
	u := rho - 2
	v := wrapToPi(phi - t - math.Pi/2)
	return Path{
		NewElement(t, Left, Forward),
		NewElement(u, Straight, Forward),
		NewElement(math.Pi/2, Left, Forward),
		NewElement(v, Right, Backward),
	}, true
}

// 8.11: L+ R-[π/2] S- L-[π/2] R+
func rsCCSCC(x, y, phi float64) (Path, bool) {
	rho, theta := polar(x+math.Sin(phi), y-1-math.Cos(phi))
	if rho < 4-feasibilitySlack {
		return nil, false
	}
	u := math.Sqrt(math.Max(rho*rho-4, 0)) - 4
	a := math.Atan2(2, u+4)
	t := wrapToPi(theta + math.Pi/2 + a)
	v := wrapToPi(t - phi)
	return Path{
		NewElement(t, Left, Forward),
		NewElement(math.Pi/2, Right, Backward),
		NewElement(u, Straight, Backward),
		NewElement(math.Pi/2, Left, Backward),
		NewElement(v, Right, Forward),
	}, true
}

// reedsSheppCandidates evaluates every formula directly, time-flipped, reflected, and
// both, giving up to 48 words. Infeasible words are omitted.
func reedsSheppCandidates(x, y, phi float64) []Path {
	paths := make([]Path, 0, 4*len(rsFormulas))
	for _, formula := range rsFormulas {
		if p, ok := formula(x, y, phi); ok {
			paths = append(paths, p)
		}
		if p, ok := formula(-x, y, -phi); ok {
			paths = append(paths, p.ReverseGear())
		}
		if p, ok := formula(x, -y, -phi); ok {
			paths = append(paths, p.ReverseSteering())
		}
		if p, ok := formula(-x, -y, phi); ok {
			paths = append(paths, p.ReverseGear().ReverseSteering())
		}
	}
	return paths
}
