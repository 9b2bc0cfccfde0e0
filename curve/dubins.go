package curve

import "math"

// dubinsWords lists the six Dubins words. Order matters for tie-breaking.
var dubinsWords = [6][3]Steering{
	{Left, Straight, Left},
	{Left, Straight, Right},
	{Right, Straight, Left},
	{Right, Straight, Right},
	{Right, Left, Right},
	{Left, Right, Left},
}

// dubinsFrame holds the quantities every Dubins word is computed from.
type dubinsFrame struct {
	alpha, beta, d      float64
	sa, sb, ca, cb, cab float64
	dSq                 float64
}

func newDubinsFrame(x, y, phi float64) dubinsFrame {
	d := math.Hypot(x, y)
	var theta float64
	// with coincident positions the chord direction is undefined; any value works, 0 keeps alpha = 0
	if d > zeroLength {
		theta = math.Atan2(y, x)
	}
	alpha := mod2pi(-theta)
	beta := mod2pi(phi - theta)
	return dubinsFrame{
		alpha: alpha, beta: beta, d: d,
		sa: math.Sin(alpha), sb: math.Sin(beta),
		ca: math.Cos(alpha), cb: math.Cos(beta),
		cab: math.Cos(alpha - beta), dSq: d * d,
	}
}

// feasibilitySlack lets tangent configurations, where a square root or arccos argument is
// zero up to rounding, through to endpoint verification.
const feasibilitySlack = 1e-9

// mod2pi wraps into [0, 2π), snapping values a hair below 2π to 0 so aligned poses
// produce zero-length arcs rather than full circles.
func mod2pi(theta float64) float64 {
	t := WrapTo2Pi(theta)
	if twoPi-t < angleSnap {
		return 0
	}
	return t
}

func (f dubinsFrame) lsl() ([3]float64, bool) {
	tmp0 := f.d + f.sa - f.sb
	pSq := 2 + f.dSq - 2*f.cab + 2*f.d*(f.sa-f.sb)
	if pSq < -feasibilitySlack {
		return [3]float64{}, false
	}
	pSq = math.Max(pSq, 0)
	tmp1 := math.Atan2(f.cb-f.ca, tmp0)
	return [3]float64{mod2pi(tmp1 - f.alpha), math.Sqrt(pSq), mod2pi(f.beta - tmp1)}, true
}

func (f dubinsFrame) rsr() ([3]float64, bool) {
	tmp0 := f.d - f.sa + f.sb
	pSq := 2 + f.dSq - 2*f.cab + 2*f.d*(f.sb-f.sa)
	if pSq < -feasibilitySlack {
		return [3]float64{}, false
	}
	pSq = math.Max(pSq, 0)
	tmp1 := math.Atan2(f.ca-f.cb, tmp0)
	return [3]float64{mod2pi(f.alpha - tmp1), math.Sqrt(pSq), mod2pi(tmp1 - f.beta)}, true
}

func (f dubinsFrame) lsr() ([3]float64, bool) {
	pSq := -2 + f.dSq + 2*f.cab + 2*f.d*(f.sa+f.sb)
	if pSq < -feasibilitySlack {
		return [3]float64{}, false
	}
	pSq = math.Max(pSq, 0)
	p := math.Sqrt(pSq)
	tmp1 := math.Atan2(-f.ca-f.cb, f.d+f.sa+f.sb) - math.Atan2(-2, p)
	return [3]float64{mod2pi(tmp1 - f.alpha), p, mod2pi(tmp1 - f.beta)}, true
}

func (f dubinsFrame) rsl() ([3]float64, bool) {
	pSq := -2 + f.dSq + 2*f.cab - 2*f.d*(f.sa+f.sb)
	if pSq < -feasibilitySlack {
		return [3]float64{}, false
	}
	pSq = math.Max(pSq, 0)
	p := math.Sqrt(pSq)
	tmp1 := math.Atan2(f.ca+f.cb, f.d-f.sa-f.sb) - math.Atan2(2, p)
	return [3]float64{mod2pi(f.alpha - tmp1), p, mod2pi(f.beta - tmp1)}, true
}

func (f dubinsFrame) rlr() ([3]float64, bool) {
	tmp0 := (6 - f.dSq + 2*f.cab + 2*f.d*(f.sa-f.sb)) / 8
	if math.Abs(tmp0) > 1+feasibilitySlack {
		return [3]float64{}, false
	}
	tmp0 = math.Max(-1, math.Min(1, tmp0))
	phi := math.Atan2(f.ca-f.cb, f.d-f.sa+f.sb)
	p := mod2pi(twoPi - math.Acos(tmp0))
	t := mod2pi(f.alpha - phi + mod2pi(p/2))
	return [3]float64{t, p, mod2pi(f.alpha - f.beta - t + p)}, true
}

func (f dubinsFrame) lrl() ([3]float64, bool) {
	tmp0 := (6 - f.dSq + 2*f.cab + 2*f.d*(f.sb-f.sa)) / 8
	if math.Abs(tmp0) > 1+feasibilitySlack {
		return [3]float64{}, false
	}
	tmp0 = math.Max(-1, math.Min(1, tmp0))
	phi := math.Atan2(f.ca-f.cb, f.d+f.sa-f.sb)
	p := mod2pi(twoPi - math.Acos(tmp0))
	t := mod2pi(-f.alpha - phi + p/2)
	return [3]float64{t, p, mod2pi(f.beta - f.alpha - t + p)}, true
}

// dubinsCandidates returns the forward-only words that reach (x, y, phi) from the origin.
// Infeasible words are omitted.
func dubinsCandidates(x, y, phi float64) []Path {
	f := newDubinsFrame(x, y, phi)
	solvers := [6]func() ([3]float64, bool){f.lsl, f.lsr, f.rsl, f.rsr, f.rlr, f.lrl}

	paths := make([]Path, 0, len(solvers))
	for i, solve := range solvers {
		lengths, ok := solve()
		if !ok {
			continue
		}
		word := dubinsWords[i]
		paths = append(paths, Path{
			NewElement(lengths[0], word[0], Forward),
			NewElement(lengths[1], word[1], Forward),
			NewElement(lengths[2], word[2], Forward),
		})
	}
	return paths
}
