package interest

import (
	"fmt"
	"math"
	"sort"
)

// Pillar is one quoted point of a spot curve: the effective annual rate for
// a zero-coupon payment at Tenor years.
type Pillar struct {
	Tenor float64
	Rate  float64
}

// Interpolation selects how the curve behaves between pillars.
type Interpolation int

const (
	// LinearLogDiscount interpolates linearly on the log of the discount
	// factor, which keeps the forward force constant between pillars.
	LinearLogDiscount Interpolation = iota
	// LinearSpot interpolates the spot rate linearly between pillars.
	LinearSpot
)

func (ip Interpolation) String() string {
	switch ip {
	case LinearLogDiscount:
		return "log-discount"
	case LinearSpot:
		return "linear-spot"
	default:
		return fmt.Sprintf("Interpolation(%d)", int(ip))
	}
}

// ParseInterpolation converts the mnemonic used by configuration files and
// CLI flags ("log-discount", "linear-spot") into an Interpolation.
func ParseInterpolation(s string) (Interpolation, error) {
	switch s {
	case "log-discount", "logdf", "":
		return LinearLogDiscount, nil
	case "linear-spot", "linear":
		return LinearSpot, nil
	default:
		return 0, fmt.Errorf("ParseInterpolation: unknown interpolation %q", s)
	}
}

// TermStructure is a deterministic spot curve built from pillars with
// strictly increasing positive tenors. Between pillars it interpolates per
// the chosen scheme; past the last pillar it extrapolates at the last
// segment's forward force, and before the first pillar it discounts at the
// first pillar's rate.
type TermStructure struct {
	interp Interpolation
	tenors []float64
	spots  []float64
	logDfs []float64 // log discount factor at each pillar
}

var _ Model = (*TermStructure)(nil)

// NewTermStructure validates the pillars and builds a curve.
func NewTermStructure(pillars []Pillar, interp Interpolation) (*TermStructure, error) {
	if len(pillars) == 0 {
		return nil, fmt.Errorf("interest.NewTermStructure: no pillars: %w", ErrInvalidRateStructure)
	}
	ts := &TermStructure{
		interp: interp,
		tenors: make([]float64, len(pillars)),
		spots:  make([]float64, len(pillars)),
		logDfs: make([]float64, len(pillars)),
	}
	prev := 0.0
	for i, p := range pillars {
		if math.IsNaN(p.Tenor) || p.Tenor <= prev {
			return nil, fmt.Errorf("interest.NewTermStructure: pillar %d tenor %g not strictly increasing and positive: %w",
				i, p.Tenor, ErrInvalidRateStructure)
		}
		if err := checkRate(p.Rate); err != nil {
			return nil, err
		}
		ts.tenors[i] = p.Tenor
		ts.spots[i] = p.Rate
		ts.logDfs[i] = -p.Tenor * math.Log1p(p.Rate)
		prev = p.Tenor
	}
	if err := ts.checkMonotone(); err != nil {
		return nil, err
	}
	return ts, nil
}

// checkMonotone rejects curves quoted at non-negative spots whose discount
// factors fail to fall with tenor. An inversion steep enough to imply a
// negative forward somewhere would let the discount factor rise.
func (ts *TermStructure) checkMonotone() error {
	for _, s := range ts.spots {
		if s < 0 {
			// Negative rates legitimately push discount factors above par.
			return nil
		}
	}
	for i := 1; i < len(ts.tenors); i++ {
		if ts.logDfs[i] >= ts.logDfs[i-1] {
			return fmt.Errorf("interest.NewTermStructure: discount factor does not fall from tenor %g to %g: %w",
				ts.tenors[i-1], ts.tenors[i], ErrInvalidRateStructure)
		}
		if ts.interp != LinearSpot || ts.spots[i] >= ts.spots[i-1] {
			continue
		}
		// Along a falling linear-spot segment the forward force bottoms out
		// at the right pillar.
		slope := (ts.spots[i] - ts.spots[i-1]) / (ts.tenors[i] - ts.tenors[i-1])
		force := math.Log1p(ts.spots[i]) + ts.tenors[i]*slope/(1+ts.spots[i])
		if force < 0 {
			return fmt.Errorf("interest.NewTermStructure: inversion between tenors %g and %g implies a negative forward: %w",
				ts.tenors[i-1], ts.tenors[i], ErrInvalidRateStructure)
		}
	}
	return nil
}

// Pillars returns a copy of the curve's quoted points.
func (ts *TermStructure) Pillars() []Pillar {
	out := make([]Pillar, len(ts.tenors))
	for i := range ts.tenors {
		out[i] = Pillar{Tenor: ts.tenors[i], Rate: ts.spots[i]}
	}
	return out
}

// Interpolation reports the scheme in force between pillars.
func (ts *TermStructure) Interpolation() Interpolation { return ts.interp }

// bracket returns the index of the first pillar with tenor >= t.
func (ts *TermStructure) bracket(t float64) int {
	return sort.Search(len(ts.tenors), func(i int) bool { return ts.tenors[i] >= t })
}

// logDF returns the log discount factor at time t >= 0.
func (ts *TermStructure) logDF(t float64) float64 {
	if t == 0 {
		return 0
	}
	n := len(ts.tenors)
	i := ts.bracket(t)
	switch {
	case i == n:
		// Past the last pillar: hold the final forward force flat.
		last := ts.logDfs[n-1]
		var force float64
		if n == 1 {
			force = -last / ts.tenors[0]
		} else {
			force = -(ts.logDfs[n-1] - ts.logDfs[n-2]) / (ts.tenors[n-1] - ts.tenors[n-2])
		}
		return last - force*(t-ts.tenors[n-1])
	case ts.tenors[i] == t:
		return ts.logDfs[i]
	case i == 0:
		// Before the first pillar: constant force from the origin.
		return ts.logDfs[0] * t / ts.tenors[0]
	}

	if ts.interp == LinearSpot {
		w := (t - ts.tenors[i-1]) / (ts.tenors[i] - ts.tenors[i-1])
		spot := ts.spots[i-1] + w*(ts.spots[i]-ts.spots[i-1])
		return -t * math.Log1p(spot)
	}
	w := (t - ts.tenors[i-1]) / (ts.tenors[i] - ts.tenors[i-1])
	return ts.logDfs[i-1] + w*(ts.logDfs[i]-ts.logDfs[i-1])
}

// DiscountFactor returns the present value of 1 payable at time t.
func (ts *TermStructure) DiscountFactor(t float64) (float64, error) {
	if err := checkTime(t); err != nil {
		return 0, err
	}
	return math.Exp(ts.logDF(t)), nil
}

// SpotRate returns the effective annual rate for maturity t. At t=0 it
// returns the first pillar's rate.
func (ts *TermStructure) SpotRate(t float64) (float64, error) {
	if err := checkTime(t); err != nil {
		return 0, err
	}
	if t == 0 {
		return ts.spots[0], nil
	}
	return math.Expm1(-ts.logDF(t) / t), nil
}

// ForwardRate returns the effective annual rate implied between t1 and t2.
func (ts *TermStructure) ForwardRate(t1, t2 float64) (float64, error) {
	if err := checkForwardInterval(t1, t2); err != nil {
		return 0, err
	}
	return math.Expm1((ts.logDF(t1) - ts.logDF(t2)) / (t2 - t1)), nil
}
