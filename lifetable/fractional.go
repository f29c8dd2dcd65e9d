package lifetable

import "math"

// lives returns the interpolated number of survivors at the (possibly
// fractional) age x. Ages at or beyond the terminal age return 0. The caller
// is responsible for checking x >= minAge.
func (t *LifeTable) lives(x float64) float64 {
	offset := x - float64(t.minAge)
	if offset < 0 {
		return math.NaN()
	}
	k := int(math.Floor(offset))
	if k >= len(t.qx) {
		return 0
	}
	f := offset - float64(k)
	if f == 0 {
		return t.lx[k]
	}

	l0, l1 := t.lx[k], t.lx[k+1]
	switch t.assumption {
	case ConstantForce:
		// l is exponential within the year. When the year closes the table
		// (l1 = 0) the constant force is infinite and l vanishes immediately.
		if l1 == 0 {
			return 0
		}
		return l0 * math.Pow(l1/l0, f)
	case Balducci:
		// 1/l is linear within the year.
		if l1 == 0 {
			return 0
		}
		return 1 / ((1-f)/l0 + f/l1)
	default:
		// Deaths uniform: l is linear within the year.
		return l0 + f*(l1-l0)
	}
}

// Survival returns the probability that a life aged x survives t more years,
// interpolating fractional ages under the table's assumption. Durations
// reaching past the terminal age return exactly 0.
func (t *LifeTable) Survival(x, tm float64) (float64, error) {
	if err := t.checkAnchor(x); err != nil {
		return 0, err
	}
	switch {
	case math.IsNaN(tm) || tm < 0:
		return 0, errTerm(t.name, tm)
	case tm == 0:
		return 1, nil
	}

	lx := t.lives(x)
	if lx <= 0 {
		return 0, errAnchorExhausted(t.name, x)
	}
	if x+tm >= float64(t.TerminalAge()) {
		return 0, nil
	}
	return t.lives(x+tm) / lx, nil
}

// yearIntegralPx returns the integral over one year of age of the
// within-year survival function s -> s*p_age, evaluated under the table's
// assumption. This is the exact building block for complete expectations and
// continuous-payment values.
//
// age is an offset index into the q column, not an attained age.
func (t *LifeTable) yearIntegralPx(k int) float64 {
	q := t.qx[k]
	p := t.px[k]
	switch t.assumption {
	case ConstantForce:
		if p == 0 {
			return 0
		}
		if q == 0 {
			return 1
		}
		return -q / math.Log(p)
	case Balducci:
		if p == 0 {
			return 0
		}
		if q == 0 {
			return 1
		}
		return -p / q * math.Log(p)
	default:
		return 1 - q/2
	}
}
