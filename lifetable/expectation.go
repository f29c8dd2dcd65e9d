package lifetable

import "math"

// CurtateExpectation returns the expected number of whole years a life aged
// x has left to live.
func (t *LifeTable) CurtateExpectation(x float64) (float64, error) {
	return t.TemporaryCurtateExpectation(x, t.TerminalAge()-int(math.Floor(x)))
}

// TemporaryCurtateExpectation returns the expected number of whole years
// lived over the next `years` years by a life aged x.
func (t *LifeTable) TemporaryCurtateExpectation(x float64, years int) (float64, error) {
	if err := t.checkAnchor(x); err != nil {
		return 0, err
	}
	if years < 0 {
		return 0, errTerm(t.name, float64(years))
	}
	lx := t.lives(x)
	if lx <= 0 {
		return 0, errAnchorExhausted(t.name, x)
	}

	// One running sum of interpolated survivors, one division at the end.
	sum := 0.0
	for k := 1; k <= years; k++ {
		l := t.lives(x + float64(k))
		if l == 0 {
			break
		}
		sum += l
	}
	return sum / lx, nil
}

// CompleteExpectation returns the expected future lifetime of a life aged x,
// counting fractions of the final year under the table's assumption.
func (t *LifeTable) CompleteExpectation(x float64) (float64, error) {
	if err := t.checkAnchor(x); err != nil {
		return 0, err
	}
	return t.ExpectationBetween(x, float64(t.TerminalAge())-x)
}

// ExpectationBetween returns the expected time lived over the next n years
// by a life aged x, i.e. the integral of the survival function over [0, n].
// Whole years of age are integrated in closed form under the table's
// assumption; partial boundary years use the midpoint rule.
func (t *LifeTable) ExpectationBetween(x, n float64) (float64, error) {
	if err := t.checkAnchor(x); err != nil {
		return 0, err
	}
	if math.IsNaN(n) || n < 0 {
		return 0, errTerm(t.name, n)
	}
	if n == 0 {
		return 0, nil
	}
	lx := t.lives(x)
	if lx <= 0 {
		return 0, errAnchorExhausted(t.name, x)
	}
	if max := float64(t.TerminalAge()) - x; n > max {
		n = max
	}

	sum := 0.0
	pos := 0.0 // time already integrated, measured from x

	// Leading fraction up to the next integer age.
	if frac := x - math.Floor(x); frac > 0 {
		w := math.Min(n, 1-frac)
		sum += w * t.lives(x+w/2)
		pos = w
	}
	if pos >= n {
		return sum / lx, nil
	}

	// Whole years of age.
	k := int(math.Round(x+pos)) - t.minAge
	for ; pos+1 <= n && k < len(t.qx); k++ {
		sum += t.lx[k] * t.yearIntegralPx(k)
		pos++
	}

	// Trailing fraction.
	if w := n - pos; w > 1e-12 && k < len(t.qx) {
		sum += w * t.lives(x+pos+w/2)
	}
	return sum / lx, nil
}

// ForceOfMortality returns the instantaneous rate of mortality at the
// (possibly fractional) age x implied by the table's assumption.
func (t *LifeTable) ForceOfMortality(x float64) (float64, error) {
	if err := t.checkAnchor(x); err != nil {
		return 0, err
	}
	offset := x - float64(t.minAge)
	k := int(math.Floor(offset))
	f := offset - float64(k)
	q, p := t.qx[k], t.px[k]
	switch t.assumption {
	case ConstantForce:
		if p == 0 {
			return math.Inf(1), nil
		}
		return -math.Log(p), nil
	case Balducci:
		if p == 0 {
			return math.Inf(1), nil
		}
		return q / (1 - (1-f)*q), nil
	default:
		den := 1 - f*q
		if den <= 0 {
			return math.Inf(1), nil
		}
		return q / den, nil
	}
}
