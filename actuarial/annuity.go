package actuarial

import "math"

// annuitySum values survival-contingent payments of 1/m at m-thly instants
// over the years u..u+n-1 counted from the anchor x. amount(k) scales every
// payment in the k-th year after the first payment instant; the configured
// growth compounds on top of it on payment anniversaries.
func (e *Engine) annuitySum(x float64, u, n int, due bool, amount func(k int) float64) (float64, error) {
	m := e.cfg.PaymentsPerYear
	count := n * m

	sum := 0.0
	growth := 1.0
	year := 0
	for j := 0; j < count; j++ {
		if k := j / m; k > year {
			year = k
			growth *= 1 + e.cfg.Growth
		}
		t := float64(u) + float64(j)/float64(m)
		if !due {
			t = float64(u) + float64(j+1)/float64(m)
		}
		s, err := e.tab.Survival(x, t)
		if err != nil {
			return 0, err
		}
		if s == 0 {
			break
		}
		df, err := e.model.DiscountFactor(t)
		if err != nil {
			return 0, err
		}
		sum += amount(year) * growth * s * df / float64(m)
	}
	return sum, nil
}

// WholeLifeAnnuityDue returns the EPV of 1 per year paid in advance for
// life, split into the configured number of payments per year.
func (e *Engine) WholeLifeAnnuityDue(x float64) (float64, error) {
	return e.DeferredTemporaryAnnuityDue(x, 0, e.yearsLeft(x))
}

// WholeLifeAnnuityImmediate returns the EPV of 1 per year paid in arrears
// for life.
func (e *Engine) WholeLifeAnnuityImmediate(x float64) (float64, error) {
	return e.DeferredTemporaryAnnuityImmediate(x, 0, e.yearsLeft(x))
}

// TemporaryAnnuityDue returns the EPV of 1 per year paid in advance while
// the life survives, for at most n years.
func (e *Engine) TemporaryAnnuityDue(x float64, n int) (float64, error) {
	return e.DeferredTemporaryAnnuityDue(x, 0, n)
}

// TemporaryAnnuityImmediate returns the EPV of 1 per year paid in arrears
// while the life survives, for at most n years.
func (e *Engine) TemporaryAnnuityImmediate(x float64, n int) (float64, error) {
	return e.DeferredTemporaryAnnuityImmediate(x, 0, n)
}

// DeferredAnnuityDue returns the EPV of a lifetime annuity-due whose first
// payment falls at time u.
func (e *Engine) DeferredAnnuityDue(x float64, u int) (float64, error) {
	if err := e.checkDeferment(x, u); err != nil {
		return 0, err
	}
	return e.DeferredTemporaryAnnuityDue(x, u, e.yearsLeft(x)-u)
}

// DeferredAnnuityImmediate returns the EPV of a lifetime annuity in arrears
// starting after a deferment of u years.
func (e *Engine) DeferredAnnuityImmediate(x float64, u int) (float64, error) {
	if err := e.checkDeferment(x, u); err != nil {
		return 0, err
	}
	return e.DeferredTemporaryAnnuityImmediate(x, u, e.yearsLeft(x)-u)
}

// DeferredTemporaryAnnuityDue returns the EPV of an n-year annuity-due
// deferred u years.
func (e *Engine) DeferredTemporaryAnnuityDue(x float64, u, n int) (float64, error) {
	if err := e.checkAnchor(x); err != nil {
		return 0, err
	}
	if err := e.checkDeferment(x, u); err != nil {
		return 0, err
	}
	if err := checkYears(n); err != nil {
		return 0, err
	}
	return e.annuitySum(x, u, n, true, unit)
}

// DeferredTemporaryAnnuityImmediate returns the EPV of an n-year annuity in
// arrears deferred u years.
func (e *Engine) DeferredTemporaryAnnuityImmediate(x float64, u, n int) (float64, error) {
	if err := e.checkAnchor(x); err != nil {
		return 0, err
	}
	if err := e.checkDeferment(x, u); err != nil {
		return 0, err
	}
	if err := checkYears(n); err != nil {
		return 0, err
	}
	return e.annuitySum(x, u, n, false, unit)
}

// IncreasingAnnuityDue returns the EPV of an annuity-due paying k+1 per
// year in its k-th year, level within each year.
func (e *Engine) IncreasingAnnuityDue(x float64, n int) (float64, error) {
	if err := e.checkAnchor(x); err != nil {
		return 0, err
	}
	if err := checkYears(n); err != nil {
		return 0, err
	}
	return e.annuitySum(x, 0, n, true, func(k int) float64 { return float64(k + 1) })
}

// IncreasingAnnuityImmediate returns the EPV of an annuity in arrears
// paying k+1 per year in its k-th year.
func (e *Engine) IncreasingAnnuityImmediate(x float64, n int) (float64, error) {
	if err := e.checkAnchor(x); err != nil {
		return 0, err
	}
	if err := checkYears(n); err != nil {
		return 0, err
	}
	return e.annuitySum(x, 0, n, false, func(k int) float64 { return float64(k + 1) })
}

// ContinuousWholeLifeAnnuity returns the EPV of 1 per year paid continuously
// while the life survives.
func (e *Engine) ContinuousWholeLifeAnnuity(x float64) (float64, error) {
	return e.ContinuousTemporaryAnnuity(x, e.yearsLeft(x))
}

// ContinuousTemporaryAnnuity returns the EPV of 1 per year paid continuously
// for at most n years, integrating survival and discount within each year
// under the table's assumption.
func (e *Engine) ContinuousTemporaryAnnuity(x float64, n int) (float64, error) {
	if err := e.checkAnchor(x); err != nil {
		return 0, err
	}
	if err := checkYears(n); err != nil {
		return 0, err
	}

	sum := 0.0
	growth := 1.0
	for k := 0; k < n; k++ {
		s, err := e.tab.Survival(x, float64(k))
		if err != nil {
			return 0, err
		}
		if s == 0 {
			break
		}
		sNext, err := e.tab.Survival(x, float64(k+1))
		if err != nil {
			return 0, err
		}
		dfk, err := e.model.DiscountFactor(float64(k))
		if err != nil {
			return 0, err
		}
		dfk1, err := e.model.DiscountFactor(float64(k + 1))
		if err != nil {
			return 0, err
		}
		q := 1 - sNext/s
		f := math.Log(dfk / dfk1)
		sum += growth * s * dfk * yearAnnuityIntegral(e.tab.Assumption(), q, f)
		growth *= 1 + e.cfg.Growth
	}
	return sum, nil
}
