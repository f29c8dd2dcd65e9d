package actuarial

import "math"

// insuranceSum values a unit death benefit over the coverage years
// u..u+n-1 counted from the anchor x. amount(j) scales the benefit in the
// j-th covered year (j starts at 0); the configured growth compounds on top
// of it on each coverage anniversary.
func (e *Engine) insuranceSum(x float64, u, n int, amount func(j int) float64) (float64, error) {
	growth := 1.0
	sum := 0.0
	sPrev, err := e.tab.Survival(x, float64(u))
	if err != nil {
		return 0, err
	}
	for j := 0; j < n && sPrev > 0; j++ {
		k := u + j
		sNext, err := e.tab.Survival(x, float64(k+1))
		if err != nil {
			return 0, err
		}

		var value float64
		switch e.cfg.Timing {
		case ClaimMidYear:
			df, err := e.model.DiscountFactor(float64(k) + 0.5)
			if err != nil {
				return 0, err
			}
			value = (sPrev - sNext) * df
		case ClaimContinuous:
			dfk, err := e.model.DiscountFactor(float64(k))
			if err != nil {
				return 0, err
			}
			dfk1, err := e.model.DiscountFactor(float64(k + 1))
			if err != nil {
				return 0, err
			}
			q := 1 - sNext/sPrev
			f := math.Log(dfk / dfk1)
			value = sPrev * dfk * yearDeathIntegral(e.tab.Assumption(), q, f)
		default:
			df, err := e.model.DiscountFactor(float64(k + 1))
			if err != nil {
				return 0, err
			}
			value = (sPrev - sNext) * df
		}

		sum += amount(j) * growth * value
		growth *= 1 + e.cfg.Growth
		sPrev = sNext
	}
	return sum, nil
}

func unit(int) float64 { return 1 }

// PureEndowment returns the EPV of 1 paid at time n if the life aged x is
// then alive. Growth does not apply: the benefit is a fixed unit.
func (e *Engine) PureEndowment(x float64, n int) (float64, error) {
	if err := e.checkAnchor(x); err != nil {
		return 0, err
	}
	if err := checkYears(n); err != nil {
		return 0, err
	}
	s, err := e.tab.Survival(x, float64(n))
	if err != nil {
		return 0, err
	}
	if s == 0 {
		return 0, nil
	}
	df, err := e.model.DiscountFactor(float64(n))
	if err != nil {
		return 0, err
	}
	return s * df, nil
}

// TermInsurance returns the EPV of 1 paid on death within n years of a life
// aged x.
func (e *Engine) TermInsurance(x float64, n int) (float64, error) {
	return e.DeferredTermInsurance(x, 0, n)
}

// WholeLifeInsurance returns the EPV of 1 paid on death whenever it occurs.
func (e *Engine) WholeLifeInsurance(x float64) (float64, error) {
	return e.DeferredTermInsurance(x, 0, e.yearsLeft(x))
}

// DeferredWholeLifeInsurance returns the EPV of 1 paid on death after the
// first u years.
func (e *Engine) DeferredWholeLifeInsurance(x float64, u int) (float64, error) {
	if err := e.checkDeferment(x, u); err != nil {
		return 0, err
	}
	return e.DeferredTermInsurance(x, u, e.yearsLeft(x)-u)
}

// DeferredTermInsurance returns the EPV of 1 paid on death between years u
// and u+n counted from the anchor.
func (e *Engine) DeferredTermInsurance(x float64, u, n int) (float64, error) {
	if err := e.checkAnchor(x); err != nil {
		return 0, err
	}
	if err := e.checkDeferment(x, u); err != nil {
		return 0, err
	}
	if err := checkYears(n); err != nil {
		return 0, err
	}
	return e.insuranceSum(x, u, n, unit)
}

// EndowmentInsurance returns the EPV of 1 paid on death within n years or
// on survival to time n, whichever comes first.
func (e *Engine) EndowmentInsurance(x float64, n int) (float64, error) {
	term, err := e.TermInsurance(x, n)
	if err != nil {
		return 0, err
	}
	pure, err := e.PureEndowment(x, n)
	if err != nil {
		return 0, err
	}
	return term + pure, nil
}

// IncreasingTermInsurance returns the EPV of a death benefit of j+1 in the
// j-th coverage year (1 in the first year, n in the last).
func (e *Engine) IncreasingTermInsurance(x float64, n int) (float64, error) {
	if err := e.checkAnchor(x); err != nil {
		return 0, err
	}
	if err := checkYears(n); err != nil {
		return 0, err
	}
	return e.insuranceSum(x, 0, n, func(j int) float64 { return float64(j + 1) })
}

// IncreasingWholeLifeInsurance returns the EPV of a death benefit growing
// 1, 2, 3, ... each year for life.
func (e *Engine) IncreasingWholeLifeInsurance(x float64) (float64, error) {
	return e.IncreasingTermInsurance(x, e.yearsLeft(x))
}

// GradedTermInsurance returns the EPV of a death benefit of first+j*step in
// the j-th coverage year. A negative step prices decreasing cover.
func (e *Engine) GradedTermInsurance(x float64, n int, first, step float64) (float64, error) {
	if err := e.checkAnchor(x); err != nil {
		return 0, err
	}
	if err := checkYears(n); err != nil {
		return 0, err
	}
	return e.insuranceSum(x, 0, n, func(j int) float64 { return first + float64(j)*step })
}

// GradedWholeLifeInsurance returns the EPV of a death benefit of
// first+j*step in the j-th year, for life.
func (e *Engine) GradedWholeLifeInsurance(x float64, first, step float64) (float64, error) {
	return e.GradedTermInsurance(x, e.yearsLeft(x), first, step)
}
