package actuarial

import (
	"math"

	"github.com/parcr/lifeactuary/lifetable"
)

// The within-year integrals below value cash flows inside one year of age
// for a life subject to death probability q, discounted at the year's
// forward force of interest f. Uniform deaths and constant force admit
// closed forms; Balducci is integrated numerically.

// yearDeathIntegral returns the value at the start of the year of 1 paid at
// the moment of death, given death occurs with probability q during the
// year, per unit of probability mass at the year start.
func yearDeathIntegral(a lifetable.Assumption, q, f float64) float64 {
	switch a {
	case lifetable.ConstantForce:
		p := 1 - q
		if p <= 0 {
			return 1
		}
		if q == 0 {
			return 0
		}
		mu := -math.Log(p)
		return mu * annualize(mu+f)
	case lifetable.Balducci:
		p := 1 - q
		if p <= 0 {
			return 1
		}
		if q == 0 {
			return 0
		}
		return simpson(func(s float64) float64 {
			den := 1 - (1-s)*q
			return math.Exp(-f*s) * p * q / (den * den)
		}, 0, 1, 20)
	default:
		// Uniform deaths: the death density is q ds.
		return q * annualize(f)
	}
}

// yearAnnuityIntegral returns the value at the start of the year of a
// continuous payment stream of 1 per year while alive during the year, per
// unit of probability mass at the year start.
func yearAnnuityIntegral(a lifetable.Assumption, q, f float64) float64 {
	switch a {
	case lifetable.ConstantForce:
		p := 1 - q
		if p <= 0 {
			return 0
		}
		return annualize(-math.Log(p) + f)
	case lifetable.Balducci:
		p := 1 - q
		if p <= 0 {
			return 0
		}
		return simpson(func(s float64) float64 {
			return math.Exp(-f*s) * p / (1 - (1-s)*q)
		}, 0, 1, 20)
	default:
		// Uniform deaths: survival decays linearly, 1 - s*q.
		return annualize(f) - q*rampIntegral(f)
	}
}

// annualize is the one-year integral of e^(-r s), (1-e^(-r))/r.
func annualize(r float64) float64 {
	if math.Abs(r) < 1e-12 {
		return 1 - r/2
	}
	return -math.Expm1(-r) / r
}

// rampIntegral is the one-year integral of s*e^(-r s).
func rampIntegral(r float64) float64 {
	if math.Abs(r) < 1e-8 {
		return 0.5 - r/3
	}
	return (1 - (1+r)*math.Exp(-r)) / (r * r)
}

// simpson integrates fn over [a,b] with n even subintervals.
func simpson(fn func(float64) float64, a, b float64, n int) float64 {
	h := (b - a) / float64(n)
	sum := fn(a) + fn(b)
	for i := 1; i < n; i++ {
		x := a + float64(i)*h
		if i%2 == 1 {
			sum += 4 * fn(x)
		} else {
			sum += 2 * fn(x)
		}
	}
	return sum * h / 3
}
