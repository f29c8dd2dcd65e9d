// Package interest implements deterministic interest rate models: a flat
// effective annual rate, a spot rate term structure, compounding convention
// conversions, and annuities-certain.
package interest

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidRateStructure is returned when rate inputs cannot form a
	// usable model (empty or non-increasing pillars, rates at or below -1).
	ErrInvalidRateStructure = errors.New("invalid rate structure")
	// ErrInvalidTerm is returned for negative times or inverted forward
	// intervals.
	ErrInvalidTerm = errors.New("invalid term")
)

// NominalFromEffective converts an effective annual rate into the nominal
// rate compounded m times per year, m*((1+i)^(1/m)-1).
func NominalFromEffective(i float64, m int) float64 {
	if m == 1 {
		return i
	}
	return float64(m) * (math.Pow(1+i, 1/float64(m)) - 1)
}

// EffectiveFromNominal converts a nominal rate compounded m times per year
// into the effective annual rate, (1+j/m)^m-1.
func EffectiveFromNominal(j float64, m int) float64 {
	if m == 1 {
		return j
	}
	return math.Pow(1+j/float64(m), float64(m)) - 1
}

// DiscountRate returns the effective annual discount rate d = i/(1+i).
func DiscountRate(i float64) float64 {
	return i / (1 + i)
}

// NominalDiscountFromEffective returns the nominal discount rate compounded
// m times per year, m*(1-(1+i)^(-1/m)).
func NominalDiscountFromEffective(i float64, m int) float64 {
	if m == 1 {
		return DiscountRate(i)
	}
	return float64(m) * (1 - math.Pow(1+i, -1/float64(m)))
}

// Force returns the force of interest delta = ln(1+i) equivalent to the
// effective annual rate i.
func Force(i float64) float64 {
	return math.Log1p(i)
}

// EffectiveFromForce returns the effective annual rate equivalent to a
// constant force of interest.
func EffectiveFromForce(delta float64) float64 {
	return math.Expm1(delta)
}

// Compounding identifies the basis a rate is quoted on: effective per year,
// nominal interest or discount compounded m times per year, or a continuous
// force of interest.
type Compounding struct {
	kind compoundingKind
	m    int
}

type compoundingKind int

const (
	compEffective compoundingKind = iota
	compNominal
	compNominalDiscount
	compContinuous
)

// Effective quotes rates as effective annual.
func Effective() Compounding { return Compounding{kind: compEffective} }

// Nominal quotes rates as nominal annual interest compounded m times per
// year.
func Nominal(m int) Compounding { return Compounding{kind: compNominal, m: m} }

// NominalDiscount quotes rates as nominal annual discount compounded m
// times per year.
func NominalDiscount(m int) Compounding { return Compounding{kind: compNominalDiscount, m: m} }

// Continuous quotes rates as a force of interest.
func Continuous() Compounding { return Compounding{kind: compContinuous} }

func (c Compounding) String() string {
	switch c.kind {
	case compEffective:
		return "effective"
	case compNominal:
		return fmt.Sprintf("nominal(%d)", c.m)
	case compNominalDiscount:
		return fmt.Sprintf("nominal-discount(%d)", c.m)
	case compContinuous:
		return "continuous"
	default:
		return fmt.Sprintf("Compounding(%d)", int(c.kind))
	}
}

func (c Compounding) check() error {
	switch c.kind {
	case compNominal, compNominalDiscount:
		if c.m < 1 {
			return fmt.Errorf("interest: %d compounding periods per year: %w", c.m, ErrInvalidRateStructure)
		}
	case compEffective, compContinuous:
	default:
		return fmt.Errorf("interest: unknown compounding basis %d: %w", int(c.kind), ErrInvalidRateStructure)
	}
	return nil
}

// ToEffective converts a rate quoted on this basis into the equivalent
// effective annual rate.
func (c Compounding) ToEffective(rate float64) (float64, error) {
	if err := c.check(); err != nil {
		return 0, err
	}
	if math.IsNaN(rate) {
		return 0, fmt.Errorf("interest: rate NaN: %w", ErrInvalidRateStructure)
	}
	var i float64
	switch c.kind {
	case compNominal:
		i = EffectiveFromNominal(rate, c.m)
	case compNominalDiscount:
		if rate >= float64(c.m) {
			return 0, fmt.Errorf("interest: nominal discount %g with %d periods discounts past zero: %w",
				rate, c.m, ErrInvalidRateStructure)
		}
		i = math.Pow(1-rate/float64(c.m), -float64(c.m)) - 1
	case compContinuous:
		i = EffectiveFromForce(rate)
	default:
		i = rate
	}
	if err := checkRate(i); err != nil {
		return 0, err
	}
	return i, nil
}

// FromEffective quotes an effective annual rate on this basis.
func (c Compounding) FromEffective(i float64) (float64, error) {
	if err := c.check(); err != nil {
		return 0, err
	}
	if err := checkRate(i); err != nil {
		return 0, err
	}
	switch c.kind {
	case compNominal:
		return NominalFromEffective(i, c.m), nil
	case compNominalDiscount:
		return NominalDiscountFromEffective(i, c.m), nil
	case compContinuous:
		return Force(i), nil
	default:
		return i, nil
	}
}

// EquivalentRate requotes a rate from one compounding basis onto another,
// preserving the one-year accumulation factor.
func EquivalentRate(rate float64, from, to Compounding) (float64, error) {
	i, err := from.ToEffective(rate)
	if err != nil {
		return 0, err
	}
	return to.FromEffective(i)
}

func checkRate(i float64) error {
	if math.IsNaN(i) || i <= -1 {
		return fmt.Errorf("interest: rate %g at or below -100%%: %w", i, ErrInvalidRateStructure)
	}
	return nil
}

func checkTime(t float64) error {
	if math.IsNaN(t) || t < 0 {
		return fmt.Errorf("interest: time %g: %w", t, ErrInvalidTerm)
	}
	return nil
}

func checkForwardInterval(t1, t2 float64) error {
	if err := checkTime(t1); err != nil {
		return err
	}
	if math.IsNaN(t2) || t2 <= t1 {
		return fmt.Errorf("interest: forward interval [%g,%g]: %w", t1, t2, ErrInvalidTerm)
	}
	return nil
}
