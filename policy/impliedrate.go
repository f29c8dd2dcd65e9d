package policy

import (
	"fmt"
	"math"

	"github.com/parcr/lifeactuary/actuarial"
	"github.com/parcr/lifeactuary/interest"
)

// ImpliedRateInput describes a premium observation to invert for a flat
// interest rate.
type ImpliedRateInput struct {
	// Policy is the contract the premium was quoted for.
	Policy Policy
	// Premium is the observed premium: a net single premium when Single is
	// set, otherwise a level annual premium rate.
	Premium float64
	// Single marks Premium as a single rather than an annual premium.
	Single bool
}

// ImpliedRateResult is the output of ImpliedRate.
type ImpliedRateResult struct {
	// Rate is the flat annual effective rate reproducing the premium.
	Rate float64
	// Iterations is the number of Newton-Raphson steps taken.
	Iterations int
}

const (
	impliedTolerance = 1e-10
	impliedMaxIter   = 100
	impliedFloor     = -0.10
	impliedCeiling   = 0.60
	impliedStep      = 1e-6
)

// ImpliedRate solves for the flat annual effective rate at which the
// calculator's mortality basis reproduces the observed premium. The search
// keeps the calculator's table, claim timing, frequency and growth; the
// derivative is a central difference since the premium has no closed form
// in the rate.
func (c *Calculator) ImpliedRate(in ImpliedRateInput) (ImpliedRateResult, error) {
	if math.IsNaN(in.Premium) || in.Premium <= 0 {
		return ImpliedRateResult{}, fmt.Errorf("policy: implied rate needs a positive premium, got %v: %w", in.Premium, ErrDegenerateContract)
	}

	priceAt := func(rate float64) (float64, error) {
		model, err := interest.NewFlatRate(rate)
		if err != nil {
			return 0, err
		}
		eng, err := actuarial.NewEngine(c.engine.Table(), model, c.engine.Config())
		if err != nil {
			return 0, err
		}
		calc := &Calculator{engine: eng}
		if in.Single {
			return calc.SinglePremium(in.Policy)
		}
		return calc.NetPremium(in.Policy)
	}

	y := 0.05
	for iter := 0; iter < impliedMaxIter; iter++ {
		y = clampRate(y, impliedFloor+impliedStep, impliedCeiling-impliedStep)

		price, err := priceAt(y)
		if err != nil {
			return ImpliedRateResult{}, err
		}
		f := price - in.Premium
		if math.Abs(f) < impliedTolerance*math.Max(1, in.Premium) {
			return ImpliedRateResult{Rate: y, Iterations: iter + 1}, nil
		}

		up, err := priceAt(y + impliedStep)
		if err != nil {
			return ImpliedRateResult{}, err
		}
		down, err := priceAt(y - impliedStep)
		if err != nil {
			return ImpliedRateResult{}, err
		}
		deriv := (up - down) / (2 * impliedStep)
		if math.Abs(deriv) < 1e-15 {
			return ImpliedRateResult{}, fmt.Errorf("policy: implied rate derivative vanished at %.6f: %w", y, ErrNoConvergence)
		}

		y = clampRate(y-f/deriv, impliedFloor, impliedCeiling)
	}
	return ImpliedRateResult{}, fmt.Errorf("policy: implied rate did not converge after %d iterations: %w", impliedMaxIter, ErrNoConvergence)
}

func clampRate(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
