package policy

import (
	"fmt"
	"math"

	"github.com/parcr/lifeactuary/actuarial"
	"github.com/parcr/lifeactuary/lifetable"
)

// Calculator prices policies on a fixed actuarial engine. Benefits follow
// the engine's claim timing; premiums are level annuities-due valued with
// the policy's own frequency and no escalation.
type Calculator struct {
	engine *actuarial.Engine
}

// NewCalculator wraps an engine.
func NewCalculator(e *actuarial.Engine) (*Calculator, error) {
	if e == nil {
		return nil, fmt.Errorf("policy.NewCalculator: %w", actuarial.ErrNilTable)
	}
	return &Calculator{engine: e}, nil
}

// Engine returns the underlying actuarial engine.
func (c *Calculator) Engine() *actuarial.Engine { return c.engine }

// horizon is the number of whole years from issue to the terminal age.
func (c *Calculator) horizon(x float64) int {
	return int(math.Ceil(float64(c.engine.Table().TerminalAge()) - x))
}

// premiumEngine values premium annuities: the policy's frequency, level
// payments, same table and rates.
func (c *Calculator) premiumEngine(frequency int) (*actuarial.Engine, error) {
	cfg := c.engine.Config()
	cfg.PaymentsPerYear = frequency
	cfg.Growth = 0
	return c.engine.WithConfig(cfg)
}

// benefitEPV returns the EPV at issue of the contract's unit benefit.
func (c *Calculator) benefitEPV(p Policy, coverage int) (float64, error) {
	switch p.Kind {
	case TermInsurance:
		return c.engine.TermInsurance(p.IssueAge, coverage)
	case WholeLife:
		return c.engine.WholeLifeInsurance(p.IssueAge)
	case Endowment:
		return c.engine.EndowmentInsurance(p.IssueAge, coverage)
	case PureEndowment:
		return c.engine.PureEndowment(p.IssueAge, coverage)
	default:
		return 0, fmt.Errorf("policy: unknown contract kind %d", int(p.Kind))
	}
}

// deferredBenefitEPV returns the EPV at issue of benefit payments falling
// after duration k. Deferred engine calls restart escalation at the start
// of their window, so the tail is rescaled by the growth accumulated over
// the first k years and continues the schedule begun at issue.
func (c *Calculator) deferredBenefitEPV(p Policy, coverage, k int) (float64, error) {
	escalation := math.Pow(1+c.engine.Config().Growth, float64(k))
	switch p.Kind {
	case TermInsurance:
		tail, err := c.engine.DeferredTermInsurance(p.IssueAge, k, coverage-k)
		if err != nil {
			return 0, err
		}
		return escalation * tail, nil
	case WholeLife:
		tail, err := c.engine.DeferredWholeLifeInsurance(p.IssueAge, k)
		if err != nil {
			return 0, err
		}
		return escalation * tail, nil
	case Endowment:
		tail, err := c.engine.DeferredTermInsurance(p.IssueAge, k, coverage-k)
		if err != nil {
			return 0, err
		}
		pure, err := c.engine.PureEndowment(p.IssueAge, coverage)
		if err != nil {
			return 0, err
		}
		// The maturity benefit is a fixed unit; only death cover escalates.
		return escalation*tail + pure, nil
	case PureEndowment:
		return c.engine.PureEndowment(p.IssueAge, coverage)
	default:
		return 0, fmt.Errorf("policy: unknown contract kind %d", int(p.Kind))
	}
}

// SinglePremium returns the EPV at issue of the contract's benefits, i.e.
// the net single premium.
func (c *Calculator) SinglePremium(p Policy) (float64, error) {
	coverage, _, _, err := p.normalize(c.horizon(p.IssueAge))
	if err != nil {
		return 0, err
	}
	epv, err := c.benefitEPV(p, coverage)
	if err != nil {
		return 0, err
	}
	return p.Benefit * epv, nil
}

// NetPremium returns the level annual premium rate satisfying the
// equivalence principle: benefit EPV equals premium EPV at issue. The rate
// is per year; instalments are the rate divided by the policy's frequency.
func (c *Calculator) NetPremium(p Policy) (float64, error) {
	coverage, premTerm, frequency, err := p.normalize(c.horizon(p.IssueAge))
	if err != nil {
		return 0, err
	}
	single, err := c.benefitEPV(p, coverage)
	if err != nil {
		return 0, err
	}
	pe, err := c.premiumEngine(frequency)
	if err != nil {
		return 0, err
	}
	annuity, err := pe.TemporaryAnnuityDue(p.IssueAge, premTerm)
	if err != nil {
		return 0, err
	}
	if annuity <= 0 {
		return 0, fmt.Errorf("policy: premium annuity is worthless: %w", ErrDegenerateContract)
	}
	return p.Benefit * single / annuity, nil
}

// Reserve is the net premium reserve at an integer duration, computed both
// ways. In exact arithmetic the two agree; the gap measures rounding.
type Reserve struct {
	Duration      int
	Prospective   float64
	Retrospective float64
}

// Gap returns the absolute difference between the two computations.
func (r Reserve) Gap() float64 {
	return math.Abs(r.Prospective - r.Retrospective)
}

func (c *Calculator) checkDuration(k, coverage int) error {
	if k < 0 || k > coverage {
		return fmt.Errorf("policy: duration %d outside [0,%d]: %w", k, coverage, lifetable.ErrInvalidTerm)
	}
	return nil
}

// survivalDiscount returns kEx = S(x,k) * DF(k), the pure endowment factor
// that converts issue values into duration-k values.
func (c *Calculator) survivalDiscount(x float64, k int) (float64, error) {
	s, err := c.engine.Table().Survival(x, float64(k))
	if err != nil {
		return 0, err
	}
	df, err := c.engine.Model().DiscountFactor(float64(k))
	if err != nil {
		return 0, err
	}
	return s * df, nil
}

// terminalReserve handles duration == coverage, where the deferred
// formulation has nothing left to defer.
func (c *Calculator) terminalReserve(p Policy, coverage int) (float64, error) {
	switch p.Kind {
	case TermInsurance:
		return 0, nil
	case WholeLife:
		return 0, fmt.Errorf("policy: whole life reserve at the terminal age: %w", lifetable.ErrOutOfDomain)
	default:
		// Endowment forms owe the benefit at maturity if anyone is alive.
		s, err := c.engine.Table().Survival(p.IssueAge, float64(coverage))
		if err != nil {
			return 0, err
		}
		if s > 0 {
			return p.Benefit, nil
		}
		return 0, nil
	}
}

// ProspectiveReserve returns the reserve after k years as the EPV of future
// benefits minus future premiums, both conditional on survival to k.
func (c *Calculator) ProspectiveReserve(p Policy, k int) (float64, error) {
	coverage, premTerm, frequency, err := p.normalize(c.horizon(p.IssueAge))
	if err != nil {
		return 0, err
	}
	if err := c.checkDuration(k, coverage); err != nil {
		return 0, err
	}
	if k == coverage {
		return c.terminalReserve(p, coverage)
	}

	premium, err := c.NetPremium(p)
	if err != nil {
		return 0, err
	}
	benefit, err := c.deferredBenefitEPV(p, coverage, k)
	if err != nil {
		return 0, err
	}

	futurePrem := 0.0
	if k < premTerm {
		pe, err := c.premiumEngine(frequency)
		if err != nil {
			return 0, err
		}
		futurePrem, err = pe.DeferredTemporaryAnnuityDue(p.IssueAge, k, premTerm-k)
		if err != nil {
			return 0, err
		}
	}

	kEx, err := c.survivalDiscount(p.IssueAge, k)
	if err != nil {
		return 0, err
	}
	if kEx <= 0 {
		return 0, fmt.Errorf("policy: no survivors at duration %d: %w", k, lifetable.ErrOutOfDomain)
	}
	return (p.Benefit*benefit - premium*futurePrem) / kEx, nil
}

// RetrospectiveReserve returns the reserve after k years as accumulated
// premiums minus accumulated benefit cost, conditional on survival to k.
func (c *Calculator) RetrospectiveReserve(p Policy, k int) (float64, error) {
	coverage, premTerm, frequency, err := p.normalize(c.horizon(p.IssueAge))
	if err != nil {
		return 0, err
	}
	if err := c.checkDuration(k, coverage); err != nil {
		return 0, err
	}
	if k == 0 {
		return 0, nil
	}

	kEx, err := c.survivalDiscount(p.IssueAge, k)
	if err != nil {
		return 0, err
	}
	if kEx <= 0 {
		return c.terminalReserve(p, coverage)
	}

	premium, err := c.NetPremium(p)
	if err != nil {
		return 0, err
	}

	paidYears := k
	if premTerm < paidYears {
		paidYears = premTerm
	}
	pe, err := c.premiumEngine(frequency)
	if err != nil {
		return 0, err
	}
	paid, err := pe.TemporaryAnnuityDue(p.IssueAge, paidYears)
	if err != nil {
		return 0, err
	}

	// Death cover consumed so far. Pure endowments carry no death cover.
	consumed := 0.0
	if p.Kind != PureEndowment {
		consumed, err = c.engine.TermInsurance(p.IssueAge, k)
		if err != nil {
			return 0, err
		}
	}
	return (premium*paid - p.Benefit*consumed) / kEx, nil
}

// reserveParityTolerance bounds the relative gap between the two reserve
// computations. They split one identity at duration k, so the gap measures
// accumulated rounding only.
const reserveParityTolerance = 1e-6

// ReserveAt computes the duration-k reserve both ways and fails when the
// two disagree beyond rounding.
func (c *Calculator) ReserveAt(p Policy, k int) (Reserve, error) {
	prosp, err := c.ProspectiveReserve(p, k)
	if err != nil {
		return Reserve{}, err
	}
	retro, err := c.RetrospectiveReserve(p, k)
	if err != nil {
		return Reserve{}, err
	}
	r := Reserve{Duration: k, Prospective: prosp, Retrospective: retro}
	scale := math.Max(p.Benefit, math.Max(math.Abs(prosp), math.Abs(retro)))
	if scale < 1 {
		scale = 1
	}
	if r.Gap() > reserveParityTolerance*scale {
		return Reserve{}, fmt.Errorf("policy: reserve methods disagree by %g at duration %d: %w",
			r.Gap(), k, actuarial.ErrInconsistent)
	}
	return r, nil
}

// ReserveSeries computes the reserve at every integer duration from issue
// through maturity.
func (c *Calculator) ReserveSeries(p Policy) ([]Reserve, error) {
	coverage, _, _, err := p.normalize(c.horizon(p.IssueAge))
	if err != nil {
		return nil, err
	}
	end := coverage
	if p.Kind == WholeLife {
		end = coverage - 1
	}
	out := make([]Reserve, 0, end+1)
	for k := 0; k <= end; k++ {
		r, err := c.ReserveAt(p, k)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}
