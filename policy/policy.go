// Package policy prices level-premium life insurance contracts by the
// equivalence principle and tracks their net premium reserves, prospectively
// and retrospectively, on an actuarial engine.
package policy

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrDegenerateContract is returned when a policy admits no meaningful
	// premium: nothing to insure, no premium paying period, or a premium
	// annuity worth zero.
	ErrDegenerateContract = errors.New("degenerate contract")
	// ErrNoConvergence is returned when the implied rate search fails.
	ErrNoConvergence = errors.New("solver did not converge")
)

// Kind enumerates the supported contract forms.
type Kind int

const (
	// TermInsurance pays the benefit on death within the term.
	TermInsurance Kind = iota
	// WholeLife pays the benefit on death whenever it occurs.
	WholeLife
	// Endowment pays the benefit on death within the term or on survival to
	// its end.
	Endowment
	// PureEndowment pays the benefit only on survival to the end of the
	// term.
	PureEndowment
)

func (k Kind) String() string {
	switch k {
	case TermInsurance:
		return "term"
	case WholeLife:
		return "whole-life"
	case Endowment:
		return "endowment"
	case PureEndowment:
		return "pure-endowment"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind converts the mnemonic used by configuration files and CLI flags
// into a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "term":
		return TermInsurance, nil
	case "whole-life", "wholelife":
		return WholeLife, nil
	case "endowment":
		return Endowment, nil
	case "pure-endowment", "pureendowment":
		return PureEndowment, nil
	default:
		return 0, fmt.Errorf("ParseKind: unknown contract kind %q", s)
	}
}

// Policy describes a single-life contract funded by level premiums paid in
// advance.
type Policy struct {
	Kind     Kind
	IssueAge float64
	// Term is the coverage period in years. Whole life contracts ignore it.
	Term int
	// Benefit is the sum insured.
	Benefit float64
	// PremiumTerm is the number of years premiums are payable. 0 means
	// premiums run for the whole coverage period.
	PremiumTerm int
	// PremiumFrequency is the number of premium instalments per year.
	// 0 means annual.
	PremiumFrequency int
}

func (p Policy) String() string {
	return fmt.Sprintf("%s x=%g n=%d B=%g", p.Kind, p.IssueAge, p.Term, p.Benefit)
}

// normalize validates the contract against the horizon (whole years from
// issue to the terminal age) and fills defaults. It returns the effective
// coverage and premium periods.
func (p Policy) normalize(horizon int) (coverage, premTerm, frequency int, err error) {
	if math.IsNaN(p.Benefit) || p.Benefit <= 0 {
		return 0, 0, 0, fmt.Errorf("policy: benefit %g: %w", p.Benefit, ErrDegenerateContract)
	}

	switch p.Kind {
	case WholeLife:
		coverage = horizon
	case TermInsurance, Endowment, PureEndowment:
		if p.Term < 1 {
			return 0, 0, 0, fmt.Errorf("policy: %s with term %d: %w", p.Kind, p.Term, ErrDegenerateContract)
		}
		coverage = p.Term
		if coverage > horizon {
			coverage = horizon
		}
	default:
		return 0, 0, 0, fmt.Errorf("policy: unknown contract kind %d", int(p.Kind))
	}

	premTerm = p.PremiumTerm
	if premTerm == 0 {
		premTerm = coverage
	}
	if premTerm < 0 || premTerm > coverage {
		return 0, 0, 0, fmt.Errorf("policy: premium term %d against coverage %d: %w",
			premTerm, coverage, ErrDegenerateContract)
	}

	frequency = p.PremiumFrequency
	if frequency == 0 {
		frequency = 1
	}
	if frequency < 0 {
		return 0, 0, 0, fmt.Errorf("policy: premium frequency %d: %w", frequency, ErrDegenerateContract)
	}
	return coverage, premTerm, frequency, nil
}
