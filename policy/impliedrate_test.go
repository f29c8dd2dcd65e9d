package policy

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parcr/lifeactuary/actuarial"
	"github.com/parcr/lifeactuary/interest"
)

// premiumAtRate prices the policy on the shared test table at the given
// flat rate, bypassing the solver.
func premiumAtRate(t *testing.T, rate float64, p Policy, single bool) float64 {
	t.Helper()
	calc := testCalculator(t, rate)
	var prem float64
	var err error
	if single {
		prem, err = calc.SinglePremium(p)
	} else {
		prem, err = calc.NetPremium(p)
	}
	require.NoError(t, err)
	return prem
}

func TestImpliedRateRoundTrip(t *testing.T) {
	t.Parallel()
	calc := testCalculator(t, 0.05)

	cases := []struct {
		name   string
		rate   float64
		policy Policy
		single bool
	}{
		{"annual endowment", 0.04, Policy{Kind: Endowment, IssueAge: 60, Term: 8, Benefit: 1000}, false},
		{"term single premium", 0.07, Policy{Kind: TermInsurance, IssueAge: 60, Term: 8, Benefit: 1000}, true},
		{"monthly whole life", 0.03, Policy{Kind: WholeLife, IssueAge: 60, PremiumFrequency: 12, Benefit: 1000}, false},
		{"low rate pure endowment", 0.015, Policy{Kind: PureEndowment, IssueAge: 60, Term: 5, Benefit: 1000}, true},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			target := premiumAtRate(t, tc.rate, tc.policy, tc.single)
			res, err := calc.ImpliedRate(ImpliedRateInput{Policy: tc.policy, Premium: target, Single: tc.single})
			require.NoError(t, err)
			assert.InDelta(t, tc.rate, res.Rate, 1e-7)
			assert.Greater(t, res.Iterations, 0)
			assert.LessOrEqual(t, res.Iterations, impliedMaxIter)
		})
	}
}

func TestImpliedRateAlreadyAtRoot(t *testing.T) {
	t.Parallel()
	calc := testCalculator(t, 0.05)
	p := Policy{Kind: Endowment, IssueAge: 60, Term: 8, Benefit: 1000}

	target, err := calc.NetPremium(p)
	require.NoError(t, err)
	res, err := calc.ImpliedRate(ImpliedRateInput{Policy: p, Premium: target})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Iterations)
	assert.Equal(t, 0.05, res.Rate)
}

func TestImpliedRateUnreachablePremium(t *testing.T) {
	t.Parallel()
	calc := testCalculator(t, 0.05)
	p := Policy{Kind: TermInsurance, IssueAge: 60, Term: 8, Benefit: 1000}

	// No rate in the search band makes 8-year death cover cost the full
	// sum insured.
	_, err := calc.ImpliedRate(ImpliedRateInput{Policy: p, Premium: 1000, Single: true})
	assert.ErrorIs(t, err, ErrNoConvergence)
}

func TestImpliedRateBadPremium(t *testing.T) {
	t.Parallel()
	calc := testCalculator(t, 0.05)
	p := Policy{Kind: TermInsurance, IssueAge: 60, Term: 8, Benefit: 1000}

	for _, prem := range []float64{0, -5, math.NaN()} {
		_, err := calc.ImpliedRate(ImpliedRateInput{Policy: p, Premium: prem})
		assert.ErrorIs(t, err, ErrDegenerateContract)
	}
}

func TestImpliedRateKeepsEngineConfig(t *testing.T) {
	t.Parallel()

	model, err := interest.NewFlatRate(0.05)
	require.NoError(t, err)
	eng, err := actuarial.NewEngine(testTable(t), model, actuarial.Config{Timing: actuarial.ClaimMidYear})
	require.NoError(t, err)
	calc, err := NewCalculator(eng)
	require.NoError(t, err)

	p := Policy{Kind: Endowment, IssueAge: 60, Term: 8, Benefit: 1000}
	target := func() float64 {
		m, err := interest.NewFlatRate(0.04)
		require.NoError(t, err)
		e, err := actuarial.NewEngine(testTable(t), m, actuarial.Config{Timing: actuarial.ClaimMidYear})
		require.NoError(t, err)
		c, err := NewCalculator(e)
		require.NoError(t, err)
		prem, err := c.NetPremium(p)
		require.NoError(t, err)
		return prem
	}()

	res, err := calc.ImpliedRate(ImpliedRateInput{Policy: p, Premium: target})
	require.NoError(t, err)
	assert.InDelta(t, 0.04, res.Rate, 1e-7)
}
