package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parcr/lifeactuary/actuarial"
	"github.com/parcr/lifeactuary/interest"
	"github.com/parcr/lifeactuary/lifetable"
)

func testTable(t *testing.T) *lifetable.LifeTable {
	t.Helper()
	tab, err := lifetable.New(lifetable.Builder{
		Name:   "policy-test",
		MinAge: 60,
		Qx:     []float64{0.010, 0.011, 0.012, 0.014, 0.016, 0.019, 0.022, 0.026, 0.031, 0.037},
	})
	require.NoError(t, err)
	return tab
}

func testCalculator(t *testing.T, rate float64) *Calculator {
	t.Helper()
	model, err := interest.NewFlatRate(rate)
	require.NoError(t, err)
	eng, err := actuarial.NewEngine(testTable(t), model, actuarial.Config{})
	require.NoError(t, err)
	calc, err := NewCalculator(eng)
	require.NoError(t, err)
	return calc
}

func TestSinglePremium(t *testing.T) {
	t.Parallel()
	calc := testCalculator(t, 0.04)
	eng := calc.Engine()

	term, err := eng.TermInsurance(60, 3)
	require.NoError(t, err)
	pure, err := eng.PureEndowment(60, 3)
	require.NoError(t, err)

	got, err := calc.SinglePremium(Policy{Kind: TermInsurance, IssueAge: 60, Term: 3, Benefit: 50000})
	require.NoError(t, err)
	assert.InDelta(t, 50000*term, got, 1e-9)

	got, err = calc.SinglePremium(Policy{Kind: Endowment, IssueAge: 60, Term: 3, Benefit: 50000})
	require.NoError(t, err)
	assert.InDelta(t, 50000*(term+pure), got, 1e-9)

	got, err = calc.SinglePremium(Policy{Kind: PureEndowment, IssueAge: 60, Term: 3, Benefit: 50000})
	require.NoError(t, err)
	assert.InDelta(t, 50000*pure, got, 1e-9)
}

// The net premium must satisfy the equivalence principle exactly: the EPV
// of premium income equals the EPV of benefits at issue.
func TestNetPremiumEquivalence(t *testing.T) {
	t.Parallel()
	calc := testCalculator(t, 0.04)

	cases := []struct {
		name   string
		policy Policy
	}{
		{"term", Policy{Kind: TermInsurance, IssueAge: 60, Term: 8, Benefit: 100000}},
		{"whole life", Policy{Kind: WholeLife, IssueAge: 60, Benefit: 100000}},
		{"endowment", Policy{Kind: Endowment, IssueAge: 60, Term: 8, Benefit: 100000}},
		{"pure endowment", Policy{Kind: PureEndowment, IssueAge: 60, Term: 8, Benefit: 100000}},
		{"limited premiums", Policy{Kind: Endowment, IssueAge: 60, Term: 8, PremiumTerm: 5, Benefit: 100000}},
		{"monthly premiums", Policy{Kind: Endowment, IssueAge: 60, Term: 8, PremiumFrequency: 12, Benefit: 100000}},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			prem, err := calc.NetPremium(tc.policy)
			require.NoError(t, err)
			single, err := calc.SinglePremium(tc.policy)
			require.NoError(t, err)

			_, premTerm, frequency, err := tc.policy.normalize(calc.horizon(tc.policy.IssueAge))
			require.NoError(t, err)
			pe, err := calc.premiumEngine(frequency)
			require.NoError(t, err)
			annuity, err := pe.TemporaryAnnuityDue(tc.policy.IssueAge, premTerm)
			require.NoError(t, err)

			assert.InDelta(t, single, prem*annuity, 1e-7)
		})
	}
}

func TestMonthlyPremiumRateExceedsAnnual(t *testing.T) {
	t.Parallel()
	calc := testCalculator(t, 0.04)

	annual, err := calc.NetPremium(Policy{Kind: Endowment, IssueAge: 60, Term: 8, Benefit: 100000})
	require.NoError(t, err)
	monthly, err := calc.NetPremium(Policy{Kind: Endowment, IssueAge: 60, Term: 8, PremiumFrequency: 12, Benefit: 100000})
	require.NoError(t, err)

	// Monthly instalments are worth less per unit of annual rate, so the
	// rate itself must be higher, though only by a few percent.
	assert.Greater(t, monthly, annual)
	assert.Less(t, monthly, 1.05*annual)
}

func TestReserveAtIssueIsZero(t *testing.T) {
	t.Parallel()
	calc := testCalculator(t, 0.04)
	p := Policy{Kind: Endowment, IssueAge: 60, Term: 8, Benefit: 1000}

	r, err := calc.ReserveAt(p, 0)
	require.NoError(t, err)
	assert.InDelta(t, 0, r.Prospective, 1e-9)
	assert.Equal(t, 0.0, r.Retrospective)
}

func TestProspectiveEqualsRetrospective(t *testing.T) {
	t.Parallel()
	calc := testCalculator(t, 0.04)

	cases := []struct {
		name   string
		policy Policy
	}{
		{"term", Policy{Kind: TermInsurance, IssueAge: 60, Term: 8, Benefit: 1000}},
		{"endowment", Policy{Kind: Endowment, IssueAge: 60, Term: 8, Benefit: 1000}},
		{"pure endowment", Policy{Kind: PureEndowment, IssueAge: 60, Term: 5, Benefit: 1000}},
		{"whole life", Policy{Kind: WholeLife, IssueAge: 60, Benefit: 1000}},
		{"limited premiums", Policy{Kind: Endowment, IssueAge: 60, Term: 8, PremiumTerm: 4, Benefit: 1000}},
		{"monthly premiums", Policy{Kind: Endowment, IssueAge: 60, Term: 6, PremiumFrequency: 12, Benefit: 1000}},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			series, err := calc.ReserveSeries(tc.policy)
			require.NoError(t, err)
			require.NotEmpty(t, series)
			for _, r := range series {
				assert.Lessf(t, r.Gap(), 1e-8, "duration %d: prospective %.12f retrospective %.12f",
					r.Duration, r.Prospective, r.Retrospective)
			}
		})
	}
}

func TestProspectiveEqualsRetrospectiveSelect(t *testing.T) {
	t.Parallel()

	ult, err := lifetable.New(lifetable.Builder{
		Name:   "ultimate",
		MinAge: 60,
		Qx:     []float64{0.010, 0.011, 0.012, 0.014, 0.016, 0.019, 0.022, 0.026},
	})
	require.NoError(t, err)
	sel, err := lifetable.NewSelect(lifetable.SelectBuilder{
		Name:        "select",
		MinIssueAge: 60,
		SelectQx: [][]float64{
			{0.005, 0.008},
			{0.006, 0.009},
			{0.007, 0.010},
		},
		Ultimate: ult,
	})
	require.NoError(t, err)

	model, err := interest.NewFlatRate(0.04)
	require.NoError(t, err)
	eng, err := actuarial.NewEngine(sel, model, actuarial.Config{})
	require.NoError(t, err)
	calc, err := NewCalculator(eng)
	require.NoError(t, err)

	p := Policy{Kind: Endowment, IssueAge: 61, Term: 5, Benefit: 1000}
	series, err := calc.ReserveSeries(p)
	require.NoError(t, err)
	require.Len(t, series, 6)
	for _, r := range series {
		assert.Lessf(t, r.Gap(), 1e-8, "duration %d", r.Duration)
	}
	// Select discount in the early rates keeps the first reserve positive.
	assert.Greater(t, series[1].Prospective, 0.0)
}

func TestReserveParityWithGrowth(t *testing.T) {
	t.Parallel()
	model, err := interest.NewFlatRate(0.04)
	require.NoError(t, err)
	eng, err := actuarial.NewEngine(testTable(t), model, actuarial.Config{Growth: 0.03})
	require.NoError(t, err)
	calc, err := NewCalculator(eng)
	require.NoError(t, err)

	level := testCalculator(t, 0.04)
	for _, p := range []Policy{
		{Kind: Endowment, IssueAge: 60, Term: 8, Benefit: 1000},
		{Kind: WholeLife, IssueAge: 60, Benefit: 1000},
		{Kind: TermInsurance, IssueAge: 60, Term: 8, PremiumTerm: 4, Benefit: 1000},
	} {
		series, err := calc.ReserveSeries(p)
		require.NoErrorf(t, err, "%s", p)
		for _, r := range series {
			assert.Lessf(t, r.Gap(), 1e-8, "%s duration %d", p, r.Duration)
		}

		// Escalating cover costs more than level cover.
		grown, err := calc.NetPremium(p)
		require.NoError(t, err)
		flat, err := level.NetPremium(p)
		require.NoError(t, err)
		assert.Greaterf(t, grown, flat, "%s", p)
	}
}

func TestEndowmentTerminalReserve(t *testing.T) {
	t.Parallel()
	calc := testCalculator(t, 0.04)
	p := Policy{Kind: Endowment, IssueAge: 60, Term: 5, Benefit: 2500}

	r, err := calc.ReserveAt(p, 5)
	require.NoError(t, err)
	assert.Equal(t, 2500.0, r.Prospective)
	assert.InDelta(t, 2500, r.Retrospective, 1e-8)

	pure := Policy{Kind: PureEndowment, IssueAge: 60, Term: 5, Benefit: 2500}
	r, err = calc.ReserveAt(pure, 5)
	require.NoError(t, err)
	assert.Equal(t, 2500.0, r.Prospective)
	assert.InDelta(t, 2500, r.Retrospective, 1e-8)
}

func TestTermTerminalReserveIsZero(t *testing.T) {
	t.Parallel()
	calc := testCalculator(t, 0.04)

	r, err := calc.ReserveAt(Policy{Kind: TermInsurance, IssueAge: 60, Term: 5, Benefit: 1000}, 5)
	require.NoError(t, err)
	assert.Equal(t, 0.0, r.Prospective)
	assert.InDelta(t, 0, r.Retrospective, 1e-9)

	// Full-horizon term: the cohort is extinct at expiry but the reserve
	// convention still closes at zero.
	r, err = calc.ReserveAt(Policy{Kind: TermInsurance, IssueAge: 60, Term: 11, Benefit: 1000}, 11)
	require.NoError(t, err)
	assert.Equal(t, 0.0, r.Prospective)
	assert.Equal(t, 0.0, r.Retrospective)
}

func TestReserveSeriesShape(t *testing.T) {
	t.Parallel()
	calc := testCalculator(t, 0.04)

	series, err := calc.ReserveSeries(Policy{Kind: Endowment, IssueAge: 60, Term: 5, Benefit: 1000})
	require.NoError(t, err)
	require.Len(t, series, 6)
	for k, r := range series {
		assert.Equal(t, k, r.Duration)
		if k > 0 {
			assert.Greater(t, r.Prospective, series[k-1].Prospective)
		}
	}
	assert.Equal(t, 1000.0, series[5].Prospective)
}

func TestWholeLifeReserveSeries(t *testing.T) {
	t.Parallel()
	calc := testCalculator(t, 0.04)

	series, err := calc.ReserveSeries(Policy{Kind: WholeLife, IssueAge: 60, Benefit: 1000})
	require.NoError(t, err)
	// Durations 0 through 10; the terminal age itself has no survivors.
	require.Len(t, series, 11)
	for k, r := range series {
		if k > 0 {
			assert.Greater(t, r.Prospective, series[k-1].Prospective)
		}
		assert.Less(t, r.Prospective, 1000.0)
	}

	_, err = calc.ReserveAt(Policy{Kind: WholeLife, IssueAge: 60, Benefit: 1000}, 11)
	assert.ErrorIs(t, err, lifetable.ErrOutOfDomain)
}

func TestPremiumTermDefaults(t *testing.T) {
	t.Parallel()
	calc := testCalculator(t, 0.04)

	implicit, err := calc.NetPremium(Policy{Kind: TermInsurance, IssueAge: 60, Term: 5, Benefit: 1000})
	require.NoError(t, err)
	explicit, err := calc.NetPremium(Policy{Kind: TermInsurance, IssueAge: 60, Term: 5, PremiumTerm: 5, Benefit: 1000})
	require.NoError(t, err)
	assert.Equal(t, explicit, implicit)
}

func TestDegenerateContracts(t *testing.T) {
	t.Parallel()
	calc := testCalculator(t, 0.04)

	cases := []struct {
		name   string
		policy Policy
	}{
		{"zero benefit", Policy{Kind: TermInsurance, IssueAge: 60, Term: 5}},
		{"negative benefit", Policy{Kind: TermInsurance, IssueAge: 60, Term: 5, Benefit: -10}},
		{"zero term", Policy{Kind: TermInsurance, IssueAge: 60, Term: 0, Benefit: 1000}},
		{"negative term", Policy{Kind: Endowment, IssueAge: 60, Term: -3, Benefit: 1000}},
		{"premium term past coverage", Policy{Kind: TermInsurance, IssueAge: 60, Term: 5, PremiumTerm: 6, Benefit: 1000}},
		{"negative premium term", Policy{Kind: TermInsurance, IssueAge: 60, Term: 5, PremiumTerm: -1, Benefit: 1000}},
		{"negative frequency", Policy{Kind: TermInsurance, IssueAge: 60, Term: 5, PremiumFrequency: -4, Benefit: 1000}},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := calc.NetPremium(tc.policy)
			assert.ErrorIs(t, err, ErrDegenerateContract)
			_, err = calc.ReserveAt(tc.policy, 1)
			assert.ErrorIs(t, err, ErrDegenerateContract)
		})
	}
}

func TestReserveDurationBounds(t *testing.T) {
	t.Parallel()
	calc := testCalculator(t, 0.04)
	p := Policy{Kind: TermInsurance, IssueAge: 60, Term: 5, Benefit: 1000}

	_, err := calc.ProspectiveReserve(p, -1)
	assert.ErrorIs(t, err, lifetable.ErrInvalidTerm)
	_, err = calc.RetrospectiveReserve(p, 6)
	assert.ErrorIs(t, err, lifetable.ErrInvalidTerm)
}

func TestIssueAgeOutsideTable(t *testing.T) {
	t.Parallel()
	calc := testCalculator(t, 0.04)

	_, err := calc.NetPremium(Policy{Kind: TermInsurance, IssueAge: 40, Term: 5, Benefit: 1000})
	assert.ErrorIs(t, err, lifetable.ErrOutOfDomain)
}

func TestNewCalculatorNilEngine(t *testing.T) {
	t.Parallel()
	_, err := NewCalculator(nil)
	assert.Error(t, err)
}

func TestKindRoundTrip(t *testing.T) {
	t.Parallel()
	for _, k := range []Kind{TermInsurance, WholeLife, Endowment, PureEndowment} {
		parsed, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, parsed)
	}
	_, err := ParseKind("tontine")
	assert.Error(t, err)
}
