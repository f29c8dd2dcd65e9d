package actuarial

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parcr/lifeactuary/interest"
	"github.com/parcr/lifeactuary/lifetable"
)

const v05 = 1 / 1.05

func TestPureEndowment(t *testing.T) {
	t.Parallel()
	e := demoEngine(t, Config{})

	got, err := e.PureEndowment(60, 2)
	require.NoError(t, err)
	assert.InDelta(t, 0.978*v05*v05, got, 1e-12)

	got, err = e.PureEndowment(60, 0)
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)

	// Survival past the terminal age is worth nothing.
	got, err = e.PureEndowment(60, 3)
	require.NoError(t, err)
	assert.Zero(t, got)

	_, err = e.PureEndowment(60, -1)
	require.ErrorIs(t, err, lifetable.ErrInvalidTerm)
}

func TestTermInsuranceHandSums(t *testing.T) {
	t.Parallel()
	e := demoEngine(t, Config{})

	got, err := e.TermInsurance(60, 2)
	require.NoError(t, err)
	want := (1000*v05 + 1200*v05*v05) / 100000
	assert.InDelta(t, want, got, 1e-12)

	// Terms past the horizon truncate silently.
	full, err := e.TermInsurance(60, 3)
	require.NoError(t, err)
	huge, err := e.TermInsurance(60, 50)
	require.NoError(t, err)
	assert.InDelta(t, full, huge, 1e-15)

	zero, err := e.TermInsurance(60, 0)
	require.NoError(t, err)
	assert.Zero(t, zero)
}

func TestWholeLifeInsurance(t *testing.T) {
	t.Parallel()
	e := demoEngine(t, Config{})

	got, err := e.WholeLifeInsurance(60)
	require.NoError(t, err)
	want := (1000*v05 + 1200*math.Pow(v05, 2) + 97800*math.Pow(v05, 3)) / 100000
	assert.InDelta(t, want, got, 1e-12)

	// Insurance grows with age on this table.
	a61, err := e.WholeLifeInsurance(61)
	require.NoError(t, err)
	a62, err := e.WholeLifeInsurance(62)
	require.NoError(t, err)
	assert.Greater(t, a61, got)
	assert.Greater(t, a62, a61)
	assert.InDelta(t, v05, a62, 1e-12) // certain death within the year
}

func TestEndowmentRecursion(t *testing.T) {
	t.Parallel()
	e := demoEngine(t, Config{})

	// A(x:n) = v*q + v*p*A(x+1:n-1), chained down the table.
	for _, n := range []int{2, 3} {
		ax, err := e.EndowmentInsurance(60, n)
		require.NoError(t, err)
		ax1, err := e.EndowmentInsurance(61, n-1)
		require.NoError(t, err)
		assert.InDeltaf(t, v05*(0.01+0.99*ax1), ax, 1e-12, "n=%d", n)
	}
}

func TestDeferredInsurance(t *testing.T) {
	t.Parallel()
	e := demoEngine(t, Config{})

	got, err := e.DeferredTermInsurance(60, 1, 1)
	require.NoError(t, err)
	assert.InDelta(t, 1200*v05*v05/100000, got, 1e-12)

	// Term plus deferred term reassembles the longer term.
	head, err := e.TermInsurance(60, 1)
	require.NoError(t, err)
	tail, err := e.DeferredTermInsurance(60, 1, 2)
	require.NoError(t, err)
	full, err := e.TermInsurance(60, 3)
	require.NoError(t, err)
	assert.InDelta(t, full, head+tail, 1e-12)

	dwl, err := e.DeferredWholeLifeInsurance(60, 2)
	require.NoError(t, err)
	assert.InDelta(t, 97800*math.Pow(v05, 3)/100000, dwl, 1e-12)

	// Deferment reaching the terminal age leaves nothing to insure.
	_, err = e.DeferredWholeLifeInsurance(60, 3)
	require.ErrorIs(t, err, lifetable.ErrInvalidTerm)
	_, err = e.DeferredTermInsurance(60, -1, 1)
	require.ErrorIs(t, err, lifetable.ErrInvalidTerm)
}

func TestIncreasingInsurance(t *testing.T) {
	t.Parallel()
	e := demoEngine(t, Config{})

	got, err := e.IncreasingTermInsurance(60, 2)
	require.NoError(t, err)
	want := (1*1000*v05 + 2*1200*v05*v05) / 100000
	assert.InDelta(t, want, got, 1e-12)

	// The whole-life version runs to the terminal age.
	iwl, err := e.IncreasingWholeLifeInsurance(60)
	require.NoError(t, err)
	want = (1*1000*v05 + 2*1200*math.Pow(v05, 2) + 3*97800*math.Pow(v05, 3)) / 100000
	assert.InDelta(t, want, iwl, 1e-12)
}

func TestGradedInsurance(t *testing.T) {
	t.Parallel()
	e := demoEngine(t, Config{})

	// A flat schedule is a scaled level cover.
	flat, err := e.GradedTermInsurance(60, 2, 5, 0)
	require.NoError(t, err)
	level, err := e.TermInsurance(60, 2)
	require.NoError(t, err)
	assert.InDelta(t, 5*level, flat, 1e-12)

	// First 1, step 1 is the standard increasing insurance.
	graded, err := e.GradedTermInsurance(60, 3, 1, 1)
	require.NoError(t, err)
	incr, err := e.IncreasingTermInsurance(60, 3)
	require.NoError(t, err)
	assert.InDelta(t, incr, graded, 1e-12)

	// Decreasing cover n..1 plus increasing cover 1..n pays n+1 flat.
	decr, err := e.GradedTermInsurance(60, 3, 3, -1)
	require.NoError(t, err)
	full, err := e.TermInsurance(60, 3)
	require.NoError(t, err)
	assert.InDelta(t, 4*full, decr+incr, 1e-12)

	gwl, err := e.GradedWholeLifeInsurance(60, 2, 0.5)
	require.NoError(t, err)
	byTerm, err := e.GradedTermInsurance(60, 3, 2, 0.5)
	require.NoError(t, err)
	assert.InDelta(t, byTerm, gwl, 1e-15)
}

func TestClaimTimingMidYear(t *testing.T) {
	t.Parallel()
	e := demoEngine(t, Config{Timing: ClaimMidYear})

	got, err := e.TermInsurance(60, 1)
	require.NoError(t, err)
	assert.InDelta(t, 0.01*math.Pow(1.05, -0.5), got, 1e-12)

	// Mid-year payment accelerates the claim by half a year at a flat
	// rate: a factor of sqrt(1+i) on the end-of-year value.
	eoy := demoEngine(t, Config{})
	base, err := eoy.TermInsurance(60, 2)
	require.NoError(t, err)
	mid, err := e.TermInsurance(60, 2)
	require.NoError(t, err)
	assert.InDelta(t, base*math.Sqrt(1.05), mid, 1e-12)
}

func TestClaimTimingContinuous(t *testing.T) {
	t.Parallel()
	e := demoEngine(t, Config{Timing: ClaimContinuous})

	// Under uniform deaths at a flat rate, a one-year continuous claim is
	// worth q * (i/delta) * v.
	delta := math.Log(1.05)
	got, err := e.TermInsurance(60, 1)
	require.NoError(t, err)
	assert.InDelta(t, 0.01*(0.05/delta)*v05, got, 1e-12)

	// Continuous payment beats end of year, and the uniform-deaths
	// relation holds over the whole horizon too.
	eoy := demoEngine(t, Config{})
	base, err := eoy.WholeLifeInsurance(60)
	require.NoError(t, err)
	cont, err := e.WholeLifeInsurance(60)
	require.NoError(t, err)
	assert.Greater(t, cont, base)
	assert.InDelta(t, base*(0.05/delta), cont, 1e-12)
}

func TestInsuranceGrowth(t *testing.T) {
	t.Parallel()
	e := demoEngine(t, Config{Growth: 0.03})

	got, err := e.TermInsurance(60, 3)
	require.NoError(t, err)
	want := (1000*v05 + 1.03*1200*math.Pow(v05, 2) + 1.03*1.03*97800*math.Pow(v05, 3)) / 100000
	assert.InDelta(t, want, got, 1e-12)
}

func TestInsuranceOnTermStructure(t *testing.T) {
	t.Parallel()
	ts, err := interest.NewTermStructure([]interest.Pillar{
		{Tenor: 1, Rate: 0.03},
		{Tenor: 3, Rate: 0.05},
	}, interest.LinearLogDiscount)
	require.NoError(t, err)
	e, err := NewEngine(demoTable(t, lifetable.UniformDeaths), ts, Config{})
	require.NoError(t, err)

	df1, err := ts.DiscountFactor(1)
	require.NoError(t, err)
	df2, err := ts.DiscountFactor(2)
	require.NoError(t, err)

	got, err := e.TermInsurance(60, 2)
	require.NoError(t, err)
	assert.InDelta(t, (1000*df1+1200*df2)/100000, got, 1e-12)
}

func TestInsuranceOnSelectTable(t *testing.T) {
	t.Parallel()
	sel, err := lifetable.NewSelect(lifetable.SelectBuilder{
		Name:        "sel",
		MinIssueAge: 60,
		SelectQx:    [][]float64{{0.004}},
		Ultimate:    demoTable(t, lifetable.UniformDeaths),
	})
	require.NoError(t, err)
	model, err := interest.NewFlatRate(0.05)
	require.NoError(t, err)
	e, err := NewEngine(sel, model, Config{})
	require.NoError(t, err)

	// First-year claims follow the select rate, later years the ultimate
	// rate at the attained age.
	q61 := 1200.0 / 99000
	got, err := e.TermInsurance(60, 2)
	require.NoError(t, err)
	want := 0.004*v05 + (1-0.004)*q61*v05*v05
	assert.InDelta(t, want, got, 1e-12)
}
