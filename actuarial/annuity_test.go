package actuarial

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parcr/lifeactuary/interest"
	"github.com/parcr/lifeactuary/lifetable"
)

func TestAnnualAnnuities(t *testing.T) {
	t.Parallel()
	e := demoEngine(t, Config{})

	due, err := e.TemporaryAnnuityDue(60, 3)
	require.NoError(t, err)
	wantDue := 1 + 0.99*v05 + 0.978*v05*v05
	assert.InDelta(t, wantDue, due, 1e-12)

	imm, err := e.TemporaryAnnuityImmediate(60, 3)
	require.NoError(t, err)
	wantImm := 0.99*v05 + 0.978*v05*v05 // the payment at t=3 never survives
	assert.InDelta(t, wantImm, imm, 1e-12)

	// Whole life equals the full-horizon temporary values here.
	wlDue, err := e.WholeLifeAnnuityDue(60)
	require.NoError(t, err)
	assert.InDelta(t, wantDue, wlDue, 1e-12)
	wlImm, err := e.WholeLifeAnnuityImmediate(60)
	require.NoError(t, err)
	assert.InDelta(t, wantImm, wlImm, 1e-12)

	// Due and immediate differ by the certain first payment.
	assert.InDelta(t, 1, wlDue-wlImm, 1e-12)
}

func TestMonthlyAnnuityDue(t *testing.T) {
	t.Parallel()
	e := demoEngine(t, Config{PaymentsPerYear: 12})

	// Under uniform deaths survival is linear within the year, so the
	// grid values are fully determined by the survivor counts.
	want := 0.0
	for j := 0; j < 12; j++ {
		tj := float64(j) / 12
		s := 1 - 0.01*tj
		want += s * math.Pow(v05, tj) / 12
	}
	got, err := e.TemporaryAnnuityDue(60, 1)
	require.NoError(t, err)
	assert.InDelta(t, want, got, 1e-12)

	// More frequent payment lowers a due annuity and raises an immediate.
	annual := demoEngine(t, Config{})
	aDue, err := annual.TemporaryAnnuityDue(60, 2)
	require.NoError(t, err)
	mDue, err := e.TemporaryAnnuityDue(60, 2)
	require.NoError(t, err)
	assert.Less(t, mDue, aDue)

	aImm, err := annual.TemporaryAnnuityImmediate(60, 2)
	require.NoError(t, err)
	mImm, err := e.TemporaryAnnuityImmediate(60, 2)
	require.NoError(t, err)
	assert.Greater(t, mImm, aImm)

	// And the two m-thly flavours differ by (1 - survival-discounted tail)/m.
	mImm2, err := e.TemporaryAnnuityImmediate(60, 1)
	require.NoError(t, err)
	mDue2, err := e.TemporaryAnnuityDue(60, 1)
	require.NoError(t, err)
	s1 := 0.99 * v05
	assert.InDelta(t, (1-s1)/12, mDue2-mImm2, 1e-12)
}

func TestDeferredAnnuities(t *testing.T) {
	t.Parallel()
	e := demoEngine(t, Config{})

	got, err := e.DeferredAnnuityDue(60, 2)
	require.NoError(t, err)
	assert.InDelta(t, 0.978*v05*v05, got, 1e-12)

	// Deferment splits a due annuity exactly.
	head, err := e.TemporaryAnnuityDue(60, 2)
	require.NoError(t, err)
	tail, err := e.DeferredTemporaryAnnuityDue(60, 2, 1)
	require.NoError(t, err)
	full, err := e.TemporaryAnnuityDue(60, 3)
	require.NoError(t, err)
	assert.InDelta(t, full, head+tail, 1e-12)

	_, err = e.DeferredAnnuityDue(60, 3)
	require.ErrorIs(t, err, lifetable.ErrInvalidTerm)
	_, err = e.DeferredTemporaryAnnuityDue(60, -1, 1)
	require.ErrorIs(t, err, lifetable.ErrInvalidTerm)
	_, err = e.DeferredTemporaryAnnuityImmediate(60, 1, -2)
	require.ErrorIs(t, err, lifetable.ErrInvalidTerm)
}

func TestIncreasingAnnuities(t *testing.T) {
	t.Parallel()
	e := demoEngine(t, Config{})

	due, err := e.IncreasingAnnuityDue(60, 3)
	require.NoError(t, err)
	wantDue := 1 + 2*0.99*v05 + 3*0.978*v05*v05
	assert.InDelta(t, wantDue, due, 1e-12)

	imm, err := e.IncreasingAnnuityImmediate(60, 3)
	require.NoError(t, err)
	wantImm := 1*0.99*v05 + 2*0.978*v05*v05
	assert.InDelta(t, wantImm, imm, 1e-12)
}

func TestAnnuityGrowth(t *testing.T) {
	t.Parallel()
	e := demoEngine(t, Config{Growth: 0.02})

	due, err := e.TemporaryAnnuityDue(60, 3)
	require.NoError(t, err)
	want := 1 + 1.02*0.99*v05 + 1.02*1.02*0.978*v05*v05
	assert.InDelta(t, want, due, 1e-12)

	// Monthly payments escalate on anniversaries of the first payment.
	m, err := e.WithConfig(Config{PaymentsPerYear: 2, Growth: 0.02})
	require.NoError(t, err)
	got, err := m.TemporaryAnnuityDue(60, 2)
	require.NoError(t, err)
	wantM := 0.0
	for j := 0; j < 4; j++ {
		tj := float64(j) / 2
		var s float64
		if tj < 1 {
			s = 1 - 0.01*tj
		} else {
			s = 0.99 - (0.99-0.978)*(tj-1)
		}
		wantM += math.Pow(1.02, math.Floor(tj)) * s * math.Pow(v05, tj) / 2
	}
	assert.InDelta(t, wantM, got, 1e-12)
}

func TestContinuousAnnuities(t *testing.T) {
	t.Parallel()
	e := demoEngine(t, Config{})

	// One year continuous under uniform deaths: the closed form pieces.
	delta := math.Log(1.05)
	a1 := -math.Expm1(-delta) / delta
	b1 := (1 - (1+delta)*math.Exp(-delta)) / (delta * delta)
	got, err := e.ContinuousTemporaryAnnuity(60, 1)
	require.NoError(t, err)
	assert.InDelta(t, a1-0.01*b1, got, 1e-12)

	// Continuous sits between the due and immediate annual values and is
	// approximated by a fine payment grid.
	cont, err := e.ContinuousWholeLifeAnnuity(60)
	require.NoError(t, err)
	due, err := e.WholeLifeAnnuityDue(60)
	require.NoError(t, err)
	imm, err := e.WholeLifeAnnuityImmediate(60)
	require.NoError(t, err)
	assert.Greater(t, cont, imm)
	assert.Less(t, cont, due)

	fine, err := e.WithConfig(Config{PaymentsPerYear: 365})
	require.NoError(t, err)
	grid, err := fine.WholeLifeAnnuityDue(60)
	require.NoError(t, err)
	assert.InDelta(t, grid, cont, 1e-2)
}

func TestAnnuityOnConstantForceTable(t *testing.T) {
	t.Parallel()
	model, err := interest.NewFlatRate(0.05)
	require.NoError(t, err)
	e, err := NewEngine(demoTable(t, lifetable.ConstantForce), model, Config{PaymentsPerYear: 4})
	require.NoError(t, err)

	// Quarterly survival follows the exponential within-year form.
	want := 0.0
	for j := 0; j < 8; j++ {
		tj := float64(j) / 4
		var s float64
		if tj < 1 {
			s = math.Pow(0.99, tj)
		} else {
			s = 0.99 * math.Pow(0.978/0.99, tj-1)
		}
		want += s * math.Pow(v05, tj) / 4
	}
	got, err := e.TemporaryAnnuityDue(60, 2)
	require.NoError(t, err)
	assert.InDelta(t, want, got, 1e-12)
}
