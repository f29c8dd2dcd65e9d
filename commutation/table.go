// Package commutation builds classical commutation columns (D, N, S, C, M,
// R) on a life table at a flat rate, and prices the standard insurance and
// annuity forms from them. The engine in package actuarial values the same
// contracts by direct summation; commutation is the closed-column route
// used by published tables, kept for reporting and cross-checking.
package commutation

import (
	"errors"
	"fmt"
	"math"

	"github.com/parcr/lifeactuary/lifetable"
)

// ErrInvalidRate is returned for rates at or below -100%.
var ErrInvalidRate = errors.New("invalid commutation rate")

// Table holds commutation columns for every age of an underlying life
// table. An optional capital growth rate g folds geometric benefit
// escalation into the discounting, and continuous claims accelerate the C
// column by half a year of interest.
type Table struct {
	lt     *lifetable.LifeTable
	rate   float64
	growth float64
	cont   bool

	minAge int
	d      []float64 // Dx
	n      []float64 // Nx
	s      []float64 // Sx
	c      []float64 // Cx
	m      []float64 // Mx
	r      []float64 // Rx
}

// New builds commutation columns at effective annual rate i with capital
// growth g. continuousClaims accelerates death benefits by (1+i)^(1/2),
// the moment-of-death approximation.
func New(lt *lifetable.LifeTable, i, g float64, continuousClaims bool) (*Table, error) {
	if lt == nil {
		return nil, fmt.Errorf("commutation.New: nil life table")
	}
	if math.IsNaN(i) || i <= -1 {
		return nil, fmt.Errorf("commutation.New: rate %g: %w", i, ErrInvalidRate)
	}
	if math.IsNaN(g) || g <= -1 {
		return nil, fmt.Errorf("commutation.New: growth %g: %w", g, ErrInvalidRate)
	}

	rows := lt.Rows()
	size := len(rows)
	t := &Table{
		lt:     lt,
		rate:   i,
		growth: g,
		cont:   continuousClaims,
		minAge: lt.MinAge(),
		d:      make([]float64, size),
		n:      make([]float64, size),
		s:      make([]float64, size),
		c:      make([]float64, size),
		m:      make([]float64, size),
		r:      make([]float64, size),
	}

	// Discount per year of age, with growth folded in.
	disc := (1 + g) / (1 + i)
	accel := 1.0
	if continuousClaims {
		accel = math.Sqrt(1 + i)
	}
	for k, row := range rows {
		age := float64(row.Age)
		t.d[k] = row.Lives * math.Pow(disc, age)
		t.c[k] = row.Deaths * math.Pow(disc, age+1) * accel
	}
	for k := size - 1; k >= 0; k-- {
		t.n[k] = t.d[k]
		t.m[k] = t.c[k]
		if k+1 < size {
			t.n[k] += t.n[k+1]
			t.m[k] += t.m[k+1]
		}
	}
	for k := size - 1; k >= 0; k-- {
		t.s[k] = t.n[k]
		t.r[k] = t.m[k]
		if k+1 < size {
			t.s[k] += t.s[k+1]
			t.r[k] += t.r[k+1]
		}
	}
	return t, nil
}

// Rate returns the effective annual rate the columns discount at.
func (t *Table) Rate() float64 { return t.rate }

// Growth returns the capital growth rate folded into the columns.
func (t *Table) Growth() float64 { return t.growth }

// ContinuousClaims reports whether the C column is accelerated to the
// moment of death.
func (t *Table) ContinuousClaims() bool { return t.cont }

// Row is one age's commutation values.
type Row struct {
	Age int
	D   float64
	N   float64
	S   float64
	C   float64
	M   float64
	R   float64
}

// At returns the commutation values for one age.
func (t *Table) At(age int) (Row, error) {
	if err := t.check(age); err != nil {
		return Row{}, err
	}
	k := age - t.minAge
	return Row{Age: age, D: t.d[k], N: t.n[k], S: t.s[k], C: t.c[k], M: t.m[k], R: t.r[k]}, nil
}

// Rows returns the full set of commutation columns by age.
func (t *Table) Rows() []Row {
	out := make([]Row, len(t.d))
	for k := range t.d {
		out[k] = Row{Age: t.minAge + k, D: t.d[k], N: t.n[k], S: t.s[k], C: t.c[k], M: t.m[k], R: t.r[k]}
	}
	return out
}

func (t *Table) check(age int) error {
	if age < t.minAge || age >= t.minAge+len(t.d) {
		return fmt.Errorf("commutation: age %d: %w", age, lifetable.ErrOutOfDomain)
	}
	return nil
}

func checkTerm(n int) error {
	if n < 0 {
		return fmt.Errorf("commutation: term %d: %w", n, lifetable.ErrInvalidTerm)
	}
	return nil
}

// dAt, nAt, mAt, rAt read a column at an age, returning 0 past the end.
func (t *Table) dAt(age int) float64 { return t.colAt(t.d, age) }
func (t *Table) nAt(age int) float64 { return t.colAt(t.n, age) }
func (t *Table) mAt(age int) float64 { return t.colAt(t.m, age) }
func (t *Table) rAt(age int) float64 { return t.colAt(t.r, age) }

func (t *Table) colAt(col []float64, age int) float64 {
	k := age - t.minAge
	if k >= len(col) {
		return 0
	}
	return col[k]
}

// mthlyAdjust is the classical frequency correction (m-1)/(2m).
func mthlyAdjust(m int) float64 {
	return float64(m-1) / (2 * float64(m))
}

// PureEndowment returns nEx, the value of 1 on survival for n years. The
// growth rate does not apply to a fixed unit, so it is divided back out.
func (t *Table) PureEndowment(x, n int) (float64, error) {
	if err := t.check(x); err != nil {
		return 0, err
	}
	if err := checkTerm(n); err != nil {
		return 0, err
	}
	return t.dAt(x+n) / t.dAt(x) / math.Pow(1+t.growth, float64(n)), nil
}

// WholeLife returns Ax, the value of a first-year unit paid at death, the
// benefit growing with g thereafter.
func (t *Table) WholeLife(x int) (float64, error) {
	if err := t.check(x); err != nil {
		return 0, err
	}
	return t.mAt(x) / t.dAt(x) / (1 + t.growth), nil
}

// Term returns the n-year term insurance value.
func (t *Table) Term(x, n int) (float64, error) {
	if err := t.check(x); err != nil {
		return 0, err
	}
	if err := checkTerm(n); err != nil {
		return 0, err
	}
	return (t.mAt(x) - t.mAt(x+n)) / t.dAt(x) / (1 + t.growth), nil
}

// Endowment returns the n-year endowment insurance value.
func (t *Table) Endowment(x, n int) (float64, error) {
	term, err := t.Term(x, n)
	if err != nil {
		return 0, err
	}
	pure, err := t.PureEndowment(x, n)
	if err != nil {
		return 0, err
	}
	return term + pure, nil
}

// DeferredWholeLife returns the whole life insurance deferred u years.
func (t *Table) DeferredWholeLife(x, u int) (float64, error) {
	if err := t.check(x); err != nil {
		return 0, err
	}
	if err := checkTerm(u); err != nil {
		return 0, err
	}
	return t.mAt(x+u) / t.dAt(x) / (1 + t.growth), nil
}

// IncreasingWholeLife returns (IA)x, death benefits of 1, 2, 3, ... by year
// of death.
func (t *Table) IncreasingWholeLife(x int) (float64, error) {
	if err := t.check(x); err != nil {
		return 0, err
	}
	return t.rAt(x) / t.dAt(x) / (1 + t.growth), nil
}

// IncreasingTerm returns (IA)¹x:n, death benefits 1..n over n years.
func (t *Table) IncreasingTerm(x, n int) (float64, error) {
	if err := t.check(x); err != nil {
		return 0, err
	}
	if err := checkTerm(n); err != nil {
		return 0, err
	}
	num := t.rAt(x) - t.rAt(x+n) - float64(n)*t.mAt(x+n)
	return num / t.dAt(x) / (1 + t.growth), nil
}

// GradedTerm returns the value of death benefits first+j*step in the j-th
// coverage year, assembled from the level and increasing columns.
func (t *Table) GradedTerm(x, n int, first, step float64) (float64, error) {
	level, err := t.Term(x, n)
	if err != nil {
		return 0, err
	}
	incr, err := t.IncreasingTerm(x, n)
	if err != nil {
		return 0, err
	}
	return (first-step)*level + step*incr, nil
}

// AnnuityDue returns äx^(m) by the classical frequency approximation.
func (t *Table) AnnuityDue(x, m int) (float64, error) {
	if err := t.check(x); err != nil {
		return 0, err
	}
	if err := checkFrequency(m); err != nil {
		return 0, err
	}
	return t.nAt(x)/t.dAt(x) - mthlyAdjust(m), nil
}

// AnnuityImmediate returns ax^(m) by the classical frequency approximation.
func (t *Table) AnnuityImmediate(x, m int) (float64, error) {
	if err := t.check(x); err != nil {
		return 0, err
	}
	if err := checkFrequency(m); err != nil {
		return 0, err
	}
	return t.nAt(x+1)/t.dAt(x) + mthlyAdjust(m), nil
}

// TemporaryAnnuityDue returns äx:n^(m); the frequency correction scales by
// the endowment factor.
func (t *Table) TemporaryAnnuityDue(x, n, m int) (float64, error) {
	if err := t.check(x); err != nil {
		return 0, err
	}
	if err := checkTerm(n); err != nil {
		return 0, err
	}
	if err := checkFrequency(m); err != nil {
		return 0, err
	}
	dx := t.dAt(x)
	return (t.nAt(x)-t.nAt(x+n))/dx - mthlyAdjust(m)*(1-t.dAt(x+n)/dx), nil
}

// TemporaryAnnuityImmediate returns ax:n^(m).
func (t *Table) TemporaryAnnuityImmediate(x, n, m int) (float64, error) {
	if err := t.check(x); err != nil {
		return 0, err
	}
	if err := checkTerm(n); err != nil {
		return 0, err
	}
	if err := checkFrequency(m); err != nil {
		return 0, err
	}
	dx := t.dAt(x)
	return (t.nAt(x+1)-t.nAt(x+n+1))/dx + mthlyAdjust(m)*(1-t.dAt(x+n)/dx), nil
}

// DeferredAnnuityDue returns the due annuity starting after u years.
func (t *Table) DeferredAnnuityDue(x, u, m int) (float64, error) {
	if err := t.check(x); err != nil {
		return 0, err
	}
	if err := checkTerm(u); err != nil {
		return 0, err
	}
	if err := checkFrequency(m); err != nil {
		return 0, err
	}
	dx := t.dAt(x)
	return t.nAt(x+u)/dx - mthlyAdjust(m)*t.dAt(x+u)/dx, nil
}

// DeferredTemporaryAnnuityDue returns the n-year due annuity deferred u
// years.
func (t *Table) DeferredTemporaryAnnuityDue(x, u, n, m int) (float64, error) {
	if err := t.check(x); err != nil {
		return 0, err
	}
	if err := checkTerm(u); err != nil {
		return 0, err
	}
	if err := checkTerm(n); err != nil {
		return 0, err
	}
	if err := checkFrequency(m); err != nil {
		return 0, err
	}
	dx := t.dAt(x)
	level := (t.nAt(x+u) - t.nAt(x+u+n)) / dx
	return level - mthlyAdjust(m)*(t.dAt(x+u)-t.dAt(x+u+n))/dx, nil
}

func checkFrequency(m int) error {
	if m < 1 {
		return fmt.Errorf("commutation: %d payments per year: %w", m, lifetable.ErrInvalidTerm)
	}
	return nil
}
