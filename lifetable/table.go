// Package lifetable implements mortality tables: survival and death
// probability queries at arbitrary (possibly fractional) ages, life
// expectancies, and select/ultimate and generational table structures.
//
// Tables are immutable once constructed and safe for concurrent readers.
package lifetable

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrOutOfDomain is returned when a queried age falls outside the
	// table's coverage (below the minimum age, or at/after the terminal age).
	ErrOutOfDomain = errors.New("age outside table domain")
	// ErrInvalidTerm is returned for negative terms or deferment periods.
	ErrInvalidTerm = errors.New("invalid term")
	// ErrInvalidTable is returned when construction inputs violate a table
	// invariant (non-monotonic survivors, probabilities outside [0,1], ...).
	ErrInvalidTable = errors.New("invalid table data")
)

// Assumption selects how survivorship is interpolated between integer ages.
type Assumption int

const (
	// UniformDeaths distributes deaths uniformly over the year of age
	// (linear interpolation of l).
	UniformDeaths Assumption = iota
	// ConstantForce assumes a constant force of mortality over the year of
	// age (exponential interpolation of l).
	ConstantForce
	// Balducci assumes the hyperbolic (harmonic) form of l over the year of
	// age.
	Balducci
)

func (a Assumption) String() string {
	switch a {
	case UniformDeaths:
		return "UDD"
	case ConstantForce:
		return "CFM"
	case Balducci:
		return "BAL"
	default:
		return fmt.Sprintf("Assumption(%d)", int(a))
	}
}

// ParseAssumption converts the short mnemonic ("udd", "cfm", "bal") used by
// table metadata and CLI flags into an Assumption.
func ParseAssumption(s string) (Assumption, error) {
	switch s {
	case "udd", "UDD":
		return UniformDeaths, nil
	case "cfm", "CFM":
		return ConstantForce, nil
	case "bal", "BAL":
		return Balducci, nil
	default:
		return 0, fmt.Errorf("ParseAssumption: unknown assumption %q", s)
	}
}

// Table is the capability every mortality representation provides: survival
// probabilities from an anchor age x over a duration t. For aggregate tables
// x is the attained age; for select tables x is the issue age and t the
// duration since issue.
//
// Implementations are immutable and safe for concurrent use.
type Table interface {
	// Survival returns the probability that a life aged x survives t more
	// years. t beyond the remaining horizon returns exactly 0; x outside the
	// table domain fails with ErrOutOfDomain; negative t fails with
	// ErrInvalidTerm.
	Survival(x, t float64) (float64, error)
	// MinAge is the lowest queryable age.
	MinAge() int
	// TerminalAge is the first age with no remaining survivors (omega).
	// Queries at or beyond it are out of domain.
	TerminalAge() int
	// Assumption reports the fractional-age interpolation in force.
	Assumption() Assumption
}

// LifeTable is an aggregate (attained-age) mortality table backed by a dense
// column of expected survivors l from MinAge to TerminalAge.
type LifeTable struct {
	name       string
	minAge     int
	radix      float64
	assumption Assumption

	// lx[k] is the expected number of survivors at age minAge+k.
	// The column always closes: lx[len(lx)-1] == 0.
	lx []float64
	qx []float64 // qx[k] = probability of death within a year at age minAge+k
	px []float64
	dx []float64 // expected deaths between ages minAge+k and minAge+k+1
}

var _ Table = (*LifeTable)(nil)

// Builder carries the inputs for New. Exactly one of Qx, Px, or Lx must be
// set; the remaining columns are derived.
type Builder struct {
	// Name labels the table in diagnostics and error messages.
	Name string
	// MinAge is the age of the first entry.
	MinAge int

	// Qx are one-year death probabilities.
	Qx []float64
	// Px are one-year survival probabilities.
	Px []float64
	// Lx are survivor counts; a trailing zero entry is optional.
	Lx []float64

	// Radix is the starting cohort size. Defaults to 100000.
	Radix float64
	// QxPercent scales every death probability, e.g. 50 means half mortality.
	// Defaults to 100.
	QxPercent float64
	// Assumption selects the fractional-age interpolation. Defaults to
	// UniformDeaths.
	Assumption Assumption
}

// New validates the builder and constructs an immutable life table.
//
// The table is always closed: if the derived final death probability is
// below 1, a final year with q=1 is appended so that the survivor column
// reaches zero at the terminal age.
func New(b Builder) (*LifeTable, error) {
	if b.MinAge < 0 {
		return nil, fmt.Errorf("lifetable.New: min age %d is negative: %w", b.MinAge, ErrInvalidTable)
	}
	if b.Radix == 0 {
		b.Radix = 100000
	}
	if b.Radix < 0 {
		return nil, fmt.Errorf("lifetable.New: radix %g is negative: %w", b.Radix, ErrInvalidTable)
	}
	if b.QxPercent == 0 {
		b.QxPercent = 100
	}
	if b.QxPercent < 0 {
		return nil, fmt.Errorf("lifetable.New: qx percentage %g is negative: %w", b.QxPercent, ErrInvalidTable)
	}

	qx, err := deriveQx(b)
	if err != nil {
		return nil, err
	}

	scale := b.QxPercent / 100
	for i, q := range qx {
		q *= scale
		if q < 0 || q > 1 {
			return nil, fmt.Errorf("lifetable.New: q at age %d is %g, outside [0,1]: %w", b.MinAge+i, q, ErrInvalidTable)
		}
		qx[i] = q
	}

	// Close the table: the final year must absorb all remaining lives. Any
	// year whose death probability already reaches 1 becomes the last one.
	const closeTol = 1e-10
	closed := false
	for i, q := range qx {
		if q >= 1-closeTol {
			qx = qx[:i+1]
			qx[i] = 1
			closed = true
			break
		}
	}
	if !closed {
		qx = append(qx, 1)
	}

	t := &LifeTable{
		name:       b.Name,
		minAge:     b.MinAge,
		radix:      b.Radix,
		assumption: b.Assumption,
		qx:         qx,
		px:         make([]float64, len(qx)),
		lx:         make([]float64, len(qx)+1),
		dx:         make([]float64, len(qx)),
	}
	t.lx[0] = b.Radix
	for k, q := range qx {
		t.px[k] = 1 - q
		t.lx[k+1] = t.lx[k] * t.px[k]
		t.dx[k] = t.lx[k] * q
	}

	if t.lx[0] <= 0 {
		return nil, fmt.Errorf("lifetable.New: no survivors at min age %d: %w", b.MinAge, ErrInvalidTable)
	}
	return t, nil
}

func deriveQx(b Builder) ([]float64, error) {
	set := 0
	if len(b.Qx) > 0 {
		set++
	}
	if len(b.Px) > 0 {
		set++
	}
	if len(b.Lx) > 0 {
		set++
	}
	if set != 1 {
		return nil, fmt.Errorf("lifetable.New: exactly one of Qx, Px, Lx must be provided: %w", ErrInvalidTable)
	}

	switch {
	case len(b.Qx) > 0:
		out := make([]float64, len(b.Qx))
		copy(out, b.Qx)
		return out, nil
	case len(b.Px) > 0:
		out := make([]float64, len(b.Px))
		for i, p := range b.Px {
			if p < 0 || p > 1 {
				return nil, fmt.Errorf("lifetable.New: p at age %d is %g, outside [0,1]: %w", b.MinAge+i, p, ErrInvalidTable)
			}
			out[i] = 1 - p
		}
		return out, nil
	default:
		lx := b.Lx
		if len(lx) < 2 {
			return nil, fmt.Errorf("lifetable.New: survivor column needs at least two entries: %w", ErrInvalidTable)
		}
		if lx[len(lx)-1] > 0 {
			lx = append(append([]float64(nil), lx...), 0)
		}
		out := make([]float64, len(lx)-1)
		for i := 0; i < len(lx)-1; i++ {
			if lx[i] <= 0 {
				return nil, fmt.Errorf("lifetable.New: survivors at age %d are %g, not positive: %w", b.MinAge+i, lx[i], ErrInvalidTable)
			}
			if lx[i+1] > lx[i] {
				return nil, fmt.Errorf("lifetable.New: survivors increase from age %d to %d: %w", b.MinAge+i, b.MinAge+i+1, ErrInvalidTable)
			}
			out[i] = (lx[i] - lx[i+1]) / lx[i]
		}
		return out, nil
	}
}

// Name returns the table's label.
func (t *LifeTable) Name() string { return t.name }

// MinAge returns the lowest queryable age.
func (t *LifeTable) MinAge() int { return t.minAge }

// TerminalAge returns omega, the first age with zero survivors.
func (t *LifeTable) TerminalAge() int { return t.minAge + len(t.qx) }

// Radix returns the starting cohort size.
func (t *LifeTable) Radix() float64 { return t.radix }

// Assumption reports the fractional-age interpolation in force.
func (t *LifeTable) Assumption() Assumption { return t.assumption }

// Row is one line of the tabular life-table dump.
type Row struct {
	Age           int
	Lives         float64 // l at the start of the year of age
	Deaths        float64 // expected deaths during the year
	MortalityRate float64 // q
	SurvivalRate  float64 // p
	Expectation   float64 // complete life expectancy, curtate + 1/2
}

// Rows returns the full table as display rows, one per year of age from
// MinAge to TerminalAge-1.
func (t *LifeTable) Rows() []Row {
	rows := make([]Row, len(t.qx))

	// Running suffix sum of l gives every curtate expectation in one pass.
	suffix := 0.0
	for k := len(t.qx) - 1; k >= 0; k-- {
		curtate := 0.0
		if t.lx[k] > 0 {
			curtate = suffix / t.lx[k]
		}
		rows[k] = Row{
			Age:           t.minAge + k,
			Lives:         t.lx[k],
			Deaths:        t.dx[k],
			MortalityRate: t.qx[k],
			SurvivalRate:  t.px[k],
			Expectation:   curtate + 0.5,
		}
		suffix += t.lx[k+1]
	}
	return rows
}

// Lookup returns the display row for a single integer age.
func (t *LifeTable) Lookup(age int) (Row, error) {
	if age < t.minAge || age >= t.TerminalAge() {
		return Row{}, fmt.Errorf("lifetable: lookup age %d: %w", age, ErrOutOfDomain)
	}
	k := age - t.minAge
	suffix := 0.0
	for j := k + 1; j < len(t.lx); j++ {
		suffix += t.lx[j]
	}
	return Row{
		Age:           age,
		Lives:         t.lx[k],
		Deaths:        t.dx[k],
		MortalityRate: t.qx[k],
		SurvivalRate:  t.px[k],
		Expectation:   suffix/t.lx[k] + 0.5,
	}, nil
}

// checkAnchor validates the anchor age of a query.
func (t *LifeTable) checkAnchor(x float64) error {
	if math.IsNaN(x) {
		return fmt.Errorf("lifetable %q: age NaN: %w", t.name, ErrOutOfDomain)
	}
	if x < float64(t.minAge) {
		return fmt.Errorf("lifetable %q: age %g below minimum %d: %w", t.name, x, t.minAge, ErrOutOfDomain)
	}
	if x >= float64(t.TerminalAge()) {
		return fmt.Errorf("lifetable %q: age %g at or beyond terminal age %d: %w", t.name, x, t.TerminalAge(), ErrOutOfDomain)
	}
	return nil
}
