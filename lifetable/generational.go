package lifetable

import "fmt"

// GenerationalTable applies a constant annual mortality improvement rate to
// a base table for a single birth cohort. The death probability at age x for
// a cohort born in birthYear is
//
//	q'(x) = q(x) * (1-improvement)^(birthYear+x-baseYear)
//
// where baseYear is the calendar year the base rates were graduated for.
// Rows that already close the table (q = 1) are left untouched.
type GenerationalTable struct {
	base        *LifeTable
	improvement float64
	baseYear    int
	birthYear   int
	derived     *LifeTable
}

var _ Table = (*GenerationalTable)(nil)

// NewGenerational projects base onto the cohort born in birthYear.
func NewGenerational(base *LifeTable, improvement float64, baseYear, birthYear int) (*GenerationalTable, error) {
	if base == nil {
		return nil, fmt.Errorf("lifetable.NewGenerational: base table is required: %w", ErrInvalidTable)
	}
	if improvement < 0 || improvement >= 1 {
		return nil, fmt.Errorf("lifetable.NewGenerational: improvement rate %g outside [0,1): %w", improvement, ErrInvalidTable)
	}

	adjusted := make([]float64, len(base.qx))
	for k, q := range base.qx {
		if q >= 1 {
			adjusted[k] = 1
			continue
		}
		age := base.minAge + k
		factor := powInt(1-improvement, birthYear+age-baseYear)
		adjusted[k] = min(q*factor, 1)
	}

	dt, err := New(Builder{
		Name:       fmt.Sprintf("%s/%d", base.name, birthYear),
		MinAge:     base.minAge,
		Qx:         adjusted,
		Radix:      base.radix,
		Assumption: base.assumption,
	})
	if err != nil {
		return nil, err
	}
	return &GenerationalTable{
		base:        base,
		improvement: improvement,
		baseYear:    baseYear,
		birthYear:   birthYear,
		derived:     dt,
	}, nil
}

// powInt raises b to an integer power without going through math.Pow for the
// common small exponents.
func powInt(b float64, n int) float64 {
	if n < 0 {
		return 1 / powInt(b, -n)
	}
	out := 1.0
	for ; n > 0; n >>= 1 {
		if n&1 == 1 {
			out *= b
		}
		b *= b
	}
	return out
}

// Survival returns the probability that a cohort life aged x survives t more
// years.
func (g *GenerationalTable) Survival(x, t float64) (float64, error) {
	return g.derived.Survival(x, t)
}

// MinAge returns the lowest queryable age.
func (g *GenerationalTable) MinAge() int { return g.derived.MinAge() }

// TerminalAge returns the cohort table's terminal age.
func (g *GenerationalTable) TerminalAge() int { return g.derived.TerminalAge() }

// Assumption reports the fractional-age interpolation in force.
func (g *GenerationalTable) Assumption() Assumption { return g.derived.Assumption() }

// Name returns the cohort table's label.
func (g *GenerationalTable) Name() string { return g.derived.Name() }

// BirthYear returns the cohort's year of birth.
func (g *GenerationalTable) BirthYear() int { return g.birthYear }

// Improvement returns the annual improvement rate applied to the base rates.
func (g *GenerationalTable) Improvement() float64 { return g.improvement }

// Base returns the unprojected table.
func (g *GenerationalTable) Base() *LifeTable { return g.base }

// Cohort returns the projected single-cohort column.
func (g *GenerationalTable) Cohort() *LifeTable { return g.derived }
