package lifetable

import (
	"fmt"
	"math"
)

// SelectTable is a select and ultimate mortality table: recently underwritten
// lives follow duration-dependent select rates for a fixed select period,
// then graduate onto an aggregate ultimate table at the attained age.
//
// For a SelectTable the Survival anchor is the issue age, and the duration
// is measured from issue.
type SelectTable struct {
	name         string
	selectPeriod int
	minIssue     int
	ultimate     *LifeTable
	derived      []*LifeTable // one merged column per issue age
}

var _ Table = (*SelectTable)(nil)

// SelectBuilder carries the inputs for NewSelect.
type SelectBuilder struct {
	Name string
	// MinIssueAge is the issue age of the first select row.
	MinIssueAge int
	// SelectQx[i][d] is the death probability at duration d (0-based) for a
	// life underwritten at age MinIssueAge+i. All rows must have the same
	// width, which fixes the select period.
	SelectQx [][]float64
	// Ultimate supplies rates from the end of the select period onwards.
	Ultimate *LifeTable
}

// NewSelect validates the builder and constructs a select and ultimate
// table. Each issue age is merged with the ultimate table so that survivor
// columns join the ultimate column exactly at the end of the select period.
func NewSelect(b SelectBuilder) (*SelectTable, error) {
	if b.Ultimate == nil {
		return nil, fmt.Errorf("lifetable.NewSelect: ultimate table is required: %w", ErrInvalidTable)
	}
	if len(b.SelectQx) == 0 {
		return nil, fmt.Errorf("lifetable.NewSelect: no select rows: %w", ErrInvalidTable)
	}
	period := len(b.SelectQx[0])
	if period < 1 {
		return nil, fmt.Errorf("lifetable.NewSelect: empty select row: %w", ErrInvalidTable)
	}

	st := &SelectTable{
		name:         b.Name,
		selectPeriod: period,
		minIssue:     b.MinIssueAge,
		ultimate:     b.Ultimate,
		derived:      make([]*LifeTable, len(b.SelectQx)),
	}
	ult := b.Ultimate
	for i, row := range b.SelectQx {
		issue := b.MinIssueAge + i
		if len(row) != period {
			return nil, fmt.Errorf("lifetable.NewSelect: select row for issue age %d has %d entries, want %d: %w",
				issue, len(row), period, ErrInvalidTable)
		}
		attained := issue + period
		if attained < ult.MinAge() || attained >= ult.TerminalAge() {
			return nil, fmt.Errorf("lifetable.NewSelect: issue age %d graduates at age %d, outside ultimate table [%d,%d): %w",
				issue, attained, ult.MinAge(), ult.TerminalAge(), ErrInvalidTable)
		}

		// Anchor the select column so it meets the ultimate survivor count
		// at the end of the select period.
		radix := ult.lives(float64(attained))
		merged := make([]float64, 0, period+ult.TerminalAge()-attained)
		for d, q := range row {
			if q < 0 || q >= 1 {
				return nil, fmt.Errorf("lifetable.NewSelect: select q for issue age %d duration %d is %g, outside [0,1): %w",
					issue, d, q, ErrInvalidTable)
			}
			radix /= 1 - q
			merged = append(merged, q)
		}
		merged = append(merged, ult.qx[attained-ult.minAge:]...)

		dt, err := New(Builder{
			Name:       fmt.Sprintf("%s[%d]", b.Name, issue),
			MinAge:     issue,
			Qx:         merged,
			Radix:      radix,
			Assumption: ult.Assumption(),
		})
		if err != nil {
			return nil, err
		}
		st.derived[i] = dt
	}
	return st, nil
}

// rowFor maps an issue age onto its merged column. Select rates are
// tabulated by integer issue age only.
func (s *SelectTable) rowFor(x float64) (*LifeTable, error) {
	ix := int(x)
	if math.IsNaN(x) || float64(ix) != x {
		return nil, fmt.Errorf("lifetable %q: issue age %g is not an integer: %w", s.name, x, ErrOutOfDomain)
	}
	if ix < s.minIssue || ix >= s.minIssue+len(s.derived) {
		return nil, fmt.Errorf("lifetable %q: issue age %d outside [%d,%d]: %w",
			s.name, ix, s.minIssue, s.minIssue+len(s.derived)-1, ErrOutOfDomain)
	}
	return s.derived[ix-s.minIssue], nil
}

// Survival returns the probability that a life underwritten at issue age x
// survives t more years from issue.
func (s *SelectTable) Survival(x, t float64) (float64, error) {
	dt, err := s.rowFor(x)
	if err != nil {
		return 0, err
	}
	return dt.Survival(x, t)
}

// MinAge returns the lowest issue age.
func (s *SelectTable) MinAge() int { return s.minIssue }

// MaxIssueAge returns the highest issue age with a select row.
func (s *SelectTable) MaxIssueAge() int { return s.minIssue + len(s.derived) - 1 }

// TerminalAge returns the ultimate table's terminal age.
func (s *SelectTable) TerminalAge() int { return s.ultimate.TerminalAge() }

// Assumption reports the fractional-age interpolation in force.
func (s *SelectTable) Assumption() Assumption { return s.ultimate.Assumption() }

// Name returns the table's label.
func (s *SelectTable) Name() string { return s.name }

// SelectPeriod returns the number of select years.
func (s *SelectTable) SelectPeriod() int { return s.selectPeriod }

// Ultimate returns the aggregate table in force after the select period.
func (s *SelectTable) Ultimate() *LifeTable { return s.ultimate }

// ForIssueAge returns the merged single-life column for one issue age. The
// column carries select rates for the select period and ultimate rates
// beyond, anchored to the ultimate survivor counts.
func (s *SelectTable) ForIssueAge(issue int) (*LifeTable, error) {
	return s.rowFor(float64(issue))
}
