// Package scenario runs valuation batches described in YAML: a mortality
// basis, a rate basis, and a set of policies to price and reserve.
package scenario

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/parcr/lifeactuary/actuarial"
	"github.com/parcr/lifeactuary/interest"
	"github.com/parcr/lifeactuary/lifetable"
	"github.com/parcr/lifeactuary/policy"
)

// Scenario is one YAML document.
type Scenario struct {
	Name         string        `yaml:"name"`
	Table        TableSpec     `yaml:"table"`
	Select       *SelectSpec   `yaml:"select,omitempty"`
	Generational *CohortSpec   `yaml:"generational,omitempty"`
	Rates        RateSpec      `yaml:"rates"`
	Valuation    ValuationSpec `yaml:"valuation,omitempty"`
	Policies     []PolicySpec  `yaml:"policies"`
}

// TableSpec builds the ultimate mortality table. Exactly one of qx, px or
// lx must be present.
type TableSpec struct {
	Name       string    `yaml:"name"`
	MinAge     int       `yaml:"min_age"`
	Qx         []float64 `yaml:"qx,omitempty"`
	Px         []float64 `yaml:"px,omitempty"`
	Lx         []float64 `yaml:"lx,omitempty"`
	Radix      float64   `yaml:"radix,omitempty"`
	QxPercent  float64   `yaml:"qx_percent,omitempty"`
	Assumption string    `yaml:"assumption,omitempty"`
}

// SelectSpec layers select rates over the ultimate table.
type SelectSpec struct {
	MinIssueAge int         `yaml:"min_issue_age"`
	Qx          [][]float64 `yaml:"qx"`
}

// CohortSpec applies a generational improvement factor to the table.
type CohortSpec struct {
	Improvement float64 `yaml:"improvement"`
	BaseYear    int     `yaml:"base_year"`
	BirthYear   int     `yaml:"birth_year"`
}

// RateSpec builds the interest rate model: a flat rate or a pillar curve.
type RateSpec struct {
	Flat          *float64     `yaml:"flat,omitempty"`
	Pillars       []PillarSpec `yaml:"pillars,omitempty"`
	Interpolation string       `yaml:"interpolation,omitempty"`
}

// PillarSpec is one tenor/rate point of a term structure.
type PillarSpec struct {
	Tenor float64 `yaml:"tenor"`
	Rate  float64 `yaml:"rate"`
}

// ValuationSpec maps onto the engine configuration.
type ValuationSpec struct {
	PaymentsPerYear int     `yaml:"payments_per_year,omitempty"`
	Timing          string  `yaml:"timing,omitempty"`
	Growth          float64 `yaml:"growth,omitempty"`
}

// PolicySpec is one contract to value.
type PolicySpec struct {
	Label       string  `yaml:"label,omitempty"`
	Kind        string  `yaml:"kind"`
	IssueAge    float64 `yaml:"issue_age"`
	Term        int     `yaml:"term,omitempty"`
	Benefit     float64 `yaml:"benefit"`
	PremiumTerm int     `yaml:"premium_term,omitempty"`
	Frequency   int     `yaml:"frequency,omitempty"`
	// Reserves asks for the full duration-by-duration reserve series.
	Reserves bool `yaml:"reserves,omitempty"`
}

// Parse decodes a YAML scenario and checks it is runnable.
func Parse(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("scenario: parse: %w", err)
	}
	if s.Name == "" {
		return nil, fmt.Errorf("scenario: name is required")
	}
	if len(s.Policies) == 0 {
		return nil, fmt.Errorf("scenario %q: no policies", s.Name)
	}
	if s.Rates.Flat == nil && len(s.Rates.Pillars) == 0 {
		return nil, fmt.Errorf("scenario %q: rates need flat or pillars", s.Name)
	}
	if s.Rates.Flat != nil && len(s.Rates.Pillars) > 0 {
		return nil, fmt.Errorf("scenario %q: rates take flat or pillars, not both", s.Name)
	}
	if s.Select != nil && s.Generational != nil {
		return nil, fmt.Errorf("scenario %q: select and generational layers cannot combine", s.Name)
	}
	return &s, nil
}

// Load reads and parses a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scenario: read %s: %w", path, err)
	}
	return Parse(data)
}

// BuildTable constructs the mortality basis, applying any select or
// generational layer.
func (s *Scenario) BuildTable() (lifetable.Table, error) {
	assumption := lifetable.UniformDeaths
	if s.Table.Assumption != "" {
		var err error
		assumption, err = lifetable.ParseAssumption(s.Table.Assumption)
		if err != nil {
			return nil, fmt.Errorf("scenario %q: %w", s.Name, err)
		}
	}
	base, err := lifetable.New(lifetable.Builder{
		Name:       s.Table.Name,
		MinAge:     s.Table.MinAge,
		Qx:         s.Table.Qx,
		Px:         s.Table.Px,
		Lx:         s.Table.Lx,
		Radix:      s.Table.Radix,
		QxPercent:  s.Table.QxPercent,
		Assumption: assumption,
	})
	if err != nil {
		return nil, fmt.Errorf("scenario %q: table: %w", s.Name, err)
	}

	switch {
	case s.Select != nil:
		sel, err := lifetable.NewSelect(lifetable.SelectBuilder{
			Name:        s.Table.Name,
			MinIssueAge: s.Select.MinIssueAge,
			SelectQx:    s.Select.Qx,
			Ultimate:    base,
		})
		if err != nil {
			return nil, fmt.Errorf("scenario %q: select: %w", s.Name, err)
		}
		return sel, nil
	case s.Generational != nil:
		gen, err := lifetable.NewGenerational(base,
			s.Generational.Improvement, s.Generational.BaseYear, s.Generational.BirthYear)
		if err != nil {
			return nil, fmt.Errorf("scenario %q: generational: %w", s.Name, err)
		}
		return gen, nil
	default:
		return base, nil
	}
}

// BuildModel constructs the rate basis.
func (s *Scenario) BuildModel() (interest.Model, error) {
	if s.Rates.Flat != nil {
		model, err := interest.NewFlatRate(*s.Rates.Flat)
		if err != nil {
			return nil, fmt.Errorf("scenario %q: rates: %w", s.Name, err)
		}
		return model, nil
	}

	interp, err := interest.ParseInterpolation(s.Rates.Interpolation)
	if err != nil {
		return nil, fmt.Errorf("scenario %q: rates: %w", s.Name, err)
	}
	pillars := make([]interest.Pillar, len(s.Rates.Pillars))
	for i, p := range s.Rates.Pillars {
		pillars[i] = interest.Pillar{Tenor: p.Tenor, Rate: p.Rate}
	}
	model, err := interest.NewTermStructure(pillars, interp)
	if err != nil {
		return nil, fmt.Errorf("scenario %q: rates: %w", s.Name, err)
	}
	return model, nil
}

// BuildCalculator assembles the full pricing stack.
func (s *Scenario) BuildCalculator() (*policy.Calculator, error) {
	tab, err := s.BuildTable()
	if err != nil {
		return nil, err
	}
	model, err := s.BuildModel()
	if err != nil {
		return nil, err
	}
	timing, err := actuarial.ParseClaimTiming(s.Valuation.Timing)
	if err != nil {
		return nil, fmt.Errorf("scenario %q: valuation: %w", s.Name, err)
	}
	eng, err := actuarial.NewEngine(tab, model, actuarial.Config{
		PaymentsPerYear: s.Valuation.PaymentsPerYear,
		Timing:          timing,
		Growth:          s.Valuation.Growth,
	})
	if err != nil {
		return nil, fmt.Errorf("scenario %q: engine: %w", s.Name, err)
	}
	return policy.NewCalculator(eng)
}

// Policy converts one policy spec.
func (p PolicySpec) Policy() (policy.Policy, error) {
	kind, err := policy.ParseKind(p.Kind)
	if err != nil {
		return policy.Policy{}, err
	}
	return policy.Policy{
		Kind:             kind,
		IssueAge:         p.IssueAge,
		Term:             p.Term,
		Benefit:          p.Benefit,
		PremiumTerm:      p.PremiumTerm,
		PremiumFrequency: p.Frequency,
	}, nil
}

// DisplayName labels the policy in results.
func (p PolicySpec) DisplayName() string {
	if p.Label != "" {
		return p.Label
	}
	return fmt.Sprintf("%s@%g", p.Kind, p.IssueAge)
}
