package plot

import (
	"fmt"

	"github.com/parcr/lifeactuary/interest"
	"github.com/parcr/lifeactuary/lifetable"
	"github.com/parcr/lifeactuary/policy"
	"github.com/parcr/lifeactuary/utils"
)

// SurvivalCurve draws S(t) for a life aged x until the end of the table.
// Sampling at fractional durations shows the interpolation assumption
// between integer ages.
func SurvivalCurve(tab lifetable.Table, age float64, c Chart) ([]byte, error) {
	if tab == nil {
		return nil, fmt.Errorf("plot: nil table")
	}
	horizon := float64(tab.TerminalAge()) - age
	if horizon <= 0 {
		return nil, fmt.Errorf("plot: age %g at or beyond the terminal age %d: %w",
			age, tab.TerminalAge(), lifetable.ErrOutOfDomain)
	}

	ts := utils.Linspace(0, horizon, 4*int(horizon)+1)
	pts := make([]Point, 0, len(ts))
	for _, t := range ts {
		s, err := tab.Survival(age, t)
		if err != nil {
			return nil, err
		}
		pts = append(pts, Point{X: t, Y: s})
	}

	if c.Title == "" {
		c.Title = fmt.Sprintf("Survival from age %g (%s)", age, tab.Assumption())
	}
	if c.XLabel == "" {
		c.XLabel = "years"
	}
	if c.YLabel == "" {
		c.YLabel = "S(t)"
	}
	return Render(c, Line{Label: "survival", Points: pts})
}

// ReserveDevelopment draws the prospective and retrospective reserve paths
// over the policy durations.
func ReserveDevelopment(series []policy.Reserve, c Chart) ([]byte, error) {
	if len(series) == 0 {
		return nil, fmt.Errorf("plot: empty reserve series")
	}
	pro := make([]Point, len(series))
	retro := make([]Point, len(series))
	for i, r := range series {
		pro[i] = Point{X: float64(r.Duration), Y: r.Prospective}
		retro[i] = Point{X: float64(r.Duration), Y: r.Retrospective}
	}

	if c.Title == "" {
		c.Title = "Reserve development"
	}
	if c.XLabel == "" {
		c.XLabel = "duration"
	}
	if c.YLabel == "" {
		c.YLabel = "reserve"
	}
	return Render(c,
		Line{Label: "prospective", Points: pro},
		Line{Label: "retrospective", Points: retro},
	)
}

// YieldCurve draws the spot rate out to maxTenor years.
func YieldCurve(model interest.Model, maxTenor float64, c Chart) ([]byte, error) {
	if model == nil {
		return nil, fmt.Errorf("plot: nil rate model")
	}
	if maxTenor <= 0 {
		return nil, fmt.Errorf("plot: maximum tenor %g must be positive: %w",
			maxTenor, interest.ErrInvalidRateStructure)
	}

	ts := utils.Linspace(0, maxTenor, 121)
	pts := make([]Point, 0, len(ts))
	for _, t := range ts {
		r, err := model.SpotRate(t)
		if err != nil {
			return nil, err
		}
		pts = append(pts, Point{X: t, Y: r})
	}

	if c.Title == "" {
		c.Title = "Spot curve"
	}
	if c.XLabel == "" {
		c.XLabel = "tenor"
	}
	if c.YLabel == "" {
		c.YLabel = "rate"
	}
	return Render(c, Line{Label: "spot", Points: pts})
}
