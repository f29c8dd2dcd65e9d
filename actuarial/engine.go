// Package actuarial computes expected present values of life-contingent
// cash flows: insurances and annuities on a mortality table discounted by a
// rate model, without commutation columns. Every value is a direct sum of
// probability-weighted discounted payments, so any Table and Model pairing
// works, including term structures.
package actuarial

import (
	"errors"
	"fmt"
	"math"

	"github.com/parcr/lifeactuary/interest"
	"github.com/parcr/lifeactuary/lifetable"
)

var (
	// ErrNilTable is returned when an engine is built without a mortality
	// table.
	ErrNilTable = errors.New("nil mortality table")
	// ErrNilModel is returned when an engine is built without a rate model.
	ErrNilModel = errors.New("nil rate model")
	// ErrInconsistent is returned when an internal cross-check fails, such
	// as the endowment identity probe at engine construction.
	ErrInconsistent = errors.New("internal consistency check failed")
)

// ClaimTiming fixes when within the year of death an insurance benefit is
// paid.
type ClaimTiming int

const (
	// ClaimEndOfYear pays at the end of the year of death.
	ClaimEndOfYear ClaimTiming = iota
	// ClaimMidYear pays halfway through the year of death, the usual
	// approximation for payment at the moment of death.
	ClaimMidYear
	// ClaimContinuous pays at the exact moment of death, integrating the
	// within-year death density under the table's assumption.
	ClaimContinuous
)

func (c ClaimTiming) String() string {
	switch c {
	case ClaimEndOfYear:
		return "end-of-year"
	case ClaimMidYear:
		return "mid-year"
	case ClaimContinuous:
		return "continuous"
	default:
		return fmt.Sprintf("ClaimTiming(%d)", int(c))
	}
}

// ParseClaimTiming converts the mnemonic used by configuration and CLI
// flags into a ClaimTiming.
func ParseClaimTiming(s string) (ClaimTiming, error) {
	switch s {
	case "eoy", "end-of-year", "":
		return ClaimEndOfYear, nil
	case "midyear", "mid-year":
		return ClaimMidYear, nil
	case "continuous":
		return ClaimContinuous, nil
	default:
		return 0, fmt.Errorf("ParseClaimTiming: unknown timing %q", s)
	}
}

// Config fixes the payment conventions an engine prices under.
type Config struct {
	// PaymentsPerYear is the annuity payment frequency m. 0 means annual.
	PaymentsPerYear int
	// Timing is the insurance benefit timing. Defaults to end of year.
	Timing ClaimTiming
	// Growth escalates annuity payments and death benefits geometrically by
	// (1+Growth) on each anniversary of the first payment. 0 means level.
	Growth float64
}

// Engine prices life-contingent cash flows for anchors on a single
// mortality table under a single rate model. Engines are immutable and safe
// for concurrent use.
type Engine struct {
	tab   lifetable.Table
	model interest.Model
	cfg   Config
}

// identityTolerance bounds the construction-time endowment identity
// residual. The identity holds algebraically, so the residual measures only
// accumulated rounding.
const identityTolerance = 1e-9

func normalizeConfig(cfg Config) (Config, error) {
	if cfg.PaymentsPerYear == 0 {
		cfg.PaymentsPerYear = 1
	}
	if cfg.PaymentsPerYear < 0 {
		return cfg, fmt.Errorf("actuarial: %d payments per year: %w",
			cfg.PaymentsPerYear, interest.ErrInvalidRateStructure)
	}
	switch cfg.Timing {
	case ClaimEndOfYear, ClaimMidYear, ClaimContinuous:
	default:
		return cfg, fmt.Errorf("actuarial: unknown claim timing %d", int(cfg.Timing))
	}
	if math.IsNaN(cfg.Growth) || cfg.Growth <= -1 {
		return cfg, fmt.Errorf("actuarial: growth %g at or below -100%%: %w",
			cfg.Growth, interest.ErrInvalidRateStructure)
	}
	return cfg, nil
}

// NewEngine validates the inputs and runs the endowment identity
// cross-check before returning a usable engine.
func NewEngine(tab lifetable.Table, model interest.Model, cfg Config) (*Engine, error) {
	if tab == nil {
		return nil, fmt.Errorf("actuarial.NewEngine: %w", ErrNilTable)
	}
	if model == nil {
		return nil, fmt.Errorf("actuarial.NewEngine: %w", ErrNilModel)
	}
	cfg, err := normalizeConfig(cfg)
	if err != nil {
		return nil, err
	}

	e := &Engine{tab: tab, model: model, cfg: cfg}

	probe := float64(tab.MinAge())
	horizon := tab.TerminalAge() - tab.MinAge()
	if horizon > 10 {
		horizon = 10
	}
	residual, err := e.IdentityResidual(probe, horizon)
	if err != nil {
		return nil, fmt.Errorf("actuarial.NewEngine: identity probe: %w", err)
	}
	if residual > identityTolerance {
		return nil, fmt.Errorf("actuarial.NewEngine: residual %g at age %g over %d years: %w",
			residual, probe, horizon, ErrInconsistent)
	}
	return e, nil
}

// Table returns the engine's mortality table.
func (e *Engine) Table() lifetable.Table { return e.tab }

// Model returns the engine's rate model.
func (e *Engine) Model() interest.Model { return e.model }

// Config returns the engine's payment conventions.
func (e *Engine) Config() Config { return e.cfg }

// WithConfig returns an engine on the same table and model under different
// payment conventions. The identity cross-check is not rerun; it does not
// depend on the conventions.
func (e *Engine) WithConfig(cfg Config) (*Engine, error) {
	cfg, err := normalizeConfig(cfg)
	if err != nil {
		return nil, err
	}
	clone := *e
	clone.cfg = cfg
	return &clone, nil
}

// yearsLeft returns the number of whole years from the anchor to the
// terminal age, rounded up.
func (e *Engine) yearsLeft(x float64) int {
	return int(math.Ceil(float64(e.tab.TerminalAge()) - x))
}

func (e *Engine) checkAnchor(x float64) error {
	// A zero-term survival query exercises exactly the domain checks.
	_, err := e.tab.Survival(x, 0)
	return err
}

func checkYears(n int) error {
	if n < 0 {
		return fmt.Errorf("actuarial: term %d years: %w", n, lifetable.ErrInvalidTerm)
	}
	return nil
}

// checkDeferment rejects negative deferments and deferments that leave no
// coverage before the terminal age.
func (e *Engine) checkDeferment(x float64, u int) error {
	if u < 0 {
		return fmt.Errorf("actuarial: deferment %d years: %w", u, lifetable.ErrInvalidTerm)
	}
	if u > 0 && u >= e.yearsLeft(x) {
		return fmt.Errorf("actuarial: deferment %d years from age %g reaches terminal age %d: %w",
			u, x, e.tab.TerminalAge(), lifetable.ErrInvalidTerm)
	}
	return nil
}

// IdentityResidual computes |A(x:n) + sum of survival-weighted one-year
// discount amounts - 1| with annual end-of-year conventions. The endowment
// decomposition makes this zero in exact arithmetic for any table and any
// curve, so the residual reports the engine's internal consistency.
func (e *Engine) IdentityResidual(x float64, n int) (float64, error) {
	if err := e.checkAnchor(x); err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, fmt.Errorf("actuarial: identity over %d years: %w", n, lifetable.ErrInvalidTerm)
	}

	endow, err := e.endowmentEOY(x, n)
	if err != nil {
		return 0, err
	}

	adjusted := 0.0
	for k := 0; k < n; k++ {
		s, err := e.tab.Survival(x, float64(k))
		if err != nil {
			return 0, err
		}
		dfk, err := e.model.DiscountFactor(float64(k))
		if err != nil {
			return 0, err
		}
		dfk1, err := e.model.DiscountFactor(float64(k + 1))
		if err != nil {
			return 0, err
		}
		adjusted += s * (dfk - dfk1)
	}
	return math.Abs(endow + adjusted - 1), nil
}

// endowmentEOY is the plain annual end-of-year endowment EPV used by the
// identity check, independent of the engine's configured conventions.
func (e *Engine) endowmentEOY(x float64, n int) (float64, error) {
	sum := 0.0
	sPrev, err := e.tab.Survival(x, 0)
	if err != nil {
		return 0, err
	}
	for k := 0; k < n; k++ {
		sNext, err := e.tab.Survival(x, float64(k+1))
		if err != nil {
			return 0, err
		}
		df, err := e.model.DiscountFactor(float64(k + 1))
		if err != nil {
			return 0, err
		}
		sum += (sPrev - sNext) * df
		sPrev = sNext
	}
	dfn, err := e.model.DiscountFactor(float64(n))
	if err != nil {
		return 0, err
	}
	sn, err := e.tab.Survival(x, float64(n))
	if err != nil {
		return 0, err
	}
	return sum + sn*dfn, nil
}
