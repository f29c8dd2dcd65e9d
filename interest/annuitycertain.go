package interest

import (
	"fmt"
	"math"
)

// AnnuityCertain prices payment streams that do not depend on survival:
// level, increasing, and geometrically growing annuities paid m times per
// year at a flat effective annual rate. Amounts follow the actuarial unit
// convention of 1 per year, split into m payments of 1/m.
type AnnuityCertain struct {
	i float64 // effective annual rate
	m int     // payments per year
	v float64 // one-year discount factor
}

// NewAnnuityCertain builds a pricer for m payments per year at the effective
// annual rate i.
func NewAnnuityCertain(i float64, m int) (*AnnuityCertain, error) {
	if err := checkRate(i); err != nil {
		return nil, err
	}
	if m < 1 {
		return nil, fmt.Errorf("interest.NewAnnuityCertain: %d payments per year: %w", m, ErrInvalidRateStructure)
	}
	return &AnnuityCertain{i: i, m: m, v: 1 / (1 + i)}, nil
}

// Rate returns the effective annual rate.
func (a *AnnuityCertain) Rate() float64 { return a.i }

// Frequency returns the number of payments per year.
func (a *AnnuityCertain) Frequency() int { return a.m }

func (a *AnnuityCertain) nominal() float64 {
	return NominalFromEffective(a.i, a.m)
}

func (a *AnnuityCertain) nominalDiscount() float64 {
	return NominalDiscountFromEffective(a.i, a.m)
}

func (a *AnnuityCertain) checkYears(n float64) error {
	if math.IsNaN(n) || n < 0 {
		return fmt.Errorf("interest: annuity term %g: %w", n, ErrInvalidTerm)
	}
	return nil
}

// Immediate returns the present value of 1 per year paid in arrears for n
// years, (1-v^n)/i^(m).
func (a *AnnuityCertain) Immediate(n float64) (float64, error) {
	if err := a.checkYears(n); err != nil {
		return 0, err
	}
	if a.i == 0 {
		return n, nil
	}
	return (1 - math.Pow(a.v, n)) / a.nominal(), nil
}

// Due returns the present value of 1 per year paid in advance for n years,
// (1-v^n)/d^(m).
func (a *AnnuityCertain) Due(n float64) (float64, error) {
	if err := a.checkYears(n); err != nil {
		return 0, err
	}
	if a.i == 0 {
		return n, nil
	}
	return (1 - math.Pow(a.v, n)) / a.nominalDiscount(), nil
}

// PerpetuityImmediate returns the present value of 1 per year in arrears
// forever. The rate must be positive.
func (a *AnnuityCertain) PerpetuityImmediate() (float64, error) {
	if a.i <= 0 {
		return 0, fmt.Errorf("interest: perpetuity at rate %g: %w", a.i, ErrInvalidRateStructure)
	}
	return 1 / a.nominal(), nil
}

// PerpetuityDue returns the present value of 1 per year in advance forever.
func (a *AnnuityCertain) PerpetuityDue() (float64, error) {
	if a.i <= 0 {
		return 0, fmt.Errorf("interest: perpetuity at rate %g: %w", a.i, ErrInvalidRateStructure)
	}
	return 1 / a.nominalDiscount(), nil
}

// annualDue is the n-year annual annuity-due used by the increasing forms.
func (a *AnnuityCertain) annualDue(n float64) float64 {
	if a.i == 0 {
		return n
	}
	return (1 - math.Pow(a.v, n)) * (1 + a.i) / a.i
}

// mthlyDue is the n-year m-thly annuity-due used by the per-payment forms.
func (a *AnnuityCertain) mthlyDue(n float64) float64 {
	if a.i == 0 {
		return n
	}
	return (1 - math.Pow(a.v, n)) / a.nominalDiscount()
}

// IncreasingImmediate returns the present value of an annuity in arrears
// whose annual amount grows 1, 2, ..., n, level within each year.
func (a *AnnuityCertain) IncreasingImmediate(n int) (float64, error) {
	if err := a.checkYears(float64(n)); err != nil {
		return 0, err
	}
	if a.i == 0 {
		return float64(n) * float64(n+1) / 2, nil
	}
	nf := float64(n)
	return (a.annualDue(nf) - nf*math.Pow(a.v, nf)) / a.nominal(), nil
}

// IncreasingDue returns the present value of an annuity in advance whose
// annual amount grows 1, 2, ..., n, level within each year.
func (a *AnnuityCertain) IncreasingDue(n int) (float64, error) {
	if err := a.checkYears(float64(n)); err != nil {
		return 0, err
	}
	if a.i == 0 {
		return float64(n) * float64(n+1) / 2, nil
	}
	nf := float64(n)
	return (a.annualDue(nf) - nf*math.Pow(a.v, nf)) / a.nominalDiscount(), nil
}

// IncreasingPerPaymentImmediate returns the present value of an annuity in
// arrears whose amount steps up every payment: the j-th of the n*m payments
// is j/m^2.
func (a *AnnuityCertain) IncreasingPerPaymentImmediate(n int) (float64, error) {
	if err := a.checkYears(float64(n)); err != nil {
		return 0, err
	}
	nm := n * a.m
	if a.i == 0 {
		return float64(nm) * float64(nm+1) / (2 * float64(a.m) * float64(a.m)), nil
	}
	nf := float64(n)
	return (a.mthlyDue(nf) - nf*math.Pow(a.v, nf)) / a.nominal(), nil
}

// IncreasingPerPaymentDue returns the present value of an annuity in advance
// whose amount steps up every payment.
func (a *AnnuityCertain) IncreasingPerPaymentDue(n int) (float64, error) {
	if err := a.checkYears(float64(n)); err != nil {
		return 0, err
	}
	nm := n * a.m
	if a.i == 0 {
		return float64(nm) * float64(nm+1) / (2 * float64(a.m) * float64(a.m)), nil
	}
	nf := float64(n)
	return (a.mthlyDue(nf) - nf*math.Pow(a.v, nf)) / a.nominalDiscount(), nil
}

// GeometricImmediate returns the present value of an annuity in arrears
// whose annual amount starts at 1 and grows by a factor (1+g) each year,
// level within each year.
func (a *AnnuityCertain) GeometricImmediate(n int, g float64) (float64, error) {
	return a.geometric(n, g, false)
}

// GeometricDue returns the present value of an annuity in advance whose
// annual amount starts at 1 and grows by a factor (1+g) each year.
func (a *AnnuityCertain) GeometricDue(n int, g float64) (float64, error) {
	return a.geometric(n, g, true)
}

func (a *AnnuityCertain) geometric(n int, g float64, due bool) (float64, error) {
	if err := a.checkYears(float64(n)); err != nil {
		return 0, err
	}
	if g <= -1 {
		return 0, fmt.Errorf("interest: growth rate %g at or below -100%%: %w", g, ErrInvalidRateStructure)
	}

	// Value of one year's worth of payments, at the start of that year.
	var year float64
	if a.i == 0 {
		year = 1
	} else if due {
		year = (1 - a.v) / a.nominalDiscount()
	} else {
		year = (1 - a.v) / a.nominal()
	}

	r := (1 + g) * a.v
	if math.Abs(r-1) < 1e-14 {
		return year * float64(n), nil
	}
	return year * (1 - math.Pow(r, float64(n))) / (1 - r), nil
}
