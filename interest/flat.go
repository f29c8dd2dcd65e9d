package interest

import "math"

// FlatRate discounts every horizon at a single effective annual rate.
type FlatRate struct {
	rate float64
}

var _ Model = (*FlatRate)(nil)

// NewFlatRate builds a flat model from an effective annual rate above -100%.
func NewFlatRate(i float64) (*FlatRate, error) {
	if err := checkRate(i); err != nil {
		return nil, err
	}
	return &FlatRate{rate: i}, nil
}

// NewFlatRateQuoted builds a flat model from a rate quoted on any
// compounding basis, requoting it as effective annual first.
func NewFlatRateQuoted(rate float64, c Compounding) (*FlatRate, error) {
	i, err := c.ToEffective(rate)
	if err != nil {
		return nil, err
	}
	return NewFlatRate(i)
}

// Rate returns the effective annual rate.
func (f *FlatRate) Rate() float64 { return f.rate }

// DiscountFactor returns (1+i)^(-t).
func (f *FlatRate) DiscountFactor(t float64) (float64, error) {
	if err := checkTime(t); err != nil {
		return 0, err
	}
	if t == 0 {
		return 1, nil
	}
	return math.Pow(1+f.rate, -t), nil
}

// SpotRate returns the flat rate for every maturity.
func (f *FlatRate) SpotRate(t float64) (float64, error) {
	if err := checkTime(t); err != nil {
		return 0, err
	}
	return f.rate, nil
}

// ForwardRate returns the flat rate for every interval.
func (f *FlatRate) ForwardRate(t1, t2 float64) (float64, error) {
	if err := checkForwardInterval(t1, t2); err != nil {
		return 0, err
	}
	return f.rate, nil
}
