package interest

// Model is the capability every deterministic rate structure provides:
// discount factors and equivalent rates for arbitrary non-negative times,
// measured in years.
//
// Implementations are immutable and safe for concurrent use.
type Model interface {
	// DiscountFactor returns the present value of 1 payable at time t.
	// DiscountFactor(0) is exactly 1. Negative t fails with ErrInvalidTerm.
	DiscountFactor(t float64) (float64, error)
	// SpotRate returns the effective annual rate for maturity t. At t=0 it
	// returns the short-end limit.
	SpotRate(t float64) (float64, error)
	// ForwardRate returns the effective annual rate implied between t1 and
	// t2, with 0 <= t1 < t2.
	ForwardRate(t1, t2 float64) (float64, error)
}
