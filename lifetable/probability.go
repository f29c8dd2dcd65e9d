package lifetable

import "fmt"

func errTerm(name string, tm float64) error {
	return fmt.Errorf("lifetable %q: term %g: %w", name, tm, ErrInvalidTerm)
}

func errAnchorExhausted(name string, x float64) error {
	return fmt.Errorf("lifetable %q: no survivors at age %g: %w", name, x, ErrOutOfDomain)
}

// Death returns the probability that a life aged x dies within t years.
func Death(tab Table, x, t float64) (float64, error) {
	s, err := tab.Survival(x, t)
	if err != nil {
		return 0, err
	}
	return 1 - s, nil
}

// DeferredDeath returns the probability that a life aged x survives u years
// and then dies within the following t years.
func DeferredDeath(tab Table, x, u, t float64) (float64, error) {
	if t < 0 {
		return 0, fmt.Errorf("lifetable: deferred death over %g years: %w", t, ErrInvalidTerm)
	}
	su, err := tab.Survival(x, u)
	if err != nil {
		return 0, err
	}
	st, err := tab.Survival(x, u+t)
	if err != nil {
		return 0, err
	}
	return su - st, nil
}
