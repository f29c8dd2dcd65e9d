package interest

import (
	"math"
	"testing"
)

func demoPillars() []Pillar {
	return []Pillar{
		{Tenor: 1, Rate: 0.040},
		{Tenor: 2, Rate: 0.045},
		{Tenor: 5, Rate: 0.055},
		{Tenor: 10, Rate: 0.060},
	}
}

func TestTermStructurePillarsRecovered(t *testing.T) {
	t.Parallel()
	for _, interp := range []Interpolation{LinearLogDiscount, LinearSpot} {
		ts, err := NewTermStructure(demoPillars(), interp)
		if err != nil {
			t.Fatalf("NewTermStructure: %v", err)
		}
		for _, p := range demoPillars() {
			got, err := ts.SpotRate(p.Tenor)
			if err != nil {
				t.Fatalf("SpotRate(%g): %v", p.Tenor, err)
			}
			if math.Abs(got-p.Rate) > 1e-12 {
				t.Errorf("%v SpotRate(%g) = %.12f, want %.12f", interp, p.Tenor, got, p.Rate)
			}
			df, err := ts.DiscountFactor(p.Tenor)
			if err != nil {
				t.Fatalf("DiscountFactor(%g): %v", p.Tenor, err)
			}
			want := math.Pow(1+p.Rate, -p.Tenor)
			if math.Abs(df-want) > 1e-12 {
				t.Errorf("%v DiscountFactor(%g) = %.12f, want %.12f", interp, p.Tenor, df, want)
			}
		}
	}
}

func TestTermStructureAnchoredAtOne(t *testing.T) {
	t.Parallel()
	ts, err := NewTermStructure(demoPillars(), LinearLogDiscount)
	if err != nil {
		t.Fatalf("NewTermStructure: %v", err)
	}
	df, err := ts.DiscountFactor(0)
	if err != nil {
		t.Fatalf("DiscountFactor(0): %v", err)
	}
	if df != 1 {
		t.Fatalf("DiscountFactor(0) = %v, want exactly 1", df)
	}
}

func TestTermStructureMonotoneDiscount(t *testing.T) {
	t.Parallel()
	for _, interp := range []Interpolation{LinearLogDiscount, LinearSpot} {
		ts, err := NewTermStructure(demoPillars(), interp)
		if err != nil {
			t.Fatalf("NewTermStructure: %v", err)
		}
		prev := 1.0
		for tm := 0.25; tm <= 15; tm += 0.25 {
			df, err := ts.DiscountFactor(tm)
			if err != nil {
				t.Fatalf("DiscountFactor(%g): %v", tm, err)
			}
			if df <= 0 || df >= prev {
				t.Fatalf("%v DiscountFactor(%g) = %v not in (0,%v)", interp, tm, df, prev)
			}
			prev = df
		}
	}
}

func TestTermStructureInterpolationModes(t *testing.T) {
	t.Parallel()
	pillars := []Pillar{{Tenor: 1, Rate: 0.04}, {Tenor: 5, Rate: 0.06}}

	linear, err := NewTermStructure(pillars, LinearSpot)
	if err != nil {
		t.Fatalf("NewTermStructure: %v", err)
	}
	got, err := linear.SpotRate(3)
	if err != nil {
		t.Fatalf("SpotRate(3): %v", err)
	}
	if math.Abs(got-0.05) > 1e-12 {
		t.Errorf("linear-spot SpotRate(3) = %.12f, want 0.05", got)
	}

	logdf, err := NewTermStructure(pillars, LinearLogDiscount)
	if err != nil {
		t.Fatalf("NewTermStructure: %v", err)
	}
	df1, _ := logdf.DiscountFactor(1)
	df5, _ := logdf.DiscountFactor(5)
	df3, _ := logdf.DiscountFactor(3)
	want := math.Exp(math.Log(df1) + 0.5*(math.Log(df5)-math.Log(df1)))
	if math.Abs(df3-want) > 1e-12 {
		t.Errorf("log-discount DiscountFactor(3) = %.12f, want %.12f", df3, want)
	}
}

func TestTermStructureExtrapolation(t *testing.T) {
	t.Parallel()

	// A single pillar extrapolates both ways at its own constant force.
	ts, err := NewTermStructure([]Pillar{{Tenor: 1, Rate: 0.05}}, LinearLogDiscount)
	if err != nil {
		t.Fatalf("NewTermStructure: %v", err)
	}
	for _, tm := range []float64{0.5, 1, 2, 7.25} {
		df, err := ts.DiscountFactor(tm)
		if err != nil {
			t.Fatalf("DiscountFactor(%g): %v", tm, err)
		}
		want := math.Pow(1.05, -tm)
		if math.Abs(df-want) > 1e-12 {
			t.Errorf("DiscountFactor(%g) = %.12f, want %.12f", tm, df, want)
		}
	}

	// Beyond the last pillar the forward force of the final segment holds.
	multi, err := NewTermStructure(demoPillars(), LinearLogDiscount)
	if err != nil {
		t.Fatalf("NewTermStructure: %v", err)
	}
	fwd510, err := multi.ForwardRate(5, 10)
	if err != nil {
		t.Fatalf("ForwardRate(5,10): %v", err)
	}
	fwd1020, err := multi.ForwardRate(10, 20)
	if err != nil {
		t.Fatalf("ForwardRate(10,20): %v", err)
	}
	if math.Abs(fwd510-fwd1020) > 1e-12 {
		t.Errorf("flat-forward extrapolation: fwd(5,10) = %.12f, fwd(10,20) = %.12f", fwd510, fwd1020)
	}
}

func TestTermStructureForwardConsistency(t *testing.T) {
	t.Parallel()
	ts, err := NewTermStructure(demoPillars(), LinearLogDiscount)
	if err != nil {
		t.Fatalf("NewTermStructure: %v", err)
	}

	// DF(t2) = DF(t1) * (1+f)^-(t2-t1) must hold for any split.
	for _, c := range []struct{ t1, t2 float64 }{{0, 1}, {1, 2}, {2, 5}, {1.5, 7.25}, {0.25, 12}} {
		f, err := ts.ForwardRate(c.t1, c.t2)
		if err != nil {
			t.Fatalf("ForwardRate(%g,%g): %v", c.t1, c.t2, err)
		}
		df1, _ := ts.DiscountFactor(c.t1)
		df2, _ := ts.DiscountFactor(c.t2)
		want := df1 * math.Pow(1+f, -(c.t2-c.t1))
		if math.Abs(df2-want) > 1e-12 {
			t.Errorf("forward consistency [%g,%g]: DF = %.12f, reconstructed %.12f", c.t1, c.t2, df2, want)
		}
	}
}

func TestNewTermStructureRejectsBadPillars(t *testing.T) {
	t.Parallel()
	cases := map[string][]Pillar{
		"empty":          nil,
		"zero tenor":     {{Tenor: 0, Rate: 0.05}},
		"negative tenor": {{Tenor: -1, Rate: 0.05}},
		"duplicate":      {{Tenor: 1, Rate: 0.04}, {Tenor: 1, Rate: 0.05}},
		"decreasing":     {{Tenor: 2, Rate: 0.04}, {Tenor: 1, Rate: 0.05}},
		"rate below -1":  {{Tenor: 1, Rate: -1.5}},
	}
	for name, pillars := range cases {
		if _, err := NewTermStructure(pillars, LinearLogDiscount); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestNewTermStructureRejectsRisingDiscount(t *testing.T) {
	t.Parallel()

	// An inversion this steep would price the 2y unit above the 1y unit.
	steep := []Pillar{{Tenor: 1, Rate: 0.10}, {Tenor: 2, Rate: 0.01}}
	for _, interp := range []Interpolation{LinearLogDiscount, LinearSpot} {
		if _, err := NewTermStructure(steep, interp); err == nil {
			t.Errorf("%v: expected rejection of rising discount factors", interp)
		}
	}

	// Pillar discounts fall, but linear-spot interpolation still dips into a
	// negative forward inside the long segment; log-discount keeps the
	// segment forward constant and stays valid.
	long := []Pillar{{Tenor: 10, Rate: 0.03}, {Tenor: 12, Rate: 0.025}}
	if _, err := NewTermStructure(long, LinearSpot); err == nil {
		t.Error("linear-spot: expected rejection of interior negative forward")
	}
	if _, err := NewTermStructure(long, LinearLogDiscount); err != nil {
		t.Errorf("log-discount: unexpected error: %v", err)
	}

	// Negative-rate curves may discount above par.
	if _, err := NewTermStructure([]Pillar{{Tenor: 1, Rate: -0.005}, {Tenor: 2, Rate: -0.004}}, LinearLogDiscount); err != nil {
		t.Errorf("negative rates: unexpected error: %v", err)
	}
}

func TestParseInterpolation(t *testing.T) {
	t.Parallel()
	if ip, err := ParseInterpolation("linear-spot"); err != nil || ip != LinearSpot {
		t.Fatalf("ParseInterpolation(linear-spot) = %v, %v", ip, err)
	}
	if ip, err := ParseInterpolation(""); err != nil || ip != LinearLogDiscount {
		t.Fatalf("ParseInterpolation(default) = %v, %v", ip, err)
	}
	if _, err := ParseInterpolation("cubic"); err == nil {
		t.Fatal("ParseInterpolation(cubic): expected error")
	}
}
