package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/parcr/lifeactuary/policy"
)

var (
	premiumOpts        valuationOptions
	premiumKind        string
	premiumAge         float64
	premiumTerm        int
	premiumBenefit     float64
	premiumPayingYears int
	premiumFrequency   int

	impliedTarget float64
	impliedSingle bool
)

var premiumCmd = &cobra.Command{
	Use:   "premium",
	Short: "Net premiums under the equivalence principle",
	Long: `Prices one contract: the net single premium and the level net
premium that funds it over the premium paying period.

Examples:
  lifecalc premium --table demo --kind endowment --age 60 --term 10 --benefit 100000
  lifecalc premium --table demo --kind term --age 40 --term 20 --benefit 250000 --frequency 12
  lifecalc premium --table demo --kind whole-life --age 50 --benefit 100000 --premium-term 15`,
	RunE: runPremium,
}

var impliedCmd = &cobra.Command{
	Use:   "implied",
	Short: "Solve for the rate behind a quoted premium",
	Long: `Finds the flat annual rate at which the contract's net premium
equals the quoted one.

Examples:
  lifecalc premium implied --table demo --kind endowment --age 60 --term 10 --benefit 100000 --premium 8954.30
  lifecalc premium implied --table demo --kind term --age 40 --term 20 --benefit 250000 --premium 10250 --single`,
	RunE: runImplied,
}

func init() {
	rootCmd.AddCommand(premiumCmd)
	premiumCmd.AddCommand(impliedCmd)

	premiumOpts.register(premiumCmd)
	premiumOpts.register(impliedCmd)
	registerPolicyFlags(premiumCmd)

	impliedCmd.Flags().Float64Var(&impliedTarget, "premium", 0, "quoted premium to invert (required)")
	impliedCmd.Flags().BoolVar(&impliedSingle, "single", false, "quoted premium is a single premium")
	impliedCmd.MarkFlagRequired("premium")
}

// registerPolicyFlags adds the contract flags shared by the pricing
// commands. The implied subcommand inherits them from premium.
func registerPolicyFlags(c *cobra.Command) {
	c.PersistentFlags().StringVar(&premiumKind, "kind", "endowment", "contract kind: term, whole-life, endowment, pure-endowment")
	c.PersistentFlags().Float64Var(&premiumAge, "age", 0, "issue age (required)")
	c.PersistentFlags().IntVar(&premiumTerm, "term", 0, "coverage term in years (ignored for whole life)")
	c.PersistentFlags().Float64Var(&premiumBenefit, "benefit", 0, "sum insured (required)")
	c.PersistentFlags().IntVar(&premiumPayingYears, "premium-term", 0, "premium paying years (default: full coverage)")
	c.PersistentFlags().IntVar(&premiumFrequency, "frequency", 1, "premium instalments per year")
}

func policyFromFlags() (policy.Policy, error) {
	kind, err := policy.ParseKind(premiumKind)
	if err != nil {
		return policy.Policy{}, err
	}
	return policy.Policy{
		Kind:             kind,
		IssueAge:         premiumAge,
		Term:             premiumTerm,
		Benefit:          premiumBenefit,
		PremiumTerm:      premiumPayingYears,
		PremiumFrequency: premiumFrequency,
	}, nil
}

func runPremium(cmd *cobra.Command, args []string) error {
	cfg, err := initRuntime()
	if err != nil {
		return err
	}
	p, err := policyFromFlags()
	if err != nil {
		return err
	}
	calc, err := premiumOpts.calculator(cfg)
	if err != nil {
		return err
	}

	single, err := calc.SinglePremium(p)
	if err != nil {
		return err
	}
	net, err := calc.NetPremium(p)
	if err != nil {
		return err
	}

	fmt.Printf("%s at rate %.4f\n\n", p, premiumOpts.rate)
	fmt.Printf("  %-24s %14.4f\n", "net single premium", single)
	fmt.Printf("  %-24s %14.4f\n", "annual net premium", net)
	if p.PremiumFrequency > 1 {
		fmt.Printf("  %-24s %14.4f\n",
			fmt.Sprintf("per instalment (x%d)", p.PremiumFrequency), net/float64(p.PremiumFrequency))
	}
	return nil
}

func runImplied(cmd *cobra.Command, args []string) error {
	cfg, err := initRuntime()
	if err != nil {
		return err
	}
	p, err := policyFromFlags()
	if err != nil {
		return err
	}
	calc, err := premiumOpts.calculator(cfg)
	if err != nil {
		return err
	}

	res, err := calc.ImpliedRate(policy.ImpliedRateInput{
		Policy:  p,
		Premium: impliedTarget,
		Single:  impliedSingle,
	})
	if err != nil {
		return err
	}

	fmt.Printf("%s\n\n", p)
	fmt.Printf("  %-24s %14.6f\n", "implied flat rate", res.Rate)
	fmt.Printf("  %-24s %14d\n", "iterations", res.Iterations)
	return nil
}
