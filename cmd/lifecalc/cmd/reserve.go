package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/parcr/lifeactuary/plot"
	"github.com/parcr/lifeactuary/policy"
)

var (
	reserveOpts        valuationOptions
	reserveKind        string
	reserveAge         float64
	reserveTerm        int
	reserveBenefit     float64
	reservePayingYears int
	reserveFrequency   int
	reserveDuration    int
	reservePlotFile    string
)

var reserveCmd = &cobra.Command{
	Use:   "reserve",
	Short: "Prospective and retrospective reserves",
	Long: `Computes net premium reserves for one contract, either at a single
duration or over the whole coverage period.

Examples:
  lifecalc reserve --table demo --kind endowment --age 60 --term 10 --benefit 100000
  lifecalc reserve --table demo --kind term --age 40 --term 20 --benefit 250000 --duration 5
  lifecalc reserve --table demo --kind endowment --age 60 --term 10 --benefit 100000 --plot reserves.png`,
	RunE: runReserve,
}

func init() {
	rootCmd.AddCommand(reserveCmd)
	reserveOpts.register(reserveCmd)

	reserveCmd.Flags().StringVar(&reserveKind, "kind", "endowment", "contract kind: term, whole-life, endowment, pure-endowment")
	reserveCmd.Flags().Float64Var(&reserveAge, "age", 0, "issue age (required)")
	reserveCmd.Flags().IntVar(&reserveTerm, "term", 0, "coverage term in years (ignored for whole life)")
	reserveCmd.Flags().Float64Var(&reserveBenefit, "benefit", 0, "sum insured (required)")
	reserveCmd.Flags().IntVar(&reservePayingYears, "premium-term", 0, "premium paying years (default: full coverage)")
	reserveCmd.Flags().IntVar(&reserveFrequency, "frequency", 1, "premium instalments per year")
	reserveCmd.Flags().IntVar(&reserveDuration, "duration", -1, "single duration to value (default: full series)")
	reserveCmd.Flags().StringVar(&reservePlotFile, "plot", "", "write the reserve development chart to this PNG file")
	reserveCmd.MarkFlagRequired("age")
	reserveCmd.MarkFlagRequired("benefit")
}

func runReserve(cmd *cobra.Command, args []string) error {
	cfg, err := initRuntime()
	if err != nil {
		return err
	}
	kind, err := policy.ParseKind(reserveKind)
	if err != nil {
		return err
	}
	p := policy.Policy{
		Kind:             kind,
		IssueAge:         reserveAge,
		Term:             reserveTerm,
		Benefit:          reserveBenefit,
		PremiumTerm:      reservePayingYears,
		PremiumFrequency: reserveFrequency,
	}
	calc, err := reserveOpts.calculator(cfg)
	if err != nil {
		return err
	}

	if reserveDuration >= 0 {
		r, err := calc.ReserveAt(p, reserveDuration)
		if err != nil {
			return err
		}
		fmt.Printf("%s at rate %.4f\n\n", p, reserveOpts.rate)
		printReserveHeader()
		printReserveRow(r)
		return nil
	}

	series, err := calc.ReserveSeries(p)
	if err != nil {
		return err
	}
	fmt.Printf("%s at rate %.4f\n\n", p, reserveOpts.rate)
	printReserveHeader()
	for _, r := range series {
		printReserveRow(r)
	}

	if reservePlotFile == "" {
		return nil
	}
	img, err := plot.ReserveDevelopment(series, plot.Chart{
		Title: fmt.Sprintf("Reserves: %s", p),
	})
	if err != nil {
		return err
	}
	if err := os.WriteFile(reservePlotFile, img, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", reservePlotFile, err)
	}
	fmt.Printf("\nchart written to %s\n", reservePlotFile)
	return nil
}

func printReserveHeader() {
	fmt.Printf("%4s %16s %16s %12s\n", "K", "PROSPECTIVE", "RETROSPECTIVE", "GAP")
}

func printReserveRow(r policy.Reserve) {
	fmt.Printf("%4d %16.4f %16.4f %12.2e\n", r.Duration, r.Prospective, r.Retrospective, r.Gap())
}
