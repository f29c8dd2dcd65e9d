package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/parcr/lifeactuary/lifetable"
)

var (
	epvOpts valuationOptions
	epvAge  float64
	epvTerm int
)

var epvCmd = &cobra.Command{
	Use:   "epv",
	Short: "Expected present values for one life",
	Long: `Prints insurance and annuity expected present values per unit
benefit for a life at the given age.

Examples:
  lifecalc epv --table "Demo Annuitant Mortality" --age 60 --term 10
  lifecalc epv --table demo --age 60 --term 10 --rate 0.05 --mthly 12`,
	RunE: runEPV,
}

func init() {
	rootCmd.AddCommand(epvCmd)
	epvOpts.register(epvCmd)
	epvCmd.Flags().Float64Var(&epvAge, "age", 0, "age of the insured life (required)")
	epvCmd.Flags().IntVar(&epvTerm, "term", 10, "term in years for temporary covers")
	epvCmd.MarkFlagRequired("age")
}

func runEPV(cmd *cobra.Command, args []string) error {
	cfg, err := initRuntime()
	if err != nil {
		return err
	}
	calc, err := epvOpts.calculator(cfg)
	if err != nil {
		return err
	}
	eng := calc.Engine()

	term, err := eng.TermInsurance(epvAge, epvTerm)
	if err != nil {
		return err
	}
	whole, err := eng.WholeLifeInsurance(epvAge)
	if err != nil {
		return err
	}
	endow, err := eng.EndowmentInsurance(epvAge, epvTerm)
	if err != nil {
		return err
	}
	pure, err := eng.PureEndowment(epvAge, epvTerm)
	if err != nil {
		return err
	}
	tmpDue, err := eng.TemporaryAnnuityDue(epvAge, epvTerm)
	if err != nil {
		return err
	}
	tmpImm, err := eng.TemporaryAnnuityImmediate(epvAge, epvTerm)
	if err != nil {
		return err
	}
	wholeDue, err := eng.WholeLifeAnnuityDue(epvAge)
	if err != nil {
		return err
	}

	fmt.Printf("basis: table=%q age=%g term=%d rate=%.4f mthly=%d timing=%s\n\n",
		epvOpts.table, epvAge, epvTerm, epvOpts.rate, epvOpts.mthly, epvOpts.timing)

	fmt.Println("insurance EPVs per unit benefit")
	fmt.Printf("  %-24s %12.6f\n", "term insurance", term)
	fmt.Printf("  %-24s %12.6f\n", "whole life", whole)
	fmt.Printf("  %-24s %12.6f\n", "endowment", endow)
	fmt.Printf("  %-24s %12.6f\n", "pure endowment", pure)

	fmt.Println("annuity EPVs per unit annual payment")
	fmt.Printf("  %-24s %12.6f\n", "temporary due", tmpDue)
	fmt.Printf("  %-24s %12.6f\n", "temporary immediate", tmpImm)
	fmt.Printf("  %-24s %12.6f\n", "whole life due", wholeDue)

	if lt, ok := eng.Table().(*lifetable.LifeTable); ok {
		curtate, err := lt.CurtateExpectation(epvAge)
		if err != nil {
			return err
		}
		complete, err := lt.CompleteExpectation(epvAge)
		if err != nil {
			return err
		}
		fmt.Println("life expectancy")
		fmt.Printf("  %-24s %12.2f\n", "curtate", curtate)
		fmt.Printf("  %-24s %12.2f\n", "complete", complete)
	}
	return nil
}
