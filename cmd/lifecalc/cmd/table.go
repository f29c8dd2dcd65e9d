package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/parcr/lifeactuary/commutation"
	"github.com/parcr/lifeactuary/lifetable"
	"github.com/parcr/lifeactuary/soatable"
	"github.com/parcr/lifeactuary/tablestore"
)

var (
	tableShowAssumption   string
	tableImportAssumption string

	tableCommRate       float64
	tableCommGrowth     float64
	tableCommContinuous bool
)

var tableCmd = &cobra.Command{
	Use:   "table",
	Short: "Manage stored mortality tables",
	Long: `Manages the mortality tables held in the configured store.

Examples:
  lifecalc table list
  lifecalc table import t1704.xml
  lifecalc table show "Demo Annuitant Mortality"
  lifecalc table commutation "Demo Annuitant Mortality" --rate 0.04
  lifecalc table delete "Demo Annuitant Mortality"`,
}

var tableListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored tables",
	RunE:  runTableList,
}

var tableShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Print one table year by year",
	Args:  cobra.ExactArgs(1),
	RunE:  runTableShow,
}

var tableImportCmd = &cobra.Command{
	Use:   "import <file.xml>",
	Short: "Import an XTbML file into the store",
	Args:  cobra.ExactArgs(1),
	RunE:  runTableImport,
}

var tableDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Remove a table and its rates",
	Args:  cobra.ExactArgs(1),
	RunE:  runTableDelete,
}

var tableCommutationCmd = &cobra.Command{
	Use:   "commutation <name>",
	Short: "Print commutation columns Dx..Rx at a flat rate",
	Args:  cobra.ExactArgs(1),
	RunE:  runTableCommutation,
}

func init() {
	rootCmd.AddCommand(tableCmd)
	tableCmd.AddCommand(tableListCmd)
	tableCmd.AddCommand(tableShowCmd)
	tableCmd.AddCommand(tableImportCmd)
	tableCmd.AddCommand(tableDeleteCmd)
	tableCmd.AddCommand(tableCommutationCmd)

	tableShowCmd.Flags().StringVar(&tableShowAssumption, "assumption", "udd", "fractional age assumption: udd, cfm, bal")
	tableImportCmd.Flags().StringVar(&tableImportAssumption, "assumption", "udd", "fractional age assumption: udd, cfm, bal")
	tableCommutationCmd.Flags().Float64Var(&tableCommRate, "rate", 0, "flat annual effective rate (default from config)")
	tableCommutationCmd.Flags().Float64Var(&tableCommGrowth, "growth", 0, "capital growth rate folded into the columns")
	tableCommutationCmd.Flags().BoolVar(&tableCommContinuous, "continuous", false, "accelerate the C column to the moment of death")
}

func runTableList(cmd *cobra.Command, args []string) error {
	cfg, err := initRuntime()
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	metas, err := store.List()
	if err != nil {
		return err
	}
	if len(metas) == 0 {
		fmt.Println("no tables stored")
		return nil
	}

	fmt.Printf("%-40s %8s %8s %12s\n", "NAME", "MIN AGE", "RADIX", "PUBLISHED")
	for _, m := range metas {
		published := "-"
		if m.PublishedOn.IsValid() {
			published = m.PublishedOn.String()
		}
		fmt.Printf("%-40s %8d %8.0f %12s\n", m.Name, m.MinAge, m.Radix, published)
	}
	return nil
}

func runTableShow(cmd *cobra.Command, args []string) error {
	cfg, err := initRuntime()
	if err != nil {
		return err
	}
	assumption, err := lifetable.ParseAssumption(tableShowAssumption)
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	tab, meta, err := store.Load(args[0], assumption)
	if err != nil {
		return err
	}

	fmt.Printf("%s  (ages %d-%d, radix %.0f, %s)\n",
		meta.Name, tab.MinAge(), tab.TerminalAge(), tab.Radix(), tab.Assumption())
	if meta.Reference != "" {
		fmt.Printf("source: %s\n", meta.Reference)
	}
	fmt.Printf("\n%5s %12s %10s %10s %8s\n", "AGE", "LIVES", "DEATHS", "QX", "EX")
	for _, row := range tab.Rows() {
		fmt.Printf("%5d %12.2f %10.2f %10.6f %8.2f\n",
			row.Age, row.Lives, row.Deaths, row.MortalityRate, row.Expectation)
	}
	return nil
}

func runTableImport(cmd *cobra.Command, args []string) error {
	cfg, err := initRuntime()
	if err != nil {
		return err
	}
	assumption, err := lifetable.ParseAssumption(tableImportAssumption)
	if err != nil {
		return err
	}

	doc, err := soatable.ParseFile(args[0])
	if err != nil {
		return err
	}
	tab, err := doc.LifeTable(assumption)
	if err != nil {
		return err
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	meta, err := store.Save(tab, tablestore.Meta{
		ID:          doc.ID(),
		ContentType: doc.Classification.ContentType,
		Reference:   doc.URL(),
	})
	if err != nil {
		return err
	}

	fmt.Printf("imported %q: ages %d-%d, %d rates\n",
		meta.Name, tab.MinAge(), tab.TerminalAge(), len(tab.Rows()))
	return nil
}

func runTableCommutation(cmd *cobra.Command, args []string) error {
	cfg, err := initRuntime()
	if err != nil {
		return err
	}
	rate := tableCommRate
	if rate == 0 {
		rate = cfg.Valuation.Rate
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	tab, meta, err := store.Load(args[0], lifetable.UniformDeaths)
	if err != nil {
		return err
	}
	ct, err := commutation.New(tab, rate, tableCommGrowth, tableCommContinuous)
	if err != nil {
		return err
	}

	fmt.Printf("%s  (rate %.4f, growth %.4f, continuous=%v)\n",
		meta.Name, ct.Rate(), ct.Growth(), ct.ContinuousClaims())
	fmt.Printf("\n%5s %14s %14s %16s %12s %12s %14s\n", "AGE", "DX", "NX", "SX", "CX", "MX", "RX")
	for _, row := range ct.Rows() {
		fmt.Printf("%5d %14.2f %14.2f %16.2f %12.2f %12.2f %14.2f\n",
			row.Age, row.D, row.N, row.S, row.C, row.M, row.R)
	}
	return nil
}

func runTableDelete(cmd *cobra.Command, args []string) error {
	cfg, err := initRuntime()
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Delete(args[0]); err != nil {
		return err
	}
	fmt.Printf("deleted %q\n", args[0])
	return nil
}
