package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/parcr/lifeactuary/scenario"
)

var (
	runJSON    bool
	runNoCache bool
)

var runCmd = &cobra.Command{
	Use:   "run <scenario.yaml>",
	Short: "Evaluate a scenario file",
	Long: `Runs every policy of a YAML scenario against its mortality and
rate basis. Results are cached per policy and basis, so repeated runs
only price what changed.

Examples:
  lifecalc run pensioners.yaml
  lifecalc run pensioners.yaml --json > results.json
  lifecalc run pensioners.yaml --no-cache`,
	Args: cobra.ExactArgs(1),
	RunE: runScenario,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().BoolVar(&runJSON, "json", false, "print the result as JSON")
	runCmd.Flags().BoolVar(&runNoCache, "no-cache", false, "price every policy even when cached")
}

func runScenario(cmd *cobra.Command, args []string) error {
	cfg, err := initRuntime()
	if err != nil {
		return err
	}
	s, err := scenario.Load(args[0])
	if err != nil {
		return err
	}

	runner := scenario.NewRunner(nil)
	if !runNoCache {
		runner = scenario.NewRunner(newCache(cfg))
	}
	res, err := runner.Run(s)
	if err != nil {
		return err
	}

	if runJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	fmt.Printf("scenario %q (run %s)\n\n", res.Name, res.RunID)
	fmt.Printf("%-24s %14s %14s %8s\n", "POLICY", "SINGLE", "ANNUAL NET", "CACHED")
	for _, pr := range res.Policies {
		cached := ""
		if pr.Cached {
			cached = "yes"
		}
		fmt.Printf("%-24s %14.4f %14.4f %8s\n", pr.Label, pr.SinglePremium, pr.NetPremium, cached)
	}

	for _, pr := range res.Policies {
		if len(pr.Reserves) == 0 {
			continue
		}
		fmt.Printf("\nreserves for %s\n", pr.Label)
		fmt.Printf("%4s %16s\n", "K", "PROSPECTIVE")
		for _, r := range pr.Reserves {
			fmt.Printf("%4d %16.4f\n", r.Duration, r.Prospective)
		}
	}
	return nil
}
