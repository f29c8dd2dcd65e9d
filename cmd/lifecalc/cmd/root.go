package cmd

import (
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/parcr/lifeactuary/actuarial"
	"github.com/parcr/lifeactuary/cache"
	"github.com/parcr/lifeactuary/config"
	"github.com/parcr/lifeactuary/interest"
	"github.com/parcr/lifeactuary/lifetable"
	"github.com/parcr/lifeactuary/policy"
	"github.com/parcr/lifeactuary/tablestore"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "lifecalc",
	Short: "Life insurance pricing and reserving toolkit",
	Long: `lifecalc prices life insurance contracts against stored mortality
tables and an interest rate basis.

Commands:
  table    - manage stored mortality tables
  fetch    - download a table from the SOA service
  search   - list tables on an SOA index page
  epv      - expected present values for one life
  premium  - net premiums under the equivalence principle
  reserve  - prospective and retrospective reserves
  run      - evaluate a scenario file
  plot     - render charts as PNG files`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: built-in defaults plus environment)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// initRuntime loads the configuration and wires logging for a command run.
func initRuntime() (config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return config.Config{}, err
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	if verbose {
		level = log.DebugLevel
	}
	log.SetLevel(level)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	return cfg, nil
}

// openStore connects to the configured table store and applies pending
// migrations.
func openStore(cfg config.Config) (*tablestore.Store, error) {
	store, err := tablestore.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}

// newCache picks the valuation cache. A configured redis address is pinged
// first so a dead instance degrades to in-process memory instead of
// failing the run.
func newCache(cfg config.Config) cache.Cache {
	if cfg.Redis.Addr == "" {
		return cache.NewMemory()
	}
	r := cache.NewRedis(cfg.Redis.Addr, cfg.Redis.TTL.Duration)
	if err := r.Ping(); err != nil {
		log.WithError(err).WithField("addr", cfg.Redis.Addr).
			Warn("redis unreachable, falling back to in-memory cache")
		return cache.NewMemory()
	}
	return r
}

// valuationOptions are the flags shared by the pricing commands.
type valuationOptions struct {
	table      string
	rate       float64
	assumption string
	timing     string
	mthly      int
	growth     float64
}

func (o *valuationOptions) register(c *cobra.Command) {
	c.Flags().StringVar(&o.table, "table", "", "stored mortality table name (required)")
	c.Flags().Float64Var(&o.rate, "rate", 0, "flat annual effective rate (default from config)")
	c.Flags().StringVar(&o.assumption, "assumption", "", "fractional age assumption: udd, cfm, bal")
	c.Flags().StringVar(&o.timing, "timing", "", "claim timing: eoy, midyear, continuous")
	c.Flags().IntVar(&o.mthly, "mthly", 1, "payments per year for annuities and premiums")
	c.Flags().Float64Var(&o.growth, "growth", 0, "geometric benefit growth rate per year")
	c.MarkFlagRequired("table")
}

// calculator assembles the pricing stack from the shared flags, loading
// the mortality basis from the store.
func (o *valuationOptions) calculator(cfg config.Config) (*policy.Calculator, error) {
	if o.rate == 0 {
		o.rate = cfg.Valuation.Rate
	}
	if o.assumption == "" {
		o.assumption = cfg.Valuation.Assumption
	}
	if o.timing == "" {
		o.timing = cfg.Valuation.Timing
	}

	assumption, err := lifetable.ParseAssumption(o.assumption)
	if err != nil {
		return nil, err
	}
	timing, err := actuarial.ParseClaimTiming(o.timing)
	if err != nil {
		return nil, err
	}

	store, err := openStore(cfg)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	start := time.Now()
	tab, _, err := store.Load(o.table, assumption)
	if err != nil {
		return nil, err
	}
	log.WithField("table", o.table).
		WithField("duration_ms", time.Since(start).Milliseconds()).
		Debug("mortality table loaded")

	model, err := interest.NewFlatRate(o.rate)
	if err != nil {
		return nil, err
	}
	eng, err := actuarial.NewEngine(tab, model, actuarial.Config{
		PaymentsPerYear: o.mthly,
		Timing:          timing,
		Growth:          o.growth,
	})
	if err != nil {
		return nil, err
	}
	return policy.NewCalculator(eng)
}
