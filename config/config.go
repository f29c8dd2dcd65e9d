// Package config loads tool configuration from a TOML file with
// environment variable overrides for deployment-specific settings.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

// Duration wraps time.Duration so TOML values can be written as "30s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler for TOML decoding.
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// Config holds settings for the command line tools.
type Config struct {
	// LogLevel is a logrus level name: debug, info, warn, error.
	LogLevel string `toml:"log_level"`

	Database  Database  `toml:"database"`
	Redis     Redis     `toml:"redis"`
	SOA       SOA       `toml:"soa"`
	Valuation Valuation `toml:"valuation"`
}

// Database configures the mortality table store.
type Database struct {
	// Driver is "sqlite3" or "postgres".
	Driver string `toml:"driver"`
	DSN    string `toml:"dsn"`
}

// Redis configures the optional valuation cache.
type Redis struct {
	Addr string   `toml:"addr"`
	TTL  Duration `toml:"ttl"`
}

// SOA configures downloads from the Society of Actuaries table service.
type SOA struct {
	BaseURL string   `toml:"base_url"`
	Timeout Duration `toml:"timeout"`
}

// Valuation holds defaults applied when a scenario or flag leaves them out.
type Valuation struct {
	// Assumption is the fractional age assumption: udd, cfm or bal.
	Assumption string `toml:"assumption"`
	// Timing is the claim timing: eoy, midyear or continuous.
	Timing string `toml:"timing"`
	// Rate is the flat annual effective rate.
	Rate float64 `toml:"rate"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		LogLevel: "info",
		Database: Database{
			Driver: "sqlite3",
			DSN:    "lifeactuary.db",
		},
		SOA: SOA{
			BaseURL: "https://mort.soa.org",
			Timeout: Duration{30 * time.Second},
		},
		Valuation: Valuation{
			Assumption: "udd",
			Timing:     "eoy",
			Rate:       0.04,
		},
	}
}

// Load reads the TOML file at path on top of the defaults, then applies
// environment overrides. An empty path skips the file entirely.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: decode %s: %w", path, err)
		}
	}
	cfg.applyEnv()

	if cfg.Database.Driver != "sqlite3" && cfg.Database.Driver != "postgres" {
		return Config{}, fmt.Errorf("config: unsupported database driver %q", cfg.Database.Driver)
	}
	return cfg, nil
}

// applyEnv overrides file values from the environment so containers can
// configure the tools without a mounted file.
func (c *Config) applyEnv() {
	if v := os.Getenv("LIFEACTUARY_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("LIFEACTUARY_DB_DRIVER"); v != "" {
		c.Database.Driver = v
	}
	if v := os.Getenv("LIFEACTUARY_DB_DSN"); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv("LIFEACTUARY_REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("LIFEACTUARY_SOA_URL"); v != "" {
		c.SOA.BaseURL = v
	}
	if v := os.Getenv("LIFEACTUARY_RATE"); v != "" {
		if rate, err := strconv.ParseFloat(v, 64); err == nil {
			c.Valuation.Rate = rate
		}
	}
}
