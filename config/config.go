// Package config layers defaults, an optional config file, an optional
// .env file and ENROLLSTAT_* environment variables.
package config

import (
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/spektr-org/enrollstat/engine"
	"github.com/spektr-org/enrollstat/helpers"
	"github.com/spektr-org/enrollstat/ingest"
	"github.com/spektr-org/enrollstat/logging"
	"github.com/spektr-org/enrollstat/schema"
)

// EnvPrefix prefixes every environment override, e.g. ENROLLSTAT_WORKERS.
const EnvPrefix = "ENROLLSTAT"

// Config is the resolved runtime configuration.
type Config struct {
	Mode             string   `mapstructure:"mode"`
	Workers          int      `mapstructure:"workers"`
	CurriculumHeader string   `mapstructure:"curriculumHeader"`
	LogLevel         string   `mapstructure:"logLevel"`
	Format           string   `mapstructure:"format"`
	Addr             string   `mapstructure:"addr"`
	MaxUploadMB      int      `mapstructure:"maxUploadMB"`
	FunnelStages     []string `mapstructure:"funnelStages"`
	GapPairs         []string `mapstructure:"gapPairs"`
	Timezone         string   `mapstructure:"timezone"`
}

func setDefaults(v *viper.Viper) {
	v.SetTypeByDefaultValue(true)
	v.SetDefault("mode", string(ingest.Hybrid))
	v.SetDefault("workers", runtime.NumCPU())
	v.SetDefault("curriculumHeader", schema.DefaultCurriculumHeader)
	v.SetDefault("logLevel", "info")
	v.SetDefault("format", helpers.FormatTable)
	v.SetDefault("addr", ":8080")
	v.SetDefault("maxUploadMB", 32)
	v.SetDefault("funnelStages", []string{})
	v.SetDefault("gapPairs", []string{})
	v.SetDefault("timezone", "UTC")
}

// Load resolves configuration. path may be empty; otherwise the file must
// exist and its extension picks the format (yaml, json, toml …). A .env
// file in the working directory is loaded when present.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// load .env if it exists (ignore if it does not)
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return nil, errors.Wrap(err, "failed to load .env")
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "failed to stat .env")
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "failed to read config %s", path)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, errors.Wrap(err, "failed to decode config")
	}
	c.FunnelStages = splitList(c.FunnelStages)
	c.GapPairs = splitList(c.GapPairs)

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks every enumerated field.
func (c *Config) Validate() error {
	if _, err := ingest.ParseMode(c.Mode); err != nil {
		return err
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if !helpers.ValidFormat(c.Format) {
		return errors.Errorf("unknown format %q (want one of %s)", c.Format, strings.Join(helpers.Formats, ", "))
	}
	if c.Workers < 0 {
		return errors.Errorf("workers must be >= 0, got %d", c.Workers)
	}
	if c.MaxUploadMB <= 0 {
		return errors.Errorf("maxUploadMB must be > 0, got %d", c.MaxUploadMB)
	}
	if _, err := c.Pairs(); err != nil {
		return err
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// RunOptions translates the ingest settings into batch options.
func (c *Config) RunOptions() []ingest.Option {
	mode, _ := ingest.ParseMode(c.Mode)
	return []ingest.Option{
		ingest.WithMode(mode),
		ingest.WithWorkers(c.Workers),
		ingest.WithCurriculumHeader(c.CurriculumHeader),
	}
}

// Pairs parses GapPairs.
func (c *Config) Pairs() ([]engine.StagePair, error) {
	pairs := make([]engine.StagePair, 0, len(c.GapPairs))
	for _, s := range c.GapPairs {
		p, err := engine.ParsePair(s)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, p)
	}
	return pairs, nil
}

// Location loads the event-log timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, errors.Wrapf(err, "unknown timezone %q", c.Timezone)
	}
	return loc, nil
}

// MaxUploadBytes returns the upload limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

// splitList accepts both real lists and comma-separated strings, which is
// what a single environment variable carries.
func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
