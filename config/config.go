package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/dendrascience/filecoder/codegen"
	"github.com/dendrascience/filecoder/mapping"
	"github.com/dendrascience/filecoder/util"
	"github.com/dendrascience/filecoder/walker"
)

// EnvPrefix prefixes every environment variable read by Load, e.g.
// FILECODER_SPLIT_POLICY.
const EnvPrefix = "FILECODER"

// FileName is the config file looked up in the working directory when none
// is given explicitly.
const FileName = "filecoder"

// Config is everything a coding run needs, gathered up front and validated
// as a whole before any directory is walked.
type Config struct {
	Source      string   `mapstructure:"source"`
	Destination string   `mapstructure:"destination"`
	Snapshot    string   `mapstructure:"snapshot"`
	SnapshotDir string   `mapstructure:"snapshot-dir"`
	Format      string   `mapstructure:"format"`
	Length      int      `mapstructure:"length"`
	SplitPolicy string   `mapstructure:"split-policy"`
	Workers     int      `mapstructure:"workers"`
	Verify      bool     `mapstructure:"verify"`
	Ignore      []string `mapstructure:"ignore"`
}

// Default returns the settings used when nothing overrides them. Length has
// no default; it must be chosen for every run.
func Default() Config {
	return Config{
		SplitPolicy: string(walker.DefaultPolicy),
		Workers:     1,
	}
}

// Load merges, from highest priority down: flags that were set on the
// command line, FILECODER_* environment variables, the config file and
// Default. configFile may be empty, in which case filecoder.{yaml,toml,json}
// is read from the working directory if present.
func Load(flags *pflag.FlagSet, configFile string) (*Config, error) {
	cfg := Default()

	v := viper.New()
	setDefaults(v, cfg)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	bindEnvs(v, cfg)

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, err
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		v.SetConfigName(FileName)
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, cfg Config) {
	val := reflect.ValueOf(cfg)
	typ := val.Type()
	for i := 0; i < typ.NumField(); i++ {
		v.SetDefault(typ.Field(i).Tag.Get("mapstructure"), val.Field(i).Interface())
	}
}

// bindEnvs registers every mapstructure key so Unmarshal sees values that
// only exist in the environment.
func bindEnvs(v *viper.Viper, cfg any) {
	typ := reflect.TypeOf(cfg)
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	for i := 0; i < typ.NumField(); i++ {
		tag := typ.Field(i).Tag.Get("mapstructure")
		if tag == "" {
			tag = strings.ToLower(typ.Field(i).Name)
		}
		_ = v.BindEnv(tag)
	}
}

// Validate checks the whole configuration and reports every problem at
// once. Each problem is a *util.ConfigurationError, so errors.Is(err,
// util.ErrConfiguration) holds for the aggregate.
func (c *Config) Validate() error {
	var errs *multierror.Error
	add := func(field, value, reason string) {
		errs = multierror.Append(errs, &util.ConfigurationError{Field: field, Value: value, Reason: reason})
	}

	if c.Source == "" {
		add("source", "", "is required")
	} else if info, err := os.Stat(c.Source); err != nil {
		add("source", c.Source, "cannot be read: "+errReason(err))
	} else if !info.IsDir() {
		add("source", c.Source, "is not a directory")
	}

	if c.Destination == "" {
		add("destination", "", "is required")
	} else if info, err := os.Stat(c.Destination); err == nil && !info.IsDir() {
		add("destination", c.Destination, "is not a directory")
	}

	if c.Source != "" && c.Destination != "" {
		if overlap, err := util.PathsOverlap(c.Source, c.Destination); err != nil {
			add("destination", c.Destination, errReason(err))
		} else if overlap {
			add("destination", c.Destination, "must not be the source directory or lie inside or around it")
		}
	}

	if err := codegen.ValidateLength(c.Length); err != nil {
		errs = multierror.Append(errs, err)
	}
	if _, err := walker.ParseSplitPolicy(c.SplitPolicy); err != nil {
		errs = multierror.Append(errs, err)
	}
	if _, err := mapping.ResolveFormat(c.Format, c.Snapshot); err != nil {
		errs = multierror.Append(errs, err)
	}
	if c.Workers < 1 {
		add("workers", strconv.Itoa(c.Workers), "must be at least 1")
	}
	if bad, err := walker.ValidatePatterns(c.Ignore); err != nil {
		add("ignore", bad, errReason(err))
	}

	if c.Snapshot != "" {
		if info, err := os.Stat(c.Snapshot); err != nil {
			add("snapshot", c.Snapshot, "cannot be read: "+errReason(err))
		} else if info.IsDir() {
			add("snapshot", c.Snapshot, "is a directory")
		}
	}

	if dir := c.ResolvedSnapshotDir(); dir != "" {
		for _, p := range []struct{ field, path string }{{"source", c.Source}, {"destination", c.Destination}} {
			if p.path == "" {
				continue
			}
			if inside, err := util.IsWithin(p.path, dir); err == nil && inside {
				add("snapshot-dir", dir, "must not lie inside the "+p.field+" directory")
			}
		}
	}

	return errs.ErrorOrNil()
}

// ResolvedSnapshotDir returns where the new snapshot will be written: the
// configured snapshot-dir, else the prior snapshot's directory, else the
// working directory.
func (c *Config) ResolvedSnapshotDir() string {
	switch {
	case c.SnapshotDir != "":
		return c.SnapshotDir
	case c.Snapshot != "":
		return filepath.Dir(c.Snapshot)
	}
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}

// SnapshotFormat returns the encoding for the new snapshot.
func (c *Config) SnapshotFormat() (mapping.Format, error) {
	return mapping.ResolveFormat(c.Format, c.Snapshot)
}

// WalkOptions converts the walker settings. Call Validate first; an invalid
// split policy falls back to the default.
func (c *Config) WalkOptions() walker.Options {
	policy, err := walker.ParseSplitPolicy(c.SplitPolicy)
	if err != nil {
		policy = walker.DefaultPolicy
	}
	return walker.Options{Ignore: c.Ignore, Policy: policy}
}

func errReason(err error) string {
	var pe *os.PathError
	if errors.As(err, &pe) {
		return pe.Err.Error()
	}
	return err.Error()
}
