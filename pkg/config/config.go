// Configuration for a clustering run. Values are layered: Default, then an
// optional TOML file, then KMERCLUST_* environment variables (a .env file is
// honoured), then command-line flags applied by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/yumyai/kmerclust/pkg/cluster"
	"github.com/yumyai/kmerclust/pkg/kmer"
)

const EnvPrefix = "KMERCLUST_"

const (
	OnInvalidSkip  = "skip"
	OnInvalidAbort = "abort"
)

type Config struct {
	KmerLength   int    `toml:"kmer_length"`
	Prefix       int    `toml:"prefix"` // read offset of the k-mer window
	MaxClusters  int    `toml:"max_clusters"`
	Debug        bool   `toml:"debug"`       // membership lists and distance histogram
	CheckEvery   int    `toml:"check_every"` // 0 disables the periodic check
	HistogramMax int    `toml:"histogram_max"`
	OutDir       string `toml:"out_dir"`
	SQLitePath   string `toml:"sqlite"`
	OnInvalid    string `toml:"on_invalid"`
	SkipAnyN     bool   `toml:"skip_any_n"` // drop reads with N anywhere, not only in the window
	Progress     bool   `toml:"progress"`
	LogLevel     string `toml:"log_level"`
}

func Default() *Config {
	return &Config{
		KmerLength:   kmer.DefaultLength,
		Prefix:       10,
		MaxClusters:  2000000,
		Debug:        false,
		CheckEvery:   20000,
		HistogramMax: 100000,
		OutDir:       ".",
		SQLitePath:   "",
		OnInvalid:    OnInvalidSkip,
		SkipAnyN:     true,
		Progress:     false,
		LogLevel:     "info",
	}
}

// LoadFile decodes a TOML file over the defaults. Unknown keys are an error so
// that a typo doesn't silently fall back to a default.
func LoadFile(path string) (*Config, error) {
	conf := Default()
	md, err := toml.DecodeFile(path, conf)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return nil, fmt.Errorf("config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	return conf, nil
}

// LoadDotenv loads .env style files into the process environment without
// overriding variables that are already set. It reports whether a file was
// found.
func LoadDotenv(files ...string) bool {
	return godotenv.Load(files...) == nil
}

// ApplyEnv overrides fields from KMERCLUST_* variables.
func (c *Config) ApplyEnv() error {
	var errs []error

	intVar := func(name string, dst *int) {
		if v, ok := os.LookupEnv(EnvPrefix + name); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = n
		}
	}
	boolVar := func(name string, dst *bool) {
		if v, ok := os.LookupEnv(EnvPrefix + name); ok {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = b
		}
	}
	strVar := func(name string, dst *string) {
		if v, ok := os.LookupEnv(EnvPrefix + name); ok {
			*dst = v
		}
	}

	intVar("KMER_LENGTH", &c.KmerLength)
	intVar("PREFIX", &c.Prefix)
	intVar("MAX_CLUSTERS", &c.MaxClusters)
	boolVar("DEBUG", &c.Debug)
	intVar("CHECK_EVERY", &c.CheckEvery)
	intVar("HISTOGRAM_MAX", &c.HistogramMax)
	strVar("OUT_DIR", &c.OutDir)
	strVar("SQLITE", &c.SQLitePath)
	strVar("ON_INVALID", &c.OnInvalid)
	boolVar("SKIP_ANY_N", &c.SkipAnyN)
	boolVar("PROGRESS", &c.Progress)
	strVar("LOG_LEVEL", &c.LogLevel)

	return errors.Join(errs...)
}

func (c *Config) Validate() error {
	var errs []error
	if c.KmerLength <= 0 {
		errs = append(errs, fmt.Errorf("kmer_length must be positive, got %d", c.KmerLength))
	}
	if c.Prefix < 0 {
		errs = append(errs, fmt.Errorf("prefix must not be negative, got %d", c.Prefix))
	}
	if c.MaxClusters <= 0 {
		errs = append(errs, fmt.Errorf("max_clusters must be positive, got %d", c.MaxClusters))
	}
	if c.CheckEvery < 0 {
		errs = append(errs, fmt.Errorf("check_every must not be negative, got %d", c.CheckEvery))
	}
	if c.HistogramMax <= 0 {
		errs = append(errs, fmt.Errorf("histogram_max must be positive, got %d", c.HistogramMax))
	}
	if c.OutDir == "" {
		errs = append(errs, errors.New("out_dir must not be empty"))
	}
	switch c.OnInvalid {
	case OnInvalidSkip, OnInvalidAbort:
	default:
		errs = append(errs, fmt.Errorf("on_invalid must be %q or %q, got %q", OnInvalidSkip, OnInvalidAbort, c.OnInvalid))
	}
	return errors.Join(errs...)
}

func (c *Config) EngineOptions() cluster.Options {
	return cluster.Options{
		K:           c.KmerLength,
		MaxClusters: c.MaxClusters,
		Debug:       c.Debug,
	}
}
