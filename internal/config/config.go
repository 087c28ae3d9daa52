// Package config loads matchdag settings: embedded defaults, then an
// optional TOML file, then MATCHDAG_* environment variables.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/roach88/matchdag/internal/analysis"
	"github.com/roach88/matchdag/internal/diag"
	"github.com/roach88/matchdag/internal/lower"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "MATCHDAG_"

//go:embed embedded/defaults.toml
var defaultConfig []byte

// Config is the full settings tree.
type Config struct {
	Analysis AnalysisConfig `koanf:"analysis"`
	Lower    LowerConfig    `koanf:"lower"`
	Store    StoreConfig    `koanf:"store"`
}

type AnalysisConfig struct {
	NestedRedundancySeverity string `koanf:"nested_redundancy_severity"`
	WitnessMaxPaths          int    `koanf:"witness_max_paths"`
}

type LowerConfig struct {
	DispatchThreshold int      `koanf:"dispatch_threshold"`
	FailureTypes      []string `koanf:"failure_types"`
}

type StoreConfig struct {
	Path string `koanf:"path"`
}

type rawBytesProvider struct{ bytes []byte }

func (r *rawBytesProvider) ReadBytes() ([]byte, error) { return r.bytes, nil }
func (r *rawBytesProvider) Read() (map[string]interface{}, error) {
	return nil, errors.New("not implemented")
}

// Load reads the configuration. path may be empty; a named file must
// exist. overrides, keyed by dotted path, are applied last.
func Load(path string, overrides map[string]any) (*Config, error) {
	k := koanf.New(".")

	// 1. Embedded defaults
	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file: %w", err)
		}
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
		}
	}

	// 3. Environment
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags
	if len(overrides) > 0 {
		if err := k.Load(confmap.Provider(overrides, "."), nil); err != nil {
			return nil, fmt.Errorf("failed to load overrides: %w", err)
		}
	}

	var cfg Config
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
			DecodeHook:       mapstructure.StringToSliceHookFunc(","),
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the embedded defaults, ignoring files and environment.
func Default() *Config {
	k := koanf.New(".")
	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		panic(fmt.Sprintf("embedded defaults: %v", err))
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		panic(fmt.Sprintf("embedded defaults: %v", err))
	}
	return &cfg
}

// envKey maps MATCHDAG_LOWER_DISPATCH_THRESHOLD to lower.dispatch_threshold:
// the first segment names the section, the rest is the key.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	section, key, ok := strings.Cut(s, "_")
	if !ok {
		return s
	}
	return section + "." + key
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if _, err := diag.ParseSeverity(c.Analysis.NestedRedundancySeverity); err != nil {
		return fmt.Errorf("analysis.nested_redundancy_severity: %w", err)
	}
	if c.Analysis.WitnessMaxPaths < 1 {
		return fmt.Errorf("analysis.witness_max_paths must be positive, got %d", c.Analysis.WitnessMaxPaths)
	}
	if c.Lower.DispatchThreshold < 2 {
		return fmt.Errorf("lower.dispatch_threshold must be at least 2, got %d", c.Lower.DispatchThreshold)
	}
	return nil
}

// AnalysisOptions converts the analysis section.
func (c *Config) AnalysisOptions() analysis.Options {
	opts := analysis.DefaultOptions()
	if sev, err := diag.ParseSeverity(c.Analysis.NestedRedundancySeverity); err == nil {
		opts.NestedRedundancySeverity = sev
	}
	if c.Analysis.WitnessMaxPaths > 0 {
		opts.WitnessMaxPaths = c.Analysis.WitnessMaxPaths
	}
	return opts
}

// LowerOptions converts the lower section.
func (c *Config) LowerOptions() lower.Options {
	opts := lower.DefaultOptions()
	if c.Lower.DispatchThreshold > 0 {
		opts.DispatchThreshold = c.Lower.DispatchThreshold
	}
	if len(c.Lower.FailureTypes) > 0 {
		opts.FailureTypes = append([]string(nil), c.Lower.FailureTypes...)
	}
	return opts
}
