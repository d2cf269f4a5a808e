package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the optional per-project config file, read from the input directory.
const FileName = ".testgrade.yml"

// Config captures CLI options sourced from config files or flags.
type Config struct {
	MaxScore   *int   `yaml:"max_score"`
	Mode       string `yaml:"mode"`
	AllowEmpty bool   `yaml:"allow_empty"`

	Include []string `yaml:"include"`
	Exclude []string `yaml:"exclude"`

	Toolchain string            `yaml:"toolchain"`
	CargoArgs []string          `yaml:"cargo_args"`
	Env       map[string]string `yaml:"env"`
	Timeout   time.Duration     `yaml:"timeout"`

	Format    string `yaml:"format"`
	Canonical bool   `yaml:"canonical"`
	Strict    bool   `yaml:"strict"`
	Verbose   bool   `yaml:"verbose"`

	MinCargoVersion string     `yaml:"min_cargo_version"`
	Warn            WarnConfig `yaml:"warn"`
}

// WarnConfig controls additional warning behaviour.
type WarnConfig struct {
	VersionMismatch bool `yaml:"version_mismatch"`
	MissingManifest bool `yaml:"missing_manifest"`
}

// Default returns the baseline configuration used when no flags or config file specify values.
func Default() Config {
	return Config{
		Mode:      ModeObserved,
		Toolchain: DefaultToolchain,
		Timeout:   DefaultTimeout,
		Format:    FormatPretty,
		Warn: WarnConfig{
			VersionMismatch: true,
			MissingManifest: true,
		},
	}
}

const (
	// ModeObserved scores against the number of reported outcomes.
	ModeObserved = "observed"
	// ModeDeclared scores against the suite-declared test count.
	ModeDeclared = "declared"

	// FormatPretty renders human readable output.
	FormatPretty = "pretty"
	// FormatJSON renders machine readable output.
	FormatJSON = "json"

	// DefaultToolchain is required for libtest's JSON formatter.
	DefaultToolchain = "nightly"
	// DefaultTimeout bounds a single cargo test invocation.
	DefaultTimeout = 10 * time.Minute
)

// Load reads .testgrade.yml from dir when present. Missing files are ignored.
func Load(dir string) (Config, error) {
	cfg := Default()
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %q: %w", path, err)
	}

	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return cfg, fmt.Errorf("parse config %q: %w", path, err)
	}

	cfg = merge(cfg, fileCfg)
	return cfg, nil
}

func merge(base, override Config) Config {
	out := base

	if override.MaxScore != nil {
		v := *override.MaxScore
		out.MaxScore = &v
	}
	if override.Mode != "" {
		out.Mode = override.Mode
	}
	if override.AllowEmpty {
		out.AllowEmpty = true
	}
	if len(override.Include) > 0 {
		out.Include = append([]string{}, override.Include...)
	}
	if len(override.Exclude) > 0 {
		out.Exclude = append([]string{}, override.Exclude...)
	}
	if override.Toolchain != "" {
		out.Toolchain = override.Toolchain
	}
	if len(override.CargoArgs) > 0 {
		out.CargoArgs = append([]string{}, override.CargoArgs...)
	}
	if len(override.Env) > 0 {
		out.Env = make(map[string]string, len(override.Env))
		for k, v := range override.Env {
			out.Env[k] = v
		}
	}
	if override.Timeout > 0 {
		out.Timeout = override.Timeout
	}
	if override.Format != "" {
		out.Format = override.Format
	}
	if override.Canonical {
		out.Canonical = true
	}
	if override.Strict {
		out.Strict = true
	}
	if override.Verbose {
		out.Verbose = true
	}
	if override.MinCargoVersion != "" {
		out.MinCargoVersion = override.MinCargoVersion
	}

	// The warn block is all-or-nothing: once present in the file it replaces the defaults.
	if override.Warn != (WarnConfig{}) {
		out.Warn = override.Warn
	}

	return out
}

// ApplyFlags mutates cfg by applying values from CLI flags when they are present.
func ApplyFlags(cfg *Config, flags FlagValues) {
	if flags.MaxScore.Set {
		v := flags.MaxScore.Value
		cfg.MaxScore = &v
	}
	if flags.Mode.Set {
		cfg.Mode = flags.Mode.Value
	}
	if flags.AllowEmpty.Set {
		cfg.AllowEmpty = flags.AllowEmpty.Value
	}
	if len(flags.Include.Values) > 0 {
		cfg.Include = append([]string{}, flags.Include.Values...)
	}
	if len(flags.Exclude.Values) > 0 {
		cfg.Exclude = append([]string{}, flags.Exclude.Values...)
	}
	if flags.Toolchain.Set {
		cfg.Toolchain = flags.Toolchain.Value
	}
	if len(flags.CargoArgs.Values) > 0 {
		cfg.CargoArgs = append([]string{}, flags.CargoArgs.Values...)
	}
	if flags.Timeout.Set {
		cfg.Timeout = flags.Timeout.Value
	}
	if flags.Format.Set {
		cfg.Format = flags.Format.Value
	}
	if flags.Canonical.Set {
		cfg.Canonical = flags.Canonical.Value
	}
	if flags.Strict.Set {
		cfg.Strict = flags.Strict.Value
	}
	if flags.Verbose.Set {
		cfg.Verbose = flags.Verbose.Value
	}
}

// Validate rejects settings that cannot produce a meaningful report.
func (c Config) Validate() error {
	switch strings.ToLower(c.Mode) {
	case ModeObserved, ModeDeclared:
	default:
		return fmt.Errorf("unsupported mode %q (expected %s, %s)", c.Mode, ModeObserved, ModeDeclared)
	}
	switch strings.ToLower(c.Format) {
	case FormatPretty, FormatJSON:
	default:
		return fmt.Errorf("unsupported format %q", c.Format)
	}
	if c.MaxScore != nil && *c.MaxScore < 0 {
		return fmt.Errorf("max_score must not be negative, got %d", *c.MaxScore)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", c.Timeout)
	}
	if strings.EqualFold(c.Mode, ModeDeclared) && (len(c.Include) > 0 || len(c.Exclude) > 0) {
		return errors.New("declared mode cannot be combined with include/exclude filters: declared counts cover every test")
	}
	return nil
}

// FlagValues captures CLI flag state with knowledge of whether each flag was set explicitly.
type FlagValues struct {
	MaxScore   IntFlag
	Mode       StringFlag
	AllowEmpty BoolFlag
	Include    SliceFlag
	Exclude    SliceFlag
	Toolchain  StringFlag
	CargoArgs  SliceFlag
	Timeout    DurationFlag
	Format     StringFlag
	Canonical  BoolFlag
	Strict     BoolFlag
	Verbose    BoolFlag
}

// StringFlag represents a string flag and whether it was set.
type StringFlag struct {
	Value string
	Set   bool
}

// SliceFlag represents a slice flag and whether it captured values via CLI.
type SliceFlag struct {
	Values []string
}

// BoolFlag represents a bool flag and whether it was set.
type BoolFlag struct {
	Value bool
	Set   bool
}

// IntFlag represents an int flag and whether it was set.
type IntFlag struct {
	Value int
	Set   bool
}

// DurationFlag represents a duration flag and whether it was set.
type DurationFlag struct {
	Value time.Duration
	Set   bool
}
