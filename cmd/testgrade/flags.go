package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bgricker/testgrade/internal/config"
)

func gatherFlags(cmd *cobra.Command) (config.FlagValues, error) {
	flags := cmd.Flags()
	var values config.FlagValues

	stringFlags := map[string]*config.StringFlag{
		"mode":      &values.Mode,
		"format":    &values.Format,
		"toolchain": &values.Toolchain,
	}
	for name, dst := range stringFlags {
		if flags.Lookup(name) == nil || !flags.Changed(name) {
			continue
		}
		v, err := flags.GetString(name)
		if err != nil {
			return values, fmt.Errorf("parse --%s: %w", name, err)
		}
		*dst = config.StringFlag{Value: v, Set: true}
	}

	sliceFlags := map[string]*config.SliceFlag{
		"include":   &values.Include,
		"exclude":   &values.Exclude,
		"cargo-arg": &values.CargoArgs,
	}
	for name, dst := range sliceFlags {
		if flags.Lookup(name) == nil || !flags.Changed(name) {
			continue
		}
		v, err := flags.GetStringArray(name)
		if err != nil {
			return values, fmt.Errorf("parse --%s: %w", name, err)
		}
		*dst = config.SliceFlag{Values: append([]string{}, v...)}
	}

	boolFlags := map[string]*config.BoolFlag{
		"allow-empty": &values.AllowEmpty,
		"canonical":   &values.Canonical,
		"strict":      &values.Strict,
		"verbose":     &values.Verbose,
	}
	for name, dst := range boolFlags {
		if flags.Lookup(name) == nil || !flags.Changed(name) {
			continue
		}
		v, err := flags.GetBool(name)
		if err != nil {
			return values, fmt.Errorf("parse --%s: %w", name, err)
		}
		*dst = config.BoolFlag{Value: v, Set: true}
	}

	if flags.Lookup("max-score") != nil && flags.Changed("max-score") {
		v, err := flags.GetInt("max-score")
		if err != nil {
			return values, fmt.Errorf("parse --max-score: %w", err)
		}
		values.MaxScore = config.IntFlag{Value: v, Set: true}
	}

	if flags.Lookup("timeout") != nil && flags.Changed("timeout") {
		v, err := flags.GetDuration("timeout")
		if err != nil {
			return values, fmt.Errorf("parse --timeout: %w", err)
		}
		values.Timeout = config.DurationFlag{Value: v, Set: true}
	}

	return values, nil
}

// loadConfig reads the config file in dir and overlays explicitly set flags.
func loadConfig(cmd *cobra.Command, dir string) (config.Config, error) {
	cfg, err := config.Load(dir)
	if err != nil {
		return cfg, err
	}
	flags, err := gatherFlags(cmd)
	if err != nil {
		return cfg, err
	}
	config.ApplyFlags(&cfg, flags)
	return cfg, nil
}
