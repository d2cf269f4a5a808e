package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/bgricker/testgrade/internal/config"
	"github.com/bgricker/testgrade/internal/discovery"
	"github.com/bgricker/testgrade/internal/event"
	"github.com/bgricker/testgrade/internal/runner"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <input_dir> <output_dir> [max_score]",
		Short: "Run cargo test in input_dir and write results.json to output_dir",
		Args:  cobra.RangeArgs(2, 3),
		RunE:  runExecute,
	}

	flags := cmd.Flags()
	flags.String("toolchain", config.DefaultToolchain, "rustup toolchain passed as +toolchain (empty for none)")
	flags.StringArray("cargo-arg", nil, "extra argument passed to the test binary (repeatable)")
	flags.Duration("timeout", config.DefaultTimeout, "abort the test run after this long")

	return cmd
}

func runExecute(cmd *cobra.Command, args []string) error {
	input, err := discovery.Dir(args[0])
	if err != nil {
		return fmt.Errorf("input directory: %w", err)
	}
	outDir, err := discovery.Dir(args[1])
	if err != nil {
		return fmt.Errorf("output directory: %w", err)
	}

	cfg, err := loadConfig(cmd, input)
	if err != nil {
		return err
	}
	if len(args) == 3 {
		n, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("parse max_score %q: %w", args[2], err)
		}
		cfg.MaxScore = &n
	}
	sc, err := scoringFrom(cfg)
	if err != nil {
		return err
	}

	logger := newLogger(cmd.ErrOrStderr(), cfg.Verbose)
	logger.Info("running tests", "input", input, "output", outDir, "toolchain", cfg.Toolchain, "cargo_args", cfg.CargoArgs)
	checkManifest(input, cfg, logger)
	checkToolchain(cfg, logger)

	r := runner.New(runner.Options{
		Dir:       input,
		Program:   cargoProgram,
		Toolchain: cfg.Toolchain,
		ExtraArgs: cfg.CargoArgs,
		EnvExtra:  cfg.Env,
		Timeout:   cfg.Timeout,
		Verbose:   cfg.Verbose,
		Stdout:    cmd.ErrOrStderr(),
		Stderr:    cmd.ErrOrStderr(),
		Logger:    logger,
	})
	capture, err := r.Run(cmd.Context())
	if err != nil {
		return err
	}
	if capture.ExitCode != 0 {
		logger.Info("test runner exited non-zero", "exit_code", capture.ExitCode)
	}
	if capture.Hint != "" {
		logger.Warn(capture.Hint, "stderr", capture.Stderr)
	}

	// cargo emits one JSON record per line; document mode is for captured payloads.
	rep, err := grade(capture.Stdout, event.ShapeLines, sc, logger)
	if err != nil {
		return err
	}
	return emit(cmd.OutOrStdout(), outDir, rep, cfg, logger)
}
