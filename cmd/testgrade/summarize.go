package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/bgricker/testgrade/internal/discovery"
	"github.com/bgricker/testgrade/internal/event"
)

func newSummarizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summarize [file|-]",
		Short: "Score an already captured libtest JSON stream",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSummarize,
	}

	flags := cmd.Flags()
	flags.String("shape", string(event.ShapeAuto), "input layout (auto|lines|document)")
	flags.Int("max-score", 0, "score ceiling; computed_score is omitted when unset")
	flags.String("output", "", "directory to write results.json into")
	flags.String("config-dir", ".", "directory holding .testgrade.yml")

	return cmd
}

func runSummarize(cmd *cobra.Command, args []string) error {
	configDir, err := cmd.Flags().GetString("config-dir")
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd, configDir)
	if err != nil {
		return err
	}
	sc, err := scoringFrom(cfg)
	if err != nil {
		return err
	}

	rawShape, err := cmd.Flags().GetString("shape")
	if err != nil {
		return err
	}
	shape, err := event.ParseShape(rawShape)
	if err != nil {
		return err
	}

	outDir, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	if outDir != "" {
		if outDir, err = discovery.Dir(outDir); err != nil {
			return fmt.Errorf("output directory: %w", err)
		}
	}

	data, err := readInput(cmd, args)
	if err != nil {
		return err
	}

	logger := newLogger(cmd.ErrOrStderr(), cfg.Verbose)
	rep, err := grade(data, shape, sc, logger)
	if err != nil {
		return err
	}
	return emit(cmd.OutOrStdout(), outDir, rep, cfg, logger)
}

func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	return data, nil
}
