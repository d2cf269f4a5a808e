package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "testgrade",
		Short:         "Testgrade runs a Rust exercise's tests and scores the results",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	persistent := cmd.PersistentFlags()
	persistent.String("mode", "observed", "how the test total is counted (observed|declared)")
	persistent.Bool("allow-empty", false, "treat a run with zero tests as passed")
	persistent.StringArray("include", nil, "score only tests matching pattern (repeatable, /regex/ allowed)")
	persistent.StringArray("exclude", nil, "ignore tests matching pattern (repeatable, /regex/ allowed)")
	persistent.Bool("canonical", false, "write RFC 8785 canonical JSON")
	persistent.Bool("strict", false, "exit 1 when the report status is fail")
	persistent.BoolP("verbose", "v", false, "stream runner output and debug logs to stderr")
	persistent.String("format", "pretty", "output format (pretty|json)")

	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newSummarizeCmd())

	return cmd
}
