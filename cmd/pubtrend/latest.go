package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pubtrend/pubtrend/internal/output"
)

// latestCmd implements the latest subcommand.
var latestCmd = &cobra.Command{
	Use:   "latest <disease...>",
	Short: "Search the last 365 days",
	Long: `Search PubMed for publications from the last 365 days and keep the result
set on the NCBI history server. The printed WebEnv and query key feed the
institutions subcommand.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		handle, err := newService().LatestPublications(cmd.Context(), diseaseArg(args))
		if err != nil {
			return fmt.Errorf("latest search failed: %w", err)
		}
		return output.FormatHandle(os.Stdout, handle, outputCfg())
	},
}
