package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pubtrend/pubtrend/internal/output"
	"github.com/pubtrend/pubtrend/internal/trends"
)

var (
	flagEnv    string
	flagQID    int
	flagIdx    int
	flagRetMax int
)

// institutionsCmd implements the institutions subcommand.
var institutionsCmd = &cobra.Command{
	Use:   "institutions --env <webenv> --qid <key>",
	Short: "List author affiliations of a stored search",
	Long:  `Fetch one page of records from a stored search and list the unique author affiliations.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		insts, err := newService().Institutions(cmd.Context(), flagEnv, strconv.Itoa(flagQID), flagIdx, flagRetMax)
		if err != nil {
			return fmt.Errorf("institutions lookup failed: %w", err)
		}
		return output.FormatInstitutions(os.Stdout, insts, outputCfg())
	},
}

func init() {
	institutionsCmd.Flags().StringVar(&flagEnv, "env", "", "WebEnv returned by the latest subcommand")
	institutionsCmd.Flags().IntVar(&flagQID, "qid", 1, "Query key returned by the latest subcommand")
	institutionsCmd.Flags().IntVar(&flagIdx, "idx", 0, "Offset of the first record")
	institutionsCmd.Flags().IntVar(&flagRetMax, "retmax", trends.DefaultPageSize, "Number of records to scan")
	_ = institutionsCmd.MarkFlagRequired("env")
}
