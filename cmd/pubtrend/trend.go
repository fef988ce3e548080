package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pubtrend/pubtrend/internal/output"
)

var (
	flagFrom int
	flagTo   int
)

// trendCmd implements the trend subcommand.
var trendCmd = &cobra.Command{
	Use:   "trend <disease...>",
	Short: "Count publications per year",
	Long:  `Count PubMed publications mentioning a disease for every year in --from..--to.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		disease := diseaseArg(args)
		counts, err := newService().Trend(cmd.Context(), disease, flagFrom, flagTo)
		if err != nil {
			return fmt.Errorf("trend lookup failed: %w", err)
		}
		return output.FormatTrend(os.Stdout, disease, counts, outputCfg())
	},
}

func init() {
	thisYear := time.Now().Year()
	trendCmd.Flags().IntVar(&flagFrom, "from", thisYear-9, "First year of the range")
	trendCmd.Flags().IntVar(&flagTo, "to", thisYear, "Last year of the range")
}
