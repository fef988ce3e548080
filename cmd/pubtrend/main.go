// Command pubtrend serves and queries PubMed publication trends.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pubtrend/pubtrend/internal/eutils"
	"github.com/pubtrend/pubtrend/internal/logging"
	"github.com/pubtrend/pubtrend/internal/output"
	"github.com/pubtrend/pubtrend/internal/trends"
)

var (
	flagJSON    bool
	flagHuman   bool
	flagCSV     string
	flagAPIKey  string
	flagVerbose bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "pubtrend",
	Short: "PubMed publication trends",
	Long: `Count PubMed publications per year, open rolling-window searches on the
NCBI history server and list the author affiliations they contain. The serve
subcommand exposes the same operations over HTTP.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return validateGlobalFlags()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Output as structured JSON")
	rootCmd.PersistentFlags().BoolVarP(&flagHuman, "human", "H", false, "Rich colorful terminal output")
	rootCmd.PersistentFlags().StringVar(&flagCSV, "csv", "", "Export results to CSV file")
	rootCmd.PersistentFlags().StringVar(&flagAPIKey, "api-key", "", "NCBI API key (or set NCBI_APP_KEY env var)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Log upstream requests to stderr")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(trendCmd)
	rootCmd.AddCommand(latestCmd)
	rootCmd.AddCommand(institutionsCmd)
}

func validateGlobalFlags() error {
	if flagJSON && flagHuman {
		return fmt.Errorf("--json and --human are mutually exclusive")
	}
	return nil
}

func outputCfg() output.OutputConfig {
	return output.OutputConfig{
		JSON:    flagJSON,
		Human:   flagHuman,
		CSVFile: flagCSV,
	}
}

func apiKey() string {
	if flagAPIKey != "" {
		return flagAPIKey
	}
	return os.Getenv("NCBI_APP_KEY")
}

func newCLILogger() *zap.Logger {
	if !flagVerbose {
		return zap.NewNop()
	}
	log, err := logging.New(true, "debug")
	if err != nil {
		return zap.NewNop()
	}
	return log
}

func newService() *trends.Service {
	var opts []eutils.Option
	if key := apiKey(); key != "" {
		opts = append(opts, eutils.WithAPIKey(key))
	}
	if u := os.Getenv("NCBI_URL"); u != "" {
		opts = append(opts, eutils.WithBaseURL(u))
	}
	return trends.NewService(eutils.NewClient(opts...), trends.WithLogger(newCLILogger()))
}

func diseaseArg(args []string) string {
	return strings.Join(args, " ")
}
