// Package output provides formatting for pubtrend CLI output.
package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/pubtrend/pubtrend/internal/trends"
)

// OutputConfig controls which output mode(s) are active.
type OutputConfig struct {
	JSON    bool   // Structured JSON, same shape as the HTTP API
	Human   bool   // Rich terminal output with color
	CSVFile string // Export results to this CSV path (works alongside any mode)
}

// FormatTrend writes per-year publication counts.
func FormatTrend(w io.Writer, disease string, counts []trends.PublicationYearCount, cfg OutputConfig) error {
	if cfg.CSVFile != "" {
		if err := writeTrendCSV(cfg.CSVFile, counts); err != nil {
			return fmt.Errorf("CSV export failed: %w", err)
		}
	}
	if cfg.JSON {
		return writeJSON(w, counts)
	}
	if cfg.Human {
		return formatTrendHuman(w, disease, counts)
	}
	return formatTrendPlain(w, counts)
}

// FormatHandle writes a search history handle.
func FormatHandle(w io.Writer, handle *trends.SearchHistoryHandle, cfg OutputConfig) error {
	if cfg.JSON {
		return writeJSON(w, handle)
	}
	if cfg.Human {
		return formatHandleHuman(w, handle)
	}
	return formatHandlePlain(w, handle)
}

// FormatInstitutions writes a list of affiliations.
func FormatInstitutions(w io.Writer, institutions []string, cfg OutputConfig) error {
	if cfg.CSVFile != "" {
		if err := writeInstitutionsCSV(cfg.CSVFile, institutions); err != nil {
			return fmt.Errorf("CSV export failed: %w", err)
		}
	}
	if cfg.JSON {
		return writeJSON(w, institutions)
	}
	if cfg.Human {
		return formatInstitutionsHuman(w, institutions)
	}
	return formatInstitutionsPlain(w, institutions)
}

// --- Plain text formatters (default) ---

func formatTrendPlain(w io.Writer, counts []trends.PublicationYearCount) error {
	if len(counts) == 0 {
		fmt.Fprintln(w, "No years requested.")
		return nil
	}
	for _, c := range counts {
		fmt.Fprintf(w, "%d\t%d\n", c.Year, c.PublicationCount)
	}
	return nil
}

func formatHandlePlain(w io.Writer, handle *trends.SearchHistoryHandle) error {
	fmt.Fprintf(w, "WebEnv: %s\n", handle.SearchEnvironment)
	fmt.Fprintf(w, "Query key: %s\n", handle.QueryKey)
	fmt.Fprintf(w, "Count: %s\n", handle.TotalCount)
	return nil
}

func formatInstitutionsPlain(w io.Writer, institutions []string) error {
	if len(institutions) == 0 {
		fmt.Fprintln(w, "No affiliations found.")
		return nil
	}
	for _, inst := range institutions {
		fmt.Fprintln(w, inst)
	}
	return nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
