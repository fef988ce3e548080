package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/pubtrend/pubtrend/internal/trends"
)

// --- Styles ---

var (
	cyan       = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	bold       = lipgloss.NewStyle().Bold(true)
	dim        = lipgloss.NewStyle().Faint(true)
	green      = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	labelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("4"))
	boxStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("6")).
			Padding(0, 1)
)

const barWidth = 40

func newTable(headers ...string) *table.Table {
	return table.New().
		Headers(headers...).
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("8"))).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("4"))
			}
			return lipgloss.NewStyle()
		})
}

// bar renders n relative to peak as a run of block characters.
func bar(n, peak int) string {
	if peak <= 0 || n <= 0 {
		return ""
	}
	width := n * barWidth / peak
	if width == 0 {
		width = 1
	}
	return strings.Repeat("█", width)
}

// --- Trend ---

func formatTrendHuman(w io.Writer, disease string, counts []trends.PublicationYearCount) error {
	if len(counts) == 0 {
		fmt.Fprintln(w, "📈 No years requested.")
		return nil
	}

	peak, total := 0, 0
	for _, c := range counts {
		total += c.PublicationCount
		if c.PublicationCount > peak {
			peak = c.PublicationCount
		}
	}

	header := fmt.Sprintf("📈 %s: %d publications, %d–%d", disease, total, counts[0].Year, counts[len(counts)-1].Year)
	fmt.Fprintln(w, bold.Render(header))
	fmt.Fprintln(w)

	var rows [][]string
	for _, c := range counts {
		rows = append(rows, []string{
			cyan.Render(fmt.Sprintf("%d", c.Year)),
			fmt.Sprintf("%d", c.PublicationCount),
			green.Render(bar(c.PublicationCount, peak)),
		})
	}
	fmt.Fprintln(w, newTable("Year", "Publications", "").Rows(rows...).Render())

	fmt.Fprintln(w)
	fmt.Fprintln(w, dim.Render("💾 Use --csv output.csv to export"))
	return nil
}

// --- Handle ---

func formatHandleHuman(w io.Writer, handle *trends.SearchHistoryHandle) error {
	card := bold.Render(fmt.Sprintf("🔬 %s publications in the last 365 days", handle.TotalCount)) + "\n" +
		labelStyle.Render("WebEnv:") + " " + cyan.Render(handle.SearchEnvironment) + "\n" +
		labelStyle.Render("Query key:") + " " + cyan.Render(handle.QueryKey)
	fmt.Fprintln(w, boxStyle.Render(card))
	fmt.Fprintln(w)
	fmt.Fprintln(w, dim.Render(fmt.Sprintf("🏛️  Next: pubtrend institutions --env %s --qid %s", handle.SearchEnvironment, handle.QueryKey)))
	return nil
}

// --- Institutions ---

func formatInstitutionsHuman(w io.Writer, institutions []string) error {
	if len(institutions) == 0 {
		fmt.Fprintln(w, "🏛️  No affiliations found.")
		return nil
	}

	fmt.Fprintln(w, bold.Render(fmt.Sprintf("🏛️  %d unique affiliations", len(institutions))))
	fmt.Fprintln(w)

	var rows [][]string
	for i, inst := range institutions {
		rows = append(rows, []string{fmt.Sprintf("%d", i+1), wordWrap(inst, 76)})
	}
	fmt.Fprintln(w, newTable("#", "Affiliation").Rows(rows...).Render())
	return nil
}

// wordWrap wraps text at the given width, breaking at spaces.
func wordWrap(text string, width int) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}

	var lines []string
	current := words[0]

	for _, word := range words[1:] {
		if len(current)+1+len(word) > width {
			lines = append(lines, current)
			current = word
		} else {
			current += " " + word
		}
	}
	lines = append(lines, current)
	return strings.Join(lines, "\n")
}
