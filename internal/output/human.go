package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/henrybloomingdale/pubmed-go/internal/eutils"
)

// --- Styles ---

var (
	cyan       = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	bold       = lipgloss.NewStyle().Bold(true)
	dim        = lipgloss.NewStyle().Faint(true)
	yellow     = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	magenta    = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))
	labelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("4"))
	boxStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("6")).
			Padding(0, 1)
)

// truncate cuts a string to maxLen runes, appending "…" if truncated.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-1]) + "…"
}

// --- Search ---

func formatSearchHuman(w io.Writer, summary SearchSummary, records []eutils.Record) error {
	if summary.Count == 0 {
		fmt.Fprintln(w, "🔬 No results found.")
		return nil
	}

	header := fmt.Sprintf("🔬 Found %d results", summary.Count)
	if len(records) < summary.Count {
		header += fmt.Sprintf(" (showing %d)", len(records))
	}
	fmt.Fprintln(w, bold.Render(header))
	if summary.Term != "" {
		fmt.Fprintf(w, "   Query: %s\n", dim.Render(summary.Term))
	}
	fmt.Fprintln(w)

	rows := make([][]string, 0, len(records))
	for i, r := range records {
		rows = append(rows, []string{
			fmt.Sprintf("%d", summary.Start+i+1),
			cyan.Render(r.PMID),
			bold.Render(truncate(r.ArticleTitle, 50)),
			r.PubYear,
			truncate(r.JournalAbbr, 24),
		})
	}

	t := table.New().
		Headers("#", "PMID", "Title", "Year", "Journal").
		Rows(rows...).
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("8"))).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("4"))
			}
			return lipgloss.NewStyle()
		})

	fmt.Fprintln(w, t.Render())
	fmt.Fprintln(w)
	fmt.Fprintln(w, dim.Render("💾 Use --csv, --ris or --xlsx to export"))
	return nil
}

// --- Fetch / Articles ---

func formatArticlesHuman(w io.Writer, records []eutils.Record, full bool) error {
	if len(records) == 0 {
		fmt.Fprintln(w, "No articles found.")
		return nil
	}

	for i, r := range records {
		if i > 0 {
			fmt.Fprintln(w)
		}

		// Title card
		meta := cyan.Render("PMID: " + r.PMID)
		if r.PubYear != "" {
			meta += dim.Render(" · ") + r.PubYear
		}
		if r.PublicationStatus != "" {
			meta += dim.Render(" · " + r.PublicationStatus)
		}
		fmt.Fprintln(w, boxStyle.Render(bold.Render(r.ArticleTitle)+"\n"+meta))
		fmt.Fprintln(w)

		if len(r.Authors) > 0 {
			fmt.Fprintf(w, "  %s %s\n", labelStyle.Render("Authors:"), strings.Join(r.Authors, ", "))
		}
		fmt.Fprintf(w, "  %s %s\n", labelStyle.Render("Journal:"), citation(r))
		if r.Doid != "" {
			fmt.Fprintf(w, "  %s %s\n", labelStyle.Render("DOI:"), yellow.Render(r.Doid))
		}
		if r.Pii != "" {
			fmt.Fprintf(w, "  %s %s\n", labelStyle.Render("PII:"), r.Pii)
		}
		if r.Affiliation != "" {
			fmt.Fprintf(w, "  %s %s\n", labelStyle.Render("Affiliation:"), magenta.Render(r.Affiliation))
		}

		if r.AbstractText != "" {
			fmt.Fprintln(w)
			fmt.Fprintf(w, "  %s\n", labelStyle.Render("Abstract:"))
			abstract := r.AbstractText
			if !full && len([]rune(abstract)) > 500 {
				abstract = truncate(abstract, 498)
				for _, line := range strings.Split(wordWrap(abstract, 76), "\n") {
					fmt.Fprintf(w, "  %s\n", line)
				}
				fmt.Fprintf(w, "  %s\n", dim.Render("[use --full for complete abstract]"))
			} else {
				for _, line := range strings.Split(wordWrap(abstract, 76), "\n") {
					fmt.Fprintf(w, "  %s\n", line)
				}
			}
		}
	}

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
