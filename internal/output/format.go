// Package output provides formatting for PubMed CLI output.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/henrybloomingdale/pubmed-go/internal/eutils"
)

// OutputConfig controls which output mode(s) are active.
type OutputConfig struct {
	JSON     bool   // Structured JSON
	Human    bool   // Rich terminal output with color
	Full     bool   // Show full abstract (human mode)
	CSVFile  string // Export results to this CSV path (works alongside any mode)
	RISFile  string // Export results to this RIS path (works alongside any mode)
	XLSXFile string // Export results to this XLSX path (works alongside any mode)
}

// SearchSummary describes the search that produced a set of records.
type SearchSummary struct {
	Term  string `json:"term"`
	Count int    `json:"count"` // total matches reported by ESearch
	Start int    `json:"start"`
}

// searchJSON is the --json shape of a search.
type searchJSON struct {
	SearchSummary
	Articles []eutils.Record `json:"articles"`
}

// Records converts articles to their record views.
func Records(articles []*eutils.Article) []eutils.Record {
	records := make([]eutils.Record, 0, len(articles))
	for _, a := range articles {
		records = append(records, a.ToRecord())
	}
	return records
}

// FormatSearchResult writes the records fetched for a search.
func FormatSearchResult(w io.Writer, summary SearchSummary, records []eutils.Record, cfg OutputConfig) error {
	if err := writeExports(records, cfg); err != nil {
		return err
	}
	if cfg.JSON {
		if records == nil {
			records = []eutils.Record{}
		}
		return writeJSON(w, searchJSON{SearchSummary: summary, Articles: records})
	}
	if cfg.Human {
		return formatSearchHuman(w, summary, records)
	}
	return formatSearchPlain(w, summary, records)
}

// FormatArticles writes article details.
func FormatArticles(w io.Writer, records []eutils.Record, cfg OutputConfig) error {
	if err := writeExports(records, cfg); err != nil {
		return err
	}
	if cfg.JSON {
		if records == nil {
			records = []eutils.Record{}
		}
		return writeJSON(w, records)
	}
	if cfg.Human {
		return formatArticlesHuman(w, records, cfg.Full)
	}
	return formatArticlesPlain(w, records)
}

func writeExports(records []eutils.Record, cfg OutputConfig) error {
	if cfg.CSVFile != "" {
		if err := writeRecordsCSV(cfg.CSVFile, records); err != nil {
			return fmt.Errorf("CSV export failed: %w", err)
		}
	}
	if cfg.RISFile != "" {
		if err := writeRecordsRIS(cfg.RISFile, records); err != nil {
			return fmt.Errorf("RIS export failed: %w", err)
		}
	}
	if cfg.XLSXFile != "" {
		if err := writeRecordsXLSX(cfg.XLSXFile, records); err != nil {
			return fmt.Errorf("XLSX export failed: %w", err)
		}
	}
	return nil
}

// --- Plain text formatters (default) ---

func formatSearchPlain(w io.Writer, summary SearchSummary, records []eutils.Record) error {
	if summary.Count == 0 {
		fmt.Fprintln(w, "No results found.")
		return nil
	}

	fmt.Fprintf(w, "Found %d results", summary.Count)
	if len(records) < summary.Count {
		fmt.Fprintf(w, " (showing %d)", len(records))
	}
	fmt.Fprintln(w)
	if summary.Term != "" {
		fmt.Fprintf(w, "Query: %s\n", summary.Term)
	}
	fmt.Fprintln(w)

	for i, r := range records {
		line := fmt.Sprintf("  %d. PMID: %s", summary.Start+i+1, r.PMID)
		if r.ArticleTitle != "" {
			line += "  " + r.ArticleTitle
		}
		if r.PubYear != "" {
			line += " (" + r.PubYear + ")"
		}
		fmt.Fprintln(w, line)
	}

	return nil
}

func formatArticlesPlain(w io.Writer, records []eutils.Record) error {
	if len(records) == 0 {
		fmt.Fprintln(w, "No articles found.")
		return nil
	}

	for i, r := range records {
		if i > 0 {
			fmt.Fprintf(w, "\n%s\n\n", strings.Repeat("─", 80))
		}

		fmt.Fprintf(w, "PMID: %s\n", r.PMID)
		fmt.Fprintf(w, "Title: %s\n", r.ArticleTitle)
		if len(r.Authors) > 0 {
			fmt.Fprintf(w, "Authors: %s\n", strings.Join(r.Authors, ", "))
		}
		fmt.Fprintf(w, "Journal: %s\n", citation(r))
		if r.ISSN != "" {
			fmt.Fprintf(w, "ISSN: %s\n", r.ISSN)
		}
		if r.Doid != "" {
			fmt.Fprintf(w, "DOI: %s\n", r.Doid)
		}
		if r.Pii != "" {
			fmt.Fprintf(w, "PII: %s\n", r.Pii)
		}
		if r.PublicationStatus != "" {
			fmt.Fprintf(w, "Status: %s\n", r.PublicationStatus)
		}
		if r.Affiliation != "" {
			fmt.Fprintf(w, "Affiliation: %s\n", r.Affiliation)
		}
		if r.AbstractText != "" {
			fmt.Fprintln(w)
			fmt.Fprintln(w, "Abstract:")
			fmt.Fprintln(w, r.AbstractText)
		}
	}

	return nil
}

// citation renders "Journal Vol(Issue):Pages (Year)" from whatever parts
// are present.
func citation(r eutils.Record) string {
	c := r.JournalTitle
	if c == "" {
		c = r.JournalAbbr
	}
	if r.Volume != "" {
		c += " " + r.Volume
		if r.Issue != "" {
			c += "(" + r.Issue + ")"
		}
	}
	if r.Pagination != "" {
		c += ":" + r.Pagination
	}
	if d := pubDate(r); d != "" {
		c += " (" + d + ")"
	}
	return strings.TrimSpace(c)
}

func pubDate(r eutils.Record) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{r.PubYear, r.PubMonth, r.PubDay} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
